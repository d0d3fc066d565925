package alerting

import (
	"math"
	"time"
)

// Policy decides whether an observation is materially worse than the last
// value an incident was raised for. Each incident type has its own rule.
type Policy interface {
	ShouldAlert(value, previous float64) bool
}

// recorder is implemented by policies that remember every observation, not
// only the ones that raised an incident.
type recorder interface {
	RecordAlways() bool
}

func recordsAlways(p Policy) bool {
	r, ok := p.(recorder)
	return ok && r.RecordAlways()
}

// SlashPointsPolicy alerts above Threshold once the value has more than doubled.
type SlashPointsPolicy struct {
	Threshold float64
}

func (p SlashPointsPolicy) ShouldAlert(value, previous float64) bool {
	return value > p.Threshold && value > 2*previous
}

// ChainObservationPolicy alerts when the block difference, in either
// direction, has more than doubled.
type ChainObservationPolicy struct{}

func (ChainObservationPolicy) ShouldAlert(value, previous float64) bool {
	return math.Abs(value) > math.Abs(2*previous)
}

// JailPolicy alerts on a release height past the previously alerted one,
// once the chain has moved beyond that previous release.
type JailPolicy struct {
	CurrentHeight int64
}

func (p JailPolicy) ShouldAlert(releaseHeight, previous float64) bool {
	return float64(p.CurrentHeight) > previous && releaseHeight > previous
}

// RestartPolicy alerts when the restart counter grew and the last restart
// happened within Window.
type RestartPolicy struct {
	LastRestart time.Time
	Window      time.Duration
	Now         func() time.Time
}

func (p RestartPolicy) ShouldAlert(restarts, previous float64) bool {
	now := time.Now
	if p.Now != nil {
		now = p.Now
	}
	window := p.Window
	if window == 0 {
		window = 10 * time.Minute
	}
	return restarts > previous && now().Sub(p.LastRestart) < window
}

// RecordAlways keeps the restart counter current even when quiet.
func (RestartPolicy) RecordAlways() bool { return true }

// DiskUsagePolicy alerts above Threshold percent once usage grew by Growth.
type DiskUsagePolicy struct {
	Threshold float64
	Growth    float64 // default 1.05
}

func (p DiskUsagePolicy) ShouldAlert(usage, previous float64) bool {
	growth := p.Growth
	if growth == 0 {
		growth = 1.05
	}
	return usage > p.Threshold && usage > growth*previous
}

// AlwaysPolicy has no hysteresis.
type AlwaysPolicy struct{}

func (AlwaysPolicy) ShouldAlert(float64, float64) bool { return true }
