package health

import (
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"

	goversion "github.com/hashicorp/go-version"

	"github.com/vietddude/nodewatch/internal/core/domain"
)

// ErrNoPopulation means the reference returned no versions to compare against.
var ErrNoPopulation = errors.New("no reference versions")

var dottedVersion = regexp.MustCompile(`[0-9]+(\.[0-9]+)+`)

// ParseVersion parses a version string, falling back to the first dotted
// number sequence for decorated strings like "/Satoshi:25.0.0/".
func ParseVersion(s string) (*goversion.Version, error) {
	if v, err := goversion.NewVersion(strings.TrimSpace(s)); err == nil {
		return v, nil
	}
	if m := dottedVersion.FindString(s); m != "" {
		return goversion.NewVersion(m)
	}
	return nil, fmt.Errorf("unparsable version %q", s)
}

// RankedVersions orders a version population by count, most common first.
// Ties go to the higher version.
func RankedVersions(population map[string]int) []string {
	ranked := make([]string, 0, len(population))
	for v := range population {
		ranked = append(ranked, v)
	}

	slices.SortFunc(ranked, func(a, b string) int {
		if population[a] != population[b] {
			return population[b] - population[a]
		}
		va, errA := ParseVersion(a)
		vb, errB := ParseVersion(b)
		if errA == nil && errB == nil {
			if c := vb.Compare(va); c != 0 {
				return c
			}
		}
		return strings.Compare(b, a)
	})
	return ranked
}

// HighestVersion returns the highest parsable version of the population.
func HighestVersion(population map[string]int) (string, error) {
	var (
		top    string
		topVer *goversion.Version
	)
	for v := range population {
		parsed, err := ParseVersion(v)
		if err != nil {
			continue
		}
		if topVer == nil || parsed.GreaterThan(topVer) {
			top, topVer = v, parsed
		}
	}
	if topVer == nil {
		return "", ErrNoPopulation
	}
	return top, nil
}

// EvaluateVersion judges a node version against its network population.
// It returns the verdict, the version compared against and a reason on failure.
func EvaluateVersion(
	policy domain.VersionPolicy,
	topN int,
	nodeVersion string,
	population map[string]int,
) (domain.CheckStatus, string, string) {
	if policy == domain.VersionReachable {
		return domain.StatusPass, "", ""
	}
	if nodeVersion == "" {
		return domain.StatusInconclusive, "", "node reported an empty version"
	}
	if len(population) == 0 {
		return domain.StatusInconclusive, "", ErrNoPopulation.Error()
	}

	switch policy {
	case domain.VersionMajority:
		top := RankedVersions(population)[0]
		if nodeVersion == top {
			return domain.StatusPass, top, ""
		}
		return domain.StatusFail, top, fmt.Sprintf("node version %q is not the most common %q", nodeVersion, top)

	case domain.VersionTopN:
		ranked := RankedVersions(population)
		if topN <= 0 {
			topN = 1
		}
		if len(ranked) > topN {
			ranked = ranked[:topN]
		}
		if slices.Contains(ranked, nodeVersion) {
			return domain.StatusPass, ranked[0], ""
		}
		return domain.StatusFail, ranked[0], fmt.Sprintf("node version %q not in top versions %q", nodeVersion, ranked)

	case domain.VersionAtLeastTop:
		nodeVer, err := ParseVersion(nodeVersion)
		if err != nil {
			return domain.StatusInconclusive, "", err.Error()
		}
		top, err := HighestVersion(population)
		if err != nil {
			return domain.StatusInconclusive, "", err.Error()
		}
		topVer, _ := ParseVersion(top)
		if nodeVer.LessThan(topVer) {
			return domain.StatusFail, top, fmt.Sprintf("node version %s < top version %s", nodeVersion, top)
		}
		return domain.StatusPass, top, ""

	default:
		return domain.StatusInconclusive, "", fmt.Sprintf("unknown version policy %q", policy)
	}
}
