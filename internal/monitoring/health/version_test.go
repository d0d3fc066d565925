package health

import (
	"testing"

	"github.com/vietddude/nodewatch/internal/core/domain"
)

func TestIsSynced(t *testing.T) {
	tests := []struct {
		node, ref, tolerance int64
		want                 bool
	}{
		{99, 100, 1, true},
		{99, 102, 1, false},
		{500, 501, 1, true},
		{100, 100, 0, true},
		{101, 100, 0, true},
		{0, NoReference, 0, true},
		{797, 800, 3, true},
		{796, 800, 3, false},
	}

	for _, tt := range tests {
		if got := IsSynced(tt.node, tt.ref, tt.tolerance); got != tt.want {
			t.Errorf("IsSynced(%d, %d, %d) = %v, want %v", tt.node, tt.ref, tt.tolerance, got, tt.want)
		}
	}
}

func TestBestReference(t *testing.T) {
	if got := BestReference(nil, nil); got != NoReference {
		t.Errorf("expected NoReference for empty input, got %d", got)
	}
	if got := BestReference([]int64{5, 9, 7}, []error{nil, errTest, nil}); got != 7 {
		t.Errorf("expected failed reference to be skipped, got %d", got)
	}
}

func TestParseVersion(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"1.121.0", "1.121.0", true},
		{"v0.34.27", "0.34.27", true},
		{"/Satoshi:25.0.0/", "25.0.0", true},
		{"Geth/v1.13.5-stable/linux-amd64/go1.21.4", "1.13.5", true},
		{"unknown", "", false},
	}

	for _, tt := range tests {
		v, err := ParseVersion(tt.in)
		if (err == nil) != tt.ok {
			t.Errorf("ParseVersion(%q) error = %v", tt.in, err)
			continue
		}
		if tt.ok && v.String() != tt.want {
			t.Errorf("ParseVersion(%q) = %s, want %s", tt.in, v.String(), tt.want)
		}
	}
}

func TestRankedVersions_TieBreaksOnHigherVersion(t *testing.T) {
	ranked := RankedVersions(map[string]int{"1.2.0": 3, "1.10.0": 3, "1.1.0": 5})
	want := []string{"1.1.0", "1.10.0", "1.2.0"}
	for i := range want {
		if ranked[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, ranked)
		}
	}
}

func TestEvaluateVersion(t *testing.T) {
	population := map[string]int{
		"/Satoshi:25.0.0/": 40,
		"/Satoshi:24.0.1/": 30,
		"/Satoshi:23.0.0/": 20,
		"/Satoshi:22.0.0/": 10,
	}

	tests := []struct {
		name    string
		policy  domain.VersionPolicy
		version string
		pop     map[string]int
		want    domain.CheckStatus
	}{
		{"top three includes third", domain.VersionTopN, "/Satoshi:23.0.0/", population, domain.StatusPass},
		{"top three excludes fourth", domain.VersionTopN, "/Satoshi:22.0.0/", population, domain.StatusFail},
		{"majority exact", domain.VersionMajority, "/Satoshi:25.0.0/", population, domain.StatusPass},
		{"at least top equal", domain.VersionAtLeastTop, "1.121.0", map[string]int{"1.121.0": 90, "1.120.0": 10}, domain.StatusPass},
		{"at least top behind", domain.VersionAtLeastTop, "1.120.0", map[string]int{"1.121.0": 1, "1.120.0": 99}, domain.StatusFail},
		{"empty population", domain.VersionMajority, "1.0.0", map[string]int{}, domain.StatusInconclusive},
		{"empty node version", domain.VersionMajority, "", population, domain.StatusInconclusive},
		{"unparsable population", domain.VersionAtLeastTop, "1.0.0", map[string]int{"nightly": 3}, domain.StatusInconclusive},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, _, reason := EvaluateVersion(tt.policy, 3, tt.version, tt.pop)
			if got != tt.want {
				t.Errorf("expected %s, got %s (%s)", tt.want, got, reason)
			}
		})
	}
}
