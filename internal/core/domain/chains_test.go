package domain

import (
	"slices"
	"testing"
)

func TestChainFamily_Metrics(t *testing.T) {
	all := []HealthMetric{MetricHealth, MetricSyncStatus, MetricVersion}
	tests := []struct {
		family ChainFamily
		want   []HealthMetric
	}{
		{FamilyUTXO, all},
		{FamilyEVM, all},
		{FamilyThornode, all},
		{FamilyCosmos, []HealthMetric{MetricHealth, MetricSyncStatus}},
		{ChainFamily("svm"), nil},
	}

	for _, tt := range tests {
		t.Run(string(tt.family), func(t *testing.T) {
			if got := tt.family.Metrics(); !slices.Equal(got, tt.want) {
				t.Errorf("expected %v, got %v", tt.want, got)
			}
		})
	}
}

func TestNode_MetricsAddsVersionWhenPolicySet(t *testing.T) {
	node := Node{Name: "Cosmos", Family: FamilyCosmos}
	if slices.Contains(node.Metrics(), MetricVersion) {
		t.Fatal("expected no version metric without a policy")
	}

	node.VersionPolicy = VersionMajority
	got := node.Metrics()
	if len(got) != 3 || got[2] != MetricVersion {
		t.Errorf("expected version metric last, got %v", got)
	}

	evm := Node{Name: "Ethereum", Family: FamilyEVM, VersionPolicy: VersionReachable}
	if got := evm.Metrics(); len(got) != 3 {
		t.Errorf("expected version metric once, got %v", got)
	}
}
