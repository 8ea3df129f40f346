package subnet

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/taoscope/taoscope/pkg/types"
	"github.com/taoscope/taoscope/server/internal/upstream"
)

func TestComputeStats_BaselineCount(t *testing.T) {
	baseline := []types.Subnet{
		baselineRecord(1, 10, 180),
		baselineRecord(2, 10, 0),
		baselineRecord(3, 10, 5),
	}
	got := ComputeStats(baseline, upstream.FallbackSnapshot(), noTokens())
	want := types.Stats{
		TaoPriceUSD:              180.80,
		MarketCapUSD:             847_200_000,
		Volume24hUSD:             8_400_000,
		ActiveSubnets:            2,
		SubnetMarketCapM:         0,
		TotalEcosystemMarketCapM: 847.2,
		Live:                     false,
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("stats mismatch (-want +got):\n%s", diff)
	}
}

func TestComputeStats_TokenCountReplacesBaseline(t *testing.T) {
	baseline := []types.Subnet{baselineRecord(1, 10, 180)}
	toks := tokens(map[int]types.EcosystemToken{
		1: {MarketCapM: 12.4},
		2: {MarketCapM: 0.35},
		3: {MarketCapM: 100.1},
	})
	got := ComputeStats(baseline, livePrice(), toks)
	if got.ActiveSubnets != 3 {
		t.Errorf("active_subnets: got %d, want 3", got.ActiveSubnets)
	}
	if got.SubnetMarketCapM != 112.85 {
		t.Errorf("subnet_market_cap: got %v, want 112.85", got.SubnetMarketCapM)
	}
	if got.TotalEcosystemMarketCapM != 1612.85 {
		t.Errorf("total_ecosystem_market_cap: got %v, want 1612.85", got.TotalEcosystemMarketCapM)
	}
	if !got.Live {
		t.Error("live: got false, want true")
	}
}

func TestComputeStats_EmptyTokenMapKeepsBaselineCount(t *testing.T) {
	baseline := []types.Subnet{baselineRecord(1, 10, 1), baselineRecord(2, 10, 1)}
	got := ComputeStats(baseline, livePrice(), tokens(map[int]types.EcosystemToken{}))
	if got.ActiveSubnets != 2 {
		t.Errorf("active_subnets: got %d, want 2", got.ActiveSubnets)
	}
}
