package subnet

import (
	"github.com/taoscope/taoscope/pkg/types"
	"github.com/taoscope/taoscope/server/internal/upstream"
)

// ComputeStats derives the ecosystem totals. The active subnet count comes
// from the live token listing when it has any entries, otherwise from the
// baseline records with positive emission. Token caps are already in
// millions; the base asset's cap is converted before summing.
func ComputeStats(baseline []types.Subnet, price types.PriceSnapshot, tokens upstream.Result[map[int]types.EcosystemToken]) types.Stats {
	active := 0
	for _, s := range baseline {
		if s.Emission > 0 {
			active++
		}
	}

	var subnetCapM float64
	if tokens.Available() && len(tokens.Value) > 0 {
		active = len(tokens.Value)
		for _, t := range tokens.Value {
			subnetCapM += t.MarketCapM
		}
	}
	subnetCapM = upstream.Round(subnetCapM, 2)

	return types.Stats{
		TaoPriceUSD:              price.PriceUSD,
		TaoPriceBTC:              price.PriceBTC,
		TaoChange24hPct:          price.Change24hPct,
		MarketCapUSD:             price.MarketCapUSD,
		Volume24hUSD:             price.Volume24hUSD,
		ActiveSubnets:            active,
		SubnetMarketCapM:         subnetCapM,
		TotalEcosystemMarketCapM: upstream.Round(price.MarketCapUSD/1e6+subnetCapM, 2),
		Live:                     price.Live,
	}
}
