package subnet

import "github.com/taoscope/taoscope/pkg/types"

// policy decides whether a live value is present enough to replace the
// baseline.
type policy int

const (
	// positive accepts strictly positive values. Counts, emissions, prices
	// and caps use it: zero from an upstream means "not indexed yet".
	positive policy = iota
	// nonZero accepts any value except zero. Percent changes use it since a
	// negative change is real data.
	nonZero
)

func (p policy) accepts(v float64) bool {
	switch p {
	case positive:
		return v > 0
	case nonZero:
		return v != 0
	}
	return false
}

// rule overlays one numeric field from a live source S onto a record.
type rule[S any] struct {
	field  string
	policy policy
	get    func(S) float64
	set    func(*types.Subnet, float64)
}

// tokenRules is the overlay from the ecosystem-token source.
var tokenRules = []rule[types.EcosystemToken]{
	{"mc", positive,
		func(t types.EcosystemToken) float64 { return t.MarketCapM },
		func(s *types.Subnet, v float64) { s.MarketCapM = v }},
	{"price_usd", positive,
		func(t types.EcosystemToken) float64 { return t.PriceUSD },
		func(s *types.Subnet, v float64) { s.PriceUSD = v }},
	{"change_24h", nonZero,
		func(t types.EcosystemToken) float64 { return t.Change24hPct },
		func(s *types.Subnet, v float64) { s.Change24hPct = v }},
	{"change_7d", nonZero,
		func(t types.EcosystemToken) float64 { return t.Change7dPct },
		func(s *types.Subnet, v float64) { s.Change7dPct = v }},
	{"volume_24h", positive,
		func(t types.EcosystemToken) float64 { return t.Volume24hUSD },
		func(s *types.Subnet, v float64) { s.Volume24hUSD = v }},
}

// metricRules is the overlay from the network-metrics source.
var metricRules = []rule[types.NetworkMetric]{
	{"em", positive,
		func(m types.NetworkMetric) float64 { return m.Emission },
		func(s *types.Subnet, v float64) { s.Emission = v }},
	{"share", positive,
		func(m types.NetworkMetric) float64 { return m.SharePct },
		func(s *types.Subnet, v float64) { s.SharePct = v }},
	{"validators", positive,
		func(m types.NetworkMetric) float64 { return float64(m.Validators) },
		func(s *types.Subnet, v float64) { s.Validators = int(v) }},
	{"miners", positive,
		func(m types.NetworkMetric) float64 { return float64(m.Miners) },
		func(s *types.Subnet, v float64) { s.Miners = int(v) }},
}

// apply runs every rule in rules against rec using live as the source.
func apply[S any](rules []rule[S], rec *types.Subnet, live S) {
	for _, r := range rules {
		if v := r.get(live); r.policy.accepts(v) {
			r.set(rec, v)
		}
	}
}
