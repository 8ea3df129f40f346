package types

// PriceSnapshot is the base asset's market state. Units are part of the field
// names: MarketCapUSD is raw dollars, unlike the per-subnet MarketCapM.
type PriceSnapshot struct {
	PriceUSD     float64 `json:"price_usd"`
	PriceBTC     float64 `json:"price_btc"`
	Change24hPct float64 `json:"change_24h_pct"`
	MarketCapUSD float64 `json:"market_cap_usd"`
	Volume24hUSD float64 `json:"volume_24h_usd"`

	// Live is false for the hardcoded fallback snapshot.
	Live bool `json:"live"`
}

// EcosystemToken is one tradeable subnet token from the price provider's
// ecosystem category, keyed by the subnet id parsed from its symbol.
type EcosystemToken struct {
	PriceUSD     float64 `json:"price_usd"`
	MarketCapM   float64 `json:"mc"`
	Change24hPct float64 `json:"change_24h"`
	Change7dPct  float64 `json:"change_7d"`
	Volume24hUSD float64 `json:"volume_24h"`
	Name         string  `json:"name"`
	Image        string  `json:"image"`
}

// NetworkMetric holds per-subnet operational metrics from the network-metrics
// provider.
type NetworkMetric struct {
	Emission   float64 `json:"em"`
	SharePct   float64 `json:"share"`
	Validators int     `json:"validators"`
	Miners     int     `json:"miners"`
	AlphaPrice float64 `json:"alpha"`
}

// HistoryPoint is one daily sample of an asset's USD price.
type HistoryPoint struct {
	Date  string  `json:"date"` // YYYY-MM-DD, UTC
	Value float64 `json:"value"`
}
