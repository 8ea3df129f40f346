package types

// Subnet is one entry in the served catalog.
//
// The first block of fields comes from the seed dataset. JSON keys keep the
// short names the dashboard frontend reads. MarketCapM is always expressed in
// millions of USD.
//
// The second block is the live overlay, recomputed on every request and never
// persisted.
type Subnet struct {
	ID           int     `json:"id"`
	Name         string  `json:"n"`
	Category     string  `json:"cat"`
	MarketCapM   float64 `json:"mc"`
	Emission     float64 `json:"em"`
	TaoPrice     float64 `json:"tao"`
	PE           float64 `json:"pe"`
	RegCost      float64 `json:"reg"`
	Valuation    float64 `json:"val"`
	Trend        string  `json:"trend"`
	Score        float64 `json:"score"`
	AlphaPrice   float64 `json:"alpha"`
	Validators   int     `json:"validators"`
	Miners       int     `json:"miners"`
	SharePct     float64 `json:"share"`
	DailyTao     float64 `json:"dailyTao"`
	Uptime       float64 `json:"uptime"`
	EmissionPct  float64 `json:"emission"`
	GitHub       float64 `json:"github"`
	Commits      int     `json:"commits"`
	Contributors int     `json:"contributors"`
	Stars        int     `json:"stars"`
	TestCoverage float64 `json:"testCov"`
	DocScore     float64 `json:"docScore"`
	Momentum     float64 `json:"momentum"`
	Liquidity    float64 `json:"liquidity"`
	Quality      float64 `json:"quality"`
	Economic     float64 `json:"economic"`
	Network      float64 `json:"network"`
	Fundamental  float64 `json:"fundamental"`

	// Live is true when at least one upstream source contributed to this
	// record during the current request.
	Live bool `json:"live"`
	// Authenticated mirrors whether the caller presented a valid token.
	Authenticated bool    `json:"authenticated"`
	PriceUSD      float64 `json:"price_usd"`
	Change24hPct  float64 `json:"change_24h"`
	Change7dPct   float64 `json:"change_7d"`
	Volume24hUSD  float64 `json:"volume_24h"`
	Image         string  `json:"image"`
}

// Stats is the payload for GET /api/stats.
type Stats struct {
	TaoPriceUSD     float64 `json:"tao_price"`
	TaoPriceBTC     float64 `json:"tao_price_btc"`
	TaoChange24hPct float64 `json:"tao_price_change_24h"`
	MarketCapUSD    float64 `json:"market_cap"`
	Volume24hUSD    float64 `json:"volume_24h"`

	ActiveSubnets            int     `json:"active_subnets"`
	SubnetMarketCapM         float64 `json:"subnet_market_cap"`
	TotalEcosystemMarketCapM float64 `json:"total_ecosystem_market_cap"`

	// Live is false when the price fields are the hardcoded fallback.
	Live bool `json:"live"`
}
