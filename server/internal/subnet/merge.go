package subnet

import (
	"fmt"
	"sort"

	"github.com/taoscope/taoscope/pkg/types"
	"github.com/taoscope/taoscope/server/internal/upstream"
)

// BaseAssetID is reserved for the network's root token. It is never turned
// into a subnet record even when the token source lists it.
const BaseAssetID = 0

// Defaults for records that exist only in the token source.
const (
	ecosystemCategory = "Ecosystem"
	neutralTrend      = "stable"
	neutralScore      = 50
)

// BuildListing merges the baseline with the live sources into one record per
// subnet id, sorted by market cap descending. Records with equal market cap
// keep their relative order.
func BuildListing(
	baseline []types.Subnet,
	price types.PriceSnapshot,
	tokens upstream.Result[map[int]types.EcosystemToken],
	metrics upstream.Result[map[int]types.NetworkMetric],
	authenticated bool,
) []types.Subnet {
	var tokenMap map[int]types.EcosystemToken
	if tokens.Available() {
		tokenMap = tokens.Value
	}
	var metricMap map[int]types.NetworkMetric
	if metrics.Available() {
		metricMap = metrics.Value
	}

	out := make([]types.Subnet, 0, len(baseline)+len(tokenMap))
	seen := make(map[int]struct{}, len(baseline))
	for _, base := range baseline {
		if _, dup := seen[base.ID]; dup {
			continue
		}
		seen[base.ID] = struct{}{}

		rec := base
		rec.TaoPrice = price.PriceUSD
		rec.Authenticated = authenticated

		tok, hasToken := tokenMap[rec.ID]
		met, hasMetric := metricMap[rec.ID]
		switch {
		case hasToken:
			rec.Live = true
			overlayToken(&rec, tok, price.PriceUSD)
		case hasMetric:
			rec.Live = true
		default:
			rec.Live = false
		}
		if hasMetric {
			apply(metricRules, &rec, met)
			if !hasToken && met.AlphaPrice > 0 {
				rec.AlphaPrice = met.AlphaPrice
			}
		}
		out = append(out, rec)
	}

	for _, id := range sortedIDs(tokenMap) {
		if _, ok := seen[id]; ok || id == BaseAssetID {
			continue
		}
		rec := types.Subnet{
			ID:            id,
			Name:          placeholderName(id),
			Category:      ecosystemCategory,
			TaoPrice:      price.PriceUSD,
			Trend:         neutralTrend,
			Score:         neutralScore,
			Live:          true,
			Authenticated: authenticated,
		}
		overlayToken(&rec, tokenMap[id], price.PriceUSD)
		out = append(out, rec)
	}

	sort.SliceStable(out, func(i, j int) bool { return out[i].MarketCapM > out[j].MarketCapM })
	return out
}

// overlayToken applies the token source to rec. The alpha price is derived
// from the token's USD price; the display name is taken unless the provider
// only has its generic placeholder.
func overlayToken(rec *types.Subnet, tok types.EcosystemToken, taoUSD float64) {
	apply(tokenRules, rec, tok)
	if tok.Image != "" {
		rec.Image = tok.Image
	}
	if tok.PriceUSD > 0 && taoUSD > 0 {
		rec.AlphaPrice = upstream.Round(tok.PriceUSD/taoUSD, 6)
	}
	if tok.Name != "" && tok.Name != placeholderName(rec.ID) {
		rec.Name = tok.Name
	}
}

func placeholderName(id int) string { return fmt.Sprintf("Subnet %d", id) }

func sortedIDs[V any](m map[int]V) []int {
	ids := make([]int, 0, len(m))
	for id := range m {
		ids = append(ids, id)
	}
	sort.Ints(ids)
	return ids
}
