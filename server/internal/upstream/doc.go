// Package upstream contains the clients for the two external market-data
// providers: CoinGecko (base-asset price, ecosystem tokens, price history)
// and TaoStats (per-subnet network metrics).
//
// Every client absorbs its own failures. Callers never see a transport or
// parse error; they get either a fallback value (price, history) or a Result
// whose Status is Unavailable (tokens, metrics). Successful responses are
// cached with a per-call freshness window and concurrent misses on the same
// key are collapsed into a single upstream request.
package upstream
