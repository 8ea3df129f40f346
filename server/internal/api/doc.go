// Package api implements the HTTP surface of the taoscope server.
//
// New(opts) returns a chi router that serves:
//
//	GET  /api/stats              ecosystem totals and base-asset price
//	GET  /api/subnets            merged subnet listing; bearer token optional
//	GET  /api/news               static headlines
//	GET  /api/research           static research reports
//	GET  /api/academy            static lessons keyed by slug
//	GET  /api/historical/{asset} daily price series (?days=1..365, default 30)
//	GET  /api/health             credential presence and upstream tallies
//	POST /api/admin/approve      invite an account; admin bearer token required
//	GET  /metrics                Prometheus exposition
//	GET  /ws/stream              stats WebSocket (when a hub is supplied)
//
// Errors are JSON objects of the form {"detail": "..."}. Public read
// endpoints never fail because of upstream problems; the sources behind them
// degrade to baseline or fallback data instead.
package api
