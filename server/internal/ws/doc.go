// Package ws implements the live stats stream for the dashboard.
//
// Hub manages a set of connected clients and broadcasts the current ecosystem
// stats to all of them every interval (default 30s). A client receives the
// current stats immediately on connect.
//
// Message format sent to clients:
//
//	{
//	  "event": "stats",
//	  "data":  { /* same schema as GET /api/stats */ }
//	}
//
// The endpoint is mounted at /ws/stream. Browser origins are checked against
// the configured allow-list; an empty list or "*" accepts any origin.
package ws
