// Package types defines the Go types shared across the server packages.
// These are the canonical in-memory representations of catalog records and
// upstream market data; their JSON tags are the wire format served by the API.
package types
