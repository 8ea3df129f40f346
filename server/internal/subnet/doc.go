// Package subnet builds the served subnet listing and ecosystem stats.
//
// The baseline catalog is the floor for every field: live values from the
// token and network-metric sources replace a baseline value only when the
// source has data for the record and the value passes the field's policy in
// the overlay tables (rules.go). Service fans the three upstream fetches out
// concurrently and runs the merge once all have settled.
package subnet
