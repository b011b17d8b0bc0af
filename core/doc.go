// Package core contains the canonical webmention domain values, error
// taxonomy, configuration and observability contracts. Protocol engines
// (discovery, notify, verify) and surfaces (inbound, sender) depend on this
// package; core must not depend on any of them.
package core
