// Package proxypool gathers free proxies from public lists, validates them
// and rotates over the survivors.
//
// Sources download candidates (ListSource for plain host:port lists,
// TableSource for HTML tables). A Checker sends a HEAD request through each
// candidate concurrently and keeps the ones that answer, ordered by latency.
// GeoIP optionally tags each proxy with its country so that a pool can be
// restricted to some countries. Harvester ties these together and persists
// survivors through a Store, and Pool hands them out round-robin, dropping
// a proxy after repeated failures.
package proxypool
