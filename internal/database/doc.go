// Package database provides SQLite-based storage for scholarnav.
//
// ProxyDB keeps the free proxies that passed validation, with their latency,
// country and consecutive failure count. The free-proxies mode reads it on
// startup and writes back after each harvest, so a restart does not have to
// re-check every public list.
//
// SQLite is used via modernc.org/sqlite, a CGO-free driver; the database is
// a single file under the XDG data directory.
package database
