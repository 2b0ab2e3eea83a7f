// Package tor provides the anonymizing-circuit exit used by the proxy provider.
//
// It covers three concerns:
//   - Client: a SOCKS5 dialer for an existing Tor daemon, a handshake probe
//     (CheckConnection) that tells a Tor proxy apart from a dead port or an
//     unrelated service, and an http.Transport that dials through the circuit.
//   - Controller: the control-port commands needed to get a new exit
//     address (AUTHENTICATE, SIGNAL NEWNYM).
//   - EmbeddedTor: a private daemon started through tornago, for users who
//     do not run Tor themselves. Restart replaces it to rotate the exit.
//
// Scholar bans Tor exits quickly. The provider therefore treats a challenge
// page as a reason to request a new circuit, not as a fatal error.
package tor
