// Package netdial establishes outbound stream connections with explicit
// control over cancellation, deadlines and multi-address fallback. In go
// lingo, that process is called "dialing".
//
// The central component of this package is the Dialer. A Dialer assembles a
// set of modular components, each with a clearly-delimited responsibility,
// into a dialing engine. Consumers can replace components to customize the
// engine's behavior.
//
// The Dialer comprises four components. We provide brief descriptions
// below. For more detail, refer to the respective godocs:
//
//   - Resolver: turns a host name into the ordered list of candidate
//     addresses to attempt; address literals bypass it.
//   - Connector: carries out one connect attempt to one candidate address,
//     optionally bound to a local endpoint. NetConnector rides the runtime
//     poller; RawConnector manages the socket and the completion race
//     itself; ProxyConnector tunnels through SOCKS5.
//   - the serial fallback engine: walks the candidates in order, falling
//     through per-candidate failures until one connects, surfacing the last
//     failure when all of them are exhausted.
//   - the deadline guard: derives a timer-backed cancellation source, links
//     it with the caller's context, and attributes a fired dial to exactly
//     one of the two.
//
// Dials are blocking by default; DialAsync runs the same engine on a
// background goroutine and hands back a Request for awaiting, inspecting
// or cancelling the in-flight dial.
package netdial

//go:generate mockgen -package mocknetdial -destination mocks/mocks.go github.com/netdial/go-netdial Resolver,Connector
