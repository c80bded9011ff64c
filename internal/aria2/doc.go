// Package aria2 speaks the aria2 JSON-RPC control protocol and supervises
// the daemon process behind it.
//
// Client wraps the handful of methods this project drives (getVersion,
// addUri, tellStatus, remove) over a loopback HTTP endpoint, carrying the
// shared secret as the protocol's "token:<secret>" first positional
// parameter. Daemon-side rejections surface as *RPCError; transport
// failures surface as ordinary wrapped errors.
//
// Supervisor keeps the daemon available: a cheap version query when it is
// already up, otherwise a detached launch of the aria2c binary followed by a
// bounded readiness poll.
//
//	client := aria2.NewClient(aria2.DefaultOptions())
//	sup := aria2.NewSupervisor(client)
//	if err := sup.EnsureRunning(ctx); err != nil { ... }
//	gid, err := client.AddURI(ctx, []string{url}, options)
package aria2
