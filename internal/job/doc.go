// Package job manages download jobs against the aria2 daemon.
//
// The Controller is the service boundary of this repository: start a job
// (validate, bring the daemon up, negotiate access, submit), poll its
// status, stop it, or run a diagnostic probe. Jobs live entirely inside the
// daemon: the controller mirrors daemon state on demand and stores nothing
// durably, so a process restart forgets every GID while the daemon (if
// persistent) keeps them.
//
// All collaborators are injected as small interfaces, so tests drive the
// controller against fakes without touching the network or process-wide
// state.
package job
