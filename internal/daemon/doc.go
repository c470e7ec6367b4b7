// Package daemon coordinates the long-running Valier process.
//
// It owns the single-instance lock, the Discord gateway connection, the
// registry of event room monitors and the local status API. On start it
// marks sessions left open by a previous process as abandoned and warns
// operators about rooms that may need manual cleanup. On stop it cancels
// every monitor and waits for them to exit before closing the gateway.
package daemon
