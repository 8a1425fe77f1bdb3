// Package subprocess provides subprocess-based transport for language servers.
//
// This package implements the Transport interface by spawning the server as a
// child process and exchanging framed JSON-RPC messages over its stdin and
// stdout. It handles process lifecycle management, stderr capture, and turning
// an abnormal exit into a ProcessError.
package subprocess
