// Package stream provides framed message transport over byte streams.
//
// A Framer turns a byte stream into message bodies and back. HeaderFramer speaks
// the Language Server Protocol base protocol (Content-Length headers) and
// LineFramer speaks newline-delimited JSON. Conn combines a Framer with a
// reader/writer pair to implement the endpoint's transport contract.
package stream
