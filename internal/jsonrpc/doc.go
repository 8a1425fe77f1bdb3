// Package jsonrpc defines the JSON-RPC 2.0 message model used on the wire.
//
// Decode classifies raw bytes into a Request, Notification, or Response purely by
// which fields are present, and reports anything else as a protocol error. Encode
// is its inverse and always stamps the protocol version.
package jsonrpc
