// Package mcpconn adapts an MCP SDK transport to the client's Transport
// interface.
//
// Some JSON-RPC peers speak newline-delimited JSON over stdio, the framing
// used by MCP servers. For those, the SDK's mcp.CommandTransport already
// manages the process and the codec, so this package only bridges its
// message-level Connection to the byte-level Transport the endpoint reads.
//
//	transport := mcpconn.NewCommandTransport(log, options)
//	if err := transport.Start(ctx); err != nil {
//	    return err
//	}
package mcpconn
