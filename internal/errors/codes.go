package errors

// Code is a JSON-RPC error code carried in an error response.
type Code int64

// Standard JSON-RPC 2.0 error codes.
const (
	CodeParseError     Code = -32700
	CodeInvalidRequest Code = -32600
	CodeMethodNotFound Code = -32601
	CodeInvalidParams  Code = -32602
	CodeInternalError  Code = -32603
)

// Implementation-defined server error range, inclusive.
const (
	CodeServerErrorStart Code = -32099
	CodeServerErrorEnd   Code = -32000
)

// Codes reserved by the Language Server Protocol.
const (
	CodeServerNotInitialized Code = -32002
	CodeUnknownErrorCode     Code = -32001
	CodeRequestFailed        Code = -32803
	CodeServerCancelled      Code = -32802
	CodeContentModified      Code = -32801
	CodeRequestCancelled     Code = -32800
)

// IsServerError reports whether c lies in the implementation-defined server range.
func (c Code) IsServerError() bool {
	return c >= CodeServerErrorStart && c <= CodeServerErrorEnd
}

func (c Code) String() string {
	switch c {
	case CodeParseError:
		return "ParseError"
	case CodeInvalidRequest:
		return "InvalidRequest"
	case CodeMethodNotFound:
		return "MethodNotFound"
	case CodeInvalidParams:
		return "InvalidParams"
	case CodeInternalError:
		return "InternalError"
	case CodeServerNotInitialized:
		return "ServerNotInitialized"
	case CodeUnknownErrorCode:
		return "UnknownErrorCode"
	case CodeRequestFailed:
		return "RequestFailed"
	case CodeServerCancelled:
		return "ServerCancelled"
	case CodeContentModified:
		return "ContentModified"
	case CodeRequestCancelled:
		return "RequestCancelled"
	}

	if c.IsServerError() {
		return "ServerError"
	}

	return "Unknown"
}
