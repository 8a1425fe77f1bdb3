package lsp

// Method names used by this package.
const (
	MethodInitialize     = "initialize"
	MethodInitialized    = "initialized"
	MethodShutdown       = "shutdown"
	MethodExit           = "exit"
	MethodDidOpen        = "textDocument/didOpen"
	MethodDidChange      = "textDocument/didChange"
	MethodDidClose       = "textDocument/didClose"
	MethodDidSave        = "textDocument/didSave"
	MethodCompletion     = "textDocument/completion"
	MethodHover          = "textDocument/hover"
	MethodDefinition     = "textDocument/definition"
	MethodReferences     = "textDocument/references"
	MethodDocumentSymbol = "textDocument/documentSymbol"

	MethodPublishDiagnostics     = "textDocument/publishDiagnostics"
	MethodLogMessage             = "window/logMessage"
	MethodShowMessage            = "window/showMessage"
	MethodWorkspaceConfiguration = "workspace/configuration"
	MethodWorkDoneProgressCreate = "window/workDoneProgress/create"
	MethodRegisterCapability     = "client/registerCapability"
	MethodUnregisterCapability   = "client/unregisterCapability"
	MethodProgress               = "$/progress"
)
