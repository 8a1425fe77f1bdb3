package lsp

// ClientCapabilities is the capabilities object sent in initialize.
type ClientCapabilities map[string]any

// DefaultClientCapabilities advertises what this client handles: document
// sync with save notifications, the request wrappers in this package,
// diagnostics, work-done progress, and configuration requests.
func DefaultClientCapabilities() ClientCapabilities {
	return ClientCapabilities{
		"textDocument": map[string]any{
			"synchronization": map[string]any{
				"dynamicRegistration": false,
				"didSave":             true,
			},
			"completion": map[string]any{
				"completionItem": map[string]any{
					"snippetSupport":      false,
					"documentationFormat": []string{"markdown", "plaintext"},
				},
				"contextSupport": true,
			},
			"hover": map[string]any{
				"contentFormat": []string{"markdown", "plaintext"},
			},
			"definition": map[string]any{
				"linkSupport": true,
			},
			"references": map[string]any{},
			"documentSymbol": map[string]any{
				"hierarchicalDocumentSymbolSupport": true,
			},
			"publishDiagnostics": map[string]any{
				"relatedInformation": false,
				"versionSupport":     true,
			},
		},
		"workspace": map[string]any{
			"configuration":    true,
			"workspaceFolders": true,
		},
		"window": map[string]any{
			"workDoneProgress": true,
			"showMessage":      map[string]any{},
		},
		"general": map[string]any{
			"positionEncodings": []string{"utf-16"},
		},
	}
}
