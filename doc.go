// Package lspclient provides a Go client for Language Server Protocol servers.
//
// The client runs a language server such as gopls as a subprocess, speaks
// JSON-RPC 2.0 to it over stdin/stdout, and exposes typed LSP requests. Every
// request is correlated with its response by id, in whatever order the server
// answers, and every request is guaranteed to resolve: with a result, an
// error, a local timeout, or a shutdown error when the connection ends.
//
// # Basic Usage
//
// Use WithClient for automatic lifecycle management:
//
//	err := lspclient.WithClient(ctx, func(c lspclient.Client) error {
//	    server := c.LSP()
//	    if err := server.DidOpen(ctx, uri, "go", 1, text); err != nil {
//	        return err
//	    }
//	    symbols, err := server.DocumentSymbol(ctx, uri)
//	    if err != nil {
//	        return err
//	    }
//	    for _, s := range symbols {
//	        fmt.Println(s.Name)
//	    }
//	    return nil
//	},
//	    lspclient.WithCommand("gopls"),
//	    lspclient.WithRootURI("file:///src/app"),
//	)
//
// Or use NewClient directly for more control:
//
//	client := lspclient.NewClient()
//	defer client.Close()
//
//	err := client.Start(ctx,
//	    lspclient.WithLogger(slog.Default()),
//	    lspclient.WithCommand("gopls"),
//	)
//
// # Raw Requests and Cancellation
//
// Methods without a typed wrapper are available through Go, Call, and Notify.
// Go returns a Call handle; Call.Cancel sends $/cancelRequest. Cancellation is
// advisory, so the call still resolves with the server's answer, which is
// usually an error that matches ErrRequestCancelled:
//
//	call, err := client.Go(ctx, "workspace/symbol", map[string]string{"query": "Handler"})
//	if err != nil {
//	    return err
//	}
//	_ = call.Cancel(ctx)
//	_, err = call.Wait(ctx)
//
// A request can carry its own deadline with WithTimeout, or inherit the
// client default set by WithRequestTimeout.
//
// # Server-Initiated Requests
//
// The client answers workspace/configuration from WithSettings, tracks
// work-done progress, and forwards diagnostics and log messages to the
// callbacks set by WithDiagnosticsHandler and WithLogMessageHandler. Other
// methods can be handled with WithRequestHandler, WithNotificationHandler, or
// the typed helpers TypedRequestHandler and TypedNotificationHandler.
//
// # Logging
//
// For detailed operation tracking, use WithLogger:
//
//	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelDebug}))
//	err := client.Start(ctx, lspclient.WithLogger(logger), lspclient.WithCommand("gopls"))
//
// # Error Handling
//
// Errors are typed, and KindOf sorts any of them into a category:
//
//	_, err := client.LSP().Hover(ctx, uri, pos)
//	switch lspclient.KindOf(err) {
//	case lspclient.KindTimeout:
//	    // retry later
//	case lspclient.KindTransportClosed:
//	    if perr, ok := errors.AsType[*lspclient.ProcessError](client.Err()); ok {
//	        log.Printf("server exited %d: %s", perr.ExitCode, perr.Stderr)
//	    }
//	}
package lspclient
