// Package lsp serves the language protocol over stdio. The server is
// deliberately single threaded: one loop reads a message, handles it,
// then runs any analysis whose debounce window has expired. All state is
// owned by that loop, so handlers never lock.
package lsp

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"z3dk/internal/diag"
	"z3dk/internal/version"
	"z3dk/internal/workspace"
)

var (
	// ErrExit signals a graceful shutdown after receiving "exit".
	ErrExit = errors.New("lsp exit")
	// ErrExitWithoutShutdown signals an "exit" without a preceding "shutdown".
	ErrExitWithoutShutdown = errors.New("lsp exit without shutdown")
)

type ServerOptions struct {
	Debounce time.Duration
	LogPath  string
}

type Server struct {
	in  *bufio.Reader
	out *bufio.Writer
	ws  *workspace.Workspace

	debounce          time.Duration
	shutdownRequested bool
	published         map[string]bool
	logFile           *os.File
	baseCtx           context.Context
}

func NewServer(in io.Reader, out io.Writer, ws *workspace.Workspace, opts ServerOptions) *Server {
	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = 500 * time.Millisecond
	}
	s := &Server{
		in:        bufio.NewReader(in),
		out:       bufio.NewWriter(out),
		ws:        ws,
		debounce:  debounce,
		published: make(map[string]bool),
	}
	logPath := opts.LogPath
	if logPath == "" {
		logPath = ws.Config.Resolve(ws.Config.Log.Path)
	}
	if logPath != "" {
		if f, err := os.OpenFile(logPath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644); err == nil {
			s.logFile = f
		}
	}
	return s
}

// Run serves requests until exit or EOF.
func (s *Server) Run(ctx context.Context) error {
	s.baseCtx = ctx
	defer func() {
		if s.logFile != nil {
			s.logFile.Close()
		}
	}()
	for {
		payload, err := readMessage(s.in)
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		var msg rpcMessage
		if err := json.Unmarshal(payload, &msg); err != nil {
			s.logf("failed to parse message: %v", err)
			continue
		}
		if msg.Method == "" {
			continue
		}
		if err := s.handleMessage(&msg); err != nil {
			return err
		}
		s.runPendingAnalyses(false)
	}
}

func (s *Server) handleMessage(msg *rpcMessage) error {
	switch msg.Method {
	case "initialize":
		return s.handleInitialize(msg)
	case "initialized":
		return nil
	case "shutdown":
		s.shutdownRequested = true
		return s.sendResponse(msg.ID, nil)
	case "exit":
		if s.shutdownRequested {
			return ErrExit
		}
		return ErrExitWithoutShutdown
	case "textDocument/didOpen":
		return s.handleDidOpen(msg)
	case "textDocument/didChange":
		return s.handleDidChange(msg)
	case "textDocument/didSave":
		return s.handleDidSave(msg)
	case "textDocument/didClose":
		return s.handleDidClose(msg)
	case "textDocument/hover":
		return s.handleHover(msg)
	case "textDocument/definition":
		return s.handleDefinition(msg)
	case "textDocument/completion":
		return s.handleCompletion(msg)
	case "textDocument/documentSymbol":
		return s.handleDocumentSymbol(msg)
	case "textDocument/references":
		return s.handleReferences(msg)
	case "textDocument/rename":
		return s.handleRename(msg)
	case "textDocument/signatureHelp":
		return s.handleSignatureHelp(msg)
	case "textDocument/inlayHint":
		return s.handleInlayHint(msg)
	case "textDocument/semanticTokens/full":
		return s.handleSemanticTokens(msg)
	case "workspace/symbol":
		return s.handleWorkspaceSymbol(msg)
	case "workspace/executeCommand":
		return s.handleExecuteCommand(msg)
	default:
		if len(msg.ID) > 0 {
			return s.sendError(msg.ID, -32601, "method not found")
		}
		return nil
	}
}

func (s *Server) handleInitialize(msg *rpcMessage) error {
	var params initializeParams
	if len(msg.Params) > 0 {
		if err := json.Unmarshal(msg.Params, &params); err != nil {
			return s.sendError(msg.ID, -32602, "invalid params")
		}
	}
	result := initializeResult{
		Capabilities: serverCapabilities{
			TextDocumentSync: textDocumentSyncOptions{
				OpenClose: true,
				Change:    2,
				Save:      saveOptions{IncludeText: true},
			},
			HoverProvider:           true,
			DefinitionProvider:      true,
			ReferencesProvider:      true,
			RenameProvider:          true,
			DocumentSymbolProvider:  true,
			WorkspaceSymbolProvider: true,
			InlayHintProvider:       true,
			CompletionProvider: &completionOptions{
				TriggerCharacters: []string{"!", ".", "%"},
			},
			SignatureHelpProvider: &signatureHelpOptions{
				TriggerCharacters: []string{"(", ","},
			},
			SemanticTokensProvider: &semanticTokensOptions{
				Legend: semanticTokensLegend{TokenTypes: semanticTokenTypes},
				Full:   true,
			},
			ExecuteCommandProvider: &executeCommandOptions{
				Commands: []string{commandAnalyze},
			},
		},
		ServerInfo: serverInfo{Name: "z3dk", Version: version.Number},
	}
	return s.sendResponse(msg.ID, result)
}

func (s *Server) handleDidOpen(msg *rpcMessage) error {
	var params didOpenTextDocumentParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		s.logf("didOpen: %v", err)
		return nil
	}
	uri := params.TextDocument.URI
	path := uriToPath(uri)
	if path == "" {
		return nil
	}
	s.ws.OpenDocument(uri, path, params.TextDocument.Text, params.TextDocument.Version)
	return nil
}

func (s *Server) handleDidChange(msg *rpcMessage) error {
	var params didChangeTextDocumentParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		s.logf("didChange: %v", err)
		return nil
	}
	uri := params.TextDocument.URI
	doc, ok := s.ws.Document(uri)
	if !ok {
		return nil
	}
	text := applyChanges(doc.Text, params.ContentChanges)
	s.ws.ChangeDocument(uri, text, params.TextDocument.Version)
	return nil
}

func (s *Server) handleDidSave(msg *rpcMessage) error {
	var params didSaveTextDocumentParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		s.logf("didSave: %v", err)
		return nil
	}
	doc, ok := s.ws.Document(params.TextDocument.URI)
	if !ok {
		return nil
	}
	if params.Text != nil {
		s.ws.ChangeDocument(doc.URI, *params.Text, doc.Version)
	}
	// A save is an explicit checkpoint; skip the quiet window.
	doc.NeedsAnalysis = true
	s.runPendingAnalyses(true)
	return nil
}

func (s *Server) handleDidClose(msg *rpcMessage) error {
	var params didCloseTextDocumentParams
	if err := json.Unmarshal(msg.Params, &params); err != nil {
		s.logf("didClose: %v", err)
		return nil
	}
	uri := params.TextDocument.URI
	s.ws.CloseDocument(uri)
	if s.published[uri] {
		delete(s.published, uri)
		if err := s.sendPublish(uri, nil); err != nil {
			s.logf("failed to clear diagnostics: %v", err)
		}
	}
	return nil
}

// runPendingAnalyses analyzes every dirty document once the debounce
// window has passed, or all of them when force is set. The quiet window
// is measured from the newest change anywhere in the workspace, so a
// burst of edits across files delays all pending analyses together.
func (s *Server) runPendingAnalyses(force bool) {
	if !force {
		var latest time.Time
		for _, doc := range s.ws.Documents() {
			if doc.LastChange.After(latest) {
				latest = doc.LastChange
			}
		}
		if time.Since(latest) < s.debounce {
			return
		}
	}
	for _, doc := range s.ws.Documents() {
		if !doc.NeedsAnalysis {
			continue
		}
		if err := s.ws.Analyze(s.baseCtx, doc); err != nil {
			s.logf("analyze %s: %v", doc.Path, err)
			continue
		}
		if err := s.publishDiagnostics(doc); err != nil {
			s.logf("publish %s: %v", doc.Path, err)
		}
	}
}

func (s *Server) publishDiagnostics(doc *workspace.Document) error {
	list := make([]lspDiagnostic, 0, len(doc.Diagnostics))
	for _, d := range doc.Diagnostics {
		line := d.Line - 1
		if line < 0 {
			line = 0
		}
		col := d.Column - 1
		if col < 0 {
			col = 0
		}
		list = append(list, lspDiagnostic{
			Range: lspRange{
				Start: position{Line: line, Character: col},
				End:   position{Line: line, Character: col},
			},
			Severity: diagSeverity(d.Severity),
			Source:   "z3dk",
			Message:  d.Message,
		})
	}
	s.published[doc.URI] = true
	return s.sendPublish(doc.URI, list)
}

func diagSeverity(sev diag.Severity) int {
	if sev == diag.SevError {
		return 1
	}
	return 2
}

func (s *Server) sendResponse(id json.RawMessage, result any) error {
	return s.send(map[string]any{
		"jsonrpc": "2.0",
		"id":      json.RawMessage(id),
		"result":  result,
	})
}

func (s *Server) sendError(id json.RawMessage, code int, message string) error {
	return s.send(map[string]any{
		"jsonrpc": "2.0",
		"id":      json.RawMessage(id),
		"error":   rpcError{Code: code, Message: message},
	})
}

func (s *Server) sendPublish(uri string, list []lspDiagnostic) error {
	if list == nil {
		list = []lspDiagnostic{}
	}
	return s.send(map[string]any{
		"jsonrpc": "2.0",
		"method":  "textDocument/publishDiagnostics",
		"params": publishDiagnosticsParams{
			URI:         uri,
			Diagnostics: list,
		},
	})
}

func (s *Server) send(msg any) error {
	payload, err := json.Marshal(msg)
	if err != nil {
		return err
	}
	if err := writeMessage(s.out, payload); err != nil {
		return err
	}
	return s.out.Flush()
}

func (s *Server) logf(format string, args ...any) {
	line := fmt.Sprintf("lsp: "+format+"\n", args...)
	fmt.Fprint(os.Stderr, line)
	if s.logFile != nil {
		fmt.Fprintf(s.logFile, "%s %s", time.Now().Format(time.RFC3339), line)
	}
}
