package integration_test

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"bennypowers.dev/xmlls/lsp/methods/textDocument/diagnostic"
	"github.com/stretchr/testify/require"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// LSPClient is a test client that talks to the server binary over stdio
type LSPClient struct {
	cmd           *exec.Cmd
	stdin         io.WriteCloser
	stdout        io.ReadCloser
	reader        *bufio.Reader
	msgID         int
	responses     map[int]chan json.RawMessage
	notifications chan notification
	writeMu       sync.Mutex
	mu            sync.Mutex
	t             *testing.T
}

type notification struct {
	Method string
	Params json.RawMessage
}

// NewLSPClient builds the server and starts it
func NewLSPClient(t *testing.T) *LSPClient {
	t.Helper()

	cwd, err := os.Getwd()
	require.NoError(t, err)
	projectRoot := filepath.Join(cwd, "..", "..")

	binary := filepath.Join(t.TempDir(), "xml-regions-language-server")
	cmd := exec.Command("go", "build", "-cover", "-o", binary, "./cmd/xml-regions-language-server")
	cmd.Dir = projectRoot
	output, buildErr := cmd.CombinedOutput()
	require.NoError(t, buildErr, "Failed to build server: %s", string(output))

	coverDir := filepath.Join(projectRoot, "coverage", "integration")
	require.NoError(t, os.MkdirAll(coverDir, 0o755))

	serverCmd := exec.Command(binary, "--stdio", "--log-level", "debug")
	serverCmd.Env = append(os.Environ(), fmt.Sprintf("GOCOVERDIR=%s", coverDir))
	stdin, err := serverCmd.StdinPipe()
	require.NoError(t, err)
	stdout, err := serverCmd.StdoutPipe()
	require.NoError(t, err)
	stderr, err := serverCmd.StderrPipe()
	require.NoError(t, err)

	require.NoError(t, serverCmd.Start())

	go func() {
		scanner := bufio.NewScanner(stderr)
		for scanner.Scan() {
			t.Logf("[SERVER] %s", scanner.Text())
		}
	}()

	client := &LSPClient{
		cmd:           serverCmd,
		stdin:         stdin,
		stdout:        stdout,
		reader:        bufio.NewReader(stdout),
		responses:     make(map[int]chan json.RawMessage),
		notifications: make(chan notification, 64),
		t:             t,
	}

	go client.readResponses()

	return client
}

// Close shuts the server down
func (c *LSPClient) Close() {
	c.Shutdown()
	_ = c.stdin.Close()
	_ = c.stdout.Close()
	_ = c.cmd.Wait()
}

func (c *LSPClient) sendRequest(method string, params any) int {
	c.mu.Lock()
	c.msgID++
	id := c.msgID
	c.responses[id] = make(chan json.RawMessage, 1)
	c.mu.Unlock()

	c.sendMessage(map[string]any{
		"jsonrpc": "2.0",
		"id":      id,
		"method":  method,
		"params":  params,
	})
	return id
}

func (c *LSPClient) sendNotification(method string, params any) {
	c.sendMessage(map[string]any{
		"jsonrpc": "2.0",
		"method":  method,
		"params":  params,
	})
}

func (c *LSPClient) sendMessage(msg any) {
	data, err := json.Marshal(msg)
	require.NoError(c.t, err)

	c.t.Logf("Sending: %s", string(data))

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	_, err = fmt.Fprintf(c.stdin, "Content-Length: %d\r\n\r\n%s", len(data), data)
	require.NoError(c.t, err)
}

func (c *LSPClient) waitForResponse(id int, timeout time.Duration) (json.RawMessage, error) {
	c.mu.Lock()
	ch, ok := c.responses[id]
	c.mu.Unlock()

	if !ok {
		return nil, fmt.Errorf("no response channel for message ID %d", id)
	}

	select {
	case response := <-ch:
		return response, nil
	case <-time.After(timeout):
		return nil, fmt.Errorf("timeout waiting for response to message %d", id)
	}
}

// waitForNotification returns the next server notification with the given
// method, skipping others
func (c *LSPClient) waitForNotification(method string, timeout time.Duration) (json.RawMessage, error) {
	deadline := time.After(timeout)
	for {
		select {
		case n := <-c.notifications:
			if n.Method == method {
				return n.Params, nil
			}
		case <-deadline:
			return nil, fmt.Errorf("timeout waiting for %s", method)
		}
	}
}

func (c *LSPClient) readResponses() {
	for {
		line, err := c.reader.ReadString('\n')
		if err != nil {
			return
		}

		var contentLength int
		if _, err = fmt.Sscanf(line, "Content-Length: %d", &contentLength); err != nil {
			continue
		}

		// Blank line after the header
		_, _ = c.reader.ReadString('\n')

		content := make([]byte, contentLength)
		if _, err = io.ReadFull(c.reader, content); err != nil {
			return
		}

		c.t.Logf("Received: %s", string(content))

		var message struct {
			ID     *int            `json:"id"`
			Method *string         `json:"method"`
			Params json.RawMessage `json:"params"`
			Result json.RawMessage `json:"result"`
			Error  json.RawMessage `json:"error"`
		}
		if err = json.Unmarshal(content, &message); err != nil {
			continue
		}

		if message.Method != nil {
			if message.ID != nil {
				// Server request such as client/registerCapability
				msgID := *message.ID
				go c.sendMessage(map[string]any{
					"jsonrpc": "2.0",
					"id":      msgID,
					"result":  nil,
				})
				continue
			}
			select {
			case c.notifications <- notification{Method: *message.Method, Params: message.Params}:
			default:
				c.t.Logf("Dropped notification %s", *message.Method)
			}
			continue
		}

		if message.ID != nil {
			c.mu.Lock()
			if ch, ok := c.responses[*message.ID]; ok {
				if message.Error != nil {
					ch <- message.Error
				} else {
					ch <- message.Result
				}
			}
			c.mu.Unlock()
		}
	}
}

// Initialize sends initialize and initialized. With pull set the client
// advertises textDocument/diagnostic support.
func (c *LSPClient) Initialize(rootURI string, pull bool, options map[string]any) (json.RawMessage, error) {
	capabilities := map[string]any{
		"workspace": map[string]any{
			"didChangeWatchedFiles": map[string]any{
				"dynamicRegistration": true,
			},
		},
	}
	if pull {
		capabilities["textDocument"] = map[string]any{
			"diagnostic": map[string]any{"dynamicRegistration": false},
		}
	}
	params := map[string]any{
		"rootUri":      rootURI,
		"capabilities": capabilities,
	}
	if options != nil {
		params["initializationOptions"] = options
	}

	id := c.sendRequest("initialize", params)
	result, err := c.waitForResponse(id, 5*time.Second)
	if err != nil {
		return nil, err
	}

	c.sendNotification("initialized", map[string]any{})
	return result, nil
}

// Shutdown sends shutdown and exit
func (c *LSPClient) Shutdown() {
	id := c.sendRequest("shutdown", nil)
	_, _ = c.waitForResponse(id, 2*time.Second)
	c.sendNotification("exit", nil)
}

// DidOpenTextDocument sends textDocument/didOpen
func (c *LSPClient) DidOpenTextDocument(uri, languageID, text string) {
	c.sendNotification("textDocument/didOpen", map[string]any{
		"textDocument": map[string]any{
			"uri":        uri,
			"languageId": languageID,
			"version":    1,
			"text":       text,
		},
	})
}

// DidChangeTextDocument sends an incremental textDocument/didChange
func (c *LSPClient) DidChangeTextDocument(uri string, version int, rng protocol.Range, text string) {
	c.sendNotification("textDocument/didChange", map[string]any{
		"textDocument": map[string]any{
			"uri":     uri,
			"version": version,
		},
		"contentChanges": []map[string]any{
			{"range": rng, "text": text},
		},
	})
}

// DidChangeConfiguration sends workspace/didChangeConfiguration
func (c *LSPClient) DidChangeConfiguration(settings map[string]any) {
	c.sendNotification("workspace/didChangeConfiguration", map[string]any{
		"settings": settings,
	})
}

func (c *LSPClient) request(method string, params any, result any) error {
	id := c.sendRequest(method, params)
	response, err := c.waitForResponse(id, 2*time.Second)
	if err != nil {
		return err
	}
	if string(response) == "null" {
		return nil
	}
	return json.Unmarshal(response, result)
}

func documentParams(uri string) map[string]any {
	return map[string]any{"textDocument": map[string]any{"uri": uri}}
}

// Hover sends textDocument/hover. A null result gives a nil hover.
func (c *LSPClient) Hover(uri string, line, character int) (*protocol.Hover, error) {
	params := documentParams(uri)
	params["position"] = map[string]any{"line": line, "character": character}

	var hover *protocol.Hover
	err := c.request("textDocument/hover", params, &hover)
	return hover, err
}

// Diagnostic sends textDocument/diagnostic
func (c *LSPClient) Diagnostic(uri string) (*diagnostic.RelatedFullDocumentDiagnosticReport, error) {
	var report *diagnostic.RelatedFullDocumentDiagnosticReport
	err := c.request("textDocument/diagnostic", documentParams(uri), &report)
	return report, err
}

// SemanticTokensFull sends textDocument/semanticTokens/full
func (c *LSPClient) SemanticTokensFull(uri string) (*protocol.SemanticTokens, error) {
	var tokens *protocol.SemanticTokens
	err := c.request("textDocument/semanticTokens/full", documentParams(uri), &tokens)
	return tokens, err
}

// DocumentSymbols sends textDocument/documentSymbol
func (c *LSPClient) DocumentSymbols(uri string) ([]protocol.DocumentSymbol, error) {
	var symbols []protocol.DocumentSymbol
	err := c.request("textDocument/documentSymbol", documentParams(uri), &symbols)
	return symbols, err
}

// FoldingRanges sends textDocument/foldingRange
func (c *LSPClient) FoldingRanges(uri string) ([]protocol.FoldingRange, error) {
	var ranges []protocol.FoldingRange
	err := c.request("textDocument/foldingRange", documentParams(uri), &ranges)
	return ranges, err
}
