package documents

import (
	"fmt"
	"sort"
	"sync"

	"bennypowers.dev/xmlls/internal/log"
	"bennypowers.dev/xmlls/internal/position"
	"github.com/dustin/go-humanize"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// Manager manages text documents for the language server
type Manager struct {
	documents map[string]*Document
	mu        sync.RWMutex
}

// NewManager creates a new document manager
func NewManager() *Manager {
	return &Manager{
		documents: make(map[string]*Document),
	}
}

// Get retrieves a document by URI
func (m *Manager) Get(uri string) *Document {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.documents[uri]
}

// GetAll returns all managed documents, ordered by URI
func (m *Manager) GetAll() []*Document {
	m.mu.RLock()
	defer m.mu.RUnlock()

	docs := make([]*Document, 0, len(m.documents))
	for _, doc := range m.documents {
		docs = append(docs, doc)
	}
	sort.Slice(docs, func(i, j int) bool { return docs[i].URI() < docs[j].URI() })
	return docs
}

// DidOpen handles the textDocument/didOpen notification
func (m *Manager) DidOpen(uri, languageID string, version int, content string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.documents[uri] = NewDocument(uri, languageID, version, content)
	log.Debug("Opened %s (%s, %s)", uri, languageID, humanize.Bytes(uint64(len(content))))
	return nil
}

// DidClose handles the textDocument/didClose notification
func (m *Manager) DidClose(uri string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.documents[uri]; !exists {
		return fmt.Errorf("document not found: %s", uri)
	}

	delete(m.documents, uri)
	return nil
}

// DidChange handles the textDocument/didChange notification
func (m *Manager) DidChange(uri string, version int, changes []protocol.TextDocumentContentChangeEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	doc, exists := m.documents[uri]
	if !exists {
		return fmt.Errorf("document not found: %s", uri)
	}

	newContent, err := applyChanges(doc.Content(), changes)
	if err != nil {
		return fmt.Errorf("failed to apply changes: %w", err)
	}

	if err := doc.SetContent(newContent, version); err != nil {
		return fmt.Errorf("failed to set document content: %w", err)
	}
	return nil
}

// applyChanges applies content changes in order. A change without a range
// replaces the whole document.
func applyChanges(content string, changes []protocol.TextDocumentContentChangeEvent) (string, error) {
	result := content
	for _, change := range changes {
		if change.Range == nil {
			result = change.Text
			continue
		}

		newContent, err := applyIncrementalChange(result, *change.Range, change.Text)
		if err != nil {
			return "", err
		}
		result = newContent
	}
	return result, nil
}

// applyIncrementalChange replaces the text in changeRange. Positions are in
// UTF-16 code units; a line one past the last line addresses the end of the
// document, and columns past the end of a line are clamped to it.
func applyIncrementalChange(content string, changeRange protocol.Range, text string) (string, error) {
	lines := position.NewLineIndex(content)

	if int(changeRange.Start.Line) > lines.LineCount() {
		return "", fmt.Errorf("start line %d out of bounds (total lines: %d)", changeRange.Start.Line, lines.LineCount())
	}
	if int(changeRange.End.Line) > lines.LineCount() {
		return "", fmt.Errorf("end line %d out of bounds (total lines: %d)", changeRange.End.Line, lines.LineCount())
	}

	start := lines.Offset(changeRange.Start)
	end := lines.Offset(changeRange.End)
	if end < start {
		return "", fmt.Errorf("change range ends at offset %d before it starts at %d", end, start)
	}

	return content[:start] + text + content[end:], nil
}
