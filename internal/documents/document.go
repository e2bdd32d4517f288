package documents

import (
	"encoding/hex"
	"fmt"
	"sync"

	"bennypowers.dev/xmlls/internal/position"
	"bennypowers.dev/xmlls/internal/regions"
	"github.com/zeebo/blake3"
)

// Analysis is the region list of one document content together with the
// line index used to turn its offsets into LSP positions.
type Analysis struct {
	Digest  string
	Regions []regions.Region
	Lines   *position.LineIndex
}

// Document represents a text document being managed by the language server
type Document struct {
	uri        string
	languageID string

	mu       sync.Mutex
	content  string
	version  int
	digest   [32]byte
	analysis *Analysis
}

// NewDocument creates a new document
func NewDocument(uri, languageID string, version int, content string) *Document {
	return &Document{
		uri:        uri,
		languageID: languageID,
		version:    version,
		content:    content,
		digest:     blake3.Sum256([]byte(content)),
	}
}

// URI returns the document's URI
func (d *Document) URI() string {
	return d.uri
}

// LanguageID returns the document's language identifier
func (d *Document) LanguageID() string {
	return d.languageID
}

// Version returns the document's version
func (d *Document) Version() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.version
}

// Content returns the document's current content
func (d *Document) Content() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.content
}

// Digest returns the hex BLAKE3 digest of the current content
func (d *Document) Digest() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return hex.EncodeToString(d.digest[:])
}

// SetContent updates the document's content and version.
// Returns an error if the provided version is older than the current document version,
// preventing stale updates from being applied.
func (d *Document) SetContent(content string, version int) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if version < d.version {
		return fmt.Errorf("rejected stale update: document version is %d but update version is %d", d.version, version)
	}
	d.content = content
	d.version = version
	d.digest = blake3.Sum256([]byte(content))
	return nil
}

// Analysis returns the regions of the current content. The result is
// computed on first use and kept until the content digest changes, so edits
// that restore earlier text and version-only updates reuse it.
func (d *Document) Analysis() *Analysis {
	d.mu.Lock()
	defer d.mu.Unlock()

	digest := hex.EncodeToString(d.digest[:])
	if d.analysis != nil && d.analysis.Digest == digest {
		return d.analysis
	}

	d.analysis = &Analysis{
		Digest:  digest,
		Regions: regions.Analyze(d.content),
		Lines:   position.NewLineIndex(d.content),
	}
	return d.analysis
}

// Regions returns the region list of the current content
func (d *Document) Regions() []regions.Region {
	return d.Analysis().Regions
}
