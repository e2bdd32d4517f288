package types

import "slices"

// ServerConfig represents the server configuration
type ServerConfig struct {
	// LogLevel is the minimum level written to stderr: debug, info, warn or error
	LogLevel string `json:"logLevel,omitempty" yaml:"logLevel,omitempty"`

	// Include lists workspace-relative doublestar globs of files that get XML
	// features regardless of their language id.
	// Example: ["**/*.xml", "config/**/*.conf"]
	Include []string `json:"include,omitempty" yaml:"include,omitempty"`

	// Exclude lists workspace-relative doublestar globs of files that never
	// get XML features. Exclude wins over Include and over the language id.
	Exclude []string `json:"exclude,omitempty" yaml:"exclude,omitempty"`

	// LanguageIDs are extra client language ids treated as XML
	LanguageIDs []string `json:"languageIds,omitempty" yaml:"languageIds,omitempty"`

	// SemanticTokens enables region highlighting
	SemanticTokens bool `json:"semanticTokens" yaml:"semanticTokens"`

	// FoldingRanges enables element, comment and CDATA folding
	FoldingRanges bool `json:"foldingRanges" yaml:"foldingRanges"`

	// WellFormedness adds the first strict well-formedness error of the
	// document to its diagnostics
	WellFormedness bool `json:"wellFormedness" yaml:"wellFormedness"`

	// MaxDocumentSize is the largest document, in bytes, that gets features.
	// Zero means no limit.
	MaxDocumentSize int `json:"maxDocumentSize,omitempty" yaml:"maxDocumentSize,omitempty"`
}

// DefaultConfig returns the default server configuration
func DefaultConfig() ServerConfig {
	return ServerConfig{
		LogLevel:        "info",
		Include:         []string{},
		Exclude:         []string{},
		SemanticTokens:  true,
		FoldingRanges:   true,
		WellFormedness:  true,
		MaxDocumentSize: 8 << 20,
	}
}

// ConfigFileNames are the workspace configuration files, in lookup order.
// The first one found in the workspace root is used.
var ConfigFileNames = []string{
	".xmlls.yaml",
	".xmlls.yml",
	".xmllsrc.json",
}

// SettingsSections are the keys under which clients send our settings in
// workspace/didChangeConfiguration
var SettingsSections = []string{
	"xmlls",
	"xml-regions-language-server",
}

// Clone returns a copy of c that shares no slices with it
func (c ServerConfig) Clone() ServerConfig {
	c.Include = slices.Clone(c.Include)
	c.Exclude = slices.Clone(c.Exclude)
	c.LanguageIDs = slices.Clone(c.LanguageIDs)
	return c
}
