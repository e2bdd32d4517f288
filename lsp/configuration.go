package lsp

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"

	"bennypowers.dev/xmlls/internal/documents"
	"bennypowers.dev/xmlls/internal/log"
	"bennypowers.dev/xmlls/internal/uriutil"
	"bennypowers.dev/xmlls/lsp/types"
	"github.com/bmatcuk/doublestar/v4"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"
)

// GetConfig returns the current server configuration
func (s *Server) GetConfig() types.ServerConfig {
	s.configMu.RLock()
	defer s.configMu.RUnlock()
	return s.config
}

// SetConfig updates the server configuration and applies its log level
func (s *Server) SetConfig(config types.ServerConfig) {
	s.configMu.Lock()
	s.config = config
	s.configMu.Unlock()

	if level, err := log.ParseLevel(config.LogLevel); err == nil {
		log.SetLevel(level)
	} else {
		log.Warn("Ignoring log level: %v", err)
	}
}

// LoadWorkspaceConfig reads the first of types.ConfigFileNames found in the
// workspace root and applies it on top of the current configuration. Keys
// missing from the file keep their current value.
func (s *Server) LoadWorkspaceConfig() error {
	root := s.RootPath()
	if root == "" {
		return nil
	}

	for _, name := range types.ConfigFileNames {
		path := filepath.Join(root, name)
		data, err := os.ReadFile(path)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}

		config, err := parseConfigFile(name, data, s.GetConfig())
		if err != nil {
			return fmt.Errorf("failed to parse %s: %w", path, err)
		}
		if err := validatePatterns(config); err != nil {
			return fmt.Errorf("invalid configuration in %s: %w", path, err)
		}

		s.configMu.Lock()
		s.configFile = path
		s.configMu.Unlock()
		s.SetConfig(config)

		log.Info("Loaded configuration from %s", path)
		return nil
	}

	log.Debug("No configuration file in %s", root)
	return nil
}

// parseConfigFile decodes a configuration file on top of base. YAML files are
// decoded with yaml.v3, the rc file is JSON with comments.
func parseConfigFile(name string, data []byte, base types.ServerConfig) (types.ServerConfig, error) {
	config := base.Clone()
	switch filepath.Ext(name) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, &config); err != nil {
			return base, err
		}
	default:
		if err := json.Unmarshal(jsonc.ToJSON(data), &config); err != nil {
			return base, err
		}
	}
	if _, err := log.ParseLevel(config.LogLevel); err != nil {
		return base, err
	}
	return config, nil
}

// validatePatterns rejects malformed include and exclude globs
func validatePatterns(config types.ServerConfig) error {
	var errs []error
	for _, pattern := range slices.Concat(config.Include, config.Exclude) {
		if !doublestar.ValidatePattern(pattern) {
			errs = append(errs, fmt.Errorf("bad glob pattern %q", pattern))
		}
	}
	return errors.Join(errs...)
}

// IsConfigFile reports whether path is a workspace configuration file: the
// one in effect, or any of types.ConfigFileNames in the workspace root.
func (s *Server) IsConfigFile(path string) bool {
	clean := filepath.Clean(path)

	s.configMu.RLock()
	current, root := s.configFile, s.rootPath
	s.configMu.RUnlock()

	if current != "" && clean == filepath.Clean(current) {
		return true
	}
	if root == "" || filepath.Dir(clean) != filepath.Clean(root) {
		return false
	}
	return slices.Contains(types.ConfigFileNames, filepath.Base(clean))
}

// ShouldProcess reports whether the document at uri gets XML features.
// Exclude globs win, then include globs, then the language id, and finally
// a look at the content for documents opened with another language id.
func (s *Server) ShouldProcess(uri string) bool {
	doc := s.Document(uri)
	if doc == nil {
		return false
	}

	cfg := s.GetConfig()
	candidates := matchCandidates(s.RootPath(), uri)
	if matchAny(cfg.Exclude, candidates) {
		return false
	}
	if matchAny(cfg.Include, candidates) {
		return true
	}
	if documents.IsXMLLanguage(doc.LanguageID(), cfg.LanguageIDs...) {
		return true
	}
	return documents.LooksLikeXML(doc.Content())
}

// matchCandidates returns the names globs are matched against: the path
// relative to the workspace root and the absolute slash path
func matchCandidates(root, uri string) []string {
	var names []string
	if rel, ok := uriutil.RelPath(root, uri); ok {
		names = append(names, rel)
	}
	if path := uriutil.URIToPath(uri); path != "" {
		names = append(names, filepath.ToSlash(path))
	}
	return names
}

func matchAny(patterns, names []string) bool {
	for _, pattern := range patterns {
		for _, name := range names {
			if ok, err := doublestar.Match(pattern, name); err == nil && ok {
				return true
			}
		}
	}
	return false
}
