package workspace

import (
	"encoding/json"
	"fmt"

	"bennypowers.dev/xmlls/internal/log"
	"bennypowers.dev/xmlls/lsp/types"
	protocol "github.com/tliron/glsp/protocol_3_16"
)

// DidChangeConfiguration handles the workspace/didChangeConfiguration notification
func DidChangeConfiguration(req *types.RequestContext, params *protocol.DidChangeConfigurationParams) error {
	log.Info("Configuration changed")

	config, err := ParseSettings(req.Server.GetConfig(), params.Settings)
	if err != nil {
		// Keep the current configuration
		req.AddWarning(fmt.Errorf("failed to parse configuration: %w", err))
		return nil
	}

	req.Server.SetConfig(config)
	log.Debug("New configuration: %+v", config)

	RepublishDiagnostics(req)
	return nil
}

// ParseSettings applies client settings on top of base. Settings are read
// from the first of types.SettingsSections present; a settings object without
// any of those keys leaves base unchanged. Fields missing from the settings
// keep their value from base.
func ParseSettings(base types.ServerConfig, settings any) (types.ServerConfig, error) {
	if settings == nil {
		return base, nil
	}

	settingsMap, ok := settings.(map[string]any)
	if !ok {
		return base, fmt.Errorf("settings is not an object: %T", settings)
	}

	var ours any
	for _, section := range types.SettingsSections {
		if val, exists := settingsMap[section]; exists {
			ours = val
			break
		}
	}
	if ours == nil {
		return base, nil
	}

	// Convert to JSON and back to parse into struct
	jsonBytes, err := json.Marshal(ours)
	if err != nil {
		return base, fmt.Errorf("failed to marshal settings: %w", err)
	}

	config := base.Clone()
	if err := json.Unmarshal(jsonBytes, &config); err != nil {
		return base, fmt.Errorf("failed to unmarshal settings: %w", err)
	}
	if _, err := log.ParseLevel(config.LogLevel); err != nil {
		return base, err
	}
	return config, nil
}

// RepublishDiagnostics publishes diagnostics for every open document. It does
// nothing before the client is initialized.
func RepublishDiagnostics(req *types.RequestContext) {
	glspCtx := req.Server.GLSPContext()
	if glspCtx == nil {
		return
	}
	for _, doc := range req.Server.AllDocuments() {
		if err := req.Server.PublishDiagnostics(glspCtx, doc.URI()); err != nil {
			req.AddWarning(fmt.Errorf("failed to publish diagnostics for %s: %w", doc.URI(), err))
		}
	}
}
