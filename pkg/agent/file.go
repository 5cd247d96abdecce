package agent

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/takutakahashi/seo-agent-proxy/pkg/utils"
	"gopkg.in/yaml.v3"
)

// Format is a supported agent config file encoding
type Format string

const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
	FormatJSON Format = "json"
)

// FormatFromPath picks the encoding from the file extension
func FormatFromPath(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".toml":
		return FormatTOML, nil
	case ".json":
		return FormatJSON, nil
	}
	return "", fmt.Errorf("%w: %s", ErrUnsupportedFormat, path)
}

// LoadFile reads an AgentConfig from a YAML, TOML or JSON file.
// Fields missing from the file keep the values of NewAgentConfig.
func LoadFile(path string) (AgentConfig, error) {
	format, err := FormatFromPath(path)
	if err != nil {
		return AgentConfig{}, err
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return AgentConfig{}, fmt.Errorf("failed to read agent config %s: %w", path, err)
	}

	cfg, err := Decode(data, format)
	if err != nil {
		return AgentConfig{}, fmt.Errorf("failed to parse agent config %s: %w", path, err)
	}
	return cfg, nil
}

// Decode parses data in the given format
func Decode(data []byte, format Format) (AgentConfig, error) {
	cfg := NewAgentConfig()
	var err error
	switch format {
	case FormatYAML:
		err = yaml.Unmarshal(data, &cfg)
	case FormatTOML:
		_, err = toml.Decode(string(data), &cfg)
	case FormatJSON:
		err = json.Unmarshal(data, &cfg)
	default:
		return AgentConfig{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
	}
	if err != nil {
		return AgentConfig{}, err
	}
	return cfg, nil
}

// Encode serializes cfg in the given format
func Encode(cfg AgentConfig, format Format) ([]byte, error) {
	switch format {
	case FormatYAML:
		return yaml.Marshal(cfg)
	case FormatTOML:
		var buf bytes.Buffer
		if err := toml.NewEncoder(&buf).Encode(cfg); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	case FormatJSON:
		return json.MarshalIndent(cfg, "", "  ")
	}
	return nil, fmt.Errorf("%w: %s", ErrUnsupportedFormat, format)
}

// WriteFile stores cfg at path. The token is never written.
func WriteFile(path string, cfg AgentConfig) error {
	format, err := FormatFromPath(path)
	if err != nil {
		return err
	}
	cfg.Token = ""
	data, err := Encode(cfg, format)
	if err != nil {
		return fmt.Errorf("failed to encode agent config: %w", err)
	}
	return utils.AtomicWriteFile(path, data, 0600)
}
