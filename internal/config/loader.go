package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	toml "github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// decodeFile reads path and unmarshals it into out based on the file extension.
// Supports: .yaml/.yml, .json, .toml
func decodeFile(path string, out any) error {
	if path == "" {
		return fmt.Errorf("empty config path")
	}
	b, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return decode(strings.ToLower(filepath.Ext(path)), b, out)
}

func decode(ext string, b []byte, out any) error {
	switch ext {
	case ".yaml", ".yml":
		return yaml.Unmarshal(b, out)
	case ".json":
		return json.Unmarshal(b, out)
	case ".toml":
		return toml.Unmarshal(b, out)
	default:
		return fmt.Errorf("unsupported config extension: %s", ext)
	}
}

// Load reads the server configuration. Fields absent from the file keep
// the values from DefaultServer.
func Load(path string) (ServerConfig, error) {
	cfg := DefaultServer()
	if err := decodeFile(path, &cfg); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// LoadModels reads a models document and normalizes it. Relative artifact
// paths resolve against global.models_dir, or the document's own directory
// when that is unset.
func LoadModels(path string) (ModelsConfig, error) {
	cfg := DefaultModels()
	if err := decodeFile(path, &cfg); err != nil {
		return cfg, err
	}
	if cfg.Global.ModelsDir == "" {
		cfg.Global.ModelsDir = filepath.Dir(path)
	}
	cfg.normalize()
	return cfg, nil
}

// ParseModels decodes a models document held in memory; ext selects the format.
func ParseModels(ext string, b []byte) (ModelsConfig, error) {
	cfg := DefaultModels()
	if err := decode(ext, b, &cfg); err != nil {
		return cfg, err
	}
	cfg.normalize()
	return cfg, nil
}
