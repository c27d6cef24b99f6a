package config

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"

	"github.com/adrg/xdg"
	"gopkg.in/yaml.v3"

	"github.com/NamanBalaji/tdiff/internal/errors"
)

const (
	appName        = "tdiff"
	configFileName = "config.yaml"
)

// Identity hash algorithms applied to the encoded info dictionary.
const (
	HashSHA1   = "sha1"
	HashBLAKE3 = "blake3"
)

// Config holds the configuration options for the application.
type Config struct {
	MaxParallelDecodes int            `yaml:"maxParallelDecodes,omitempty"`
	MaxManifestSize    int64          `yaml:"maxManifestSize,omitempty"`
	IdentityHash       string         `yaml:"identityHash,omitempty"`
	LogPath            string         `yaml:"logPath,omitempty"`
	Catalog            *CatalogConfig `yaml:"catalog,omitempty"`
	Render             *RenderConfig  `yaml:"render,omitempty"`
}

// CatalogConfig holds options for the local manifest catalog.
type CatalogConfig struct {
	Path             string `yaml:"path,omitempty"`
	StoreRaw         *bool  `yaml:"storeRaw,omitempty"`
	CompressionLevel string `yaml:"compressionLevel,omitempty"`
}

// RenderConfig holds options for the comparison table.
type RenderConfig struct {
	Style      string `yaml:"style,omitempty"`
	Color      *bool  `yaml:"color,omitempty"`
	HumanSizes *bool  `yaml:"humanSizes,omitempty"`
}

// DefaultPath returns the configuration file location.
func DefaultPath() string {
	return filepath.Join(xdg.ConfigHome, appName, configFileName)
}

// GetConfig reads the configuration file at DefaultPath.
func GetConfig() (*Config, error) {
	return Load(DefaultPath())
}

// Load reads the configuration file at path. A missing or empty file
// yields the default configuration; fields left out of the file keep
// their defaults.
func Load(path string) (*Config, error) {
	defaults := DefaultConfig()

	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &defaults, nil
		}

		return nil, err
	}

	if len(b) == 0 {
		return &defaults, nil
	}

	var cfg Config

	err = yaml.Unmarshal(b, &cfg)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	catalogCfg := zeroOr(cfg.Catalog, defaults.Catalog)
	renderCfg := zeroOr(cfg.Render, defaults.Render)

	merged := &Config{
		MaxParallelDecodes: zeroOr(cfg.MaxParallelDecodes, defaults.MaxParallelDecodes),
		MaxManifestSize:    zeroOr(cfg.MaxManifestSize, defaults.MaxManifestSize),
		IdentityHash:       strings.ToLower(zeroOr(cfg.IdentityHash, defaults.IdentityHash)),
		LogPath:            zeroOr(cfg.LogPath, defaults.LogPath),
		Catalog: &CatalogConfig{
			Path:             zeroOr(catalogCfg.Path, defaults.Catalog.Path),
			StoreRaw:         zeroOr(catalogCfg.StoreRaw, defaults.Catalog.StoreRaw),
			CompressionLevel: zeroOr(catalogCfg.CompressionLevel, defaults.Catalog.CompressionLevel),
		},
		Render: &RenderConfig{
			Style:      zeroOr(renderCfg.Style, defaults.Render.Style),
			Color:      zeroOr(renderCfg.Color, defaults.Render.Color),
			HumanSizes: zeroOr(renderCfg.HumanSizes, defaults.Render.HumanSizes),
		},
	}

	if err := merged.Validate(); err != nil {
		return nil, err
	}

	return merged, nil
}

// Validate checks values that have no usable fallback.
func (c *Config) Validate() error {
	switch c.IdentityHash {
	case HashSHA1, HashBLAKE3:
	default:
		return fmt.Errorf("%w: %q", errors.ErrBadHashAlg, c.IdentityHash)
	}

	if c.MaxParallelDecodes < 0 {
		return fmt.Errorf("maxParallelDecodes must not be negative, got %d", c.MaxParallelDecodes)
	}

	switch c.Catalog.CompressionLevel {
	case "fastest", "default", "better", "best":
	default:
		return fmt.Errorf("unknown catalog compressionLevel %q", c.Catalog.CompressionLevel)
	}

	return nil
}

func DefaultConfig() Config {
	return Config{
		MaxParallelDecodes: maxParallelDecodes,
		MaxManifestSize:    maxManifestSize,
		IdentityHash:       identityHash,
		LogPath:            logPath,
		Catalog: &CatalogConfig{
			Path:             catalogPath,
			StoreRaw:         boolPtr(storeRaw),
			CompressionLevel: compressionLevel,
		},
		Render: &RenderConfig{
			Style:      tableStyle,
			Color:      boolPtr(colorOutput),
			HumanSizes: boolPtr(humanSizes),
		},
	}
}

// zeroOr returns def if v is the zero value for its type.
func zeroOr[T any](v, def T) T {
	if reflect.ValueOf(v).IsZero() {
		return def
	}

	return v
}

func boolPtr(b bool) *bool {
	return &b
}

// Enabled dereferences an optional flag, treating nil as false.
func Enabled(b *bool) bool {
	return b != nil && *b
}
