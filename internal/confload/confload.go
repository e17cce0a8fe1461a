// Package confload loads a vdevcache.Config from a JSONC file, layered
// over the package defaults.
package confload

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/behrlich/vdevcache"
	"github.com/tailscale/hujson"
)

var errConfigFileRead = errors.New("confload: failed to read config file")

// fileConfig mirrors vdevcache.Config with JSON tags and pointer fields
// so a field absent from the file is distinguishable from an explicit
// zero, letting Load layer the file over the defaults field by field.
type fileConfig struct {
	CacheMax       *int64 `json:"cache_max,omitempty"`
	CacheSizeLimit *int64 `json:"cache_size_limit,omitempty"`
	LineShift      *uint  `json:"line_shift,omitempty"`
}

// Load reads a JSONC config file at path and layers it over
// vdevcache.DefaultConfig. A missing file is not an error: Load returns
// the defaults unchanged.
func Load(path string) (vdevcache.Config, error) {
	cfg := vdevcache.DefaultConfig()

	data, err := os.ReadFile(path) //nolint:gosec // path is operator-supplied
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return vdevcache.Config{}, fmt.Errorf("%w: %s: %w", errConfigFileRead, path, err)
	}

	standardized, err := hujson.Standardize(data)
	if err != nil {
		return vdevcache.Config{}, fmt.Errorf("confload: invalid JSONC in %s: %w", path, err)
	}

	var fc fileConfig
	if err := json.Unmarshal(standardized, &fc); err != nil {
		return vdevcache.Config{}, fmt.Errorf("confload: invalid JSON in %s: %w", path, err)
	}

	if fc.CacheMax != nil {
		cfg.CacheMax = *fc.CacheMax
	}
	if fc.CacheSizeLimit != nil {
		cfg.CacheSizeLimit = *fc.CacheSizeLimit
	}
	if fc.LineShift != nil {
		cfg.LineShift = *fc.LineShift
	}

	return cfg, nil
}

// Format renders cfg back as indented JSON, for diagnostics.
func Format(cfg vdevcache.Config) (string, error) {
	fc := fileConfig{
		CacheMax:       &cfg.CacheMax,
		CacheSizeLimit: &cfg.CacheSizeLimit,
		LineShift:      &cfg.LineShift,
	}
	data, err := json.MarshalIndent(fc, "", "  ")
	if err != nil {
		return "", fmt.Errorf("confload: failed to format config: %w", err)
	}
	return string(data), nil
}
