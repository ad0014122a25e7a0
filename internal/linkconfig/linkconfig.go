// Package linkconfig loads links configuration files and merges the
// contributions of independently developed entity modules into one
// types.LinksConfig.
//
// File format (YAML):
//
//	entities:
//	  - singular: user
//	    plural: users
//	links:
//	  - link_type: owner
//	    source_type: user
//	    target_type: car
//	    forward_route_name: cars-owned
//	    reverse_route_name: users-owners
//	validation_rules:
//	  owner:
//	    - source: user
//	      targets: [car]
package linkconfig

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/mesh-intelligence/linknav/pkg/types"
)

// Parse decodes and validates one configuration document. Unknown keys are
// rejected, and so are route names declared twice within the document (see
// Merge). An empty document yields an empty config.
func Parse(data []byte) (types.LinksConfig, error) {
	var cfg types.LinksConfig
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil && !errors.Is(err, io.EOF) {
		return types.LinksConfig{}, fmt.Errorf("parsing links config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return types.LinksConfig{}, err
	}
	return Merge(cfg)
}

// LoadFile reads and parses the configuration at path.
func LoadFile(path string) (types.LinksConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return types.LinksConfig{}, fmt.Errorf("reading links config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return types.LinksConfig{}, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// LoadDir loads every *.yaml and *.yml file in dir, in name order, and
// merges them.
func LoadDir(dir string) (types.LinksConfig, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return types.LinksConfig{}, fmt.Errorf("reading links config dir: %w", err)
	}

	var names []string
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		switch strings.ToLower(filepath.Ext(e.Name())) {
		case ".yaml", ".yml":
			names = append(names, e.Name())
		}
	}
	sort.Strings(names)

	configs := make([]types.LinksConfig, 0, len(names))
	for _, name := range names {
		cfg, err := LoadFile(filepath.Join(dir, name))
		if err != nil {
			return types.LinksConfig{}, err
		}
		configs = append(configs, cfg)
	}
	return Merge(configs...)
}

// Load reads path as a single file, or as a directory of files.
func Load(path string) (types.LinksConfig, error) {
	info, err := os.Stat(path)
	if err != nil {
		return types.LinksConfig{}, fmt.Errorf("reading links config: %w", err)
	}
	if info.IsDir() {
		return LoadDir(path)
	}
	return LoadFile(path)
}
