package cmd

import (
	"os"

	"github.com/shivasurya/kcfa/pointer"
	"gopkg.in/yaml.v3"
)

// fileConfig mirrors pointer.Config's YAML surface (spec.md §6's
// Config option table), kept as its own struct so the YAML field names
// stay snake_case the way a config file reads naturally, independent of
// pointer.Config's Go field names.
type fileConfig struct {
	ContextPolicy       string `yaml:"context_policy"`
	MaxIterations       int    `yaml:"max_iterations"`
	MaxPointsToSize     *int   `yaml:"max_points_to_size"`
	Verbose             bool   `yaml:"verbose"`
	LogLevel            string `yaml:"log_level"`
	BuildClassHierarchy *bool  `yaml:"build_class_hierarchy"`
	UseMROResolution    *bool  `yaml:"use_mro_resolution"`
	MaxImportDepth      *int   `yaml:"max_import_depth"`
	TrackUnknowns       *bool  `yaml:"track_unknowns"`
	LogUnknownDetails   bool   `yaml:"log_unknown_details"`
	EntryPoints         []string `yaml:"entry_points"`
}

// loadConfig starts from pointer.DefaultConfig and applies path's
// contents on top, if path is non-empty. Only fields actually present in
// the file override the default; the rest keep their DefaultConfig
// value.
func loadConfig(path string) (pointer.Config, error) {
	cfg := pointer.DefaultConfig()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return cfg, err
	}

	if fc.ContextPolicy != "" {
		cfg.ContextPolicy = fc.ContextPolicy
	}
	if fc.MaxIterations > 0 {
		cfg.MaxIterations = fc.MaxIterations
	}
	if fc.MaxPointsToSize != nil {
		cfg.MaxPointsToSize = fc.MaxPointsToSize
	}
	if fc.LogLevel != "" {
		cfg.LogLevel = fc.LogLevel
	}
	if fc.BuildClassHierarchy != nil {
		cfg.BuildClassHierarchy = *fc.BuildClassHierarchy
	}
	if fc.UseMROResolution != nil {
		cfg.UseMROResolution = *fc.UseMROResolution
	}
	if fc.MaxImportDepth != nil {
		cfg.MaxImportDepth = *fc.MaxImportDepth
	}
	if fc.TrackUnknowns != nil {
		cfg.TrackUnknowns = *fc.TrackUnknowns
	}
	cfg.Verbose = cfg.Verbose || fc.Verbose
	cfg.LogUnknownDetails = cfg.LogUnknownDetails || fc.LogUnknownDetails
	if len(fc.EntryPoints) > 0 {
		cfg.EntryPoints = fc.EntryPoints
	}

	return cfg, nil
}
