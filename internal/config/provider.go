// SPDX-License-Identifier: MPL-2.0

package config

import "context"

// LoadOptions defines explicit configuration loading inputs.
type LoadOptions struct {
	// ConfigFilePath forces loading from a specific config file when set.
	ConfigFilePath string
	// ConfigDirPath overrides the config directory lookup when set.
	ConfigDirPath string
	// BaseDir is where ./watchbind.cue is looked up; the working directory when empty.
	BaseDir string
	// Overrides are applied last, keyed by config path ("interval", "watch.patterns").
	Overrides map[string]any
}

// Provider loads configuration from explicit options.
type Provider interface {
	Load(ctx context.Context, opts LoadOptions) (*Config, error)
}

// Loaded is the outcome of a successful load.
type Loaded struct {
	Config *Config
	// Path is the config file that was read, or "" if none was found.
	Path string
}

type fileProvider struct{}

// NewProvider creates a configuration provider.
func NewProvider() Provider {
	return &fileProvider{}
}

// Load reads configuration from the requested source.
func (p *fileProvider) Load(ctx context.Context, opts LoadOptions) (*Config, error) {
	cfg, _, err := loadWithOptions(ctx, opts)
	if err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadWithPath is Load that also reports which file was read.
func LoadWithPath(ctx context.Context, opts LoadOptions) (Loaded, error) {
	cfg, path, err := loadWithOptions(ctx, opts)
	if err != nil {
		return Loaded{}, err
	}
	return Loaded{Config: cfg, Path: path}, nil
}
