// Package config handles configuration loading and parsing for gitguard.
package config

import (
	_ "embed"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/dgerlanc/gitguard/internal/constants"
	"github.com/dgerlanc/gitguard/internal/logger"
	"github.com/dgerlanc/gitguard/internal/repostate"
	"github.com/dgerlanc/gitguard/internal/toolname"
)

//go:embed config.toml
var defaultConfig []byte

// ErrCircularInclude is returned when config files include each other.
var ErrCircularInclude = errors.New("circular include")

// KnownHooks lists the hook set names accepted in hooks.enabled.
var KnownHooks = []string{constants.HookProtectBranches, constants.HookGitSafe, constants.HookToolSurface}

// Duration is a time.Duration written as a string ("5s") in TOML.
type Duration struct {
	time.Duration
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = v
	return nil
}

// MarshalText implements encoding.TextMarshaler.
func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// Config holds the resolved configuration.
type Config struct {
	// EnabledHooks are the hook sets the root command runs
	EnabledHooks []string
	// StrictSplit selects the shell-parser splitter
	StrictSplit bool
	// BlockSubstitution refuses auto-approval for commands with $( or backticks
	BlockSubstitution bool

	BranchTimeout time.Duration
	PRTimeout     time.Duration
	GitPath       string
	GhPath        string

	// Surfaces are the read-only tool namespaces
	Surfaces []toolname.Surface

	AuditPath     string
	AuditMaxSize  int64
	AuditCompress bool
}

// HookEnabled reports whether name is in EnabledHooks.
func (c *Config) HookEnabled(name string) bool {
	return slices.Contains(c.EnabledHooks, name)
}

// file mirrors the TOML layout of one config file.
type file struct {
	Include []string `toml:"include"`
	Hooks   struct {
		Enabled []string `toml:"enabled"`
	} `toml:"hooks"`
	Splitter struct {
		Strict bool `toml:"strict"`
	} `toml:"splitter"`
	Matcher struct {
		BlockSubstitution bool `toml:"block_substitution"`
	} `toml:"matcher"`
	Resolver struct {
		BranchTimeout Duration `toml:"branch_timeout"`
		PRTimeout     Duration `toml:"pr_timeout"`
		Git           string   `toml:"git"`
		Gh            string   `toml:"gh"`
	} `toml:"resolver"`
	Tools struct {
		Surface []struct {
			Name    string `toml:"name"`
			Pattern string `toml:"pattern"`
		} `toml:"surface"`
	} `toml:"tools"`
	Audit struct {
		Path     string `toml:"path"`
		MaxSize  int64  `toml:"max_size"`
		Compress bool   `toml:"compress"`
	} `toml:"audit"`
}

var (
	// globalConfig is the loaded configuration
	globalConfig *Config
	// configInitialized tracks whether config has been loaded
	configInitialized bool
	// initErr is the error from the last Init, kept for the audit log
	initErr error
	// configPath is the file Init read from
	configPath string
	// profile selects <profile>.toml instead of config.toml
	profile string
)

// Defaults returns the built-in settings used before any file is applied.
func Defaults() *Config {
	return &Config{
		EnabledHooks:  slices.Clone(KnownHooks),
		BranchTimeout: repostate.DefaultBranchTimeout,
		PRTimeout:     repostate.DefaultPRTimeout,
		GitPath:       "git",
		GhPath:        "gh",
		AuditMaxSize:  10 << 20,
		AuditCompress: true,
	}
}

// GetConfigDir returns the config directory path.
// Uses GITGUARD_CONFIG env var if set, otherwise ~/.config/gitguard
func GetConfigDir() (string, error) {
	if dir := os.Getenv(constants.EnvConfigDir); dir != "" {
		return dir, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, constants.XDGConfigSubdir, constants.AppName), nil
}

// EnsureConfigFiles creates the config directory and writes the default
// config file if it doesn't exist.
func EnsureConfigFiles(configDir string) error {
	if err := os.MkdirAll(configDir, constants.DirMode); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	path := filepath.Join(configDir, constants.ConfigFileName)
	if _, err := os.Stat(path); os.IsNotExist(err) {
		if err := os.WriteFile(path, defaultConfig, constants.FileMode); err != nil {
			return fmt.Errorf("failed to write %s: %w", constants.ConfigFileName, err)
		}
	}
	return nil
}

// LoadConfig loads a config from TOML data without include support.
func LoadConfig(data []byte) (*Config, error) {
	return LoadConfigWithDir(data, "")
}

// LoadConfigWithDir loads a config from TOML data. Relative include paths
// are resolved against dir; included files are applied first so the including
// file wins.
func LoadConfigWithDir(data []byte, dir string) (*Config, error) {
	cfg := Defaults()
	if err := apply(cfg, data, dir, map[string]bool{}); err != nil {
		return nil, err
	}

	if len(cfg.Surfaces) == 0 {
		cfg.Surfaces = slices.Clone(toolname.DefaultSurfaces)
	}
	if _, err := toolname.New(cfg.Surfaces); err != nil {
		return nil, fmt.Errorf("failed to parse tools: %w", err)
	}
	return cfg, nil
}

func apply(cfg *Config, data []byte, dir string, visited map[string]bool) error {
	var f file
	md, err := toml.Decode(string(data), &f)
	if err != nil {
		return fmt.Errorf("failed to parse TOML: %w", err)
	}

	for _, inc := range f.Include {
		path := inc
		if !filepath.IsAbs(path) {
			path = filepath.Join(dir, path)
		}
		path = filepath.Clean(path)
		if visited[path] {
			return fmt.Errorf("%w: %s", ErrCircularInclude, path)
		}
		visited[path] = true

		incData, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read include %s: %w", inc, err)
		}
		if err := apply(cfg, incData, filepath.Dir(path), visited); err != nil {
			return fmt.Errorf("include %s: %w", inc, err)
		}
	}

	if md.IsDefined("hooks", "enabled") {
		for _, h := range f.Hooks.Enabled {
			if !slices.Contains(KnownHooks, h) {
				return fmt.Errorf("unknown hook %q in hooks.enabled", h)
			}
		}
		cfg.EnabledHooks = f.Hooks.Enabled
	}
	if md.IsDefined("splitter", "strict") {
		cfg.StrictSplit = f.Splitter.Strict
	}
	if md.IsDefined("matcher", "block_substitution") {
		cfg.BlockSubstitution = f.Matcher.BlockSubstitution
	}
	if md.IsDefined("resolver", "branch_timeout") {
		cfg.BranchTimeout = f.Resolver.BranchTimeout.Duration
	}
	if md.IsDefined("resolver", "pr_timeout") {
		cfg.PRTimeout = f.Resolver.PRTimeout.Duration
	}
	if f.Resolver.Git != "" {
		cfg.GitPath = f.Resolver.Git
	}
	if f.Resolver.Gh != "" {
		cfg.GhPath = f.Resolver.Gh
	}
	for _, s := range f.Tools.Surface {
		cfg.Surfaces = append(cfg.Surfaces, toolname.Surface{Name: s.Name, Pattern: s.Pattern})
	}
	if md.IsDefined("audit", "path") {
		cfg.AuditPath = f.Audit.Path
	}
	if md.IsDefined("audit", "max_size") {
		cfg.AuditMaxSize = f.Audit.MaxSize
	}
	if md.IsDefined("audit", "compress") {
		cfg.AuditCompress = f.Audit.Compress
	}

	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		logger.Warn("ignoring unknown config keys", "keys", fmt.Sprint(undecoded))
	}
	return nil
}

// loadEmbeddedDefaults loads settings from the embedded default config file.
func loadEmbeddedDefaults() *Config {
	cfg, err := LoadConfig(defaultConfig)
	if err != nil {
		return Defaults()
	}
	return cfg
}

// fileName returns the config file name for the active profile.
func fileName() string {
	if profile != "" {
		return profile + ".toml"
	}
	return constants.ConfigFileName
}

// Init loads configuration from files, creating defaults if necessary.
// If loading fails, it falls back to embedded defaults and remembers the error.
func Init() error {
	if configInitialized {
		return initErr
	}
	configInitialized = true
	initErr = load()
	return initErr
}

func load() error {
	configDir, err := GetConfigDir()
	if err != nil {
		logger.Debug("failed to get config dir, using embedded defaults", "error", err)
		globalConfig = loadEmbeddedDefaults()
		return err
	}

	if err := EnsureConfigFiles(configDir); err != nil {
		logger.Debug("failed to ensure config files, using embedded defaults", "error", err)
		globalConfig = loadEmbeddedDefaults()
		return err
	}

	configPath = filepath.Join(configDir, fileName())
	data, err := os.ReadFile(configPath)
	if err != nil {
		logger.Debug("failed to read config file, using embedded defaults", "path", configPath, "error", err)
		globalConfig = loadEmbeddedDefaults()
		return fmt.Errorf("failed to read %s: %w", fileName(), err)
	}

	cfg, err := LoadConfigWithDir(data, configDir)
	if err != nil {
		logger.Debug("failed to parse config, using embedded defaults", "path", configPath, "error", err)
		globalConfig = loadEmbeddedDefaults()
		return fmt.Errorf("failed to load config: %w", err)
	}
	globalConfig = cfg

	logger.Debug("config loaded successfully",
		"path", configPath,
		"hooks", cfg.EnabledHooks,
		"surfaces", len(cfg.Surfaces),
		"strict", cfg.StrictSplit)
	return nil
}

// Get returns the current configuration.
// If Init has not been called, it initializes with defaults.
func Get() *Config {
	if !configInitialized {
		Init()
	}
	return globalConfig
}

// SetProfile selects the profile file loaded by the next Init.
func SetProfile(name string) {
	profile = name
}

// GetProfile returns the active profile name.
func GetProfile() string {
	return profile
}

// GetConfigPath returns the file the configuration was read from, if any.
func GetConfigPath() string {
	return configPath
}

// InitError returns the error from the last Init, if any.
func InitError() error {
	return initErr
}

// Reset resets the configuration state. Used for testing.
func Reset() {
	configInitialized = false
	globalConfig = nil
	initErr = nil
	configPath = ""
	profile = ""
}

// GetDefaultConfig returns the embedded default configuration.
func GetDefaultConfig() []byte {
	return defaultConfig
}
