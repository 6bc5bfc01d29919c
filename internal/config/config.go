package config

import (
	"compress/gzip"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vango-dev/combine/internal/errors"
	"github.com/vango-dev/combine/pkg/assets"
	"github.com/vango-dev/combine/pkg/headers"
	"github.com/vango-dev/combine/pkg/minify"
)

// ConfigFileNames are the configuration file names, in lookup order.
var ConfigFileNames = []string{"combine.json", "combine.yaml", "combine.yml"}

const (
	// DefaultWebDir is the default primary web root.
	DefaultWebDir = "web"

	// DefaultDataDir is the default data directory.
	DefaultDataDir = "data"

	// DefaultCacheSubdir is the cache directory under the data directory.
	DefaultCacheSubdir = "combine"

	// DefaultAddress is the default listen address.
	DefaultAddress = ":8080"

	// DefaultPrefix is the default URL prefix of the bundle routes.
	DefaultPrefix = "/combine"

	// DefaultShutdownTimeout is the default graceful shutdown window.
	DefaultShutdownTimeout = "10s"
)

// Config represents the complete combine configuration.
type Config struct {
	// Paths contains the filesystem locations.
	Paths PathsConfig `json:"paths" yaml:"paths"`

	// Assets contains reference mapping settings.
	Assets AssetsConfig `json:"assets" yaml:"assets"`

	// Enabled turns minification on.
	Enabled bool `json:"enabled" yaml:"enabled"`

	// JS and CSS select the minifier per language.
	JS  minify.Block `json:"js" yaml:"js"`
	CSS minify.Block `json:"css" yaml:"css"`

	// Exclude lists the references never combined, per language.
	Exclude ExcludeConfig `json:"exclude" yaml:"exclude"`

	// HTTP contains response header settings.
	HTTP HTTPConfig `json:"http" yaml:"http"`

	// Server contains HTTP server settings.
	Server ServerConfig `json:"server" yaml:"server"`

	// configPath stores the path where the config was loaded from.
	configPath string
}

// PathsConfig contains the filesystem locations.
type PathsConfig struct {
	// Web is the primary web root.
	Web string `json:"web,omitempty" yaml:"web,omitempty"`

	// Data is the data directory; <data>/web is the fallback web root.
	Data string `json:"data,omitempty" yaml:"data,omitempty"`

	// Cache is where bundles are written (default: <data>/combine).
	Cache string `json:"cache,omitempty" yaml:"cache,omitempty"`

	// Manifest is an optional versioned-asset manifest.
	Manifest string `json:"manifest,omitempty" yaml:"manifest,omitempty"`
}

// AssetsConfig contains reference mapping settings.
type AssetsConfig struct {
	// Prefix is prepended to mapped references.
	Prefix string `json:"prefix,omitempty" yaml:"prefix,omitempty"`
}

// ExcludeConfig lists exclusions per language. Entries are full paths,
// basenames or delimited regular expressions.
type ExcludeConfig struct {
	JS  []string `json:"js,omitempty" yaml:"js,omitempty"`
	CSS []string `json:"css,omitempty" yaml:"css,omitempty"`
}

// HTTPConfig contains response header settings.
type HTTPConfig struct {
	// Gzip enables response compression.
	Gzip bool `json:"gzip" yaml:"gzip"`

	// GzipLevel is the compression level (0 selects the default).
	GzipLevel int `json:"gzipLevel,omitempty" yaml:"gzipLevel,omitempty"`

	// LegacyUserAgentCheck refuses compression to old Internet Explorer
	// builds.
	LegacyUserAgentCheck bool `json:"legacyUserAgentCheck" yaml:"legacyUserAgentCheck"`

	// Pragma is the Pragma header sent with cache headers.
	Pragma string `json:"pragma,omitempty" yaml:"pragma,omitempty"`

	// ClientCacheMaxAge is the client cache lifetime in days; 0 disables
	// the cache headers.
	ClientCacheMaxAge int `json:"clientCacheMaxAge,omitempty" yaml:"clientCacheMaxAge,omitempty"`
}

// ServerConfig contains HTTP server settings.
type ServerConfig struct {
	// Address is the listen address.
	Address string `json:"address,omitempty" yaml:"address,omitempty"`

	// Prefix is the URL prefix of the bundle routes.
	Prefix string `json:"prefix,omitempty" yaml:"prefix,omitempty"`

	// Metrics exposes /metrics.
	Metrics bool `json:"metrics" yaml:"metrics"`

	// ShutdownTimeout is the graceful shutdown window (e.g., "10s").
	ShutdownTimeout string `json:"shutdownTimeout,omitempty" yaml:"shutdownTimeout,omitempty"`
}

// New creates a new Config with default values.
func New() *Config {
	return &Config{
		Paths: PathsConfig{
			Web:  DefaultWebDir,
			Data: DefaultDataDir,
		},
		HTTP: HTTPConfig{
			Gzip:                 true,
			LegacyUserAgentCheck: true,
			Pragma:               headers.DefaultPragma,
		},
		Server: ServerConfig{
			Address:         DefaultAddress,
			Prefix:          DefaultPrefix,
			Metrics:         true,
			ShutdownTimeout: DefaultShutdownTimeout,
		},
	}
}

// Load reads configuration from the specified directory.
// It looks for the first of ConfigFileNames in the directory.
func Load(dir string) (*Config, error) {
	for _, name := range ConfigFileNames {
		path := filepath.Join(dir, name)
		if _, err := os.Stat(path); err == nil {
			return LoadFile(path)
		}
	}
	return nil, errors.New("E101").
		WithDetail("No combine.json or combine.yaml found in " + dir).
		WithSuggestion("Create combine.json, or pass --config")
}

// LoadFile reads configuration from the specified file path. Files ending
// in .yaml or .yml are decoded as YAML, everything else as JSON.
// Environment variables are applied on top.
func LoadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New("E101").WithDetail("No such file: " + path)
		}
		return nil, errors.New("E102").Wrap(err)
	}

	cfg := New()
	name := filepath.Base(path)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, errors.New("E102").
				WithDetail("Failed to parse " + name + ": " + err.Error()).
				WithSuggestion("Check that " + name + " is valid YAML")
		}
	default:
		if err := json.Unmarshal(data, cfg); err != nil {
			return nil, errors.New("E102").
				WithDetail("Failed to parse " + name + ": " + err.Error()).
				WithSuggestion("Check that " + name + " is valid JSON")
		}
	}

	cfg.configPath = path
	if err := cfg.applyEnv(); err != nil {
		return nil, errors.New("E103").Wrap(err)
	}
	cfg.applyDefaults()

	return cfg, nil
}

// FromEnv returns the defaults overlaid with the environment, for running
// without a configuration file. Relative paths resolve against dir.
func FromEnv(dir string) (*Config, error) {
	cfg := New()
	if err := cfg.applyEnv(); err != nil {
		return nil, errors.New("E103").Wrap(err)
	}
	cfg.applyDefaults()
	if dir != "" {
		cfg.configPath = filepath.Join(dir, ConfigFileNames[0])
	}
	return cfg, nil
}

// SaveTo writes the configuration to the specified path, as YAML or JSON
// depending on the extension.
func (c *Config) SaveTo(path string) error {
	var data []byte
	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		data, err = yaml.Marshal(c)
	default:
		data, err = json.MarshalIndent(c, "", "  ")
		data = append(data, '\n')
	}
	if err != nil {
		return errors.New("E102").Wrap(err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return errors.New("E102").Wrap(err)
	}

	c.configPath = path
	return nil
}

// Path returns the path where the config was loaded from.
func (c *Config) Path() string {
	return c.configPath
}

// Dir returns the directory containing the config file.
func (c *Config) Dir() string {
	if c.configPath == "" {
		return ""
	}
	return filepath.Dir(c.configPath)
}

// applyDefaults fills in default values for empty fields.
func (c *Config) applyDefaults() {
	if c.Paths.Web == "" {
		c.Paths.Web = DefaultWebDir
	}
	if c.Paths.Data == "" {
		c.Paths.Data = DefaultDataDir
	}
	if c.HTTP.Pragma == "" {
		c.HTTP.Pragma = headers.DefaultPragma
	}
	if c.Server.Address == "" {
		c.Server.Address = DefaultAddress
	}
	if c.Server.Prefix == "" {
		c.Server.Prefix = DefaultPrefix
	}
	c.Server.Prefix = "/" + strings.Trim(c.Server.Prefix, "/")
	if c.Server.ShutdownTimeout == "" {
		c.Server.ShutdownTimeout = DefaultShutdownTimeout
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	if c.HTTP.ClientCacheMaxAge < 0 || c.HTTP.ClientCacheMaxAge > headers.MaxCacheDays {
		return errors.New("E103").
			WithDetailf("http.clientCacheMaxAge must be between 0 and %d days", headers.MaxCacheDays)
	}
	if c.HTTP.GzipLevel < gzip.HuffmanOnly || c.HTTP.GzipLevel > gzip.BestCompression {
		return errors.New("E103").
			WithDetailf("http.gzipLevel must be between %d and %d", gzip.HuffmanOnly, gzip.BestCompression)
	}
	if c.Server.Prefix == "/" {
		return errors.New("E103").
			WithDetail("server.prefix must not be the root").
			WithSuggestion("Use a prefix such as " + DefaultPrefix)
	}
	if d, err := time.ParseDuration(c.Server.ShutdownTimeout); err != nil || d < 0 {
		return errors.New("E103").
			WithDetailf("server.shutdownTimeout %q is not a valid duration", c.Server.ShutdownTimeout)
	}
	return nil
}

// resolve returns path relative to the config directory unless absolute.
func (c *Config) resolve(path string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	return filepath.Join(c.Dir(), path)
}

// WebDir returns the primary web root.
func (c *Config) WebDir() string {
	return c.resolve(c.Paths.Web)
}

// DataDir returns the data directory.
func (c *Config) DataDir() string {
	return c.resolve(c.Paths.Data)
}

// CacheDir returns the bundle cache directory.
func (c *Config) CacheDir() string {
	if c.Paths.Cache == "" {
		return filepath.Join(c.DataDir(), DefaultCacheSubdir)
	}
	return c.resolve(c.Paths.Cache)
}

// ManifestPath returns the manifest path, or "" when none is configured.
func (c *Config) ManifestPath() string {
	return c.resolve(c.Paths.Manifest)
}

// ShutdownTimeout returns the parsed shutdown window.
func (c *Config) ShutdownTimeout() time.Duration {
	d, err := time.ParseDuration(c.Server.ShutdownTimeout)
	if err != nil {
		d, _ = time.ParseDuration(DefaultShutdownTimeout)
	}
	return d
}

// Exclusions returns the exclusion list for kind.
func (c *Config) Exclusions(kind minify.Kind) []string {
	if kind == minify.KindCSS {
		return c.Exclude.CSS
	}
	return c.Exclude.JS
}

// Resolver returns an asset resolver over the configured roots.
func (c *Config) Resolver() *assets.Resolver {
	return assets.NewResolver(c.WebDir(), c.DataDir())
}

// Mapper returns the reference mapper: the manifest under the asset prefix
// when a manifest is configured, a plain prefix mapper when only a prefix
// is, and nil otherwise.
func (c *Config) Mapper() (assets.PathMapper, error) {
	if path := c.ManifestPath(); path != "" {
		m, err := assets.LoadManifest(path)
		if err != nil {
			return nil, errors.New("E102").WithDetail("Failed to load manifest " + path).Wrap(err)
		}
		return m.Mapper(c.Assets.Prefix), nil
	}
	if c.Assets.Prefix != "" {
		return assets.PrefixMapper(c.Assets.Prefix), nil
	}
	return nil, nil
}

// DispatcherConfig returns the minification settings.
func (c *Config) DispatcherConfig() minify.DispatcherConfig {
	return minify.DispatcherConfig{
		Enabled: c.Enabled,
		JS:      c.JS,
		CSS:     c.CSS,
	}
}

// GzipConfig returns the compression settings.
func (c *Config) GzipConfig() headers.GzipConfig {
	return headers.GzipConfig{
		Enabled:              c.HTTP.Gzip,
		LegacyUserAgentCheck: c.HTTP.LegacyUserAgentCheck,
		Level:                c.HTTP.GzipLevel,
	}
}

// CacheConfig returns the client caching settings.
func (c *Config) CacheConfig() headers.CacheConfig {
	return headers.CacheConfig{
		MaxAgeDays: c.HTTP.ClientCacheMaxAge,
		Pragma:     c.HTTP.Pragma,
	}
}

// Exists checks if a config file exists in the given directory.
func Exists(dir string) bool {
	for _, name := range ConfigFileNames {
		if _, err := os.Stat(filepath.Join(dir, name)); err == nil {
			return true
		}
	}
	return false
}

// FindProjectRoot walks up directories to find the project root.
// Returns the directory containing a config file, or an error if not found.
func FindProjectRoot(startDir string) (string, error) {
	dir, err := filepath.Abs(startDir)
	if err != nil {
		return "", err
	}

	for {
		if Exists(dir) {
			return dir, nil
		}

		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.New("E101").
				WithDetail("No combine.json or combine.yaml found in " + startDir + " or any parent directory").
				WithSuggestion("Create combine.json, or pass --config")
		}
		dir = parent
	}
}

// LoadFromWorkingDir loads configuration from the current working directory
// or its nearest parent with a config file. Without one, it falls back to
// FromEnv rooted at the working directory.
func LoadFromWorkingDir() (*Config, error) {
	wd, err := os.Getwd()
	if err != nil {
		return nil, err
	}

	root, err := FindProjectRoot(wd)
	if err != nil {
		if errors.HasCode(err, "E101") {
			return FromEnv(wd)
		}
		return nil, err
	}

	return Load(root)
}
