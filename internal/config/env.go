package config

import (
	"fmt"

	"github.com/caarlos0/env/v11"
)

// EnvPrefix prefixes every environment variable read by the package.
const EnvPrefix = "COMBINE_"

// envOverrides holds the environment variables that override file values.
// A nil field means the variable is unset.
type envOverrides struct {
	WebDir      *string `env:"COMBINE_WEB_DIR"`
	DataDir     *string `env:"COMBINE_DATA_DIR"`
	CacheDir    *string `env:"COMBINE_CACHE_DIR"`
	Manifest    *string `env:"COMBINE_MANIFEST"`
	AssetPrefix *string `env:"COMBINE_ASSET_PREFIX"`

	Enabled   *bool   `env:"COMBINE_ENABLED"`
	JSClass   *string `env:"COMBINE_JS_CLASS"`
	JSMethod  *string `env:"COMBINE_JS_METHOD"`
	CSSClass  *string `env:"COMBINE_CSS_CLASS"`
	CSSMethod *string `env:"COMBINE_CSS_METHOD"`

	Gzip              *bool   `env:"COMBINE_GZIP"`
	GzipLevel         *int    `env:"COMBINE_GZIP_LEVEL"`
	LegacyUACheck     *bool   `env:"COMBINE_LEGACY_UA_CHECK"`
	Pragma            *string `env:"COMBINE_PRAGMA"`
	ClientCacheMaxAge *int    `env:"COMBINE_CLIENT_CACHE_MAX_AGE"`

	Address         *string `env:"COMBINE_ADDRESS"`
	Prefix          *string `env:"COMBINE_PREFIX"`
	Metrics         *bool   `env:"COMBINE_METRICS"`
	ShutdownTimeout *string `env:"COMBINE_SHUTDOWN_TIMEOUT"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// applyEnv overlays the COMBINE_* environment variables onto c.
func (c *Config) applyEnv() error {
	var o envOverrides
	if err := ParseEnv(&o); err != nil {
		return err
	}

	setString(&c.Paths.Web, o.WebDir)
	setString(&c.Paths.Data, o.DataDir)
	setString(&c.Paths.Cache, o.CacheDir)
	setString(&c.Paths.Manifest, o.Manifest)
	setString(&c.Assets.Prefix, o.AssetPrefix)

	setBool(&c.Enabled, o.Enabled)
	setString(&c.JS.Class, o.JSClass)
	setString(&c.JS.Method, o.JSMethod)
	setString(&c.CSS.Class, o.CSSClass)
	setString(&c.CSS.Method, o.CSSMethod)

	setBool(&c.HTTP.Gzip, o.Gzip)
	setInt(&c.HTTP.GzipLevel, o.GzipLevel)
	setBool(&c.HTTP.LegacyUserAgentCheck, o.LegacyUACheck)
	setString(&c.HTTP.Pragma, o.Pragma)
	setInt(&c.HTTP.ClientCacheMaxAge, o.ClientCacheMaxAge)

	setString(&c.Server.Address, o.Address)
	setString(&c.Server.Prefix, o.Prefix)
	setBool(&c.Server.Metrics, o.Metrics)
	setString(&c.Server.ShutdownTimeout, o.ShutdownTimeout)
	return nil
}

func setString(dst *string, v *string) {
	if v != nil {
		*dst = *v
	}
}

func setBool(dst *bool, v *bool) {
	if v != nil {
		*dst = *v
	}
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}
