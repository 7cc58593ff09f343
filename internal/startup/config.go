package startup

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"wallpaper-catalog/internal/catalog"
	"wallpaper-catalog/internal/ingest"
	"wallpaper-catalog/internal/media"
	"wallpaper-catalog/internal/registry"
)

// EnvPrefix namespaces environment overrides: page-size is CATALOG_PAGE_SIZE.
const EnvPrefix = "CATALOG"

// Config holds all catalog configuration.
type Config struct {
	Root         string `mapstructure:"root"`
	OutputDir    string `mapstructure:"output-dir"`
	RegistryPath string `mapstructure:"registry-path"`
	BaseURL      string `mapstructure:"base-url"`

	PageSize      int `mapstructure:"page-size"`
	FeaturedCount int `mapstructure:"featured-count"`
	PopularTags   int `mapstructure:"popular-tags"`

	MinWidth    int   `mapstructure:"min-width"`
	MinHeight   int   `mapstructure:"min-height"`
	MinFileSize int64 `mapstructure:"min-file-size"`
	MaxFileSize int64 `mapstructure:"max-file-size"`
	MaxPixels   int   `mapstructure:"max-pixels"`

	MaxWidth     int `mapstructure:"max-width"`
	MaxHeight    int `mapstructure:"max-height"`
	JPEGQuality  int `mapstructure:"jpeg-quality"`
	ThumbWidth   int `mapstructure:"thumb-width"`
	ThumbHeight  int `mapstructure:"thumb-height"`
	ThumbQuality int `mapstructure:"thumb-quality"`

	DuplicateScope     string        `mapstructure:"duplicate-scope"`
	PerceptualDistance int           `mapstructure:"perceptual-distance"`
	LockTimeout        time.Duration `mapstructure:"lock-timeout"`

	MetricsTextfile string `mapstructure:"metrics-textfile"`
	Port            int    `mapstructure:"port"`
	LogAssets       bool   `mapstructure:"log-assets"`
	LogHealthChecks bool   `mapstructure:"log-health-checks"`

	S3Bucket string `mapstructure:"s3-bucket"`
	S3Region string `mapstructure:"s3-region"`
	S3Prefix string `mapstructure:"s3-prefix"`
}

// SetDefaults registers every key with its default on v.
func SetDefaults(v *viper.Viper) {
	limits := media.DefaultLimits()
	image := media.DefaultImageTarget()
	thumb := media.DefaultThumbnailTarget()
	build := catalog.DefaultOptions()

	v.SetDefault("root", "collection")
	v.SetDefault("output-dir", "")
	v.SetDefault("registry-path", "")
	v.SetDefault("base-url", build.BaseURL)
	v.SetDefault("page-size", build.PageSize)
	v.SetDefault("featured-count", build.FeaturedCount)
	v.SetDefault("popular-tags", build.PopularTags)
	v.SetDefault("min-width", limits.MinWidth)
	v.SetDefault("min-height", limits.MinHeight)
	v.SetDefault("min-file-size", limits.MinFileSize)
	v.SetDefault("max-file-size", limits.MaxFileSize)
	v.SetDefault("max-pixels", limits.MaxPixels)
	v.SetDefault("max-width", image.Width)
	v.SetDefault("max-height", image.Height)
	v.SetDefault("jpeg-quality", image.Quality)
	v.SetDefault("thumb-width", thumb.Width)
	v.SetDefault("thumb-height", thumb.Height)
	v.SetDefault("thumb-quality", thumb.Quality)
	v.SetDefault("duplicate-scope", string(registry.ScopeGlobal))
	v.SetDefault("perceptual-distance", media.DefaultPerceptualDistance)
	v.SetDefault("lock-timeout", 30*time.Second)
	v.SetDefault("metrics-textfile", "")
	v.SetDefault("port", 8080)
	v.SetDefault("log-assets", false)
	v.SetDefault("log-health-checks", true)
	v.SetDefault("s3-bucket", "")
	v.SetDefault("s3-region", "us-east-1")
	v.SetDefault("s3-prefix", "")
}

// NewViper returns a viper instance with defaults, the CATALOG_ environment
// mapping and the optional catalog.yaml search path configured. Flags are
// bound by the caller.
func NewViper() *viper.Viper {
	v := viper.New()
	SetDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()

	v.SetConfigName("catalog")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("$HOME/.catalog")
	return v
}

// LoadConfig reads the optional config file, unmarshals v and resolves the
// derived paths. A missing config file is not an error; a malformed one is.
func LoadConfig(v *viper.Viper) (*Config, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if err := cfg.resolvePaths(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) resolvePaths() error {
	root, err := filepath.Abs(c.Root)
	if err != nil {
		return fmt.Errorf("failed to resolve root path: %w", err)
	}
	c.Root = root

	if c.OutputDir == "" {
		c.OutputDir = filepath.Join(root, "api", "v1")
	}
	if c.RegistryPath == "" {
		c.RegistryPath = filepath.Join(root, "registry", "hashes.db")
	}
	if c.OutputDir, err = filepath.Abs(c.OutputDir); err != nil {
		return fmt.Errorf("failed to resolve output path: %w", err)
	}
	if c.RegistryPath, err = filepath.Abs(c.RegistryPath); err != nil {
		return fmt.Errorf("failed to resolve registry path: %w", err)
	}
	return nil
}

// Validate reports every invalid setting at once.
func (c *Config) Validate() error {
	var errs []error
	positive := func(name string, v int64) {
		if v <= 0 {
			errs = append(errs, fmt.Errorf("%s must be positive", name))
		}
	}

	if c.Root == "" {
		errs = append(errs, errors.New("root cannot be empty"))
	}
	if c.BaseURL == "" {
		errs = append(errs, errors.New("base-url cannot be empty"))
	}
	if c.PageSize < 1 {
		errs = append(errs, errors.New("page-size must be at least 1"))
	}
	if c.FeaturedCount < 0 || c.PopularTags < 0 {
		errs = append(errs, errors.New("featured-count and popular-tags must be non-negative"))
	}

	positive("min-width", int64(c.MinWidth))
	positive("min-height", int64(c.MinHeight))
	positive("min-file-size", c.MinFileSize)
	positive("max-file-size", c.MaxFileSize)
	positive("max-pixels", int64(c.MaxPixels))
	positive("max-width", int64(c.MaxWidth))
	positive("max-height", int64(c.MaxHeight))
	positive("thumb-width", int64(c.ThumbWidth))
	positive("thumb-height", int64(c.ThumbHeight))
	positive("lock-timeout", int64(c.LockTimeout))

	if c.MinFileSize > c.MaxFileSize {
		errs = append(errs, errors.New("min-file-size exceeds max-file-size"))
	}
	for _, q := range []struct {
		name  string
		value int
	}{{"jpeg-quality", c.JPEGQuality}, {"thumb-quality", c.ThumbQuality}} {
		if q.value < 1 || q.value > 100 {
			errs = append(errs, fmt.Errorf("%s must be between 1 and 100", q.name))
		}
	}
	if _, err := registry.ParseScope(c.DuplicateScope); err != nil {
		errs = append(errs, err)
	}
	if c.PerceptualDistance > 64 {
		errs = append(errs, errors.New("perceptual-distance cannot exceed 64"))
	}
	if c.Port < 1 || c.Port > 65535 {
		errs = append(errs, errors.New("port must be between 1 and 65535"))
	}

	return errors.Join(errs...)
}

// Scope returns the parsed duplicate scope. Call Validate first.
func (c *Config) Scope() registry.Scope {
	scope, _ := registry.ParseScope(c.DuplicateScope)
	return scope
}

// Limits returns the validation bounds.
func (c *Config) Limits() media.Limits {
	return media.Limits{
		MinWidth:    c.MinWidth,
		MinHeight:   c.MinHeight,
		MinFileSize: c.MinFileSize,
		MaxFileSize: c.MaxFileSize,
		MaxPixels:   c.MaxPixels,
	}
}

// IngestOptions returns pipeline options for this configuration.
func (c *Config) IngestOptions() ingest.Options {
	opts := ingest.DefaultOptions()
	opts.Limits = c.Limits()
	opts.Image = media.Target{Width: c.MaxWidth, Height: c.MaxHeight, Quality: c.JPEGQuality}
	opts.Thumbnail = media.Target{Width: c.ThumbWidth, Height: c.ThumbHeight, Quality: c.ThumbQuality}
	opts.BaseURL = c.BaseURL
	opts.PerceptualDistance = c.PerceptualDistance
	return opts
}

// CatalogOptions returns builder options for this configuration.
func (c *Config) CatalogOptions() catalog.Options {
	opts := catalog.DefaultOptions()
	opts.BaseURL = c.BaseURL
	opts.PageSize = c.PageSize
	opts.FeaturedCount = c.FeaturedCount
	opts.PopularTags = c.PopularTags
	return opts
}
