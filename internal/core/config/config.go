package config

import (
	"os"

	"github.com/BurntSushi/toml"
)

// DefaultFile is the configuration file looked up when none is given.
const DefaultFile = "codeshape.toml"

type Config struct {
	Version       int           `toml:"version"`
	Snapshots     Snapshots     `toml:"snapshots"`
	Scan          Scan          `toml:"scan"`
	Extract       Extract       `toml:"extract"`
	Summary       Summary       `toml:"summary"`
	Versions      Versions      `toml:"versions"`
	Evolution     Evolution     `toml:"evolution"`
	Output        Output        `toml:"output"`
	History       History       `toml:"history"`
	S3            S3            `toml:"s3"`
	Observability Observability `toml:"observability"`
}

// Snapshots locates the snapshot directories analyzed when no explicit
// roots are passed on the command line.
type Snapshots struct {
	ReposDir string `toml:"repos_dir"`
	Prefix   string `toml:"prefix"`
}

type Scan struct {
	Extensions        []string `toml:"extensions"`
	ExcludeDirs       []string `toml:"exclude_dirs"`
	ExcludeFiles      []string `toml:"exclude_files"`
	Workers           int      `toml:"workers"`
	MaxFilesPerSecond float64  `toml:"max_files_per_second"`
	CacheEntries      int      `toml:"cache_entries"`
	MaxFileBytes      int64    `toml:"max_file_bytes"`
}

type Extract struct {
	MethodNameLimit int `toml:"method_name_limit"`
}

type Summary struct {
	TopN int `toml:"top_n"`
}

type Versions struct {
	Separator     string `toml:"separator"`
	DegenerateKey []int  `toml:"degenerate_key"`
}

type Evolution struct {
	FunctionGrowthThreshold int `toml:"function_growth_threshold"`
	ClassGrowthThreshold    int `toml:"class_growth_threshold"`
}

type Output struct {
	Dir    string `toml:"dir"`
	Format string `toml:"format"`
	// DryRun keeps artifacts in memory instead of writing them anywhere.
	DryRun bool `toml:"dry_run"`
}

type History struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
	// Project namespaces stored summaries so several corpora can share a file.
	Project string `toml:"project"`
}

type S3 struct {
	Enabled   bool   `toml:"enabled"`
	Endpoint  string `toml:"endpoint"`
	Bucket    string `toml:"bucket"`
	Region    string `toml:"region"`
	AccessKey string `toml:"access_key"`
	SecretKey string `toml:"secret_key"`
	UseSSL    *bool  `toml:"use_ssl"`
	Prefix    string `toml:"prefix"`
}

type Observability struct {
	MetricsAddr  string `toml:"metrics_addr"`
	OTLPEndpoint string `toml:"otlp_endpoint"`
	OTLPInsecure bool   `toml:"otlp_insecure"`
	ServiceName  string `toml:"service_name"`
}

// Load reads path, fills defaults, applies CODESHAPE_* environment overrides
// and validates the result.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return Parse(string(data))
}

// Parse is Load for an in-memory TOML document.
func Parse(data string) (*Config, error) {
	var cfg Config
	if _, err := toml.Decode(data, &cfg); err != nil {
		return nil, err
	}
	return finish(&cfg)
}

// Default returns the configuration used when no file exists.
func Default() (*Config, error) {
	return finish(&Config{})
}

func finish(cfg *Config) (*Config, error) {
	applyDefaults(cfg)
	ApplyEnvOverrides(cfg)
	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// UseSSLEnabled reports the effective use_ssl setting, true when unset.
func (s S3) UseSSLEnabled() bool {
	return s.UseSSL == nil || *s.UseSSL
}
