package config

import (
	"fmt"

	"github.com/gobwas/glob"
)

var checks = []func(*Config) error{
	validateVersion,
	validateScan,
	validateVersions,
	validateOutput,
	validateS3,
}

func validate(cfg *Config) error {
	for _, check := range checks {
		if err := check(cfg); err != nil {
			return err
		}
	}
	return nil
}

// Validate reports every problem instead of stopping at the first.
func Validate(cfg *Config) []error {
	var errs []error
	for _, check := range checks {
		if err := check(cfg); err != nil {
			errs = append(errs, err)
		}
	}
	return errs
}

func validateVersion(cfg *Config) error {
	if cfg.Version != 1 {
		return fmt.Errorf("unsupported config version %d", cfg.Version)
	}
	return nil
}

func validateScan(cfg *Config) error {
	if cfg.Scan.Workers < 1 {
		return fmt.Errorf("scan.workers must be >= 1, got %d", cfg.Scan.Workers)
	}
	if cfg.Scan.MaxFilesPerSecond < 0 {
		return fmt.Errorf("scan.max_files_per_second must be >= 0")
	}
	if cfg.Scan.CacheEntries < 0 {
		return fmt.Errorf("scan.cache_entries must be >= 0")
	}
	if cfg.Scan.MaxFileBytes < 0 {
		return fmt.Errorf("scan.max_file_bytes must be >= 0")
	}
	for i, ext := range cfg.Scan.Extensions {
		if len(ext) < 2 || ext[0] != '.' {
			return fmt.Errorf("scan.extensions[%d] %q must start with '.'", i, ext)
		}
	}
	for i, p := range cfg.Scan.ExcludeDirs {
		if _, err := glob.Compile(p); err != nil {
			return fmt.Errorf("scan.exclude_dirs[%d] %q: %w", i, p, err)
		}
	}
	for i, p := range cfg.Scan.ExcludeFiles {
		if _, err := glob.Compile(p); err != nil {
			return fmt.Errorf("scan.exclude_files[%d] %q: %w", i, p, err)
		}
	}
	if cfg.Extract.MethodNameLimit < 0 {
		return fmt.Errorf("extract.method_name_limit must be >= 0")
	}
	if cfg.Summary.TopN < 0 {
		return fmt.Errorf("summary.top_n must be >= 0")
	}
	return nil
}

func validateVersions(cfg *Config) error {
	for i, v := range cfg.Versions.DegenerateKey {
		if v < 0 {
			return fmt.Errorf("versions.degenerate_key[%d] must be >= 0", i)
		}
	}
	return nil
}

func validateOutput(cfg *Config) error {
	switch cfg.Output.Format {
	case FormatJSON, FormatYAML:
		return nil
	}
	return fmt.Errorf("output.format must be %q or %q, got %q", FormatJSON, FormatYAML, cfg.Output.Format)
}

func validateS3(cfg *Config) error {
	if !cfg.S3.Enabled {
		return nil
	}
	if cfg.S3.Endpoint == "" {
		return fmt.Errorf("s3.endpoint is required when s3.enabled is true")
	}
	if cfg.S3.Bucket == "" {
		return fmt.Errorf("s3.bucket is required when s3.enabled is true")
	}
	return nil
}
