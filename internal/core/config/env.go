package config

import (
	"log/slog"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

// LoadDotEnv loads KEY=VALUE pairs from the given files into the process
// environment without overriding variables that are already set. Missing
// files are ignored.
func LoadDotEnv(paths ...string) error {
	if len(paths) == 0 {
		paths = []string{".env"}
	}
	for _, p := range paths {
		if _, err := os.Stat(p); err != nil {
			continue
		}
		if err := godotenv.Load(p); err != nil {
			return err
		}
	}
	return nil
}

// ApplyEnvOverrides applies environment variable overrides to the configuration.
// Pattern: CODESHAPE_[SECTION]_[KEY] (e.g., CODESHAPE_SCAN_WORKERS).
func ApplyEnvOverrides(cfg *Config) {
	// Snapshots
	setEnvString(&cfg.Snapshots.ReposDir, "CODESHAPE_SNAPSHOTS_REPOS_DIR")
	setEnvString(&cfg.Snapshots.Prefix, "CODESHAPE_SNAPSHOTS_PREFIX")

	// Scan
	setEnvList(&cfg.Scan.Extensions, "CODESHAPE_SCAN_EXTENSIONS")
	setEnvList(&cfg.Scan.ExcludeDirs, "CODESHAPE_SCAN_EXCLUDE_DIRS")
	setEnvList(&cfg.Scan.ExcludeFiles, "CODESHAPE_SCAN_EXCLUDE_FILES")
	setEnvInt(&cfg.Scan.Workers, "CODESHAPE_SCAN_WORKERS")
	setEnvFloat64(&cfg.Scan.MaxFilesPerSecond, "CODESHAPE_SCAN_MAX_FILES_PER_SECOND")
	setEnvInt(&cfg.Scan.CacheEntries, "CODESHAPE_SCAN_CACHE_ENTRIES")
	setEnvInt64(&cfg.Scan.MaxFileBytes, "CODESHAPE_SCAN_MAX_FILE_BYTES")

	setEnvInt(&cfg.Extract.MethodNameLimit, "CODESHAPE_EXTRACT_METHOD_NAME_LIMIT")
	setEnvInt(&cfg.Summary.TopN, "CODESHAPE_SUMMARY_TOP_N")
	setEnvString(&cfg.Versions.Separator, "CODESHAPE_VERSIONS_SEPARATOR")

	setEnvInt(&cfg.Evolution.FunctionGrowthThreshold, "CODESHAPE_EVOLUTION_FUNCTION_GROWTH_THRESHOLD")
	setEnvInt(&cfg.Evolution.ClassGrowthThreshold, "CODESHAPE_EVOLUTION_CLASS_GROWTH_THRESHOLD")

	// Output
	setEnvString(&cfg.Output.Dir, "CODESHAPE_OUTPUT_DIR")
	setEnvString(&cfg.Output.Format, "CODESHAPE_OUTPUT_FORMAT")
	setEnvBool(&cfg.Output.DryRun, "CODESHAPE_OUTPUT_DRY_RUN")

	// History
	setEnvBool(&cfg.History.Enabled, "CODESHAPE_HISTORY_ENABLED")
	setEnvString(&cfg.History.Path, "CODESHAPE_HISTORY_PATH")
	setEnvString(&cfg.History.Project, "CODESHAPE_HISTORY_PROJECT")

	// S3
	setEnvBool(&cfg.S3.Enabled, "CODESHAPE_S3_ENABLED")
	setEnvString(&cfg.S3.Endpoint, "CODESHAPE_S3_ENDPOINT")
	setEnvString(&cfg.S3.Bucket, "CODESHAPE_S3_BUCKET")
	setEnvString(&cfg.S3.Region, "CODESHAPE_S3_REGION")
	setEnvSecret(&cfg.S3.AccessKey, "CODESHAPE_S3_ACCESS_KEY")
	setEnvSecret(&cfg.S3.SecretKey, "CODESHAPE_S3_SECRET_KEY")
	setEnvBoolPtr(&cfg.S3.UseSSL, "CODESHAPE_S3_USE_SSL")
	setEnvString(&cfg.S3.Prefix, "CODESHAPE_S3_PREFIX")

	// Observability
	setEnvString(&cfg.Observability.MetricsAddr, "CODESHAPE_OBSERVABILITY_METRICS_ADDR")
	setEnvString(&cfg.Observability.OTLPEndpoint, "CODESHAPE_OBSERVABILITY_OTLP_ENDPOINT")
	setEnvBool(&cfg.Observability.OTLPInsecure, "CODESHAPE_OBSERVABILITY_OTLP_INSECURE")
	setEnvString(&cfg.Observability.ServiceName, "CODESHAPE_OBSERVABILITY_SERVICE_NAME")

	cfg.Output.Format = strings.ToLower(strings.TrimSpace(cfg.Output.Format))
}

func setEnvString(target *string, key string) {
	if val, ok := os.LookupEnv(key); ok {
		slog.Debug("applying env override", "key", key, "value", val)
		*target = val
	}
}

func setEnvSecret(target *string, key string) {
	if val, ok := os.LookupEnv(key); ok {
		slog.Debug("applying env override", "key", key)
		*target = val
	}
}

func setEnvList(target *[]string, key string) {
	val, ok := os.LookupEnv(key)
	if !ok {
		return
	}
	out := []string{}
	for _, part := range strings.Split(val, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	slog.Debug("applying env override", "key", key, "value", val)
	*target = out
}

func setEnvInt(target *int, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.Atoi(val); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = i
		}
	}
}

func setEnvInt64(target *int64, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if i, err := strconv.ParseInt(val, 10, 64); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = i
		}
	}
}

func setEnvBool(target *bool, key string) {
	if val, ok := os.LookupEnv(key); ok {
		b, err := strconv.ParseBool(strings.ToLower(val))
		if err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = b
		}
	}
}

func setEnvBoolPtr(target **bool, key string) {
	var b bool
	if val, ok := os.LookupEnv(key); ok {
		if parsed, err := strconv.ParseBool(strings.ToLower(val)); err == nil {
			b = parsed
			*target = &b
		}
	}
}

func setEnvFloat64(target *float64, key string) {
	if val, ok := os.LookupEnv(key); ok {
		if f, err := strconv.ParseFloat(val, 64); err == nil {
			slog.Debug("applying env override", "key", key, "value", val)
			*target = f
		}
	}
}
