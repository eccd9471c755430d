package config

import "strings"

const (
	FormatJSON = "json"
	FormatYAML = "yaml"
)

func applyDefaults(cfg *Config) {
	if cfg.Version == 0 {
		cfg.Version = 1
	}

	if cfg.Snapshots.ReposDir == "" {
		cfg.Snapshots.ReposDir = "data/raw/repos"
	}

	if len(cfg.Scan.Extensions) == 0 {
		cfg.Scan.Extensions = []string{".py"}
	}
	if cfg.Scan.ExcludeDirs == nil {
		cfg.Scan.ExcludeDirs = []string{".git", "__pycache__", ".venv", "venv", ".tox", "node_modules"}
	}
	if cfg.Scan.ExcludeFiles == nil {
		cfg.Scan.ExcludeFiles = []string{}
	}
	if cfg.Scan.Workers == 0 {
		cfg.Scan.Workers = 1
	}
	if cfg.Scan.CacheEntries == 0 {
		cfg.Scan.CacheEntries = 4096
	}

	if cfg.Extract.MethodNameLimit == 0 {
		cfg.Extract.MethodNameLimit = 5
	}
	if cfg.Summary.TopN == 0 {
		cfg.Summary.TopN = 20
	}

	if cfg.Versions.Separator == "" {
		cfg.Versions.Separator = "_"
	}
	if len(cfg.Versions.DegenerateKey) == 0 {
		cfg.Versions.DegenerateKey = []int{0, 0, 0}
	}

	if cfg.Evolution.FunctionGrowthThreshold == 0 {
		cfg.Evolution.FunctionGrowthThreshold = 50
	}
	if cfg.Evolution.ClassGrowthThreshold == 0 {
		cfg.Evolution.ClassGrowthThreshold = 10
	}

	if cfg.Output.Dir == "" {
		cfg.Output.Dir = "data/processed/static_analysis"
	}
	cfg.Output.Format = strings.ToLower(strings.TrimSpace(cfg.Output.Format))
	if cfg.Output.Format == "" {
		cfg.Output.Format = FormatJSON
	}

	if cfg.History.Path == "" {
		cfg.History.Path = "data/database/history.db"
	}
	if cfg.History.Project == "" {
		cfg.History.Project = "default"
	}

	if cfg.S3.Bucket == "" {
		cfg.S3.Bucket = "codeshape"
	}
	if cfg.S3.Region == "" {
		cfg.S3.Region = "us-east-1"
	}

	if cfg.Observability.ServiceName == "" {
		cfg.Observability.ServiceName = "codeshape"
	}
}
