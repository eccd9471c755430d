package cli

import "flag"

const versionString = "1.0.0"
const defaultConfigPath = "./codeshape.toml"

type cliOptions struct {
	configPath  string
	envFile     string
	reposDir    string
	prefix      string
	outDir      string
	format      string
	workers     int
	maxFileSize string
	history     bool
	fromHistory bool
	project     string
	metricsAddr string
	topN        int
	trends      string
	inject      string
	dryRun      bool
	marker      string
	verbose     bool
	version     bool
	args        []string
}

func parseOptions(args []string) (cliOptions, error) {
	var opts cliOptions
	fs := flag.NewFlagSet("codeshape", flag.ContinueOnError)

	fs.StringVar(&opts.configPath, "config", defaultConfigPath, "Path to config file")
	fs.StringVar(&opts.envFile, "env-file", ".env", "Load environment variables from this file if it exists")
	fs.StringVar(&opts.reposDir, "repos", "", "Directory whose subdirectories are snapshots (overrides snapshots.repos_dir)")
	fs.StringVar(&opts.prefix, "prefix", "", "Only analyze snapshot directories with this name prefix, e.g. flask_")
	fs.StringVar(&opts.outDir, "out", "", "Artifact output directory (overrides output.dir)")
	fs.StringVar(&opts.format, "format", "", "Artifact format: json or yaml")
	fs.IntVar(&opts.workers, "workers", 0, "Parallel extraction workers per snapshot")
	fs.StringVar(&opts.maxFileSize, "max-file-size", "", "Skip source files larger than this, e.g. 2MiB")
	fs.BoolVar(&opts.history, "history", false, "Save snapshot summaries to the history database")
	fs.BoolVar(&opts.fromHistory, "from-history", false, "Compare saved summaries instead of analyzing trees (implies --history)")
	fs.StringVar(&opts.project, "project", "", "History project key")
	fs.StringVar(&opts.metricsAddr, "metrics-addr", "", "Serve Prometheus metrics on this address while running")
	fs.IntVar(&opts.topN, "top", 0, "Number of most common names to report")
	fs.StringVar(&opts.trends, "trends", "", "Also print the evolution trend as tsv or markdown")
	fs.StringVar(&opts.inject, "inject", "", "Markdown file whose codeshape marker section receives the evolution trend")
	fs.StringVar(&opts.marker, "marker", "evolution", "Marker name used with --inject")
	fs.BoolVar(&opts.dryRun, "dry-run", false, "Analyze and report without writing artifacts")
	fs.BoolVar(&opts.verbose, "verbose", false, "Enable verbose logging")
	fs.BoolVar(&opts.version, "version", false, "Print version and exit")

	if err := fs.Parse(args); err != nil {
		return cliOptions{}, err
	}

	opts.args = fs.Args()
	return opts, nil
}
