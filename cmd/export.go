package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/term"

	"srcdump/pkg/config"
	"srcdump/pkg/export"
	"srcdump/pkg/ignore"
	"srcdump/pkg/logging"
	"srcdump/pkg/metrics"
	"srcdump/pkg/version"
)

// exportFlags holds the raw flag values. Only flags the user set override the
// loaded config.
type exportFlags struct {
	outputDir   string
	extensions  string
	exclude     []string
	configPath  string
	metricsFile string
	debug       bool
}

func newExportCmd(logger *zap.Logger) *cobra.Command {
	f := &exportFlags{}

	exportCmd := &cobra.Command{
		Use:   "export <root>",
		Short: "Write the tree and sources of <root> to src.txt",
		Long: `Export walks <root>, renders its directory tree and writes the content of
every file matching the extension filter to <output-dir>/src.txt.

Dockerfiles and docker-compose files are always included. Build, VCS and
dependency directories such as .git and node_modules are skipped. Settings are
read from <root>/.srcdump.toml and SRCDUMP_* environment variables; flags win.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExport(cmd, args[0], f, logger)
		},
	}

	flags := exportCmd.Flags()
	flags.StringVarP(&f.outputDir, "output-dir", "o", "", "Directory receiving src.txt (default: current directory)")
	flags.StringVarP(&f.extensions, "ext", "e", config.DefaultExtensions, "Comma separated extensions to export; empty exports every file")
	flags.StringArrayVar(&f.exclude, "exclude", nil, "Extra gitignore-style pattern to skip (repeatable)")
	flags.StringVar(&f.configPath, "config", "", "Config file (default: <root>/"+config.FileName+")")
	flags.StringVar(&f.metricsFile, "metrics-file", "", "Write Prometheus metrics to this file after the run")
	flags.BoolVar(&f.debug, "debug", false, "Enable debug logging")
	return exportCmd
}

func runExport(cmd *cobra.Command, root string, f *exportFlags, logger *zap.Logger) error {
	cfg, err := config.Load(root, f.configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	flags := cmd.Flags()
	if flags.Changed("ext") {
		cfg.SetExtensionsCSV(f.extensions)
	}
	if flags.Changed("output-dir") {
		cfg.OutputDir = f.outputDir
	}
	if flags.Changed("metrics-file") {
		cfg.MetricsFile = f.metricsFile
	}
	if flags.Changed("debug") {
		cfg.Debug = f.debug
	}

	if cfg.Debug {
		debugLogger, err := logging.New(true, AppName, version.Get().Version)
		if err != nil {
			return fmt.Errorf("failed to initialize debug logger: %w", err)
		}
		defer debugLogger.Sync()
		logger = debugLogger
	}
	if cfg.Source != "" {
		logger.Debug("Loaded config", zap.String("file", cfg.Source))
	}

	patterns := append(append([]string{}, cfg.Exclude...), f.exclude...)
	exclude, err := ignore.LoadRoot(root, patterns, logging.Named(logger, "ignore"))
	if err != nil {
		return fmt.Errorf("failed to load exclusion patterns: %w", err)
	}

	req := export.Request{
		RootDirectory: root,
		OutputPath:    cfg.OutputPath(),
		Extensions:    cfg.ExtensionSet(),
		Exclude:       exclude,
	}

	rec := metrics.NewRecorder()
	opts := []export.Option{
		export.WithLogger(logging.Named(logger, "export")),
		export.WithMaxLines(cfg.MaxLines),
		export.WithMetrics(rec),
	}
	if term.IsTerminal(int(os.Stderr.Fd())) {
		stderr := cmd.ErrOrStderr()
		opts = append(opts, export.WithProgress(func(status string) {
			fmt.Fprintln(stderr, status)
		}))
	}

	runErr := export.NewEngine(opts...).Run(req)

	if cfg.MetricsFile != "" {
		if err := rec.WriteTextfile(cfg.MetricsFile); err != nil {
			logger.Warn("Failed to write metrics file", zap.String("file", cfg.MetricsFile), zap.Error(err))
		}
	}

	status := export.Status(req.OutputPath, runErr)
	if runErr != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), status)
		return runErr
	}
	fmt.Fprintln(cmd.OutOrStdout(), status)
	return nil
}
