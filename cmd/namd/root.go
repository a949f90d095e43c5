package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"namd/internal/config"
)

// options collects the persistent flags shared by every subcommand.
type options struct {
	configPath string
	logLevel   string
	logJSON    bool
	addr       string
	modelsDir  string

	cfg config.Config
	log zerolog.Logger
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	root := &cobra.Command{
		Use:           "namd",
		Short:         "Neural amp model host with a hot-swappable model slot",
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Persistent flags -> options; environment supplies the defaults.
	pf := root.PersistentFlags()
	pf.StringVar(&opts.configPath, "config", envStr("NAMD_CONFIG", ""), "Config file (.yaml, .yml, .json, .toml)")
	pf.StringVar(&opts.logLevel, "log-level", envStr("NAMD_LOG_LEVEL", ""), "Log level: debug|info|warn|error")
	pf.BoolVar(&opts.logJSON, "log-json", envBool("NAMD_LOG_JSON", false), "Emit JSON logs instead of console output")
	pf.StringVar(&opts.addr, "addr", envStr("NAMD_ADDR", ""), "HTTP listen address, e.g. :8080")
	pf.StringVar(&opts.modelsDir, "models-dir", envStr("NAMD_MODELS_DIR", ""), "Directory to scan for .nam model files")
	root.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return opts.load(cmd.ErrOrStderr())
	}

	root.AddCommand(
		newServeCmd(opts),
		newRenderCmd(opts),
		newConsoleCmd(opts),
		newModelsCmd(opts),
		newVersionCmd(),
	)
	return root
}

// load resolves the effective config: file first, then flags, then defaults.
func (o *options) load(stderr io.Writer) error {
	var cfg config.Config
	if o.configPath != "" {
		c, err := config.Load(o.configPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c
	}
	if o.addr != "" {
		cfg.Addr = o.addr
	}
	if o.modelsDir != "" {
		cfg.ModelsDir = o.modelsDir
	}
	if o.logLevel != "" {
		cfg.LogLevel = o.logLevel
	}
	if origins := splitCSV(os.Getenv("NAMD_CORS_ORIGINS")); len(origins) > 0 {
		cfg.CORSOrigins = origins
	}
	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return err
	}
	o.cfg = cfg
	o.log = newLogger(stderr, cfg.LogLevel, o.logJSON)
	return nil
}

func newLogger(w io.Writer, level string, json bool) zerolog.Logger {
	level = strings.ToLower(level)
	if level == "off" {
		level = "disabled"
	}
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || lvl == zerolog.NoLevel {
		lvl = zerolog.InfoLevel
	}
	if !json {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.RFC3339}
	}
	return zerolog.New(w).Level(lvl).With().Timestamp().Logger()
}
