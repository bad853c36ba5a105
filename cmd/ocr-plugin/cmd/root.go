package cmd

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/ironsheep/ocr-plugin/internal/config"
	"github.com/ironsheep/ocr-plugin/internal/plugin"
)

// BuildInfo identifies the binary.
type BuildInfo struct {
	Version   string
	BuildTime string
	GitCommit string
}

// app holds the state shared by all commands of one root command.
type app struct {
	build   BuildInfo
	v       *viper.Viper
	cfgFile string
	cfg     *config.Config
	logger  *slog.Logger

	// factory overrides the OCR engine constructor; nil uses the real engine.
	factory plugin.EngineFactory
}

func newApp(build BuildInfo) *app {
	return &app{
		build:  build,
		v:      viper.New(),
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// NewRootCommand builds the ocr-plugin command tree.
func NewRootCommand(build BuildInfo) *cobra.Command {
	return newApp(build).rootCommand()
}

func (a *app) rootCommand() *cobra.Command {
	root := &cobra.Command{
		Use:   "ocr-plugin",
		Short: "Text region detection plugin for image editors",
		Long: `ocr-plugin finds text in images and reports each region's bounding box,
recognized text and confidence. It runs as an MCP server over stdio for a host
editor, or directly from the command line.

Examples:
  ocr-plugin serve
  ocr-plugin detect screenshot.png --overlay regions.png
  ocr-plugin check --languages en,ja
  ocr-plugin config show`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", a.build.Version, a.build.GitCommit, a.build.BuildTime),
		SilenceUsage:  true,
		SilenceErrors: false,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.init(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.StringVar(&a.cfgFile, "config", "", "config file (default is ocr-plugin.yaml in ., $XDG_CONFIG_HOME/ocr-plugin, /etc/ocr-plugin)")
	flags.BoolP("verbose", "v", false, "verbose output (equivalent to --log-level=debug)")
	flags.String("log-level", "info", "log level (debug, info, warn, error)")
	flags.String("device", "cpu", "inference device")
	flags.StringSlice("languages", nil, "comma-separated language codes (default ch_sim,en)")
	flags.String("tessdata-prefix", "", "directory containing *.traineddata files")
	flags.Int("psm", 0, "Tesseract page segmentation mode (0 keeps the engine default)")
	flags.String("level", "textline", "region granularity (block, textline, word)")
	flags.Bool("grayscale", false, "convert images to grayscale before recognition")

	bindings := map[string]string{
		"verbose":             "verbose",
		"log_level":           "log-level",
		"ocr.device":          "device",
		"ocr.languages":       "languages",
		"ocr.tessdata_prefix": "tessdata-prefix",
		"ocr.page_seg_mode":   "psm",
		"ocr.level":           "level",
		"ocr.grayscale":       "grayscale",
	}
	for key, flag := range bindings {
		_ = a.v.BindPFlag(key, flags.Lookup(flag))
	}

	root.AddCommand(
		a.serveCommand(),
		a.detectCommand(),
		a.checkCommand(),
		a.configCommand(),
	)
	return root
}

// init loads configuration and sets up logging. Logs go to stderr because
// stdout carries protocol messages and command output.
func (a *app) init(cmd *cobra.Command) error {
	cfg, err := config.NewLoaderWithViper(a.v).LoadWithFile(a.cfgFile)
	if err != nil {
		return fmt.Errorf("error loading configuration: %w", err)
	}
	a.cfg = cfg

	a.logger = slog.New(slog.NewJSONHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{
		Level: parseLogLevel(cfg.EffectiveLogLevel()),
	}))
	slog.SetDefault(a.logger)
	return nil
}

func parseLogLevel(s string) slog.Level {
	switch s {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// newPlugin constructs the OCR plugin from the loaded configuration.
func (a *app) newPlugin() (*plugin.OCRPlugin, error) {
	opts := []plugin.Option{plugin.WithLogger(a.logger)}
	if a.factory != nil {
		opts = append(opts, plugin.WithEngineFactory(a.factory))
	}
	return plugin.NewOCRPlugin(a.cfg.ToOCROptions(), opts...)
}
