// camlab - live webcam filter lab
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"camlab/internal/config"
	"camlab/internal/filter"
)

const (
	AppName    = "camlab"
	AppID      = "io.camlab.preview"
	AppVersion = "0.3.0"
)

var (
	rootCmd = &cobra.Command{
		Use:           "camlab",
		Short:         "Run webcam frames through an image filter pipeline and preview them live",
		Version:       AppVersion,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return setup(cmd)
		},
	}

	previewCmd = &cobra.Command{
		Use:   "preview",
		Short: "Preview window with interactive filter controls",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runPreview()
		},
	}

	highguiCmd = &cobra.Command{
		Use:   "highgui",
		Short: "OpenCV window with the fixed average/blur/bilateral/canny/flip chain",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHighGUI("video capture", filter.HighGUI())
		},
	}

	basicCmd = &cobra.Command{
		Use:   "basic",
		Short: "OpenCV window showing the camera shrunk to 30%",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHighGUI("lab 00", filter.Basic())
		},
	}

	configCmd = &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			data, err := cfg.Marshal(outputFormat)
			if err != nil {
				return err
			}
			_, err = cmd.OutOrStdout().Write(data)
			return err
		},
	}

	configPath   string
	debugMode    bool
	deviceIndex  int
	synthetic    bool
	channelKind  string
	onStreamEnd  string
	presetName   string
	watchConfig  bool
	outputFormat string

	cfg      *config.Config
	logger   *logrus.Logger
	exitCode int
)

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "configuration file (.toml, .yaml or .yml)")
	rootCmd.PersistentFlags().BoolVar(&debugMode, "debug", false, "enable debug mode with verbose logging")
	rootCmd.PersistentFlags().IntVarP(&deviceIndex, "device", "d", 0, "camera index")
	rootCmd.PersistentFlags().BoolVar(&synthetic, "synthetic", false, "use a generated test pattern instead of a camera")
	rootCmd.PersistentFlags().StringVar(&channelKind, "channel", "queue", "frame channel between capture and display: queue or latest")
	rootCmd.PersistentFlags().StringVar(&onStreamEnd, "on-end", "hold", "what to do when the stream ends: hold or exit")

	previewCmd.Flags().StringVarP(&presetName, "preset", "p", "", "filter preset: "+strings.Join(filter.PresetNames(), ", "))
	previewCmd.Flags().BoolVarP(&watchConfig, "watch", "w", true, "reload the filter section when the config file changes")

	configCmd.Flags().StringVarP(&outputFormat, "format", "f", "toml", "output format: toml or yaml")

	rootCmd.AddCommand(previewCmd, highguiCmd, basicCmd, configCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		if logger != nil {
			logger.WithError(err).Error("camlab failed")
		} else {
			fmt.Fprintln(os.Stderr, "camlab:", err)
		}
		os.Exit(1)
	}
	os.Exit(exitCode)
}

// setup loads the configuration, applies command line overrides and
// creates the logger
func setup(cmd *cobra.Command) error {
	loaded, err := config.Load(configPath)
	if err != nil {
		return err
	}
	cfg = loaded

	flags := cmd.Flags()
	if flags.Changed("device") {
		cfg.Camera.Device = deviceIndex
	}
	if flags.Changed("synthetic") {
		cfg.Camera.Synthetic = synthetic
	}
	if flags.Changed("channel") {
		cfg.Stream.Kind = channelKind
	}
	if flags.Changed("on-end") {
		cfg.Display.OnStreamEnd = onStreamEnd
	}
	if flags.Changed("preset") {
		settings, err := filter.Preset(presetName)
		if err != nil {
			return err
		}
		cfg.Filter.Preset = presetName
		cfg.Filter.Settings = settings
	}
	if debugMode {
		cfg.Log.Level = "debug"
	}

	if problems := cfg.Validate(); len(problems) > 0 {
		return fmt.Errorf("invalid configuration: %s", strings.Join(problems, "; "))
	}

	logger = initLogger(debugMode, cfg.Log)
	logger.WithFields(logrus.Fields{
		"version":    AppVersion,
		"command":    cmd.Name(),
		"config":     configPath,
		"debug_mode": debugMode,
	}).Debug("Starting camlab")

	return nil
}

// initLogger initializes the logger with appropriate level
func initLogger(debugMode bool, lc config.LogConfig) *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(os.Stdout)

	if debugMode {
		logger.SetLevel(logrus.DebugLevel)
		logger.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
			ForceColors:   true,
		})
		logger.Debug("Debug logging enabled")
		return logger
	}

	level, err := logrus.ParseLevel(lc.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	logger.SetLevel(level)

	if strings.EqualFold(lc.Format, "text") {
		logger.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	} else {
		logger.SetFormatter(&logrus.JSONFormatter{
			TimestampFormat: "2006-01-02 15:04:05",
		})
	}
	if err != nil {
		logger.WithField("level", lc.Level).Warn("Unknown log level, using info")
	}

	return logger
}
