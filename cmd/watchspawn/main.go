package main

import (
	"bufio"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spiretechnology/go-watchspawn"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	configPath   string
	verbose      bool
	poll         bool
	pollInterval time.Duration
	stability    time.Duration
	noInput      bool

	folder    string
	app       string
	allFiles  bool
	extension string

	logger *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "watchspawn",
	Short: "Start an application for every new file in a folder",
	Long: `watchspawn monitors a folder and, for each file created in it, starts the
configured application with the new file's path as its only argument.

Settings are read from the AppSettings section of a JSON (or YAML) file:

  {
    "AppSettings": {
      "FolderPathToMonitor": "/data/incoming",
      "ApplicationPathToInvoke": "/usr/local/bin/process",
      "MonitorAllFiles": "0",
      "MonitorFileExtension": ".csv"
    }
  }

Press Enter, or send SIGINT/SIGTERM, to stop.`,
	Args:          cobra.NoArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		encoderConfig := zap.NewProductionEncoderConfig()
		encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
		level := zap.NewAtomicLevelAt(zapcore.InfoLevel)
		if verbose {
			level.SetLevel(zapcore.DebugLevel)
		}
		logger = zap.New(zapcore.NewCore(
			zapcore.NewConsoleEncoder(encoderConfig),
			zapcore.Lock(zapcore.AddSync(cmd.OutOrStdout())),
			level,
		))
	},
	RunE: run,
}

func init() {
	flags := rootCmd.Flags()
	flags.StringVarP(&configPath, "config", "c", watchspawn.DefaultSettingsFile, "settings file")
	flags.BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	flags.BoolVar(&poll, "poll", false, "detect new files by polling instead of file notifications")
	flags.DurationVar(&pollInterval, "poll-interval", watchspawn.DefaultPollInterval, "time between two polls")
	flags.DurationVar(&stability, "stability", time.Second, "time a polled file must stay unmodified before it is reported")
	flags.BoolVar(&noInput, "no-input", false, "ignore standard input and stop on signals only")

	flags.StringVar(&folder, "folder", "", "override FolderPathToMonitor")
	flags.StringVar(&app, "app", "", "override ApplicationPathToInvoke")
	flags.BoolVar(&allFiles, "all", false, "override MonitorAllFiles")
	flags.StringVar(&extension, "ext", "", "override MonitorFileExtension")
}

func run(cmd *cobra.Command, args []string) error {
	settings, err := watchspawn.LoadSettings(configPath)
	if err != nil {
		return err
	}
	applyOverrides(cmd, settings)

	if err := settings.ValidateFolder(); err != nil {
		return err
	}
	if err := settings.ValidateApplication(); err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	monitor := &watchspawn.Monitor{
		Settings: settings,
		Spawner:  watchspawn.NewExecSpawner(settings.ApplicationPathToInvoke, logger.Named("spawner")),
		Logger:   logger.Named("monitor"),
		OnStarted: func(dir string) {
			if noInput {
				return
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Press [Enter] to exit.")

			// Any line, or the end of input, stops monitoring
			go func() {
				_, _ = bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				cancel()
			}()
		},
	}
	if poll {
		monitor.NewWatcher = watchspawn.NewPollWatcher
		monitor.Options = []watchspawn.Option{
			watchspawn.WithPollInterval(pollInterval),
			watchspawn.WithWriteStabilityThreshold(stability),
			watchspawn.WithMaxDepth(1),
			watchspawn.WithIgnoreExisting(),
		}
	}
	return monitor.Run(ctx)
}

func applyOverrides(cmd *cobra.Command, settings *watchspawn.Settings) {
	flags := cmd.Flags()
	if flags.Changed("folder") {
		settings.FolderPathToMonitor = folder
	}
	if flags.Changed("app") {
		settings.ApplicationPathToInvoke = app
	}
	if flags.Changed("all") {
		settings.MonitorAllFiles = watchspawn.Flag(allFiles)
	}
	if flags.Changed("ext") {
		settings.MonitorFileExtension = extension
	}
}

// execute runs the root command and returns the process exit status.
func execute() int {
	err := rootCmd.Execute()

	// Flush on every exit path, including failed runs
	if logger != nil {
		_ = logger.Sync()
	}
	if err != nil {
		fmt.Fprintf(rootCmd.ErrOrStderr(), "Error: %v\n", err)
		return 1
	}
	return 0
}

func main() {
	os.Exit(execute())
}
