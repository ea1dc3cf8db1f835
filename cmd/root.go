package cmd

import (
	"io"
	"os"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gopkg.in/natefinch/lumberjack.v2"

	syncCmd "github.com/sidkik/reverso/cmd/sync"
	"github.com/sidkik/reverso/cmd/util"
	"github.com/sidkik/reverso/cmd/version"
)

// verboseLogKey is the environment variable used to enable verbose logging.
// When it's set to `true`, Debug events are logged, rather than just Info and
// above.
const verboseLogKey = "REVERSO_LOG_VERBOSE"

// Log files are rotated once they reach this size, in megabytes.
const maxLogFileSize = 10

// Execute runs the main CLI process.
func Execute() {
	if os.Getenv(verboseLogKey) == "true" {
		log.SetLevel(log.DebugLevel)
	}

	var verbose bool
	var logFile string
	rootCmd := &cobra.Command{
		Use:          "reverso",
		Short:        "Mirror directories one way",
		SilenceUsage: true,

		// The call to rootCmd.Execute prints the error, so we silence errors
		// here to avoid double printing.
		SilenceErrors: true,
		PersistentPreRun: func(_ *cobra.Command, _ []string) {
			setupLogging(verbose, logFile)
		},
	}
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"Log debug messages")
	rootCmd.PersistentFlags().StringVar(&logFile, "log-file", "",
		"Also write logs to this file. The file is rotated as it grows.")
	rootCmd.AddCommand(
		syncCmd.New(),
		version.New(),
	)

	if err := rootCmd.Execute(); err != nil {
		util.HandleFatalError(err)
	}
}

func setupLogging(verbose bool, logFile string) {
	if verbose {
		log.SetLevel(log.DebugLevel)
	}

	if logFile == "" {
		return
	}

	log.SetOutput(io.MultiWriter(os.Stderr, &lumberjack.Logger{
		Filename:   logFile,
		MaxSize:    maxLogFileSize,
		MaxBackups: 3,
	}))
}
