package sync

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/buger/goterm"
	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/sidkik/reverso/cmd/util"
	"github.com/sidkik/reverso/pkg/config"
	"github.com/sidkik/reverso/pkg/errors"
	"github.com/sidkik/reverso/pkg/fswatch"
	"github.com/sidkik/reverso/pkg/sync"
)

// The interval to poll the filesystem for changes when the source trees can't
// be watched.
const pollSeconds = 15

// Mocked for unit testing.
var (
	stdout      io.Writer = os.Stdout
	stdin       io.Reader = os.Stdin
	isTerminal            = func() bool { return term.IsTerminal(int(os.Stdin.Fd())) }
	parseConfig           = config.ParseConfig
)

type options struct {
	configPath string
	dryRun     bool
	watch      bool
	keepGoing  bool
}

// New creates a new `sync` command.
func New() *cobra.Command {
	var opts options
	cmd := &cobra.Command{
		Use:   "sync",
		Short: "Mirror the configured source directories into their destinations",
		Long: "Mirror each task's source directory into its destination.\n" +
			"Files that are missing from the destination are added, changed " +
			"files are\noverwritten, and anything that isn't part of the " +
			"filtered source is removed.",
		Run: func(_ *cobra.Command, _ []string) {
			if err := run(opts); err != nil {
				util.HandleFatalError(err)
			}
		},
	}
	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "",
		"Path to the configuration file (required)")
	cmd.Flags().BoolVar(&opts.dryRun, "dry-run", false,
		"Print the changes that would be made without applying them")
	cmd.Flags().BoolVar(&opts.watch, "watch", false,
		"Keep running, and sync again whenever a source file changes")
	cmd.Flags().BoolVar(&opts.keepGoing, "keep-going", false,
		"Continue with the remaining tasks when a task fails, without prompting")
	if err := cmd.MarkFlagRequired("config"); err != nil {
		panic(err)
	}
	return cmd
}

func run(opts options) error {
	cfg, err := parseConfig(opts.configPath)
	if err != nil {
		return errors.WithContext(err, "parse config")
	}

	tasks, err := cfg.SyncTasks()
	if err != nil {
		return errors.NewFriendlyError("The configuration in %q is invalid:\n%s",
			cfg.GetPath(), err)
	}

	reporter := newReporter(opts.dryRun)
	err = runTasks(tasks, opts, reporter)
	if !opts.watch {
		return err
	}

	if err != nil {
		log.Error(errors.GetPrintableMessage(err))
	}
	return watchTasks(tasks, opts, reporter)
}

// runTasks runs each task in order. When a task fails, the user decides
// whether the remaining tasks should still run.
func runTasks(tasks []sync.Task, opts options, reporter sync.Reporter) error {
	var failed int
	for i, task := range tasks {
		log.WithField("task", task.Name).Infof("Syncing %s to %s", task.Source, task.Destination)

		err := task.Run(opts.dryRun, reporter)
		if err == nil {
			continue
		}

		failed++
		err = friendlyTaskError(task, err)
		log.WithField("task", task.Name).Error(errors.GetPrintableMessage(err))

		if i == len(tasks)-1 || opts.keepGoing {
			continue
		}

		shouldContinue, promptErr := promptContinue(task)
		if promptErr != nil {
			return errors.WithContext(promptErr, "prompt")
		}

		if !shouldContinue {
			return errors.WithContext(err, fmt.Sprintf("run task %q", task.Name))
		}
	}

	if failed > 0 {
		return errors.NewFriendlyError("%d of %d tasks failed. See the log above for details.",
			failed, len(tasks))
	}
	return nil
}

func friendlyTaskError(task sync.Task, err error) error {
	switch rootCause := errors.RootCause(err).(type) {
	case errors.FileNotFound:
		return errors.NewFriendlyError("The source of task %q (%s) doesn't exist.",
			task.Name, rootCause.Path)
	case errors.NotADirectory:
		return errors.NewFriendlyError("The source of task %q (%s) isn't a directory.",
			task.Name, rootCause.Path)
	}
	return err
}

// promptContinue asks the user whether to continue after `failed` failed. It
// returns false without prompting if stdin isn't interactive.
func promptContinue(failed sync.Task) (bool, error) {
	if !isTerminal() {
		log.Info("Not running interactively. Skipping the remaining tasks.")
		return false, nil
	}

	stdinReader := bufio.NewReader(stdin)
	for {
		fmt.Fprintf(stdout, "Task %q failed. Continue with the remaining tasks? [y/N]: ",
			failed.Name)
		resp, err := stdinReader.ReadString('\n')
		if err != nil {
			return false, err
		}

		switch strings.ToLower(strings.TrimSpace(resp)) {
		case "y", "yes":
			return true, nil
		case "", "n", "no":
			return false, nil
		}
	}
}

// watchTasks reruns the tasks whenever their source trees change. If the
// trees can't be watched, it falls back to polling.
func watchTasks(tasks []sync.Task, opts options, reporter sync.Reporter) error {
	var changes chan struct{}
	watcher, err := fswatch.Watch(tasks)
	if err != nil {
		rootCause := errors.RootCause(err)
		if !strings.Contains(rootCause.Error(), "too many open files") {
			return errors.WithContext(err, "watch files")
		}

		log.Warnf("Too many files for reverso to watch for changes. "+
			"reverso will poll for changes every %d seconds instead.", pollSeconds)
	} else {
		defer func() {
			if err := watcher.Close(); err != nil {
				log.WithError(err).Debug("Failed to close file watcher")
			}
		}()
		changes = watcher.Changes
	}

	log.Info("Watching for changes. Press Ctrl-C to stop.")
	ticker := time.NewTicker(pollSeconds * time.Second)
	defer ticker.Stop()
	for {
		select {
		case <-changes:
		case <-ticker.C:
		}

		// Watch mode never prompts, since it's meant to be left running.
		opts.keepGoing = true
		if err := runTasks(tasks, opts, reporter); err != nil {
			log.WithError(err).Error("Sync failed")
		}
	}
}

// reporter prints the plan and the progress of each task.
type reporter struct {
	dryRun bool
	out    io.Writer
}

func newReporter(dryRun bool) reporter {
	return reporter{dryRun: dryRun, out: stdout}
}

func (r reporter) Plan(task sync.Task, plan sync.Plan) {
	logger := log.WithField("task", task.Name)
	if plan.Empty() {
		logger.Info("Already in sync")
		return
	}

	if !r.dryRun {
		logger.Infof("Applying %d changes (%d to remove, %d to overwrite, %d to add)",
			len(plan.Remove)+len(plan.Overwrite)+len(plan.Add),
			len(plan.Remove), len(plan.Overwrite), len(plan.Add))
		return
	}

	fmt.Fprintf(r.out, "%s -> %s\n", task.Source, task.Destination)
	lists := []struct {
		marker string
		color  int
		paths  []string
	}{
		{"-", goterm.RED, plan.Remove},
		{"~", goterm.YELLOW, plan.Overwrite},
		{"+", goterm.GREEN, plan.Add},
	}
	for _, list := range lists {
		for _, path := range list.paths {
			fmt.Fprintf(r.out, "\t%s\n", goterm.Color(list.marker+" "+path, list.color))
		}
	}
}

func (r reporter) Outcome(task sync.Task, outcome sync.Outcome) {
	progress := fmt.Sprintf("== %d%% == | [%s] %s",
		outcome.Progress(), outcome.Op, outcome.Path)
	logger := log.WithField("task", task.Name)
	if outcome.Err == nil {
		logger.Info(progress)
		return
	}

	if _, ok := errors.RootCause(outcome.Err).(errors.DirectoryNotEmpty); ok {
		// Happens when the directory still holds entries that are being
		// kept, such as required files.
		logger.Infof("%s: directory isn't empty, leaving it in place", progress)
		return
	}
	logger.WithError(outcome.Err).Warnf("%s: failed", progress)
}
