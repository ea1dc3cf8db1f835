package util

import (
	"bytes"
	"context"
	"fmt"
	"io/ioutil"
	"os/exec"
	"path/filepath"
	"syscall"
	"time"

	"github.com/ghodss/yaml"

	"github.com/sidkik/reverso/pkg/config"
	"github.com/sidkik/reverso/pkg/errors"
)

// ErrNeverSynced is returned when the destination never reached the expected
// state.
var ErrNeverSynced = errors.New("never synced")

// TestHelper contains methods commonly used during integration tests.
type TestHelper struct {
	// Binary is the path to the reverso binary under test.
	Binary string

	// LogPath is the file that every reverso command started by the helper
	// logs to.
	LogPath string
}

// NewTestHelper creates a new TestHelper. Logs are written within `logDir`.
func NewTestHelper(binary, logDir string) *TestHelper {
	return &TestHelper{
		Binary:  binary,
		LogPath: filepath.Join(logDir, "reverso.log"),
	}
}

// Start starts the given reverso command. It returns a channel for obtaining
// any errors after starting the command, and any errors from starting the
// command. The command is stopped when `ctx` is cancelled.
func (helper *TestHelper) Start(ctx context.Context, args ...string) (chan error, error) {
	cmd := exec.Command(helper.Binary, helper.withLogFile(args)...)

	stderr := bytes.NewBuffer(nil)
	cmd.Stderr = stderr

	if err := cmd.Start(); err != nil {
		return nil, err
	}

	errChan := make(chan error)
	go func() {
		waitErr := make(chan error)
		go func() {
			waitErr <- cmd.Wait()
			close(waitErr)
		}()

		defer close(errChan)
		select {
		case <-ctx.Done():
			if err := cmd.Process.Signal(syscall.SIGTERM); err != nil {
				errChan <- errors.WithContext(err, "kill")
				return
			}
			<-waitErr
		case err := <-waitErr:
			errChan <- fmt.Errorf("crashed (%s): stderr: %s", err, stderr)
		}
	}()
	return errChan, nil
}

// Run runs the given reverso command, and returns its combined output.
func (helper *TestHelper) Run(ctx context.Context, args ...string) ([]byte, error) {
	return exec.CommandContext(ctx, helper.Binary, helper.withLogFile(args)...).CombinedOutput()
}

// Sync runs `reverso sync` once with the config at `configPath`.
func (helper *TestHelper) Sync(ctx context.Context, configPath string, args ...string) error {
	args = append([]string{"sync", "--config", configPath}, args...)
	output, err := helper.Run(ctx, args...)
	if err != nil {
		return fmt.Errorf("reverso sync failed (%s): %s", err, output)
	}
	return nil
}

// WaitUntilSynced blocks until `check` succeeds, or `ctx` expires.
func (helper *TestHelper) WaitUntilSynced(ctx context.Context, check func() error) error {
	var lastErr error
	isSynced := func() bool {
		lastErr = check()
		return lastErr == nil
	}
	if !TestWithRetry(ctx, nil, isSynced) {
		return errors.WithContext(ErrNeverSynced, lastErr.Error())
	}
	return nil
}

// WriteConfig writes `cfg` to `path` as YAML.
func WriteConfig(path string, cfg config.Config) error {
	yamlBytes, err := yaml.Marshal(cfg)
	if err != nil {
		return errors.WithContext(err, "marshal")
	}
	return ioutil.WriteFile(path, yamlBytes, 0644)
}

func (helper *TestHelper) withLogFile(args []string) []string {
	return append(args, "--log-file", helper.LogPath)
}

// TestWithRetry runs `test` with exponential backoff until it succeeds, or
// `ctx` is cancelled. `trigger` may be used to run the test immediately.
func TestWithRetry(ctx context.Context, trigger chan struct{}, test func() bool) bool {
	maxSleepTime := 5 * time.Second
	sleepTime := 100 * time.Millisecond
	for {
		select {
		case <-ctx.Done():
			return test()
		case <-time.After(sleepTime):
			sleepTime *= 2
			if sleepTime > maxSleepTime {
				sleepTime = maxSleepTime
			}
		case <-trigger:
		}

		if test() {
			return true
		}
	}
}
