package sync

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sidkik/reverso/ci/util"
	"github.com/sidkik/reverso/pkg/config"
)

func Test(t *testing.T, helper *util.TestHelper) {
	t.Run("FileChange", func(t *testing.T) {
		testFileChange(t, helper)
	})
	t.Run("Filters", func(t *testing.T) {
		testFilters(t, helper)
	})
	t.Run("Watch", func(t *testing.T) {
		testWatch(t, helper)
	})
}

func testFileChange(t *testing.T, helper *util.TestHelper) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	refFile := randomFile("docs/test-file")
	changedContents := refFile.WithContents("changed contents")
	changedFileMode := refFile.WithMode(os.FileMode(0600))

	tests := []struct {
		name   string
		change fsOp
		check  destAssertion
	}{
		{
			name:   "ChangeContents",
			change: createFile(changedContents),
			check:  shouldExist(changedContents),
		},
		{
			name:   "ChangeMode",
			change: createFile(changedFileMode),
			check:  shouldExist(changedFileMode),
		},
		{
			name:   "RemoveFile",
			change: removeFile(refFile.path),
			check:  shouldNotExist(refFile.path),
		},
	}

	fs, err := newMockFs()
	require.NoError(t, err)
	defer fs.cleanup()

	// Mode changes alone aren't detected by comparing contents.
	require.NoError(t, fs.writeConfig(config.TaskConfig{
		Name:    "file-change",
		Include: []string{"*"},
		Compare: "always",
	}))

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			require.NoError(t, createFile(refFile)(fs))
			require.NoError(t, helper.Sync(ctx, fs.configPath()))
			require.NoError(t, shouldExist(refFile)(fs))

			require.NoError(t, test.change(fs))
			require.NoError(t, helper.Sync(ctx, fs.configPath()))
			assert.NoError(t, test.check(fs))
		})
	}
}

func testFilters(t *testing.T, helper *util.TestHelper) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	fs, err := newMockFs()
	require.NoError(t, err)
	defer fs.cleanup()

	readme := randomFile("readme.md")
	gitConfig := randomFile(".git/config")
	gitObject := randomFile(".git/objects/ab")
	oldExport := randomFile("exports/a-old.zip")
	newExport := randomFile("exports/b-new.zip")
	buildOutput := randomFile("build/out.bin")
	debugLog := randomFile("debug.log")
	importantLog := randomFile("important.log")
	for _, f := range []file{readme, gitConfig, gitObject, oldExport, buildOutput,
		debugLog, importantLog} {
		require.NoError(t, createFile(f)(fs))
	}

	// Make sure the exports have different creation times.
	time.Sleep(50 * time.Millisecond)
	require.NoError(t, createFile(newExport)(fs))

	require.NoError(t, fs.writeConfig(config.TaskConfig{
		Name:       "filters",
		Include:    []string{"*"},
		Exclude:    []string{"build", "*.log"},
		Require:    []string{"important.log"},
		OnlyNewest: []string{"exports/*"},
	}))
	require.NoError(t, helper.Sync(ctx, fs.configPath()))

	assert.NoError(t, checkAll(fs,
		shouldExist(readme),
		shouldExist(gitConfig),
		shouldExist(gitObject),
		shouldExist(newExport),
		shouldNotExist(oldExport.path),
		shouldNotExist(buildOutput.path),
		shouldNotExist(debugLog.path),
		shouldExist(importantLog),
	))

	dryRunFile := randomFile("dry-run")
	require.NoError(t, createFile(dryRunFile)(fs))
	require.NoError(t, helper.Sync(ctx, fs.configPath(), "--dry-run"))
	assert.NoError(t, shouldNotExist(dryRunFile.path)(fs))
}

func testWatch(t *testing.T, helper *util.TestHelper) {
	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	fs, err := newMockFs()
	require.NoError(t, err)
	defer fs.cleanup()

	initial := randomFile("initial")
	require.NoError(t, createFile(initial)(fs))
	require.NoError(t, fs.writeConfig(config.TaskConfig{
		Name:    "watch",
		Include: []string{"*"},
	}))

	watchCtx, cancelWatch := context.WithCancel(ctx)
	waitErr, err := helper.Start(watchCtx, "sync", "--watch", "--config", fs.configPath())
	require.NoError(t, err, "start reverso sync --watch")
	defer func() {
		cancelWatch()
		for err := range waitErr {
			assert.NoError(t, err, "run reverso sync --watch")
		}
	}()

	require.NoError(t, helper.WaitUntilSynced(ctx, func() error {
		return shouldExist(initial)(fs)
	}))

	added := randomFile("nested/added")
	require.NoError(t, createFile(added)(fs))
	require.NoError(t, helper.WaitUntilSynced(ctx, func() error {
		return shouldExist(added)(fs)
	}))

	require.NoError(t, removeFile(initial.path)(fs))
	require.NoError(t, helper.WaitUntilSynced(ctx, func() error {
		return shouldNotExist(initial.path)(fs)
	}))
}
