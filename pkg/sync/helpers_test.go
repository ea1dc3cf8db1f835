package sync

import (
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

// setupFs replaces the filesystem with an in-memory one containing `files`,
// keyed by absolute path.
func setupFs(t *testing.T, files map[string]string, dirs ...string) {
	fs = afero.NewMemMapFs()
	for _, dir := range dirs {
		require.NoError(t, fs.MkdirAll(dir, 0755))
	}
	for path, contents := range files {
		require.NoError(t, fs.MkdirAll(filepath.Dir(path), 0755))
		require.NoError(t, afero.WriteFile(fs, path, []byte(contents), 0644))
	}
}

func readFile(t *testing.T, path string) string {
	contents, err := afero.ReadFile(fs, path)
	require.NoError(t, err)
	return string(contents)
}

type recordingReporter struct {
	plans    []Plan
	outcomes []Outcome
}

func (r *recordingReporter) Plan(_ Task, plan Plan) {
	r.plans = append(r.plans, plan)
}

func (r *recordingReporter) Outcome(_ Task, outcome Outcome) {
	r.outcomes = append(r.outcomes, outcome)
}
