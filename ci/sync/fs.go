package sync

import (
	"fmt"
	"io/ioutil"
	"math/rand"
	"os"
	"path/filepath"
	"strconv"

	"github.com/sidkik/reverso/ci/util"
	"github.com/sidkik/reverso/pkg/config"
	"github.com/sidkik/reverso/pkg/errors"
)

type file struct {
	path     string
	contents string
	mode     os.FileMode
}

func (f file) WithPath(path string) file {
	f.path = path
	return f
}

func (f file) WithContents(contents string) file {
	f.contents = contents
	return f
}

func (f file) WithMode(mode os.FileMode) file {
	f.mode = mode
	return f
}

func randomFile(path string) file {
	return file{
		path:     path,
		contents: strconv.Itoa(rand.Int()),
		mode:     os.FileMode(0640 | rand.Intn(8)),
	}
}

// mockFs contains helper methods for creating a temporary source and
// destination tree for testing.
type mockFs struct {
	root    string
	srcDir  string
	destDir string
}

type fsOp func(mockFs) error

func newMockFs() (mockFs, error) {
	root, err := ioutil.TempDir("", "reverso-sync-test")
	if err != nil {
		return mockFs{}, errors.WithContext(err, "make root dir")
	}

	srcDir := filepath.Join(root, "src")
	if err := os.Mkdir(srcDir, 0755); err != nil {
		return mockFs{}, errors.WithContext(err, "make source directory")
	}

	return mockFs{
		root:    root,
		srcDir:  srcDir,
		destDir: filepath.Join(root, "dest"),
	}, nil
}

func (fs mockFs) cleanup() error {
	return os.RemoveAll(fs.root)
}

func (fs mockFs) configPath() string {
	return filepath.Join(fs.root, "reverso.yaml")
}

// writeConfig writes a config with a single task mirroring the mock source
// into the mock destination.
func (fs mockFs) writeConfig(task config.TaskConfig) error {
	task.Source = fs.srcDir
	task.Destination = fs.destDir
	return util.WriteConfig(fs.configPath(), config.Config{
		Version: config.SupportedConfigVersion,
		Tasks:   []config.TaskConfig{task},
	})
}

func createFile(toCreate file) fsOp {
	return func(fs mockFs) error {
		path := filepath.Join(fs.srcDir, toCreate.path)

		parent := filepath.Dir(path)
		if err := os.MkdirAll(parent, 0755); err != nil {
			return errors.WithContext(err, "make parent")
		}

		if err := ioutil.WriteFile(path, []byte(toCreate.contents), toCreate.mode); err != nil {
			return errors.WithContext(err, "write")
		}

		// WriteFile doesn't change the mode of existing files.
		if err := os.Chmod(path, toCreate.mode); err != nil {
			return errors.WithContext(err, "chmod")
		}
		return nil
	}
}

func removeFile(f string) fsOp {
	return func(fs mockFs) error {
		return os.Remove(filepath.Join(fs.srcDir, f))
	}
}

type destAssertion func(mockFs) error

func getDestFile(fs mockFs, path string) (file, bool, error) {
	fullPath := filepath.Join(fs.destDir, path)
	fi, err := os.Stat(fullPath)
	if err != nil {
		if os.IsNotExist(err) {
			return file{}, false, nil
		}
		return file{}, false, errors.WithContext(err, "stat")
	}

	contents, err := ioutil.ReadFile(fullPath)
	if err != nil {
		return file{}, false, errors.WithContext(err, "read")
	}

	return file{
		path:     path,
		contents: string(contents),
		mode:     fi.Mode(),
	}, true, nil
}

func shouldExist(exp file) destAssertion {
	return func(fs mockFs) error {
		actual, exists, err := getDestFile(fs, exp.path)
		if err != nil {
			return errors.WithContext(err, "get destination file")
		}

		if !exists {
			return fmt.Errorf("file %q does not exist", exp.path)
		}

		if actual != exp {
			return fmt.Errorf("Expected file %v, got %v", exp, actual)
		}
		return nil
	}
}

func shouldNotExist(path string) destAssertion {
	return func(fs mockFs) error {
		_, exists, err := getDestFile(fs, path)
		if err != nil {
			return errors.WithContext(err, "get destination file")
		}

		if exists {
			return fmt.Errorf("file %q exists", path)
		}
		return nil
	}
}

func checkAll(fs mockFs, assertions ...destAssertion) error {
	for _, assertion := range assertions {
		if err := assertion(fs); err != nil {
			return err
		}
	}
	return nil
}
