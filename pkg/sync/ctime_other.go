//go:build !linux && !darwin && !windows

package sync

import (
	"os"
	"time"

	"github.com/spf13/afero"
)

func platformBirthTime(_ afero.Fs, _ string, _ os.FileInfo) (time.Time, bool, error) {
	return time.Time{}, false, nil
}
