package sync

import (
	"os"
	"syscall"
	"time"

	"github.com/spf13/afero"
)

func platformBirthTime(_ afero.Fs, _ string, fi os.FileInfo) (time.Time, bool, error) {
	stat, ok := fi.Sys().(*syscall.Stat_t)
	if !ok {
		return time.Time{}, false, nil
	}
	return time.Unix(stat.Birthtimespec.Sec, stat.Birthtimespec.Nsec), true, nil
}
