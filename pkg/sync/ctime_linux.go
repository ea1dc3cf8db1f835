package sync

import (
	"os"
	"time"

	"github.com/spf13/afero"
	"golang.org/x/sys/unix"
)

func platformBirthTime(filesystem afero.Fs, path string, _ os.FileInfo) (time.Time, bool, error) {
	if _, ok := filesystem.(*afero.OsFs); !ok {
		return time.Time{}, false, nil
	}

	var stx unix.Statx_t
	err := unix.Statx(unix.AT_FDCWD, path, 0, unix.STATX_BTIME, &stx)
	if err == unix.ENOSYS {
		// Kernels before 4.11 don't support statx.
		return time.Time{}, false, nil
	}
	if err != nil {
		return time.Time{}, false, err
	}

	if stx.Mask&unix.STATX_BTIME == 0 {
		return time.Time{}, false, nil
	}
	return time.Unix(stx.Btime.Sec, int64(stx.Btime.Nsec)), true, nil
}
