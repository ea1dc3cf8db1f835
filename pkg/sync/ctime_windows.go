package sync

import (
	"os"
	"syscall"
	"time"

	"github.com/spf13/afero"
)

func platformBirthTime(_ afero.Fs, _ string, fi os.FileInfo) (time.Time, bool, error) {
	attrs, ok := fi.Sys().(*syscall.Win32FileAttributeData)
	if !ok {
		return time.Time{}, false, nil
	}
	return time.Unix(0, attrs.CreationTime.Nanoseconds()), true, nil
}
