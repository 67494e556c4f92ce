//go:build !windows

package ops

import (
	stderrors "errors"
	"os"
	"syscall"

	"github.com/hpungsan/botan/internal/errors"
)

// openNoFollow opens path with O_NOFOLLOW|O_CLOEXEC, so a symlink planted at
// the final component of a report, catalog or converted document is refused
// by the kernel. Parent directories are trusted; ValidatePath rejects "..".
func openNoFollow(path string, flag int, perm os.FileMode) (*os.File, error) {
	fd, err := syscall.Open(path, flag|syscall.O_NOFOLLOW|syscall.O_CLOEXEC, uint32(perm))
	switch {
	case err == nil:
		return os.NewFile(uintptr(fd), path), nil
	case stderrors.Is(err, syscall.ELOOP):
		return nil, errors.NewInvalidRequest("path must not be a symlink: " + path)
	case flag&(os.O_WRONLY|os.O_RDWR) == 0 && stderrors.Is(err, syscall.ENOENT):
		return nil, errors.NewFileNotFound(path)
	default:
		return nil, err
	}
}
