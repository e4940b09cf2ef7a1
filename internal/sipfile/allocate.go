package sipfile

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"sipbuilder/internal/services"
)

// allocLockName is the advisory lock file guarding output allocation across
// processes sharing one output root.
const allocLockName = ".allocate.lock"

// AllocateOutputDir creates a fresh uniquely named SIP directory under root
// and returns its path. Allocation is serialized through a file lock so
// concurrent builders never claim the same directory; name collisions are
// retried up to retries times.
func AllocateOutputDir(root string, retries int) (string, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return "", services.Wrap(services.ErrTransient, "assemble", "allocate output",
			fmt.Sprintf("creating output root %s", root), err)
	}

	lock := flock.New(filepath.Join(root, allocLockName))
	if err := lock.Lock(); err != nil {
		return "", services.Wrap(services.ErrTransient, "assemble", "allocate output",
			"acquiring allocation lock", err)
	}
	defer func() { _ = lock.Unlock() }()

	if retries < 1 {
		retries = 1
	}
	for attempt := 0; attempt < retries; attempt++ {
		dir := filepath.Join(root, uuid.NewString())
		err := os.Mkdir(dir, 0o755)
		if err == nil {
			return dir, nil
		}
		if !os.IsExist(err) {
			return "", services.Wrap(services.ErrTransient, "assemble", "allocate output",
				fmt.Sprintf("creating %s", dir), err)
		}
	}
	return "", services.Wrap(services.ErrTransient, "assemble", "allocate output",
		fmt.Sprintf("no free output directory after %d attempts", retries), nil)
}
