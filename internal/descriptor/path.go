package descriptor

import (
	"errors"
	"fmt"
	"os"
)

// AvailablePath returns path when nothing exists there yet, otherwise the
// first of path-1, path-2, ... that is free. Probing is not atomic; callers
// that create the file should still use O_EXCL.
func AvailablePath(path string) (string, error) {
	candidate := path
	for n := 1; ; n++ {
		_, err := os.Stat(candidate)
		if errors.Is(err, os.ErrNotExist) {
			return candidate, nil
		}
		if err != nil {
			return "", fmt.Errorf("failed to probe %s: %w", candidate, err)
		}
		candidate = fmt.Sprintf("%s-%d", path, n)
	}
}
