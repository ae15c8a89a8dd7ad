package fsutil

import (
	"os"
	"path/filepath"

	"github.com/pkg/errors"
)

// TempBase returns the first writable directory among the system temp dir,
// the user cache dir and ~/.skills-sync/tmp.
func TempBase() (string, error) {
	candidates := []string{os.TempDir()}
	if cacheDir, err := os.UserCacheDir(); err == nil && cacheDir != "" {
		candidates = append(candidates, filepath.Join(cacheDir, appDir, "tmp"))
	}
	if home, err := os.UserHomeDir(); err == nil && home != "" {
		candidates = append(candidates, filepath.Join(home, "."+appDir, "tmp"))
	}
	return firstWritable(candidates)
}

func firstWritable(candidates []string) (string, error) {
	for _, base := range candidates {
		if base == "" {
			continue
		}
		if err := os.MkdirAll(base, 0o755); err != nil {
			continue
		}
		check, err := os.CreateTemp(base, ".skills-sync-check-*")
		if err != nil {
			continue
		}
		name := check.Name()
		_ = check.Close()
		_ = os.Remove(name)
		return base, nil
	}
	return "", errors.New("no writable temp directory found")
}

// TempArchivePath returns a fresh path for an outgoing archive. The file is
// created empty so the name stays reserved.
func TempArchivePath() (string, error) {
	base, err := TempBase()
	if err != nil {
		return "", err
	}
	f, err := os.CreateTemp(base, "skills-*.zip")
	if err != nil {
		return "", errors.Wrap(err, "cannot create temp archive")
	}
	name := f.Name()
	if err := f.Close(); err != nil {
		return "", errors.Wrap(err, "cannot create temp archive")
	}
	return name, nil
}
