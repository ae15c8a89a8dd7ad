// Package scan discovers skill directories: any directory below a scan root
// that directly contains the marker file (SKILL.md).
package scan

import (
	"io/fs"
	"os"
	"path/filepath"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/kamusis/skills-sync/internal/config"
	"github.com/kamusis/skills-sync/internal/logger"
	"github.com/kamusis/skills-sync/internal/syncerr"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// Scanner walks scan roots looking for skill directories.
type Scanner struct {
	marker   string
	excludes []string
	onSkip   func(root config.ScanRoot, err error)
	log      *logrus.Entry
}

// Option configures a Scanner.
type Option func(*Scanner)

// WithMarker overrides the marker filename (default SKILL.md).
func WithMarker(name string) Option {
	return func(s *Scanner) {
		s.marker = name
	}
}

// WithExcludes sets doublestar patterns for directories that are never descended.
// A pattern matches either the directory name or its root-relative path.
func WithExcludes(patterns ...string) Option {
	return func(s *Scanner) {
		s.excludes = patterns
	}
}

// WithSkipObserver is called for every root that is missing or unreadable.
func WithSkipObserver(fn func(root config.ScanRoot, err error)) Option {
	return func(s *Scanner) {
		s.onSkip = fn
	}
}

// WithLogger sets the logger used for walk diagnostics.
func WithLogger(l *logrus.Entry) Option {
	return func(s *Scanner) {
		s.log = l
	}
}

// New creates a Scanner.
func New(opts ...Option) *Scanner {
	s := &Scanner{
		marker: config.MarkerFile,
		log:    logger.L,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Scan returns every skill found under roots, per root in traversal order.
// Missing or unreadable roots are skipped; when no root at all can be read
// Scan fails with an IO error. A directory classified as a skill is not
// descended, and a root is never a skill itself.
func (s *Scanner) Scan(roots []config.ScanRoot) ([]SkillEntry, error) {
	var out []SkillEntry
	var lastErr error
	read := 0
	for _, root := range roots {
		info, err := os.Stat(root.Path)
		if err == nil && !info.IsDir() {
			err = errors.Errorf("%s is not a directory", root.Path)
		}
		if err != nil {
			s.skip(root, err)
			lastErr = err
			continue
		}
		found, err := s.scanRoot(root)
		if err != nil {
			s.skip(root, err)
			lastErr = err
			continue
		}
		read++
		out = append(out, found...)
	}
	if len(roots) > 0 && read == 0 {
		return nil, syncerr.IO("scan", "roots", errors.Wrapf(lastErr, "none of %d scan root(s) could be read", len(roots)))
	}
	return out, nil
}

// skip reports an unusable root. With an observer attached the log line
// drops to debug so the warning is shown once.
func (s *Scanner) skip(root config.ScanRoot, err error) {
	log := s.log.WithError(err).WithField("root", root.Path)
	if s.onSkip == nil {
		log.Warn("skipping scan root")
		return
	}
	log.Debug("skipping scan root")
	s.onSkip(root, err)
}

// scanRoot walks the root after resolving symlinks, so a root that is itself
// a link to a directory is scanned. Reported paths stay under root.Path.
func (s *Scanner) scanRoot(root config.ScanRoot) ([]SkillEntry, error) {
	walkRoot, err := filepath.EvalSymlinks(root.Path)
	if err != nil {
		return nil, errors.Wrapf(err, "cannot resolve %s", root.Path)
	}

	var out []SkillEntry
	walkFn := func(path string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			if path == walkRoot {
				return walkErr
			}
			s.log.WithError(walkErr).WithField("path", path).Warn("cannot read directory")
			if d != nil && d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if !d.IsDir() || path == walkRoot {
			return nil
		}

		rel, err := filepath.Rel(walkRoot, path)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if s.excluded(d.Name(), rel) {
			s.log.WithField("path", path).Debug("excluded")
			return filepath.SkipDir
		}

		if !s.hasMarker(path) {
			return nil
		}
		out = append(out, s.entry(root, filepath.Join(root.Path, filepath.FromSlash(rel)), rel))
		return filepath.SkipDir
	}

	if err := filepath.WalkDir(walkRoot, walkFn); err != nil {
		return nil, errors.Wrapf(err, "cannot scan %s", root.Path)
	}
	return out, nil
}

func (s *Scanner) excluded(name, rel string) bool {
	for _, p := range s.excludes {
		if ok, _ := doublestar.Match(p, name); ok {
			return true
		}
		if ok, _ := doublestar.Match(p, rel); ok {
			return true
		}
	}
	return false
}

// hasMarker compares directory entry names so the match stays case-sensitive
// on case-insensitive filesystems.
func (s *Scanner) hasMarker(dir string) bool {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return false
	}
	for _, e := range entries {
		if e.Name() == s.marker && !e.IsDir() {
			return true
		}
	}
	return false
}

func (s *Scanner) entry(root config.ScanRoot, dir, rel string) SkillEntry {
	markerPath := filepath.Join(dir, s.marker)
	name, desc := "", ""
	content, err := os.ReadFile(markerPath)
	if err != nil {
		s.log.WithError(err).WithField("path", markerPath).Debug("cannot read marker for description")
	} else {
		name, desc = parseMarker(content)
	}
	if name == "" {
		name = filepath.Base(dir)
	}
	s.log.WithField("skill", rel).WithField("root", root.Label).Debug("found skill")
	return SkillEntry{
		Name:        name,
		Description: desc,
		MarkerPath:  markerPath,
		RootLabel:   root.Label,
		RootPath:    root.Path,
		RelDir:      rel,
	}
}
