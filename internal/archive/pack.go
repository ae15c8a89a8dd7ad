// Package archive packs discovered SKILL.md files into a zip archive and
// extracts such archives back under a target directory.
//
// Each marker is stored at <root label>/<skill dir>/SKILL.md so extraction
// recreates the same layout wherever the target root lives. A manifest.txt
// entry records where each file came from; extraction skips it.
package archive

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/kamusis/skills-sync/internal/logger"
	"github.com/kamusis/skills-sync/internal/scan"
	"github.com/kamusis/skills-sync/internal/syncerr"
	"github.com/klauspost/compress/zip"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

// ManifestName is the informational entry listing archive path = source path.
const ManifestName = "manifest.txt"

type options struct {
	onEntry func(archivePath string)
	log     *logrus.Entry
}

// Option configures Pack and Unpack.
type Option func(*options)

// WithEntryObserver is called once per packed or extracted file.
func WithEntryObserver(fn func(archivePath string)) Option {
	return func(o *options) {
		o.onEntry = fn
	}
}

// WithLogger sets the logger used for diagnostics.
func WithLogger(l *logrus.Entry) Option {
	return func(o *options) {
		o.log = l
	}
}

func newOptions(opts []Option) *options {
	o := &options{log: logger.L}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

type packed struct {
	source  string
	content []byte
}

// Pack writes a zip archive of entries to w and returns the archive paths in
// the order they were stored. Entries mapping to the same archive path
// overwrite each other (last one wins, first position kept). Any unreadable
// source aborts the whole pack.
func Pack(w io.Writer, entries []scan.SkillEntry, opts ...Option) ([]string, error) {
	o := newOptions(opts)

	var order []string
	files := map[string]packed{}
	for _, e := range entries {
		ok, err := insideRoot(e)
		if err != nil {
			return nil, syncerr.IO("stat", e.MarkerPath, err)
		}
		if !ok {
			o.log.WithField("path", e.MarkerPath).Warn("marker resolves outside its scan root, skipping")
			continue
		}
		content, err := os.ReadFile(e.MarkerPath)
		if err != nil {
			return nil, syncerr.IO("read", e.MarkerPath, err)
		}
		name := e.ArchivePath()
		if _, dup := files[name]; dup {
			o.log.WithField("entry", name).Debug("duplicate archive path, overwriting")
		} else {
			order = append(order, name)
		}
		files[name] = packed{source: e.MarkerPath, content: content}
	}

	zw := zip.NewWriter(w)
	var manifest strings.Builder
	for _, name := range order {
		f := files[name]
		fw, err := zw.CreateHeader(&zip.FileHeader{Name: name, Method: zip.Deflate})
		if err != nil {
			return nil, errors.Wrapf(err, "cannot add %s", name)
		}
		if _, err := fw.Write(f.content); err != nil {
			return nil, errors.Wrapf(err, "cannot write %s", name)
		}
		fmt.Fprintf(&manifest, "%s=%s\n", name, displaySource(f.source))
		o.log.WithField("entry", name).Debug("packed")
		if o.onEntry != nil {
			o.onEntry(name)
		}
	}

	mw, err := zw.CreateHeader(&zip.FileHeader{Name: ManifestName, Method: zip.Deflate})
	if err != nil {
		return nil, errors.Wrap(err, "cannot add manifest")
	}
	if _, err := io.WriteString(mw, manifest.String()); err != nil {
		return nil, errors.Wrap(err, "cannot write manifest")
	}
	if err := zw.Close(); err != nil {
		return nil, errors.Wrap(err, "cannot finish archive")
	}
	return order, nil
}

// PackFile is Pack writing to a new file at path. The file is removed if
// packing fails.
func PackFile(path string, entries []scan.SkillEntry, opts ...Option) ([]string, error) {
	f, err := os.Create(path)
	if err != nil {
		return nil, syncerr.IO("create", path, err)
	}
	names, err := Pack(f, entries, opts...)
	if cerr := f.Close(); err == nil && cerr != nil {
		err = syncerr.IO("close", path, cerr)
	}
	if err != nil {
		_ = os.Remove(path)
		return nil, err
	}
	return names, nil
}

// insideRoot reports whether the marker, after resolving symlinks, still lives
// under its scan root. Best effort only.
func insideRoot(e scan.SkillEntry) (bool, error) {
	info, err := os.Lstat(e.MarkerPath)
	if err != nil {
		return false, err
	}
	if info.Mode()&os.ModeSymlink == 0 {
		return true, nil
	}
	resolved, err := filepath.EvalSymlinks(e.MarkerPath)
	if err != nil {
		return false, err
	}
	root, err := filepath.EvalSymlinks(e.RootPath)
	if err != nil {
		return false, err
	}
	rel, err := filepath.Rel(root, resolved)
	if err != nil {
		return false, nil
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)), nil
}

func displaySource(p string) string {
	if home, err := os.UserHomeDir(); err == nil && home != "" {
		if rel, err := filepath.Rel(home, p); err == nil && !strings.HasPrefix(rel, "..") {
			return "~/" + filepath.ToSlash(rel)
		}
	}
	return filepath.ToSlash(p)
}
