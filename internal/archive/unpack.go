package archive

import (
	"bytes"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	securejoin "github.com/cyphar/filepath-securejoin"
	"github.com/gabriel-vasile/mimetype"
	"github.com/kamusis/skills-sync/internal/syncerr"
	"github.com/klauspost/compress/zip"
)

// Unpack extracts every file entry of the zip archive in data under target
// and returns the absolute paths written. Existing files are overwritten.
//
// An entry that would escape target stops extraction with a PathTraversal
// error; nothing is written for it, and entries extracted before it stay.
// Each file is written to a temp file and renamed into place. Symlinks
// already present under target are followed, so a linked skills directory
// receives the files.
func Unpack(data []byte, target string, opts ...Option) ([]string, error) {
	o := newOptions(opts)

	zr, err := openZip(data)
	if err != nil {
		return nil, err
	}
	root, err := filepath.Abs(target)
	if err != nil {
		return nil, syncerr.IO("resolve", target, err)
	}

	var written []string
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		name, err := entryPath(f.Name)
		if err != nil {
			return written, err
		}
		if name == ManifestName {
			continue
		}
		dest := filepath.Join(root, filepath.FromSlash(name))
		if !within(root, dest) {
			return written, syncerr.PathTraversal(f.Name)
		}
		if err := extractFile(f, dest); err != nil {
			return written, err
		}
		log := o.log.WithField("entry", name).WithField("dest", dest)
		if scoped, err := securejoin.SecureJoin(root, filepath.FromSlash(name)); err == nil && scoped != dest {
			log = log.WithField("via_symlink", true)
		}
		log.Debug("extracted")
		if o.onEntry != nil {
			o.onEntry(name)
		}
		written = append(written, dest)
	}
	return written, nil
}

// Entries lists the file entries of the archive in data, manifest excluded.
func Entries(data []byte) ([]string, error) {
	zr, err := openZip(data)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, f := range zr.File {
		if f.FileInfo().IsDir() || f.Name == ManifestName {
			continue
		}
		out = append(out, f.Name)
	}
	return out, nil
}

func openZip(data []byte) (*zip.Reader, error) {
	if !isZip(data) {
		return nil, syncerr.CorruptArchive(errNotZip(mimetype.Detect(data).String()))
	}
	// A reader returned alongside an error only flags insecure names, which
	// entryPath rejects per entry.
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if zr == nil {
		return nil, syncerr.CorruptArchive(err)
	}
	return zr, nil
}

func isZip(data []byte) bool {
	for m := mimetype.Detect(data); m != nil; m = m.Parent() {
		if m.Is("application/zip") {
			return true
		}
	}
	return false
}

type errNotZip string

func (e errNotZip) Error() string { return "payload is " + string(e) + ", not a zip archive" }

// entryPath validates an archive entry name and returns it cleaned, in slash
// form. Absolute paths, drive letters and ".." segments are rejected.
func entryPath(name string) (string, error) {
	n := strings.ReplaceAll(name, "\\", "/")
	n = strings.TrimPrefix(n, "./")
	if n == "" || strings.HasPrefix(n, "/") || hasDriveLetter(n) {
		return "", syncerr.PathTraversal(name)
	}
	for _, part := range strings.Split(n, "/") {
		if part == ".." {
			return "", syncerr.PathTraversal(name)
		}
	}
	clean := path.Clean(n)
	if clean == "." {
		return "", syncerr.PathTraversal(name)
	}
	return clean, nil
}

// within reports whether p is target itself or lexically below it.
func within(target, p string) bool {
	rel, err := filepath.Rel(target, p)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) && !filepath.IsAbs(rel)
}

func hasDriveLetter(n string) bool {
	return len(n) >= 2 && n[1] == ':' &&
		((n[0] >= 'a' && n[0] <= 'z') || (n[0] >= 'A' && n[0] <= 'Z'))
}

func extractFile(f *zip.File, dest string) error {
	dir := filepath.Dir(dest)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return syncerr.IO("mkdir", dir, err)
	}
	rc, err := f.Open()
	if err != nil {
		return syncerr.CorruptArchive(err)
	}
	defer rc.Close()

	tmp, err := os.CreateTemp(dir, ".skills-sync-*")
	if err != nil {
		return syncerr.IO("create", dir, err)
	}
	tmpName := tmp.Name()
	cleanup := func() { _ = os.Remove(tmpName) }

	if _, err := io.Copy(tmp, rc); err != nil {
		_ = tmp.Close()
		cleanup()
		if isZipFormatErr(err) {
			return syncerr.CorruptArchive(err)
		}
		return syncerr.IO("write", dest, err)
	}
	if err := tmp.Close(); err != nil {
		cleanup()
		return syncerr.IO("write", dest, err)
	}
	if err := os.Chmod(tmpName, 0o644); err != nil {
		cleanup()
		return syncerr.IO("chmod", dest, err)
	}
	if err := os.Rename(tmpName, dest); err != nil {
		cleanup()
		return syncerr.IO("write", dest, err)
	}
	return nil
}

func isZipFormatErr(err error) bool {
	return err == zip.ErrChecksum || err == zip.ErrFormat || err == io.ErrUnexpectedEOF
}
