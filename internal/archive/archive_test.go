package archive

import (
	"bytes"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/kamusis/skills-sync/internal/digest"
	"github.com/kamusis/skills-sync/internal/scan"
	"github.com/kamusis/skills-sync/internal/syncerr"
	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func skill(t *testing.T, root, label, rel, content string) scan.SkillEntry {
	t.Helper()
	dir := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(dir, 0o755))
	marker := filepath.Join(dir, "SKILL.md")
	require.NoError(t, os.WriteFile(marker, []byte(content), 0o644))
	return scan.SkillEntry{
		Name:       filepath.Base(dir),
		MarkerPath: marker,
		RootLabel:  label,
		RootPath:   root,
		RelDir:     rel,
	}
}

func rawZip(t *testing.T, files map[string]string, order []string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, name := range order {
		w, err := zw.Create(name)
		require.NoError(t, err)
		_, err = w.Write([]byte(files[name]))
		require.NoError(t, err)
	}
	require.NoError(t, zw.Close())
	return buf.Bytes()
}

func TestPackUnpackRoundTrip(t *testing.T) {
	src := t.TempDir()
	entries := []scan.SkillEntry{
		skill(t, src, ".claude/skills", "alpha", "---\nname: alpha\n---\nA\n"),
		skill(t, src, ".claude/skills", "group/beta", "B content\n"),
		skill(t, src, ".codex/skills", "gamma", "中文内容\n"),
	}

	var buf bytes.Buffer
	var observed []string
	names, err := Pack(&buf, entries, WithEntryObserver(func(p string) { observed = append(observed, p) }))
	require.NoError(t, err)
	assert.Equal(t, []string{
		".claude/skills/alpha/SKILL.md",
		".claude/skills/group/beta/SKILL.md",
		".codex/skills/gamma/SKILL.md",
	}, names)
	assert.Equal(t, names, observed)

	listed, err := Entries(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, names, listed)

	target := t.TempDir()
	written, err := Unpack(buf.Bytes(), target)
	require.NoError(t, err)
	require.Len(t, written, 3)

	for i, e := range entries {
		want, err := os.ReadFile(e.MarkerPath)
		require.NoError(t, err)
		got, err := os.ReadFile(filepath.Join(target, filepath.FromSlash(names[i])))
		require.NoError(t, err)
		assert.Equal(t, want, got)
		assert.True(t, filepath.IsAbs(written[i]))
	}

	_, err = os.Stat(filepath.Join(target, ManifestName))
	assert.True(t, os.IsNotExist(err), "manifest is never extracted")
}

func TestPackIsDeterministic(t *testing.T) {
	src := t.TempDir()
	entries := []scan.SkillEntry{skill(t, src, "r", "one", "same\n")}

	var a, b bytes.Buffer
	_, err := Pack(&a, entries)
	require.NoError(t, err)
	_, err = Pack(&b, entries)
	require.NoError(t, err)
	assert.Equal(t, digest.Bytes(a.Bytes()), digest.Bytes(b.Bytes()))
}

func TestPackDuplicatePathsLastWins(t *testing.T) {
	first := skill(t, t.TempDir(), "shared", "dup", "first\n")
	other := skill(t, t.TempDir(), "shared", "other", "other\n")
	second := skill(t, t.TempDir(), "shared", "dup", "second\n")

	var buf bytes.Buffer
	names, err := Pack(&buf, []scan.SkillEntry{first, other, second})
	require.NoError(t, err)
	assert.Equal(t, []string{"shared/dup/SKILL.md", "shared/other/SKILL.md"}, names)

	target := t.TempDir()
	_, err = Unpack(buf.Bytes(), target)
	require.NoError(t, err)
	got, err := os.ReadFile(filepath.Join(target, "shared", "dup", "SKILL.md"))
	require.NoError(t, err)
	assert.Equal(t, "second\n", string(got))
}

func TestPackUnreadableSourceFails(t *testing.T) {
	src := t.TempDir()
	e := skill(t, src, "r", "gone", "x")
	require.NoError(t, os.Remove(e.MarkerPath))

	var buf bytes.Buffer
	_, err := Pack(&buf, []scan.SkillEntry{e})
	require.Error(t, err)
	assert.True(t, syncerr.IsKind(err, syncerr.KindIO))
}

func TestPackSkipsMarkerEscapingRoot(t *testing.T) {
	root := t.TempDir()
	outside := filepath.Join(t.TempDir(), "SKILL.md")
	require.NoError(t, os.WriteFile(outside, []byte("secret"), 0o644))
	dir := filepath.Join(root, "linked")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	marker := filepath.Join(dir, "SKILL.md")
	if err := os.Symlink(outside, marker); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}
	kept := skill(t, root, "r", "kept", "kept")

	var buf bytes.Buffer
	names, err := Pack(&buf, []scan.SkillEntry{
		{Name: "linked", MarkerPath: marker, RootLabel: "r", RootPath: root, RelDir: "linked"},
		kept,
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"r/kept/SKILL.md"}, names)
}

func TestPackFileRemovesPartialOnError(t *testing.T) {
	src := t.TempDir()
	e := skill(t, src, "r", "gone", "x")
	require.NoError(t, os.Remove(e.MarkerPath))

	out := filepath.Join(t.TempDir(), "skills.zip")
	_, err := PackFile(out, []scan.SkillEntry{e})
	require.Error(t, err)
	_, statErr := os.Stat(out)
	assert.True(t, os.IsNotExist(statErr))
}

func TestUnpackOverwritesExisting(t *testing.T) {
	target := t.TempDir()
	dest := filepath.Join(target, "r", "s", "SKILL.md")
	require.NoError(t, os.MkdirAll(filepath.Dir(dest), 0o755))
	require.NoError(t, os.WriteFile(dest, []byte("old"), 0o644))

	data := rawZip(t, map[string]string{"r/s/SKILL.md": "new"}, []string{"r/s/SKILL.md"})
	_, err := Unpack(data, target)
	require.NoError(t, err)

	got, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "new", string(got))

	leftovers, err := filepath.Glob(filepath.Join(filepath.Dir(dest), ".skills-sync-*"))
	require.NoError(t, err)
	assert.Empty(t, leftovers)
}

func TestUnpackFollowsLinkedSkillsDir(t *testing.T) {
	home := t.TempDir()
	hub := filepath.Join(t.TempDir(), "repo", "skills")
	require.NoError(t, os.MkdirAll(hub, 0o755))
	require.NoError(t, os.MkdirAll(filepath.Join(home, ".claude"), 0o755))
	link := filepath.Join(home, ".claude", "skills")
	if err := os.Symlink(hub, link); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	data := rawZip(t, map[string]string{".claude/skills/x/SKILL.md": "linked"}, []string{".claude/skills/x/SKILL.md"})
	written, err := Unpack(data, home)
	require.NoError(t, err)
	assert.Equal(t, []string{filepath.Join(link, "x", "SKILL.md")}, written)

	got, err := os.ReadFile(filepath.Join(link, "x", "SKILL.md"))
	require.NoError(t, err)
	assert.Equal(t, "linked", string(got))
	got, err = os.ReadFile(filepath.Join(hub, "x", "SKILL.md"))
	require.NoError(t, err)
	assert.Equal(t, "linked", string(got))
}

func TestUnpackRejectsTraversal(t *testing.T) {
	parent := t.TempDir()
	target := filepath.Join(parent, "target")
	require.NoError(t, os.MkdirAll(target, 0o755))

	data := rawZip(t, map[string]string{
		"ok/SKILL.md":      "fine",
		"../evil/SKILL.md": "bad",
		"after/SKILL.md":   "never",
	}, []string{"ok/SKILL.md", "../evil/SKILL.md", "after/SKILL.md"})

	written, err := Unpack(data, target)
	require.Error(t, err)
	assert.True(t, syncerr.IsKind(err, syncerr.KindPathTraversal))
	assert.Len(t, written, 1)

	_, statErr := os.Stat(filepath.Join(parent, "evil", "SKILL.md"))
	assert.True(t, os.IsNotExist(statErr), "nothing may be written outside the target")
	_, statErr = os.Stat(filepath.Join(target, "after", "SKILL.md"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestUnpackRejectsAbsoluteEntries(t *testing.T) {
	for _, name := range []string{"/etc/evil", "C:/evil", "c:\\evil"} {
		t.Run(name, func(t *testing.T) {
			data := rawZip(t, map[string]string{name: "x"}, []string{name})
			_, err := Unpack(data, t.TempDir())
			assert.True(t, syncerr.IsKind(err, syncerr.KindPathTraversal), "got %v", err)
		})
	}
}

func TestUnpackCorruptArchive(t *testing.T) {
	_, err := Unpack([]byte("definitely not a zip"), t.TempDir())
	assert.True(t, syncerr.IsKind(err, syncerr.KindCorruptArchive))

	src := t.TempDir()
	var buf bytes.Buffer
	_, err = Pack(&buf, []scan.SkillEntry{skill(t, src, "r", "s", strings.Repeat("data ", 200))})
	require.NoError(t, err)
	truncated := buf.Bytes()[:buf.Len()/2]

	_, err = Unpack(truncated, t.TempDir())
	assert.True(t, syncerr.IsKind(err, syncerr.KindCorruptArchive))

	_, err = Entries(nil)
	assert.True(t, syncerr.IsKind(err, syncerr.KindCorruptArchive))
}

func TestEntryPath(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"skill", "skill"},
		{"./skill", "skill"},
		{"dir/skill", "dir/skill"},
		{"dir//skill", "dir/skill"},
		{"dir\\skill", "dir/skill"},
		{"../skill", ""},
		{"dir/../skill", ""},
		{"/abs/skill", ""},
		{"D:/skill", ""},
		{"", ""},
	}
	for _, c := range cases {
		got, err := entryPath(c.in)
		if c.want == "" {
			assert.Error(t, err, "entryPath(%q)", c.in)
			continue
		}
		require.NoError(t, err, "entryPath(%q)", c.in)
		assert.Equal(t, c.want, got)
	}
}

func TestDisplaySource(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	if runtime.GOOS == "windows" {
		t.Setenv("USERPROFILE", home)
	}
	assert.Equal(t, "~/.claude/skills/a/SKILL.md", displaySource(filepath.Join(home, ".claude", "skills", "a", "SKILL.md")))
}
