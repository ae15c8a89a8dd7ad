package scan

import (
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/kamusis/skills-sync/internal/config"
	"github.com/kamusis/skills-sync/internal/syncerr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSkill(t *testing.T, dir, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "SKILL.md"), []byte(content), 0o644))
}

func relDirs(entries []SkillEntry) []string {
	var out []string
	for _, e := range entries {
		out = append(out, e.RelDir)
	}
	sort.Strings(out)
	return out
}

func TestScan_FindsDirectoriesDirectlyContainingMarker(t *testing.T) {
	root := t.TempDir()
	writeSkill(t, filepath.Join(root, "alpha"), "---\nname: alpha\ndescription: First skill\n---\n")
	writeSkill(t, filepath.Join(root, "group", "beta"), "# Beta\n\nBeta does things.\n")
	require.NoError(t, os.MkdirAll(filepath.Join(root, "empty", "deeper"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "group", "README.md"), []byte("x"), 0o644))

	entries, err := New().Scan([]config.ScanRoot{{Path: root, Label: "mine"}})
	require.NoError(t, err)

	assert.Equal(t, []string{"alpha", "group/beta"}, relDirs(entries))
	for _, e := range entries {
		assert.Equal(t, "mine", e.RootLabel)
		assert.Equal(t, "SKILL.md", filepath.Base(e.MarkerPath))
		assert.Equal(t, filepath.Join(root, filepath.FromSlash(e.RelDir)), e.Dir())
		info, err := os.Stat(e.Dir())
		require.NoError(t, err)
		assert.True(t, info.IsDir(), "a skill is a directory, never the marker itself")
	}
}

func TestScan_DoesNotDescendIntoSkills(t *testing.T) {
	root := t.TempDir()
	writeSkill(t, filepath.Join(root, "outer"), "outer")
	writeSkill(t, filepath.Join(root, "outer", "inner"), "inner")
	writeSkill(t, filepath.Join(root, "outer", "a", "b"), "nested deeper")

	entries, err := New().Scan([]config.ScanRoot{{Path: root, Label: "r"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"outer"}, relDirs(entries))
}

func TestScan_RootMarkerIsIgnored(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(root, "SKILL.md"), []byte("root"), 0o644))
	writeSkill(t, filepath.Join(root, "child"), "child")

	entries, err := New().Scan([]config.ScanRoot{{Path: root, Label: "r"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"child"}, relDirs(entries))
}

func TestScan_MarkerMatchIsCaseSensitive(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "lower")
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "skill.md"), []byte("x"), 0o644))
	require.NoError(t, os.MkdirAll(filepath.Join(root, "dirmarker", "SKILL.md"), 0o755))

	entries, err := New().Scan([]config.ScanRoot{{Path: root, Label: "r"}})
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestScan_MissingRootIsSkipped(t *testing.T) {
	present := t.TempDir()
	writeSkill(t, filepath.Join(present, "one"), "one")
	missing := filepath.Join(t.TempDir(), "does-not-exist")

	var skipped []string
	s := New(WithSkipObserver(func(root config.ScanRoot, err error) {
		assert.Error(t, err)
		skipped = append(skipped, root.Label)
	}))
	entries, err := s.Scan([]config.ScanRoot{
		{Path: missing, Label: "gone"},
		{Path: present, Label: "here"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"gone"}, skipped)
	require.Len(t, entries, 1)
	assert.Equal(t, "here", entries[0].RootLabel)
}

func TestScan_AllRootsUnreadableIsAnError(t *testing.T) {
	base := t.TempDir()
	file := filepath.Join(base, "plain-file")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	var skipped int
	s := New(WithSkipObserver(func(config.ScanRoot, error) { skipped++ }))
	entries, err := s.Scan([]config.ScanRoot{
		{Path: filepath.Join(base, "gone"), Label: "gone"},
		{Path: file, Label: "file"},
	})
	require.Error(t, err)
	assert.True(t, syncerr.IsKind(err, syncerr.KindIO))
	assert.Contains(t, err.Error(), "none of 2 scan root(s) could be read")
	assert.Empty(t, entries)
	assert.Equal(t, 2, skipped)

	// An empty but readable root is not a failure.
	entries, err = s.Scan([]config.ScanRoot{{Path: base, Label: "base"}})
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestScan_FollowsSymlinkedRoot(t *testing.T) {
	hub := t.TempDir()
	writeSkill(t, filepath.Join(hub, "docs", "pdf"), "---\nname: pdf\n---\n")
	link := filepath.Join(t.TempDir(), "skills")
	if err := os.Symlink(hub, link); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	entries, err := New().Scan([]config.ScanRoot{{Path: link, Label: ".claude/skills"}})
	require.NoError(t, err)
	require.Len(t, entries, 1)
	e := entries[0]
	assert.Equal(t, "pdf", e.Name)
	assert.Equal(t, "docs/pdf", e.RelDir)
	assert.Equal(t, link, e.RootPath)
	assert.Equal(t, filepath.Join(link, "docs", "pdf", "SKILL.md"), e.MarkerPath)
	assert.Equal(t, ".claude/skills/docs/pdf/SKILL.md", e.ArchivePath())
}

func TestScan_Excludes(t *testing.T) {
	root := t.TempDir()
	writeSkill(t, filepath.Join(root, "node_modules", "pkg"), "x")
	writeSkill(t, filepath.Join(root, "vendor", "third", "party"), "x")
	writeSkill(t, filepath.Join(root, "keep"), "x")

	s := New(WithExcludes("node_modules", "vendor/**"))
	entries, err := s.Scan([]config.ScanRoot{{Path: root, Label: "r"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"keep"}, relDirs(entries))
}

func TestScan_MultipleRootsKeepOrder(t *testing.T) {
	a, b := t.TempDir(), t.TempDir()
	writeSkill(t, filepath.Join(a, "s1"), "x")
	writeSkill(t, filepath.Join(b, "s2"), "x")
	writeSkill(t, filepath.Join(b, "s3"), "x")

	entries, err := New().Scan([]config.ScanRoot{{Path: a, Label: "a"}, {Path: b, Label: "b"}})
	require.NoError(t, err)
	require.Len(t, entries, 3)

	groups := GroupByRoot(entries)
	require.Len(t, groups, 2)
	assert.Equal(t, "a", groups[0].Label)
	assert.Len(t, groups[0].Skills, 1)
	assert.Equal(t, "b", groups[1].Label)
	assert.Equal(t, b, groups[1].Path)
	assert.Len(t, groups[1].Skills, 2)
}

func TestScan_NameAndArchivePath(t *testing.T) {
	root := t.TempDir()
	writeSkill(t, filepath.Join(root, "dir-name"), "---\nname: pretty-name\ndescription: hi\n---\n")
	writeSkill(t, filepath.Join(root, "plain"), "no front matter\n")

	entries, err := New().Scan([]config.ScanRoot{{Path: root, Label: ".claude/skills"}})
	require.NoError(t, err)
	require.Len(t, entries, 2)

	byRel := map[string]SkillEntry{}
	for _, e := range entries {
		byRel[e.RelDir] = e
	}
	assert.Equal(t, "pretty-name", byRel["dir-name"].Name)
	assert.Equal(t, "plain", byRel["plain"].Name)
	assert.Equal(t, ".claude/skills/dir-name/SKILL.md", byRel["dir-name"].ArchivePath())
}

func TestScan_EmptyRoot(t *testing.T) {
	entries, err := New().Scan([]config.ScanRoot{{Path: t.TempDir(), Label: "r"}})
	require.NoError(t, err)
	assert.Empty(t, entries)
}
