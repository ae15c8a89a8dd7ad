package scan

import (
	"path"
	"path/filepath"
)

// SkillEntry is one discovered skill directory.
type SkillEntry struct {
	Name        string // front matter name, or the directory name
	Description string // display-only summary, may be empty
	MarkerPath  string // absolute path of the SKILL.md file
	RootLabel   string // label of the scan root it was found under
	RootPath    string // absolute path of that scan root
	RelDir      string // slash-separated skill directory relative to RootPath
}

// Dir returns the absolute skill directory.
func (e SkillEntry) Dir() string {
	return filepath.Dir(e.MarkerPath)
}

// ArchivePath is where the marker file is stored inside an archive:
// <root label>/<skill dir>/SKILL.md.
func (e SkillEntry) ArchivePath() string {
	return path.Join(e.RootLabel, e.RelDir, filepath.Base(e.MarkerPath))
}

// Group is the set of skills found under one scan root, in traversal order.
type Group struct {
	Label  string
	Path   string
	Skills []SkillEntry
}

// GroupByRoot groups entries by root label, keeping first-seen root order.
func GroupByRoot(entries []SkillEntry) []Group {
	var groups []Group
	index := map[string]int{}
	for _, e := range entries {
		i, ok := index[e.RootLabel]
		if !ok {
			i = len(groups)
			index[e.RootLabel] = i
			groups = append(groups, Group{Label: e.RootLabel, Path: e.RootPath})
		}
		groups[i].Skills = append(groups[i].Skills, e)
	}
	return groups
}
