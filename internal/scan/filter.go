package scan

import "strings"

// Filter keeps the entries matching every whitespace-separated token of
// query, case-insensitively, over name, description, root label and skill
// directory. An empty query keeps everything. Order is preserved.
func Filter(entries []SkillEntry, query string) []SkillEntry {
	tokens := tokenize(query)
	if len(tokens) == 0 {
		return entries
	}

	var out []SkillEntry
	for _, e := range entries {
		blob := strings.ToLower(strings.Join([]string{e.Name, e.Description, e.RootLabel, e.RelDir}, "\n"))
		ok := true
		for _, tok := range tokens {
			if !strings.Contains(blob, tok) {
				ok = false
				break
			}
		}
		if ok {
			out = append(out, e)
		}
	}
	return out
}

// Find returns the entry whose name, skill directory or archive directory
// (label/dir) equals ref, preferring the first match in traversal order.
func Find(entries []SkillEntry, ref string) (SkillEntry, bool) {
	ref = strings.Trim(strings.ReplaceAll(ref, "\\", "/"), "/")
	for _, e := range entries {
		if e.Name == ref || e.RelDir == ref || e.RootLabel+"/"+e.RelDir == ref {
			return e, true
		}
	}
	return SkillEntry{}, false
}

func tokenize(q string) []string {
	parts := strings.Fields(q)
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		out = append(out, strings.ToLower(p))
	}
	return out
}
