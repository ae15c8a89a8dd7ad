package scan

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/yuin/goldmark"
	meta "github.com/yuin/goldmark-meta"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/text"
	"golang.org/x/text/width"
)

// descriptionBudget is the display width a description is cut to.
const descriptionBudget = 100

var (
	markdown = goldmark.New(goldmark.WithExtensions(meta.Meta))

	descriptionRef = regexp.MustCompile(`(?mi)^\s*\[!?description\]:\s*(\S.*)$`)
)

// parseMarker returns the front matter name and a display description for a
// SKILL.md body. It never fails: anything unparsable yields empty strings.
func parseMarker(content []byte) (name, description string) {
	src := bytes.TrimPrefix(content, []byte("\ufeff"))

	pctx := parser.NewContext()
	doc := markdown.Parser().Parse(text.NewReader(src), parser.WithContext(pctx))

	if fm, err := meta.TryGet(pctx); err == nil {
		name = strings.TrimSpace(stringField(fm, "name"))
		description = stringField(fm, "description")
	}
	if strings.TrimSpace(description) == "" {
		description = headingDescription(doc, src)
	}
	if strings.TrimSpace(description) == "" {
		if m := descriptionRef.FindSubmatch(src); m != nil {
			description = string(m[1])
		}
	}
	if strings.TrimSpace(description) == "" {
		description = firstParagraph(doc, src)
	}
	return name, truncate(collapse(description), descriptionBudget)
}

func stringField(m map[string]interface{}, key string) string {
	for k, v := range m {
		if !strings.EqualFold(k, key) {
			continue
		}
		switch tv := v.(type) {
		case string:
			return tv
		case nil:
			return ""
		default:
			return fmt.Sprint(tv)
		}
	}
	return ""
}

// headingDescription returns the paragraph following a "## Description" or
// "## 描述" heading.
func headingDescription(doc ast.Node, src []byte) string {
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		h, ok := n.(*ast.Heading)
		if !ok || h.Level != 2 {
			continue
		}
		title := strings.TrimSpace(blockText(h, src))
		if !strings.EqualFold(title, "description") && title != "描述" {
			continue
		}
		if p, ok := h.NextSibling().(*ast.Paragraph); ok {
			return firstLine(blockText(p, src))
		}
	}
	return ""
}

// firstParagraph returns the first line of the first top-level paragraph.
func firstParagraph(doc ast.Node, src []byte) string {
	for n := doc.FirstChild(); n != nil; n = n.NextSibling() {
		if p, ok := n.(*ast.Paragraph); ok {
			return firstLine(blockText(p, src))
		}
	}
	return ""
}

func blockText(n ast.Node, src []byte) string {
	var buf bytes.Buffer
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		buf.Write(seg.Value(src))
	}
	return buf.String()
}

func firstLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.IndexByte(s, '\n'); i >= 0 {
		s = s[:i]
	}
	return strings.TrimSpace(s)
}

func collapse(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// truncate cuts s to at most budget display columns, counting East Asian
// wide and fullwidth runes as two, and appends an ellipsis when cut.
func truncate(s string, budget int) string {
	total := 0
	for _, r := range s {
		total += runeWidth(r)
	}
	if total <= budget {
		return s
	}
	used := 0
	for i, r := range s {
		w := runeWidth(r)
		if used+w > budget-1 {
			return strings.TrimSpace(s[:i]) + "…"
		}
		used += w
	}
	return s
}

func runeWidth(r rune) int {
	switch width.LookupRune(r).Kind() {
	case width.EastAsianWide, width.EastAsianFullwidth:
		return 2
	}
	return 1
}
