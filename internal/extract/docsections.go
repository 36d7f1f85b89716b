package extract

import (
	"regexp"
	"strings"

	"github.com/DeusData/codebase-symbols/internal/symbol"
)

// Section headings recognized in doc comments, keyed by lowercase title.
var sectionNames = map[string]string{
	"errors":     "errors",
	"panics":     "panics",
	"safety":     "safety",
	"example":    "examples",
	"examples":   "examples",
	"returns":    "returns",
	"return":     "returns",
	"yields":     "yields",
	"yield":      "yields",
	"note":       "notes",
	"notes":      "notes",
	"args":       "args",
	"arguments":  "args",
	"parameters": "args",
	"params":     "args",
	"raises":     "raises",
	"throws":     "raises",
	"exceptions": "raises",
}

var (
	markdownHeading = regexp.MustCompile(`^#{1,3}\s+(\w+)\s*$`)
	googleHeading   = regexp.MustCompile(`^(\w+):\s*(.*)$`)
	entryLine       = regexp.MustCompile("^[*-]?\\s*`?\\*{0,2}([\\w.$]+)`?\\s*(?:\\([^)]*\\))?\\s*(?::|-|–)\\s*(.*)$")
)

// parseDocSections splits a cleaned doc comment into structured sections.
// It understands markdown headings ("# Errors"), Google-style blocks
// ("Args:", "Returns:") and tag lines ("@param", "@return", "@throws").
// It returns nil when nothing was recognized.
func parseDocSections(doc string) *symbol.DocSections {
	if strings.TrimSpace(doc) == "" {
		return nil
	}
	ds := &symbol.DocSections{}
	section := ""
	var buf []string
	flush := func() {
		if section != "" {
			assignSection(ds, section, buf)
		}
		section, buf = "", nil
	}

	for _, line := range strings.Split(doc, "\n") {
		trimmed := strings.TrimSpace(line)
		if m := markdownHeading.FindStringSubmatch(trimmed); m != nil {
			if name, ok := sectionNames[strings.ToLower(m[1])]; ok {
				flush()
				section = name
				continue
			}
		}
		if m := googleHeading.FindStringSubmatch(trimmed); m != nil {
			if name, ok := sectionNames[strings.ToLower(m[1])]; ok {
				flush()
				section = name
				if m[2] != "" {
					buf = append(buf, m[2])
				}
				continue
			}
		}
		if strings.HasPrefix(trimmed, "@") {
			flush()
			section = applyDocTag(ds, trimmed)
			continue
		}
		if strings.HasPrefix(trimmed, ":") && applySphinxField(ds, trimmed) {
			flush()
			continue
		}
		if section != "" {
			buf = append(buf, line)
		}
	}
	flush()
	if ds.Empty() {
		return nil
	}
	return ds
}

func assignSection(ds *symbol.DocSections, section string, lines []string) {
	switch section {
	case "args":
		ds.Args = mergeEntries(ds.Args, parseEntries(lines))
		return
	case "raises":
		ds.Raises = mergeEntries(ds.Raises, parseEntries(lines))
		return
	}
	text := dedent(strings.Join(lines, "\n"))
	if text == "" {
		return
	}
	switch section {
	case "errors":
		ds.Errors = appendText(ds.Errors, text)
	case "panics":
		ds.Panics = appendText(ds.Panics, text)
	case "safety":
		ds.Safety = appendText(ds.Safety, text)
	case "examples":
		ds.Examples = appendText(ds.Examples, text)
	case "returns":
		ds.Returns = appendText(ds.Returns, text)
	case "yields":
		ds.Yields = appendText(ds.Yields, text)
	case "notes":
		ds.Notes = appendText(ds.Notes, text)
	}
}

func appendText(existing, text string) string {
	if existing == "" {
		return text
	}
	return existing + "\n" + text
}

// parseEntries reads "name (type): description" style lines. Indented
// continuation lines extend the previous entry.
func parseEntries(lines []string) map[string]string {
	out := map[string]string{}
	last := ""
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			continue
		}
		if m := entryLine.FindStringSubmatch(trimmed); m != nil {
			last = strings.TrimPrefix(m[1], "$")
			out[last] = strings.TrimSpace(m[2])
			continue
		}
		if last != "" {
			out[last] = strings.TrimSpace(out[last] + " " + trimmed)
		}
	}
	return out
}

func mergeEntries(dst, src map[string]string) map[string]string {
	if len(src) == 0 {
		return dst
	}
	if dst == nil {
		dst = map[string]string{}
	}
	for k, v := range src {
		dst[k] = v
	}
	return dst
}

// applyDocTag records one @tag line and returns the section that following
// untagged lines continue, if any.
func applyDocTag(ds *symbol.DocSections, line string) string {
	tag, rest, _ := strings.Cut(line[1:], " ")
	rest = strings.TrimSpace(rest)
	switch strings.ToLower(tag) {
	case "param", "arg", "argument":
		name, desc := tagNameAndDesc(rest)
		if name != "" {
			ds.Args = mergeEntries(ds.Args, map[string]string{name: desc})
		}
	case "return", "returns":
		ds.Returns = appendText(ds.Returns, skipTypeBraces(rest))
	case "throws", "throw", "exception", "raises", "raise":
		// "@throws {RangeError} desc" names the type in braces.
		var name, desc string
		if strings.HasPrefix(rest, "{") {
			if end := strings.IndexByte(rest, '}'); end > 0 {
				name, desc = rest[1:end], strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(rest[end+1:]), "-"))
			}
		} else {
			name, desc = firstWord(rest)
		}
		if name != "" {
			ds.Raises = mergeEntries(ds.Raises, map[string]string{name: desc})
		}
	case "yields", "yield":
		ds.Yields = appendText(ds.Yields, skipTypeBraces(rest))
	case "example", "examples":
		if rest != "" {
			ds.Examples = appendText(ds.Examples, rest)
		}
		return "examples"
	case "note", "remarks":
		ds.Notes = appendText(ds.Notes, rest)
	}
	return ""
}

// applySphinxField records ":param x: ...", ":returns: ..." and
// ":raises E: ..." lines. It reports whether the line was one of them.
func applySphinxField(ds *symbol.DocSections, line string) bool {
	field, desc, ok := strings.Cut(line[1:], ":")
	if !ok {
		return false
	}
	desc = strings.TrimSpace(desc)
	words := strings.Fields(field)
	if len(words) == 0 {
		return false
	}
	name := words[len(words)-1]
	switch words[0] {
	case "param", "parameter", "arg", "argument", "key", "keyword":
		if len(words) < 2 {
			return false
		}
		ds.Args = mergeEntries(ds.Args, map[string]string{name: desc})
	case "returns", "return":
		ds.Returns = appendText(ds.Returns, desc)
	case "raises", "raise", "except", "exception":
		if len(words) < 2 {
			return false
		}
		ds.Raises = mergeEntries(ds.Raises, map[string]string{name: desc})
	case "yields", "yield":
		ds.Yields = appendText(ds.Yields, desc)
	default:
		return false
	}
	return true
}

// tagNameAndDesc handles "{type} name desc", "type $name desc" and "name desc".
func tagNameAndDesc(rest string) (string, string) {
	rest = skipTypeBraces(rest)
	first, after := firstWord(rest)
	if strings.HasPrefix(first, "$") {
		return strings.TrimPrefix(first, "$"), after
	}
	if second, desc := firstWord(after); strings.HasPrefix(second, "$") {
		return strings.TrimPrefix(second, "$"), desc
	}
	first = strings.Trim(first, "[]")
	if i := strings.IndexByte(first, '='); i >= 0 {
		first = first[:i]
	}
	return first, after
}

// skipTypeBraces drops a leading "{Type}" group.
func skipTypeBraces(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "{") {
		return s
	}
	depth := 0
	for i := 0; i < len(s); i++ {
		switch s[i] {
		case '{':
			depth++
		case '}':
			depth--
			if depth == 0 {
				return strings.TrimSpace(s[i+1:])
			}
		}
	}
	return s
}

func firstWord(s string) (string, string) {
	s = strings.TrimSpace(s)
	word, rest, _ := strings.Cut(s, " ")
	return word, strings.TrimSpace(strings.TrimLeft(strings.TrimSpace(rest), "-"))
}
