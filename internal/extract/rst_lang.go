package extract

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/DeusData/codebase-symbols/internal/lang"
	"github.com/DeusData/codebase-symbols/internal/symbol"
)

func init() {
	registerScanner(lang.RST, extractRST)
}

type rstSection struct {
	start, end int
	level      int
	path       string
}

type rstHeader struct {
	line, last int // first and last line of the title and its adornments
	titleLine  int
	title      string
	style      string
}

type rstScanner struct {
	f        *file
	idx      *lineIndex
	n        int
	out      []symbol.Symbol
	sections []rstSection
	skip     []bool // consumed by headers, tables and literal bodies
	prose    []bool // scanned for inline markup
	listed   map[int]bool
	ordinals map[string]int
}

var (
	rstTargetRe    = regexp.MustCompile("^_(`[^`]+`|[^:]+):(?:\\s+(.*))?$")
	rstNoteRe      = regexp.MustCompile(`^\[([^\]]+)\](?:\s+|$)`)
	rstSubstDefRe  = regexp.MustCompile(`^\|([^|]+)\|(?:\s+([\w:+.-]+)::(?:\s+(.*))?)?`)
	rstDirectiveRe = regexp.MustCompile(`^([\w:+.-]+)::(?:\s+(.*))?$`)
	rstOptionRe    = regexp.MustCompile(`^:([^:]+):(?:\s+(.*))?$`)
	rstBulletRe    = regexp.MustCompile(`^[-*+\x{2022}]\s+\S`)
	rstEnumRe      = regexp.MustCompile(`^(?:\(?(?:\d+|#|[A-Za-z]|[ivxlcdmIVXLCDM]+)[.)])\s+\S`)
	rstFieldRe     = regexp.MustCompile(`^:[^:\s][^:]*:(?:\s|$)`)

	rstLiteralRe  = regexp.MustCompile("``([^`]+)``")
	rstBacktickRe = regexp.MustCompile("(_?)(?::([\\w:.+-]+):)?`([^`]+)`(?::([\\w:.+-]+):)?(_{0,2})")
	rstFootRefRe  = regexp.MustCompile(`\[(\d+|#[\w-]*|\*)\]_`)
	rstCiteRefRe  = regexp.MustCompile(`\[([A-Za-z][\w.-]*)\]_`)
	rstSubstRefRe = regexp.MustCompile(`\|([^|\s][^|]*?)\|(_{0,2})`)
	rstStrongRe   = regexp.MustCompile(`\*\*([^*\s][^*]*?)\*\*`)
	rstEmphRe     = regexp.MustCompile(`\*([^*\s][^*]*?)\*`)
	rstWordRefRe  = regexp.MustCompile(`\b([A-Za-z0-9][\w.-]*?)(__?)(?:\W|$)`)
	rstURLRe      = regexp.MustCompile("\\b(?:https?|ftp)://[^\\s<>`]+")
)

func extractRST(f *file) []symbol.Symbol {
	idx := f.lines()
	s := &rstScanner{
		f: f, idx: idx, n: idx.count(),
		skip:     make([]bool, idx.count()+2),
		prose:    make([]bool, idx.count()+2),
		listed:   map[int]bool{},
		ordinals: map[string]int{},
	}
	root := f.lineSymbol(symbol.Module, rootPath, 1, s.n).Signature("document")
	root.Tag("rst", "kind", "document")
	s.out = append(s.out, root.Build())

	s.scanSections()
	s.scanTables()
	s.scanBlocks()
	s.scanInline()
	return rstResolve(s.out)
}

// rstAdornment reports the repeated punctuation character of an adornment
// line of at least three characters.
func rstAdornment(line string) (byte, bool) {
	t := strings.TrimSpace(line)
	if len(t) < 3 || t != strings.TrimRight(line, " \t") {
		return 0, false
	}
	c := t[0]
	if c <= ' ' || c >= 0x7f || (c >= '0' && c <= '9') || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') {
		return 0, false
	}
	for i := 1; i < len(t); i++ {
		if t[i] != c {
			return 0, false
		}
	}
	return c, true
}

func rstBlank(line string) bool { return strings.TrimSpace(line) == "" }

func rstIndent(line string) int {
	return len(line) - len(strings.TrimLeft(line, " \t"))
}

// scanSections finds underlined and over-and-underlined titles. Levels follow
// the order in which adornment styles first appear.
func (s *rstScanner) scanSections() {
	var headers []rstHeader
	for i := 1; i <= s.n; i++ {
		line := s.idx.line(i)
		if c, ok := rstAdornment(line); ok && i+2 <= s.n {
			title := s.idx.line(i + 1)
			if c2, ok2 := rstAdornment(s.idx.line(i + 2)); ok2 && c2 == c && !rstBlank(title) {
				if _, isAdorn := rstAdornment(title); !isAdorn {
					headers = append(headers, rstHeader{line: i, last: i + 2, titleLine: i + 1, title: strings.TrimSpace(title), style: "over" + string(c)})
					i += 2
					continue
				}
			}
		}
		if rstBlank(line) || rstIndent(line) > 0 || i+1 > s.n || (i > 1 && !rstBlank(s.idx.line(i-1))) {
			continue
		}
		if _, isAdorn := rstAdornment(line); isAdorn {
			continue
		}
		if c, ok := rstAdornment(s.idx.line(i + 1)); ok {
			headers = append(headers, rstHeader{line: i, last: i + 1, titleLine: i, title: strings.TrimSpace(line), style: string(c)})
			i++
		}
	}

	levels := map[string]int{}
	lv := make([]int, len(headers))
	for k, h := range headers {
		if _, ok := levels[h.style]; !ok {
			levels[h.style] = len(levels) + 1
		}
		lv[k] = levels[h.style]
	}

	var stack []rstSection
	for k, h := range headers {
		level, end := lv[k], s.n
		for m := k + 1; m < len(headers); m++ {
			if lv[m] <= level {
				end = headers[m].line - 1
				break
			}
		}
		for end > h.last && rstBlank(s.idx.line(end)) {
			end--
		}
		for i := h.line; i <= h.last; i++ {
			s.skip[i] = true
		}
		s.prose[h.titleLine] = true

		for len(stack) > 0 && (stack[len(stack)-1].level >= level || h.line > stack[len(stack)-1].end) {
			stack = stack[:len(stack)-1]
		}
		b := s.f.lineSymbol(symbol.Module, h.title, h.line, end).Signature(h.title)
		b.Tag("rst", "kind", "section")
		b.Tag("rst", "section_level", strconv.Itoa(level))
		path := h.title
		if len(stack) > 0 {
			parent := stack[len(stack)-1].path
			ownedBy(b, "rst", parent)
			path = parent + "/" + h.title
		}
		b.Tag("rst", "path", path)
		s.out = append(s.out, b.Build())
		sec := rstSection{start: h.line, end: end, level: level, path: path}
		stack = append(stack, sec)
		s.sections = append(s.sections, sec)
	}
}

// ownerAt returns the path of the innermost section holding line.
func (s *rstScanner) ownerAt(line int) string {
	for i := len(s.sections) - 1; i >= 0; i-- {
		if sec := s.sections[i]; sec.start <= line && line <= sec.end {
			return sec.path
		}
	}
	return rootPath
}

func (s *rstScanner) emit(b *symbol.Builder, line int) {
	s.out = append(s.out, ownedBy(b, "rst", s.ownerAt(line)).Build())
}

// block records a structural block named "<kind>-<line>".
func (s *rstScanner) block(kind string, start, end int, tags ...string) {
	b := s.f.lineSymbol(symbol.Property, kind+"-"+strconv.Itoa(start), start, end).Signature(kind)
	b.Tag("rst", "kind", kind)
	b.Attr(tags...)
	s.emit(b, start)
}

// blockEnd is the last non-blank line indented deeper than indent after i.
func (s *rstScanner) blockEnd(i, indent int) int {
	last := i
	for j := i + 1; j <= s.n; j++ {
		line := s.idx.line(j)
		if rstBlank(line) {
			continue
		}
		if rstIndent(line) <= indent {
			break
		}
		last = j
	}
	return last
}

// paraEnd is the last line before the next blank line.
func (s *rstScanner) paraEnd(i int) int {
	for i < s.n && !rstBlank(s.idx.line(i+1)) {
		i++
	}
	return i
}

// scanTables records grid and simple tables and hides their lines from the
// block and inline passes.
func (s *rstScanner) scanTables() {
	for i := 1; i <= s.n; i++ {
		if s.skip[i] {
			continue
		}
		line := strings.TrimRight(s.idx.line(i), " \t")
		t := strings.TrimSpace(line)
		switch {
		case strings.HasPrefix(t, "+") && strings.Contains(t, "--"):
			end, rows := i, 0
			for j := i + 1; j <= s.n; j++ {
				l := strings.TrimSpace(s.idx.line(j))
				if !strings.HasPrefix(l, "+") && !strings.HasPrefix(l, "|") {
					break
				}
				if strings.HasPrefix(l, "+") {
					rows++
				}
				end = j
			}
			if end == i {
				continue
			}
			s.table("grid_table", i, end, rows, strings.Count(t, "+")-1)
			i = end
		case rstSimpleBorder(t):
			end, borders := i, 1
			for j := i + 1; j <= s.n; j++ {
				l := strings.TrimSpace(s.idx.line(j))
				if l == "" {
					if borders >= 2 && rstSimpleBorder(strings.TrimSpace(s.idx.line(end))) {
						break
					}
					continue
				}
				if rstSimpleBorder(l) {
					borders++
				}
				end = j
			}
			if borders < 2 {
				continue
			}
			rows := 0
			for j := i + 1; j < end; j++ {
				if l := strings.TrimSpace(s.idx.line(j)); l != "" && !rstSimpleBorder(l) {
					rows++
				}
			}
			s.table("simple_table", i, end, rows, len(strings.Fields(t)))
			i = end
		}
	}
}

// rstSimpleBorder matches "=====  =====": two or more runs of '='.
func rstSimpleBorder(t string) bool {
	cols := strings.Fields(t)
	if len(cols) < 2 {
		return false
	}
	for _, c := range cols {
		if strings.Trim(c, "=") != "" {
			return false
		}
	}
	return true
}

func (s *rstScanner) table(kind string, start, end, rows, cols int) {
	for i := start; i <= end; i++ {
		s.skip[i] = true
	}
	s.block(kind, start, end,
		"rst:table_rows:"+strconv.Itoa(rows),
		"rst:table_cols:"+strconv.Itoa(cols))
}

func (s *rstScanner) scanBlocks() {
	literalAfter := -1 // indent of a paragraph ending in "::"
	paraStart := true
	prevKind, prevIndent := "", 0
	for i := 1; i <= s.n; i++ {
		line := s.idx.line(i)
		if s.skip[i] || rstBlank(line) {
			paraStart = true
			if s.skip[i] {
				prevKind = "header"
			}
			continue
		}
		ind, t := rstIndent(line), strings.TrimSpace(line)
		if literalAfter >= 0 {
			if ind > literalAfter && paraStart {
				end := s.blockEnd(i, literalAfter)
				s.block("literal_block", i, end)
				i, literalAfter, prevKind = end, -1, "literal"
				continue
			}
			literalAfter = -1
		}

		switch {
		case t == ".." || strings.HasPrefix(t, ".. "):
			i = s.explicit(i, ind, t)
			paraStart, prevKind, prevIndent = true, "explicit", ind
			continue
		case paraStart && strings.HasPrefix(t, ">>>"):
			end := s.paraEnd(i)
			s.block("doctest_block", i, end)
			i, prevKind = end, "doctest"
			continue
		case paraStart && (t == "|" || strings.HasPrefix(t, "| ")):
			end := s.paraEnd(i)
			s.block("line_block", i, end)
			for j := i; j <= end; j++ {
				s.prose[j] = true
			}
			i, prevKind = end, "line_block"
			continue
		}
		if c, ok := rstAdornment(line); ok && paraStart && len(t) >= 4 && (i == s.n || rstBlank(s.idx.line(i+1))) {
			s.block("transition", i, i, "rst:transition_char:"+string(c))
			prevKind = "transition"
			continue
		}

		kind := "para"
		if paraStart && !s.listed[i] {
			switch {
			case rstBulletRe.MatchString(t):
				s.list("bullet_list", i, ind, rstBulletRe)
				kind = "list"
			case rstEnumRe.MatchString(t):
				s.list("enumerated_list", i, ind, rstEnumRe)
				kind = "list"
			case rstFieldRe.MatchString(t):
				s.list("field_list", i, ind, rstFieldRe)
				kind = "list"
			case i < s.n && !rstBlank(s.idx.line(i+1)) && rstIndent(s.idx.line(i+1)) > ind && !strings.HasSuffix(t, "::"):
				s.definitions(i, ind)
				kind = "list"
			case ind > 0 && prevKind == "para" && ind > prevIndent:
				end := s.blockEnd(i, prevIndent)
				s.block("block_quote", i, end)
			}
		} else if s.listed[i] {
			kind = "list"
		}
		s.prose[i] = true
		if strings.HasSuffix(t, "::") {
			literalAfter = ind
		}
		paraStart = false
		if kind != "para" || prevKind != "list" || ind <= prevIndent {
			prevKind, prevIndent = kind, ind
		}
	}
}

// list records a run of items sharing indent and marker style.
func (s *rstScanner) list(kind string, i, indent int, item *regexp.Regexp) {
	items, end := 0, i
scan:
	for j := i; j <= s.n; j++ {
		line := s.idx.line(j)
		switch {
		case s.skip[j]:
			break scan
		case rstBlank(line):
			continue
		}
		ind := rstIndent(line)
		switch {
		case ind == indent && item.MatchString(strings.TrimSpace(line)):
			items++
			s.listed[j] = true
		case ind < indent, ind == indent:
			break scan
		}
		end = j
	}
	s.block(kind, i, end, "rst:list_items:"+strconv.Itoa(items))
}

// definitions records a definition list: terms at indent, each followed
// directly by a deeper definition.
func (s *rstScanner) definitions(i, indent int) {
	terms, end := 0, i
	for j := i; j <= s.n; j++ {
		line := s.idx.line(j)
		if rstBlank(line) {
			continue
		}
		if s.skip[j] {
			break
		}
		ind := rstIndent(line)
		if ind < indent {
			break
		}
		if ind == indent {
			if j == s.n || rstBlank(s.idx.line(j+1)) || rstIndent(s.idx.line(j+1)) <= indent {
				break
			}
			terms++
			s.listed[j] = true
		}
		end = j
	}
	s.block("definition_list", i, end, "rst:list_items:"+strconv.Itoa(terms))
}

// explicit handles one ".." markup block and returns the last line it
// consumed. Directive content other than code is left to the block pass.
func (s *rstScanner) explicit(i, indent int, t string) int {
	rest := strings.TrimSpace(strings.TrimPrefix(t, ".."))
	end := s.blockEnd(i, indent)
	switch {
	case rstTargetRe.MatchString(rest):
		m := rstTargetRe.FindStringSubmatch(rest)
		label := strings.Trim(m[1], "`")
		b := s.f.lineSymbol(symbol.Property, "target:"+label, i, end).Signature(label)
		b.Tag("rst", "kind", "target")
		b.Tag("rst", "label", "target", label)
		if url := strings.TrimSpace(m[2]); url != "" {
			b.Tag("rst", "url", url)
		}
		s.emit(b, i)
	case rstNoteRe.MatchString(rest):
		label := rstNoteRe.FindStringSubmatch(rest)[1]
		kind := "citation"
		if rstFootnoteLabel(label) {
			kind = "footnote"
		}
		b := s.f.lineSymbol(symbol.Property, kind+":"+label, i, end).Signature(label)
		b.Tag("rst", "kind", kind)
		b.Tag("rst", "label", kind, label)
		s.emit(b, i)
		for j := i; j <= end; j++ {
			s.prose[j] = true
		}
	case rstSubstDefRe.MatchString(rest):
		m := rstSubstDefRe.FindStringSubmatch(rest)
		b := s.f.lineSymbol(symbol.Property, "substitution:"+m[1], i, end).Signature(m[1])
		b.Tag("rst", "kind", "substitution_definition")
		b.Tag("rst", "label", "substitution", m[1])
		if m[2] != "" {
			b.Tag("rst", "directive", m[2])
		}
		s.emit(b, i)
	case rstDirectiveRe.MatchString(rest):
		return s.directive(i, indent, end, rstDirectiveRe.FindStringSubmatch(rest))
	default:
		s.block("comment", i, end)
	}
	return end
}

func rstFootnoteLabel(label string) bool {
	if label == "*" || strings.HasPrefix(label, "#") {
		return true
	}
	_, err := strconv.Atoi(label)
	return err == nil
}

// rstOpaqueDirectives hold literal content that is never scanned as markup.
var rstOpaqueDirectives = map[string]bool{
	"code": true, "code-block": true, "sourcecode": true, "literalinclude": true,
	"raw": true, "math": true,
}

func (s *rstScanner) directive(i, indent, end int, m []string) int {
	name, args := m[1], strings.TrimSpace(m[2])
	type option struct{ key, value string }
	var opts []option
	last := i
	j := i + 1
	for ; j <= end; j++ {
		om := rstOptionRe.FindStringSubmatch(strings.TrimSpace(s.idx.line(j)))
		if om == nil {
			break
		}
		opts = append(opts, option{key: strings.TrimSpace(om[1]), value: strings.TrimSpace(om[2])})
		last = j
	}
	body := 0
	for k := j; k <= end; k++ {
		if !rstBlank(s.idx.line(k)) {
			body++
		}
	}

	b := s.f.lineSymbol(symbol.Property, "directive:"+name, i, end).Signature(name)
	b.Tag("rst", "kind", "directive")
	b.Tag("rst", "directive", name)
	b.Tag("rst", "directive_args", strconv.Itoa(len(strings.Fields(args))))
	b.Tag("rst", "directive_options", strconv.Itoa(len(opts)))
	b.Tag("rst", "directive_body_lines", strconv.Itoa(body))
	if args != "" {
		b.Tag("rst", "directive_args_text", args)
	}
	switch name {
	case "include", "literalinclude":
		b.Tag("rst", "include_directive")
		if args != "" {
			b.Tag("rst", "include", "path", args)
		}
	}
	switch name {
	case "code", "code-block", "sourcecode":
		b.Tag("rst", "code_directive")
		codeLang := ""
		for _, o := range opts {
			if (o.key == "language" || o.key == "lang") && codeLang == "" {
				codeLang = o.value
			}
		}
		if codeLang == "" && args != "" {
			codeLang = strings.Fields(args)[0]
		}
		if codeLang != "" {
			b.Tag("rst", "code_lang", codeLang)
		}
	}
	if strings.Contains(name, ":") {
		b.Tag("rst", "sphinx_directive")
	}
	for _, o := range opts {
		if o.value == "" {
			b.Tag("rst", "directive_option", o.key)
		} else {
			b.Tag("rst", "directive_option", o.key+"="+o.value)
		}
	}
	s.emit(b, i)

	if rstOpaqueDirectives[name] {
		return end
	}
	return last
}

// scanInline records inline markup on prose lines. Each pattern masks what
// it matched so later, looser patterns cannot reuse the text.
func (s *rstScanner) scanInline() {
	for i := 1; i <= s.n; i++ {
		if !s.prose[i] {
			continue
		}
		line := []byte(s.idx.line(i))
		mask := func(a, b int) {
			for k := a; k < b; k++ {
				line[k] = ' '
			}
		}
		raw := s.idx.line(i)
		owner := s.ownerAt(i)

		for _, m := range rstLiteralRe.FindAllStringSubmatchIndex(string(line), -1) {
			s.inline(i, owner, "literal", raw[m[0]:m[1]])
			mask(m[0], m[1])
		}
		for _, m := range rstBacktickRe.FindAllStringSubmatchIndex(string(line), -1) {
			s.backtick(i, owner, raw, m)
			mask(m[0], m[1])
		}
		for _, m := range rstFootRefRe.FindAllStringSubmatchIndex(string(line), -1) {
			s.inline(i, owner, "footnote_reference", raw[m[0]:m[1]], "rst:ref_label:footnote:"+raw[m[2]:m[3]])
			mask(m[0], m[1])
		}
		for _, m := range rstCiteRefRe.FindAllStringSubmatchIndex(string(line), -1) {
			s.inline(i, owner, "citation_reference", raw[m[0]:m[1]], "rst:ref_label:citation:"+raw[m[2]:m[3]])
			mask(m[0], m[1])
		}
		for _, m := range rstSubstRefRe.FindAllStringSubmatchIndex(string(line), -1) {
			s.inline(i, owner, "substitution_reference", raw[m[0]:m[1]], "rst:ref_label:substitution:"+raw[m[2]:m[3]])
			mask(m[0], m[1])
		}
		for _, m := range rstStrongRe.FindAllStringIndex(string(line), -1) {
			s.inline(i, owner, "strong", raw[m[0]:m[1]])
			mask(m[0], m[1])
		}
		for _, m := range rstEmphRe.FindAllStringIndex(string(line), -1) {
			s.inline(i, owner, "emphasis", raw[m[0]:m[1]])
			mask(m[0], m[1])
		}
		for _, m := range rstURLRe.FindAllStringIndex(string(line), -1) {
			url := strings.TrimRight(raw[m[0]:m[1]], ".,;:)")
			s.inline(i, owner, "standalone_hyperlink", url, "rst:url:"+url)
			mask(m[0], m[0]+len(url))
		}
		for _, m := range rstWordRefRe.FindAllStringSubmatchIndex(string(line), -1) {
			label := raw[m[2]:m[3]]
			if raw[m[4]:m[5]] == "__" {
				s.inline(i, owner, "reference", raw[m[2]:m[5]], "rst:anonymous_reference")
				continue
			}
			s.inline(i, owner, "reference", raw[m[2]:m[5]], "rst:ref_label:"+label)
		}
	}
}

// backtick classifies `text` forms: _`inline target`, `reference`_,
// `text <url>`_, and :role:`interpreted text`.
func (s *rstScanner) backtick(line int, owner, raw string, m []int) {
	group := func(k int) string {
		if m[2*k] < 0 {
			return ""
		}
		return raw[m[2*k]:m[2*k+1]]
	}
	whole, text := raw[m[0]:m[1]], group(3)
	role := group(2)
	if role == "" {
		role = group(4)
	}
	switch {
	case group(1) == "_":
		s.inline(line, owner, "inline_target", whole, "rst:label:target:"+text)
	case group(5) != "":
		tags := []string{}
		label := text
		if lt := strings.LastIndex(text, "<"); lt >= 0 && strings.HasSuffix(text, ">") {
			tags = append(tags, "rst:url:"+text[lt+1:len(text)-1])
			label = strings.TrimSpace(text[:lt])
		} else if group(5) == "__" {
			tags = append(tags, "rst:anonymous_reference")
		} else {
			tags = append(tags, "rst:ref_label:"+label)
		}
		s.inline(line, owner, "reference", whole, tags...)
	default:
		var tags []string
		if role != "" {
			tags = append(tags, "rst:role:"+role)
			if strings.Contains(role, ":") {
				tags = append(tags, "rst:sphinx_role")
			}
		}
		s.inline(line, owner, "interpreted_text", whole, tags...)
	}
}

func (s *rstScanner) inline(line int, owner, kind, sig string, tags ...string) {
	key := kind + "-" + strconv.Itoa(line)
	s.ordinals[key]++
	name := key
	if n := s.ordinals[key]; n > 1 {
		name += "-" + strconv.Itoa(n)
	}
	b := s.f.lineSymbol(symbol.Property, name, line, line).Signature(sig)
	b.Tag("rst", "kind", kind)
	b.Attr(tags...)
	s.out = append(s.out, ownedBy(b, "rst", owner).Build())
}

func rstLabelKey(label string) string {
	return strings.ToLower(symbol.CollapseSpace(label))
}

func rstAttr(s symbol.Symbol, prefix string) (string, bool) {
	for _, a := range s.Metadata.Attributes {
		if strings.HasPrefix(a, prefix) {
			return a[len(prefix):], true
		}
	}
	return "", false
}

// rstResolve links references to their targets. Explicit and inline targets
// win over section titles, which are implicit targets; a repeated explicit
// label is flagged on the later record.
func rstResolve(syms []symbol.Symbol) []symbol.Symbol {
	targets := map[string]string{}
	labels := map[string]map[string]string{"footnote": {}, "citation": {}, "substitution": {}}
	for i, s := range syms {
		if label, ok := rstAttr(s, "rst:label:target:"); ok {
			key := rstLabelKey(label)
			if prev, dup := targets[key]; dup {
				b := symbol.From(s)
				b.Tag("rst", "duplicate_target_label", label)
				b.Tag("rst", "duplicate_target_previous", prev)
				syms[i] = b.Build()
			}
			targets[key] = s.Name
			continue
		}
		for kind, m := range labels {
			if label, ok := rstAttr(s, "rst:label:"+kind+":"); ok {
				m[rstLabelKey(label)] = s.Name
			}
		}
	}
	for _, s := range syms {
		if s.HasAttr("rst:kind:section") {
			if key := rstLabelKey(s.Name); targets[key] == "" {
				targets[key] = s.Name
			}
		}
	}

	for i, s := range syms {
		var target string
		var found bool
		broken := ""
		for _, kind := range []string{"footnote", "citation", "substitution"} {
			if label, ok := rstAttr(s, "rst:ref_label:"+kind+":"); ok {
				target, found = labels[kind][rstLabelKey(label)]
				broken = "rst:broken_" + kind + "_reference:" + label
				break
			}
		}
		if broken == "" {
			label, ok := rstAttr(s, "rst:ref_label:")
			if !ok {
				continue
			}
			target, found = targets[rstLabelKey(label)]
			broken = "rst:broken_reference:" + label
		}
		b := symbol.From(s)
		if found {
			b.Tag("rst", "ref_target", target)
		} else {
			b.Attr(broken)
		}
		syms[i] = b.Build()
	}
	return syms
}
