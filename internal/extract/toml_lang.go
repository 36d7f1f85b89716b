package extract

import (
	"strconv"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/DeusData/codebase-symbols/internal/lang"
	"github.com/DeusData/codebase-symbols/internal/symbol"
)

func init() {
	register(lang.TOML, extractTOML)
}

type tomlWalker struct {
	f           *file
	nonstandard bool
	// seenKeys holds the paths of every key assigned so far.
	seenKeys map[string]bool
	// tables maps a table path to whether it was declared as an array table.
	tables      map[string]bool
	arrayCounts map[string]int
	out         []symbol.Symbol
}

// tomlScope locates a pair's parent: its path, the key chain from the
// document root (indexes dropped), and every ancestor path.
type tomlScope struct {
	path      string
	keys      []string
	ancestors []string
}

func (s tomlScope) child(path string, keys ...string) tomlScope {
	return tomlScope{
		path:      path,
		keys:      append(append([]string(nil), s.keys...), keys...),
		ancestors: append(append([]string(nil), s.ancestors...), path),
	}
}

func extractTOML(f *file, root *tree_sitter.Node) []symbol.Symbol {
	w := &tomlWalker{
		f:           f,
		nonstandard: findDescendantByKind(root, "comment") != nil,
		seenKeys:    map[string]bool{},
		tables:      map[string]bool{},
		arrayCounts: map[string]int{},
	}
	b := f.docRoot(rootPath, valueObject, root).
		Signature(rootPath)
	b.Tag("toml", "kind", "document")
	w.tag(b)
	w.out = append(w.out, b.Build())

	w.pairs(findChildrenByKind(root, "pair"), tomlScope{path: rootPath})
	for _, c := range namedChildren(root) {
		switch c.Kind() {
		case "table":
			w.table(c, false)
		case "table_array_element":
			w.table(c, true)
		}
	}
	return w.out
}

func (w *tomlWalker) tag(b *symbol.Builder) {
	if w.nonstandard {
		b.Tag("toml", "nonstandard", "comments")
	}
}

// tomlDoc returns the comments above n. Comments directly above a table
// header parse as the tail of the previous table, so those are read too.
func (w *tomlWalker) tomlDoc(n *tree_sitter.Node) string {
	if d := w.f.doc(n); d != "" {
		return d
	}
	prev := n.PrevNamedSibling()
	if prev == nil || (prev.Kind() != "table" && prev.Kind() != "table_array_element") {
		return ""
	}
	var lines []string
	boundary := startLine(n)
	kids := namedChildren(prev)
	for i := len(kids) - 1; i >= 0; i-- {
		c := kids[i]
		if c.Kind() != "comment" || boundary-endLine(c) > 1 {
			break
		}
		lines = append([]string{cleanComment(w.f.text(c))}, lines...)
		boundary = startLine(c)
	}
	return strings.TrimSpace(strings.Join(lines, "\n"))
}

func isTOMLKey(kind string) bool {
	switch kind {
	case "bare_key", "quoted_key", "dotted_key":
		return true
	}
	return false
}

func isTOMLValue(kind string) bool {
	switch kind {
	case "string", "integer", "float", "boolean",
		"local_date", "local_time", "local_date_time", "offset_date_time",
		"array", "inline_table":
		return true
	}
	return false
}

// tomlValueType folds TOML's scalar kinds onto the document primitive types.
func tomlValueType(kind string) string {
	switch kind {
	case "string", "local_date", "local_time", "local_date_time", "offset_date_time":
		return valueString
	case "integer", "float":
		return valueNumber
	case "boolean":
		return valueBoolean
	case "array":
		return valueArray
	case "inline_table":
		return valueObject
	}
	return kind
}

// tomlKeyParts splits a possibly dotted key, honoring quotes.
func tomlKeyParts(raw string) []string {
	var parts []string
	var cur strings.Builder
	var quote byte
	escaped := false
	flush := func() {
		if p := tomlUnquoteKey(cur.String()); p != "" {
			parts = append(parts, p)
		}
		cur.Reset()
	}
	for i := 0; i < len(raw); i++ {
		c := raw[i]
		switch {
		case escaped:
			escaped = false
		case quote == '"' && c == '\\':
			escaped = true
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case c == '.':
			flush()
			continue
		}
		cur.WriteByte(c)
	}
	flush()
	return parts
}

func tomlUnquoteKey(raw string) string {
	raw = strings.TrimSpace(raw)
	if len(raw) >= 2 && raw[0] == '"' && raw[len(raw)-1] == '"' {
		if s, err := strconv.Unquote(raw); err == nil {
			return s
		}
		return raw[1 : len(raw)-1]
	}
	if len(raw) >= 2 && raw[0] == '\'' && raw[len(raw)-1] == '\'' {
		return raw[1 : len(raw)-1]
	}
	return raw
}

// tomlNormalize decodes a scalar literal into its canonical text: strings
// unescaped, numbers without underscores or a leading plus, booleans lower
// case, dates as written.
func tomlNormalize(raw string) (string, bool) {
	var doc map[string]any
	if err := toml.Unmarshal([]byte("v = "+strings.TrimSpace(raw)), &doc); err != nil {
		return "", false
	}
	switch v := doc["v"].(type) {
	case string:
		return v, true
	case int64:
		return strconv.FormatInt(v, 10), true
	case float64:
		return strconv.FormatFloat(v, 'g', -1, 64), true
	case bool:
		return strconv.FormatBool(v), true
	case time.Time, toml.LocalDate, toml.LocalTime, toml.LocalDateTime:
		return strings.TrimSpace(raw), true
	}
	return "", false
}

// joinKeys appends each key to parent and returns the final path plus every
// intermediate path.
func joinKeys(parent string, keys []string) (string, []string) {
	var mids []string
	p := parent
	for i, k := range keys {
		p = pathJoinKey(p, k)
		if i < len(keys)-1 {
			mids = append(mids, p)
		}
	}
	return p, mids
}

func (w *tomlWalker) table(n *tree_sitter.Node, array bool) {
	f := w.f
	var keyNode *tree_sitter.Node
	for _, c := range namedChildren(n) {
		if isTOMLKey(c.Kind()) {
			keyNode = c
			break
		}
	}
	if keyNode == nil {
		return
	}
	keys := tomlKeyParts(f.text(keyNode))
	if len(keys) == 0 {
		return
	}
	path, mids := joinKeys(rootPath, keys)
	dotted := strings.Join(keys, ".")

	name, parent := path, rootPath
	if len(mids) > 0 {
		parent = mids[len(mids)-1]
	}
	if array {
		idx := w.arrayCounts[path]
		w.arrayCounts[path]++
		name = pathJoinIndex(path, idx)
		parent = path
	}

	sig := "[" + dotted + "]"
	if array {
		sig = "[" + sig + "]"
	}
	b := f.docNode(name, parent, valueObject, n).
		Kind(symbol.Module).
		Signature(sig).
		Doc(w.tomlDoc(n))
	if array {
		b.Tag("toml", "kind", "table_array")
		b.Tag("toml", "table_array", "path", path)
		b.Tag("toml", "table_array", "index", strconv.Itoa(w.arrayCounts[path]-1))
	} else {
		b.Tag("toml", "kind", "table")
	}
	if prev, ok := w.tables[path]; ok {
		if prev == array {
			if !array {
				b.Tag("toml", "duplicate_table", path)
			}
		} else {
			b.Tag("toml", "table_kind_conflict", path)
		}
	}
	w.tables[path] = array
	if w.seenKeys[path] {
		b.Tag("toml", "table_key_conflict", path)
	}
	for _, m := range mids {
		if w.seenKeys[m] {
			b.Tag("toml", "table_key_conflict", m)
		}
	}
	pairs := findChildrenByKind(n, "pair")
	b.Attr(objectShapeTags("toml", len(pairs))...)
	if scope, dep, ok := tomlDependency(keys); ok {
		b.Tag("toml", "dependency")
		b.Tag("toml", "dep_scope", scope)
		b.Tag("toml", "dep_name", dep)
		w.dependencyFields(b, pairs)
	}
	w.tag(b)
	w.out = append(w.out, b.Build())

	scope := tomlScope{path: name, keys: keys, ancestors: append(append([]string{}, mids...), path, name)}
	w.pairs(pairs, scope)
}

// pairParts returns a pair's key parts and value node.
func (w *tomlWalker) pairParts(pair *tree_sitter.Node) ([]string, *tree_sitter.Node) {
	var keys []string
	var value *tree_sitter.Node
	for _, c := range namedChildren(pair) {
		switch {
		case keys == nil && isTOMLKey(c.Kind()):
			keys = tomlKeyParts(w.f.text(c))
		case value == nil && isTOMLValue(c.Kind()):
			value = c
		}
	}
	return keys, value
}

// pairs walks the pairs of one table. Keys repeated within it are all
// marked duplicate; a key repeating one from an earlier table is marked
// when it is seen again.
func (w *tomlWalker) pairs(pairs []*tree_sitter.Node, scope tomlScope) {
	keys := make([]string, len(pairs))
	for i, p := range pairs {
		parts, _ := w.pairParts(p)
		keys[i] = strings.Join(parts, ".")
	}
	dup := duplicates(keys)
	for i, p := range pairs {
		w.pair(p, scope, dup[keys[i]])
	}
}

func (w *tomlWalker) pair(pair *tree_sitter.Node, scope tomlScope, duplicate bool) {
	f := w.f
	keys, value := w.pairParts(pair)
	if len(keys) == 0 || value == nil {
		return
	}
	path, mids := joinKeys(scope.path, keys)
	dotted := strings.Join(keys, ".")
	parent := scope.path
	if len(mids) > 0 {
		parent = mids[len(mids)-1]
	}

	b := f.docNode(path, parent, tomlValueType(value.Kind()), pair).
		Signature(dotted + " = " + tomlValueSignature(f, value)).
		Doc(w.tomlDoc(pair))
	b.Tag("toml", "key", dotted)
	if norm, ok := tomlNormalize(f.text(value)); ok && value.Kind() != "array" && value.Kind() != "inline_table" {
		b.Tag("toml", "value_normalized", norm)
	}
	if value.Kind() == "integer" || value.Kind() == "float" {
		b.Tag("toml", "number", value.Kind())
	}
	if duplicate || w.seenKeys[path] {
		b.Tag("toml", "duplicate_key", path)
	}
	if _, ok := w.tables[path]; ok {
		b.Tag("toml", "key_table_conflict", path)
	}
	for _, a := range append(append([]string{}, scope.ancestors...), mids...) {
		if w.seenKeys[a] {
			b.Tag("toml", "key_parent_conflict", a)
			break
		}
	}
	for k := range w.seenKeys {
		if strings.HasPrefix(k, path+".") || strings.HasPrefix(k, path+"[") {
			b.Tag("toml", "key_child_conflict", path)
			break
		}
	}
	w.seenKeys[path] = true

	all := append(append([]string(nil), scope.keys...), keys...)
	if dscope, dep, ok := tomlDependency(all); ok {
		b.Tag("toml", "dependency")
		b.Tag("toml", "dep_scope", dscope)
		b.Tag("toml", "dep_name", dep)
		switch value.Kind() {
		case "string":
			if req, ok := tomlNormalize(f.text(value)); ok {
				b.Tag("toml", "dep_req", req)
			}
		case "inline_table":
			w.dependencyFields(b, findChildrenByKind(value, "pair"))
		}
	}
	w.shape(b, value)
	w.tag(b)
	w.out = append(w.out, b.Build())

	inner := scope.child(path, keys...)
	inner.ancestors = append(append(append([]string(nil), scope.ancestors...), mids...), path)
	w.value(value, inner)
}

// tomlValueSignature shows scalars inline and containers by shape.
func tomlValueSignature(f *file, value *tree_sitter.Node) string {
	switch value.Kind() {
	case "inline_table":
		return "{…}"
	case "array":
		return "[…]"
	}
	return f.firstLine(value)
}

func (w *tomlWalker) shape(b *symbol.Builder, value *tree_sitter.Node) {
	switch value.Kind() {
	case "inline_table":
		b.Attr(objectShapeTags("toml", len(findChildrenByKind(value, "pair")))...)
	case "array":
		var types []string
		for _, c := range namedChildren(value) {
			if isTOMLValue(c.Kind()) {
				types = append(types, tomlValueType(c.Kind()))
			}
		}
		b.Attr(arrayShapeTags("toml", types)...)
	}
}

func (w *tomlWalker) value(value *tree_sitter.Node, scope tomlScope) {
	f := w.f
	switch value.Kind() {
	case "inline_table":
		w.pairs(findChildrenByKind(value, "pair"), scope)
	case "array":
		i := 0
		for _, c := range namedChildren(value) {
			if !isTOMLValue(c.Kind()) {
				continue
			}
			path := pathJoinIndex(scope.path, i)
			i++
			b := f.docNode(path, scope.path, tomlValueType(c.Kind()), c).
				Signature(tomlValueSignature(f, c))
			b.Tag("toml", "array_element")
			if c.Kind() != "array" && c.Kind() != "inline_table" {
				if norm, ok := tomlNormalize(f.text(c)); ok {
					b.Tag("toml", "value_normalized", norm)
					if c.Kind() == "string" {
						pep621Dependency(b, scope.keys, norm)
					}
				}
			}
			w.shape(b, c)
			w.tag(b)
			w.out = append(w.out, b.Build())
			if c.Kind() == "array" || c.Kind() == "inline_table" {
				w.value(c, tomlScope{
					path:      path,
					keys:      scope.keys,
					ancestors: append(append([]string(nil), scope.ancestors...), path),
				})
			}
		}
	}
}

// tomlDependency recognizes a Cargo or Poetry dependency by its key chain
// and returns its scope and name.
func tomlDependency(keys []string) (scope, name string, ok bool) {
	n := len(keys)
	switch {
	case n == 2 && (keys[0] == "dependencies" || keys[0] == "dev-dependencies" || keys[0] == "build-dependencies"):
		return "cargo:" + keys[0], keys[1], true
	case n == 3 && keys[0] == "workspace" && keys[1] == "dependencies":
		return "cargo:workspace-dependencies", keys[2], true
	case n == 4 && keys[0] == "target" && strings.HasSuffix(keys[2], "dependencies"):
		return "cargo:target-dependencies", keys[3], true
	case n == 4 && keys[0] == "tool" && keys[1] == "poetry" && (keys[2] == "dependencies" || keys[2] == "dev-dependencies"):
		return "poetry:" + keys[2], keys[3], true
	case n == 6 && keys[0] == "tool" && keys[1] == "poetry" && keys[2] == "group" && keys[4] == "dependencies":
		return "poetry:group:" + keys[3], keys[5], true
	}
	return "", "", false
}

// dependencyFields reads version, source and rename facts from the fields of
// a detailed dependency.
func (w *tomlWalker) dependencyFields(b *symbol.Builder, pairs []*tree_sitter.Node) {
	for _, p := range pairs {
		keys, value := w.pairParts(p)
		if len(keys) != 1 || value == nil {
			continue
		}
		norm, _ := tomlNormalize(w.f.text(value))
		switch keys[0] {
		case "version":
			if norm != "" {
				b.Tag("toml", "dep_req", norm)
			}
		case "path", "git", "workspace", "registry":
			b.Tag("toml", "dep_source", keys[0])
		case "optional":
			if norm == "true" {
				b.Tag("toml", "dep_optional")
			}
		case "package":
			if norm != "" {
				b.Tag("toml", "dep_package", norm)
			}
		}
	}
}

// pep621Dependency tags the requirement strings of a pyproject
// [project] dependency list.
func pep621Dependency(b *symbol.Builder, keys []string, req string) {
	var scope string
	switch {
	case len(keys) == 2 && keys[0] == "project" && keys[1] == "dependencies":
		scope = "pep621:dependencies"
	case len(keys) == 3 && keys[0] == "project" && keys[1] == "optional-dependencies":
		scope = "pep621:optional:" + keys[2]
	default:
		return
	}
	name, spec, ok := pep508(req)
	if !ok {
		return
	}
	b.Tag("toml", "dependency")
	b.Tag("toml", "dep_scope", scope)
	b.Tag("toml", "dep_name", name)
	if spec != "" {
		b.Tag("toml", "dep_req", spec)
	}
}

// pep508 splits "requests>=2.0" into its name and version requirement.
func pep508(req string) (name, spec string, ok bool) {
	req = strings.TrimSpace(req)
	i := strings.IndexAny(req, " \t<>=!~^@;[")
	if i < 0 {
		return req, "", req != ""
	}
	name = strings.TrimSpace(req[:i])
	return name, strings.TrimSpace(req[i:]), name != ""
}
