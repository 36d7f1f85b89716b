package extract

import (
	"sort"
	"strconv"
	"strings"

	tree_sitter "github.com/tree-sitter/go-tree-sitter"

	"github.com/DeusData/codebase-symbols/internal/symbol"
)

// rootPath names the root of a document tree.
const rootPath = "$"

// Normalized value types for document nodes.
const (
	valueString  = "string"
	valueNumber  = "number"
	valueBoolean = "boolean"
	valueNull    = "null"
	valueObject  = "object"
	valueArray   = "array"
)

// isIdentifierKey reports whether key can be addressed with dot syntax.
func isIdentifierKey(key string) bool {
	if key == "" {
		return false
	}
	for i := 0; i < len(key); i++ {
		c := key[i]
		switch {
		case c == '_', c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9' && i > 0:
		default:
			return false
		}
	}
	return true
}

// pathJoinKey appends an object key to parent: ".key" for identifier keys,
// a quoted ["key"] segment otherwise. Children of the root omit the "$".
func pathJoinKey(parent, key string) string {
	if isIdentifierKey(key) {
		if parent == rootPath {
			return key
		}
		return parent + "." + key
	}
	seg := "[" + strconv.Quote(key) + "]"
	if parent == rootPath {
		return seg
	}
	return parent + seg
}

// pathJoinIndex appends a sequence index to parent.
func pathJoinIndex(parent string, i int) string {
	seg := "[" + strconv.Itoa(i) + "]"
	if parent == rootPath {
		return seg
	}
	return parent + seg
}

// docNode starts the record for one addressable document node.
func (f *file) docNode(path, parent, valueType string, n *tree_sitter.Node) *symbol.Builder {
	kind := symbol.Property
	if path == parent {
		kind = symbol.Module
	}
	b := f.symbol(kind, path, n).Visibility(symbol.Public)
	b.Document().ValueType(valueType)
	if parent != "" && path != parent {
		b.Document().Parent(parent)
	}
	return b
}

// docRoot starts the record for a document root.
func (f *file) docRoot(path, valueType string, n *tree_sitter.Node) *symbol.Builder {
	return f.docNode(path, path, valueType, n)
}

// objectShapeTags returns the key-count tag for a mapping.
func objectShapeTags(ns string, keys int) []string {
	return []string{ns + ":object_keys:" + strconv.Itoa(keys)}
}

// arrayShapeTags describes the element types of a sequence: its count, the
// sorted distinct non-null element types, and mixed/nullable flags.
func arrayShapeTags(ns string, elemTypes []string) []string {
	tags := []string{ns + ":array_count:" + strconv.Itoa(len(elemTypes))}
	if len(elemTypes) == 0 {
		return append(tags, ns+":array_elements:empty")
	}
	seen := map[string]bool{}
	var distinct []string
	nullable := false
	for _, t := range elemTypes {
		if t == valueNull {
			nullable = true
			continue
		}
		if !seen[t] {
			seen[t] = true
			distinct = append(distinct, t)
		}
	}
	sort.Strings(distinct)
	if len(distinct) == 0 {
		distinct = []string{valueNull}
	}
	tags = append(tags, ns+":array_elements:"+strings.Join(distinct, "|"))
	if len(distinct) > 1 {
		tags = append(tags, ns+":array_mixed")
	}
	if nullable {
		tags = append(tags, ns+":array_nullable")
	}
	return tags
}

// duplicates returns the keys appearing more than once.
func duplicates(keys []string) map[string]bool {
	count := make(map[string]int, len(keys))
	for _, k := range keys {
		count[k]++
	}
	dup := map[string]bool{}
	for k, c := range count {
		if c > 1 {
			dup[k] = true
		}
	}
	return dup
}

// numberTag classifies a numeric literal as integer or float.
func numberTag(ns, lit string) string {
	if strings.ContainsAny(lit, ".eE") && !strings.HasPrefix(lit, "0x") && !strings.HasPrefix(lit, "0X") {
		return ns + ":number:float"
	}
	return ns + ":number:integer"
}
