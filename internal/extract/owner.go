package extract

import (
	"strconv"
	"strings"

	"github.com/DeusData/codebase-symbols/internal/symbol"
)

// ownerFrame names one enclosing symbol.
type ownerFrame struct {
	name string
	kind symbol.Kind
}

// ownerScope is the lexical chain of enclosing symbols carried down a walk,
// innermost last.
type ownerScope []ownerFrame

// push returns a new scope with frame appended; the receiver is not modified.
func (o ownerScope) push(name string, kind symbol.Kind) ownerScope {
	next := make(ownerScope, len(o), len(o)+1)
	copy(next, o)
	return append(next, ownerFrame{name: name, kind: kind})
}

// innermost returns the nearest enclosing frame.
func (o ownerScope) innermost() (ownerFrame, bool) {
	if len(o) == 0 {
		return ownerFrame{}, false
	}
	return o[len(o)-1], true
}

// qualified joins every frame name with sep, e.g. "Outer.Inner".
func (o ownerScope) qualified(sep string) string {
	names := make([]string, len(o))
	for i, fr := range o {
		names[i] = fr.name
	}
	return strings.Join(names, sep)
}

// setOwner records the innermost frame on b, if any.
func (o ownerScope) setOwner(b *symbol.Builder) {
	if fr, ok := o.innermost(); ok {
		b.Member().Owner(fr.name, fr.kind)
	}
}

// Access styles of an assignment target such as "M.f", "M:f" or "M['f']".
const (
	accessDot     = "dot"
	accessColon   = "colon"
	accessBracket = "bracket"
	accessPath    = "path"  // "::"
	accessArrow   = "arrow" // "->"
)

// memberTarget is an assignment or definition target split into owner and member.
type memberTarget struct {
	owner  string
	member string
	access string
	static bool
}

// splitMemberTarget splits the last top-level access in expr. Dot, bracket
// and path access bind a static member; colon and arrow access bind through
// an instance receiver. ok is false when expr has no owner.
func splitMemberTarget(expr string) (memberTarget, bool) {
	expr = strings.TrimSpace(expr)
	if expr == "" {
		return memberTarget{}, false
	}
	if strings.HasSuffix(expr, "]") {
		if open := matchingOpen(expr, len(expr)-1); open > 0 {
			key := strings.TrimSpace(expr[open+1 : len(expr)-1])
			if uq, err := strconv.Unquote(key); err == nil {
				key = uq
			} else if len(key) >= 2 && key[0] == '\'' && key[len(key)-1] == '\'' {
				key = key[1 : len(key)-1]
			}
			if key != "" {
				return memberTarget{owner: strings.TrimSpace(expr[:open]), member: key, access: accessBracket, static: true}, true
			}
		}
		return memberTarget{}, false
	}

	depth := 0
	for i := len(expr) - 1; i > 0; i-- {
		switch expr[i] {
		case ')', ']', '>':
			if expr[i] == '>' && expr[i-1] == '-' && depth == 0 {
				return target(expr[:i-1], expr[i+1:], accessArrow, false)
			}
			depth++
		case '(', '[', '<':
			depth--
		case ':':
			if depth != 0 {
				continue
			}
			if expr[i-1] == ':' {
				return target(expr[:i-1], expr[i+1:], accessPath, true)
			}
			return target(expr[:i], expr[i+1:], accessColon, false)
		case '.':
			if depth == 0 {
				return target(expr[:i], expr[i+1:], accessDot, true)
			}
		}
	}
	return memberTarget{}, false
}

func target(owner, member, access string, static bool) (memberTarget, bool) {
	owner, member = strings.TrimSpace(owner), strings.TrimSpace(member)
	if owner == "" || member == "" {
		return memberTarget{}, false
	}
	return memberTarget{owner: owner, member: member, access: access, static: static}, true
}

// matchingOpen returns the index of the "[" matching the "]" at close.
func matchingOpen(s string, close int) int {
	depth := 0
	for i := close; i >= 0; i-- {
		switch s[i] {
		case ']':
			depth++
		case '[':
			depth--
			if depth == 0 {
				return i
			}
		}
	}
	return -1
}
