package symbol

import "strings"

// Builder assembles one Symbol. Language families reach the shared Metadata
// through the narrow facades returned by Callable, Shape, Member, Export and
// Document; Build freezes the result.
type Builder struct {
	s Symbol
}

// New starts a symbol of the given kind and name with Private visibility.
func New(kind Kind, name string) *Builder {
	return &Builder{s: Symbol{Kind: kind, Name: name, Visibility: Private}}
}

// From starts a replacement record seeded with a deep copy of s.
func From(s Symbol) *Builder {
	c := s
	c.Metadata = s.Metadata.clone()
	return &Builder{s: c}
}

func (b *Builder) Kind(k Kind) *Builder {
	b.s.Kind = k
	return b
}

func (b *Builder) Name(name string) *Builder {
	b.s.Name = name
	return b
}

// Signature stores sig with runs of whitespace collapsed to single spaces.
func (b *Builder) Signature(sig string) *Builder {
	b.s.Signature = CollapseSpace(sig)
	return b
}

func (b *Builder) Source(src string) *Builder {
	b.s.Source = src
	return b
}

func (b *Builder) Doc(doc string) *Builder {
	b.s.DocComment = doc
	return b
}

// Lines sets the 1-based inclusive line range, clamping it so that
// start >= 1 and end >= start.
func (b *Builder) Lines(start, end int) *Builder {
	if start < 1 {
		start = 1
	}
	if end < start {
		end = start
	}
	b.s.StartLine, b.s.EndLine = start, end
	return b
}

func (b *Builder) Visibility(v Visibility) *Builder {
	b.s.Visibility = v
	return b
}

// Attr appends raw attribute tags, skipping empties and duplicates.
func (b *Builder) Attr(tags ...string) *Builder {
	for _, t := range tags {
		if t == "" || b.s.Metadata.HasAttr(t) {
			continue
		}
		b.s.Metadata.Attributes = append(b.s.Metadata.Attributes, t)
	}
	return b
}

// Tag appends the attribute "<ns>:<fact>[:<value>...]".
func (b *Builder) Tag(ns, fact string, value ...string) *Builder {
	parts := append([]string{ns, fact}, value...)
	return b.Attr(strings.Join(parts, ":"))
}

// DocSections attaches parsed doc sections; empty sections are dropped.
func (b *Builder) DocSections(ds *DocSections) *Builder {
	if ds.Empty() {
		return b
	}
	b.s.Metadata.DocSections = ds
	return b
}

// Peek returns a copy of the symbol under construction.
func (b *Builder) Peek() Symbol {
	return From(b.s).s
}

// Build returns the finished symbol.
func (b *Builder) Build() Symbol {
	b.Lines(b.s.StartLine, b.s.EndLine)
	return From(b.s).s
}

// Callable exposes the metadata surface for functions, methods and macros.
func (b *Builder) Callable() Callable { return Callable{m: &b.s.Metadata} }

// Shape exposes the metadata surface for composite types.
func (b *Builder) Shape() Shape { return Shape{m: &b.s.Metadata} }

// Member exposes the owner back-reference surface.
func (b *Builder) Member() Member { return Member{m: &b.s.Metadata} }

// Export exposes the module export surface.
func (b *Builder) Export() Exports { return Exports{m: &b.s.Metadata} }

// Document exposes the surface for document-tree formats.
func (b *Builder) Document() Document { return Document{m: &b.s.Metadata} }

// Callable sets function-shaped metadata.
type Callable struct{ m *Metadata }

func (c Callable) Returns(t string) Callable {
	c.m.ReturnType = CollapseSpace(t)
	return c
}

func (c Callable) Params(params ...string) Callable {
	for _, p := range params {
		if p = CollapseSpace(p); p != "" {
			c.m.Parameters = append(c.m.Parameters, p)
		}
	}
	return c
}

func (c Callable) TypeParams(tps ...string) Callable {
	c.m.TypeParameters = append(c.m.TypeParameters, tps...)
	return c
}

func (c Callable) Generics(g string) Callable {
	c.m.Generics = CollapseSpace(g)
	return c
}

func (c Callable) Where(w string) Callable {
	c.m.WhereClause = CollapseSpace(w)
	return c
}

func (c Callable) ABI(abi string) Callable {
	c.m.ABI = abi
	return c
}

func (c Callable) Async(v bool) Callable {
	c.m.IsAsync = v
	return c
}

func (c Callable) Generator(v bool) Callable {
	c.m.IsGenerator = v
	return c
}

func (c Callable) Unsafe(v bool) Callable {
	c.m.IsUnsafe = v
	return c
}

func (c Callable) Decorators(d ...string) Callable {
	c.m.Decorators = append(c.m.Decorators, d...)
	return c
}

// Shape sets type-shaped metadata.
type Shape struct{ m *Metadata }

func (s Shape) Fields(f ...string) Shape {
	s.m.Fields = append(s.m.Fields, f...)
	return s
}

func (s Shape) Methods(names ...string) Shape {
	s.m.Methods = append(s.m.Methods, names...)
	return s
}

func (s Shape) Variants(v ...string) Shape {
	s.m.Variants = append(s.m.Variants, v...)
	return s
}

func (s Shape) Bases(bases ...string) Shape {
	for _, base := range bases {
		if base = CollapseSpace(base); base != "" {
			s.m.BaseClasses = append(s.m.BaseClasses, base)
		}
	}
	return s
}

func (s Shape) TypeParams(tps ...string) Shape {
	s.m.TypeParameters = append(s.m.TypeParameters, tps...)
	return s
}

func (s Shape) Generics(g string) Shape {
	s.m.Generics = CollapseSpace(g)
	return s
}

// Implements records a trait-implementation pairing.
func (s Shape) Implements(trait, forType string) Shape {
	s.m.TraitName = CollapseSpace(trait)
	s.m.ForType = CollapseSpace(forType)
	return s
}

func (s Shape) ErrorType(v bool) Shape {
	s.m.IsErrorType = v
	return s
}

func (s Shape) Abstract(v bool) Shape {
	s.m.IsAbstract = v
	return s
}

func (s Shape) Decorators(d ...string) Shape {
	s.m.Decorators = append(s.m.Decorators, d...)
	return s
}

// Member sets the owner back-reference of a member-like symbol.
type Member struct{ m *Metadata }

func (o Member) Owner(name string, kind Kind) Member {
	o.m.OwnerName = name
	o.m.OwnerKind = kind
	return o
}

func (o Member) Static(v bool) Member {
	o.m.IsStaticMember = v
	return o
}

// Exports sets module export flags.
type Exports struct{ m *Metadata }

func (e Exports) Exported(v bool) Exports {
	e.m.IsExported = v
	return e
}

func (e Exports) Default(v bool) Exports {
	e.m.IsDefaultExport = v
	return e
}

// Document sets metadata for document-tree nodes.
type Document struct{ m *Metadata }

// ValueType records the normalized primitive or container type of the node.
func (d Document) ValueType(t string) Document {
	d.m.ReturnType = t
	return d
}

// Parent records the path of the enclosing node, which is always a Module
// owner.
func (d Document) Parent(path string) Document {
	d.m.OwnerName = path
	d.m.OwnerKind = Module
	return d
}

// CollapseSpace trims s and replaces every whitespace run with one space.
func CollapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
