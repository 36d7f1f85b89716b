package symbol

// Metadata is the hybrid bag attached to every symbol: typed fields for
// cross-language concepts plus namespaced attribute tags for everything else.
type Metadata struct {
	ReturnType     string   `json:"return_type,omitempty" yaml:"return_type,omitempty"`
	Parameters     []string `json:"parameters,omitempty" yaml:"parameters,omitempty"`
	Fields         []string `json:"fields,omitempty" yaml:"fields,omitempty"`
	Methods        []string `json:"methods,omitempty" yaml:"methods,omitempty"`
	Variants       []string `json:"variants,omitempty" yaml:"variants,omitempty"`
	BaseClasses    []string `json:"base_classes,omitempty" yaml:"base_classes,omitempty"`
	TypeParameters []string `json:"type_parameters,omitempty" yaml:"type_parameters,omitempty"`
	WhereClause    string   `json:"where_clause,omitempty" yaml:"where_clause,omitempty"`
	Generics       string   `json:"generics,omitempty" yaml:"generics,omitempty"`
	TraitName      string   `json:"trait_name,omitempty" yaml:"trait_name,omitempty"`
	ForType        string   `json:"for_type,omitempty" yaml:"for_type,omitempty"`
	OwnerName      string   `json:"owner_name,omitempty" yaml:"owner_name,omitempty"`
	OwnerKind      Kind     `json:"owner_kind,omitempty" yaml:"owner_kind,omitempty"`
	ABI            string   `json:"abi,omitempty" yaml:"abi,omitempty"`
	Decorators     []string `json:"decorators,omitempty" yaml:"decorators,omitempty"`

	IsAsync         bool `json:"is_async,omitempty" yaml:"is_async,omitempty"`
	IsGenerator     bool `json:"is_generator,omitempty" yaml:"is_generator,omitempty"`
	IsExported      bool `json:"is_exported,omitempty" yaml:"is_exported,omitempty"`
	IsDefaultExport bool `json:"is_default_export,omitempty" yaml:"is_default_export,omitempty"`
	IsErrorType     bool `json:"is_error_type,omitempty" yaml:"is_error_type,omitempty"`
	IsStaticMember  bool `json:"is_static_member,omitempty" yaml:"is_static_member,omitempty"`
	IsUnsafe        bool `json:"is_unsafe,omitempty" yaml:"is_unsafe,omitempty"`
	IsAbstract      bool `json:"is_abstract,omitempty" yaml:"is_abstract,omitempty"`

	DocSections *DocSections `json:"doc_sections,omitempty" yaml:"doc_sections,omitempty"`

	// Attributes holds "<ns>:<fact>[:<value>]" tags, e.g. "go:variadic".
	Attributes []string `json:"attributes,omitempty" yaml:"attributes,omitempty"`
}

// DocSections is a structured breakdown of a doc comment.
type DocSections struct {
	Errors   string            `json:"errors,omitempty" yaml:"errors,omitempty"`
	Panics   string            `json:"panics,omitempty" yaml:"panics,omitempty"`
	Safety   string            `json:"safety,omitempty" yaml:"safety,omitempty"`
	Examples string            `json:"examples,omitempty" yaml:"examples,omitempty"`
	Returns  string            `json:"returns,omitempty" yaml:"returns,omitempty"`
	Yields   string            `json:"yields,omitempty" yaml:"yields,omitempty"`
	Notes    string            `json:"notes,omitempty" yaml:"notes,omitempty"`
	Args     map[string]string `json:"args,omitempty" yaml:"args,omitempty"`
	Raises   map[string]string `json:"raises,omitempty" yaml:"raises,omitempty"`
}

// Empty reports whether no section was populated.
func (d *DocSections) Empty() bool {
	return d == nil || (d.Errors == "" && d.Panics == "" && d.Safety == "" &&
		d.Examples == "" && d.Returns == "" && d.Yields == "" && d.Notes == "" &&
		len(d.Args) == 0 && len(d.Raises) == 0)
}

// HasAttr reports whether the exact tag is present.
func (m Metadata) HasAttr(tag string) bool {
	for _, a := range m.Attributes {
		if a == tag {
			return true
		}
	}
	return false
}

func (m Metadata) clone() Metadata {
	c := m
	c.Parameters = cloneStrings(m.Parameters)
	c.Fields = cloneStrings(m.Fields)
	c.Methods = cloneStrings(m.Methods)
	c.Variants = cloneStrings(m.Variants)
	c.BaseClasses = cloneStrings(m.BaseClasses)
	c.TypeParameters = cloneStrings(m.TypeParameters)
	c.Decorators = cloneStrings(m.Decorators)
	c.Attributes = cloneStrings(m.Attributes)
	if m.DocSections != nil {
		ds := *m.DocSections
		ds.Args = cloneMap(m.DocSections.Args)
		ds.Raises = cloneMap(m.DocSections.Raises)
		c.DocSections = &ds
	}
	return c
}

func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s))
	copy(out, s)
	return out
}

func cloneMap(m map[string]string) map[string]string {
	if m == nil {
		return nil
	}
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v
	}
	return out
}
