// Package model defines core data structures for scopetags.
package model

// Suffix is the parser-assigned category of a descriptor.
type Suffix int

const (
	SuffixOther Suffix = iota
	SuffixNamespace
	SuffixPackage
	SuffixType
	SuffixMethod
	SuffixTerm
)

func (s Suffix) String() string {
	switch s {
	case SuffixNamespace:
		return "namespace"
	case SuffixPackage:
		return "package"
	case SuffixType:
		return "type"
	case SuffixMethod:
		return "method"
	case SuffixTerm:
		return "term"
	default:
		return "other"
	}
}

// Descriptor is one qualifying name segment of a symbol.
type Descriptor struct {
	Name   string
	Suffix Suffix
}

// Range is a 0-based [start, end] line span.
type Range [2]int

// Scope is a lexical or namespace node. The root scope of a file has no
// descriptors. Children and Globals keep source order.
type Scope struct {
	Descriptors []Descriptor
	Range       Range
	Children    []*Scope
	Globals     []LeafSymbol
}

// LeafSymbol is a symbol declared directly inside a scope that is not itself
// a scope. Descriptors is never empty.
type LeafSymbol struct {
	Descriptors []Descriptor
	Range       Range
}

// Kind is the coarse classification reported on a tag.
type Kind string

const (
	Namespace Kind = "namespace"
	Package   Kind = "package"
	Method    Kind = "method"
	Type      Kind = "type"
	Variable  Kind = "variable"
)

// Tag is a single flat symbol record. Line is 1-based. A nil Scope means the
// symbol sits at file level.
type Tag struct {
	Name     string  `json:"name"`
	Path     string  `json:"path"`
	Language string  `json:"language"`
	Line     int     `json:"line"`
	Kind     Kind    `json:"kind"`
	Scope    *string `json:"scope"`
}
