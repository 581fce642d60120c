package pointer

import "fmt"

// FieldKind classifies a Field key (spec.md §3, §4.2).
type FieldKind int

const (
	FieldAttr FieldKind = iota
	FieldElem
	FieldValue
	FieldPosition
	FieldKeyed
	FieldUnknown
)

// Field is a value-typed heap key: an attribute, a container element slot,
// a dict value slot, a positional slot, a string-keyed slot, or the
// conservative "unknown" slot used when an attribute name can't be
// determined statically (e.g. a dynamic getattr). Two fields are equal iff
// their kinds match and all present discriminators match — this falls out
// of ordinary Go struct equality because unused discriminators are always
// left at their zero value by the constructors below.
type Field struct {
	Kind  FieldKind
	Name  string
	Index int
}

// Attr builds an attribute field key. name must be non-empty.
func Attr(name string) Field { return Field{Kind: FieldAttr, Name: name} }

// Elem builds the generic container-element field key (lists, sets,
// tuples, and iterators all flow through this single slot; spec.md §4.2).
func Elem() Field { return Field{Kind: FieldElem} }

// Value builds the dict-value field key.
func Value() Field { return Field{Kind: FieldValue} }

// Position builds a positional field key, e.g. for tuple-unpacking.
func Position(i int) Field { return Field{Kind: FieldPosition, Index: i} }

// Key builds a string-keyed field key, used when a subscript's index is a
// known constant string.
func Key(name string) Field { return Field{Kind: FieldKeyed, Name: name} }

// Unknown builds the conservative fallback field key.
func Unknown() Field { return Field{Kind: FieldUnknown} }

func (f Field) String() string {
	switch f.Kind {
	case FieldAttr:
		return fmt.Sprintf(".%s", f.Name)
	case FieldElem:
		return "[*]"
	case FieldValue:
		return "{value}"
	case FieldPosition:
		return fmt.Sprintf("[%d]", f.Index)
	case FieldKeyed:
		return fmt.Sprintf("[%q]", f.Name)
	default:
		return "[?]"
	}
}
