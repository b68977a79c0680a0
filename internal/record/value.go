// Package record transforms a raw REDCap record into the semantically typed
// form the PDF filler consumes: checkbox booleans, single-selection radio
// choice maps, and dropdown display text.
package record

import "fmt"

// Kind discriminates the variants a normalized record value can take.
type Kind int

const (
	// KindText is a plain text value, written to text widgets verbatim.
	KindText Kind = iota
	// KindBool is a checkbox state.
	KindBool
	// KindChoice is a radio-group selection: raw choice value → selected.
	KindChoice
)

func (k Kind) String() string {
	switch k {
	case KindText:
		return "text"
	case KindBool:
		return "bool"
	case KindChoice:
		return "choice"
	default:
		return "unknown"
	}
}

// Value is one normalized record entry. Exactly one variant is meaningful,
// selected by Kind; consumers switch on Kind exhaustively instead of doing
// dynamic type checks.
type Value struct {
	Kind   Kind
	Text   string
	Bool   bool
	Choice map[string]bool
}

// Text wraps a plain text value.
func Text(s string) Value { return Value{Kind: KindText, Text: s} }

// Bool wraps a checkbox state.
func Bool(b bool) Value { return Value{Kind: KindBool, Bool: b} }

// Choice wraps a radio-group selection map.
func Choice(selected map[string]bool) Value {
	return Value{Kind: KindChoice, Choice: selected}
}

func (v Value) String() string {
	switch v.Kind {
	case KindBool:
		return fmt.Sprintf("%t", v.Bool)
	case KindChoice:
		return fmt.Sprintf("%v", v.Choice)
	default:
		return v.Text
	}
}

// Record is a normalized REDCap record: the raw record's keyspace plus the
// synthetic "__rchoice" bridge keys added for radio fields.
type Record map[string]Value
