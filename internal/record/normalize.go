package record

import (
	"fmt"
	"strings"

	"github.com/redcap-tools/redcap-pdf-fill/internal/redcap"
)

// CheckboxSeparator is the token REDCap inserts between a checkbox field's
// name and the choice id in flat record keys ("cb_1___3").
const CheckboxSeparator = "___"

// RadioChoiceSuffix names the synthetic text key carrying a radio field's
// selected raw value. Some PDF templates represent a REDCap radio button as
// a plain text box; naming the PDF field "{radio}__rchoice" bridges the two.
const RadioChoiceSuffix = "__rchoice"

// Stats counts the conversions a normalization pass performed.
type Stats struct {
	CheckboxesConverted int
	RadiosConverted     int
	BridgeKeysAdded     int
	GroupsCollapsed     int
}

// ChoiceLookupError indicates a dropdown raw value with no display text in
// the project's choice map, i.e. mismatched metadata and record.
type ChoiceLookupError struct {
	Field    string
	RawValue string
}

func (e *ChoiceLookupError) Error() string {
	return fmt.Sprintf("dropdown field %q: no display text for raw value %q (metadata/record mismatch)",
		e.Field, e.RawValue)
}

// GroupTypeError indicates a radio-group entry that does not hold a choice
// selection mapping, or is missing from the record entirely.
type GroupTypeError struct {
	Group   string
	Value   Value
	Missing bool
}

func (e *GroupTypeError) Error() string {
	if e.Missing {
		return fmt.Sprintf("radio button group %q missing from record", e.Group)
	}
	return fmt.Sprintf("radio button group %q should hold a choice mapping of boolean values, got %s: %s",
		e.Group, e.Value.Kind, e.Value)
}

// GroupSelectionError indicates a radio group whose selection does not
// contain exactly one true value.
type GroupSelectionError struct {
	Group  string
	Choice map[string]bool
}

func (e *GroupSelectionError) Error() string {
	return fmt.Sprintf("radio button group %q should contain exactly 1 true value: %v", e.Group, e.Choice)
}

// Normalize runs the full conversion pipeline on a raw record, each stage
// exactly once: checkbox/radio conversion, then dropdown display-text
// substitution, then radio-group collapse. The stage order is significant;
// dropdown conversion needs raw values still present, and the collapse
// establishes the invariant that every radio group holds exactly one true
// selection.
func Normalize(raw redcap.RawRecord, md redcap.Metadata) (Record, Stats, error) {
	rec, stats := ConvertChoices(raw, md)
	if err := ConvertDropdowns(rec, md); err != nil {
		return nil, stats, err
	}
	collapsed, err := CollapseRadioGroups(rec, md)
	if err != nil {
		return nil, stats, err
	}
	stats.GroupsCollapsed = collapsed
	return rec, stats, nil
}

// ConvertChoices retypes checkbox and radio entries of a raw record.
// Checkbox sub-option keys ("{field}___{choice}") become booleans, true iff
// the raw string is "1". Radio keys become one-entry choice maps
// {rawValue: true}; a non-empty raw value additionally stages a
// "{field}__rchoice" text key. Staged keys are collected in a delta map and
// merged only after the full pass, so they are never themselves inspected
// for conversion. Everything else passes through as text.
func ConvertChoices(raw redcap.RawRecord, md redcap.Metadata) (Record, Stats) {
	radios, checkboxes := md.ClassifyFields()

	rec := make(Record, len(raw))
	delta := make(Record)
	var stats Stats

	for key, rawValue := range raw {
		tokens := strings.Split(key, CheckboxSeparator)
		switch {
		case len(tokens) > 1 && checkboxes[tokens[0]]:
			rec[key] = Bool(rawValue == "1")
			stats.CheckboxesConverted++
		case radios[key]:
			rec[key] = Choice(map[string]bool{rawValue: true})
			stats.RadiosConverted++
			if rawValue != "" {
				delta[key+RadioChoiceSuffix] = Text(rawValue)
			}
		default:
			rec[key] = Text(rawValue)
		}
	}

	for key, value := range delta {
		rec[key] = value
		stats.BridgeKeysAdded++
	}
	return rec, stats
}

// ConvertDropdowns replaces every non-empty dropdown value with its display
// text from the project's choice map. A raw value with no display text is a
// metadata/record mismatch and fails loudly.
func ConvertDropdowns(rec Record, md redcap.Metadata) error {
	choiceText := md.ChoiceTextMap()
	for _, field := range md {
		if field.FieldType != redcap.FieldTypeDropdown {
			continue
		}
		value, ok := rec[field.FieldName]
		if !ok || value.Kind != KindText || value.Text == "" {
			continue
		}
		display, ok := choiceText[field.FieldName][value.Text]
		if !ok {
			return &ChoiceLookupError{Field: field.FieldName, RawValue: value.Text}
		}
		rec[field.FieldName] = Text(display)
	}
	return nil
}

// CollapseRadioGroups validates every radio group declared in metadata and
// reduces it to a single-entry selection, returning how many groups were
// collapsed. A group that is not a choice mapping is a *GroupTypeError; a
// group without exactly one true value is a *GroupSelectionError.
func CollapseRadioGroups(rec Record, md redcap.Metadata) (int, error) {
	collapsed := 0
	for _, field := range md {
		if field.FieldType != redcap.FieldTypeRadio {
			continue
		}
		value, ok := rec[field.FieldName]
		if !ok {
			return collapsed, &GroupTypeError{Group: field.FieldName, Missing: true}
		}
		if value.Kind != KindChoice {
			return collapsed, &GroupTypeError{Group: field.FieldName, Value: value}
		}

		selected := ""
		trueCount := 0
		for choice, on := range value.Choice {
			if on {
				selected = choice
				trueCount++
			}
		}
		if trueCount != 1 {
			return collapsed, &GroupSelectionError{Group: field.FieldName, Choice: value.Choice}
		}
		if len(value.Choice) > 1 {
			rec[field.FieldName] = Choice(map[string]bool{selected: true})
			collapsed++
		}
	}
	return collapsed, nil
}
