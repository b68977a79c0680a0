package pdfform

import (
	"fmt"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"

	"github.com/redcap-tools/redcap-pdf-fill/internal/record"
)

// Checkbox appearance-state tokens.
const (
	checkOn  = "Yes"
	checkOff = "Off"
)

// FillResult reports what a fill pass did to the template's widgets.
type FillResult struct {
	TextWidgets     int
	CheckboxWidgets int
	RadioWidgets    int
	SkippedWidgets  int
}

// Fill walks every widget annotation, mirroring the discovery traversal, and
// writes the matching normalized record value into each. Widgets whose
// logical name is absent from the record are left untouched; a template may
// legitimately carry more fields than the record supplies, and vice versa.
func (d *Document) Fill(rec record.Record) (FillResult, error) {
	var res FillResult

	err := d.walkWidgets(func(w widget) error {
		key := w.name
		if w.grouped() {
			key = logicalName(w.parentName)
		}
		value, ok := rec[key]
		if !ok {
			res.SkippedWidgets++
			return nil
		}

		var states map[string]bool
		if w.grouped() && value.Kind == record.KindChoice {
			states = d.appearanceStates(w.annot)
		}
		return applyValue(w, value, states, &res)
	})
	if err != nil {
		return res, err
	}
	return res, nil
}

// applyValue mutates a single widget's state according to the record value
// bound to its logical field name.
func applyValue(w widget, value record.Value, states map[string]bool, res *FillResult) error {
	if w.isolated() {
		if value.Kind == record.KindBool {
			setCheckState(w.annot, value.Bool)
			res.CheckboxWidgets++
			return nil
		}
		// Anything that is not a checkbox state is written as text.
		if err := setTextValue(w.annot, value.String()); err != nil {
			return fmt.Errorf("field %q: %w", w.name, err)
		}
		res.TextWidgets++
		return nil
	}

	switch value.Kind {
	case record.KindChoice:
		selected, ok := singleChoice(value.Choice)
		if !ok {
			res.SkippedWidgets++
			return nil
		}
		if !states[selected] {
			// This widget's page does not offer the chosen state.
			res.SkippedWidgets++
			return nil
		}
		w.parent["V"] = types.Name(selected)
		w.annot["AS"] = types.Name(selected)
		res.RadioWidgets++
	case record.KindBool:
		// A checkbox linked across pages behaves like an isolated one.
		setCheckState(w.annot, value.Bool)
		res.CheckboxWidgets++
	default:
		// A text field linked across pages carries its value on the parent.
		if err := setTextValue(w.parent, value.Text); err != nil {
			return fmt.Errorf("field %q: %w", w.parentName, err)
		}
		res.TextWidgets++
	}
	return nil
}

// setCheckState switches a checkbox widget's value and appearance state.
func setCheckState(annotDict types.Dict, on bool) {
	token := checkOff
	if on {
		token = checkOn
	}
	annotDict["AS"] = types.Name(token)
	annotDict["V"] = types.Name(token)
}

// setTextValue writes a text value and drops any cached appearance stream so
// the viewer regenerates it.
func setTextValue(dict types.Dict, text string) error {
	escaped, err := types.EscapedUTF16String(text)
	if err != nil {
		return fmt.Errorf("failed to encode text value: %w", err)
	}
	dict["V"] = types.StringLiteral(*escaped)
	dict.Delete("AP")
	return nil
}

// singleChoice extracts the selected raw value from a collapsed radio-group
// selection.
func singleChoice(choice map[string]bool) (string, bool) {
	for selected := range choice {
		return selected, true
	}
	return "", false
}
