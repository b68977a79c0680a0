package pdfform

import (
	"fmt"
	"strings"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
)

// widget is one Widget annotation encountered during a tree walk, together
// with the field-name state the fill and discovery rules need. A widget
// either owns its field name directly (an isolated field) or inherits it
// from its parent (a grouped field replicated across pages or variants).
type widget struct {
	annot      types.Dict
	parent     types.Dict // nil unless the annotation references a parent
	name       string     // the annotation's own /T, untruncated
	parentName string     // the parent's /T, untruncated
}

// isolated reports whether the widget carries its own field name.
func (w widget) isolated() bool {
	return w.name != ""
}

// grouped reports whether the widget inherits its field name from a parent.
func (w widget) grouped() bool {
	return w.name == "" && w.parentName != ""
}

// walkWidgets visits every Widget annotation of every page in document
// order. Annotations that are not widgets, or that carry neither an own nor
// an inherited field name, are not recognized as fillable and are skipped.
func (d *Document) walkWidgets(visit func(w widget) error) error {
	for pageNr := 1; pageNr <= d.ctx.PageCount; pageNr++ {
		pageDict, _, _, err := d.ctx.PageDict(pageNr, false)
		if err != nil {
			return fmt.Errorf("failed to get page %d: %w", pageNr, err)
		}
		if pageDict == nil {
			continue
		}

		annotsObj, found := pageDict.Find("Annots")
		if !found {
			continue
		}
		annots, err := d.ctx.DereferenceArray(annotsObj)
		if err != nil {
			return fmt.Errorf("failed to dereference annotations of page %d: %w", pageNr, err)
		}

		for _, annotObj := range annots {
			annotDict, err := d.ctx.DereferenceDict(annotObj)
			if err != nil || annotDict == nil {
				continue
			}
			if !d.isWidget(annotDict) {
				continue
			}

			w := widget{
				annot: annotDict,
				name:  d.fieldName(annotDict),
			}
			if parentObj, found := annotDict.Find("Parent"); found {
				if parentDict, err := d.ctx.DereferenceDict(parentObj); err == nil && parentDict != nil {
					w.parent = parentDict
					w.parentName = d.fieldName(parentDict)
				}
			}
			if !w.isolated() && !w.grouped() {
				continue
			}

			if err := visit(w); err != nil {
				return err
			}
		}
	}
	return nil
}

// isWidget reports whether an annotation has subtype Widget.
func (d *Document) isWidget(annotDict types.Dict) bool {
	subtypeObj, found := annotDict.Find("Subtype")
	if !found {
		return false
	}
	subtype, err := d.ctx.DereferenceName(subtypeObj, model.V10, nil)
	return err == nil && subtype == "Widget"
}

// fieldName extracts a dictionary's /T entry, or "" if absent.
func (d *Document) fieldName(dict types.Dict) string {
	nameObj, found := dict.Find("T")
	if !found {
		return ""
	}
	name, err := d.ctx.DereferenceStringOrHexLiteral(nameObj, model.V10, nil)
	if err != nil {
		return ""
	}
	return name
}

// appearanceStates returns the named appearance states a widget's /AP entry
// declares as selectable. The down-appearance dictionary (/D) is consulted
// first, falling back to the normal-appearance dictionary (/N).
func (d *Document) appearanceStates(annotDict types.Dict) map[string]bool {
	apObj, found := annotDict.Find("AP")
	if !found {
		return nil
	}
	apDict, err := d.ctx.DereferenceDict(apObj)
	if err != nil || apDict == nil {
		return nil
	}

	for _, key := range []string{"D", "N"} {
		statesObj, found := apDict.Find(key)
		if !found {
			continue
		}
		statesDict, err := d.ctx.DereferenceDict(statesObj)
		if err != nil || statesDict == nil {
			continue
		}
		states := make(map[string]bool, len(statesDict))
		for state := range statesDict {
			states[state] = true
		}
		return states
	}
	return nil
}

// logicalName truncates a field name at the checkbox separator, mapping a
// checkbox sub-option widget ("cb_1___3") to its group name ("cb_1").
func logicalName(name string) string {
	if idx := strings.Index(name, CheckboxSeparator); idx >= 0 {
		return name[:idx]
	}
	return name
}

// CheckboxSeparator is the token REDCap inserts between a checkbox field
// name and its choice id when naming per-choice widgets.
const CheckboxSeparator = "___"
