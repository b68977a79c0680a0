package redcap

import "strings"

// ClassifyFields partitions the dictionary's field names by type and returns
// the radio-button field names and the checkbox field names.
func (md Metadata) ClassifyFields() (radios, checkboxes map[string]bool) {
	radios = make(map[string]bool)
	checkboxes = make(map[string]bool)
	for _, field := range md {
		switch field.FieldType {
		case FieldTypeRadio:
			radios[field.FieldName] = true
		case FieldTypeCheckbox:
			checkboxes[field.FieldName] = true
		}
	}
	return radios, checkboxes
}

// FieldTypeOf returns the declared type of a single field, or "" if the
// dictionary does not define it. If a name appears more than once the last
// entry wins; REDCap guarantees unique names, so this is a data-quality
// assumption rather than a precedence rule.
func (md Metadata) FieldTypeOf(name string) string {
	fieldType := ""
	for _, field := range md {
		if field.FieldName == name {
			fieldType = field.FieldType
		}
	}
	return fieldType
}

// ChoiceTextMap maps every multiple-choice field name to its raw-value →
// display-text mapping, parsed from the encoded choice string
//
//	"{raw_value}, {display_text} | {raw_value}, {display_text} | ..."
//
// Display text may itself contain ", ", so only the first comma-space token
// is treated as the raw value. Fields without a non-empty choice string are
// omitted.
func (md Metadata) ChoiceTextMap() map[string]map[string]string {
	texts := make(map[string]map[string]string)
	for _, field := range md {
		if field.SelectChoices == "" {
			continue
		}
		texts[field.FieldName] = parseChoices(field.SelectChoices)
	}
	return texts
}

func parseChoices(encoded string) map[string]string {
	choices := strings.Split(encoded, " | ")
	if len(choices) == 1 {
		// REDCap sometimes omits the spaces around the separating bar.
		choices = strings.Split(encoded, "|")
	}
	options := make(map[string]string, len(choices))
	for _, choice := range choices {
		fragments := strings.Split(strings.TrimSpace(choice), ", ")
		options[fragments[0]] = strings.Join(fragments[1:], ", ")
	}
	return options
}
