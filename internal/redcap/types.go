// Package redcap provides a minimal REDCap API client plus accessors for the
// project metadata ("data dictionary") that drives record normalization.
package redcap

// Field types as reported by the REDCap metadata endpoint.
const (
	FieldTypeText     = "text"
	FieldTypeRadio    = "radio"
	FieldTypeCheckbox = "checkbox"
	FieldTypeDropdown = "dropdown"
)

// FieldMetadata is one entry of a project's data dictionary.
// Only the attributes the fill pipeline consumes are modeled.
type FieldMetadata struct {
	FieldName     string `json:"field_name"`
	FieldType     string `json:"field_type"`
	SelectChoices string `json:"select_choices_or_calculations,omitempty"`
}

// Metadata is a project's full field-metadata list, in REDCap's order.
type Metadata []FieldMetadata

// RawRecord is a single flat record as returned by the REDCap API:
// field name (or "field___choice" for checkbox sub-options) to string value.
type RawRecord map[string]string
