package record

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redcap-tools/redcap-pdf-fill/internal/redcap"
)

func testMetadata() redcap.Metadata {
	return redcap.Metadata{
		{FieldName: "record_id", FieldType: "text"},
		{FieldName: "cb_1", FieldType: "checkbox", SelectChoices: "1, Choice 1 | 2, Choice 2 | 3, Choice 3"},
		{FieldName: "rg1", FieldType: "radio", SelectChoices: "1, Option A | 2, Option B"},
		{FieldName: "dd1", FieldType: "dropdown", SelectChoices: "1, Red | 2, Blue"},
		{FieldName: "notes", FieldType: "text"},
	}
}

func TestConvertChoices(t *testing.T) {
	tests := []struct {
		name     string
		raw      redcap.RawRecord
		expected Record
	}{
		{
			name: "checkbox boundary values",
			raw: redcap.RawRecord{
				"cb_1___1": "1",
				"cb_1___2": "0",
				"cb_1___3": "2",
			},
			expected: Record{
				"cb_1___1": Bool(true),
				"cb_1___2": Bool(false),
				"cb_1___3": Bool(false), // anything but "1" is unchecked
			},
		},
		{
			name: "radio raw-value bridging",
			raw:  redcap.RawRecord{"rg1": "3"},
			expected: Record{
				"rg1":          Choice(map[string]bool{"3": true}),
				"rg1__rchoice": Text("3"),
			},
		},
		{
			name: "radio with empty value adds no bridge key",
			raw:  redcap.RawRecord{"rg1": ""},
			expected: Record{
				"rg1": Choice(map[string]bool{"": true}),
			},
		},
		{
			name: "plain fields pass through as text",
			raw:  redcap.RawRecord{"record_id": "42", "notes": "hello, world"},
			expected: Record{
				"record_id": Text("42"),
				"notes":     Text("hello, world"),
			},
		},
		{
			name: "separator key of unknown checkbox passes through",
			raw:  redcap.RawRecord{"other___1": "1"},
			expected: Record{
				"other___1": Text("1"),
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, _ := ConvertChoices(tt.raw, testMetadata())
			assert.Equal(t, tt.expected, rec)
		})
	}
}

func TestConvertChoicesStats(t *testing.T) {
	raw := redcap.RawRecord{
		"cb_1___1": "1",
		"cb_1___2": "0",
		"rg1":      "2",
		"notes":    "x",
	}

	_, stats := ConvertChoices(raw, testMetadata())

	assert.Equal(t, 2, stats.CheckboxesConverted)
	assert.Equal(t, 1, stats.RadiosConverted)
	assert.Equal(t, 1, stats.BridgeKeysAdded)
}

func TestConvertDropdowns(t *testing.T) {
	t.Run("replaces raw value with display text", func(t *testing.T) {
		rec := Record{"dd1": Text("2")}
		require.NoError(t, ConvertDropdowns(rec, testMetadata()))
		assert.Equal(t, Text("Blue"), rec["dd1"])
	})

	t.Run("empty value left alone", func(t *testing.T) {
		rec := Record{"dd1": Text("")}
		require.NoError(t, ConvertDropdowns(rec, testMetadata()))
		assert.Equal(t, Text(""), rec["dd1"])
	})

	t.Run("absent field left alone", func(t *testing.T) {
		rec := Record{"notes": Text("x")}
		require.NoError(t, ConvertDropdowns(rec, testMetadata()))
	})

	t.Run("unknown raw value fails loudly", func(t *testing.T) {
		rec := Record{"dd1": Text("9")}
		err := ConvertDropdowns(rec, testMetadata())
		require.Error(t, err)

		var lookupErr *ChoiceLookupError
		require.ErrorAs(t, err, &lookupErr)
		assert.Equal(t, "dd1", lookupErr.Field)
		assert.Equal(t, "9", lookupErr.RawValue)
	})
}

func TestCollapseRadioGroups(t *testing.T) {
	t.Run("multi-entry group collapses to the true entry", func(t *testing.T) {
		rec := Record{
			"rg1": Choice(map[string]bool{"1": false, "2": true, "3": false}),
		}
		collapsed, err := CollapseRadioGroups(rec, testMetadata())
		require.NoError(t, err)
		assert.Equal(t, 1, collapsed)
		assert.Equal(t, Choice(map[string]bool{"2": true}), rec["rg1"])
	})

	t.Run("single-entry group untouched", func(t *testing.T) {
		rec := Record{"rg1": Choice(map[string]bool{"2": true})}
		collapsed, err := CollapseRadioGroups(rec, testMetadata())
		require.NoError(t, err)
		assert.Equal(t, 0, collapsed)
		assert.Equal(t, Choice(map[string]bool{"2": true}), rec["rg1"])
	})

	t.Run("non-choice value is a type error", func(t *testing.T) {
		rec := Record{"rg1": Text("2")}
		_, err := CollapseRadioGroups(rec, testMetadata())

		var typeErr *GroupTypeError
		require.ErrorAs(t, err, &typeErr)
		assert.Equal(t, "rg1", typeErr.Group)
	})

	t.Run("missing group is a type error", func(t *testing.T) {
		rec := Record{}
		_, err := CollapseRadioGroups(rec, testMetadata())

		var typeErr *GroupTypeError
		require.ErrorAs(t, err, &typeErr)
		assert.True(t, typeErr.Missing)
	})

	t.Run("zero true values is a selection error", func(t *testing.T) {
		rec := Record{"rg1": Choice(map[string]bool{"1": false, "2": false})}
		_, err := CollapseRadioGroups(rec, testMetadata())

		var selErr *GroupSelectionError
		require.ErrorAs(t, err, &selErr)
		assert.Equal(t, "rg1", selErr.Group)
	})

	t.Run("multiple true values is a selection error", func(t *testing.T) {
		rec := Record{"rg1": Choice(map[string]bool{"1": true, "2": true})}
		_, err := CollapseRadioGroups(rec, testMetadata())

		var selErr *GroupSelectionError
		require.ErrorAs(t, err, &selErr)
	})
}

func TestNormalize(t *testing.T) {
	raw := redcap.RawRecord{
		"record_id": "42",
		"cb_1___1":  "1",
		"cb_1___2":  "0",
		"rg1":       "2",
		"dd1":       "2",
		"notes":     "free text",
	}

	rec, stats, err := Normalize(raw, testMetadata())
	require.NoError(t, err)

	expected := Record{
		"record_id":    Text("42"),
		"cb_1___1":     Bool(true),
		"cb_1___2":     Bool(false),
		"rg1":          Choice(map[string]bool{"2": true}),
		"rg1__rchoice": Text("2"),
		"dd1":          Text("Blue"),
		"notes":        Text("free text"),
	}
	assert.Equal(t, expected, rec)
	assert.Equal(t, 2, stats.CheckboxesConverted)
	assert.Equal(t, 1, stats.RadiosConverted)
	assert.Equal(t, 1, stats.BridgeKeysAdded)
	assert.Equal(t, 0, stats.GroupsCollapsed)
}

// Every radio group in a normalized record must hold exactly one true entry.
func TestNormalizeRadioGroupInvariant(t *testing.T) {
	md := redcap.Metadata{
		{FieldName: "rg1", FieldType: "radio", SelectChoices: "1, A | 2, B"},
		{FieldName: "rg2", FieldType: "radio", SelectChoices: "1, C | 2, D"},
	}
	raw := redcap.RawRecord{"rg1": "1", "rg2": "2"}

	rec, _, err := Normalize(raw, md)
	require.NoError(t, err)

	for _, name := range []string{"rg1", "rg2"} {
		value := rec[name]
		require.Equal(t, KindChoice, value.Kind)
		require.Len(t, value.Choice, 1)
		for _, on := range value.Choice {
			assert.True(t, on)
		}
	}
}

func TestNormalizeBridgeKeyNotReconverted(t *testing.T) {
	// The staged "__rchoice" key must stay plain text even though it is
	// merged into the same record the conversion pass iterated over.
	md := redcap.Metadata{
		{FieldName: "rg1", FieldType: "radio", SelectChoices: "1, A | 3, C"},
	}
	raw := redcap.RawRecord{"rg1": "3"}

	rec, _, err := Normalize(raw, md)
	require.NoError(t, err)
	assert.Equal(t, Text("3"), rec["rg1__rchoice"])
}

func TestValueString(t *testing.T) {
	assert.Equal(t, "true", Bool(true).String())
	assert.Equal(t, "false", Bool(false).String())
	assert.Equal(t, "hello", Text("hello").String())
	assert.Equal(t, "map[2:true]", Choice(map[string]bool{"2": true}).String())
}
