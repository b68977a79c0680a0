package pdfform

import (
	"testing"

	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/redcap-tools/redcap-pdf-fill/internal/record"
)

func TestLogicalName(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{"plain field untouched", "first_name", "first_name"},
		{"checkbox sub-option truncated", "cb_1___3", "cb_1"},
		{"truncates at first separator", "cb_1___3___x", "cb_1"},
		{"empty name", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, logicalName(tt.input))
		})
	}
}

func TestSetCheckState(t *testing.T) {
	t.Run("checked", func(t *testing.T) {
		annot := types.Dict{}
		setCheckState(annot, true)
		assert.Equal(t, types.Name("Yes"), annot["AS"])
		assert.Equal(t, types.Name("Yes"), annot["V"])
	})

	t.Run("unchecked", func(t *testing.T) {
		annot := types.Dict{}
		setCheckState(annot, false)
		assert.Equal(t, types.Name("Off"), annot["AS"])
		assert.Equal(t, types.Name("Off"), annot["V"])
	})
}

func TestSetTextValue(t *testing.T) {
	dict := types.Dict{"AP": types.Dict{}}
	require.NoError(t, setTextValue(dict, "hello"))

	_, hasValue := dict.Find("V")
	assert.True(t, hasValue, "text value should be written to /V")
	_, hasAP := dict.Find("AP")
	assert.False(t, hasAP, "cached appearance stream should be dropped")
}

func TestSingleChoice(t *testing.T) {
	selected, ok := singleChoice(map[string]bool{"2": true})
	assert.True(t, ok)
	assert.Equal(t, "2", selected)

	_, ok = singleChoice(map[string]bool{})
	assert.False(t, ok)
}

func TestApplyValueIsolatedCheckbox(t *testing.T) {
	tests := []struct {
		name     string
		value    record.Value
		expected types.Name
	}{
		{"true maps to Yes", record.Bool(true), types.Name("Yes")},
		{"false maps to Off", record.Bool(false), types.Name("Off")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := widget{annot: types.Dict{}, name: "cb_1___3"}
			var res FillResult
			require.NoError(t, applyValue(w, tt.value, nil, &res))

			assert.Equal(t, tt.expected, w.annot["AS"])
			assert.Equal(t, tt.expected, w.annot["V"])
			assert.Equal(t, 1, res.CheckboxWidgets)
		})
	}
}

func TestApplyValueIsolatedText(t *testing.T) {
	w := widget{annot: types.Dict{"AP": types.Dict{}}, name: "first_name"}
	var res FillResult
	require.NoError(t, applyValue(w, record.Text("Ada"), nil, &res))

	_, hasValue := w.annot.Find("V")
	assert.True(t, hasValue)
	_, hasAP := w.annot.Find("AP")
	assert.False(t, hasAP)
	assert.Equal(t, 1, res.TextWidgets)
}

func TestApplyValueGroupedRadio(t *testing.T) {
	t.Run("declared state selected on widget and parent", func(t *testing.T) {
		w := widget{annot: types.Dict{}, parent: types.Dict{}, parentName: "rg1"}
		states := map[string]bool{"1": true, "2": true}

		var res FillResult
		require.NoError(t, applyValue(w, record.Choice(map[string]bool{"2": true}), states, &res))

		assert.Equal(t, types.Name("2"), w.annot["AS"])
		assert.Equal(t, types.Name("2"), w.parent["V"])
		assert.Equal(t, 1, res.RadioWidgets)
	})

	t.Run("undeclared state leaves widget untouched", func(t *testing.T) {
		w := widget{annot: types.Dict{}, parent: types.Dict{}, parentName: "rg1"}
		states := map[string]bool{"1": true, "2": true}

		var res FillResult
		require.NoError(t, applyValue(w, record.Choice(map[string]bool{"9": true}), states, &res))

		_, hasAS := w.annot.Find("AS")
		assert.False(t, hasAS)
		_, hasValue := w.parent.Find("V")
		assert.False(t, hasValue)
		assert.Equal(t, 1, res.SkippedWidgets)
	})

	t.Run("widget without declared states untouched", func(t *testing.T) {
		w := widget{annot: types.Dict{}, parent: types.Dict{}, parentName: "rg1"}

		var res FillResult
		require.NoError(t, applyValue(w, record.Choice(map[string]bool{"2": true}), nil, &res))
		assert.Equal(t, 1, res.SkippedWidgets)
	})
}

func TestApplyValueGroupedCheckbox(t *testing.T) {
	// A checkbox linked across pages: value is boolean, applied per widget.
	w := widget{annot: types.Dict{}, parent: types.Dict{}, parentName: "agree"}
	var res FillResult
	require.NoError(t, applyValue(w, record.Bool(true), nil, &res))

	assert.Equal(t, types.Name("Yes"), w.annot["AS"])
	assert.Equal(t, types.Name("Yes"), w.annot["V"])
}

func TestApplyValueGroupedText(t *testing.T) {
	// A text field linked across pages carries its value on the parent.
	w := widget{annot: types.Dict{}, parent: types.Dict{"AP": types.Dict{}}, parentName: "full_name"}
	var res FillResult
	require.NoError(t, applyValue(w, record.Text("Ada Lovelace"), nil, &res))

	_, hasValue := w.parent.Find("V")
	assert.True(t, hasValue)
	_, hasAP := w.parent.Find("AP")
	assert.False(t, hasAP)
	_, annotTouched := w.annot.Find("V")
	assert.False(t, annotTouched, "value belongs on the parent, not the widget")
}

func TestWidgetClassification(t *testing.T) {
	assert.True(t, widget{name: "a"}.isolated())
	assert.False(t, widget{name: "a"}.grouped())
	assert.True(t, widget{parentName: "g"}.grouped())
	assert.False(t, widget{}.isolated())
	assert.False(t, widget{}.grouped())
}
