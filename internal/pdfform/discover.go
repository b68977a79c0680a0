package pdfform

// Fields returns the logical names of every fillable field in the template,
// ordered by first appearance and de-duplicated. Isolated widgets contribute
// their own field name, grouped widgets the name of their parent; either way
// checkbox sub-option names are truncated to the group name.
func (d *Document) Fields() ([]string, error) {
	var fields []string
	seen := make(map[string]bool)

	err := d.walkWidgets(func(w widget) error {
		name := w.name
		if w.grouped() {
			name = w.parentName
		}
		name = logicalName(name)
		if !seen[name] {
			seen[name] = true
			fields = append(fields, name)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return fields, nil
}
