package engine

// MissingColumns returns the requested columns absent from t, in request order.
func MissingColumns(t *Table, cols ...string) []string {
	var missing []string
	for _, c := range cols {
		if !t.HasColumn(c) {
			missing = append(missing, c)
		}
	}
	return missing
}

// HasColumns reports whether every column is present.
func HasColumns(t *Table, cols ...string) bool {
	return len(MissingColumns(t, cols...)) == 0
}

// RequireColumns is HasColumns in error form. The returned error is a
// *SchemaError.
func RequireColumns(t *Table, cols ...string) error {
	if missing := MissingColumns(t, cols...); len(missing) > 0 {
		return &SchemaError{Missing: missing}
	}
	return nil
}
