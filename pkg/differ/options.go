package differ

// Option is a functional option for configuring a Differ.
type Option func(*differ)

// WithPreserveColumns sets the columns whose remote value is only
// written when it is currently empty-ish.
func WithPreserveColumns(columns ...string) Option {
	return func(d *differ) {
		for _, c := range columns {
			d.preserve[c] = true
		}
	}
}

// WithIgnoredFields sets columns that are never written to existing rows.
func WithIgnoredFields(fields ...string) Option {
	return func(d *differ) {
		for _, field := range fields {
			d.ignoreFields[field] = true
		}
	}
}
