package imageupload

import (
	"net/url"
	"strings"
	"unicode/utf8"
)

// FieldForm is a Form over submitted values with per-field error messages.
type FieldForm struct {
	values url.Values
	errs   map[string]string
}

// NewFieldForm wraps submitted values. Values are trimmed of surrounding whitespace.
func NewFieldForm(values url.Values) *FieldForm {
	trimmed := make(url.Values, len(values))
	for k, vs := range values {
		for _, v := range vs {
			trimmed.Add(k, strings.TrimSpace(v))
		}
	}
	return &FieldForm{values: trimmed, errs: map[string]string{}}
}

// Require flags each named field that is empty.
func (f *FieldForm) Require(names ...string) *FieldForm {
	for _, name := range names {
		if f.values.Get(name) == "" {
			f.Fail(name, "This field is required")
		}
	}
	return f
}

// MaxLength flags name when it has more than n characters.
func (f *FieldForm) MaxLength(name string, n int) *FieldForm {
	if utf8.RuneCountInString(f.values.Get(name)) > n {
		f.Fail(name, "This field is too long")
	}
	return f
}

// Check flags name with msg unless ok.
func (f *FieldForm) Check(ok bool, name, msg string) *FieldForm {
	if !ok {
		f.Fail(name, msg)
	}
	return f
}

// Fail records an error for name. The first error per field is kept.
func (f *FieldForm) Fail(name, msg string) {
	if _, exists := f.errs[name]; !exists {
		f.errs[name] = msg
	}
}

// Valid reports whether no field has an error.
func (f *FieldForm) Valid() bool {
	return len(f.errs) == 0
}

// Values returns the trimmed submitted values.
func (f *FieldForm) Values() url.Values {
	return f.values
}

// Get returns the first value of name.
func (f *FieldForm) Get(name string) string {
	return f.values.Get(name)
}

// Errors returns field errors keyed by field name.
func (f *FieldForm) Errors() map[string]string {
	return f.errs
}
