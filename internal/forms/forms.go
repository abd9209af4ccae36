// Package forms binds and validates url-encoded submissions against typed
// field declarations, and carries the values and errors back to templates.
package forms

import (
	"net/url"
	"strconv"
	"strings"
	"unicode/utf8"
)

// Kind selects how a field is parsed and rendered.
type Kind int

const (
	CharField Kind = iota
	TextField
	ChoiceField
	EmailField
	PasswordField
)

// Widget is the HTML control a template should render for the kind.
func (k Kind) Widget() string {
	switch k {
	case TextField:
		return "textarea"
	case ChoiceField:
		return "select"
	case EmailField:
		return "email"
	case PasswordField:
		return "password"
	default:
		return "text"
	}
}

type Choice struct {
	Value string
	Label string
}

type Field struct {
	Name      string
	Label     string
	HelpText  string
	Kind      Kind
	Required  bool
	MaxLength int
	Choices   []Choice
	Value     string
	Errors    []string
}

// Selected reports whether value is the field's current value.
func (f *Field) Selected(value string) bool {
	return f.Value == value
}

type Form struct {
	Fields         map[string]*Field
	NonFieldErrors []string

	order []string
	clean func(*Form)
}

// New declares a form with fields in render order.
func New(fields ...*Field) *Form {
	f := &Form{Fields: make(map[string]*Field, len(fields))}
	for _, field := range fields {
		f.Fields[field.Name] = field
		f.order = append(f.order, field.Name)
	}
	return f
}

// Ordered returns fields in declaration order.
func (f *Form) Ordered() []*Field {
	out := make([]*Field, 0, len(f.order))
	for _, name := range f.order {
		out = append(out, f.Fields[name])
	}
	return out
}

// Bind copies submitted values into the declared fields. Password fields are
// bound but never echoed back after validation fails.
func (f *Form) Bind(values url.Values) *Form {
	for _, name := range f.order {
		f.Fields[name].Value = values.Get(name)
	}
	return f
}

// Initial sets a value before rendering an unbound form.
func (f *Form) Initial(name, value string) *Form {
	if field, ok := f.Fields[name]; ok {
		field.Value = value
	}
	return f
}

func (f *Form) Get(name string) string {
	if field, ok := f.Fields[name]; ok {
		return field.Value
	}
	return ""
}

func (f *Form) AddError(name, msg string) {
	field, ok := f.Fields[name]
	if !ok {
		f.NonFieldErrors = append(f.NonFieldErrors, msg)
		return
	}
	field.Errors = append(field.Errors, msg)
}

func (f *Form) HasErrors() bool {
	if len(f.NonFieldErrors) > 0 {
		return true
	}
	for _, field := range f.Fields {
		if len(field.Errors) > 0 {
			return true
		}
	}
	return false
}

// Valid runs field checks, then the form's clean hook when every field
// passed, and reports whether no errors were recorded.
func (f *Form) Valid() bool {
	for _, name := range f.order {
		field := f.Fields[name]
		if field.Kind != PasswordField {
			field.Value = strings.TrimSpace(field.Value)
		}
		validateField(field)
	}
	if !f.HasErrors() && f.clean != nil {
		f.clean(f)
	}
	if f.HasErrors() {
		for _, field := range f.Fields {
			if field.Kind == PasswordField {
				field.Value = ""
			}
		}
		return false
	}
	return true
}

func validateField(field *Field) {
	if field.Value == "" {
		if field.Required {
			field.Errors = append(field.Errors, "This field is required.")
		}
		return
	}
	if field.MaxLength > 0 && utf8.RuneCountInString(field.Value) > field.MaxLength {
		field.Errors = append(field.Errors, "Ensure this value has at most "+strconv.Itoa(field.MaxLength)+" characters.")
	}
	switch field.Kind {
	case ChoiceField:
		for _, c := range field.Choices {
			if c.Value == field.Value {
				return
			}
		}
		field.Errors = append(field.Errors, "Select a valid choice. That choice is not one of the available choices.")
	case EmailField:
		at := strings.LastIndex(field.Value, "@")
		if at < 1 || at == len(field.Value)-1 || strings.ContainsAny(field.Value, " \t") {
			field.Errors = append(field.Errors, "Enter a valid email address.")
		}
	}
}
