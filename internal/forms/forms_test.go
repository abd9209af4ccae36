package forms

import (
	"net/url"
	"strings"
	"testing"

	"yatube/internal/models"
)

func TestPostFormFieldKinds(t *testing.T) {
	f := PostForm([]models.Group{{ID: 1, Title: "Cats", Slug: "cats"}})
	text, ok := f.Fields["text"]
	if !ok || text.Kind != TextField || !text.Required {
		t.Fatalf("text field: %+v", text)
	}
	group, ok := f.Fields["group"]
	if !ok || group.Kind != ChoiceField || group.Required {
		t.Fatalf("group field: %+v", group)
	}
	if len(group.Choices) != 2 || group.Choices[1].Value != "1" || group.Choices[1].Label != "Cats" {
		t.Fatalf("choices: %+v", group.Choices)
	}
	if got := f.Ordered(); got[0].Name != "text" || got[1].Name != "group" {
		t.Fatalf("order: %s, %s", got[0].Name, got[1].Name)
	}
}

func TestPostFormValidation(t *testing.T) {
	groups := []models.Group{{ID: 7, Title: "Dogs"}}
	tests := []struct {
		name      string
		values    url.Values
		valid     bool
		wantGroup *int
	}{
		{"text only", url.Values{"text": {"hello"}}, true, nil},
		{"with group", url.Values{"text": {"hello"}, "group": {"7"}}, true, intPtr(7)},
		{"blank text", url.Values{"text": {"   "}}, false, nil},
		{"unknown group", url.Values{"text": {"hello"}, "group": {"99"}}, false, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := PostForm(groups).Bind(tt.values)
			if got := f.Valid(); got != tt.valid {
				t.Fatalf("Valid() = %v, want %v (errors %+v)", got, tt.valid, f.Fields)
			}
			if !tt.valid {
				return
			}
			got := GroupID(f)
			if (got == nil) != (tt.wantGroup == nil) || (got != nil && *got != *tt.wantGroup) {
				t.Fatalf("GroupID = %v, want %v", got, tt.wantGroup)
			}
		})
	}
}

func intPtr(n int) *int { return &n }

func TestSignupFormPasswordRules(t *testing.T) {
	base := url.Values{"username": {"john"}, "email": {"len@non.ru"}}
	tests := []struct {
		name   string
		p1, p2 string
		valid  bool
	}{
		{"ok", "lennon-1940", "lennon-1940", true},
		{"mismatch", "lennon-1940", "lennon-1941", false},
		{"short", "abc", "abc", false},
		{"numeric", "1234567890", "1234567890", false},
		{"72 bytes", strings.Repeat("a", 72), strings.Repeat("a", 72), true},
		{"73 bytes", strings.Repeat("a", 73), strings.Repeat("a", 73), false},
		{"37 cyrillic runes", strings.Repeat("я", 37), strings.Repeat("я", 37), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values := url.Values{}
			for k, v := range base {
				values[k] = v
			}
			values.Set("password1", tt.p1)
			values.Set("password2", tt.p2)
			f := SignupForm().Bind(values)
			if got := f.Valid(); got != tt.valid {
				t.Fatalf("Valid() = %v, want %v", got, tt.valid)
			}
			if !tt.valid && f.Get("password1") != "" {
				t.Fatal("password echoed back on invalid form")
			}
		})
	}
}

func TestSignupFormRejectsBadEmailAndUsername(t *testing.T) {
	f := SignupForm().Bind(url.Values{
		"username":  {"john lennon"},
		"email":     {"not-an-email"},
		"password1": {"lennon-1940"},
		"password2": {"lennon-1940"},
	})
	if f.Valid() {
		t.Fatal("expected invalid form")
	}
	if len(f.Fields["email"].Errors) == 0 {
		t.Fatal("email error missing")
	}
}

func TestPasswordChangeFormChecksOldPassword(t *testing.T) {
	verify := func(old string) bool { return old == "old-password" }
	f := PasswordChangeForm(verify).Bind(url.Values{
		"old_password":  {"wrong"},
		"new_password1": {"new-password"},
		"new_password2": {"new-password"},
	})
	if f.Valid() || len(f.Fields["old_password"].Errors) != 1 {
		t.Fatalf("wrong old password accepted: %+v", f.Fields["old_password"])
	}
	f = PasswordChangeForm(verify).Bind(url.Values{
		"old_password":  {"old-password"},
		"new_password1": {"new-password"},
		"new_password2": {"new-password"},
	})
	if !f.Valid() {
		t.Fatal("valid change rejected")
	}
}

func TestMaxLengthAndNonFieldErrors(t *testing.T) {
	f := New(&Field{Name: "title", Kind: CharField, MaxLength: 3})
	f.Bind(url.Values{"title": {"four"}})
	if f.Valid() {
		t.Fatal("max length not enforced")
	}
	f = LoginForm().Bind(url.Values{"username": {"john"}, "password": {"x"}})
	if !f.Valid() {
		t.Fatal("login form should be valid")
	}
	f.AddError("", "Please enter a correct username and password.")
	if !f.HasErrors() || len(f.NonFieldErrors) != 1 {
		t.Fatal("non-field error not recorded")
	}
}

func TestWidgets(t *testing.T) {
	want := map[Kind]string{
		CharField:     "text",
		TextField:     "textarea",
		ChoiceField:   "select",
		EmailField:    "email",
		PasswordField: "password",
	}
	for kind, widget := range want {
		if got := kind.Widget(); got != widget {
			t.Errorf("%d.Widget() = %q, want %q", kind, got, widget)
		}
	}
}

func TestNewPasswordFormsRejectLongPasswords(t *testing.T) {
	long := strings.Repeat("a", 73)
	forms := map[string]*Form{
		"set":    SetPasswordForm(),
		"change": PasswordChangeForm(func(string) bool { return true }),
	}
	for name, f := range forms {
		f.Bind(url.Values{"old_password": {"whatever"}, "new_password1": {long}, "new_password2": {long}})
		if f.Valid() {
			t.Fatalf("%s: 73-byte password accepted", name)
		}
		if len(f.Fields["new_password2"].Errors) == 0 {
			t.Fatalf("%s: no error on new_password2", name)
		}
	}
}
