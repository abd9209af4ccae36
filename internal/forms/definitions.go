package forms

import (
	"strconv"
	"unicode"

	"yatube/internal/models"
)

const minPasswordLen = 8

// maxPasswordBytes is the longest input bcrypt will hash.
const maxPasswordBytes = 72

// PostForm is the create/edit form for a post. Group choices list every
// group; an empty group detaches the post.
func PostForm(groups []models.Group) *Form {
	choices := []Choice{{Value: "", Label: "---------"}}
	for _, g := range groups {
		choices = append(choices, Choice{Value: strconv.Itoa(g.ID), Label: g.Title})
	}
	return New(
		&Field{Name: "text", Label: "Post text", HelpText: "Enter the text of the post", Kind: TextField, Required: true},
		&Field{Name: "group", Label: "Group", HelpText: "Group the post will belong to", Kind: ChoiceField, Choices: choices},
	)
}

// GroupID returns the chosen group, or nil when none was selected. Call it
// on a valid form only.
func GroupID(f *Form) *int {
	id, err := strconv.Atoi(f.Get("group"))
	if err != nil || id == 0 {
		return nil
	}
	return &id
}

func SignupForm() *Form {
	f := New(
		&Field{Name: "first_name", Label: "First name", Kind: CharField, MaxLength: 150},
		&Field{Name: "last_name", Label: "Last name", Kind: CharField, MaxLength: 150},
		&Field{Name: "username", Label: "Username", Kind: CharField, Required: true, MaxLength: models.MaxUsernameLen,
			HelpText: "Required. 150 characters or fewer. Letters, digits and @/./+/-/_ only."},
		&Field{Name: "email", Label: "Email address", Kind: EmailField, MaxLength: 254},
		&Field{Name: "password1", Label: "Password", Kind: PasswordField, Required: true},
		&Field{Name: "password2", Label: "Password confirmation", Kind: PasswordField, Required: true,
			HelpText: "Enter the same password as before, for verification."},
	)
	f.clean = func(f *Form) {
		if !models.ValidUsername(f.Get("username")) {
			f.AddError("username", "Enter a valid username.")
		}
		checkNewPassword(f, "password1", "password2")
	}
	return f
}

func LoginForm() *Form {
	return New(
		&Field{Name: "username", Label: "Username", Kind: CharField, Required: true, MaxLength: models.MaxUsernameLen},
		&Field{Name: "password", Label: "Password", Kind: PasswordField, Required: true},
	)
}

// PasswordChangeForm checks the old password with verify before accepting
// the new one.
func PasswordChangeForm(verify func(old string) bool) *Form {
	f := New(
		&Field{Name: "old_password", Label: "Old password", Kind: PasswordField, Required: true},
		&Field{Name: "new_password1", Label: "New password", Kind: PasswordField, Required: true},
		&Field{Name: "new_password2", Label: "New password confirmation", Kind: PasswordField, Required: true},
	)
	f.clean = func(f *Form) {
		if !verify(f.Get("old_password")) {
			f.AddError("old_password", "Your old password was entered incorrectly. Please enter it again.")
			return
		}
		checkNewPassword(f, "new_password1", "new_password2")
	}
	return f
}

func PasswordResetForm() *Form {
	return New(
		&Field{Name: "email", Label: "Email", Kind: EmailField, Required: true, MaxLength: 254},
	)
}

func SetPasswordForm() *Form {
	f := New(
		&Field{Name: "new_password1", Label: "New password", Kind: PasswordField, Required: true},
		&Field{Name: "new_password2", Label: "New password confirmation", Kind: PasswordField, Required: true},
	)
	f.clean = func(f *Form) {
		checkNewPassword(f, "new_password1", "new_password2")
	}
	return f
}

func checkNewPassword(f *Form, first, second string) {
	p1, p2 := f.Get(first), f.Get(second)
	if p1 != p2 {
		f.AddError(second, "The two password fields didn't match.")
		return
	}
	if len([]rune(p1)) < minPasswordLen {
		f.AddError(second, "This password is too short. It must contain at least 8 characters.")
	}
	if len(p1) > maxPasswordBytes {
		f.AddError(second, "This password is too long. It must be at most 72 bytes.")
	}
	numeric := true
	for _, r := range p1 {
		if !unicode.IsDigit(r) {
			numeric = false
			break
		}
	}
	if numeric {
		f.AddError(second, "This password is entirely numeric.")
	}
}
