package server

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"yatube/internal/forms"
	"yatube/internal/mail"
	"yatube/internal/models"
)

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	form := forms.SignupForm()
	data := map[string]any{"Form": form}
	switch r.Method {
	case http.MethodGet:
		s.render(w, r, "users/signup", data)

	case http.MethodPost:
		if err := r.ParseForm(); err != nil {
			s.clientError(w, http.StatusBadRequest)
			return
		}
		if !form.Bind(r.PostForm).Valid() {
			s.render(w, r, "users/signup", data)
			return
		}
		user, err := models.CreateUser(r.Context(), s.DB, models.NewUser{
			Username:  form.Get("username"),
			Email:     form.Get("email"),
			FirstName: form.Get("first_name"),
			LastName:  form.Get("last_name"),
			Password:  form.Get("password1"),
		})
		if errors.Is(err, models.ErrDuplicateUsername) || errors.Is(err, models.ErrInvalidUsername) {
			form.AddError("username", err.Error())
			form.Fields["password1"].Value = ""
			form.Fields["password2"].Value = ""
			s.render(w, r, "users/signup", data)
			return
		}
		if err != nil {
			s.serverError(w, err)
			return
		}
		s.infoLog.Printf("user registered: id=%d username=%q", user.ID, user.Username)
		http.Redirect(w, r, "/", http.StatusFound)

	default:
		s.methodNotAllowed(w, http.MethodGet, http.MethodPost)
	}
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	form := forms.LoginForm()
	next := safeNext(r.FormValue("next"))
	data := map[string]any{"Form": form, "Next": next}
	switch r.Method {
	case http.MethodGet:
		s.render(w, r, "users/login", data)

	case http.MethodPost:
		if !form.Bind(r.PostForm).Valid() {
			s.render(w, r, "users/login", data)
			return
		}
		user, err := models.Authenticate(r.Context(), s.DB, form.Get("username"), form.Get("password"))
		if errors.Is(err, models.ErrInvalidCredentials) {
			form.AddError("", "Please enter a correct username and password. Note that both fields may be case-sensitive.")
			form.Fields["password"].Value = ""
			s.render(w, r, "users/login", data)
			return
		}
		if err != nil {
			s.serverError(w, err)
			return
		}
		if err := s.startSession(w, r, user); err != nil {
			s.serverError(w, err)
			return
		}
		s.infoLog.Printf("login: id=%d username=%q", user.ID, user.Username)
		if next == "" {
			next = "/"
		}
		http.Redirect(w, r, next, http.StatusFound)

	default:
		s.methodNotAllowed(w, http.MethodGet, http.MethodPost)
	}
}

func (s *Server) startSession(w http.ResponseWriter, r *http.Request, user *models.User) error {
	sid := uuid.NewString()
	expires := time.Now().Add(s.sessionTTL)
	if err := models.CreateSession(r.Context(), s.DB, user.ID, sid, expires); err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	http.SetCookie(w, &http.Cookie{
		Name:     s.CookieName,
		Value:    sid,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return nil
}

// safeNext accepts only same-site absolute paths as a post-login target.
func safeNext(next string) string {
	if !strings.HasPrefix(next, "/") || strings.HasPrefix(next, "//") || strings.HasPrefix(next, "/\\") {
		return ""
	}
	return next
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodPost {
		s.methodNotAllowed(w, http.MethodGet, http.MethodPost)
		return
	}
	if cookie, err := r.Cookie(s.CookieName); err == nil && cookie.Value != "" {
		if err := models.RevokeSession(r.Context(), s.DB, cookie.Value); err != nil {
			s.errorLog.Printf("revoke session: %v", err)
		}
		http.SetCookie(w, &http.Cookie{Name: s.CookieName, Path: "/", MaxAge: -1, HttpOnly: true})
	}
	s.render(w, r, "users/logged_out", map[string]any{"User": nil})
}

func (s *Server) handlePasswordChange(w http.ResponseWriter, r *http.Request, user *models.User) {
	form := forms.PasswordChangeForm(func(old string) bool { return models.CheckPassword(user, old) })
	data := map[string]any{"User": user, "Form": form}
	switch r.Method {
	case http.MethodGet:
		s.render(w, r, "users/password_change_form", data)

	case http.MethodPost:
		if err := r.ParseForm(); err != nil {
			s.clientError(w, http.StatusBadRequest)
			return
		}
		if !form.Bind(r.PostForm).Valid() {
			s.render(w, r, "users/password_change_form", data)
			return
		}
		if err := models.SetPassword(r.Context(), s.DB, user.ID, form.Get("new_password1")); err != nil {
			s.serverError(w, err)
			return
		}
		s.infoLog.Printf("password changed: id=%d", user.ID)
		http.Redirect(w, r, "/auth/password_change/done/", http.StatusFound)

	default:
		s.methodNotAllowed(w, http.MethodGet, http.MethodPost)
	}
}

func (s *Server) handlePasswordChangeDone(w http.ResponseWriter, r *http.Request, user *models.User) {
	s.render(w, r, "users/password_change_done", map[string]any{"User": user})
}

func (s *Server) handlePasswordReset(w http.ResponseWriter, r *http.Request) {
	form := forms.PasswordResetForm()
	data := map[string]any{"Form": form}
	switch r.Method {
	case http.MethodGet:
		s.render(w, r, "users/password_reset_form", data)

	case http.MethodPost:
		if err := r.ParseForm(); err != nil {
			s.clientError(w, http.StatusBadRequest)
			return
		}
		if !form.Bind(r.PostForm).Valid() {
			s.render(w, r, "users/password_reset_form", data)
			return
		}
		users, err := models.ListUsersByEmail(r.Context(), s.DB, form.Get("email"))
		if err != nil {
			s.serverError(w, err)
			return
		}
		for _, u := range users {
			if err := s.sendResetLink(r, &u); err != nil {
				s.serverError(w, err)
				return
			}
		}
		// Unknown addresses get the same reply, so accounts cannot be probed.
		http.Redirect(w, r, "/auth/password_reset/done/", http.StatusFound)

	default:
		s.methodNotAllowed(w, http.MethodGet, http.MethodPost)
	}
}

func (s *Server) sendResetLink(r *http.Request, u *models.User) error {
	token := uuid.NewString()
	if err := models.CreatePasswordReset(r.Context(), s.DB, u.ID, token, time.Now().Add(s.resetTTL)); err != nil {
		return fmt.Errorf("create password reset: %w", err)
	}
	link := absoluteURL(r, "/auth/reset/"+encodeUID(u.ID)+"/"+token+"/")
	if s.mailer == nil {
		s.errorLog.Printf("no mailer configured; reset link for %q not sent", u.Username)
		return nil
	}
	return s.mailer.Send(r.Context(), mail.Message{
		To:      []string{u.Email},
		Subject: "Password reset on Yatube",
		Body: fmt.Sprintf("You requested a password reset for the account %q.\r\n\r\n"+
			"Follow the link to choose a new password:\r\n%s\r\n", u.Username, link),
	})
}

func (s *Server) handlePasswordResetConfirm(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet && r.Method != http.MethodPost {
		s.methodNotAllowed(w, http.MethodGet, http.MethodPost)
		return
	}
	token := r.PathValue("token")
	userID, ok := decodeUID(r.PathValue("uidb64"))
	valid := false
	if ok {
		_, err := models.CheckPasswordReset(r.Context(), s.DB, userID, token)
		if err != nil && !errors.Is(err, models.ErrInvalidToken) {
			s.serverError(w, err)
			return
		}
		valid = err == nil
	}
	form := forms.SetPasswordForm()
	data := map[string]any{"Form": form, "ValidLink": valid}
	if r.Method == http.MethodGet || !valid {
		s.render(w, r, "users/password_reset_confirm", data)
		return
	}

	if err := r.ParseForm(); err != nil {
		s.clientError(w, http.StatusBadRequest)
		return
	}
	if !form.Bind(r.PostForm).Valid() {
		s.render(w, r, "users/password_reset_confirm", data)
		return
	}
	err := models.ConsumePasswordReset(r.Context(), s.DB, userID, token, form.Get("new_password1"))
	if errors.Is(err, models.ErrInvalidToken) {
		data["ValidLink"] = false
		s.render(w, r, "users/password_reset_confirm", data)
		return
	}
	if err != nil {
		s.serverError(w, err)
		return
	}
	s.infoLog.Printf("password reset: id=%d", userID)
	http.Redirect(w, r, "/auth/reset/done/", http.StatusFound)
}

// encodeUID renders a user id the way reset links carry it: URL-safe
// base64 of the decimal id, unpadded.
func encodeUID(id int) string {
	return base64.RawURLEncoding.EncodeToString([]byte(strconv.Itoa(id)))
}

func decodeUID(s string) (int, bool) {
	b, err := base64.RawURLEncoding.DecodeString(s)
	if err != nil {
		return 0, false
	}
	id, err := strconv.Atoi(string(b))
	if err != nil || id < 1 {
		return 0, false
	}
	return id, true
}

func absoluteURL(r *http.Request, path string) string {
	scheme := "http"
	if r.TLS != nil {
		scheme = "https"
	}
	return scheme + "://" + r.Host + path
}
