package models

import (
	"strings"
	"time"
	"unicode/utf8"
)

type User struct {
	ID           int
	Username     string
	Email        string
	FirstName    string
	LastName     string
	PasswordHash string
	CreatedAt    time.Time
}

// FullName joins first and last name, falling back to the username.
func (u User) FullName() string {
	name := strings.TrimSpace(u.FirstName + " " + u.LastName)
	if name == "" {
		return u.Username
	}
	return name
}

func (u User) String() string {
	return u.Username
}

type Session struct {
	ID        string
	UserID    int
	CreatedAt time.Time
	ExpiresAt time.Time
	RevokedAt *time.Time
}

// Active reports whether the session can still authenticate requests at now.
func (s Session) Active(now time.Time) bool {
	return s.RevokedAt == nil && now.Before(s.ExpiresAt)
}

type Group struct {
	ID          int
	Title       string
	Slug        string
	Description string
}

func (g Group) String() string {
	return g.Title
}

type Post struct {
	ID       int
	Text     string
	PubDate  time.Time
	AuthorID int
	GroupID  *int
	Author   User
	Group    *Group
}

// postPreviewLen is how many characters of the text String returns.
const postPreviewLen = 15

func (p Post) String() string {
	if utf8.RuneCountInString(p.Text) <= postPreviewLen {
		return p.Text
	}
	return string([]rune(p.Text)[:postPreviewLen])
}

type PasswordReset struct {
	Token     string
	UserID    int
	CreatedAt time.Time
	ExpiresAt time.Time
	UsedAt    *time.Time
}
