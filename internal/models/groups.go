package models

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"strings"
)

const MaxGroupTitleLen = 200

var slugRe = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)

func CreateGroup(ctx context.Context, db *sql.DB, title, slug, description string) (*Group, error) {
	g := Group{
		Title:       strings.TrimSpace(title),
		Slug:        strings.TrimSpace(slug),
		Description: strings.TrimSpace(description),
	}
	if g.Title == "" || len([]rune(g.Title)) > MaxGroupTitleLen {
		return nil, ErrEmptyTitle
	}
	if !slugRe.MatchString(g.Slug) {
		return nil, ErrInvalidSlug
	}
	if _, err := GetGroupBySlug(ctx, db, g.Slug); err == nil {
		return nil, ErrDuplicateSlug
	} else if !errors.Is(err, ErrNotFound) {
		return nil, err
	}
	err := db.QueryRowContext(ctx, `INSERT INTO post_groups (title, slug, description) VALUES ($1, $2, $3) RETURNING id`,
		g.Title, g.Slug, g.Description).Scan(&g.ID)
	if isUniqueViolation(err) {
		return nil, ErrDuplicateSlug
	}
	if err != nil {
		return nil, err
	}
	return &g, nil
}

func scanGroup(row interface{ Scan(...any) error }) (*Group, error) {
	var g Group
	err := row.Scan(&g.ID, &g.Title, &g.Slug, &g.Description)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &g, nil
}

func GetGroup(ctx context.Context, db *sql.DB, id int) (*Group, error) {
	return scanGroup(db.QueryRowContext(ctx, `SELECT id, title, slug, description FROM post_groups WHERE id = $1`, id))
}

func GetGroupBySlug(ctx context.Context, db *sql.DB, slug string) (*Group, error) {
	return scanGroup(db.QueryRowContext(ctx, `SELECT id, title, slug, description FROM post_groups WHERE slug = $1`, slug))
}

// ListGroups returns all groups ordered by title.
func ListGroups(ctx context.Context, db *sql.DB) ([]Group, error) {
	rows, err := db.QueryContext(ctx, `SELECT id, title, slug, description FROM post_groups ORDER BY title, id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var groups []Group
	for rows.Next() {
		g, err := scanGroup(rows)
		if err != nil {
			return nil, err
		}
		groups = append(groups, *g)
	}
	return groups, rows.Err()
}

// DeleteGroup removes a group. Its posts stay, detached from any group.
func DeleteGroup(ctx context.Context, db *sql.DB, slug string) error {
	res, err := db.ExecContext(ctx, `DELETE FROM post_groups WHERE slug = $1`, slug)
	if err != nil {
		return err
	}
	return expectOne(res)
}
