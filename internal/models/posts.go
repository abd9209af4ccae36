package models

import (
	"context"
	"database/sql"
	"errors"
	"strconv"
	"strings"
	"time"
)

// PostFilter narrows listings to one author and/or one group. Zero values
// mean no restriction.
type PostFilter struct {
	AuthorID int
	GroupID  int
}

func (f PostFilter) where() (string, []any) {
	var conds []string
	var args []any
	if f.AuthorID != 0 {
		args = append(args, f.AuthorID)
		conds = append(conds, "p.author_id = $"+strconv.Itoa(len(args)))
	}
	if f.GroupID != 0 {
		args = append(args, f.GroupID)
		conds = append(conds, "p.group_id = $"+strconv.Itoa(len(args)))
	}
	if len(conds) == 0 {
		return "", nil
	}
	return " WHERE " + strings.Join(conds, " AND "), args
}

const postSelect = `SELECT p.id, p.text, p.pub_date, p.author_id, p.group_id,
        u.id, u.username, u.email, u.first_name, u.last_name, u.password_hash, u.created_at,
        g.id, g.title, g.slug, g.description
    FROM posts p
    JOIN users u ON u.id = p.author_id
    LEFT JOIN post_groups g ON g.id = p.group_id`

func scanPost(row interface{ Scan(...any) error }) (*Post, error) {
	var p Post
	var groupRef, gid sql.NullInt64
	var gtitle, gslug, gdesc sql.NullString
	err := row.Scan(&p.ID, &p.Text, &p.PubDate, &p.AuthorID, &groupRef,
		&p.Author.ID, &p.Author.Username, &p.Author.Email, &p.Author.FirstName, &p.Author.LastName,
		&p.Author.PasswordHash, &p.Author.CreatedAt,
		&gid, &gtitle, &gslug, &gdesc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	if groupRef.Valid {
		id := int(groupRef.Int64)
		p.GroupID = &id
	}
	if gid.Valid {
		p.Group = &Group{ID: int(gid.Int64), Title: gtitle.String, Slug: gslug.String, Description: gdesc.String}
	}
	return &p, nil
}

// CreatePost stores a post stamped with the current time and returns its id.
func CreatePost(ctx context.Context, db *sql.DB, authorID int, text string, groupID *int) (int, error) {
	if strings.TrimSpace(text) == "" {
		return 0, ErrEmptyText
	}
	var id int
	err := db.QueryRowContext(ctx, `INSERT INTO posts (text, pub_date, author_id, group_id) VALUES ($1, $2, $3, $4) RETURNING id`,
		text, time.Now().UTC(), authorID, nullableID(groupID)).Scan(&id)
	if err != nil {
		return 0, err
	}
	return id, nil
}

// UpdatePost replaces the text and group of a post. pub_date is untouched.
func UpdatePost(ctx context.Context, db *sql.DB, id int, text string, groupID *int) error {
	if strings.TrimSpace(text) == "" {
		return ErrEmptyText
	}
	res, err := db.ExecContext(ctx, `UPDATE posts SET text = $1, group_id = $2 WHERE id = $3`, text, nullableID(groupID), id)
	if err != nil {
		return err
	}
	return expectOne(res)
}

func GetPost(ctx context.Context, db *sql.DB, id int) (*Post, error) {
	return scanPost(db.QueryRowContext(ctx, postSelect+` WHERE p.id = $1`, id))
}

func CountPosts(ctx context.Context, db *sql.DB, f PostFilter) (int, error) {
	where, args := f.where()
	var n int
	err := db.QueryRowContext(ctx, `SELECT COUNT(*) FROM posts p`+where, args...).Scan(&n)
	return n, err
}

// ListPosts returns posts newest first.
func ListPosts(ctx context.Context, db *sql.DB, f PostFilter, limit, offset int) ([]Post, error) {
	where, args := f.where()
	n := len(args)
	q := postSelect + where + ` ORDER BY p.pub_date DESC, p.id DESC LIMIT $` + strconv.Itoa(n+1) + ` OFFSET $` + strconv.Itoa(n+2)
	args = append(args, limit, offset)
	rows, err := db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var posts []Post
	for rows.Next() {
		p, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, *p)
	}
	return posts, rows.Err()
}

func nullableID(id *int) any {
	if id == nil {
		return nil
	}
	return *id
}
