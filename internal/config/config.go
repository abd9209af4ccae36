// Package config reads server settings from flags, falling back to
// environment variables and then to defaults.
package config

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strconv"
	"time"

	"yatube/internal/paginator"
)

type Config struct {
	Addr          string
	DBDriver      string
	DSN           string
	TemplateDir   string
	StaticDir     string
	PostsPerPage  int
	SessionTTL    time.Duration
	RedisAddr     string
	IndexCacheTTL time.Duration
	MailDir       string
	MailFrom      string

	// Args holds positional arguments left after flag parsing.
	Args []string
}

// Load parses args (without the program name) using getenv for fallbacks.
func Load(name string, args []string, getenv func(string) string) (*Config, error) {
	if getenv == nil {
		getenv = os.Getenv
	}
	env := func(key, def string) string {
		if v := getenv(key); v != "" {
			return v
		}
		return def
	}

	port := env("PORT", "8080")
	postsPerPage, err := strconv.Atoi(env("POSTS_ON_PAGE", strconv.Itoa(paginator.DefaultPerPage)))
	if err != nil {
		return nil, fmt.Errorf("POSTS_ON_PAGE: %w", err)
	}
	sessionTTL, err := time.ParseDuration(env("SESSION_TTL", "336h"))
	if err != nil {
		return nil, fmt.Errorf("SESSION_TTL: %w", err)
	}
	cacheTTL, err := time.ParseDuration(env("INDEX_CACHE_TTL", "20s"))
	if err != nil {
		return nil, fmt.Errorf("INDEX_CACHE_TTL: %w", err)
	}

	cfg := &Config{}
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.StringVar(&cfg.Addr, "addr", ":"+port, "HTTP network address")
	fs.StringVar(&cfg.DBDriver, "db-driver", env("DB_DRIVER", "sqlite3"), "database driver: sqlite3 or pgx")
	fs.StringVar(&cfg.DSN, "dsn", env("DB_PATH", "yatube.db"), "SQLite file path or PostgreSQL connection string")
	fs.StringVar(&cfg.TemplateDir, "templates", env("TEMPLATE_DIR", "web/templates"), "path to HTML templates")
	fs.StringVar(&cfg.StaticDir, "static", env("STATIC_DIR", "web/static"), "path to static assets")
	fs.IntVar(&cfg.PostsPerPage, "posts-per-page", postsPerPage, "posts shown on one listing page")
	fs.DurationVar(&cfg.SessionTTL, "session-ttl", sessionTTL, "login session lifetime")
	fs.StringVar(&cfg.RedisAddr, "redis-addr", env("REDIS_ADDR", ""), "Redis address for the page cache; empty uses process memory")
	fs.DurationVar(&cfg.IndexCacheTTL, "index-cache-ttl", cacheTTL, "how long the index page is cached for guests; 0 disables")
	fs.StringVar(&cfg.MailDir, "mail-dir", env("MAIL_DIR", "sent_emails"), "directory the file mail backend writes to")
	fs.StringVar(&cfg.MailFrom, "mail-from", env("MAIL_FROM", "noreply@yatube.local"), "sender address for outgoing mail")
	if err := fs.Parse(args); err != nil {
		return nil, err
	}
	cfg.Args = fs.Args()

	if cfg.PostsPerPage < 1 {
		return nil, fmt.Errorf("posts per page must be positive, got %d", cfg.PostsPerPage)
	}
	if cfg.SessionTTL <= 0 {
		return nil, fmt.Errorf("session ttl must be positive, got %s", cfg.SessionTTL)
	}
	if cfg.IndexCacheTTL < 0 {
		return nil, fmt.Errorf("index cache ttl must not be negative, got %s", cfg.IndexCacheTTL)
	}
	switch cfg.DBDriver {
	case "sqlite3", "pgx":
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.DBDriver)
	}
	return cfg, nil
}
