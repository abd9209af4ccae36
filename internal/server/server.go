package server

import (
	"bufio"
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"html/template"
	"log"
	"net"
	"net/http"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"yatube/internal/cache"
	"yatube/internal/live"
	"yatube/internal/mail"
	"yatube/internal/models"
	"yatube/internal/paginator"
)

// Mailer delivers password reset messages.
type Mailer interface {
	Send(ctx context.Context, msg mail.Message) error
}

type Server struct {
	DB         *sql.DB
	CookieName string

	tmpl         map[string]*template.Template
	handler      http.Handler
	infoLog      *log.Logger
	errorLog     *log.Logger
	staticDir    string
	postsPerPage int
	sessionTTL   time.Duration
	resetTTL     time.Duration
	cache        cache.Store
	cacheTTL     time.Duration
	hub          *live.Hub
	mailer       Mailer

	// onRender observes every page render; tests use it to inspect the
	// template name and context.
	onRender func(name string, data map[string]any)
}

type Option func(*Server)

func WithLoggers(info, errLog *log.Logger) Option {
	return func(s *Server) {
		s.infoLog = info
		s.errorLog = errLog
	}
}

func WithStaticDir(dir string) Option {
	return func(s *Server) { s.staticDir = dir }
}

func WithPostsPerPage(n int) Option {
	return func(s *Server) {
		if n > 0 {
			s.postsPerPage = n
		}
	}
}

func WithSessionTTL(d time.Duration) Option {
	return func(s *Server) {
		if d > 0 {
			s.sessionTTL = d
		}
	}
}

// WithIndexCache caches guest renders of the index page in store for ttl.
func WithIndexCache(store cache.Store, ttl time.Duration) Option {
	return func(s *Server) {
		s.cache = store
		s.cacheTTL = ttl
	}
}

// WithHub publishes post events to hub and serves it on /ws/posts/.
func WithHub(hub *live.Hub) Option {
	return func(s *Server) { s.hub = hub }
}

func WithMailer(m Mailer) Option {
	return func(s *Server) { s.mailer = m }
}

var funcs = template.FuncMap{
	"formatDate": func(t time.Time) string {
		if t.IsZero() {
			return ""
		}
		return t.Local().Format("02 Jan 2006, 15:04")
	},
	"truncate": func(n int, s string) string {
		if utf8.RuneCountInString(s) <= n {
			return s
		}
		return string([]rune(s)[:n]) + "…"
	},
	"pathEscape": url.PathEscape,
}

// New parses every page under templateDir/<app>/*.html together with
// layout.html and the includes/ partials. Pages are keyed "<app>/<page>".
func New(db *sql.DB, templateDir string, opts ...Option) (*Server, error) {
	templates := map[string]*template.Template{}
	layout := filepath.Join(templateDir, "layout.html")
	partials, err := filepath.Glob(filepath.Join(templateDir, "includes", "*.html"))
	if err != nil {
		return nil, err
	}
	pages, err := filepath.Glob(filepath.Join(templateDir, "*", "*.html"))
	if err != nil {
		return nil, err
	}
	for _, page := range pages {
		rel, err := filepath.Rel(templateDir, page)
		if err != nil {
			return nil, err
		}
		rel = filepath.ToSlash(rel)
		if strings.HasPrefix(rel, "includes/") {
			continue
		}
		files := append([]string{layout, page}, partials...)
		t, err := template.New("layout.html").Funcs(funcs).ParseFiles(files...)
		if err != nil {
			return nil, err
		}
		templates[strings.TrimSuffix(rel, ".html")] = t
	}
	if len(templates) == 0 {
		return nil, fmt.Errorf("no templates found in %s", templateDir)
	}

	s := &Server{
		DB:           db,
		CookieName:   "sessionid",
		tmpl:         templates,
		infoLog:      log.New(os.Stdout, "INFO\t", log.Ldate|log.Ltime),
		errorLog:     log.New(os.Stderr, "ERROR\t", log.Ldate|log.Ltime|log.Lshortfile),
		staticDir:    "web/static",
		postsPerPage: paginator.DefaultPerPage,
		sessionTTL:   14 * 24 * time.Hour,
		resetTTL:     3 * 24 * time.Hour,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.handler = s.logRequest(s.routes())
	return s, nil
}

func (s *Server) routes() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /{$}", s.handleIndex)
	mux.HandleFunc("GET /group/{slug}/{$}", s.handleGroup)
	mux.HandleFunc("GET /profile/{username}/{$}", s.handleProfile)
	mux.HandleFunc("GET /posts/{id}/{$}", s.handlePostDetail)
	mux.HandleFunc("/create/{$}", s.requireAuth(s.handlePostCreate))
	mux.HandleFunc("/posts/{id}/edit/{$}", s.requireAuth(s.handlePostEdit))

	mux.HandleFunc("/auth/signup/{$}", s.handleSignup)
	mux.HandleFunc("/auth/login/{$}", s.handleLogin)
	mux.HandleFunc("/auth/logout/{$}", s.handleLogout)
	mux.HandleFunc("/auth/password_change/{$}", s.requireAuth(s.handlePasswordChange))
	mux.HandleFunc("GET /auth/password_change/done/{$}", s.requireAuth(s.handlePasswordChangeDone))
	mux.HandleFunc("/auth/password_reset/{$}", s.handlePasswordReset)
	mux.HandleFunc("GET /auth/password_reset/done/{$}", s.handleStaticPage("users/password_reset_done"))
	mux.HandleFunc("/auth/reset/{uidb64}/{token}/{$}", s.handlePasswordResetConfirm)
	mux.HandleFunc("GET /auth/reset/done/{$}", s.handleStaticPage("users/password_reset_complete"))

	if s.hub != nil {
		mux.Handle("GET /ws/posts/{$}", s.hub)
	}
	mux.Handle("GET /static/", http.StripPrefix("/static/", http.FileServer(http.Dir(s.staticDir))))
	return mux
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.handler.ServeHTTP(w, r)
}

// renderBytes executes the named page into memory so a template error can
// still produce a clean 500.
func (s *Server) renderBytes(r *http.Request, name string, data map[string]any) ([]byte, error) {
	t, ok := s.tmpl[name]
	if !ok {
		return nil, fmt.Errorf("template %q not found", name)
	}
	if data == nil {
		data = map[string]any{}
	}
	if _, ok := data["User"]; !ok {
		data["User"] = s.currentUser(r)
	}
	data["Path"] = r.URL.Path
	if s.onRender != nil {
		s.onRender(name, data)
	}
	var buf bytes.Buffer
	if err := t.ExecuteTemplate(&buf, "layout", data); err != nil {
		return nil, fmt.Errorf("render %s: %w", name, err)
	}
	return buf.Bytes(), nil
}

func (s *Server) render(w http.ResponseWriter, r *http.Request, name string, data map[string]any) {
	body, err := s.renderBytes(r, name, data)
	if err != nil {
		s.serverError(w, err)
		return
	}
	writeHTML(w, body)
}

func writeHTML(w http.ResponseWriter, body []byte) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

// handleStaticPage renders a page that needs no context beyond the user.
func (s *Server) handleStaticPage(name string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		s.render(w, r, name, nil)
	}
}

// middleware
func (s *Server) requireAuth(next func(http.ResponseWriter, *http.Request, *models.User)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user := s.currentUser(r)
		if user == nil {
			http.Redirect(w, r, "/auth/login/?next="+url.QueryEscape(r.URL.RequestURI()), http.StatusFound)
			return
		}
		w.Header().Set("Cache-Control", "no-store, max-age=0")
		next(w, r, user)
	}
}

func (s *Server) currentUser(r *http.Request) *models.User {
	cookie, err := r.Cookie(s.CookieName)
	if err != nil || cookie.Value == "" {
		return nil
	}
	sess, err := models.GetSession(r.Context(), s.DB, cookie.Value)
	if err != nil {
		if !errors.Is(err, models.ErrNotFound) {
			s.errorLog.Printf("load session: %v", err)
		}
		return nil
	}
	if !sess.Active(time.Now()) {
		return nil
	}
	user, err := models.GetUserByID(r.Context(), s.DB, sess.UserID)
	if err != nil {
		return nil
	}
	return user
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (rec *statusRecorder) WriteHeader(code int) {
	rec.status = code
	rec.ResponseWriter.WriteHeader(code)
}

func (rec *statusRecorder) Unwrap() http.ResponseWriter {
	return rec.ResponseWriter
}

// Hijack lets the WebSocket upgrade through the logging wrapper.
func (rec *statusRecorder) Hijack() (net.Conn, *bufio.ReadWriter, error) {
	h, ok := rec.ResponseWriter.(http.Hijacker)
	if !ok {
		return nil, nil, errors.New("response writer does not support hijacking")
	}
	rec.status = http.StatusSwitchingProtocols
	return h.Hijack()
}

func (s *Server) logRequest(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.infoLog.Printf("%s %s %d %s", r.Method, r.URL.RequestURI(), rec.status, time.Since(start).Round(time.Microsecond))
	})
}
