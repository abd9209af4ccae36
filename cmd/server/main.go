package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"yatube/internal/cache"
	"yatube/internal/config"
	"yatube/internal/db"
	"yatube/internal/live"
	"yatube/internal/mail"
	"yatube/internal/models"
	"yatube/internal/server"
)

func main() {
	infoLog := log.New(os.Stdout, "INFO\t", log.Ldate|log.Ltime)
	errorLog := log.New(os.Stderr, "ERROR\t", log.Ldate|log.Ltime|log.Lshortfile)

	cfg, err := config.Load(os.Args[0], os.Args[1:], nil)
	if err != nil {
		errorLog.Fatal(err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	database, err := db.Open(cfg.DBDriver, cfg.DSN)
	if err != nil {
		errorLog.Fatal(err)
	}
	defer database.Close()
	if n, err := models.DeleteExpiredSessions(ctx, database, time.Now()); err != nil {
		errorLog.Printf("session cleanup: %v", err)
	} else if n > 0 {
		infoLog.Printf("removed %d expired sessions", n)
	}

	var store cache.Store = cache.NewMemory()
	if cfg.RedisAddr != "" {
		rc, err := cache.Dial(ctx, cfg.RedisAddr, "yatube:")
		if err != nil {
			errorLog.Fatal(err)
		}
		defer rc.Close()
		store = rc
		infoLog.Printf("page cache: redis at %s", cfg.RedisAddr)
	}

	mailer, err := mail.NewFileMailer(cfg.MailDir, cfg.MailFrom)
	if err != nil {
		errorLog.Fatal(err)
	}
	hub := live.NewHub(errorLog)
	defer hub.Close()

	srv, err := server.New(database, cfg.TemplateDir,
		server.WithLoggers(infoLog, errorLog),
		server.WithStaticDir(cfg.StaticDir),
		server.WithPostsPerPage(cfg.PostsPerPage),
		server.WithSessionTTL(cfg.SessionTTL),
		server.WithIndexCache(store, cfg.IndexCacheTTL),
		server.WithHub(hub),
		server.WithMailer(mailer),
	)
	if err != nil {
		errorLog.Fatal(err)
	}

	httpSrv := &http.Server{
		Addr:         cfg.Addr,
		Handler:      srv,
		ErrorLog:     errorLog,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  time.Minute,
	}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			errorLog.Printf("shutdown: %v", err)
		}
	}()

	infoLog.Printf("starting server on %s (%s)", cfg.Addr, cfg.DBDriver)
	if err := httpSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		errorLog.Fatal(err)
	}
	infoLog.Print("server stopped")
}
