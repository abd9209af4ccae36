// Command yatubectl manages groups and users from the shell.
//
//	yatubectl [flags] group-add <slug> <title> [description]
//	yatubectl [flags] group-list
//	yatubectl [flags] group-delete <slug>
//	yatubectl [flags] user-delete <username>
//
// Flags and environment variables are the same as the server's.
package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"text/tabwriter"

	"yatube/internal/config"
	"yatube/internal/db"
	"yatube/internal/models"
)

var errUsage = errors.New("usage: yatubectl [flags] group-add|group-list|group-delete|user-delete [args]")

func main() {
	errorLog := log.New(os.Stderr, "ERROR\t", log.Ldate|log.Ltime)

	cfg, err := config.Load(os.Args[0], os.Args[1:], nil)
	if err != nil {
		errorLog.Fatal(err)
	}
	database, err := db.Open(cfg.DBDriver, cfg.DSN)
	if err != nil {
		errorLog.Fatal(err)
	}
	defer database.Close()

	if err := run(context.Background(), database, cfg.Args, os.Stdout); err != nil {
		errorLog.Print(err)
		database.Close()
		os.Exit(1)
	}
}

func run(ctx context.Context, database *sql.DB, args []string, out io.Writer) error {
	if len(args) == 0 {
		return errUsage
	}
	cmd, args := args[0], args[1:]
	switch cmd {
	case "group-add":
		if len(args) < 2 {
			return errUsage
		}
		g, err := models.CreateGroup(ctx, database, args[1], args[0], strings.Join(args[2:], " "))
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "created group %d %s\n", g.ID, g.Slug)

	case "group-list":
		groups, err := models.ListGroups(ctx, database)
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tSLUG\tTITLE")
		for _, g := range groups {
			fmt.Fprintf(tw, "%d\t%s\t%s\n", g.ID, g.Slug, g.Title)
		}
		return tw.Flush()

	case "group-delete":
		if len(args) != 1 {
			return errUsage
		}
		if err := models.DeleteGroup(ctx, database, args[0]); err != nil {
			return fmt.Errorf("delete group %q: %w", args[0], err)
		}
		fmt.Fprintf(out, "deleted group %s\n", args[0])

	case "user-delete":
		if len(args) != 1 {
			return errUsage
		}
		u, err := models.GetUserByUsername(ctx, database, args[0])
		if err != nil {
			return fmt.Errorf("user %q: %w", args[0], err)
		}
		if err := models.DeleteUser(ctx, database, u.ID); err != nil {
			return err
		}
		fmt.Fprintf(out, "deleted user %s and their posts\n", u.Username)

	default:
		return errUsage
	}
	return nil
}
