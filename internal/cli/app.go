// Package cli implements guidectl, a terminal client for the account API.
package cli

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"text/tabwriter"

	"tourguide/internal/authstate"
	"tourguide/internal/client"
	"tourguide/internal/model"
)

const usage = `usage: guidectl [-api URL] [-session FILE] <command> [flags]

commands:
  signup   -name NAME -email EMAIL -phone PHONE -role ROLE
  signin   -email EMAIL [-role ROLE]
  whoami
  signout
  passwd
  route    [-remote] PATH
  users    [-role ROLE] [-search TEXT] [-sort COLUMN] [-order ASC|DESC] [-page N] [-limit N]
`

// ErrUsage is returned for unknown commands or bad flags.
var ErrUsage = errors.New("invalid usage")

type App struct {
	client *client.Client
	reader *bufio.Reader
	out    io.Writer
}

// Run parses args (without the program name) and executes one command.
func Run(ctx context.Context, args []string, stdin io.Reader, stdout io.Writer) error {
	fs := flag.NewFlagSet("guidectl", flag.ContinueOnError)
	fs.SetOutput(stdout)
	fs.Usage = func() { fmt.Fprint(stdout, usage) }
	apiURL := fs.String("api", envOr("GUIDECTL_API", "http://localhost:8080"), "API base URL")
	sessionPath := fs.String("session", envOr("GUIDECTL_SESSION", defaultSessionPath()), "session file")
	if err := fs.Parse(args); err != nil {
		return ErrUsage
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return ErrUsage
	}

	state := authstate.New()
	saved, err := loadSession(*sessionPath)
	if err != nil {
		return err
	}
	if saved != nil {
		state.Set(*saved)
	}

	var saveErr error
	unsubscribe := state.Subscribe(func(id *authstate.Identity) {
		saveErr = saveSession(*sessionPath, id)
	})
	defer unsubscribe()

	app := &App{
		client: client.New(*apiURL, state),
		reader: bufio.NewReader(stdin),
		out:    stdout,
	}
	if err := app.dispatch(ctx, fs.Arg(0), fs.Args()[1:]); err != nil {
		return err
	}
	return saveErr
}

func (a *App) dispatch(ctx context.Context, cmd string, args []string) error {
	switch cmd {
	case "signup":
		return a.Signup(ctx, args)
	case "signin":
		return a.Signin(ctx, args)
	case "whoami":
		return a.Whoami(ctx)
	case "signout":
		return a.Signout(ctx)
	case "passwd":
		return a.Passwd(ctx)
	case "route":
		return a.Route(ctx, args)
	case "users":
		return a.Users(ctx, args)
	default:
		fmt.Fprint(a.out, usage)
		return ErrUsage
	}
}

func (a *App) Signup(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("signup", flag.ContinueOnError)
	fs.SetOutput(a.out)
	name := fs.String("name", "", "full name")
	email := fs.String("email", "", "email")
	phone := fs.String("phone", "", "phone number")
	role := fs.String("role", model.RoleTourist, "Admin, Guide or Tourist")
	if err := fs.Parse(args); err != nil {
		return ErrUsage
	}

	var err error
	if *name == "" {
		if *name, err = prompt(a.reader, a.out, "Full name"); err != nil {
			return err
		}
	}
	if *email == "" {
		if *email, err = prompt(a.reader, a.out, "Email"); err != nil {
			return err
		}
	}
	if *phone == "" {
		if *phone, err = prompt(a.reader, a.out, "Phone number"); err != nil {
			return err
		}
	}
	password, err := promptPassword(a.out, "Password")
	if err != nil {
		return err
	}

	profile, err := a.client.Signup(ctx, model.SignupRequest{
		FullName: *name, Email: *email, Password: password, PhoneNumber: *phone, Role: *role,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "registered %s as %s (id %d)\n", profile.Email, profile.Role, profile.ID)
	return nil
}

func (a *App) Signin(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("signin", flag.ContinueOnError)
	fs.SetOutput(a.out)
	email := fs.String("email", "", "email")
	role := fs.String("role", "", "expected role (optional)")
	if err := fs.Parse(args); err != nil {
		return ErrUsage
	}

	var err error
	if *email == "" {
		if *email, err = prompt(a.reader, a.out, "Email"); err != nil {
			return err
		}
	}
	password, err := promptPassword(a.out, "Password")
	if err != nil {
		return err
	}

	id, err := a.client.Signin(ctx, *email, password, *role)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "signed in as %s (%s), session valid until %s\n",
		id.User.Email, id.User.Role, id.ExpiresAt.Local().Format("2006-01-02 15:04"))
	return nil
}

func (a *App) Whoami(ctx context.Context) error {
	profile, err := a.client.Check(ctx)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintf(tw, "id\t%d\n", profile.ID)
	fmt.Fprintf(tw, "name\t%s\n", profile.FullName)
	fmt.Fprintf(tw, "email\t%s\n", profile.Email)
	fmt.Fprintf(tw, "phone\t%s\n", profile.PhoneNumber)
	fmt.Fprintf(tw, "role\t%s\n", profile.Role)
	return tw.Flush()
}

func (a *App) Signout(ctx context.Context) error {
	if err := a.client.Signout(ctx); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "signed out")
	return nil
}

func (a *App) Passwd(ctx context.Context) error {
	current, err := promptPassword(a.out, "Current password")
	if err != nil {
		return err
	}
	next, err := promptPassword(a.out, "New password")
	if err != nil {
		return err
	}
	confirm, err := promptPassword(a.out, "Repeat new password")
	if err != nil {
		return err
	}
	if next != confirm {
		return errors.New("new passwords do not match")
	}
	if err := a.client.ChangePassword(ctx, current, next); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "password changed")
	return nil
}

func (a *App) Route(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("route", flag.ContinueOnError)
	fs.SetOutput(a.out)
	remote := fs.Bool("remote", false, "ask the server instead of deciding locally")
	if err := fs.Parse(args); err != nil || fs.NArg() != 1 {
		return ErrUsage
	}
	path := fs.Arg(0)

	decision := a.client.Guard(path)
	if *remote {
		var err error
		if decision, err = a.client.ResolveRoute(ctx, path); err != nil {
			return err
		}
	}

	if decision.Allowed {
		fmt.Fprintf(a.out, "allow %s\n", path)
		return nil
	}
	fmt.Fprintf(a.out, "redirect %s\n", decision.Redirect)
	if decision.Message != "" {
		fmt.Fprintln(a.out, decision.Message)
	}
	return nil
}

func (a *App) Users(ctx context.Context, args []string) error {
	fs := flag.NewFlagSet("users", flag.ContinueOnError)
	fs.SetOutput(a.out)
	var f model.UserListFilters
	fs.StringVar(&f.Role, "role", "all", "role filter")
	fs.StringVar(&f.Search, "search", "", "search text")
	fs.StringVar(&f.Sort, "sort", "full_name", "sort column")
	fs.StringVar(&f.Order, "order", "ASC", "sort order")
	fs.IntVar(&f.Page, "page", 1, "page number")
	fs.IntVar(&f.Limit, "limit", 10, "page size")
	if err := fs.Parse(args); err != nil {
		return ErrUsage
	}

	page, err := a.client.ListUsers(ctx, f)
	if err != nil {
		return err
	}
	tw := tabwriter.NewWriter(a.out, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tNAME\tEMAIL\tPHONE\tROLE")
	for _, u := range page.Users {
		fmt.Fprintf(tw, "%d\t%s\t%s\t%s\t%s\n", u.ID, u.FullName, u.Email, u.PhoneNumber, u.Role)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "page %d of %d (%d users)\n", page.Page, page.TotalPages, page.Total)
	return nil
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func defaultSessionPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ".guidectl-session.json"
	}
	return filepath.Join(dir, "guidectl", "session.json")
}
