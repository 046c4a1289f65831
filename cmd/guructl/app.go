package main

import (
	"bufio"
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"

	"github.com/geocoder89/guruhub/internal/client/api"
	"github.com/geocoder89/guruhub/internal/client/guard"
	"github.com/geocoder89/guruhub/internal/client/session"
	"github.com/geocoder89/guruhub/internal/domain/category"
	"golang.org/x/term"
)

const usage = `usage: guructl <command> [flags]

commands:
  register --name NAME --email EMAIL [--role user|admin]
  login --email EMAIL
  logout
  whoami
  open PATH
  category create --name NAME --description TEXT
`

var errPasswordMismatch = errors.New("passwords do not match")

type app struct {
	session *session.Client
	in      io.Reader
	out     io.Writer
	errOut  io.Writer

	reader *bufio.Reader
}

// run executes one command and returns the process exit code.
func (a *app) run(ctx context.Context, args []string) int {
	if len(args) == 0 {
		fmt.Fprint(a.errOut, usage)
		return 2
	}

	a.session.Bootstrap(ctx)

	var err error
	switch args[0] {
	case "register":
		err = a.register(ctx, args[1:])
	case "login":
		err = a.login(ctx, args[1:])
	case "logout":
		err = a.report(a.session.Logout(ctx))
	case "whoami":
		a.whoami()
	case "open":
		err = a.open(args[1:])
	case "category":
		err = a.category(ctx, args[1:])
	case "help", "-h", "--help":
		fmt.Fprint(a.out, usage)
	default:
		fmt.Fprintf(a.errOut, "unknown command %q\n\n%s", args[0], usage)
		return 2
	}

	if err != nil {
		fmt.Fprintln(a.errOut, "error:", err)
		return 1
	}
	return 0
}

func (a *app) register(ctx context.Context, args []string) error {
	fs := a.flagSet("register")
	name := fs.String("name", "", "display name")
	email := fs.String("email", "", "email address")
	role := fs.String("role", "", "user or admin")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *name == "" || *email == "" {
		return errors.New("--name and --email are required")
	}

	password, err := a.readPassword("Password: ")
	if err != nil {
		return err
	}
	confirm, err := a.readPassword("Confirm password: ")
	if err != nil {
		return err
	}
	if password != confirm {
		return errPasswordMismatch
	}

	return a.report(a.session.Register(ctx, *name, *email, password, *role))
}

func (a *app) login(ctx context.Context, args []string) error {
	fs := a.flagSet("login")
	email := fs.String("email", "", "email address")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if *email == "" {
		return errors.New("--email is required")
	}

	password, err := a.readPassword("Password: ")
	if err != nil {
		return err
	}

	return a.report(a.session.Login(ctx, *email, password))
}

func (a *app) whoami() {
	st := a.session.State()
	if !st.Authenticated() {
		fmt.Fprintln(a.out, "not logged in")
		return
	}

	p := st.Profile
	fmt.Fprintf(a.out, "%s <%s> role=%s id=%s\n", p.Name, p.Email, p.Role, p.ID)
}

func (a *app) open(args []string) error {
	if len(args) != 1 {
		return errors.New("open takes exactly one path")
	}

	d := guard.Resolve(args[0], a.session.State())
	if d.Kind == guard.Redirect {
		fmt.Fprintf(a.out, "%s -> %s\n", d.Kind, d.To)
		return nil
	}

	fmt.Fprintf(a.out, "%s %s\n", d.Kind, args[0])
	return nil
}

func (a *app) category(ctx context.Context, args []string) error {
	if len(args) == 0 || args[0] != "create" {
		return errors.New("usage: category create --name NAME --description TEXT")
	}

	fs := a.flagSet("category create")
	name := fs.String("name", "", "category name")
	desc := fs.String("description", "", "category description")
	if err := fs.Parse(args[1:]); err != nil {
		return err
	}

	var created category.Category
	err := a.session.AuthorizedRequest(ctx, http.MethodPost, "/api/categories",
		category.CreateCategoryRequest{Name: *name, Description: *desc}, &created)
	if err != nil {
		if msg := api.MessageOf(err); msg != "" {
			return fmt.Errorf("%s (status %d)", msg, api.StatusOf(err))
		}
		return err
	}

	fmt.Fprintf(a.out, "created category %s (%s)\n", created.Name, created.ID)
	return nil
}

func (a *app) report(res session.Result) error {
	if res.Message != "" {
		fmt.Fprintln(a.out, res.Message)
	}
	if res.Navigate != "" {
		fmt.Fprintln(a.out, "navigate:", res.Navigate)
	}
	if !res.OK {
		return errors.New("request failed")
	}
	return nil
}

func (a *app) flagSet(name string) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(a.errOut)
	return fs
}

// readPassword reads without echo from a terminal, or a plain line otherwise.
func (a *app) readPassword(prompt string) (string, error) {
	fmt.Fprint(a.errOut, prompt)

	if f, ok := a.in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		b, err := term.ReadPassword(int(f.Fd()))
		fmt.Fprintln(a.errOut)
		if err != nil {
			return "", err
		}
		return string(b), nil
	}

	if a.reader == nil {
		a.reader = bufio.NewReader(a.in)
	}
	line, err := a.reader.ReadString('\n')
	if err != nil && !(errors.Is(err, io.EOF) && line != "") {
		return "", err
	}

	return strings.TrimRight(line, "\r\n"), nil
}
