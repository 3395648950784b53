package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/url"
	"os"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/idnremote/idnremote-go/internal/bootstrap"
	domainauth "github.com/idnremote/idnremote-go/internal/domain/auth"
	"github.com/idnremote/idnremote-go/internal/domain/model"
	"github.com/idnremote/idnremote-go/internal/domain/navigation"
	"github.com/idnremote/idnremote-go/internal/migrate"
	"github.com/idnremote/idnremote-go/internal/observability/notify"
	"github.com/idnremote/idnremote-go/internal/ports"
	"github.com/idnremote/idnremote-go/internal/service"
)

const (
	defaultMigrationTimeout = 5 * time.Minute
	defaultNavigateTimeout  = 30 * time.Second
)

type loginOptions struct {
	RedirectURL string
	PrintURL    bool
}

type navigateOptions struct {
	Timeout time.Duration
	Paths   []string
}

type migrateOptions struct {
	Timeout time.Duration
	Status  bool
}

func parseLoginFlags(args []string, baseURL string) (loginOptions, error) {
	fs := flag.NewFlagSet("login", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	defaultRedirect := strings.TrimRight(baseURL, "/") + navigation.AuthCallbackPath
	var opts loginOptions
	fs.StringVar(&opts.RedirectURL, "redirect", defaultRedirect, "Where the provider should send the browser after sign-in")
	fs.BoolVar(&opts.PrintURL, "print-url", false, "Only print the sign-in URL, even when mock auth could finish it here")

	if err := fs.Parse(args); err != nil {
		return loginOptions{}, err
	}
	return opts, nil
}

func parseCallbackArgs(args []string) (ports.ExchangeInput, error) {
	if len(args) != 1 {
		return ports.ExchangeInput{}, errors.New("usage: callback <redirected-url>")
	}
	u, err := url.Parse(strings.TrimSpace(args[0]))
	if err != nil {
		return ports.ExchangeInput{}, fmt.Errorf("parse callback url: %w", err)
	}
	q := u.Query()
	if e := q.Get("error"); e != "" {
		if desc := q.Get("error_description"); desc != "" {
			return ports.ExchangeInput{}, fmt.Errorf("sign-in cancelled: %s: %s", e, desc)
		}
		return ports.ExchangeInput{}, fmt.Errorf("sign-in cancelled: %s", e)
	}
	in := ports.ExchangeInput{Code: q.Get("code"), State: q.Get("state")}
	if in.Code == "" || in.State == "" {
		return ports.ExchangeInput{}, errors.New("callback url must carry code and state")
	}
	return in, nil
}

func parseNavigateFlags(args []string) (navigateOptions, error) {
	fs := flag.NewFlagSet("navigate", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	opts := navigateOptions{Timeout: defaultNavigateTimeout}
	fs.DurationVar(&opts.Timeout, "timeout", defaultNavigateTimeout, "Maximum time to wait for each navigation")

	if err := fs.Parse(args); err != nil {
		return navigateOptions{}, err
	}
	if opts.Timeout <= 0 {
		return navigateOptions{}, errors.New("--timeout must be greater than zero")
	}
	opts.Paths = fs.Args()
	if len(opts.Paths) == 0 {
		return navigateOptions{}, errors.New("usage: navigate [--timeout d] <path> [path...]")
	}
	return opts, nil
}

func parseProfileFlags(args []string) (model.SaveProfileInput, error) {
	fs := flag.NewFlagSet("profile-save", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	var (
		in   model.SaveProfileInput
		tags string
	)
	fs.StringVar(&in.Fullname, "full-name", "", "Full name (required)")
	fs.StringVar(&in.Nickname, "nickname", "", "Nickname (required)")
	fs.StringVar(&in.WhatsappNumber, "whatsapp", "", "WhatsApp number (required)")
	fs.StringVar(&in.CurrentJob, "current-job", "", "Current job title")
	fs.StringVar(&in.ProfilePicture, "picture", "", "Profile picture URL")
	fs.StringVar(&tags, "tags", "", "Comma-separated preference tags")

	if err := fs.Parse(args); err != nil {
		return model.SaveProfileInput{}, err
	}
	in.PreferencesTags = splitTags(tags)
	in.Normalize()
	if err := in.Validate(); err != nil {
		return model.SaveProfileInput{}, err
	}
	return in, nil
}

func parseMigrateFlags(args []string) (migrateOptions, error) {
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)

	opts := migrateOptions{Timeout: defaultMigrationTimeout}
	fs.DurationVar(&opts.Timeout, "timeout", defaultMigrationTimeout,
		"Maximum duration to wait for migrations to complete")
	fs.BoolVar(&opts.Status, "status", false, "List pending migrations without applying them")

	if err := fs.Parse(args); err != nil {
		return migrateOptions{}, err
	}
	if opts.Timeout <= 0 {
		return migrateOptions{}, errors.New("--timeout must be greater than zero")
	}
	return opts, nil
}

func splitTags(raw string) []string {
	out := []string{}
	for _, t := range strings.Split(raw, ",") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func runLogin(cmdCtx *commandContext, args []string) error {
	opts, err := parseLoginFlags(args, cmdCtx.Config.HTTP.BaseURL)
	if err != nil {
		return err
	}
	conns, err := openSession(cmdCtx)
	if err != nil {
		return err
	}
	defer closeConnections(cmdCtx, conns)

	session := conns.services.Session
	res, err := session.Login(cmdCtx.Ctx, opts.RedirectURL)
	if err != nil {
		return err
	}

	// Mock auth returns a local callback URL; finish it right away.
	if u, parseErr := url.Parse(res.URL); parseErr == nil && u.Host == "" && !opts.PrintURL {
		in, cbErr := parseCallbackArgs([]string{res.URL})
		if cbErr != nil {
			return cbErr
		}
		st, loginErr := session.CompleteLogin(cmdCtx.Ctx, in)
		if loginErr != nil {
			return loginErr
		}
		return printSession(cmdCtx.Out, st, session.Facts())
	}

	if err := writef(cmdCtx.Out, "Open this URL to sign in:\n\n  %s\n\n", res.URL); err != nil {
		return err
	}
	return writef(cmdCtx.Out, "Then run: idnremote-cli callback '<the URL you were redirected to>'\n")
}

func runCallback(cmdCtx *commandContext, args []string) error {
	in, err := parseCallbackArgs(args)
	if err != nil {
		return err
	}
	conns, err := openSession(cmdCtx)
	if err != nil {
		return err
	}
	defer closeConnections(cmdCtx, conns)

	session := conns.services.Session
	st, err := session.CompleteLogin(cmdCtx.Ctx, in)
	if err != nil {
		return err
	}
	return printSession(cmdCtx.Out, st, session.Facts())
}

func runLogout(cmdCtx *commandContext, _ []string) error {
	conns, err := openSession(cmdCtx)
	if err != nil {
		return err
	}
	defer closeConnections(cmdCtx, conns)

	if err := conns.services.Session.Logout(cmdCtx.Ctx); err != nil {
		return err
	}
	return cmdCtx.toast(notify.Success("Signed out", "You have been signed out."))
}

func runWhoami(cmdCtx *commandContext, _ []string) error {
	conns, err := openSession(cmdCtx)
	if err != nil {
		return err
	}
	defer closeConnections(cmdCtx, conns)

	session := conns.services.Session
	st := session.Init(cmdCtx.Ctx)
	return printSession(cmdCtx.Out, st, session.Facts())
}

// runNavigate restores the session concurrently with navigation, as a page load does.
// Protected paths reached while Init is in flight wait for it to settle.
func runNavigate(cmdCtx *commandContext, args []string) error {
	opts, err := parseNavigateFlags(args)
	if err != nil {
		return err
	}
	conns, err := openSession(cmdCtx)
	if err != nil {
		return err
	}
	defer closeConnections(cmdCtx, conns)

	wait := conns.services.Session.Start(cmdCtx.Ctx)
	defer wait()

	return navigateAll(cmdCtx.Ctx, cmdCtx.Out, conns.services.Navigator, opts)
}

func navigateAll(ctx context.Context, w io.Writer, nav *service.Navigator, opts navigateOptions) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	if err := writef(tw, "PATH\tROUTE\tTITLE\tREDIRECTED FROM\n"); err != nil {
		return err
	}
	for _, p := range opts.Paths {
		navCtx, cancel := context.WithTimeout(ctx, opts.Timeout)
		res, err := nav.Navigate(navCtx, p)
		cancel()
		if err != nil {
			return fmt.Errorf("navigate %s: %w", p, err)
		}
		from := strings.Join(res.Redirects, " -> ")
		if from == "" {
			from = "-"
		}
		if err := writef(tw, "%s\t%s\t%s\t%s\n", p, res.Match.Route.Name, res.Title, from); err != nil {
			return err
		}
	}
	return tw.Flush()
}

func runProfileSave(cmdCtx *commandContext, args []string) error {
	in, err := parseProfileFlags(args)
	if err != nil {
		return err
	}
	conns, err := openSession(cmdCtx)
	if err != nil {
		return err
	}
	defer closeConnections(cmdCtx, conns)

	session := conns.services.Session
	session.Init(cmdCtx.Ctx)
	user, err := session.CompleteUserProfile(cmdCtx.Ctx, in)
	if err != nil {
		return err
	}
	if err := cmdCtx.toast(notify.Success("Profile saved", "Your profile is complete.")); err != nil {
		return err
	}
	return printUser(cmdCtx.Out, &user)
}

func runMigrations(cmdCtx *commandContext, args []string) error {
	opts, err := parseMigrateFlags(args)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(cmdCtx.Ctx, opts.Timeout)
	defer cancel()

	db, err := bootstrap.ConnectDB(bootstrap.DatabaseConfig{
		DBConfig: cmdCtx.Config.Postgres,
		Logger:   cmdCtx.Logger,
	})
	if err != nil {
		return fmt.Errorf("connect db: %w", err)
	}
	defer func() {
		if closeErr := db.Close(); closeErr != nil {
			cmdCtx.Logger.Warn("db close failed", "error", closeErr)
		}
	}()

	if opts.Status {
		pending, pendingErr := migrate.Pending(ctx, db)
		if pendingErr != nil {
			return fmt.Errorf("check migrations: %w", pendingErr)
		}
		if len(pending) == 0 {
			return writeln(cmdCtx.Out, "Schema is up to date.")
		}
		return writef(cmdCtx.Out, "Pending migrations: %s\n", strings.Join(pending, ", "))
	}

	if migrateErr := bootstrap.RunMigrations(ctx, db, cmdCtx.Logger); migrateErr != nil {
		return fmt.Errorf("run migrations: %w", migrateErr)
	}
	return writeln(cmdCtx.Out, "Migrations completed.")
}

func printSession(w io.Writer, st domainauth.ProcessState, facts domainauth.Facts) error {
	if err := writef(w, "Status: %s\n", st.Phase()); err != nil {
		return err
	}
	if st.Phase() == domainauth.PhaseDegraded {
		if err := writeln(w, "Note: signed in, but no backend profile is loaded."); err != nil {
			return err
		}
	}
	if facts.IsLoggedIn && facts.NeedsProfileCompletion {
		if err := writeln(w, "Profile incomplete: run idnremote-cli profile-save."); err != nil {
			return err
		}
	}
	user := domainauth.CurrentUser(st)
	if user == nil {
		return nil
	}
	return printUser(w, user)
}

func printUser(w io.Writer, u *model.User) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	rows := [][2]string{
		{"ID", u.ID},
		{"Email", u.Email},
		{"Full name", u.Fullname},
		{"Nickname", u.Nickname},
		{"WhatsApp", u.WhatsappNumber},
		{"Current job", u.CurrentJob},
		{"Tags", strings.Join(u.PreferencesTags, ", ")},
	}
	for _, r := range rows {
		if err := writef(tw, "%s:\t%s\n", r[0], r[1]); err != nil {
			return err
		}
	}
	return tw.Flush()
}
