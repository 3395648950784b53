package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/idnremote/idnremote-go/config"
	"github.com/idnremote/idnremote-go/internal/bootstrap"
	"github.com/idnremote/idnremote-go/internal/observability/notify"
)

type commandFn func(ctx *commandContext, args []string) error

type command struct {
	name        string
	description string
	run         commandFn
}

type commandContext struct {
	Ctx    context.Context
	Logger *slog.Logger
	Config config.AppConfig
	Out    io.Writer
	Toasts notify.Sink
}

func main() {
	logger := bootstrap.InitLogger(bootstrap.LoggerConfig{Level: slog.LevelWarn, Text: true, Output: os.Stderr})

	if len(os.Args) < 2 {
		if err := printUsage(os.Stdout); err != nil {
			logger.Error("print usage failed", "error", err)
		}
		os.Exit(2) //nolint:forbidigo // CLI must exit with failure status when no command is provided
	}

	cmdName := os.Args[1]
	cmd, ok := commands()[cmdName]
	if !ok {
		if err := writef(os.Stderr, "unknown command %q\n\n", cmdName); err != nil {
			logger.Error("print unknown command message failed", "error", err)
		}
		if err := printUsage(os.Stderr); err != nil {
			logger.Error("print usage failed", "error", err)
		}
		os.Exit(2) //nolint:forbidigo // CLI must exit with failure status when command is unknown
	}

	cfg, err := bootstrap.LoadConfig()
	if err != nil {
		logger.ErrorContext(context.Background(), "load config", "error", err)
		os.Exit(1) //nolint:forbidigo // CLI must signal configuration load failure to shell scripts
	}
	if cfg.LogLevel == "debug" {
		logger = bootstrap.InitLogger(bootstrap.LoggerConfig{Level: slog.LevelDebug, Text: true, Output: os.Stderr})
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmdCtx := &commandContext{
		Ctx:    ctx,
		Logger: logger,
		Config: cfg,
		Out:    os.Stdout,
		Toasts: notify.WriterSink(os.Stdout),
	}
	if runErr := cmd.run(cmdCtx, os.Args[2:]); runErr != nil {
		logger.ErrorContext(cmdCtx.Ctx, "command failed", "command", cmdName, "error", runErr)
		stop()
		os.Exit(1) //nolint:forbidigo // CLI must propagate command execution failure to callers
	}
}

func commands() map[string]command {
	return map[string]command{
		"jobs": {
			name:        "jobs",
			description: "List job vacancies, optionally filtered by --query",
			run:         runJobs,
		},
		"job": {
			name:        "job",
			description: "Show one job vacancy by id",
			run:         runJob,
		},
		"tags": {
			name:        "tags",
			description: "List preference tags",
			run:         runTags,
		},
		"home": {
			name:        "home",
			description: "Fetch the home page data (jobs and tags) concurrently",
			run:         runHome,
		},
		"login": {
			name:        "login",
			description: "Start sign-in and print the provider URL",
			run:         runLogin,
		},
		"callback": {
			name:        "callback",
			description: "Finish sign-in with the URL the provider redirected to",
			run:         runCallback,
		},
		"logout": {
			name:        "logout",
			description: "Sign out and forget the stored session",
			run:         runLogout,
		},
		"whoami": {
			name:        "whoami",
			description: "Restore the session and show the signed-in user",
			run:         runWhoami,
		},
		"navigate": {
			name:        "navigate",
			description: "Resolve paths through the route guard and print where they land",
			run:         runNavigate,
		},
		"profile-save": {
			name:        "profile-save",
			description: "Complete the signed-in user's profile",
			run:         runProfileSave,
		},
		"migrate": {
			name:        "migrate",
			description: "Create the kv_store schema (postgres storage only)",
			run:         runMigrations,
		},
	}
}

func printUsage(w io.Writer) error {
	if err := writef(w, "Usage: idnremote-cli <command> [flags]\n\n"); err != nil {
		return err
	}
	if err := writef(w, "Available commands:\n"); err != nil {
		return err
	}
	cmds := commands()
	names := make([]string, 0, len(cmds))
	for name := range cmds {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		c := cmds[name]
		if err := writef(w, "  %-14s %s\n", c.name, c.description); err != nil {
			return err
		}
	}
	return writef(w, "\nSession commands keep state in STORAGE_FILE_PATH (default: <user config dir>/idnremote/%s)\n"+
		"unless STORAGE_BACKEND is redis or postgres.\n", sessionStoreFile)
}

func (c *commandContext) toast(t notify.Toast) error {
	if c.Toasts == nil {
		return nil
	}
	return c.Toasts.Show(c.Ctx, t)
}

func writef(w io.Writer, format string, args ...any) error {
	_, err := fmt.Fprintf(w, format, args...)
	return err
}

func writeln(w io.Writer, args ...any) error {
	if len(args) == 0 {
		_, err := fmt.Fprintln(w)
		return err
	}
	_, err := fmt.Fprintln(w, args...)
	return err
}
