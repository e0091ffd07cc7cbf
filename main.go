// scopetags generates ctags-style tag records from tree-sitter scope trees,
// speaking a line-delimited JSON protocol on stdin/stdout.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/phobologic/scopetags/internal/config"
	"github.com/phobologic/scopetags/internal/session"
)

var version = "dev"

const programName = "scopetags"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := run(ctx, os.Args[1:], os.Stdin, os.Stdout, os.Stderr)
	stop()
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

// app carries the I/O streams and the configuration resolved before any
// command runs.
type app struct {
	stdin      io.Reader
	stdout     io.Writer
	stderr     io.Writer
	configFile string

	cfg *config.Config
	log *slog.Logger
}

func run(ctx context.Context, args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	a := &app{stdin: stdin, stdout: stdout, stderr: stderr}

	root := a.rootCmd()
	root.SetArgs(args)
	root.SetIn(stdin)
	root.SetOut(stdout)
	root.SetErr(stderr)
	return root.ExecuteContext(ctx)
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   programName,
		Short: "Generate ctags-style tags from tree-sitter scope trees",
		Long: `scopetags reads generate-tags requests on stdin, each followed by the
file's content, and answers with one JSON tag record per line on stdout.
Logs go to stderr.`,
		Version:           version,
		SilenceUsage:      true,
		SilenceErrors:     true,
		Args:              cobra.NoArgs,
		PersistentPreRunE: a.setup,
		RunE:              a.serve,
	}
	root.SetVersionTemplate(programName + " {{.Version}}\n")

	pf := root.PersistentFlags()
	pf.StringVar(&a.configFile, "config", "", "YAML config file")
	config.RegisterFlags(pf)

	root.AddCommand(&cobra.Command{
		Use:   "serve",
		Short: "Answer generate-tags requests on stdin (default)",
		Args:  cobra.NoArgs,
		RunE:  a.serve,
	})
	root.AddCommand(a.scanCmd())

	return root
}

func (a *app) setup(cmd *cobra.Command, _ []string) error {
	cfg, err := config.Load(cmd.Flags(), a.configFile)
	if err != nil {
		return err
	}
	a.cfg = cfg
	a.log = newLogger(cfg, a.stderr)
	return nil
}

func (a *app) newSession() *session.Session {
	return session.New(session.Options{
		Name:        programName,
		Version:     version,
		MaxFileSize: a.cfg.MaxFileSize,
		Logger:      a.log,
	})
}

func (a *app) serve(cmd *cobra.Command, _ []string) error {
	a.log.Debug("serving", "version", version)
	return a.newSession().Serve(cmd.Context(), a.stdin, a.stdout)
}

// newLogger writes to w, never stdout: stdout carries the protocol.
func newLogger(cfg *config.Config, w io.Writer) *slog.Logger {
	opts := &slog.HandlerOptions{Level: cfg.LogLevel}
	if cfg.LogFormat == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
