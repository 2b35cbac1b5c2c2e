// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/watchbind/watchbind/internal/issue"
	"github.com/watchbind/watchbind/internal/sshserver"
)

type serveFlagValues struct {
	host           string
	port           int
	hostKey        string
	authorizedKeys string
}

// newServeCommand creates `watchbind serve`, which shows the interface to
// SSH clients. Every client gets its own capture loop and selection.
func newServeCommand(app *App, rootFlags *rootFlagValues) *cobra.Command {
	flags := &serveFlagValues{}

	serveCmd := &cobra.Command{
		Use:   "serve [flags] [--] COMMAND...",
		Short: "Serve the interface over SSH",
		Long: `Serve the interface over SSH.

Each SSH session runs COMMAND on this host in its own capture loop, so
clients select lines and run actions independently. Without
--authorized-keys any client may connect.`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd, app, rootFlags, flags, args)
		},
	}
	serveCmd.Flags().SetInterspersed(false)

	fs := serveCmd.Flags()
	fs.StringVar(&flags.host, "host", "localhost", "address to listen on")
	fs.IntVarP(&flags.port, "port", "p", 23234, "port to listen on (0 picks a free port)")
	fs.StringVar(&flags.hostKey, "host-key", "", "host key file, created when missing (default is a key for this run only)")
	fs.StringVar(&flags.authorizedKeys, "authorized-keys", "", "only accept the public keys in this file")
	return serveCmd
}

func (f *serveFlagValues) overrides(cmd *cobra.Command) map[string]any {
	out := make(map[string]any)
	fs := cmd.Flags()
	if fs.Changed("host") {
		out["ssh.host"] = f.host
	}
	if fs.Changed("port") {
		out["ssh.port"] = f.port
	}
	if fs.Changed("host-key") {
		out["ssh.host_key_path"] = f.hostKey
	}
	if fs.Changed("authorized-keys") {
		out["ssh.authorized_keys"] = f.authorizedKeys
	}
	return out
}

func runServe(cmd *cobra.Command, app *App, rootFlags *rootFlagValues, flags *serveFlagValues, args []string) error {
	cfg, err := loadConfig(cmd, app, rootFlags, flags.overrides(cmd))
	if err != nil {
		return err
	}

	builder, err := newSessionBuilder(cfg, args, rootFlags.bindings)
	if err != nil {
		return err
	}

	// No interface owns this terminal, so logs go to stderr unless a file is set.
	if cfg.Log.File == "" {
		cfg.Log.File = "-"
	}
	logger, closeLog, err := newLogger(cfg)
	if err != nil {
		return err
	}
	defer func() { _ = closeLog() }()

	srv := sshserver.New(sshserver.Config{
		Host:           cfg.SSH.Host,
		Port:           cfg.SSH.Port,
		HostKeyPath:    cfg.SSH.HostKeyPath,
		AuthorizedKeys: cfg.SSH.AuthorizedKeys,
		NewSession:     builder.sessionFactory(),
		Logger:         logger,
	})

	ctx := cmd.Context()
	if err := srv.Start(ctx); err != nil {
		return issue.NewErrorContext().
			WithOperation("start SSH server").
			WithResource(fmt.Sprintf("%s:%d", cfg.SSH.Host, cfg.SSH.Port)).
			WithIssue(issue.SSHServerFailedId).
			Wrap(err).
			BuildError()
	}

	fmt.Fprintf(app.stdout, "%s serving %s on %s\n",
		SuccessStyle.Render("✓"), CmdStyle.Render(builder.command.String()), CmdStyle.Render(srv.Address()))
	if cfg.SSH.AuthorizedKeys == "" {
		fmt.Fprintln(app.stderr, WarningStyle.Render("Warning: ")+"no --authorized-keys given, any SSH client may connect")
	}

	select {
	case <-ctx.Done():
		logger.Info("shutting down", "sessions", srv.Sessions())
		return srv.Stop()
	case err, ok := <-srv.Err():
		_ = srv.Stop()
		if !ok || err == nil {
			return nil
		}
		return issue.NewErrorContext().
			WithOperation("serve SSH").
			WithResource(srv.Address()).
			WithIssue(issue.SSHServerFailedId).
			Wrap(err).
			BuildError()
	}
}
