// Copyright (c) 2024 Z5Labs and Contributors
//
// This software is released under the MIT License.
// https://opensource.org/licenses/MIT

// Package cli implements the gateway command.
package cli

import (
	"context"
	"io"
	"log/slog"
	"os"
	"syscall"

	"github.com/z5labs/gateway"
	"github.com/z5labs/gateway/config"
	"github.com/z5labs/gateway/example/hello"
	"github.com/z5labs/gateway/middleware/auth"
	"github.com/z5labs/gateway/pkg/app"
	"github.com/z5labs/gateway/pkg/slogfield"
	"github.com/z5labs/gateway/server"

	"github.com/spf13/cobra"
)

type options struct {
	getenv func(string) string
}

// Option
type Option func(*options)

// Getenv overrides how environment variables referenced by the
// embedded base config are looked up.
//
// Default is os.Getenv.
func Getenv(f func(string) string) Option {
	return func(o *options) {
		o.getenv = f
	}
}

// Command returns the root gateway command.
func Command(opts ...Option) *cobra.Command {
	o := &options{
		getenv: os.Getenv,
	}
	for _, opt := range opts {
		opt(o)
	}

	var cfgPath string
	cmd := &cobra.Command{
		Use:           "gateway",
		Short:         "Serve an application over a single connection at a time",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			srcs := []config.Source{baseSource(o.getenv)}
			if cfgPath != "" {
				src, err := fileSource(cfgPath)
				if err != nil {
					return err
				}
				srcs = append(srcs, src)
			}

			flagSrc, err := flagSource(cmd.Flags())
			if err != nil {
				return err
			}
			srcs = append(srcs, flagSrc)

			b := builder{
				stdout: cmd.OutOrStdout(),
				stderr: cmd.ErrOrStderr(),
			}
			return gateway.Run(cmd.Context(), b, srcs...)
		},
	}

	cmd.Flags().StringVar(&cfgPath, "config", "", "yaml or json config file layered over the defaults")
	cmd.Flags().String("host", "localhost", "host to listen on")
	cmd.Flags().Int("port", 8000, "port to listen on")
	cmd.Flags().Duration("interval", server.DefaultPollInterval, "how long to wait for a connection between shutdown checks")

	return cmd
}

// Execute runs the gateway command until it fails or the process
// is interrupted.
func Execute(ctx context.Context, args ...string) error {
	cmd := Command()
	cmd.SetArgs(args)

	err := cmd.ExecuteContext(ctx)
	if err != nil {
		cmd.PrintErrln("Error:", err)
	}
	return err
}

type builder struct {
	stdout io.Writer
	stderr io.Writer
}

// Build implements the [gateway.RuntimeBuilder] interface.
func (b builder) Build(ctx context.Context, cfg Config) (gateway.Runtime, error) {
	logHandler, err := newLogHandler(b.stderr, cfg)
	if err != nil {
		return nil, err
	}
	log := slog.New(logHandler)

	initer, err := cfg.OTel.Initializer(b.stdout)
	if err != nil {
		return nil, err
	}

	log.InfoContext(
		ctx,
		"loaded config",
		slog.Group(
			"server",
			slogfield.String("host", cfg.Server.Host),
			slogfield.Int("port", cfg.Server.Port),
			slogfield.Duration("poll_interval", cfg.Server.PollInterval),
			slogfield.String("auth_marker", cfg.Server.AuthMarker),
		),
		slogfield.String("otel_exporter", cfg.OTel.Exporter),
	)

	application := auth.Middleware(
		cfg.Auth.Expected,
		hello.Plain,
		auth.LogHandler(logHandler),
	)

	// Bind inside the runtime; a failing PreRun hook must not leave a listener open.
	rt := gateway.RuntimeFunc(func(ctx context.Context) error {
		srv, err := server.New(
			cfg.Server.Host,
			cfg.Server.Port,
			application,
			append(cfg.Server.Options(), server.LogHandler(logHandler))...,
		)
		if err != nil {
			return err
		}

		err = srv.Run(ctx)
		if err != nil {
			return err
		}
		log.InfoContext(ctx, "shut down", slogfield.Addr("addr", srv.Addr()))
		return nil
	})

	rt = app.WithSignalNotifications(rt, os.Interrupt, syscall.SIGTERM)
	rt = app.WithOTel(rt, initer)
	return app.Recover(rt), nil
}
