// Command postfarm manages the social-media dashboard state from the terminal.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"postfarm/internal/bootstrap"
	"postfarm/internal/config"
	"postfarm/internal/observability"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var version = "dev"

// app carries what every subcommand needs once the root command has run.
type app struct {
	out    io.Writer
	errOut io.Writer
	format string

	ctx      context.Context
	cfg      *config.Config
	rt       *bootstrap.Runtime
	opts     bootstrap.Options
	shutdown func(context.Context) error
}

func (a *app) setup(cmd *cobra.Command) error {
	// .env is optional
	_ = godotenv.Load()

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	a.cfg = cfg

	observability.SetGlobalLogger(observability.NewLogger(cmd.ErrOrStderr(), cfg.LogLevel))

	shutdown, err := observability.InitTracing(observability.TracingConfig{
		ServiceName:    "postfarm",
		ServiceVersion: version,
		Environment:    cfg.Env,
		Enabled:        cfg.TracingEnabled,
		Exporter:       cfg.TracingExporter,
		OTLPEndpoint:   cfg.OTLPEndpoint,
		SamplerRatio:   cfg.TracingSampler,
		Writer:         cmd.ErrOrStderr(),
	})
	if err != nil {
		return fmt.Errorf("failed to init tracing: %w", err)
	}
	a.shutdown = shutdown

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	a.ctx = observability.WithCorrelationID(ctx, observability.GenerateCorrelationID())

	rt, err := bootstrap.InitRuntime(a.ctx, cfg, a.opts)
	if err != nil {
		return fmt.Errorf("failed to initialize runtime: %w", err)
	}
	a.rt = rt
	return nil
}

func (a *app) teardown() error {
	var firstErr error
	if a.rt != nil {
		firstErr = a.rt.Close()
		a.rt = nil
	}
	if a.shutdown != nil {
		if err := a.shutdown(context.Background()); err != nil && firstErr == nil {
			firstErr = err
		}
		a.shutdown = nil
	}
	return firstErr
}

func newApp(out io.Writer, opts bootstrap.Options) *app {
	return &app{out: out, errOut: os.Stderr, format: formatText, opts: opts}
}

func (a *app) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "postfarm",
		Short:         "Manage clients, scheduled posts and the comment inbox",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := validateFormat(a.format); err != nil {
				return err
			}
			return a.setup(cmd)
		},
	}
	root.SetOut(a.out)
	root.SetErr(a.errOut)
	root.PersistentFlags().StringVarP(&a.format, "out", "o", a.format, "Output format: text|json|yaml")

	root.AddCommand(
		newStateCmd(a),
		newClientCmd(a),
		newPostCmd(a),
		newInboxCmd(a),
		newReplyCmd(a),
		newConnectCmd(a),
		newDisconnectCmd(a),
		newAnalyticsCmd(a),
		newSecurityCmd(a),
		newFlagsCmd(a),
		newLangCmd(a),
		newSeedCmd(a),
	)
	return root
}

// execute runs one command line and always releases the runtime afterwards.
func (a *app) execute(ctx context.Context, args []string) error {
	root := a.rootCmd()
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	if terr := a.teardown(); err == nil {
		err = terr
	}
	return err
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newApp(os.Stdout, bootstrap.Options{}).execute(ctx, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err.Error())
		os.Exit(1)
	}
}
