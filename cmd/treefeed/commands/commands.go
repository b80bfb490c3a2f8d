// Package commands implements CLI command handlers for treefeed.
package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"go.opentelemetry.io/otel/trace"

	"github.com/Sumatoshi-tech/treefeed/internal/config"
	"github.com/Sumatoshi-tech/treefeed/internal/observability"
	"github.com/Sumatoshi-tech/treefeed/pkg/version"
)

// Sentinel errors shared by command flag validation.
var (
	// ErrMissingInput is returned when a command requires --in.
	ErrMissingInput = errors.New("--in is required")
	// ErrMissingOutput is returned when a command requires --out.
	ErrMissingOutput = errors.New("--out is required")
)

// RegisterRootFlags attaches the persistent flags every subcommand reads.
func RegisterRootFlags(root *cobra.Command) {
	root.PersistentFlags().String("config", "", "Config file path (default: .treefeed.yaml in CWD or $HOME)")
	root.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error")
	root.PersistentFlags().String("telemetry-endpoint", "", "OTLP gRPC collector endpoint (empty = export off)")
	root.PersistentFlags().String("metrics-listen", "", "Prometheus scrape listen address (empty = off)")
	root.PersistentFlags().BoolP("quiet", "q", false, "Suppress progress output")
}

// loadCommandConfig resolves the effective configuration for one command
// invocation: config file and environment first, root flag overrides last.
func loadCommandConfig(cmd *cobra.Command) (*config.Config, error) {
	cfg, err := config.LoadConfig(flagString(cmd, "config"))
	if err != nil {
		return nil, err
	}

	if v := flagString(cmd, "log-level"); v != "" {
		cfg.LogLevel = v
	}

	if v := flagString(cmd, "telemetry-endpoint"); v != "" {
		cfg.Telemetry.Endpoint = v
	}

	if v := flagString(cmd, "metrics-listen"); v != "" {
		cfg.Telemetry.MetricsListen = v
	}

	return cfg, nil
}

// flagString reads a string flag, tolerating commands wired without the
// persistent root flags (as in subcommand tests).
func flagString(cmd *cobra.Command, name string) string {
	v, err := cmd.Flags().GetString(name)
	if err != nil {
		return ""
	}

	return v
}

// flagBool is flagString for bool flags.
func flagBool(cmd *cobra.Command, name string) bool {
	v, err := cmd.Flags().GetBool(name)
	if err != nil {
		return false
	}

	return v
}

// Runtime bundles the observability handles command executors run with.
type Runtime struct {
	Logger  *slog.Logger
	Tracer  trace.Tracer
	Metrics *observability.PipelineMetrics

	progress    io.Writer
	silent      bool
	stopMetrics func()
	shutdown    func(ctx context.Context) error
}

// newRuntime initializes observability for one command invocation. With no
// telemetry endpoint and no metrics listener configured, the providers are
// no-op and carry zero export overhead.
func newRuntime(cmd *cobra.Command, cfg *config.Config) (*Runtime, error) {
	obsCfg := observability.DefaultConfig()
	obsCfg.ServiceVersion = version.String()
	obsCfg.LogLevel = observability.ParseLevel(cfg.LogLevel)
	obsCfg.OTLPEndpoint = cfg.Telemetry.Endpoint
	obsCfg.OTLPHeaders = observability.ParseOTLPHeaders(os.Getenv("OTEL_EXPORTER_OTLP_HEADERS"))
	obsCfg.OTLPInsecure = os.Getenv("OTEL_EXPORTER_OTLP_INSECURE") == "true"
	obsCfg.MetricsListen = cfg.Telemetry.MetricsListen

	providers, err := observability.Init(obsCfg)
	if err != nil {
		return nil, err
	}

	metrics, err := observability.NewPipelineMetrics(providers.Meter)
	if err != nil {
		return nil, errors.Join(err, providers.Shutdown(context.Background()))
	}

	rt := &Runtime{
		Logger:   providers.Logger,
		Tracer:   providers.Tracer,
		Metrics:  metrics,
		progress: cmd.ErrOrStderr(),
		silent:   flagBool(cmd, "quiet"),
		shutdown: providers.Shutdown,
	}

	if providers.MetricsHandler != nil {
		rt.stopMetrics = observability.ServeMetrics(cfg.Telemetry.MetricsListen, providers.MetricsHandler, providers.Logger)
	}

	return rt, nil
}

// Progressf writes a progress line to stderr unless --quiet is set.
func (rt *Runtime) Progressf(format string, args ...any) {
	if rt.silent {
		return
	}

	_, _ = fmt.Fprintf(rt.progress, "progress: "+format+"\n", args...)
}

// Close stops the metrics listener and flushes pending telemetry.
func (rt *Runtime) Close(ctx context.Context) {
	if rt.stopMetrics != nil {
		rt.stopMetrics()
	}

	err := rt.shutdown(ctx)
	if err != nil {
		rt.Logger.Warn("observability shutdown failed", "error", err)
	}
}
