package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"cosmossdk.io/log"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/spf13/viper"

	"github.com/onesgame/onesdefi/app/telemetry"
)

const (
	flagConfig      = "config"
	flagLogLevel    = "log-level"
	flagLogFormat   = "log-format"
	flagOutput      = "output"
	flagMetricsAddr = "metrics-addr"
	flagNATSURL     = "nats-url"
	flagNATSSubject = "nats-subject"
	flagPGDSN       = "pg-dsn"
	flagRelayRate   = "relay-rate"
	flagOTLP        = "otlp-endpoint"
	flagSampleRate  = "otel-sample-rate"
	flagOTelMetrics = "otel-metrics"

	// EnvPrefix prefixes every environment variable defisim reads, e.g.
	// DEFISIM_NATS_URL.
	EnvPrefix = "DEFISIM"
)

// Config is the resolved configuration of a defisim invocation. Values come
// from flags, then DEFISIM_* environment variables, then the config file.
type Config struct {
	LogLevel    string  `mapstructure:"log-level"`
	LogFormat   string  `mapstructure:"log-format"`
	Output      string  `mapstructure:"output"`
	MetricsAddr string  `mapstructure:"metrics-addr"`
	NATSURL     string  `mapstructure:"nats-url"`
	NATSSubject string  `mapstructure:"nats-subject"`
	PGDSN       string  `mapstructure:"pg-dsn"`
	RelayRate   float64 `mapstructure:"relay-rate"`
	OTLP        string  `mapstructure:"otlp-endpoint"`
	SampleRate  float64 `mapstructure:"otel-sample-rate"`
	OTelMetrics bool    `mapstructure:"otel-metrics"`
}

type rootState struct {
	v      *viper.Viper
	cfg    Config
	logger log.Logger
	stop   func()
}

func newRootState() *rootState {
	return &rootState{v: viper.New(), stop: func() {}}
}

// execute runs root and then stops what its pre-run started, whether or not
// the command succeeded.
func (s *rootState) execute(root *cobra.Command) error {
	defer s.shutdown()
	return root.Execute()
}

func (s *rootState) shutdown() {
	s.stop()
	s.stop = func() {}
}

// newRootCmd creates the defisim root command. Callers run it through
// state.execute.
func newRootCmd(state *rootState) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "defisim",
		Short: "Run the onesdefi exchange engine against scripted or random settlement traffic",
		Long: `defisim hosts the defi settlement engine on an in-memory ledger. It replays
YAML scenarios, generates random traffic while checking the ledger invariants,
and can relay the audit logs to NATS and PostgreSQL.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cmd.SetOut(cmd.OutOrStdout())
			cmd.SetErr(cmd.ErrOrStderr())

			cfg, err := loadConfig(state.v, cmd.Flags())
			if err != nil {
				return err
			}
			state.cfg = cfg

			logger, err := newLogger(cmd.ErrOrStderr(), cfg)
			if err != nil {
				return err
			}
			state.logger = logger

			provider, err := telemetry.NewProvider(telemetry.Config{
				Enabled:           cfg.OTLP != "",
				OTLPEndpoint:      cfg.OTLP,
				SampleRate:        cfg.SampleRate,
				Environment:       "defisim",
				PrometheusEnabled: cfg.OTelMetrics,
			})
			if err != nil {
				return err
			}

			stopMetrics := func() {}
			if cfg.MetricsAddr != "" {
				stopMetrics = startMetricsServer(cfg.MetricsAddr, logger)
			}
			state.stop = func() {
				stopMetrics()
				ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
				defer cancel()
				if err := provider.Shutdown(ctx); err != nil {
					logger.Error("failed to shutdown telemetry", "error", err)
				}
			}
			return nil
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.String(flagConfig, "", "config file (yaml or toml)")
	pf.String(flagLogLevel, "info", "log level, e.g. info or x/defi:debug,*:info")
	pf.String(flagLogFormat, "plain", "log format (plain|json)")
	pf.StringP(flagOutput, "o", "yaml", "report format (yaml|json)")
	pf.String(flagMetricsAddr, "", "serve Prometheus metrics on this address, e.g. :36660")
	pf.String(flagNATSURL, "", "relay audit records to this NATS server")
	pf.String(flagNATSSubject, "", "subject prefix for relayed audit records")
	pf.String(flagPGDSN, "", "relay audit records into this PostgreSQL database")
	pf.Float64(flagRelayRate, 0, "max audit records relayed per second (0 for no limit)")
	pf.String(flagOTLP, "", "export traces to this OTLP/HTTP collector, e.g. localhost:4318")
	pf.Float64(flagSampleRate, 1, "fraction of settlement transactions traced")
	pf.Bool(flagOTelMetrics, false, "also export OpenTelemetry metrics on the Prometheus endpoint")

	rootCmd.AddCommand(
		RunCmd(state),
		FuzzCmd(state),
		GenesisCmd(state),
	)
	return rootCmd
}

// Execute runs the root command.
func Execute() error {
	state := newRootState()
	return state.execute(newRootCmd(state))
}

func loadConfig(v *viper.Viper, flags *pflag.FlagSet) (Config, error) {
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv()
	if err := v.BindPFlags(flags); err != nil {
		return Config{}, err
	}

	if path := v.GetString(flagConfig); path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("decode config: %w", err)
	}
	switch cfg.Output {
	case "yaml", "json":
	default:
		return Config{}, fmt.Errorf("unknown output format %q", cfg.Output)
	}
	return cfg, nil
}

func newLogger(w io.Writer, cfg Config) (log.Logger, error) {
	filter, err := log.ParseLogLevel(cfg.LogLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", cfg.LogLevel, err)
	}
	opts := []log.Option{log.FilterOption(filter)}
	switch cfg.LogFormat {
	case "", "plain":
		opts = append(opts, log.ColorOption(false))
	case "json":
		opts = append(opts, log.OutputJSONOption())
	default:
		return nil, errors.New("log format must be plain or json")
	}
	return log.NewLogger(w, opts...), nil
}
