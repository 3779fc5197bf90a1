package cmd

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"strings"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cmwaters/liquid"
	"github.com/cmwaters/liquid/delegation"
	"github.com/cmwaters/liquid/metrics"
)

const envPrefix = "LIQUID"

// configuration keys, also the names of the flags bound to them
const (
	keyConfig    = "config"
	keyVoters    = "voters"
	keyVotes     = "votes"
	keyLogLevel  = "log-level"
	keyWorkers   = "workers"
	keyNoMemo    = "no-memo"
	keyCacheSize = "cache-size"
	keyMetrics   = "metrics"
)

var errNoVoters = errors.New("no voter file: set --voters or LIQUID_VOTERS")

// env is shared by every command of one invocation
type env struct {
	v   *viper.Viper
	log zerolog.Logger

	// metrics is set once an engine was built with metrics enabled
	metrics *prometheus.Registry
}

func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// NewRootCmd builds the command tree. Every setting can come from a flag, a
// LIQUID_ prefixed environment variable (a .env file in the working directory
// is honoured) or a config file, in that order of precedence.
func NewRootCmd() *cobra.Command {
	e := &env{v: viper.New(), log: zerolog.Nop()}

	rootCmd := &cobra.Command{
		Use:           "liquid",
		Short:         "Resolve delegation chains and tally liquid democracy votes",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return e.initConfig(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			return e.writeMetrics(cmd.ErrOrStderr())
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.String(keyConfig, "", "config file (yaml, json or toml)")
	flags.String(keyVoters, "", "file listing the voters and their delegates")
	flags.String(keyVotes, "", "file mapping voters to their direct votes")
	flags.String(keyLogLevel, zerolog.InfoLevel.String(), "log level")

	defaults := delegation.DefaultParameters()
	flags.Int(keyWorkers, defaults.Workers, "goroutines a tally pass is split across")
	flags.Bool(keyNoMemo, defaults.DisableMemo, "walk every delegation chain in full")
	flags.Int(keyCacheSize, defaults.CacheSize, "tally results kept per vote set revision, 0 disables")
	flags.Bool(keyMetrics, false, "write the collected metrics to stderr when done")

	rootCmd.AddCommand(newTallyCmd(e), newResolveCmd(e), newToggleCmd(e))
	return rootCmd
}

func (e *env) initConfig(cmd *cobra.Command) error {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("loading .env: %w", err)
	}

	e.v.SetEnvPrefix(envPrefix)
	e.v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	e.v.AutomaticEnv()
	if err := e.v.BindPFlags(cmd.Flags()); err != nil {
		return err
	}

	if path := e.v.GetString(keyConfig); path != "" {
		e.v.SetConfigFile(path)
		if err := e.v.ReadInConfig(); err != nil {
			return fmt.Errorf("reading config: %w", err)
		}
	}

	level, err := zerolog.ParseLevel(e.v.GetString(keyLogLevel))
	if err != nil {
		return fmt.Errorf("invalid log level: %w", err)
	}
	e.log = zerolog.New(zerolog.ConsoleWriter{Out: cmd.ErrOrStderr()}).
		Level(level).
		With().Timestamp().Logger()
	return nil
}

func (e *env) parameters() delegation.Parameters {
	return delegation.Parameters{
		Workers:     e.v.GetInt(keyWorkers),
		DisableMemo: e.v.GetBool(keyNoMemo),
		CacheSize:   e.v.GetInt(keyCacheSize),
	}
}

// engine loads the voters and, when a vote file is configured, the votes. A
// vote file that does not exist yet is only accepted when missingVotesOK.
func (e *env) engine(missingVotesOK bool) (*delegation.Engine, error) {
	path := e.v.GetString(keyVoters)
	if path == "" {
		return nil, errNoVoters
	}
	opts := []delegation.Option{delegation.WithLogger(e.log)}
	if e.v.GetBool(keyMetrics) {
		e.metrics = prometheus.NewRegistry()
		opts = append(opts, delegation.WithMetrics(metrics.NewPrometheusCollector(e.metrics)))
	}
	engine, err := liquid.New(path, e.parameters(), opts...)
	if err != nil {
		return nil, err
	}
	e.log.Debug().Str("path", path).Int("voters", engine.Registry().Size()).Msg("loaded voters")

	if votes := e.v.GetString(keyVotes); votes != "" {
		err := liquid.Simulate(engine, votes)
		switch {
		case errors.Is(err, fs.ErrNotExist) && missingVotesOK:
			e.log.Info().Str("path", votes).Msg("vote file does not exist, starting without votes")
			return engine, nil
		case err != nil:
			return nil, err
		}
		e.log.Debug().Str("path", votes).Int("votes", engine.VoteSet().Len()).Msg("loaded votes")
	}
	return engine, nil
}

// writeMetrics writes every gathered metric family in the Prometheus text format.
func (e *env) writeMetrics(w io.Writer) error {
	if e.metrics == nil {
		return nil
	}
	families, err := e.metrics.Gather()
	if err != nil {
		return err
	}
	for _, mf := range families {
		if _, err := expfmt.MetricFamilyToText(w, mf); err != nil {
			return err
		}
	}
	return nil
}
