// Package cmd implements the innertube-miner command line.
package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/researchaccelerator-hub/innertube-miner/client"
	"github.com/researchaccelerator-hub/innertube-miner/common"
	"github.com/researchaccelerator-hub/innertube-miner/config"
	"github.com/researchaccelerator-hub/innertube-miner/enrich"
	"github.com/researchaccelerator-hub/innertube-miner/miner"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// app carries the state shared by the commands of one invocation.
type app struct {
	v   *viper.Viper
	cfg *config.MinerConfig
	out io.Writer
}

// NewRootCommand builds the command tree with its own configuration state.
func NewRootCommand() *cobra.Command {
	a := &app{v: viper.New()}
	defaults := config.DefaultMinerConfig()

	rootCmd := &cobra.Command{
		Use:   "innertube-miner",
		Short: "Mine videos and playlists from YouTube InnerTube documents",
		Long: `innertube-miner fetches YouTube watch pages and InnerTube browse/next documents,
extracts canonical video records from them and follows continuation tokens up to a
configured cap. Results are written to stdout as JSON, one document per line.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.v)
			if err != nil {
				return err
			}
			if err := common.SetupLogging(cfg.Log.Level, cfg.Log.Pretty, cmd.ErrOrStderr()); err != nil {
				return err
			}
			log.Logger = log.With().Str("run_id", common.GenerateRunID()).Logger()
			a.cfg = cfg
			a.out = cmd.OutOrStdout()
			return nil
		},
	}

	pf := rootCmd.PersistentFlags()
	pf.String("config", "", "Path to a configuration file (yaml, json or toml)")
	pf.String("log-level", defaults.Log.Level, "Log level (trace, debug, info, warn, error)")
	pf.Bool("log-pretty", defaults.Log.Pretty, "Human readable log output")
	pf.Int("cap", defaults.Pagination.Cap, "Maximum number of videos collected per request")
	pf.Int("max-attempts", defaults.Pagination.MaxAttempts, "Maximum number of continuation fetches per request")
	pf.Int("concurrency", defaults.Enrichment.Concurrency, "Maximum concurrent thumbnail resolutions")
	pf.String("thumbnails", defaults.Enrichment.Mode, "Thumbnail mode (none, template, probe, dataapi)")
	pf.String("api-key", "", "YouTube Data API key for the dataapi thumbnail mode")

	bindings := map[string]string{
		"config":                  "config",
		"log.level":               "log-level",
		"log.pretty":              "log-pretty",
		"pagination.cap":          "cap",
		"pagination.max_attempts": "max-attempts",
		"enrichment.concurrency":  "concurrency",
		"enrichment.mode":         "thumbnails",
		"enrichment.api_key":      "api-key",
	}
	for key, flag := range bindings {
		if err := a.v.BindPFlag(key, pf.Lookup(flag)); err != nil {
			panic(fmt.Sprintf("bind flag %s: %v", flag, err))
		}
	}

	rootCmd.AddCommand(newVideoCommand(a), newPlaylistCommand(a))
	return rootCmd
}

// Execute runs the root command
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// newMiner connects a transport and builds the enrichment pool from the
// loaded configuration. The returned function releases both.
func (a *app) newMiner(ctx context.Context) (*miner.Miner, func(), error) {
	source, err := client.NewInnerTubeClient(&client.InnerTubeConfig{
		BaseURL:        a.cfg.InnerTube.BaseURL,
		ClientName:     a.cfg.InnerTube.ClientName,
		ClientVersion:  a.cfg.InnerTube.ClientVersion,
		UserAgent:      a.cfg.InnerTube.UserAgent,
		AcceptLanguage: a.cfg.InnerTube.AcceptLanguage,
		Timeout:        a.cfg.InnerTube.Timeout,
	})
	if err != nil {
		return nil, nil, err
	}
	if err := source.Connect(ctx); err != nil {
		return nil, nil, err
	}
	disconnect := func() {
		if err := source.Disconnect(context.Background()); err != nil {
			log.Warn().Err(err).Msg("Failed to disconnect InnerTube client")
		}
	}

	var pool *enrich.Pool
	closeResolver := func() {}
	if a.cfg.EnrichmentEnabled() {
		resolver, closeFn, err := client.NewThumbnailResolver(ctx, a.cfg.Enrichment, nil)
		if err != nil {
			disconnect()
			return nil, nil, fmt.Errorf("failed to create thumbnail resolver: %w", err)
		}
		pool = enrich.NewPool(resolver, a.cfg.Enrichment.Concurrency)
		closeResolver = closeFn
	}

	closeFn := func() {
		closeResolver()
		disconnect()
	}
	return miner.New(source, a.cfg.Pagination, pool), closeFn, nil
}

// emit writes v as a single JSON line.
func (a *app) emit(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to write result: %w", err)
	}
	return nil
}
