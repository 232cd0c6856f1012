// Command populator loads a pokedex file into the pokemons collection.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"sync/atomic"
	"syscall"

	"pokedex_module/config"
	"pokedex_module/database"
	"pokedex_module/logging"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

const defaultSource = "https://raw.githubusercontent.com/fanzeyi/pokemon.json/master/pokedex.json"

type populateOptions struct {
	configPath string
	source     string
	drop       bool
	workers    int
}

func newPopulateCmd() *cobra.Command {
	opts := &populateOptions{}

	cmd := &cobra.Command{
		Use:           "populator",
		Short:         "Load a pokedex JSON or YAML file into MongoDB",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if opts.workers < 1 {
				return fmt.Errorf("--workers must be at least 1, got %d", opts.workers)
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()
			return populate(ctx, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.configPath, "config", "c", "", "path to a config file")
	cmd.Flags().StringVarP(&opts.source, "source", "s", defaultSource, "seed file path or http(s) URL (.json, .yaml or .yml)")
	cmd.Flags().BoolVar(&opts.drop, "drop", false, "drop the collection before loading")
	cmd.Flags().IntVarP(&opts.workers, "workers", "w", 8, "concurrent writes")
	return cmd
}

func populate(ctx context.Context, opts *populateOptions) error {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return err
	}

	logger, err := logging.New(cfg.Log, "populator")
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	data, err := readSource(ctx, opts.source)
	if err != nil {
		return err
	}
	records, err := parseSeed(data, isYAML(opts.source))
	if err != nil {
		return err
	}
	logger.Info("seed loaded", zap.String("source", opts.source), zap.Int("records", len(records)))

	client, err := database.Connect(ctx, cfg.Database, logger)
	if err != nil {
		return err
	}
	defer func() { _ = client.Disconnect(context.Background()) }()

	repo := database.NewPokemonRepository(client.Database(cfg.Database.Name), cfg.Database.Collection, cfg.Database.QueryTimeout)
	if opts.drop {
		if err := repo.Drop(ctx); err != nil {
			return err
		}
		logger.Info("collection dropped", zap.String("collection", cfg.Database.Collection))
	}
	if err := repo.EnsureIndexes(ctx); err != nil {
		return err
	}

	var written atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(opts.workers)

	for i, record := range records {
		pokemon := record.Pokemon(i)
		g.Go(func() error {
			if err := repo.Upsert(gctx, pokemon); err != nil {
				return err
			}
			written.Add(1)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("populate stopped after %d records: %w", written.Load(), err)
	}

	logger.Info("populate finished", zap.Int64("written", written.Load()))
	return nil
}

func main() {
	if err := newPopulateCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "populator:", err)
		os.Exit(1)
	}
}
