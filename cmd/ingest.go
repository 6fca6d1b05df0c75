package main

import (
	"context"
	"os/signal"
	"sync/atomic"
	"syscall"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/krili-app/agency-cli/internal/catalog"
	"github.com/krili-app/agency-cli/internal/resilience"
	"github.com/krili-app/agency-cli/internal/store"
)

var ingestConcurrency int

var ingestCmd = &cobra.Command{
	Use:   "ingest [city...]",
	Short: "Build and persist city snapshots",
	Long:  "Runs the full pipeline (normalize, dedupe, rank) for each city and persists the result as a snapshot. With no arguments every registered city is ingested; cities without a dataset are skipped.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		env, err := initEnv(ctx, "ingest")
		if err != nil {
			return err
		}
		defer env.Close()

		cities := args
		if len(cities) == 0 {
			cities = env.Cities.Slugs()
		}

		var built, skipped atomic.Int64

		g, gCtx := errgroup.WithContext(ctx)
		g.SetLimit(ingestConcurrency)
		for _, city := range cities {
			g.Go(func() error {
				agencies, err := env.Catalog.GetOrBuild(gCtx, city)
				if err != nil {
					if eris.Is(err, catalog.ErrDatasetNotFound) {
						zap.L().Warn("ingest: no dataset for city, skipping", zap.String("city", city))
						skipped.Add(1)
						return nil
					}
					return eris.Wrapf(err, "ingest %s", city)
				}

				retryCfg := resilience.DefaultRetryConfig()
				retryCfg.OnRetry = resilience.RetryLogger("save snapshot")
				snap, err := resilience.DoVal(gCtx, retryCfg, func(ctx context.Context) (*store.Snapshot, error) {
					return env.Store.SaveSnapshot(ctx, city, agencies)
				})
				if err != nil {
					return eris.Wrapf(err, "save snapshot %s", city)
				}

				zap.L().Info("ingest: snapshot saved",
					zap.String("city", city),
					zap.String("snapshot_id", snap.ID),
					zap.Int("agencies", snap.AgencyCount),
				)
				built.Add(1)
				return nil
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}

		zap.L().Info("ingest: done",
			zap.Int64("built", built.Load()),
			zap.Int64("skipped", skipped.Load()),
		)
		return nil
	},
}

func init() {
	ingestCmd.Flags().IntVar(&ingestConcurrency, "concurrency", 4, "max cities built in parallel")
	rootCmd.AddCommand(ingestCmd)
}
