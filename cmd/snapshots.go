package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var snapshotsLimit int

var snapshotsCmd = &cobra.Command{
	Use:   "snapshots",
	Short: "Inspect persisted city snapshots",
}

var snapshotsListCmd = &cobra.Command{
	Use:   "list [city]",
	Short: "List snapshots, newest first",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		env, err := initEnv(ctx, "snapshots")
		if err != nil {
			return err
		}
		defer env.Close()

		city := ""
		if len(args) == 1 {
			city = args[0]
		}

		snaps, err := env.Store.ListSnapshots(ctx, city, snapshotsLimit)
		if err != nil {
			return err
		}

		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "ID\tCITY\tAGENCIES\tCREATED")
		for _, s := range snaps {
			fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", s.ID, s.CitySlug, s.AgencyCount, s.CreatedAt.Format("2006-01-02 15:04:05"))
		}
		return w.Flush()
	},
}

var snapshotsShowCmd = &cobra.Command{
	Use:   "show <city>",
	Short: "Print the latest snapshot for a city",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		env, err := initEnv(ctx, "snapshots")
		if err != nil {
			return err
		}
		defer env.Close()

		snap, err := env.Store.GetLatestSnapshot(ctx, args[0])
		if err != nil {
			return err
		}

		fmt.Printf("snapshot %s (%s, %d agencies, %s)\n",
			snap.ID, snap.CitySlug, snap.AgencyCount, snap.CreatedAt.Format("2006-01-02 15:04:05"))
		return printAgencies(cmd, snap.Agencies)
	},
}

var snapshotsPruneCmd = &cobra.Command{
	Use:   "prune <city>",
	Short: "Delete all snapshots for a city",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		env, err := initEnv(ctx, "snapshots")
		if err != nil {
			return err
		}
		defer env.Close()

		n, err := env.Store.DeleteSnapshots(ctx, args[0])
		if err != nil {
			return err
		}
		zap.L().Info("snapshots: pruned", zap.String("city", args[0]), zap.Int64("deleted", n))
		return nil
	},
}

func init() {
	snapshotsListCmd.Flags().IntVar(&snapshotsLimit, "limit", 50, "max snapshots to list")
	snapshotsCmd.AddCommand(snapshotsListCmd)
	snapshotsCmd.AddCommand(snapshotsShowCmd)
	snapshotsCmd.AddCommand(snapshotsPruneCmd)
	rootCmd.AddCommand(snapshotsCmd)
}
