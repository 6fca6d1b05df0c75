package main

import (
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/krili-app/agency-cli/internal/intent"
	"github.com/krili-app/agency-cli/internal/model"
)

var (
	agenciesIntent string
	agenciesSlug   string
	agenciesLimit  int
)

var agenciesCmd = &cobra.Command{
	Use:   "agencies <city>",
	Short: "List ranked agencies for a city",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		city := args[0]

		env, err := initEnv(ctx, "ingest")
		if err != nil {
			return err
		}
		defer env.Close()

		if agenciesSlug != "" {
			agency, err := env.Catalog.GetAgencyBySlug(ctx, city, agenciesSlug)
			if err != nil {
				return err
			}
			return printAgencies(cmd, []model.Agency{*agency})
		}

		agencies, err := env.Catalog.GetAgenciesByCity(ctx, city)
		if err != nil {
			return err
		}

		if agenciesIntent != "" {
			if _, ok := intent.Get(agenciesIntent); !ok {
				return eris.Errorf("unknown intent %q", agenciesIntent)
			}
			agencies = env.Catalog.FilterByIntent(agencies, agenciesIntent, city)
		}

		if agenciesLimit > 0 && len(agencies) > agenciesLimit {
			agencies = agencies[:agenciesLimit]
		}
		return printAgencies(cmd, agencies)
	},
}

func printAgencies(cmd *cobra.Command, agencies []model.Agency) error {
	w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(w, "SLUG\tNAME\tSCORE\tRATING\tREVIEWS\tPHONE\tMIXED")
	for i := range agencies {
		a := &agencies[i]
		phone := "-"
		if a.Phone != nil {
			phone = *a.Phone
		}
		fmt.Fprintf(w, "%s\t%s\t%.2f\t%.1f\t%d\t%s\t%v\n",
			a.Slug, a.Name, a.Score, a.RatingValue(), a.ReviewsCount, phone, a.IsMixedService)
	}
	return w.Flush()
}

var intentsCmd = &cobra.Command{
	Use:   "intents",
	Short: "List supported search intents",
	RunE: func(cmd *cobra.Command, args []string) error {
		w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(w, "SLUG\tTITLE (FR)")
		for _, it := range intent.All() {
			fmt.Fprintf(w, "%s\t%s\n", it.Slug, it.Title.Fr)
		}
		return w.Flush()
	},
}

func init() {
	agenciesCmd.Flags().StringVar(&agenciesIntent, "intent", "", "filter by search intent (best, airport, cheap, luxury, no-deposit, 24h, most-reviewed)")
	agenciesCmd.Flags().StringVar(&agenciesSlug, "slug", "", "resolve a single agency by slug")
	agenciesCmd.Flags().IntVar(&agenciesLimit, "limit", 0, "truncate output to the top N agencies")
	rootCmd.AddCommand(agenciesCmd)
	rootCmd.AddCommand(intentsCmd)
}
