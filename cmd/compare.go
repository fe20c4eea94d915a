package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/dealfinder-cli/internal/compare"
	"github.com/sells-group/dealfinder-cli/internal/model"
)

var compareJSON bool

var compareCmd = &cobra.Command{
	Use:   "compare <offers.json>",
	Short: "Score and compare offers from a JSON file",
	Long:  "Reads a JSON array of offers, scores each one, and reports the best offer with reasoning and comparison metrics.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := os.ReadFile(args[0])
		if err != nil {
			return eris.Wrapf(err, "read %s", args[0])
		}

		var offers []model.Offer
		if err := json.Unmarshal(data, &offers); err != nil {
			return eris.Wrapf(err, "parse %s", args[0])
		}

		if err := compare.ValidateConfig(cfg.Scorer); err != nil {
			return err
		}
		scorer := compare.NewScorer(cfg.Scorer)
		comparator := compare.NewComparator(scorer)

		result, err := comparator.Compare(offers)
		if err != nil {
			return err
		}

		if compareJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		}

		fmt.Printf("best offer: %s", result.BestOffer.Title)
		if result.BestOffer.Price != "" {
			fmt.Printf(" at %s", result.BestOffer.Price)
		}
		if result.BestOffer.Source != "" {
			fmt.Printf(" from %s", result.BestOffer.Source)
		}
		fmt.Printf("\n\n%s\n\nscores:\n", result.Reasoning)

		for i, o := range result.AllOffers {
			fmt.Printf("%d. %-40s %6.1f\n", i+1, o.Title, scorer.Score(o))
		}

		if pr := result.Metrics.PriceRange; pr != nil {
			fmt.Printf("\nprice range: $%.2f - $%.2f (avg $%.2f)\n", pr.Min, pr.Max, pr.Avg)
		}
		return nil
	},
}

func init() {
	compareCmd.Flags().BoolVar(&compareJSON, "json", false, "print the full result as JSON")
	rootCmd.AddCommand(compareCmd)
}
