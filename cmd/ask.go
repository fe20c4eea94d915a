package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sells-group/dealfinder-cli/internal/model"
)

var (
	askThreadID string
	askJSON     bool
)

var askCmd = &cobra.Command{
	Use:   "ask <message>",
	Short: "Ask a single shopping question",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		env, err := initAgent(ctx)
		if err != nil {
			return err
		}
		defer env.Close()

		message := strings.Join(args, " ")
		result, err := env.Agent.Chat(ctx, askThreadID, message)
		if err != nil {
			return err
		}

		if askJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(result)
		}

		fmt.Println(result.Response)
		if result.Comparison != nil {
			printOffers(result.SearchResults, result.Comparison)
		}
		if len(result.Citations) > 0 {
			fmt.Printf("\nsources: %s\n", strings.Join(result.Citations, ", "))
		}
		fmt.Printf("\nthread: %s\n", result.ThreadID)
		return nil
	},
}

func printOffers(offers []model.Offer, cmp *model.ComparisonResult) {
	fmt.Println("\noffers:")
	for i, o := range offers {
		marker := " "
		if o.Title == cmp.BestOffer.Title && o.URL == cmp.BestOffer.URL {
			marker = "*"
		}
		line := fmt.Sprintf("%s %d. %s", marker, i+1, o.Title)
		if o.Price != "" {
			line += " | " + o.Price
		}
		if o.Source != "" {
			line += " | " + o.Source
		}
		fmt.Println(line)
	}
}

func init() {
	askCmd.Flags().StringVar(&askThreadID, "thread", "", "continue an existing conversation thread")
	askCmd.Flags().BoolVar(&askJSON, "json", false, "print the full result as JSON")
	rootCmd.AddCommand(askCmd)
}
