package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/olebedev/when"
	"github.com/olebedev/when/rules/common"
	"github.com/olebedev/when/rules/en"
	"github.com/spf13/cobra"

	"github.com/mwalters/cuplog/internal/client"
	"github.com/mwalters/cuplog/internal/coffee"
)

var addCmd = &cobra.Command{
	Use:   "add AMOUNT UNIT",
	Short: "Log a coffee-consumption entry",
	Long: `Log one coffee-consumption entry.

AMOUNT is a positive number; UNIT is one of cups, ml, oz, fl_oz.
Rating and location are optional and can also be added later with
'cuplog edit'. The --at flag accepts natural language:

  cuplog add 1 cups --rating 4 --location "Office"
  cuplog add 250 ml --at "yesterday at 9am"`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		amount, err := strconv.ParseFloat(args[0], 64)
		if err != nil {
			return fmt.Errorf("invalid amount %q: %w", args[0], err)
		}

		unit := coffee.Unit(args[1])
		if !coffee.ValidUnit(unit) {
			return fmt.Errorf("unknown unit %q (want cups, ml, oz, or fl_oz)", args[1])
		}

		occurredAt := time.Now()
		if at, _ := cmd.Flags().GetString("at"); at != "" {
			occurredAt, err = parseWhen(at)
			if err != nil {
				return err
			}
		}

		entry := &coffee.Entry{
			Owner:      cfg.Owner,
			OccurredAt: occurredAt.UTC().Format(time.RFC3339),
			Amount:     amount,
			Unit:       unit,
		}

		if cmd.Flags().Changed("rating") {
			rating, _ := cmd.Flags().GetInt("rating")
			if err := coffee.ValidateRating(rating); err != nil {
				return err
			}
			entry.Rating = &rating
		}
		if cmd.Flags().Changed("location") {
			location, _ := cmd.Flags().GetString("location")
			entry.Location = &location
		}

		api := client.New(cfg.ServerURL, nil)
		stored, err := api.CreateEntry(cmd.Context(), entry)
		if err != nil {
			return err
		}

		fmt.Printf("Logged %v %s at %s\n", stored.Amount, stored.Unit, stored.OccurredAt)
		return nil
	},
}

// parseWhen resolves a natural-language time expression.
func parseWhen(text string) (time.Time, error) {
	w := when.New(nil)
	w.Add(en.All...)
	w.Add(common.All...)

	result, err := w.Parse(text, time.Now())
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse time %q: %w", text, err)
	}
	if result == nil {
		return time.Time{}, fmt.Errorf("could not understand time %q", text)
	}
	return result.Time, nil
}

func init() {
	addCmd.Flags().Int("rating", 0, "Rating from 1 to 5")
	addCmd.Flags().String("location", "", "Where the coffee was consumed")
	addCmd.Flags().String("at", "", "When it happened (natural language, default now)")

	rootCmd.AddCommand(addCmd)
}
