// Package sales implements the one-shot sales history command.
package sales

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/propscope/propscope/internal/analysis"
	"github.com/propscope/propscope/internal/conf"
	"github.com/propscope/propscope/internal/registry"
)

// Command creates a new command that prints the recorded sales for a
// parcel identified by BBL or address.
func Command(settings *conf.Settings) *cobra.Command {
	var bblID string
	var borough string
	var limit int

	cmd := &cobra.Command{
		Use:   "sales [address]",
		Short: "Search the sales history of a parcel",
		Long:  "Print the recorded deed transfers for a parcel, newest first. Identify the parcel by --bbl or by address.",
		RunE: func(cmd *cobra.Command, args []string) error {
			if bblID == "" && len(args) == 0 {
				return fmt.Errorf("either --bbl or an address argument is required")
			}

			registries, err := registry.NewRegistries(settings)
			if err != nil {
				return fmt.Errorf("failed to initialize registries: %w", err)
			}
			defer registries.Close()

			core, err := analysis.New(registries, settings, nil)
			if err != nil {
				return fmt.Errorf("failed to initialize analysis core: %w", err)
			}

			result, err := core.SearchSales(cmd.Context(), analysis.SalesRequest{
				BBL:     bblID,
				Address: strings.Join(args, " "),
				Borough: borough,
				Limit:   limit,
			})
			if err != nil {
				return err
			}

			return printJSON(cmd.OutOrStdout(), result)
		},
	}

	cmd.Flags().StringVar(&bblID, "bbl", "", "Parcel key as a 10-digit BBL")
	cmd.Flags().StringVarP(&borough, "borough", "b", "", "Borough name, abbreviation, or code (1-5)")
	cmd.Flags().IntVarP(&limit, "limit", "n", 0, "Maximum number of sales to return (0 uses the default)")

	return cmd
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
