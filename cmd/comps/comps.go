// Package comps implements the one-shot comparable search command.
package comps

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

// Command creates a new command that searches comparable sales for a
// subject address and prints the ranked result as JSON.
func Command(settings *conf.Settings) *cobra.Command {
	var borough string
	var count int

	cmd := &cobra.Command{
		Use:   "comps [address]",
		Short: "Search comparable building sales",
		Long:  "Resolve a subject address, infer its neighborhood, and print ranked comparable sales with market aggregates.",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			registries, err := registry.NewRegistries(settings)
			if err != nil {
				return fmt.Errorf("failed to initialize registries: %w", err)
			}
			defer registries.Close()

			core, err := analysis.New(registries, settings, nil)
			if err != nil {
				return fmt.Errorf("failed to initialize analysis core: %w", err)
			}

			result, err := core.SearchComparables(cmd.Context(), analysis.ComparablesRequest{
				Address: strings.Join(args, " "),
				Borough: borough,
				Count:   count,
			})
			if err != nil {
				return err
			}

			return printJSON(cmd.OutOrStdout(), result)
		},
	}

	cmd.Flags().StringVarP(&borough, "borough", "b", "", "Borough name, abbreviation, or code (1-5)")
	cmd.Flags().IntVarP(&count, "count", "n", 0, "Number of comparables to return (0 uses the configured default)")

	return cmd
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
