// Package property implements the one-shot property lookup command.
package property

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

// Command creates a new command that looks up a single property and
// prints the result as JSON.
func Command(settings *conf.Settings) *cobra.Command {
	var borough string
	var includeBenefits bool

	cmd := &cobra.Command{
		Use:   "property [address]",
		Short: "Look up a property by address",
		Long:  "Resolve an address to a tax parcel and print the parcel record with a rent regulation assessment.",
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

			result, err := core.LookupProperty(cmd.Context(), analysis.PropertyRequest{
				Address:         strings.Join(args, " "),
				Borough:         borough,
				IncludeBenefits: includeBenefits,
			})
			if err != nil {
				return err
			}

			return printJSON(cmd.OutOrStdout(), result)
		},
	}

	cmd.Flags().StringVarP(&borough, "borough", "b", "", "Borough name, abbreviation, or code (1-5)")
	cmd.Flags().BoolVar(&includeBenefits, "benefits", false, "Include the tax benefit summary")

	return cmd
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
