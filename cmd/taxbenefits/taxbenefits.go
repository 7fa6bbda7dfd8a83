// Package taxbenefits implements the one-shot tax benefit command.
package taxbenefits

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/propscope/propscope/internal/analysis"
	"github.com/propscope/propscope/internal/conf"
	"github.com/propscope/propscope/internal/registry"
)

// Command creates a new command that prints the exemption and abatement
// summary for a BBL.
func Command(settings *conf.Settings) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "taxbenefits [bbl]",
		Short: "Look up tax benefits for a parcel",
		Long:  "Print the exemptions and abatements on file for a parcel, with program flags and totals. Sources that cannot be reached are listed as degraded.",
		Args:  cobra.ExactArgs(1),
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

			summary, err := core.GetTaxBenefits(cmd.Context(), args[0])
			if err != nil {
				return err
			}

			return printJSON(cmd.OutOrStdout(), summary)
		},
	}

	return cmd
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
