// Package cmd assembles the propscope command line interface.
package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/propscope/propscope/cmd/comps"
	"github.com/propscope/propscope/cmd/property"
	"github.com/propscope/propscope/cmd/sales"
	"github.com/propscope/propscope/cmd/serve"
	"github.com/propscope/propscope/cmd/taxbenefits"
	"github.com/propscope/propscope/internal/conf"
)

// RootCommand creates and returns the root command.
func RootCommand(settings *conf.Settings) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "propscope",
		Short: "PropScope CLI",
		Long:  "Query the city's open property registries for parcels, sales history, comparable sales, and tax benefits.",
	}

	setupFlags(rootCmd, settings)

	subcommands := []*cobra.Command{
		serve.Command(settings),
		property.Command(settings),
		comps.Command(settings),
		sales.Command(settings),
		taxbenefits.Command(settings),
	}

	rootCmd.AddCommand(subcommands...)

	return rootCmd
}

// setupFlags defines flags that are global to the command line interface.
func setupFlags(rootCmd *cobra.Command, settings *conf.Settings) error {
	rootCmd.PersistentFlags().BoolVarP(&settings.Debug, "debug", "d", viper.GetBool("debug"), "Enable debug output")
	rootCmd.PersistentFlags().StringVar(&settings.Registry.BaseURL, "baseurl", viper.GetString("registry.baseurl"), "Open-data portal base URL")

	if err := viper.BindPFlags(rootCmd.PersistentFlags()); err != nil {
		return fmt.Errorf("error binding flags: %v", err)
	}

	return nil
}
