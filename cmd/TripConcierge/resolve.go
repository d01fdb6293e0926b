package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

func newResolveCmd(v *viper.Viper) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "resolve [location...]",
		Short: "Identify the departure airport for a location",
		Long: `Resolve a free-text departure location to an airport the way the concierge
does. An empty location resolves to the default airport.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := loadConfig(v)
			llm, err := newLLM(cfg)
			if err != nil {
				return fmt.Errorf("failed to create language model client: %w", err)
			}
			resolver, err := newResolver(cfg, llm)
			if err != nil {
				return fmt.Errorf("failed to create airport resolver: %w", err)
			}
			rec, err := resolver.Resolve(cmd.Context(), strings.Join(args, " "))
			if err != nil {
				return err
			}
			if asJSON {
				data, err := json.MarshalIndent(rec.Info(), "", "  ")
				if err != nil {
					return err
				}
				fmt.Fprintln(cmd.OutOrStdout(), string(data))
				return nil
			}
			fmt.Fprintln(cmd.OutOrStdout(), rec.ConfirmationText())
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the airport as JSON")
	return cmd
}
