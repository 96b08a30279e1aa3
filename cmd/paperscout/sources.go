package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roody/paperscout/internal/app"
	"github.com/roody/paperscout/internal/config"
	"github.com/roody/paperscout/internal/domain"
	"github.com/roody/paperscout/internal/sources"
)

var sourcesCmd = &cobra.Command{
	Use:   "sources",
	Short: "List the supported sources and whether each is enabled",
	RunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		registry := app.BuildRegistry(cfg, sources.NewIdentityPool(cfg.Politeness.UserAgents))

		for _, st := range domain.AllSourceTypes {
			state := "disabled"
			if src := registry.Get(st); src != nil && src.IsEnabled() {
				state = "enabled"
			}
			fmt.Printf("%-18s %-18s %s\n", st, st.DisplayName(), state)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sourcesCmd)
}
