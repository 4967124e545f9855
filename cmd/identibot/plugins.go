package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/maelig/identibot/internal/app"
	"github.com/maelig/identibot/internal/config"
)

var pluginsCmd = &cobra.Command{
	Use:   "plugins",
	Short: "List registered plugins and their readiness",
	RunE:  runPlugins,
}

func init() {
	rootCmd.AddCommand(pluginsCmd)
}

func runPlugins(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	a, err := app.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("wire application: %w", err)
	}
	defer a.Close()

	for _, name := range a.Registry.Names() {
		p, _ := a.Registry.Get(name)
		state := "ready"
		if !p.Ready() {
			state = "not ready"
		}
		fmt.Printf("%-14s %s\n", name, state)
	}
	return nil
}
