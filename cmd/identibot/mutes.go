package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/maelig/identibot/internal/bluesky"
	"github.com/maelig/identibot/internal/config"
)

var mutesCmd = &cobra.Command{
	Use:   "mutes",
	Short: "List accounts currently muted by the bot",
	RunE:  runMutes,
}

func init() {
	rootCmd.AddCommand(mutesCmd)
}

func runMutes(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}

	client := bluesky.NewClient(bluesky.Config{
		Handle:      cfg.BlueskyHandle,
		AppPassword: cfg.BlueskyAppPassword,
		PDS:         cfg.BlueskyPDS,
	})

	entries, err := client.GetMutes(ctx)
	if err != nil {
		return fmt.Errorf("get mutes: %w", err)
	}

	if len(entries) == 0 {
		fmt.Println("no muted accounts")
		return nil
	}
	for _, entry := range entries {
		fmt.Printf("@%-30s %s\n", entry.Handle, entry.DisplayName)
	}
	return nil
}
