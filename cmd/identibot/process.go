package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/maelig/identibot/internal/app"
	"github.com/maelig/identibot/internal/config"
	"github.com/maelig/identibot/internal/domain"
)

var processSimulate bool

var processCmd = &cobra.Command{
	Use:   "process <plugin>",
	Short: "Run one plugin dispatch",
	Long: `Run a single dispatch of the named plugin through the gate, printing
the outcome text. With --simulate no network calls are made and the
fixture data is used instead.`,
	Args: cobra.ExactArgs(1),
	RunE: runProcess,
}

func init() {
	processCmd.Flags().BoolVar(&processSimulate, "simulate", false, "run against fixtures, without network calls")
	rootCmd.AddCommand(processCmd)
}

func runProcess(cmd *cobra.Command, args []string) error {
	ctx := context.Background()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}

	a, err := app.New(ctx, cfg)
	if err != nil {
		return fmt.Errorf("wire application: %w", err)
	}
	defer a.Close()

	env, err := a.Gate.Process(ctx, "cli", processSimulate, args[0])
	if err != nil {
		derr := domain.AsDomainError(err)
		fmt.Fprintf(os.Stderr, "%s\n", derr.Text)
		if derr.Status >= 400 {
			os.Exit(1)
		}
		return nil
	}

	fmt.Println(env.Text)
	return nil
}
