package main

import (
	"context"
	"fmt"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/h0rv/cardboard/internal/api"
	"github.com/h0rv/cardboard/internal/coordinator"
	"github.com/h0rv/cardboard/internal/sample"
	"github.com/h0rv/cardboard/internal/store"
	"github.com/h0rv/cardboard/internal/tui"
	"github.com/spf13/cobra"
)

func main() {
	app := &App{}
	err := newRootCmd(app).Execute()
	if cerr := app.close(); err == nil {
		err = cerr
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func newRootCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "cardboard",
		Short: "Terminal UI for a cards board",
		Long: `cardboard is a terminal user interface for a REST cards board.

Run without a subcommand for the interactive dashboard. The subcommands
cover the same operations for scripts.

Configuration is read from ~/.config/cardboard/config.yaml (or --config),
a .env file in the working directory and CARDBOARD_* environment variables.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTUI(cmd.Context(), app)
		},
	}

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		return app.setup()
	}

	cmd.PersistentFlags().StringVar(&app.ConfigPath, "config", "", "Config file (default: ~/.config/cardboard/config.yaml)")
	cmd.PersistentFlags().StringVar(&app.APIURL, "api-url", "", "Backend base URL, overrides api_url")
	cmd.PersistentFlags().BoolVarP(&app.Verbose, "verbose", "v", false, "Log debug records to the log file")
	cmd.PersistentFlags().BoolVar(&app.Ephemeral, "ephemeral", false, "Keep the session in memory only")

	cmd.AddCommand(newLoginCmd(app))
	cmd.AddCommand(newRegisterCmd(app))
	cmd.AddCommand(newLogoutCmd(app))
	cmd.AddCommand(newWhoamiCmd(app))
	cmd.AddCommand(newCardsCmd(app))
	cmd.AddCommand(newStatsCmd(app))
	cmd.AddCommand(newSampleCmd(app))

	return cmd
}

func runTUI(ctx context.Context, app *App) error {
	if ctx == nil {
		ctx = context.Background()
	}

	var prog *tea.Program
	client := app.newClient(api.WithLogoutHook(func(reason error) {
		if prog != nil {
			prog.Send(tui.SessionEnded(reason))
		}
	}))

	s := store.New()
	coord := coordinator.New(s,
		coordinator.WithPageSize(app.cfg.PageSize),
		coordinator.WithTotalObserver(func(total int) {
			app.logger.Debug("visible total changed", "total", total)
		}),
		coordinator.WithLogger(app.logger),
	)

	var gen *sample.Generator
	if app.cfg.DevMode {
		gen = sample.New(client,
			sample.WithCount(app.cfg.SampleCount),
			sample.WithRate(app.cfg.SampleRPS),
			sample.WithLogger(app.logger),
		)
	}

	model := tui.NewAppModel(ctx, app.cfg, client, coord, s, gen)

	// Run Bubble Tea program
	prog = tea.NewProgram(model, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := prog.Run(); err != nil {
		return fmt.Errorf("program error: %w", err)
	}
	return nil
}
