package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/h0rv/cardboard/internal/domain"
	"github.com/h0rv/cardboard/internal/query"
	"github.com/h0rv/cardboard/internal/sample"
	"github.com/h0rv/cardboard/internal/view"
	"github.com/muesli/reflow/truncate"
	"github.com/muesli/reflow/wordwrap"
	"github.com/spf13/cobra"
)

var headerStyle = lipgloss.NewStyle().Bold(true).Padding(0, 1)

func newCardsCmd(app *App) *cobra.Command {
	var (
		statuses []string
		project  string
		search   string
		page     int
		all      bool
		asJSON   bool
	)

	cmd := &cobra.Command{
		Use:   "cards",
		Short: "List cards",
		Long: `List cards the way the dashboard's All view shows them.

--status may be repeated; without it every status is listed. --search
matches titles and descriptions locally and is never sent to the server.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := app.requireSession(); err != nil {
				return err
			}
			filters, unknown := domain.StatusFiltersFrom(statuses)
			if len(unknown) > 0 {
				return fmt.Errorf("unknown status %s: use todo, doing or done", strings.Join(unknown, ", "))
			}

			d := query.Build(filters, project)
			app.logger.Debug("listing cards", "query", d.Encode())
			cards, err := app.newClient().ListCards(cmd.Context(), d)
			if err != nil {
				return fmt.Errorf("failed to load cards: %w", err)
			}

			size := app.cfg.PageSize
			if all {
				size = max(len(cards), 1)
			}
			p := view.All(cards, search, page, size)

			if asJSON {
				return writeJSON(cmd.OutOrStdout(), p.Cards)
			}
			return writeCardTable(cmd.OutOrStdout(), p)
		},
	}

	cmd.AddCommand(newCardsShowCmd(app))

	cmd.Flags().StringArrayVarP(&statuses, "status", "s", nil, "Status to include (todo, doing, done); repeatable")
	cmd.Flags().StringVarP(&project, "project", "p", "", "Only cards of this project")
	cmd.Flags().StringVarP(&search, "search", "q", "", "Local search over title and description")
	cmd.Flags().IntVar(&page, "page", 1, "Page number")
	cmd.Flags().BoolVar(&all, "all", false, "Print every card on one page")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")
	return cmd
}

func newCardsShowCmd(app *App) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one card",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := app.requireSession(); err != nil {
				return err
			}
			card, err := app.newClient().GetCard(cmd.Context(), args[0])
			if err != nil {
				return fmt.Errorf("failed to load card %s: %w", args[0], err)
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), card)
			}
			return writeCard(cmd.OutOrStdout(), card, app.cfg.CardURL(card.ID))
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")
	return cmd
}

func newStatsCmd(app *App) *cobra.Command {
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show board statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := app.requireSession(); err != nil {
				return err
			}
			stats, err := app.newClient().Stats(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to load stats: %w", err)
			}
			if asJSON {
				return writeJSON(cmd.OutOrStdout(), stats)
			}
			return writeSummary(cmd.OutOrStdout(), view.Summarize(stats))
		},
	}

	cmd.Flags().BoolVar(&asJSON, "json", false, "Print JSON")
	return cmd
}

func newSampleCmd(app *App) *cobra.Command {
	var (
		project string
		count   int
	)

	cmd := &cobra.Command{
		Use:   "sample",
		Short: "Create demo cards under a new project (dev mode)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !app.cfg.DevMode {
				return fmt.Errorf("sample cards are only available with dev_mode enabled")
			}
			if _, err := app.requireSession(); err != nil {
				return err
			}
			if count <= 0 {
				count = app.cfg.SampleCount
			}

			gen := sample.New(app.newClient(),
				sample.WithCount(count),
				sample.WithRate(app.cfg.SampleRPS),
				sample.WithLogger(app.logger),
			)
			cards, err := gen.Generate(cmd.Context(), project)
			if len(cards) > 0 {
				fmt.Fprintf(cmd.OutOrStdout(), "Created %d of %d sample cards for %s\n", len(cards), gen.Count(), cards[0].Title)
			}
			return err
		},
	}

	cmd.Flags().StringVarP(&project, "project", "p", "", "New project name")
	cmd.Flags().IntVarP(&count, "count", "n", 0, "Number of cards (default: sample_count)")
	_ = cmd.MarkFlagRequired("project")
	return cmd
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func writeCardTable(w io.Writer, p view.Page) error {
	if p.Total == 0 {
		_, err := fmt.Fprintln(w, "No cards found")
		return err
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle
			}
			return lipgloss.NewStyle().Padding(0, 1)
		}).
		Headers("ID", "PROJECT", "STATUS", "DESCRIPTION")
	for _, c := range p.Cards {
		desc := strings.ReplaceAll(c.Description, "\n", " ")
		t.Row(c.ID, truncate.StringWithTail(c.Title, 24, "…"), c.Status.Label(), truncate.StringWithTail(desc, 48, "…"))
	}

	_, err := fmt.Fprintf(w, "%s\n%d cards, page %d of %d\n", t.Render(), p.Total, p.Number, p.TotalPages)
	return err
}

func writeCard(w io.Writer, c domain.Card, link string) error {
	var b strings.Builder
	b.WriteString(headerStyle.UnsetPadding().Render(c.Title))
	fmt.Fprintf(&b, "\nID:      %s\nStatus:  %s\n", c.ID, c.Status.Label())
	if !c.CreatedAt.IsZero() {
		fmt.Fprintf(&b, "Created: %s\n", c.CreatedAt.Format(time.RFC3339))
	}
	if !c.UpdatedAt.IsZero() {
		fmt.Fprintf(&b, "Updated: %s\n", c.UpdatedAt.Format(time.RFC3339))
	}
	if link != "" {
		fmt.Fprintf(&b, "Link:    %s\n", link)
	}
	if desc := strings.TrimSpace(c.Description); desc != "" {
		b.WriteString("\n")
		b.WriteString(wordwrap.String(desc, 80))
		b.WriteString("\n")
	}
	_, err := io.WriteString(w, b.String())
	return err
}

func writeSummary(w io.Writer, s view.Summary) error {
	t := table.New().
		Border(lipgloss.HiddenBorder()).
		Row("Total cards", strconv.Itoa(s.TotalCards)).
		Row("Projects", strconv.Itoa(s.TotalProjects)).
		Row("Created (7 days)", strconv.Itoa(s.CreatedLast7Days)).
		Row("Completed (7 days)", strconv.Itoa(s.CompletedLast7)).
		Row("Completed per day (30 days)", strconv.FormatFloat(s.AvgCompletedDaily, 'f', 1, 64)).
		Row("Most active project", mostActive(s))
	for _, b := range s.Bars {
		t.Row(b.Label, strconv.Itoa(b.Count))
	}
	_, err := fmt.Fprintln(w, t.Render())
	return err
}

func mostActive(s view.Summary) string {
	if s.MostActiveCount == 0 {
		return s.MostActive
	}
	return fmt.Sprintf("%s (%d)", s.MostActive, s.MostActiveCount)
}
