// Package console implements the interactive screens of the menu.
package console

import (
	"context"
	"strings"

	"github.com/rs/zerolog"

	"auri/internal/actions"
	"auri/internal/config"
	"auri/internal/executor"
	"auri/internal/tui"
)

// Title heads every screen.
const Title = "Auri :: Advanced System Tool"

var rule = strings.Repeat("=", 40)

// Documents loads and saves the persisted selections. SaveScheduler also
// applies the timer.
type Documents interface {
	LoadBatch() (config.BatchConfig, error)
	SaveBatch(cfg config.BatchConfig) error
	LoadScheduler() (config.SchedulerConfig, error)
	SaveScheduler(ctx context.Context, cfg config.SchedulerConfig) error
}

type Console struct {
	UI        tui.UI
	Registry  *actions.Registry
	Exec      executor.Executor
	Docs      Documents
	PageLines int
	Log       zerolog.Logger
}

func New(ui tui.UI, reg *actions.Registry, exec executor.Executor, docs Documents, pageLines int, log zerolog.Logger) *Console {
	return &Console{
		UI:        ui,
		Registry:  reg,
		Exec:      exec,
		Docs:      docs,
		PageLines: pageLines,
		Log:       log.With().Str("component", "console").Logger(),
	}
}

const (
	menuBatch     = "Batch Mode Selection"
	menuScheduler = "Configure Scheduler / Timer"
	menuExit      = "Exit"
)

// Run shows the main menu until the operator picks Exit or quits.
func (c *Console) Run(ctx context.Context) error {
	entries := c.Registry.List()
	items := make([]string, 0, len(entries)+3)
	for _, e := range entries {
		items = append(items, e.Label)
	}
	items = append(items, menuBatch, menuScheduler, menuExit)
	m := &tui.Menu{Items: items}

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := c.UI.Render(append([]string{Title, rule, ""}, m.Lines()...)); err != nil {
			return err
		}
		k, err := c.UI.ReadKey()
		if err != nil {
			return err
		}
		if m.Handle(k) {
			continue
		}
		if k.IsQuit() {
			return nil
		}
		if k != tui.KeyEnter {
			continue
		}
		switch i := m.Cursor; {
		case i < len(entries):
			if _, err := c.runEntry(ctx, entries[i]); err != nil {
				return err
			}
		case items[i] == menuBatch:
			if err := c.BatchScreen(); err != nil {
				return err
			}
		case items[i] == menuScheduler:
			if err := c.SchedulerScreen(ctx); err != nil {
				return err
			}
		default:
			return nil
		}
	}
}

func (c *Console) header(title string) error {
	return c.UI.Render([]string{Title + " :: " + title, rule, ""})
}

func (c *Console) pause(msg string) error {
	if err := c.UI.Print("\n" + msg); err != nil {
		return err
	}
	_, err := c.UI.ReadKey()
	return err
}
