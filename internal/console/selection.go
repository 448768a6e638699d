package console

import (
	"context"
	"fmt"

	"auri/internal/actions"
	"auri/internal/config"
	"auri/internal/tui"
)

func (c *Console) checklist(selected []string) *tui.Checklist {
	entries := c.Registry.List()
	items := make([]tui.ChecklistItem, len(entries))
	for i, e := range entries {
		items[i] = tui.ChecklistItem{ID: e.ID, Label: e.Label}
	}
	return tui.NewChecklist(items, selected)
}

// keepUnknown appends the identifiers the registry does not know, so a
// round trip through the screen never drops them.
func keepUnknown(reg *actions.Registry, chosen, previous []string) []string {
	return append(chosen, reg.Unknown(previous)...)
}

// BatchScreen edits the batch document. Enter saves, q or Escape leaves
// without saving.
func (c *Console) BatchScreen() error {
	cfg, err := c.Docs.LoadBatch()
	if err != nil {
		return c.showError(err)
	}
	list := c.checklist(cfg.Actions)
	for {
		lines := []string{
			"Batch Mode Selection",
			"====================",
			"Arrow keys: move | SPACE: toggle | ENTER: save | q: back",
			"",
		}
		if err := c.UI.Render(append(lines, list.Lines()...)); err != nil {
			return err
		}
		k, err := c.UI.ReadKey()
		if err != nil {
			return err
		}
		switch {
		case list.Handle(k):
		case k.IsQuit():
			return nil
		case k == tui.KeyEnter:
			next := config.BatchConfig{Actions: keepUnknown(c.Registry, list.Chosen(), cfg.Actions)}
			if err := c.Docs.SaveBatch(next); err != nil {
				return c.showError(err)
			}
			c.Log.Info().Strs("actions", next.Actions).Msg("batch document saved")
			return c.pause("Batch config saved!\n")
		}
	}
}

// SchedulerScreen edits the scheduler document and applies the timer on
// save.
func (c *Console) SchedulerScreen(ctx context.Context) error {
	cfg, err := c.Docs.LoadScheduler()
	if err != nil {
		return c.showError(err)
	}
	list := c.checklist(cfg.Actions)
	interval := cfg.Interval
	if !interval.Valid() {
		interval = config.DefaultInterval
	}
	enabled := cfg.Enabled
	for {
		state := "OFF"
		if enabled {
			state = "ON"
		}
		lines := []string{
			"Scheduler Configuration",
			"=======================",
			"Arrow: move | SPACE: toggle | i: interval | e: enable | ENTER: save | q: back",
			"",
			"Enabled: " + state,
			"Interval: " + string(interval),
			"",
		}
		if err := c.UI.Render(append(lines, list.Lines()...)); err != nil {
			return err
		}
		k, err := c.UI.ReadKey()
		if err != nil {
			return err
		}
		switch {
		case list.Handle(k):
		case k == 'i':
			interval = interval.Next()
		case k == 'e':
			enabled = !enabled
		case k.IsQuit():
			return nil
		case k == tui.KeyEnter:
			next := config.SchedulerConfig{
				Actions:  keepUnknown(c.Registry, list.Chosen(), cfg.Actions),
				Enabled:  enabled,
				Interval: interval,
			}
			if err := c.Docs.SaveScheduler(ctx, next); err != nil {
				return c.showError(err)
			}
			c.Log.Info().Bool("enabled", enabled).Str("interval", string(interval)).Msg("scheduler document saved")
			return c.pause("Scheduler saved!\n")
		}
	}
}

// showError reports a failed load or save and waits; it only returns the
// terminal's own errors.
func (c *Console) showError(err error) error {
	c.Log.Error().Err(err).Msg("document operation failed")
	if perr := c.UI.Print(fmt.Sprintf("\nError: %v\n", err)); perr != nil {
		return perr
	}
	return c.pause("Press any key...")
}
