package console

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"auri/internal/actions"
	"auri/internal/gate"
	"auri/internal/tui"
)

// Outcome is how an interactively run action ended.
type Outcome int

const (
	OutcomeOK Outcome = iota
	OutcomeFailed
	OutcomeDeclined
	OutcomeError
)

func (o Outcome) String() string {
	switch o {
	case OutcomeOK:
		return "ok"
	case OutcomeFailed:
		return "failed"
	case OutcomeDeclined:
		return "declined"
	default:
		return "error"
	}
}

// RunAction runs one registered action on its own screen. The returned
// error is reserved for unknown identifiers and terminal failures.
func (c *Console) RunAction(ctx context.Context, id string) (Outcome, error) {
	entry, err := c.Registry.Resolve(id)
	if err != nil {
		return OutcomeError, err
	}
	return c.runEntry(ctx, entry)
}

func (c *Console) runEntry(ctx context.Context, e actions.Entry) (Outcome, error) {
	log := c.Log.With().Str("action", e.ID).Logger()
	if err := c.header(e.Label); err != nil {
		return OutcomeError, err
	}
	if e.Destructive {
		warning := e.Warning
		if warning == "" {
			warning = e.Label + " cannot be undone."
		}
		if !gate.New(c.UI).Confirm(warning) {
			log.Info().Msg("confirmation declined")
			if err := c.UI.Print("\nCancelled.\n"); err != nil {
				return OutcomeDeclined, err
			}
			return OutcomeDeclined, c.pause("Press any key...")
		}
		if err := c.UI.Print("\n"); err != nil {
			return OutcomeError, err
		}
	}

	pager := tui.NewPager(c.UI, c.PageLines)
	code, runErr := e.Execute(ctx, actions.Env{Exec: c.Exec, Output: pager.Line, Operator: c.UI})

	outcome := OutcomeOK
	var execErr *actions.ExecError
	switch {
	case runErr == nil:
	case errors.As(runErr, &execErr):
		outcome = OutcomeFailed
		_ = c.UI.Print(fmt.Sprintf("\nCommand failed (%d)\n", code))
		if len(e.Hint) > 0 {
			border := strings.Repeat("!", 50)
			_ = c.UI.Print("\n" + border + "\n" + strings.Join(e.Hint, "\n") + "\n" + border + "\n")
		}
	default:
		outcome = OutcomeError
		_ = c.UI.Print("\nError: " + runErr.Error() + "\n")
	}
	log.Info().Str("outcome", outcome.String()).Int("exit_code", code).Msg("action finished")
	return outcome, c.pause("Press any key...")
}
