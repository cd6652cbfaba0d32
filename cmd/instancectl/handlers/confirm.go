package handlers

import (
	"context"
	"os"

	"github.com/charmbracelet/huh"
	"github.com/mattn/go-isatty"
)

// Factory function variables - can be replaced in tests.
var (
	isInteractive = func() bool {
		return isatty.IsTerminal(os.Stdin.Fd()) || isatty.IsCygwinTerminal(os.Stdin.Fd())
	}
	confirm = func(ctx context.Context, title, description string) (bool, error) {
		var ok bool
		form := huh.NewForm(
			huh.NewGroup(
				huh.NewConfirm().
					Title(title).
					Description(description).
					Affirmative("Delete").
					Negative("Cancel").
					Value(&ok),
			),
		)
		if err := form.RunWithContext(ctx); err != nil {
			return false, err
		}
		return ok, nil
	}
)
