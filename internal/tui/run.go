package tui

import (
	"context"
	"errors"
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"
)

// ErrNoSelection is returned when the user leaves the picker without choosing.
var ErrNoSelection = errors.New("no selection made")

// ErrNoOptions is returned when there is nothing to pick from.
var ErrNoOptions = errors.New("no options to choose from")

// PickOptions configures Pick. Nil streams use the terminal.
type PickOptions struct {
	Input  io.Reader
	Output io.Writer
}

// Pick shows a filterable list and returns the chosen option.
func Pick(ctx context.Context, title string, options []string, opts PickOptions) (string, error) {
	if len(options) == 0 {
		return "", ErrNoOptions
	}

	programOpts := []tea.ProgramOption{tea.WithContext(ctx)}
	if opts.Input != nil {
		programOpts = append(programOpts, tea.WithInput(opts.Input))
	}
	if opts.Output != nil {
		programOpts = append(programOpts, tea.WithOutput(opts.Output))
	}

	final, err := tea.NewProgram(NewPickerModel(title, options), programOpts...).Run()
	if err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return "", ctx.Err()
		}
		return "", fmt.Errorf("picker failed: %w", err)
	}

	model, ok := final.(PickerModel)
	if !ok {
		return "", fmt.Errorf("unexpected picker model %T", final)
	}
	choice, chosen := model.Choice()
	if !chosen {
		return "", ErrNoSelection
	}
	return choice, nil
}
