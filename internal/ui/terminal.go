package ui

import (
	"errors"
	"fmt"
	"os"

	"github.com/manifoldco/promptui"
)

// ErrDeclined is returned when the user answers No to a confirmation
var ErrDeclined = errors.New("declined by user")

// IsInteractive returns true if running in an interactive terminal
func IsInteractive() bool {
	fileInfo, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return (fileInfo.Mode() & os.ModeCharDevice) != 0
}

// Confirmer asks the user a yes/no question
type Confirmer interface {
	Confirm(label string) error
}

// PromptConfirmer asks on the terminal with a Yes/No select
type PromptConfirmer struct{}

// Confirm returns nil on Yes, ErrDeclined on No, and an error when there is no terminal to ask on
func (PromptConfirmer) Confirm(label string) error {
	if !IsInteractive() {
		return fmt.Errorf("%s: no terminal to confirm on, pass --yes to proceed", label)
	}

	prompt := promptui.Select{
		Label: label,
		Items: []string{"Yes", "No"},
	}
	_, result, err := prompt.Run()
	if err != nil {
		if err == promptui.ErrEOF || err == promptui.ErrInterrupt {
			return ErrDeclined
		}
		return fmt.Errorf("prompt failed: %w", err)
	}
	if result != "Yes" {
		return ErrDeclined
	}
	return nil
}

// AutoConfirmer always answers Yes
type AutoConfirmer struct{}

// Confirm implements Confirmer
func (AutoConfirmer) Confirm(string) error { return nil }
