package main

import (
	"errors"
	"os"
	"strings"

	"github.com/manifoldco/promptui"
)

// isTerminal reports whether stdin is an interactive terminal.
func isTerminal() bool {
	info, err := os.Stdin.Stat()
	if err != nil {
		return false
	}
	return info.Mode()&os.ModeCharDevice != 0
}

func notBlank(label string) promptui.ValidateFunc {
	return func(input string) error {
		if strings.TrimSpace(input) == "" {
			return errors.New(label + " cannot be empty")
		}
		return nil
	}
}

// promptJobTitle asks for the target role when --job-title was not given.
func promptJobTitle() (string, error) {
	if !isTerminal() {
		return "", errors.New("--job-title is required")
	}
	p := promptui.Prompt{
		Label:    "Target job title",
		Validate: notBlank("job title"),
	}
	title, err := p.Run()
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(title), nil
}

// promptSecret reads a value without echoing it.
func promptSecret(label string) (string, error) {
	if !isTerminal() {
		return "", errors.New(strings.ToLower(label) + " must be given as an argument when stdin is not a terminal")
	}
	p := promptui.Prompt{
		Label:    label,
		Mask:     '*',
		Validate: notBlank(strings.ToLower(label)),
	}
	return p.Run()
}
