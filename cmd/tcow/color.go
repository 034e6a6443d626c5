package main

import (
	"os"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/mikesmullin/tcow/internal/tcowenv"
)

// initColor resolves TCOW_COLOR/NO_COLOR against whether stdout is a
// terminal and sets the package-level fatih/color switch accordingly.
// Grounded on lazydocker's go.mod pairing of fatih/color with
// mattn/go-isatty for exactly this auto-detection.
func initColor() {
	switch tcowenv.Color() {
	case tcowenv.ColorAlways:
		color.NoColor = false
	case tcowenv.ColorNever:
		color.NoColor = true
	default: // auto
		color.NoColor = !isatty.IsTerminal(os.Stdout.Fd()) && !isatty.IsCygwinTerminal(os.Stdout.Fd())
	}
}

var (
	colorOK   = color.New(color.FgGreen).SprintFunc()
	colorBad  = color.New(color.FgRed).SprintFunc()
	colorDim  = color.New(color.Faint).SprintFunc()
	colorBold = color.New(color.Bold).SprintFunc()
)
