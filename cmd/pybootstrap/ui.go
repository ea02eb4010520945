package main

import (
	"fmt"

	"github.com/muesli/termenv"
)

var colorProfile = termenv.ColorProfile()

func headerText(s string) string {
	return termenv.String(s).Foreground(colorProfile.Color("#7dd3fc")).Bold().String()
}

func okText(s string) string {
	return termenv.String(s).Foreground(colorProfile.Color("#4ade80")).String()
}

func failText(s string) string {
	return termenv.String(s).Foreground(colorProfile.Color("#f87171")).String()
}

func dimText(s string) string {
	return termenv.String(s).Faint().String()
}

// stepHeader prints the progress line announced before each step runs.
func stepHeader(name string) {
	fmt.Printf("%s %s\n", headerText("==>"), stepTitles[name])
}

// stepTitles maps internal step names to the console messages shown to the
// developer.
var stepTitles = map[string]string{
	"interpreter":  "Checking Python interpreter",
	"venv":         "Ensuring virtual environment",
	"resolve":      "Resolving environment tools",
	"pip-upgrade":  "Upgrading pip",
	"requirements": "Installing requirements",
	"project":      "Installing project (editable)",
	"verify":       "Verifying imports",
	"receipt":      "Recording receipt",
}
