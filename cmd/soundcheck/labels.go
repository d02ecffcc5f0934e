package main

import (
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var statusTitleCaser = cases.Title(language.English)

// formatStatusLabel turns a raw status value into a display label, e.g.
// "analyzing" becomes "Analyzing".
func formatStatusLabel(status string) string {
	trimmed := strings.TrimSpace(status)
	if trimmed == "" {
		return "Unknown"
	}
	return statusTitleCaser.String(strings.ReplaceAll(trimmed, "_", " "))
}
