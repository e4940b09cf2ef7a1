package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"

	"sipbuilder/internal/store"
)

const (
	ansiReset  = "\x1b[0m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiRed    = "\x1b[31m"
)

func shouldColorize(writer io.Writer) bool {
	file, ok := writer.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}

func colorizeStatus(status store.Status, colorize bool) string {
	label := string(status)
	if !colorize {
		return label
	}
	switch status {
	case store.StatusCompleted:
		return ansiGreen + label + ansiReset
	case store.StatusFailed:
		return ansiRed + label + ansiReset
	default:
		return ansiYellow + label + ansiReset
	}
}

func renderSectionHeader(title string) []string {
	line := fmt.Sprintf("== %s ==", strings.TrimSpace(title))
	return []string{line, strings.Repeat("-", len(line))}
}
