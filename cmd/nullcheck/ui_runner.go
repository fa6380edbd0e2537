package main

import (
	"context"
	"fmt"
	"os"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"nullcheck/internal/config"
	"nullcheck/internal/driver"
	"nullcheck/internal/host"
	"nullcheck/internal/ui"
)

// progressUI is the --ui setting of check.
type progressUI uint8

const (
	progressAuto progressUI = iota
	progressOn
	progressOff
)

var progressUINames = [...]string{
	progressAuto: "auto",
	progressOn:   "on",
	progressOff:  "off",
}

func (m progressUI) String() string {
	if int(m) < len(progressUINames) {
		return progressUINames[m]
	}
	return "unknown"
}

func parseProgressUI(value string) (progressUI, error) {
	name := strings.ToLower(strings.TrimSpace(value))
	if name == "" {
		return progressAuto, nil
	}
	for m, n := range progressUINames {
		if n == name {
			return progressUI(m), nil
		}
	}
	return progressAuto, fmt.Errorf("invalid --ui value %q (expected auto|on|off)", value)
}

// wantsProgressView decides whether check draws the Bubble Tea view. The view
// shares the terminal with the pretty report, so other formats and --quiet
// never get it. In auto mode stdout and stderr must both be terminals.
func wantsProgressView(mode progressUI, format string, quiet bool) bool {
	if quiet || format != config.FormatPretty || mode == progressOff {
		return false
	}
	if mode == progressOn {
		return true
	}
	return isTerminal(os.Stdout) && isTerminal(os.Stderr)
}

type checkOutcome struct {
	result *driver.CheckResult
	err    error
}

// runCheckWithUI runs driver.Check while a Bubble Tea view renders its
// progress on stderr.
func runCheckWithUI(ctx context.Context, title string, assemblies []string, types []host.Type, opts driver.CheckOptions) (*driver.CheckResult, error) {
	events := make(chan driver.Event, 256)
	outcomeCh := make(chan checkOutcome, 1)

	go func() {
		optsCopy := opts
		optsCopy.Progress = driver.ChannelSink{Ch: events}
		res, err := driver.Check(ctx, types, optsCopy)
		outcomeCh <- checkOutcome{result: res, err: err}
		close(events)
	}()

	model := ui.NewProgressModel(title, assemblies, events)
	program := tea.NewProgram(model, tea.WithOutput(os.Stderr))
	_, uiErr := program.Run()
	outcome := <-outcomeCh
	if uiErr != nil && outcome.err == nil {
		return outcome.result, uiErr
	}
	return outcome.result, outcome.err
}
