package main

import (
	"context"
	"os"

	tea "github.com/charmbracelet/bubbletea"

	"scriptc/internal/driver"
	"scriptc/internal/progress"
	"scriptc/internal/ui"
)

type resolveOutcome struct {
	results []driver.Result
	err     error
}

func runResolveWithUI(ctx context.Context, title string, batch *driver.Batch, opts driver.Options) ([]driver.Result, error) {
	events := make(chan progress.Event, 256)
	outcomeCh := make(chan resolveOutcome, 1)

	go func() {
		optsCopy := opts
		optsCopy.Sink = progress.ChannelSink{Ch: events}
		results, err := driver.ResolveBatch(ctx, batch, optsCopy)
		outcomeCh <- resolveOutcome{results: results, err: err}
		close(events)
	}()

	names := make([]string, 0, len(batch.Units))
	for _, u := range batch.Units {
		names = append(names, u.Name)
	}
	model := ui.NewProgressModel(title, names, events)
	program := tea.NewProgram(model, tea.WithOutput(os.Stdout))
	_, uiErr := program.Run()
	outcome := <-outcomeCh
	if uiErr != nil {
		return outcome.results, uiErr
	}
	return outcome.results, outcome.err
}
