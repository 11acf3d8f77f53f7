package main

import (
	"context"
	"fmt"
	"io"
	"log"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/surveyorhq/surveyor/internal/orchestrator"
	"github.com/surveyorhq/surveyor/internal/tui"
)

// runResearchTUI submits the query through the run pool and renders the
// pool's aggregated event stream in a live TUI. Interrupt stops the pool,
// which cancels the run.
func runResearchTUI(ctx context.Context, pool *orchestrator.RunPool, query string) (retErr error) {
	// Suppress log output while the TUI is active (it corrupts the display)
	originalOutput := log.Writer()
	log.SetOutput(io.Discard)
	defer log.SetOutput(originalOutput)

	defer func() {
		if r := recover(); r != nil {
			retErr = fmt.Errorf("panic in research TUI: %v", r)
		}
	}()
	defer pool.Stop()

	go func() {
		<-ctx.Done()
		pool.Stop()
	}()

	if _, err := pool.Submit(query); err != nil {
		return err
	}

	program := tea.NewProgram(tui.NewRunView(query))

	runFailed := make(chan error, 1)
	go forwardEventsToTUI(program, pool.Events(), runFailed)

	// The TUI exits on q, after the terminal banner has been shown.
	if _, err := program.Run(); err != nil {
		return err
	}

	select {
	case err := <-runFailed:
		return err
	default:
		return nil
	}
}

// forwardEventsToTUI converts pool events to TUI messages. Terminal run
// events additionally produce the done banner, and a fatal run error is
// reported on runFailed.
func forwardEventsToTUI(program *tea.Program, events <-chan orchestrator.Event, runFailed chan<- error) {
	for event := range events {
		errStr := ""
		if event.Error != nil {
			errStr = event.Error.Error()
		}
		program.Send(tui.RunEventMsg{
			Type:      string(event.Type),
			RunID:     event.RunID,
			ThreadID:  event.ThreadID,
			Focus:     event.Focus,
			Message:   event.Message,
			Error:     errStr,
			Format:    string(event.Format),
			Timestamp: event.Timestamp,
		})

		switch event.Type {
		case orchestrator.EventRunDone:
			program.Send(tui.RunDoneMsg{Success: true, Message: "research complete"})
		case orchestrator.EventRunFailed:
			message := "run failed"
			if event.Error != nil {
				message = errStr
			}
			select {
			case runFailed <- event.Error:
			default:
			}
			program.Send(tui.RunDoneMsg{Success: false, Message: message})
		}
	}
}
