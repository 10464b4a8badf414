package tui

import (
	"fmt"
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/thiagokokada/gitk-graph/internal/watch"
)

// Run shows the browser full screen until the user quits. With watchRepo
// set the history reloads whenever the repository changes on disk.
func Run(src Source, opts Options, watchRepo bool) error {
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	var program *tea.Program
	m := New(src, opts, func(msg tea.Msg) { program.Send(msg) })
	program = tea.NewProgram(m, tea.WithAltScreen())

	if watchRepo {
		w, err := watch.Start(src.RepoPath(), watch.DefaultDelay, func() {
			program.Send(ReloadMsg{})
		}, watch.WithLogger(opts.Logger))
		if err != nil {
			opts.Logger.Error("auto reload disabled", slog.Any("error", err))
		} else {
			defer func() {
				if err := w.Close(); err != nil {
					opts.Logger.Error("watcher close", slog.Any("error", err))
				}
			}()
		}
	}

	_, err := program.Run()
	m.hist.Abort()
	if err != nil {
		return fmt.Errorf("browser: %w", err)
	}
	return nil
}
