package ui

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"tasklist/internal/store"
)

// Run starts the UI on the terminal and blocks until the user quits or ctx
// is cancelled. If logs is non-nil it is pointed at the program so warnings
// show up in the status line.
func Run(ctx context.Context, st *store.Store, logs *LogHandler) error {
	program := tea.NewProgram(NewModel(ctx, st),
		tea.WithAltScreen(),
		tea.WithContext(ctx),
	)

	// The store also notifies from inside Update (BeginEdit, CancelEdit),
	// where a blocking Send would deadlock the event loop.
	unsubscribe := st.Subscribe(func() {
		go program.Send(storeChangedMsg{})
	})
	defer unsubscribe()

	if logs != nil {
		logs.SetProgram(program)
		defer logs.setSender(nil)
	}

	_, err := program.Run()
	return err
}
