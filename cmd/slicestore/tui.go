package main

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"github.com/vango-dev/slicestore/internal/tui"
)

func tuiCmd(opts *cliOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "tui",
		Short: "Manage a todo list in the terminal",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(opts.cfg)
			if err != nil {
				return err
			}
			return tui.Run(a.store, itemIDs(opts.cfg), tea.WithAltScreen(), tea.WithContext(cmd.Context()))
		},
	}
}
