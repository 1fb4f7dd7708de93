package main

import (
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/vango-dev/slicestore/internal/config"
	apperrors "github.com/vango-dev/slicestore/internal/errors"
)

func initCmd() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init [dir]",
		Short: "Write a default slicestore.json",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			return runInit(dir, force)
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Overwrite an existing slicestore.json")

	return cmd
}

func runInit(dir string, force bool) error {
	path := filepath.Join(dir, config.ConfigFileName)
	if config.Exists(dir) && !force {
		return apperrors.New("S003").
			WithPath(path).
			WithDetail("The file already exists.").
			WithSuggestion("Pass --force to overwrite it")
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return apperrors.New("S003").WithPath(path).Wrap(err)
	}
	if err := config.Default().SaveTo(path); err != nil {
		return err
	}
	success("Wrote %s", path)
	return nil
}
