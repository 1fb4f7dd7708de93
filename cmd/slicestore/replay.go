package main

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	apperrors "github.com/vango-dev/slicestore/internal/errors"
	"github.com/vango-dev/slicestore/pkg/store"
)

func replayCmd(opts *cliOptions) *cobra.Command {
	var (
		keepGoing bool
		each      bool
	)

	cmd := &cobra.Command{
		Use:   "replay <file>",
		Short: "Dispatch a file of actions and print the final state",
		Long: `Dispatch a file of actions and print the final state.

The file holds one JSON action per line. Blank lines and lines starting
with # are skipped. Use - to read from stdin.

Examples:
  slicestore replay actions.jsonl
  cat actions.jsonl | slicestore replay - --each`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in, name, err := openInput(args[0], cmd.InOrStdin())
			if err != nil {
				return err
			}
			defer in.Close()

			a, err := newApp(opts.cfg)
			if err != nil {
				return err
			}
			r := &replayer{
				store:     a.store,
				out:       cmd.OutOrStdout(),
				errOut:    cmd.ErrOrStderr(),
				name:      name,
				keepGoing: keepGoing,
				each:      each,
			}
			return r.run(in)
		},
	}

	cmd.Flags().BoolVarP(&keepGoing, "keep-going", "k", false, "Report failed actions and continue")
	cmd.Flags().BoolVar(&each, "each", false, "Print the state after every action")

	return cmd
}

func openInput(arg string, stdin io.Reader) (io.ReadCloser, string, error) {
	if arg == "-" {
		return io.NopCloser(stdin), "stdin", nil
	}
	f, err := os.Open(arg)
	if err != nil {
		return nil, "", apperrors.New("S010").WithPath(arg).Wrap(err)
	}
	return f, arg, nil
}

// replayer dispatches actions read line by line.
type replayer struct {
	store     *store.Store[store.State]
	out       io.Writer
	errOut    io.Writer
	name      string
	keepGoing bool
	each      bool
}

func (r *replayer) run(in io.Reader) error {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64<<10), 1<<20)

	line, failed := 0, 0
	for scanner.Scan() {
		line++
		text := bytes.TrimSpace(scanner.Bytes())
		if len(text) == 0 || text[0] == '#' {
			continue
		}

		if err := r.dispatch(text); err != nil {
			coded := apperrors.FromStore(err).WithPath(fmt.Sprintf("%s:%d", r.name, line))
			if !r.keepGoing {
				return coded
			}
			failed++
			fmt.Fprintln(r.errOut, coded.FormatCompact())
			continue
		}
		if r.each {
			if err := r.printState(false); err != nil {
				return err
			}
		}
	}
	if err := scanner.Err(); err != nil {
		return apperrors.New("S010").WithPath(r.name).Wrap(err)
	}

	if !r.each {
		if err := r.printState(true); err != nil {
			return err
		}
	}
	if failed > 0 {
		return apperrors.New("S011").
			WithPath(r.name).
			WithDetail(fmt.Sprintf("%d action(s) failed.", failed))
	}
	return nil
}

func (r *replayer) dispatch(text []byte) error {
	action, err := store.ParseAction(json.RawMessage(text))
	if err != nil {
		return err
	}
	return r.store.Dispatch(action)
}

func (r *replayer) printState(indent bool) error {
	st, err := r.store.State()
	if err != nil {
		return err
	}
	enc := json.NewEncoder(r.out)
	if indent {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(st)
}
