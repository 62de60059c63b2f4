// Copyright (c) 2025 ManuGH
// Licensed under the PolyForm Noncommercial License 1.0.0
// Since v2.0.0, this software is restricted to non-commercial use only.

package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/ManuGH/mediadeck/internal/daemon"
	"github.com/ManuGH/mediadeck/internal/health"
	"github.com/ManuGH/mediadeck/internal/shell"
)

func newShellCmd(opts *rootOptions) *cobra.Command {
	var prompt string
	cmd := &cobra.Command{
		Use:   "shell",
		Short: "Control the deck from a line-oriented shell on stdin",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			// Logs go to stderr so the shell output stays readable.
			cfg, err := loadConfig(opts, cmd.ErrOrStderr())
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			if err := health.PerformStartupChecks(ctx, cfg); err != nil {
				return err
			}
			rt, err := daemon.Build(ctx, cfg)
			if err != nil {
				return fmt.Errorf("build runtime: %w", err)
			}
			defer func() {
				err = errors.Join(err, rt.Close(context.WithoutCancel(ctx)))
			}()

			out := cmd.OutOrStdout()
			if tracks, err := rt.Deck.RefreshTracks(ctx); err != nil {
				fmt.Fprintf(out, "library unavailable: %v\n", err)
			} else {
				fmt.Fprintf(out, "%d tracks, type help for commands\n", len(tracks))
			}

			lines, closeLines, err := lineSource(cmd, prompt, filepath.Join(cfg.DataDir, historyFile))
			if err != nil {
				return err
			}
			defer closeLines()

			err = shell.New(rt.Deck, lines, out).Run(ctx)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
	cmd.Flags().StringVar(&prompt, "prompt", "mediadeck> ", "prompt printed before each command")
	return cmd
}

const historyFile = ".shell_history"

// lineSource uses readline with history and completion on a terminal and a
// plain scanner otherwise.
func lineSource(cmd *cobra.Command, prompt, history string) (shell.LineSource, func(), error) {
	in, ok := cmd.InOrStdin().(*os.File)
	if !ok || !readline.IsTerminal(int(in.Fd())) {
		return shell.Lines(cmd.InOrStdin(), cmd.OutOrStdout(), prompt), func() {}, nil
	}

	items := make([]readline.PrefixCompleterInterface, 0, len(shell.Commands()))
	for _, c := range shell.Commands() {
		items = append(items, readline.PcItem(c))
	}
	rl, err := readline.NewEx(&readline.Config{
		Prompt:          prompt,
		HistoryFile:     history,
		AutoComplete:    readline.NewPrefixCompleter(items...),
		InterruptPrompt: "^C",
		EOFPrompt:       "quit",
	})
	if err != nil {
		return nil, nil, fmt.Errorf("open terminal: %w", err)
	}
	return terminal{rl}, func() { _ = rl.Close() }, nil
}

type terminal struct {
	rl *readline.Instance
}

// Readline ends the session on ^C at an empty prompt and discards the line otherwise.
func (t terminal) Readline() (string, error) {
	line, err := t.rl.Readline()
	if errors.Is(err, readline.ErrInterrupt) {
		if line == "" {
			return "", io.EOF
		}
		return "", nil
	}
	return line, err
}
