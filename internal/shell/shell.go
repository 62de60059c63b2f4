// SPDX-License-Identifier: MIT

// Package shell drives a deck from a line-oriented command stream.
package shell

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/ManuGH/mediadeck/internal/domain/session/model"
	mdlog "github.com/ManuGH/mediadeck/internal/log"
)

// Deck is the command surface the shell drives.
type Deck interface {
	RefreshTracks(ctx context.Context) ([]model.Track, error)
	Playlist() model.PlaylistSnapshot
	Playback() model.PlaybackSnapshot
	Recordings() model.RecordingSnapshot

	Select(ctx context.Context, index int) error
	Next(ctx context.Context) error
	Previous(ctx context.Context) error
	Pause(ctx context.Context) error
	Resume(ctx context.Context) error
	Stop(ctx context.Context) error
	Exit(ctx context.Context) error

	StartRecording(ctx context.Context) error
	StopRecording(ctx context.Context) (model.Recording, error)
	PlayRecording(ctx context.Context, index int) (model.Recording, error)
}

var errQuit = errors.New("quit")

const helpText = `commands:
  tracks              list tracks, * marks the selection
  refresh             re-list the audio library
  select <n>          play track n
  next | previous     move within the list
  pause | resume      pause or continue playback
  stop                stop and keep the position
  exit                stop and leave the track
  status              show the playback state
  record              start recording
  finish              stop recording and keep the clip
  recordings          list recordings
  play <n>            play recording n
  help                show this text
  quit                leave the shell
`

// LineSource yields one command line per call and io.EOF once input ends.
type LineSource interface {
	Readline() (string, error)
}

type scanSource struct {
	scanner *bufio.Scanner
	out     io.Writer
	prompt  string
}

// Lines reads commands from in, printing prompt to out before each one.
// An empty prompt disables prompting.
func Lines(in io.Reader, out io.Writer, prompt string) LineSource {
	return &scanSource{scanner: bufio.NewScanner(in), out: out, prompt: prompt}
}

func (s *scanSource) Readline() (string, error) {
	if s.prompt != "" {
		fmt.Fprint(s.out, s.prompt)
	}
	if !s.scanner.Scan() {
		if err := s.scanner.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return s.scanner.Text(), nil
}

// Commands returns the command words the shell understands.
func Commands() []string {
	return []string{
		"tracks", "refresh", "select", "next", "previous", "pause", "resume",
		"stop", "exit", "status", "record", "finish", "recordings", "play",
		"help", "quit",
	}
}

// Shell reads commands from a LineSource and writes results to out.
type Shell struct {
	deck   Deck
	lines  LineSource
	out    io.Writer
	logger zerolog.Logger
}

// New creates a shell.
func New(deck Deck, lines LineSource, out io.Writer) *Shell {
	if deck == nil {
		panic("invariant violation: deck is nil in shell.New")
	}
	if lines == nil {
		panic("invariant violation: line source is nil in shell.New")
	}
	return &Shell{deck: deck, lines: lines, out: out, logger: mdlog.WithComponent("shell")}
}

// Run executes commands until quit, end of input or ctx is done. Command
// failures are printed and do not end the session.
func (s *Shell) Run(ctx context.Context) error {
	for {
		raw, err := s.lines.Readline()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		line := strings.TrimSpace(raw)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		err = s.Exec(ctx, line)
		if errors.Is(err, errQuit) {
			return nil
		}
		if err != nil {
			s.logger.Debug().Err(err).Str("command", line).Msg("command failed")
			fmt.Fprintf(s.out, "error: %v\n", err)
		}
	}
}

// Exec runs a single command line.
func (s *Shell) Exec(ctx context.Context, line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	cmd, args := strings.ToLower(fields[0]), fields[1:]

	switch cmd {
	case "help", "?":
		fmt.Fprint(s.out, helpText)
		return nil
	case "quit", "q":
		return errQuit
	case "tracks", "ls":
		s.printPlaylist(s.deck.Playlist())
		return nil
	case "refresh":
		tracks, err := s.deck.RefreshTracks(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(s.out, "%d tracks\n", len(tracks))
		return nil
	case "select":
		n, err := indexArg(cmd, args)
		if err != nil {
			return err
		}
		return s.withStatus(s.deck.Select(ctx, n))
	case "next":
		return s.withStatus(s.deck.Next(ctx))
	case "previous", "prev":
		return s.withStatus(s.deck.Previous(ctx))
	case "pause":
		return s.withStatus(s.deck.Pause(ctx))
	case "resume":
		return s.withStatus(s.deck.Resume(ctx))
	case "stop":
		return s.withStatus(s.deck.Stop(ctx))
	case "exit":
		return s.withStatus(s.deck.Exit(ctx))
	case "status":
		s.printPlayback(s.deck.Playback())
		return nil
	case "record":
		if err := s.deck.StartRecording(ctx); err != nil {
			return err
		}
		fmt.Fprintln(s.out, "recording")
		return nil
	case "finish":
		rec, err := s.deck.StopRecording(ctx)
		if err != nil {
			return err
		}
		fmt.Fprintf(s.out, "saved %s (%s)\n", rec.ID, rec.Duration())
		return nil
	case "recordings":
		s.printRecordings(s.deck.Recordings())
		return nil
	case "play":
		n, err := indexArg(cmd, args)
		if err != nil {
			return err
		}
		rec, err := s.deck.PlayRecording(ctx, n)
		if err != nil {
			return err
		}
		fmt.Fprintf(s.out, "playing recording %s\n", rec.ID)
		return nil
	default:
		return fmt.Errorf("unknown command %q, try help", cmd)
	}
}

func indexArg(cmd string, args []string) (int, error) {
	if len(args) != 1 {
		return 0, fmt.Errorf("usage: %s <n>", cmd)
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, fmt.Errorf("%s: invalid index %q", cmd, args[0])
	}
	return n, nil
}

func (s *Shell) withStatus(err error) error {
	if err != nil {
		return err
	}
	s.printPlayback(s.deck.Playback())
	return nil
}

func (s *Shell) printPlayback(p model.PlaybackSnapshot) {
	name := "-"
	if p.Track != nil {
		name = p.Track.Filename
	}
	fmt.Fprintf(s.out, "%s %s %s\n", p.Status, name, model.FormatDuration(p.PositionMillis))
	if p.LastError != "" {
		fmt.Fprintf(s.out, "last error: %s\n", p.LastError)
	}
}

func (s *Shell) printPlaylist(p model.PlaylistSnapshot) {
	if len(p.Tracks) == 0 {
		fmt.Fprintln(s.out, "no tracks, try refresh")
		return
	}
	for i, t := range p.Tracks {
		mark := " "
		if i == p.CurrentIndex {
			mark = "*"
		}
		fmt.Fprintf(s.out, "%s %2d  %s\n", mark, i, t.Filename)
	}
}

func (s *Shell) printRecordings(r model.RecordingSnapshot) {
	fmt.Fprintf(s.out, "status %s\n", r.Status)
	for i, rec := range r.Recordings {
		fmt.Fprintf(s.out, "  %2d  %s  %s\n", i, rec.Duration(), rec.ID)
	}
	if r.LastError != "" {
		fmt.Fprintf(s.out, "last error: %s\n", r.LastError)
	}
}
