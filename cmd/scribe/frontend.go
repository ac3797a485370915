package main

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/mattn/go-isatty"

	"scribe/internal/pipeline"
)

// decider is the subset of the orchestrator the frontend talks back to.
type decider interface {
	DecideConflict(pipeline.ConflictDecision) bool
	DecideDuplicate(pipeline.DuplicateDecision) bool
}

// runFrontend consumes pipeline events on the foreground: it renders status
// and log lines and answers decision requests, either from policy flags or by
// prompting the terminal.
type runFrontend struct {
	mu          sync.Mutex
	out         io.Writer
	in          *bufio.Reader
	interactive bool
	onConflict  string
	onDuplicate string
	decider     decider
}

func newRunFrontend(out io.Writer, in io.Reader, onConflict, onDuplicate string) *runFrontend {
	interactive := false
	if file, ok := in.(*os.File); ok {
		fd := file.Fd()
		interactive = isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
	}
	return &runFrontend{
		out:         out,
		in:          bufio.NewReader(in),
		interactive: interactive,
		onConflict:  onConflict,
		onDuplicate: onDuplicate,
	}
}

// Publish implements pipeline.Sink. Decision requests are answered inline,
// which keeps the background worker blocked no longer than the prompt.
func (f *runFrontend) Publish(event pipeline.Event) {
	f.mu.Lock()
	defer f.mu.Unlock()

	switch event.Kind {
	case pipeline.EventLog:
		fmt.Fprintln(f.out, event.Message)
	case pipeline.EventItemStatus:
		fmt.Fprintf(f.out, "  %-12s %s\n", event.StatusLabel, displayKey(event.Key))
	case pipeline.EventProgress:
		fmt.Fprintf(f.out, "[%3.0f%%] %s\n", event.Percent, event.Message)
	case pipeline.EventTranscriptReady:
		fmt.Fprintf(f.out, "Saved %s\n", event.Path)
	case pipeline.EventItemRekey:
		// Identity change after a fetch; nothing to render.
	case pipeline.EventConflictRequest:
		f.decider.DecideConflict(f.resolveConflict(event))
	case pipeline.EventDuplicateRequest:
		f.decider.DecideDuplicate(f.resolveDuplicate(event))
	}
}

func (f *runFrontend) resolveConflict(event pipeline.Event) pipeline.ConflictDecision {
	switch f.onConflict {
	case "skip":
		return pipeline.ConflictDecision{Action: pipeline.ConflictSkip, ApplyToAll: true}
	case "overwrite":
		return pipeline.ConflictDecision{Action: pipeline.ConflictOverwrite, ApplyToAll: true}
	}

	fmt.Fprintf(f.out, "Output for %q already exists at %s\n", event.Stem, event.ExistingDir)
	if !f.interactive {
		fmt.Fprintln(f.out, "No terminal to ask on; keeping the existing output.")
		return pipeline.ConflictDecision{Action: pipeline.ConflictSkip}
	}

	for {
		fmt.Fprint(f.out, "[s]kip, [o]verwrite, [r]ename, add 'a' to apply to all (e.g. sa): ")
		answer, err := f.readAnswer()
		if err != nil {
			return pipeline.ConflictDecision{Action: pipeline.ConflictSkip}
		}

		applyToAll := strings.HasSuffix(answer, "a") && len(answer) > 1
		switch strings.TrimSuffix(answer, "a") {
		case "s", "skip":
			return pipeline.ConflictDecision{Action: pipeline.ConflictSkip, ApplyToAll: applyToAll}
		case "o", "overwrite":
			return pipeline.ConflictDecision{Action: pipeline.ConflictOverwrite, ApplyToAll: applyToAll}
		case "r", "rename":
			if stem := f.promptStem(event.Stem); stem != "" {
				return pipeline.ConflictDecision{Action: pipeline.ConflictRename, NewStem: stem, ApplyToAll: applyToAll}
			}
		}
		fmt.Fprintln(f.out, "Unrecognized answer.")
	}
}

func (f *runFrontend) resolveDuplicate(event pipeline.Event) pipeline.DuplicateDecision {
	switch f.onDuplicate {
	case "skip":
		return pipeline.DuplicateDecision{Action: pipeline.DuplicateSkip}
	case "overwrite":
		return pipeline.DuplicateDecision{Action: pipeline.DuplicateOverwrite}
	}

	fmt.Fprintf(f.out, "%q is already downloaded at %s\n", event.Title, event.ExistingPath)
	if !f.interactive {
		fmt.Fprintln(f.out, "No terminal to ask on; keeping the existing download.")
		return pipeline.DuplicateDecision{Action: pipeline.DuplicateSkip}
	}

	for {
		fmt.Fprint(f.out, "[s]kip, [o]verwrite, [r]ename: ")
		answer, err := f.readAnswer()
		if err != nil {
			return pipeline.DuplicateDecision{Action: pipeline.DuplicateSkip}
		}

		switch answer {
		case "s", "skip":
			return pipeline.DuplicateDecision{Action: pipeline.DuplicateSkip}
		case "o", "overwrite":
			return pipeline.DuplicateDecision{Action: pipeline.DuplicateOverwrite}
		case "r", "rename":
			if stem := f.promptStem(event.Title); stem != "" {
				return pipeline.DuplicateDecision{Action: pipeline.DuplicateRename, NewStem: stem}
			}
		}
		fmt.Fprintln(f.out, "Unrecognized answer.")
	}
}

func (f *runFrontend) promptStem(current string) string {
	fmt.Fprintf(f.out, "New name (current %q): ", current)
	answer, err := f.readLine()
	if err != nil {
		return ""
	}
	return answer
}

func (f *runFrontend) readAnswer() (string, error) {
	line, err := f.readLine()
	return strings.ToLower(line), err
}

func (f *runFrontend) readLine() (string, error) {
	line, err := f.in.ReadString('\n')
	if err != nil && line == "" {
		return "", err
	}
	return strings.TrimSpace(line), nil
}

func displayKey(key string) string {
	if strings.Contains(key, "://") {
		return key
	}
	return filepath.Base(key)
}
