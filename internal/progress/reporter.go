// Package progress carries stage reporting and the blocking "try again?"
// decision from the core to whoever drives it.
package progress

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"

	"github.com/charmbracelet/huh"
	"github.com/mattn/go-isatty"

	"github.com/yungbote/routecard/internal/pkg/logger"
)

// Reporter receives checkpoints from bulk operations. Only ConfirmRetry's
// answer influences control flow.
type Reporter interface {
	Stage(message string, current, total int)
	SubStage(current, total int)
	ConfirmRetry(message string) bool
	Warn(message string)
}

// LogReporter writes every checkpoint to the logger and answers retry
// prompts with a fixed decision. It is the non-interactive default.
type LogReporter struct {
	log   *logger.Logger
	retry bool
}

func NewLogReporter(log *logger.Logger, autoRetry bool) *LogReporter {
	return &LogReporter{log: log.With("component", "progress"), retry: autoRetry}
}

func (r *LogReporter) Stage(message string, current, total int) {
	r.log.Info(message, "current", current, "total", total)
}

func (r *LogReporter) SubStage(current, total int) {
	r.log.Debug("sub-stage", "current", current, "total", total)
}

func (r *LogReporter) ConfirmRetry(message string) bool {
	r.log.Warn(message, "auto_retry", r.retry)
	return r.retry
}

func (r *LogReporter) Warn(message string) {
	r.log.Warn(message)
}

// TerminalReporter prints stages to out and asks the operator through a
// confirm prompt. Without a terminal on stdin it falls back to its
// LogReporter's decision.
type TerminalReporter struct {
	out      io.Writer
	fallback *LogReporter
	tty      bool
}

func NewTerminalReporter(out io.Writer, log *logger.Logger, autoRetry bool) *TerminalReporter {
	fd := os.Stdin.Fd()
	return &TerminalReporter{
		out:      out,
		fallback: NewLogReporter(log, autoRetry),
		tty:      isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd),
	}
}

func (r *TerminalReporter) Stage(message string, current, total int) {
	if total > 0 {
		fmt.Fprintf(r.out, "[%d/%d] %s\n", current, total, message)
	} else {
		fmt.Fprintln(r.out, message)
	}
	r.fallback.Stage(message, current, total)
}

func (r *TerminalReporter) SubStage(current, total int) {
	if total > 0 && r.tty {
		fmt.Fprintf(r.out, "\r  %d/%d", current, total)
		if current >= total {
			fmt.Fprintln(r.out)
		}
	}
	r.fallback.SubStage(current, total)
}

// ConfirmRetry blocks until the operator answers. There is no timeout.
func (r *TerminalReporter) ConfirmRetry(message string) bool {
	if !r.tty {
		return r.fallback.ConfirmRetry(message)
	}
	retry := true
	err := huh.NewConfirm().
		Title(message).
		Affirmative("Try again").
		Negative("Abort").
		Value(&retry).
		Run()
	if err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return false
		}
		return r.fallback.ConfirmRetry(message)
	}
	return retry
}

func (r *TerminalReporter) Warn(message string) {
	fmt.Fprintf(r.out, "warning: %s\n", message)
	r.fallback.Warn(message)
}

// Recorder keeps every checkpoint in memory and answers ConfirmRetry from
// a scripted list (then from Default). Useful to drive the core from
// tests or from batch tools that inspect warnings afterwards.
type Recorder struct {
	mu       sync.Mutex
	Answers  []bool
	Default  bool
	Stages   []string
	Prompts  []string
	Warnings []string
}

func (r *Recorder) Stage(message string, current, total int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Stages = append(r.Stages, message)
}

func (r *Recorder) SubStage(current, total int) {}

func (r *Recorder) ConfirmRetry(message string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Prompts = append(r.Prompts, message)
	if len(r.Answers) == 0 {
		return r.Default
	}
	ans := r.Answers[0]
	r.Answers = r.Answers[1:]
	return ans
}

func (r *Recorder) Warn(message string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Warnings = append(r.Warnings, message)
}

func (r *Recorder) WarningsSnapshot() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.Warnings...)
}
