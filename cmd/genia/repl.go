// ABOUTME: Read-eval-print loop driving a chat session from line input
// ABOUTME: Questions block on the answer; uploads run in the background

package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/fatih/color"
	"golang.org/x/sync/errgroup"

	"github.com/2389/genia/internal/events"
	"github.com/2389/genia/internal/ingest"
	"github.com/2389/genia/internal/session"
	"github.com/2389/genia/internal/tasks"
)

// command is one parsed input line. An empty name is a question.
type command struct {
	name string
	arg  string
}

// parseCommand splits a slash command from its argument.
func parseCommand(line string) command {
	line = strings.TrimSpace(line)
	if !strings.HasPrefix(line, "/") {
		return command{arg: line}
	}
	name, arg, _ := strings.Cut(line, " ")
	return command{name: strings.ToLower(name), arg: strings.TrimSpace(arg)}
}

type repl struct {
	sess *session.Session
	out  *printer
	in   io.Reader

	uploads errgroup.Group

	mu         sync.Mutex
	channelErr error
}

func newREPL(sess *session.Session, out *printer, in io.Reader) *repl {
	r := &repl{sess: sess, out: out, in: in}
	sess.OnChange(r.onChange)
	sess.OnEvent(r.onEvent)
	return r
}

// Run reads lines until EOF, /quit, or ctx is done. Uploads still running
// are waited for before it returns.
func (r *repl) Run(ctx context.Context) error {
	lines := make(chan string)
	readErr := make(chan error, 1)
	go func() {
		scanner := bufio.NewScanner(r.in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-ctx.Done():
				return
			}
		}
		readErr <- scanner.Err()
	}()

	defer func() { _ = r.uploads.Wait() }()

	for {
		r.out.prompt()

		var line string
		select {
		case <-ctx.Done():
			return nil
		case err := <-readErr:
			if err != nil {
				return fmt.Errorf("reading input: %w", err)
			}
			return nil
		case line = <-lines:
		}

		if quit := r.handle(ctx, parseCommand(line)); quit {
			return nil
		}
	}
}

// handle executes one command and reports whether the loop should stop.
func (r *repl) handle(ctx context.Context, cmd command) bool {
	switch cmd.name {
	case "":
		r.ask(ctx, cmd.arg)
	case "/quit", "/exit", "/q":
		return true
	case "/help":
		r.out.help()
	case "/tasks":
		r.out.tasks(r.sess.Tasks())
	case "/status":
		r.out.notice("State: " + r.sess.State().String())
	case "/upload":
		if cmd.arg == "" {
			r.out.notice("Usage: /upload <path>")
			return false
		}
		r.upload(ctx, ingest.PathFile(cmd.arg))
	default:
		r.out.notice(fmt.Sprintf("Unknown command %s. /help lists commands.", cmd.name))
	}
	return false
}

func (r *repl) ask(ctx context.Context, text string) {
	if text == "" {
		return
	}

	r.out.thinking()
	err := r.sess.Send(ctx, text)
	switch {
	case err == nil:
		if msgs := r.sess.Messages(); len(msgs) > 0 {
			r.out.assistant(msgs[len(msgs)-1])
		}
	case errors.Is(err, session.ErrSendInFlight):
		r.out.notice("Still waiting on the previous answer.")
	case errors.Is(err, context.Canceled):
	default:
		r.out.failure(r.sess.Failure())
	}
}

func (r *repl) upload(ctx context.Context, f ingest.File) {
	r.out.notice(color.HiBlackString("Uploading %s...", f.Name()))
	r.uploads.Go(func() error {
		ack, err := r.sess.Upload(ctx, f)
		switch {
		case err == nil:
			r.out.ack(ack)
		case errors.Is(err, ingest.ErrUploadInFlight):
			r.out.notice("Another upload is still running.")
		case errors.Is(err, context.Canceled):
		default:
			r.out.failure(r.sess.Failure())
		}
		return nil
	})
}

// onChange reports a push channel failure once per distinct error.
func (r *repl) onChange(v session.View) {
	if v.ChannelError == nil {
		return
	}
	r.mu.Lock()
	seen := r.channelErr == v.ChannelError
	r.channelErr = v.ChannelError
	r.mu.Unlock()
	if !seen {
		r.out.notice(color.YellowString("Live task updates stopped: %v", v.ChannelError))
	}
}

func (r *repl) onEvent(ev events.Event) {
	if tasks.IsTaskEvent(ev) {
		r.out.notice(color.HiBlackString("Tasks updated (%d). /tasks to view.", len(r.sess.Tasks())))
	}
}
