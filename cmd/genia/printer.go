// ABOUTME: Terminal output for the chat client
// ABOUTME: Serializes writes from the input loop, background uploads, and push events

package main

import (
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/fatih/color"

	"github.com/2389/genia/internal/api"
	"github.com/2389/genia/internal/session"
	"github.com/2389/genia/internal/tasks"
	"github.com/2389/genia/internal/transcript"
)

// thinkingText is shown while an answer is pending.
const thinkingText = "Genia is thinking..."

type printer struct {
	mu  sync.Mutex
	out io.Writer
}

func newPrinter(w io.Writer) *printer {
	return &printer{out: w}
}

func (p *printer) write(s string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	fmt.Fprint(p.out, s)
}

func (p *printer) println(s string) {
	p.write(s + "\n")
}

func (p *printer) header(server string, authenticated bool) {
	var b strings.Builder
	b.WriteString(color.CyanString("genia"))
	fmt.Fprintf(&b, " connected to %s\n", server)
	if authenticated {
		b.WriteString("Auth: bearer token configured\n")
	} else {
		b.WriteString(color.HiBlackString("Auth: none (set GENIA_TOKEN for authentication)") + "\n")
	}
	b.WriteString("Ask a question and press Enter. /help for commands. Ctrl+C to quit.\n\n")
	p.write(b.String())
}

func (p *printer) prompt() {
	p.write("> ")
}

func (p *printer) notice(s string) {
	p.println(s)
}

func (p *printer) thinking() {
	p.println(color.HiBlackString(thinkingText))
}

// assistant prints a reply followed by its source labels.
func (p *printer) assistant(msg transcript.Message) {
	var b strings.Builder
	b.WriteString(color.GreenString("Genia: "))
	b.WriteString(msg.Content)
	b.WriteString("\n")
	if labels := msg.SourceLabels(); len(labels) > 0 {
		b.WriteString(color.HiBlackString("Sources: " + strings.Join(labels, ", ")))
		b.WriteString("\n")
	}
	p.write(b.String())
}

func (p *printer) failure(f *session.Failure) {
	if f == nil {
		return
	}
	var msg string
	switch f.Kind {
	case session.KindUpload:
		msg = fmt.Sprintf("Upload of %s failed: %v", f.Filename, f.Err)
	default:
		msg = fmt.Sprintf("Could not answer %q: %v", f.Question, f.Err)
	}
	p.println(color.RedString("[error] ") + msg)
}

func (p *printer) ack(ack *api.Ack) {
	if ack == nil {
		return
	}
	switch {
	case ack.Duplicate:
		p.println(color.YellowString("[upload] ") + ack.Filename + " was already indexed")
	case ack.Chunks > 0:
		p.println(color.GreenString("[upload] ") + fmt.Sprintf("Indexed %s (%d chunks)", ack.Filename, ack.Chunks))
	default:
		p.println(color.GreenString("[upload] ") + "Uploaded " + ack.Filename)
	}
}

func (p *printer) tasks(list []api.Task) {
	if len(list) == 0 {
		p.println("No tasks.")
		return
	}
	var b strings.Builder
	b.WriteString("Tasks:\n")
	for _, t := range list {
		fmt.Fprintf(&b, "  #%d %s\n", t.ID, tasks.Render(t))
	}
	p.write(b.String())
}

func (p *printer) help() {
	p.write(`Commands:
  /upload <path>  Index a document (.pdf, .txt, .md)
  /tasks          Show your task list
  /status         Show what is pending
  /help           Show this help
  /quit           Exit
`)
}
