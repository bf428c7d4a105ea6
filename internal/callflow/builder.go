// Package callflow renders stream transitions as a sequence diagram script
// and hands the script to a diagram renderer.
package callflow

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/danmuck/memlogctl/internal/lifecycle"
)

const DefaultTitle = "Pal State Sequence"

// Builder accumulates transition events into a sequence diagram script.
type Builder struct {
	sb     strings.Builder
	events int
}

// NewBuilder starts a script with the given title.
func NewBuilder(title string) *Builder {
	b := &Builder{}
	if title == "" {
		title = DefaultTitle
	}
	fmt.Fprintf(&b.sb, "title %s\n\n", title)
	return b
}

// Add appends one event. Failed transitions render as a note spanning both
// participants instead of an arrow.
func (b *Builder) Add(ev lifecycle.TransitionEvent) {
	label := fmt.Sprintf("%s(%#x)", ev.StreamType, ev.Handle)
	if ev.Succeeded {
		fmt.Fprintf(&b.sb, "%s -> %s: %s\n", ev.From, ev.To, label)
	} else {
		fmt.Fprintf(&b.sb, "note over %s,%s\n%s\nTransition to %s FAILED\nend note\n", ev.From, ev.To, label, ev.To)
	}
	b.events++
}

// AddAll appends events in order.
func (b *Builder) AddAll(events []lifecycle.TransitionEvent) {
	for _, ev := range events {
		b.Add(ev)
	}
}

// Len is the number of events added.
func (b *Builder) Len() int {
	return b.events
}

// Script returns the accumulated script.
func (b *Builder) Script() string {
	return b.sb.String()
}

// RenderFile renders the script through r and writes the image to path.
func (b *Builder) RenderFile(ctx context.Context, r Renderer, path string) error {
	img, err := r.Render(ctx, b.Script())
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, img, 0o644); err != nil {
		return fmt.Errorf("write callflow image (%s): %w", path, err)
	}
	return nil
}
