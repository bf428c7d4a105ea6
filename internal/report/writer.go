// Package report formats decoded memory logger data as text.
package report

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/danmuck/memlogctl/internal/lifecycle"
	"github.com/danmuck/memlogctl/internal/record"
	"github.com/danmuck/memlogctl/internal/registry"
)

const (
	Rule  = "-----------------------------------------"
	width = len(Rule)

	DirectionDomain = "pal_stream_direction_t"
	DeviceDomain    = "pal_device_id_t"
	ACDStateDomain  = "pal_mlog_acd_state"
	ACDEngineDomain = "pal_mlog_acdeng_state"
)

// Option configures a Writer.
type Option func(*Writer)

// WithLocation sets the zone used for timestamps. Defaults to time.Local.
func WithLocation(loc *time.Location) Option {
	return func(w *Writer) {
		if loc != nil {
			w.loc = loc
		}
	}
}

// WithStyle decorates banners and failure lines.
func WithStyle(s Style) Option {
	return func(w *Writer) {
		w.style = s
	}
}

// Writer formats records to a sink. The first sink error is kept and every
// later write becomes a no-op; callers check Err once at the end.
type Writer struct {
	out   io.Writer
	reg   *registry.Registry
	loc   *time.Location
	style Style
	err   error
}

// NewWriter builds a writer over out.
func NewWriter(out io.Writer, reg *registry.Registry, opts ...Option) *Writer {
	w := &Writer{out: out, reg: reg, loc: time.Local, style: PlainStyle()}
	for _, opt := range opts {
		opt(w)
	}
	return w
}

// Err returns the first sink error.
func (w *Writer) Err() error {
	return w.err
}

// Printf writes one formatted line.
func (w *Writer) Printf(format string, args ...any) {
	if w.err != nil {
		return
	}
	_, w.err = fmt.Fprintf(w.out, format+"\n", args...)
}

// Rule writes a separator line.
func (w *Writer) Rule() {
	w.Printf("%s", Rule)
}

// Banner writes title centered in a dashed rule, preceded by blank lines
// when gap is set.
func (w *Writer) Banner(title string, gap bool) {
	prefix := ""
	if gap {
		prefix = "\n\n"
	}
	w.Printf("%s%s", prefix, w.style.Banner(Center(title)))
}

// Header writes the opening rule and banner of a section.
func (w *Writer) Header(title string) {
	w.Rule()
	w.Banner(title, false)
}

// Timestamp formats a millisecond epoch value in the writer's zone.
func (w *Writer) Timestamp(ms uint64) string {
	return FormatTimestamp(ms, w.loc)
}

// Record writes one state queue entry.
func (w *Writer) Record(rec record.Record) {
	s := rec.State()
	w.Rule()
	w.Printf("Timestamp:........%s", w.Timestamp(s.Timestamp))
	w.Printf("stream_handle:....%#x", s.Handle)
	w.Printf("state:............%s", w.reg.ResolveEnum(lifecycle.StateDomain, s.QueueState))
	w.Printf("stream_type:......%s", w.reg.ResolveEnum(record.StreamTypeDomain, s.StreamType))
	w.Printf("direction:........%s", w.reg.ResolveEnum(DirectionDomain, s.Direction))
	if s.Failed() {
		w.Printf("%s", w.style.Failure(fmt.Sprintf("error.............THIS TRANSITION FAILED! %d", s.ErrorCode)))
	}
	w.Printf("device info:")
	for _, d := range s.Devices {
		if d.ID == 0 {
			continue
		}
		w.Printf("  device: %s\n\tsample_rate:%d\n\tbit_width:%d\n\tchannels:%d",
			w.reg.ResolveEnum(DeviceDomain, d.ID), d.SampleRate, d.BitWidth, d.Channels)
	}
	w.Rule()

	switch r := rec.(type) {
	case record.ACDRecord:
		w.acd(r.ACD)
	case record.BaseRecord:
	}
}

func (w *Writer) acd(a record.ACDInfo) {
	w.Printf("ACD INFO:")
	w.Printf("  state_id:     %s", w.reg.ResolveEnum(ACDStateDomain, a.StateID))
	w.Printf("  eng_state_id: %s", w.reg.ResolveEnum(ACDEngineDomain, a.EngineStateID))
	w.Printf("  event_id:     %d", a.EventID)
	w.Printf("  context_id:   %d", a.ContextID)
	w.Printf("  CP name:      %s", a.ProfileName)
	w.Printf("  model id:     %d", a.ModelID)
}

// Summary writes the still-active and failed stream sections.
func (w *Writer) Summary(open, failed []record.Record) {
	w.Rule()
	if len(open) > 0 {
		w.Banner("PAL STREAMS STILL ACTIVE", true)
		for _, r := range open {
			w.Record(r)
		}
	} else {
		w.Banner("NO ACTIVE STREAMS IN SYSTEM", true)
	}

	if len(failed) > 0 {
		w.Banner("PAL STREAMS TRANSITION FAILURES", true)
		for _, r := range failed {
			w.Record(r)
		}
	} else {
		w.Banner("NO ERROR STREAMS", true)
	}
}

// Center pads title with dashes to the rule width.
func Center(title string) string {
	n := width - len(title)
	if n <= 0 {
		return title
	}
	left := n / 2
	return strings.Repeat("-", left) + title + strings.Repeat("-", n-left)
}

// FormatTimestamp renders ms as "2006-01-02 15:04:05.000" in loc.
func FormatTimestamp(ms uint64, loc *time.Location) string {
	t := time.UnixMilli(int64(ms)).In(loc)
	return fmt.Sprintf("%s.%03d", t.Format(time.DateTime), ms%1000)
}
