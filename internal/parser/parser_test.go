package parser

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/danmuck/memlogctl/internal/record"
	"github.com/danmuck/memlogctl/internal/registry"
	"github.com/danmuck/memlogctl/internal/testutil/testlog"
)

type fakeRenderer struct {
	script string
	err    error
}

func (f *fakeRenderer) Render(_ context.Context, script string) ([]byte, error) {
	f.script = script
	if f.err != nil {
		return nil, f.err
	}
	return []byte("PNG"), nil
}

func state(handle uint64, queueState, errorCode int64) record.Record {
	return record.BaseRecord{StateRecord: record.StateRecord{
		Timestamp:  1700000000000,
		Handle:     handle,
		QueueState: queueState,
		ErrorCode:  errorCode,
		StreamType: 1,
		Direction:  1,
	}}
}

func dump(t *testing.T, reg *registry.Registry, recs ...record.Record) []byte {
	t.Helper()
	dec, err := record.NewStateDecoder(reg)
	if err != nil {
		t.Fatalf("decoder: %v", err)
	}
	var out []byte
	for _, r := range recs {
		b, err := dec.Encode(r)
		if err != nil {
			t.Fatalf("encode: %v", err)
		}
		out = append(out, b...)
	}
	return out
}

func writeFile(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
	return path
}

func newParser(t *testing.T, opts Options) (*Parser, *registry.Registry) {
	t.Helper()
	reg, err := registry.Default()
	if err != nil {
		t.Fatalf("default registry: %v", err)
	}
	opts.Location = time.UTC
	p, err := New(reg, opts)
	if err != nil {
		t.Fatalf("new parser: %v", err)
	}
	return p, reg
}

func TestStateQueueOpenThenClose(t *testing.T) {
	testlog.Start(t)
	in, out := t.TempDir(), t.TempDir()
	var notices bytes.Buffer
	renderer := &fakeRenderer{}
	p, reg := newParser(t, Options{OutputDir: out, CallFlow: true, Stdout: &notices, Renderer: renderer})
	path := writeFile(t, in, "pal_state_queue_0.bin", dump(t, reg, state(0x10, 2, 0), state(0x10, 0, 0)))

	res, err := p.ParseFile(context.Background(), path)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if res.Records != 2 || res.Trailing != 0 || res.Kind != KindStateQueue {
		t.Fatalf("unexpected result: %+v", res)
	}

	report, err := os.ReadFile(filepath.Join(out, "pal_state_queue_0.txt"))
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	if !strings.Contains(string(report), "NO ACTIVE STREAMS IN SYSTEM") || !strings.Contains(string(report), "NO ERROR STREAMS") {
		t.Fatalf("unexpected summary:\n%s", report)
	}
	if !strings.Contains(renderer.script, "STREAM_OPENED -> STREAM_CLOSED: LOW_LATENCY(0x10)\n") {
		t.Fatalf("missing close transition:\n%s", renderer.script)
	}
	if strings.Count(renderer.script, " -> ") != 2 {
		t.Fatalf("expected open and close transitions only:\n%s", renderer.script)
	}
	img, err := os.ReadFile(filepath.Join(out, "pal_state_queue_0_CallFlow.png"))
	if err != nil || string(img) != "PNG" {
		t.Fatalf("diagram not written: %v", err)
	}
	if !strings.Contains(notices.String(), "generating file "+filepath.Join(out, "pal_state_queue_0.txt")) {
		t.Fatalf("missing notice: %q", notices.String())
	}
}

func TestStateQueueFailureGoesToErrorLog(t *testing.T) {
	testlog.Start(t)
	in := t.TempDir()
	var stdout bytes.Buffer
	p, reg := newParser(t, Options{Display: true, Stdout: &stdout})
	path := writeFile(t, in, "pal_state_queue.bin", dump(t, reg, state(0x20, 3, 5)))

	if _, err := p.ParseFile(context.Background(), path); err != nil {
		t.Fatalf("parse: %v", err)
	}
	out := stdout.String()
	for _, want := range []string{
		"PAL STATE QUEUE",
		"NO ACTIVE STREAMS IN SYSTEM",
		"PAL STREAMS TRANSITION FAILURES",
		"THIS TRANSITION FAILED! 5",
	} {
		if !strings.Contains(out, want) {
			t.Fatalf("missing %q in:\n%s", want, out)
		}
	}
	if strings.Contains(out, "generating file") {
		t.Fatalf("display mode must not write a report file")
	}
}

func TestStateQueuePartialTailIgnored(t *testing.T) {
	testlog.Start(t)
	in := t.TempDir()
	var stdout bytes.Buffer
	p, reg := newParser(t, Options{Display: true, Stdout: &stdout})
	full := dump(t, reg, state(0x30, 0, 0), state(0x31, 0, 0))
	stride := len(full) / 2
	path := writeFile(t, in, "pal_state_queue.bin", full[:stride+stride/2])

	res, err := p.ParseFile(context.Background(), path)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if res.Records != 1 || res.Trailing != stride/2 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if n := strings.Count(stdout.String(), "stream_handle:"); n != 1 {
		t.Fatalf("expected one record in report, got %d:\n%s", n, stdout.String())
	}
}

func TestRenderFailureDoesNotFailRun(t *testing.T) {
	testlog.Start(t)
	in, out := t.TempDir(), t.TempDir()
	renderer := &fakeRenderer{err: errors.New("service unavailable")}
	p, reg := newParser(t, Options{OutputDir: out, CallFlow: true, Stdout: &bytes.Buffer{}, Renderer: renderer})
	path := writeFile(t, in, "pal_state_queue.bin", dump(t, reg, state(0x10, 2, 0)))

	res, err := p.ParseFile(context.Background(), path)
	if err != nil {
		t.Fatalf("render failure must not fail the run: %v", err)
	}
	if res.RenderErr == nil || res.Diagram != "" {
		t.Fatalf("expected render error, got %+v", res)
	}
	if _, err := os.Stat(filepath.Join(out, "pal_state_queue.txt")); err != nil {
		t.Fatalf("report must still be written: %v", err)
	}
}

func TestRunDirectoryDispatch(t *testing.T) {
	testlog.Start(t)
	in, out := t.TempDir(), t.TempDir()
	p, reg := newParser(t, Options{OutputDir: filepath.Join(out, "nested"), Stdout: &bytes.Buffer{}})
	writeFile(t, in, "pal_state_queue.bin", dump(t, reg, state(0x10, 2, 0)))
	writeFile(t, in, "graph_statbuf.bin", make([]byte, 16))
	writeFile(t, in, "notes.bin", []byte("??"))
	if err := os.Mkdir(filepath.Join(in, "subdir"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	results, err := p.Run(context.Background(), in)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if len(results) != 3 {
		t.Fatalf("expected three files, got %+v", results)
	}
	byName := map[string]FileResult{}
	for _, r := range results {
		byName[filepath.Base(r.Path)] = r
	}
	if !byName["notes.bin"].Skipped {
		t.Fatalf("unknown file must be skipped")
	}
	if got := byName["graph_statbuf.bin"]; got.Kind != "graph_statbuf" || got.Records != 2 {
		t.Fatalf("unexpected graph statbuf result: %+v", got)
	}
	statbuf, err := os.ReadFile(filepath.Join(out, "nested", "graph_statbuf.txt"))
	if err != nil {
		t.Fatalf("read statbuf report: %v", err)
	}
	if !strings.Contains(string(statbuf), "GRAPH_START Failures:....0") {
		t.Fatalf("unexpected statbuf report:\n%s", statbuf)
	}
	if _, err := os.Stat(filepath.Join(out, "nested", "pal_state_queue.txt")); err != nil {
		t.Fatalf("state report missing: %v", err)
	}
}

func TestClassify(t *testing.T) {
	cases := map[string]string{
		"/data/pal_state_queue_1.bin": KindStateQueue,
		"kpi_queue.bin":               "kpi_queue",
		"graph_queue_2.bin":           "graph_queue",
		"graph_statbuf.bin":           "graph_statbuf",
		"spf_reset_queue.bin":         "spf_reset_queue",
		"spf_reset_statbuf.bin":       "spf_reset_statbuf",
	}
	for name, want := range cases {
		got, ok := Classify(name)
		if !ok || got != want {
			t.Fatalf("%s: got %q ok=%v want %q", name, got, ok, want)
		}
	}
	for _, name := range []string{"graph_misc.bin", "random.bin", "/graph_dir/other.bin"} {
		if _, ok := Classify(name); ok {
			t.Fatalf("%s should not classify", name)
		}
	}
}

func TestInputsErrors(t *testing.T) {
	if _, err := Inputs(""); !errors.Is(err, ErrNoInput) {
		t.Fatalf("expected ErrNoInput, got %v", err)
	}
	if _, err := Inputs(filepath.Join(t.TempDir(), "absent.bin")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected not-exist, got %v", err)
	}
}

func TestNewRequiresDomains(t *testing.T) {
	reg, err := registry.Parse([]byte(`
[[layout]]
name = "PAL_STATE_QUEUE"
fields = [{ name = "timestamp", type = "u64" }]
`), "inline")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if _, err := New(reg, Options{}); !errors.Is(err, registry.ErrConfig) {
		t.Fatalf("expected config error, got %v", err)
	}
}
