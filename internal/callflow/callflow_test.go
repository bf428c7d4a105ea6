package callflow

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/danmuck/memlogctl/internal/lifecycle"
	"github.com/danmuck/memlogctl/internal/testutil/testlog"
)

func TestBuilderScript(t *testing.T) {
	testlog.Start(t)
	b := NewBuilder("")
	b.AddAll([]lifecycle.TransitionEvent{
		{From: "STREAM_CLOSED", To: "STREAM_OPENED", StreamType: "LOW_LATENCY", Handle: 0x10, Succeeded: true},
		{From: "STREAM_OPENED", To: "STREAM_STARTED", StreamType: "LOW_LATENCY", Handle: 0x10, Succeeded: false},
	})

	want := "title Pal State Sequence\n\n" +
		"STREAM_CLOSED -> STREAM_OPENED: LOW_LATENCY(0x10)\n" +
		"note over STREAM_OPENED,STREAM_STARTED\nLOW_LATENCY(0x10)\nTransition to STREAM_STARTED FAILED\nend note\n"
	if got := b.Script(); got != want {
		t.Fatalf("unexpected script:\n%s\nwant:\n%s", got, want)
	}
	if b.Len() != 2 {
		t.Fatalf("unexpected event count: %d", b.Len())
	}
}

func TestWebSeqRendererFetchesImage(t *testing.T) {
	testlog.Start(t)
	var gotMessage, gotStyle string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.Method == http.MethodGet && r.URL.Query().Get("png") == "abc123":
			_, _ = w.Write([]byte("PNGDATA"))
		case r.Method == http.MethodPost:
			if err := r.ParseForm(); err != nil {
				t.Errorf("parse form: %v", err)
			}
			gotMessage = r.PostForm.Get("message")
			gotStyle = r.PostForm.Get("style")
			w.Header().Set("Content-Type", "application/json")
			_, _ = w.Write([]byte(`{"img": "?png=abc123", "errors": []}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	b := NewBuilder("")
	b.Add(lifecycle.TransitionEvent{From: "STREAM_CLOSED", To: "STREAM_OPENED", StreamType: "VOIP", Handle: 1, Succeeded: true})

	path := filepath.Join(t.TempDir(), "x_CallFlow.png")
	r := NewWebSeqRenderer(WebSeqConfig{Endpoint: srv.URL})
	if err := b.RenderFile(context.Background(), r, path); err != nil {
		t.Fatalf("render: %v", err)
	}
	img, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read image: %v", err)
	}
	if string(img) != "PNGDATA" {
		t.Fatalf("unexpected image: %q", img)
	}
	if gotMessage != b.Script() || gotStyle != DefaultStyle {
		t.Fatalf("unexpected form: message=%q style=%q", gotMessage, gotStyle)
	}
}

func TestWebSeqRendererServiceErrors(t *testing.T) {
	testlog.Start(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"img": "", "errors": ["Line 3: syntax error"]}`))
	}))
	defer srv.Close()

	r := NewWebSeqRenderer(WebSeqConfig{Endpoint: srv.URL})
	_, err := r.Render(context.Background(), "title x\n")
	if !errors.Is(err, ErrRenderFailed) {
		t.Fatalf("expected ErrRenderFailed, got %v", err)
	}
}

func TestWebSeqRendererStatusError(t *testing.T) {
	testlog.Start(t)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	path := filepath.Join(t.TempDir(), "x_CallFlow.png")
	err := NewBuilder("").RenderFile(context.Background(), NewWebSeqRenderer(WebSeqConfig{Endpoint: srv.URL}), path)
	if !errors.Is(err, ErrRenderFailed) {
		t.Fatalf("expected ErrRenderFailed, got %v", err)
	}
	if _, statErr := os.Stat(path); !os.IsNotExist(statErr) {
		t.Fatalf("no image should be written on failure")
	}
}
