package main

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/danmuck/memlogctl/internal/record"
	"github.com/danmuck/memlogctl/internal/registry"
	"github.com/danmuck/memlogctl/internal/testutil/testlog"
)

func TestRunWritesReportAndMetrics(t *testing.T) {
	testlog.Start(t)
	reg, err := registry.Default()
	if err != nil {
		t.Fatalf("default registry: %v", err)
	}
	dec, err := record.NewStateDecoder(reg)
	if err != nil {
		t.Fatalf("decoder: %v", err)
	}
	data, err := dec.Encode(record.BaseRecord{StateRecord: record.StateRecord{Handle: 0x44, QueueState: 2, StreamType: 4, Direction: 2}})
	if err != nil {
		t.Fatalf("encode: %v", err)
	}

	dir := t.TempDir()
	in := filepath.Join(dir, "pal_state_queue.bin")
	if err := os.WriteFile(in, data, 0o600); err != nil {
		t.Fatalf("write input: %v", err)
	}
	stdout, err := os.Create(filepath.Join(dir, "stdout"))
	if err != nil {
		t.Fatalf("stdout: %v", err)
	}
	defer stdout.Close()

	out := filepath.Join(dir, "parsed")
	metrics := filepath.Join(dir, "memlog.prom")
	args := []string{"-f", in, "-out", out, "-metrics-file", metrics}
	if err := run(context.Background(), args, stdout, io.Discard); err != nil {
		t.Fatalf("run: %v", err)
	}

	report, err := os.ReadFile(filepath.Join(out, "pal_state_queue.txt"))
	if err != nil {
		t.Fatalf("read report: %v", err)
	}
	if !strings.Contains(string(report), "PAL STREAMS STILL ACTIVE") || !strings.Contains(string(report), "stream_type:......VOIP") {
		t.Fatalf("unexpected report:\n%s", report)
	}
	prom, err := os.ReadFile(metrics)
	if err != nil {
		t.Fatalf("read metrics: %v", err)
	}
	if !strings.Contains(string(prom), "memlog_parser_files_total") {
		t.Fatalf("metrics file missing parser counter:\n%s", prom)
	}
}

func TestRunMissingInputFails(t *testing.T) {
	testlog.Start(t)
	args := []string{"-f", filepath.Join(t.TempDir(), "absent_pal_state_queue.bin")}
	if err := run(context.Background(), args, os.Stdout, io.Discard); err == nil {
		t.Fatalf("expected missing input error")
	}
}
