package parser

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/danmuck/memlogctl/internal/callflow"
	"github.com/danmuck/memlogctl/internal/dumpers"
	"github.com/danmuck/memlogctl/internal/lifecycle"
	"github.com/danmuck/memlogctl/internal/observability"
	"github.com/danmuck/memlogctl/internal/record"
	"github.com/danmuck/memlogctl/internal/registry"
	"github.com/danmuck/memlogctl/internal/report"
	"github.com/rs/zerolog/log"
)

// KindStateQueue is the PAL state queue dump handled by the state pipeline.
const KindStateQueue = "pal_state_queue"

var ErrNoInput = errors.New("parser: no input")

// Options controls one parse run.
type Options struct {
	OutputDir string
	Display   bool
	CallFlow  bool

	// Stdout receives reports in display mode and the generated-file notices.
	Stdout   io.Writer
	Style    report.Style
	Location *time.Location
	Renderer callflow.Renderer
}

// FileResult describes one processed input file.
type FileResult struct {
	Path     string
	Kind     string
	Records  int
	Trailing int
	Report   string
	Diagram  string
	Skipped  bool

	// RenderErr is set when the diagram could not be produced. It never fails
	// the run.
	RenderErr error
}

// Parser dispatches dump files to the state pipeline or a dumper.
type Parser struct {
	reg     *registry.Registry
	decoder *record.Decoder
	opts    Options
}

// New checks that reg carries the layouts and enum domains the state
// pipeline depends on.
func New(reg *registry.Registry, opts Options) (*Parser, error) {
	if err := reg.Require(record.StreamTypeDomain, lifecycle.StateDomain); err != nil {
		return nil, err
	}
	dec, err := record.NewStateDecoder(reg)
	if err != nil {
		return nil, err
	}
	if opts.OutputDir == "" {
		opts.OutputDir = "parsedLogs"
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Style.Banner == nil || opts.Style.Failure == nil {
		opts.Style = report.PlainStyle()
	}
	if opts.Location == nil {
		opts.Location = time.Local
	}
	if opts.CallFlow && opts.Renderer == nil {
		opts.Renderer = callflow.NewWebSeqRenderer(callflow.WebSeqConfig{})
	}
	return &Parser{reg: reg, decoder: dec, opts: opts}, nil
}

// Classify maps a file name to its dump kind by substring.
func Classify(name string) (string, bool) {
	base := filepath.Base(name)
	has := func(s string) bool { return strings.Contains(base, s) }
	switch {
	case has("pal_state_queue"):
		return KindStateQueue, true
	case has("kpi_queue"):
		return string(dumpers.KindKPI), true
	case has("graph"):
		if has("queue") {
			return string(dumpers.KindGraphQueue), true
		}
		if has("statbuf") {
			return string(dumpers.KindGraphStatbuf), true
		}
	case has("spf_reset"):
		if has("queue") {
			return string(dumpers.KindSPFResetQueue), true
		}
		if has("statbuf") {
			return string(dumpers.KindSPFResetStatbuf), true
		}
	}
	return "", false
}

// Inputs expands path into the files to parse. Directories are read one
// level deep in name order.
func Inputs(path string) ([]string, error) {
	if strings.TrimSpace(path) == "" {
		return nil, ErrNoInput
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("input %s: %w", path, err)
	}
	if !info.IsDir() {
		return []string{path}, nil
	}
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, fmt.Errorf("input dir %s: %w", path, err)
	}
	files := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Type().IsRegular() {
			files = append(files, filepath.Join(path, e.Name()))
		}
	}
	sort.Strings(files)
	return files, nil
}

// Run parses every input under path. The first decode or output failure
// stops the run.
func (p *Parser) Run(ctx context.Context, path string) ([]FileResult, error) {
	files, err := Inputs(path)
	if err != nil {
		return nil, err
	}
	results := make([]FileResult, 0, len(files))
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		res, err := p.ParseFile(ctx, f)
		results = append(results, res)
		if err != nil {
			return results, err
		}
	}
	return results, nil
}

// ParseFile decodes one dump and writes its report.
func (p *Parser) ParseFile(ctx context.Context, path string) (FileResult, error) {
	res := FileResult{Path: path}
	kind, ok := Classify(path)
	if !ok {
		log.Warn().Msgf("parser.Parser.ParseFile skip path=%s reason=unknown_kind", path)
		res.Skipped = true
		return res, nil
	}
	res.Kind = kind

	done := observability.Stage(log.Logger, kind, path)
	err := p.parse(ctx, path, &res)
	done(res.Records, err)
	return res, err
}

func (p *Parser) parse(ctx context.Context, path string, res *FileResult) error {
	buf, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	name := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))

	if !p.opts.Display || (res.Kind == KindStateQueue && p.opts.CallFlow) {
		if err := os.MkdirAll(p.opts.OutputDir, 0o755); err != nil {
			return fmt.Errorf("output dir %s: %w", p.opts.OutputDir, err)
		}
	}

	var events []lifecycle.TransitionEvent
	err = p.withSink(name, res, func(w *report.Writer) error {
		if res.Kind == KindStateQueue {
			var err error
			events, err = p.parseState(buf, w, res)
			return err
		}
		d, ok := dumpers.Lookup(dumpers.Kind(res.Kind))
		if !ok {
			return fmt.Errorf("no dumper for %s", res.Kind)
		}
		n, err := d.Dump(buf, p.reg, w)
		res.Records = n
		observability.RecordDecoded(res.Kind, n)
		return err
	})
	if err != nil {
		return err
	}

	if res.Kind == KindStateQueue && p.opts.CallFlow {
		p.renderDiagram(ctx, name, events, res)
	}
	return nil
}

// withSink runs fn against stdout in display mode or a report file
// otherwise, then prints the generated-file notice.
func (p *Parser) withSink(name string, res *FileResult, fn func(w *report.Writer) error) error {
	if p.opts.Display {
		w := report.NewWriter(p.opts.Stdout, p.reg, report.WithLocation(p.opts.Location), report.WithStyle(p.opts.Style))
		if err := fn(w); err != nil {
			return err
		}
		return w.Err()
	}

	out := filepath.Join(p.opts.OutputDir, name+".txt")
	f, err := os.Create(out)
	if err != nil {
		return fmt.Errorf("create report: %w", err)
	}
	bw := bufio.NewWriter(f)
	w := report.NewWriter(bw, p.reg, report.WithLocation(p.opts.Location))
	runErr := fn(w)
	if runErr == nil {
		runErr = w.Err()
	}
	if runErr == nil {
		runErr = bw.Flush()
	}
	if cerr := f.Close(); runErr == nil && cerr != nil {
		runErr = fmt.Errorf("close report: %w", cerr)
	}
	if runErr != nil {
		return runErr
	}
	res.Report = out
	fmt.Fprintf(p.opts.Stdout, "generating file %s\n", out)
	return nil
}

func (p *Parser) parseState(buf []byte, w *report.Writer, res *FileResult) ([]lifecycle.TransitionEvent, error) {
	tracker := lifecycle.NewTracker(p.reg, lifecycle.WithTransitions(p.opts.CallFlow))
	w.Header("PAL STATE QUEUE")

	var base, acd int
	scan, err := p.decoder.Scan(buf, func(rec record.Record) error {
		w.Record(rec)
		if ev, ok := tracker.Apply(rec); ok {
			observability.RecordTransition(ev.Succeeded)
		}
		switch rec.(type) {
		case record.ACDRecord:
			acd++
		case record.BaseRecord:
			base++
		}
		return w.Err()
	})
	res.Records = scan.Records
	res.Trailing = scan.Trailing
	if err != nil {
		return nil, err
	}

	observability.RecordDecoded("base", base)
	observability.RecordDecoded("acd", acd)
	observability.RecordTrailing(scan.Trailing)

	open, failed := tracker.Open(), tracker.Errors()
	observability.RecordStreams(len(open), len(failed))
	w.Summary(open, failed)
	log.Debug().Msgf("parser.Parser.parseState records=%d open=%d failed=%d trailing=%d",
		scan.Records, len(open), len(failed), scan.Trailing)
	return tracker.Events(), nil
}

func (p *Parser) renderDiagram(ctx context.Context, name string, events []lifecycle.TransitionEvent, res *FileResult) {
	b := callflow.NewBuilder(callflow.DefaultTitle)
	b.AddAll(events)

	out := filepath.Join(p.opts.OutputDir, name+"_CallFlow.png")
	fmt.Fprintf(p.opts.Stdout, "generating callflow: %s\n", out)
	if err := b.RenderFile(ctx, p.opts.Renderer, out); err != nil {
		log.Warn().Err(err).Msgf("parser.Parser.renderDiagram failed path=%s events=%d", out, b.Len())
		observability.RecordRender(false)
		res.RenderErr = err
		return
	}
	observability.RecordRender(true)
	res.Diagram = out
}
