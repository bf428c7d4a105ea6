// Package dumpers owns the single-format memory logger dumps: KPI timing,
// graph and SPF reset queues and their statistics buffers.
package dumpers

import (
	"fmt"
	"sort"

	"github.com/danmuck/memlogctl/internal/record"
	"github.com/danmuck/memlogctl/internal/registry"
	"github.com/danmuck/memlogctl/internal/report"
)

// Kind identifies one dump format.
type Kind string

const (
	KindKPI             Kind = "kpi_queue"
	KindGraphQueue      Kind = "graph_queue"
	KindGraphStatbuf    Kind = "graph_statbuf"
	KindSPFResetQueue   Kind = "spf_reset_queue"
	KindSPFResetStatbuf Kind = "spf_reset_statbuf"
)

const (
	GraphStateDomain = "graph_state"
	ExitCodeDomain   = "exit_codes"
	SPFResetDomain   = "spf_reset_state"
)

// Dumper writes one dump format to a report writer and returns the number
// of records it consumed.
type Dumper struct {
	Kind   Kind
	Layout string
	Title  string
	// Values is the minimum number of value fields the layout must carry.
	Values int
	run    func(l registry.Layout, buf []byte, reg *registry.Registry, w *report.Writer) (int, error)
}

// Dump decodes buf with the dumper's layout and writes the section.
func (d Dumper) Dump(buf []byte, reg *registry.Registry, w *report.Writer) (int, error) {
	l, err := reg.Layout(d.Layout)
	if err != nil {
		return 0, err
	}
	if n := l.ValueCount(); n < d.Values {
		return 0, fmt.Errorf("%w: %s has %d value fields, need %d", record.ErrLayoutShape, l.Name, n, d.Values)
	}
	w.Header(d.Title)
	n, err := d.run(l, buf, reg, w)
	if err != nil {
		return n, err
	}
	return n, w.Err()
}

var dumpers = map[Kind]Dumper{
	KindKPI:             {Kind: KindKPI, Layout: "KPI_QUEUE", Title: "KPI QUEUE-STATS", Values: 4, run: dumpKPI},
	KindGraphQueue:      {Kind: KindGraphQueue, Layout: "GRAPH_QUEUE", Title: "GRAPH-QUEUE-STATS", Values: 4, run: dumpGraphQueue},
	KindGraphStatbuf:    {Kind: KindGraphStatbuf, Layout: "GRAPH_STATBUF", Title: "GRAPH-STATBUF-STATS", Values: 1, run: dumpGraphStatbuf},
	KindSPFResetQueue:   {Kind: KindSPFResetQueue, Layout: "SPF_RESET_QUEUE", Title: "SPF-RESET-QUEUE-STATS", Values: 2, run: dumpSPFResetQueue},
	KindSPFResetStatbuf: {Kind: KindSPFResetStatbuf, Layout: "SPF_RESET_STATBUF", Title: "SPF-RESET-STATBUF-STATS", Values: 1, run: dumpSPFResetStatbuf},
}

// Lookup returns the dumper for kind.
func Lookup(kind Kind) (Dumper, bool) {
	d, ok := dumpers[kind]
	return d, ok
}

// Kinds lists supported kinds in sorted order.
func Kinds() []Kind {
	out := make([]Kind, 0, len(dumpers))
	for k := range dumpers {
		out = append(out, k)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

type kpiStat struct {
	name    string
	enter   uint64
	entered bool
	samples []int64
}

// dumpKPI aggregates enter/exit pairs per function. The first entry seen for
// a function only opens its first interval.
func dumpKPI(l registry.Layout, buf []byte, _ *registry.Registry, w *report.Writer) (int, error) {
	stats := make(map[string]*kpiStat)
	order := make([]string, 0)
	n, err := record.Each(buf, l, func(_ int, v []record.Value) error {
		ts, name, isEnter := v[0].Uint(), v[2].Text, v[3].Bool()
		st, ok := stats[name]
		if !ok {
			stats[name] = &kpiStat{name: name, enter: ts, entered: true}
			order = append(order, name)
			return nil
		}
		if isEnter {
			st.enter = ts
			st.entered = true
		} else if st.entered {
			// signed so an exit logged before its enter stays negative
			st.samples = append(st.samples, int64(ts)-int64(st.enter))
			st.entered = false
		}
		return nil
	})
	if err != nil {
		return n, err
	}

	w.Rule()
	for _, name := range order {
		st := stats[name]
		w.Rule()
		w.Printf("%s", st.name)
		w.Printf("\tnumber of occurences %d ", len(st.samples))
		if len(st.samples) > 0 {
			w.Printf("\taverage time in milliseconds  %s ", formatAverage(st.samples))
		}
	}
	return n, nil
}

func formatAverage(samples []int64) string {
	var sum float64
	for _, s := range samples {
		sum += float64(s)
	}
	return fmt.Sprintf("%g", sum/float64(len(samples)))
}

func dumpGraphQueue(l registry.Layout, buf []byte, reg *registry.Registry, w *report.Writer) (int, error) {
	return record.Each(buf, l, func(_ int, v []record.Value) error {
		w.Rule()
		w.Printf("Timestamp:....%s", w.Timestamp(v[0].Uint()))
		w.Printf("State:........%s", reg.ResolveEnum(GraphStateDomain, v[1].Int()))
		// results are logged as negative errno values
		w.Printf("Result:.......%s", reg.ResolveEnum(ExitCodeDomain, -int64(int32(v[2].Int()))))
		w.Printf("Graph Handle:%#x", v[3].Uint())
		w.Rule()
		return nil
	})
}

func dumpGraphStatbuf(l registry.Layout, buf []byte, reg *registry.Registry, w *report.Writer) (int, error) {
	return record.Each(buf, l, func(idx int, v []record.Value) error {
		w.Printf("%s Failures:....%d", reg.ResolveEnum(GraphStateDomain, int64(idx)), v[0].Uint())
		return nil
	})
}

func dumpSPFResetQueue(l registry.Layout, buf []byte, reg *registry.Registry, w *report.Writer) (int, error) {
	return record.Each(buf, l, func(_ int, v []record.Value) error {
		w.Rule()
		w.Printf("Timestamp:....%s", w.Timestamp(v[0].Uint()))
		w.Printf("Result:.......%s", reg.ResolveEnum(SPFResetDomain, v[1].Int()))
		w.Rule()
		return nil
	})
}

func dumpSPFResetStatbuf(l registry.Layout, buf []byte, reg *registry.Registry, w *report.Writer) (int, error) {
	return record.Each(buf, l, func(idx int, v []record.Value) error {
		w.Printf("SPF Reset %s Instances:....%d", reg.ResolveEnum(SPFResetDomain, int64(idx)), v[0].Uint())
		return nil
	})
}
