package graph

import (
	"sort"
	"sync"
)

type TraceEventKind string

const (
	TraceEventChannel  TraceEventKind = "channel"
	TraceEventExposure TraceEventKind = "exposure"
)

// TraceEvent describes one navigator step: a channel query or a completed
// exposure set.
type TraceEvent struct {
	Kind TraceEventKind

	Channel    Channel
	Exposure   string
	SubjectIDs []string
	NodeIDs    []string
}

// Tracer is a sink for traversal events.
type Tracer interface {
	Record(event TraceEvent)
}

// MultiTracer fan-outs trace events to multiple tracers.
type MultiTracer []Tracer

func (m MultiTracer) Record(event TraceEvent) {
	for _, t := range m {
		if t == nil {
			continue
		}
		t.Record(event)
	}
}

func recordChannel(t Tracer, ch Channel, subjects []string, nodes []string) {
	if t == nil {
		return
	}
	t.Record(TraceEvent{Kind: TraceEventChannel, Channel: ch, SubjectIDs: subjects, NodeIDs: nodes})
}

func recordExposure(t Tracer, name string, subject string, nodes []string) {
	if t == nil {
		return
	}
	t.Record(TraceEvent{Kind: TraceEventExposure, Exposure: name, SubjectIDs: []string{subject}, NodeIDs: nodes})
}

// TraversalTrace collects the nodes visited per channel during one request.
//
// TraversalTrace is safe for concurrent use.
type TraversalTrace struct {
	mu sync.Mutex

	queries   map[Channel]int
	visited   map[Channel]map[string]struct{}
	exposures map[string]int
}

type ChannelSnapshot struct {
	Channel Channel
	Queries int
	NodeIDs []string
}

type TraversalSnapshot struct {
	Channels  []ChannelSnapshot
	Exposures map[string]int
}

func NewTraversalTrace() *TraversalTrace {
	return &TraversalTrace{
		queries:   make(map[Channel]int),
		visited:   make(map[Channel]map[string]struct{}),
		exposures: make(map[string]int),
	}
}

func (t *TraversalTrace) Record(event TraceEvent) {
	if t == nil {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	switch event.Kind {
	case TraceEventChannel:
		t.queries[event.Channel]++
		seen, ok := t.visited[event.Channel]
		if !ok {
			seen = make(map[string]struct{})
			t.visited[event.Channel] = seen
		}
		for _, id := range event.NodeIDs {
			if id == "" {
				continue
			}
			seen[id] = struct{}{}
		}
	case TraceEventExposure:
		t.exposures[event.Exposure] += len(event.NodeIDs)
	default:
		return
	}
}

func (t *TraversalTrace) Snapshot() TraversalSnapshot {
	if t == nil {
		return TraversalSnapshot{}
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	s := TraversalSnapshot{
		Channels:  make([]ChannelSnapshot, 0, len(t.queries)),
		Exposures: make(map[string]int, len(t.exposures)),
	}
	for ch, n := range t.queries {
		cs := ChannelSnapshot{Channel: ch, Queries: n, NodeIDs: make([]string, 0, len(t.visited[ch]))}
		for id := range t.visited[ch] {
			cs.NodeIDs = append(cs.NodeIDs, id)
		}
		sort.Strings(cs.NodeIDs)
		s.Channels = append(s.Channels, cs)
	}
	sort.Slice(s.Channels, func(i, j int) bool { return s.Channels[i].Channel < s.Channels[j].Channel })
	for k, v := range t.exposures {
		s.Exposures[k] = v
	}
	return s
}
