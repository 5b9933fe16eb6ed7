package logger

import (
	"reflect"
	"sync"
	"testing"
)

type recorded struct {
	level   string
	message string
	keyvals []any
}

type recordingLogger struct {
	entries []recorded
}

func (r *recordingLogger) add(level, msg string, kv []any) {
	r.entries = append(r.entries, recorded{level, msg, kv})
}

func (r *recordingLogger) Log(m string, kv ...any)   { r.add("log", m, kv) }
func (r *recordingLogger) Debug(m string, kv ...any) { r.add("debug", m, kv) }
func (r *recordingLogger) Info(m string, kv ...any)  { r.add("info", m, kv) }
func (r *recordingLogger) Warn(m string, kv ...any)  { r.add("warn", m, kv) }
func (r *recordingLogger) Error(m string, kv ...any) { r.add("error", m, kv) }
func (r *recordingLogger) Fatal(m string, kv ...any) { r.add("fatal", m, kv) }

func TestDispatchToAllInstances(t *testing.T) {
	a, b := &recordingLogger{}, &recordingLogger{}
	Init(a, b)
	t.Cleanup(func() { current.Store(nil) })

	Info("[Catalog] Created", "kind", "work")
	Log("plain", "id", "x")

	for _, r := range []*recordingLogger{a, b} {
		want := []recorded{
			{"info", "[Catalog] Created", []any{"kind", "work"}},
			{"log", "plain", []any{"id", "x"}},
		}
		if !reflect.DeepEqual(r.entries, want) {
			t.Fatalf("expected %v, got %v", want, r.entries)
		}
	}
}

func TestUninitializedIsNoop(t *testing.T) {
	current.Store(nil)
	Debug("dropped")
	Error("dropped", "err", "x")
}

type countingLogger struct {
	mu sync.Mutex
	n  int
}

func (c *countingLogger) inc() {
	c.mu.Lock()
	c.n++
	c.mu.Unlock()
}

func (c *countingLogger) Log(string, ...any)   { c.inc() }
func (c *countingLogger) Debug(string, ...any) { c.inc() }
func (c *countingLogger) Info(string, ...any)  { c.inc() }
func (c *countingLogger) Warn(string, ...any)  { c.inc() }
func (c *countingLogger) Error(string, ...any) { c.inc() }
func (c *countingLogger) Fatal(string, ...any) { c.inc() }

func TestInitWhileLogging(t *testing.T) {
	first, second := &countingLogger{}, &countingLogger{}
	Init(first)
	t.Cleanup(func() { current.Store(nil) })

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				Warn("[Worker] busy", "n", j)
			}
		}()
	}
	Init(second)
	wg.Wait()

	if got := first.n + second.n; got != 800 {
		t.Fatalf("expected 800 entries, got %d", got)
	}
	Info("after")
	if second.n == 0 {
		t.Fatalf("expected the second backend to receive entries")
	}
}
