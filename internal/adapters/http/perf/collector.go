// Package perf keeps a bounded in-memory record of request, query and upload timings
// for the admin performance page.
package perf

import (
	"math"
	"sort"
	"sync"
	"sync/atomic"
	"time"
)

// DefaultRingSize is the default capacity of the ring buffer.
const DefaultRingSize = 10000

// EntryKind distinguishes what was timed.
type EntryKind uint8

const (
	KindRequest EntryKind = iota
	KindQuery
	KindUpload
)

// String names the kind for templates and logs.
func (k EntryKind) String() string {
	switch k {
	case KindRequest:
		return "request"
	case KindQuery:
		return "query"
	case KindUpload:
		return "upload"
	default:
		return "unknown"
	}
}

// Entry is a single timing record stored in the ring buffer.
type Entry struct {
	Kind       EntryKind
	Path       string // route pattern, statement label or "PUT <host>"
	StatusCode int    // HTTP status for requests and uploads, 0 for queries
	Failed     bool
	DurationMs float64
	Timestamp  time.Time
}

func (e Entry) failed() bool {
	return e.Failed || e.StatusCode >= 500
}

// Collector is a fixed-size ring buffer for timing entries.
// When full, the oldest entries are overwritten. Aggregation happens on read.
type Collector struct {
	mu      sync.Mutex
	entries []Entry
	pos     int
	count   atomic.Int64
}

// NewCollector creates a collector with the given ring buffer capacity.
// A non-positive size uses DefaultRingSize.
func NewCollector(size int) *Collector {
	if size <= 0 {
		size = DefaultRingSize
	}
	return &Collector{entries: make([]Entry, size)}
}

// Record appends an entry, overwriting the oldest when full.
func (c *Collector) Record(e Entry) {
	c.mu.Lock()
	c.entries[c.pos] = e
	c.pos = (c.pos + 1) % len(c.entries)
	c.mu.Unlock()
	c.count.Add(1)
}

// TotalRecorded returns the number of entries ever recorded.
func (c *Collector) TotalRecorded() int64 {
	return c.count.Load()
}

// PathStat aggregates timing for a single path, statement or upload folder.
type PathStat struct {
	Path    string
	AvgMs   float64
	MaxMs   float64
	Count   int
	Failed  int
	TotalMs float64
}

// Snapshot is the aggregate of the buffered entries since a point in time.
type Snapshot struct {
	TotalRecorded  int64
	Requests       int
	RequestP50Ms   float64
	RequestP95Ms   float64
	RequestP99Ms   float64
	UploadP95Ms    float64
	FailedRequests int
	FailedQueries  int
	FailedUploads  int
	SlowestPaths   []PathStat
	SlowestQueries []PathStat
	SlowestUploads []PathStat
}

// series accumulates the entries of one kind.
type series struct {
	durations []float64
	byPath    map[string]*PathStat
	failed    int
}

func (s *series) add(e Entry) {
	if s.byPath == nil {
		s.byPath = map[string]*PathStat{}
	}
	s.durations = append(s.durations, e.DurationMs)
	st, ok := s.byPath[e.Path]
	if !ok {
		st = &PathStat{Path: e.Path}
		s.byPath[e.Path] = st
	}
	st.Count++
	st.TotalMs += e.DurationMs
	st.MaxMs = math.Max(st.MaxMs, e.DurationMs)
	if e.failed() {
		st.Failed++
		s.failed++
	}
}

func (s *series) top(n int) []PathStat {
	list := make([]PathStat, 0, len(s.byPath))
	for _, st := range s.byPath {
		st.AvgMs = st.TotalMs / float64(st.Count)
		list = append(list, *st)
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].AvgMs == list[j].AvgMs {
			return list[i].Path < list[j].Path
		}
		return list[i].AvgMs > list[j].AvgMs
	})
	if len(list) > n {
		list = list[:n]
	}
	return list
}

func (s *series) percentile(p float64) float64 {
	if len(s.durations) == 0 {
		return 0
	}
	sort.Float64s(s.durations)
	return percentile(s.durations, p)
}

// Snapshot aggregates entries recorded at or after since, keeping topN per list.
// It sorts, so call it on page load only.
func (c *Collector) Snapshot(since time.Time, topN int) Snapshot {
	c.mu.Lock()
	buf := make([]Entry, len(c.entries))
	copy(buf, c.entries)
	c.mu.Unlock()

	var requests, queries, uploads series
	for _, e := range buf {
		if e.Timestamp.IsZero() || e.Timestamp.Before(since) {
			continue
		}
		switch e.Kind {
		case KindRequest:
			requests.add(e)
		case KindQuery:
			queries.add(e)
		case KindUpload:
			uploads.add(e)
		}
	}

	return Snapshot{
		TotalRecorded:  c.TotalRecorded(),
		Requests:       len(requests.durations),
		RequestP50Ms:   requests.percentile(50),
		RequestP95Ms:   requests.percentile(95),
		RequestP99Ms:   requests.percentile(99),
		UploadP95Ms:    uploads.percentile(95),
		FailedRequests: requests.failed,
		FailedQueries:  queries.failed,
		FailedUploads:  uploads.failed,
		SlowestPaths:   requests.top(topN),
		SlowestQueries: queries.top(topN),
		SlowestUploads: uploads.top(topN),
	}
}

// percentile interpolates the p-th percentile of a sorted slice.
func percentile(sorted []float64, p float64) float64 {
	idx := (p / 100) * float64(len(sorted)-1)
	lower := int(math.Floor(idx))
	upper := int(math.Ceil(idx))
	if lower == upper || upper >= len(sorted) {
		return sorted[lower]
	}
	frac := idx - float64(lower)
	return sorted[lower]*(1-frac) + sorted[upper]*frac
}
