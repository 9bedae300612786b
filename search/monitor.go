package search

import (
	"log/slog"
	"time"

	"github.com/poiesic/semindex/core"
)

// SearchMonitor provides hooks to observe the search process.
// Implement this interface to track intermediate steps and results during search.
type SearchMonitor interface {
	Start(query string)
	AfterQueryEmbedding(dimensions int)
	AfterScoring(scored int)
	Finish(results []core.SearchResult)
}

// noopMonitor is a no-op implementation of SearchMonitor
type noopMonitor struct{}

var _ SearchMonitor = (*noopMonitor)(nil)

func (n *noopMonitor) Start(_ string)                 {}
func (n *noopMonitor) AfterQueryEmbedding(_ int)      {}
func (n *noopMonitor) AfterScoring(_ int)             {}
func (n *noopMonitor) Finish(_ []core.SearchResult) {}

// LogMonitor logs each search stage with its elapsed time at debug level.
// A LogMonitor observes one search at a time.
type LogMonitor struct {
	logger *slog.Logger
	start  time.Time
	last   time.Time
}

var _ SearchMonitor = (*LogMonitor)(nil)

// NewLogMonitor creates a LogMonitor writing to logger, or slog.Default() if nil.
func NewLogMonitor(logger *slog.Logger) *LogMonitor {
	if logger == nil {
		logger = slog.Default()
	}
	return &LogMonitor{logger: logger.With("component", "search")}
}

func (m *LogMonitor) lap() time.Duration {
	now := time.Now()
	d := now.Sub(m.last)
	m.last = now
	return d
}

// Start records the query and resets the timers.
func (m *LogMonitor) Start(query string) {
	m.start = time.Now()
	m.last = m.start
	m.logger.Debug("search started", "query", query)
}

// AfterQueryEmbedding logs the embedding step.
func (m *LogMonitor) AfterQueryEmbedding(dimensions int) {
	m.logger.Debug("query embedded", "dimensions", dimensions, "elapsed", m.lap())
}

// AfterScoring logs the scoring step.
func (m *LogMonitor) AfterScoring(scored int) {
	m.logger.Debug("entries scored", "count", scored, "elapsed", m.lap())
}

// Finish logs the outcome.
func (m *LogMonitor) Finish(results []core.SearchResult) {
	var top float32
	if len(results) > 0 {
		top = results[0].Score
	}
	m.logger.Debug("search finished", "results", len(results), "top_score", top, "total", time.Since(m.start))
}
