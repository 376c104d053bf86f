package telemetry

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/i474232898/station-telemetry-monitor/internal/metrics"
)

// Outcome describes how a cycle ended.
type Outcome string

const (
	OutcomeWritten Outcome = "written"
	OutcomeEmpty   Outcome = "empty"
	OutcomeFailed  Outcome = "failed"
)

// CycleResult summarizes one poll cycle.
type CycleResult struct {
	CycleID       string
	PolledAt      time.Time
	Stations      int
	Outcome       Outcome
	Mode          WriteMode
	SchemaChanged bool
	Row           AggregatedRow
}

// Service runs the fetch, extract, aggregate and persist pipeline.
// It owns the current header and the last poll time across cycles.
type Service struct {
	source  Source
	catalog Catalog
	writer  TableWriter
	tracker *SchemaTracker
	archive Archive

	logger  *zap.SugaredLogger
	metrics *metrics.Collector
	now     func() time.Time

	mu       sync.RWMutex
	lastPoll time.Time
}

// Option customizes a Service.
type Option func(*Service)

// WithArchive mirrors every persisted row into a.
func WithArchive(a Archive) Option {
	return func(s *Service) { s.archive = a }
}

// WithClock overrides the wall clock used for poll timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// NewService creates a new Service.
func NewService(
	source Source,
	catalog Catalog,
	writer TableWriter,
	tracker *SchemaTracker,
	logger *zap.SugaredLogger,
	collector *metrics.Collector,
	opts ...Option,
) *Service {
	s := &Service{
		source:  source,
		catalog: catalog,
		writer:  writer,
		tracker: tracker,
		logger:  logger,
		metrics: collector,
		now:     time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// LastPoll returns the wall-clock time of the last cycle that reached the source.
func (s *Service) LastPoll() time.Time {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.lastPoll
}

// CurrentHeader returns the header of the persisted table, nil if none yet.
func (s *Service) CurrentHeader() []string {
	return s.tracker.Current()
}

// RunCycle performs one poll. An empty catalog match is not an error.
func (s *Service) RunCycle(ctx context.Context) (CycleResult, error) {
	start := time.Now()
	res := CycleResult{
		CycleID:  uuid.NewString(),
		PolledAt: s.now(),
	}
	log := s.logger.With("cycle_id", res.CycleID)

	err := s.runCycle(ctx, log, &res)
	if err != nil {
		res.Outcome = OutcomeFailed
		s.metrics.RecordCycleError(ErrorType(err))
	}
	s.metrics.RecordCycle(string(res.Outcome), time.Since(start))
	return res, err
}

func (s *Service) runCycle(ctx context.Context, log *zap.SugaredLogger, res *CycleResult) error {
	log.Infow("polling telemetry source",
		"source", s.source.Name(),
		"polled_at", res.PolledAt.Format(TimestampLayout),
	)

	snap, err := s.source.Fetch(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.lastPoll = res.PolledAt
	s.mu.Unlock()

	stations := Extract(snap, s.catalog, res.PolledAt)
	res.Stations = len(stations)
	s.metrics.StationsReporting.Set(float64(len(stations)))
	for name, ss := range stations {
		log.Debugw("station data",
			"station", name,
			"updated_at", ss.Timestamp.Format(TimestampLayout),
			"readings", len(ss.Readings),
		)
	}

	row, ok := Aggregate(stations, s.catalog.Stations(), res.PolledAt)
	if !ok {
		log.Infow("no data for the selected stations; skipping cycle", "stations", len(stations))
		res.Outcome = OutcomeEmpty
		return nil
	}

	header := row.Header()
	mode, changed := s.tracker.Decide(header)
	if err := s.writer.Write(mode, header, row.Record()); err != nil {
		return fmt.Errorf("%w: %w", ErrPersistence, err)
	}
	s.tracker.Commit(header)

	res.Outcome = OutcomeWritten
	res.Mode = mode
	res.SchemaChanged = changed
	res.Row = row

	s.metrics.RowsWritten.Inc()
	s.metrics.LastSuccess.Set(float64(res.PolledAt.Unix()))
	if changed {
		s.metrics.SchemaChanges.Inc()
		log.Warnw("header changed; table restarted", "columns", len(header))
	}
	log.Infow("row persisted", "mode", mode.String(), "columns", len(header))

	if s.archive != nil {
		if err := s.archive.Record(ctx, res.CycleID, row); err != nil {
			s.metrics.RecordCycleError("archive")
			log.Errorw("archive write failed", "error", err)
		}
	}

	return nil
}
