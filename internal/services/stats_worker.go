package services

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

// maxInflightRecordings bounds concurrent recordings; clicks beyond it are
// dropped.
const maxInflightRecordings = 512

// Recorder persists one click.
type Recorder interface {
	RecordClick(ctx context.Context, req ClickRequest) error
}

// StatsService runs click recordings as detached tasks. Their errors are
// observed by the Start loop, never by the request that triggered them.
type StatsService struct {
	recorder Recorder
	logger   *slog.Logger
	timeout  time.Duration
	errs     chan error
	slots    chan struct{}
	inflight sync.WaitGroup
}

func NewStatsService(recorder Recorder, logger *slog.Logger, timeout time.Duration) *StatsService {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &StatsService{
		recorder: recorder,
		logger:   logger,
		timeout:  timeout,
		errs:     make(chan error, 1000),
		slots:    make(chan struct{}, maxInflightRecordings),
	}
}

// Start drains recording errors into the log until ctx is done.
func (s *StatsService) Start(ctx context.Context) {
	s.logger.Info("Stats worker starting")
	for {
		select {
		case err := <-s.errs:
			s.logger.Error("Failed to record click stats", "error", err)
		case <-ctx.Done():
			s.logger.Info("Stats worker stopping")
			return
		}
	}
}

// Track records req in the background and returns immediately. The task
// gets its own deadline so a client hanging up does not cancel it. When
// every slot is busy the click is dropped with a warning.
func (s *StatsService) Track(req ClickRequest) {
	select {
	case s.slots <- struct{}{}:
	default:
		s.logger.Warn("Stats queue full, dropping click", "link_id", req.LinkID)
		return
	}

	s.inflight.Add(1)
	go func() {
		defer s.inflight.Done()
		defer func() { <-s.slots }()

		ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
		defer cancel()

		if err := s.recorder.RecordClick(ctx, req); err != nil {
			s.report(err)
		}
	}()
}

func (s *StatsService) report(err error) {
	select {
	case s.errs <- err:
	default:
		s.logger.Error("Failed to record click stats (error queue full)", "error", err)
	}
}

// Wait blocks until every tracked recording has finished.
func (s *StatsService) Wait() {
	s.inflight.Wait()
}
