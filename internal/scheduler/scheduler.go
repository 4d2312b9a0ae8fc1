package scheduler

import (
	"context"
	"sync"
	"time"

	"github.com/amaumene/reelwatch/internal/controllers"
	"github.com/amaumene/reelwatch/internal/metrics"
	"github.com/amaumene/reelwatch/internal/models"
	"github.com/rs/zerolog"
)

// Status is the coarse state reported to the control surface
type Status string

const (
	StatusStarted        Status = "started"
	StatusAlreadyRunning Status = "already_running"
	StatusStopped        Status = "stopped"
)

const (
	startMessage = "🎬 <b>Indian Movie Monitoring Started!</b>\n\nMonitoring Telugu, Tamil, Hindi and other Indian movie updates across social media platforms..."
	stopMessage  = "⏹️ <b>Movie Monitoring Stopped</b>"
)

// PlatformState describes one loop for the status endpoint
type PlatformState struct {
	Platform  models.Platform `json:"platform"`
	Available bool            `json:"available"`
}

// State is a snapshot of the scheduler
type State struct {
	Running   bool            `json:"running"`
	StartedAt *time.Time      `json:"started_at,omitempty"`
	Platforms []PlatformState `json:"platforms"`
}

// Scheduler starts and stops one polling loop per platform
type Scheduler struct {
	loops         []*Loop
	notifier      controllers.Notifier
	notifyTimeout time.Duration
	metrics       *metrics.Metrics
	logger        zerolog.Logger

	mu        sync.Mutex
	cancel    context.CancelFunc
	startedAt time.Time
	wg        sync.WaitGroup
}

// NewScheduler creates a new scheduler
func NewScheduler(loops []*Loop, notifier controllers.Notifier, notifyTimeout time.Duration, m *metrics.Metrics, logger zerolog.Logger) *Scheduler {
	if notifyTimeout <= 0 {
		notifyTimeout = 10 * time.Second
	}
	return &Scheduler{
		loops:         loops,
		notifier:      notifier,
		notifyTimeout: notifyTimeout,
		metrics:       m,
		logger:        logger.With().Str("component", "scheduler").Logger(),
	}
}

// Start launches every loop. Calling it while running changes nothing.
func (s *Scheduler) Start() Status {
	s.mu.Lock()
	if s.cancel != nil {
		s.mu.Unlock()
		return StatusAlreadyRunning
	}

	ctx, cancel := context.WithCancel(context.Background())
	s.cancel = cancel
	s.startedAt = time.Now().UTC()
	for _, loop := range s.loops {
		s.wg.Add(1)
		go func(l *Loop) {
			defer s.wg.Done()
			s.metrics.LoopsRunning.Inc()
			defer s.metrics.LoopsRunning.Dec()
			l.Run(ctx)
		}(loop)
	}
	s.mu.Unlock()

	s.logger.Info().Int("loops", len(s.loops)).Msg("Monitoring started")
	s.announce(startMessage)
	return StatusStarted
}

// Stop signals every loop to finish. Loops exit at their next checkpoint;
// fetches already in flight complete. Calling it while stopped changes nothing.
func (s *Scheduler) Stop() Status {
	s.mu.Lock()
	if s.cancel == nil {
		s.mu.Unlock()
		return StatusStopped
	}
	s.cancel()
	s.cancel = nil
	s.mu.Unlock()

	s.logger.Info().Msg("Monitoring stopped")
	s.announce(stopMessage)
	return StatusStopped
}

// Wait blocks until every loop has returned
func (s *Scheduler) Wait() {
	s.wg.Wait()
}

// Running reports whether the loops have been started
func (s *Scheduler) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancel != nil
}

// Status returns a snapshot of the scheduler
func (s *Scheduler) Status() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := State{Running: s.cancel != nil, Platforms: make([]PlatformState, 0, len(s.loops))}
	if state.Running {
		started := s.startedAt
		state.StartedAt = &started
	}
	for _, loop := range s.loops {
		state.Platforms = append(state.Platforms, PlatformState{
			Platform:  loop.Platform(),
			Available: loop.fetcher.Available(),
		})
	}
	return state
}

func (s *Scheduler) announce(text string) {
	if !s.notifier.Enabled() {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), s.notifyTimeout)
	defer cancel()
	if err := s.notifier.Send(ctx, models.Notification{Text: text}); err != nil {
		s.logger.Warn().Err(err).Msg("Failed to send monitoring notice")
	}
}
