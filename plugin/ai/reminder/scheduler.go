package reminder

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/hrygo/armi/internal/observability"
)

// Scheduler periodically delivers due notifications.
type Scheduler struct {
	service       *Service
	interval      time.Duration
	running       bool
	stopCh        chan struct{}
	wg            sync.WaitGroup
	mu            sync.Mutex
	logger        *slog.Logger
	metrics       *observability.Metrics
	stats         Stats
	processedChan chan int
}

// SchedulerConfig holds configuration for the scheduler.
type SchedulerConfig struct {
	Interval time.Duration // How often to check for due notifications
}

// Stats holds delivery counters.
type Stats struct {
	TotalSent   int64     `json:"totalSent"`
	TotalFailed int64     `json:"totalFailed"`
	LastRunAt   time.Time `json:"lastRunAt"`
}

// DefaultSchedulerConfig returns default scheduler configuration.
func DefaultSchedulerConfig() SchedulerConfig {
	return SchedulerConfig{Interval: 30 * time.Second}
}

// NewScheduler creates a scheduler over service.
func NewScheduler(service *Service, config SchedulerConfig) *Scheduler {
	if config.Interval <= 0 {
		config.Interval = DefaultSchedulerConfig().Interval
	}

	return &Scheduler{
		service:  service,
		interval: config.Interval,
		stopCh:   make(chan struct{}),
		logger:   slog.Default(),
		metrics:  observability.GlobalMetrics(),
	}
}

// SetLogger sets a custom logger.
func (s *Scheduler) SetLogger(logger *slog.Logger) {
	if logger != nil {
		s.logger = logger
	}
}

// SetMetrics replaces the metrics collector.
func (s *Scheduler) SetMetrics(metrics *observability.Metrics) {
	if metrics != nil {
		s.metrics = metrics
	}
}

// Start begins the scheduler loop. Starting twice is a no-op.
func (s *Scheduler) Start(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return nil
	}
	s.running = true
	s.stopCh = make(chan struct{})
	s.mu.Unlock()

	s.wg.Add(1)
	go s.run(ctx)

	s.logger.Info("notification scheduler started", "interval", s.interval)
	return nil
}

// Stop stops the loop and waits for the current cycle.
func (s *Scheduler) Stop() {
	s.mu.Lock()
	if !s.running {
		s.mu.Unlock()
		return
	}
	s.running = false
	close(s.stopCh)
	s.mu.Unlock()

	s.wg.Wait()
	s.logger.Info("notification scheduler stopped")
}

// Run starts the scheduler and blocks until ctx is done.
func (s *Scheduler) Run(ctx context.Context) error {
	if err := s.Start(ctx); err != nil {
		return err
	}
	<-ctx.Done()
	s.Stop()
	s.wg.Wait()
	return nil
}

// IsRunning returns whether the scheduler is running.
func (s *Scheduler) IsRunning() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.running
}

// Stats returns delivery counters.
func (s *Scheduler) Stats() Stats {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stats
}

// EnableTestMode returns a channel receiving the sent count of every cycle.
func (s *Scheduler) EnableTestMode() <-chan int {
	s.processedChan = make(chan int, 100)
	return s.processedChan
}

func (s *Scheduler) run(ctx context.Context) {
	defer s.wg.Done()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.processCycle(ctx)

	for {
		select {
		case <-ctx.Done():
			s.mu.Lock()
			s.running = false
			s.mu.Unlock()
			return
		case <-s.stopCh:
			return
		case <-ticker.C:
			s.processCycle(ctx)
		}
	}
}

func (s *Scheduler) processCycle(ctx context.Context) {
	sent, _, err := s.RunOnce(ctx)
	if err != nil {
		s.logger.Error("failed to process due notifications", "error", err)
		return
	}

	if s.processedChan != nil {
		select {
		case s.processedChan <- sent:
		default:
		}
	}
}

// RunOnce runs one delivery cycle.
func (s *Scheduler) RunOnce(ctx context.Context) (sent int, failed int, err error) {
	sent, failed, err = s.service.ProcessDue(ctx)
	if err != nil {
		return 0, 0, err
	}

	s.mu.Lock()
	s.stats.TotalSent += int64(sent)
	s.stats.TotalFailed += int64(failed)
	s.stats.LastRunAt = time.Now()
	s.mu.Unlock()

	for i := 0; i < failed; i++ {
		s.metrics.RecordNotificationFailure()
	}
	if sent > 0 || failed > 0 {
		s.logger.Info("processed due notifications", "sent", sent, "failed", failed)
	}
	return sent, failed, nil
}
