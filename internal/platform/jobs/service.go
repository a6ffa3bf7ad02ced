package jobs

import (
	"context"
	"log/slog"
	"sync"
	"time"
)

const (
	defaultQueueSize = 128
	defaultTimeout   = 30 * time.Second
)

type Service struct {
	queue   chan job
	workers int
	timeout time.Duration
	wg      sync.WaitGroup

	mu        sync.Mutex
	schedules []schedule

	// OnDone is called after every run, if set.
	OnDone func(name string, elapsed time.Duration, err error)
}

type job struct {
	Name string
	Run  func(context.Context) error
}

type schedule struct {
	name     string
	interval time.Duration
	run      func(context.Context) error
}

func New(queueSize, workers int, timeout time.Duration) *Service {
	if queueSize <= 0 {
		queueSize = defaultQueueSize
	}
	if workers <= 0 {
		workers = 1
	}
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Service{
		queue:   make(chan job, queueSize),
		workers: workers,
		timeout: timeout,
	}
}

// Every registers a recurring job. It runs once when Start is called and then
// on every tick. Register before Start.
func (s *Service) Every(name string, interval time.Duration, run func(context.Context) error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.schedules = append(s.schedules, schedule{name: name, interval: interval, run: run})
}

func (s *Service) Start(ctx context.Context) {
	for i := 0; i < s.workers; i++ {
		go s.worker(ctx)
	}
	s.mu.Lock()
	schedules := append([]schedule(nil), s.schedules...)
	s.mu.Unlock()
	for _, sc := range schedules {
		s.Enqueue(sc.name, sc.run)
		if sc.interval > 0 {
			go s.scheduleLoop(ctx, sc)
		}
	}
}

// Enqueue queues run without blocking. A full queue drops the job.
func (s *Service) Enqueue(name string, run func(context.Context) error) bool {
	s.wg.Add(1)
	select {
	case s.queue <- job{Name: name, Run: run}:
		return true
	default:
		s.wg.Done()
		slog.Warn("job queue full", "job", name)
		return false
	}
}

func (s *Service) RunNow(ctx context.Context, name string, run func(context.Context) error) error {
	return s.runJob(ctx, job{Name: name, Run: run})
}

// Wait blocks until every queued job has finished.
func (s *Service) Wait() {
	s.wg.Wait()
}

func (s *Service) worker(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			s.drain()
			return
		case j := <-s.queue:
			if err := s.runJob(ctx, j); err != nil {
				slog.Warn("job run failed", "job", j.Name, "err", err)
			}
			s.wg.Done()
		}
	}
}

func (s *Service) drain() {
	for {
		select {
		case j := <-s.queue:
			slog.Warn("job discarded on shutdown", "job", j.Name)
			s.wg.Done()
		default:
			return
		}
	}
}

func (s *Service) runJob(ctx context.Context, j job) (err error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	started := time.Now()
	defer func() {
		if r := recover(); r != nil {
			slog.Error("job panicked", "job", j.Name, "panic", r)
			err = errPanic
		}
		if s.OnDone != nil {
			s.OnDone(j.Name, time.Since(started), err)
		}
	}()
	return j.Run(ctx)
}

func (s *Service) scheduleLoop(ctx context.Context, sc schedule) {
	ticker := time.NewTicker(sc.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Enqueue(sc.name, sc.run)
		}
	}
}
