package application

import (
	"context"
	"sync"
	"time"

	"github.com/dfryer1193/folio/blog/domain"
	"github.com/rs/zerolog/log"
)

// Monitor checks the remote store on an interval and reports connectivity to the coordinator.
type Monitor struct {
	remote   domain.RemoteStore
	coord    *SyncCoordinator
	interval time.Duration
	timeout  time.Duration

	ctx    context.Context
	cancel context.CancelFunc
	wg     *sync.WaitGroup
}

func NewMonitor(remote domain.RemoteStore, coord *SyncCoordinator, interval, timeout time.Duration) *Monitor {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Monitor{
		remote:   remote,
		coord:    coord,
		interval: interval,
		timeout:  timeout,
		ctx:      ctx,
		cancel:   cancel,
		wg:       &sync.WaitGroup{},
	}
}

// Start checks once immediately and then on every tick until Close.
// Without a remote there is nothing to watch.
func (m *Monitor) Start() {
	if m.remote == nil || m.interval <= 0 {
		return
	}

	m.wg.Add(1)
	go func() {
		defer m.wg.Done()

		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()

		m.Check(m.ctx)
		for {
			select {
			case <-m.ctx.Done():
				return
			case <-ticker.C:
				m.Check(m.ctx)
			}
		}
	}()
}

// Check pings the remote once and records the result. It reports whether the remote answered.
func (m *Monitor) Check(ctx context.Context) bool {
	if m.remote == nil {
		return false
	}

	checkCtx, cancel := context.WithTimeout(ctx, m.timeout)
	err := m.remote.Ping(checkCtx)
	cancel()

	if ctx.Err() != nil {
		return false
	}

	wasOnline := m.coord.Online()
	online := err == nil
	if wasOnline && !online {
		log.Warn().Err(err).Msg("Remote store unreachable, working offline")
	}

	m.coord.SetOnline(ctx, online)
	return online
}

// Close stops the check loop and waits for it to exit
func (m *Monitor) Close() error {
	m.cancel()
	m.wg.Wait()

	return nil
}
