package statsflush

import (
	"sync"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/LarsBehrendt/SocialPulse/app/repository"
	"github.com/LarsBehrendt/SocialPulse/internal/pkg/metrics/counter"
)

const defaultFlushInterval = 5 * time.Minute

// Manager periodically drains the Redis message counters into the
// message_stats table.
type Manager struct {
	stats       repository.StatsRepository
	interval    time.Duration
	flushTicker *time.Ticker
	stopCh      chan struct{}
	wg          sync.WaitGroup
	mu          sync.Mutex
	running     bool
}

func NewManager(stats repository.StatsRepository, interval time.Duration) *Manager {
	if interval <= 0 {
		interval = defaultFlushInterval
	}
	return &Manager{
		stats:    stats,
		interval: interval,
		stopCh:   make(chan struct{}),
	}
}

// Start starts the background flush worker
func (m *Manager) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return
	}

	// Recreate stop channel each start cycle so the manager can be restarted.
	m.stopCh = make(chan struct{})
	m.running = true

	m.flushTicker = time.NewTicker(m.interval)
	m.wg.Add(1)
	go m.flushWorker()

	log.Info("[StatsFlush] Started message counter flush worker")
}

// Stop stops the background worker and performs one final flush
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return
	}

	if m.flushTicker != nil {
		m.flushTicker.Stop()
	}
	close(m.stopCh)
	m.wg.Wait()
	m.running = false

	if err := counter.FlushAll(m.stats); err != nil {
		log.Errorf("[StatsFlush] Final flush failed: %v", err)
	}
	log.Info("[StatsFlush] Stopped")
}

func (m *Manager) flushWorker() {
	defer m.wg.Done()

	for {
		select {
		case <-m.flushTicker.C:
			if err := counter.FlushAll(m.stats); err != nil {
				log.Errorf("[StatsFlush] Flush failed: %v", err)
			}
		case <-m.stopCh:
			return
		}
	}
}
