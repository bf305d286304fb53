package database

import (
	"context"
	"database/sql"
	"sync"
	"time"

	coreport "github.com/amirhossein-jamali/gamestore-ledger/internal/domain/port/core"
)

// StatsRecorder receives connection pool samples
type StatsRecorder interface {
	RecordDBStats(stats sql.DBStats)
}

// ConnectionPoolMonitor samples the connection pool on an interval, pings the
// database and feeds the samples to a StatsRecorder
type ConnectionPoolMonitor struct {
	db       *sql.DB
	recorder StatsRecorder
	logger   coreport.Logger

	mutex    sync.RWMutex
	last     sql.DBStats
	healthy  bool
	stopChan chan struct{}
	stopOnce sync.Once
	done     chan struct{}
}

// NewConnectionPoolMonitor creates a new connection pool monitor
func NewConnectionPoolMonitor(db *sql.DB, recorder StatsRecorder, logger coreport.Logger) *ConnectionPoolMonitor {
	return &ConnectionPoolMonitor{
		db:       db,
		recorder: recorder,
		logger:   logger,
		stopChan: make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Start collects a first sample, then keeps sampling every interval until Stop
func (m *ConnectionPoolMonitor) Start(interval time.Duration) {
	m.Collect(context.Background())

	go func() {
		defer close(m.done)
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				m.Collect(context.Background())
			case <-m.stopChan:
				return
			}
		}
	}()
}

// Stop stops the monitoring goroutine and waits for it to exit
func (m *ConnectionPoolMonitor) Stop() {
	m.stopOnce.Do(func() {
		close(m.stopChan)
		<-m.done
	})
}

// Collect takes one sample
func (m *ConnectionPoolMonitor) Collect(ctx context.Context) {
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	healthy := true
	if err := m.db.PingContext(pingCtx); err != nil {
		healthy = false
		m.logger.Error("Database ping failed", map[string]any{"error": err.Error()})
	}

	stats := m.db.Stats()
	if m.recorder != nil {
		m.recorder.RecordDBStats(stats)
	}

	m.mutex.Lock()
	m.last = stats
	m.healthy = healthy
	m.mutex.Unlock()

	threshold := float64(stats.MaxOpenConnections) * 0.8
	if stats.MaxOpenConnections > 0 && float64(stats.InUse) > threshold {
		m.logger.Warn("Database connection pool nearly exhausted", map[string]any{
			"in_use":     stats.InUse,
			"max_open":   stats.MaxOpenConnections,
			"idle":       stats.Idle,
			"wait_count": stats.WaitCount,
			"wait_time":  stats.WaitDuration.String(),
		})
	}
}

// Snapshot returns the last sample and whether the last ping succeeded
func (m *ConnectionPoolMonitor) Snapshot() (sql.DBStats, bool) {
	m.mutex.RLock()
	defer m.mutex.RUnlock()
	return m.last, m.healthy
}
