package jobqueue

import (
	"strconv"
	"sync"
	"time"

	"github.com/gofiber/fiber/v2/log"

	"github.com/CivicLens/BillboardGuard/internal/pkg/env"
)

// Manager manages the global job queue and background tasks
type Manager struct {
	queue            *Queue
	processor        *ReportProcessor
	reconcilerTicker *time.Ticker
	analysisDeadline time.Duration
	stopCh           chan struct{}
	wg               sync.WaitGroup
	mu               sync.Mutex
	running          bool
}

var (
	globalManager *Manager
	managerOnce   sync.Once
)

// InitManager wires the global manager with its processor. Must be called
// once during startup before GetManager.
func InitManager(processor *ReportProcessor) *Manager {
	managerOnce.Do(func() {
		workerCount := 5
		if v := env.GetEnv("JOBQUEUE_WORKERS", ""); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				workerCount = n
			}
		}

		deadline := 10 * time.Minute
		if v := env.GetEnv("ANALYSIS_DEADLINE_MINUTES", ""); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 {
				deadline = time.Duration(n) * time.Minute
			}
		}

		globalManager = &Manager{
			queue:            NewQueue(workerCount, processor),
			processor:        processor,
			analysisDeadline: deadline,
			stopCh:           make(chan struct{}),
		}
	})
	return globalManager
}

// GetManager returns the global job queue manager (singleton)
func GetManager() *Manager {
	if globalManager == nil {
		panic("Job queue manager not initialized. Call InitManager first.")
	}
	return globalManager
}

// GetQueue returns the managed job queue
func (m *Manager) GetQueue() *Queue {
	return m.queue
}

// EnqueueReportAnalysis queues one report for analysis.
func (m *Manager) EnqueueReportAnalysis(payload ReportAnalysisJobPayload) (*Job, error) {
	return m.queue.EnqueueJob(JobTypeReportAnalysis, payload.ToMap())
}

// Start starts the job queue and background tasks
func (m *Manager) Start() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.running {
		return
	}

	// Recreate stop channel for each start cycle so manager can be restarted safely.
	m.stopCh = make(chan struct{})
	m.running = true
	log.Info("[JobQueue Manager] Starting job queue and background tasks")

	// Start the job queue
	m.queue.Start()

	// Stale-analyzing reconciler: guarantees bounded time-to-terminal-state
	// for reports whose analysis died without reaching completed or failed.
	m.reconcilerTicker = time.NewTicker(time.Minute)
	m.wg.Add(1)
	go m.staleAnalyzingReconciler()

	log.Info("[JobQueue Manager] Started successfully")
}

// Stop stops the job queue and background tasks
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.running {
		return
	}

	log.Info("[JobQueue Manager] Stopping job queue and background tasks...")

	if m.reconcilerTicker != nil {
		m.reconcilerTicker.Stop()
	}

	// Signal workers to stop
	close(m.stopCh)
	m.running = false

	// Wait for background workers to finish
	m.wg.Wait()

	// Stop the job queue
	m.queue.Stop()

	log.Info("[JobQueue Manager] Stopped successfully")
}

// staleAnalyzingReconciler periodically force-fails reports stuck in
// analyzing beyond the configured deadline.
func (m *Manager) staleAnalyzingReconciler() {
	defer m.wg.Done()
	log.Infof("[JobQueue Manager] Started stale-analyzing reconciler (deadline: %s)", m.analysisDeadline)

	for {
		select {
		case <-m.stopCh:
			log.Info("[JobQueue Manager] Stale-analyzing reconciler stopping")
			return
		case <-m.reconcilerTicker.C:
			affected, err := m.processor.FailStaleReports(m.analysisDeadline)
			if err != nil {
				log.Errorf("[JobQueue Manager] Stale-analyzing reconcile error: %v", err)
				continue
			}
			if affected > 0 {
				log.Warnf("[JobQueue Manager] Force-failed %d reports stuck in analyzing", affected)
			}
		}
	}
}

// IsRunning returns whether the manager is currently running
func (m *Manager) IsRunning() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}
