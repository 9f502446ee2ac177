package services

import (
	"sort"
	"sync"
	"time"

	"go.uber.org/zap"
)

type historyItem struct {
	report    RunReport
	expiresAt time.Time
}

// RunHistory keeps recent run reports in memory. Only reports are kept;
// models are never reused between runs.
type RunHistory struct {
	mu              sync.RWMutex
	items           map[string]historyItem
	logger          *zap.Logger
	retention       time.Duration
	maxSize         int
	cleanupInterval time.Duration
	stopCleanup     chan struct{}
	stopOnce        sync.Once
}

func NewRunHistory(retention time.Duration, maxSize int, logger *zap.Logger) *RunHistory {
	h := &RunHistory{
		items:           make(map[string]historyItem),
		logger:          logger,
		retention:       retention,
		maxSize:         maxSize,
		cleanupInterval: time.Minute,
		stopCleanup:     make(chan struct{}),
	}

	go h.startCleanup()

	return h
}

func (h *RunHistory) Add(report RunReport) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.maxSize > 0 && len(h.items) >= h.maxSize {
		h.evictOldest()
	}

	expiresAt := time.Now().Add(h.retention)
	h.items[report.ID] = historyItem{report: report, expiresAt: expiresAt}

	h.logger.Debug("Run report stored",
		zap.String("run_id", report.ID),
		zap.String("state", string(report.State)),
		zap.Time("expires_at", expiresAt))
}

func (h *RunHistory) Get(id string) (RunReport, bool) {
	h.mu.RLock()
	item, exists := h.items[id]
	h.mu.RUnlock()

	if !exists {
		return RunReport{}, false
	}

	if time.Now().After(item.expiresAt) {
		h.mu.Lock()
		delete(h.items, id)
		h.mu.Unlock()
		return RunReport{}, false
	}

	return item.report, true
}

// List returns unexpired reports, newest first.
func (h *RunHistory) List() []RunReport {
	h.mu.RLock()
	defer h.mu.RUnlock()

	now := time.Now()
	reports := make([]RunReport, 0, len(h.items))
	for _, item := range h.items {
		if now.After(item.expiresAt) {
			continue
		}
		reports = append(reports, item.report)
	}

	sort.Slice(reports, func(i, j int) bool {
		return reports[i].StartedAt.After(reports[j].StartedAt)
	})
	return reports
}

func (h *RunHistory) evictOldest() {
	var oldestID string
	var oldestTime time.Time

	for id, item := range h.items {
		if oldestID == "" || item.expiresAt.Before(oldestTime) {
			oldestID = id
			oldestTime = item.expiresAt
		}
	}

	if oldestID != "" {
		delete(h.items, oldestID)
		h.logger.Debug("Evicted oldest run report", zap.String("run_id", oldestID))
	}
}

func (h *RunHistory) startCleanup() {
	ticker := time.NewTicker(h.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			h.cleanup()
		case <-h.stopCleanup:
			return
		}
	}
}

func (h *RunHistory) cleanup() {
	h.mu.Lock()
	defer h.mu.Unlock()

	now := time.Now()
	expired := 0
	for id, item := range h.items {
		if now.After(item.expiresAt) {
			delete(h.items, id)
			expired++
		}
	}

	if expired > 0 {
		h.logger.Debug("Cleaned expired run reports", zap.Int("count", expired))
	}
}

func (h *RunHistory) Stop() {
	h.stopOnce.Do(func() { close(h.stopCleanup) })
}

func (h *RunHistory) GetStats() map[string]interface{} {
	h.mu.RLock()
	defer h.mu.RUnlock()

	succeeded, aborted := 0, 0
	for _, item := range h.items {
		switch item.report.State {
		case StateDone:
			succeeded++
		case StateAborted:
			aborted++
		}
	}

	return map[string]interface{}{
		"stored_runs": len(h.items),
		"succeeded":   succeeded,
		"aborted":     aborted,
		"max_size":    h.maxSize,
		"retention":   h.retention.String(),
	}
}
