package models

import "time"

// SystemMetrics is a lightweight snapshot of in-process counters.
type SystemMetrics struct {
	CacheHitRatio            float64   `json:"cache_hit_ratio"`
	CacheHits                uint64    `json:"cache_hits"`
	CacheMisses              uint64    `json:"cache_misses"`
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"average_request_duration_ms"`
	WorkflowTransitions      uint64    `json:"workflow_transitions"`
	ConflictsDetected        uint64    `json:"conflicts_detected"`
	DBPingMs                 float64   `json:"db_ping_ms"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}
