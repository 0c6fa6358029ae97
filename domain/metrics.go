package domain

import (
	"time"

	log "github.com/sirupsen/logrus"
)

type moveMetrics struct {
	logger     *log.Logger
	start      time.Time
	taskID     int64
	direction  Direction
	applied    bool
	errorStage string
}

func newMoveMetrics(logger *log.Logger, taskID int64, dir Direction) *moveMetrics {
	return &moveMetrics{
		logger:    logger,
		start:     time.Now(),
		taskID:    taskID,
		direction: dir,
	}
}

func (m *moveMetrics) SetApplied(applied bool) {
	m.applied = applied
}

func (m *moveMetrics) SetErrorStage(stage string) {
	if stage == "" {
		return
	}
	m.errorStage = stage
}

func (m *moveMetrics) Log(moved bool, err error) {
	if m == nil || m.logger == nil {
		return
	}

	fields := log.Fields{
		"task":      m.taskID,
		"direction": string(m.direction),
		"moved":     moved,
		"applied":   m.applied,
		"total_ms":  durationToMillis(time.Since(m.start)),
	}
	if m.errorStage != "" {
		fields["error_stage"] = m.errorStage
	}
	if err != nil {
		fields["error"] = err.Error()
	}

	m.logger.WithFields(fields).Info("tasks.move.metrics")
}

func durationToMillis(d time.Duration) float64 {
	if d <= 0 {
		return 0
	}
	return float64(d) / float64(time.Millisecond)
}
