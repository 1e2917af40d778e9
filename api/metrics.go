package api

import (
	"time"

	log "github.com/sirupsen/logrus"
)

// moveRequestMetrics collects timings for the card-move endpoint, the
// one route whose latency is dominated by multi-document writes.
type moveRequestMetrics struct {
	logger       *log.Logger
	start        time.Time
	moveDuration time.Duration
	crossList    bool
	errorStage   string
}

func newMoveRequestMetrics(logger *log.Logger) *moveRequestMetrics {
	return &moveRequestMetrics{
		logger: logger,
		start:  time.Now(),
	}
}

func (m *moveRequestMetrics) ObserveMove(duration time.Duration) {
	if duration <= 0 {
		return
	}
	m.moveDuration = duration
}

func (m *moveRequestMetrics) SetCrossList(crossList bool) {
	m.crossList = crossList
}

func (m *moveRequestMetrics) SetErrorStage(stage string) {
	if stage == "" {
		return
	}
	m.errorStage = stage
}

func (m *moveRequestMetrics) Log(status int, err error) {
	if m == nil || m.logger == nil {
		return
	}

	fields := log.Fields{
		"route":      "/card/move",
		"status":     status,
		"total_ms":   durationToMillis(time.Since(m.start)),
		"cross_list": m.crossList,
	}
	if m.moveDuration > 0 {
		fields["move_ms"] = durationToMillis(m.moveDuration)
	}
	if m.errorStage != "" {
		fields["error_stage"] = m.errorStage
	}
	if err != nil {
		fields["error"] = err.Error()
	}

	m.logger.WithFields(fields).Info("move.request.metrics")
}

func durationToMillis(d time.Duration) float64 {
	if d <= 0 {
		return 0
	}
	return float64(d) / float64(time.Millisecond)
}
