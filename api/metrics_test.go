package api

import (
	"bytes"
	"errors"
	"strings"
	"testing"
	"time"

	log "github.com/sirupsen/logrus"
)

func TestDurationToMillis(t *testing.T) {
	if got := durationToMillis(1500 * time.Microsecond); got != 1.5 {
		t.Fatalf("expected 1.5, got %v", got)
	}
	if got := durationToMillis(-time.Second); got != 0 {
		t.Fatalf("expected 0 for negative duration, got %v", got)
	}
}

func TestMoveRequestMetricsLog(t *testing.T) {
	var buf bytes.Buffer
	logger := log.New()
	logger.SetOutput(&buf)
	logger.SetFormatter(&log.JSONFormatter{})

	m := newMoveRequestMetrics(logger)
	m.SetCrossList(true)
	m.ObserveMove(2 * time.Millisecond)
	m.SetErrorStage("move")
	m.Log(409, errors.New("conflict"))

	out := buf.String()
	for _, want := range []string{`"route":"/card/move"`, `"status":409`, `"cross_list":true`, `"error_stage":"move"`, `"move_ms"`} {
		if !strings.Contains(out, want) {
			t.Fatalf("expected %s in log output, got %s", want, out)
		}
	}
}

func TestMoveRequestMetricsNilLogger(t *testing.T) {
	m := &moveRequestMetrics{}
	m.Log(200, nil)

	var nilMetrics *moveRequestMetrics
	nilMetrics.Log(500, errors.New("x"))
}

func TestObserveMoveIgnoresNonPositive(t *testing.T) {
	m := newMoveRequestMetrics(nil)
	m.ObserveMove(-time.Second)
	if m.moveDuration != 0 {
		t.Fatalf("expected non-positive duration ignored")
	}
	m.ObserveMove(time.Millisecond)
	if m.moveDuration != time.Millisecond {
		t.Fatalf("expected duration recorded")
	}
}
