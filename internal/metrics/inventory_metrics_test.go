package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

func TestNewInventoryMetrics(t *testing.T) {
	m := newInventoryMetricsWithRegisterer(prometheus.NewRegistry())

	if m == nil {
		t.Fatal("newInventoryMetricsWithRegisterer should not return nil")
	}
	if m.movementsRecorded == nil {
		t.Error("movementsRecorded counter should not be nil")
	}
	if m.movementsRejected == nil {
		t.Error("movementsRejected counter should not be nil")
	}
	if m.transitionsApplied == nil {
		t.Error("transitionsApplied counter should not be nil")
	}
	if m.transitionsRejected == nil {
		t.Error("transitionsRejected counter should not be nil")
	}
	if m.recordDuration == nil {
		t.Error("recordDuration histogram should not be nil")
	}
	if m.transitionDuration == nil {
		t.Error("transitionDuration histogram should not be nil")
	}
	if m.outboxEvents == nil {
		t.Error("outboxEvents counter should not be nil")
	}
}

func TestRecordMovement(t *testing.T) {
	m := newInventoryMetricsWithRegisterer(prometheus.NewRegistry())

	m.RecordMovement("inbound")
	m.RecordMovement("inbound")
	m.RecordMovement("outbound")

	metric := &dto.Metric{}
	if err := m.movementsRecorded.WithLabelValues("inbound").Write(metric); err != nil {
		t.Fatalf("failed to write metric: %v", err)
	}
	if metric.Counter.GetValue() != 2.0 {
		t.Errorf("expected inbound counter 2.0, got %f", metric.Counter.GetValue())
	}
}

func TestRecordMovementRejected(t *testing.T) {
	m := newInventoryMetricsWithRegisterer(prometheus.NewRegistry())

	m.RecordMovementRejected("insufficient_stock")

	metric := &dto.Metric{}
	if err := m.movementsRejected.WithLabelValues("insufficient_stock").Write(metric); err != nil {
		t.Fatalf("failed to write metric: %v", err)
	}
	if metric.Counter.GetValue() != 1.0 {
		t.Errorf("expected rejected counter 1.0, got %f", metric.Counter.GetValue())
	}
}

func TestRecordTransition(t *testing.T) {
	m := newInventoryMetricsWithRegisterer(prometheus.NewRegistry())

	m.RecordTransition("processing")
	m.RecordTransitionRejected()

	metric := &dto.Metric{}
	if err := m.transitionsApplied.WithLabelValues("processing").Write(metric); err != nil {
		t.Fatalf("failed to write metric: %v", err)
	}
	if metric.Counter.GetValue() != 1.0 {
		t.Errorf("expected transitions counter 1.0, got %f", metric.Counter.GetValue())
	}

	rejected := &dto.Metric{}
	if err := m.transitionsRejected.Write(rejected); err != nil {
		t.Fatalf("failed to write metric: %v", err)
	}
	if rejected.Counter.GetValue() != 1.0 {
		t.Errorf("expected rejected counter 1.0, got %f", rejected.Counter.GetValue())
	}
}

func TestRecordDurations(t *testing.T) {
	m := newInventoryMetricsWithRegisterer(prometheus.NewRegistry())

	m.RecordDuration(25 * time.Millisecond)
	m.RecordTransitionDuration(5 * time.Millisecond)

	metric := &dto.Metric{}
	if err := m.recordDuration.Write(metric); err != nil {
		t.Fatalf("failed to write histogram: %v", err)
	}
	if metric.Histogram.GetSampleCount() != 1 {
		t.Errorf("expected 1 observation, got %d", metric.Histogram.GetSampleCount())
	}
}

func TestRegisterTwiceReturnsExisting(t *testing.T) {
	reg := prometheus.NewRegistry()

	first := newInventoryMetricsWithRegisterer(reg)
	second := newInventoryMetricsWithRegisterer(reg)

	first.RecordOutboxEvent()
	second.RecordOutboxEvent()

	metric := &dto.Metric{}
	if err := second.outboxEvents.Write(metric); err != nil {
		t.Fatalf("failed to write metric: %v", err)
	}
	if metric.Counter.GetValue() != 2.0 {
		t.Errorf("expected shared counter 2.0, got %f", metric.Counter.GetValue())
	}
}
