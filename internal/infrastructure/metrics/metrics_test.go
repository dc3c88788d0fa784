package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/cloudtodo/core/internal/ports"
)

var _ ports.Recorder = (*Metrics)(nil)

func TestRecorder(t *testing.T) {
	m := New()

	m.CommandHandled("add", "ok", 20*time.Millisecond)
	m.CommandHandled("add", "ok", 10*time.Millisecond)
	m.CommandHandled("", "rejected", time.Millisecond)
	m.ReminderDelivered(true)
	m.ReminderDelivered(false)
	m.ReminderDelivered(false)

	tests := []struct {
		name string
		got  float64
		want float64
	}{
		{"add ok", testutil.ToFloat64(m.commandsTotal.WithLabelValues("add", "ok")), 2},
		{"unknown rejected", testutil.ToFloat64(m.commandsTotal.WithLabelValues("unknown", "rejected")), 1},
		{"reminders sent", testutil.ToFloat64(m.remindersTotal.WithLabelValues("sent")), 1},
		{"reminders failed", testutil.ToFloat64(m.remindersTotal.WithLabelValues("failed")), 2},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Fatalf("%s = %v, want %v", tt.name, tt.got, tt.want)
		}
	}

	if n := testutil.CollectAndCount(m.commandDuration); n != 2 {
		t.Fatalf("duration series = %d, want 2", n)
	}
}

func TestRegistriesAreIndependent(t *testing.T) {
	a, b := New(), New()
	a.ReminderDelivered(true)

	if got := testutil.ToFloat64(b.remindersTotal.WithLabelValues("sent")); got != 0 {
		t.Fatalf("second registry saw %v reminders", got)
	}
}
