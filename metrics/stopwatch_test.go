package metrics

import (
	"testing"
	"time"
)

func TestStopwatchDisabled(t *testing.T) {
	sw := NewStopwatch(Config{})
	time.Sleep(time.Millisecond)
	if m := sw.Stop(); m.Wall != 0 || m.CPU != 0 {
		t.Fatalf("disabled stopwatch measured %+v", m)
	}
}

func TestStopwatchWall(t *testing.T) {
	sw := NewStopwatch(Config{Enabled: true})
	time.Sleep(5 * time.Millisecond)
	m := sw.Stop()
	if m.Wall < 5*time.Millisecond {
		t.Fatalf("wall time too small: %v", m.Wall)
	}
	if m.CPU != 0 {
		t.Fatalf("cpu time collected while disabled: %v", m.CPU)
	}
}

func TestMeasurementString(t *testing.T) {
	m := Measurement{Wall: 125 * time.Second}
	if have, want := m.String(), "2m 5s : 125"; have != want {
		t.Fatalf("have %q want %q", have, want)
	}
}
