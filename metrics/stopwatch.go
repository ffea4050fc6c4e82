package metrics

import (
	"fmt"
	"time"
)

// Stopwatch measures the wall clock and process CPU time spent between its
// creation and a call to Stop.
type Stopwatch struct {
	config  Config
	started time.Time
	cpu     int64
}

// Measurement is the outcome of a stopped Stopwatch.
type Measurement struct {
	Wall time.Duration
	CPU  time.Duration // zero if CPU time collection is disabled or unsupported
}

// NewStopwatch starts a stopwatch. A disabled config yields zero measurements.
func NewStopwatch(config Config) *Stopwatch {
	sw := &Stopwatch{config: config}
	if !config.Enabled {
		return sw
	}
	sw.started = time.Now()
	if config.CPUTime {
		sw.cpu = getProcessCPUTime()
	}
	return sw
}

// Stop returns the time elapsed since the stopwatch was started.
func (sw *Stopwatch) Stop() Measurement {
	if !sw.config.Enabled {
		return Measurement{}
	}
	m := Measurement{Wall: time.Since(sw.started)}
	if sw.config.CPUTime {
		m.CPU = time.Duration(getProcessCPUTime()-sw.cpu) * 10 * time.Millisecond
	}
	return m
}

// String renders the measurement as "Xm Ys : S", the layout of the
// TIME report lines.
func (m Measurement) String() string {
	secs := int64(m.Wall / time.Second)
	return fmt.Sprintf("%dm %ds : %d", secs/60, secs%60, secs)
}
