package log

import (
	"bytes"
	"errors"
	"math/big"
	"strings"
	"sync"
	"testing"
)

func TestLogfmtContext(t *testing.T) {
	out := new(bytes.Buffer)
	l := New("attack", "mim")
	l.SetHandler(StreamHandler(out, LogfmtFormat()))

	l.Info("table built", "entries", 1024, "prime", big.NewInt(2579), "err", errors.New("bad thing"))

	have := out.String()
	for _, want := range []string{"lvl=info", "msg=\"table built\"", "attack=mim", "entries=1024", "prime=2579", "err=\"bad thing\""} {
		if !strings.Contains(have, want) {
			t.Errorf("output %q missing %q", have, want)
		}
	}
}

func TestLvlFilter(t *testing.T) {
	out := new(bytes.Buffer)
	l := New()
	l.SetHandler(LvlFilterHandler(LvlWarn, StreamHandler(out, TerminalFormat(false))))

	l.Debug("hidden")
	l.Warn("cache desync", "index", 7)

	have := out.String()
	if strings.Contains(have, "hidden") {
		t.Fatalf("debug record passed warn filter: %q", have)
	}
	if !strings.HasPrefix(have, "WARN ") || !strings.Contains(have, "index=7") {
		t.Fatalf("unexpected terminal output %q", have)
	}
}

func TestOddContextNormalized(t *testing.T) {
	var rec *Record
	l := New()
	l.SetHandler(FuncHandler(func(r *Record) error {
		rec = r
		return nil
	}))
	l.Error("odd", "key")
	if len(rec.Ctx) != 4 || rec.Ctx[2] != errorKey {
		t.Fatalf("context not normalized: %v", rec.Ctx)
	}
}

func TestLvlFromString(t *testing.T) {
	for _, name := range []string{"trace", "debug", "info", "warn", "error", "crit"} {
		if _, err := LvlFromString(name); err != nil {
			t.Errorf("level %q: %v", name, err)
		}
	}
	if _, err := LvlFromString("loud"); err == nil {
		t.Error("expected error for unknown level")
	}
}

func TestStreamHandlerConcurrent(t *testing.T) {
	out := new(bytes.Buffer)
	l := New()
	l.SetHandler(StreamHandler(out, LogfmtFormat()))

	const writers, records = 8, 50
	var wg sync.WaitGroup
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			for j := 0; j < records; j++ {
				l.Info("cracked", "worker", i, "file", j)
			}
		}(i)
	}
	wg.Wait()

	lines := strings.Split(strings.TrimSuffix(out.String(), "\n"), "\n")
	if len(lines) != writers*records {
		t.Fatalf("have %d lines, want %d", len(lines), writers*records)
	}
	for _, line := range lines {
		if !strings.HasPrefix(line, "t=") || !strings.Contains(line, "msg=cracked") {
			t.Fatalf("interleaved record %q", line)
		}
	}
}
