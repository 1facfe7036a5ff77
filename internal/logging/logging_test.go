package logging

import (
	"bytes"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
)

func TestNew_Level(t *testing.T) {
	log, err := New("debug")
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if got := log.Logger.GetLevel(); got != logrus.DebugLevel {
		t.Fatalf("level=%v want debug", got)
	}
}

func TestNew_DefaultsToInfo(t *testing.T) {
	log, err := New("")
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	if got := log.Logger.GetLevel(); got != logrus.InfoLevel {
		t.Fatalf("level=%v want info", got)
	}
}

func TestNew_RejectsUnknownLevel(t *testing.T) {
	if _, err := New("loud"); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}

func TestComponent_SetsPrefix(t *testing.T) {
	log, err := New("info")
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	c := Component(log, "lcd")
	if c.Data["prefix"] != "lcd" {
		t.Fatalf("prefix=%v want lcd", c.Data["prefix"])
	}
}

func TestNew_FormatsPrefixedEntry(t *testing.T) {
	log, err := New("info")
	if err != nil {
		t.Fatalf("New() error: %v", err)
	}
	var buf bytes.Buffer
	log.Logger.SetOutput(&buf)

	Component(log, "gps").WithField("port", "/dev/ttyUSB0").Info("opened serial port")

	out := buf.String()
	for _, want := range []string{"level=info", `msg="opened serial port"`, "prefix=gps", `port="/dev/ttyUSB0"`} {
		if !strings.Contains(out, want) {
			t.Fatalf("output %q missing %q", out, want)
		}
	}
}
