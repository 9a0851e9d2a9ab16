package logflags

import (
	"testing"

	"github.com/sirupsen/logrus"
)

func TestSetupRejectsOutputWithoutLog(t *testing.T) {
	if err := Setup(false, "tracer"); err == nil {
		t.Error("expected error for --log-output without --log")
	}
}

func TestSetupEnablesComponents(t *testing.T) {
	defer func() { tracer = false; check = false }()

	if err := Setup(true, "tracer,check"); err != nil {
		t.Fatalf("Setup: %v", err)
	}
	if !Tracer() || !Check() {
		t.Errorf("Tracer() = %v, Check() = %v, want both true", Tracer(), Check())
	}
	if lvl := CheckLogger().Logger.Level; lvl != logrus.DebugLevel {
		t.Errorf("enabled logger level = %v, want debug", lvl)
	}
}

func TestDisabledLoggerIsQuiet(t *testing.T) {
	tracer = false
	if lvl := TracerLogger().Logger.Level; lvl != logrus.PanicLevel {
		t.Errorf("disabled logger level = %v, want panic", lvl)
	}
}
