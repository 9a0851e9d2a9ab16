package config

import (
	"io/ioutil"
	"path/filepath"
	"testing"
)

func TestLoadConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "scenario.yml")
	data := []byte("mutate-counter: 48879\nstep-limit: 500\n")
	if err := ioutil.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}

	c, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if c.MutateCounter == nil || *c.MutateCounter != 0xbeef {
		t.Errorf("MutateCounter = %v, want 0xbeef", c.MutateCounter)
	}
	if c.StepLimit != 500 {
		t.Errorf("StepLimit = %d, want 500", c.StepLimit)
	}
}

func TestLoadConfigDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "empty.yml")
	if err := ioutil.WriteFile(path, nil, 0644); err != nil {
		t.Fatal(err)
	}

	c, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if c.MutateCounter != nil {
		t.Errorf("MutateCounter = %v, want nil", *c.MutateCounter)
	}
	if c.StepLimit != DefaultStepLimit {
		t.Errorf("StepLimit = %d, want %d", c.StepLimit, DefaultStepLimit)
	}
}

func TestSaveConfigRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "saved.yml")
	v := int64(7)
	if err := SaveConfig(path, &Config{MutateCounter: &v, StepLimit: 42}); err != nil {
		t.Fatalf("SaveConfig: %v", err)
	}

	c, err := LoadConfig(path)
	if err != nil {
		t.Fatalf("LoadConfig: %v", err)
	}
	if c.MutateCounter == nil || *c.MutateCounter != 7 || c.StepLimit != 42 {
		t.Errorf("round trip mismatch: %+v", c)
	}
}

func TestLoadConfigMissingFile(t *testing.T) {
	if _, err := LoadConfig(filepath.Join(t.TempDir(), "nope.yml")); err == nil {
		t.Error("expected error for missing file")
	}
}
