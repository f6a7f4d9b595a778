package monitoring

import (
	"fmt"
	"testing"
)

func TestSetLogger(t *testing.T) {
	original := Logf
	defer func() { Logf = original }()

	called := false
	SetLogger(func(format string, v ...interface{}) {
		called = true
	})
	Logf("carved %d voxels", 3)
	if !called {
		t.Error("custom logger was not called")
	}

	// nil installs a no-op logger
	called = false
	SetLogger(nil)
	Logf("carved %d voxels", 3)
	if called {
		t.Error("no-op logger should not have triggered callback")
	}
}

func TestDebugf_RespectsVerbose(t *testing.T) {
	original := Logf
	defer func() {
		Logf = original
		SetVerbose(false)
	}()

	var lines []string
	SetLogger(func(format string, v ...interface{}) {
		lines = append(lines, fmt.Sprintf(format, v...))
	})

	SetVerbose(false)
	Debugf("view %d", 1)
	if len(lines) != 0 {
		t.Fatalf("expected no output while quiet, got %v", lines)
	}

	SetVerbose(true)
	if !Verbose() {
		t.Fatal("expected Verbose() to report true")
	}
	Debugf("view %d", 2)
	if len(lines) != 1 || lines[0] != "[debug] view 2" {
		t.Errorf("unexpected debug output %v", lines)
	}
}
