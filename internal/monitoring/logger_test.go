package monitoring

import "testing"

func TestSetLogger(t *testing.T) {
	original := Logf
	defer func() { Logf = original }()

	var got string
	SetLogger(func(format string, v ...interface{}) { got = format })
	Logf("iteration %d complete", 3)
	if got != "iteration %d complete" {
		t.Errorf("custom logger saw %q", got)
	}

	// nil installs a no-op, not a nil function
	called := false
	SetLogger(func(string, ...interface{}) { called = true })
	SetLogger(nil)
	Logf("dropped")
	if called {
		t.Error("no-op logger invoked the previous logger")
	}
}

func TestLogfDefault(t *testing.T) {
	if Logf == nil {
		t.Fatal("Logf must be callable by default")
	}
}
