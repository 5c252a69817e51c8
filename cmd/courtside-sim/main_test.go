package main

import (
	"bytes"
	"strings"
	"testing"
)

func runApp(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	app := newApp()
	app.Writer = &out
	app.ErrWriter = &out
	err := app.Run(append([]string{"courtside-sim"}, args...))
	return out.String(), err
}

func TestFormatsCommand(t *testing.T) {
	out, err := runApp(t, "formats")
	if err != nil {
		t.Fatalf("formats: %v", err)
	}
	for _, want := range []string{"single_set", "best_of_3_super", "super tiebreak to 10", "best_of_5"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRunCommand(t *testing.T) {
	out, err := runApp(t, "run", "--format", "best_of_3", "-n", "3", "--seed", "9", "--edge", "1", "-v")
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	for _, want := range []string{"6-0 6-0", "wins A / B:      3 / 0", "avg points:      48.0"} {
		if !strings.Contains(out, want) {
			t.Fatalf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRunCommandRejectsBadInput(t *testing.T) {
	if _, err := runApp(t, "run", "--format", "pro_set"); err == nil {
		t.Fatalf("expected unknown format error")
	}
	if _, err := runApp(t, "run", "-n", "0"); err == nil {
		t.Fatalf("expected matches error")
	}
}
