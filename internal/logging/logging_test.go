package logging

import "testing"

func TestNewLevels(t *testing.T) {
	for _, level := range []string{"", "debug", "info", "WARN", "error"} {
		logger, err := New("test", level)
		if err != nil {
			t.Fatalf("level %q: %v", level, err)
		}
		_ = logger.Sync()
	}

	if _, err := New("test", "loud"); err == nil {
		t.Fatal("expected an error for an unknown level")
	}
}
