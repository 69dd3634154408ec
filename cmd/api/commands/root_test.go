package commands

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"

	"task-prioritizer-backend/internal/logging"
)

func TestSetupAppliesLoggingConfig(t *testing.T) {
	logDir := t.TempDir()
	cfgPath := filepath.Join(t.TempDir(), "taskprio.yaml")
	yaml := "logging:\n  level: debug\n  format: text\n  path: " + logDir + "\n"
	if err := os.WriteFile(cfgPath, []byte(yaml), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cmd := &cobra.Command{Use: "analyze"}
	cmd.Flags().String("config", "", "")
	if err := cmd.Flags().Set("config", cfgPath); err != nil {
		t.Fatalf("set flag: %v", err)
	}

	cfg, err := setup(cmd)
	if err != nil {
		t.Fatalf("setup: %v", err)
	}
	t.Cleanup(func() { _ = logging.Init(logging.Config{}) })

	if cfg.Logging.Level != "debug" {
		t.Errorf("level = %q, want debug", cfg.Logging.Level)
	}

	logging.Component("watch").Debug().Msg("file changed")
	if err := logging.Get().Close(); err != nil {
		t.Fatalf("close: %v", err)
	}

	files, _ := filepath.Glob(filepath.Join(logDir, "taskprio-*.log"))
	if len(files) != 1 {
		t.Fatalf("log files = %v, want one", files)
	}
	data, err := os.ReadFile(files[0])
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	out := string(data)
	if !strings.Contains(out, "file changed") || !strings.Contains(out, "component=watch") {
		t.Errorf("log output = %q, want a text-format debug line from the watch component", out)
	}
}

func TestSetupRejectsBadLoggingConfig(t *testing.T) {
	cfgPath := filepath.Join(t.TempDir(), "taskprio.yaml")
	if err := os.WriteFile(cfgPath, []byte("logging:\n  level: loud\n"), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cmd := &cobra.Command{Use: "suggest"}
	cmd.Flags().String("config", cfgPath, "")

	if _, err := setup(cmd); err == nil {
		t.Fatal("expected an error for an unknown log level")
	}
}
