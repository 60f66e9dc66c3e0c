package state_test

import (
	"bytes"
	"context"
	"errors"
	"os"
	"strings"
	"testing"

	"github.com/o3de-mps/mpsexport/pkg/logger"
	"github.com/o3de-mps/mpsexport/pkg/state"
)

func TestLedger_RevertsInReverseOrderOnce(t *testing.T) {
	l := state.NewLedger()
	var order []string
	for _, name := range []string{"gem", "registry", "lock"} {
		name := name
		if err := l.Record(name, func(context.Context) error {
			order = append(order, name)
			return nil
		}); err != nil {
			t.Fatal(err)
		}
	}

	if l.Len() != 3 {
		t.Fatalf("Len() = %d, want 3", l.Len())
	}
	if failed := l.RevertAll(context.Background(), nil); failed != 0 {
		t.Errorf("RevertAll() failed = %d", failed)
	}
	if got := strings.Join(order, ","); got != "lock,registry,gem" {
		t.Errorf("revert order = %s", got)
	}

	l.RevertAll(context.Background(), nil)
	if len(order) != 3 {
		t.Errorf("second RevertAll ran actions again: %v", order)
	}
	if !l.Reverted() || l.Len() != 0 {
		t.Error("ledger should be empty and reverted")
	}
	if err := l.Record("late", func(context.Context) error { return nil }); !errors.Is(err, state.ErrAlreadyReverted) {
		t.Errorf("Record after revert error = %v", err)
	}
}

func TestLedger_FailuresAreWarningsAndDoNotStop(t *testing.T) {
	var buf bytes.Buffer
	log := logger.CreateLoggerWithOutput("", "info", &buf)

	l := state.NewLedger()
	ran := 0
	_ = l.Record("first", func(context.Context) error { ran++; return nil })
	_ = l.Record("broken", func(context.Context) error { return errors.New("disk full") })
	_ = l.Record("panicky", func(context.Context) error { panic("boom") })

	if failed := l.RevertAll(context.Background(), log); failed != 2 {
		t.Errorf("failed = %d, want 2", failed)
	}
	if ran != 1 {
		t.Error("remaining revert actions should still run")
	}
	out := buf.String()
	if !strings.Contains(out, "WARN: Failed to revert broken") || !strings.Contains(out, "disk full") {
		t.Errorf("expected warning for failed revert, got %q", out)
	}
	if strings.Contains(out, "ERROR") {
		t.Errorf("revert failures must not be logged as errors: %q", out)
	}
}

func TestLedger_RejectsNilRevert(t *testing.T) {
	if err := state.NewLedger().Record("nil", nil); err == nil {
		t.Error("expected error for nil revert func")
	}
}

func TestRunReport_SaveAndLoad(t *testing.T) {
	dir := t.TempDir()

	r := state.NewRunReport("run_1", "MultiplayerSample")
	r.StageDone("toolchain")
	r.Finish("code", errors.New("cmake exited with code 2"))

	if err := state.SaveReport(dir, r); err != nil {
		t.Fatalf("SaveReport() error = %v", err)
	}
	if _, err := os.Stat(state.ReportPath(dir) + ".tmp"); !os.IsNotExist(err) {
		t.Error("temporary report file left behind")
	}

	loaded, err := state.LoadReport(dir)
	if err != nil {
		t.Fatalf("LoadReport() error = %v", err)
	}
	if loaded.Status != state.RunStatusFailed || loaded.FailedStage != "code" {
		t.Errorf("unexpected report %+v", loaded)
	}
	if loaded.ProcessID != os.Getpid() || len(loaded.Stages) != 1 {
		t.Errorf("unexpected report %+v", loaded)
	}
}
