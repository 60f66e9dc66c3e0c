package settle_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/o3de-mps/mpsexport/pkg/settle"
)

func newWaiter(quiet, timeout time.Duration) *settle.Waiter {
	w := settle.NewWaiter(nil)
	w.QuietPeriod = quiet
	w.Timeout = timeout
	return w
}

func TestWait_ExistingFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "engine_pc.pak")
	if err := os.WriteFile(path, []byte("pak"), 0644); err != nil {
		t.Fatal(err)
	}

	start := time.Now()
	if err := newWaiter(50*time.Millisecond, 5*time.Second).Wait(context.Background(), path); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	if time.Since(start) < 50*time.Millisecond {
		t.Error("Wait returned before a full quiet period")
	}
}

func TestWait_FileAppearsLater(t *testing.T) {
	path := filepath.Join(t.TempDir(), "game_pc.pak")
	go func() {
		for i := 0; i < 3; i++ {
			time.Sleep(30 * time.Millisecond)
			f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
			if err != nil {
				return
			}
			_, _ = f.WriteString("chunk")
			_ = f.Close()
		}
	}()

	if err := newWaiter(150*time.Millisecond, 5*time.Second).Wait(context.Background(), path); err != nil {
		t.Fatalf("Wait() error = %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "chunkchunkchunk" {
		t.Errorf("Wait returned before writes finished: %q", data)
	}
}

func TestWait_MissingFileTimesOut(t *testing.T) {
	path := filepath.Join(t.TempDir(), "never.pak")
	err := newWaiter(20*time.Millisecond, 200*time.Millisecond).Wait(context.Background(), path)
	if !errors.Is(err, settle.ErrNotSettled) {
		t.Errorf("error = %v, want ErrNotSettled", err)
	}
}

func TestWait_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := newWaiter(time.Second, time.Minute).Wait(ctx, filepath.Join(t.TempDir(), "x"))
	if !errors.Is(err, context.Canceled) {
		t.Errorf("error = %v, want context.Canceled", err)
	}
}
