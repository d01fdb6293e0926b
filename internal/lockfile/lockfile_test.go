package lockfile

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestAcquireRecordsHolder(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "state")

	lock, err := Acquire(dir)
	if err != nil {
		t.Fatalf("Failed to acquire lock: %v", err)
	}
	defer lock.Release()

	if lock.Path() != filepath.Join(dir, Name) {
		t.Errorf("Unexpected lock path %s", lock.Path())
	}
	content, err := os.ReadFile(lock.Path())
	if err != nil {
		t.Fatalf("Failed to read lock file: %v", err)
	}
	if !strings.HasPrefix(string(content), fmt.Sprintf("pid=%d\nstarted=", os.Getpid())) {
		t.Errorf("Unexpected lock file content %q", content)
	}
}

func TestAcquireConflict(t *testing.T) {
	dir := t.TempDir()

	first, err := Acquire(dir)
	if err != nil {
		t.Fatalf("Failed to acquire first lock: %v", err)
	}
	defer first.Release()

	second, err := Acquire(dir)
	if err == nil {
		second.Release()
		t.Fatal("Second acquisition should have failed")
	}
	if !errors.Is(err, ErrLocked) {
		t.Errorf("Expected ErrLocked, got %v", err)
	}
	var lockErr *LockError
	if !errors.As(err, &lockErr) {
		t.Fatalf("Expected *LockError, got %T", err)
	}
	if lockErr.Holder.PID != os.Getpid() || !lockErr.Holder.Running {
		t.Errorf("Unexpected holder %+v", lockErr.Holder)
	}
	if !strings.Contains(err.Error(), lockErr.Path) || !strings.Contains(err.Error(), "(running)") {
		t.Errorf("Error should name the lock and its holder: %s", err)
	}

	// The losing attempt must not have erased the holder's details.
	content, _ := os.ReadFile(first.Path())
	if !strings.Contains(string(content), fmt.Sprintf("pid=%d", os.Getpid())) {
		t.Errorf("Holder details were overwritten: %q", content)
	}
}

func TestReleaseAllowsReacquire(t *testing.T) {
	dir := t.TempDir()

	lock, err := Acquire(dir)
	if err != nil {
		t.Fatalf("Failed to acquire lock: %v", err)
	}
	if err := lock.Release(); err != nil {
		t.Fatalf("Release returned error: %v", err)
	}
	if err := lock.Release(); err != nil {
		t.Errorf("Second release should be a no-op, got %v", err)
	}
	if _, err := os.Stat(filepath.Join(dir, Name)); !os.IsNotExist(err) {
		t.Errorf("Lock file should be removed, stat err %v", err)
	}

	again, err := Acquire(dir)
	if err != nil {
		t.Fatalf("Reacquire failed: %v", err)
	}
	again.Release()
}

func TestStaleLockFileIsTakenOver(t *testing.T) {
	dir := t.TempDir()
	// A crashed server leaves its file behind but no flock.
	if err := os.WriteFile(filepath.Join(dir, Name), []byte("pid=999999999\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	lock, err := Acquire(dir)
	if err != nil {
		t.Fatalf("Acquire over a stale file failed: %v", err)
	}
	defer lock.Release()

	content, _ := os.ReadFile(lock.Path())
	if strings.Contains(string(content), "999999999") {
		t.Errorf("Stale details should be replaced: %q", content)
	}
}

func TestHolderString(t *testing.T) {
	tests := []struct {
		h    Holder
		want string
	}{
		{Holder{}, "unknown process"},
		{Holder{PID: 42, Running: true}, "PID 42 (running)"},
		{Holder{PID: 42}, "PID 42 (not running, stale lock)"},
	}
	for _, tt := range tests {
		if got := tt.h.String(); got != tt.want {
			t.Errorf("Holder%+v.String() = %q, want %q", tt.h, got, tt.want)
		}
	}
}

func TestProcessRunning(t *testing.T) {
	if !processRunning(os.Getpid()) {
		t.Error("Current process should be running")
	}
	if processRunning(999999999) {
		t.Error("PID 999999999 should not be running")
	}
}
