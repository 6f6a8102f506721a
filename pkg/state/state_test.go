package state_test

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/gdexport/gdexport/pkg/state"
	"github.com/gdexport/gdexport/pkg/types"
)

func request() types.ExportRequest {
	return types.ExportRequest{
		Platforms: []types.Platform{types.PlatformWindows, types.PlatformLinux},
		OutputDir: "/tmp/out",
	}
}

func TestManager_BeginWritesRecord(t *testing.T) {
	tmpDir := t.TempDir()
	sm := state.NewManager(tmpDir, nil)

	record, err := sm.Begin("Platformer", "run-1", request())
	if err != nil {
		t.Fatalf("failed to begin export: %v", err)
	}

	if record.Status != types.ExportStatusPending {
		t.Errorf("expected pending status, got %s", record.Status)
	}
	if record.ProcessID != os.Getpid() {
		t.Errorf("expected current PID, got %d", record.ProcessID)
	}

	stateFile := filepath.Join(tmpDir, ".gdexport", "state", "Platformer.json")
	data, err := os.ReadFile(stateFile)
	if err != nil {
		t.Fatalf("state file was not created: %v", err)
	}

	var loaded state.ExportRecord
	if err := json.Unmarshal(data, &loaded); err != nil {
		t.Fatalf("state file is not valid JSON: %v", err)
	}
	if loaded.RunID != "run-1" || len(loaded.Platforms) != 2 {
		t.Errorf("unexpected record on disk: %+v", loaded)
	}
}

func TestManager_FinishUpdatesCounters(t *testing.T) {
	tmpDir := t.TempDir()
	sm := state.NewManager(tmpDir, nil)

	if _, err := sm.Begin("Platformer", "run-1", request()); err != nil {
		t.Fatal(err)
	}
	if err := sm.Finish("Platformer", types.ExportStatusSucceeded, "Succeeded", time.Second, nil); err != nil {
		t.Fatal(err)
	}

	if _, err := sm.Begin("Platformer", "run-2", request()); err != nil {
		t.Fatal(err)
	}
	if err := sm.Finish("Platformer", types.ExportStatusFailed, "CompilingScenes", time.Second, []string{"Scene Menu failed"}); err != nil {
		t.Fatal(err)
	}

	// A fresh manager only sees what is on disk
	record, err := state.NewManager(tmpDir, nil).Read("Platformer")
	if err != nil {
		t.Fatalf("failed to read state: %v", err)
	}
	if record.ExportCount != 1 || record.FailureCount != 1 {
		t.Errorf("expected 1 success and 1 failure, got %d and %d", record.ExportCount, record.FailureCount)
	}
	if record.Status != types.ExportStatusFailed || record.Phase != "CompilingScenes" {
		t.Errorf("unexpected outcome %s in %s", record.Status, record.Phase)
	}
	if len(record.Errors) != 1 {
		t.Errorf("expected errors to be stored, got %v", record.Errors)
	}
}

func TestManager_FinishWithoutBegin(t *testing.T) {
	sm := state.NewManager(t.TempDir(), nil)
	if err := sm.Finish("Unknown", types.ExportStatusSucceeded, "", 0, nil); err == nil {
		t.Error("expected an error for a project that never started")
	}
}

func TestManager_Discover(t *testing.T) {
	sm := state.NewManager(t.TempDir(), nil)
	for _, name := range []string{"Zeta", "Alpha", "My Game: Deluxe"} {
		if _, err := sm.Begin(name, "run", request()); err != nil {
			t.Fatal(err)
		}
	}

	records, err := sm.Discover()
	if err != nil {
		t.Fatal(err)
	}
	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}
	if records[0].Project != "Alpha" || records[1].Project != "My Game: Deluxe" || records[2].Project != "Zeta" {
		t.Errorf("records are not sorted: %s, %s, %s", records[0].Project, records[1].Project, records[2].Project)
	}
}

func TestManager_Remove(t *testing.T) {
	sm := state.NewManager(t.TempDir(), nil)
	if _, err := sm.Begin("Platformer", "run", request()); err != nil {
		t.Fatal(err)
	}
	if err := sm.Remove("Platformer"); err != nil {
		t.Fatal(err)
	}
	if _, err := sm.Read("Platformer"); err == nil {
		t.Error("expected record to be gone")
	}
	if err := sm.Remove("Platformer"); err != nil {
		t.Errorf("removing twice should succeed: %v", err)
	}
}

func TestManager_IsRunning(t *testing.T) {
	sm := state.NewManager(t.TempDir(), nil)

	running, err := sm.IsRunning("Platformer")
	if err != nil || running {
		t.Fatalf("no record must mean not running, got %v %v", running, err)
	}

	if _, err := sm.Begin("Platformer", "run", request()); err != nil {
		t.Fatal(err)
	}
	running, err = sm.IsRunning("Platformer")
	if err != nil || running {
		t.Errorf("our own export must not count as another process, got %v %v", running, err)
	}
}

func TestManager_Touch(t *testing.T) {
	sm := state.NewManager(t.TempDir(), nil)
	record, err := sm.Begin("Platformer", "run", request())
	if err != nil {
		t.Fatal(err)
	}
	before := record.Heartbeat

	time.Sleep(10 * time.Millisecond)
	if err := sm.Touch("Platformer"); err != nil {
		t.Fatal(err)
	}
	if !record.Heartbeat.After(before) {
		t.Error("heartbeat was not refreshed")
	}

	if err := sm.Touch("Unknown"); err != nil {
		t.Errorf("touching an unknown project should be a no-op: %v", err)
	}
}

func TestManager_Interrupt(t *testing.T) {
	tmpDir := t.TempDir()
	sm := state.NewManager(tmpDir, nil)

	if err := sm.Interrupt("Platformer"); err != nil {
		t.Fatalf("interrupting an unknown project should do nothing: %v", err)
	}

	if _, err := sm.Begin("Platformer", "run-1", request()); err != nil {
		t.Fatal(err)
	}
	if err := sm.Interrupt("Platformer"); err != nil {
		t.Fatal(err)
	}

	record, err := state.NewManager(tmpDir, nil).Read("Platformer")
	if err != nil {
		t.Fatal(err)
	}
	if record.Status != types.ExportStatusFailed || record.Phase != state.PhaseInterrupted {
		t.Errorf("unexpected outcome %s in %s", record.Status, record.Phase)
	}
	if record.FailureCount != 1 {
		t.Errorf("expected 1 failure, got %d", record.FailureCount)
	}

	// The run still finishes afterwards without being counted twice
	if err := sm.Finish("Platformer", types.ExportStatusFailed, "CompilingScenes", time.Second, []string{"context canceled"}); err != nil {
		t.Fatal(err)
	}
	record, err = sm.Read("Platformer")
	if err != nil {
		t.Fatal(err)
	}
	if record.FailureCount != 1 || record.Phase != "CompilingScenes" {
		t.Errorf("expected 1 failure in CompilingScenes, got %d in %s", record.FailureCount, record.Phase)
	}

	if err := sm.Interrupt("Platformer"); err != nil {
		t.Fatal(err)
	}
	if record, _ := sm.Read("Platformer"); record.FailureCount != 1 {
		t.Errorf("a finished export must not be interrupted, got %d failures", record.FailureCount)
	}
}
