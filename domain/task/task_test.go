package task_test

import (
	"testing"

	"github.com/gimlabs/gim/domain/task"
)

func TestParseOperation(t *testing.T) {
	known := []string{
		"gim.janitor.sweep",
		"gim.events.flush",
		"gim.ingest.scout",
		"gim.profile.recompute",
		"gim.stats.refresh",
	}
	for _, s := range known {
		op, err := task.ParseOperation(s)
		if err != nil {
			t.Errorf("ParseOperation(%q) = %v", s, err)
		}
		if op.String() != s {
			t.Errorf("round trip %q != %q", op.String(), s)
		}
	}
	if _, err := task.ParseOperation("gim.unknown"); err == nil {
		t.Error("unknown operation accepted")
	}
}

func TestNewTask_DedupKey(t *testing.T) {
	bare := task.NewTask(task.OperationJanitorSweep, task.PriorityBackground, nil)
	if bare.DedupKey() != "gim.janitor.sweep" {
		t.Errorf("bare dedup key = %q", bare.DedupKey())
	}

	a := task.NewTask(task.OperationProfileRecompute, task.PriorityNormal, map[string]any{"user_id": "u1", "reason": "resume"})
	b := task.NewTask(task.OperationProfileRecompute, task.PriorityNormal, map[string]any{"reason": "resume", "user_id": "u1"})
	if a.DedupKey() != b.DedupKey() {
		t.Errorf("dedup key unstable across map order: %q vs %q", a.DedupKey(), b.DedupKey())
	}
	if a.DedupKey() != "gim.profile.recompute:reason=resume,user_id=u1" {
		t.Errorf("dedup key = %q", a.DedupKey())
	}

	c := task.NewTask(task.OperationProfileRecompute, task.PriorityNormal, map[string]any{"user_id": "u2"})
	if a.DedupKey() == c.DedupKey() {
		t.Error("different payloads collided")
	}
}

func TestTask_PayloadCopies(t *testing.T) {
	payload := map[string]any{"user_id": "u1"}
	tk := task.NewTask(task.OperationProfileRecompute, task.PriorityNormal, payload)
	payload["user_id"] = "mutated"
	if tk.Payload()["user_id"] != "u1" {
		t.Error("task shares the caller's payload map")
	}
	got := tk.Payload()
	got["user_id"] = "mutated"
	if tk.Payload()["user_id"] != "u1" {
		t.Error("accessor leaks the internal map")
	}
}

func TestPeriodicOperations_KnownSet(t *testing.T) {
	for _, op := range task.PeriodicOperations() {
		if _, err := task.ParseOperation(op.String()); err != nil {
			t.Errorf("periodic operation %q fails ParseOperation", op)
		}
	}
}
