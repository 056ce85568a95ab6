package task

import (
	"fmt"
	"sync"
	"testing"
	"time"
)

func TestRegistry_CreateInitialState(t *testing.T) {
	r := NewRegistry()
	id := r.Create(TypeImageGeneration)

	got, ok := r.Get(id)
	if !ok {
		t.Fatalf("Get(%q) not found right after Create", id)
	}
	if got.Status != StatusPending {
		t.Errorf("Status = %q, want %q", got.Status, StatusPending)
	}
	if got.Progress != 0 {
		t.Errorf("Progress = %d, want 0", got.Progress)
	}
	if got.Type != TypeImageGeneration {
		t.Errorf("Type = %q, want %q", got.Type, TypeImageGeneration)
	}
	if got.CreatedAt.IsZero() || got.UpdatedAt.IsZero() {
		t.Error("timestamps should be set at creation")
	}
}

func TestRegistry_PartialUpdate(t *testing.T) {
	r := NewRegistry()
	id := r.Create(TypeImageGeneration)

	r.Update(id, Patch{Status: String(StatusProcessing), Progress: Int(5), ProgressMessage: String("step one")})
	first, _ := r.Get(id)

	// 只更新进度，其他字段必须保持
	r.Update(id, Patch{Progress: Int(40)})
	second, _ := r.Get(id)

	if second.Status != StatusProcessing {
		t.Errorf("Status = %q, want it to persist as %q", second.Status, StatusProcessing)
	}
	if second.ProgressMessage != "step one" {
		t.Errorf("ProgressMessage = %q, want it to persist", second.ProgressMessage)
	}
	if second.Progress != 40 {
		t.Errorf("Progress = %d, want 40", second.Progress)
	}
	if second.UpdatedAt.Before(first.UpdatedAt) {
		t.Error("UpdatedAt went backwards")
	}
}

func TestRegistry_UpdateUnknownIDIsNoop(t *testing.T) {
	r := NewRegistry()
	// 不应panic，也不应创建记录
	r.Update("no-such-id", Patch{Status: String(StatusFailed)})
	if _, ok := r.Get("no-such-id"); ok {
		t.Error("Update on unknown id must not create a record")
	}
}

func TestRegistry_TerminalStateSticks(t *testing.T) {
	r := NewRegistry()
	id := r.Create(TypeImageGeneration)

	r.Update(id, Patch{Status: String(StatusFailed), Error: String("boom")})
	r.Update(id, Patch{Status: String(StatusProcessing)})

	got, _ := r.Get(id)
	if got.Status != StatusFailed {
		t.Errorf("Status = %q, terminal state must not transition away", got.Status)
	}
	if got.Error != "boom" {
		t.Errorf("Error = %q, want %q", got.Error, "boom")
	}
}

func TestRegistry_Sweep(t *testing.T) {
	r := NewRegistry()
	oldID := r.Create(TypeImageGeneration)
	youngID := r.Create(TypeImageGeneration)

	// 把一条记录的创建时间拨回两小时前
	s := r.shardFor(oldID)
	s.mu.Lock()
	s.tasks[oldID].CreatedAt = time.Now().Add(-2 * time.Hour)
	s.mu.Unlock()

	removed := r.Sweep(time.Hour)
	if removed != 1 {
		t.Errorf("Sweep removed %d, want 1", removed)
	}
	if _, ok := r.Get(oldID); ok {
		t.Error("task older than max age must be removed")
	}
	if _, ok := r.Get(youngID); !ok {
		t.Error("task younger than max age must survive the sweep")
	}
}

func TestRegistry_ConcurrentUpdates(t *testing.T) {
	r := NewRegistry()
	ids := make([]string, 16)
	for i := range ids {
		ids[i] = r.Create(TypeImageGeneration)
	}

	var wg sync.WaitGroup
	for i, id := range ids {
		wg.Add(1)
		go func(i int, id string) {
			defer wg.Done()
			for p := 0; p <= 100; p += 5 {
				r.Update(id, Patch{Progress: Int(p), ProgressMessage: String(fmt.Sprintf("worker %d", i))})
				r.Get(id)
			}
		}(i, id)
	}
	wg.Wait()

	for _, id := range ids {
		got, ok := r.Get(id)
		if !ok {
			t.Fatalf("task %s missing after concurrent updates", id)
		}
		if got.Progress != 100 {
			t.Errorf("Progress = %d, want 100", got.Progress)
		}
	}
}
