package task

import (
	"context"
	"hash/fnv"
	"sync"
	"time"

	"github.com/google/uuid"
)

const shardCount = 32

// Patch 部分更新：只有非 nil 的字段会被写入
type Patch struct {
	Status          *string
	Progress        *int
	ProgressMessage *string
	Result          map[string]interface{}
	Error           *string
}

type shard struct {
	mu    sync.RWMutex
	tasks map[string]*Task
}

// Registry 持有所有任务记录。按任务ID分片加锁，
// 一个任务的更新不会阻塞其他分片上的读写。
type Registry struct {
	shards [shardCount]*shard
}

func NewRegistry() *Registry {
	r := &Registry{}
	for i := range r.shards {
		r.shards[i] = &shard{tasks: make(map[string]*Task)}
	}
	return r
}

func (r *Registry) shardFor(id string) *shard {
	h := fnv.New32a()
	h.Write([]byte(id))
	return r.shards[h.Sum32()%shardCount]
}

// Create 新建 pending 任务并返回任务ID
func (r *Registry) Create(taskType string) string {
	id := uuid.New().String()
	now := time.Now()
	t := &Task{
		ID:              id,
		Type:            taskType,
		Status:          StatusPending,
		Progress:        0,
		ProgressMessage: "初始化...",
		CreatedAt:       now,
		UpdatedAt:       now,
	}
	s := r.shardFor(id)
	s.mu.Lock()
	s.tasks[id] = t
	s.mu.Unlock()
	return id
}

// Update 部分更新任务。未知ID静默忽略：调用方可能与清理 goroutine 竞争。
// 终态任务不再接受状态迁移。
func (r *Registry) Update(id string, p Patch) {
	s := r.shardFor(id)
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tasks[id]
	if !ok {
		return
	}
	if p.Status != nil && !t.Terminal() {
		t.Status = *p.Status
	}
	if p.Progress != nil {
		t.Progress = *p.Progress
	}
	if p.ProgressMessage != nil {
		t.ProgressMessage = *p.ProgressMessage
	}
	if p.Result != nil {
		t.Result = p.Result
	}
	if p.Error != nil {
		t.Error = *p.Error
	}
	t.UpdatedAt = time.Now()
}

// Get 返回任务快照
func (r *Registry) Get(id string) (Task, bool) {
	s := r.shardFor(id)
	s.mu.RLock()
	defer s.mu.RUnlock()
	t, ok := s.tasks[id]
	if !ok {
		return Task{}, false
	}
	return *t, true
}

// Sweep 清理创建时间早于 maxAge 的任务，返回清理数量
func (r *Registry) Sweep(maxAge time.Duration) int {
	cutoff := time.Now().Add(-maxAge)
	removed := 0
	for _, s := range r.shards {
		s.mu.Lock()
		for id, t := range s.tasks {
			if t.CreatedAt.Before(cutoff) {
				delete(s.tasks, id)
				removed++
			}
		}
		s.mu.Unlock()
	}
	return removed
}

// RunSweeper 周期清理过期任务，ctx 取消时退出
func (r *Registry) RunSweeper(ctx context.Context, interval, maxAge time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			r.Sweep(maxAge)
		}
	}
}
