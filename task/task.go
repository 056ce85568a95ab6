// task/task.go
package task

import "time"

// 状态常量
const (
	StatusPending    = "pending"
	StatusProcessing = "processing"
	StatusSucceed    = "succeed"
	StatusFailed     = "failed"
)

// 任务类型
const (
	TypeImageGeneration = "image_generation"
)

// Task 是一次生成请求的完整生命周期记录，只能通过 Registry 读写
type Task struct {
	ID              string                 `json:"id"`
	Type            string                 `json:"type"`
	Status          string                 `json:"status"`
	Progress        int                    `json:"progress"`
	ProgressMessage string                 `json:"progress_message"`
	Result          map[string]interface{} `json:"result"`
	Error           string                 `json:"error"`
	CreatedAt       time.Time              `json:"created_at"`
	UpdatedAt       time.Time              `json:"updated_at"`
}

// Terminal 终态任务不再接受状态迁移
func (t *Task) Terminal() bool {
	return t.Status == StatusSucceed || t.Status == StatusFailed
}

// String / Int 构造 Patch 用的指针辅助函数
func String(s string) *string { return &s }

func Int(i int) *int { return &i }
