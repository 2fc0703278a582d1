package export

import (
	"encoding/json"
	"sort"
	"time"
)

const (
	StatusWritten = "written"
	StatusEmpty   = "empty"
	StatusFailed  = "failed"
)

const (
	ErrCodeSectionError   = "section_error"
	ErrCodeTargetConflict = "target_conflict"
	ErrCodeTargetExists   = "target_exists"
	ErrCodeIOFailed       = "io_failed"
	ErrCodeEncodeFailed   = "encode_failed"
	ErrCodeCanceled       = "canceled"
	ErrCodeUnknownSection = "unknown_section"
)

// Report 是 export 对外稳定输出（stdout JSON）的结构。
type Report struct {
	Dir    string `json:"dir"`
	Locale string `json:"locale"`

	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`

	Summary Summary      `json:"summary"`
	Items   []ItemResult `json:"items"`
}

type Summary struct {
	Written int `json:"written"`
	Empty   int `json:"empty"`
	Failed  int `json:"failed"`
}

type ItemResult struct {
	Section  string `json:"section"`
	Provider string `json:"provider"`
	File     string `json:"file"`
	State    string `json:"state"`

	Status    string `json:"status"`
	ErrorCode string `json:"error_code"`
	ErrorMsg  string `json:"error_msg"`

	DurationMS int64 `json:"duration_ms"`
}

// Failed 报告是否存在失败条目（CLI 据此决定退出码）。
func (r Report) Failed() bool { return r.Summary.Failed > 0 }

// Finalize：
// 1) 时间统一为 UTC
// 2) items 按 section 名稳定排序；section=="" 的合成项排在最后
// 3) summary 由 items 计算得出
func (r *Report) Finalize() {
	r.StartedAt = r.StartedAt.UTC()
	r.FinishedAt = r.FinishedAt.UTC()

	sort.SliceStable(r.Items, func(i, j int) bool {
		a := r.Items[i].Section
		b := r.Items[j].Section
		if a == "" {
			return false
		}
		if b == "" {
			return true
		}
		return a < b
	})

	var s Summary
	for _, it := range r.Items {
		switch it.Status {
		case StatusWritten:
			s.Written++
		case StatusEmpty:
			s.Empty++
		case StatusFailed:
			s.Failed++
		}
	}
	r.Summary = s
	if r.Items == nil {
		r.Items = []ItemResult{}
	}
}

// MarshalJSON 集中约束输出的稳定性；当前透传 encoding/json 的默认行为。
func (r Report) MarshalJSON() ([]byte, error) {
	type Alias Report
	return json.Marshal(Alias(r))
}
