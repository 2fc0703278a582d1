package export

import "time"

// Observer 把导出进度从执行流程中解耦出来。
//
// 约束：
// - export 包只发事件，不做任何输出（stdout 只留给 Report JSON）。
// - 实现必须并发安全：OnItemDone 可能来自多个 goroutine。
type Observer interface {
	// OnStart 在拉取开始前调用一次。
	OnStart(dir string, sections []string, workers int)
	// OnItemDone 在某个 section 写完（或失败）时调用；done 从 1 开始递增。
	OnItemDone(done, total int, res ItemResult, dur time.Duration)
	// OnFinish 在 Report.Finalize 之后调用。
	OnFinish(r Report)
}
