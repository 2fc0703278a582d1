// Package export 一次性拉取全部 section，把视图写成静态 JSON 数据包。
package export

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/John-Robertt/folio/internal/i18n"
	"github.com/John-Robertt/folio/internal/infra/fsx"
	"github.com/John-Robertt/folio/internal/section"
)

// IndexFile 是数据包的清单文件名。
const IndexFile = "index.json"

// Options 控制一次导出。
type Options struct {
	// Concurrency 是同时拉取的 section 数；<1 视为 1。
	Concurrency int
	// Overwrite 为 false 时目标文件已存在即判为失败。
	Overwrite bool
	Localizer i18n.Localizer
	// Params 按 section 名给出查询参数，拉取前通过 Apply 生效。
	Params map[string]section.Params
	// Only 非空时只导出这些 section。
	Only     []string
	Observer Observer
	Logger   zerolog.Logger
}

// Index 是 index.json 的内容。
type Index struct {
	GeneratedAt time.Time    `json:"generated_at"`
	Locale      string       `json:"locale"`
	Sections    []IndexEntry `json:"sections"`
}

type IndexEntry struct {
	Name  string `json:"name"`
	File  string `json:"file"`
	State string `json:"state"`
}

// Execute 拉取 set 中的 section 并写入 dir，返回对外稳定的 Report。
// 单个 section 失败只影响自身条目。
//
// 约束：set 应以 Skip 模式构造，否则 Apply 会额外触发一次后台拉取。
func Execute(ctx context.Context, set *section.Set, dir string, opts Options) Report {
	started := time.Now().UTC()
	log := opts.Logger

	rr := Report{
		Dir:       dir,
		Locale:    opts.Localizer.Lang(),
		StartedAt: started,
		Items:     make([]ItemResult, 0, 8),
	}
	finish := func() Report {
		rr.FinishedAt = time.Now().UTC()
		rr.Finalize()
		if opts.Observer != nil {
			opts.Observer.OnFinish(rr)
		}
		return rr
	}

	targets, missing := pick(set, opts.Only)
	for _, name := range missing {
		rr.Items = append(rr.Items, ItemResult{
			Section:   name,
			Status:    StatusFailed,
			ErrorCode: ErrCodeUnknownSection,
			ErrorMsg:  fmt.Sprintf("未知 section：%s", name),
		})
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		rr.Items = append(rr.Items, syntheticFailed(ErrCodeIOFailed, fmt.Sprintf("创建输出目录失败：%v", err)))
		return finish()
	}

	workers := opts.Concurrency
	if workers < 1 {
		workers = 1
	}

	names := make([]string, 0, len(targets))
	for _, sec := range targets {
		names = append(names, sec.Name())
	}
	if opts.Observer != nil {
		opts.Observer.OnStart(dir, names, workers)
	}

	var (
		mu   sync.Mutex
		done int
		g    errgroup.Group
	)
	g.SetLimit(workers)
	total := len(targets)

	for _, sec := range targets {
		g.Go(func() error {
			oneStarted := time.Now()
			res := exportOne(ctx, sec, dir, opts)
			dur := time.Since(oneStarted)
			res.DurationMS = dur.Milliseconds()

			ev := log.Debug()
			if res.Status == StatusFailed {
				ev = log.Warn()
			}
			ev.Str("section", res.Section).
				Str("status", res.Status).
				Str("error_code", res.ErrorCode).
				Dur("dur", dur).
				Msg("section 导出完成")

			mu.Lock()
			defer mu.Unlock()
			rr.Items = append(rr.Items, res)
			done++
			if opts.Observer != nil {
				opts.Observer.OnItemDone(done, total, res, dur)
			}
			// 条目级失败已记录在 res 中，不中断其他 section。
			return nil
		})
	}
	_ = g.Wait()

	if err := writeIndex(dir, rr, opts.Overwrite); err != nil {
		rr.Items = append(rr.Items, syntheticFailed(writeErrCode(err), fmt.Sprintf("写入 %s 失败：%v", IndexFile, err)))
	}
	return finish()
}

func pick(set *section.Set, only []string) (targets []section.Section, missing []string) {
	if len(only) == 0 {
		return set.All(), nil
	}
	seen := make(map[string]struct{}, len(only))
	for _, raw := range only {
		name := strings.ToLower(strings.TrimSpace(raw))
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		sec, ok := set.Get(name)
		if !ok {
			missing = append(missing, name)
			continue
		}
		targets = append(targets, sec)
	}
	return targets, missing
}

func exportOne(ctx context.Context, sec section.Section, dir string, opts Options) ItemResult {
	name := sec.Name()
	res := ItemResult{Section: name, Provider: sec.Provider()}

	if err := ctx.Err(); err != nil {
		return failed(res, ErrCodeCanceled, err.Error())
	}
	if p, ok := opts.Params[name]; ok {
		sec.Apply(p)
	}

	view := sec.Refresh(ctx, opts.Localizer)
	res.State = string(view.State)
	if err := ctx.Err(); err != nil {
		return failed(res, ErrCodeCanceled, err.Error())
	}

	b, err := json.MarshalIndent(view, "", "  ")
	if err != nil {
		return failed(res, ErrCodeEncodeFailed, err.Error())
	}
	file := name + ".json"
	if err := writeFile(dir, file, b, opts.Overwrite); err != nil {
		return failed(res, writeErrCode(err), err.Error())
	}
	res.File = file

	switch view.State {
	case section.StateError:
		msg := view.Detail
		if msg == "" {
			msg = view.Error
		}
		return failed(res, ErrCodeSectionError, msg)
	case section.StateEmpty:
		res.Status = StatusEmpty
	default:
		res.Status = StatusWritten
	}
	return res
}

func writeIndex(dir string, rr Report, overwrite bool) error {
	idx := Index{
		GeneratedAt: time.Now().UTC(),
		Locale:      rr.Locale,
		Sections:    make([]IndexEntry, 0, len(rr.Items)),
	}
	// 按与 Report 相同的顺序输出。
	sorted := rr
	sorted.Items = append([]ItemResult(nil), rr.Items...)
	sorted.Finalize()
	for _, it := range sorted.Items {
		if it.File == "" {
			continue
		}
		idx.Sections = append(idx.Sections, IndexEntry{Name: it.Section, File: it.File, State: it.State})
	}
	b, err := json.MarshalIndent(idx, "", "  ")
	if err != nil {
		return err
	}
	return writeFile(dir, IndexFile, b, overwrite)
}

func writeFile(dir, name string, data []byte, overwrite bool) error {
	data = append(data, '\n')
	if overwrite {
		return fsx.WriteFileAtomic(dir, name, data)
	}
	return fsx.WriteFileAtomicNoOverwrite(dir, name, data)
}

func writeErrCode(err error) string {
	switch {
	case fsx.IsPathTypeConflict(err):
		return ErrCodeTargetConflict
	case errors.Is(err, os.ErrExist):
		return ErrCodeTargetExists
	default:
		return ErrCodeIOFailed
	}
}

func failed(res ItemResult, code, msg string) ItemResult {
	res.Status = StatusFailed
	res.ErrorCode = code
	res.ErrorMsg = msg
	return res
}

func syntheticFailed(code, msg string) ItemResult {
	return ItemResult{Status: StatusFailed, ErrorCode: code, ErrorMsg: msg}
}
