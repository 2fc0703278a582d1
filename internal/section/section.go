// Package section 把 provider 读操作绑定到 async.Adapter，并从适配器快照派生页面视图状态。
//
// 每个 section 的查询参数就是它的依赖集：参数变化时自动重新拉取，参数不变时复用上一次结果。
package section

import (
	"context"
	"strconv"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/John-Robertt/folio/internal/async"
	"github.com/John-Robertt/folio/internal/i18n"
)

// State 是派生出的视图状态。
type State string

const (
	StateLoading State = "loading"
	StateError   State = "error"
	StateReady   State = "ready"
	StateEmpty   State = "empty"
)

// View 是某个 section 当前可渲染的内容。
type View struct {
	Section string `json:"section"`
	State   State  `json:"state"`
	Data    any    `json:"data"`
	// Error 是本地化的错误文案；Detail 是原始错误消息。
	Error   string `json:"error,omitempty"`
	Detail  string `json:"detail,omitempty"`
	Message string `json:"message,omitempty"`
	// Display 是按语言格式化后的展示字段（仅 ready 状态）。
	Display any    `json:"display,omitempty"`
}

// Params 是来自查询字符串的参数（只取每个键的第一个值）。
type Params map[string]string

func (p Params) stringOr(key, def string) string {
	if v := strings.TrimSpace(p[key]); v != "" {
		return v
	}
	return def
}

func (p Params) intOr(key string, def int) int {
	n, err := strconv.Atoi(strings.TrimSpace(p[key]))
	if err != nil || n <= 0 {
		return def
	}
	return n
}

func (p Params) flag(key string) bool {
	b, _ := strconv.ParseBool(strings.TrimSpace(p[key]))
	return b
}

// Section 是 server / export / refresh 共用的非泛型视图接口。
type Section interface {
	Name() string
	// Provider 返回该 section 依赖的 provider 名。
	Provider() string
	View(loc i18n.Localizer) View
	// Apply 用新参数替换依赖集；有变化时触发一次后台拉取并返回 true。
	Apply(p Params) bool
	// Refresh 手动拉取一次并等待结算。
	Refresh(ctx context.Context, loc i18n.Localizer) View
	Wait()
	Close()
}

// Options 是所有 section 共享的适配器配置。
type Options struct {
	Logger     zerolog.Logger
	Observer   async.Observer
	LatestOnly bool
	// Skip 为 true 时构造后不自动拉取（导出时由调用方显式 Refresh）。
	Skip bool
}

// binding 是 Section 的泛型实现：P 是规范化后的参数（同时充当依赖），T 是数据类型。
type binding[T any, P comparable] struct {
	name     string
	provider string
	parse    func(Params) P
	load     func(ctx context.Context, p P) (T, error)
	empty    func(T) bool
	present  func(T, i18n.Localizer) any

	mu     sync.Mutex
	params P

	a *async.Adapter[T]
}

func newBinding[T any, P comparable](
	name, provider string,
	opts Options,
	initial T,
	parse func(Params) P,
	load func(context.Context, P) (T, error),
	empty func(T) bool,
) *binding[T, P] {
	b := &binding[T, P]{
		name:     name,
		provider: provider,
		parse:    parse,
		load:     load,
		empty:    empty,
		params:   parse(nil),
	}
	aopts := []async.Option[T]{
		async.WithName[T](name),
		async.WithInitial(initial),
		async.WithDeps[T](b.params),
		async.WithLogger[T](opts.Logger),
	}
	if opts.Observer != nil {
		aopts = append(aopts, async.WithObserver[T](opts.Observer))
	}
	if opts.LatestOnly {
		aopts = append(aopts, async.WithLatestOnly[T]())
	}
	if opts.Skip {
		aopts = append(aopts, async.WithSkip[T]())
	}
	b.a = async.New(async.NoArgs(func(ctx context.Context) (T, error) {
		return b.load(ctx, b.current())
	}), aopts...)
	return b
}

func (b *binding[T, P]) Name() string     { return b.name }
func (b *binding[T, P]) Provider() string { return b.provider }

func (b *binding[T, P]) current() P {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.params
}

func (b *binding[T, P]) Apply(p Params) bool {
	np := b.parse(p)
	b.mu.Lock()
	b.params = np
	b.mu.Unlock()
	return b.a.SetDeps(np)
}

func (b *binding[T, P]) Refresh(ctx context.Context, loc i18n.Localizer) View {
	b.a.Execute(ctx)
	return b.View(loc)
}

func (b *binding[T, P]) View(loc i18n.Localizer) View {
	s := b.a.Snapshot()
	v := derive(b.name, s, b.empty, loc)
	if v.State == StateReady && b.present != nil {
		v.Display = b.present(s.Data, loc)
	}
	return v
}

func (b *binding[T, P]) Wait()  { b.a.Wait() }
func (b *binding[T, P]) Close() { b.a.Close() }

// derive 的优先级：loading > error > empty > ready。
func derive[T any](name string, s async.State[T], empty func(T) bool, loc i18n.Localizer) View {
	v := View{Section: name, Data: s.Data}
	switch {
	case s.Loading:
		v.State = StateLoading
	case s.Err != "":
		v.State = StateError
		v.Error = loc.T("section." + name + ".error")
		v.Detail = s.Err
	case empty != nil && empty(s.Data):
		v.State = StateEmpty
		v.Message = loc.T("section.empty")
	default:
		v.State = StateReady
	}
	return v
}

func emptySlice[E any](v []E) bool { return len(v) == 0 }

// noLocale 用于不需要文案的刷新路径（结果只写入适配器状态）。
var noLocale i18n.Localizer
