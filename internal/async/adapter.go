// Package async 把一个可能失败的异步操作包装成可观察的三元状态 {Data, Loading, Err}。
//
// 生命周期：
//   - 构造时（非 skip 模式）自动发起一次调用；
//   - SetDeps 检测到依赖变化时再自动发起一次调用；
//   - Execute 供调用方手动触发；
//   - Close 之后所有在途调用的结算都不再写状态。
package async

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// FallbackMessage 是错误没有可用文本时写入 Err 的消息。
const FallbackMessage = "An error occurred"

// Func 是被适配的异步操作。args 原样来自 Execute；自动调用时 args 为空。
type Func[T any] func(ctx context.Context, args ...any) (T, error)

// NoArgs 把不关心参数的函数适配为 Func。
func NoArgs[T any](f func(ctx context.Context) (T, error)) Func[T] {
	return func(ctx context.Context, _ ...any) (T, error) { return f(ctx) }
}

// State 是某一时刻的快照。Err 为空串表示没有错误。
type State[T any] struct {
	Data    T      `json:"data"`
	Loading bool   `json:"loading"`
	Err     string `json:"error,omitempty"`
}

// Observer 接收调用开始与结算事件。
//
// 约束：实现必须并发安全；回调在适配器锁之外执行。
type Observer interface {
	OnStart(name string, gen uint64)
	// OnSettle 在调用结算时触发；stale=true 表示结果因 latest-only 或已拆除而被丢弃。
	OnSettle(name string, gen uint64, errMsg string, stale bool, dur time.Duration)
}

type options[T any] struct {
	name       string
	skip       bool
	initial    T
	deps       []any
	latestOnly bool
	obs        Observer
	log        zerolog.Logger
}

type Option[T any] func(*options[T])

// WithSkip 跳过构造时的自动调用，且依赖变化也不会自动调用；只能通过 Execute 触发。
func WithSkip[T any]() Option[T] { return func(o *options[T]) { o.skip = true } }

// WithInitial 设置首次结算前的 Data。
func WithInitial[T any](v T) Option[T] { return func(o *options[T]) { o.initial = v } }

// WithDeps 设置初始依赖集（与之后 SetDeps 的参数做比较）。
func WithDeps[T any](deps ...any) Option[T] {
	return func(o *options[T]) { o.deps = append([]any(nil), deps...) }
}

// WithLatestOnly 启用 generation 计数：只有最近一次发起的调用可以写状态。
// 不启用时重叠调用按结算先后覆盖，最后结算者胜出。
func WithLatestOnly[T any]() Option[T] { return func(o *options[T]) { o.latestOnly = true } }

func WithName[T any](name string) Option[T] { return func(o *options[T]) { o.name = name } }

func WithObserver[T any](obs Observer) Option[T] { return func(o *options[T]) { o.obs = obs } }

func WithLogger[T any](log zerolog.Logger) Option[T] { return func(o *options[T]) { o.log = log } }

// Adapter 持有一个操作的可观察状态。所有方法并发安全。
type Adapter[T any] struct {
	fn   Func[T]
	opts options[T]

	mu     sync.Mutex
	idle   *sync.Cond // inflight 归零时广播
	state  State[T]
	deps   []any
	gen    uint64
	closed bool

	// inflight 是尚未结算的自动调用数，受 mu 保护。
	inflight int
}

// New 创建适配器；非 skip 模式下立即在后台发起一次调用。
func New[T any](fn Func[T], opts ...Option[T]) *Adapter[T] {
	o := options[T]{log: zerolog.Nop()}
	for _, opt := range opts {
		opt(&o)
	}
	a := &Adapter[T]{
		fn:    fn,
		opts:  o,
		state: State[T]{Data: o.initial, Loading: !o.skip},
		deps:  o.deps,
	}
	a.idle = sync.NewCond(&a.mu)
	a.log().Debug().Bool("skip", o.skip).Msg("适配器已创建")
	if !o.skip {
		a.mu.Lock()
		a.inflight++
		a.mu.Unlock()
		go a.runAuto()
	}
	return a
}

// Snapshot 返回当前状态的副本。
func (a *Adapter[T]) Snapshot() State[T] {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.state
}

// Execute 发起一次调用并等待结算。成功返回 (结果, true)；失败返回 (零值, false)，
// 错误只体现在 Snapshot().Err 中，不向调用方抛出。
func (a *Adapter[T]) Execute(ctx context.Context, args ...any) (T, bool) {
	if ctx == nil {
		ctx = context.Background()
	}

	a.mu.Lock()
	a.gen++
	gen := a.gen
	closed := a.closed
	if !closed {
		a.state.Loading = true
		a.state.Err = ""
	}
	a.mu.Unlock()

	if a.opts.obs != nil {
		a.opts.obs.OnStart(a.opts.name, gen)
	}
	started := time.Now()
	res, err := a.call(ctx, args)
	dur := time.Since(started)

	var errMsg string
	if err != nil {
		errMsg = messageOf(err)
		a.log().Error().Err(err).Uint64("gen", gen).Msg("调用失败")
	}

	a.mu.Lock()
	stale := a.closed || (a.opts.latestOnly && gen != a.gen)
	if !stale {
		if err != nil {
			a.state.Err = errMsg
		} else {
			a.state.Data = res
		}
		a.state.Loading = false
	}
	a.mu.Unlock()

	if a.opts.obs != nil {
		a.opts.obs.OnSettle(a.opts.name, gen, errMsg, stale, dur)
	}

	if err != nil {
		var zero T
		return zero, false
	}
	return res, true
}

// SetDeps 用新的依赖集替换旧的；逐项浅比较有变化时自动发起恰好一次调用，并返回 true。
// skip 模式下只记录依赖，不调用。
func (a *Adapter[T]) SetDeps(deps ...any) bool {
	a.mu.Lock()
	if a.closed || sameDeps(a.deps, deps) {
		a.mu.Unlock()
		return false
	}
	a.deps = append([]any(nil), deps...)
	if a.opts.skip {
		a.mu.Unlock()
		return false
	}
	// 与构造时一致：调用发起前就进入 loading。
	a.state.Loading = true
	a.inflight++
	a.mu.Unlock()

	go a.runAuto()
	return true
}

// Wait 阻塞到所有自动发起的调用结算（测试与优雅退出使用）。
//
// 约束：可与 SetDeps 并发调用；等待期间新发起的自动调用也会被等待。
func (a *Adapter[T]) Wait() {
	a.mu.Lock()
	for a.inflight > 0 {
		a.idle.Wait()
	}
	a.mu.Unlock()
}

// Close 拆除适配器：之后的结算都不再写状态。可重复调用。
// 在途调用不会被中断，照常结算后丢弃结果。
func (a *Adapter[T]) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return
	}
	a.closed = true
	a.log().Debug().Int("inflight", a.inflight).Msg("适配器已拆除")
}

// Closed 报告适配器是否已拆除。
func (a *Adapter[T]) Closed() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.closed
}

// runAuto 执行一次自动调用；调用方已在锁内把 inflight 加一。
func (a *Adapter[T]) runAuto() {
	defer func() {
		a.mu.Lock()
		a.inflight--
		if a.inflight == 0 {
			a.idle.Broadcast()
		}
		a.mu.Unlock()
	}()
	a.Execute(context.Background())
}

// call 执行 fn，并把 panic 转换为 *PanicError。
func (a *Adapter[T]) call(ctx context.Context, args []any) (res T, err error) {
	defer func() {
		if r := recover(); r != nil {
			var zero T
			res, err = zero, &PanicError{Value: r}
		}
	}()
	if a.fn == nil {
		var zero T
		return zero, fmt.Errorf("async: 未提供操作函数")
	}
	return a.fn(ctx, args...)
}

func (a *Adapter[T]) log() *zerolog.Logger {
	l := a.opts.log.With().Str("component", "async").Logger()
	if a.opts.name != "" {
		l = l.With().Str("name", a.opts.name).Logger()
	}
	return &l
}

// PanicError 包装被操作函数抛出的 panic 值。
type PanicError struct {
	Value any
}

func (e *PanicError) Error() string {
	switch v := e.Value.(type) {
	case error:
		return v.Error()
	case string:
		return v
	default:
		return fmt.Sprint(v)
	}
}

func messageOf(err error) string {
	if err == nil {
		return ""
	}
	if s := err.Error(); s != "" {
		return s
	}
	return FallbackMessage
}
