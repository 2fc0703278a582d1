package async

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestNew_AutoInvokes(t *testing.T) {
	calls := 0
	a := New(NoArgs(func(context.Context) (int, error) {
		calls++
		return 42, nil
	}), WithInitial(7))
	defer a.Close()

	a.Wait()
	s := a.Snapshot()
	if calls != 1 {
		t.Fatalf("构造时应自动调用一次，实际 %d", calls)
	}
	if s.Data != 42 || s.Loading || s.Err != "" {
		t.Fatalf("状态不符合预期：%+v", s)
	}
}

func TestNew_LoadingBeforeSettle(t *testing.T) {
	release := make(chan struct{})
	a := New(NoArgs(func(context.Context) (string, error) {
		<-release
		return "ok", nil
	}), WithInitial("init"))
	defer a.Close()

	s := a.Snapshot()
	if !s.Loading || s.Data != "init" || s.Err != "" {
		t.Fatalf("结算前应为 loading 且保留初始值：%+v", s)
	}
	close(release)
	a.Wait()
	if s := a.Snapshot(); s.Loading || s.Data != "ok" {
		t.Fatalf("结算后状态不符合预期：%+v", s)
	}
}

func TestSkip_NoCallUntilExecute(t *testing.T) {
	calls := 0
	a := New(NoArgs(func(context.Context) (int, error) {
		calls++
		return calls, nil
	}), WithSkip[int](), WithInitial(-1))
	defer a.Close()

	a.Wait()
	if s := a.Snapshot(); s.Loading || s.Data != -1 || calls != 0 {
		t.Fatalf("skip 模式不应调用且不应 loading：%+v calls=%d", s, calls)
	}
	if a.SetDeps("x") {
		t.Fatalf("skip 模式下依赖变化不应自动调用")
	}

	v, ok := a.Execute(context.Background())
	if !ok || v != 1 || calls != 1 {
		t.Fatalf("Execute 结果不符合预期：v=%d ok=%v calls=%d", v, ok, calls)
	}
}

func TestExecute_FailureKeepsData(t *testing.T) {
	fail := false
	a := New(NoArgs(func(context.Context) ([]string, error) {
		if fail {
			return nil, errors.New("boom")
		}
		return []string{"a"}, nil
	}))
	defer a.Close()
	a.Wait()

	fail = true
	v, ok := a.Execute(context.Background())
	if ok || v != nil {
		t.Fatalf("失败时期望 (nil,false)，实际 (%v,%v)", v, ok)
	}
	s := a.Snapshot()
	if s.Err != "boom" || s.Loading {
		t.Fatalf("错误状态不符合预期：%+v", s)
	}
	if len(s.Data) != 1 || s.Data[0] != "a" {
		t.Fatalf("失败不应清除上一次成功的数据：%+v", s.Data)
	}

	fail = false
	if _, ok := a.Execute(context.Background()); !ok {
		t.Fatalf("期望成功")
	}
	if s := a.Snapshot(); s.Err != "" {
		t.Fatalf("新调用应清除旧错误：%+v", s)
	}
}

func TestExecute_FallbackMessageAndPanic(t *testing.T) {
	a := New(NoArgs(func(context.Context) (int, error) {
		return 0, errors.New("")
	}), WithSkip[int]())
	defer a.Close()
	a.Execute(context.Background())
	if got := a.Snapshot().Err; got != FallbackMessage {
		t.Fatalf("期望回退文本，实际 %q", got)
	}

	p := New(NoArgs(func(context.Context) (int, error) {
		panic("kaboom")
	}), WithSkip[int]())
	defer p.Close()
	if _, ok := p.Execute(context.Background()); ok {
		t.Fatalf("panic 应视为失败")
	}
	if got := p.Snapshot().Err; got != "kaboom" {
		t.Fatalf("panic 消息不符合预期：%q", got)
	}
}

func TestExecute_PassesArgs(t *testing.T) {
	a := New(func(_ context.Context, args ...any) (string, error) {
		if len(args) != 2 {
			return "", errors.New("参数个数错误")
		}
		return args[0].(string) + "/" + args[1].(string), nil
	}, WithSkip[string]())
	defer a.Close()

	v, ok := a.Execute(context.Background(), "u", "repo")
	if !ok || v != "u/repo" {
		t.Fatalf("期望 u/repo，实际 %q ok=%v", v, ok)
	}
}

func TestSetDeps_TriggersExactlyOnce(t *testing.T) {
	var mu sync.Mutex
	calls := 0
	a := New(NoArgs(func(context.Context) (int, error) {
		mu.Lock()
		defer mu.Unlock()
		calls++
		return calls, nil
	}), WithDeps[int]("go", 10))
	defer a.Close()
	a.Wait()

	if a.SetDeps("go", 10) {
		t.Fatalf("依赖未变不应触发")
	}
	if !a.SetDeps("rust", 10) {
		t.Fatalf("依赖变化应触发")
	}
	a.Wait()
	if a.SetDeps("rust", 10) {
		t.Fatalf("相同依赖再次设置不应触发")
	}
	a.Wait()

	mu.Lock()
	defer mu.Unlock()
	if calls != 2 {
		t.Fatalf("期望共 2 次调用，实际 %d", calls)
	}
}

func TestSameDeps_Identity(t *testing.T) {
	s := []int{1, 2}
	m := map[string]int{"a": 1}
	type pair struct{ A, B int }
	type withSlice struct{ S []int }

	cases := []struct {
		name string
		a, b []any
		want bool
	}{
		{"空", nil, []any{}, true},
		{"长度不同", []any{1}, []any{1, 2}, false},
		{"值相等", []any{"x", 1, true}, []any{"x", 1, true}, true},
		{"类型不同", []any{1}, []any{int64(1)}, false},
		{"同一切片", []any{s}, []any{s}, true},
		{"内容相同的不同切片", []any{s}, []any{[]int{1, 2}}, false},
		{"同一 map", []any{m}, []any{m}, true},
		{"可比较结构体", []any{pair{1, 2}}, []any{pair{1, 2}}, true},
		{"不可比较结构体", []any{withSlice{s}}, []any{withSlice{s}}, false},
		{"nil 与非 nil", []any{nil}, []any{0}, false},
		{"nil 与 nil", []any{nil}, []any{nil}, true},
	}
	for _, tc := range cases {
		if got := sameDeps(tc.a, tc.b); got != tc.want {
			t.Fatalf("%s：期望 %v，实际 %v", tc.name, tc.want, got)
		}
	}
}

func TestOverlappingCalls_LastSettledWins(t *testing.T) {
	slow := make(chan struct{})
	a := New(func(_ context.Context, args ...any) (string, error) {
		if args[0] == "slow" {
			<-slow
		}
		return args[0].(string), nil
	}, WithSkip[string]())
	defer a.Close()

	done := make(chan struct{})
	go func() {
		a.Execute(context.Background(), "slow")
		close(done)
	}()
	waitLoading(t, a)

	a.Execute(context.Background(), "fast")
	close(slow)
	<-done

	if got := a.Snapshot().Data; got != "slow" {
		t.Fatalf("默认模式下最后结算者胜出，期望 slow，实际 %q", got)
	}
}

func TestOverlappingCalls_LatestOnly(t *testing.T) {
	slow := make(chan struct{})
	obs := &recordingObserver{}
	a := New(func(_ context.Context, args ...any) (string, error) {
		if args[0] == "slow" {
			<-slow
		}
		return args[0].(string), nil
	}, WithSkip[string](), WithLatestOnly[string](), WithObserver[string](obs), WithName[string]("gallery"))
	defer a.Close()

	done := make(chan struct{})
	go func() {
		a.Execute(context.Background(), "slow")
		close(done)
	}()
	waitLoading(t, a)

	a.Execute(context.Background(), "fast")
	close(slow)
	<-done

	if got := a.Snapshot().Data; got != "fast" {
		t.Fatalf("latest-only 下应保留最新调用的结果，实际 %q", got)
	}
	if obs.staleCount() != 1 {
		t.Fatalf("期望 1 次过期结算，实际 %d", obs.staleCount())
	}
}

func TestClose_SettleIsNoop(t *testing.T) {
	release := make(chan struct{})
	a := New(NoArgs(func(ctx context.Context) (int, error) {
		<-release
		return 99, nil
	}), WithInitial(1))

	a.Close()
	a.Close()
	close(release)
	a.Wait()

	s := a.Snapshot()
	if s.Data != 1 || !s.Loading {
		t.Fatalf("拆除后结算不应写状态：%+v", s)
	}
	if a.SetDeps("x") {
		t.Fatalf("拆除后不应再自动调用")
	}
	if !a.Closed() {
		t.Fatalf("期望 Closed=true")
	}
}

func TestClose_InFlightCallSettlesUncanceled(t *testing.T) {
	release := make(chan struct{})
	ctxErr := make(chan error, 1)
	a := New(NoArgs(func(ctx context.Context) (int, error) {
		<-release
		ctxErr <- ctx.Err()
		return 7, nil
	}), WithInitial(1))

	a.Close()
	close(release)
	a.Wait()

	if err := <-ctxErr; err != nil {
		t.Fatalf("拆除不应中断在途调用，实际 ctx.Err()=%v", err)
	}
	if s := a.Snapshot(); s.Data != 1 {
		t.Fatalf("拆除后结算不应写状态：%+v", s)
	}
}

func TestSetDeps_ConcurrentWithWait(t *testing.T) {
	var calls atomic.Int64
	a := New(func(ctx context.Context, _ ...any) (int, error) {
		calls.Add(1)
		return 1, nil
	}, WithDeps[int](-1))
	defer a.Close()

	const workers, rounds = 8, 200
	var wg sync.WaitGroup
	var triggered atomic.Int64
	for g := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range rounds {
				if a.SetDeps(g*100000 + i) {
					triggered.Add(1)
				}
				a.Wait()
			}
		}()
	}
	wg.Wait()
	a.Wait()

	s := a.Snapshot()
	if s.Loading {
		t.Fatalf("全部调用结算后不应处于 loading：%+v", s)
	}
	if s.Data != 1 {
		t.Fatalf("期望 Data=1，实际 %d", s.Data)
	}
	// 构造时 1 次，加上每次依赖变化 1 次。
	if got, want := calls.Load(), triggered.Load()+1; got != want {
		t.Fatalf("期望调用 %d 次，实际 %d", want, got)
	}
}

func waitLoading[T any](t *testing.T, a *Adapter[T]) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for !a.Snapshot().Loading {
		if time.Now().After(deadline) {
			t.Fatalf("等待 loading 超时")
		}
		time.Sleep(time.Millisecond)
	}
}

type recordingObserver struct {
	mu     sync.Mutex
	starts int
	stale  int
}

func (o *recordingObserver) OnStart(string, uint64) {
	o.mu.Lock()
	o.starts++
	o.mu.Unlock()
}

func (o *recordingObserver) OnSettle(_ string, _ uint64, _ string, stale bool, _ time.Duration) {
	o.mu.Lock()
	if stale {
		o.stale++
	}
	o.mu.Unlock()
}

func (o *recordingObserver) staleCount() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.stale
}
