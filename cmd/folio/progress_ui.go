package main

import (
	"fmt"
	"io"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/John-Robertt/folio/internal/config"
	"github.com/John-Robertt/folio/internal/export"
)

var _ export.Observer = (*progressUI)(nil)

// progressUI 是交互终端下的导出进度输出。
//
// 约束：
// - 只写 w（通常是 stderr），不污染 stdout 的 JSON 输出
// - 长时间无 section 完成时定期输出一行 keepalive
type progressUI struct {
	w   io.Writer
	eff config.EffectiveConfig

	mu          sync.Mutex
	startedAt   time.Time
	lastPrinted time.Time

	workers int
	total   int
	done    int
	ok      int
	empty   int
	fail    int

	keepaliveThreshold time.Duration
	tickerInterval     time.Duration

	stopCh        chan struct{}
	tickerStarted bool
}

func newProgressUI(w io.Writer, eff config.EffectiveConfig) *progressUI {
	return &progressUI{
		w:                  w,
		eff:                eff,
		keepaliveThreshold: 6 * time.Second,
		tickerInterval:     2 * time.Second,
	}
}

func (p *progressUI) OnStart(dir string, sections []string, workers int) {
	now := time.Now()

	p.mu.Lock()
	defer p.mu.Unlock()
	if p.startedAt.IsZero() {
		p.startedAt = now
	}
	p.workers = workers
	p.total = len(sections)

	fmt.Fprintf(p.w, "[%s] folio export\n", now.Format("15:04:05"))
	fmt.Fprintln(p.w, "配置（生效）:")
	if p.eff.File != "" {
		fmt.Fprintf(p.w, "  config: %s\n", p.eff.File)
	}
	fmt.Fprintf(p.w, "  locale: %s\n", p.eff.Locale)
	fmt.Fprintf(p.w, "  concurrency: %d\n", workers)
	fmt.Fprintf(p.w, "  proxy: %s\n", formatProxy(p.eff.ProxyURL))
	fmt.Fprintf(p.w, "  timeout: %s\n", formatTimeout(p.eff.Timeout))
	fmt.Fprintf(p.w, "  latest_only: %s\n", onOff(p.eff.LatestOnly))
	fmt.Fprintln(p.w, "输出:")
	fmt.Fprintf(p.w, "  dir: %s\n", dir)
	fmt.Fprintf(p.w, "  sections: %s\n\n", strings.Join(sections, ", "))

	p.lastPrinted = time.Now()
	if p.total > 0 && !p.tickerStarted {
		p.startTickerLocked()
	}
}

func (p *progressUI) OnItemDone(done, total int, res export.ItemResult, dur time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.done = done
	p.total = total

	switch res.Status {
	case export.StatusWritten:
		p.ok++
		fmt.Fprintf(p.w, "[%d/%d] %s OK provider=%s file=%s (%s)\n",
			done, total, res.Section, res.Provider, res.File, formatShortDuration(dur),
		)
	case export.StatusEmpty:
		p.empty++
		fmt.Fprintf(p.w, "[%d/%d] %s EMPTY provider=%s file=%s (%s)\n",
			done, total, res.Section, res.Provider, res.File, formatShortDuration(dur),
		)
	default:
		p.fail++
		fmt.Fprintf(p.w, "[%d/%d] %s FAIL %s: %s (%s)\n",
			done, total, res.Section, res.ErrorCode, truncate(res.ErrorMsg, 160), formatShortDuration(dur),
		)
	}

	p.lastPrinted = time.Now()
	if p.done >= p.total {
		p.stopTickerLocked()
	}
}

func (p *progressUI) OnFinish(r export.Report) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopTickerLocked()

	elapsed := r.FinishedAt.Sub(r.StartedAt)
	fmt.Fprintf(p.w, "\n耗时: %s index: %s\n", formatElapsed(elapsed), export.IndexFile)
	p.lastPrinted = time.Now()
}

func (p *progressUI) stopTickerLocked() {
	if p.tickerStarted {
		close(p.stopCh)
		p.tickerStarted = false
	}
}

func (p *progressUI) startTickerLocked() {
	p.stopCh = make(chan struct{})
	p.tickerStarted = true

	interval := p.tickerInterval
	if interval <= 0 {
		interval = 2 * time.Second
	}
	threshold := p.keepaliveThreshold
	if threshold <= 0 {
		threshold = 6 * time.Second
	}
	stop := p.stopCh

	go func() {
		t := time.NewTicker(interval)
		defer t.Stop()

		for {
			select {
			case <-t.C:
				p.mu.Lock()
				if p.total > 0 && p.done >= p.total {
					p.mu.Unlock()
					return
				}
				if time.Since(p.lastPrinted) > threshold {
					active := min(p.workers, p.total-p.done)
					fmt.Fprintf(p.w, "进度: done=%d/%d ok=%d empty=%d fail=%d active=%d elapsed=%s\n",
						p.done, p.total, p.ok, p.empty, p.fail, active, formatElapsed(time.Since(p.startedAt)),
					)
					p.lastPrinted = time.Now()
				}
				p.mu.Unlock()
			case <-stop:
				return
			}
		}
	}()
}

func onOff(v bool) string {
	if v {
		return "on"
	}
	return "off"
}

func formatProxy(raw string) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "off"
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return "on (" + truncate(raw, 120) + ")"
	}
	auth := "off"
	if u.User != nil {
		auth = "on"
	}
	return fmt.Sprintf("on (%s://%s, auth=%s)", u.Scheme, u.Host, auth)
}

func formatTimeout(d time.Duration) string {
	if d <= 0 {
		return "off"
	}
	return d.String()
}

func truncate(s string, max int) string {
	s = strings.TrimSpace(s)
	if max <= 0 || len(s) <= max {
		return s
	}
	if max <= 3 {
		return s[:max]
	}
	return s[:max-3] + "..."
}

func formatShortDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}

func formatElapsed(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	sec := int(d.Seconds())
	h := sec / 3600
	m := (sec % 3600) / 60
	s := sec % 60
	return fmt.Sprintf("%02d:%02d:%02d", h, m, s)
}
