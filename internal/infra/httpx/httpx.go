package httpx

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// DefaultUserAgent 是所有出站请求的默认 UA（provider 可在请求上显式覆盖）。
const DefaultUserAgent = "folio/1.0 (+https://github.com/John-Robertt/folio)"

// Transport 把“固定 UA + 指标”固化为所有 provider 共用的出站策略。
//
// 约束：
// - 不做重试、不做缓存、不做限速：失败原样交给 provider 处理
// - 不修改调用方的 request（先 Clone 再改 Header）
type Transport struct {
	Base      http.RoundTripper
	UserAgent string
	Metrics   *Metrics // 可为 nil
}

func (t *Transport) RoundTrip(req *http.Request) (*http.Response, error) {
	if req == nil {
		return nil, errors.New("nil request")
	}
	base := t.Base
	if base == nil {
		base = http.DefaultTransport
	}

	r := req.Clone(req.Context())
	if r.Header.Get("User-Agent") == "" {
		ua := t.UserAgent
		if ua == "" {
			ua = DefaultUserAgent
		}
		r.Header.Set("User-Agent", ua)
	}

	started := time.Now()
	resp, err := base.RoundTrip(r)
	if t.Metrics != nil {
		name := ProviderFrom(req.Context())
		if name == "" {
			name = req.URL.Hostname()
		}
		code := "error"
		if err == nil {
			code = strconv.Itoa(resp.StatusCode)
		}
		t.Metrics.observe(name, code, time.Since(started))
	}
	return resp, err
}

// Options 描述 NewClient 的可选行为。
type Options struct {
	// ProxyURL 非空时所有出站请求走该代理。
	ProxyURL string
	// Timeout 为 0 表示不设客户端超时，仅依赖 ctx 与远端自身行为。
	Timeout   time.Duration
	UserAgent string
	Metrics   *Metrics
}

// NewClient 构造 provider 共用的 HTTP client。
func NewClient(opts Options) (*http.Client, error) {
	base := &http.Transport{
		Proxy:                 nil,
		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
		MaxIdleConnsPerHost:   4,
	}

	proxyURL := strings.TrimSpace(opts.ProxyURL)
	if proxyURL != "" {
		u, err := url.Parse(proxyURL)
		if err != nil {
			return nil, err
		}
		if u.Scheme == "" || u.Host == "" {
			return nil, errors.New("proxy url 缺少 scheme 或 host")
		}
		base.Proxy = http.ProxyURL(u)
	}

	return &http.Client{
		Transport: &Transport{
			Base:      base,
			UserAgent: opts.UserAgent,
			Metrics:   opts.Metrics,
		},
		Timeout: opts.Timeout,
	}, nil
}

type providerKey struct{}

// WithProvider 在 ctx 上标记本次请求属于哪个 provider（用作指标 label）。
func WithProvider(ctx context.Context, name string) context.Context {
	return context.WithValue(ctx, providerKey{}, name)
}

// ProviderFrom 读取 WithProvider 写入的 provider 名；未标记时返回空串。
func ProviderFrom(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	s, _ := ctx.Value(providerKey{}).(string)
	return s
}

// Metrics 是出站请求的 Prometheus 指标。
type Metrics struct {
	requests *prometheus.CounterVec
	latency  *prometheus.HistogramVec
}

// NewMetrics 创建并注册出站请求指标；reg 为 nil 时只创建不注册（测试用）。
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "folio",
			Subsystem: "provider",
			Name:      "requests_total",
			Help:      "Outbound provider requests by provider and status code.",
		}, []string{"provider", "code"}),
		latency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "folio",
			Subsystem: "provider",
			Name:      "request_duration_seconds",
			Help:      "Outbound provider request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"provider"}),
	}
	if reg != nil {
		reg.MustRegister(m.requests, m.latency)
	}
	return m
}

func (m *Metrics) observe(provider, code string, d time.Duration) {
	m.requests.WithLabelValues(provider, code).Inc()
	m.latency.WithLabelValues(provider).Observe(d.Seconds())
}
