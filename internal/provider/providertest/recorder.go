// Package providertest 提供 provider 测试用的进程内传输层：不走网络，记录每一次请求。
package providertest

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
)

// Recorder 是一个 http.RoundTripper：把请求直接交给 Handler 处理，并记录请求以便断言调用次数与参数。
// Handler 为 nil 时模拟网络错误。
type Recorder struct {
	Handler http.Handler

	mu   sync.Mutex
	reqs []*http.Request
}

// ErrNetwork 是 Handler 为 nil 时 RoundTrip 返回的错误。
var ErrNetwork = errors.New("providertest: network unreachable")

func (r *Recorder) RoundTrip(req *http.Request) (*http.Response, error) {
	r.mu.Lock()
	r.reqs = append(r.reqs, req)
	h := r.Handler
	r.mu.Unlock()

	if h == nil {
		return nil, ErrNetwork
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec.Result(), nil
}

// Client 返回使用该 Recorder 的 http.Client。
func (r *Recorder) Client() *http.Client { return &http.Client{Transport: r} }

// Calls 返回已发生的请求次数。
func (r *Recorder) Calls() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.reqs)
}

// Requests 返回已记录请求的副本（按发生顺序）。
func (r *Recorder) Requests() []*http.Request {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]*http.Request(nil), r.reqs...)
}

// Last 返回最后一次请求；没有请求时返回 nil。
func (r *Recorder) Last() *http.Request {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.reqs) == 0 {
		return nil
	}
	return r.reqs[len(r.reqs)-1]
}

// JSON 返回一个总是以 200 + v 的 JSON 编码响应的 Handler。
func JSON(v any) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(v)
	})
}

// Status 返回一个总是以指定状态码响应的 Handler。
func Status(code int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(code)
	})
}

// Routes 按 URL.Path 分派；未命中的路径返回 404。
type Routes map[string]http.Handler

func (rt Routes) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if h, ok := rt[r.URL.Path]; ok {
		h.ServeHTTP(w, r)
		return
	}
	http.NotFound(w, r)
}
