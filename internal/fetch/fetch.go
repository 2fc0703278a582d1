// Package fetch 是四个 provider 共用的出站请求层：拼 URL、带固定 Header、校验状态码、解码 JSON。
//
// provider 包只描述“请求哪条路径、带哪些参数、如何归一化结果”，网络细节全部收敛在这里。
package fetch

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/John-Robertt/folio/internal/infra/httpx"
	"github.com/John-Robertt/folio/internal/provider"
)

// maxBody 限制单个响应体的读取上限，避免异常响应把内存吃满。
const maxBody = 8 << 20

var tracer = otel.Tracer("github.com/John-Robertt/folio/internal/fetch")

// Endpoint 描述一个 provider 的固定部分：名字、基址、每个请求都要带的 Header。
type Endpoint struct {
	Provider string
	BaseURL  string
	Header   http.Header
}

// Request 是一次出站调用。Path 必须已经做过 PathEscape。
type Request struct {
	Method string
	Path   string
	Query  url.Values
	Body   any // 非 nil 时按 JSON 编码
}

// URL 拼出完整请求地址（BaseURL + Path + Query）。
func (e Endpoint) URL(path string, q url.Values) (string, error) {
	base := strings.TrimRight(strings.TrimSpace(e.BaseURL), "/")
	if base == "" {
		return "", errors.New("base url 不能为空")
	}
	u, err := url.Parse(base + "/" + strings.TrimLeft(path, "/"))
	if err != nil {
		return "", err
	}
	if len(q) > 0 {
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

// Do 发起一次请求，返回 2xx 响应体；非 2xx 返回 *provider.HTTPStatusError。
func Do(ctx context.Context, c *http.Client, ep Endpoint, r Request) ([]byte, error) {
	if c == nil {
		return nil, errors.New("http client 不能为空")
	}
	method := r.Method
	if method == "" {
		method = http.MethodGet
	}
	u, err := ep.URL(r.Path, r.Query)
	if err != nil {
		return nil, err
	}

	ctx, span := tracer.Start(ctx, ep.Provider+" "+method,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(
			attribute.String("folio.provider", ep.Provider),
			attribute.String("http.request.method", method),
			attribute.String("url.path", r.Path),
		),
	)
	defer span.End()

	b, err := do(httpx.WithProvider(ctx, ep.Provider), c, ep, method, u, r.Body)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		if sc := provider.StatusCode(err); sc != 0 {
			span.SetAttributes(attribute.Int("http.response.status_code", sc))
		}
		return nil, err
	}
	return b, nil
}

func do(ctx context.Context, c *http.Client, ep Endpoint, method, u string, body any) ([]byte, error) {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("编码请求体失败：%w", err)
		}
		rd = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, rd)
	if err != nil {
		return nil, err
	}
	for k, vs := range ep.Header {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		// 读掉一小段 body 以便连接复用；内容不进错误（可能含敏感信息）。
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4<<10))
		return nil, &provider.HTTPStatusError{Provider: ep.Provider, URL: stripQuery(u), StatusCode: resp.StatusCode}
	}
	return io.ReadAll(io.LimitReader(resp.Body, maxBody))
}

// GetJSON 发起一次 GET，并把 2xx 响应体解码为 T。
func GetJSON[T any](ctx context.Context, c *http.Client, ep Endpoint, path string, q url.Values) (T, error) {
	var zero T
	b, err := Do(ctx, c, ep, Request{Method: http.MethodGet, Path: path, Query: q})
	if err != nil {
		return zero, err
	}
	var v T
	if err := json.Unmarshal(b, &v); err != nil {
		return zero, fmt.Errorf("%s: 解析 JSON 失败：%w", ep.Provider, err)
	}
	return v, nil
}

// PostJSON 以 JSON 体发起一次 POST，返回原始响应体。
func PostJSON(ctx context.Context, c *http.Client, ep Endpoint, path string, body any) ([]byte, error) {
	return Do(ctx, c, ep, Request{Method: http.MethodPost, Path: path, Body: body})
}

// Segment 对单个路径段做转义（用户输入的用户名、仓库名、id 等）。
func Segment(s string) string {
	return url.PathEscape(strings.TrimSpace(s))
}

func stripQuery(u string) string {
	if i := strings.IndexByte(u, '?'); i >= 0 {
		return u[:i]
	}
	return u
}
