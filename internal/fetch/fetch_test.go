package fetch

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/John-Robertt/folio/internal/provider"
)

func TestEndpointURL(t *testing.T) {
	ep := Endpoint{BaseURL: "https://api.example.test/v1/"}
	got, err := ep.URL("/users/a b/repos", url.Values{"per_page": {"2"}, "sort": {"updated"}})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	want := "https://api.example.test/v1/users/a%20b/repos?per_page=2&sort=updated"
	if got != want {
		t.Fatalf("期望 %q，实际 %q", want, got)
	}

	if _, err := (Endpoint{}).URL("/x", nil); err == nil {
		t.Fatalf("空 base url 应报错")
	}
}

func TestGetJSON_DecodesAndSendsHeaders(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "token t" {
			t.Errorf("缺少 Authorization，实际 %q", r.Header.Get("Authorization"))
		}
		if r.URL.Query().Get("q") != "go" {
			t.Errorf("query 不符合预期：%q", r.URL.RawQuery)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"name": "folio", "stars": 3})
	}))
	defer srv.Close()

	ep := Endpoint{Provider: "github", BaseURL: srv.URL, Header: http.Header{"Authorization": {"token t"}}}
	type repo struct {
		Name  string `json:"name"`
		Stars int    `json:"stars"`
	}
	got, err := GetJSON[repo](context.Background(), srv.Client(), ep, "/repos/x", url.Values{"q": {"go"}})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if got.Name != "folio" || got.Stars != 3 {
		t.Fatalf("解码结果不符合预期：%+v", got)
	}
}

func TestGetJSON_Non2xxIsHTTPStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "secret body", http.StatusForbidden)
	}))
	defer srv.Close()

	ep := Endpoint{Provider: "meta", BaseURL: srv.URL}
	_, err := GetJSON[map[string]any](context.Background(), srv.Client(), ep, "/123/feed", url.Values{"access_token": {"tok"}})
	if provider.StatusCode(err) != http.StatusForbidden {
		t.Fatalf("期望 403 HTTPStatusError，实际 %v", err)
	}
	if strings.Contains(err.Error(), "tok") || strings.Contains(err.Error(), "secret") {
		t.Fatalf("错误文本不应包含 token 或响应体：%q", err.Error())
	}
}

func TestGetJSON_InvalidJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("{"))
	}))
	defer srv.Close()

	_, err := GetJSON[map[string]any](context.Background(), srv.Client(), Endpoint{Provider: "x", BaseURL: srv.URL}, "/", nil)
	if err == nil {
		t.Fatalf("期望 JSON 解析错误")
	}
}

func TestPostJSON_EncodesBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("期望 POST，实际 %s", r.Method)
		}
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("Content-Type 不符合预期：%q", r.Header.Get("Content-Type"))
		}
		var body map[string]string
		_ = json.NewDecoder(r.Body).Decode(&body)
		if body["k"] != "v" {
			t.Errorf("body 不符合预期：%+v", body)
		}
		_, _ = w.Write([]byte("OK"))
	}))
	defer srv.Close()

	b, err := PostJSON(context.Background(), srv.Client(), Endpoint{Provider: "emailjs", BaseURL: srv.URL}, "/send", map[string]string{"k": "v"})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if string(b) != "OK" {
		t.Fatalf("期望 OK，实际 %q", string(b))
	}
}

func TestDo_NilClient(t *testing.T) {
	if _, err := Do(context.Background(), nil, Endpoint{BaseURL: "http://x"}, Request{}); err == nil {
		t.Fatalf("nil client 应报错")
	}
}
