package emailjs

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"testing"

	"github.com/rs/zerolog"

	"github.com/John-Robertt/folio/internal/provider"
	"github.com/John-Robertt/folio/internal/provider/providertest"
)

func fullConfig() Config {
	return Config{BaseURL: "http://emailjs.test", PublicKey: "pk", ServiceID: "svc", TemplateID: "tpl"}
}

func newTestClient(cfg Config, h http.Handler) (*Client, *providertest.Recorder) {
	rec := &providertest.Recorder{Handler: h}
	return New(cfg, rec.Client(), zerolog.Nop()), rec
}

func okHandler(got *sendRequest) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		b, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(b, got)
		_, _ = w.Write([]byte("OK"))
	})
}

func TestSend_Body(t *testing.T) {
	var got sendRequest
	c, rec := newTestClient(fullConfig(), okHandler(&got))

	resp, err := c.Send(context.Background(), Form{Name: "An", Email: "an@example.com", Message: "Xin chào"}, SendOptions{})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if resp.Status != http.StatusOK || resp.Text != "OK" {
		t.Fatalf("响应不符合预期：%+v", resp)
	}
	req := rec.Last()
	if req.Method != http.MethodPost || req.URL.Path != "/api/v1.0/email/send" {
		t.Fatalf("请求不符合预期：%s %s", req.Method, req.URL.Path)
	}
	if got.ServiceID != "svc" || got.TemplateID != "tpl" || got.UserID != "pk" {
		t.Fatalf("请求体不符合预期：%+v", got)
	}
	p := got.TemplateParams
	if p["from_name"] != "An" || p["from_email"] != "an@example.com" || p["reply_to"] != "an@example.com" ||
		p["message"] != "Xin chào" || p["to_name"] != DefaultRecipient {
		t.Fatalf("模板参数不符合预期：%+v", p)
	}
}

func TestSend_OptionsOverrideAndExtraMerged(t *testing.T) {
	var got sendRequest
	cfg := fullConfig()
	cfg.Recipient = "Quân"
	c, _ := newTestClient(cfg, okHandler(&got))

	_, err := c.Send(context.Background(), Form{
		Name: "An", Email: "an@example.com", Message: "m",
		Extra: map[string]string{"subject": "Hợp tác", "to_name": "Khác"},
	}, SendOptions{ServiceID: "svc2", TemplateID: "tpl2"})
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if got.ServiceID != "svc2" || got.TemplateID != "tpl2" {
		t.Fatalf("按次覆盖未生效：%+v", got)
	}
	if got.TemplateParams["subject"] != "Hợp tác" {
		t.Fatalf("附加字段缺失：%+v", got.TemplateParams)
	}
	if got.TemplateParams["to_name"] != "Khác" {
		t.Fatalf("附加字段应覆盖同名固定键：%+v", got.TemplateParams)
	}
}

func TestSend_IncompleteConfig(t *testing.T) {
	for _, cfg := range []Config{
		{PublicKey: "", ServiceID: "s", TemplateID: "t"},
		{PublicKey: "p", ServiceID: "", TemplateID: "t"},
		{PublicKey: "p", ServiceID: "s", TemplateID: ""},
	} {
		c, rec := newTestClient(cfg, providertest.Status(http.StatusOK))
		if c.Configured() {
			t.Fatalf("配置不完整时 Configured 应为 false：%+v", cfg)
		}
		_, err := c.Send(context.Background(), Form{Name: "a", Email: "a@b.co", Message: "m"}, SendOptions{})
		if !errors.Is(err, ErrIncompleteConfig) {
			t.Fatalf("期望 ErrIncompleteConfig，实际 %v", err)
		}
		if rec.Calls() != 0 {
			t.Fatalf("配置不完整时不应发起请求")
		}
	}
}

func TestSend_MissingFields(t *testing.T) {
	c, rec := newTestClient(fullConfig(), providertest.Status(http.StatusOK))
	_, err := c.Send(context.Background(), Form{Name: "a", Email: " ", Message: "m"}, SendOptions{})
	var mf *provider.MissingFieldError
	if !errors.As(err, &mf) || mf.Field != "email" {
		t.Fatalf("期望缺少 email 字段，实际 %v", err)
	}
	if rec.Calls() != 0 {
		t.Fatalf("缺少字段时不应发起请求")
	}
}

func TestSend_TransportFailureReturnsError(t *testing.T) {
	c, _ := newTestClient(fullConfig(), providertest.Status(http.StatusBadRequest))
	_, err := c.Send(context.Background(), Form{Name: "a", Email: "a@b.co", Message: "m"}, SendOptions{})
	if provider.StatusCode(err) != http.StatusBadRequest {
		t.Fatalf("期望 400 HTTPStatusError，实际 %v", err)
	}

	c2, _ := newTestClient(fullConfig(), nil)
	if _, err := c2.Send(context.Background(), Form{Name: "a", Email: "a@b.co", Message: "m"}, SendOptions{}); err == nil {
		t.Fatalf("网络错误应返回错误")
	}
}
