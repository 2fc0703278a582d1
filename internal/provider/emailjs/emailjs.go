// Package emailjs 通过 EmailJS REST API 发送联系表单邮件（唯一的写路径）。
package emailjs

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/John-Robertt/folio/internal/fetch"
	"github.com/John-Robertt/folio/internal/provider"
)

const (
	Name             = "emailjs"
	DefaultBaseURL   = "https://api.emailjs.com"
	DefaultRecipient = "Lê Hoàng Quân"

	sendPath = "/api/v1.0/email/send"
)

// ErrIncompleteConfig 表示 public key / service id / template id 至少缺一个。
var ErrIncompleteConfig = errors.New("EmailJS 配置不完整")

type Config struct {
	BaseURL    string
	PublicKey  string
	ServiceID  string
	TemplateID string
	// Recipient 写入模板参数 to_name，默认 DefaultRecipient。
	Recipient string
}

// Client 发送邮件。与读路径不同，失败会记日志并把错误返回给调用方。
type Client struct {
	cfg  Config
	http *http.Client
	log  zerolog.Logger
	ep   fetch.Endpoint
}

var _ provider.Provider = (*Client)(nil)

func New(cfg Config, c *http.Client, log zerolog.Logger) *Client {
	cfg.BaseURL = strings.TrimSpace(cfg.BaseURL)
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.PublicKey = strings.TrimSpace(cfg.PublicKey)
	cfg.ServiceID = strings.TrimSpace(cfg.ServiceID)
	cfg.TemplateID = strings.TrimSpace(cfg.TemplateID)
	cfg.Recipient = strings.TrimSpace(cfg.Recipient)
	if cfg.Recipient == "" {
		cfg.Recipient = DefaultRecipient
	}
	return &Client{
		cfg:  cfg,
		http: c,
		log:  log.With().Str("provider", Name).Logger(),
		ep:   fetch.Endpoint{Provider: Name, BaseURL: cfg.BaseURL},
	}
}

func (c *Client) Name() string { return Name }

// Configured 要求 public key / service id / template id 三者齐全。
func (c *Client) Configured() bool {
	return c.cfg.PublicKey != "" && c.cfg.ServiceID != "" && c.cfg.TemplateID != ""
}

// Form 是一次联系表单提交。Extra 中的键会原样进入模板参数，且可以覆盖同名的固定键。
type Form struct {
	Name    string
	Email   string
	Message string
	Extra   map[string]string
}

// SendOptions 允许按次覆盖 service / template；空值使用 Config 中的值。
type SendOptions struct {
	ServiceID  string
	TemplateID string
}

// Response 是 EmailJS 的响应（成功时 Text 通常为 "OK"）。
type Response struct {
	Status int    `json:"status"`
	Text   string `json:"text"`
}

type sendRequest struct {
	ServiceID      string            `json:"service_id"`
	TemplateID     string            `json:"template_id"`
	UserID         string            `json:"user_id"`
	TemplateParams map[string]string `json:"template_params"`
}

// Send 发送一封邮件。配置不完整、必填字段缺失、传输失败都会返回错误。
func (c *Client) Send(ctx context.Context, form Form, opts SendOptions) (Response, error) {
	resp, err := c.send(ctx, form, opts)
	if err != nil {
		c.log.Error().Err(err).Str("op", "send").Msg("发送邮件失败")
		return Response{}, err
	}
	return resp, nil
}

func (c *Client) send(ctx context.Context, form Form, opts SendOptions) (Response, error) {
	serviceID := firstNonEmpty(opts.ServiceID, c.cfg.ServiceID)
	templateID := firstNonEmpty(opts.TemplateID, c.cfg.TemplateID)
	if c.cfg.PublicKey == "" || serviceID == "" || templateID == "" {
		return Response{}, ErrIncompleteConfig
	}
	for _, f := range []struct{ name, v string }{
		{"name", form.Name}, {"email", form.Email}, {"message", form.Message},
	} {
		if strings.TrimSpace(f.v) == "" {
			return Response{}, &provider.MissingFieldError{Field: f.name}
		}
	}

	body := sendRequest{
		ServiceID:      serviceID,
		TemplateID:     templateID,
		UserID:         c.cfg.PublicKey,
		TemplateParams: c.TemplateParams(form),
	}
	b, err := fetch.PostJSON(ctx, c.http, c.ep, sendPath, body)
	if err != nil {
		return Response{}, err
	}
	return Response{Status: http.StatusOK, Text: strings.TrimSpace(string(b))}, nil
}

// TemplateParams 构造模板参数：先写固定键，再写表单字段本身，最后合并 Extra。
func (c *Client) TemplateParams(form Form) map[string]string {
	p := map[string]string{
		"from_name":  form.Name,
		"from_email": form.Email,
		"message":    form.Message,
		"to_name":    c.cfg.Recipient,
		"reply_to":   form.Email,
		"name":       form.Name,
		"email":      form.Email,
	}
	for k, v := range form.Extra {
		p[k] = v
	}
	return p
}

func firstNonEmpty(vs ...string) string {
	for _, v := range vs {
		if s := strings.TrimSpace(v); s != "" {
			return s
		}
	}
	return ""
}
