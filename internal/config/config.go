package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/rs/zerolog"
	"gopkg.in/yaml.v3"
)

const (
	// ErrCodeNotFound 表示 --config 显式指定的文件不存在。
	ErrCodeNotFound = "config_not_found"
	// ErrCodeInvalid 表示配置文件无法读取/解析、变量无法展开，或字段不合法。
	ErrCodeInvalid = "config_invalid"
)

const (
	// DefaultFileName 是未指定 --config 时在 cwd 下查找的可选配置文件。
	DefaultFileName = "folio.yaml"

	DefaultGitHubUsername   = "lhqtapcode"
	DefaultContactRecipient = "Lê Hoàng Quân"
	DefaultListen           = ":8080"
	DefaultLocale           = "vi"
	DefaultLogLevel         = "info"
	// DefaultConcurrency 是导出时并发拉取 section 的内置默认值。
	DefaultConcurrency = 4
)

// LookupFunc 与 os.LookupEnv 同签名；测试可注入固定环境。
type LookupFunc func(key string) (string, bool)

// FileConfig 对应 folio.yaml 的解析结构。所有字段可选。
type FileConfig struct {
	GitHub struct {
		BaseURL  string `yaml:"base_url"`
		Username string `yaml:"username"`
		Token    string `yaml:"token"`
	} `yaml:"github"`
	Unsplash struct {
		BaseURL   string `yaml:"base_url"`
		AccessKey string `yaml:"access_key"`
	} `yaml:"unsplash"`
	Facebook struct {
		BaseURL     string `yaml:"base_url"`
		AccessToken string `yaml:"access_token"`
		PageID      string `yaml:"page_id"`
	} `yaml:"facebook"`
	EmailJS struct {
		BaseURL    string `yaml:"base_url"`
		PublicKey  string `yaml:"public_key"`
		ServiceID  string `yaml:"service_id"`
		TemplateID string `yaml:"template_id"`
		Recipient  string `yaml:"recipient"`
	} `yaml:"emailjs"`
	Server struct {
		Listen     string `yaml:"listen"`
		LatestOnly *bool  `yaml:"latest_only"`
	} `yaml:"server"`
	Locale    string `yaml:"locale"`
	LogLevel  string `yaml:"log_level"`
	Telemetry struct {
		OTLPEndpoint string `yaml:"otlp_endpoint"`
	} `yaml:"telemetry"`
	Refresh string       `yaml:"refresh"`
	Proxy   *ProxyConfig `yaml:"proxy"`
	Timeout string       `yaml:"timeout"`
	Export  struct {
		Concurrency int `yaml:"concurrency"`
	} `yaml:"export"`
}

type ProxyConfig struct {
	URL string `yaml:"url"`
}

type GitHub struct {
	BaseURL  string
	Username string
	Token    string
}

type Unsplash struct {
	BaseURL   string
	AccessKey string
}

type Facebook struct {
	BaseURL     string
	AccessToken string
	PageID      string
}

type EmailJS struct {
	BaseURL    string
	PublicKey  string
	ServiceID  string
	TemplateID string
	Recipient  string
}

// EffectiveConfig 是合并并做最小规范化后的最终配置（加载后只读，实现层直接消费）。
//
// 凭证缺失不是配置错误：只会让对应 provider 处于未配置状态。
type EffectiveConfig struct {
	// File 是实际读取的配置文件；没有读取任何文件时为空。
	File string

	GitHub   GitHub
	Unsplash Unsplash
	Facebook Facebook
	EmailJS  EmailJS

	Listen     string
	LatestOnly bool
	Locale     string
	LogLevel   zerolog.Level

	OTLPEndpoint string
	// Refresh 是定时刷新的 cron 表达式；为空表示不定时刷新。
	Refresh string

	ProxyURL string
	// Timeout 为 0 表示出站请求不设客户端超时。
	Timeout     time.Duration
	Concurrency int
}

// Error 是配置阶段的结构化错误（带 error_code）。
type Error struct {
	Code string
	Path string
	Err  error
}

func (e *Error) Error() string {
	switch e.Code {
	case ErrCodeNotFound:
		return fmt.Sprintf("%s：未找到配置文件 %q", e.Code, e.Path)
	case ErrCodeInvalid:
		if e.Path == "" {
			if e.Err != nil {
				return fmt.Sprintf("%s：%v", e.Code, e.Err)
			}
			return e.Code
		}
		if e.Err != nil {
			return fmt.Sprintf("%s：配置文件 %q 无效：%v", e.Code, e.Path, e.Err)
		}
		return fmt.Sprintf("%s：配置文件 %q 无效", e.Code, e.Path)
	default:
		if e.Err != nil {
			return fmt.Sprintf("%s：%v", e.Code, e.Err)
		}
		return e.Code
	}
}

func (e *Error) Unwrap() error { return e.Err }

// Code 从 error 中提取 error_code；若不是 *Error 则返回空串。
func Code(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Code
	}
	return ""
}

// LoadEffective 读取配置文件并与环境变量合并为最终配置。
//
// 发现规则（固定）：
// 1) file 非空：必须存在；
// 2) file 为空：尝试 <cwd>/folio.yaml（可选）。
//
// 覆盖优先级（固定）：环境变量 > 配置文件 > 内置默认。
// 配置文件中的 ${VAR} / ${VAR:-default} 在解析 YAML 之前展开。
func LoadEffective(cwd, file string, lookup LookupFunc) (EffectiveConfig, error) {
	if lookup == nil {
		lookup = os.LookupEnv
	}

	var (
		cfgPath string
		fc      FileConfig
		exists  bool
		err     error
	)
	if strings.TrimSpace(file) != "" {
		cfgPath = absCleanFrom(cwd, file)
		fc, exists, err = readFileConfig(cfgPath, lookup)
		if err != nil {
			return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
		}
		if !exists {
			return EffectiveConfig{}, &Error{Code: ErrCodeNotFound, Path: cfgPath, Err: os.ErrNotExist}
		}
	} else {
		cfgPath = absCleanFrom(cwd, DefaultFileName)
		fc, exists, err = readFileConfig(cfgPath, lookup)
		if err != nil {
			return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
		}
	}
	if !exists {
		cfgPath = ""
	}

	eff, err := merge(fc, lookup)
	if err != nil {
		return EffectiveConfig{}, &Error{Code: ErrCodeInvalid, Path: cfgPath, Err: err}
	}
	eff.File = cfgPath
	return eff, nil
}

func merge(fc FileConfig, lookup LookupFunc) (EffectiveConfig, error) {
	pick := func(key, fileVal, def string) string {
		if v, ok := lookup(key); ok && strings.TrimSpace(v) != "" {
			return strings.TrimSpace(v)
		}
		if s := strings.TrimSpace(fileVal); s != "" {
			return s
		}
		return def
	}

	eff := EffectiveConfig{
		GitHub: GitHub{
			BaseURL:  pick("FOLIO_GITHUB_BASE_URL", fc.GitHub.BaseURL, ""),
			Username: pick("FOLIO_GITHUB_USERNAME", fc.GitHub.Username, DefaultGitHubUsername),
			Token:    pick("FOLIO_GITHUB_TOKEN", fc.GitHub.Token, ""),
		},
		Unsplash: Unsplash{
			BaseURL:   pick("FOLIO_UNSPLASH_BASE_URL", fc.Unsplash.BaseURL, ""),
			AccessKey: pick("FOLIO_UNSPLASH_ACCESS_KEY", fc.Unsplash.AccessKey, ""),
		},
		Facebook: Facebook{
			BaseURL:     pick("FOLIO_FACEBOOK_BASE_URL", fc.Facebook.BaseURL, ""),
			AccessToken: pick("FOLIO_FACEBOOK_ACCESS_TOKEN", fc.Facebook.AccessToken, ""),
			PageID:      pick("FOLIO_FACEBOOK_PAGE_ID", fc.Facebook.PageID, ""),
		},
		EmailJS: EmailJS{
			BaseURL:    pick("FOLIO_EMAILJS_BASE_URL", fc.EmailJS.BaseURL, ""),
			PublicKey:  pick("FOLIO_EMAILJS_PUBLIC_KEY", fc.EmailJS.PublicKey, ""),
			ServiceID:  pick("FOLIO_EMAILJS_SERVICE_ID", fc.EmailJS.ServiceID, ""),
			TemplateID: pick("FOLIO_EMAILJS_TEMPLATE_ID", fc.EmailJS.TemplateID, ""),
			Recipient:  pick("FOLIO_CONTACT_RECIPIENT", fc.EmailJS.Recipient, DefaultContactRecipient),
		},
		Listen:       pick("FOLIO_LISTEN", fc.Server.Listen, DefaultListen),
		Locale:       strings.ToLower(pick("FOLIO_LOCALE", fc.Locale, DefaultLocale)),
		OTLPEndpoint: pick("FOLIO_OTLP_ENDPOINT", fc.Telemetry.OTLPEndpoint, ""),
		Refresh:      pick("FOLIO_REFRESH", fc.Refresh, ""),
	}

	for name, u := range map[string]string{
		"github.base_url":   eff.GitHub.BaseURL,
		"unsplash.base_url": eff.Unsplash.BaseURL,
		"facebook.base_url": eff.Facebook.BaseURL,
		"emailjs.base_url":  eff.EmailJS.BaseURL,
	} {
		if err := validateHTTPURL(name, u); err != nil {
			return EffectiveConfig{}, err
		}
	}

	switch eff.Locale {
	case "en", "vi":
	default:
		return EffectiveConfig{}, fmt.Errorf("locale 只能是 en 或 vi，实际是 %q", eff.Locale)
	}

	lvl, err := zerolog.ParseLevel(strings.ToLower(pick("FOLIO_LOG_LEVEL", fc.LogLevel, DefaultLogLevel)))
	if err != nil {
		return EffectiveConfig{}, fmt.Errorf("log_level 无效：%w", err)
	}
	eff.LogLevel = lvl

	latest := false
	if fc.Server.LatestOnly != nil {
		latest = *fc.Server.LatestOnly
	}
	if v, ok := lookup("FOLIO_LATEST_ONLY"); ok && strings.TrimSpace(v) != "" {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return EffectiveConfig{}, fmt.Errorf("FOLIO_LATEST_ONLY 无效：%q", v)
		}
		latest = b
	}
	eff.LatestOnly = latest

	if eff.Refresh != "" {
		if _, err := cron.ParseStandard(eff.Refresh); err != nil {
			return EffectiveConfig{}, fmt.Errorf("refresh 不是合法的 cron 表达式：%q：%w", eff.Refresh, err)
		}
	}

	if eff.OTLPEndpoint != "" {
		if err := validateHTTPURL("telemetry.otlp_endpoint", eff.OTLPEndpoint); err != nil {
			return EffectiveConfig{}, err
		}
	}

	fileProxy := ""
	if fc.Proxy != nil {
		fileProxy = fc.Proxy.URL
	}
	eff.ProxyURL = pick("FOLIO_PROXY_URL", fileProxy, "")
	if eff.ProxyURL != "" {
		if _, err := url.Parse(eff.ProxyURL); err != nil {
			return EffectiveConfig{}, fmt.Errorf("proxy.url 无效：%w", err)
		}
	}

	if s := pick("FOLIO_HTTP_TIMEOUT", fc.Timeout, ""); s != "" {
		d, err := time.ParseDuration(s)
		if err != nil || d < 0 {
			return EffectiveConfig{}, fmt.Errorf("timeout 无效：%q", s)
		}
		eff.Timeout = d
	}

	concurrency := fc.Export.Concurrency
	if s := pick("FOLIO_EXPORT_CONCURRENCY", "", ""); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil {
			return EffectiveConfig{}, fmt.Errorf("FOLIO_EXPORT_CONCURRENCY 无效：%q", s)
		}
		concurrency = n
	}
	if concurrency == 0 {
		concurrency = DefaultConcurrency
	}
	// 范围 [1, 32]；超出截断。
	eff.Concurrency = min(max(concurrency, 1), 32)

	return eff, nil
}

func validateHTTPURL(name, raw string) error {
	if raw == "" {
		return nil
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("%s 无效：%q", name, raw)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%s 必须是 http/https：%q", name, raw)
	}
	return nil
}

// absCleanFrom 以 base 为基准，把 p 变为 clean + absolute。
func absCleanFrom(base, p string) string {
	p = filepath.Clean(strings.TrimSpace(p))
	if filepath.IsAbs(p) {
		return p
	}
	if abs, err := filepath.Abs(filepath.Join(base, p)); err == nil {
		return abs
	}
	return filepath.Clean(filepath.Join(base, p))
}

// readFileConfig 读取、展开变量并解析 YAML 配置文件。
// 返回值 exists 表示该文件是否存在（不存在不算错误）。
func readFileConfig(path string, lookup LookupFunc) (fc FileConfig, exists bool, err error) {
	b, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return FileConfig{}, false, nil
		}
		return FileConfig{}, false, err
	}
	expanded, err := expandEnv(b, lookup)
	if err != nil {
		return FileConfig{}, true, err
	}
	if err := yaml.Unmarshal(expanded, &fc); err != nil {
		return FileConfig{}, true, err
	}
	return fc, true, nil
}

// envPattern 匹配 ${VAR} 与 ${VAR:-default}。
var envPattern = regexp.MustCompile(`\$\{([A-Za-z_][A-Za-z0-9_]*)(?::-((?:[^}\\]|\\.)*))?\}`)

// expandEnv 展开 raw 中的变量；没有默认值且环境中不存在的变量会全部列进错误。
func expandEnv(raw []byte, lookup LookupFunc) ([]byte, error) {
	var errs []error
	out := envPattern.ReplaceAllFunc(raw, func(match []byte) []byte {
		subs := envPattern.FindSubmatch(match)
		name := string(subs[1])
		if v, ok := lookup(name); ok {
			return []byte(v)
		}
		if subs[2] != nil {
			return subs[2]
		}
		errs = append(errs, fmt.Errorf("未解析的变量：%s", name))
		return match
	})
	return out, errors.Join(errs...)
}
