package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rs/zerolog"

	"github.com/John-Robertt/folio/internal/config"
	"github.com/John-Robertt/folio/internal/i18n"
	"github.com/John-Robertt/folio/internal/infra/httpx"
	"github.com/John-Robertt/folio/internal/infra/logx"
	"github.com/John-Robertt/folio/internal/provider"
	"github.com/John-Robertt/folio/internal/provider/emailjs"
	"github.com/John-Robertt/folio/internal/provider/github"
	"github.com/John-Robertt/folio/internal/provider/meta"
	"github.com/John-Robertt/folio/internal/provider/unsplash"
	"github.com/John-Robertt/folio/internal/section"
	"github.com/John-Robertt/folio/internal/telemetry"
)

// app 是一次命令执行所需的全部依赖（按 config -> log -> telemetry -> http -> provider 的顺序构造）。
type app struct {
	eff    config.EffectiveConfig
	log    zerolog.Logger
	bundle *i18n.Bundle

	metrics *prometheus.Registry
	http    *http.Client

	github   *github.Client
	unsplash *unsplash.Client
	meta     *meta.Client
	emailjs  *emailjs.Client
	registry provider.Registry

	shutdown telemetry.Shutdown
}

func newApp(ctx context.Context, g *globalFlags) (*app, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return nil, fmt.Errorf("读取当前目录失败：%w", err)
	}
	eff, err := config.LoadEffective(cwd, g.configFile, os.LookupEnv)
	if err != nil {
		return nil, err
	}
	if err := applyGlobalFlags(&eff, g); err != nil {
		return nil, err
	}

	log := logx.New(os.Stderr, eff.LogLevel, logx.IsTTY(os.Stderr)).
		With().Str("version", version).Logger()
	if eff.File != "" {
		log.Debug().Str("file", eff.File).Msg("已加载配置文件")
	}

	bundle, err := i18n.New(eff.Locale)
	if err != nil {
		return nil, &config.Error{Code: config.ErrCodeInvalid, Err: err}
	}

	shutdown, err := telemetry.Setup(ctx, eff.OTLPEndpoint, version)
	if err != nil {
		return nil, &config.Error{Code: config.ErrCodeInvalid, Err: err}
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	hc, err := httpx.NewClient(httpx.Options{
		ProxyURL:  eff.ProxyURL,
		Timeout:   eff.Timeout,
		UserAgent: "folio/" + version,
		Metrics:   httpx.NewMetrics(reg),
	})
	if err != nil {
		_ = shutdown(ctx)
		return nil, &config.Error{Code: config.ErrCodeInvalid, Err: fmt.Errorf("proxy.url 无效：%w", err)}
	}

	a := &app{
		eff:      eff,
		log:      log,
		bundle:   bundle,
		metrics:  reg,
		http:     hc,
		shutdown: shutdown,
	}
	a.github = github.New(github.Config{
		BaseURL:  eff.GitHub.BaseURL,
		Username: eff.GitHub.Username,
		Token:    eff.GitHub.Token,
	}, hc, log)
	a.unsplash = unsplash.New(unsplash.Config{
		BaseURL:   eff.Unsplash.BaseURL,
		AccessKey: eff.Unsplash.AccessKey,
	}, hc, log)
	a.meta = meta.New(meta.Config{
		BaseURL:     eff.Facebook.BaseURL,
		AccessToken: eff.Facebook.AccessToken,
		PageID:      eff.Facebook.PageID,
	}, hc, log)
	a.emailjs = emailjs.New(emailjs.Config{
		BaseURL:    eff.EmailJS.BaseURL,
		PublicKey:  eff.EmailJS.PublicKey,
		ServiceID:  eff.EmailJS.ServiceID,
		TemplateID: eff.EmailJS.TemplateID,
		Recipient:  eff.EmailJS.Recipient,
	}, hc, log)

	a.registry, err = provider.NewRegistry(a.github, a.unsplash, a.meta, a.emailjs)
	if err != nil {
		_ = shutdown(ctx)
		return nil, fmt.Errorf("初始化 provider registry 失败：%w", err)
	}
	for _, st := range a.registry.Statuses() {
		log.Debug().Str("provider", st.Name).Bool("configured", st.Configured).Msg("provider 状态")
	}
	return a, nil
}

func applyGlobalFlags(eff *config.EffectiveConfig, g *globalFlags) error {
	if s := strings.TrimSpace(g.logLevel); s != "" {
		lvl, err := zerolog.ParseLevel(strings.ToLower(s))
		if err != nil || lvl == zerolog.NoLevel {
			return &config.Error{Code: config.ErrCodeInvalid, Err: fmt.Errorf("--log-level 无效：%q", s)}
		}
		eff.LogLevel = lvl
	}
	if s := strings.ToLower(strings.TrimSpace(g.locale)); s != "" {
		if s != "en" && s != "vi" {
			return &config.Error{Code: config.ErrCodeInvalid, Err: fmt.Errorf("--locale 只能是 en 或 vi，实际是 %q", s)}
		}
		eff.Locale = s
	}
	return nil
}

// sections 构造 section 集合；skip=true 时不自动拉取（导出由调用方显式刷新）。
// 每个 app 只能调用一次（section 指标会注册到 app.metrics）。
func (a *app) sections(skip bool) (*section.Set, error) {
	return section.NewSet(section.Clients{
		GitHub:   a.github,
		Unsplash: a.unsplash,
		Meta:     a.meta,
	}, section.Options{
		Logger:     a.log,
		Observer:   section.NewMetrics(a.metrics),
		LatestOnly: a.eff.LatestOnly,
		Skip:       skip,
	})
}

func (a *app) localizer() i18n.Localizer { return a.bundle.For(a.eff.Locale) }

func (a *app) close() {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.shutdown(ctx); err != nil {
		a.log.Warn().Err(err).Msg("关闭 telemetry 失败")
	}
}
