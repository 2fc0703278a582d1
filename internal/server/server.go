// Package server 暴露 section 视图、联系表单与运维端点的 HTTP 接口。
package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/hlog"

	"github.com/John-Robertt/folio/internal/contact"
	"github.com/John-Robertt/folio/internal/i18n"
	"github.com/John-Robertt/folio/internal/provider"
	"github.com/John-Robertt/folio/internal/provider/emailjs"
	"github.com/John-Robertt/folio/internal/section"
)

// maxContactBody 限制联系表单请求体大小。
const maxContactBody = 64 << 10

type Config struct {
	Sections *section.Set
	Registry provider.Registry
	Bundle   *i18n.Bundle

	// Sender 为 nil 时联系表单总是进入失败状态。
	Sender        contact.Sender
	ContactLimits contact.Limits
	SendOptions   emailjs.SendOptions

	// Gatherer 为 nil 时不挂载 /metrics。
	Gatherer prometheus.Gatherer
	Logger   zerolog.Logger
	Version  string
}

type Server struct {
	cfg     Config
	handler http.Handler
}

func New(cfg Config) (*Server, error) {
	if cfg.Sections == nil || cfg.Bundle == nil {
		return nil, errors.New("server: sections 与 bundle 不能为空")
	}
	s := &Server{cfg: cfg}
	s.handler = s.buildRouter()
	return s, nil
}

func (s *Server) Handler() http.Handler { return s.handler }

func (s *Server) buildRouter() http.Handler {
	r := chi.NewRouter()
	r.Use(hlog.NewHandler(s.cfg.Logger))
	r.Use(hlog.RequestIDHandler("req_id", "X-Request-Id"))
	r.Use(hlog.AccessHandler(func(r *http.Request, status, size int, dur time.Duration) {
		hlog.FromRequest(r).Debug().
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", status).
			Int("size", size).
			Dur("dur", dur).
			Msg("请求完成")
	}))

	r.Get("/healthz", s.handleHealth())
	if s.cfg.Gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.cfg.Gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api", func(r chi.Router) {
		r.Get("/providers", s.handleProviders())
		r.Get("/sections", s.handleListSections())
		r.Get("/sections/{name}", s.handleSection())
		r.Post("/sections/{name}/refresh", s.handleRefresh())
		r.Post("/contact", s.handleContact())
	})
	return r
}

// ListenAndServe 监听 addr，直到 ctx 取消后优雅退出。
func (s *Server) ListenAndServe(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s.handler,
		ReadHeaderTimeout: 10 * time.Second,
		BaseContext:       func(net.Listener) context.Context { return ctx },
	}
	errCh := make(chan error, 1)
	go func() { errCh <- srv.ListenAndServe() }()

	s.cfg.Logger.Info().Str("addr", addr).Msg("HTTP 服务已启动")
	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) localizer(r *http.Request) i18n.Localizer {
	if lang := strings.TrimSpace(r.URL.Query().Get("lang")); lang != "" {
		return s.cfg.Bundle.For(lang)
	}
	return s.cfg.Bundle.For(r.Header.Get("Accept-Language"))
}

type healthResponse struct {
	Status  string `json:"status"`
	Version string `json:"version,omitempty"`
}

func (s *Server) handleHealth() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, healthResponse{Status: "ok", Version: s.cfg.Version})
	}
}

func (s *Server) handleProviders() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		st := s.cfg.Registry.Statuses()
		if st == nil {
			st = []provider.Status{}
		}
		writeJSON(w, http.StatusOK, st)
	}
}

func (s *Server) handleListSections() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, s.cfg.Sections.Names())
	}
}

// handleSection 用查询参数更新依赖集并返回当前视图；依赖变化时后台拉取，响应通常是 loading。
// 带 wait=true 时等待后台拉取结算后再返回。
func (s *Server) handleSection() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sec, ok := s.cfg.Sections.Get(chi.URLParam(r, "name"))
		if !ok {
			writeError(w, http.StatusNotFound, "section 不存在")
			return
		}
		q := r.URL.Query()
		wait := q.Get("wait") == "true"
		sec.Apply(paramsFrom(q))
		if wait {
			sec.Wait()
		}
		writeJSON(w, http.StatusOK, sec.View(s.localizer(r)))
	}
}

func (s *Server) handleRefresh() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sec, ok := s.cfg.Sections.Get(chi.URLParam(r, "name"))
		if !ok {
			writeError(w, http.StatusNotFound, "section 不存在")
			return
		}
		writeJSON(w, http.StatusOK, sec.Refresh(r.Context(), s.localizer(r)))
	}
}

type contactResponse struct {
	Status contact.Status      `json:"status"`
	Errors contact.FieldErrors `json:"errors,omitempty"`
}

// handleContact：422 = 字段校验失败（未发送）；502 = 发送失败；200 = 成功。
func (s *Server) handleContact() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var raw map[string]string
		if err := json.NewDecoder(io.LimitReader(r.Body, maxContactBody)).Decode(&raw); err != nil {
			writeError(w, http.StatusBadRequest, "请求体不是合法的 JSON 对象")
			return
		}

		form := contact.New(contact.Options{
			Sender:    s.cfg.Sender,
			Localizer: s.localizer(r),
			Logger:    *hlog.FromRequest(r),
			Limits:    s.cfg.ContactLimits,
			Send:      s.cfg.SendOptions,
		})
		defer form.Close()
		form.Fill(fieldsFrom(raw))

		if !form.Submit(r.Context()) {
			writeJSON(w, http.StatusUnprocessableEntity, contactResponse{Errors: form.Errors()})
			return
		}
		st := form.Status()
		code := http.StatusOK
		if !st.Success {
			code = http.StatusBadGateway
		}
		writeJSON(w, code, contactResponse{Status: st})
	}
}

func fieldsFrom(raw map[string]string) contact.Fields {
	f := contact.Fields{}
	for k, v := range raw {
		switch k {
		case "name":
			f.Name = v
		case "email":
			f.Email = v
		case "message":
			f.Message = v
		default:
			if f.Extra == nil {
				f.Extra = map[string]string{}
			}
			f.Extra[k] = v
		}
	}
	return f
}

// paramsFrom 取每个键的第一个值；lang / wait 是控制参数，不进入依赖集。
func paramsFrom(q map[string][]string) section.Params {
	p := section.Params{}
	for k, vs := range q {
		if k == "lang" || k == "wait" || len(vs) == 0 {
			continue
		}
		p[k] = vs[0]
	}
	return p
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeError(w http.ResponseWriter, code int, msg string) {
	writeJSON(w, code, errorResponse{Error: msg})
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
