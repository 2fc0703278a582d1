package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/rs/zerolog"
)

func env(kv map[string]string) LookupFunc {
	return func(k string) (string, bool) {
		v, ok := kv[k]
		return v, ok
	}
}

func TestLoadEffective_Defaults(t *testing.T) {
	cwd := t.TempDir()

	eff, err := LoadEffective(cwd, "", env(nil))
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if eff.File != "" {
		t.Fatalf("没有配置文件时 File 应为空，实际 %q", eff.File)
	}
	if eff.GitHub.Username != DefaultGitHubUsername || eff.EmailJS.Recipient != DefaultContactRecipient {
		t.Fatalf("默认值不符合预期：%+v", eff)
	}
	if eff.Listen != ":8080" || eff.Locale != "vi" || eff.LogLevel != zerolog.InfoLevel {
		t.Fatalf("默认值不符合预期：%+v", eff)
	}
	if eff.Concurrency != DefaultConcurrency || eff.Timeout != 0 || eff.LatestOnly {
		t.Fatalf("默认值不符合预期：%+v", eff)
	}
	if eff.Unsplash.AccessKey != "" || eff.Facebook.AccessToken != "" {
		t.Fatalf("凭证缺失不应报错也不应有值")
	}
}

func TestLoadEffective_ExplicitFileNotFound(t *testing.T) {
	cwd := t.TempDir()
	_, err := LoadEffective(cwd, "missing.yaml", env(nil))
	if Code(err) != ErrCodeNotFound {
		t.Fatalf("期望 %q，实际 err=%v (code=%q)", ErrCodeNotFound, err, Code(err))
	}
}

func TestLoadEffective_FileAndEnvPrecedence(t *testing.T) {
	cwd := t.TempDir()
	writeFile(t, filepath.Join(cwd, DefaultFileName), []byte(`
github:
  username: from-file
  token: ${GH_TOKEN}
unsplash:
  access_key: ${UNSPLASH_KEY:-fallback-key}
facebook:
  page_id: "123"
server:
  listen: ":9090"
  latest_only: true
locale: en
log_level: debug
timeout: 15s
export:
  concurrency: 99
`))

	eff, err := LoadEffective(cwd, "", env(map[string]string{
		"GH_TOKEN":              "ghp_x",
		"FOLIO_GITHUB_USERNAME": "from-env",
		"FOLIO_LATEST_ONLY":     "false",
	}))
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if eff.File != filepath.Join(cwd, DefaultFileName) {
		t.Fatalf("File 不符合预期：%q", eff.File)
	}
	if eff.GitHub.Username != "from-env" {
		t.Fatalf("环境变量应覆盖配置文件，实际 %q", eff.GitHub.Username)
	}
	if eff.GitHub.Token != "ghp_x" || eff.Unsplash.AccessKey != "fallback-key" {
		t.Fatalf("变量展开不符合预期：token=%q key=%q", eff.GitHub.Token, eff.Unsplash.AccessKey)
	}
	if eff.Facebook.PageID != "123" || eff.Listen != ":9090" || eff.Locale != "en" {
		t.Fatalf("配置文件字段未生效：%+v", eff)
	}
	if eff.LatestOnly {
		t.Fatalf("FOLIO_LATEST_ONLY=false 应覆盖配置文件")
	}
	if eff.LogLevel != zerolog.DebugLevel || eff.Timeout != 15*time.Second {
		t.Fatalf("log_level/timeout 不符合预期：%v %v", eff.LogLevel, eff.Timeout)
	}
	if eff.Concurrency != 32 {
		t.Fatalf("并发应截断到 32，实际 %d", eff.Concurrency)
	}
}

func TestLoadEffective_UnresolvedVariable(t *testing.T) {
	cwd := t.TempDir()
	writeFile(t, filepath.Join(cwd, "c.yaml"), []byte("github:\n  token: ${NOPE}\nunsplash:\n  access_key: ${ALSO_NOPE}\n"))

	_, err := LoadEffective(cwd, "c.yaml", env(nil))
	if Code(err) != ErrCodeInvalid {
		t.Fatalf("期望 %q，实际 err=%v", ErrCodeInvalid, err)
	}
	if !strings.Contains(err.Error(), "NOPE") || !strings.Contains(err.Error(), "ALSO_NOPE") {
		t.Fatalf("错误应列出全部未解析变量：%v", err)
	}
}

func TestLoadEffective_InvalidFields(t *testing.T) {
	cases := map[string]map[string]string{
		"base_url":  {"FOLIO_GITHUB_BASE_URL": "ftp://x"},
		"locale":    {"FOLIO_LOCALE": "fr"},
		"log_level": {"FOLIO_LOG_LEVEL": "loud"},
		"cron":      {"FOLIO_REFRESH": "every minute"},
		"timeout":   {"FOLIO_HTTP_TIMEOUT": "soon"},
		"latest":    {"FOLIO_LATEST_ONLY": "maybe"},
		"otlp":      {"FOLIO_OTLP_ENDPOINT": "collector:4318"},
	}
	for name, kv := range cases {
		_, err := LoadEffective(t.TempDir(), "", env(kv))
		if Code(err) != ErrCodeInvalid {
			t.Fatalf("%s：期望 %q，实际 err=%v", name, ErrCodeInvalid, err)
		}
	}
}

func TestLoadEffective_BadYAML(t *testing.T) {
	cwd := t.TempDir()
	writeFile(t, filepath.Join(cwd, DefaultFileName), []byte("github: [unterminated"))
	if _, err := LoadEffective(cwd, "", env(nil)); Code(err) != ErrCodeInvalid {
		t.Fatalf("期望 %q，实际 err=%v", ErrCodeInvalid, err)
	}
}

func TestLoadEffective_ValidCron(t *testing.T) {
	eff, err := LoadEffective(t.TempDir(), "", env(map[string]string{"FOLIO_REFRESH": "*/15 * * * *"}))
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if eff.Refresh != "*/15 * * * *" {
		t.Fatalf("refresh 不符合预期：%q", eff.Refresh)
	}
}

func TestExpandEnv(t *testing.T) {
	out, err := expandEnv([]byte("a: ${A}\nb: ${B:-dflt}\nc: ${C:-}\n"), env(map[string]string{"A": "1"}))
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	if string(out) != "a: 1\nb: dflt\nc: \n" {
		t.Fatalf("展开结果不符合预期：%q", string(out))
	}
}

func TestCode_NonConfigError(t *testing.T) {
	if Code(os.ErrNotExist) != "" {
		t.Fatalf("非配置错误应返回空 code")
	}
}

func writeFile(t *testing.T, path string, b []byte) {
	t.Helper()
	if err := os.WriteFile(path, b, 0o644); err != nil {
		t.Fatalf("写入文件失败 %q：%v", path, err)
	}
}
