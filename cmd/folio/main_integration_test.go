package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/John-Robertt/folio/internal/export"
)

func TestCLI_NoTTY_StdoutOnlyExportReportJSON(t *testing.T) {
	// 锁定对外契约：stdout 非 TTY 时只能输出一个 ExportReport JSON（进度/配置走 stderr 或禁用）。
	gh := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/users/octo/repos":
			_, _ = w.Write([]byte(`[{"name":"folio","language":"Go","stargazers_count":3}]`))
		case "/users/octo":
			_, _ = w.Write([]byte(`{"login":"octo","name":"Octo","public_repos":1}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer gh.Close()

	out := filepath.Join(t.TempDir(), "site")

	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("读取 cwd 失败：%v", err)
	}
	repoRoot := filepath.Clean(filepath.Join(wd, "..", ".."))

	cmd := exec.Command("go", "run", "./cmd/folio", "export", out, "--locale", "en")
	cmd.Dir = repoRoot
	cmd.Env = append(envWithoutFolio(),
		"FOLIO_GITHUB_BASE_URL="+gh.URL,
		"FOLIO_GITHUB_USERNAME=octo",
	)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		t.Fatalf("命令执行失败：%v\nstderr=%s\nstdout=%s", err, stderr.String(), stdout.String())
	}

	var rr export.Report
	if err := json.Unmarshal(stdout.Bytes(), &rr); err != nil {
		t.Fatalf("stdout 不是合法的 ExportReport JSON：%v\nstdout=%q", err, stdout.String())
	}
	if rr.Summary.Failed != 0 || rr.Summary.Written != 2 || rr.Summary.Empty != 3 {
		t.Fatalf("summary 不符合预期：%+v", rr.Summary)
	}
	if strings.Contains(stdout.String(), "配置（生效）") || strings.Contains(stdout.String(), "进度:") {
		t.Fatalf("stdout 不应包含进度/配置输出：%q", stdout.String())
	}
	if !strings.Contains(stderr.String(), "完成：written=") {
		t.Fatalf("stderr 缺少完成摘要：%q", stderr.String())
	}

	for _, name := range []string{"projects.json", "profile.json", "gallery.json", "events.json", "feed.json", export.IndexFile} {
		if _, err := os.Stat(filepath.Join(out, name)); err != nil {
			t.Fatalf("期望写出 %s：%v", name, err)
		}
	}
}

// envWithoutFolio 去掉宿主环境里的 FOLIO_* 变量，避免真实凭证触发网络请求。
func envWithoutFolio() []string {
	var env []string
	for _, kv := range os.Environ() {
		if strings.HasPrefix(kv, "FOLIO_") {
			continue
		}
		env = append(env, kv)
	}
	return env
}
