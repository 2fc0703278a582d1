package logx

import (
	"bytes"
	"encoding/json"
	"os"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestNew_JSONAndLevel(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, zerolog.InfoLevel, false)

	log.Debug().Msg("不应输出")
	log.Info().Str("provider", "github").Msg("ok")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("期望 1 行日志，实际 %d：%q", len(lines), buf.String())
	}
	var m map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &m); err != nil {
		t.Fatalf("日志应为 JSON：%v", err)
	}
	if m["provider"] != "github" || m["message"] != "ok" || m["time"] == nil {
		t.Fatalf("日志字段不符合预期：%+v", m)
	}
}

func TestNew_Pretty(t *testing.T) {
	var buf bytes.Buffer
	log := New(&buf, zerolog.DebugLevel, true)
	log.Warn().Msg("hello")
	if strings.HasPrefix(buf.String(), "{") || !strings.Contains(buf.String(), "hello") {
		t.Fatalf("pretty 模式应输出非 JSON 文本：%q", buf.String())
	}
}

func TestIsTTY_RegularFile(t *testing.T) {
	f, err := os.CreateTemp(t.TempDir(), "x")
	if err != nil {
		t.Fatalf("不期望错误：%v", err)
	}
	defer f.Close()
	if IsTTY(f) || IsTTY(nil) {
		t.Fatalf("普通文件不是 TTY")
	}
}
