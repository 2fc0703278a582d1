// Package logx 构造进程级 zerolog.Logger。logger 通过构造参数向下传递，不设置全局 logger。
package logx

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// New 返回写到 w 的 logger。pretty=true 时使用人类可读的 ConsoleWriter（TTY 场景）。
func New(w io.Writer, level zerolog.Level, pretty bool) zerolog.Logger {
	if w == nil {
		w = os.Stderr
	}
	if pretty {
		w = zerolog.ConsoleWriter{Out: w, TimeFormat: time.TimeOnly}
	}
	return zerolog.New(w).Level(level).With().Timestamp().Logger()
}

// IsTTY 判断 f 是否是交互式终端。
func IsTTY(f *os.File) bool {
	if f == nil {
		return false
	}
	fi, err := f.Stat()
	if err != nil {
		return false
	}
	return fi.Mode()&os.ModeCharDevice != 0
}
