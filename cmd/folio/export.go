package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/John-Robertt/folio/internal/config"
	"github.com/John-Robertt/folio/internal/export"
	"github.com/John-Robertt/folio/internal/infra/logx"
	"github.com/John-Robertt/folio/internal/section"
)

func newExportCmd(g *globalFlags) *cobra.Command {
	var (
		concurrency int
		overwrite   bool
		only        []string
		params      []string
	)

	cmd := &cobra.Command{
		Use:   "export <dir>",
		Short: "拉取全部 section 并写成静态 JSON 数据包",
		Long: `export 把每个 section 的视图写成 <dir>/<section>.json，并写出 <dir>/index.json 清单。

stdout 非 TTY 时只输出一个 ExportReport JSON；进度与摘要走 stderr。`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			dir, err := filepath.Abs(args[0])
			if err != nil {
				return err
			}

			sp, err := parseParams(params)
			if err != nil {
				return err
			}

			a, err := newApp(ctx, g)
			if err != nil {
				emitReport(os.Stdout, reportForConfigError(dir, err))
				return &exitError{code: 1}
			}
			defer a.close()

			set, err := a.sections(true)
			if err != nil {
				return err
			}
			defer set.Close()

			workers := a.eff.Concurrency
			if cmd.Flags().Changed("concurrency") {
				workers = concurrency
			}

			var obs export.Observer
			if w, interactive := pickProgressWriter(); interactive {
				obs = newProgressUI(w, a.eff)
			}

			rr := export.Execute(ctx, set, dir, export.Options{
				Concurrency: workers,
				Overwrite:   overwrite,
				Localizer:   a.localizer(),
				Params:      sp,
				Only:        only,
				Observer:    obs,
				Logger:      a.log,
			})

			emitReport(os.Stdout, rr)
			if rr.Failed() {
				return &exitError{code: 1}
			}
			return nil
		},
	}

	cmd.Flags().IntVar(&concurrency, "concurrency", config.DefaultConcurrency, "并发拉取的 section 数（覆盖配置 export.concurrency）")
	cmd.Flags().BoolVar(&overwrite, "overwrite", false, "覆盖已存在的输出文件")
	cmd.Flags().StringSliceVar(&only, "only", nil, "只导出这些 section（逗号分隔）")
	cmd.Flags().StringArrayVar(&params, "param", nil, "section 参数，形如 projects.limit=6（可重复）")
	return cmd
}

// parseParams 把 "section.key=value" 解析为按 section 分组的参数。
func parseParams(raw []string) (map[string]section.Params, error) {
	out := make(map[string]section.Params, len(raw))
	for _, s := range raw {
		kv := strings.SplitN(s, "=", 2)
		if len(kv) != 2 {
			return nil, fmt.Errorf("--param 格式应为 section.key=value，实际是 %q", s)
		}
		name, key, ok := strings.Cut(strings.TrimSpace(kv[0]), ".")
		name = strings.ToLower(strings.TrimSpace(name))
		key = strings.TrimSpace(key)
		if !ok || name == "" || key == "" {
			return nil, fmt.Errorf("--param 格式应为 section.key=value，实际是 %q", s)
		}
		if out[name] == nil {
			out[name] = section.Params{}
		}
		out[name][key] = kv[1]
	}
	return out, nil
}

// emitReport：TTY 下打印摘要；非 TTY 时 stdout 必须且仅输出一个 Report JSON（摘要走 stderr）。
func emitReport(stdout *os.File, rr export.Report) {
	if logx.IsTTY(stdout) {
		printSummary(stdout, rr)
		for _, it := range rr.Items {
			if it.Status != export.StatusFailed {
				continue
			}
			key := it.Section
			if key == "" {
				key = "<export>"
			}
			fmt.Fprintf(os.Stderr, "%s %s: %s\n", key, it.ErrorCode, it.ErrorMsg)
		}
		return
	}

	enc := json.NewEncoder(stdout)
	_ = enc.Encode(rr)
	printSummary(os.Stderr, rr)
}

func printSummary(w io.Writer, rr export.Report) {
	fmt.Fprintf(w, "完成：written=%d empty=%d failed=%d\n",
		rr.Summary.Written, rr.Summary.Empty, rr.Summary.Failed,
	)
}

func reportForConfigError(dir string, err error) export.Report {
	now := time.Now().UTC()
	rr := export.Report{
		Dir:        dir,
		StartedAt:  now,
		FinishedAt: now,
		Items: []export.ItemResult{{
			Status:    export.StatusFailed,
			ErrorCode: configErrorCode(err),
			ErrorMsg:  err.Error(),
		}},
	}
	rr.Finalize()
	return rr
}

func configErrorCode(err error) string {
	if c := config.Code(err); c != "" {
		return c
	}
	return export.ErrCodeIOFailed
}

func pickProgressWriter() (io.Writer, bool) {
	// 进度只在交互终端启用；默认走 stderr。
	if logx.IsTTY(os.Stderr) {
		return os.Stderr, true
	}
	if logx.IsTTY(os.Stdout) {
		return os.Stdout, true
	}
	return nil, false
}
