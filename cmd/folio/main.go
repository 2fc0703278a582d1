// Command folio 提供作品集数据服务：HTTP 视图接口、静态导出、联系表单与 provider 调试命令。
package main

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// version 在构建时通过 -ldflags 注入。
var version = "dev"

// globalFlags 是所有子命令共享的参数；非空时覆盖配置文件与环境变量。
type globalFlags struct {
	configFile string
	logLevel   string
	locale     string
}

func newRootCmd() *cobra.Command {
	g := &globalFlags{}
	root := &cobra.Command{
		Use:   "folio",
		Short: "Portfolio data service",
		Long: `folio 从 GitHub / Unsplash / Facebook 拉取作品集数据，
以 section 视图（loading / error / ready / empty）的形式通过 HTTP 提供或导出为静态 JSON，
并通过 EmailJS 发送联系表单。`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVar(&g.configFile, "config", "", "配置文件路径（默认读取 cwd 下的 folio.yaml，可不存在）")
	root.PersistentFlags().StringVar(&g.logLevel, "log-level", "", "日志级别：debug|info|warn|error")
	root.PersistentFlags().StringVar(&g.locale, "locale", "", "默认语言：en|vi")

	root.AddCommand(newServeCmd(g))
	root.AddCommand(newExportCmd(g))
	root.AddCommand(newContactCmd(g))
	root.AddCommand(newReposCmd(g))
	root.AddCommand(newRepoCmd(g))
	root.AddCommand(newProfileCmd(g))
	root.AddCommand(newPhotosCmd(g))
	root.AddCommand(newFeedCmd(g))
	root.AddCommand(newEventsCmd(g))
	root.AddCommand(newPageCmd(g))
	root.AddCommand(newVersionCmd())

	return root
}

// exitError 让子命令在已输出结果后以指定退出码结束，且不再打印错误。
type exitError struct {
	code int
}

func (e *exitError) Error() string { return fmt.Sprintf("exit %d", e.code) }

func main() {
	root := newRootCmd()
	if err := root.ExecuteContext(context.Background()); err != nil {
		var ee *exitError
		if errors.As(err, &ee) {
			os.Exit(ee.code)
		}
		fmt.Fprintf(os.Stderr, "错误：%v\n", err)
		os.Exit(1)
	}
}

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "打印版本信息",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "folio version %s\n", version)
		},
	}
}
