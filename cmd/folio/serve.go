package main

import (
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/John-Robertt/folio/internal/refresh"
	"github.com/John-Robertt/folio/internal/server"
)

func newServeCmd(g *globalFlags) *cobra.Command {
	var (
		listen    string
		noRefresh bool
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "启动 HTTP 服务（section 视图 / 联系表单 / 指标）",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, g)
			if err != nil {
				return err
			}
			defer a.close()

			set, err := a.sections(false)
			if err != nil {
				return err
			}
			defer set.Close()

			srv, err := server.New(server.Config{
				Sections: set,
				Registry: a.registry,
				Bundle:   a.bundle,
				Sender:   a.emailjs,
				Gatherer: a.metrics,
				Logger:   a.log,
				Version:  version,
			})
			if err != nil {
				return err
			}

			if spec := strings.TrimSpace(a.eff.Refresh); spec != "" && !noRefresh {
				sch := refresh.New(set, a.log)
				if err := sch.Start(spec); err != nil {
					return err
				}
				defer sch.Stop()
				a.log.Info().Str("refresh", spec).Msg("已启用定时刷新")
			}

			addr := strings.TrimSpace(listen)
			if addr == "" {
				addr = a.eff.Listen
			}
			a.log.Info().Str("listen", addr).Strs("sections", set.Names()).Msg("服务启动")
			return srv.ListenAndServe(ctx, addr)
		},
	}

	cmd.Flags().StringVar(&listen, "listen", "", "监听地址（覆盖配置 server.listen）")
	cmd.Flags().BoolVar(&noRefresh, "no-refresh", false, "忽略配置中的定时刷新")
	return cmd
}
