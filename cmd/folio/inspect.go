package main

import (
	"context"
	"encoding/json"
	"io"

	"github.com/spf13/cobra"

	"github.com/John-Robertt/folio/internal/provider/github"
	"github.com/John-Robertt/folio/internal/provider/meta"
	"github.com/John-Robertt/folio/internal/provider/unsplash"
)

// 以下命令直接调用单个 provider 读操作并把结果以 JSON 打印到 stdout（调试用）。
// 与 section 不同，这里使用返回 error 的 Fetch* 变体，失败以非零退出码结束。

func runInspect(cmd *cobra.Command, g *globalFlags, fn func(ctx context.Context, a *app) (any, error)) error {
	ctx := cmd.Context()
	a, err := newApp(ctx, g)
	if err != nil {
		return err
	}
	defer a.close()

	v, err := fn(ctx, a)
	if err != nil {
		return err
	}
	return printJSON(cmd.OutOrStdout(), v)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(v)
}

func newReposCmd(g *globalFlags) *cobra.Command {
	var opts github.RepoOptions
	cmd := &cobra.Command{
		Use:   "repos",
		Short: "列出 GitHub 仓库",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(cmd, g, func(ctx context.Context, a *app) (any, error) {
				return a.github.FetchRepositories(ctx, opts)
			})
		},
	}
	cmd.Flags().IntVar(&opts.Limit, "limit", github.DefaultLimit, "最多返回条数")
	cmd.Flags().StringVar(&opts.Sort, "sort", github.DefaultSort, "updated|created|pushed|full_name")
	cmd.Flags().StringVar(&opts.Direction, "direction", github.DefaultDirection, "asc|desc")
	cmd.Flags().StringVar(&opts.Language, "language", "", "只保留该语言的仓库")
	return cmd
}

func newRepoCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "repo <name>",
		Short: "查看仓库详情（含 README）",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(cmd, g, func(ctx context.Context, a *app) (any, error) {
				return a.github.FetchRepositoryDetail(ctx, args[0])
			})
		},
	}
}

func newProfileCmd(g *globalFlags) *cobra.Command {
	return &cobra.Command{
		Use:   "profile",
		Short: "查看 GitHub 用户资料",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(cmd, g, func(ctx context.Context, a *app) (any, error) {
				return a.github.FetchProfile(ctx)
			})
		},
	}
}

func newPhotosCmd(g *globalFlags) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "photos",
		Short: "Unsplash 图片",
	}
	cmd.AddCommand(newPhotosRandomCmd(g), newPhotosSearchCmd(g), newPhotosCollectionCmd(g))
	return cmd
}

func newPhotosRandomCmd(g *globalFlags) *cobra.Command {
	var opts unsplash.RandomOptions
	cmd := &cobra.Command{
		Use:   "random",
		Short: "随机图片",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(cmd, g, func(ctx context.Context, a *app) (any, error) {
				return a.unsplash.FetchRandomPhotos(ctx, opts)
			})
		},
	}
	cmd.Flags().IntVar(&opts.Count, "count", unsplash.DefaultCount, "张数（上限 30）")
	cmd.Flags().StringVar(&opts.Query, "query", "", "可选关键词")
	cmd.Flags().StringVar(&opts.Orientation, "orientation", unsplash.DefaultOrientation, "landscape|portrait|squarish")
	return cmd
}

func newPhotosSearchCmd(g *globalFlags) *cobra.Command {
	var opts unsplash.SearchOptions
	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "搜索图片",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts.Query = args[0]
			return runInspect(cmd, g, func(ctx context.Context, a *app) (any, error) {
				return a.unsplash.FetchSearchPhotos(ctx, opts)
			})
		},
	}
	cmd.Flags().IntVar(&opts.Page, "page", 1, "页码")
	cmd.Flags().IntVar(&opts.PerPage, "per-page", unsplash.DefaultPerPage, "每页条数（上限 30）")
	cmd.Flags().StringVar(&opts.Orientation, "orientation", "", "landscape|portrait|squarish")
	cmd.Flags().StringVar(&opts.OrderBy, "order-by", unsplash.DefaultOrderBy, "relevant|latest")
	return cmd
}

func newPhotosCollectionCmd(g *globalFlags) *cobra.Command {
	var opts unsplash.CollectionOptions
	cmd := &cobra.Command{
		Use:   "collection <id>",
		Short: "集合内的图片",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(cmd, g, func(ctx context.Context, a *app) (any, error) {
				return a.unsplash.FetchCollectionPhotos(ctx, args[0], opts)
			})
		},
	}
	cmd.Flags().IntVar(&opts.Page, "page", 1, "页码")
	cmd.Flags().IntVar(&opts.PerPage, "per-page", unsplash.DefaultPerPage, "每页条数（上限 30）")
	return cmd
}

func newFeedCmd(g *globalFlags) *cobra.Command {
	var opts meta.FeedOptions
	cmd := &cobra.Command{
		Use:   "feed",
		Short: "Facebook 主页动态",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(cmd, g, func(ctx context.Context, a *app) (any, error) {
				return a.meta.FetchPageFeed(ctx, opts)
			})
		},
	}
	cmd.Flags().StringVar(&opts.PageID, "page-id", "", "主页 ID（默认取配置 facebook.page_id）")
	cmd.Flags().IntVar(&opts.Limit, "limit", meta.DefaultLimit, "最多返回条数")
	cmd.Flags().StringVar(&opts.Fields, "fields", "", "Graph API fields")
	return cmd
}

func newEventsCmd(g *globalFlags) *cobra.Command {
	var opts meta.EventsOptions
	cmd := &cobra.Command{
		Use:   "events",
		Short: "Facebook 主页活动",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(cmd, g, func(ctx context.Context, a *app) (any, error) {
				return a.meta.FetchPageEvents(ctx, opts)
			})
		},
	}
	cmd.Flags().StringVar(&opts.PageID, "page-id", "", "主页 ID（默认取配置 facebook.page_id）")
	cmd.Flags().IntVar(&opts.Limit, "limit", meta.DefaultLimit, "最多返回条数")
	cmd.Flags().StringVar(&opts.Fields, "fields", "", "Graph API fields")
	cmd.Flags().StringVar(&opts.TimeFilter, "time-filter", meta.TimeFilterUpcoming, "upcoming|past")
	return cmd
}

func newPageCmd(g *globalFlags) *cobra.Command {
	var (
		pageID string
		fields string
	)
	cmd := &cobra.Command{
		Use:   "page",
		Short: "Facebook 主页信息",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runInspect(cmd, g, func(ctx context.Context, a *app) (any, error) {
				return a.meta.FetchPageInfo(ctx, pageID, fields)
			})
		},
	}
	cmd.Flags().StringVar(&pageID, "page-id", "", "主页 ID（默认取配置 facebook.page_id）")
	cmd.Flags().StringVar(&fields, "fields", "", "Graph API fields")
	return cmd
}
