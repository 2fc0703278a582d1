package section

import (
	"context"

	"github.com/John-Robertt/folio/internal/provider/github"
	"github.com/John-Robertt/folio/internal/provider/meta"
	"github.com/John-Robertt/folio/internal/provider/unsplash"
)

const (
	Projects = "projects"
	Profile  = "profile"
	Gallery  = "gallery"
	Events   = "events"
	Feed     = "feed"
)

// Names 是全部 section 的固定顺序。
var Names = []string{Projects, Profile, Gallery, Events, Feed}

// Project 是带展示色的仓库卡片。
type Project struct {
	github.Repository
	LanguageColor string `json:"language_color"`
}

type projectParams struct {
	Limit    int
	Language string
	Sort     string
}

// NewProjects 展示最近更新的仓库。参数：limit（默认 4）、language、sort（默认 updated）。
func NewProjects(gh *github.Client, opts Options) Section {
	parse := func(p Params) projectParams {
		return projectParams{
			Limit:    p.intOr("limit", 4),
			Language: p.stringOr("language", ""),
			Sort:     p.stringOr("sort", github.DefaultSort),
		}
	}
	load := func(ctx context.Context, p projectParams) ([]Project, error) {
		repos := gh.Repositories(ctx, github.RepoOptions{
			Limit: p.Limit, Sort: p.Sort, Direction: github.DefaultDirection, Language: p.Language,
		})
		out := make([]Project, 0, len(repos))
		for _, r := range repos {
			out = append(out, Project{Repository: r, LanguageColor: github.LanguageColor(r.Language)})
		}
		return out, nil
	}
	b := newBinding(Projects, github.Name, opts, []Project{}, parse, load, emptySlice[Project])
	b.present = presentProjects
	return b
}

type noParams struct{}

// NewProfile 展示 GitHub 用户资料。
func NewProfile(gh *github.Client, opts Options) Section {
	load := func(ctx context.Context, _ noParams) (*github.User, error) {
		return gh.Profile(ctx), nil
	}
	b := newBinding(Profile, github.Name, opts, (*github.User)(nil),
		func(Params) noParams { return noParams{} }, load,
		func(u *github.User) bool { return u == nil })
	b.present = presentProfile
	return b
}

type galleryParams struct {
	Query       string
	Count       int
	Random      bool
	Orientation string
}

// NewGallery 展示图片墙。random=true 时取随机图片，否则按 query 搜索；
// 两者都没有时直接得到空列表，不发起请求。
func NewGallery(us *unsplash.Client, opts Options) Section {
	parse := func(p Params) galleryParams {
		return galleryParams{
			Query:       p.stringOr("query", ""),
			Count:       p.intOr("count", 6),
			Random:      p.flag("random"),
			Orientation: p.stringOr("orientation", unsplash.DefaultOrientation),
		}
	}
	load := func(ctx context.Context, p galleryParams) ([]unsplash.Photo, error) {
		switch {
		case p.Random:
			return us.RandomPhotos(ctx, unsplash.RandomOptions{Count: p.Count, Query: p.Query, Orientation: p.Orientation}), nil
		case p.Query != "":
			return us.SearchPhotos(ctx, unsplash.SearchOptions{Query: p.Query, PerPage: p.Count, Orientation: p.Orientation}).Results, nil
		default:
			return []unsplash.Photo{}, nil
		}
	}
	return newBinding(Gallery, unsplash.Name, opts, []unsplash.Photo{}, parse, load, emptySlice[unsplash.Photo])
}

// EventsData 是主页信息 + 活动列表。
type EventsData struct {
	Page   *meta.PageInfo `json:"page"`
	Events []meta.Event   `json:"events"`
}

type eventsParams struct {
	PageID     string
	Limit      int
	TimeFilter string
}

// NewEvents 先取主页信息，再取活动列表。没有 page id 时直接得到空列表。
func NewEvents(mc *meta.Client, opts Options) Section {
	parse := func(p Params) eventsParams {
		return eventsParams{
			PageID:     p.stringOr("page_id", mc.PageID()),
			Limit:      p.intOr("limit", 3),
			TimeFilter: p.stringOr("time_filter", meta.TimeFilterUpcoming),
		}
	}
	load := func(ctx context.Context, p eventsParams) (EventsData, error) {
		if p.PageID == "" {
			return EventsData{Events: []meta.Event{}}, nil
		}
		info := mc.PageInfo(ctx, p.PageID, "")
		events := mc.PageEvents(ctx, meta.EventsOptions{PageID: p.PageID, Limit: p.Limit, TimeFilter: p.TimeFilter})
		return EventsData{Page: info, Events: events}, nil
	}
	b := newBinding(Events, meta.Name, opts, EventsData{Events: []meta.Event{}}, parse, load,
		func(d EventsData) bool { return len(d.Events) == 0 })
	b.present = presentEvents
	return b
}

type feedParams struct {
	PageID string
	Limit  int
}

// NewFeed 展示主页动态。
func NewFeed(mc *meta.Client, opts Options) Section {
	parse := func(p Params) feedParams {
		return feedParams{
			PageID: p.stringOr("page_id", mc.PageID()),
			Limit:  p.intOr("limit", meta.DefaultLimit),
		}
	}
	load := func(ctx context.Context, p feedParams) ([]meta.Post, error) {
		return mc.PageFeed(ctx, meta.FeedOptions{PageID: p.PageID, Limit: p.Limit}), nil
	}
	b := newBinding(Feed, meta.Name, opts, []meta.Post{}, parse, load, emptySlice[meta.Post])
	b.present = presentFeed
	return b
}
