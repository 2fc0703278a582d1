package meta

import (
	"context"
	"errors"
	"net/http"
	"testing"

	"github.com/rs/zerolog"

	"github.com/John-Robertt/folio/internal/provider"
	"github.com/John-Robertt/folio/internal/provider/providertest"
)

func newTestClient(cfg Config, h http.Handler) (*Client, *providertest.Recorder) {
	rec := &providertest.Recorder{Handler: h}
	cfg.BaseURL = "http://graph.test/v17.0"
	return New(cfg, rec.Client(), zerolog.Nop()), rec
}

func TestPageFeed_DefaultsAndEnvelope(t *testing.T) {
	c, rec := newTestClient(Config{AccessToken: "tok"}, providertest.JSON(map[string]any{
		"data":   []map[string]any{{"id": "1_2", "message": "xin chào"}},
		"paging": map[string]any{"next": "x"},
	}))

	posts := c.PageFeed(context.Background(), FeedOptions{PageID: "123"})
	if len(posts) != 1 || posts[0].ID != "1_2" || posts[0].Message != "xin chào" {
		t.Fatalf("动态不符合预期：%+v", posts)
	}
	req := rec.Last()
	if req.URL.Path != "/v17.0/123/feed" {
		t.Fatalf("路径不符合预期：%q", req.URL.Path)
	}
	q := req.URL.Query()
	if q.Get("access_token") != "tok" || q.Get("limit") != "5" || q.Get("fields") != DefaultFeedFields {
		t.Fatalf("默认 query 不符合预期：%q", req.URL.RawQuery)
	}
}

func TestPageFeed_NullDataIsEmpty(t *testing.T) {
	c, _ := newTestClient(Config{AccessToken: "tok"}, providertest.JSON(map[string]any{"data": nil}))
	if posts := c.PageFeed(context.Background(), FeedOptions{PageID: "1"}); posts == nil || len(posts) != 0 {
		t.Fatalf("期望非 nil 空切片，实际 %#v", posts)
	}
}

func TestPageFeed_UsesConfiguredPageID(t *testing.T) {
	c, rec := newTestClient(Config{AccessToken: "tok", PageID: "999"}, providertest.JSON(map[string]any{"data": []any{}}))
	c.PageFeed(context.Background(), FeedOptions{Limit: 2})
	if rec.Last().URL.Path != "/v17.0/999/feed" {
		t.Fatalf("应使用配置的 page id，实际 %q", rec.Last().URL.Path)
	}
	if rec.Last().URL.Query().Get("limit") != "2" {
		t.Fatalf("limit 不符合预期")
	}
}

func TestPageEvents_TimeFilter(t *testing.T) {
	cases := []struct {
		in   string
		want string
		has  bool
	}{
		{"", "upcoming", true},
		{"upcoming", "upcoming", true},
		{"past", "past", true},
		{"all", "", false},
	}
	for _, tc := range cases {
		c, rec := newTestClient(Config{AccessToken: "tok"}, providertest.JSON(map[string]any{
			"data": []map[string]any{{"id": "e1", "name": "Hackathon", "place": map[string]any{"name": "HCM"}}},
		}))
		events := c.PageEvents(context.Background(), EventsOptions{PageID: "1", TimeFilter: tc.in})
		if len(events) != 1 || events[0].Place == nil || events[0].Place.Name != "HCM" {
			t.Fatalf("活动不符合预期：%+v", events)
		}
		q := rec.Last().URL.Query()
		if q.Has("time_filter") != tc.has || q.Get("time_filter") != tc.want {
			t.Fatalf("time_filter=%q：query 不符合预期 %q", tc.in, rec.Last().URL.RawQuery)
		}
		if q.Get("fields") != DefaultEventFields || q.Get("limit") != "5" {
			t.Fatalf("默认 query 不符合预期：%q", rec.Last().URL.RawQuery)
		}
	}
}

func TestPageInfo(t *testing.T) {
	c, rec := newTestClient(Config{AccessToken: "tok"}, providertest.JSON(map[string]any{
		"id": "1", "name": "Quân", "fan_count": 1200,
		"picture": map[string]any{"data": map[string]any{"url": "https://pic.test/a.jpg"}},
	}))
	p := c.PageInfo(context.Background(), "1", "")
	if p == nil || p.Name != "Quân" || p.FanCount != 1200 || p.Picture.URL() != "https://pic.test/a.jpg" {
		t.Fatalf("主页信息不符合预期：%+v", p)
	}
	if got := rec.Last().URL.Query().Get("fields"); got != DefaultPageFields {
		t.Fatalf("fields 不符合预期：%q", got)
	}
	if rec.Last().URL.Query().Has("limit") {
		t.Fatalf("主页信息不应带 limit")
	}

	var nilPic *Picture
	if nilPic.URL() != "" {
		t.Fatalf("nil Picture 应返回空串")
	}
}

func TestNotConfigured_CheckedBeforePageID(t *testing.T) {
	c, rec := newTestClient(Config{}, providertest.JSON(map[string]any{"data": []any{}}))
	ctx := context.Background()

	if _, err := c.FetchPageFeed(ctx, FeedOptions{}); !errors.Is(err, provider.ErrNotConfigured) {
		t.Fatalf("token 缺失应先于 page id 报告，实际 %v", err)
	}
	if got := c.PageFeed(ctx, FeedOptions{PageID: "1"}); got == nil || len(got) != 0 {
		t.Fatalf("期望空切片，实际 %#v", got)
	}
	if got := c.PageEvents(ctx, EventsOptions{PageID: "1"}); got == nil || len(got) != 0 {
		t.Fatalf("期望空切片，实际 %#v", got)
	}
	if got := c.PageInfo(ctx, "1", ""); got != nil {
		t.Fatalf("期望 nil，实际 %+v", got)
	}
	if rec.Calls() != 0 {
		t.Fatalf("未配置时不应发起网络调用，实际 %d 次", rec.Calls())
	}
}

func TestMissingPageID(t *testing.T) {
	c, rec := newTestClient(Config{AccessToken: "tok"}, providertest.JSON(map[string]any{"data": []any{}}))
	if got := c.PageEvents(context.Background(), EventsOptions{}); got == nil || len(got) != 0 {
		t.Fatalf("期望空切片，实际 %#v", got)
	}
	if got := c.PageInfo(context.Background(), " ", ""); got != nil {
		t.Fatalf("期望 nil，实际 %+v", got)
	}
	if rec.Calls() != 0 {
		t.Fatalf("缺少 page id 时不应发起请求")
	}
}

func TestFailuresReturnSentinels(t *testing.T) {
	c, _ := newTestClient(Config{AccessToken: "tok"}, providertest.Status(http.StatusBadRequest))
	ctx := context.Background()
	if got := c.PageFeed(ctx, FeedOptions{PageID: "1"}); got == nil || len(got) != 0 {
		t.Fatalf("期望空切片，实际 %#v", got)
	}
	if got := c.PageInfo(ctx, "1", "id,name"); got != nil {
		t.Fatalf("期望 nil，实际 %+v", got)
	}
}
