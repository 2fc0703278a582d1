// Package meta 实现 Facebook Graph API 的三个读操作：主页动态、主页活动、主页信息。
package meta

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/rs/zerolog"

	"github.com/John-Robertt/folio/internal/fetch"
	"github.com/John-Robertt/folio/internal/provider"
)

const (
	Name           = "meta"
	DefaultBaseURL = "https://graph.facebook.com/v17.0"

	DefaultLimit       = 5
	DefaultFeedFields  = "id,message,created_time,full_picture,permalink_url"
	DefaultEventFields = "id,name,description,start_time,end_time,place,cover"
	DefaultPageFields  = "id,name,about,description,fan_count,link,picture{url}"

	TimeFilterUpcoming = "upcoming"
	TimeFilterPast     = "past"
)

type Config struct {
	BaseURL     string
	AccessToken string
	// PageID 是调用方未显式指定主页时使用的默认值。
	PageID string
}

// Client 访问单个 access token 下的 Facebook 主页数据。
//
// 约束：
// - token 缺失时先于 page id 校验短路，且不发起网络调用；
// - 读操作失败时记日志并返回哨兵（列表为空切片，主页信息为 nil）。
type Client struct {
	cfg  Config
	http *http.Client
	log  zerolog.Logger
	ep   fetch.Endpoint
}

var _ provider.Provider = (*Client)(nil)

func New(cfg Config, c *http.Client, log zerolog.Logger) *Client {
	cfg.BaseURL = strings.TrimSpace(cfg.BaseURL)
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	cfg.AccessToken = strings.TrimSpace(cfg.AccessToken)
	cfg.PageID = strings.TrimSpace(cfg.PageID)
	return &Client{
		cfg:  cfg,
		http: c,
		log:  log.With().Str("provider", Name).Logger(),
		ep:   fetch.Endpoint{Provider: Name, BaseURL: cfg.BaseURL},
	}
}

func (c *Client) Name() string     { return Name }
func (c *Client) Configured() bool { return c.cfg.AccessToken != "" }

// PageID 返回默认主页 id（可能为空）。
func (c *Client) PageID() string { return c.cfg.PageID }

type FeedOptions struct {
	PageID string // 为空时使用 Config.PageID
	Limit  int    // 默认 5
	Fields string // 默认 DefaultFeedFields
}

// PageFeed 返回主页动态；失败返回空切片。
func (c *Client) PageFeed(ctx context.Context, opts FeedOptions) []Post {
	posts, err := c.FetchPageFeed(ctx, opts)
	if err != nil {
		c.logFailure(err, "page_feed")
		return []Post{}
	}
	return posts
}

func (c *Client) FetchPageFeed(ctx context.Context, opts FeedOptions) ([]Post, error) {
	pageID, err := c.precheck(opts.PageID)
	if err != nil {
		return nil, err
	}
	q := c.query(opts.Fields, DefaultFeedFields)
	q.Set("limit", strconv.Itoa(limitOrDefault(opts.Limit)))

	env, err := fetch.GetJSON[envelope[Post]](ctx, c.http, c.ep, "/"+fetch.Segment(pageID)+"/feed", q)
	if err != nil {
		return nil, err
	}
	return env.items(), nil
}

type EventsOptions struct {
	PageID string
	Limit  int    // 默认 5
	Fields string // 默认 DefaultEventFields
	// TimeFilter 只认 upcoming / past；其它值不带 time_filter 参数。默认 upcoming。
	TimeFilter string
}

// PageEvents 返回主页活动；失败返回空切片。
func (c *Client) PageEvents(ctx context.Context, opts EventsOptions) []Event {
	events, err := c.FetchPageEvents(ctx, opts)
	if err != nil {
		c.logFailure(err, "page_events")
		return []Event{}
	}
	return events
}

func (c *Client) FetchPageEvents(ctx context.Context, opts EventsOptions) ([]Event, error) {
	pageID, err := c.precheck(opts.PageID)
	if err != nil {
		return nil, err
	}
	q := c.query(opts.Fields, DefaultEventFields)
	q.Set("limit", strconv.Itoa(limitOrDefault(opts.Limit)))

	tf := strings.TrimSpace(opts.TimeFilter)
	if tf == "" {
		tf = TimeFilterUpcoming
	}
	if tf == TimeFilterUpcoming || tf == TimeFilterPast {
		q.Set("time_filter", tf)
	}

	env, err := fetch.GetJSON[envelope[Event]](ctx, c.http, c.ep, "/"+fetch.Segment(pageID)+"/events", q)
	if err != nil {
		return nil, err
	}
	return env.items(), nil
}

// PageInfo 返回主页基本信息；失败返回 nil。fields 为空时使用 DefaultPageFields。
func (c *Client) PageInfo(ctx context.Context, pageID, fields string) *PageInfo {
	p, err := c.FetchPageInfo(ctx, pageID, fields)
	if err != nil {
		c.logFailure(err, "page_info")
		return nil
	}
	return p
}

func (c *Client) FetchPageInfo(ctx context.Context, pageID, fields string) (*PageInfo, error) {
	pageID, err := c.precheck(pageID)
	if err != nil {
		return nil, err
	}
	p, err := fetch.GetJSON[PageInfo](ctx, c.http, c.ep, "/"+fetch.Segment(pageID), c.query(fields, DefaultPageFields))
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// precheck 依次校验 token 与 page id，返回最终使用的 page id。
func (c *Client) precheck(pageID string) (string, error) {
	if !c.Configured() {
		return "", provider.ErrNotConfigured
	}
	pageID = strings.TrimSpace(pageID)
	if pageID == "" {
		pageID = c.cfg.PageID
	}
	if pageID == "" {
		return "", &provider.MissingFieldError{Field: "page_id"}
	}
	return pageID, nil
}

func (c *Client) query(fields, def string) url.Values {
	fields = strings.TrimSpace(fields)
	if fields == "" {
		fields = def
	}
	q := url.Values{}
	q.Set("access_token", c.cfg.AccessToken)
	q.Set("fields", fields)
	return q
}

func (c *Client) logFailure(err error, op string) {
	ev := c.log.Warn()
	if errors.Is(err, provider.ErrNotConfigured) {
		ev = c.log.Info()
	}
	ev.Err(err).Str("op", op).Msg("拉取 Facebook 数据失败")
}

func limitOrDefault(n int) int {
	if n <= 0 {
		return DefaultLimit
	}
	return n
}

// envelope 是 Graph API 列表响应的外壳：{"data":[...],"paging":{...}}。
type envelope[T any] struct {
	Data []T `json:"data"`
}

func (e envelope[T]) items() []T {
	if e.Data == nil {
		return []T{}
	}
	return e.Data
}

type Post struct {
	ID           string `json:"id"`
	Message      string `json:"message,omitempty"`
	CreatedTime  string `json:"created_time,omitempty"`
	FullPicture  string `json:"full_picture,omitempty"`
	PermalinkURL string `json:"permalink_url,omitempty"`
}

type Event struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
	StartTime   string `json:"start_time,omitempty"`
	EndTime     string `json:"end_time,omitempty"`
	Place       *Place `json:"place,omitempty"`
	Cover       *Cover `json:"cover,omitempty"`
}

type Place struct {
	ID       string    `json:"id,omitempty"`
	Name     string    `json:"name"`
	Location *Location `json:"location,omitempty"`
}

type Location struct {
	City    string `json:"city,omitempty"`
	Country string `json:"country,omitempty"`
	Street  string `json:"street,omitempty"`
}

type Cover struct {
	ID     string `json:"id,omitempty"`
	Source string `json:"source"`
}

type PageInfo struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	About       string   `json:"about,omitempty"`
	Description string   `json:"description,omitempty"`
	FanCount    int      `json:"fan_count"`
	Link        string   `json:"link,omitempty"`
	Picture     *Picture `json:"picture,omitempty"`
}

// Picture 对应 Graph API 的 picture{url}，实际响应包了一层 data。
type Picture struct {
	Data struct {
		URL string `json:"url"`
	} `json:"data"`
}

// URL 返回头像地址；p 为 nil 时返回空串。
func (p *Picture) URL() string {
	if p == nil {
		return ""
	}
	return p.Data.URL
}
