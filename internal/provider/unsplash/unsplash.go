package unsplash

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/John-Robertt/folio/internal/fetch"
	"github.com/John-Robertt/folio/internal/provider"
)

const (
	Name           = "unsplash"
	DefaultBaseURL = "https://api.unsplash.com"

	// MaxPerRequest 是 Unsplash 单次请求的条数上限；count/per_page 一律静默截断到该值。
	MaxPerRequest = 30

	DefaultCount       = 1
	DefaultOrientation = "landscape"
	DefaultPerPage     = 10
	DefaultOrderBy     = "relevant"
)

type Config struct {
	BaseURL   string
	AccessKey string
}

// Client 实现随机图片 / 搜索 / 集合三个读操作。
//
// 约束：access key 缺失时在发起请求前短路并返回哨兵；
// 任何失败都不向调用方返回错误。
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
	cfg.AccessKey = strings.TrimSpace(cfg.AccessKey)
	h := http.Header{}
	h.Set("Accept-Version", "v1")
	return &Client{
		cfg:  cfg,
		http: c,
		log:  log.With().Str("provider", Name).Logger(),
		ep:   fetch.Endpoint{Provider: Name, BaseURL: cfg.BaseURL, Header: h},
	}
}

func (c *Client) Name() string     { return Name }
func (c *Client) Configured() bool { return c.cfg.AccessKey != "" }

// clampCount 把非正数替换为默认值，再截断到 MaxPerRequest。
func clampCount(n, def int) int {
	if n <= 0 {
		n = def
	}
	return min(n, MaxPerRequest)
}

type RandomOptions struct {
	Count       int    // 默认 1，上限 30
	Query       string // 可选
	Orientation string // landscape|portrait|squarish，默认 landscape
}

// RandomPhotos 返回随机图片；失败返回空切片。
func (c *Client) RandomPhotos(ctx context.Context, opts RandomOptions) []Photo {
	photos, err := c.FetchRandomPhotos(ctx, opts)
	if err != nil {
		c.logFailure(err, "random_photos")
		return []Photo{}
	}
	return photos
}

func (c *Client) FetchRandomPhotos(ctx context.Context, opts RandomOptions) ([]Photo, error) {
	if !c.Configured() {
		return nil, provider.ErrNotConfigured
	}
	orientation := strings.TrimSpace(opts.Orientation)
	if orientation == "" {
		orientation = DefaultOrientation
	}

	q := c.query()
	q.Set("count", strconv.Itoa(clampCount(opts.Count, DefaultCount)))
	if s := strings.TrimSpace(opts.Query); s != "" {
		q.Set("query", s)
	}
	q.Set("orientation", orientation)

	// 带 count 参数时 Unsplash 总是返回数组。
	photos, err := fetch.GetJSON[[]Photo](ctx, c.http, c.ep, "/photos/random", q)
	if err != nil {
		return nil, err
	}
	if photos == nil {
		photos = []Photo{}
	}
	return photos, nil
}

type SearchOptions struct {
	Query       string // 必填
	Page        int    // 默认 1
	PerPage     int    // 默认 10，上限 30
	Orientation string // 可选
	OrderBy     string // relevant|latest，默认 relevant
}

// SearchPhotos 搜索图片；失败返回 EmptySearch()。
func (c *Client) SearchPhotos(ctx context.Context, opts SearchOptions) SearchResult {
	res, err := c.FetchSearchPhotos(ctx, opts)
	if err != nil {
		c.logFailure(err, "search_photos")
		return EmptySearch()
	}
	return res
}

func (c *Client) FetchSearchPhotos(ctx context.Context, opts SearchOptions) (SearchResult, error) {
	if !c.Configured() {
		return SearchResult{}, provider.ErrNotConfigured
	}
	query := strings.TrimSpace(opts.Query)
	if query == "" {
		return SearchResult{}, &provider.MissingFieldError{Field: "query"}
	}
	page := opts.Page
	if page <= 0 {
		page = 1
	}
	orderBy := strings.TrimSpace(opts.OrderBy)
	if orderBy == "" {
		orderBy = DefaultOrderBy
	}

	q := c.query()
	q.Set("query", query)
	q.Set("page", strconv.Itoa(page))
	q.Set("per_page", strconv.Itoa(clampCount(opts.PerPage, DefaultPerPage)))
	q.Set("order_by", orderBy)
	if s := strings.TrimSpace(opts.Orientation); s != "" {
		q.Set("orientation", s)
	}

	res, err := fetch.GetJSON[SearchResult](ctx, c.http, c.ep, "/search/photos", q)
	if err != nil {
		return SearchResult{}, err
	}
	if res.Results == nil {
		res.Results = []Photo{}
	}
	return res, nil
}

type CollectionOptions struct {
	Page    int // 默认 1
	PerPage int // 默认 10，上限 30
}

// CollectionPhotos 返回集合内的图片；失败返回空切片。
func (c *Client) CollectionPhotos(ctx context.Context, collectionID string, opts CollectionOptions) []Photo {
	photos, err := c.FetchCollectionPhotos(ctx, collectionID, opts)
	if err != nil {
		c.logFailure(err, "collection_photos")
		return []Photo{}
	}
	return photos
}

func (c *Client) FetchCollectionPhotos(ctx context.Context, collectionID string, opts CollectionOptions) ([]Photo, error) {
	if !c.Configured() {
		return nil, provider.ErrNotConfigured
	}
	collectionID = strings.TrimSpace(collectionID)
	if collectionID == "" {
		return nil, &provider.MissingFieldError{Field: "collection_id"}
	}
	page := opts.Page
	if page <= 0 {
		page = 1
	}

	q := c.query()
	q.Set("page", strconv.Itoa(page))
	q.Set("per_page", strconv.Itoa(clampCount(opts.PerPage, DefaultPerPage)))

	photos, err := fetch.GetJSON[[]Photo](ctx, c.http, c.ep, "/collections/"+fetch.Segment(collectionID)+"/photos", q)
	if err != nil {
		return nil, err
	}
	if photos == nil {
		photos = []Photo{}
	}
	return photos, nil
}

func (c *Client) query() url.Values {
	q := url.Values{}
	q.Set("client_id", c.cfg.AccessKey)
	return q
}

func (c *Client) logFailure(err error, op string) {
	ev := c.log.Warn()
	if errors.Is(err, provider.ErrNotConfigured) {
		ev = c.log.Info()
	}
	ev.Err(err).Str("op", op).Msg("拉取图片失败")
}

// EmptySearch 是搜索失败时的哨兵值。
func EmptySearch() SearchResult {
	return SearchResult{Results: []Photo{}, Total: 0, TotalPages: 0}
}

type SearchResult struct {
	Total      int     `json:"total"`
	TotalPages int     `json:"total_pages"`
	Results    []Photo `json:"results"`
}

type Photo struct {
	ID             string    `json:"id"`
	Description    string    `json:"description"`
	AltDescription string    `json:"alt_description"`
	Width          int       `json:"width"`
	Height         int       `json:"height"`
	Color          string    `json:"color"`
	BlurHash       string    `json:"blur_hash"`
	Likes          int       `json:"likes"`
	CreatedAt      time.Time `json:"created_at"`
	URLs           URLs      `json:"urls"`
	Links          Links     `json:"links"`
	User           User      `json:"user"`
}

type URLs struct {
	Raw     string `json:"raw"`
	Full    string `json:"full"`
	Regular string `json:"regular"`
	Small   string `json:"small"`
	Thumb   string `json:"thumb"`
}

type Links struct {
	HTML     string `json:"html"`
	Download string `json:"download"`
}

// User 是图片作者（用于署名）。
type User struct {
	Name     string `json:"name"`
	Username string `json:"username"`
	Links    Links  `json:"links"`
}
