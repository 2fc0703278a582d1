package github

import (
	"context"
	"encoding/base64"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/John-Robertt/folio/internal/fetch"
	"github.com/John-Robertt/folio/internal/markup"
	"github.com/John-Robertt/folio/internal/provider"
)

const (
	Name            = "github"
	DefaultBaseURL  = "https://api.github.com"
	DefaultUsername = "lhqtapcode"

	DefaultLimit     = 10
	DefaultSort      = "updated"
	DefaultDirection = "desc"
)

// Config 是 GitHub provider 的静态配置（启动时读取一次，之后只读）。
type Config struct {
	BaseURL  string
	Username string
	// Token 可选：为空时走匿名请求（受 GitHub 匿名限流约束）。
	Token string
}

// Client 实现仓库列表 / 用户资料 / 仓库详情三个读操作。
//
// 约束：读操作永远返回值而不是错误；失败时记日志并返回哨兵
// （列表为空切片，资料与详情为 nil）。
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
	cfg.Username = strings.TrimSpace(cfg.Username)
	cfg.Token = strings.TrimSpace(cfg.Token)

	h := http.Header{}
	h.Set("Accept", "application/vnd.github.v3+json")
	if cfg.Token != "" {
		h.Set("Authorization", "token "+cfg.Token)
	}
	return &Client{
		cfg:  cfg,
		http: c,
		log:  log.With().Str("provider", Name).Logger(),
		ep:   fetch.Endpoint{Provider: Name, BaseURL: cfg.BaseURL, Header: h},
	}
}

func (c *Client) Name() string { return Name }

// Configured 只要求用户名；token 缺失不影响可用性。
func (c *Client) Configured() bool { return c.cfg.Username != "" }

// Username 返回当前查询的 GitHub 用户名。
func (c *Client) Username() string { return c.cfg.Username }

// RepoOptions 是仓库列表的查询参数，零值字段使用默认值。
type RepoOptions struct {
	Limit     int    // 默认 10
	Sort      string // updated|created|pushed|full_name，默认 updated
	Direction string // asc|desc，默认 desc
	Language  string // 非空时只保留该语言的仓库（客户端过滤）
}

func (o RepoOptions) withDefaults() RepoOptions {
	if o.Limit <= 0 {
		o.Limit = DefaultLimit
	}
	if strings.TrimSpace(o.Sort) == "" {
		o.Sort = DefaultSort
	}
	if strings.TrimSpace(o.Direction) == "" {
		o.Direction = DefaultDirection
	}
	return o
}

// Repositories 返回用户的仓库列表（按 provider 返回顺序）；失败返回空切片。
func (c *Client) Repositories(ctx context.Context, opts RepoOptions) []Repository {
	repos, err := c.FetchRepositories(ctx, opts)
	if err != nil {
		c.log.Warn().Err(err).Str("op", "repositories").Msg("拉取仓库列表失败")
		return []Repository{}
	}
	return repos
}

// FetchRepositories 与 Repositories 相同，但把失败显式返回给调用方。
func (c *Client) FetchRepositories(ctx context.Context, opts RepoOptions) ([]Repository, error) {
	if !c.Configured() {
		return nil, provider.ErrNotConfigured
	}
	opts = opts.withDefaults()

	q := url.Values{}
	q.Set("sort", opts.Sort)
	q.Set("direction", opts.Direction)
	q.Set("per_page", strconv.Itoa(opts.Limit))

	repos, err := fetch.GetJSON[[]Repository](ctx, c.http, c.ep, "/users/"+fetch.Segment(c.cfg.Username)+"/repos", q)
	if err != nil {
		return nil, err
	}

	out := make([]Repository, 0, len(repos))
	for _, r := range repos {
		if opts.Language != "" && r.Language != opts.Language {
			continue
		}
		out = append(out, r)
		// per_page 已经限制了条数；这里再兜底一次，结果永远不超过 limit。
		if len(out) == opts.Limit {
			break
		}
	}
	return out, nil
}

// Profile 返回用户资料；失败返回 nil。
func (c *Client) Profile(ctx context.Context) *User {
	u, err := c.FetchProfile(ctx)
	if err != nil {
		c.log.Warn().Err(err).Str("op", "profile").Msg("拉取用户资料失败")
		return nil
	}
	return u
}

func (c *Client) FetchProfile(ctx context.Context) (*User, error) {
	if !c.Configured() {
		return nil, provider.ErrNotConfigured
	}
	u, err := fetch.GetJSON[User](ctx, c.http, c.ep, "/users/"+fetch.Segment(c.cfg.Username), nil)
	if err != nil {
		return nil, err
	}
	return &u, nil
}

// RepositoryDetail 返回单个仓库及其 README；失败返回 nil。
//
// 两次顺序请求：先仓库元数据，成功后再取 README。
// README 请求或解码失败只会让结果缺少 Readme 字段，不影响元数据。
func (c *Client) RepositoryDetail(ctx context.Context, repo string) *Repository {
	r, err := c.FetchRepositoryDetail(ctx, repo)
	if err != nil {
		c.log.Warn().Err(err).Str("op", "repository_detail").Str("repo", repo).Msg("拉取仓库详情失败")
		return nil
	}
	return r
}

func (c *Client) FetchRepositoryDetail(ctx context.Context, repo string) (*Repository, error) {
	if !c.Configured() {
		return nil, provider.ErrNotConfigured
	}
	repo = strings.TrimSpace(repo)
	if repo == "" {
		return nil, &provider.MissingFieldError{Field: "repo"}
	}

	base := "/repos/" + fetch.Segment(c.cfg.Username) + "/" + fetch.Segment(repo)
	r, err := fetch.GetJSON[Repository](ctx, c.http, c.ep, base, nil)
	if err != nil {
		return nil, err
	}

	rm, err := c.readme(ctx, base+"/readme")
	if err != nil {
		c.log.Debug().Err(err).Str("repo", repo).Msg("README 不可用，忽略")
		return &r, nil
	}
	r.Readme = rm
	return &r, nil
}

func (c *Client) readme(ctx context.Context, path string) (*Readme, error) {
	raw, err := fetch.GetJSON[readmeResponse](ctx, c.http, c.ep, path, nil)
	if err != nil {
		return nil, err
	}
	content, err := decodeContent(raw.Content, raw.Encoding)
	if err != nil {
		return nil, err
	}
	return &Readme{
		Content: content,
		URL:     raw.HTMLURL,
		Excerpt: markup.ReadmeExcerpt([]byte(content), markup.DefaultExcerptLen),
	}, nil
}

// decodeContent 解码 GitHub contents API 的 base64 内容（每 60 字符换行）。
func decodeContent(content, encoding string) (string, error) {
	if encoding != "" && encoding != "base64" {
		return "", errors.New("不支持的 README 编码：" + encoding)
	}
	clean := strings.NewReplacer("\n", "", "\r", "").Replace(content)
	b, err := base64.StdEncoding.DecodeString(clean)
	if err != nil {
		return "", err
	}
	return string(b), nil
}

// Repository 是仓库元数据（只保留展示需要的字段）。
type Repository struct {
	ID              int64     `json:"id"`
	Name            string    `json:"name"`
	FullName        string    `json:"full_name"`
	Description     string    `json:"description"`
	HTMLURL         string    `json:"html_url"`
	Homepage        string    `json:"homepage"`
	Language        string    `json:"language"`
	Topics          []string  `json:"topics,omitempty"`
	Fork            bool      `json:"fork"`
	Archived        bool      `json:"archived"`
	StargazersCount int       `json:"stargazers_count"`
	WatchersCount   int       `json:"watchers_count"`
	ForksCount      int       `json:"forks_count"`
	OpenIssuesCount int       `json:"open_issues_count"`
	DefaultBranch   string    `json:"default_branch"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
	PushedAt        time.Time `json:"pushed_at"`
	Owner           *Owner    `json:"owner,omitempty"`

	Readme *Readme `json:"readme,omitempty"`
}

type Owner struct {
	Login     string `json:"login"`
	AvatarURL string `json:"avatar_url"`
	HTMLURL   string `json:"html_url"`
}

// Readme 是解码后的 README 及其纯文本摘要。
type Readme struct {
	Content string `json:"content"`
	URL     string `json:"url"`
	Excerpt string `json:"excerpt,omitempty"`
}

type readmeResponse struct {
	Content  string `json:"content"`
	Encoding string `json:"encoding"`
	HTMLURL  string `json:"html_url"`
}

// User 是用户资料。
type User struct {
	Login       string    `json:"login"`
	Name        string    `json:"name"`
	AvatarURL   string    `json:"avatar_url"`
	HTMLURL     string    `json:"html_url"`
	Bio         string    `json:"bio"`
	Blog        string    `json:"blog"`
	Company     string    `json:"company"`
	Location    string    `json:"location"`
	PublicRepos int       `json:"public_repos"`
	Followers   int       `json:"followers"`
	Following   int       `json:"following"`
	CreatedAt   time.Time `json:"created_at"`
}
