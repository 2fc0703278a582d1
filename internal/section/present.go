package section

import (
	"strings"
	"time"

	"github.com/John-Robertt/folio/internal/i18n"
	"github.com/John-Robertt/folio/internal/markup"
	"github.com/John-Robertt/folio/internal/provider/github"
	"github.com/John-Robertt/folio/internal/provider/meta"
)

const (
	descriptionLen = 100
	postExcerptLen = 160
)

// graphTimeLayout 是 Graph API 的时间格式（时区不带冒号）。
const graphTimeLayout = "2006-01-02T15:04:05-0700"

type ProjectDisplay struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	Stars       string `json:"stars"`
	Forks       string `json:"forks"`
	Updated     string `json:"updated,omitempty"`
}

func presentProjects(ps []Project, loc i18n.Localizer) any {
	out := make([]ProjectDisplay, 0, len(ps))
	for _, p := range ps {
		desc := strings.TrimSpace(p.Description)
		if desc == "" {
			desc = loc.T("projects.noDescription")
		}
		out = append(out, ProjectDisplay{
			Title:       markup.KebabToTitle(p.Name),
			Description: markup.Truncate(desc, descriptionLen),
			Stars:       loc.FormatNumber(int64(p.StargazersCount)),
			Forks:       loc.FormatNumber(int64(p.ForksCount)),
			Updated:     formatTime(p.UpdatedAt, loc),
		})
	}
	return out
}

type ProfileDisplay struct {
	PublicRepos string `json:"public_repos"`
	Followers   string `json:"followers"`
	Joined      string `json:"joined,omitempty"`
}

func presentProfile(u *github.User, loc i18n.Localizer) any {
	if u == nil {
		return nil
	}
	return ProfileDisplay{
		PublicRepos: loc.FormatNumber(int64(u.PublicRepos)),
		Followers:   loc.FormatNumber(int64(u.Followers)),
		Joined:      formatTime(u.CreatedAt, loc),
	}
}

type EventDisplay struct {
	Name  string `json:"name"`
	Start string `json:"start,omitempty"`
	End   string `json:"end,omitempty"`
	Place string `json:"place,omitempty"`
}

type EventsDisplay struct {
	Fans   string         `json:"fans,omitempty"`
	Events []EventDisplay `json:"events"`
}

func presentEvents(d EventsData, loc i18n.Localizer) any {
	out := EventsDisplay{Events: make([]EventDisplay, 0, len(d.Events))}
	if d.Page != nil && d.Page.FanCount > 0 {
		out.Fans = loc.FormatNumber(int64(d.Page.FanCount))
	}
	for _, e := range d.Events {
		ed := EventDisplay{
			Name:  e.Name,
			Start: formatGraphTime(e.StartTime, loc),
			End:   formatGraphTime(e.EndTime, loc),
		}
		if e.Place != nil {
			ed.Place = e.Place.Name
		}
		out.Events = append(out.Events, ed)
	}
	return out
}

type PostDisplay struct {
	Excerpt string `json:"excerpt"`
	Date    string `json:"date,omitempty"`
}

func presentFeed(posts []meta.Post, loc i18n.Localizer) any {
	out := make([]PostDisplay, 0, len(posts))
	for _, p := range posts {
		out = append(out, PostDisplay{
			Excerpt: markup.Truncate(strings.TrimSpace(p.Message), postExcerptLen),
			Date:    formatGraphTime(p.CreatedTime, loc),
		})
	}
	return out
}

func formatTime(t time.Time, loc i18n.Localizer) string {
	if t.IsZero() {
		return ""
	}
	return loc.FormatDate(t)
}

// formatGraphTime 无法解析时原样返回。
func formatGraphTime(raw string, loc i18n.Localizer) string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return ""
	}
	t, err := time.Parse(graphTimeLayout, raw)
	if err != nil {
		if t, err = time.Parse(time.RFC3339, raw); err != nil {
			return raw
		}
	}
	return loc.FormatDate(t)
}
