package section

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/John-Robertt/folio/internal/provider/github"
	"github.com/John-Robertt/folio/internal/provider/meta"
	"github.com/John-Robertt/folio/internal/provider/unsplash"
)

// Clients 是构造全部 section 所需的 provider。
type Clients struct {
	GitHub   *github.Client
	Unsplash *unsplash.Client
	Meta     *meta.Client
}

// Set 按固定顺序持有一组 section（只读，可并发使用）。
type Set struct {
	byName map[string]Section
	order  []Section
}

// NewSet 构造 Names 中的全部 section。
func NewSet(c Clients, opts Options) (*Set, error) {
	if c.GitHub == nil || c.Unsplash == nil || c.Meta == nil {
		return nil, errors.New("section: provider 不能为空")
	}
	return Of(
		NewProjects(c.GitHub, opts),
		NewProfile(c.GitHub, opts),
		NewGallery(c.Unsplash, opts),
		NewEvents(c.Meta, opts),
		NewFeed(c.Meta, opts),
	)
}

// Of 用给定 section 组成 Set；名字必须唯一且非空。
func Of(sections ...Section) (*Set, error) {
	s := &Set{byName: make(map[string]Section, len(sections))}
	for _, sec := range sections {
		if sec == nil {
			continue
		}
		name := strings.ToLower(strings.TrimSpace(sec.Name()))
		if name == "" {
			return nil, errors.New("section 名称不能为空")
		}
		if _, ok := s.byName[name]; ok {
			return nil, fmt.Errorf("section 名称重复：%s", name)
		}
		s.byName[name] = sec
		s.order = append(s.order, sec)
	}
	return s, nil
}

// Get 按名字查找（大小写不敏感）。
func (s *Set) Get(name string) (Section, bool) {
	sec, ok := s.byName[strings.ToLower(strings.TrimSpace(name))]
	return sec, ok
}

// All 返回按构造顺序排列的全部 section。
func (s *Set) All() []Section { return append([]Section(nil), s.order...) }

// Names 返回全部 section 名。
func (s *Set) Names() []string {
	out := make([]string, 0, len(s.order))
	for _, sec := range s.order {
		out = append(out, sec.Name())
	}
	return out
}

// Wait 等待全部 section 的后台拉取结算。
func (s *Set) Wait() {
	for _, sec := range s.order {
		sec.Wait()
	}
}

// Close 拆除全部 section。
func (s *Set) Close() {
	for _, sec := range s.order {
		sec.Close()
	}
}

// RefreshAll 依次手动刷新全部 section（定时刷新使用）；ctx 取消时提前返回。
func (s *Set) RefreshAll(ctx context.Context) error {
	for _, sec := range s.order {
		if err := ctx.Err(); err != nil {
			return err
		}
		sec.Refresh(ctx, noLocale)
	}
	return nil
}
