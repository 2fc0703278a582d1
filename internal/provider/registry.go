package provider

import (
	"fmt"
	"sort"
	"strings"
)

// Registry 是 provider 的只读注册表（按 name 索引）。
// provider 数量固定且极小，用 map 保持简单即可。
type Registry struct {
	byName map[string]Provider
}

// Status 是 /api/providers 的一行输出。
type Status struct {
	Name       string `json:"name"`
	Configured bool   `json:"configured"`
}

func NewRegistry(providers ...Provider) (Registry, error) {
	byName := make(map[string]Provider, len(providers))
	for _, p := range providers {
		if p == nil {
			return Registry{}, fmt.Errorf("provider 不能为空")
		}
		name := strings.ToLower(strings.TrimSpace(p.Name()))
		if name == "" {
			return Registry{}, fmt.Errorf("provider.Name 不能为空")
		}
		if _, ok := byName[name]; ok {
			return Registry{}, fmt.Errorf("重复的 provider：%q", name)
		}
		byName[name] = p
	}
	return Registry{byName: byName}, nil
}

func (r Registry) Get(name string) (Provider, bool) {
	if r.byName == nil {
		return nil, false
	}
	name = strings.ToLower(strings.TrimSpace(name))
	p, ok := r.byName[name]
	return p, ok
}

// Statuses 按 name 字典序返回每个 provider 的配置状态。
func (r Registry) Statuses() []Status {
	out := make([]Status, 0, len(r.byName))
	for name, p := range r.byName {
		out = append(out, Status{Name: name, Configured: p.Configured()})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}
