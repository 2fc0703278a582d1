// Package i18n 提供显式构造、显式传递的文案与格式化上下文。
//
// 没有包级可变单例：Bundle 在启动时构造一次，按请求派生 Localizer 向下传递。
package i18n

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// DefaultLocale 是无法匹配 Accept-Language 时的回退语言。
const DefaultLocale = "vi"

// Bundle 持有全部语言的文案表与语言匹配器（只读，可并发使用）。
type Bundle struct {
	fallback language.Tag
	tags     []language.Tag
	matcher  language.Matcher
	messages map[language.Tag]map[string]string
}

// New 用内置文案表构造 Bundle；fallback 必须是内置语言之一。
func New(fallback string) (*Bundle, error) {
	if strings.TrimSpace(fallback) == "" {
		fallback = DefaultLocale
	}
	fb, err := language.Parse(fallback)
	if err != nil {
		return nil, fmt.Errorf("locale 无效：%q：%w", fallback, err)
	}

	b := &Bundle{messages: make(map[language.Tag]map[string]string, len(builtin))}
	// fallback 放在第一位：matcher 在无法匹配时返回第一个 tag。
	b.tags = append(b.tags, fb)
	found := false
	for code, msgs := range builtin {
		tag := language.MustParse(code)
		b.messages[tag] = msgs
		if tag == fb {
			found = true
			continue
		}
		b.tags = append(b.tags, tag)
	}
	if !found {
		return nil, fmt.Errorf("不支持的 locale：%q", fallback)
	}
	b.fallback = fb
	b.matcher = language.NewMatcher(b.tags)
	return b, nil
}

// Match 按 Accept-Language 头（或单个语言代码）选出最合适的已支持语言。
func (b *Bundle) Match(accept string) language.Tag {
	tags, _, err := language.ParseAcceptLanguage(accept)
	if err != nil || len(tags) == 0 {
		return b.fallback
	}
	_, idx, conf := b.matcher.Match(tags...)
	if conf == language.No {
		return b.fallback
	}
	return b.tags[idx]
}

// Localizer 为单个语言派生查询器。
func (b *Bundle) Localizer(tag language.Tag) Localizer {
	msgs, ok := b.messages[tag]
	if !ok {
		tag = b.fallback
		msgs = b.messages[tag]
	}
	return Localizer{
		tag:      tag,
		msgs:     msgs,
		fallback: b.messages[b.fallback],
		printer:  message.NewPrinter(tag),
	}
}

// For = Localizer(Match(accept))。
func (b *Bundle) For(accept string) Localizer { return b.Localizer(b.Match(accept)) }

// Localizer 是单个语言的只读视图。零值不可用，必须由 Bundle 派生。
type Localizer struct {
	tag      language.Tag
	msgs     map[string]string
	fallback map[string]string
	printer  *message.Printer
}

// Lang 返回基础语言代码（"en" / "vi"）。
func (l Localizer) Lang() string {
	base, _ := l.tag.Base()
	return base.String()
}

// T 查找 key：当前语言 -> 回退语言 -> key 本身。
func (l Localizer) T(key string) string {
	if s, ok := l.msgs[key]; ok {
		return s
	}
	if s, ok := l.fallback[key]; ok {
		return s
	}
	return key
}

// FormatNumber 按语言习惯加千分位。
func (l Localizer) FormatNumber(n int64) string {
	if l.printer == nil {
		return strconv.FormatInt(n, 10)
	}
	return l.printer.Sprintf("%d", n)
}

// FormatDate 输出“年 + 月份全称 + 日”的长日期。
func (l Localizer) FormatDate(t time.Time) string {
	if l.Lang() == "vi" {
		return fmt.Sprintf("%d %s, %d", t.Day(), monthsVI[t.Month()], t.Year())
	}
	return t.Format("January 2, 2006")
}
