// Package markup 把 README 之类的 Markdown 渲染为 HTML，并从 HTML 中提取可展示的纯文本摘要。
package markup

import (
	"bytes"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// DefaultExcerptLen 是项目卡片上摘要的默认长度（按 rune 计）。
const DefaultExcerptLen = 100

var md = goldmark.New(goldmark.WithExtensions(extension.GFM))

// RenderMarkdown 把 Markdown 渲染为 HTML（GFM 方言）。
// goldmark 默认不输出原始 HTML，README 中内嵌的 <script> 等会被丢弃。
func RenderMarkdown(src []byte) (string, error) {
	var buf bytes.Buffer
	if err := md.Convert(src, &buf); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// Excerpt 取 HTML 中第一个非空段落的纯文本，并截断到 max 个字符。
// 没有段落时退化为整个文档的文本。
func Excerpt(html string, max int) string {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return ""
	}

	var text string
	doc.Find("p").EachWithBreak(func(_ int, s *goquery.Selection) bool {
		text = normSpace(s.Text())
		return text == ""
	})
	if text == "" {
		text = normSpace(doc.Text())
	}
	return Truncate(text, max)
}

// ReadmeExcerpt = RenderMarkdown + Excerpt；渲染失败返回空串。
func ReadmeExcerpt(src []byte, max int) string {
	h, err := RenderMarkdown(src)
	if err != nil {
		return ""
	}
	return Excerpt(h, max)
}

// Truncate 把 s 截断到 max 个字符并追加 "..."；未超长时原样返回。
func Truncate(s string, max int) string {
	if max <= 0 || utf8.RuneCountInString(s) <= max {
		return s
	}
	r := []rune(s)
	return string(r[:max]) + "..."
}

// KebabToTitle 把 kebab-case 转成 Title Case（例如仓库名 my-cool-app -> My Cool App）。
func KebabToTitle(s string) string {
	if s == "" {
		return ""
	}
	parts := strings.Split(s, "-")
	for i, p := range parts {
		if p == "" {
			continue
		}
		r, size := utf8.DecodeRuneInString(p)
		parts[i] = string(unicode.ToUpper(r)) + p[size:]
	}
	return strings.Join(parts, " ")
}

func normSpace(s string) string { return strings.Join(strings.Fields(s), " ") }
