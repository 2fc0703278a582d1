package github

// languageColors 与 GitHub linguist 的主色保持一致（只收录作品集里常见的语言）。
var languageColors = map[string]string{
	"JavaScript": "#f1e05a",
	"TypeScript": "#3178c6",
	"Python":     "#3572A5",
	"Java":       "#b07219",
	"C++":        "#f34b7d",
	"HTML":       "#e34c26",
	"CSS":        "#563d7c",
	"PHP":        "#4F5D95",
	"Ruby":       "#701516",
	"Go":         "#00ADD8",
	"Swift":      "#ffac45",
	"Kotlin":     "#A97BFF",
	"Rust":       "#dea584",
}

// DefaultLanguageColor 用于未收录或为空的语言。
const DefaultLanguageColor = "#8e8e8e"

// LanguageColor 返回语言的展示色。
func LanguageColor(lang string) string {
	if c, ok := languageColors[lang]; ok {
		return c
	}
	return DefaultLanguageColor
}
