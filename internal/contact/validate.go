package contact

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/John-Robertt/folio/internal/i18n"
)

var emailRe = regexp.MustCompile(`(?i)^[A-Z0-9._%+-]+@[A-Z0-9.-]+\.[A-Z]{2,}$`)

// IsValidEmail 只做格式校验（不 trim：首尾空白视为非法）。
func IsValidEmail(s string) bool { return emailRe.MatchString(s) }

// IsRequired 报告 trim 后是否非空。
func IsRequired(s string) bool { return strings.TrimSpace(s) != "" }

// HasMinLength / HasMaxLength 按 trim 后的字符数（rune）比较。
func HasMinLength(s string, n int) bool { return utf8.RuneCountInString(strings.TrimSpace(s)) >= n }

func HasMaxLength(s string, n int) bool { return utf8.RuneCountInString(strings.TrimSpace(s)) <= n }

// Fields 是表单当前的输入值。
type Fields struct {
	Name    string            `json:"name"`
	Email   string            `json:"email"`
	Message string            `json:"message"`
	Extra   map[string]string `json:"extra,omitempty"`
}

// FieldErrors 以字段名为键，值为本地化后的错误文案；为空表示校验通过。
type FieldErrors map[string]string

// Limits 是可选的长度约束；零值表示不限制。
type Limits struct {
	MessageMin int
	MessageMax int
}

// Validate 逐字段校验；每个字段最多一条错误。
func Validate(f Fields, lim Limits, loc i18n.Localizer) FieldErrors {
	errs := FieldErrors{}
	if !IsRequired(f.Name) {
		errs["name"] = loc.T("contact.form.required")
	}
	switch {
	case !IsRequired(f.Email):
		errs["email"] = loc.T("contact.form.required")
	case !IsValidEmail(f.Email):
		errs["email"] = loc.T("contact.form.invalidEmail")
	}
	switch {
	case !IsRequired(f.Message):
		errs["message"] = loc.T("contact.form.required")
	case lim.MessageMin > 0 && !HasMinLength(f.Message, lim.MessageMin):
		errs["message"] = loc.T("contact.form.tooShort")
	case lim.MessageMax > 0 && !HasMaxLength(f.Message, lim.MessageMax):
		errs["message"] = loc.T("contact.form.tooLong")
	}
	return errs
}
