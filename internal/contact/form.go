// Package contact 实现联系表单：字段校验、提交状态机与发送后的自动复位。
package contact

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/John-Robertt/folio/internal/i18n"
	"github.com/John-Robertt/folio/internal/provider/emailjs"
)

// DefaultResetAfter 是发送成功后 Status 自动复位的延迟。
const DefaultResetAfter = 5 * time.Second

// Sender 是表单依赖的发送能力（*emailjs.Client 实现它）。
type Sender interface {
	Send(ctx context.Context, form emailjs.Form, opts emailjs.SendOptions) (emailjs.Response, error)
}

// Status 是最近一次提交的结果。ID 是该次提交的唯一标识（写入日志，便于排查）。
type Status struct {
	Submitted bool   `json:"submitted"`
	Success   bool   `json:"success"`
	Message   string `json:"message"`
	ID        string `json:"id,omitempty"`
}

type Options struct {
	Sender    Sender
	Localizer i18n.Localizer
	Logger    zerolog.Logger
	Limits    Limits
	Send      emailjs.SendOptions
	// ResetAfter <= 0 时使用 DefaultResetAfter。
	ResetAfter time.Duration

	OnSuccess func(id string)
	OnError   func(err error)
}

// Form 持有一份表单的输入、逐字段错误、提交状态。所有方法并发安全。
//
// 约束：
// - 校验失败不发起网络调用；
// - 成功清空输入并在 ResetAfter 后复位 Status；失败保留输入。
type Form struct {
	opts Options

	mu      sync.Mutex
	fields  Fields
	errs    FieldErrors
	status  Status
	loading bool
	timer   *time.Timer
}

func New(opts Options) *Form {
	if opts.ResetAfter <= 0 {
		opts.ResetAfter = DefaultResetAfter
	}
	opts.Logger = opts.Logger.With().Str("component", "contact").Logger()
	return &Form{opts: opts, errs: FieldErrors{}}
}

// Set 修改一个字段，并清除该字段已有的错误。未知字段写入 Extra。
func (f *Form) Set(name, value string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch name {
	case "name":
		f.fields.Name = value
	case "email":
		f.fields.Email = value
	case "message":
		f.fields.Message = value
	default:
		if f.fields.Extra == nil {
			f.fields.Extra = map[string]string{}
		}
		f.fields.Extra[name] = value
	}
	delete(f.errs, name)
}

// Fill 一次性替换全部输入（HTTP / CLI 入口使用）。
func (f *Form) Fill(v Fields) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fields = v
	f.errs = FieldErrors{}
}

func (f *Form) Fields() Fields {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.fields
}

func (f *Form) Errors() FieldErrors {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make(FieldErrors, len(f.errs))
	for k, v := range f.errs {
		out[k] = v
	}
	return out
}

func (f *Form) Status() Status {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.status
}

func (f *Form) Loading() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.loading
}

// Validate 校验当前输入并记录错误；返回是否通过。
func (f *Form) Validate() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.errs = Validate(f.fields, f.opts.Limits, f.opts.Localizer)
	return len(f.errs) == 0
}

// Submit 校验并发送。返回 false 表示校验未通过（没有发生网络调用）；
// 发送结果体现在 Status() 中。
func (f *Form) Submit(ctx context.Context) bool {
	if !f.Validate() {
		return false
	}

	f.mu.Lock()
	if f.loading {
		f.mu.Unlock()
		return true
	}
	f.loading = true
	fields := f.fields
	f.mu.Unlock()

	id := uuid.NewString()
	log := f.opts.Logger.With().Str("submission_id", id).Logger()

	var err error
	if f.opts.Sender == nil {
		err = emailjs.ErrIncompleteConfig
	} else {
		_, err = f.opts.Sender.Send(ctx, emailjs.Form{
			Name: fields.Name, Email: fields.Email, Message: fields.Message, Extra: fields.Extra,
		}, f.opts.Send)
	}

	f.mu.Lock()
	f.loading = false
	if f.timer != nil {
		f.timer.Stop()
		f.timer = nil
	}
	if err != nil {
		f.status = Status{Submitted: true, Success: false, Message: f.opts.Localizer.T("contact.error"), ID: id}
		f.mu.Unlock()

		log.Warn().Err(err).Msg("联系表单发送失败")
		if f.opts.OnError != nil {
			f.opts.OnError(err)
		}
		return true
	}

	f.status = Status{Submitted: true, Success: true, Message: f.opts.Localizer.T("contact.success"), ID: id}
	f.fields = Fields{}
	f.timer = time.AfterFunc(f.opts.ResetAfter, func() { f.resetStatus(id) })
	f.mu.Unlock()

	log.Info().Msg("联系表单已发送")
	if f.opts.OnSuccess != nil {
		f.opts.OnSuccess(id)
	}
	return true
}

// resetStatus 只复位仍属于同一次提交的 Status。
func (f *Form) resetStatus(id string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.status.ID == id {
		f.status = Status{}
	}
}

// Close 停止挂起的复位计时器。
func (f *Form) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.timer != nil {
		f.timer.Stop()
		f.timer = nil
	}
}
