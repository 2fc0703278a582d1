package main

import (
	"github.com/spf13/cobra"

	"github.com/John-Robertt/folio/internal/contact"
	"github.com/John-Robertt/folio/internal/provider/emailjs"
)

// contactResult 是 contact 命令打印到 stdout 的结果。
type contactResult struct {
	Status contact.Status      `json:"status"`
	Errors contact.FieldErrors `json:"errors"`
}

func newContactCmd(g *globalFlags) *cobra.Command {
	var (
		fields contact.Fields
		send   emailjs.SendOptions
		limits contact.Limits
		extra  map[string]string
		dryRun bool
	)

	cmd := &cobra.Command{
		Use:   "contact",
		Short: "校验并发送一次联系表单",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := newApp(ctx, g)
			if err != nil {
				return err
			}
			defer a.close()

			if len(extra) > 0 {
				fields.Extra = extra
			}

			form := contact.New(contact.Options{
				Sender:    a.emailjs,
				Localizer: a.localizer(),
				Logger:    a.log,
				Limits:    limits,
				Send:      send,
			})
			defer form.Close()
			form.Fill(fields)

			var ok bool
			if dryRun {
				ok = form.Validate()
			} else {
				ok = form.Submit(ctx) && form.Status().Success
			}
			if err := printJSON(cmd.OutOrStdout(), contactResult{Status: form.Status(), Errors: form.Errors()}); err != nil {
				return err
			}
			if !ok {
				return &exitError{code: 1}
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&fields.Name, "name", "", "姓名")
	cmd.Flags().StringVar(&fields.Email, "email", "", "邮箱")
	cmd.Flags().StringVar(&fields.Message, "message", "", "留言")
	cmd.Flags().StringToStringVar(&extra, "extra", nil, "附加模板参数，形如 subject=Hello（可覆盖同名字段）")
	cmd.Flags().StringVar(&send.ServiceID, "service-id", "", "覆盖配置的 EmailJS service")
	cmd.Flags().StringVar(&send.TemplateID, "template-id", "", "覆盖配置的 EmailJS template")
	cmd.Flags().IntVar(&limits.MessageMin, "message-min", 0, "留言最少字符数（0 不限制）")
	cmd.Flags().IntVar(&limits.MessageMax, "message-max", 0, "留言最多字符数（0 不限制）")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "只校验，不发送")
	return cmd
}
