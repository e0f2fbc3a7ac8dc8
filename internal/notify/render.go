package notify

import (
	"fmt"
	"html/template"
	"strings"

	"github.com/wneessen/go-mail"

	"github.com/sysu-ecnc-dev/gig-roster/backend/internal/domain"
)

const defaultSubject = "Смены"

// Renderer 把队列中的通知渲染成邮件
type Renderer struct {
	from string
	tmpl *template.Template
}

func NewRenderer(from string, templateFile string) (*Renderer, error) {
	tmpl, err := template.ParseFiles(templateFile)
	if err != nil {
		return nil, fmt.Errorf("无法解析邮件模板: %w", err)
	}
	return &Renderer{from: from, tmpl: tmpl}, nil
}

type mailView struct {
	Subject  string
	FullName string
	Lines    []string
	Links    []domain.ActionLink
}

func (r *Renderer) Build(n *domain.NotificationMessage) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(r.from); err != nil {
		return nil, fmt.Errorf("无法设置邮件发件人: %w", err)
	}
	if err := msg.To(n.To); err != nil {
		return nil, fmt.Errorf("无法设置邮件收件人: %w", err)
	}

	subject := n.Subject
	if subject == "" {
		subject = defaultSubject
	}
	msg.Subject(subject)
	msg.SetMessageIDWithValue(n.ID)

	view := mailView{
		Subject:  subject,
		FullName: n.Data.FullName,
		Lines:    strings.Split(n.Data.Body, "\n"),
		Links:    n.Data.Links,
	}
	if err := msg.SetBodyHTMLTemplate(r.tmpl, view); err != nil {
		return nil, fmt.Errorf("无法设置邮件正文: %w", err)
	}
	msg.AddAlternativeString(mail.TypeTextPlain, n.Data.Body)

	return msg, nil
}
