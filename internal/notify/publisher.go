package notify

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/sysu-ecnc-dev/gig-roster/backend/internal/domain"
)

// Channel 是 *amqp.Channel 中用到的部分
type Channel interface {
	PublishWithContext(ctx context.Context, exchange, key string, mandatory, immediate bool, msg amqp.Publishing) error
}

type TokenIssuer interface {
	Issue(ctx context.Context, grant domain.ActionGrant) (string, error)
}

// Directory 用于查找收件人
type Directory interface {
	GetWorker(ctx context.Context, id int64) (*domain.Worker, error)
	GetProfile(ctx context.Context, workerID int64) (*domain.WorkerProfile, error)
	GetFirstAdminEmail(ctx context.Context) (string, error)
}

type Options struct {
	Queue          string
	BaseURL        string
	PublishTimeout time.Duration
}

// Publisher 把通知序列化后投递到消息队列，由 cmd/notifier 负责真正发送
type Publisher struct {
	ch     Channel
	tokens TokenIssuer
	dir    Directory
	opts   Options
}

func NewPublisher(ch Channel, tokens TokenIssuer, dir Directory, opts Options) *Publisher {
	opts.BaseURL = strings.TrimRight(opts.BaseURL, "/")
	return &Publisher{ch: ch, tokens: tokens, dir: dir, opts: opts}
}

func (p *Publisher) Notify(ctx context.Context, workerID int64, n domain.Notification) error {
	worker, err := p.dir.GetWorker(ctx, workerID)
	if err != nil {
		return fmt.Errorf("查找收件人失败: %w", err)
	}

	fullName := worker.Handle
	if profile, err := p.dir.GetProfile(ctx, workerID); err == nil && profile.FullName != "" {
		fullName = profile.FullName
	}

	links := make([]domain.ActionLink, 0, len(n.Actions))
	for _, action := range n.Actions {
		token, err := p.tokens.Issue(ctx, domain.ActionGrant{
			Kind:     action.Kind,
			ShiftID:  action.ShiftID,
			WorkerID: workerID,
			Role:     action.Role,
		})
		if err != nil {
			return err
		}
		links = append(links, domain.ActionLink{
			Label: action.Label,
			URL:   fmt.Sprintf("%s/actions/%s", p.opts.BaseURL, token),
		})
	}

	return p.publish(ctx, worker.Email, fullName, n, links)
}

func (p *Publisher) NotifyAdmin(ctx context.Context, n domain.Notification) error {
	email, err := p.dir.GetFirstAdminEmail(ctx)
	if err != nil {
		return fmt.Errorf("查找管理员邮箱失败: %w", err)
	}
	return p.publish(ctx, email, "", n, []domain.ActionLink{})
}

func (p *Publisher) publish(ctx context.Context, to, fullName string, n domain.Notification, links []domain.ActionLink) error {
	msg := domain.NotificationMessage{
		ID:      uuid.NewString(),
		Type:    n.Type,
		To:      to,
		Subject: n.Subject,
		Data: domain.NotificationData{
			FullName: fullName,
			Body:     n.Body,
			Links:    links,
		},
	}

	body, err := json.Marshal(msg)
	if err != nil {
		return err
	}

	ctx, cancel := context.WithTimeout(ctx, p.opts.PublishTimeout)
	defer cancel()

	if err := p.ch.PublishWithContext(
		ctx,
		"",
		p.opts.Queue,
		true,
		false,
		amqp.Publishing{
			ContentType:  "application/json",
			DeliveryMode: amqp.Persistent,
			MessageId:    msg.ID,
			Body:         body,
		},
	); err != nil {
		return fmt.Errorf("投递消息失败: %w", err)
	}

	return nil
}
