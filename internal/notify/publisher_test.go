package notify_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sysu-ecnc-dev/gig-roster/backend/internal/domain"
	"github.com/sysu-ecnc-dev/gig-roster/backend/internal/notify"
)

type fakeChannel struct {
	published []amqp.Publishing
	keys      []string
	err       error
}

func (c *fakeChannel) PublishWithContext(_ context.Context, _, key string, _, _ bool, msg amqp.Publishing) error {
	if c.err != nil {
		return c.err
	}
	c.keys = append(c.keys, key)
	c.published = append(c.published, msg)
	return nil
}

type fakeTokens struct {
	grants []domain.ActionGrant
}

func (t *fakeTokens) Issue(_ context.Context, grant domain.ActionGrant) (string, error) {
	t.grants = append(t.grants, grant)
	return fmt.Sprintf("token-%d", len(t.grants)), nil
}

type fakeDirectory struct {
	workers  map[int64]*domain.Worker
	profiles map[int64]*domain.WorkerProfile
}

func (d *fakeDirectory) GetWorker(_ context.Context, id int64) (*domain.Worker, error) {
	w, ok := d.workers[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return w, nil
}

func (d *fakeDirectory) GetProfile(_ context.Context, id int64) (*domain.WorkerProfile, error) {
	p, ok := d.profiles[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return p, nil
}

func (d *fakeDirectory) GetFirstAdminEmail(context.Context) (string, error) {
	return "admin@example.com", nil
}

func newPublisher(ch *fakeChannel, tokens *fakeTokens) *notify.Publisher {
	dir := &fakeDirectory{
		workers: map[int64]*domain.Worker{
			7: {ID: 7, Handle: "ivan", Email: "ivan@example.com", IsActive: true},
			8: {ID: 8, Handle: "olga", Email: "olga@example.com", IsActive: true},
		},
		profiles: map[int64]*domain.WorkerProfile{
			7: {WorkerID: 7, FullName: "Иван Петров"},
		},
	}
	return notify.NewPublisher(ch, tokens, dir, notify.Options{
		Queue:          "notification_queue",
		BaseURL:        "https://roster.example.com/",
		PublishTimeout: time.Second,
	})
}

func decode(t *testing.T, p amqp.Publishing) domain.NotificationMessage {
	t.Helper()
	var msg domain.NotificationMessage
	require.NoError(t, json.Unmarshal(p.Body, &msg))
	return msg
}

func TestNotifyIssuesOneTokenPerAction(t *testing.T) {
	ch := &fakeChannel{}
	tokens := &fakeTokens{}
	p := newPublisher(ch, tokens)

	err := p.Notify(context.Background(), 7, domain.Notification{
		Type:    domain.NotificationEveningPrompt,
		Subject: "Подтвердите выход",
		Body:    "Смена завтра",
		Actions: []domain.NotificationAction{
			{Kind: domain.ActionConfirm, ShiftID: 3, Label: "Подтвердить"},
			{Kind: domain.ActionDecline, ShiftID: 3, Label: "Отказаться"},
		},
	})
	require.NoError(t, err)

	require.Len(t, tokens.grants, 2)
	assert.Equal(t, domain.ActionGrant{Kind: domain.ActionConfirm, ShiftID: 3, WorkerID: 7}, tokens.grants[0])
	assert.Equal(t, domain.ActionDecline, tokens.grants[1].Kind)

	require.Len(t, ch.published, 1)
	assert.Equal(t, "notification_queue", ch.keys[0])
	assert.Equal(t, "application/json", ch.published[0].ContentType)

	msg := decode(t, ch.published[0])
	assert.Equal(t, "ivan@example.com", msg.To)
	assert.Equal(t, "Иван Петров", msg.Data.FullName)
	assert.Equal(t, msg.ID, ch.published[0].MessageId)
	require.Len(t, msg.Data.Links, 2)
	assert.Equal(t, "https://roster.example.com/actions/token-1", msg.Data.Links[0].URL)
	assert.Equal(t, "Отказаться", msg.Data.Links[1].Label)
}

func TestNotifyFallsBackToHandle(t *testing.T) {
	ch := &fakeChannel{}
	p := newPublisher(ch, &fakeTokens{})

	require.NoError(t, p.Notify(context.Background(), 8, domain.Notification{Type: domain.NotificationAdmin, Body: "x"}))
	msg := decode(t, ch.published[0])
	assert.Equal(t, "olga", msg.Data.FullName)
	assert.Empty(t, msg.Data.Links)
}

func TestNotifyUnknownWorker(t *testing.T) {
	ch := &fakeChannel{}
	p := newPublisher(ch, &fakeTokens{})

	err := p.Notify(context.Background(), 99, domain.Notification{})
	require.ErrorIs(t, err, domain.ErrNotFound)
	assert.Empty(t, ch.published)
}

func TestNotifyAdmin(t *testing.T) {
	ch := &fakeChannel{}
	p := newPublisher(ch, &fakeTokens{})

	require.NoError(t, p.NotifyAdmin(context.Background(), domain.Notification{
		Type:    domain.NotificationAdmin,
		Subject: "Отказ от смены",
	}))
	msg := decode(t, ch.published[0])
	assert.Equal(t, "admin@example.com", msg.To)
	assert.Equal(t, "Отказ от смены", msg.Subject)
}

func TestPublishFailureIsReturned(t *testing.T) {
	ch := &fakeChannel{err: errors.New("channel closed")}
	p := newPublisher(ch, &fakeTokens{})

	err := p.NotifyAdmin(context.Background(), domain.Notification{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "channel closed")
}
