package notify_test

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wneessen/go-mail"

	"github.com/sysu-ecnc-dev/gig-roster/backend/internal/domain"
	"github.com/sysu-ecnc-dev/gig-roster/backend/internal/notify"
)

const testTemplate = `<p>{{.FullName}}</p>{{range .Lines}}<p>{{.}}</p>{{end}}{{range .Links}}<a href="{{.URL}}">{{.Label}}</a>{{end}}`

func newRenderer(t *testing.T) *notify.Renderer {
	t.Helper()
	path := filepath.Join(t.TempDir(), "notification.html")
	require.NoError(t, os.WriteFile(path, []byte(testTemplate), 0o600))

	r, err := notify.NewRenderer("roster@example.com", path)
	require.NoError(t, err)
	return r
}

func TestRendererBuildsMessage(t *testing.T) {
	r := newRenderer(t)

	msg, err := r.Build(&domain.NotificationMessage{
		ID:      "c0ffee",
		Type:    domain.NotificationEveningPrompt,
		To:      "ivan@example.com",
		Subject: "Подтвердите выход",
		Data: domain.NotificationData{
			FullName: "Иван",
			Body:     "Первая строка\nВторая строка",
			Links:    []domain.ActionLink{{Label: "Подтвердить", URL: "https://roster.example.com/actions/abc"}},
		},
	})
	require.NoError(t, err)

	to, err := msg.GetRecipients()
	require.NoError(t, err)
	assert.Equal(t, []string{"ivan@example.com"}, to)

	assert.Equal(t, []string{"Подтвердите выход"}, msg.GetGenHeader(mail.HeaderSubject))

	buf := &bytes.Buffer{}
	_, err = msg.WriteTo(buf)
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "c0ffee")
}

func TestRendererDefaultSubject(t *testing.T) {
	r := newRenderer(t)

	msg, err := r.Build(&domain.NotificationMessage{To: "ivan@example.com"})
	require.NoError(t, err)
	assert.Equal(t, []string{"Смены"}, msg.GetGenHeader(mail.HeaderSubject))
}

func TestRendererRejectsBadRecipient(t *testing.T) {
	r := newRenderer(t)

	_, err := r.Build(&domain.NotificationMessage{To: "not an address"})
	require.Error(t, err)
}

func TestRendererMissingTemplate(t *testing.T) {
	_, err := notify.NewRenderer("roster@example.com", filepath.Join(t.TempDir(), "missing.html"))
	require.Error(t, err)
}
