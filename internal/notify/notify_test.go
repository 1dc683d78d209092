package notify

import (
	"context"
	"errors"
	"testing"

	"github.com/rs/zerolog"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/partsline/partsline/internal/models"
)

type fakeSender struct {
	sent   *mail.SGMailV3
	status int
	err    error
}

func (f *fakeSender) SendWithContext(ctx context.Context, email *mail.SGMailV3) (*sendgridResponse, error) {
	if f.err != nil {
		return nil, f.err
	}
	f.sent = email
	return &sendgridResponse{StatusCode: f.status, Body: "rejected"}, nil
}

func newTestNotifier(s sender) *SendGrid {
	return &SendGrid{
		sender: s,
		from:   mail.NewEmail("Partsline website", "no-reply@example.com"),
		logger: zerolog.Nop(),
	}
}

var contact = &models.ContactRequest{
	Name:    "Sam <script>",
	Email:   "sam@example.com",
	Message: "Do you stock H7 bulbs?",
}

func TestContactReceived(t *testing.T) {
	fs := &fakeSender{status: 202}
	n := newTestNotifier(fs)

	require.NoError(t, n.ContactReceived(context.Background(), "shop@example.com", contact))
	require.NotNil(t, fs.sent)
	assert.Contains(t, fs.sent.Subject, "Sam")
	assert.Equal(t, "sam@example.com", fs.sent.ReplyTo.Address)
	require.Len(t, fs.sent.Content, 2)
	assert.Contains(t, fs.sent.Content[1].Value, "Sam &lt;script&gt;")
}

func TestContactReceived_NoRecipient(t *testing.T) {
	fs := &fakeSender{status: 202}
	require.NoError(t, newTestNotifier(fs).ContactReceived(context.Background(), "", contact))
	assert.Nil(t, fs.sent)
}

func TestContactReceived_Failures(t *testing.T) {
	err := newTestNotifier(&fakeSender{status: 401}).ContactReceived(context.Background(), "shop@example.com", contact)
	assert.ErrorContains(t, err, "status 401")

	err = newTestNotifier(&fakeSender{err: errors.New("dial tcp: timeout")}).ContactReceived(context.Background(), "shop@example.com", contact)
	assert.ErrorContains(t, err, "timeout")
}

func TestNew_WithoutKeyIsNop(t *testing.T) {
	n := New("", "no-reply@example.com", zerolog.Nop())
	assert.IsType(t, Nop{}, n)
	assert.NoError(t, n.ContactReceived(context.Background(), "shop@example.com", contact))

	assert.IsType(t, &SendGrid{}, New("SG.key", "no-reply@example.com", zerolog.Nop()))
}
