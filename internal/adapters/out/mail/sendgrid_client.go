package mail

import (
	"context"
	"errors"
	"fmt"
	"html"
	"strings"

	"github.com/sendgrid/sendgrid-go"
	sgmail "github.com/sendgrid/sendgrid-go/helpers/mail"
	"go.uber.org/zap"
)

const sendGridMailEndpoint = "https://api.sendgrid.com/v3/mail/send"

// Message is one transactional e-mail.
type Message struct {
	From    string
	To      string
	ToName  string
	Subject string
	Text    string

	// Categories and Args tag the message in SendGrid activity and webhooks.
	Categories []string
	Args       map[string]string
}

// SendGridClient implements EmailClient on the SendGrid v3 mail API.
type SendGridClient struct {
	apiKey   string
	fromName string
	endpoint string
	log      *zap.Logger
}

func NewSendGridClient(apiKey, fromName string, logger *zap.Logger) *SendGridClient {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SendGridClient{
		apiKey:   strings.TrimSpace(apiKey),
		fromName: strings.TrimSpace(fromName),
		endpoint: sendGridMailEndpoint,
		log:      logger.Named("sendgrid"),
	}
}

// Send delivers m. Responses with status >= 400 are errors.
func (c *SendGridClient) Send(ctx context.Context, m Message) error {
	switch {
	case c.apiKey == "":
		return errors.New("sendgrid: api key is empty")
	case strings.TrimSpace(m.From) == "":
		return errors.New("sendgrid: from address is empty")
	case strings.TrimSpace(m.To) == "":
		return errors.New("sendgrid: to address is empty")
	}

	client := sendgrid.NewSendClient(c.apiKey)
	client.BaseURL = c.endpoint

	resp, err := client.SendWithContext(ctx, c.build(m))
	if err != nil {
		return fmt.Errorf("sendgrid: send: %w", err)
	}
	if resp.StatusCode >= 400 {
		c.log.Warn("send failed", zap.Int("status", resp.StatusCode), zap.String("body", resp.Body))
		return fmt.Errorf("sendgrid: send failed: status=%d body=%s", resp.StatusCode, resp.Body)
	}

	c.log.Info("mail sent",
		zap.Int("status", resp.StatusCode),
		zap.String("to", m.To),
		zap.Strings("categories", m.Categories),
	)
	return nil
}

func (c *SendGridClient) build(m Message) *sgmail.SGMailV3 {
	p := sgmail.NewPersonalization()
	p.AddTos(sgmail.NewEmail(m.ToName, m.To))
	for k, v := range m.Args {
		p.SetCustomArg(k, v)
	}

	msg := sgmail.NewV3Mail()
	msg.SetFrom(sgmail.NewEmail(c.fromName, m.From))
	msg.Subject = m.Subject
	msg.AddPersonalizations(p)
	msg.AddContent(
		sgmail.NewContent("text/plain", m.Text),
		sgmail.NewContent("text/html", "<pre>"+html.EscapeString(m.Text)+"</pre>"),
	)
	if len(m.Categories) > 0 {
		msg.AddCategories(m.Categories...)
	}
	return msg
}
