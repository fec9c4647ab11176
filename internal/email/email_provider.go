package email

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/framecraft/framecraft/internal/usecase"
	"github.com/wneessen/go-mail"
)

var ErrClosed = errors.New("email: provider closed")

func NewEmailProvider(smtpHost, smtpUser, smtpPassword, smtpPort string, logger *slog.Logger) (*EmailProvider, error) {
	if smtpHost == "" || smtpUser == "" || smtpPassword == "" || smtpPort == "" {
		return nil, errors.New("email: SMTP host, port, user, and password must be provided")
	}

	smtpPortInt, err := strconv.Atoi(smtpPort)
	if err != nil {
		return nil, fmt.Errorf("email: invalid SMTP port: %w", err)
	}

	client, err := mail.NewClient(
		smtpHost,
		mail.WithPort(smtpPortInt),
		mail.WithUsername(smtpUser),
		mail.WithPassword(smtpPassword),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
	)
	if err != nil {
		return nil, fmt.Errorf("email: failed to create SMTP client: %w", err)
	}

	if logger == nil {
		logger = slog.Default()
	}

	provider := &EmailProvider{
		c:      make(chan *mail.Msg, 100),
		done:   make(chan struct{}),
		client: client,
		logger: logger,
	}

	go provider.sendEmailWorker()

	return provider, nil
}

type EmailProvider struct {
	c      chan *mail.Msg
	done   chan struct{}
	client *mail.Client
	logger *slog.Logger
}

// SendEmail queues the message for the background sender. It blocks while
// the queue is full unless ctx ends first.
func (e *EmailProvider) SendEmail(ctx context.Context, email usecase.Email) error {
	msg, err := buildMsg(email)
	if err != nil {
		return err
	}

	select {
	case e.c <- msg:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-e.done:
		return ErrClosed
	}
}

func buildMsg(email usecase.Email) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(email.From); err != nil {
		return nil, fmt.Errorf("email: invalid sender: %w", err)
	}
	if err := msg.To(email.To...); err != nil {
		return nil, fmt.Errorf("email: invalid recipient: %w", err)
	}
	if len(email.CC) > 0 {
		if err := msg.Cc(email.CC...); err != nil {
			return nil, fmt.Errorf("email: invalid cc: %w", err)
		}
	}
	if len(email.BCC) > 0 {
		if err := msg.Bcc(email.BCC...); err != nil {
			return nil, fmt.Errorf("email: invalid bcc: %w", err)
		}
	}
	msg.Subject(email.Subject)
	msg.SetBodyString(mail.TypeTextHTML, email.Body)
	for _, file := range email.Attachments {
		if err := msg.AttachReader(
			file.Name,
			bytes.NewReader(file.Content),
			mail.WithFileContentType(mail.ContentType(file.ContentType)),
		); err != nil {
			return nil, fmt.Errorf("email: failed to attach %s: %w", file.Name, err)
		}
	}
	return msg, nil
}

func (e *EmailProvider) sendEmailWorker() {
	for {
		select {
		case msg := <-e.c:
			if err := e.client.DialAndSend(msg); err != nil {
				e.logger.Error("email: failed to send email", slog.String("err", err.Error()))
			}
		case <-e.done:
			return
		}
	}
}

// Close stops the background sender. Queued messages not yet sent are
// dropped.
func (e *EmailProvider) Close() {
	select {
	case <-e.done:
	default:
		close(e.done)
	}
}
