package email

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strconv"
	"sync"

	"github.com/avatarstudio/avatarstudio/internal/config"
	"github.com/avatarstudio/avatarstudio/internal/usecase"
	"github.com/wneessen/go-mail"
)

var ErrNotConfigured = errors.New("email: SMTP host, port, user and password must be provided")

func NewEmailProvider(
	smtpHost, smtpUser, smtpPassword, smtpPort string, logger *slog.Logger) (*EmailProvider, error) {

	if smtpHost == "" || smtpUser == "" || smtpPassword == "" || smtpPort == "" {
		return nil, ErrNotConfigured
	}

	smtpPortInt, err := strconv.Atoi(smtpPort)
	if err != nil {
		return nil, errors.New("email: invalid SMTP port: " + err.Error())
	}

	client, err := mail.NewClient(
		smtpHost,
		mail.WithPort(smtpPortInt),
		mail.WithUsername(smtpUser),
		mail.WithPassword(smtpPassword),
		mail.WithSMTPAuth(mail.SMTPAuthPlain),
	)
	if err != nil {
		return nil, errors.New("email: failed to create SMTP client: " + err.Error())
	}
	if logger == nil {
		logger = slog.Default()
	}

	provider := &EmailProvider{
		c:      make(chan *mail.Msg, 100),
		client: client,
		logger: logger,
		done:   make(chan struct{}),
	}

	go provider.sendEmailWorker()

	return provider, nil
}

type EmailProvider struct {
	c      chan *mail.Msg
	client *mail.Client
	logger *slog.Logger

	closeOnce sync.Once
	done      chan struct{}
}

func buildMsg(email usecase.Email) (*mail.Msg, error) {
	msg := mail.NewMsg()
	if err := msg.From(email.From); err != nil {
		return nil, err
	}
	if err := msg.To(email.To...); err != nil {
		return nil, err
	}
	if len(email.CC) > 0 {
		if err := msg.Cc(email.CC...); err != nil {
			return nil, err
		}
	}
	if len(email.BCC) > 0 {
		if err := msg.Bcc(email.BCC...); err != nil {
			return nil, err
		}
	}
	msg.Subject(email.Subject)
	msg.SetBodyString(mail.TypeTextHTML, email.Body)
	return msg, nil
}

// SendEmail queues the message; delivery errors are logged by the worker.
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
	}
}

// Close stops accepting mail and waits for queued messages to be sent.
func (e *EmailProvider) Close() {
	e.closeOnce.Do(func() {
		close(e.c)
		<-e.done
	})
}

func (e *EmailProvider) sendEmailWorker() {
	defer close(e.done)
	for msg := range e.c {
		if err := e.client.DialAndSend(msg); err != nil {
			e.logger.Error("email: failed to send email", slog.String("err", err.Error()))
		}
	}
}

// FromEnv reads the SMTP_* variables. Callers treat ErrNotConfigured as
// "mail disabled".
func FromEnv(logger *slog.Logger) (*EmailProvider, error) {
	return NewEmailProvider(
		os.Getenv(config.ENV_KEY_SMTP_HOST),
		os.Getenv(config.ENV_KEY_SMTP_USERNAME),
		os.Getenv(config.ENV_KEY_SMTP_PASSWORD),
		os.Getenv(config.ENV_KEY_SMTP_PORT),
		logger,
	)
}
