package notification

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"log"
	"net/smtp"
	"strings"

	"github.com/google/uuid"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"

	"github.com/bher20/npahowtopay/internal/analysis"
	"github.com/bher20/npahowtopay/internal/storage"
)

// ErrNotConfigured is returned when no enabled email configuration exists.
var ErrNotConfigured = errors.New("email not configured or disabled")

type Service struct {
	storage storage.Storage
	// send delivers one message; replaced in tests.
	send func(cfg *storage.EmailConfig, to, subject, body string) error
}

func NewService(s storage.Storage) *Service {
	svc := &Service{storage: s}
	svc.send = svc.deliver
	return svc
}

func (s *Service) GetConfig(ctx context.Context) (*storage.EmailConfig, error) {
	return s.storage.GetEmailConfig(ctx)
}

func (s *Service) SaveConfig(ctx context.Context, cfg storage.EmailConfig) error {
	if err := validateConfig(&cfg); err != nil {
		return err
	}
	if cfg.ID == "" {
		cfg.ID = uuid.NewString()
	}
	return s.storage.SaveEmailConfig(ctx, cfg)
}

func validateConfig(cfg *storage.EmailConfig) error {
	switch cfg.Provider {
	case "smtp":
		if cfg.Host == "" || cfg.Port == 0 {
			return errors.New("smtp provider needs host and port")
		}
	case "sendgrid":
		if cfg.APIKey == "" {
			return errors.New("sendgrid provider needs api_key")
		}
	default:
		return fmt.Errorf("unknown provider: %s", cfg.Provider)
	}
	if cfg.FromAddress == "" {
		return errors.New("from_address is required")
	}
	return nil
}

// Recipients splits the comma separated recipient list.
func Recipients(cfg *storage.EmailConfig) []string {
	var out []string
	for _, r := range strings.Split(cfg.Recipients, ",") {
		if r = strings.TrimSpace(r); r != "" {
			out = append(out, r)
		}
	}
	return out
}

func (s *Service) SendEmail(ctx context.Context, to, subject, body string) error {
	cfg, err := s.storage.GetEmailConfig(ctx)
	if err != nil {
		return err
	}
	if cfg == nil || !cfg.Enabled {
		return ErrNotConfigured
	}
	return s.send(cfg, to, subject, body)
}

// TestConfig sends a test message with cfg without saving it.
func (s *Service) TestConfig(ctx context.Context, cfg storage.EmailConfig, to string) error {
	if err := validateConfig(&cfg); err != nil {
		return err
	}
	return s.send(&cfg, to, "Test Email", "<p>This is a test email from npahowtopay.</p>")
}

// Export emails the summary of a completed analysis to every configured
// recipient. It is a no-op when email is not set up.
func (s *Service) Export(ctx context.Context, res *analysis.Result) error {
	cfg, err := s.storage.GetEmailConfig(ctx)
	if err != nil {
		return err
	}
	if cfg == nil || !cfg.Enabled {
		return nil
	}
	subject, body := AnalysisSummary(res)
	var errs []error
	for _, to := range Recipients(cfg) {
		if err := s.send(cfg, to, subject, body); err != nil {
			errs = append(errs, fmt.Errorf("send to %s: %w", to, err))
			continue
		}
		log.Printf("notification: sent analysis %s summary to %s", res.ID, to)
	}
	return errors.Join(errs...)
}

func (s *Service) deliver(cfg *storage.EmailConfig, to, subject, body string) error {
	switch cfg.Provider {
	case "smtp":
		return sendSMTP(cfg, to, subject, body)
	case "sendgrid":
		return sendSendgrid(cfg, to, subject, body)
	default:
		return fmt.Errorf("unknown provider: %s", cfg.Provider)
	}
}

func sendSMTP(cfg *storage.EmailConfig, to, subject, body string) error {
	addr := fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)
	msg := []byte(fmt.Sprintf("From: %s <%s>\r\n"+
		"To: %s\r\n"+
		"Subject: %s\r\n"+
		"MIME-Version: 1.0\r\n"+
		"Content-Type: text/html; charset=\"UTF-8\"\r\n"+
		"\r\n"+
		"%s\r\n", cfg.FromName, cfg.FromAddress, to, subject, body))

	var c *smtp.Client
	switch cfg.Encryption {
	case "ssl":
		conn, err := tls.Dial("tcp", addr, &tls.Config{ServerName: cfg.Host})
		if err != nil {
			return err
		}
		c, err = smtp.NewClient(conn, cfg.Host)
		if err != nil {
			conn.Close()
			return err
		}
	case "tls":
		var err error
		c, err = smtp.Dial(addr)
		if err != nil {
			return err
		}
		if ok, _ := c.Extension("STARTTLS"); ok {
			if err := c.StartTLS(&tls.Config{ServerName: cfg.Host}); err != nil {
				c.Close()
				return err
			}
		}
	default:
		var auth smtp.Auth
		if cfg.Username != "" {
			auth = smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)
		}
		return smtp.SendMail(addr, auth, cfg.FromAddress, []string{to}, msg)
	}
	defer c.Quit()

	if cfg.Username != "" && cfg.Password != "" {
		if err := c.Auth(smtp.PlainAuth("", cfg.Username, cfg.Password, cfg.Host)); err != nil {
			return err
		}
	}
	if err := c.Mail(cfg.FromAddress); err != nil {
		return err
	}
	if err := c.Rcpt(to); err != nil {
		return err
	}
	w, err := c.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(msg); err != nil {
		return err
	}
	return w.Close()
}

func sendSendgrid(cfg *storage.EmailConfig, to, subject, body string) error {
	from := mail.NewEmail(cfg.FromName, cfg.FromAddress)
	message := mail.NewSingleEmail(from, subject, mail.NewEmail("", to), body, body)
	resp, err := sendgrid.NewSendClient(cfg.APIKey).Send(message)
	if err != nil {
		return err
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("sendgrid error: %d %s", resp.StatusCode, resp.Body)
	}
	return nil
}
