package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/desoftlabs/babyshop/config"
	"github.com/desoftlabs/babyshop/internal/domain"
	"go.uber.org/zap"
	"gopkg.in/gomail.v2"
)

// Mailer emails a plain-text order summary to store operations. Like the
// WhatsApp channel it is best-effort and silent when unconfigured.
type Mailer struct {
	cfg config.NotifyConfig
}

func NewMailer(cfg config.NotifyConfig) *Mailer {
	return &Mailer{cfg: cfg}
}

func (m *Mailer) Enabled() bool {
	return m.cfg.SmtpHost != "" && m.cfg.MailTo != ""
}

func (m *Mailer) NotifyOrder(ctx context.Context, order *domain.Order) error {
	if !m.Enabled() {
		return nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "New order %s\n\n", order.OrderId)
	fmt.Fprintf(&sb, "Customer: %s (%s)\n", order.CustomerInfo.Name, order.CustomerInfo.Phone)
	fmt.Fprintf(&sb, "Address: %s\n", order.CustomerInfo.Address)
	fmt.Fprintf(&sb, "Delivery: %s %s\n", order.Delivery.Date, order.Delivery.Comment)
	fmt.Fprintf(&sb, "Payment: %s\n\n", order.PaymentMethod)
	for _, item := range order.Items {
		fmt.Fprintf(&sb, "  - product %d x%d @ %.2f\n", item.ProductId, item.Quantity, item.Price)
	}
	fmt.Fprintf(&sb, "\nTotal: %.2f\n", order.TotalAmount)

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.cfg.SmtpUser)
	msg.SetHeader("To", m.cfg.MailTo)
	msg.SetHeader("Subject", fmt.Sprintf("New order %s (%.2f)", order.OrderId, order.TotalAmount))
	msg.SetBody("text/plain", sb.String())

	dialer := gomail.NewDialer(m.cfg.SmtpHost, m.cfg.SmtpPort, m.cfg.SmtpUser, m.cfg.SmtpPasswd)
	if err := dialer.DialAndSend(msg); err != nil {
		return err
	}
	zap.L().Info("notify: order email sent", zap.String("order", order.OrderId))
	return nil
}
