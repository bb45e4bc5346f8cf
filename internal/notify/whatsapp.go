package notify

import (
	"context"
	"fmt"

	"github.com/desoftlabs/babyshop/config"
	"github.com/desoftlabs/babyshop/internal/domain"
	"github.com/guonaihong/gout"
	"go.uber.org/zap"
)

const whatsappGraphURL = "https://graph.facebook.com/v20.0/%s/messages"

// WhatsApp pushes a new-order template message to the store operator's
// phone through the WhatsApp Cloud API. It is a no-op when unconfigured.
type WhatsApp struct {
	cfg config.NotifyConfig
}

func NewWhatsApp(cfg config.NotifyConfig) *WhatsApp {
	return &WhatsApp{cfg: cfg}
}

// Enabled reports whether all required credentials are present.
func (w *WhatsApp) Enabled() bool {
	return w.cfg.WhatsappToken != "" && w.cfg.WhatsappPhoneID != "" && w.cfg.AdminPhone != ""
}

func (w *WhatsApp) NotifyOrder(ctx context.Context, order *domain.Order) error {
	if !w.Enabled() {
		return nil
	}

	body := gout.H{
		"messaging_product": "whatsapp",
		"to":                w.cfg.AdminPhone,
		"type":              "template",
		"template": gout.H{
			"name":     "desoft",
			"language": gout.H{"code": "en"},
			"components": []gout.H{
				{
					"type": "header",
					"parameters": []gout.H{
						{"type": "text", "text": order.OrderId},
					},
				},
				{
					"type": "body",
					"parameters": []gout.H{
						{"type": "text", "text": order.OrderId},
						{"type": "text", "text": order.CustomerInfo.Name},
						{"type": "text", "text": fmt.Sprintf("%.2f", order.TotalAmount)},
					},
				},
			},
		},
	}

	var resp map[string]interface{}
	err := gout.POST(fmt.Sprintf(whatsappGraphURL, w.cfg.WhatsappPhoneID)).
		WithContext(ctx).
		SetHeader(gout.H{
			"Authorization": "Bearer " + w.cfg.WhatsappToken,
			"Content-Type":  "application/json",
		}).
		SetJSON(body).
		BindJSON(&resp).
		Do()
	if err != nil {
		return err
	}
	zap.L().Info("notify: whatsapp order notification sent", zap.String("order", order.OrderId))
	return nil
}
