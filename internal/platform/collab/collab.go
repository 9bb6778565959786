package collab

import (
	"context"
	"fmt"
	"net/url"

	"go.uber.org/zap"

	"github.com/feiralivre/monetize/internal/app/service/activation"
	"github.com/feiralivre/monetize/internal/app/service/renewal"
	"github.com/feiralivre/monetize/pkg/config"
)

// The listing catalog and the payment gateway live in sibling systems. These
// are the in-process defaults wired at startup; deployments replace them with
// real clients through Fx decoration.

// PermissiveListingRegistry accepts any non-empty listing id.
type PermissiveListingRegistry struct{}

func NewListingRegistry() activation.ListingRegistry {
	return &PermissiveListingRegistry{}
}

func (PermissiveListingRegistry) ListingExists(_ context.Context, listingID string) (bool, error) {
	return listingID != "", nil
}

// RedirectPaymentProcessor builds hosted-checkout URLs against the configured
// gateway base. Confirmation arrives later through the payment webhook.
type RedirectPaymentProcessor struct {
	baseURL string
}

func NewPaymentProcessor(cfg *config.Config) activation.PaymentProcessor {
	return &RedirectPaymentProcessor{baseURL: cfg.Payment.CheckoutBaseURL}
}

func (p *RedirectPaymentProcessor) InitiateCheckout(_ context.Context, amountCents int64, metadata map[string]string) (string, error) {
	u, err := url.Parse(p.baseURL)
	if err != nil {
		return "", fmt.Errorf("invalid checkout base url: %w", err)
	}
	q := u.Query()
	q.Set("amount_cents", fmt.Sprintf("%d", amountCents))
	for k, v := range metadata {
		q.Set(k, v)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// LogNotifier records notifications instead of delivering them.
type LogNotifier struct {
	log *zap.SugaredLogger
}

func NewNotifier(log *zap.SugaredLogger) renewal.Notifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) Notify(_ context.Context, userID, templateKind string, payload map[string]any) {
	n.log.Infow("user notification", "user_id", userID, "template", templateKind, "payload", payload)
}
