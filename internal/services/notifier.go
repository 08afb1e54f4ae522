package services

import (
	"fmt"

	"github.com/Rhymond/go-money"
	"github.com/rs/zerolog"
	"github.com/sendgrid/sendgrid-go"
	"github.com/sendgrid/sendgrid-go/helpers/mail"
	"github.com/shopspring/decimal"

	"github.com/ByMatthewNeal/Arkline-sub006/internal/config"
	"github.com/ByMatthewNeal/Arkline-sub006/internal/models"
)

// NotificationService composes and emails reminder notifications
type NotificationService struct {
	cfg    *config.Config
	logger zerolog.Logger
}

// NewNotificationService creates a new notification service
func NewNotificationService(cfg *config.Config, logger zerolog.Logger) *NotificationService {
	return &NotificationService{
		cfg:    cfg,
		logger: logger,
	}
}

// FormatAmount renders a fiat amount in its currency, e.g. "$50.00".
// Unknown currency codes fall back to a plain fixed-point rendering.
func FormatAmount(amount decimal.Decimal, currency string) string {
	cur := money.GetCurrency(currency)
	if cur == nil {
		return fmt.Sprintf("%s %s", amount.StringFixed(2), currency)
	}

	factor, _ := decimal.NewFromInt(10).PowInt32(int32(cur.Fraction))
	minor := amount.Mul(factor)
	return money.New(minor.IntPart(), currency).Display()
}

// ComposeDCADueMessage builds the notification text for a due DCA reminder.
func ComposeDCADueMessage(r *models.DCAReminder) string {
	amount := FormatAmount(r.Amount, r.Currency)
	if r.TotalPurchases != nil {
		return fmt.Sprintf("Time to invest %s in %s (%s). Purchase %d of %d.",
			amount, r.Symbol, r.Name, r.CompletedPurchases+1, *r.TotalPurchases)
	}
	return fmt.Sprintf("Time to invest %s in %s (%s).", amount, r.Symbol, r.Name)
}

// ComposeRiskTriggerMessage builds the notification text for a fired risk
// trigger.
func ComposeRiskTriggerMessage(r *models.RiskReminder, score float64) string {
	return fmt.Sprintf("%s risk score is %.1f, %s your threshold of %.1f. Your %s buy trigger fired.",
		r.Symbol, score, r.Direction, r.Threshold, FormatAmount(r.Amount, r.Currency))
}

// SendEmail delivers a notification by email. A missing SendGrid key is
// logged and skipped rather than treated as a failure so local setups work
// without email.
func (s *NotificationService) SendEmail(n models.Notification, toEmail string) error {
	if s.cfg.SendGridAPIKey == "" {
		s.logger.Warn().Msg("SendGrid API key not configured, skipping email")
		return nil
	}
	if toEmail == "" {
		toEmail = s.cfg.AlertEmailTo
	}
	if toEmail == "" {
		return fmt.Errorf("no recipient address for notification %d", n.ID)
	}

	from := mail.NewEmail("Arkline", s.cfg.AlertEmailFrom)
	to := mail.NewEmail("", toEmail)

	var subject string
	switch n.Kind {
	case models.NotificationRiskTrigger:
		subject = fmt.Sprintf("Arkline risk trigger: %s", n.Symbol)
	default:
		subject = fmt.Sprintf("Arkline DCA reminder: %s", n.Symbol)
	}

	plainTextContent := fmt.Sprintf("%s\n\nGenerated at: %s",
		n.Message, n.CreatedAt.Format("2006-01-02 15:04:05"))

	htmlContent := fmt.Sprintf(`
		<html>
		<body>
			<h2>%s</h2>
			<p>%s</p>
			<p><strong>Time:</strong> %s</p>
		</body>
		</html>
	`, subject, n.Message, n.CreatedAt.Format("2006-01-02 15:04:05"))

	message := mail.NewSingleEmail(from, subject, to, plainTextContent, htmlContent)
	client := sendgrid.NewSendClient(s.cfg.SendGridAPIKey)

	response, err := client.Send(message)
	if err != nil {
		return fmt.Errorf("failed to send email: %w", err)
	}
	if response.StatusCode >= 300 {
		return fmt.Errorf("email service returned status %d", response.StatusCode)
	}

	s.logger.Info().Str("symbol", n.Symbol).Str("kind", string(n.Kind)).Msg("Notification email sent")
	return nil
}
