package notification

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/Internmain07/I-INTERN/internal/lifecycle"
	"github.com/Internmain07/I-INTERN/internal/model"
)

// Notifier renders templates and sends them through a Mailer, throttled by a
// shared rate limiter
type Notifier struct {
	mailer      Mailer
	templates   *Templates
	limiter     *rate.Limiter
	frontendURL string
	log         *zap.Logger
}

var _ lifecycle.Notifier = (*Notifier)(nil)

// NewNotifier creates a Notifier sending at most perSecond mails per second
func NewNotifier(mailer Mailer, templates *Templates, perSecond float64, burst int, frontendURL string, log *zap.Logger) *Notifier {
	if log == nil {
		log = zap.NewNop()
	}
	limit := rate.Inf
	if perSecond > 0 {
		limit = rate.Limit(perSecond)
	}
	if burst <= 0 {
		burst = 1
	}
	return &Notifier{
		mailer:      mailer,
		templates:   templates,
		limiter:     rate.NewLimiter(limit, burst),
		frontendURL: frontendURL,
		log:         log,
	}
}

func (n *Notifier) send(ctx context.Context, to, name string, data any) error {
	msg, err := n.templates.Render(name, data)
	if err != nil {
		return err
	}
	msg.To = to

	if err := n.limiter.Wait(ctx); err != nil {
		return fmt.Errorf("mail throttled: %w", err)
	}
	if err := n.mailer.Send(ctx, msg); err != nil {
		return err
	}
	n.log.Debug("email sent", zap.String("template", name), zap.String("to", to))
	return nil
}

// OfferSent tells an applicant they received an offer
func (n *Notifier) OfferSent(ctx context.Context, notice lifecycle.OfferNotice) error {
	return n.send(ctx, notice.ApplicantEmail, TemplateOffer, struct {
		lifecycle.OfferNotice
		FrontendURL string
	}{notice, n.frontendURL})
}

type otpData struct {
	OTP              string
	ExpiresInMinutes int
}

// SendEmailVerification sends the email verification code
func (n *Notifier) SendEmailVerification(ctx context.Context, email, otp string, expiresInMinutes int) error {
	return n.send(ctx, email, TemplateEmailVerification, otpData{otp, expiresInMinutes})
}

// SendPasswordReset sends the password reset code
func (n *Notifier) SendPasswordReset(ctx context.Context, email, otp string, expiresInMinutes int) error {
	return n.send(ctx, email, TemplatePasswordReset, otpData{otp, expiresInMinutes})
}

// SendWelcome greets a newly registered user
func (n *Notifier) SendWelcome(ctx context.Context, user model.User) error {
	name := TemplateWelcomeIntern
	if user.Role == model.RoleCompany {
		name = TemplateWelcomeCompany
	}
	return n.send(ctx, user.Email, name, struct {
		Name        string
		FrontendURL string
	}{user.FullName, n.frontendURL})
}
