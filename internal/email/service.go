package email

import (
	"bytes"
	"context"
	"fmt"
	"html/template"
	"net/smtp"

	"go-auth-api/internal/logging"
)

// Service sends transactional emails over SMTP. Methods are designed to be
// called from a goroutine; failures are reported to the caller for logging,
// never retried here.
type Service struct {
	smtpHost     string
	smtpPort     string
	smtpUser     string
	smtpPassword string
	fromEmail    string
	frontendURL  string
}

func NewService(smtpHost, smtpPort, smtpUser, smtpPassword, frontendURL string) *Service {
	return &Service{
		smtpHost:     smtpHost,
		smtpPort:     smtpPort,
		smtpUser:     smtpUser,
		smtpPassword: smtpPassword,
		fromEmail:    smtpUser,
		frontendURL:  frontendURL,
	}
}

// SendVerificationEmail sends an email verification link to the user
func (s *Service) SendVerificationEmail(ctx context.Context, toEmail, token string) error {
	logger := logging.GetLoggerFromContext(ctx)

	link := fmt.Sprintf("%s/verify-email?token=%s", s.frontendURL, token)

	body, err := renderTemplate(verificationTemplate, link)
	if err != nil {
		logger.Error("failed to render verification email template", "error", err)
		return fmt.Errorf("render template: %w", err)
	}

	if err := s.sendEmail(toEmail, "Verify your email address", body); err != nil {
		logger.Error("failed to send verification email", "email", toEmail, "error", err)
		return fmt.Errorf("send email: %w", err)
	}

	logger.Info("verification email sent", "email", toEmail)
	return nil
}

// SendPasswordResetEmail sends a password reset link to the user
func (s *Service) SendPasswordResetEmail(ctx context.Context, toEmail, token string) error {
	logger := logging.GetLoggerFromContext(ctx)

	link := fmt.Sprintf("%s/reset-password?token=%s", s.frontendURL, token)

	body, err := renderTemplate(passwordResetTemplate, link)
	if err != nil {
		logger.Error("failed to render password reset email template", "error", err)
		return fmt.Errorf("render template: %w", err)
	}

	if err := s.sendEmail(toEmail, "Reset your password", body); err != nil {
		logger.Error("failed to send password reset email", "email", toEmail, "error", err)
		return fmt.Errorf("send email: %w", err)
	}

	logger.Info("password reset email sent", "email", toEmail)
	return nil
}

func (s *Service) sendEmail(to, subject, body string) error {
	auth := smtp.PlainAuth("", s.smtpUser, s.smtpPassword, s.smtpHost)

	msg := []byte(fmt.Sprintf(
		"From: %s\r\n"+
			"To: %s\r\n"+
			"Subject: %s\r\n"+
			"MIME-Version: 1.0\r\n"+
			"Content-Type: text/html; charset=UTF-8\r\n"+
			"\r\n"+
			"%s\r\n",
		s.fromEmail, to, subject, body,
	))

	addr := fmt.Sprintf("%s:%s", s.smtpHost, s.smtpPort)
	return smtp.SendMail(addr, auth, s.fromEmail, []string{to}, msg)
}

func renderTemplate(tmpl *template.Template, link string) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, struct{ Link string }{Link: link}); err != nil {
		return "", err
	}
	return buf.String(), nil
}

var verificationTemplate = template.Must(template.New("verification").Parse(`
<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family: Arial, sans-serif; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
    <h2>Verify your email address</h2>
    <p>Thanks for signing up. Click the button below to verify your email address. The link expires shortly, so don't wait too long.</p>
    <p><a href="{{.Link}}" style="display: inline-block; padding: 12px 24px; background-color: #4F46E5; color: #fff; text-decoration: none; border-radius: 5px;">Verify email</a></p>
    <p>If the button does not work, copy this link into your browser:</p>
    <p><a href="{{.Link}}">{{.Link}}</a></p>
    <p style="color: #888; font-size: 12px;">If you did not create an account, you can safely ignore this email.</p>
</body>
</html>
`))

var passwordResetTemplate = template.Must(template.New("password_reset").Parse(`
<!DOCTYPE html>
<html>
<head><meta charset="UTF-8"></head>
<body style="font-family: Arial, sans-serif; color: #333; max-width: 600px; margin: 0 auto; padding: 20px;">
    <h2>Reset your password</h2>
    <p>We received a request to reset the password for your account. Click the button below to choose a new one.</p>
    <p><a href="{{.Link}}" style="display: inline-block; padding: 12px 24px; background-color: #4F46E5; color: #fff; text-decoration: none; border-radius: 5px;">Reset password</a></p>
    <p>If the button does not work, copy this link into your browser:</p>
    <p><a href="{{.Link}}">{{.Link}}</a></p>
    <p style="color: #888; font-size: 12px;">If you did not request a password reset, you can safely ignore this email. Your password will not change.</p>
</body>
</html>
`))
