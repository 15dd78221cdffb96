package mailing

import (
	"fmt"
	"gopkg.in/gomail.v2"
	"html"
	"reciperepo/internal/utils"
	"strconv"
)

type MailConfig struct {
	AppURL       string
	SMTPHost     string
	SMTPPort     string
	SMTPSender   string
	SMTPEmail    string
	SMTPPassword string
}

func LoadMailConfig() MailConfig {
	return MailConfig{
		AppURL:       utils.GetConfig("APP_URL"),
		SMTPHost:     utils.GetConfig("SMTP_HOST"),
		SMTPPort:     utils.GetConfig("SMTP_PORT"),
		SMTPSender:   utils.GetConfig("SMTP_SENDER_NAME"),
		SMTPEmail:    utils.GetConfig("SMTP_AUTH_EMAIL"),
		SMTPPassword: utils.GetConfig("SMTP_AUTH_PASSWORD"),
	}
}

// Enabled reports whether enough SMTP settings are present to send mail.
func (c MailConfig) Enabled() bool {
	return c.SMTPHost != "" && c.SMTPPort != "" && c.SMTPEmail != ""
}

func SendMail(toEmail string, subject string, body string) error {
	emailConfig := LoadMailConfig()

	mailer := gomail.NewMessage()
	mailer.SetAddressHeader("From", emailConfig.SMTPEmail, emailConfig.SMTPSender)
	mailer.SetHeader("To", toEmail)
	mailer.SetHeader("Subject", subject)
	mailer.SetBody("text/html", body)
	port, err := strconv.Atoi(emailConfig.SMTPPort)
	if err != nil {
		return err
	}
	dialer := gomail.NewDialer(
		emailConfig.SMTPHost,
		port,
		emailConfig.SMTPEmail,
		emailConfig.SMTPPassword,
	)

	return dialer.DialAndSend(mailer)
}

// ForkNotifier tells recipe authors that someone forked their recipe.
type ForkNotifier struct{}

func NewForkNotifier() *ForkNotifier {
	return &ForkNotifier{}
}

// NotifyFork is a no-op when SMTP is not configured or the author has no email on file.
func (n *ForkNotifier) NotifyFork(toEmail, recipeName, forkerName, forkedRecipeID string) error {
	cfg := LoadMailConfig()
	if !cfg.Enabled() || toEmail == "" {
		return nil
	}

	subject := fmt.Sprintf("%s forked your recipe %q", forkerName, recipeName)
	return SendMail(toEmail, subject, ForkEmailBody(cfg.AppURL, recipeName, forkerName, forkedRecipeID))
}

func ForkEmailBody(appURL, recipeName, forkerName, forkedRecipeID string) string {
	link := fmt.Sprintf("%s/recipes/%s", appURL, forkedRecipeID)
	return fmt.Sprintf(
		"<p><strong>%s</strong> forked your recipe <strong>%s</strong>.</p><p><a href=\"%s\">See their copy</a></p>",
		html.EscapeString(forkerName),
		html.EscapeString(recipeName),
		html.EscapeString(link),
	)
}
