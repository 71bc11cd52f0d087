package emails

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

const brevoAPI = "https://api.brevo.com/v3/smtp/email"

// BrevoSendRequest matches Brevo API v3 send transactional email body.
type BrevoSendRequest struct {
	Sender      BrevoContact   `json:"sender"`
	To          []BrevoContact `json:"to"`
	Subject     string         `json:"subject"`
	HTMLContent string         `json:"htmlContent"`
	ReplyTo     *BrevoContact  `json:"replyTo,omitempty"`
}

type BrevoContact struct {
	Email string `json:"email"`
	Name  string `json:"name,omitempty"`
}

// InvestmentMail carries what the investment confirmation needs.
type InvestmentMail struct {
	InvestorName    string
	ProjectName     string
	Amount          string
	Shares          int
	CertificateID   string
	CertificateURL  string
	VerificationURL string
}

// Sender sends transactional emails. Services treat a nil Sender as no-op.
type Sender interface {
	SendWelcome(ctx context.Context, toEmail, name string) error
	SendPasswordReset(ctx context.Context, toEmail, name, resetLink string) error
	SendInvestmentConfirmation(ctx context.Context, toEmail string, m InvestmentMail) error
	SendComplaintResponse(ctx context.Context, toEmail, name, subject, reply string) error
	SendContactResponse(ctx context.Context, toEmail, name, subject, reply string) error
}

// BrevoClient sends emails via Brevo (Sendinblue) API. Env: SENDINBLUE_API_KEY, MAIL_FROM.
type BrevoClient struct {
	APIKey   string
	MailFrom string
	BaseURL  string // app origin for links inside emails
	Endpoint string // overrides the Brevo API URL (tests)
	Client   *http.Client
}

func (c *BrevoClient) from() string {
	if c.MailFrom != "" {
		return c.MailFrom
	}
	return "noreply@stablebricks.com"
}

func (c *BrevoClient) endpoint() string {
	if c.Endpoint != "" {
		return c.Endpoint
	}
	return brevoAPI
}

func (c *BrevoClient) appURL() string {
	if c.BaseURL != "" {
		return c.BaseURL
	}
	return "https://stablebricks.com"
}

// send sends one email via Brevo API. Without an API key it does nothing.
func (c *BrevoClient) send(ctx context.Context, toEmail, toName, subject, html string) error {
	if c.APIKey == "" {
		return nil
	}
	body := BrevoSendRequest{
		Sender:      BrevoContact{Email: c.from(), Name: "StableBricks"},
		To:          []BrevoContact{{Email: toEmail, Name: toName}},
		Subject:     subject,
		HTMLContent: html,
		ReplyTo:     &BrevoContact{Email: "support@stablebricks.com", Name: "StableBricks Support"},
	}
	bodyBytes, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.endpoint(), bytes.NewReader(bodyBytes))
	if err != nil {
		return err
	}
	req.Header.Set("api-key", c.APIKey)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if c.Client == nil {
		c.Client = &http.Client{Timeout: 15 * time.Second}
	}
	resp, err := c.Client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("brevo send failed: status %d", resp.StatusCode)
	}
	return nil
}

func (c *BrevoClient) SendWelcome(ctx context.Context, toEmail, name string) error {
	return c.send(ctx, toEmail, name, "Welcome to StableBricks!", EmailLayout(welcomeContent(firstName(name), c.appURL())))
}

func (c *BrevoClient) SendPasswordReset(ctx context.Context, toEmail, name, resetLink string) error {
	return c.send(ctx, toEmail, name, "Reset your StableBricks password", EmailLayout(resetContent(firstName(name), resetLink)))
}

func (c *BrevoClient) SendInvestmentConfirmation(ctx context.Context, toEmail string, m InvestmentMail) error {
	subject := fmt.Sprintf("Your investment in %s is confirmed", m.ProjectName)
	return c.send(ctx, toEmail, m.InvestorName, subject, EmailLayout(investmentContent(m)))
}

func (c *BrevoClient) SendComplaintResponse(ctx context.Context, toEmail, name, subject, reply string) error {
	return c.send(ctx, toEmail, name, "Re: "+subject, EmailLayout(replyContent(firstName(name), subject, reply)))
}

func (c *BrevoClient) SendContactResponse(ctx context.Context, toEmail, name, subject, reply string) error {
	return c.send(ctx, toEmail, name, "Re: "+subject, EmailLayout(replyContent(firstName(name), subject, reply)))
}
