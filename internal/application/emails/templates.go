package emails

import (
	"fmt"
	"strings"
)

func firstName(name string) string {
	fields := strings.Fields(name)
	if len(fields) == 0 {
		return "there"
	}
	return fields[0]
}

func welcomeContent(name, appURL string) string {
	return fmt.Sprintf(`
    <h1>Welcome to StableBricks, %s!</h1>
    <p>Your account is ready. A welcome bonus has been added to your wallet.</p>
    <p>Browse open projects and own a share of real estate from as little as one share.</p>
    <center>
      <a href="%s/projects" class="sb-button">Explore Projects</a>
    </center>
    <p style="margin-top: 20px; font-size: 14px; color: #666;">
      If you did not sign up for this account, please contact our support team immediately.
    </p>
`, EscapeHTML(name), appURL)
}

func resetContent(name, resetLink string) string {
	return fmt.Sprintf(`
    <h1>Reset your password</h1>
    <p>Hi %s,</p>
    <p>We received a request to reset your StableBricks password. The link below is valid for one hour.</p>
    <center>
      <a href="%s" class="sb-button">Choose a new password</a>
    </center>
    <p style="margin-top:20px;font-size:14px;color:#666;">If you did not ask for this, you can ignore this email.</p>
`, EscapeHTML(name), resetLink)
}

func investmentContent(m InvestmentMail) string {
	var cert string
	if m.CertificateURL != "" {
		cert = fmt.Sprintf(`<p><a href="%s">Download your certificate</a></p>`, m.CertificateURL)
	}
	return fmt.Sprintf(`
    <h1>Investment confirmed</h1>
    <p>Hi %s,</p>
    <p>You now own <strong>%d</strong> share(s) of <strong>%s</strong> for a total of <strong>&#8358;%s</strong>.</p>
    <p>Certificate number: <strong>%s</strong></p>
    %s
    <center>
      <a href="%s" class="sb-button">Verify Investment</a>
    </center>
`, EscapeHTML(firstName(m.InvestorName)), m.Shares, EscapeHTML(m.ProjectName), EscapeHTML(m.Amount),
		EscapeHTML(m.CertificateID), cert, m.VerificationURL)
}

func replyContent(name, subject, reply string) string {
	return fmt.Sprintf(`
    <h1>We have responded to your message</h1>
    <p>Hi %s,</p>
    <p>Regarding <strong>%s</strong>:</p>
    <blockquote style="border-left:3px solid #B45309;padding-left:12px;color:#374151;">%s</blockquote>
    <p>Reply to this email if you need anything else.</p>
`, EscapeHTML(name), EscapeHTML(subject), strings.ReplaceAll(EscapeHTML(reply), "\n", "<br>"))
}
