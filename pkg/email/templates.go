package email

import (
	"bytes"
	"fmt"
	"html/template"

	"referral-backend/internal/domain"
)

// DecisionEmailData is rendered into the accept/reject notifications.
type DecisionEmailData struct {
	CandidateName string
	RoleTitle     string
	Company       string
	ProxyEmail    string
}

// ForwardEmailData wraps an inbound referral message delivered to the candidate.
type ForwardEmailData struct {
	OriginalFrom string
	Subject      string
	Body         string
}

const layoutStart = `<!DOCTYPE html>
<html>
<head>
    <meta charset="UTF-8">
    <style>
        body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
        .container { max-width: 600px; margin: 0 auto; padding: 20px; }
        .header { background: #0f766e; color: white; padding: 20px; text-align: center; }
        .content { padding: 20px; background: #f9f9f9; }
        .box { background: white; padding: 15px; border-left: 4px solid #0f766e; margin-top: 10px; white-space: pre-wrap; }
        .footer { text-align: center; padding: 20px; color: #888; font-size: 12px; }
    </style>
</head>
<body>
<div class="container">`

const layoutEnd = `<div class="footer"><p>Sent by ReferKaro. Please do not reply to this address.</p></div>
</div>
</body>
</html>`

var acceptedTmpl = template.Must(template.New("accepted").Parse(layoutStart + `
<div class="header"><h1>You're getting referred!</h1></div>
<div class="content">
    <p>Hi {{if .CandidateName}}{{.CandidateName}}{{else}}there{{end}},</p>
    <p>Your application for <strong>{{.RoleTitle}}</strong>{{if .Company}} at <strong>{{.Company}}</strong>{{end}} has been accepted.</p>
    <p>The employee will submit your referral using this address:</p>
    <div class="box">{{.ProxyEmail}}</div>
    <p>Confirmation emails sent by the company's referral system to that address are forwarded to you automatically.</p>
</div>` + layoutEnd))

var rejectedTmpl = template.Must(template.New("rejected").Parse(layoutStart + `
<div class="header"><h1>Application update</h1></div>
<div class="content">
    <p>Hi {{if .CandidateName}}{{.CandidateName}}{{else}}there{{end}},</p>
    <p>Your application for <strong>{{.RoleTitle}}</strong>{{if .Company}} at <strong>{{.Company}}</strong>{{end}} was not selected for a referral this time.</p>
    <p>Keep applying. New roles are posted every day.</p>
</div>` + layoutEnd))

var forwardTmpl = template.Must(template.New("forward").Parse(layoutStart + `
<div class="header"><h1>Your referral was submitted</h1></div>
<div class="content">
    <p><strong>From:</strong> {{.OriginalFrom}}</p>
    <p><strong>Subject:</strong> {{.Subject}}</p>
    <div class="box">{{.Body}}</div>
</div>` + layoutEnd))

func render(t *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render %s template: %w", t.Name(), err)
	}
	return buf.String(), nil
}

// DecisionMessage builds the candidate notification for an accept or reject decision.
func DecisionMessage(to string, status domain.ApplicationStatus, data DecisionEmailData) (domain.MailMessage, error) {
	var (
		tmpl    *template.Template
		subject string
	)
	switch status {
	case domain.ApplicationStatusAccepted:
		tmpl, subject = acceptedTmpl, fmt.Sprintf("Your application for %s was accepted", data.RoleTitle)
	case domain.ApplicationStatusRejected:
		tmpl, subject = rejectedTmpl, fmt.Sprintf("Update on your application for %s", data.RoleTitle)
	default:
		return domain.MailMessage{}, fmt.Errorf("no notification for status %q", status)
	}

	html, err := render(tmpl, data)
	if err != nil {
		return domain.MailMessage{}, err
	}
	return domain.MailMessage{To: to, Subject: subject, HTML: html}, nil
}

// ForwardMessage builds the message delivering an inbound referral email to the candidate.
func ForwardMessage(to string, data ForwardEmailData) (domain.MailMessage, error) {
	html, err := render(forwardTmpl, data)
	if err != nil {
		return domain.MailMessage{}, err
	}
	subject := data.Subject
	if subject == "" {
		subject = "Referral confirmation"
	}
	return domain.MailMessage{To: to, Subject: "Fwd: " + subject, HTML: html, ReplyTo: data.OriginalFrom}, nil
}
