package services

import (
	"html/template"
	"strings"

	"github.com/adampresley/adamgokit/email"
	"github.com/crocodeal/crocodealphotographie/pkg/models"
)

/*
SendFailureEmail notifies the operator that a regeneration run failed. The
caller gates this on the API key being configured.
*/
func SendFailureEmail(apiKey, toName, toEmail, fromName, fromEmail string, report models.RunReport) error {
	parsedTemplate := strings.Builder{}

	service := email.NewResendService(&email.Config{
		ApiKey: apiKey,
	})

	tmpl := `
<h1>Portfolio index regeneration failed</h1>
<p>Hello {{.toName}}! The regeneration run started at {{.startedAt}}
(trigger: {{.trigger}}) did not complete.</p>
<p>{{.message}}</p>
<p>Counts so far: {{.scanned}} scanned, {{.valid}} valid, {{.rejected}} rejected.</p>
	`

	data := map[string]any{
		"toName":    toName,
		"startedAt": report.StartedAt.Format("2006-01-02 15:04:05"),
		"trigger":   report.Trigger,
		"message":   report.Message,
		"scanned":   report.Scanned,
		"valid":     report.Valid,
		"rejected":  report.Rejected,
	}

	t := template.Must(template.New("email").Parse(tmpl))
	_ = t.Execute(&parsedTemplate, data)

	return service.Send(email.Mail{
		Body:       parsedTemplate.String(),
		BodyIsHtml: true,
		From: email.EmailAddress{
			Email: fromEmail,
			Name:  fromName,
		},
		Subject: "Portfolio index regeneration failed",
		To: []email.EmailAddress{
			{Name: toName, Email: toEmail},
		},
	})
}
