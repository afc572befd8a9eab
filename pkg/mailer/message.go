package mailer

import (
	"errors"
	"fmt"
	"strings"

	mailtpl "github.com/oksasatya/vitrine-empreendedores/pkg/mailer/templates"
)

// Message is a fully rendered email ready for delivery.
type Message struct {
	To      string
	Subject string
	Text    string
	HTML    string
}

// ErrEmptyJob marks a job with neither a template nor a body.
var ErrEmptyJob = errors.New("email job has no template and no body")

// EnsureRecipient fills Data.Email with the job recipient when absent.
func EnsureRecipient(job *EmailJob) {
	if job.Data == nil {
		job.Data = map[string]any{}
	}
	if v, ok := job.Data["Email"]; !ok || fmt.Sprintf("%v", v) == "" {
		job.Data["Email"] = job.To
	}
}

// Build renders the job into a Message. Raw subject/text/html jobs pass through.
func Build(job EmailJob) (Message, error) {
	if strings.TrimSpace(job.To) == "" {
		return Message{}, errors.New("email job has no recipient")
	}
	if job.Template == "" {
		if job.Subject == "" || (job.Text == "" && job.HTML == "") {
			return Message{}, ErrEmptyJob
		}
		return Message{To: job.To, Subject: job.Subject, Text: job.Text, HTML: job.HTML}, nil
	}
	EnsureRecipient(&job)
	subject, text, html, err := mailtpl.Render(strings.ToLower(job.Template), job.Data)
	if err != nil {
		return Message{}, fmt.Errorf("render %s: %w", job.Template, err)
	}
	return Message{To: job.To, Subject: strings.TrimSpace(subject), Text: text, HTML: html}, nil
}
