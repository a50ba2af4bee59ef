package application

import (
	"fmt"
	"html/template"
	"strings"

	"github.com/sngm3741/contact-relay/api/internal/contact/domain"
)

// Notification is the deterministic email rendering of a submission.
type Notification struct {
	SenderName string
	ReplyTo    string
	Subject    string
	Text       string
	HTML       string
}

var htmlBody = template.Must(template.New("contact").Parse(
	`<p><strong>Name:</strong> {{.Name}}</p>
<p><strong>Email:</strong> {{.Email}}</p>
<p><strong>Message:</strong></p>
<p>{{.Message}}</p>
`))

var headerSanitizer = strings.NewReplacer("\r\n", " ", "\r", " ", "\n", " ")

// FormatNotification renders the plain-text and HTML variants of a submission.
// Field values are HTML-escaped in the HTML variant only.
func FormatNotification(sub domain.Submission) (Notification, error) {
	var html strings.Builder
	if err := htmlBody.Execute(&html, sub); err != nil {
		return Notification{}, fmt.Errorf("render html body: %w", err)
	}

	name := headerSanitizer.Replace(sub.Name)
	return Notification{
		SenderName: name,
		ReplyTo:    strings.TrimSpace(headerSanitizer.Replace(sub.Email)),
		Subject:    "New Contact Form Message from " + name,
		Text:       fmt.Sprintf("Name: %s\nEmail: %s\n\nMessage:\n%s", sub.Name, sub.Email, sub.Message),
		HTML:       html.String(),
	}, nil
}
