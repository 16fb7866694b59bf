// internal/app/system/mailer/templates.go
package mailer

import (
	"bytes"
	"fmt"
	"html/template"
)

// VerificationEmailData holds data for the registration code email.
type VerificationEmailData struct {
	SiteName  string
	Code      string
	ExpiresIn string // e.g., "10 minutes"
}

// BuildVerificationEmail creates a verification email with both HTML and text bodies.
func BuildVerificationEmail(data VerificationEmailData) Email {
	return Email{
		Subject:  fmt.Sprintf("Your %s verification code", data.SiteName),
		TextBody: buildVerificationText(data),
		HTMLBody: render(verificationTmpl, data),
	}
}

func buildVerificationText(data VerificationEmailData) string {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "Your %s verification code is: %s\n\n", data.SiteName, data.Code)
	fmt.Fprintf(&buf, "This code expires in %s.\n\n", data.ExpiresIn)
	buf.WriteString("If you did not try to register, you can ignore this email.\n")
	return buf.String()
}

// ReviewNoticeData describes a review decision on one part of an accreditation.
type ReviewNoticeData struct {
	SiteName string
	OrgName  string
	Section  string // e.g., "Roster", "President Profile"
	Status   string
	Notes    string
}

// BuildReviewNoticeEmail tells an organization that a reviewer acted on a section.
func BuildReviewNoticeEmail(data ReviewNoticeData) Email {
	var buf bytes.Buffer
	fmt.Fprintf(&buf, "%s: %s is now %q.\n", data.OrgName, data.Section, data.Status)
	if data.Notes != "" {
		fmt.Fprintf(&buf, "\nReviewer notes:\n%s\n", data.Notes)
	}
	return Email{
		Subject:  fmt.Sprintf("[%s] %s: %s", data.SiteName, data.Section, data.Status),
		TextBody: buf.String(),
		HTMLBody: render(reviewNoticeTmpl, data),
	}
}

func render(t *template.Template, data any) string {
	var buf bytes.Buffer
	_ = t.Execute(&buf, data)
	return buf.String()
}

var verificationTmpl = template.Must(template.New("verification").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #1f2937;">
  <h2 style="color: #14532d;">{{.SiteName}}</h2>
  <p>Your verification code is:</p>
  <p style="font-size: 28px; font-weight: 700; letter-spacing: 6px; font-family: 'Courier New', monospace;">{{.Code}}</p>
  <p style="font-size: 13px; color: #6b7280;">This code expires in {{.ExpiresIn}}.</p>
</body>
</html>`))

var reviewNoticeTmpl = template.Must(template.New("review").Parse(`<!DOCTYPE html>
<html>
<body style="font-family: Arial, sans-serif; color: #1f2937;">
  <h2 style="color: #14532d;">{{.SiteName}}</h2>
  <p><strong>{{.OrgName}}</strong>: {{.Section}} is now <strong>{{.Status}}</strong>.</p>
  {{if .Notes}}<p>Reviewer notes:</p><blockquote>{{.Notes}}</blockquote>{{end}}
</body>
</html>`))
