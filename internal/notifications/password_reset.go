package notifications

import (
	"context"
	"fmt"
	"html/template"
	"strings"
)

const passwordResetSubject = "Reset your LinkCard password"

var passwordResetHTML = template.Must(template.New("reset").Parse(
	`<p>Hi {{.Username}},</p>
<p>We received a request to reset your LinkCard password. The link below is valid for one hour.</p>
<p><a href="{{.Link}}">Reset password</a></p>
<p>If you did not ask for this, you can ignore this email.</p>`))

// ResetLink builds the frontend URL a user follows to reset their password.
func ResetLink(frontendURL, token string) string {
	return fmt.Sprintf("%s/reset-password/%s", strings.TrimRight(frontendURL, "/"), token)
}

// SendPasswordReset emails the reset link to the user.
func SendPasswordReset(ctx context.Context, n EmailNotifier, to, username, link string) error {
	var html strings.Builder
	if err := passwordResetHTML.Execute(&html, struct{ Username, Link string }{username, link}); err != nil {
		return fmt.Errorf("render reset email: %w", err)
	}
	text := fmt.Sprintf("Hi %s,\n\nReset your LinkCard password (valid for one hour):\n%s\n\nIf you did not ask for this, ignore this email.\n", username, link)
	return n.SendEmail(ctx, to, passwordResetSubject, html.String(), text)
}
