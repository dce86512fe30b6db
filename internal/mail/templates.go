package mail

import (
	"bytes"
	"fmt"
	"html/template"
)

// Each mail kind renders in one call to a pure function returning the
// complete task. Subject, HTML and plain bodies are produced together;
// there is no rendering state to carry between parts.

var welcomeHTML = template.Must(template.New("welcome").Parse(`<!doctype html>
<html>
<body>
<p>Hi,</p>
<p>Thanks for signing up for a Marquee account. We're excited to have you on board!</p>
<p>For future reference, your user ID number is {{.UserID}}.</p>
<p>Please send a request to the <code>PUT /v1/users/activated</code> endpoint with the
following JSON body to activate your account:</p>
<pre><code>{"token": "{{.Token}}"}</code></pre>
<p>Please note that this is a one-time use token and it will expire in 3 days.</p>
<p>Thanks,</p>
<p>The Marquee Team</p>
</body>
</html>`))

var activationHTML = template.Must(template.New("activation").Parse(`<!doctype html>
<html>
<body>
<p>Hi,</p>
<p>Please send a request to the <code>PUT /v1/users/activated</code> endpoint with the
following JSON body to activate your account:</p>
<pre><code>{"token": "{{.Token}}"}</code></pre>
<p>Please note that this is a one-time use token and it will expire in 3 days.</p>
<p>Thanks,</p>
<p>The Marquee Team</p>
</body>
</html>`))

var passwordResetHTML = template.Must(template.New("password_reset").Parse(`<!doctype html>
<html>
<body>
<p>Hi,</p>
<p>Please send a request to the <code>PUT /v1/users/password</code> endpoint with the
following JSON body to set a new password:</p>
<pre><code>{"password": "your new password", "token": "{{.Token}}"}</code></pre>
<p>Please note that this is a one-time use token and it will expire in 45 minutes.</p>
<p>Thanks,</p>
<p>The Marquee Team</p>
</body>
</html>`))

// NewWelcomeTask renders the signup welcome mail carrying the user's id
// and activation token.
func NewWelcomeTask(recipient string, userID int64, activationToken string) (Task, error) {
	html, err := renderHTML(welcomeHTML, map[string]any{"UserID": userID, "Token": activationToken})
	if err != nil {
		return Task{}, err
	}
	plain := fmt.Sprintf(`Hi,

Thanks for signing up for a Marquee account. We're excited to have you on board!

For future reference, your user ID number is %d.

Please send a request to the PUT /v1/users/activated endpoint with the
following JSON body to activate your account:

{"token": %q}

Please note that this is a one-time use token and it will expire in 3 days.

Thanks,

The Marquee Team
`, userID, activationToken)

	return Task{
		Recipient: recipient,
		Subject:   "Welcome to Marquee!",
		HTMLBody:  html,
		PlainBody: plain,
	}, nil
}

// NewActivationTask renders a reissued activation token mail.
func NewActivationTask(recipient, activationToken string) (Task, error) {
	html, err := renderHTML(activationHTML, map[string]any{"Token": activationToken})
	if err != nil {
		return Task{}, err
	}
	plain := fmt.Sprintf(`Hi,

Please send a request to the PUT /v1/users/activated endpoint with the
following JSON body to activate your account:

{"token": %q}

Please note that this is a one-time use token and it will expire in 3 days.

Thanks,

The Marquee Team
`, activationToken)

	return Task{
		Recipient: recipient,
		Subject:   "Activate your Marquee account",
		HTMLBody:  html,
		PlainBody: plain,
	}, nil
}

// NewPasswordResetTask renders a password reset mail.
func NewPasswordResetTask(recipient, resetToken string) (Task, error) {
	html, err := renderHTML(passwordResetHTML, map[string]any{"Token": resetToken})
	if err != nil {
		return Task{}, err
	}
	plain := fmt.Sprintf(`Hi,

Please send a request to the PUT /v1/users/password endpoint with the
following JSON body to set a new password:

{"password": "your new password", "token": %q}

Please note that this is a one-time use token and it will expire in 45 minutes.

Thanks,

The Marquee Team
`, resetToken)

	return Task{
		Recipient: recipient,
		Subject:   "Reset your Marquee password",
		HTMLBody:  html,
		PlainBody: plain,
	}, nil
}

func renderHTML(t *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := t.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
