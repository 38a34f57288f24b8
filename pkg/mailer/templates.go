package mailer

import (
	"bytes"
	"fmt"
	"html/template"
	"time"
)

var otpTemplate = template.Must(template.New("otp").Parse(`<p>Hello {{.Name}},</p>
<p>Your PrintHub sign-in code is <strong style="font-size:20px;letter-spacing:4px">{{.Code}}</strong>.</p>
<p>It expires in {{.Minutes}} minutes. If you did not try to sign in, you can ignore this email.</p>`))

// OTPEmail renders the sign-in code message
func OTPEmail(name, code string, ttl time.Duration) (subject, html, text string, err error) {
	minutes := int(ttl.Minutes())
	var buf bytes.Buffer
	err = otpTemplate.Execute(&buf, struct {
		Name    string
		Code    string
		Minutes int
	}{name, code, minutes})
	if err != nil {
		return "", "", "", err
	}
	text = fmt.Sprintf("Hello %s,\n\nYour PrintHub sign-in code is %s. It expires in %d minutes.\n", name, code, minutes)
	return "Your PrintHub sign-in code", buf.String(), text, nil
}
