package notifications

import (
	"bytes"
	"html/template"
)

var giftCodeEmailTmpl = template.Must(template.New("gift_code").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"></head>
<body style="font-family: 'Segoe UI', Tahoma, sans-serif; background: #f5f5f5; margin: 0; padding: 20px;">
  <div style="max-width: 600px; margin: 0 auto; background: white; border-radius: 16px; overflow: hidden;">
    <div style="background: linear-gradient(135deg, #ec4899, #f43f5e); padding: 40px 20px; text-align: center;">
      <div style="font-size: 60px;">&#127873;</div>
      <h1 style="color: white; margin: 0;">You Received a Gift!</h1>
      <p style="color: rgba(255,255,255,0.9);">From {{.SenderName}}</p>
    </div>
    <div style="padding: 30px;">
      <p style="font-size: 18px; color: #374151;">Hello <strong>{{.RecipientName}}</strong>,</p>
      <p style="color: #6b7280;"><strong>{{.SenderName}}</strong> sent you a special gift from GoatTech!</p>
      {{if .SenderMessage}}
      <div style="background: #fdf2f8; border-left: 4px solid #ec4899; padding: 20px; margin: 20px 0; border-radius: 8px;">
        <p style="margin: 0; color: #831843; font-style: italic;">"{{.SenderMessage}}"</p>
        <p style="margin: 10px 0 0; color: #9d174d; font-size: 14px;">&mdash; {{.SenderName}}</p>
      </div>
      {{end}}
      <div style="display: flex; gap: 20px; background: #f9fafb; padding: 20px; border-radius: 12px; margin: 20px 0;">
        {{if .ProductImage}}<img src="{{.ProductImage}}" alt="{{.ProductName}}" style="width: 120px; height: 120px; object-fit: cover; border-radius: 8px;">{{end}}
        <div><h3 style="margin: 0 0 10px; color: #1f2937;">{{.ProductName}}</h3></div>
      </div>
      <div style="background: #fef3c7; padding: 20px; border-radius: 12px; text-align: center; margin: 20px 0;">
        <p style="margin: 0; color: #92400e;">Your verification code:</p>
        <div style="font-size: 32px; font-weight: bold; letter-spacing: 8px; color: #d97706; margin: 10px 0;">{{.VerificationCode}}</div>
        <p style="margin: 0; color: #92400e; font-size: 14px;">Use this code to claim your gift</p>
      </div>
      <div style="text-align: center;">
        <a href="{{.ClaimURL}}" style="display: inline-block; background: linear-gradient(135deg, #ec4899, #f43f5e); color: white; padding: 16px 40px; border-radius: 50px; text-decoration: none; font-weight: bold;">Claim Your Gift</a>
      </div>
      <div style="background: #fef2f2; padding: 15px; border-radius: 8px; margin-top: 20px;">
        <p style="margin: 0; color: #991b1b; font-size: 14px;"><strong>Note:</strong> this gift is valid for {{.TTLDays}} days. Please claim it before it expires.</p>
      </div>
    </div>
    <div style="background: #1f2937; color: #9ca3af; padding: 20px; text-align: center; font-size: 14px;">
      <p>&copy; GoatTech - Premium phone accessories</p>
    </div>
  </div>
</body>
</html>`))

var claimConfirmationTmpl = template.Must(template.New("claim_confirmation").Parse(`<!DOCTYPE html>
<html>
<head><meta charset="utf-8"></head>
<body style="font-family: 'Segoe UI', Tahoma, sans-serif; background: #f5f5f5; margin: 0; padding: 20px;">
  <div style="max-width: 600px; margin: 0 auto; background: white; border-radius: 16px; overflow: hidden;">
    <div style="background: linear-gradient(135deg, #10b981, #059669); padding: 40px 20px; text-align: center; color: white;">
      <h1>Gift Claimed Successfully!</h1>
    </div>
    <div style="padding: 30px;">
      <p>Hello <strong>{{.RecipientName}}</strong>,</p>
      <p>You have successfully claimed your gift:</p>
      <div style="background: #f0fdf4; padding: 20px; border-radius: 12px; text-align: center;">
        <h3>{{.ProductName}}</h3>
        <p>Order number: <strong>#{{.OrderID}}</strong></p>
      </div>
      <p>We will deliver it to your address soon!</p>
    </div>
    <div style="background: #1f2937; color: #9ca3af; padding: 20px; text-align: center;">
      <p>&copy; GoatTech</p>
    </div>
  </div>
</body>
</html>`))

type giftCodeEmailData struct {
	SenderName       string
	SenderMessage    string
	RecipientName    string
	ProductName      string
	ProductImage     string
	VerificationCode string
	ClaimURL         string
	TTLDays          int
}

type claimConfirmationData struct {
	RecipientName string
	ProductName   string
	OrderID       int64
}

func renderTemplate(tmpl *template.Template, data interface{}) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
