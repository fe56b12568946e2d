package mail

import (
	"bytes"
	"fmt"
	"html/template"

	"github.com/abhisek/lyfeline/internal/shop"
)

const receiptSubject = "Your Lyfeline Reward Purchase Receipt"

var receiptTmpl = template.Must(template.New("receipt").Parse(`<!DOCTYPE html>
<html>
  <head>
    <style>
      body { font-family: Arial, sans-serif; line-height: 1.6; color: #333; }
      .container { max-width: 600px; margin: 0 auto; padding: 20px; }
      .header { background: linear-gradient(135deg, #667eea 0%, #764ba2 100%); color: white; padding: 30px; text-align: center; border-radius: 10px 10px 0 0; }
      .content { background: #f9f9f9; padding: 30px; border-radius: 0 0 10px 10px; }
      .item { background: white; padding: 20px; border-radius: 8px; margin: 20px 0; }
      .footer { text-align: center; margin-top: 30px; color: #666; font-size: 14px; }
      .points { color: #667eea; font-weight: bold; font-size: 24px; }
    </style>
  </head>
  <body>
    <div class="container">
      <div class="header">
        <h1>Purchase Successful!</h1>
        <p>Thank you for redeeming your points{{with .Username}}, {{.}}{{end}}</p>
      </div>
      <div class="content">
        <div class="item">
          <h2>{{.ItemName}}</h2>
          <p><strong>Points Spent:</strong> <span class="points">{{.PointsSpent}} points</span></p>
          <p><strong>Remaining Balance:</strong> {{.NewBalance}} points</p>
          <p><strong>Purchase Date:</strong> {{.PurchasedAt.Format "January 2, 2006"}}</p>
        </div>
        <p>Your reward will be processed and delivered according to the terms. Keep earning points to unlock more rewards!</p>
      </div>
      <div class="footer">
        <p>This is an automated receipt from Lyfeline</p>
        <p>Continue learning and earning points at your dashboard</p>
      </div>
    </div>
  </body>
</html>
`))

// RenderReceipt builds the receipt email for r.
func RenderReceipt(from string, r shop.Receipt) (Message, error) {
	var buf bytes.Buffer
	if err := receiptTmpl.Execute(&buf, r); err != nil {
		return Message{}, fmt.Errorf("render receipt: %w", err)
	}
	return Message{From: from, To: r.To, Subject: receiptSubject, HTML: buf.String()}, nil
}
