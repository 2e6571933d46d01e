package services

import (
	"bytes"
	"fmt"
	"html/template"
	"log"

	"gopkg.in/gomail.v2"

	"github.com/example/carcino/internal/order"
)

var orderEmailTemplate = template.Must(template.New("order").Funcs(template.FuncMap{
	"price": FormatPrice,
}).Parse(`<h2>Thank you for your order, {{.DeliveryAddress.Name}}!</h2>
<p>Order <b>{{.OrderID}}</b> placed on {{.OrderDate.Format "02 Jan 2006"}}.</p>
<table>
{{range .Items}}<tr><td>{{.Name}}</td><td>{{.Quantity}} x {{price .UnitPrice}}</td><td>{{price .Total}}</td></tr>
{{end}}</table>
<p>Subtotal: {{price .Subtotal}}<br>Shipping: {{price .Shipping}}<br>Tax (18% GST): {{price .Tax}}<br><b>Total: {{price .Total}}</b></p>
<p>Payment: {{.PaymentMethod.DisplayName}}</p>
<p>Delivering to {{.DeliveryAddress.Address}}, {{.DeliveryAddress.City}}, {{.DeliveryAddress.State}} {{.DeliveryAddress.Pincode}}.<br>
Estimated delivery: {{.EstimatedDelivery.Format "Monday, 02 January 2006"}}</p>
<p>Carcino AI</p>`))

// Mailer sends transactional email over SMTP.
type Mailer struct {
	from string
	send func(m *gomail.Message) error
}

// NewMailer returns a Mailer for the given SMTP server. Without a host the
// mailer only logs.
func NewMailer(host string, port int, username, password, from string) *Mailer {
	if host == "" {
		log.Println("[Mail] SMTP host not configured. Email delivery disabled.")
		return &Mailer{from: from}
	}

	dialer := gomail.NewDialer(host, port, username, password)
	return &Mailer{from: from, send: func(m *gomail.Message) error { return dialer.DialAndSend(m) }}
}

// SendOrderConfirmation emails the order summary to the delivery address.
func (m *Mailer) SendOrderConfirmation(record order.Record) error {
	to := record.DeliveryAddress.Email
	if m.send == nil || to == "" {
		log.Printf("[Mail] skipping confirmation for %s", record.OrderID)
		return nil
	}

	var body bytes.Buffer
	if err := orderEmailTemplate.Execute(&body, record); err != nil {
		return fmt.Errorf("render order email: %w", err)
	}

	msg := gomail.NewMessage()
	msg.SetHeader("From", m.from)
	msg.SetHeader("To", to)
	msg.SetHeader("Subject", fmt.Sprintf("Order Confirmed - %s", record.OrderID))
	msg.SetBody("text/html", body.String())

	if err := m.send(msg); err != nil {
		log.Printf("[Mail] send failed for %s: %v", record.OrderID, err)
		return err
	}

	log.Printf("[Mail] confirmation sent for %s", record.OrderID)
	return nil
}
