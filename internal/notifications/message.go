package notifications

import (
	"bytes"
	"fmt"
	htmltemplate "html/template"
	"strings"
	texttemplate "text/template"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderNotification is everything a staff notification needs about one fulfilled order.
type OrderNotification struct {
	OrderID      uuid.UUID
	ProductID    int
	ProductName  string
	Size         string
	Color        string
	Quantity     int
	Price        decimal.Decimal
	Total        decimal.Decimal
	EmployeeCode string
	Name         string
	Email        string
	Phone        string
	CreatedAt    time.Time
}

// Email is a rendered, transport-agnostic message.
type Email struct {
	From    string
	To      string
	Subject string
	Text    string
	HTML    string
}

const textBody = `Order Details

Product: {{.ProductName}}
Size: {{.Size}}
Color: {{.Color}}
Quantity: {{.Quantity}}
Price: {{rupees .Price}}
Total: {{rupees .Total}}

Employee Information
Employee Code: {{.EmployeeCode}}
Name: {{.Name}}
Email: {{.Email}}
Phone: {{.Phone}}`

const htmlBody = `<h2>New Order</h2>
<p><b>Product:</b> {{.ProductName}}</p>
<p><b>Size:</b> {{.Size}}</p>
<p><b>Color:</b> {{.Color}}</p>
<p><b>Quantity:</b> {{.Quantity}}</p>
<p><b>Price:</b> {{rupees .Price}}</p>
<p><b>Total:</b> {{rupees .Total}}</p>
<hr />
<h3>Employee Information</h3>
<p><b>Employee Code:</b> {{.EmployeeCode}}</p>
<p><b>Name:</b> {{.Name}}</p>
<p><b>Email:</b> {{.Email}}</p>
<p><b>Phone:</b> {{.Phone}}</p>
`

var (
	textTmpl = texttemplate.Must(texttemplate.New("order_text").
			Funcs(texttemplate.FuncMap{"rupees": FormatRupees}).
			Parse(textBody))
	htmlTmpl = htmltemplate.Must(htmltemplate.New("order_html").
			Funcs(htmltemplate.FuncMap{"rupees": FormatRupees}).
			Parse(htmlBody))
)

// Subject returns the notification subject line.
func Subject(n OrderNotification) string {
	return "New Order - " + n.ProductName
}

// RenderOrderEmail builds the order email. Submitter fields are escaped in the HTML part.
func RenderOrderEmail(n OrderNotification, from, to string) (Email, error) {
	var text, html bytes.Buffer
	if err := textTmpl.Execute(&text, n); err != nil {
		return Email{}, fmt.Errorf("render text body: %w", err)
	}
	if err := htmlTmpl.Execute(&html, n); err != nil {
		return Email{}, fmt.Errorf("render html body: %w", err)
	}
	return Email{
		From:    from,
		To:      to,
		Subject: Subject(n),
		Text:    text.String(),
		HTML:    html.String(),
	}, nil
}

// FormatRupees renders an amount as ₹ with Indian digit grouping, e.g. ₹1,29,900.
// Up to two fraction digits are kept and trailing zeros dropped.
func FormatRupees(amount decimal.Decimal) string {
	sign := ""
	if amount.IsNegative() {
		sign = "-"
		amount = amount.Neg()
	}

	fixed := amount.Round(2).StringFixed(2)
	intPart, frac, _ := strings.Cut(fixed, ".")
	frac = strings.TrimRight(frac, "0")

	out := sign + "₹" + groupIndian(intPart)
	if frac != "" {
		out += "." + frac
	}
	return out
}

// groupIndian puts the last three digits in one group and the rest in pairs.
func groupIndian(digits string) string {
	if len(digits) <= 3 {
		return digits
	}
	head, tail := digits[:len(digits)-3], digits[len(digits)-3:]
	var groups []string
	for len(head) > 2 {
		groups = append([]string{head[len(head)-2:]}, groups...)
		head = head[:len(head)-2]
	}
	if head != "" {
		groups = append([]string{head}, groups...)
	}
	return strings.Join(append(groups, tail), ",")
}
