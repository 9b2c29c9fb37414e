package receipt

import (
	"fmt"
	"strings"

	"github.com/noah-isme/backend-pos/internal/pricing"
	"github.com/noah-isme/backend-pos/internal/sale"
)

// width matches an 80mm thermal printer in the condensed Courier face.
const width = 40

var divider = strings.Repeat("-", 30)

// StoreInfo is the header block printed on every receipt.
type StoreInfo struct {
	Name      string
	TradeName string
	TaxID     string
	Address   string
	Phone     string
}

// Data is everything a rendered receipt needs.
type Data struct {
	Store    StoreInfo
	Sale     sale.Record
	Items    []sale.Item
	Customer sale.Customer
	Method   sale.Method
	WalkIn   bool
	Received *pricing.Money
	Change   *pricing.Money
}

func formatMoney(v pricing.Money) string {
	sign := ""
	if v < 0 {
		sign = "-"
		v = -v
	}
	return fmt.Sprintf("R$ %s%d.%02d", sign, v/100, v%100)
}

func center(b *strings.Builder, text string) {
	if pad := (width - len(text)) / 2; pad > 0 {
		b.WriteString(strings.Repeat(" ", pad))
	}
	b.WriteString(text)
	b.WriteByte('\n')
}

func line(b *strings.Builder, text string) {
	b.WriteString(text)
	b.WriteByte('\n')
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// Render produces the printable plain-text receipt.
func Render(d Data) string {
	var b strings.Builder

	center(&b, d.Store.Name)
	center(&b, "-=-=- Sales Receipt -=-=-")
	center(&b, "NOT A FISCAL DOCUMENT")
	center(&b, divider)
	if d.Store.TradeName != "" {
		center(&b, d.Store.TradeName)
	}
	if d.Store.TaxID != "" {
		center(&b, "Tax ID: "+d.Store.TaxID)
	}
	if d.Store.Address != "" {
		center(&b, d.Store.Address)
	}
	if d.Store.Phone != "" {
		center(&b, "Tel: "+d.Store.Phone)
	}
	center(&b, divider)

	if d.WalkIn {
		line(&b, "Customer: Walk-in")
	} else {
		line(&b, "Name: "+d.Customer.Name)
		line(&b, "Trade name: "+deref(d.Customer.TradeName))
		line(&b, "Tax ID: "+deref(d.Customer.TaxID))
		line(&b, "Address: "+deref(d.Customer.Address))
	}
	center(&b, divider)

	center(&b, "Products")
	for _, it := range d.Items {
		line(&b, fmt.Sprintf("%s - %d x %s", it.ProductName, it.Quantity, formatMoney(it.UnitPrice)))
		line(&b, "Subtotal: "+formatMoney(it.Subtotal))
		center(&b, divider)
	}

	line(&b, "Discount: "+formatMoney(d.Sale.Discount))
	line(&b, "TOTAL: "+formatMoney(d.Sale.TotalAmount))
	line(&b, "Payment: "+d.Method.Name)
	if d.Received != nil && d.Change != nil {
		line(&b, "Received: "+formatMoney(*d.Received))
		line(&b, "Change: "+formatMoney(*d.Change))
	}
	center(&b, divider)
	center(&b, "Thank you for your business!")

	return b.String()
}
