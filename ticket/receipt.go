package ticket

import (
	"math"
	"strings"

	"pos-print-service/models"
	"pos-print-service/utils"
)

// RenderReceipt builds the customer receipt with every order line, in order
func RenderReceipt(order *models.OrderDocument, branding models.ReceiptBranding, opts Options) Document {
	cur := opts.currency()
	money := func(v float64) string { return utils.FormatMoney(v, cur) }

	b := newBuilder("Receipt #"+order.OrderNumber, opts.Width)

	b.setAlign(AlignCenter)
	if branding.LogoURL != "" {
		b.logo(branding.LogoURL, branding.BusinessName, opts.Logo)
	} else if branding.BusinessName != "" {
		b.style(true, SizeDouble)
		b.wrapped(branding.BusinessName, "")
		b.normal()
	}
	for _, l := range branding.AddressLines {
		b.wrapped(l, "")
	}
	if branding.Phone != "" {
		b.line("Tel: " + branding.Phone)
	}
	b.rule('=')

	b.setAlign(AlignLeft)
	b.pair("Order #"+order.OrderNumber, formatTimestamp(order.Timestamp))
	if t := humanize(order.OrderType); t != "" {
		b.line("Type: " + t)
	}
	if order.TableName != "" {
		b.line("Table: " + order.TableName)
	}
	if order.CustomerName != "" {
		b.line("Customer: " + order.CustomerName)
	}
	if order.CashierName != "" {
		b.line("Cashier: " + order.CashierName)
	}
	b.rule('-')

	for _, item := range order.Items {
		if total, ok := lineTotal(item); ok {
			b.pair(itemLabel(item), money(total))
		} else {
			b.wrapped(itemLabel(item), "    ")
		}
		if item.Weight != nil {
			detail := "  " + formatWeight(*item.Weight)
			if item.UnitPrice != nil {
				detail += " @ " + money(*item.UnitPrice) + "/kg"
			}
			b.line(detail)
		}
		for _, m := range item.Modifiers {
			text := "  + " + m.Name
			if m.Price != nil && *m.Price != 0 {
				text += " (" + money(*m.Price) + ")"
			}
			b.wrapped(text, "    ")
		}
		if note := strings.TrimSpace(item.SpecialInstructions); note != "" {
			b.wrapped("  Note: "+note, "    ")
		}
	}
	b.rule('-')

	b.pair("Subtotal", money(order.Subtotal))
	b.pair("Tax", money(order.Tax))
	if order.Discount != 0 {
		b.pair("Discount", money(-math.Abs(order.Discount)))
	}
	b.style(true, SizeDoubleHeight)
	b.pair("TOTAL", money(order.Total))
	b.normal()
	if order.PaymentMethod != "" {
		b.pair("Payment", humanize(order.PaymentMethod))
	}
	b.rule('=')

	if branding.FooterText != "" {
		b.setAlign(AlignCenter)
		b.feed(1)
		b.wrapped(branding.FooterText, "")
	}
	b.feed(3)
	b.cut()
	return b.build()
}
