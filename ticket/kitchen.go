package ticket

import (
	"strings"

	"pos-print-service/models"
)

// RenderKitchen builds the preparation ticket for the kitchen-bound items.
// Prices are never printed. No items gives an empty document, which callers must not send.
func RenderKitchen(order *models.OrderDocument, items []models.LineItem, opts Options) Document {
	if len(items) == 0 {
		return Document{}
	}

	b := newBuilder(opts.heading()+" #"+order.OrderNumber, opts.Width)

	b.setAlign(AlignCenter)
	b.style(true, SizeDouble)
	b.line(opts.heading())
	b.style(true, SizeDoubleHeight)
	b.line("ORDER #" + order.OrderNumber)
	b.normal()
	if t := humanize(order.OrderType); t != "" {
		b.line(strings.ToUpper(t))
	}
	if order.TableName != "" {
		b.style(true, SizeDoubleHeight)
		b.line("Table: " + order.TableName)
		b.normal()
	}
	if order.CustomerName != "" {
		b.line("Customer: " + order.CustomerName)
	}
	if ts := formatTimestamp(order.Timestamp); ts != "" {
		b.line(ts)
	}

	b.setAlign(AlignLeft)
	b.rule('=')
	for _, item := range items {
		b.style(true, SizeDoubleHeight)
		b.wrapped(itemLabel(item), "    ")
		b.normal()
		if item.Weight != nil {
			b.line("  Weight: " + formatWeight(*item.Weight))
		}
		for _, m := range item.Modifiers {
			b.wrapped("  + "+m.Name, "    ")
		}
		if note := strings.TrimSpace(item.SpecialInstructions); note != "" {
			b.style(true, SizeNormal)
			b.wrapped("  !! NOTE: "+note, "     ")
			b.normal()
		}
		if item.KitchenStation != "" {
			b.line("  [" + strings.ToUpper(item.KitchenStation) + "]")
		}
		b.rule('-')
	}

	b.setAlign(AlignCenter)
	if order.CashierName != "" {
		b.line("Server: " + order.CashierName)
	}
	b.feed(3)
	b.cut()
	return b.build()
}
