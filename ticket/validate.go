package ticket

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"pos-print-service/models"
	"pos-print-service/utils"
)

// ErrRenderingFailure marks order data that cannot be turned into a ticket.
// It is the only print error that reaches the caller.
var ErrRenderingFailure = errors.New("rendering failure")

// Validate checks that an order can be rendered
func Validate(order *models.OrderDocument) error {
	if order == nil {
		return fmt.Errorf("%w: order is missing", ErrRenderingFailure)
	}
	if strings.TrimSpace(order.OrderNumber) == "" {
		return fmt.Errorf("%w: order number is required", ErrRenderingFailure)
	}
	if len(order.Items) == 0 {
		return fmt.Errorf("%w: order %s has no items", ErrRenderingFailure, order.OrderNumber)
	}

	for name, v := range map[string]float64{
		"subtotal": order.Subtotal,
		"tax":      order.Tax,
		"discount": order.Discount,
		"total":    order.Total,
	} {
		if !utils.ValidAmount(v) {
			return fmt.Errorf("%w: %s is not a printable amount", ErrRenderingFailure, name)
		}
	}

	for i, item := range order.Items {
		if strings.TrimSpace(item.ProductName) == "" {
			return fmt.Errorf("%w: item %d has no product name", ErrRenderingFailure, i+1)
		}
		if item.Weight != nil {
			if !finite(*item.Weight) || *item.Weight <= 0 {
				return fmt.Errorf("%w: item %d (%s) has an invalid weight", ErrRenderingFailure, i+1, item.ProductName)
			}
		} else if item.Qty <= 0 {
			return fmt.Errorf("%w: item %d (%s) has quantity %d", ErrRenderingFailure, i+1, item.ProductName, item.Qty)
		}
		for _, p := range []*float64{item.UnitPrice, item.LineTotal} {
			if p != nil && !utils.ValidAmount(*p) {
				return fmt.Errorf("%w: item %d (%s) has an invalid price", ErrRenderingFailure, i+1, item.ProductName)
			}
		}
		if total, ok := lineTotal(item); ok && !utils.ValidAmount(total) {
			return fmt.Errorf("%w: item %d (%s) has an invalid line total", ErrRenderingFailure, i+1, item.ProductName)
		}
		for _, m := range item.Modifiers {
			if m.Price != nil && !utils.ValidAmount(*m.Price) {
				return fmt.Errorf("%w: modifier %q on item %d has an invalid price", ErrRenderingFailure, m.Name, i+1)
			}
		}
	}
	return nil
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
