package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// OrderDocument is the immutable order snapshot handed to the print subsystem
// Example:
// {
//   "orderId": "6c1f...",
//   "orderNumber": "1042",
//   "orderType": "dine_in",
//   "tableName": "T4",
//   "cashierName": "Thandi",
//   "items": [{"productName": "Burger", "qty": 2, "categoryName": "Burgers", "lineTotal": 90}],
//   "subtotal": 90, "tax": 13.5, "discount": 0, "total": 103.5,
//   "paymentMethod": "card",
//   "timestamp": "2026-03-01T18:45:00+02:00"
// }
type OrderDocument struct {
	OrderID       string     `json:"orderId,omitempty"`
	OrderNumber   string     `json:"orderNumber"`
	OrderType     string     `json:"orderType"`
	TableName     string     `json:"tableName,omitempty"`
	CustomerName  string     `json:"customerName,omitempty"`
	CashierName   string     `json:"cashierName,omitempty"`
	Items         []LineItem `json:"items"`
	Subtotal      float64    `json:"subtotal"`
	Tax           float64    `json:"tax"`
	Discount      float64    `json:"discount"`
	Total         float64    `json:"total"`
	PaymentMethod string     `json:"paymentMethod"`
	Timestamp     time.Time  `json:"timestamp"`
}

// Reference returns the identifier used in print logs
func (o *OrderDocument) Reference() string {
	if o.OrderID != "" {
		return o.OrderID
	}
	return o.OrderNumber
}

// LineItem is one line of an order
type LineItem struct {
	ProductName         string     `json:"productName"`
	Qty                 int        `json:"qty"`
	Weight              *float64   `json:"weight,omitempty"` // kg, weight-priced items only
	Modifiers           []Modifier `json:"modifiers,omitempty"`
	SpecialInstructions string     `json:"specialInstructions,omitempty"`
	CategoryName        string     `json:"categoryName"`
	KitchenStation      string     `json:"kitchenStation,omitempty"`
	UnitPrice           *float64   `json:"unitPrice,omitempty"`
	LineTotal           *float64   `json:"lineTotal,omitempty"`
}

// Modifier is an add-on or change applied to a line item
type Modifier struct {
	Name  string   `json:"name"`
	Price *float64 `json:"price,omitempty"`
}

// UnmarshalJSON accepts either a bare string ("Extra cheese") or an object
func (m *Modifier) UnmarshalJSON(data []byte) error {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		*m = Modifier{Name: name}
		return nil
	}

	type plain Modifier
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return fmt.Errorf("modifier must be a string or an object: %w", err)
	}
	*m = Modifier(p)
	return nil
}
