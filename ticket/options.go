package ticket

import (
	"fmt"
	"strconv"
	"time"

	"pos-print-service/models"
	"pos-print-service/utils"
)

// Options controls layout details shared by the kitchen and receipt renderers
type Options struct {
	Width    int    // characters per line at normal size, 48 for 80mm paper
	Currency string // currency symbol, "R" when empty
	Heading  string // kitchen ticket heading, "KITCHEN" when empty
	Logo     *Raster
}

func (o Options) currency() string {
	if o.Currency == "" {
		return utils.DefaultCurrencySymbol
	}
	return o.Currency
}

func (o Options) heading() string {
	if o.Heading == "" {
		return "KITCHEN"
	}
	return o.Heading
}

const timestampLayout = "02/01/2006 15:04"

func formatTimestamp(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.Format(timestampLayout)
}

func formatWeight(w float64) string {
	return strconv.FormatFloat(w, 'f', 3, 64) + " kg"
}

func itemLabel(item models.LineItem) string {
	if item.Weight != nil && item.Qty <= 0 {
		return item.ProductName
	}
	return fmt.Sprintf("%d x %s", item.Qty, item.ProductName)
}

// lineTotal is lineTotal when present, else unitPrice times weight or quantity
func lineTotal(item models.LineItem) (float64, bool) {
	if item.LineTotal != nil {
		return *item.LineTotal, true
	}
	if item.UnitPrice == nil {
		return 0, false
	}
	if item.Weight != nil {
		return *item.UnitPrice * *item.Weight, true
	}
	return *item.UnitPrice * float64(item.Qty), true
}
