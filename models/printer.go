package models

// PrinterKind identifies what a printer is used for
type PrinterKind string

const (
	PrinterKindKitchen PrinterKind = "kitchen"
	PrinterKindBar     PrinterKind = "bar"
	PrinterKindReceipt PrinterKind = "receipt"
)

// IsKitchenLike reports whether tickets for food/drink preparation go to this kind
func (k PrinterKind) IsKitchenLike() bool {
	return k == PrinterKindKitchen || k == PrinterKindBar
}

// PrinterDefinition represents a configured printer in the database
type PrinterDefinition struct {
	ID      string      `json:"id"`
	Name    string      `json:"name"`
	Address string      `json:"address"` // IP/host[:port] for direct delivery
	Kind    PrinterKind `json:"kind"`
	Active  bool        `json:"active"`
}

// RoutingRule maps a product category to a specific printer.
// There is at most one rule per category.
type RoutingRule struct {
	Category  string `json:"category"`
	PrinterID string `json:"printerId"`
}

// ReceiptBranding holds the header/footer printed on customer receipts
type ReceiptBranding struct {
	LogoURL      string   `json:"logoUrl,omitempty"`
	BusinessName string   `json:"businessName"`
	AddressLines []string `json:"addressLines,omitempty"`
	Phone        string   `json:"phone,omitempty"`
	FooterText   string   `json:"footerText,omitempty"`
}

// DefaultReceiptBranding is used when no branding row exists
func DefaultReceiptBranding() ReceiptBranding {
	return ReceiptBranding{
		BusinessName: "Restaurant",
		FooterText:   "Thank you for your visit!",
	}
}

// Settings is the read-only snapshot the print subsystem works from
type Settings struct {
	Printers []PrinterDefinition `json:"printers"`
	Rules    []RoutingRule       `json:"rules"`
	Branding *ReceiptBranding    `json:"branding,omitempty"`
}

// FirstActive returns the first active printer of the given kind, or nil
func (s Settings) FirstActive(kind PrinterKind) *PrinterDefinition {
	for i := range s.Printers {
		if s.Printers[i].Active && s.Printers[i].Kind == kind {
			return &s.Printers[i]
		}
	}
	return nil
}

// PrinterByID returns the printer with the given id, or nil
func (s Settings) PrinterByID(id string) *PrinterDefinition {
	for i := range s.Printers {
		if s.Printers[i].ID == id {
			return &s.Printers[i]
		}
	}
	return nil
}

// BrandingOrDefault returns the configured branding or the hard-coded defaults
func (s Settings) BrandingOrDefault() ReceiptBranding {
	if s.Branding == nil {
		return DefaultReceiptBranding()
	}
	return *s.Branding
}
