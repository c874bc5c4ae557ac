package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"pos-print-service/utils"
)

// Tie-break policies for routing rules that overlap on one category
const (
	TieBreakLongest = "longest"
	TieBreakFirst   = "first"
)

// Profile is the optional YAML print profile.
// Example:
//
//	defaultKitchenCategories: [burger, pizza, grill]
//	tieBreak: longest
//	lineWidth: 48
//	networkEndpoints:
//	  - tcp://{host}:{port}
//	  - http://{addr}/print
type Profile struct {
	DefaultKitchenCategories []string `yaml:"defaultKitchenCategories"`
	NetworkEndpoints         []string `yaml:"networkEndpoints"`
	TieBreak                 string   `yaml:"tieBreak"`
	LineWidth                int      `yaml:"lineWidth"`
}

// DefaultKitchenCategories are used when no routing rule targets a kitchen or bar printer.
// Matching runs both ways, so no entry may contain a drink category: "steak" would pull in "Tea".
var DefaultKitchenCategories = []string{
	"burger", "pizza", "grill", "main", "starter", "breakfast", "chicken",
	"fish", "seafood", "beef", "pasta", "salad", "sandwich", "wrap",
	"side", "dessert", "platter", "meal", "food", "kitchen",
}

// DefaultNetworkEndpoints is the ordered probe list for direct delivery.
// {host} is the bare host, {port} the configured port or 9100, {addr} the address as configured.
var DefaultNetworkEndpoints = []string{
	"tcp://{host}:{port}",
	"http://{addr}/print",
	"http://{addr}/printer/print",
	"http://{addr}/",
	"http://{addr}/cgi-bin/epos/service.cgi?devid=local_printer&timeout=5000",
	"http://{addr}/StarWebPRNT/SendMessage",
}

// DefaultProfile returns the built-in profile
func DefaultProfile() Profile {
	return Profile{
		DefaultKitchenCategories: append([]string(nil), DefaultKitchenCategories...),
		NetworkEndpoints:         append([]string(nil), DefaultNetworkEndpoints...),
		TieBreak:                 TieBreakLongest,
		LineWidth:                utils.PaperColumns,
	}
}

// LoadProfile reads a YAML profile; unset fields keep their defaults
func LoadProfile(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read print profile: %w", err)
	}

	var raw Profile
	if err := yaml.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("failed to parse print profile: %w", err)
	}

	profile := DefaultProfile()
	if len(raw.DefaultKitchenCategories) > 0 {
		profile.DefaultKitchenCategories = raw.DefaultKitchenCategories
	}
	if len(raw.NetworkEndpoints) > 0 {
		profile.NetworkEndpoints = raw.NetworkEndpoints
	}
	if raw.TieBreak != "" {
		profile.TieBreak = strings.ToLower(raw.TieBreak)
	}
	if raw.LineWidth != 0 {
		profile.LineWidth = raw.LineWidth
	}

	if err := validateProfile(&profile); err != nil {
		return nil, fmt.Errorf("invalid print profile: %w", err)
	}
	return &profile, nil
}

func validateProfile(p *Profile) error {
	if p.TieBreak != TieBreakLongest && p.TieBreak != TieBreakFirst {
		return fmt.Errorf("tieBreak must be %q or %q", TieBreakLongest, TieBreakFirst)
	}
	if p.LineWidth < 32 || p.LineWidth > 64 {
		return fmt.Errorf("lineWidth must be between 32 and 64")
	}
	for _, ep := range p.NetworkEndpoints {
		if !strings.HasPrefix(ep, "tcp://") && !strings.HasPrefix(ep, "http://") && !strings.HasPrefix(ep, "https://") {
			return fmt.Errorf("network endpoint %q must start with tcp://, http:// or https://", ep)
		}
	}
	return nil
}
