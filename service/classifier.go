package service

import (
	"strings"
	"unicode/utf8"

	"pos-print-service/config"
	"pos-print-service/models"
)

// CategoryMatcher decides whether an item category matches a configured category
type CategoryMatcher interface {
	Match(itemCategory, ruleCategory string) bool
}

// SubstringMatcher matches when either lower-cased name contains the other,
// so "Burgers" matches a rule for "burger". Empty names never match.
type SubstringMatcher struct{}

func (SubstringMatcher) Match(itemCategory, ruleCategory string) bool {
	item := strings.ToLower(strings.TrimSpace(itemCategory))
	rule := strings.ToLower(strings.TrimSpace(ruleCategory))
	if item == "" || rule == "" {
		return false
	}
	return strings.Contains(item, rule) || strings.Contains(rule, item)
}

// TieBreakPolicy picks one rule when several match an item
type TieBreakPolicy int

const (
	// LongestMatch picks the longest rule category; equal lengths go to fetch order
	LongestMatch TieBreakPolicy = iota
	// FirstMatch picks the first matching rule in fetch order
	FirstMatch
)

// ParseTieBreak maps the profile value to a policy
func ParseTieBreak(s string) TieBreakPolicy {
	if strings.EqualFold(s, config.TieBreakFirst) {
		return FirstMatch
	}
	return LongestMatch
}

// KitchenRoute is the set of kitchen-bound items for one printer.
// Printer is nil when no active kitchen or bar printer exists.
type KitchenRoute struct {
	Printer *models.PrinterDefinition
	Items   []models.LineItem
}

// Classifier splits order lines into kitchen-bound items per printer
type Classifier struct {
	matcher  CategoryMatcher
	tieBreak TieBreakPolicy
	defaults []string
}

// NewClassifier creates a new Classifier. defaults is the category list used when
// no routing rule targets a kitchen or bar printer.
func NewClassifier(matcher CategoryMatcher, tieBreak TieBreakPolicy, defaults []string) *Classifier {
	lowered := make([]string, 0, len(defaults))
	for _, d := range defaults {
		if d = strings.ToLower(strings.TrimSpace(d)); d != "" {
			lowered = append(lowered, d)
		}
	}
	return &Classifier{matcher: matcher, tieBreak: tieBreak, defaults: lowered}
}

// kitchenRules returns the rules that target a kitchen or bar printer, in fetch order
func kitchenRules(rules []models.RoutingRule, printers []models.PrinterDefinition) []models.RoutingRule {
	kitchenIDs := make(map[string]bool)
	for _, p := range printers {
		if p.Kind.IsKitchenLike() {
			kitchenIDs[p.ID] = true
		}
	}
	var out []models.RoutingRule
	for _, r := range rules {
		if kitchenIDs[r.PrinterID] && strings.TrimSpace(r.Category) != "" {
			out = append(out, models.RoutingRule{Category: strings.ToLower(strings.TrimSpace(r.Category)), PrinterID: r.PrinterID})
		}
	}
	return out
}

// bestRule returns the index of the rule chosen for the category, or -1
func (c *Classifier) bestRule(category string, rules []models.RoutingRule) int {
	best, bestLen := -1, -1
	for i, r := range rules {
		if !c.matcher.Match(category, r.Category) {
			continue
		}
		if c.tieBreak == FirstMatch {
			return i
		}
		if l := utf8.RuneCountInString(r.Category); l > bestLen {
			best, bestLen = i, l
		}
	}
	return best
}

func (c *Classifier) matchesDefault(category string) bool {
	for _, d := range c.defaults {
		if c.matcher.Match(category, d) {
			return true
		}
	}
	return false
}

// ClassifyForKitchen returns the kitchen-bound items in order. The active category set is
// the categories of rules targeting kitchen or bar printers, or the default list when there are none.
func (c *Classifier) ClassifyForKitchen(items []models.LineItem, rules []models.RoutingRule, printers []models.PrinterDefinition) []models.LineItem {
	active := kitchenRules(rules, printers)
	var out []models.LineItem
	for _, item := range items {
		if len(active) > 0 {
			if c.bestRule(item.CategoryName, active) >= 0 {
				out = append(out, item)
			}
		} else if c.matchesDefault(item.CategoryName) {
			out = append(out, item)
		}
	}
	return out
}

// Route groups the kitchen-bound items by target printer. A rule match goes to the
// rule's printer when it is active; everything else goes to the first active kitchen
// printer, else the first active bar printer. Each item lands in exactly one route
// and routes are ordered by their first item.
func (c *Classifier) Route(items []models.LineItem, settings models.Settings) []KitchenRoute {
	return c.route(items, settings, []*models.PrinterDefinition{firstKitchenLike(settings)})
}

// RouteEvery is Route for delivery to every printer: items a rule pins to an active
// printer still go to that printer only, while the remaining kitchen-bound items go to
// each active kitchen printer no rule targets. Bar printers take that role when no
// such kitchen printer exists, and Route's fallback printer when neither does.
func (c *Classifier) RouteEvery(items []models.LineItem, settings models.Settings) []KitchenRoute {
	targets := unpinnedPrinters(settings)
	if len(targets) == 0 {
		targets = []*models.PrinterDefinition{firstKitchenLike(settings)}
	}
	return c.route(items, settings, targets)
}

func firstKitchenLike(settings models.Settings) *models.PrinterDefinition {
	if p := settings.FirstActive(models.PrinterKindKitchen); p != nil {
		return p
	}
	return settings.FirstActive(models.PrinterKindBar)
}

// unpinnedPrinters returns the active kitchen printers no rule targets, else the active
// bar printers no rule targets
func unpinnedPrinters(settings models.Settings) []*models.PrinterDefinition {
	pinned := make(map[string]bool)
	for _, r := range kitchenRules(settings.Rules, settings.Printers) {
		pinned[r.PrinterID] = true
	}
	for _, kind := range []models.PrinterKind{models.PrinterKindKitchen, models.PrinterKindBar} {
		var out []*models.PrinterDefinition
		for i := range settings.Printers {
			p := &settings.Printers[i]
			if p.Active && p.Kind == kind && !pinned[p.ID] {
				out = append(out, p)
			}
		}
		if len(out) > 0 {
			return out
		}
	}
	return nil
}

// route sends rule-pinned items to their active printer and every other kitchen-bound
// item to each of unpinned. A nil printer in unpinned collects items with no printer.
func (c *Classifier) route(items []models.LineItem, settings models.Settings, unpinned []*models.PrinterDefinition) []KitchenRoute {
	active := kitchenRules(settings.Rules, settings.Printers)

	var routes []KitchenRoute
	index := make(map[string]int)
	add := func(p *models.PrinterDefinition, item models.LineItem) {
		key := ""
		if p != nil {
			key = p.ID
		}
		i, ok := index[key]
		if !ok {
			i = len(routes)
			index[key] = i
			routes = append(routes, KitchenRoute{Printer: p})
		}
		routes[i].Items = append(routes[i].Items, item)
	}

	for _, item := range items {
		var target *models.PrinterDefinition
		if len(active) == 0 {
			if !c.matchesDefault(item.CategoryName) {
				continue
			}
		} else {
			i := c.bestRule(item.CategoryName, active)
			if i < 0 {
				continue
			}
			if p := settings.PrinterByID(active[i].PrinterID); p != nil && p.Active {
				target = p
			}
		}

		if target != nil {
			add(target, item)
			continue
		}
		for _, p := range unpinned {
			add(p, item)
		}
	}
	return routes
}
