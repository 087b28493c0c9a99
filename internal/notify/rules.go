package notify

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	domain "github.com/gardenmarket/listing-herald/pkg/types"
)

// Rule matches listings by item name, rarity, or kind. Empty fields
// match everything, so a rule with only a name set alerts on every
// rarity and kind of that item.
type Rule struct {
	Name     string   `yaml:"name"`
	Items    []string `yaml:"items,omitempty"`
	Rarities []string `yaml:"rarities,omitempty"`
	Kinds    []string `yaml:"kinds,omitempty"`
}

// RuleSet is the parsed notification rules file.
type RuleSet struct {
	Rules []Rule `yaml:"rules"`
}

// LoadRules reads and validates a YAML rules file.
func LoadRules(path string) (*RuleSet, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading rules file: %w", err)
	}

	var rs RuleSet
	if err := yaml.Unmarshal(raw, &rs); err != nil {
		return nil, fmt.Errorf("parsing rules file: %w", err)
	}

	for i := range rs.Rules {
		if rs.Rules[i].Name == "" {
			return nil, fmt.Errorf("rule %d: name is required", i)
		}
		for _, k := range rs.Rules[i].Kinds {
			if k != string(domain.KindSell) && k != string(domain.KindBuy) {
				return nil, fmt.Errorf("rule %q: unknown kind %q", rs.Rules[i].Name, k)
			}
		}
	}

	return &rs, nil
}

// Match reports whether the rule applies to the listing. The traded item
// is the offered side for sell listings and the wanted side for buys.
func (r *Rule) Match(l *domain.Listing) bool {
	item := tradedItem(l)

	if len(r.Kinds) > 0 && !containsFold(r.Kinds, string(l.Kind)) {
		return false
	}
	if len(r.Items) > 0 && !containsFold(r.Items, item.Name) && !containsFold(r.Items, item.ItemID) {
		return false
	}
	if len(r.Rarities) > 0 && !containsFold(r.Rarities, item.Rarity) {
		return false
	}
	return true
}

func tradedItem(l *domain.Listing) *domain.TradeItem {
	if l.Kind == domain.KindBuy {
		return &l.Wanting
	}
	return &l.Offering
}

func containsFold(haystack []string, needle string) bool {
	for _, h := range haystack {
		if strings.EqualFold(h, needle) {
			return true
		}
	}
	return false
}

// Engine evaluates rules against new listings and dispatches alerts.
// It is registered as an observer on the poller.
type Engine struct {
	rules    *RuleSet
	notifier Notifier
	log      *slog.Logger
}

// NewEngine creates a rule engine over the given notifier.
func NewEngine(rules *RuleSet, n Notifier, log *slog.Logger) *Engine {
	if log == nil {
		log = slog.Default()
	}
	return &Engine{rules: rules, notifier: n, log: log}
}

// HandleNewListing fires an alert for the first rule matching the
// listing. Alert failures are logged, never propagated, so a dead
// webhook cannot disturb the poll cycle.
func (e *Engine) HandleNewListing(l *domain.Listing) {
	for i := range e.rules.Rules {
		r := &e.rules.Rules[i]
		if !r.Match(l) {
			continue
		}

		item := tradedItem(l)
		alert := &AlertPayload{
			RuleName:  r.Name,
			ListingID: l.ID,
			Kind:      l.Kind,
			ItemName:  item.Name,
			ItemIcon:  item.Icon,
			Rarity:    item.Rarity,
			Offering:  fmt.Sprintf("%s x%d", l.Offering.Name, l.Offering.Quantity),
			Wanting:   fmt.Sprintf("%s x%d", l.Wanting.Name, l.Wanting.Quantity),
			Seller:    l.Seller.Handle,
		}
		if err := e.notifier.SendAlert(context.Background(), alert); err != nil {
			e.log.Error("sending alert failed", "rule", r.Name, "listing", l.ID, "error", err)
		}
		return
	}
}
