// Package catalog loads the practice's services and availability rules.
package catalog

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/felixgeelhaar/solace/internal/scheduling/domain"
	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Catalog is an immutable, in-memory domain.Catalog.
type Catalog struct {
	services map[string]domain.Service
	rules    map[string][]domain.AvailabilityRule
}

// New builds a catalog from already-validated values.
func New(services []domain.Service, rules []domain.AvailabilityRule) (*Catalog, error) {
	c := &Catalog{
		services: make(map[string]domain.Service, len(services)),
		rules:    make(map[string][]domain.AvailabilityRule),
	}
	for _, s := range services {
		if err := s.Validate(); err != nil {
			return nil, err
		}
		if _, dup := c.services[s.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate service %q", domain.ErrInvalidArgument, s.ID)
		}
		c.services[s.ID] = s
	}
	for _, r := range rules {
		if err := r.Validate(); err != nil {
			return nil, err
		}
		c.rules[r.ProviderID] = append(c.rules[r.ProviderID], r)
	}
	return c, nil
}

func (c *Catalog) FindService(_ context.Context, id string) (*domain.Service, error) {
	s, ok := c.services[id]
	if !ok {
		return nil, fmt.Errorf("%w: service %q", domain.ErrNotFound, id)
	}
	return &s, nil
}

func (c *Catalog) ListServices(_ context.Context) ([]domain.Service, error) {
	out := make([]domain.Service, 0, len(c.services))
	for _, s := range c.services {
		out = append(out, s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (c *Catalog) ListRules(_ context.Context, providerID string) ([]domain.AvailabilityRule, error) {
	return append([]domain.AvailabilityRule(nil), c.rules[providerID]...), nil
}

// Providers lists provider IDs that have rules.
func (c *Catalog) Providers() []string {
	out := make([]string, 0, len(c.rules))
	for id := range c.rules {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

type fileDoc struct {
	Services  []serviceDoc  `yaml:"services"`
	Providers []providerDoc `yaml:"providers"`
}

type serviceDoc struct {
	ID                   string `yaml:"id"`
	Name                 string `yaml:"name"`
	DurationMinutes      int    `yaml:"duration_minutes"`
	Price                string `yaml:"price"`
	Category             string `yaml:"category"`
	Active               *bool  `yaml:"active"`
	MaxParticipants      *int   `yaml:"max_participants"`
	RequiresConsultation bool   `yaml:"requires_consultation"`
}

type providerDoc struct {
	ID    string    `yaml:"id"`
	Rules []ruleDoc `yaml:"rules"`
}

type ruleDoc struct {
	ID             string `yaml:"id"`
	Day            string `yaml:"day"`
	Start          string `yaml:"start"`
	End            string `yaml:"end"`
	Active         *bool  `yaml:"active"`
	EffectiveFrom  string `yaml:"effective_from"`
	EffectiveUntil string `yaml:"effective_until"`
}

// LoadFile reads a YAML catalog.
func LoadFile(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	return Parse(data)
}

// Parse decodes a YAML catalog document.
func Parse(data []byte) (*Catalog, error) {
	var doc fileDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: decode catalog: %v", domain.ErrInvalidArgument, err)
	}

	services := make([]domain.Service, 0, len(doc.Services))
	for _, sd := range doc.Services {
		price := decimal.Zero
		if sd.Price != "" {
			p, err := decimal.NewFromString(sd.Price)
			if err != nil {
				return nil, fmt.Errorf("%w: service %q price %q", domain.ErrInvalidArgument, sd.ID, sd.Price)
			}
			price = p
		}
		services = append(services, domain.Service{
			ID:                   sd.ID,
			Name:                 sd.Name,
			DurationMinutes:      sd.DurationMinutes,
			Price:                price,
			Category:             sd.Category,
			Active:               boolOr(sd.Active, true),
			MaxParticipants:      sd.MaxParticipants,
			RequiresConsultation: sd.RequiresConsultation,
		})
	}

	var rules []domain.AvailabilityRule
	for _, pd := range doc.Providers {
		for i, rd := range pd.Rules {
			rule, err := rd.toRule(pd.ID, i)
			if err != nil {
				return nil, err
			}
			rules = append(rules, rule)
		}
	}
	return New(services, rules)
}

func (rd ruleDoc) toRule(providerID string, index int) (domain.AvailabilityRule, error) {
	id := rd.ID
	if id == "" {
		id = fmt.Sprintf("%s-%d", providerID, index+1)
	}
	day, err := ParseWeekday(rd.Day)
	if err != nil {
		return domain.AvailabilityRule{}, fmt.Errorf("rule %s: %w", id, err)
	}
	start, err := domain.ParseClock(rd.Start)
	if err != nil {
		return domain.AvailabilityRule{}, fmt.Errorf("rule %s: %w", id, err)
	}
	end, err := domain.ParseClock(rd.End)
	if err != nil {
		return domain.AvailabilityRule{}, fmt.Errorf("rule %s: %w", id, err)
	}
	from, err := parseDate(rd.EffectiveFrom)
	if err != nil {
		return domain.AvailabilityRule{}, fmt.Errorf("rule %s: %w", id, err)
	}
	until, err := parseDate(rd.EffectiveUntil)
	if err != nil {
		return domain.AvailabilityRule{}, fmt.Errorf("rule %s: %w", id, err)
	}
	return domain.AvailabilityRule{
		ID:             id,
		ProviderID:     providerID,
		DayOfWeek:      day,
		Start:          start,
		End:            end,
		Active:         boolOr(rd.Active, true),
		EffectiveFrom:  from,
		EffectiveUntil: until,
	}, nil
}

var weekdayNames = map[string]int{
	"sunday": 0, "sun": 0,
	"monday": 1, "mon": 1,
	"tuesday": 2, "tue": 2,
	"wednesday": 3, "wed": 3,
	"thursday": 4, "thu": 4,
	"friday": 5, "fri": 5,
	"saturday": 6, "sat": 6,
}

// ParseWeekday accepts 0-6 (0 = Sunday) or an English day name.
func ParseWeekday(value string) (int, error) {
	v := strings.ToLower(strings.TrimSpace(value))
	if d, ok := weekdayNames[v]; ok {
		return d, nil
	}
	if d, err := strconv.Atoi(v); err == nil && d >= 0 && d <= 6 {
		return d, nil
	}
	return 0, fmt.Errorf("%w: unknown weekday %q", domain.ErrInvalidArgument, value)
}

func parseDate(value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse(time.DateOnly, value)
	if err != nil {
		return nil, fmt.Errorf("%w: date %q must be YYYY-MM-DD", domain.ErrInvalidArgument, value)
	}
	return &t, nil
}

func boolOr(v *bool, fallback bool) bool {
	if v == nil {
		return fallback
	}
	return *v
}
