// Package recurrence converts recurring patterns to and from RFC 5545 RRULEs.
package recurrence

import (
	"fmt"
	"strings"
	"time"

	"github.com/felixgeelhaar/solace/internal/scheduling/domain"
	"github.com/teambition/rrule-go"
)

// weekdays is indexed by the domain convention, 0 = Sunday.
var weekdays = [7]rrule.Weekday{rrule.SU, rrule.MO, rrule.TU, rrule.WE, rrule.TH, rrule.FR, rrule.SA}

// ToROption maps p onto rrule options anchored at start.
//
// Biweekly becomes WEEKLY with a doubled interval. A series without an
// occurrence count or end date is written with COUNT at the series cap.
// When start is not on one of the weekdays, RRULE readers drop the base
// instance that Dates always keeps.
func ToROption(p domain.RecurringPattern, start time.Time) (*rrule.ROption, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	opt := &rrule.ROption{
		Dtstart:  start,
		Interval: p.Multiplier(),
		Wkst:     rrule.SU,
	}
	switch p.Frequency {
	case domain.FrequencyDaily:
		opt.Freq = rrule.DAILY
	case domain.FrequencyWeekly:
		opt.Freq = rrule.WEEKLY
	case domain.FrequencyBiweekly:
		opt.Freq = rrule.WEEKLY
		opt.Interval = 2 * p.Multiplier()
	case domain.FrequencyMonthly:
		opt.Freq = rrule.MONTHLY
	}

	if opt.Freq == rrule.WEEKLY {
		seen := map[int]bool{}
		for _, wd := range p.Weekdays {
			if !seen[wd] {
				seen[wd] = true
				opt.Byweekday = append(opt.Byweekday, weekdays[wd])
			}
		}
	}

	switch {
	case p.Occurrences != nil:
		opt.Count = min(*p.Occurrences, domain.MaxRecurrenceOccurrences)
	case p.EndDate != nil:
		y, m, d := p.EndDate.Date()
		opt.Until = time.Date(y, m, d, 23, 59, 59, 0, start.Location())
	default:
		opt.Count = domain.MaxRecurrenceOccurrences
	}
	return opt, nil
}

// RRuleString renders p as the value of an RRULE property, without DTSTART.
func RRuleString(p domain.RecurringPattern, start time.Time) (string, error) {
	opt, err := ToROption(p, start)
	if err != nil {
		return "", err
	}
	return opt.RRuleString(), nil
}

// FromRRule parses an RRULE value such as "FREQ=WEEKLY;COUNT=4". Only
// daily, weekly and monthly rules can be represented.
func FromRRule(value string) (domain.RecurringPattern, error) {
	value = strings.TrimPrefix(strings.TrimSpace(value), "RRULE:")
	opt, err := rrule.StrToROption(value)
	if err != nil {
		return domain.RecurringPattern{}, fmt.Errorf("%w: %v", domain.ErrInvalidArgument, err)
	}

	p := domain.RecurringPattern{Interval: opt.Interval}
	switch opt.Freq {
	case rrule.DAILY:
		p.Frequency = domain.FrequencyDaily
	case rrule.WEEKLY:
		p.Frequency = domain.FrequencyWeekly
	case rrule.MONTHLY:
		p.Frequency = domain.FrequencyMonthly
	default:
		return domain.RecurringPattern{}, fmt.Errorf("%w: unsupported frequency %v", domain.ErrInvalidArgument, opt.Freq)
	}
	if p.Interval <= 1 {
		p.Interval = 0
	}

	for _, wd := range opt.Byweekday {
		p.Weekdays = append(p.Weekdays, (wd.Day()+1)%7)
	}
	if opt.Count > 0 {
		count := opt.Count
		p.Occurrences = &count
	}
	if !opt.Until.IsZero() {
		until := opt.Until
		p.EndDate = &until
	}
	return p, p.Validate()
}
