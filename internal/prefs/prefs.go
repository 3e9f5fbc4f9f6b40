// Package prefs loads the user's working-time and pay preferences from a YAML
// file and keeps them current while the file changes.
package prefs

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"worklife/internal/core"
)

// Preferences mirrors the YAML document. Zero fields fall back to defaults.
type Preferences struct {
	MealRate     string             `yaml:"meal_rate"`
	OvertimeRate string             `yaml:"overtime_rate"`
	StandardDay  time.Duration      `yaml:"standard_day"`
	Break        *time.Duration     `yaml:"break"`
	Holidays     []string           `yaml:"holidays"`
	Achievements []core.Achievement `yaml:"achievements"`

	policy core.WorkPolicy
	rates  core.PayRates
}

// Source hands out the preferences currently in force. Both *Preferences
// and *Watcher implement it.
type Source interface {
	Current() *Preferences
}

// Default returns preferences with no rates and the default work policy.
func Default() *Preferences {
	p := &Preferences{}
	if err := p.resolve(); err != nil {
		panic(err)
	}
	return p
}

// Load reads path. A missing file yields Default.
func Load(path string) (*Preferences, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("read preferences: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML document, rejecting unknown keys.
func Parse(data []byte) (*Preferences, error) {
	p := &Preferences{}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(p); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode preferences: %w", err)
	}
	if err := p.resolve(); err != nil {
		return nil, err
	}
	return p, nil
}

func (p *Preferences) resolve() error {
	var err error
	if p.rates.MealRate, err = parseRate(p.MealRate, "meal_rate"); err != nil {
		return err
	}
	if p.rates.OvertimeRate, err = parseRate(p.OvertimeRate, "overtime_rate"); err != nil {
		return err
	}
	if err := p.rates.Validate(); err != nil {
		return err
	}

	p.policy = core.DefaultWorkPolicy()
	if p.StandardDay < 0 || p.StandardDay > 24*time.Hour {
		return fmt.Errorf("standard_day %s out of range", p.StandardDay)
	}
	if p.StandardDay > 0 {
		p.policy.StandardDay = p.StandardDay
	}
	if p.Break != nil {
		if *p.Break < 0 || *p.Break >= p.policy.StandardDay {
			return fmt.Errorf("break %s must be shorter than the standard day", *p.Break)
		}
		p.policy.Break = *p.Break
	}
	for _, s := range p.Holidays {
		d, err := core.ParseDate(s)
		if err != nil {
			return fmt.Errorf("holiday %q: %w", s, err)
		}
		p.policy.Holidays = append(p.policy.Holidays, d)
	}

	seen := make(map[string]bool, len(p.Achievements))
	for _, a := range p.Achievements {
		if err := a.Validate(); err != nil {
			return err
		}
		if seen[a.Code] {
			return fmt.Errorf("achievement %s defined twice", a.Code)
		}
		seen[a.Code] = true
	}
	return nil
}

func parseRate(s, field string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s %q: %w", field, s, err)
	}
	return d, nil
}

func (p *Preferences) Current() *Preferences { return p }

func (p *Preferences) Policy() core.WorkPolicy {
	policy := p.policy
	policy.Holidays = append([]core.Date(nil), p.policy.Holidays...)
	return policy
}

func (p *Preferences) Rates() core.PayRates {
	return p.rates
}

// AchievementDefs returns the configured catalogue, or the built-in one when
// the file defines none.
func (p *Preferences) AchievementDefs() []core.Achievement {
	if len(p.Achievements) == 0 {
		return core.DefaultAchievements()
	}
	return append([]core.Achievement(nil), p.Achievements...)
}
