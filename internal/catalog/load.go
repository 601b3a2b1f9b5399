package catalog

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"gopkg.in/yaml.v3"

	"InvestArena/internal/payout"
)

type fileSpec struct {
	Positions []positionSpec `yaml:"positions"`
	Rounds    [][]string     `yaml:"rounds"`
	Quiz      struct {
		Questions []struct {
			Text    string   `yaml:"text"`
			Answers []string `yaml:"answers"`
		} `yaml:"questions"`
		Bonuses []float64 `yaml:"bonuses"`
	} `yaml:"quiz"`
}

type positionSpec struct {
	ID     string      `yaml:"id"`
	Name   string      `yaml:"name"`
	Linear *linearSpec `yaml:"linear"`
	Tiers  []tierSpec  `yaml:"tiers"`
	Mother string      `yaml:"mother"`
	Custom bool        `yaml:"custom"`
}

type linearSpec struct {
	Constant *float64 `yaml:"constant"`
	Split    *float64 `yaml:"split"`
}

type tierSpec struct {
	Low         int     `yaml:"low"`
	High        *int    `yaml:"high"`
	Coefficient float64 `yaml:"coefficient"`
}

// Load reads a catalog from a YAML file.
func Load(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read catalog: %w", err)
	}
	return Parse(data)
}

// Parse decodes a YAML catalog definition.
func Parse(data []byte) (*Catalog, error) {
	var spec fileSpec
	if err := yaml.Unmarshal(data, &spec); err != nil {
		return nil, fmt.Errorf("parse catalog: %w", err)
	}

	positions := make([]payout.Position, 0, len(spec.Positions))
	for _, ps := range spec.Positions {
		rule, err := ps.rule()
		if err != nil {
			return nil, fmt.Errorf("position %q: %w", ps.ID, err)
		}
		name := ps.Name
		if name == "" {
			name = ps.ID
		}
		positions = append(positions, payout.Position{ID: ps.ID, Name: name, Rule: rule})
	}

	quiz := Quiz{Bonuses: spec.Quiz.Bonuses}
	for _, q := range spec.Quiz.Questions {
		quiz.Questions = append(quiz.Questions, Question{Text: q.Text, Answers: q.Answers})
	}
	return New(positions, spec.Rounds, quiz)
}

// rule picks one variant in payout.Precedence order. Extra variants are
// ignored with a warning.
func (ps positionSpec) rule() (payout.Rule, error) {
	candidates := map[payout.Kind]bool{
		payout.KindLinear:  ps.Linear != nil,
		payout.KindTiered:  len(ps.Tiers) > 0,
		payout.KindDerived: ps.Mother != "",
		payout.KindCustom:  ps.Custom,
	}

	var chosen payout.Kind
	for _, k := range payout.Precedence {
		if !candidates[k] {
			continue
		}
		if chosen == "" {
			chosen = k
			continue
		}
		log.Warn().Str("position", ps.ID).Str("used", string(chosen)).Str("ignored", string(k)).
			Msg("position defines more than one payout rule")
	}

	switch chosen {
	case payout.KindLinear:
		switch {
		case ps.Linear.Constant != nil:
			return payout.Constant(*ps.Linear.Constant), nil
		case ps.Linear.Split != nil:
			return payout.Split(*ps.Linear.Split), nil
		default:
			return nil, fmt.Errorf("linear rule needs constant or split")
		}
	case payout.KindTiered:
		tiers := make([]payout.Tier, len(ps.Tiers))
		for i, ts := range ps.Tiers {
			tiers[i] = payout.Tier{Low: ts.Low, Coefficient: ts.Coefficient}
			if ts.High == nil {
				tiers[i].Open = true
			} else {
				tiers[i].High = *ts.High
			}
		}
		return payout.NewTiered(tiers...)
	case payout.KindDerived:
		return payout.Derived{Mother: ps.Mother}, nil
	case payout.KindCustom:
		return payout.Custom{}, nil
	}
	return nil, fmt.Errorf("no payout rule configured")
}
