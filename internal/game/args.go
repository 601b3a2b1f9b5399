package game

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"InvestArena/internal/model"
)

// ParseDecimal parses a finite number that may use a comma as decimal
// separator. NaN and infinities are rejected.
func ParseDecimal(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(s), ",", "."), 64)
	if err != nil || !isFinite(v) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidNumber, s)
	}
	return v, nil
}

// ParseSlot parses an asset number.
func ParseSlot(s string) (model.Slot, error) {
	n, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil || !model.Slot(n).Valid() {
		return 0, ErrInvalidSlot
	}
	return model.Slot(n), nil
}

// CustomCoefficients are the administrator-supplied values for custom
// positions in a close request. All, when set, applies to every custom
// position without an explicit entry in ByID.
type CustomCoefficients struct {
	All  *float64
	ByID map[string]float64
}

// ParseCustomCoefficients reads the arguments of a close command: either a
// single number or a list of id=value pairs.
func ParseCustomCoefficients(args []string) (CustomCoefficients, error) {
	out := CustomCoefficients{ByID: map[string]float64{}}
	if len(args) == 1 && !strings.Contains(args[0], "=") {
		v, err := ParseDecimal(args[0])
		if err != nil {
			return out, err
		}
		out.All = &v
		return out, nil
	}
	for _, arg := range args {
		id, raw, ok := strings.Cut(arg, "=")
		if !ok || id == "" {
			return out, fmt.Errorf("%w: %q", ErrInvalidNumber, arg)
		}
		v, err := ParseDecimal(raw)
		if err != nil {
			return out, err
		}
		out.ByID[id] = v
	}
	return out, nil
}

// validate rejects non-finite values.
func (cc CustomCoefficients) validate() error {
	if cc.All != nil && !isFinite(*cc.All) {
		return fmt.Errorf("%w: %v", ErrInvalidNumber, *cc.All)
	}
	for id, v := range cc.ByID {
		if !isFinite(v) {
			return fmt.Errorf("%w: %s=%v", ErrInvalidNumber, id, v)
		}
	}
	return nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}

// resolve returns the value for each custom position id and the ids left without one.
func (cc CustomCoefficients) resolve(ids []string) (map[string]float64, []string) {
	values := make(map[string]float64, len(ids))
	var missing []string
	for _, id := range ids {
		if v, ok := cc.ByID[id]; ok {
			values[id] = v
			continue
		}
		if cc.All != nil {
			values[id] = *cc.All
			continue
		}
		missing = append(missing, id)
	}
	return values, missing
}
