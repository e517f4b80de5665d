package matching

import "barfinder/internal/config"

// Policy centralizes matching thresholds.
type Policy struct {
	// MinMatchThreshold is the lowest accepted token-set score (0-100].
	MinMatchThreshold float64
	// MinObservationNames is the minimum number of unique names worth scoring.
	MinObservationNames int
	// MaxDateRangeMonths bounds how old a battle may be relative to the reference date.
	MaxDateRangeMonths int
}

// DefaultPolicy returns the thresholds the matcher was tuned with.
func DefaultPolicy() Policy {
	return Policy{
		MinMatchThreshold:   30,
		MinObservationNames: 6,
		MaxDateRangeMonths:  6,
	}
}

// PolicyFromConfig maps the [matching] config section onto a Policy.
func PolicyFromConfig(cfg config.Matching) Policy {
	return Policy{
		MinMatchThreshold:   cfg.MinMatchThreshold,
		MinObservationNames: cfg.MinObservationNames,
		MaxDateRangeMonths:  cfg.MaxDateRangeMonths,
	}.normalized()
}

func (p Policy) normalized() Policy {
	d := DefaultPolicy()
	if p.MinMatchThreshold <= 0 || p.MinMatchThreshold > 100 {
		p.MinMatchThreshold = d.MinMatchThreshold
	}
	if p.MinObservationNames <= 0 {
		p.MinObservationNames = d.MinObservationNames
	}
	if p.MaxDateRangeMonths <= 0 {
		p.MaxDateRangeMonths = d.MaxDateRangeMonths
	}
	return p
}
