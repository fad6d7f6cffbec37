package tables

// Limits bounds the quantity of each equipment item. Single-use items accept
// 0 or 1, items in Overrides accept up to their own maximum, everything else
// accepts up to DefaultMax.
type Limits struct {
	DefaultMax int            `yaml:"default_max"`
	SingleUse  []string       `yaml:"single_use"`
	Overrides  map[string]int `yaml:"overrides,omitempty"`

	max map[string]int
}

func (l *Limits) index() {
	l.max = make(map[string]int, len(l.SingleUse)+len(l.Overrides))
	for _, name := range l.SingleUse {
		l.max[NormalizeName(name)] = 1
	}
	for name, max := range l.Overrides {
		l.max[NormalizeName(name)] = max
	}
}

// Max returns the largest accepted quantity for an item.
func (l *Limits) Max(item string) int {
	if max, ok := l.max[NormalizeName(item)]; ok {
		return max
	}
	return l.DefaultMax
}

// Clamp forces qty into [0, Max(item)].
func (l *Limits) Clamp(item string, qty int) int {
	if qty < 0 {
		return 0
	}
	if max := l.Max(item); qty > max {
		return max
	}
	return qty
}
