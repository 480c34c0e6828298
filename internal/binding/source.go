package binding

import "fmt"

// Category identifies the kind of control an event comes from
type Category int

const (
	MidiCC Category = iota
	MidiNote
	GamepadAxis
	GamepadButton
	LFO
	KeyboardKey
	KeyboardHold
)

var categoryNames = [...]string{
	MidiCC:        "midi-cc",
	MidiNote:      "midi-note",
	GamepadAxis:   "gamepad-axis",
	GamepadButton: "gamepad-button",
	LFO:           "lfo",
	KeyboardKey:   "keyboard-key",
	KeyboardHold:  "keyboard-hold",
}

// Categories lists every known category
func Categories() []Category {
	return []Category{MidiCC, MidiNote, GamepadAxis, GamepadButton, LFO, KeyboardKey, KeyboardHold}
}

func (c Category) String() string {
	if c.Valid() {
		return categoryNames[c]
	}
	return fmt.Sprintf("category(%d)", int(c))
}

// Valid reports whether c is a known category
func (c Category) Valid() bool {
	return c >= 0 && int(c) < len(categoryNames)
}

// ParseCategory converts a category name such as "midi-cc" to a Category
func ParseCategory(s string) (Category, error) {
	for i, name := range categoryNames {
		if name == s {
			return Category(i), nil
		}
	}
	return 0, fmt.Errorf("unknown source category: %q", s)
}

func (c Category) MarshalText() ([]byte, error) {
	if !c.Valid() {
		return nil, fmt.Errorf("invalid source category %d", int(c))
	}
	return []byte(c.String()), nil
}

func (c *Category) UnmarshalText(b []byte) error {
	v, err := ParseCategory(string(b))
	if err != nil {
		return err
	}
	*c = v
	return nil
}

// Family groups related categories. Supersession and learn filters work
// per family: a new MIDI binding for a target replaces the old one whether
// it came from a CC or a note.
type Family string

const (
	FamilyMidi     Family = "midi"
	FamilyGamepad  Family = "gamepad"
	FamilyLFO      Family = "lfo"
	FamilyKeyboard Family = "keyboard"
)

// Family returns the family c belongs to
func (c Category) Family() Family {
	switch c {
	case MidiCC, MidiNote:
		return FamilyMidi
	case GamepadAxis, GamepadButton:
		return FamilyGamepad
	case LFO:
		return FamilyLFO
	case KeyboardKey, KeyboardHold:
		return FamilyKeyboard
	}
	return ""
}

// Filters lists every non-empty learn filter: the families, then each
// category name that is not also a family name
func Filters() []string {
	out := []string{string(FamilyMidi), string(FamilyGamepad), string(FamilyLFO), string(FamilyKeyboard)}
	for _, c := range Categories() {
		if string(c.Family()) != c.String() {
			out = append(out, c.String())
		}
	}
	return out
}

// ValidFilter reports whether filter is empty or one of Filters
func ValidFilter(filter string) bool {
	if filter == "" {
		return true
	}
	for _, f := range Filters() {
		if f == filter {
			return true
		}
	}
	return false
}

// Matches reports whether filter names c itself or its family.
// An empty filter matches everything.
func (c Category) Matches(filter string) bool {
	return filter == "" || filter == c.String() || Family(filter) == c.Family()
}

// Domain is the fixed raw value range of a category
type Domain struct {
	Min, Max float64
	Discrete bool
}

// Span is the width of the domain
func (d Domain) Span() float64 {
	return d.Max - d.Min
}

var domains = map[Category]Domain{
	MidiCC:        {Min: 0, Max: 127},
	MidiNote:      {Min: 0, Max: 127, Discrete: true},
	GamepadAxis:   {Min: -1, Max: 1},
	GamepadButton: {Min: 0, Max: 1, Discrete: true},
	LFO:           {Min: 0, Max: 1},
	KeyboardKey:   {Min: 0, Max: 1, Discrete: true},
	KeyboardHold:  {Min: 0, Max: 1},
}

// Domain returns the input domain of c
func (c Category) Domain() (Domain, bool) {
	d, ok := domains[c]
	return d, ok
}

// Discrete reports whether c fires momentary events
func (c Category) Discrete() bool {
	return domains[c].Discrete
}

// Source identifies one physical or virtual control
type Source struct {
	Category Category `json:"category"`
	Key      string   `json:"key"` // category specific, e.g. "cc:1:74" or "axis:0"
}

// FullKey returns the routing identity "category:key"
func (s Source) FullKey() string {
	return FullKey(s.Category, s.Key)
}

func (s Source) String() string {
	return s.FullKey()
}

// FullKey joins a category and key into a routing identity
func FullKey(c Category, key string) string {
	return c.String() + ":" + key
}
