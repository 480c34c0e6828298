package window

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"strings"
	"time"

	"github.com/PixPMusic/gopher-bind/internal/binding"
	"github.com/PixPMusic/gopher-bind/internal/curve"
	"github.com/PixPMusic/gopher-bind/internal/learn"
)

const (
	anyFilter    = "(Any)"
	customPreset = "custom"
)

// filterOptions lists the learn filter choices, "(Any)" first
func filterOptions() []string {
	return append([]string{anyFilter}, binding.Filters()...)
}

func filterValue(option string) string {
	if option == anyFilter {
		return ""
	}
	return option
}

// clearFamily returns the source family a filter narrows learning to
func clearFamily(filter string) (binding.Family, bool) {
	if filter == "" {
		return "", false
	}
	if c, err := binding.ParseCategory(filter); err == nil {
		return c.Family(), true
	}
	for _, f := range binding.Filters() {
		if f == filter {
			return binding.Family(f), true
		}
	}
	return "", false
}

func presetNames() []string {
	var names []string
	for _, p := range curve.Presets() {
		names = append(names, p.Name)
	}
	return append(names, customPreset)
}

// presetName names the preset a behavior's curve matches, or "custom"
func presetName(bh binding.Behavior) string {
	for _, p := range curve.Presets() {
		if p.A == bh.CurveA && p.B == bh.CurveB && p.Mid == bh.CurveMid {
			return p.Name
		}
	}
	return customPreset
}

func describeBinding(b *binding.Binding) string {
	return fmt.Sprintf("%s -> %s", b.Source, b.Target.Path)
}

func otherBanks(names []string, current string) []string {
	var out []string
	for _, n := range names {
		if n != current {
			out = append(out, n)
		}
	}
	return out
}

// curvePoints samples the response of bh from raw input 0 to 1, with the
// binding's direction applied
func curvePoints(bh binding.Behavior, n int) []float64 {
	pts := curve.Sample(bh.CurveA, bh.CurveB, bh.CurveMid, n)
	if bh.Direction == binding.Inverted {
		for i, j := 0, len(pts)-1; i < j; i, j = i+1, j-1 {
			pts[i], pts[j] = pts[j], pts[i]
		}
	}
	return pts
}

// drawCurve plots pts left to right as a connected line, 0 at the bottom
func drawCurve(w, h int, pts []float64, fg color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, max(w, 1), max(h, 1)))
	if w < 2 || h < 2 || len(pts) < 2 {
		return img
	}

	row := func(v float64) int {
		return (h - 1) - int(math.Round(curve.Clamp(v, 0, 1)*float64(h-1)))
	}

	prev := row(pts[0])
	for x := 0; x < w; x++ {
		pos := float64(x) / float64(w-1) * float64(len(pts)-1)
		i := min(int(pos), len(pts)-2)
		frac := pos - float64(i)
		cur := row(pts[i] + (pts[i+1]-pts[i])*frac)
		for y := min(prev, cur); y <= max(prev, cur); y++ {
			img.Set(x, y, fg)
		}
		prev = cur
	}
	return img
}

type portRow struct {
	Name      string
	Present   bool
	Wanted    bool
	Listening bool
}

// portRows merges the present ports with configured ones that are unplugged
func portRows(present, wanted, listening []string) []portRow {
	in := func(list []string, name string) bool {
		for _, v := range list {
			if v == name {
				return true
			}
		}
		return false
	}

	rows := make([]portRow, 0, len(present)+len(wanted))
	for _, p := range present {
		rows = append(rows, portRow{Name: p, Present: true, Wanted: in(wanted, p), Listening: in(listening, p)})
	}
	for _, w := range wanted {
		if !in(present, w) {
			rows = append(rows, portRow{Name: w, Wanted: true})
		}
	}
	return rows
}

func (r portRow) status() string {
	switch {
	case r.Listening:
		return "listening"
	case !r.Present:
		return "unplugged"
	}
	return "-"
}

// setWanted adds or removes name, keeping order
func setWanted(wanted []string, name string, on bool) []string {
	out := make([]string, 0, len(wanted)+1)
	for _, w := range wanted {
		if w != name {
			out = append(out, w)
		}
	}
	if on {
		out = append(out, name)
	}
	return out
}

func learnStatus(s *learn.Session) string {
	if s == nil {
		return "Pick a parameter and press Learn"
	}
	if out, done := s.Outcome(); done {
		if out.State == learn.Bound {
			return fmt.Sprintf("Bound %s in bank %s", describeBinding(out.Binding), out.Bank)
		}
		return fmt.Sprintf("Learn %s: %s", s.Target().Path, out.State)
	}
	return fmt.Sprintf("Move a control for %s (since %s)", s.Target().Path, s.Since().Format(time.TimeOnly))
}

func heldText(held []string) string {
	if len(held) == 0 {
		return "Held keys: none"
	}
	return "Held keys: " + strings.Join(held, " ")
}
