// Package sensor provides physical and optical parameters for known camera sensors.
package sensor

import (
	"fmt"
	"math"
	"sort"
	"strings"
)

// fullFrameWidthMM is the width of 35mm film.
const fullFrameWidthMM = 36.0

// Profile describes a sensor model.
type Profile struct {
	Name        string   `json:"name"`
	Aliases     []string `json:"aliases,omitempty"`
	Description string   `json:"description,omitempty"`

	SensorWidthMM  float64 `json:"sensor_width_mm"`
	SensorHeightMM float64 `json:"sensor_height_mm"`

	NativeWidth  int `json:"native_width_px"`
	NativeHeight int `json:"native_height_px"`

	FocalLengthMM   float64 `json:"focal_length_mm"`
	FocalLength35mm int     `json:"focal_length_35mm,omitempty"`
}

// PixelSizeUM returns the pixel pitch in micrometers.
func (p Profile) PixelSizeUM() float64 {
	return p.SensorWidthMM / float64(p.NativeWidth) * 1000
}

// FocalLengthPixels returns the focal length in pixels for an image of the given width.
func (p Profile) FocalLengthPixels(width int) float64 {
	scale := float64(width) / float64(p.NativeWidth)
	return p.FocalLengthMM * (float64(p.NativeWidth) / p.SensorWidthMM) * scale
}

// Equivalent35mm returns the 35mm film equivalent of focalMM for a sensor of the given width.
func Equivalent35mm(focalMM float64, sensorWidthMM float64) int {
	if sensorWidthMM <= 0 {
		return int(math.Round(focalMM))
	}
	return int(math.Round(focalMM * fullFrameWidthMM / sensorWidthMM))
}

func (p Profile) validate() error {
	if p.Name == "" {
		return fmt.Errorf("empty name")
	}
	if p.NativeWidth <= 0 || p.NativeHeight <= 0 {
		return fmt.Errorf("%s: native resolution %dx%d is not positive", p.Name, p.NativeWidth, p.NativeHeight)
	}
	if p.FocalLengthMM <= 0 {
		return fmt.Errorf("%s: focal length %.2fmm is not positive", p.Name, p.FocalLengthMM)
	}
	if math.Round(p.FocalLengthMM*100) > math.MaxUint32 {
		return fmt.Errorf("%s: focal length %.2fmm is too large", p.Name, p.FocalLengthMM)
	}
	if p.FocalLength35mm < 0 {
		return fmt.Errorf("%s: 35mm focal length %d is negative", p.Name, p.FocalLength35mm)
	}
	if p.FocalLength35mm > math.MaxUint16 {
		return fmt.Errorf("%s: 35mm focal length %d is too large", p.Name, p.FocalLength35mm)
	}
	return nil
}

// Table is an immutable lookup of sensor profiles by name and alias.
type Table struct {
	profiles map[string]Profile
	aliases  map[string]string
	order    []string
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// NewTable validates profiles and builds a table from them.
// Every alias must map to exactly one profile.
func NewTable(profiles ...Profile) (*Table, error) {
	t := &Table{
		profiles: map[string]Profile{},
		aliases:  map[string]string{},
	}

	for _, p := range profiles {
		p.Name = normalize(p.Name)
		if p.FocalLength35mm == 0 && p.FocalLengthMM > 0 {
			p.FocalLength35mm = Equivalent35mm(p.FocalLengthMM, p.SensorWidthMM)
		}
		if err := p.validate(); err != nil {
			return nil, fmt.Errorf("invalid profile: %w", err)
		}

		if _, ok := t.profiles[p.Name]; ok {
			return nil, fmt.Errorf("duplicate sensor %q", p.Name)
		}

		aliases := make([]string, 0, len(p.Aliases))
		for _, a := range p.Aliases {
			a = normalize(a)
			if a == "" || a == p.Name {
				continue
			}
			aliases = append(aliases, a)
		}
		sort.Strings(aliases)
		p.Aliases = aliases

		t.profiles[p.Name] = p
		t.order = append(t.order, p.Name)
	}

	for name, p := range t.profiles {
		for _, a := range p.Aliases {
			if _, ok := t.profiles[a]; ok {
				return nil, fmt.Errorf("alias %q of %q collides with a sensor name", a, name)
			}
			if prev, ok := t.aliases[a]; ok && prev != name {
				return nil, fmt.Errorf("alias %q maps to both %q and %q", a, prev, name)
			}
			t.aliases[a] = name
		}
	}

	return t, nil
}

// Resolve looks up a sensor by canonical name, then by alias. Lookup is case-insensitive.
func (t *Table) Resolve(identifier string) (Profile, bool) {
	id := normalize(identifier)
	if id == "" {
		return Profile{}, false
	}

	if p, ok := t.profiles[id]; ok {
		return p.clone(), true
	}

	if name, ok := t.aliases[id]; ok {
		return t.profiles[name].clone(), true
	}

	return Profile{}, false
}

// Names returns the canonical sensor names in sorted order.
func (t *Table) Names() []string {
	names := make([]string, 0, len(t.profiles))
	for n := range t.profiles {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// Profiles returns every profile sorted by name.
func (t *Table) Profiles() []Profile {
	ps := make([]Profile, 0, len(t.profiles))
	for _, n := range t.Names() {
		ps = append(ps, t.profiles[n].clone())
	}
	return ps
}

// EstimateFromResolution guesses the sensor that produced an image of the given size.
// An exact native match wins; otherwise the first sensor, in table order,
// with a matching aspect ratio that can contain the image is returned.
func (t *Table) EstimateFromResolution(width, height int) (Profile, bool) {
	if width <= 0 || height <= 0 {
		return Profile{}, false
	}

	ps := make([]Profile, 0, len(t.order))
	for _, n := range t.order {
		ps = append(ps, t.profiles[n])
	}
	for _, p := range ps {
		if p.NativeWidth == width && p.NativeHeight == height {
			return p.clone(), true
		}
	}

	ratio := float64(width) / float64(height)
	for _, p := range ps {
		pr := float64(p.NativeWidth) / float64(p.NativeHeight)
		if math.Abs(pr-ratio) < 0.01 && width <= p.NativeWidth && height <= p.NativeHeight {
			return p.clone(), true
		}
	}

	return Profile{}, false
}

func (p Profile) clone() Profile {
	p.Aliases = append([]string(nil), p.Aliases...)
	return p
}
