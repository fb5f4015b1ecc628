// Package intrinsics builds and writes camera intrinsics EXIF tags for JPEG images.
package intrinsics

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/tstromberg/camexif/pkg/sensor"
)

var (
	// ErrUnknownSensor means the identifier matched no sensor or alias.
	ErrUnknownSensor = errors.New("unknown sensor")
	// ErrInvalidResolution means a width or height was not positive or does not fit in an EXIF LONG.
	ErrInvalidResolution = errors.New("invalid resolution")
	// ErrEncoding means the EXIF write itself failed.
	ErrEncoding = errors.New("exif encoding failed")
)

// EXIF tag numbers within the Exif IFD.
const (
	TagFocalLength           uint16 = 0x920A
	TagFocalLengthIn35mmFilm uint16 = 0xA405
	TagPixelXDimension       uint16 = 0xA002
	TagPixelYDimension       uint16 = 0xA003
)

// focalDenominator gives focal lengths two decimal places.
const focalDenominator = 100

// Resolution is the pixel size of a captured frame.
type Resolution struct {
	Width  int
	Height int
}

func (r Resolution) String() string {
	return fmt.Sprintf("%dx%d", r.Width, r.Height)
}

// Valid reports whether both dimensions are positive and fit in a uint32.
func (r Resolution) Valid() bool {
	return r.Width > 0 && r.Height > 0 &&
		uint64(r.Width) <= math.MaxUint32 && uint64(r.Height) <= math.MaxUint32
}

// Rational is an unsigned EXIF RATIONAL.
type Rational struct {
	Num uint32
	Den uint32
}

// Float returns the rational as a float64, or 0 for a zero denominator.
func (r Rational) Float() float64 {
	if r.Den == 0 {
		return 0
	}
	return float64(r.Num) / float64(r.Den)
}

func (r Rational) String() string {
	return fmt.Sprintf("%d/%d", r.Num, r.Den)
}

// FocalRational converts a focal length in millimeters to a rational with two decimals.
func FocalRational(mm float64) Rational {
	return Rational{Num: uint32(math.Round(mm * focalDenominator)), Den: focalDenominator}
}

// Intrinsics is the EXIF payload describing the optics of one capture.
type Intrinsics struct {
	Sensor          string
	FocalLength     Rational
	FocalLength35mm uint16
	PixelX          uint32
	PixelY          uint32
}

// Tag is one EXIF entry.
type Tag struct {
	ID    uint16
	Name  string
	Value any
}

// Tags returns the payload in tag number order.
func (in Intrinsics) Tags() []Tag {
	return []Tag{
		{ID: TagFocalLength, Name: "FocalLength", Value: in.FocalLength},
		{ID: TagPixelXDimension, Name: "PixelXDimension", Value: in.PixelX},
		{ID: TagPixelYDimension, Name: "PixelYDimension", Value: in.PixelY},
		{ID: TagFocalLengthIn35mmFilm, Name: "FocalLengthIn35mmFilm", Value: in.FocalLength35mm},
	}
}

func (in Intrinsics) String() string {
	parts := make([]string, 0, 4)
	for _, t := range in.Tags() {
		parts = append(parts, fmt.Sprintf("%s(0x%04X)=%v", t.Name, t.ID, t.Value))
	}
	return strings.Join(parts, " ")
}

// Build resolves identifier in t and returns the intrinsics for a frame of size res.
// Pixel dimensions come from res rather than the sensor's native size, since
// frames may be binned or cropped.
func Build(t *sensor.Table, identifier string, res Resolution) (Intrinsics, error) {
	p, ok := t.Resolve(identifier)
	if !ok {
		return Intrinsics{}, fmt.Errorf("%w: %q", ErrUnknownSensor, identifier)
	}

	if !res.Valid() {
		return Intrinsics{}, fmt.Errorf("%w: %s for %s", ErrInvalidResolution, res, p.Name)
	}

	return Intrinsics{
		Sensor:          p.Name,
		FocalLength:     FocalRational(p.FocalLengthMM),
		FocalLength35mm: uint16(p.FocalLength35mm),
		PixelX:          uint32(res.Width),
		PixelY:          uint32(res.Height),
	}, nil
}
