package intrinsics

import (
	"errors"
	"fmt"
	"os"
	"sort"

	"github.com/barasher/go-exiftool"
	"k8s.io/klog/v2"
)

// exiftool tag names for the intrinsics payload.
const (
	fieldFocalLength   = "FocalLength"
	fieldFocalLength35 = "FocalLengthIn35mmFormat"
	fieldPixelX        = "ExifImageWidth"
	fieldPixelY        = "ExifImageHeight"
)

// Fields maps exiftool tag names to values.
type Fields map[string]any

// Keys returns the field names in sorted order.
func (f Fields) Keys() []string {
	ks := make([]string, 0, len(f))
	for k := range f {
		ks = append(ks, k)
	}
	sort.Strings(ks)
	return ks
}

// Merge returns a new set with the fields of each argument applied in order.
func Merge(sets ...Fields) Fields {
	out := Fields{}
	for _, s := range sets {
		for k, v := range s {
			out[k] = v
		}
	}
	return out
}

// Fields returns the payload keyed by exiftool tag name.
func (in Intrinsics) Fields() Fields {
	return Fields{
		fieldFocalLength:   in.FocalLength.Float(),
		fieldFocalLength35: int64(in.FocalLength35mm),
		fieldPixelX:        int64(in.PixelX),
		fieldPixelY:        int64(in.PixelY),
	}
}

// Writer merges metadata fields into an image file.
type Writer interface {
	Write(path string, fields Fields) error
}

// ExiftoolWriter writes and reads EXIF through a long-running exiftool process.
// It is safe for concurrent use; exiftool.Exiftool serializes requests itself.
type ExiftoolWriter struct {
	et *exiftool.Exiftool
}

// NewExiftoolWriter starts exiftool. Callers must Close the writer.
func NewExiftoolWriter(opts ...func(*exiftool.Exiftool) error) (*ExiftoolWriter, error) {
	opts = append([]func(*exiftool.Exiftool) error{exiftool.NoPrintConversion()}, opts...)
	et, err := exiftool.NewExiftool(opts...)
	if err != nil {
		return nil, fmt.Errorf("exiftool: %w", err)
	}
	return &ExiftoolWriter{et: et}, nil
}

// Close stops the exiftool process.
func (w *ExiftoolWriter) Close() error {
	return w.et.Close()
}

// Write sets fields on the file at path, leaving other tags untouched.
// Values are written without print conversion.
func (w *ExiftoolWriter) Write(path string, fields Fields) error {
	if len(fields) == 0 {
		return nil
	}

	if _, err := os.Stat(path); err != nil {
		return fmt.Errorf("%w: %w", ErrEncoding, err)
	}

	fm := exiftool.FileMetadata{File: path, Fields: map[string]interface{}{}}
	for _, k := range fields.Keys() {
		if err := setField(fm, k+"#", fields[k]); err != nil {
			return fmt.Errorf("%w: %w", ErrEncoding, err)
		}
	}

	fms := []exiftool.FileMetadata{fm}
	w.et.WriteMetadata(fms)

	if fms[0].Err != nil {
		return fmt.Errorf("%w: write %s: %w", ErrEncoding, path, fms[0].Err)
	}

	klog.V(1).Infof("wrote %d fields to %s", len(fields), path)
	return nil
}

func setField(fm exiftool.FileMetadata, k string, v any) error {
	switch x := v.(type) {
	case string:
		fm.SetString(k, x)
	case []string:
		fm.SetStrings(k, x)
	case int:
		fm.SetInt(k, int64(x))
	case int64:
		fm.SetInt(k, x)
	case uint16:
		fm.SetInt(k, int64(x))
	case uint32:
		fm.SetInt(k, int64(x))
	case float64:
		fm.SetFloat(k, x)
	case Rational:
		fm.SetFloat(k, x.Float())
	default:
		return fmt.Errorf("field %s: unsupported type %T", k, v)
	}
	return nil
}

// Read returns the intrinsics tags stored in the file at path.
// The boolean is false when the file carries no focal length.
func (w *ExiftoolWriter) Read(path string) (Intrinsics, bool, error) {
	fms := w.et.ExtractMetadata(path)

	fm := fms[0]
	if fm.Err != nil {
		return Intrinsics{}, false, fmt.Errorf("extract %s: %w", path, fm.Err)
	}

	focal, err := fm.GetFloat(fieldFocalLength)
	if errors.Is(err, exiftool.ErrKeyNotFound) {
		return Intrinsics{}, false, nil
	}
	if err != nil {
		return Intrinsics{}, false, fmt.Errorf("get %s: %w", fieldFocalLength, err)
	}

	in := Intrinsics{FocalLength: FocalRational(focal)}

	if v, err := fm.GetInt(fieldFocalLength35); err == nil {
		in.FocalLength35mm = uint16(v)
	}
	if v, err := fm.GetInt(fieldPixelX); err == nil {
		in.PixelX = uint32(v)
	}
	if v, err := fm.GetInt(fieldPixelY); err == nil {
		in.PixelY = uint32(v)
	}

	return in, true, nil
}
