package intrinsics

import (
	"errors"
	"fmt"

	"github.com/tstromberg/camexif/pkg/sensor"
)

// Apply builds the intrinsics for identifier and writes them to path along with base and extra.
// Fields are merged as base, intrinsics, extra, so extra wins on conflicts.
// If the build fails, base and extra are still written and the build error is returned.
func Apply(w Writer, t *sensor.Table, path string, identifier string, res Resolution, base Fields, extra Fields) (Intrinsics, error) {
	in, buildErr := Build(t, identifier, res)

	var fields Fields
	if buildErr == nil {
		fields = Merge(base, in.Fields(), extra)
	} else {
		fields = Merge(base, extra)
	}

	if err := w.Write(path, fields); err != nil {
		if !errors.Is(err, ErrEncoding) {
			err = fmt.Errorf("%w: %w", ErrEncoding, err)
		}
		return Intrinsics{}, errors.Join(buildErr, err)
	}

	if buildErr != nil {
		return Intrinsics{}, buildErr
	}
	return in, nil
}
