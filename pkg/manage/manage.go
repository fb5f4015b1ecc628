// Package manage provides HTTP handlers for inspecting the sensor table.
package manage

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"k8s.io/klog/v2"

	"github.com/tstromberg/camexif/pkg/intrinsics"
	"github.com/tstromberg/camexif/pkg/sensor"
)

// Server serves read-only sensor and intrinsics lookups.
type Server struct {
	sensors *sensor.Table
}

// New creates a new server.
func New(sensors *sensor.Table) *Server {
	if sensors == nil {
		sensors = sensor.Default()
	}
	return &Server{sensors: sensors}
}

// Handler returns a mux with every route registered.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("GET /sensors", s.SensorsHandler())
	mux.HandleFunc("GET /intrinsics", s.IntrinsicsHandler())
	return mux
}

type sensorJSON struct {
	sensor.Profile
	PixelSizeUM float64 `json:"pixel_size_um"`
}

// SensorsHandler lists known sensors.
func (s *Server) SensorsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, _ *http.Request) {
		ps := s.sensors.Profiles()
		out := make([]sensorJSON, 0, len(ps))
		for _, p := range ps {
			out = append(out, sensorJSON{Profile: p, PixelSizeUM: p.PixelSizeUM()})
		}
		writeJSON(w, http.StatusOK, out)
	}
}

type tagJSON struct {
	ID    uint16 `json:"id"`
	Name  string `json:"name"`
	Value string `json:"value"`
}

type intrinsicsJSON struct {
	Sensor string    `json:"sensor"`
	Tags   []tagJSON `json:"tags"`
}

type errorJSON struct {
	Error string `json:"error"`
}

// IntrinsicsHandler previews the tags that would be written for ?camera=&width=&height=.
func (s *Server) IntrinsicsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		q := r.URL.Query()
		width, err := strconv.Atoi(q.Get("width"))
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorJSON{Error: "width must be an integer"})
			return
		}
		height, err := strconv.Atoi(q.Get("height"))
		if err != nil {
			writeJSON(w, http.StatusBadRequest, errorJSON{Error: "height must be an integer"})
			return
		}

		in, err := intrinsics.Build(s.sensors, q.Get("camera"), intrinsics.Resolution{Width: width, Height: height})
		switch {
		case errors.Is(err, intrinsics.ErrUnknownSensor):
			writeJSON(w, http.StatusNotFound, errorJSON{Error: err.Error()})
			return
		case err != nil:
			writeJSON(w, http.StatusBadRequest, errorJSON{Error: err.Error()})
			return
		}

		out := intrinsicsJSON{Sensor: in.Sensor}
		for _, t := range in.Tags() {
			out.Tags = append(out.Tags, tagJSON{ID: t.ID, Name: t.Name, Value: formatValue(t.Value)})
		}
		writeJSON(w, http.StatusOK, out)
	}
}

func formatValue(v any) string {
	switch x := v.(type) {
	case intrinsics.Rational:
		return x.String()
	case uint16:
		return strconv.FormatUint(uint64(x), 10)
	case uint32:
		return strconv.FormatUint(uint64(x), 10)
	default:
		return ""
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		klog.Errorf("encode response: %v", err)
	}
}
