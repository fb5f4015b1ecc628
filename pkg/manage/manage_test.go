package manage

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSensorsHandler(t *testing.T) {
	srv := httptest.NewServer(New(nil).Handler())
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/sensors")
	require.NoError(t, err)
	defer resp.Body.Close()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var got []map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&got))
	require.Len(t, got, 4)
	assert.Equal(t, "hawkeye", got[0]["name"])
	assert.Equal(t, []any{"arducam_64mp"}, got[0]["aliases"])
	assert.Equal(t, float64(28), got[0]["focal_length_35mm"])
	assert.Contains(t, got[0], "pixel_size_um")
}

func TestIntrinsicsHandler(t *testing.T) {
	srv := httptest.NewServer(New(nil).Handler())
	defer srv.Close()

	tests := []struct {
		name   string
		query  string
		status int
	}{
		{"known", "camera=imx519&width=4656&height=3496", http.StatusOK},
		{"alias", "camera=arducam_64mp&width=100&height=100", http.StatusOK},
		{"unknown", "camera=not_a_sensor&width=4656&height=3496", http.StatusNotFound},
		{"zero width", "camera=imx519&width=0&height=100", http.StatusBadRequest},
		{"missing height", "camera=imx519&width=10", http.StatusBadRequest},
		{"bad width", "camera=imx519&width=abc&height=10", http.StatusBadRequest},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			resp, err := http.Get(srv.URL + "/intrinsics?" + tc.query)
			require.NoError(t, err)
			defer resp.Body.Close()
			assert.Equal(t, tc.status, resp.StatusCode)
		})
	}
}

func TestIntrinsicsHandlerBody(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/intrinsics?camera=IMX519&width=4656&height=3496", nil)
	rec := httptest.NewRecorder()
	New(nil).IntrinsicsHandler()(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)

	var got intrinsicsJSON
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))

	want := intrinsicsJSON{
		Sensor: "imx519",
		Tags: []tagJSON{
			{ID: 0x920A, Name: "FocalLength", Value: "428/100"},
			{ID: 0xA002, Name: "PixelXDimension", Value: "4656"},
			{ID: 0xA003, Name: "PixelYDimension", Value: "3496"},
			{ID: 0xA405, Name: "FocalLengthIn35mmFilm", Value: "33"},
		},
	}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Errorf("response mismatch (-want +got):\n%s", diff)
	}
}

func TestMethodNotAllowed(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/sensors", nil)
	rec := httptest.NewRecorder()
	New(nil).Handler().ServeHTTP(rec, req)
	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
}
