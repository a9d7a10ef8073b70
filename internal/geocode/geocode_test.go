package geocode

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"storefront/internal/config"
	"storefront/internal/model"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestGeocoder(t *testing.T, handler http.HandlerFunc) Geocoder {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)
	return New(config.GeocodingConfig{BaseURL: server.URL + "/", UserAgent: "storefront-test/1.0"}, server.Client(), zerolog.Nop())
}

func TestReverse(t *testing.T) {
	geocoder := newTestGeocoder(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/reverse", r.URL.Path)
		assert.Equal(t, "storefront-test/1.0", r.Header.Get("User-Agent"))
		assert.Equal(t, "12.971600", r.URL.Query().Get("lat"))
		assert.Equal(t, "77.594600", r.URL.Query().Get("lon"))
		assert.Equal(t, "1", r.URL.Query().Get("addressdetails"))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{
			"lat": "12.9716",
			"lon": "77.5946",
			"display_name": "MG Road, Bengaluru, Karnataka, 560001, India",
			"address": {"town": "Bengaluru", "state": "Karnataka", "postcode": "560001", "country": "India"}
		}`))
	})

	addr, err := geocoder.Reverse(context.Background(), 12.9716, 77.5946)
	require.NoError(t, err)
	assert.Equal(t, "Bengaluru", addr.City)
	assert.Equal(t, "Karnataka", addr.State)
	assert.Equal(t, "560001", addr.PostalCode)
	assert.Equal(t, "MG Road, Bengaluru, Karnataka, 560001, India", addr.DisplayName)
	assert.Equal(t, 12.9716, addr.Latitude)

	var form model.AddressForm
	form.Landmark = "Near the park"
	model.FillAddressForm(&form, *addr)
	assert.Equal(t, "560001", form.Pincode)
	assert.Equal(t, "Near the park", form.Landmark)
	require.NotNil(t, form.Latitude)
	assert.Equal(t, 12.9716, *form.Latitude)
}

func TestReverse_InvalidCoordinates(t *testing.T) {
	geocoder := newTestGeocoder(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("geocoding service must not be called")
	})

	_, err := geocoder.Reverse(context.Background(), 91, 0)
	assert.ErrorIs(t, err, model.ErrInvalidCoordinates)
	_, err = geocoder.Reverse(context.Background(), 0, -181)
	assert.ErrorIs(t, err, model.ErrInvalidCoordinates)
}

func TestReverse_Errors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		wantErr error
		msg     string
	}{
		{name: "rate limited", status: http.StatusTooManyRequests, wantErr: ErrRateLimited},
		{name: "unable to geocode", status: http.StatusOK, body: `{"error":"Unable to geocode"}`, wantErr: ErrLocationNotFound},
		{name: "server error", status: http.StatusBadGateway, msg: "status 502"},
		{name: "bad body", status: http.StatusOK, body: `not json`, msg: "failed to decode"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			geocoder := newTestGeocoder(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			})

			_, err := geocoder.Reverse(context.Background(), 10, 10)
			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}
			if tt.msg != "" {
				assert.Contains(t, err.Error(), tt.msg)
			}
		})
	}
}

func TestExtractCity(t *testing.T) {
	assert.Equal(t, "Pune", extractCity(map[string]string{"city": "Pune", "town": "Other"}))
	assert.Equal(t, "Hamlet", extractCity(map[string]string{"village": "Hamlet"}))
	assert.Empty(t, extractCity(map[string]string{}))
}
