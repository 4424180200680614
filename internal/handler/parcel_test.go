package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"chiban-geocoder/internal/models"
	"chiban-geocoder/internal/service"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockParcelService is a mock implementation of the ParcelService interface
type MockParcelService struct {
	mock.Mock
}

func (m *MockParcelService) Resolve(ctx context.Context, query string, area []string, exact bool) ([]models.ParcelLocation, error) {
	args := m.Called(ctx, query, area, exact)
	locations, _ := args.Get(0).([]models.ParcelLocation)
	return locations, args.Error(1)
}

func (m *MockParcelService) Segment(ctx context.Context, notation, cityCode string) ([]string, error) {
	args := m.Called(ctx, notation, cityCode)
	parcels, _ := args.Get(0).([]string)
	return parcels, args.Error(1)
}

func (m *MockParcelService) FindFude(ctx context.Context, code string) (*models.ParcelLocation, error) {
	args := m.Called(ctx, code)
	location, _ := args.Get(0).(*models.ParcelLocation)
	return location, args.Error(1)
}

var hitaLocation = models.ParcelLocation{
	Chiban:    "日田市大字田島字畑江583番地8",
	Address:   "大分県日田市田島畑江583番地8",
	CityCode:  "44204",
	FudeCode:  "12345",
	Level:     8,
	Status:    0,
	Latitude:  33.321,
	Longitude: 130.939,
}

func toJSON(t *testing.T, v interface{}) string {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	return string(b)
}

func newTestContext(target string) (*gin.Context, *httptest.ResponseRecorder) {
	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	c.Request = httptest.NewRequest(http.MethodGet, target, nil)
	return c, w
}

func TestParcelHandler_Resolve(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name           string
		params         url.Values
		mockCall       bool
		area           []string
		exact          bool
		mockLocations  []models.ParcelLocation
		mockError      error
		expectedStatus int
		expectedBody   interface{}
	}{
		{
			name:           "missing query parameter",
			params:         url.Values{},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   gin.H{"error": "missing required query parameter 'q'"},
		},
		{
			name:           "invalid exact flag",
			params:         url.Values{"q": {"日田市大字田島字畑江583番地8"}, "exact": {"maybe"}},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   gin.H{"error": "invalid exact format"},
		},
		{
			name:           "resolved with area",
			params:         url.Values{"q": {"日田市大字田島字畑江583番地8"}, "area": {"大分県", "日田市"}, "exact": {"true"}},
			mockCall:       true,
			area:           []string{"大分県", "日田市"},
			exact:          true,
			mockLocations:  []models.ParcelLocation{hitaLocation},
			expectedStatus: http.StatusOK,
			expectedBody:   []models.ParcelLocation{hitaLocation},
		},
		{
			name:           "resolved without area",
			params:         url.Values{"q": {"大分県/日田市/田島畑江600番地"}},
			mockCall:       true,
			mockLocations:  []models.ParcelLocation{},
			expectedStatus: http.StatusOK,
			expectedBody:   []models.ParcelLocation{},
		},
		{
			name:           "service error",
			params:         url.Values{"q": {"日田市"}},
			mockCall:       true,
			mockError:      assert.AnError,
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   gin.H{"error": "internal server error"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockSvc := new(MockParcelService)
			handler := NewParcelHandler(mockSvc)

			if tt.mockCall {
				mockSvc.On("Resolve", mock.Anything, tt.params.Get("q"), tt.area, tt.exact).Return(tt.mockLocations, tt.mockError)
			}

			c, w := newTestContext("/resolve?" + tt.params.Encode())
			handler.Resolve(c)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.JSONEq(t, toJSON(t, tt.expectedBody), w.Body.String())

			mockSvc.AssertExpectations(t)
		})
	}
}

func TestParcelHandler_Segment(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name           string
		params         url.Values
		mockCall       bool
		mockParcels    []string
		mockError      error
		expectedStatus int
		expectedBody   interface{}
	}{
		{
			name:           "missing city",
			params:         url.Values{"q": {"日田市大字田島字畑江　583番地8"}},
			expectedStatus: http.StatusBadRequest,
			expectedBody:   gin.H{"error": "missing required query parameters 'q' and 'city'"},
		},
		{
			name:           "segmented",
			params:         url.Values{"q": {"日田市大字田島字畑江　583番地8、9"}, "city": {"44204"}},
			mockCall:       true,
			mockParcels:    []string{"日田市大字田島字畑江583番地8", "日田市大字田島字畑江9"},
			expectedStatus: http.StatusOK,
			expectedBody:   []string{"日田市大字田島字畑江583番地8", "日田市大字田島字畑江9"},
		},
		{
			name:           "unknown municipality",
			params:         url.Values{"q": {"丸の内一丁目　1番地"}, "city": {"13101"}},
			mockCall:       true,
			mockError:      fmt.Errorf("service: city 13101: %w", service.ErrCityNotRegistered),
			expectedStatus: http.StatusNotFound,
			expectedBody:   gin.H{"error": "municipality not found"},
		},
		{
			name:           "service error",
			params:         url.Values{"q": {"日田市"}, "city": {"44204"}},
			mockCall:       true,
			mockError:      assert.AnError,
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   gin.H{"error": "internal server error"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockSvc := new(MockParcelService)
			handler := NewParcelHandler(mockSvc)

			if tt.mockCall {
				mockSvc.On("Segment", mock.Anything, tt.params.Get("q"), tt.params.Get("city")).Return(tt.mockParcels, tt.mockError)
			}

			c, w := newTestContext("/segment?" + tt.params.Encode())
			handler.Segment(c)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.JSONEq(t, toJSON(t, tt.expectedBody), w.Body.String())

			mockSvc.AssertExpectations(t)
		})
	}
}

func TestParcelHandler_Fude(t *testing.T) {
	gin.SetMode(gin.TestMode)

	tests := []struct {
		name           string
		code           string
		mockLocation   *models.ParcelLocation
		mockError      error
		expectedStatus int
		expectedBody   interface{}
	}{
		{
			name:           "missing code",
			code:           "",
			expectedStatus: http.StatusBadRequest,
			expectedBody:   gin.H{"error": "missing parcel code"},
		},
		{
			name:           "found",
			code:           "12345",
			mockLocation:   &hitaLocation,
			expectedStatus: http.StatusOK,
			expectedBody:   hitaLocation,
		},
		{
			name:           "not found",
			code:           "99999",
			mockError:      service.ErrNotFound,
			expectedStatus: http.StatusNotFound,
			expectedBody:   gin.H{"error": "no parcel with the specified code"},
		},
		{
			name:           "service error",
			code:           "12345",
			mockError:      assert.AnError,
			expectedStatus: http.StatusInternalServerError,
			expectedBody:   gin.H{"error": "internal server error"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			mockSvc := new(MockParcelService)
			handler := NewParcelHandler(mockSvc)

			if tt.code != "" {
				mockSvc.On("FindFude", mock.Anything, tt.code).Return(tt.mockLocation, tt.mockError)
			}

			c, w := newTestContext("/fude/" + tt.code)
			c.Params = gin.Params{{Key: "code", Value: tt.code}}
			handler.Fude(c)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.JSONEq(t, toJSON(t, tt.expectedBody), w.Body.String())

			mockSvc.AssertExpectations(t)
		})
	}
}

func TestRouter(t *testing.T) {
	gin.SetMode(gin.TestMode)

	mockSvc := new(MockParcelService)
	mockSvc.On("FindFude", mock.Anything, "12345").Return(&hitaLocation, nil)

	r := NewRouter(NewParcelHandler(mockSvc))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/health", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/fude/12345", nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, toJSON(t, hitaLocation), w.Body.String())

	mockSvc.AssertExpectations(t)
}
