package catalog

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vietcare/booking-assistant/pkg/logging"
)

func TestListHospitalsMapsRecords(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "/hospitals", r.URL.Path)
		assert.Equal(t, "Bearer tok-1", r.Header.Get("Authorization"))
		// numeric id and missing name exercise the boundary defaults
		w.Write([]byte(`[
			{"hospitalId": 12, "name": "BV Đại học Y Dược", "address": "215 Hồng Bàng"},
			{"code": "BV-CR", "name": "BV Chợ Rẫy"},
			{"id": "x9", "address": "1 Lê Lợi"}
		]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "tok-1", logging.New("error"))
	options, err := c.ListHospitals(context.Background())
	require.NoError(t, err)
	require.Len(t, options, 3)

	assert.Equal(t, Option{ID: "12", Label: "BV Đại học Y Dược", Detail: "215 Hồng Bàng"}, options[0])
	assert.Equal(t, "BV-CR", options[1].ID)
	assert.Equal(t, Option{ID: "x9", Label: "Bệnh viện", Detail: "1 Lê Lợi"}, options[2])
}

func TestListDepartmentsPostsHospitalID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/getDepartmentsByHospitalId", r.URL.Path)

		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "12", body["hospitalId"])

		w.Write([]byte(`[{"departmentId": "d1", "name": "Nội tổng quát"}, {"name": "Tai Mũi Họng"}]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", logging.New("error"))
	options, err := c.ListDepartments(context.Background(), "12")
	require.NoError(t, err)
	require.Len(t, options, 2)
	assert.Equal(t, "d1", options[0].ID)
	// name doubles as id when the gateway omits one
	assert.Equal(t, "Tai Mũi Họng", options[1].ID)
	assert.Equal(t, "Tai Mũi Họng", options[1].Label)
}

func TestGetScheduleReturnsSlots(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/doctor/getSchedule", r.URL.Path)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "doc-1", body["doctorId"])
		assert.Equal(t, "2026-09-01", body["date"])
		w.Write([]byte(`{"availableSlots": ["08:00", "08:30"]}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", logging.New("error"))
	slots, err := c.GetSchedule(context.Background(), "doc-1", "2026-09-01")
	require.NoError(t, err)
	assert.Equal(t, []string{"08:00", "08:30"}, slots)
}

func TestReadRetriesOnServerError(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) == 1 {
			http.Error(w, "boom", http.StatusInternalServerError)
			return
		}
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", logging.New("error")).WithRetries(2, time.Millisecond)
	_, err := c.ListHospitals(context.Background())
	require.NoError(t, err)
	assert.Equal(t, int32(2), calls.Load())
}

func TestReadRetriesExhausted(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", logging.New("error")).WithRetries(2, time.Millisecond)
	_, err := c.ListHospitals(context.Background())
	require.Error(t, err)
	assert.Equal(t, int32(3), calls.Load())
}

func TestCreateBookingNeverRetries(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)

		var req BookingRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "Nguyễn Văn A", req.PatientName)
		assert.Equal(t, "0901234567", req.Phone)

		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", logging.New("error")).WithRetries(3, time.Millisecond)
	_, err := c.CreateBooking(context.Background(), BookingRequest{
		AppointmentID: "APPT-1",
		PatientName:   "Nguyễn Văn A",
		Phone:         "0901234567",
	})
	require.Error(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestCreateBookingReturnsGatewayReference(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"appointmentId": "SRV-555"}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL, "", logging.New("error"))
	resp, err := c.CreateBooking(context.Background(), BookingRequest{AppointmentID: "APPT-1"})
	require.NoError(t, err)
	assert.Equal(t, "SRV-555", resp.AppointmentID)
}
