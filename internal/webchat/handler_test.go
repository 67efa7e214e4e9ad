package webchat

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/vietcare/booking-assistant/internal/catalog"
	"github.com/vietcare/booking-assistant/internal/dialog"
	"github.com/vietcare/booking-assistant/internal/session"
	"github.com/vietcare/booking-assistant/pkg/logging"
)

var testNow = time.Date(2026, 8, 31, 9, 0, 0, 0, time.UTC)

// stubGateway serves a minimal catalog for handler tests.
type stubGateway struct{}

func (stubGateway) ListHospitals(context.Context) ([]catalog.Option, error) {
	return []catalog.Option{{ID: "h1", Label: "Bệnh viện Bạch Mai", Detail: "Hà Nội"}}, nil
}

func (stubGateway) ListDepartments(context.Context, string) ([]catalog.Option, error) {
	return []catalog.Option{{ID: "d1", Label: "Tim mạch"}}, nil
}

func (stubGateway) ListDoctors(context.Context, string) ([]catalog.Option, error) {
	return []catalog.Option{{ID: "doc1", Label: "BS. Trần Văn Minh"}}, nil
}

func (stubGateway) GetSchedule(_ context.Context, _ string, date string) ([]string, error) {
	if date == "2026-09-01" {
		return []string{"08:00"}, nil
	}
	return nil, nil
}

func (stubGateway) CreateBooking(context.Context, catalog.BookingRequest) (*catalog.BookingResponse, error) {
	return &catalog.BookingResponse{}, nil
}

// mockContextStore keeps dialogue contexts in memory.
type mockContextStore struct {
	store map[string]dialog.Context
}

func newMockContextStore() *mockContextStore {
	return &mockContextStore{store: make(map[string]dialog.Context)}
}

func (m *mockContextStore) Save(_ context.Context, convID string, c dialog.Context) error {
	m.store[convID] = c
	return nil
}

func (m *mockContextStore) Load(_ context.Context, convID string) (*dialog.Context, error) {
	c, ok := m.store[convID]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (m *mockContextStore) Clear(_ context.Context, convID string) error {
	delete(m.store, convID)
	return nil
}

// mockTranscript stores messages in memory.
type mockTranscript struct {
	store map[string][]session.Message
}

func newMockTranscript() *mockTranscript {
	return &mockTranscript{store: make(map[string][]session.Message)}
}

func (m *mockTranscript) Append(_ context.Context, convID string, msg session.Message) error {
	m.store[convID] = append(m.store[convID], msg)
	return nil
}

func (m *mockTranscript) List(_ context.Context, convID string, limit int64) ([]session.Message, error) {
	msgs := m.store[convID]
	if int64(len(msgs)) > limit {
		msgs = msgs[len(msgs)-int(limit):]
	}
	return msgs, nil
}

func newTestHandler(t *testing.T) (*Handler, *mockContextStore, *mockTranscript) {
	t.Helper()
	engine := dialog.NewEngine(stubGateway{}, logging.New("error")).
		WithClock(func() time.Time { return testNow })
	contexts := newMockContextStore()
	transcript := newMockTranscript()
	h := NewHandler(engine, contexts, transcript, logging.New("error"),
		WithClock(func() time.Time { return testNow }))
	return h, contexts, transcript
}

func postMessage(t *testing.T, h *Handler, sessionID, text string) (reply string, done bool) {
	t.Helper()
	payload, err := json.Marshal(map[string]string{"session_id": sessionID, "text": text})
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodPost, "/chat/message", strings.NewReader(string(payload)))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()

	h.HandleMessage(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Reply     string `json:"reply"`
		SessionID string `json:"session_id"`
		Done      bool   `json:"done"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, sessionID, resp.SessionID)
	return resp.Reply, resp.Done
}

func TestConversationID(t *testing.T) {
	assert.Equal(t, "webchat:sess456", ConversationID("sess456"))
}

func TestGenerateSessionID(t *testing.T) {
	s1 := generateSessionID()
	s2 := generateSessionID()
	assert.NotEmpty(t, s1)
	assert.NotEqual(t, s1, s2)
	assert.Len(t, s1, 32) // 16 bytes = 32 hex chars
}

func TestHandleMessageOutOfScopeFallback(t *testing.T) {
	h, contexts, transcript := newTestHandler(t)

	reply, done := postMessage(t, h, "sess1", "thời tiết hôm nay thế nào?")

	assert.Equal(t, msgOutOfScope, reply)
	assert.False(t, done)
	assert.Empty(t, contexts.store)

	msgs := transcript.store[ConversationID("sess1")]
	require.Len(t, msgs, 2)
	assert.Equal(t, "user", msgs[0].Role)
	assert.Equal(t, "assistant", msgs[1].Role)
	assert.Equal(t, msgOutOfScope, msgs[1].Body)
}

func TestHandleMessageStartsBookingFlow(t *testing.T) {
	h, contexts, _ := newTestHandler(t)

	reply, done := postMessage(t, h, "sess1", "tôi muốn đặt lịch khám")

	assert.Contains(t, reply, "Bệnh viện Bạch Mai")
	assert.False(t, done)

	saved, ok := contexts.store[ConversationID("sess1")]
	require.True(t, ok)
	assert.Equal(t, dialog.FlowCollecting, saved.Flow)
	assert.Equal(t, dialog.NeedHospital, saved.Need)
}

func TestHandleMessageActiveFlowCapturesAnyText(t *testing.T) {
	h, contexts, _ := newTestHandler(t)
	convID := ConversationID("sess1")

	c := dialog.NewContext(testNow)
	c.Flow = dialog.FlowCollecting
	c.Need = dialog.NeedFullName
	c.Data.HospitalID, c.Data.HospitalName = "h1", "Bệnh viện Bạch Mai"
	c.Data.DepartmentID, c.Data.DepartmentName = "d1", "Tim mạch"
	c.Data.DoctorID, c.Data.DoctorName = "doc1", "BS. Trần Văn Minh"
	c.Data.Date, c.Data.Time = "2026-09-01", "08:00"
	contexts.store[convID] = c

	// Not a booking keyword, but the active flow must capture it as the name.
	reply, done := postMessage(t, h, "sess1", "Nguyễn Văn An")

	assert.NotEqual(t, msgOutOfScope, reply)
	assert.Contains(t, reply, "Số điện thoại")
	assert.False(t, done)
	assert.Equal(t, dialog.NeedPhone, contexts.store[convID].Need)
}

func TestHandleMessageCancelClearsContext(t *testing.T) {
	h, contexts, _ := newTestHandler(t)
	convID := ConversationID("sess1")

	c := dialog.NewContext(testNow)
	c.Flow = dialog.FlowCollecting
	c.Need = dialog.NeedHospital
	contexts.store[convID] = c

	reply, done := postMessage(t, h, "sess1", "hủy")

	assert.Contains(t, reply, "Đã dừng quy trình đặt lịch")
	assert.True(t, done)
	_, ok := contexts.store[convID]
	assert.False(t, ok)
}

func TestHandleMessageExpiredContextNeedsClassifier(t *testing.T) {
	h, contexts, _ := newTestHandler(t)
	convID := ConversationID("sess1")

	c := dialog.NewContext(testNow.Add(-11 * time.Minute))
	c.Flow = dialog.FlowCollecting
	c.Need = dialog.NeedFullName
	contexts.store[convID] = c

	// The flow went stale, so an unrelated message falls back instead of
	// being captured as the patient name.
	reply, _ := postMessage(t, h, "sess1", "Nguyễn Văn An")
	assert.Equal(t, msgOutOfScope, reply)

	// A booking query restarts the flow from the top.
	reply, _ = postMessage(t, h, "sess1", "đặt lịch")
	assert.Contains(t, reply, "Bệnh viện Bạch Mai")
	assert.Equal(t, dialog.NeedHospital, contexts.store[convID].Need)
}

func TestHandleMessageValidatesInput(t *testing.T) {
	h, _, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/chat/message", strings.NewReader(`{"session_id":"s1"}`))
	w := httptest.NewRecorder()
	h.HandleMessage(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	req = httptest.NewRequest(http.MethodPost, "/chat/message", strings.NewReader(`not json`))
	w = httptest.NewRecorder()
	h.HandleMessage(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleMessageGeneratesSessionID(t *testing.T) {
	h, _, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodPost, "/chat/message", strings.NewReader(`{"text":"đặt lịch"}`))
	w := httptest.NewRecorder()
	h.HandleMessage(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		SessionID string `json:"session_id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.NotEmpty(t, resp.SessionID)
}

func TestHandleHistory(t *testing.T) {
	h, _, transcript := newTestHandler(t)
	convID := ConversationID("sess1")
	transcript.store[convID] = []session.Message{
		{Role: "user", Body: "đặt lịch", Timestamp: testNow},
		{Role: "assistant", Body: "Bạn muốn khám ở bệnh viện nào?", Timestamp: testNow},
	}

	req := httptest.NewRequest(http.MethodGet, "/chat/history?session=sess1", nil)
	w := httptest.NewRecorder()
	h.HandleHistory(w, req)
	require.Equal(t, http.StatusOK, w.Code)

	var resp struct {
		Messages []HistoryMessage `json:"messages"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Messages, 2)
	assert.Equal(t, "user", resp.Messages[0].Role)
	assert.Equal(t, "đặt lịch", resp.Messages[0].Text)
}

func TestHandleHistoryRequiresSession(t *testing.T) {
	h, _, _ := newTestHandler(t)

	req := httptest.NewRequest(http.MethodGet, "/chat/history", nil)
	w := httptest.NewRecorder()
	h.HandleHistory(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
