package web

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dzakyzahy/AQUA-FLOQ-MAGNA/internal/economics"
	"github.com/dzakyzahy/AQUA-FLOQ-MAGNA/internal/process"
	"github.com/dzakyzahy/AQUA-FLOQ-MAGNA/internal/sim"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newTestServer(t *testing.T) (*Server, *sim.Updater) {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	u := sim.New(process.Default(), sim.WithNoise(process.Silent), sim.WithLogger(logger))
	ledger := economics.NewLedger(economics.DefaultParams(), process.Silent)
	u.Subscribe(ledger)
	s := New(u, ledger, logger)
	t.Cleanup(s.Close)
	return s, u
}

func do(t *testing.T, s *Server, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		r = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, r)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.Handler().ServeHTTP(w, req)
	return w
}

type snapshotBody struct {
	Seq   uint64        `json:"seq"`
	Cause string        `json:"cause"`
	State process.State `json:"state"`
}

func decodeSnapshot(t *testing.T, w *httptest.ResponseRecorder) snapshotBody {
	t.Helper()
	var body snapshotBody
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func TestHealth(t *testing.T) {
	s, _ := newTestServer(t)

	w := do(t, s, http.MethodGet, "/health", nil)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"status":"ok"`)
	assert.Contains(t, w.Body.String(), `"running":false`)
}

func TestGetState(t *testing.T) {
	s, u := newTestServer(t)
	u.Tick()

	w := do(t, s, http.MethodGet, "/api/v1/state", nil)
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeSnapshot(t, w)
	assert.Equal(t, "tick", body.Cause)
	assert.Equal(t, u.State().Turbidity, body.State.Turbidity)
	assert.True(t, body.State.AutoDosing)
	assert.NotNil(t, body.State.Alerts)
}

func TestPostEdit(t *testing.T) {
	tests := []struct {
		name   string
		body   any
		status int
	}{
		{"dosage", map[string]any{"field": "dosage", "value": 1.5}, http.StatusOK},
		{"alias", map[string]any{"field": "flow", "value": 150}, http.StatusOK},
		{"derived field", map[string]any{"field": "turbidity", "value": 3}, http.StatusUnprocessableEntity},
		{"unknown field", map[string]any{"field": "salinity", "value": 3}, http.StatusBadRequest},
		{"missing value", map[string]any{"field": "dosage"}, http.StatusBadRequest},
		{"malformed", "not an object", http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, u := newTestServer(t)
			before := u.Snapshot()

			w := do(t, s, http.MethodPost, "/api/v1/edit", tt.body)
			assert.Equal(t, tt.status, w.Code)

			if tt.status != http.StatusOK {
				assert.Equal(t, before.Seq, u.Snapshot().Seq)
				assert.Contains(t, w.Body.String(), "error")
			}
		})
	}
}

func TestPostEditDosageForcesManual(t *testing.T) {
	s, u := newTestServer(t)

	w := do(t, s, http.MethodPost, "/api/v1/edit", EditRequest{Field: "dosage", Value: ptr(1.5)})
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeSnapshot(t, w)
	assert.Equal(t, "edit", body.Cause)
	assert.InDelta(t, 1.5, body.State.Dosage, 1e-9)
	assert.False(t, body.State.AutoDosing)
	assert.False(t, u.State().AutoDosing)
}

func TestPostToggle(t *testing.T) {
	s, u := newTestServer(t)

	w := do(t, s, http.MethodPost, "/api/v1/toggle", nil)
	require.Equal(t, http.StatusOK, w.Code)

	body := decodeSnapshot(t, w)
	assert.Equal(t, "toggle", body.Cause)
	assert.False(t, body.State.AutoDosing)
	assert.Equal(t, process.Manual, u.State().Mode())
}

func TestGetKinetics(t *testing.T) {
	s, _ := newTestServer(t)

	w := do(t, s, http.MethodGet, "/api/v1/kinetics", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body struct {
		Rate     float64 `json:"rate"`
		HalfLife float64 `json:"halfLife"`
		Points   []struct {
			Time          float64 `json:"time"`
			Concentration float64 `json:"concentration"`
		} `json:"points"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.InDelta(t, 0.12, body.Rate, 1e-9)
	require.Len(t, body.Points, 13)
	assert.InDelta(t, 50, body.Points[0].Concentration, 1e-9)
	assert.Equal(t, 60.0, body.Points[12].Time)
}

func TestGetEconomics(t *testing.T) {
	s, u := newTestServer(t)
	u.Tick()

	w := do(t, s, http.MethodGet, "/api/v1/economics", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `"ticks":1`)
	assert.Contains(t, w.Body.String(), `"conventionalCost":"5000"`)
}

func TestWebSocketStream(t *testing.T) {
	s, u := newTestServer(t)
	ts := httptest.NewServer(s.Handler())
	defer ts.Close()

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/v1/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	first := readMessage(t, conn)
	assert.Equal(t, "snapshot", first.Type)
	require.NotNil(t, first.Snapshot)
	assert.Equal(t, sim.CauseInit, first.Snapshot.Cause)

	require.Eventually(t, func() bool { return s.Hub().Clients() == 1 }, time.Second, 10*time.Millisecond)
	u.Tick()

	tick := readMessage(t, conn)
	require.NotNil(t, tick.Snapshot)
	assert.Equal(t, sim.CauseTick, tick.Snapshot.Cause)

	require.NoError(t, conn.WriteJSON(Message{Type: "toggle"}))
	toggled := readMessage(t, conn)
	require.NotNil(t, toggled.Snapshot)
	assert.Equal(t, sim.CauseToggle, toggled.Snapshot.Cause)
	assert.False(t, toggled.Snapshot.State.AutoDosing)

	require.NoError(t, conn.WriteJSON(Message{Type: "edit", Field: "ph", Value: ptr(6.5)}))
	edited := readMessage(t, conn)
	require.NotNil(t, edited.Snapshot)
	assert.InDelta(t, 6.5, edited.Snapshot.State.PH, 1e-9)

	require.NoError(t, conn.WriteJSON(Message{Type: "edit", Field: "recovery", Value: ptr(1)}))
	rejected := readMessage(t, conn)
	assert.Equal(t, "error", rejected.Type)
	assert.NotEmpty(t, rejected.Error)
}

func TestHubDropsFramesForSlowClients(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	h := NewHub(logger)
	c := &client{send: make(chan []byte, sendBuffer), done: make(chan struct{})}
	h.clients[c.id] = c

	for i := 0; i < sendBuffer*2; i++ {
		h.OnSnapshot(sim.Snapshot{Seq: uint64(i), State: process.Default()})
	}

	assert.Len(t, c.send, sendBuffer)
	assert.Equal(t, uint64(sendBuffer), h.Dropped())
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var m Message
	require.NoError(t, conn.ReadJSON(&m))
	return m
}

func ptr(v float64) *float64 { return &v }
