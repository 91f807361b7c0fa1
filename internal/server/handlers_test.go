package server_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/amit429/billbreak/internal/calculator"
	"github.com/amit429/billbreak/internal/models"
	"github.com/amit429/billbreak/internal/receipt"
	"github.com/amit429/billbreak/internal/server"
	"github.com/amit429/billbreak/internal/session"
)

type snapshot struct {
	SessionID  string                   `json:"session_id"`
	State      models.BillState         `json:"state"`
	Progress   int                      `json:"progress"`
	Subtotal   float64                  `json:"subtotal"`
	GrandTotal float64                  `json:"grand_total"`
	Ready      bool                     `json:"ready"`
	Shares     []calculator.PersonShare `json:"shares"`
}

type stubParser struct {
	result *receipt.ParsedReceipt
	err    error
}

func (s *stubParser) Parse(_ context.Context, _ []byte, _ string) (*receipt.ParsedReceipt, error) {
	return s.result, s.err
}

func newTestServer(t *testing.T, parser receipt.Parser) *httptest.Server {
	t.Helper()
	registry := session.NewRegistry(time.Hour)
	t.Cleanup(registry.Close)
	ts := httptest.NewServer(server.New(registry, parser, nil).Routes())
	t.Cleanup(ts.Close)
	return ts
}

func do(t *testing.T, method, url string, body any) *http.Response {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req, err := http.NewRequest(method, url, &buf)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	return resp
}

func decodeSnapshot(t *testing.T, resp *http.Response) snapshot {
	t.Helper()
	defer resp.Body.Close()
	var snap snapshot
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&snap))
	return snap
}

func createSession(t *testing.T, ts *httptest.Server) string {
	t.Helper()
	resp := do(t, http.MethodPost, ts.URL+"/api/v1/sessions", nil)
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	return decodeSnapshot(t, resp).SessionID
}

func TestSplittingFlow(t *testing.T) {
	ts := newTestServer(t, nil)
	id := createSession(t, ts)
	base := fmt.Sprintf("%s/api/v1/sessions/%s", ts.URL, id)

	// Two participants.
	resp := do(t, http.MethodPost, base+"/participants", map[string]any{"name": "Alice"})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	snap := decodeSnapshot(t, resp)
	resp = do(t, http.MethodPost, base+"/participants", map[string]any{"name": "Bob"})
	snap = decodeSnapshot(t, resp)
	require.Len(t, snap.State.Participants, 2)
	alice := snap.State.Participants[0]
	bob := snap.State.Participants[1]
	assert.NotEqual(t, alice.Color, bob.Color)

	// Two items.
	resp = do(t, http.MethodPost, base+"/items", map[string]any{"name": "Pizza", "unit_price": 500.0, "quantity": 1})
	snap = decodeSnapshot(t, resp)
	resp = do(t, http.MethodPost, base+"/items", map[string]any{"name": "Coke", "unit_price": 60.0, "quantity": 5})
	snap = decodeSnapshot(t, resp)
	require.Len(t, snap.State.Items, 2)
	pizza := snap.State.Items[0]
	coke := snap.State.Items[1]
	assert.Equal(t, 800.0, snap.Subtotal)
	assert.False(t, snap.Ready)

	// Shared pizza: assign-all grants each participant quantity 1.
	resp = do(t, http.MethodPost, fmt.Sprintf("%s/items/%s/assignments/all", base, pizza.ID), nil)
	snap = decodeSnapshot(t, resp)
	gotPizza := snap.State.Items[0]
	require.Len(t, gotPizza.Assignments, 2)
	for _, a := range gotPizza.Assignments {
		assert.Equal(t, 1, a.Quantity)
	}

	// Explicit coke split.
	resp = do(t, http.MethodPut, fmt.Sprintf("%s/items/%s/assignments/%s", base, coke.ID, alice.ID), map[string]any{"quantity": 3})
	decodeSnapshot(t, resp)
	resp = do(t, http.MethodPut, fmt.Sprintf("%s/items/%s/assignments/%s", base, coke.ID, bob.ID), map[string]any{"quantity": 2})
	snap = decodeSnapshot(t, resp)
	assert.Equal(t, 100, snap.Progress)
	assert.True(t, snap.Ready)

	// Tax distributes proportionally.
	resp = do(t, http.MethodPut, base+"/tax", map[string]any{"amount": 100.0})
	snap = decodeSnapshot(t, resp)
	assert.Equal(t, 900.0, snap.GrandTotal)

	require.Len(t, snap.Shares, 2)
	require.Equal(t, alice.ID, snap.Shares[0].ParticipantID)
	// Alice: half the pizza (250) + 3 cokes (180) = 430.
	assert.InDelta(t, 430.0, snap.Shares[0].Subtotal, 0.01)
	assert.InDelta(t, 430.0/800.0*100.0, snap.Shares[0].TaxShare, 0.01)
	assert.InDelta(t, 430.0+430.0/800.0*100.0, snap.Shares[0].Total, 0.01)
	// Bob: half the pizza (250) + 2 cokes (120) = 370.
	assert.InDelta(t, 370.0, snap.Shares[1].Subtotal, 0.01)

	var sum float64
	for _, share := range snap.Shares {
		sum += share.Total
	}
	assert.InDelta(t, snap.GrandTotal, sum, 0.01)

	// Removing Bob strips his claims and his share.
	resp = do(t, http.MethodDelete, fmt.Sprintf("%s/participants/%s", base, bob.ID), nil)
	snap = decodeSnapshot(t, resp)
	require.Len(t, snap.State.Participants, 1)
	require.Len(t, snap.Shares, 1)
	assert.Equal(t, alice.ID, snap.Shares[0].ParticipantID)
	for _, it := range snap.State.Items {
		for _, a := range it.Assignments {
			assert.NotEqual(t, bob.ID, a.ParticipantID)
		}
	}
}

func TestUnknownSessionReturns404(t *testing.T) {
	ts := newTestServer(t, nil)
	for _, tc := range []struct {
		method, path string
		body         any
	}{
		{http.MethodGet, "/api/v1/sessions/nope", nil},
		{http.MethodPost, "/api/v1/sessions/nope/participants", map[string]any{"name": "Alice"}},
		{http.MethodPost, "/api/v1/sessions/nope/reset", nil},
		{http.MethodPut, "/api/v1/sessions/nope/tax", map[string]any{"amount": 1.0}},
	} {
		resp := do(t, tc.method, ts.URL+tc.path, tc.body)
		assert.Equal(t, http.StatusNotFound, resp.StatusCode, "%s %s", tc.method, tc.path)
		resp.Body.Close()
	}
}

func TestUnknownItemIsANoOp(t *testing.T) {
	ts := newTestServer(t, nil)
	id := createSession(t, ts)
	base := fmt.Sprintf("%s/api/v1/sessions/%s", ts.URL, id)

	resp := do(t, http.MethodPost, base+"/participants", map[string]any{"name": "Alice"})
	snap := decodeSnapshot(t, resp)
	alice := snap.State.Participants[0]

	resp = do(t, http.MethodPut, base+"/items/missing/assignments/"+alice.ID, map[string]any{"quantity": 2})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	snap = decodeSnapshot(t, resp)
	assert.Empty(t, snap.State.Items)
	assert.Len(t, snap.State.Participants, 1)
}

func TestValidationFailures(t *testing.T) {
	ts := newTestServer(t, nil)
	id := createSession(t, ts)
	base := fmt.Sprintf("%s/api/v1/sessions/%s", ts.URL, id)

	for _, tc := range []struct {
		name string
		path string
		body any
	}{
		{"negative price", base + "/items", map[string]any{"name": "Pizza", "unit_price": -1.0}},
		{"missing name", base + "/items", map[string]any{"unit_price": 10.0}},
		{"empty participant name", base + "/participants", map[string]any{}},
	} {
		t.Run(tc.name, func(t *testing.T) {
			resp := do(t, http.MethodPost, tc.path, tc.body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			resp.Body.Close()
		})
	}
}

func TestToggleEndpoint(t *testing.T) {
	ts := newTestServer(t, nil)
	id := createSession(t, ts)
	base := fmt.Sprintf("%s/api/v1/sessions/%s", ts.URL, id)

	resp := do(t, http.MethodPost, base+"/participants", map[string]any{"name": "Alice"})
	snap := decodeSnapshot(t, resp)
	alice := snap.State.Participants[0]
	resp = do(t, http.MethodPost, base+"/items", map[string]any{"name": "Pizza", "unit_price": 500.0, "quantity": 1})
	snap = decodeSnapshot(t, resp)
	pizza := snap.State.Items[0]

	togglePath := fmt.Sprintf("%s/items/%s/assignments/toggle", base, pizza.ID)
	resp = do(t, http.MethodPost, togglePath, map[string]any{"participant_id": alice.ID})
	snap = decodeSnapshot(t, resp)
	require.Len(t, snap.State.Items[0].Assignments, 1)
	assert.Equal(t, 1, snap.State.Items[0].Assignments[0].Quantity)

	resp = do(t, http.MethodPost, togglePath, map[string]any{"participant_id": alice.ID})
	snap = decodeSnapshot(t, resp)
	assert.Empty(t, snap.State.Items[0].Assignments)
}

func TestLoadAndReset(t *testing.T) {
	ts := newTestServer(t, nil)
	id := createSession(t, ts)
	base := fmt.Sprintf("%s/api/v1/sessions/%s", ts.URL, id)

	resp := do(t, http.MethodPost, base+"/load", map[string]any{
		"items": []map[string]any{
			{"name": "Pizza", "unit_price": 500.0, "quantity": 1},
			{"name": "Coke", "unit_price": 60.0, "quantity": 5},
		},
		"participants": []string{"Alice", "Bob"},
		"tax_amount":   100.0,
	})
	require.Equal(t, http.StatusOK, resp.StatusCode)
	snap := decodeSnapshot(t, resp)
	require.Len(t, snap.State.Items, 2)
	require.Len(t, snap.State.Participants, 2)
	assert.Equal(t, 100.0, snap.State.TaxAmount)
	assert.Equal(t, models.ColorCoral, snap.State.Participants[0].Color)
	assert.Equal(t, models.ColorMint, snap.State.Participants[1].Color)
	for _, it := range snap.State.Items {
		assert.Empty(t, it.Assignments)
	}

	resp = do(t, http.MethodPost, base+"/reset", nil)
	snap = decodeSnapshot(t, resp)
	assert.Empty(t, snap.State.Items)
	assert.Empty(t, snap.State.Participants)
	assert.Zero(t, snap.State.TaxAmount)
}

func TestDemoLoad(t *testing.T) {
	ts := newTestServer(t, nil)
	id := createSession(t, ts)

	resp := do(t, http.MethodPost, fmt.Sprintf("%s/api/v1/sessions/%s/demo", ts.URL, id), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	snap := decodeSnapshot(t, resp)
	assert.NotEmpty(t, snap.State.Items)
	assert.Positive(t, snap.State.TaxAmount)
	assert.False(t, snap.Ready, "demo has no participants yet")
}

func TestDemoLoadKeepsParticipants(t *testing.T) {
	ts := newTestServer(t, nil)
	id := createSession(t, ts)
	base := fmt.Sprintf("%s/api/v1/sessions/%s", ts.URL, id)

	resp := do(t, http.MethodPost, base+"/participants", map[string]any{"name": "Alice"})
	decodeSnapshot(t, resp)
	resp = do(t, http.MethodPost, base+"/participants", map[string]any{"name": "Bob"})
	snap := decodeSnapshot(t, resp)
	alice := snap.State.Participants[0]

	resp = do(t, http.MethodPost, base+"/demo", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	snap = decodeSnapshot(t, resp)
	assert.NotEmpty(t, snap.State.Items)
	require.Len(t, snap.State.Participants, 2, "demo must not drop existing participants")
	assert.Equal(t, alice.ID, snap.State.Participants[0].ID)
	for _, it := range snap.State.Items {
		assert.Empty(t, it.Assignments, "demo items start unclaimed")
	}
}

func TestSelectAndClearSelection(t *testing.T) {
	ts := newTestServer(t, nil)
	id := createSession(t, ts)
	base := fmt.Sprintf("%s/api/v1/sessions/%s", ts.URL, id)

	resp := do(t, http.MethodPost, base+"/items", map[string]any{"name": "Pizza", "unit_price": 500.0, "quantity": 1})
	snap := decodeSnapshot(t, resp)
	pizza := snap.State.Items[0]

	resp = do(t, http.MethodPut, fmt.Sprintf("%s/items/%s/select", base, pizza.ID), nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	snap = decodeSnapshot(t, resp)
	assert.Equal(t, pizza.ID, snap.State.SelectedItemID)

	resp = do(t, http.MethodDelete, base+"/select", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	snap = decodeSnapshot(t, resp)
	assert.Empty(t, snap.State.SelectedItemID)
}

func TestParseReceipt(t *testing.T) {
	image := map[string]any{"image_base64": "aGVsbG8=", "mime_type": "image/png"}

	t.Run("success returns parsed items without mutating the bill", func(t *testing.T) {
		parser := &stubParser{result: &receipt.ParsedReceipt{
			Items:     []receipt.ParsedItem{{Name: "Pizza", UnitPrice: 500, Quantity: 1}},
			TaxAmount: 80,
		}}
		ts := newTestServer(t, parser)
		id := createSession(t, ts)
		base := fmt.Sprintf("%s/api/v1/sessions/%s", ts.URL, id)

		resp := do(t, http.MethodPost, base+"/receipt", image)
		require.Equal(t, http.StatusOK, resp.StatusCode)
		var parsed receipt.ParsedReceipt
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&parsed))
		resp.Body.Close()
		require.Len(t, parsed.Items, 1)
		assert.Equal(t, 80.0, parsed.TaxAmount)

		resp = do(t, http.MethodGet, base, nil)
		snap := decodeSnapshot(t, resp)
		assert.Empty(t, snap.State.Items, "parsing must not commit state")
	})

	t.Run("parse failure maps to 422", func(t *testing.T) {
		parser := &stubParser{err: fmt.Errorf("%w: gibberish", receipt.ErrParseFailed)}
		ts := newTestServer(t, parser)
		id := createSession(t, ts)

		resp := do(t, http.MethodPost, fmt.Sprintf("%s/api/v1/sessions/%s/receipt", ts.URL, id), image)
		assert.Equal(t, http.StatusUnprocessableEntity, resp.StatusCode)
		resp.Body.Close()
	})

	t.Run("unconfigured parser maps to 503", func(t *testing.T) {
		ts := newTestServer(t, nil)
		id := createSession(t, ts)

		resp := do(t, http.MethodPost, fmt.Sprintf("%s/api/v1/sessions/%s/receipt", ts.URL, id), image)
		assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
		resp.Body.Close()
	})

	t.Run("bad base64 maps to 400", func(t *testing.T) {
		parser := &stubParser{result: &receipt.ParsedReceipt{}}
		ts := newTestServer(t, parser)
		id := createSession(t, ts)

		resp := do(t, http.MethodPost, fmt.Sprintf("%s/api/v1/sessions/%s/receipt", ts.URL, id),
			map[string]any{"image_base64": "not base64!!"})
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		resp.Body.Close()
	})
}

func TestDeleteSession(t *testing.T) {
	ts := newTestServer(t, nil)
	id := createSession(t, ts)
	base := fmt.Sprintf("%s/api/v1/sessions/%s", ts.URL, id)

	resp := do(t, http.MethodDelete, base, nil)
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)
	resp.Body.Close()

	resp = do(t, http.MethodGet, base, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp.Body.Close()
}

func TestHealthz(t *testing.T) {
	ts := newTestServer(t, nil)
	resp, err := http.Get(ts.URL + "/healthz")
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	resp.Body.Close()
}
