package models

import (
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseUpdateStatusRequest_JSON(t *testing.T) {
	body := `{"id": 42, "status": "started", "reason": "Start Date: 2025-03-28"}`
	r := httptest.NewRequest("POST", "/api/paperwork/status", strings.NewReader(body))
	r.Header.Set("Content-Type", "application/json")

	req, err := ParseUpdateStatusRequest(r)
	require.NoError(t, err)
	assert.Equal(t, UpdateStatusRequest{ID: 42, Status: "started", Reason: "Start Date: 2025-03-28"}, req)
}

func TestParseUpdateStatusRequest_JSONStringID(t *testing.T) {
	body := `{"id": "42", "status": "backout"}`
	r := httptest.NewRequest("POST", "/api/paperwork/status", strings.NewReader(body))
	r.Header.Set("Content-Type", "application/json")

	req, err := ParseUpdateStatusRequest(r)
	require.NoError(t, err)
	assert.Equal(t, int64(42), req.ID)
	assert.Equal(t, "backout", req.Status)
}

func TestParseUpdateStatusRequest_Form(t *testing.T) {
	form := url.Values{}
	form.Set("id", "42")
	form.Set("status", "started")
	form.Set("reason", "Start Date: 2025-03-28")

	r := httptest.NewRequest("POST", "/api/paperwork/status", strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	req, err := ParseUpdateStatusRequest(r)
	require.NoError(t, err)
	assert.Equal(t, UpdateStatusRequest{ID: 42, Status: "started", Reason: "Start Date: 2025-03-28"}, req)
}

// Both transports must normalize to identical structs.
func TestParseUpdateStatusRequest_Equivalence(t *testing.T) {
	jsonReq := httptest.NewRequest("POST", "/x", strings.NewReader(`{"id":7,"status":"client_hold","reason":"budget freeze"}`))
	jsonReq.Header.Set("Content-Type", "application/json")

	form := url.Values{"id": {"7"}, "status": {"client_hold"}, "reason": {"budget freeze"}}
	formReq := httptest.NewRequest("POST", "/x", strings.NewReader(form.Encode()))
	formReq.Header.Set("Content-Type", "application/x-www-form-urlencoded; charset=utf-8")

	fromJSON, err := ParseUpdateStatusRequest(jsonReq)
	require.NoError(t, err)
	fromForm, err := ParseUpdateStatusRequest(formReq)
	require.NoError(t, err)

	assert.Equal(t, fromJSON, fromForm)
}

func TestParseUpdateStatusRequest_BadID(t *testing.T) {
	form := url.Values{"id": {"forty-two"}, "status": {"started"}}
	r := httptest.NewRequest("POST", "/x", strings.NewReader(form.Encode()))
	r.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	_, err := ParseUpdateStatusRequest(r)
	assert.Error(t, err)
}

func TestParseUpdateStatusRequest_BadJSON(t *testing.T) {
	r := httptest.NewRequest("POST", "/x", strings.NewReader(`{"id":`))
	r.Header.Set("Content-Type", "application/json")

	_, err := ParseUpdateStatusRequest(r)
	assert.Error(t, err)
}

func TestParseUpdateStatusRequest_MissingFieldsIsNotParseError(t *testing.T) {
	// Presence validation belongs to the service, not the parse boundary.
	r := httptest.NewRequest("POST", "/x", strings.NewReader(`{}`))
	r.Header.Set("Content-Type", "application/json")

	req, err := ParseUpdateStatusRequest(r)
	require.NoError(t, err)
	assert.Zero(t, req.ID)
	assert.Empty(t, req.Status)
}
