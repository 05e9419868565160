package models

import (
	"encoding/json"
	"fmt"
	"mime"
	"net/http"
	"strconv"
)

// UpdateStatusRequest is the normalized status-change request. Older
// callers submit conventional form fields while newer ones send JSON;
// ParseUpdateStatusRequest folds both shapes into this struct so the
// service never sees transport details.
type UpdateStatusRequest struct {
	ID     int64  `json:"id"`
	Status string `json:"status"`
	Reason string `json:"reason,omitempty"`
}

// CreateRequest submits a new paperwork record.
type CreateRequest struct {
	CandidateName  string `json:"candidate_name"`
	CandidateEmail string `json:"candidate_email"`
	Client         string `json:"client"`
}

// DeleteBatchRequest names the records for a bulk delete.
type DeleteBatchRequest struct {
	IDs []int64 `json:"ids"`
}

// ParseUpdateStatusRequest is the single parsing boundary for status
// updates. JSON bodies take `id` as a number or string; form bodies use
// the conventional `id`, `status`, `reason` fields.
func ParseUpdateStatusRequest(r *http.Request) (UpdateStatusRequest, error) {
	contentType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))

	switch contentType {
	case "application/x-www-form-urlencoded", "multipart/form-data":
		if err := r.ParseForm(); err != nil {
			return UpdateStatusRequest{}, fmt.Errorf("parse form: %w", err)
		}
		req := UpdateStatusRequest{
			Status: r.PostFormValue("status"),
			Reason: r.PostFormValue("reason"),
		}
		if raw := r.PostFormValue("id"); raw != "" {
			id, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				return UpdateStatusRequest{}, fmt.Errorf("invalid id %q", raw)
			}
			req.ID = id
		}
		return req, nil
	default:
		// JSON body; id may arrive as number or numeric string.
		var raw struct {
			ID     json.Number `json:"id"`
			Status string      `json:"status"`
			Reason string      `json:"reason"`
		}
		dec := json.NewDecoder(r.Body)
		dec.UseNumber()
		if err := dec.Decode(&raw); err != nil {
			return UpdateStatusRequest{}, fmt.Errorf("decode json: %w", err)
		}
		req := UpdateStatusRequest{Status: raw.Status, Reason: raw.Reason}
		if raw.ID != "" {
			id, err := raw.ID.Int64()
			if err != nil {
				return UpdateStatusRequest{}, fmt.Errorf("invalid id %q", raw.ID)
			}
			req.ID = id
		}
		return req, nil
	}
}
