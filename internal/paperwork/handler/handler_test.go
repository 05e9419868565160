package handler_test

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/suite"

	"paperflow/internal/activitylog"
	"paperflow/internal/auth"
	"paperflow/internal/auth/revocation"
	"paperflow/internal/notify"
	"paperflow/internal/paperwork/events"
	"paperflow/internal/paperwork/handler"
	"paperflow/internal/paperwork/history"
	"paperflow/internal/paperwork/models"
	"paperflow/internal/paperwork/service"
	"paperflow/internal/paperwork/store"
	"paperflow/internal/platform/metrics"
	"paperflow/internal/platform/middleware"
	"paperflow/pkg/testutil"
)

type HandlerSuite struct {
	suite.Suite

	router  chi.Router
	records *store.Memory
	history *history.Memory
	token   string
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	logger := slog.New(slog.DiscardHandler)

	s.records = store.NewMemory()
	s.history = history.NewMemory()
	activity, err := activitylog.New(s.T().TempDir(), logger)
	s.Require().NoError(err)

	svc := service.New(s.records, s.history, activity,
		notify.NewLogNotifier(logger), events.Noop{},
		metrics.NewWith(prometheus.NewRegistry()), logger)

	validator := auth.NewValidator(testutil.SigningKey, revocation.NewMemory())
	h := handler.New(svc, logger)

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Group(func(r chi.Router) {
		r.Use(middleware.RequireAuth(validator, logger))
		h.Register(r)
		r.Group(func(r chi.Router) {
			r.Use(middleware.RequireAdmin(logger))
			h.RegisterAdmin(r)
		})
	})
	s.router = r

	s.token = testutil.SignToken(s.T(), "jyoti", "staff")
}

func (s *HandlerSuite) do(req *http.Request, token string) *httptest.ResponseRecorder {
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	return testutil.DoRequest(s.router, req)
}

func (s *HandlerSuite) seed(status models.Status) *models.Paperwork {
	p := &models.Paperwork{
		CandidateName: "Asha Rao",
		Client:        "Acme Corp",
		Status:        status,
		CreatedBy:     "jyoti",
		CreatedAt:     time.Now().UTC(),
	}
	s.Require().NoError(s.records.Create(s.T().Context(), p))
	return p
}

func (s *HandlerSuite) TestCreateAndGet() {
	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/api/paperwork", models.CreateRequest{
		CandidateName: "Asha Rao",
		Client:        "Acme Corp",
	})
	rr := s.do(req, s.token)
	s.Require().Equal(http.StatusCreated, rr.Code)

	var created models.Paperwork
	testutil.DecodeJSON(s.T(), rr, &created)
	s.Equal(int64(1), created.ID)
	s.Equal(models.StatusCreated, created.Status)
	s.Equal("jyoti", created.CreatedBy)

	rr = s.do(testutil.NewJSONRequest(s.T(), http.MethodGet, "/api/paperwork/1", nil), s.token)
	s.Require().Equal(http.StatusOK, rr.Code)

	rr = s.do(testutil.NewJSONRequest(s.T(), http.MethodGet, "/api/paperwork/9999", nil), s.token)
	s.Equal(http.StatusNotFound, rr.Code)

	rr = s.do(testutil.NewJSONRequest(s.T(), http.MethodGet, "/api/paperwork/abc", nil), s.token)
	s.Equal(http.StatusBadRequest, rr.Code)
}

func (s *HandlerSuite) TestUpdateStatusJSON() {
	p := s.seed(models.StatusCreated)

	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/api/paperwork/status", map[string]any{
		"id":     p.ID,
		"status": "started",
		"reason": "2025-07-01",
	})
	rr := s.do(req, s.token)
	s.Require().Equal(http.StatusOK, rr.Code)

	var resp models.UpdateStatusResponse
	testutil.DecodeJSON(s.T(), rr, &resp)
	s.Equal("success", resp.Status)
	s.True(resp.Success)
	s.Equal("Status updated to Started", resp.Message)

	stored, err := s.records.FindByID(s.T().Context(), p.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusStarted, stored.Status)
	s.Equal("Start Date: 2025-07-01", stored.Reason)
}

func (s *HandlerSuite) TestUpdateStatusForm() {
	p := s.seed(models.StatusCreated)

	req := testutil.NewFormRequest(s.T(), http.MethodPost, "/api/paperwork/status", url.Values{
		"id":     {"1"},
		"status": {"client_hold"},
		"reason": {"awaiting offer letter"},
	})
	rr := s.do(req, s.token)
	s.Require().Equal(http.StatusOK, rr.Code)

	var resp models.UpdateStatusResponse
	testutil.DecodeJSON(s.T(), rr, &resp)
	s.True(resp.Success)

	stored, err := s.records.FindByID(s.T().Context(), p.ID)
	s.Require().NoError(err)
	s.Equal(models.StatusClientHold, stored.Status)
}

func (s *HandlerSuite) TestUpdateStatusErrorEnvelope() {
	tests := []struct {
		name     string
		body     map[string]any
		wantCode int
	}{
		{"unknown token", map[string]any{"id": 1, "status": "bogus"}, http.StatusBadRequest},
		{"missing id", map[string]any{"status": "started"}, http.StatusBadRequest},
		{"not found", map[string]any{"id": 9999, "status": "backout"}, http.StatusNotFound},
	}
	s.seed(models.StatusCreated)
	for _, tt := range tests {
		s.Run(tt.name, func() {
			req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/api/paperwork/status", tt.body)
			rr := s.do(req, s.token)
			s.Require().Equal(tt.wantCode, rr.Code)

			var resp models.UpdateStatusResponse
			testutil.DecodeJSON(s.T(), rr, &resp)
			s.Equal("error", resp.Status)
			s.False(resp.Success)
			s.NotEmpty(resp.Message)
		})
	}
}

func (s *HandlerSuite) TestListWithStatusFilter() {
	s.seed(models.StatusCreated)
	s.seed(models.StatusStarted)

	rr := s.do(testutil.NewJSONRequest(s.T(), http.MethodGet, "/api/paperwork?status=started", nil), s.token)
	s.Require().Equal(http.StatusOK, rr.Code)

	var resp struct {
		Records []models.Paperwork `json:"records"`
		Count   int                `json:"count"`
	}
	testutil.DecodeJSON(s.T(), rr, &resp)
	s.Equal(1, resp.Count)
	s.Require().Len(resp.Records, 1)
	s.Equal(models.StatusStarted, resp.Records[0].Status)
}

func (s *HandlerSuite) TestHistory() {
	p := s.seed(models.StatusCreated)
	req := testutil.NewJSONRequest(s.T(), http.MethodPost, "/api/paperwork/status", map[string]any{
		"id": p.ID, "status": "started",
	})
	s.Require().Equal(http.StatusOK, s.do(req, s.token).Code)

	rr := s.do(testutil.NewJSONRequest(s.T(), http.MethodGet, "/api/paperwork/1/history", nil), s.token)
	s.Require().Equal(http.StatusOK, rr.Code)

	var resp struct {
		PaperworkID int64                     `json:"paperwork_id"`
		History     []models.StatusChangeView `json:"history"`
	}
	testutil.DecodeJSON(s.T(), rr, &resp)
	s.Require().Len(resp.History, 1)
	s.Equal("Started", resp.History[0].NewStatusLabel)
	s.Equal("Paperwork Created", resp.History[0].PreviousStatusLabel)
}

func (s *HandlerSuite) TestStatuses() {
	rr := s.do(testutil.NewJSONRequest(s.T(), http.MethodGet, "/api/paperwork/statuses", nil), s.token)
	s.Require().Equal(http.StatusOK, rr.Code)

	var resp struct {
		Statuses []struct {
			Value string `json:"value"`
			Label string `json:"label"`
		} `json:"statuses"`
	}
	testutil.DecodeJSON(s.T(), rr, &resp)
	s.Require().Len(resp.Statuses, 7)
	s.Equal("paperwork_created", resp.Statuses[0].Value)
	s.Equal("Paperwork Created", resp.Statuses[0].Label)
}

func (s *HandlerSuite) TestDeleteBatchRequiresAdmin() {
	a := s.seed(models.StatusCreated)
	b := s.seed(models.StatusClientDropped)

	req := testutil.NewJSONRequest(s.T(), http.MethodDelete, "/api/paperwork", models.DeleteBatchRequest{
		IDs: []int64{a.ID, b.ID},
	})
	rr := s.do(req, s.token)
	s.Require().Equal(http.StatusForbidden, rr.Code)

	admin := testutil.SignToken(s.T(), "root", "admin")
	req = testutil.NewJSONRequest(s.T(), http.MethodDelete, "/api/paperwork", models.DeleteBatchRequest{
		IDs: []int64{a.ID, b.ID},
	})
	rr = s.do(req, admin)
	s.Require().Equal(http.StatusOK, rr.Code)

	var resp struct {
		Deleted int64 `json:"deleted"`
	}
	testutil.DecodeJSON(s.T(), rr, &resp)
	s.Equal(int64(2), resp.Deleted)
}

func (s *HandlerSuite) TestExportCSV() {
	s.seed(models.StatusStarted)

	rr := s.do(testutil.NewJSONRequest(s.T(), http.MethodGet, "/api/paperwork/export", nil), s.token)
	s.Require().Equal(http.StatusOK, rr.Code)
	s.Equal("text/csv", rr.Header().Get("Content-Type"))
	s.Contains(rr.Body.String(), "Asha Rao")
	s.Contains(rr.Body.String(), "Started")
}

func (s *HandlerSuite) TestRejectsMissingAndExpiredTokens() {
	rr := s.do(testutil.NewJSONRequest(s.T(), http.MethodGet, "/api/paperwork", nil), "")
	s.Equal(http.StatusUnauthorized, rr.Code)

	expired := testutil.SignTokenExpiring(s.T(), "jyoti", "staff", -time.Minute)
	rr = s.do(testutil.NewJSONRequest(s.T(), http.MethodGet, "/api/paperwork", nil), expired)
	s.Equal(http.StatusUnauthorized, rr.Code)
}
