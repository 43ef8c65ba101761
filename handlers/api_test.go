package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"collections_flow_go/config"
	"collections_flow_go/models"
	"collections_flow_go/services"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
)

type fixedSource struct {
	cases []models.CaseRecord
}

func (s *fixedSource) ListCases() ([]models.CaseRecord, error) {
	return s.cases, nil
}

func (s *fixedSource) GetCase(identifier string) (*models.CaseRecord, error) {
	for i := range s.cases {
		if s.cases[i].Matches(identifier) {
			return &s.cases[i], nil
		}
	}
	return nil, nil
}

func apiConfig() *config.Config {
	return &config.Config{
		Environment:      "test",
		ArchiveDir:       "_archive",
		BankruptcyDir:    "_bankruptcy",
		FolderNameMaxLen: 50,
		Subfolders:       []string{"demands", "correspondence", "filings", "settlements"},
		ApplyCorrections: true,
		Templates:        map[string]string{},
		OperatorEmail:    "jane.doe@example.com",
		SLA:              config.SLARules{L1Deadline: 2, L2Deadline: 10, L3Deadline: 10},
		Colors:           config.DefaultColors(),
	}
}

func apiRecord() models.CaseRecord {
	placed := time.Now().AddDate(0, 0, -1)
	return models.CaseRecord{
		RowIndex:           2,
		AccountNumber:      "ACC-1001",
		BusinessName:       "Acme Widgets LLC",
		OwnerName:          "Pat Smith",
		OutstandingBalance: 15250.75,
		DaysDelinquent:     45,
		BankruptcyFlag:     "N",
		PlacementDate:      &placed,
	}
}

func newTestAPI(t *testing.T) *echo.Echo {
	t.Helper()
	cfg := apiConfig()
	source := &fixedSource{cases: []models.CaseRecord{apiRecord()}}
	store := services.NewFolderStore(services.NewLocalStorage(t.TempDir()), cfg)
	engine := services.NewStatusEngine(store, cfg)
	gate := services.NewIntegrityGate(store, engine)
	users := &services.StaticUserResolver{Email: cfg.OperatorEmail}
	processor := services.NewActionProcessor(source, store, store, engine, gate, nil, users, nil, cfg)
	diagnostics := services.NewDiagnosticsService(source, services.NewLocalStorage(t.TempDir()), nil, cfg)

	e := echo.New()
	api := NewAPI(processor, source, store, engine, diagnostics, nil, cfg)
	api.Register(e)
	return e
}

func doRequest(e *echo.Echo, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func TestListCasesEndpoint(t *testing.T) {
	e := newTestAPI(t)

	t.Run("ReturnsCasesWithStatus", func(t *testing.T) {
		rec := doRequest(e, http.MethodGet, "/api/cases", "")
		assert.Equal(t, http.StatusOK, rec.Code)

		var body struct {
			Count int `json:"count"`
			Cases []struct {
				Record models.CaseRecord    `json:"record"`
				Status models.StatusDisplay `json:"status"`
			} `json:"cases"`
		}
		assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		if assert.Equal(t, 1, body.Count) {
			assert.Equal(t, "ACC-1001", body.Cases[0].Record.AccountNumber)
			assert.NotEmpty(t, body.Cases[0].Status.Text)
		}
	})

	t.Run("FiltersApply", func(t *testing.T) {
		rec := doRequest(e, http.MethodGet, "/api/cases?min_balance=20000", "")
		assert.Equal(t, http.StatusOK, rec.Code)

		var body struct {
			Count int `json:"count"`
		}
		assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, 0, body.Count)
	})

	t.Run("BadFilterRejected", func(t *testing.T) {
		rec := doRequest(e, http.MethodGet, "/api/cases?min_balance=lots", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestGetCaseEndpoint(t *testing.T) {
	e := newTestAPI(t)

	t.Run("Found", func(t *testing.T) {
		rec := doRequest(e, http.MethodGet, "/api/cases/ACC-1001", "")
		assert.Equal(t, http.StatusOK, rec.Code)

		var summary services.CaseSummary
		assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &summary))
		assert.Equal(t, "ACC-1001", summary.Record.AccountNumber)
		assert.NotEmpty(t, summary.AllowedActions)
	})

	t.Run("NotFound", func(t *testing.T) {
		rec := doRequest(e, http.MethodGet, "/api/cases/NO-SUCH", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestCaseHistoryEndpoint(t *testing.T) {
	e := newTestAPI(t)

	t.Run("EmptyBeforeFirstAction", func(t *testing.T) {
		rec := doRequest(e, http.MethodGet, "/api/cases/ACC-1001/history", "")
		assert.Equal(t, http.StatusOK, rec.Code)

		var body struct {
			Count int `json:"count"`
		}
		assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Equal(t, 0, body.Count)
	})

	t.Run("GrowsWithActions", func(t *testing.T) {
		rec := doRequest(e, http.MethodPost, "/api/cases/ACC-1001/actions", `{"code":"NOTE","narrative":"called debtor"}`)
		assert.Equal(t, http.StatusOK, rec.Code)

		rec = doRequest(e, http.MethodGet, "/api/cases/ACC-1001/history", "")
		assert.Equal(t, http.StatusOK, rec.Code)

		var body struct {
			Count   int                   `json:"count"`
			History []models.HistoryEntry `json:"history"`
		}
		assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		// Container initialization plus the note
		if assert.Equal(t, 2, body.Count) {
			assert.Equal(t, models.ActionNOTE, body.History[1].Code)
		}
	})

}

func TestProcessActionEndpoint(t *testing.T) {
	e := newTestAPI(t)

	t.Run("MalformedCode", func(t *testing.T) {
		rec := doRequest(e, http.MethodPost, "/api/cases/ACC-1001/actions", `{"code":"B@D"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("FreeformCodeRecorded", func(t *testing.T) {
		rec := doRequest(e, http.MethodPost, "/api/cases/ACC-1001/actions", `{"code":"TXT","narrative":"text message sent"}`)
		assert.Equal(t, http.StatusOK, rec.Code)

		var result services.ActionResult
		assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
		assert.True(t, result.Success)

		hist := doRequest(e, http.MethodGet, "/api/cases/ACC-1001/history", "")
		assert.Equal(t, http.StatusOK, hist.Code)
		var body struct {
			History []models.HistoryEntry `json:"history"`
		}
		assert.NoError(t, json.Unmarshal(hist.Body.Bytes(), &body))
		if assert.NotEmpty(t, body.History) {
			assert.Equal(t, "TXT", body.History[len(body.History)-1].Code)
		}
	})

	t.Run("MissingCode", func(t *testing.T) {
		rec := doRequest(e, http.MethodPost, "/api/cases/ACC-1001/actions", `{"narrative":"no code"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("CodeNormalized", func(t *testing.T) {
		rec := doRequest(e, http.MethodPost, "/api/cases/ACC-1001/actions", `{"code":" note ","narrative":"lowercase code"}`)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("ValidationFailureIs422", func(t *testing.T) {
		rec := doRequest(e, http.MethodPost, "/api/cases/ACC-1001/actions", `{"code":"MSG","narrative":"client replied"}`)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)

		var result services.ActionResult
		assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
		assert.False(t, result.Success)
		assert.Equal(t, "MSG requires an open MTC (Message to Client)", result.Error)
	})

	t.Run("UnknownCaseIs404", func(t *testing.T) {
		rec := doRequest(e, http.MethodPost, "/api/cases/NO-SUCH/actions", `{"code":"NOTE"}`)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestHealthzEndpoint(t *testing.T) {
	e := newTestAPI(t)

	rec := doRequest(e, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	var report services.HealthReport
	assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &report))
	assert.True(t, report.Healthy)
	assert.Len(t, report.Checks, 4)
}

func TestAuditEndpoints(t *testing.T) {
	e := newTestAPI(t)

	t.Run("RecentAuditsEmptyWithoutDB", func(t *testing.T) {
		rec := doRequest(e, http.MethodGet, "/api/audits", "")
		assert.Equal(t, http.StatusOK, rec.Code)

		var body struct {
			Count  int                  `json:"count"`
			Audits []models.ActionAudit `json:"audits"`
		}
		assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Zero(t, body.Count)
		assert.Empty(t, body.Audits)
	})

	t.Run("CaseAuditsEmptyWithoutDB", func(t *testing.T) {
		rec := doRequest(e, http.MethodGet, "/api/cases/ACC-1001/audits", "")
		assert.Equal(t, http.StatusOK, rec.Code)

		var body struct {
			Count int `json:"count"`
		}
		assert.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		assert.Zero(t, body.Count)
	})

	t.Run("RejectsBadLimit", func(t *testing.T) {
		rec := doRequest(e, http.MethodGet, "/api/audits?limit=abc", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
