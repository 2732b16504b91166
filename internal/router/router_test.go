package router_test

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	mem "med-reminder/internal/adapters/storage/memory"
	"med-reminder/internal/domain/adherence"
	"med-reminder/internal/router"
)

type medicationJSON struct {
	ID           string   `json:"id"`
	Name         string   `json:"name"`
	DoseTimes    []string `json:"doseTimes"`
	CurrentTabs  int      `json:"currentTabs"`
	TotalTabs    int      `json:"totalTabs"`
	TakenHistory []struct {
		Status    string    `json:"status"`
		Timestamp time.Time `json:"timestamp"`
	} `json:"takenHistory"`
}

type messageJSON struct {
	Message    string          `json:"message"`
	Medication *medicationJSON `json:"medication"`
}

func newServer(t *testing.T, now time.Time) *httptest.Server {
	t.Helper()

	store := mem.NewMedicationRepo()
	sw := adherence.NewSweeper(store, nil, adherence.Options{
		Location: time.UTC,
		Now:      func() time.Time { return now },
	})

	ts := httptest.NewServer(router.NewRouter(router.Options{
		Store:   store,
		Sweeper: sw,
	}))
	t.Cleanup(ts.Close)
	return ts
}

func TestHTTP_EndToEnd_MedicationLifecycle(t *testing.T) {
	now := time.Date(2026, 3, 10, 8, 45, 0, 0, time.UTC)
	ts := newServer(t, now)
	userID := "user-1"

	// 1) Alta
	var created messageJSON
	{
		st, body := doReq(t, ts.URL, "POST", "/api/medications/add", "", map[string]any{
			"userId":          userID,
			"name":            "Aspirin",
			"dose":            "1 tablet",
			"doseTimes":       []string{"08:00", "20:00"},
			"mealRelation":    "After Meal",
			"startDate":       "2026-03-01T00:00:00Z",
			"endDate":         "2026-04-01T00:00:00Z",
			"totalTabs":       6,
			"refillThreshold": 5,
		})
		if st != http.StatusCreated {
			t.Fatalf("expected 201 creating medication, got %d body=%s", st, string(body))
		}
		mustUnmarshal(t, body, &created)
		if created.Medication == nil || created.Medication.ID == "" {
			t.Fatalf("expected medication in response, got %s", string(body))
		}
		if created.Medication.CurrentTabs != 6 {
			t.Fatalf("expected currentTabs to default to totalTabs, got %d", created.Medication.CurrentTabs)
		}
	}
	medID := created.Medication.ID

	// 2) Listado por usuario
	{
		st, body := doReq(t, ts.URL, "GET", "/api/medications?userId="+userID, "", nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 listing, got %d body=%s", st, string(body))
		}
		var items []medicationJSON
		mustUnmarshal(t, body, &items)
		if len(items) != 1 || items[0].ID != medID {
			t.Fatalf("expected the created medication, got %s", string(body))
		}
	}

	// 3) Todavía no está en stock bajo
	if n := countLowStock(t, ts.URL, userID); n != 0 {
		t.Fatalf("expected no low-stock medications, got %d", n)
	}

	// 4) Toma de ayer: descuenta 1
	{
		st, body := doReq(t, ts.URL, "POST", "/api/medications/"+medID+"/logDose", "", map[string]any{
			"status":    "taken",
			"timestamp": "2026-03-09T08:05:00Z",
		})
		if st != http.StatusOK {
			t.Fatalf("expected 200 logging dose, got %d body=%s", st, string(body))
		}
		var resp messageJSON
		mustUnmarshal(t, body, &resp)
		if resp.Medication.CurrentTabs != 5 {
			t.Fatalf("expected currentTabs=5 after taken dose, got %d", resp.Medication.CurrentTabs)
		}
	}

	if n := countLowStock(t, ts.URL, userID); n != 1 {
		t.Fatalf("expected 1 low-stock medication, got %d", n)
	}

	// 5) Sweep: 08:00 de hoy quedó sin confirmar
	{
		st, body := doReq(t, ts.URL, "POST", "/api/check-missed", "", nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 on check-missed, got %d body=%s", st, string(body))
		}
		var report adherence.CycleReport
		mustUnmarshal(t, body, &report)
		if report.Marked != 1 {
			t.Fatalf("expected 1 missed dose marked, got %+v", report)
		}
	}

	// 6) Segundo sweep (GET legacy): idempotente
	{
		st, body := doReq(t, ts.URL, "GET", "/api/check-missed", "", nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 on check-missed, got %d body=%s", st, string(body))
		}
		var report adherence.CycleReport
		mustUnmarshal(t, body, &report)
		if report.Marked != 0 || report.Duplicates != 1 {
			t.Fatalf("expected no new marks on second sweep, got %+v", report)
		}
	}

	// 7) Historial: el missed es el más reciente, con el horario programado
	{
		st, body := doReq(t, ts.URL, "GET", "/api/medications/dose-history?userId="+userID, "", nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 listing history, got %d body=%s", st, string(body))
		}
		var entries []struct {
			MedicationID string    `json:"medicationId"`
			Status       string    `json:"status"`
			Timestamp    time.Time `json:"timestamp"`
		}
		mustUnmarshal(t, body, &entries)
		if len(entries) != 2 {
			t.Fatalf("expected 2 history entries, got %s", string(body))
		}
		want := time.Date(2026, 3, 10, 8, 0, 0, 0, time.UTC)
		if entries[0].Status != "missed" || !entries[0].Timestamp.Equal(want) {
			t.Fatalf("expected missed at %s first, got %+v", want, entries[0])
		}
	}

	// 8) Reposición
	{
		st, body := doReq(t, ts.URL, "POST", "/api/medications/"+medID+"/refill", "", map[string]any{
			"quantityToAdd": 10,
		})
		if st != http.StatusOK {
			t.Fatalf("expected 200 refilling, got %d body=%s", st, string(body))
		}
		var resp messageJSON
		mustUnmarshal(t, body, &resp)
		if resp.Medication.CurrentTabs != 15 || resp.Medication.TotalTabs != 16 {
			t.Fatalf("unexpected stock after refill: %+v", resp.Medication)
		}
	}

	// 9) Vaciar historial
	{
		st, body := doReq(t, ts.URL, "DELETE", "/api/medications/dose-history/clear", "", map[string]any{
			"userId": userID,
		})
		if st != http.StatusOK {
			t.Fatalf("expected 200 clearing history, got %d body=%s", st, string(body))
		}
		var resp struct {
			Modified int `json:"modified"`
		}
		mustUnmarshal(t, body, &resp)
		if resp.Modified != 1 {
			t.Fatalf("expected 1 medication modified, got %d", resp.Modified)
		}
	}

	// 10) Borrar
	{
		st, body := doReq(t, ts.URL, "DELETE", "/api/medications/"+medID, "", nil)
		if st != http.StatusOK {
			t.Fatalf("expected 200 deleting, got %d body=%s", st, string(body))
		}
		st, _ = doReq(t, ts.URL, "DELETE", "/api/medications/"+medID, "", nil)
		if st != http.StatusNotFound {
			t.Fatalf("expected 404 deleting twice, got %d", st)
		}
	}
}

func TestHTTP_UserIDFromHeader(t *testing.T) {
	ts := newServer(t, time.Now())

	st, body := doReq(t, ts.URL, "POST", "/api/medications/add", "user-h", map[string]any{
		"name":      "Vitamin D",
		"dose":      "1",
		"time":      "09:00",
		"startDate": "2026-01-01T00:00:00Z",
		"endDate":   "2026-12-31T00:00:00Z",
		"totalTabs": 30,
	})
	if st != http.StatusCreated {
		t.Fatalf("expected 201, got %d body=%s", st, string(body))
	}
	var created messageJSON
	mustUnmarshal(t, body, &created)
	if len(created.Medication.DoseTimes) != 1 || created.Medication.DoseTimes[0] != "09:00" {
		t.Fatalf("expected legacy time to become doseTimes, got %v", created.Medication.DoseTimes)
	}

	st, body = doReq(t, ts.URL, "GET", "/api/medications", "user-h", nil)
	if st != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", st, string(body))
	}
	var items []medicationJSON
	mustUnmarshal(t, body, &items)
	if len(items) != 1 {
		t.Fatalf("expected 1 medication for header user, got %d", len(items))
	}
}

func TestHTTP_BadRequests(t *testing.T) {
	ts := newServer(t, time.Now())

	cases := []struct {
		name   string
		method string
		path   string
		body   any
		want   int
	}{
		{"list without user", "GET", "/api/medications", nil, http.StatusBadRequest},
		{"create missing name", "POST", "/api/medications/add", map[string]any{
			"userId": "u", "dose": "1", "startDate": "2026-01-01T00:00:00Z", "endDate": "2026-02-01T00:00:00Z",
		}, http.StatusBadRequest},
		{"create end before start", "POST", "/api/medications/add", map[string]any{
			"userId": "u", "name": "x", "dose": "1", "startDate": "2026-02-01T00:00:00Z", "endDate": "2026-01-01T00:00:00Z",
		}, http.StatusBadRequest},
		{"create bad dose time", "POST", "/api/medications/add", map[string]any{
			"userId": "u", "name": "x", "dose": "1", "doseTimes": []string{"25:00"},
			"startDate": "2026-01-01T00:00:00Z", "endDate": "2026-02-01T00:00:00Z",
		}, http.StatusBadRequest},
		{"log dose unknown medication", "POST", "/api/medications/nope/logDose", map[string]any{
			"status": "taken", "timestamp": "2026-01-01T08:00:00Z",
		}, http.StatusNotFound},
		{"log dose bad status", "POST", "/api/medications/nope/logDose", map[string]any{
			"status": "skipped", "timestamp": "2026-01-01T08:00:00Z",
		}, http.StatusBadRequest},
		{"refill zero", "POST", "/api/medications/nope/refill", map[string]any{"quantityToAdd": 0}, http.StatusBadRequest},
		{"clear without user", "DELETE", "/api/medications/dose-history/clear", map[string]any{}, http.StatusBadRequest},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			st, body := doReq(t, ts.URL, tc.method, tc.path, "", tc.body)
			if st != tc.want {
				t.Fatalf("expected %d, got %d body=%s", tc.want, st, string(body))
			}
		})
	}
}

func TestHTTP_Health(t *testing.T) {
	ts := newServer(t, time.Now())

	st, body := doReq(t, ts.URL, "GET", "/health", "", nil)
	if st != http.StatusOK || string(body) != "ok" {
		t.Fatalf("expected 200 ok, got %d %q", st, string(body))
	}
}

func countLowStock(t *testing.T, baseURL, userID string) int {
	t.Helper()
	st, body := doReq(t, baseURL, "GET", "/api/medications/low-stock?userId="+userID, "", nil)
	if st != http.StatusOK {
		t.Fatalf("expected 200 on low-stock, got %d body=%s", st, string(body))
	}
	var items []medicationJSON
	mustUnmarshal(t, body, &items)
	return len(items)
}

func doReq(t *testing.T, baseURL, method, path, userID string, payload any) (int, []byte) {
	t.Helper()

	var body io.Reader
	if payload != nil {
		b, err := json.Marshal(payload)
		if err != nil {
			t.Fatalf("marshal: %v", err)
		}
		body = bytes.NewReader(b)
	}

	req, err := http.NewRequest(method, baseURL+path, body)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if userID != "" {
		req.Header.Set("X-User-ID", userID)
	}

	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("do request: %v", err)
	}
	defer res.Body.Close()

	b, _ := io.ReadAll(res.Body)
	return res.StatusCode, b
}

func mustUnmarshal(t *testing.T, b []byte, v any) {
	t.Helper()
	if err := json.Unmarshal(b, v); err != nil {
		t.Fatalf("unmarshal %s: %v", string(b), err)
	}
}
