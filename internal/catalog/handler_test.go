package catalog_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"go.uber.org/zap"

	"github.com/switchdeck/switchdeck/internal/catalog"
	"github.com/switchdeck/switchdeck/internal/services"
	"github.com/switchdeck/switchdeck/internal/testutil"
	pkgcatalog "github.com/switchdeck/switchdeck/pkg/catalog"
)

func newTestHandler(t *testing.T, seed []pkgcatalog.SwitchRecord) (*http.ServeMux, services.CatalogRepository) {
	t.Helper()

	st := testutil.NewStore(t)
	repo, err := services.NewSQLiteCatalogRepository(context.Background(), st)
	if err != nil {
		t.Fatalf("failed to create repository: %v", err)
	}
	if len(seed) > 0 {
		if _, err := repo.Replace(context.Background(), seed, services.SourceBuiltin); err != nil {
			t.Fatalf("failed to seed catalogue: %v", err)
		}
	}

	h := catalog.NewHandler(repo, pkgcatalog.NewDefaults(), zap.NewNop())
	mux := http.NewServeMux()
	h.RegisterRoutes(mux)
	return mux, repo
}

func testSeed() []pkgcatalog.SwitchRecord {
	return []pkgcatalog.SwitchRecord{
		testutil.NewSwitch(
			testutil.WithVendor("Cisco"),
			testutil.WithModel("Catalyst 9300-48P"),
			testutil.WithPorts(48),
			testutil.WithPoE(true),
			testutil.WithLayer(pkgcatalog.LayerL3),
			testutil.WithStackable(true),
			testutil.WithNotes("campus access with stacking"),
		),
		testutil.NewSwitch(
			testutil.WithVendor("Juniper"),
			testutil.WithModel("EX2300-24T"),
			testutil.WithPorts(24),
			testutil.WithLayer(pkgcatalog.LayerL2),
			testutil.WithNotes("branch access"),
		),
		testutil.NewSwitch(
			testutil.WithVendor("Netgear"),
			testutil.WithModel("GS108"),
			testutil.WithPorts(8),
			testutil.WithLayer(pkgcatalog.LayerL2),
			testutil.WithManaged(false),
		),
	}
}

func TestHandleEntries_NoFilter(t *testing.T) {
	mux, _ := newTestHandler(t, testSeed())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/catalog/entries", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}

	var resp catalog.EntriesResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Count != 3 || len(resp.Entries) != 3 {
		t.Errorf("expected 3 entries, got count=%d len=%d", resp.Count, len(resp.Entries))
	}
	if resp.Entries[0].Model != "Catalyst 9300-48P" {
		t.Errorf("catalogue order not preserved: %s", resp.Entries[0].Model)
	}
}

func TestHandleEntries_Filters(t *testing.T) {
	mux, _ := newTestHandler(t, testSeed())

	tests := []struct {
		name  string
		query string
		want  []string
	}{
		{"vendor exact", "vendor=cisco", []string{"Catalyst 9300-48P"}},
		{"vendor not substring", "vendor=Cis", nil},
		{"poe yes", "poe=yes", []string{"Catalyst 9300-48P"}},
		{"poe no", "poe=no", []string{"EX2300-24T", "GS108"}},
		{"min ports", "min_ports=24", []string{"Catalyst 9300-48P", "EX2300-24T"}},
		{"layer exact", "layer=L2", []string{"EX2300-24T", "GS108"}},
		{"managed no", "managed=no", []string{"GS108"}},
		{"keyword", "keyword=branch", []string{"EX2300-24T"}},
		{"combined", "vendor=Cisco&poe=yes&min_ports=48", []string{"Catalyst 9300-48P"}},
		{"limit", "min_ports=1&limit=2", []string{"Catalyst 9300-48P", "EX2300-24T"}},
		{"empty result is not an error", "vendor=Arista", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/catalog/entries?"+tt.query, nil)
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			if rec.Code != http.StatusOK {
				t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
			}
			var resp catalog.EntriesResponse
			if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if len(resp.Entries) != len(tt.want) {
				t.Fatalf("got %d entries, want %d", len(resp.Entries), len(tt.want))
			}
			for i, model := range tt.want {
				if resp.Entries[i].Model != model {
					t.Errorf("entry %d: got %q, want %q", i, resp.Entries[i].Model, model)
				}
			}
		})
	}
}

func TestHandleEntries_BadParams(t *testing.T) {
	mux, _ := newTestHandler(t, testSeed())

	for _, query := range []string{
		"min_ports=abc",
		"min_ports=-1",
		"poe=maybe",
		"layer=L9",
		"limit=-5",
	} {
		t.Run(query, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/v1/catalog/entries?"+query, nil)
			rec := httptest.NewRecorder()
			mux.ServeHTTP(rec, req)

			if rec.Code != http.StatusBadRequest {
				t.Errorf("expected 400, got %d: %s", rec.Code, rec.Body.String())
			}
			if ct := rec.Header().Get("Content-Type"); ct != "application/problem+json" {
				t.Errorf("expected problem+json, got %q", ct)
			}
		})
	}
}

func TestHandleVendors(t *testing.T) {
	mux, _ := newTestHandler(t, testSeed())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/catalog/vendors", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var vendors []string
	if err := json.NewDecoder(rec.Body).Decode(&vendors); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	want := []string{"Cisco", "Juniper", "Netgear"}
	if len(vendors) != len(want) {
		t.Fatalf("got %v, want %v", vendors, want)
	}
	for i := range want {
		if vendors[i] != want[i] {
			t.Errorf("vendor %d: got %q, want %q", i, vendors[i], want[i])
		}
	}
}

func TestHandleTable(t *testing.T) {
	mux, _ := newTestHandler(t, testSeed())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/catalog/table?vendor=Cisco", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); !strings.HasPrefix(ct, "text/plain") {
		t.Errorf("expected text/plain, got %q", ct)
	}
	body := rec.Body.String()
	if !strings.Contains(body, "Catalyst 9300-48P") {
		t.Errorf("table missing matched model:\n%s", body)
	}
	if strings.Contains(body, "GS108") {
		t.Errorf("table contains filtered-out model:\n%s", body)
	}
}

func TestHandleTable_NoMatches(t *testing.T) {
	mux, _ := newTestHandler(t, testSeed())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/catalog/table?vendor=Arista", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("empty result should still be 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "No switches matched your criteria.") {
		t.Errorf("missing empty-result message:\n%s", rec.Body.String())
	}
}

func TestHandleRecommendations(t *testing.T) {
	mux, _ := newTestHandler(t, testSeed())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/catalog/recommendations?q=poe+stacking+campus", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var resp catalog.RecommendationResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Count == 0 {
		t.Fatal("expected at least one recommendation")
	}
	if resp.Matches[0].Entry.Model != "Catalyst 9300-48P" {
		t.Errorf("expected the PoE stackable model first, got %s", resp.Matches[0].Entry.Model)
	}
	if resp.Matches[0].Score < 2 {
		t.Errorf("expected multi-keyword score, got %d", resp.Matches[0].Score)
	}
}

func TestHandleRecommendations_EmptyQuery(t *testing.T) {
	mux, _ := newTestHandler(t, testSeed())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/catalog/recommendations", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var resp catalog.RecommendationResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if resp.Count != 0 || len(resp.Matches) != 0 {
		t.Errorf("empty query should yield no matches, got %d", resp.Count)
	}
}

func TestHandleRecommendations_BadTopN(t *testing.T) {
	mux, _ := newTestHandler(t, testSeed())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/catalog/recommendations?q=poe&top_n=0", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for top_n=0, got %d", rec.Code)
	}
}

func TestHandleUpload_ReplacesCatalogue(t *testing.T) {
	mux, repo := newTestHandler(t, testSeed())

	upload := `[
		{
			"vendor": "Aruba",
			"model": "CX 6300M",
			"port_count": 48,
			"poe_supported": true,
			"layer": "L3",
			"stackable": true
		}
	]`

	req := httptest.NewRequest(http.MethodPost, "/api/v1/catalog/upload", bytes.NewBufferString(upload))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var status services.CatalogStatus
	if err := json.NewDecoder(rec.Body).Decode(&status); err != nil {
		t.Fatalf("failed to decode status: %v", err)
	}
	if status.Source != services.SourceUpload || status.Count != 1 {
		t.Errorf("unexpected status: %+v", status)
	}

	records, err := repo.Active(context.Background())
	if err != nil {
		t.Fatalf("failed to load catalogue: %v", err)
	}
	if len(records) != 1 || records[0].Model != "CX 6300M" {
		t.Errorf("catalogue not replaced: %+v", records)
	}
	if !records[0].Managed {
		t.Error("managed should default to true when absent from upload")
	}
}

func TestHandleUpload_InvalidKeepsActiveCatalogue(t *testing.T) {
	mux, repo := newTestHandler(t, testSeed())

	// port_count missing on the second record.
	upload := `[
		{"vendor": "Aruba", "model": "CX 6300M", "port_count": 48, "poe_supported": true, "layer": "L3", "stackable": true},
		{"vendor": "Aruba", "model": "CX 6200F", "poe_supported": false, "layer": "L2", "stackable": false}
	]`

	req := httptest.NewRequest(http.MethodPost, "/api/v1/catalog/upload", bytes.NewBufferString(upload))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d: %s", rec.Code, rec.Body.String())
	}

	var problem map[string]any
	if err := json.NewDecoder(rec.Body).Decode(&problem); err != nil {
		t.Fatalf("failed to decode problem: %v", err)
	}
	detail, _ := problem["detail"].(string)
	if !strings.Contains(detail, "port_count") || !strings.Contains(detail, "1") {
		t.Errorf("problem detail should name the field and record index: %q", detail)
	}

	records, err := repo.Active(context.Background())
	if err != nil {
		t.Fatalf("failed to load catalogue: %v", err)
	}
	if len(records) != 3 {
		t.Errorf("rejected upload must leave the previous catalogue active, got %d records", len(records))
	}
}

func TestHandleUpload_MalformedJSON(t *testing.T) {
	mux, _ := newTestHandler(t, testSeed())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/catalog/upload", bytes.NewBufferString("{not json"))
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("expected 400 for malformed JSON, got %d", rec.Code)
	}
}

func TestHandleReset(t *testing.T) {
	mux, repo := newTestHandler(t, testSeed())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/catalog/reset", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var status services.CatalogStatus
	if err := json.NewDecoder(rec.Body).Decode(&status); err != nil {
		t.Fatalf("failed to decode status: %v", err)
	}
	if status.Source != services.SourceBuiltin {
		t.Errorf("expected builtin source after reset, got %q", status.Source)
	}

	records, err := repo.Active(context.Background())
	if err != nil {
		t.Fatalf("failed to load catalogue: %v", err)
	}
	if len(records) != 16 {
		t.Errorf("expected the 16 built-in entries after reset, got %d", len(records))
	}
}

func TestHandleStatus(t *testing.T) {
	mux, _ := newTestHandler(t, testSeed())

	req := httptest.NewRequest(http.MethodGet, "/api/v1/catalog/status", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var status services.CatalogStatus
	if err := json.NewDecoder(rec.Body).Decode(&status); err != nil {
		t.Fatalf("failed to decode status: %v", err)
	}
	if status.Count != 3 || status.Revision == "" {
		t.Errorf("unexpected status: %+v", status)
	}
}

func TestHandleStatus_NoCatalogue(t *testing.T) {
	mux, _ := newTestHandler(t, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/catalog/status", nil)
	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, req)

	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 when nothing loaded, got %d", rec.Code)
	}
}
