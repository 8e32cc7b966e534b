package v1_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gimlabs/gim"
	v1 "github.com/gimlabs/gim/infrastructure/api/v1"
	"github.com/gimlabs/gim/infrastructure/api/v1/dto"
)

func postSearch(t *testing.T, client *gim.Client, body dto.SearchRequest) *httptest.ResponseRecorder {
	t.Helper()
	payload, err := json.Marshal(body)
	if err != nil {
		t.Fatalf("marshal search request: %v", err)
	}
	routes := v1.NewSearchRouter(client).Routes()
	req := httptest.NewRequest(http.MethodPost, "/", bytes.NewReader(payload))
	w := httptest.NewRecorder()
	routes.ServeHTTP(w, req)
	return w
}

func TestSearchRouter_Search(t *testing.T) {
	client := newSeededClient(t)

	w := postSearch(t, client, dto.SearchRequest{Query: "memory leak in websocket server"})
	if w.Code != http.StatusOK {
		t.Fatalf("status code = %v, want %v: %s", w.Code, http.StatusOK, w.Body.String())
	}

	response := decodeBody[dto.SearchResponse](t, w)
	if response.SearchID == "" {
		t.Error("search_id is empty")
	}
	if len(response.Items) == 0 {
		t.Fatal("no results for a seeded query")
	}
	if response.Items[0].NodeID != "I_ws" {
		t.Errorf("first result = %v, want I_ws", response.Items[0].NodeID)
	}
	if response.Items[0].RRFScore <= 0 {
		t.Errorf("rrf_score = %v, want > 0", response.Items[0].RRFScore)
	}
	if response.Page != 1 || response.PageSize != 20 {
		t.Errorf("paging = %v/%v, want 1/20", response.Page, response.PageSize)
	}
	if response.HasMore {
		t.Error("three seeded issues fit one page")
	}
}

func TestSearchRouter_Search_EmptyQuery(t *testing.T) {
	client := newTestClient(t)

	w := postSearch(t, client, dto.SearchRequest{Query: "   "})
	if w.Code != http.StatusUnprocessableEntity {
		t.Errorf("status code = %v, want %v", w.Code, http.StatusUnprocessableEntity)
	}
}

func TestSearchRouter_Search_MalformedBody(t *testing.T) {
	client := newTestClient(t)
	routes := v1.NewSearchRouter(client).Routes()

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader("{nope"))
	w := httptest.NewRecorder()
	routes.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("status code = %v, want %v", w.Code, http.StatusBadRequest)
	}
}

func TestSearchRouter_Search_LanguageFilter(t *testing.T) {
	client := newSeededClient(t)

	w := postSearch(t, client, dto.SearchRequest{
		Query:   "dataframe groupby timezone",
		Filters: &dto.SearchFilters{Languages: []string{"python"}},
	})
	if w.Code != http.StatusOK {
		t.Fatalf("status code = %v, want %v", w.Code, http.StatusOK)
	}

	response := decodeBody[dto.SearchResponse](t, w)
	if len(response.Items) == 0 {
		t.Fatal("no results for the filtered query")
	}
	for _, item := range response.Items {
		if item.PrimaryLanguage != "Python" {
			t.Errorf("result %v has language %v, want Python", item.NodeID, item.PrimaryLanguage)
		}
	}
}

func TestSearchRouter_Interact(t *testing.T) {
	client := newSeededClient(t)
	routes := v1.NewSearchRouter(client).Routes()

	w := postSearch(t, client, dto.SearchRequest{Query: "memory leak in websocket server"})
	searchResp := decodeBody[dto.SearchResponse](t, w)
	if len(searchResp.Items) == 0 {
		t.Fatal("no results to interact with")
	}

	interact := func(body dto.InteractRequest) *httptest.ResponseRecorder {
		payload, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal interact request: %v", err)
		}
		req := httptest.NewRequest(http.MethodPost, "/interact", bytes.NewReader(payload))
		rec := httptest.NewRecorder()
		routes.ServeHTTP(rec, req)
		return rec
	}

	rec := interact(dto.InteractRequest{
		SearchID: searchResp.SearchID,
		NodeID:   searchResp.Items[0].NodeID,
		Position: 0,
	})
	if rec.Code != http.StatusNoContent {
		t.Errorf("status code = %v, want %v: %s", rec.Code, http.StatusNoContent, rec.Body.String())
	}

	rec = interact(dto.InteractRequest{
		SearchID: "sr_unknown",
		NodeID:   searchResp.Items[0].NodeID,
		Position: 0,
	})
	if rec.Code != http.StatusNotFound {
		t.Errorf("unknown context: status code = %v, want %v", rec.Code, http.StatusNotFound)
	}

	rec = interact(dto.InteractRequest{
		SearchID: searchResp.SearchID,
		NodeID:   searchResp.Items[0].NodeID,
		Position: searchResp.Total + 50,
	})
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("out-of-range position: status code = %v, want %v", rec.Code, http.StatusUnprocessableEntity)
	}
}
