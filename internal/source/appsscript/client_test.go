package appsscript

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"iuran/internal/core"
	"iuran/internal/source"
)

var kas = core.Category{Key: "kas", Label: "Kas Kelas", Sheet: "Kas", MonthlyTarget: 15000}

func TestFetchRowsBareArray(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("action"); got != "list" {
			t.Errorf("action = %q", got)
		}
		if got := r.URL.Query().Get("sheet"); got != "Kas" {
			t.Errorf("sheet = %q", got)
		}
		w.Write([]byte(`[{"Nama":"A","Oktober":"Rp15.000,00"}]`))
	}))
	defer srv.Close()

	rows, err := New(srv.URL, "").FetchRows(context.Background(), kas)
	if err != nil {
		t.Fatalf("FetchRows: %v", err)
	}
	if len(rows) != 1 || rows[0]["Nama"] != "A" {
		t.Fatalf("rows = %+v", rows)
	}
}

func TestFetchRowsDataEnvelope(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[{"name":"B","amount":5000}]}`))
	}))
	defer srv.Close()

	rows, err := New(srv.URL, "").FetchRows(context.Background(), kas)
	if err != nil {
		t.Fatalf("FetchRows: %v", err)
	}
	if len(rows) != 1 || rows[0]["name"] != "B" {
		t.Fatalf("rows = %+v", rows)
	}
}

func TestFetchRowsMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	if _, err := New(srv.URL, "").FetchRows(context.Background(), kas); err == nil {
		t.Fatal("expected error for non-array payload")
	}
}

func TestFetchRowsNonSuccessStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "boom", http.StatusBadGateway)
	}))
	defer srv.Close()

	if _, err := New(srv.URL, "").FetchRows(context.Background(), kas); err == nil {
		t.Fatal("expected error for 502")
	}
}

func TestFetchRowsForwardsAPIKey(t *testing.T) {
	var gotKey string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.URL.Query().Get("apiKey")
		w.Write([]byte(`[]`))
	}))
	defer srv.Close()

	if _, err := New(srv.URL, "sekret").FetchRows(context.Background(), kas); err != nil {
		t.Fatalf("FetchRows: %v", err)
	}
	if gotKey != "sekret" {
		t.Fatalf("apiKey = %q", gotKey)
	}
}

func TestFetchRowsUnconfigured(t *testing.T) {
	if _, err := New("", "").FetchRows(context.Background(), kas); err != ErrNotConfigured {
		t.Fatalf("err = %v, want ErrNotConfigured", err)
	}
}

func TestSubmitEntry(t *testing.T) {
	var form map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s", r.Method)
		}
		if got := r.URL.Query().Get("action"); got != "updateMonth" {
			t.Errorf("action = %q", got)
		}
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parse form: %v", err)
		}
		form = map[string]string{}
		for k := range r.PostForm {
			form[k] = r.PostForm.Get(k)
		}
		w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	entry := source.Entry{
		Name:     "Fajar Sodik Afendi",
		PersonID: "257007111063",
		Month:    "Oktober",
		Amount:   15000,
		Note:     "transfer",
	}
	if err := New(srv.URL, "").SubmitEntry(context.Background(), entry, kas); err != nil {
		t.Fatalf("SubmitEntry: %v", err)
	}

	want := map[string]string{
		"name":        "Fajar Sodik Afendi",
		"npm":         "257007111063",
		"month":       "Oktober",
		"amount":      "15000",
		"mode":        "add",
		"note":        "transfer",
		"categoryKey": "kas",
		"sheet":       "Kas",
	}
	for k, v := range want {
		if form[k] != v {
			t.Fatalf("form[%s] = %q, want %q", k, form[k], v)
		}
	}
	if form["updatedAt"] == "" {
		t.Fatal("updatedAt not set")
	}
}

func TestSubmitEntryReportsServerMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "sheet Kas is locked", http.StatusConflict)
	}))
	defer srv.Close()

	err := New(srv.URL, "").SubmitEntry(context.Background(), source.Entry{Name: "A", Amount: 100}, kas)
	if err == nil || !strings.Contains(err.Error(), "sheet Kas is locked") {
		t.Fatalf("err = %v, want server message", err)
	}
}

func TestSubmitEntryValidates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Error("request should not reach the server")
	}))
	defer srv.Close()

	cases := []source.Entry{
		{Name: "", Amount: 100},
		{Name: "A", Amount: -1},
		{Name: "A", Amount: 100, Month: "Octember"},
	}
	for i, entry := range cases {
		if err := New(srv.URL, "").SubmitEntry(context.Background(), entry, kas); err == nil {
			t.Fatalf("case %d: expected validation error", i)
		}
	}
}
