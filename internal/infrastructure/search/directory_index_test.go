package search

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/oksasatya/vitrine-empreendedores/internal/domain/entity"
)

type recorded struct {
	method, path string
	body         map[string]any
}

// fakeES answers like an Elasticsearch node and records every request.
func fakeES(t *testing.T, handle func(w http.ResponseWriter, r *http.Request)) (*DirectoryIndex, *[]recorded) {
	t.Helper()
	var (
		mu   sync.Mutex
		reqs []recorded
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := recorded{method: r.Method, path: r.URL.Path}
		if b, _ := io.ReadAll(r.Body); len(b) > 0 {
			_ = json.Unmarshal(b, &rec.body)
		}
		mu.Lock()
		reqs = append(reqs, rec)
		mu.Unlock()
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		handle(w, r)
	}))
	t.Cleanup(srv.Close)

	es, err := NewClient([]string{srv.URL}, "", "")
	if err != nil {
		t.Fatalf("NewClient: %v", err)
	}
	return NewDirectoryIndex(es, "empreendedores"), &reqs
}

func TestDirectoryIndex_Put(t *testing.T) {
	idx, reqs := fakeES(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		_, _ = io.WriteString(w, `{"result":"created"}`)
	})
	e := &entity.Entrepreneur{
		ID: 7, Name: "Padaria Sol", ShortDescription: "Pão fresco",
		Categories: []entity.Category{{ID: 1, Name: "Alimentação"}},
	}
	if err := idx.Put(context.Background(), e); err != nil {
		t.Fatalf("Put: %v", err)
	}
	got := (*reqs)[len(*reqs)-1]
	if got.method != http.MethodPut || got.path != "/empreendedores/_doc/7" {
		t.Errorf("unexpected request %s %s", got.method, got.path)
	}
	if got.body["nome"] != "Padaria Sol" {
		t.Errorf("unexpected document %v", got.body)
	}
	if cats, _ := got.body["categorias"].([]any); len(cats) != 1 || cats[0] != "Alimentação" {
		t.Errorf("expected category names in document, got %v", got.body["categorias"])
	}
}

func TestDirectoryIndex_RemoveMissingIsNotAnError(t *testing.T) {
	idx, _ := fakeES(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_, _ = io.WriteString(w, `{"result":"not_found"}`)
	})
	if err := idx.Remove(context.Background(), 9); err != nil {
		t.Fatalf("Remove: %v", err)
	}
}

func TestDirectoryIndex_PutFailure(t *testing.T) {
	idx, _ := fakeES(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"error":"mapper_parsing_exception"}`)
	})
	if err := idx.Put(context.Background(), &entity.Entrepreneur{ID: 1}); err == nil {
		t.Fatal("expected error for a rejected document")
	}
}

func TestDirectoryIndex_Suggest(t *testing.T) {
	idx, reqs := fakeES(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"hits":{"hits":[
			{"_id":"7","_source":{"id":7,"nome":"Padaria Sol","descricao_curta":"Pão fresco"}},
			{"_id":"3","_source":{"id":3,"nome":"Pastelaria Lua","descricao_curta":"Pastéis"}}
		]}}`)
	})
	out, err := idx.Suggest(context.Background(), "pa", 5)
	if err != nil {
		t.Fatalf("Suggest: %v", err)
	}
	if len(out) != 2 || out[0].ID != 7 || out[1].Name != "Pastelaria Lua" {
		t.Errorf("unexpected suggestions %+v", out)
	}
	got := (*reqs)[len(*reqs)-1]
	if !strings.HasSuffix(got.path, "/empreendedores/_search") {
		t.Errorf("unexpected path %s", got.path)
	}
	if got.body["size"] != float64(5) {
		t.Errorf("expected size 5 in query, got %v", got.body["size"])
	}
}
