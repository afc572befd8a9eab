// Package search keeps an Elasticsearch index of the directory for suggestions.
package search

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strconv"
	"time"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"

	"github.com/oksasatya/vitrine-empreendedores/internal/domain/entity"
)

// NewClient creates an Elasticsearch client with optional basic auth.
func NewClient(addrs []string, username, password string) (*elasticsearch.Client, error) {
	return elasticsearch.NewClient(elasticsearch.Config{
		Addresses: addrs,
		Username:  username,
		Password:  password,
		Transport: &http.Transport{
			MaxIdleConnsPerHost:   10,
			ResponseHeaderTimeout: 5 * time.Second,
			TLSClientConfig:       &tls.Config{MinVersion: tls.VersionTLS12},
			DialContext:           (&net.Dialer{Timeout: 5 * time.Second}).DialContext,
		},
	})
}

type document struct {
	ID               int64    `json:"id"`
	Name             string   `json:"nome"`
	ShortDescription string   `json:"descricao_curta"`
	Categories       []string `json:"categorias"`
	UpdatedAt        string   `json:"updated_at"`
}

// DirectoryIndex maintains one document per entrepreneur.
type DirectoryIndex struct {
	ES      *elasticsearch.Client
	Index   string
	Timeout time.Duration
}

func NewDirectoryIndex(es *elasticsearch.Client, index string) *DirectoryIndex {
	return &DirectoryIndex{ES: es, Index: index, Timeout: 3 * time.Second}
}

// Put indexes (or replaces) the entrepreneur document.
func (x *DirectoryIndex) Put(ctx context.Context, e *entity.Entrepreneur) error {
	doc := document{
		ID:               e.ID,
		Name:             e.Name,
		ShortDescription: e.ShortDescription,
		Categories:       make([]string, 0, len(e.Categories)),
		UpdatedAt:        e.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
	for _, c := range e.Categories {
		doc.Categories = append(doc.Categories, c.Name)
	}
	b, err := json.Marshal(doc)
	if err != nil {
		return err
	}
	req := esapi.IndexRequest{
		Index:      x.Index,
		DocumentID: strconv.FormatInt(e.ID, 10),
		Body:       bytes.NewReader(b),
		Refresh:    "false",
	}
	return x.do(ctx, req, false)
}

// Remove deletes the document; a missing document is not an error.
func (x *DirectoryIndex) Remove(ctx context.Context, id int64) error {
	req := esapi.DeleteRequest{Index: x.Index, DocumentID: strconv.FormatInt(id, 10)}
	return x.do(ctx, req, true)
}

// Suggest runs a prefix-aware multi_match over name, short description and category names.
func (x *DirectoryIndex) Suggest(ctx context.Context, q string, size int) ([]entity.Suggestion, error) {
	query := map[string]any{
		"query": map[string]any{
			"multi_match": map[string]any{
				"query":  q,
				"type":   "bool_prefix",
				"fields": []string{"nome^3", "descricao_curta", "categorias"},
			},
		},
		"_source": []string{"id", "nome", "descricao_curta"},
		"size":    size,
	}
	b, err := json.Marshal(query)
	if err != nil {
		return nil, err
	}

	c, cancel := context.WithTimeout(ctx, x.Timeout)
	defer cancel()
	res, err := x.ES.Search(
		x.ES.Search.WithContext(c),
		x.ES.Search.WithIndex(x.Index),
		x.ES.Search.WithBody(bytes.NewReader(b)),
	)
	if err != nil {
		return nil, err
	}
	defer func() { _ = res.Body.Close() }()
	if res.IsError() {
		return nil, fmt.Errorf("es search: %s", res.Status())
	}

	var parsed struct {
		Hits struct {
			Hits []struct {
				Source entity.Suggestion `json:"_source"`
			} `json:"hits"`
		} `json:"hits"`
	}
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, err
	}
	out := make([]entity.Suggestion, 0, len(parsed.Hits.Hits))
	for _, h := range parsed.Hits.Hits {
		out = append(out, h.Source)
	}
	return out, nil
}

func (x *DirectoryIndex) do(ctx context.Context, req esapi.Request, allowMissing bool) error {
	c, cancel := context.WithTimeout(ctx, x.Timeout)
	defer cancel()
	res, err := req.Do(c, x.ES)
	if err != nil {
		return err
	}
	defer func() { _ = res.Body.Close() }()
	if allowMissing && res.StatusCode == http.StatusNotFound {
		return nil
	}
	if res.IsError() {
		return fmt.Errorf("es %s: %s", x.Index, res.Status())
	}
	return nil
}
