package scrape

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/yuwenq/etsylens/internal/config"
	"github.com/yuwenq/etsylens/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

func newTestClient(url string) *Client {
	return New(config.ScrapeConfig{Endpoint: url, APIKey: "fc-test"}, testLogger)
}

func TestScrapeRequestShape(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v2/scrape" {
			t.Errorf("path = %q", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer fc-test" {
			t.Errorf("auth = %q", auth)
		}
		body, _ := io.ReadAll(r.Body)
		json.Unmarshal(body, &got)
		io.WriteString(w, `{"success":true,"data":{"markdown":"# Lamp","html":"<html></html>","json":{"title":"Lamp"}}}`)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	res, err := c.Scrape(context.Background(), "https://www.etsy.com/listing/1/lamp", Options{
		Formats: []Format{FormatMarkdown, FormatHTML, FormatJSON},
		Timeout: 30 * time.Second,
	})
	if err != nil {
		t.Fatalf("scrape: %v", err)
	}

	if got["url"] != "https://www.etsy.com/listing/1/lamp" {
		t.Errorf("url field = %v", got["url"])
	}
	if got["timeout"] != float64(30000) {
		t.Errorf("timeout field = %v, want 30000", got["timeout"])
	}
	formats, ok := got["formats"].([]any)
	if !ok || len(formats) != 3 {
		t.Fatalf("formats = %v", got["formats"])
	}
	jsonFormat, ok := formats[2].(map[string]any)
	if !ok || jsonFormat["type"] != "json" {
		t.Errorf("third format should carry the JSON schema, got %v", formats[2])
	}
	if _, ok := jsonFormat["schema"]; !ok {
		t.Error("JSON format missing schema")
	}

	if res.Markdown != "# Lamp" {
		t.Errorf("markdown = %q", res.Markdown)
	}
	if res.JSON["title"] != "Lamp" {
		t.Errorf("json title = %v", res.JSON["title"])
	}
}

func TestScrapeBackendError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"success":false,"error":"rate limited"}`)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	_, err := c.Scrape(context.Background(), "https://example.com", Options{Formats: []Format{FormatHTML}})
	if err == nil {
		t.Fatal("expected error")
	}
	var fe *types.FetchError
	if !asFetchError(err, &fe) {
		t.Fatalf("error type = %T", err)
	}
}

func TestScrapeHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "server exploded", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := newTestClient(srv.URL)
	_, err := c.Scrape(context.Background(), "https://example.com", Options{Formats: []Format{FormatHTML}})
	if err == nil {
		t.Fatal("expected error")
	}
	var fe *types.FetchError
	if !asFetchError(err, &fe) || fe.StatusCode != http.StatusBadGateway {
		t.Errorf("error = %v", err)
	}
}

func asFetchError(err error, target **types.FetchError) bool {
	fe, ok := err.(*types.FetchError)
	if ok {
		*target = fe
	}
	return ok
}

func TestProductSchemaShape(t *testing.T) {
	schema := ProductSchema()
	props, ok := schema["properties"].(map[string]any)
	if !ok {
		t.Fatal("schema has no properties")
	}
	for _, field := range []string{"title", "price", "originalPrice", "paymentMethods", "images", "description_text", "faq_items"} {
		if _, ok := props[field]; !ok {
			t.Errorf("schema missing field %q", field)
		}
	}
}
