package embedding

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

// newFakeEndpoint serves deterministic embeddings: vector[0] encodes the
// input's position in the request batch.
func newFakeEndpoint(t *testing.T) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/embeddings" {
			t.Errorf("path = %s, want /embeddings", r.URL.Path)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer test-key" {
			t.Errorf("Authorization = %q", auth)
		}

		var req struct {
			Input []string `json:"input"`
			Model string   `json:"model"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decoding request: %v", err)
		}

		type datum struct {
			Index     int       `json:"index"`
			Embedding []float32 `json:"embedding"`
		}
		out := struct {
			Data []datum `json:"data"`
		}{}
		// Answer out of order to verify index-based reassembly.
		for i := len(req.Input) - 1; i >= 0; i-- {
			out.Data = append(out.Data, datum{Index: i, Embedding: []float32{float32(i), float32(len(req.Input[i]))}})
		}
		json.NewEncoder(w).Encode(out)
	}))
}

func newTestClient(t *testing.T, baseURL string) *OpenAIClient {
	t.Helper()
	c, err := NewOpenAIClient(OpenAIConfig{BaseURL: baseURL, APIKey: "test-key"})
	if err != nil {
		t.Fatalf("NewOpenAIClient: %v", err)
	}
	return c
}

func TestEmbedMany_OrderAndLengthPreserved(t *testing.T) {
	srv := newFakeEndpoint(t)
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	vecs, err := c.EmbedMany(context.Background(), []string{"a", "b", "c"})
	if err != nil {
		t.Fatalf("EmbedMany: %v", err)
	}
	if len(vecs) != 3 {
		t.Fatalf("got %d vectors, want 3", len(vecs))
	}
	for i, v := range vecs {
		if v[0] != float32(i) {
			t.Errorf("vecs[%d][0] = %f, want %d", i, v[0], i)
		}
	}
}

func TestEmbedOne_MatchesBatchOfOne(t *testing.T) {
	srv := newFakeEndpoint(t)
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	one, err := c.EmbedOne(context.Background(), "a")
	if err != nil {
		t.Fatalf("EmbedOne: %v", err)
	}
	many, err := c.EmbedMany(context.Background(), []string{"a"})
	if err != nil {
		t.Fatalf("EmbedMany: %v", err)
	}
	if len(one) != len(many[0]) {
		t.Fatalf("length mismatch: %d vs %d", len(one), len(many[0]))
	}
	for i := range one {
		if one[i] != many[0][i] {
			t.Errorf("one[%d] = %f, many[0][%d] = %f", i, one[i], i, many[0][i])
		}
	}
}

func TestEmbedMany_NormalizesWhitespace(t *testing.T) {
	var gotInputs []string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Input []string `json:"input"`
		}
		json.NewDecoder(r.Body).Decode(&req)
		gotInputs = req.Input

		out := struct {
			Data []struct {
				Index     int       `json:"index"`
				Embedding []float32 `json:"embedding"`
			} `json:"data"`
		}{}
		for i := range req.Input {
			out.Data = append(out.Data, struct {
				Index     int       `json:"index"`
				Embedding []float32 `json:"embedding"`
			}{Index: i, Embedding: []float32{1}})
		}
		json.NewEncoder(w).Encode(out)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	if _, err := c.EmbedMany(context.Background(), []string{"  a   b \t c  "}); err != nil {
		t.Fatalf("EmbedMany: %v", err)
	}
	if len(gotInputs) != 1 || gotInputs[0] != "a b c" {
		t.Errorf("sent inputs = %v, want [a b c]", gotInputs)
	}
}

func TestEmbedMany_ErrorPropagates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"quota exceeded"}`, http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	if _, err := c.EmbedMany(context.Background(), []string{"a"}); err == nil {
		t.Fatal("expected error, got nil")
	}
}

func TestEmbedMany_EmptyInput(t *testing.T) {
	c := newTestClient(t, "http://unused.invalid")
	vecs, err := c.EmbedMany(context.Background(), nil)
	if err != nil {
		t.Fatalf("EmbedMany: %v", err)
	}
	if vecs != nil {
		t.Errorf("vecs = %v, want nil", vecs)
	}
}

func TestNormalize(t *testing.T) {
	cases := []struct{ in, want string }{
		{"a  b", "a b"},
		{"  leading and trailing  ", "leading and trailing"},
		{"tabs\tand\nnewlines", "tabs and newlines"},
		{"", ""},
	}
	for _, tc := range cases {
		if got := Normalize(tc.in); got != tc.want {
			t.Errorf("Normalize(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
