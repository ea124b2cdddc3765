package catalog

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"
)

func fastRetry() RetryConfig {
	cfg := DefaultRetryConfig()
	cfg.InitialBackoff = time.Millisecond
	cfg.MaxBackoff = 4 * time.Millisecond
	return cfg
}

func catalogServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("GET /vendors/", func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("team_id"); got != "444784" {
			t.Errorf("team_id = %q, want 444784", got)
		}
		json.NewEncoder(w).Encode([]Vendor{
			{ID: 1, Name: "Acme Industrial"},
			{ID: 2, Name: "Borealis Supply"},
			{ID: 3, Name: "Cobalt Traders"},
		})
	})
	mux.HandleFunc("POST /conversations/", func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			VendorID int    `json:"vendor_id"`
			Title    string `json:"title"`
		}
		json.NewDecoder(r.Body).Decode(&body)
		json.NewEncoder(w).Encode(Conversation{ID: 900 + body.VendorID, VendorID: body.VendorID, Title: body.Title})
	})
	mux.HandleFunc("POST /messages/{id}", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseMultipartForm(1 << 20); err != nil {
			t.Errorf("expected multipart form: %v", err)
			w.WriteHeader(http.StatusUnsupportedMediaType)
			return
		}
		content := r.FormValue("content")
		json.NewEncoder(w).Encode(Message{
			ID:        1,
			Role:      "assistant",
			Content:   "Thanks for the inquiry about: " + content,
			CreatedAt: time.Now().UTC(),
		})
	})
	return httptest.NewServer(mux)
}

func TestHTTPClient_ListVendors(t *testing.T) {
	srv := catalogServer(t)
	defer srv.Close()

	client := NewHTTPClient(srv.URL, 444784, time.Second).WithRetry(fastRetry())

	vendors, err := client.ListVendors(context.Background())
	if err != nil {
		t.Fatalf("ListVendors() error = %v", err)
	}
	if len(vendors) != 3 || vendors[0].Name != "Acme Industrial" {
		t.Errorf("ListVendors() = %+v", vendors)
	}
}

func TestHTTPClient_FetchVendorSubset_OmitsUnknownIDs(t *testing.T) {
	srv := catalogServer(t)
	defer srv.Close()

	client := NewHTTPClient(srv.URL, 444784, time.Second).WithRetry(fastRetry())

	vendors, err := client.FetchVendorSubset(context.Background(), []int{3, 1, 99})
	if err != nil {
		t.Fatalf("FetchVendorSubset() error = %v", err)
	}
	if len(vendors) != 2 {
		t.Fatalf("FetchVendorSubset() = %+v, want 2 vendors", vendors)
	}
	// Catalog order is preserved regardless of requested order.
	if vendors[0].ID != 1 || vendors[1].ID != 3 {
		t.Errorf("FetchVendorSubset() order = %+v", vendors)
	}
}

func TestHTTPClient_SendMessageIsMultipart(t *testing.T) {
	srv := catalogServer(t)
	defer srv.Close()

	client := NewHTTPClient(srv.URL, 444784, time.Second).WithRetry(fastRetry())

	msg, err := client.SendMessage(context.Background(), 901, "We need 100 laptops.")
	if err != nil {
		t.Fatalf("SendMessage() error = %v", err)
	}
	if msg.Content != "Thanks for the inquiry about: We need 100 laptops." {
		t.Errorf("SendMessage() content = %q", msg.Content)
	}
}

func TestHTTPClient_CreateConversation(t *testing.T) {
	srv := catalogServer(t)
	defer srv.Close()

	client := NewHTTPClient(srv.URL, 444784, time.Second).WithRetry(fastRetry())

	conversation, err := client.CreateConversation(context.Background(), 2, "laptop negotiation")
	if err != nil {
		t.Fatalf("CreateConversation() error = %v", err)
	}
	if conversation.ID != 902 || conversation.Title != "laptop negotiation" {
		t.Errorf("CreateConversation() = %+v", conversation)
	}
}

func TestHTTPClient_RetriesRetryableStatuses(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if calls.Add(1) < 3 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		json.NewEncoder(w).Encode([]Vendor{{ID: 1, Name: "Acme Industrial"}})
	}))
	defer srv.Close()

	client := NewHTTPClient(srv.URL, 1, time.Second).WithRetry(fastRetry())

	vendors, err := client.ListVendors(context.Background())
	if err != nil {
		t.Fatalf("ListVendors() error = %v", err)
	}
	if len(vendors) != 1 || calls.Load() != 3 {
		t.Errorf("vendors = %+v after %d calls", vendors, calls.Load())
	}
}

func TestHTTPClient_SurfacesHTTPErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "conversation not found", http.StatusNotFound)
	}))
	defer srv.Close()

	client := NewHTTPClient(srv.URL, 1, time.Second).WithRetry(fastRetry())

	_, err := client.GetMessages(context.Background(), 42)
	if err == nil {
		t.Fatal("GetMessages() expected error")
	}
	httpErr, ok := err.(*HTTPError)
	if !ok || httpErr.StatusCode != http.StatusNotFound {
		t.Errorf("error = %v, want *HTTPError with 404", err)
	}
}
