package wordpress

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wayfarer-labs/wayfarer/internal/core/domain"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client, err := NewClient(Config{
		BaseURL:           srv.URL,
		RequestsPerSecond: 1000, // don't throttle tests
	})
	require.NoError(t, err)
	return client
}

func TestNewClient_RequiresBaseURL(t *testing.T) {
	_, err := NewClient(Config{})
	assert.Error(t, err)
}

func TestClient_ListPosts(t *testing.T) {
	var gotPath, gotQuery string
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotQuery = r.URL.RawQuery
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[
			{
				"id": 42,
				"link": "https://example.com/lisbon",
				"title": {"rendered": "Lisbon Guide"},
				"content": {"rendered": "<p>Trams climb the hills.</p>"}
			},
			{
				"id": 43,
				"link": "https://example.com/porto",
				"title": {"rendered": "Porto Weekend"},
				"content": {"rendered": "<p>Port cellars.</p>"}
			}
		]`))
	})

	docs, err := client.ListPosts(context.Background(), 2, 10)
	require.NoError(t, err)

	assert.Equal(t, "/wp-json/wp/v2/posts", gotPath)
	assert.Contains(t, gotQuery, "page=2")
	assert.Contains(t, gotQuery, "per_page=10")
	assert.Contains(t, gotQuery, "_fields=id%2Clink%2Ctitle%2Ccontent")

	require.Len(t, docs, 2)
	assert.Equal(t, int64(42), docs[0].ID)
	assert.Equal(t, "https://example.com/lisbon", docs[0].URL)
	assert.Equal(t, "Lisbon Guide", docs[0].Title)
	assert.Equal(t, "<p>Trams climb the hills.</p>", docs[0].Body)
	assert.Equal(t, "Porto Weekend", docs[1].Title)
}

func TestClient_ListPosts_InvalidPageIsEmpty(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"code":"rest_post_invalid_page_number","message":"The page number requested is larger than the number of pages available."}`))
	})

	docs, err := client.ListPosts(context.Background(), 99, 10)
	require.NoError(t, err)
	assert.Empty(t, docs)
}

func TestClient_ListPosts_UpstreamErrorStatus(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		w.Write([]byte("upstream broke"))
	})

	_, err := client.ListPosts(context.Background(), 1, 10)
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrUpstreamFetch)
	assert.Contains(t, err.Error(), "500")
}

func TestClient_ListPosts_MalformedBody(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("not json"))
	})

	_, err := client.ListPosts(context.Background(), 1, 10)
	assert.ErrorIs(t, err, domain.ErrUpstreamFetch)
}

func TestClient_ListPosts_RejectsBadArguments(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	})

	_, err := client.ListPosts(context.Background(), 0, 10)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)

	_, err = client.ListPosts(context.Background(), 1, 0)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestClient_ListPosts_EmptyListing(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte("[]"))
	})

	docs, err := client.ListPosts(context.Background(), 1, 10)
	require.NoError(t, err)
	require.NotNil(t, docs)
	assert.Empty(t, docs)
}
