package lastfm

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newTestClient serves body for every request and counts the calls.
func newTestClient(t *testing.T, check func(r *http.Request), body string) (*Client, *atomic.Int32) {
	t.Helper()
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, "test_key", r.URL.Query().Get("api_key"))
		assert.Equal(t, "json", r.URL.Query().Get("format"))
		if check != nil {
			check(r)
		}
		w.Header().Set("Content-Type", "application/json")
		fmt.Fprint(w, body)
	}))
	t.Cleanup(server.Close)

	client, err := New(Config{APIKey: "test_key", BaseURL: server.URL + "/"})
	require.NoError(t, err)
	return client, &calls
}

func TestNew_RequiresAPIKey(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
}

func TestGetSimilarTracks(t *testing.T) {
	client, _ := newTestClient(t, func(r *http.Request) {
		assert.Equal(t, "track.getSimilar", r.URL.Query().Get("method"))
		assert.Equal(t, "Moonlight", r.URL.Query().Get("track"))
		assert.Equal(t, "XXXTENTACION", r.URL.Query().Get("artist"))
		assert.Equal(t, "5", r.URL.Query().Get("limit"))
	}, `{
		"similartracks": {
			"track": [
				{"name": "SAD!", "match": 0.92, "artist": {"name": "XXXTENTACION"}},
				{"name": "Lucid Dreams", "match": "0.81", "artist": {"name": "Juice WRLD"}}
			]
		}
	}`)

	similar, err := client.GetSimilarTracks(context.Background(), "Moonlight", "XXXTENTACION", 5)
	require.NoError(t, err)
	require.Len(t, similar, 2)
	assert.Equal(t, SimilarTrack{Name: "SAD!", Artist: "XXXTENTACION", Match: 0.92}, similar[0])
	assert.Equal(t, "Juice WRLD", similar[1].Artist)
	assert.InDelta(t, 0.81, similar[1].Match, 0.0001)

	_, err = client.GetSimilarTracks(context.Background(), "", "XXXTENTACION", 5)
	assert.Error(t, err)
}

func TestGetTopTags(t *testing.T) {
	client, calls := newTestClient(t, func(r *http.Request) {
		assert.Equal(t, "track.getTopTags", r.URL.Query().Get("method"))
	}, `{
		"toptags": {
			"tag": [
				{"name": "rock", "count": 100},
				{"name": "alternative", "count": 80},
				{"name": "indie", "count": 20}
			]
		}
	}`)

	ctx := context.Background()
	tags, err := client.GetTopTags(ctx, "test_track", "test_artist", 2)
	require.NoError(t, err)
	assert.Equal(t, []Tag{{Name: "rock", Count: 100}, {Name: "alternative", Count: 80}}, tags)

	again, err := client.GetTopTags(ctx, "test_track", "test_artist", 2)
	require.NoError(t, err)
	assert.Equal(t, tags, again)
	assert.Equal(t, int32(1), calls.Load())
}

func TestGetTopTracks(t *testing.T) {
	client, calls := newTestClient(t, func(r *http.Request) {
		assert.Equal(t, "tag.getTopTracks", r.URL.Query().Get("method"))
		assert.Equal(t, "rock", r.URL.Query().Get("tag"))
	}, `{
		"tracks": {
			"track": [
				{"name": "Track 1", "artist": {"name": "Artist 1"}, "playcount": "5000"},
				{"name": "Track 2", "artist": {"name": "Artist 2"}, "playcount": "2000"}
			]
		}
	}`)

	ctx := context.Background()
	tracks, err := client.GetTopTracks(ctx, "rock", 5)
	require.NoError(t, err)
	assert.Equal(t, []TopTrack{{Name: "Track 1", Artist: "Artist 1"}, {Name: "Track 2", Artist: "Artist 2"}}, tracks)

	_, err = client.GetTopTracks(ctx, "rock", 5)
	require.NoError(t, err)
	assert.Equal(t, int32(1), calls.Load())
}

func TestAPIError(t *testing.T) {
	client, _ := newTestClient(t, nil, `{"error": 10, "message": "Invalid API key"}`)

	_, err := client.GetChartTopTracks(context.Background(), 10)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Invalid API key")
}
