package search

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maauso/jobfeed-api/internal/aggregator"
	"github.com/maauso/jobfeed-api/internal/feed"
	"github.com/maauso/jobfeed-api/internal/listing"
	"github.com/maauso/jobfeed-api/internal/source"
)

var sample = []listing.JobListing{
	{Title: "Senior Engineer", Company: "Acme", Location: "Remote", Source: "rss"},
	{Title: "Sales Rep", Company: "Globex", Location: "Berlin, DE", Source: "json"},
	{Title: "Remote Support Agent", Company: "Initech", Location: "Lisbon", Source: "json"},
	{Title: "Platform engineer", Company: "Engineering Remote Co", Location: "Berlin", Source: "rss"},
}

func matchedTitles(listings []listing.JobListing) []string {
	out := make([]string, len(listings))
	for i, l := range listings {
		out[i] = l.Title
	}
	return out
}

func TestMatch(t *testing.T) {
	tests := []struct {
		name  string
		query Query
		want  []string
	}{
		{
			name:  "empty query matches everything in order",
			query: Query{},
			want:  []string{"Senior Engineer", "Sales Rep", "Remote Support Agent", "Platform engineer"},
		},
		{
			name:  "keyword is case-insensitive on title",
			query: Query{Keyword: "ENGINEER"},
			want:  []string{"Senior Engineer", "Platform engineer"},
		},
		{
			name:  "keyword matches company",
			query: Query{Keyword: "globex"},
			want:  []string{"Sales Rep"},
		},
		{
			name:  "keyword does not match location",
			query: Query{Keyword: "lisbon"},
			want:  []string{},
		},
		{
			name:  "location substring",
			query: Query{Location: "berlin"},
			want:  []string{"Sales Rep", "Platform engineer"},
		},
		{
			name:  "keyword and location combine",
			query: Query{Keyword: "engineer", Location: "berlin"},
			want:  []string{"Platform engineer"},
		},
		{
			name:  "filter keyword matches title, company or location",
			query: Query{Filter: &Filter{Keywords: []string{"remote"}}},
			want:  []string{"Senior Engineer", "Remote Support Agent", "Platform engineer"},
		},
		{
			name:  "filter keywords are ANDed",
			query: Query{Filter: &Filter{Keywords: []string{"remote", "berlin"}}},
			want:  []string{"Platform engineer"},
		},
		{
			name:  "blank filter keywords are ignored",
			query: Query{Keyword: "sales", Filter: &Filter{Keywords: []string{"", "  "}}},
			want:  []string{"Sales Rep"},
		},
		{
			name:  "filter location ANDs with primary location",
			query: Query{Location: "berlin", Filter: &Filter{Location: "DE"}},
			want:  []string{"Sales Rep"},
		},
		{
			name:  "filter refines keyword",
			query: Query{Keyword: "engineer", Filter: &Filter{Keywords: []string{"acme"}}},
			want:  []string{"Senior Engineer"},
		},
		{
			name:  "no match",
			query: Query{Keyword: "astronaut"},
			want:  []string{},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Match(sample, tt.query)
			require.NotNil(t, got)
			assert.Equal(t, tt.want, matchedTitles(got))
		})
	}
}

func TestMatch_EmptyInput(t *testing.T) {
	got := Match(nil, Query{Keyword: "x"})
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

type fakeCollector struct {
	listings []listing.JobListing
	err      error
}

func (c *fakeCollector) Collect(_ context.Context) ([]listing.JobListing, []aggregator.FetchResult, error) {
	return c.listings, nil, c.err
}

func TestEngine_Search(t *testing.T) {
	e := NewEngine(&fakeCollector{listings: sample}, slog.New(slog.NewTextHandler(io.Discard, nil)))

	got, err := e.Search(context.Background(), "support", "", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"Remote Support Agent"}, matchedTitles(got))
}

func TestEngine_SearchPropagatesCollectError(t *testing.T) {
	e := NewEngine(&fakeCollector{err: aggregator.ErrAllSourcesFailed}, nil)

	got, err := e.Search(context.Background(), "engineer", "", nil)
	assert.ErrorIs(t, err, aggregator.ErrAllSourcesFailed)
	assert.Nil(t, got)
}

const portalRSS = `<?xml version="1.0"?>
<rss version="2.0"><channel><title>Portal</title><link>https://portal.example.com</link><description>jobs</description>
<item><title>Senior Engineer</title><link>https://portal.example.com/1</link><company>Acme</company></item>
</channel></rss>`

const portalJSON = `[{"title": "Sales Rep", "url": "https://board.example.com/1", "company": "Globex"}]`

func serve(t *testing.T, body string) string {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = fmt.Fprint(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv.URL
}

func newPipeline(t *testing.T, drafts ...source.Draft) (*Engine, *source.MemoryRepository, []int64) {
	t.Helper()
	repo := source.NewMemoryRepository()
	ids := make([]int64, 0, len(drafts))
	for _, d := range drafts {
		id, err := repo.Add(context.Background(), d)
		require.NoError(t, err)
		ids = append(ids, id)
	}
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	orch := aggregator.NewOrchestrator(repo, feed.NewRegistry(feed.NewClient()), aggregator.WithLogger(logger))
	return NewEngine(orch, logger), repo, ids
}

func TestEngine_EndToEnd(t *testing.T) {
	e, _, _ := newPipeline(t,
		source.Draft{Name: "RSS Portal", URL: serve(t, portalRSS), FetchType: source.FetchTypeRSS},
		source.Draft{Name: "JSON Board", URL: serve(t, portalJSON), FetchType: source.FetchTypeJSON},
	)

	got, err := e.Search(context.Background(), "engineer", "", nil)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Senior Engineer", got[0].Title)
	assert.Equal(t, "RSS Portal", got[0].Source)
	assert.Equal(t, "https://portal.example.com/1", got[0].ApplyURL)
}

func TestEngine_ToggleHidesAndRestoresListings(t *testing.T) {
	e, repo, ids := newPipeline(t,
		source.Draft{Name: "RSS Portal", URL: serve(t, portalRSS), FetchType: source.FetchTypeRSS},
		source.Draft{Name: "JSON Board", URL: serve(t, portalJSON), FetchType: source.FetchTypeJSON},
	)
	ctx := context.Background()

	require.NoError(t, repo.SetEnabled(ctx, ids[1], false))
	got, err := e.Search(ctx, "", "", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"Senior Engineer"}, matchedTitles(got))

	require.NoError(t, repo.SetEnabled(ctx, ids[1], true))
	got, err = e.Search(ctx, "", "", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"Senior Engineer", "Sales Rep"}, matchedTitles(got))
}

func TestEngine_UnreachableSourceDoesNotHideOthers(t *testing.T) {
	dead := httptest.NewServer(http.NotFoundHandler())
	deadURL := dead.URL
	dead.Close()

	e, _, _ := newPipeline(t,
		source.Draft{Name: "Dead", URL: deadURL, FetchType: source.FetchTypeRSS},
		source.Draft{Name: "JSON Board", URL: serve(t, portalJSON), FetchType: source.FetchTypeJSON},
	)

	got, err := e.Search(context.Background(), "", "", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"Sales Rep"}, matchedTitles(got))
}

func TestEngine_AllSourcesDown(t *testing.T) {
	e, _, _ := newPipeline(t,
		source.Draft{Name: "Not a feed", URL: serve(t, "hello"), FetchType: source.FetchTypeJSON},
	)

	_, err := e.Search(context.Background(), "", "", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, aggregator.ErrAllSourcesFailed))
	assert.ErrorIs(t, err, feed.ErrParse)
}
