package crawler

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dxb-props/propertyfinder-crawler/internal/config"
	"github.com/dxb-props/propertyfinder-crawler/internal/repository"
)

// memorySink collects emitted records for assertions.
type memorySink struct {
	mu      sync.Mutex
	records []repository.PropertyRecord
}

func (s *memorySink) Save(_ context.Context, record repository.PropertyRecord) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = append(s.records, record)
	return nil
}

func (s *memorySink) all() []repository.PropertyRecord {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]repository.PropertyRecord(nil), s.records...)
}

// pageCounter tracks which listing pages were requested.
type pageCounter struct {
	mu    sync.Mutex
	pages map[string]int
}

func newPageCounter() *pageCounter {
	return &pageCounter{pages: make(map[string]int)}
}

func (c *pageCounter) hit(page string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pages[page]++
}

func (c *pageCounter) count(page string) int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pages[page]
}

func testConfig() *config.Config {
	return &config.Config{
		PropertyType:   "apartment",
		ResultsWanted:  100,
		MaxPages:       5,
		CollectDetails: false,
		Parallelism:    1,
		DelayMS:        0,
		MaxRetries:     0,
	}
}

func listingHTML(cardHrefs ...string) string {
	page := "<html><body>"
	for i, href := range cardHrefs {
		page += fmt.Sprintf(`<article data-testid="property-card">
			<a href=%q></a>
			<h2 data-testid="property-card-title">Listing %d</h2>
			<p data-testid="property-card-price">AED 1,000,000</p>
		</article>`, href, i+1)
	}
	return page + "</body></html>"
}

func TestEngineStopsAtQuotaWithoutFetchingNextPage(t *testing.T) {
	counter := newPageCounter()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/search" {
			http.NotFound(w, r)
			return
		}
		counter.hit(r.URL.Query().Get("page"))
		fmt.Fprint(w, listingHTML("/plp/a.html", "/plp/b.html", "/plp/c.html", "/plp/d.html", "/plp/e.html"))
	}))
	defer srv.Close()

	cfg := testConfig()
	cfg.ResultsWanted = 3
	sink := &memorySink{}
	criteria := SearchCriteria{StartURL: srv.URL + "/search?page=1", PropertyType: "apartment"}

	saved, err := NewEngine(cfg, criteria, sink).Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 3, saved)
	assert.Len(t, sink.all(), 3)
	assert.Equal(t, 1, counter.count("1"))
	assert.Zero(t, counter.count("2"), "page 2 must not be fetched once the quota is met")
}

func TestEngineDeduplicatesAcrossPages(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("page") {
		case "1":
			fmt.Fprint(w, listingHTML("/plp/a.html", "/plp/b.html"))
		case "2":
			// One repeat, one new listing.
			fmt.Fprint(w, listingHTML("/plp/b.html", "/plp/c.html"))
		default:
			fmt.Fprint(w, listingHTML())
		}
	}))
	defer srv.Close()

	cfg := testConfig()
	cfg.MaxPages = 3
	sink := &memorySink{}
	criteria := SearchCriteria{StartURL: srv.URL + "/search?page=1"}

	saved, err := NewEngine(cfg, criteria, sink).Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 3, saved)

	seen := make(map[string]bool)
	for _, record := range sink.all() {
		assert.False(t, seen[record.URL], "record emitted twice: %s", record.URL)
		seen[record.URL] = true
	}
}

func TestEngineStopsAtPageCap(t *testing.T) {
	counter := newPageCounter()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page := r.URL.Query().Get("page")
		counter.hit(page)
		fmt.Fprint(w, listingHTML("/plp/page-"+page+".html"))
	}))
	defer srv.Close()

	cfg := testConfig()
	cfg.MaxPages = 2
	cfg.ResultsWanted = 0 // unbounded
	sink := &memorySink{}
	criteria := SearchCriteria{StartURL: srv.URL + "/search?page=1"}

	saved, err := NewEngine(cfg, criteria, sink).Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 2, saved)
	assert.Equal(t, 1, counter.count("1"))
	assert.Equal(t, 1, counter.count("2"))
	assert.Zero(t, counter.count("3"))
}

func TestEngineEnrichesFromDetailPage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/search":
			fmt.Fprint(w, listingHTML("/plp/detail-1.html"))
		case "/plp/detail-1.html":
			fmt.Fprint(w, `<html><head><script type="application/ld+json">
				{"@type":"Apartment","name":"Enriched Title",
				 "description":"Full detail description",
				 "offers":{"price":1200000,"priceCurrency":"AED"}}
			</script></head><body></body></html>`)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	cfg := testConfig()
	cfg.MaxPages = 1
	cfg.CollectDetails = true
	sink := &memorySink{}
	criteria := SearchCriteria{StartURL: srv.URL + "/search?page=1", PropertyType: "apartment"}

	saved, err := NewEngine(cfg, criteria, sink).Run(context.Background())

	require.NoError(t, err)
	require.Equal(t, 1, saved)

	record := sink.all()[0]
	assert.Equal(t, "Enriched Title", record.Title)
	assert.Equal(t, "Full detail description", *record.Description)
	assert.Equal(t, 1200000.0, *record.Price)
	assert.Equal(t, "apartment", record.PropertyType)
}

func TestEngineEmitsCardWhenDetailFetchFails(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/search":
			fmt.Fprint(w, listingHTML("/plp/broken.html"))
		default:
			http.Error(w, "upstream error", http.StatusInternalServerError)
		}
	}))
	defer srv.Close()

	cfg := testConfig()
	cfg.MaxPages = 1
	cfg.CollectDetails = true
	sink := &memorySink{}
	criteria := SearchCriteria{StartURL: srv.URL + "/search?page=1"}

	saved, err := NewEngine(cfg, criteria, sink).Run(context.Background())

	require.NoError(t, err)
	require.Equal(t, 1, saved)

	// Partial data beats no data: the un-enriched card is emitted.
	record := sink.all()[0]
	assert.Equal(t, "Listing 1", record.Title)
	assert.Nil(t, record.Description)
}

func TestEngineContinuesAfterListingPageFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Query().Get("page") {
		case "1":
			http.Error(w, "temporarily blocked", http.StatusForbidden)
		case "2":
			fmt.Fprint(w, listingHTML("/plp/recovered.html"))
		default:
			fmt.Fprint(w, listingHTML())
		}
	}))
	defer srv.Close()

	cfg := testConfig()
	cfg.MaxPages = 3
	sink := &memorySink{}
	criteria := SearchCriteria{StartURL: srv.URL + "/search?page=1"}

	saved, err := NewEngine(cfg, criteria, sink).Run(context.Background())

	require.NoError(t, err)
	assert.Equal(t, 1, saved)
	assert.Equal(t, "Listing 1", sink.all()[0].Title)
}

func TestEngineAppliesRecordDefaults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") != "1" {
			fmt.Fprint(w, listingHTML())
			return
		}
		// A card with a link but no title and no price.
		fmt.Fprint(w, `<html><body><article data-testid="property-card">
			<a href="/plp/bare.html"></a>
		</article></body></html>`)
	}))
	defer srv.Close()

	cfg := testConfig()
	cfg.MaxPages = 1
	sink := &memorySink{}
	criteria := SearchCriteria{StartURL: srv.URL + "/search?page=1", PropertyType: "villa"}

	saved, err := NewEngine(cfg, criteria, sink).Run(context.Background())

	require.NoError(t, err)
	require.Equal(t, 1, saved)

	record := sink.all()[0]
	assert.Equal(t, repository.DefaultTitle, record.Title)
	assert.Equal(t, "AED", record.Currency)
	assert.Equal(t, "villa", record.PropertyType)
}

func TestEngineRejectsInvalidCriteriaBeforeFetching(t *testing.T) {
	requested := false
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		requested = true
	}))
	defer srv.Close()

	cfg := testConfig()
	sink := &memorySink{}

	saved, err := NewEngine(cfg, SearchCriteria{}, sink).Run(context.Background())

	assert.Zero(t, saved)
	assert.True(t, errors.Is(err, ErrInvalidCriteria))
	assert.False(t, requested)
}

func TestEngineFetchesDetailsOnFinalPage(t *testing.T) {
	detailPage := func(title string) string {
		return `<html><head><script type="application/ld+json">
			{"@type":"Apartment","name":"` + title + `","description":"Detailed"}
		</script></head><body></body></html>`
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/search":
			fmt.Fprint(w, listingHTML("/plp/one.html", "/plp/two.html"))
		case "/plp/one.html":
			fmt.Fprint(w, detailPage("Detail One"))
		case "/plp/two.html":
			fmt.Fprint(w, detailPage("Detail Two"))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	cfg := testConfig()
	cfg.MaxPages = 1
	cfg.CollectDetails = true
	sink := &memorySink{}
	criteria := SearchCriteria{StartURL: srv.URL + "/search?page=1"}

	engine := NewEngine(cfg, criteria, sink)
	saved, err := engine.Run(context.Background())

	// Hitting the page cap only stops pagination; detail fetches already
	// scheduled from the final page still complete and emit.
	require.NoError(t, err)
	assert.Equal(t, 2, saved)
	assert.Equal(t, 2, engine.GetStats().DetailsFetched)

	titles := make(map[string]bool)
	for _, record := range sink.all() {
		titles[record.Title] = true
	}
	assert.True(t, titles["Detail One"])
	assert.True(t, titles["Detail Two"])
}

func TestEngineCompletesNormallyWithZeroRecords(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html><body><p>No results found</p></body></html>")
	}))
	defer srv.Close()

	cfg := testConfig()
	cfg.MaxPages = 2
	sink := &memorySink{}
	criteria := SearchCriteria{StartURL: srv.URL + "/search?page=1"}

	saved, err := NewEngine(cfg, criteria, sink).Run(context.Background())

	// Finding nothing is a normal completion, not a failure.
	require.NoError(t, err)
	assert.Zero(t, saved)
	assert.Empty(t, sink.all())
}

// failFirstSink rejects the first save and accepts the rest.
type failFirstSink struct {
	memorySink
	failed bool
}

func (s *failFirstSink) Save(ctx context.Context, record repository.PropertyRecord) error {
	s.mu.Lock()
	shouldFail := !s.failed
	s.failed = true
	s.mu.Unlock()
	if shouldFail {
		return errors.New("sink unavailable")
	}
	return s.memorySink.Save(ctx, record)
}

func TestEngineReleasesQuotaSlotOnSaveFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("page") == "1" {
			fmt.Fprint(w, listingHTML("/plp/a.html", "/plp/b.html"))
			return
		}
		fmt.Fprint(w, listingHTML())
	}))
	defer srv.Close()

	cfg := testConfig()
	cfg.MaxPages = 1
	cfg.ResultsWanted = 1
	sink := &failFirstSink{}
	criteria := SearchCriteria{StartURL: srv.URL + "/search?page=1"}

	saved, err := NewEngine(cfg, criteria, sink).Run(context.Background())

	// The failed save hands its slot back, so the second card fills the
	// quota and the count reflects records actually written.
	require.NoError(t, err)
	assert.Equal(t, 1, saved)
	require.Len(t, sink.all(), 1)
	assert.Equal(t, "Listing 2", sink.all()[0].Title)
}
