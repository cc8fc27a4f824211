package crawler

import (
	"bytes"
	"context"
	"strconv"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"
	"github.com/gocolly/colly/v2/extensions"
	"github.com/gocolly/colly/v2/proxy"

	"github.com/dxb-props/propertyfinder-crawler/internal/config"
	"github.com/dxb-props/propertyfinder-crawler/internal/logger"
	"github.com/dxb-props/propertyfinder-crawler/internal/repository"
	"github.com/dxb-props/propertyfinder-crawler/internal/utils"
)

// Step kinds carried in the request context. Listing pages and detail
// pages share one queue and one worker pool; the context tells the
// response handler which kind of step it is completing.
const (
	stepListing = "listing"
	stepDetail  = "detail"

	ctxStep     = "step"
	ctxPage     = "page"
	ctxCard     = "card"
	ctxAttempts = "attempts"
)

// Engine drives the crawl: it enqueues the first search page, extracts
// cards from every fetched listing page, deduplicates by URL, schedules
// detail fetches, and turns pages until the quota or the page cap is
// reached. All scheduling, parallelism and retry plumbing is delegated to
// the collector; the engine owns only the control decisions and the
// CrawlState.
type Engine struct {
	criteria  SearchCriteria
	cfg       *config.Config
	extractor *Extractor
	state     *CrawlState
	sink      repository.Sink
	collector *colly.Collector
	logger    *logger.Logger
	stats     *CrawlStats
	ctx       context.Context
}

// CrawlStats collects run counters for the final report.
type CrawlStats struct {
	PagesVisited   int
	CardsFound     int
	DetailsFetched int
	RecordsSaved   int
	ErrorsCount    int
	StartTime      time.Time
	mutex          sync.Mutex
}

func NewEngine(cfg *config.Config, criteria SearchCriteria, sink repository.Sink) *Engine {
	e := &Engine{
		criteria:  criteria,
		cfg:       cfg,
		extractor: NewExtractor(),
		state:     NewCrawlState(cfg.ResultsWanted),
		sink:      sink,
		logger:    logger.NewLogger("crawl_engine"),
		stats:     &CrawlStats{StartTime: time.Now()},
	}

	e.collector = e.setupCollector()
	e.setupHandlers()
	return e
}

// Run executes the crawl to completion and returns the number of records
// emitted. Criteria validation failures are the only errors returned; a
// run that finds nothing completes normally with a count of zero.
func (e *Engine) Run(ctx context.Context) (int, error) {
	if err := e.criteria.Validate(); err != nil {
		return 0, err
	}
	e.ctx = ctx

	firstPage, err := BuildSearchURL(e.criteria, 1)
	if err != nil {
		return 0, err
	}

	e.logger.WithFields(map[string]interface{}{
		"start_url":       firstPage,
		"results_wanted":  e.cfg.ResultsWanted,
		"max_pages":       e.cfg.MaxPages,
		"collect_details": e.cfg.CollectDetails,
	}).Info("Starting crawl")

	e.state.MarkPageEnqueued(firstPage)
	e.visitListingPage(firstPage, 1)

	e.collector.Wait()
	e.logFinalStats()

	return e.state.SavedCount(), nil
}

func (e *Engine) setupCollector() *colly.Collector {
	c := colly.NewCollector(colly.Async(true))

	extensions.RandomUserAgent(c)
	extensions.Referer(c)

	c.Limit(&colly.LimitRule{
		DomainGlob:  "*",
		Parallelism: e.cfg.Parallelism,
		Delay:       time.Duration(e.cfg.DelayMS) * time.Millisecond,
	})
	c.SetRequestTimeout(30 * time.Second)

	if len(e.cfg.ProxyURLs) > 0 {
		switcher, err := proxy.RoundRobinProxySwitcher(e.cfg.ProxyURLs...)
		if err != nil {
			// Proxy problems degrade to a direct connection, never abort.
			e.logger.WithError(err).Warn("Failed to configure proxies, using direct connection")
		} else {
			c.SetProxyFunc(switcher)
		}
	}

	return c
}

func (e *Engine) setupHandlers() {
	e.collector.OnRequest(func(r *colly.Request) {
		// Best-effort cancellation: once the quota is met, requests that
		// have not started network I/O are aborted.
		if e.state.Done() {
			r.Abort()
			return
		}
		r.Headers.Set("Accept-Language", "en-US,en;q=0.9")
	})

	e.collector.OnResponse(func(r *colly.Response) {
		doc, err := goquery.NewDocumentFromReader(bytes.NewReader(r.Body))
		if err != nil {
			e.incrementErrors()
			e.logger.WithField("url", r.Request.URL.String()).Error("Failed to parse response body", err)
			e.recoverStep(r)
			return
		}

		switch r.Ctx.Get(ctxStep) {
		case stepListing:
			e.handleListingPage(r, doc)
		case stepDetail:
			e.handleDetailPage(r, doc)
		}
	})

	e.collector.OnError(func(r *colly.Response, err error) {
		attempts, _ := r.Ctx.GetAny(ctxAttempts).(int)
		if attempts < e.cfg.MaxRetries && !e.state.Done() {
			r.Ctx.Put(ctxAttempts, attempts+1)
			e.logger.WithFields(map[string]interface{}{
				"url":     r.Request.URL.String(),
				"attempt": attempts + 1,
			}).Warn("Request failed, retrying")
			if retryErr := r.Request.Retry(); retryErr == nil {
				return
			}
		}

		e.incrementErrors()
		e.logger.WithFields(map[string]interface{}{
			"url":         r.Request.URL.String(),
			"status_code": r.StatusCode,
		}).Error("Request failed after retries", err)
		e.recoverStep(r)
	})
}

// recoverStep keeps the crawl moving after a step is abandoned: a failed
// listing page contributes zero cards but pagination continues, and a
// failed detail fetch falls back to emitting the un-enriched card rather
// than dropping the listing.
func (e *Engine) recoverStep(r *colly.Response) {
	switch r.Ctx.Get(ctxStep) {
	case stepListing:
		page, _ := strconv.Atoi(r.Ctx.Get(ctxPage))
		e.advancePage(page)
	case stepDetail:
		if card, ok := r.Ctx.GetAny(ctxCard).(*repository.PropertyRecord); ok {
			e.logger.WithField("url", card.URL).Warn("Detail fetch abandoned, emitting listing card as-is")
			e.emit(*card)
		}
	}
}

func (e *Engine) handleListingPage(r *colly.Response, doc *goquery.Document) {
	page, _ := strconv.Atoi(r.Ctx.Get(ctxPage))
	e.incrementPagesVisited()

	cards := e.extractor.ExtractListings(doc, r.Request.URL)
	e.addCardsFound(len(cards))

	for i := range cards {
		if e.state.Done() {
			break
		}

		card := cards[i]
		e.normalize(&card)
		if !e.state.AdmitCard(card.URL) {
			continue
		}

		if !e.cfg.CollectDetails {
			e.emit(card)
			continue
		}

		detailCtx := colly.NewContext()
		detailCtx.Put(ctxStep, stepDetail)
		detailCtx.Put(ctxCard, &card)
		if err := e.collector.Request("GET", card.URL, nil, detailCtx, nil); err != nil {
			e.logger.WithField("url", card.URL).WithError(err).Warn("Could not schedule detail fetch, emitting listing card as-is")
			e.emit(card)
		}
	}

	e.advancePage(page)
}

func (e *Engine) handleDetailPage(r *colly.Response, doc *goquery.Document) {
	card, ok := r.Ctx.GetAny(ctxCard).(*repository.PropertyRecord)
	if !ok {
		return
	}
	e.incrementDetailsFetched()

	detail := e.extractor.ExtractDetail(doc, r.Request.URL)
	merged := repository.Merge(*card, detail)
	e.normalize(&merged)
	e.emit(merged)
}

// advancePage makes the pagination decision after page n's cards have been
// processed. Listing pages are enqueued strictly in increasing order; page
// n+1 is only ever requested from here.
func (e *Engine) advancePage(page int) {
	if e.state.Done() {
		return
	}

	if page >= e.cfg.MaxPages {
		// Stop turning pages. Detail steps already scheduled from this
		// page still run to completion and emit their records.
		e.logger.WithField("page", page).Info("Page cap reached")
		return
	}

	nextURL, err := BuildSearchURL(e.criteria, page+1)
	if err != nil {
		e.logger.Error("Failed to build next page URL", err)
		return
	}

	if !e.state.MarkPageEnqueued(nextURL) {
		// Criteria producing a stable URL across page numbers would loop
		// forever; stop paginating.
		e.logger.WithField("url", nextURL).Warn("Next page URL already enqueued, stopping pagination")
		return
	}

	e.visitListingPage(nextURL, page+1)
}

func (e *Engine) visitListingPage(pageURL string, page int) {
	listingCtx := colly.NewContext()
	listingCtx.Put(ctxStep, stepListing)
	listingCtx.Put(ctxPage, strconv.Itoa(page))
	if err := e.collector.Request("GET", pageURL, nil, listingCtx, nil); err != nil {
		e.incrementErrors()
		e.logger.WithField("url", pageURL).Error("Failed to request listing page", err)
	}
}

// emit sends one finished record to the sink. The quota slot is reserved
// first, so emission stops the moment the quota is met even with detail
// steps still in flight.
func (e *Engine) emit(record repository.PropertyRecord) {
	if !e.state.ReserveSlot() {
		return
	}

	if err := e.sink.Save(e.ctx, record); err != nil {
		e.state.ReleaseSlot()
		e.incrementErrors()
		e.logger.WithField("url", record.URL).Error("Failed to save record", err)
		return
	}

	e.incrementRecordsSaved()
	e.logger.WithFields(map[string]interface{}{
		"url":   record.URL,
		"title": record.Title,
		"saved": e.state.SavedCount(),
	}).Info("Record saved")
}

// normalize applies the record defaults: title fallback, regional currency
// and the caller-supplied property type.
func (e *Engine) normalize(record *repository.PropertyRecord) {
	if record.Title == "" {
		record.Title = repository.DefaultTitle
	}
	if record.Currency == "" {
		record.Currency = utils.DefaultCurrency
	}
	if record.PropertyType == "" {
		record.PropertyType = e.criteria.PropertyType
	}
}

func (e *Engine) incrementPagesVisited() {
	e.stats.mutex.Lock()
	defer e.stats.mutex.Unlock()
	e.stats.PagesVisited++
}

func (e *Engine) addCardsFound(n int) {
	e.stats.mutex.Lock()
	defer e.stats.mutex.Unlock()
	e.stats.CardsFound += n
}

func (e *Engine) incrementDetailsFetched() {
	e.stats.mutex.Lock()
	defer e.stats.mutex.Unlock()
	e.stats.DetailsFetched++
}

func (e *Engine) incrementRecordsSaved() {
	e.stats.mutex.Lock()
	defer e.stats.mutex.Unlock()
	e.stats.RecordsSaved++
}

func (e *Engine) incrementErrors() {
	e.stats.mutex.Lock()
	defer e.stats.mutex.Unlock()
	e.stats.ErrorsCount++
}

// GetStats returns a copy of the current counters.
func (e *Engine) GetStats() CrawlStats {
	e.stats.mutex.Lock()
	defer e.stats.mutex.Unlock()
	return CrawlStats{
		PagesVisited:   e.stats.PagesVisited,
		CardsFound:     e.stats.CardsFound,
		DetailsFetched: e.stats.DetailsFetched,
		RecordsSaved:   e.stats.RecordsSaved,
		ErrorsCount:    e.stats.ErrorsCount,
		StartTime:      e.stats.StartTime,
	}
}

func (e *Engine) logFinalStats() {
	stats := e.GetStats()
	e.logger.WithFields(map[string]interface{}{
		"duration":        time.Since(stats.StartTime).String(),
		"pages_visited":   stats.PagesVisited,
		"cards_found":     stats.CardsFound,
		"details_fetched": stats.DetailsFetched,
		"records_saved":   stats.RecordsSaved,
		"errors":          stats.ErrorsCount,
	}).Info("Crawl completed")
}
