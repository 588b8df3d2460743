package fetcher

import (
	"context"

	"github.com/sayouzone/sayou-healthcare/internal/healthdata"
)

// PageTemplate shapes the requests of a paginated listing. Each page
// request is independent; the iterator carries no portal-side state.
type PageTemplate struct {
	// Request builds the fetch request for the given zero-based page index.
	Request func(page int) healthdata.FetchRequest
	// Done reports whether the page just fetched is the final one, e.g.
	// because it returned fewer rows than the page size. The short (or
	// empty) page is still yielded before iteration stops.
	Done func(page healthdata.RawPage) bool
}

// Paginate returns a fresh lazy iterator over the listing. Re-calling
// Paginate restarts from the first page and re-issues every request;
// nothing is cached across iterations.
func (f *Fetcher) Paginate(tmpl PageTemplate) healthdata.PageIterator {
	return &pageIterator{fetcher: f, tmpl: tmpl}
}

type pageIterator struct {
	fetcher *Fetcher
	tmpl    PageTemplate
	next    int
	done    bool
}

// Next fetches the following page. The boolean is false once the sequence
// is exhausted.
func (it *pageIterator) Next(ctx context.Context) (healthdata.RawPage, bool, error) {
	if it.done {
		return healthdata.RawPage{}, false, nil
	}

	req := it.tmpl.Request(it.next)
	artifact, err := it.fetcher.Fetch(ctx, req)
	if err != nil {
		it.done = true
		return healthdata.RawPage{}, false, err
	}

	page := healthdata.RawPage{
		Index: it.next,
		Body:  artifact.Body,
		URL:   artifact.SourceURL,
	}
	it.next++
	if it.tmpl.Done != nil && it.tmpl.Done(page) {
		it.done = true
	}
	return page, true, nil
}
