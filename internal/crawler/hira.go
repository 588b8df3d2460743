package crawler

import (
	"bytes"
	"context"
	"net/url"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/sayouzone/sayou-healthcare/internal/healthdata"
	"github.com/sayouzone/sayou-healthcare/internal/locator"
	"github.com/sayouzone/sayou-healthcare/internal/reader"
)

// HiraDownloadConfig parameterizes the insurance-review agency's
// pricing-board crawl.
type HiraDownloadConfig struct {
	ListingURL  string
	DownloadURL string
}

// HiraDownload crawls the agency's notice board for the newest drug
// pricing list and downloads the attached spreadsheet.
type HiraDownload struct {
	cfg     HiraDownloadConfig
	fetcher healthdata.Fetcher
	sheets  *reader.SpreadsheetReader
	deps    Deps
}

func NewHiraDownload(cfg HiraDownloadConfig, f healthdata.Fetcher, deps Deps) *HiraDownload {
	deps = deps.withDefaults()
	return &HiraDownload{
		cfg:     cfg,
		fetcher: f,
		sheets: reader.NewSpreadsheet(reader.SpreadsheetConfig{
			Kind:      healthdata.KindMedicine,
			KeyColumn: "제품코드",
		}, deps.Logger),
		deps: deps,
	}
}

func (c *HiraDownload) Source() healthdata.SourceKind { return healthdata.SourceHiraDownload }

func (c *HiraDownload) Crawl(ctx context.Context) (healthdata.CrawlResult, error) {
	r, err := newRun(c.Source(), c.deps)
	if err != nil {
		return healthdata.CrawlResult{}, err
	}

	r.enter(healthdata.StageLocating)
	listing, err := c.fetcher.Fetch(ctx, healthdata.FetchRequest{URL: c.cfg.ListingURL})
	if err != nil {
		return r.fail(err)
	}
	candidates, err := parseBoardListing(listing.Body)
	if err != nil {
		return r.fail(err)
	}
	target, err := locator.Resolve(candidates)
	if err != nil {
		return r.fail(err)
	}

	r.enter(healthdata.StageFetching)
	artifact, err := c.fetcher.Fetch(ctx, healthdata.FetchRequest{
		URL: c.cfg.DownloadURL,
		Query: map[string]string{
			"apndNo":       "1",
			"apndBrdBltNo": target.Handle,
			"apndBrdTyNo":  "1",
			"apndBltNo":    "59",
		},
		Referer: c.cfg.ListingURL,
	})
	if err != nil {
		return r.fail(err)
	}
	r.result.Origin = artifact.Name
	r.retain(artifact)

	r.enter(healthdata.StageParsing)
	tables, err := c.sheets.Read(ctx, artifact)
	if err != nil {
		return r.fail(err)
	}

	r.enter(healthdata.StageNormalizing)
	for _, table := range tables {
		batch, err := c.deps.Normalizer.Normalize(table, c.Source())
		if err != nil {
			return r.fail(err)
		}
		r.absorb(batch)
	}

	return r.finish()
}

// parseBoardListing scrapes the notice-board table into candidate
// descriptors. The posting number comes from the title link's query
// string, the publish date from the fourth cell of each row.
func parseBoardListing(body []byte) ([]healthdata.SourceDescriptor, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}

	var candidates []healthdata.SourceDescriptor
	doc.Find("div.tb-type01 table tbody tr").Each(func(_ int, tr *goquery.Selection) {
		link := tr.Find("td.col-tit a")
		href, ok := link.Attr("href")
		if !ok {
			return
		}
		values, err := url.ParseQuery(strings.TrimPrefix(href, "?"))
		if err != nil {
			return
		}
		candidates = append(candidates, healthdata.SourceDescriptor{
			Filename:    strings.TrimSpace(link.Text()),
			PublishedAt: parseBoardDate(tr.Find("td").Eq(3).Text()),
			Handle:      values.Get("brdBltNo"),
		})
	})
	return candidates, nil
}

func parseBoardDate(s string) time.Time {
	s = strings.TrimSpace(s)
	for _, layout := range []string{"2006-01-02", "2006.01.02"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}

// HiraOpenDataConfig parameterizes the open-data portal crawl.
type HiraOpenDataConfig struct {
	PageURL   string
	UploadURL string
}

// fileDownPattern recovers upload-handler codes from the portal page's
// onclick handlers.
var fileDownPattern = regexp.MustCompile(`fn_fileDown\('(.+?)'\)`)

// HiraOpenData crawls the agency's open-data portal for the national
// hospital and pharmacy roster archive.
type HiraOpenData struct {
	cfg     HiraOpenDataConfig
	fetcher healthdata.Fetcher
	deps    Deps
}

func NewHiraOpenData(cfg HiraOpenDataConfig, f healthdata.Fetcher, deps Deps) *HiraOpenData {
	return &HiraOpenData{cfg: cfg, fetcher: f, deps: deps.withDefaults()}
}

func (c *HiraOpenData) Source() healthdata.SourceKind { return healthdata.SourceHiraOpenData }

func (c *HiraOpenData) Crawl(ctx context.Context) (healthdata.CrawlResult, error) {
	r, err := newRun(c.Source(), c.deps)
	if err != nil {
		return healthdata.CrawlResult{}, err
	}

	r.enter(healthdata.StageLocating)
	page, err := c.fetcher.Fetch(ctx, healthdata.FetchRequest{URL: c.cfg.PageURL})
	if err != nil {
		return r.fail(err)
	}
	code, err := latestUploadCode(page.Body)
	if err != nil {
		return r.fail(err)
	}

	r.enter(healthdata.StageFetching)
	artifact, err := c.fetcher.Fetch(ctx, healthdata.FetchRequest{
		URL:     c.cfg.UploadURL,
		Method:  "POST",
		Form:    map[string]string{"customValue": code},
		Referer: c.cfg.PageURL,
	})
	if err != nil {
		return r.fail(err)
	}
	r.result.Origin = artifact.Name
	r.retain(artifact)

	r.enter(healthdata.StageParsing)
	archive := reader.NewArchive(reader.ArchiveConfig{
		Patterns: []reader.MemberPattern{
			{Match: "1.병원정보서비스", Kind: healthdata.KindHospital, KeyColumn: "암호화요양기호"},
			{Match: "2.약국정보서비스", Kind: healthdata.KindPharmacy, KeyColumn: "암호화요양기호"},
		},
	}, c.deps.Logger)
	defer archive.Cleanup()

	tables, err := archive.Read(ctx, artifact)
	if err != nil {
		return r.fail(err)
	}
	r.result.ExtractedPaths = archive.Extracted()
	for _, member := range archive.Members() {
		r.retain(healthdata.RawArtifact{
			Name:        filepath.Base(member.Name),
			ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
			Body:        member.Body,
			SourceURL:   artifact.SourceURL,
		})
	}

	r.enter(healthdata.StageNormalizing)
	for _, table := range tables {
		batch, err := c.deps.Normalizer.Normalize(table, c.Source())
		if err != nil {
			return r.fail(err)
		}
		r.absorb(batch)
	}

	return r.finish()
}

// latestUploadCode picks the newest roster publication. Codes embed the
// publication sequence, so the lexically greatest one is the latest.
func latestUploadCode(body []byte) (string, error) {
	matches := fileDownPattern.FindAllSubmatch(body, -1)
	if len(matches) == 0 {
		return "", healthdata.ErrNoCandidate
	}
	codes := make([]string, 0, len(matches))
	for _, m := range matches {
		codes = append(codes, string(m[1]))
	}
	sort.Sort(sort.Reverse(sort.StringSlice(codes)))
	return codes[0], nil
}
