package crawler

import (
	"context"
	"fmt"
	"strconv"

	"github.com/sayouzone/sayou-healthcare/internal/fetcher"
	"github.com/sayouzone/sayou-healthcare/internal/healthdata"
	"github.com/sayouzone/sayou-healthcare/internal/reader"
)

// HealthConfig parameterizes the drug-information site crawl.
type HealthConfig struct {
	SearchURL string
	PageSize  int
}

// Paginator is a fetcher that can also walk paginated listings.
type Paginator interface {
	healthdata.Fetcher
	Paginate(tmpl fetcher.PageTemplate) healthdata.PageIterator
}

// Health crawls the drug-information site's search results. The site
// groups medicines by leading Korean consonant; the crawl pages
// through every group at a fixed page size until a short page signals
// the end of the group.
type Health struct {
	cfg     HealthConfig
	fetcher Paginator
	markup  *reader.MarkupReader
	deps    Deps
}

func NewHealth(cfg HealthConfig, f Paginator, deps Deps) *Health {
	deps = deps.withDefaults()
	return &Health{
		cfg:     cfg,
		fetcher: f,
		markup:  reader.NewMarkup(deps.Logger),
		deps:    deps,
	}
}

func (c *Health) Source() healthdata.SourceKind { return healthdata.SourceHealth }

func (c *Health) Crawl(ctx context.Context) (healthdata.CrawlResult, error) {
	r, err := newRun(c.Source(), c.deps)
	if err != nil {
		return healthdata.CrawlResult{}, err
	}
	r.result.Origin = c.cfg.SearchURL

	var rows []healthdata.RawRow
	for _, initial := range reader.KoreanInitials {
		iter := c.fetcher.Paginate(fetcher.PageTemplate{
			Request: func(page int) healthdata.FetchRequest {
				return c.searchRequest(initial, page+1)
			},
			Done: func(page healthdata.RawPage) bool {
				return reader.RowCount(page.Body) < c.cfg.PageSize
			},
		})

		for {
			r.enter(healthdata.StageFetching)
			page, ok, err := iter.Next(ctx)
			if err != nil {
				return r.fail(err)
			}
			if !ok {
				break
			}

			r.enter(healthdata.StageParsing)
			tables, err := c.markup.Read(ctx, healthdata.RawArtifact{
				Name:      fmt.Sprintf("%s-page-%d", initial, page.Index+1),
				Kind:      healthdata.ArtifactMarkup,
				Body:      page.Body,
				SourceURL: page.URL,
			})
			if err != nil {
				return r.fail(err)
			}
			for _, table := range tables {
				rows = append(rows, table.Rows...)
			}
		}
	}

	r.enter(healthdata.StageNormalizing)
	batch, err := c.deps.Normalizer.Normalize(healthdata.RawTable{
		Kind:   healthdata.KindMedicine,
		Origin: c.cfg.SearchURL,
		Rows:   rows,
	}, c.Source())
	if err != nil {
		return r.fail(err)
	}
	r.absorb(batch)

	return r.finish()
}

// searchRequest shapes the result_more form post for one consonant
// group and page. Pages are numbered from 1.
func (c *Health) searchRequest(initial string, page int) healthdata.FetchRequest {
	form := map[string]string{
		"req_page":                   strconv.Itoa(page),
		"listup":                     strconv.Itoa(c.cfg.PageSize),
		"search_drugnm_initial":      initial,
		"inner_search_word":          "",
		"origin_cnt":                 "",
		"inner_search_flag":          "",
		"inner_match_value":          "",
		"input_drug_nm":              "",
		"input_upsoNm":               "",
		"cbx_sunbcnt":                "0",
		"cbx_class":                  "0",
		"anchor_dosage_route_hidden": "",
		"mfds_cd":                    "",
		"mfds_cdword":                "",
		"input_hiraingdcd":           "",
		"search_sunb1":               "",
		"search_sunb2":               "",
		"search_sunb3":               "",
		"sunb_equals1":               "",
		"sunb_equals2":               "",
		"sunb_equals3":               "",
		"sunb_where1":                "and",
		"sunb_where2":                "and",
		"search_effect":              "",
		"cbx_bohtype":                "",
		"search_bohcode":             "",
		"anchor_form_info_hidden":    "",
		"cbx_narcotic":               "",
		"atccode_val":                "",
		"atccode_name":               "",
		"kpic_atc_nm_opener":         "",
		"kpic_atc_nm":                "",
		"cbx_bio":                    "",
		"icode":                      "",
		"ori_search_word":            "",
		"search_flag":                "",
		"movefrom":                   "drug",
		"viewmode":                   "",
		"more":                       "",
	}
	return healthdata.FetchRequest{
		URL:    c.cfg.SearchURL,
		Method: "POST",
		Form:   form,
	}
}
