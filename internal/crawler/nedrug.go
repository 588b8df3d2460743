package crawler

import (
	"context"
	"strconv"

	"github.com/sayouzone/sayou-healthcare/internal/healthdata"
	"github.com/sayouzone/sayou-healthcare/internal/reader"
)

// NedrugConfig parameterizes the drug-safety registry crawl.
type NedrugConfig struct {
	ExcelURL string
	PageSize int
}

// Nedrug crawls the drug-safety registry's Excel export. The export is
// paged by a row offset; the crawl posts for consecutive pages until
// one comes back empty.
type Nedrug struct {
	cfg     NedrugConfig
	fetcher healthdata.Fetcher
	sheets  *reader.SpreadsheetReader
	deps    Deps
}

func NewNedrug(cfg NedrugConfig, f healthdata.Fetcher, deps Deps) *Nedrug {
	deps = deps.withDefaults()
	return &Nedrug{
		cfg:     cfg,
		fetcher: f,
		sheets: reader.NewSpreadsheet(reader.SpreadsheetConfig{
			Kind:      healthdata.KindMedicine,
			KeyColumn: "품목기준코드",
		}, deps.Logger),
		deps: deps,
	}
}

func (c *Nedrug) Source() healthdata.SourceKind { return healthdata.SourceNedrug }

func (c *Nedrug) Crawl(ctx context.Context) (healthdata.CrawlResult, error) {
	r, err := newRun(c.Source(), c.deps)
	if err != nil {
		return healthdata.CrawlResult{}, err
	}

	var rows []healthdata.RawRow
	for page := 0; ; page++ {
		r.enter(healthdata.StageFetching)
		artifact, err := c.fetcher.Fetch(ctx, c.excelRequest(page))
		if err != nil {
			return r.fail(err)
		}

		r.enter(healthdata.StageParsing)
		tables, err := c.sheets.Read(ctx, artifact)
		if err != nil {
			return r.fail(err)
		}
		pageRows := 0
		for _, table := range tables {
			pageRows += len(table.Rows)
			rows = append(rows, table.Rows...)
		}
		if pageRows == 0 {
			break
		}
		if page == 0 {
			r.result.Origin = artifact.Name
		}
		r.retain(artifact)
	}

	r.enter(healthdata.StageNormalizing)
	batch, err := c.deps.Normalizer.Normalize(healthdata.RawTable{
		Kind:   healthdata.KindMedicine,
		Origin: r.result.Origin,
		Rows:   rows,
	}, c.Source())
	if err != nil {
		return r.fail(err)
	}
	r.absorb(batch)

	return r.finish()
}

// excelRequest shapes the export form post. The registry expects the
// full detail-search field set even when every filter is blank.
func (c *Nedrug) excelRequest(page int) healthdata.FetchRequest {
	form := map[string]string{
		"ExcelRowdata":     strconv.Itoa(page * c.cfg.PageSize),
		"excelSearchCnt":   strconv.Itoa(c.cfg.PageSize),
		"page":             "1",
		"sort":             "",
		"sortOrder":        "",
		"searchYn":         "",
		"searchDivision":   "detail",
		"itemName":         "",
		"itemEngName":      "",
		"entpName":         "",
		"entpEngName":      "",
		"ingrName1":        "",
		"ingrName2":        "",
		"ingrName3":        "",
		"ingrEngName":      "",
		"itemSeq":          "",
		"stdrCodeName":     "",
		"atcCodeName":      "",
		"indutyClassCode":  "",
		"sClassNo":         "",
		"narcoticKindCode": "",
		"cancelCode":       "",
		"etcOtcCode":       "",
		"makeMaterialGb":   "",
		"searchConEe":      "AND",
		"eeDocData":        "",
		"searchConUd":      "AND",
		"udDocData":        "",
		"searchConNb":      "AND",
		"nbDocData":        "",
		"startPermitDate":  "",
		"endPermitDate":    "",
	}
	return healthdata.FetchRequest{
		URL:    c.cfg.ExcelURL,
		Method: "POST",
		Form:   form,
	}
}
