package app

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/sayouzone/sayou-healthcare/internal/config"
	"github.com/sayouzone/sayou-healthcare/internal/healthdata"
)

func testConfig(t *testing.T) config.Config {
	t.Helper()
	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.Checkpoint.Dir = t.TempDir()
	return cfg
}

func TestBuildWiresEveryCrawler(t *testing.T) {
	app, err := Build(t.Context(), testConfig(t))
	require.NoError(t, err)
	defer app.Close()

	require.Len(t, app.Crawlers(), 4)
	for _, source := range []healthdata.SourceKind{
		healthdata.SourceNedrug,
		healthdata.SourceHiraDownload,
		healthdata.SourceHiraOpenData,
		healthdata.SourceHealth,
	} {
		c, err := app.Crawler(source)
		require.NoError(t, err)
		require.Equal(t, source, c.Source())
	}

	_, err = app.Crawler("unknown")
	require.Error(t, err)
}

func TestScheduleJobsCarryConfiguredCadences(t *testing.T) {
	cfg := testConfig(t)
	cfg.Schedule.Nedrug = "0 2 1 * *"

	app, err := Build(t.Context(), cfg)
	require.NoError(t, err)
	defer app.Close()

	jobs := app.ScheduleJobs()
	require.Len(t, jobs, 4)
	require.Equal(t, healthdata.SourceNedrug, jobs[0].Crawler.Source())
	require.Equal(t, "0 2 1 * *", jobs[0].Cron)
}
