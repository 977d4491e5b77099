package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/nao1215/pydistro/internal/crawler"
	"github.com/nao1215/pydistro/internal/database"
	"github.com/nao1215/pydistro/internal/extract"
	"github.com/nao1215/pydistro/internal/model"
	"github.com/nao1215/pydistro/internal/report"
)

func modelMatch(d, v, pv string) model.Match {
	return model.Match{Distribution: d, DistVersion: v, PythonVersion: pv, Resource: "python3-" + pv}
}

// siteFetcher serves fixed bodies by URL and writes them into the cache path.
type siteFetcher struct {
	pages    map[string]string
	failURL  string
	requests []string
}

func (f *siteFetcher) EnsureFresh(_ context.Context, url, path string) (bool, error) {
	f.requests = append(f.requests, url)
	if url == f.failURL {
		return false, errors.New("connection reset")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil {
		return false, err
	}
	return true, os.WriteFile(path, []byte(f.pages[url]), 0o600)
}

const listingPage = `<html><body><form>
<select name="distribution">
<option value="">Select Distribution</option>
<option value="fedora">Fedora</option>
<option value="lfs">Linux From Scratch</option>
<option value="arch">Arch</option>
</select></form></body></html>`

func detailPage(versions ...string) string {
	var b strings.Builder
	b.WriteString("<html><body><table><tr><th>Full Package List</th>")
	for _, v := range versions {
		b.WriteString(`<td><a href="#">` + v + `</a></td>`)
	}
	b.WriteString("</tr></table></body></html>")
	return b.String()
}

type fixture struct {
	site    *crawler.Site
	fetcher *siteFetcher
	store   *report.Store
	step    *ScanDistributionsStep
	minors  []model.MinorVersion
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	base := "https://distrowatch.com"
	dir := t.TempDir()
	site := crawler.NewSite(base, filepath.Join(dir, "pages"), filepath.Join(dir, "manifests"))

	fetcher := &siteFetcher{pages: map[string]string{
		site.IndexURL():                     listingPage,
		site.DetailURL("fedora"):            detailPage("26", "25"),
		site.DetailURL("lfs"):               "<html><body><p>no packages</p></body></html>",
		site.DetailURL("arch"):              detailPage("current"),
		site.ManifestURL("fedora", "26"):    "kernel-4.11\npython3-3.6.1-8.fc26.x86_64\n",
		site.ManifestURL("fedora", "25"):    "python3-3.5.3-1.fc25.x86_64\n",
		site.ManifestURL("arch", "current"): "python-3.6.2-1-i686.pkg.tar.xz\n",
	}}

	table := model.NewVersionTable(model.DefaultMinorVersions, model.DefaultMaxMicro)
	store := report.NewStore(filepath.Join(dir, "reports"), table)
	ex := extract.New(fetcher, site, table, quietLogger())

	return &fixture{
		site:    site,
		fetcher: fetcher,
		store:   store,
		step:    NewScanDistributionsStep(fetcher, site, ex, store, table.Minors(), quietLogger()),
		minors:  table.Minors(),
	}
}

func TestScrapePipeline(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)

	p := New(WithLogger(quietLogger()))
	p.AddSteps(
		NewResetReportsStep(fx.store),
		NewFetchIndexStep(fx.fetcher, fx.site),
		fx.step,
	)

	run := NewRun(time.Now())
	if err := p.Execute(context.Background(), run); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if run.Distributions != 3 {
		t.Errorf("expected 3 distributions, got %d", run.Distributions)
	}
	if run.Releases != 3 {
		t.Errorf("expected 3 releases, got %d", run.Releases)
	}
	if run.Attempts != 12 {
		t.Errorf("expected 12 attempts (3 releases x 4 minors), got %d", run.Attempts)
	}
	if run.MatchCount() != 3 {
		t.Errorf("expected 3 matches, got %d", run.MatchCount())
	}

	s36, ok, err := fx.store.Read("3.6")
	if err != nil || !ok {
		t.Fatalf("failed to read 3.6 report: ok=%v err=%v", ok, err)
	}
	if s36.Count() != 2 {
		t.Fatalf("expected 2 rows for 3.6, got %d", s36.Count())
	}
	if s36.Matches[0].Distribution != "fedora" || s36.Matches[0].PythonVersion != "3.6.1" {
		t.Errorf("unexpected first row %+v", s36.Matches[0])
	}
	if s36.Matches[1].Distribution != "arch" || s36.Matches[1].DistVersion != "current" {
		t.Errorf("unexpected second row %+v", s36.Matches[1])
	}

	s35, _, _ := fx.store.Read("3.5")
	if s35.Count() != 1 || s35.Matches[0].DistVersion != "25" {
		t.Errorf("unexpected 3.5 report %+v", s35)
	}
	s34, _, _ := fx.store.Read("3.4")
	if s34.Count() != 0 {
		t.Errorf("expected empty 3.4 report, got %+v", s34)
	}

	if fx.fetcher.requests[0] != fx.site.IndexURL() {
		t.Errorf("expected listing page first, got %s", fx.fetcher.requests[0])
	}
}

func TestScanDistributionsErrors(t *testing.T) {
	t.Parallel()

	t.Run("missing select aborts", func(t *testing.T) {
		t.Parallel()

		fx := newFixture(t)
		fx.fetcher.pages[fx.site.IndexURL()] = "<html><body>down for maintenance</body></html>"
		if _, err := fx.fetcher.EnsureFresh(context.Background(), fx.site.IndexURL(), fx.site.IndexPath()); err != nil {
			t.Fatalf("failed to seed listing page: %v", err)
		}

		err := fx.step.Do(context.Background(), NewRun(time.Now()))
		if !errors.Is(err, crawler.ErrDistributionSelectNotFound) {
			t.Errorf("expected ErrDistributionSelectNotFound, got %v", err)
		}
	})

	t.Run("network failure on a manifest aborts", func(t *testing.T) {
		t.Parallel()

		fx := newFixture(t)
		fx.fetcher.failURL = fx.site.ManifestURL("fedora", "25")
		if err := fx.store.Reset(); err != nil {
			t.Fatalf("failed to reset: %v", err)
		}
		if _, err := fx.fetcher.EnsureFresh(context.Background(), fx.site.IndexURL(), fx.site.IndexPath()); err != nil {
			t.Fatalf("failed to seed listing page: %v", err)
		}

		run := NewRun(time.Now())
		if err := fx.step.Do(context.Background(), run); err == nil {
			t.Fatal("expected error")
		}
		if run.Distributions != 1 {
			t.Errorf("expected to stop in the first distribution, got %d", run.Distributions)
		}
		s36, _, _ := fx.store.Read("3.6")
		if s36.Count() != 1 {
			t.Errorf("rows written before the failure must stay, got %d", s36.Count())
		}
	})
}

func TestFetchIndexStep(t *testing.T) {
	t.Parallel()

	fx := newFixture(t)
	fx.fetcher.failURL = fx.site.IndexURL()

	step := NewFetchIndexStep(fx.fetcher, fx.site)
	if step.Name() != "fetch_index" {
		t.Errorf("unexpected name %s", step.Name())
	}
	if err := step.Do(context.Background(), NewRun(time.Now())); err == nil {
		t.Error("expected error")
	}
}

func TestHistorySteps(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db, err := database.Open(t.TempDir(), database.DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	fx := newFixture(t)

	p := New(WithLogger(quietLogger()))
	p.AddSteps(
		NewStartHistoryStep(db, fx.minors),
		NewResetReportsStep(fx.store),
		NewFetchIndexStep(fx.fetcher, fx.site),
		fx.step,
		NewSaveHistoryStep(db, fx.minors),
	)

	run := NewRun(time.Now())
	if err := p.Execute(ctx, run); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if run.HistoryID == 0 {
		t.Fatal("expected a history run id")
	}

	runs, err := db.ListRuns(ctx, 0)
	if err != nil {
		t.Fatalf("failed to list runs: %v", err)
	}
	if len(runs) != 1 || runs[0].Status != database.StatusCompleted || runs[0].Matches != 3 {
		t.Errorf("unexpected runs %+v", runs)
	}

	matches, err := db.RunMatches(ctx, run.HistoryID)
	if err != nil {
		t.Fatalf("failed to read matches: %v", err)
	}
	if len(matches) != 3 {
		t.Errorf("expected 3 archived matches, got %d", len(matches))
	}
}

func TestSaveHistoryStepAbort(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	db, err := database.Open(t.TempDir(), database.DefaultOptions())
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	step := NewSaveHistoryStep(db, model.DefaultMinorVersions)

	if err := step.Abort(ctx, NewRun(time.Now()), errors.New("ignored")); err != nil {
		t.Errorf("abort without history must be a no-op, got %v", err)
	}

	run := NewRun(time.Now())
	if err := NewStartHistoryStep(db, model.DefaultMinorVersions).Do(ctx, run); err != nil {
		t.Fatalf("failed to start history: %v", err)
	}
	if err := step.Abort(ctx, run, errors.New("connection reset")); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	runs, _ := db.ListRuns(ctx, 0)
	if runs[0].Status != database.StatusFailed || runs[0].Error != "connection reset" {
		t.Errorf("unexpected run %+v", runs[0])
	}
}
