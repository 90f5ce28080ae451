// Package pipeline orchestrates the three mining phases end to end and owns
// the progress window layout of a run.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"go.uber.org/zap"

	"github.com/ayzen-labs/leadminer/internal/ai"
	"github.com/ayzen-labs/leadminer/internal/collect"
	"github.com/ayzen-labs/leadminer/internal/extract"
	"github.com/ayzen-labs/leadminer/internal/keywords"
	"github.com/ayzen-labs/leadminer/internal/progress"
	"github.com/ayzen-labs/leadminer/internal/scraper"
	"github.com/ayzen-labs/leadminer/internal/sink"
	"github.com/ayzen-labs/leadminer/internal/verify"
)

// Global progress windows per phase. The gap before 100 leaves room for
// final artifact handling.
const (
	keywordsLo, keywordsHi = 0, 10
	collectLo, collectHi   = 10, 40
	verifyLo, verifyHi     = 40, 70
	extractLo, extractHi   = 70, 98
)

// Deps are the collaborators a Runner needs. Notify and AI may be nil.
type Deps struct {
	Search  scraper.SearchProvider
	Fetcher scraper.Fetcher
	AI      ai.Client
	Notify  scraper.Notifier
	Logger  *zap.Logger

	// CollectOpts tune the collection phase (tests shorten delays).
	CollectOpts []collect.Option
}

// Runner executes complete runs.
type Runner struct {
	deps Deps
}

// New builds a Runner.
func New(deps Deps) *Runner {
	if deps.Notify == nil {
		deps.Notify = noopNotifier{}
	}
	if deps.Logger == nil {
		deps.Logger = zap.NewNop()
	}
	return &Runner{deps: deps}
}

type noopNotifier struct{}

func (noopNotifier) SendText(context.Context, string)             {}
func (noopNotifier) SendDocument(context.Context, string, string) {}

// run carries the mutable state of one execution.
type run struct {
	deps    Deps
	cfg     scraper.RunConfig
	token   *scraper.Token
	rep     progress.Reporter
	notify  scraper.Notifier
	log     *zap.Logger
	start   time.Time
	summary scraper.RunSummary
}

// Run executes the full pipeline for cfg. It always returns a RunSummary;
// failures and cancellation are encoded in the summary outcome so callers can
// always locate whatever partial artifacts exist.
func (r *Runner) Run(ctx context.Context, cfg scraper.RunConfig, token *scraper.Token, rep progress.Reporter) scraper.RunSummary {
	ex := &run{
		deps:   r.deps,
		cfg:    cfg,
		token:  token,
		rep:    rep,
		notify: r.notifier(cfg),
		log: r.deps.Logger.With(
			zap.String("user", cfg.UserName),
			zap.String("run_ts", cfg.Timestamp)),
		start:   time.Now(),
		summary: scraper.RunSummary{Outcome: scraper.OutcomeCompleted},
	}
	return ex.execute(ctx, r)
}

func (ex *run) execute(ctx context.Context, r *Runner) scraper.RunSummary {
	ex.rep.Report(0, fmt.Sprintf("Scraper starting for user %s", ex.cfg.UserName))
	ex.notify.SendText(ctx, fmt.Sprintf("Scraper started by %s | target %d | keywords %s | workers %d",
		ex.cfg.UserName, ex.cfg.TargetDomains, ex.cfg.KeywordMode, ex.cfg.Concurrency))

	// Keywords.
	kwRep := progress.Range(ex.rep, keywordsLo, keywordsHi)
	kwRep.Report(20, "Determining keywords")
	source, err := r.keywordSource(ex.cfg)
	if err != nil {
		return ex.fail(ctx, err)
	}
	kws, err := source.Keywords(ctx)
	if err != nil {
		return ex.fail(ctx, err)
	}
	ex.summary.Keywords = len(kws)
	kwRep.Report(100, fmt.Sprintf("Using %d keywords (%s)", len(kws), ex.cfg.KeywordMode))
	if werr := sink.WriteKeywords(ex.cfg.KeywordsFile(), kws); werr != nil {
		ex.log.Warn("keywords artifact write failed", zap.Error(werr))
	} else {
		ex.summary.Artifacts = append(ex.summary.Artifacts, ex.cfg.KeywordsFile())
	}

	// Phase 1: collect candidate domains.
	collector := collect.New(ex.deps.Search, ex.log, ex.deps.CollectOpts...)
	domains, err := collector.Collect(ctx, kws, ex.cfg.TargetDomains,
		ex.token, progress.Range(ex.rep, collectLo, collectHi))
	ex.summary.DomainsFound = len(domains)
	if err != nil {
		return ex.fail(ctx, err)
	}
	if len(domains) == 0 {
		return ex.finish(ctx, scraper.OutcomeCompleted, "Finished: no domains collected")
	}

	// Phase 2: verify. The partition is saved even on cancellation so
	// partial work survives.
	verifier := verify.New(ex.deps.Fetcher, ex.log, ex.cfg.Concurrency)
	valid, invalid, verr := verifier.Run(ctx, domains, ex.token,
		progress.Range(ex.rep, verifyLo, verifyHi))
	ex.summary.ValidSites = len(valid)
	ex.saveDomains(ctx, ex.cfg.ValidDomainsFile(), valid, "Valid domains")
	ex.saveDomains(ctx, ex.cfg.InvalidDomainsFile(), invalid, "Invalid domains")
	if verr != nil {
		return ex.fail(ctx, verr)
	}
	if len(valid) == 0 {
		return ex.finish(ctx, scraper.OutcomeCompleted, "Finished: no platform sites found")
	}

	// Phase 3: extract contacts, streamed straight to disk.
	contacts, xerr := ex.extract(ctx, valid)
	ex.summary.Contacts = contacts
	if xerr != nil {
		return ex.fail(ctx, xerr)
	}
	return ex.finish(ctx, scraper.OutcomeCompleted,
		fmt.Sprintf("Finished OK (%.1fs). Contacts: %d", time.Since(ex.start).Seconds(), contacts))
}

func (ex *run) extract(ctx context.Context, valid []scraper.Domain) (int, error) {
	contactsSink, err := sink.OpenContacts(ex.cfg.ContactsJSONLFile(), ex.cfg.ContactsCSVFile())
	if err != nil {
		return 0, err
	}
	ex.summary.Artifacts = append(ex.summary.Artifacts,
		ex.cfg.ContactsJSONLFile(), ex.cfg.ContactsCSVFile())

	extractor := extract.New(ex.deps.Fetcher, ex.log, ex.cfg.Concurrency)
	contacts, runErr := extractor.Run(ctx, valid, ex.token,
		progress.Range(ex.rep, extractLo, extractHi), contactsSink)
	if cerr := contactsSink.Close(); cerr != nil {
		ex.log.Warn("contact sink close failed", zap.Error(cerr))
	}
	if contacts > 0 {
		ex.notify.SendDocument(ctx, ex.cfg.ContactsJSONLFile(), fmt.Sprintf("Contacts JSONL (%d sites)", contacts))
		ex.notify.SendDocument(ctx, ex.cfg.ContactsCSVFile(), fmt.Sprintf("Contacts CSV (%d sites)", contacts))
	}
	return contacts, runErr
}

func (ex *run) saveDomains(ctx context.Context, path string, ds []scraper.Domain, caption string) {
	if err := sink.WriteDomainList(path, ds); err != nil {
		ex.log.Warn("domain list write failed", zap.String("path", path), zap.Error(err))
		return
	}
	ex.summary.Artifacts = append(ex.summary.Artifacts, path)
	if len(ds) > 0 {
		ex.notify.SendDocument(ctx, path, fmt.Sprintf("%s (%d)", caption, len(ds)))
	}
}

func (ex *run) finish(ctx context.Context, outcome scraper.OutcomeKind, msg string) scraper.RunSummary {
	ex.summary.Outcome = outcome
	ex.summary.Message = msg
	ex.summary.Elapsed = time.Since(ex.start)
	ex.rep.Report(100, msg)
	ex.notify.SendText(ctx, msg)
	ex.log.Info("run finished",
		zap.String("outcome", string(outcome)),
		zap.String("message", msg),
		zap.Duration("elapsed", ex.summary.Elapsed))
	return ex.summary
}

func (ex *run) fail(ctx context.Context, err error) scraper.RunSummary {
	if errors.Is(err, scraper.ErrCancelled) || errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return ex.finish(ctx, scraper.OutcomeCancelled, "Run cancelled. Partial results saved")
	}
	return ex.finish(ctx, scraper.OutcomeError, fmt.Sprintf("Run failed: %v", err))
}

// keywordSource maps the configured mode onto a concrete source.
func (r *Runner) keywordSource(cfg scraper.RunConfig) (scraper.KeywordSource, error) {
	switch cfg.KeywordMode {
	case scraper.KeywordsAI:
		if r.deps.AI == nil {
			return nil, keywords.ErrMissingKey
		}
		return keywords.Generated{Client: r.deps.AI, Prompt: cfg.AIPrompt}, nil
	case scraper.KeywordsStatic:
		return keywords.Static{List: cfg.KeywordList}, nil
	case scraper.KeywordsDefault, "":
		return keywords.Default{}, nil
	default:
		return nil, fmt.Errorf("pipeline: unknown keyword mode %q", cfg.KeywordMode)
	}
}

// notifier returns the configured notifier only when the run asked for it.
func (r *Runner) notifier(cfg scraper.RunConfig) scraper.Notifier {
	if cfg.Notify && r.deps.Notify != nil {
		return r.deps.Notify
	}
	return noopNotifier{}
}

// ArtifactNames lists just the base names of summary artifacts, the form the
// HTTP API hands to clients for download.
func ArtifactNames(summary scraper.RunSummary) []string {
	names := make([]string, 0, len(summary.Artifacts))
	for _, a := range summary.Artifacts {
		names = append(names, filepath.Base(a))
	}
	return names
}
