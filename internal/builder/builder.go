package builder

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"

	"sipbuilder/internal/compile"
	"sipbuilder/internal/config"
	"sipbuilder/internal/ip"
	"sipbuilder/internal/logging"
	"sipbuilder/internal/metadata"
	"sipbuilder/internal/report"
	"sipbuilder/internal/schema"
	"sipbuilder/internal/services"
	"sipbuilder/internal/sipfile"
	"sipbuilder/internal/store"
	"sipbuilder/internal/validate"
)

// Stage names recorded in reports and progress updates.
const (
	StageExtract    = "extract"
	StageSynthesize = "synthesize"
	StageValidate   = "validate"
	StageAssemble   = "assemble"
)

// Result is the terminal outcome of one build.
type Result struct {
	BuildID    string
	Status     store.Status
	OutputPath string
	Report     *report.Report
	Documents  map[compile.Kind]*compile.Document
}

// Builder runs the SIP build pipeline: extract, synthesize, validate,
// assemble. Per-document failures are non-fatal; the pipeline carries on and
// surfaces them in the report, failing the build at the end. Assembly always
// runs with whatever documents were produced, and a partially written SIP is
// left in place for inspection.
type Builder struct {
	cfg       *config.Config
	store     *store.Store
	registry  *schema.Registry
	validator *validate.Validator
	assembler *sipfile.Assembler
	compilers []compile.Compiler
	logger    *slog.Logger
}

// New wires a builder from configuration with the default document compilers.
// The store may be nil for one-shot builds that need no persistence.
func New(cfg *config.Config, st *store.Store, validator *validate.Validator, logger *slog.Logger) *Builder {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Builder{
		cfg:       cfg,
		store:     st,
		registry:  schema.NewRegistry(cfg.Validation),
		validator: validator,
		assembler: sipfile.NewAssembler(logger),
		compilers: compile.Compilers(),
		logger:    logger,
	}
}

// Run executes one build for the information package at ipPath, allocating a
// fresh uniquely named output directory. The returned result is non-nil
// whenever a build was started, including failed builds; the error reports
// why a failed build failed.
func (b *Builder) Run(ctx context.Context, ipPath string) (*Result, error) {
	return b.run(ctx, ipPath, "")
}

// RunTo is Run with an explicit output directory, resolved against the
// configured output root unless absolute. The directory must not already
// exist.
func (b *Builder) RunTo(ctx context.Context, ipPath, outputTarget string) (*Result, error) {
	return b.run(ctx, ipPath, outputTarget)
}

func (b *Builder) run(ctx context.Context, ipPath, outputTarget string) (*Result, error) {
	record, err := b.createRecord(ctx, ipPath)
	if err != nil {
		return nil, err
	}

	ctx = services.WithBuildID(ctx, record.ID)
	logger := logging.WithContext(ctx, b.logger)
	rep := report.New(record.ID)
	result := &Result{
		BuildID:   record.ID,
		Report:    rep,
		Documents: make(map[compile.Kind]*compile.Document),
	}

	logger.Info("build started", slog.String("ip_path", ipPath))

	meta, err := b.extract(ctx, record, rep, ipPath)
	if err != nil {
		return b.finish(ctx, record, rep, result, store.StatusFailed, err)
	}

	pkg := meta.pkg
	b.synthesize(ctx, record, rep, result, meta.meta)
	failed := b.validate(ctx, record, rep, result)

	if err := b.assemble(ctx, record, rep, result, pkg, outputTarget); err != nil {
		return b.finish(ctx, record, rep, result, store.StatusFailed, err)
	}

	if failed {
		return b.finish(ctx, record, rep, result, store.StatusFailed,
			services.Wrap(services.ErrValidation, StageValidate, "finish build",
				"one or more documents failed, see build report", nil))
	}
	return b.finish(ctx, record, rep, result, store.StatusCompleted, nil)
}

type extracted struct {
	pkg  *ip.IP
	meta *metadata.Metadata
}

func (b *Builder) extract(ctx context.Context, record *store.Build, rep *report.Report, ipPath string) (*extracted, error) {
	_, err := b.transition(ctx, record, rep, store.StatusExtracting, StageExtract)
	if err != nil {
		return nil, err
	}

	pkg, err := ip.Load(b.cfg.ResolveIPPath(ipPath))
	if err != nil {
		rep.Error(StageExtract, "", err.Error())
		return nil, err
	}
	meta, err := metadata.Extract(pkg)
	if err != nil {
		rep.Error(StageExtract, "", err.Error())
		return nil, err
	}
	for _, warning := range meta.Warnings {
		rep.Warning(StageExtract, "", warning)
	}
	rep.Info(StageExtract, fmt.Sprintf("extracted metadata for %s", meta.CompositeIdentifier))
	return &extracted{pkg: pkg, meta: meta}, nil
}

// synthesize runs every compiler, recording failures per document instead of
// aborting.
func (b *Builder) synthesize(ctx context.Context, record *store.Build, rep *report.Report, result *Result, meta *metadata.Metadata) {
	ctx, err := b.transition(ctx, record, rep, store.StatusSynthesizing, StageSynthesize)
	if err != nil {
		return
	}
	logger := logging.WithContext(ctx, b.logger)

	for _, compiler := range b.compilers {
		kind := compiler.Kind()
		doc, err := compiler.Compile(meta)
		if err != nil {
			rep.Error(StageSynthesize, string(kind), err.Error())
			_ = rep.SetDocument(report.DocumentResult{Kind: kind, Error: err.Error()})
			logger.Warn("document synthesis failed",
				slog.String(logging.FieldDocument, string(kind)), logging.Error(err))
			continue
		}
		result.Documents[kind] = doc
		rep.Info(StageSynthesize, fmt.Sprintf("synthesized %s (%d bytes)", kind, len(doc.Data)))
	}
}

// validate checks every synthesized document and reports whether the build
// must fail: a mandatory document that is missing or rejected by its schema.
// Absent non-mandatory documents were already reported by synthesize and only
// warn.
func (b *Builder) validate(ctx context.Context, record *store.Build, rep *report.Report, result *Result) bool {
	ctx, err := b.transition(ctx, record, rep, store.StatusValidating, StageValidate)
	if err != nil {
		return true
	}

	failed := false
	for _, kind := range compile.AllKinds() {
		doc, ok := result.Documents[kind]
		if !ok {
			if b.mandatory(kind) {
				failed = true
			}
			continue
		}

		if err := b.validator.Validate(ctx, doc); err != nil {
			failed = true
			rep.Error(StageValidate, string(kind), err.Error())
			_ = rep.SetDocument(report.DocumentResult{Kind: kind, Synthesized: true, Error: err.Error()})
			if ctx.Err() != nil || services.IsFatal(err) {
				return true
			}
			continue
		}

		for _, warning := range doc.Outcome.Warnings {
			rep.Warning(StageValidate, string(kind), warning)
		}
		if !doc.Outcome.Accepted() && b.mandatory(kind) {
			failed = true
			rep.Error(StageValidate, string(kind),
				fmt.Sprintf("mandatory document rejected by schema %q", doc.Outcome.SchemaName))
		} else if !doc.Outcome.Accepted() {
			rep.Warning(StageValidate, string(kind),
				fmt.Sprintf("document rejected by schema %q", doc.Outcome.SchemaName))
		}
		_ = rep.SetDocument(report.DocumentResult{Kind: kind, Synthesized: true, Outcome: doc.Outcome})
	}
	return failed
}

// assemble writes the SIP layout. It runs even for partially generated
// document sets so a failed build leaves inspectable output.
func (b *Builder) assemble(ctx context.Context, record *store.Build, rep *report.Report, result *Result, pkg *ip.IP, outputTarget string) error {
	ctx, err := b.transition(ctx, record, rep, store.StatusAssembling, StageAssemble)
	if err != nil {
		return err
	}

	outputDir, err := b.outputDir(outputTarget)
	if err != nil {
		rep.Error(StageAssemble, "", err.Error())
		return err
	}
	result.OutputPath = outputDir
	record.OutputPath = outputDir

	layout := sipfile.NewLayout(outputDir)
	if err := b.assembler.Write(ctx, pkg, result.Documents, layout); err != nil {
		rep.Error(StageAssemble, "", err.Error())
		return err
	}
	rep.Info(StageAssemble, fmt.Sprintf("assembled SIP at %s", outputDir))
	return nil
}

// outputDir resolves the build's output directory: an explicit target is
// created in place, anything else is allocated uniquely under the root.
func (b *Builder) outputDir(target string) (string, error) {
	if target == "" {
		return sipfile.AllocateOutputDir(b.cfg.OutputRoot(), b.cfg.Build.OutputRetries)
	}
	dir := target
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(b.cfg.OutputRoot(), dir)
	}
	if err := os.MkdirAll(filepath.Dir(dir), 0o755); err != nil {
		return "", services.Wrap(services.ErrTransient, StageAssemble, "allocate output",
			fmt.Sprintf("creating parent of %s", dir), err)
	}
	if err := os.Mkdir(dir, 0o755); err != nil {
		if os.IsExist(err) {
			return "", services.Wrap(services.ErrConfiguration, StageAssemble, "allocate output",
				fmt.Sprintf("output directory %s already exists", dir), err)
		}
		return "", services.Wrap(services.ErrTransient, StageAssemble, "allocate output",
			fmt.Sprintf("creating %s", dir), err)
	}
	return dir, nil
}

// mandatory reports whether rejection of the kind fails the build.
func (b *Builder) mandatory(kind compile.Kind) bool {
	refs := b.registry.Resolve(kind)
	return len(refs) > 0 && refs[0].Mandatory
}

func (b *Builder) createRecord(ctx context.Context, ipPath string) (*store.Build, error) {
	if b.store == nil {
		return &store.Build{ID: uuid.NewString(), IPPath: ipPath, Status: store.StatusPending}, nil
	}
	return b.store.Create(ctx, ipPath)
}

// transition advances the persisted build status, stamps the report, and
// returns the context annotated with the stage name so stage logs carry it. A
// cancelled context fails the transition so stages never start after
// cancellation.
func (b *Builder) transition(ctx context.Context, record *store.Build, rep *report.Report, status store.Status, stage string) (context.Context, error) {
	if err := ctx.Err(); err != nil {
		rep.Error(stage, "", fmt.Sprintf("build cancelled: %v", err))
		return ctx, err
	}
	ctx = services.WithStage(ctx, stage)
	record.Status = status
	record.ProgressStage = stage
	rep.Info(stage, fmt.Sprintf("entering stage %s", stage))
	return ctx, b.pushRecord(ctx, record, rep)
}

// finish seals the report, persists the terminal state, and shapes the
// returned result.
func (b *Builder) finish(ctx context.Context, record *store.Build, rep *report.Report, result *Result, status store.Status, cause error) (*Result, error) {
	if cause != nil {
		record.ErrorMessage = cause.Error()
	}
	if err := rep.Finalize(string(status), status == store.StatusCompleted); err != nil {
		logging.WithContext(ctx, b.logger).Warn("report finalize failed", logging.Error(err))
	}
	record.Status = status
	result.Status = status
	if err := b.pushRecord(ctx, record, rep); err != nil {
		logging.WithContext(ctx, b.logger).Warn("persisting terminal build state failed", logging.Error(err))
	}

	logger := logging.WithContext(ctx, b.logger)
	if status == store.StatusCompleted {
		logger.Info("build completed", slog.String("output", result.OutputPath))
	} else {
		logger.Warn("build failed", logging.Error(cause))
	}
	return result, cause
}

func (b *Builder) pushRecord(ctx context.Context, record *store.Build, rep *report.Report) error {
	if err := record.SetReport(rep.Snapshot()); err != nil {
		return err
	}
	if b.store == nil {
		return nil
	}
	return b.store.Update(ctx, record)
}
