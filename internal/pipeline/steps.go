package pipeline

import (
	"context"
	"fmt"
	"regexp"

	"github.com/kadoya0703/kakeibo/internal/logger"
	"github.com/kadoya0703/kakeibo/internal/receipt"
	"github.com/kadoya0703/kakeibo/internal/store"
	"github.com/kadoya0703/kakeibo/internal/tagging"
)

// Step is a single stage of processing one receipt image.
type Step interface {
	Execute(ctx context.Context, state *State) error
}

// State is the shared state carried across the steps for one image.
type State struct {
	SourcePath   string
	Raw          map[string]any
	Result       *receipt.Result
	ID           string
	Period       store.Period
	SnapshotName string
}

// AnalyzeStep sends the image to the OCR service.
type AnalyzeStep struct {
	OCR OCRClient
}

func (s *AnalyzeStep) Execute(ctx context.Context, state *State) error {
	raw, err := s.OCR.Analyze(ctx, state.SourcePath)
	if err != nil {
		return fmt.Errorf("analyze %s: %w", state.SourcePath, err)
	}
	state.Raw = raw
	return nil
}

// NormalizeStep turns the raw OCR tree into a normalized receipt. A
// document without items gets a pseudo-item here, so later steps always
// see at least one item.
type NormalizeStep struct{}

func (s *NormalizeStep) Execute(ctx context.Context, state *State) error {
	result, err := receipt.Normalize(ctx, state.Raw, state.SourcePath)
	if err != nil {
		return err
	}
	state.Result = result
	return nil
}

// TagStep asks the tagger to classify the items and reconciles the reply
// onto them. Tagger failures are absorbed: the reconciler falls back to
// unknown tags and the receipt still gets persisted.
type TagStep struct {
	Tagger ItemTagger
}

func (s *TagStep) Execute(ctx context.Context, state *State) error {
	log := logger.FromContext(ctx)

	payload, err := tagging.ItemsPayload(state.Result.Items)
	if err != nil {
		return fmt.Errorf("build items payload: %w", err)
	}

	reply, err := s.Tagger.TagItems(ctx, payload)
	if err != nil {
		log.Error().Err(err).Str("source", state.SourcePath).
			Msg("item tagging failed, keeping items as unknown")
		reply = ""
	}

	receipt.Reconcile(ctx, state.Result.Items, reply)
	return nil
}

// IdentifyStep derives the receipt ID and the period its artifacts are
// stored under.
type IdentifyStep struct {
	InvalidChars *regexp.Regexp
}

func (s *IdentifyStep) Execute(ctx context.Context, state *State) error {
	state.ID = receipt.BuildID(state.Result, s.InvalidChars)
	year, month := receipt.StoragePeriod(state.Result, state.ID)
	state.Period = store.Period{Year: year, Month: month}
	return nil
}

// PersistStep writes the JSON snapshot first, then the ledger rows that
// reference it.
type PersistStep struct {
	Store *store.Store
}

func (s *PersistStep) Execute(ctx context.Context, state *State) error {
	snapshotName, err := s.Store.SaveSnapshot(state.Result, state.ID, state.Period.Year)
	if err != nil {
		return fmt.Errorf("save snapshot for %s: %w", state.ID, err)
	}
	state.SnapshotName = snapshotName

	rows := store.BuildRows(state.Result, state.ID, snapshotName)
	if err := s.Store.AppendLedger(state.Period, rows); err != nil {
		return fmt.Errorf("append ledger for %s: %w", state.ID, err)
	}
	return nil
}

// Pipeline executes a sequence of steps in order.
type Pipeline struct {
	steps []Step
}

func NewPipeline(steps ...Step) *Pipeline {
	return &Pipeline{steps: steps}
}

// Execute runs all steps sequentially, stopping at the first failure.
func (p *Pipeline) Execute(ctx context.Context, state *State) error {
	for _, step := range p.steps {
		if err := step.Execute(ctx, state); err != nil {
			return err
		}
	}
	return nil
}

// NewReceiptPipeline assembles the standard analyze, normalize, tag,
// identify, persist sequence.
func NewReceiptPipeline(ocr OCRClient, tagger ItemTagger, st *store.Store, invalidChars *regexp.Regexp) *Pipeline {
	return NewPipeline(
		&AnalyzeStep{OCR: ocr},
		&NormalizeStep{},
		&TagStep{Tagger: tagger},
		&IdentifyStep{InvalidChars: invalidChars},
		&PersistStep{Store: st},
	)
}
