// Package pipeline runs the per-receipt processing sequence and the batch
// loop over the input directory: OCR analysis, normalization, AI tagging,
// identity resolution, and persistence to the snapshot and ledger stores.
package pipeline

import (
	"context"
	"errors"
	"regexp"

	"github.com/google/uuid"

	"github.com/kadoya0703/kakeibo/internal/logger"
	"github.com/kadoya0703/kakeibo/internal/receipt"
	"github.com/kadoya0703/kakeibo/internal/store"
)

// InvalidFilenameChars matches the characters replaced with underscores
// when a merchant name is embedded in a receipt ID.
var InvalidFilenameChars = regexp.MustCompile(`[\\/:*?"<>|]+`)

// Processor owns the collaborators and directories for one batch run.
type Processor struct {
	pipeline     *Pipeline
	store        *store.Store
	inputDir     string
	processedDir string
	errorDir     string
	imageExts    []string
}

func NewProcessor(ocr OCRClient, tagger ItemTagger, st *store.Store, inputDir, processedDir, errorDir string, imageExts []string) *Processor {
	return &Processor{
		pipeline:     NewReceiptPipeline(ocr, tagger, st, InvalidFilenameChars),
		store:        st,
		inputDir:     inputDir,
		processedDir: processedDir,
		errorDir:     errorDir,
		imageExts:    imageExts,
	}
}

// Process runs one image through the pipeline and files the source under
// processed or error. It never returns an error; per-image outcomes are
// reported through the ProcessResult so one bad image cannot stop a batch.
func (p *Processor) Process(ctx context.Context, srcPath string) receipt.ProcessResult {
	log := logger.FromContext(ctx)

	state := &State{SourcePath: srcPath}
	err := p.pipeline.Execute(ctx, state)
	if err != nil {
		reason := err.Error()
		if errors.Is(err, receipt.ErrNotReceipt) {
			log.Warn().Str("source", srcPath).Msg("document is not a receipt")
		} else {
			log.Error().Err(err).Str("source", srcPath).Msg("receipt processing failed")
		}
		if moveErr := store.MoveToError(srcPath, p.errorDir); moveErr != nil {
			log.Error().Err(moveErr).Str("source", srcPath).Msg("failed to move image to error dir")
		}
		return receipt.Failed(reason)
	}

	if _, err := store.MoveToProcessed(srcPath, state.ID, p.processedDir); err != nil {
		// The ledger row and snapshot are already written; losing the move
		// only risks reprocessing, so log and count it a success.
		log.Error().Err(err).Str("source", srcPath).Msg("failed to move image to processed dir")
	}

	log.Info().
		Str("id", state.ID).
		Str("period", state.Period.String()).
		Int("items", len(state.Result.Items)).
		Msg("receipt processed")

	return receipt.Success(state.Result)
}

// BatchResult reports one run over the input directory. Outcomes records
// success per original source path, so callers that imported the images
// from elsewhere can file the originals to match.
type BatchResult struct {
	RunID     string
	Processed int
	Failed    int
	Results   []receipt.ProcessResult
	Outcomes  map[string]bool
}

// RunBatch scans the input directory and processes every accepted image.
func (p *Processor) RunBatch(ctx context.Context) (*BatchResult, error) {
	runID := uuid.NewString()
	log := logger.WithFields(logger.FromContext(ctx), map[string]interface{}{
		"run_id": runID,
	})
	ctx = logger.WithContext(ctx, log)

	paths, err := store.LoadReceiptImages(ctx, p.inputDir, p.errorDir, p.imageExts)
	if err != nil {
		return nil, err
	}

	batch := &BatchResult{RunID: runID, Outcomes: map[string]bool{}}
	for _, path := range paths {
		res := p.Process(ctx, path)
		batch.Results = append(batch.Results, res)
		batch.Outcomes[path] = res.OK
		if res.OK {
			batch.Processed++
		} else {
			batch.Failed++
		}
	}

	log.Info().
		Int("processed", batch.Processed).
		Int("failed", batch.Failed).
		Msg("batch finished")

	return batch, nil
}
