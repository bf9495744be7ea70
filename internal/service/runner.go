package service

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"runtime/debug"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/textmill/textmill/internal/history"
	"github.com/textmill/textmill/internal/model"
	"github.com/textmill/textmill/internal/notify"
	"github.com/textmill/textmill/internal/ocr"
	"github.com/textmill/textmill/internal/preprocess"
	"github.com/textmill/textmill/internal/result"
)

// job carries everything the background runner needs for one admitted
// recognition job.
type job struct {
	req           *model.RecognizeRequest
	status        *model.JobStatus
	correlationID string
	startedAt     time.Time
}

// pageSource is one distinct uploaded file opened for the job's duration.
type pageSource struct {
	fileID string
	stream io.ReadSeekCloser
	data   []byte
}

// run drives one job from admission to its terminal phase. It is the only
// goroutine that mutates the job status; clients interact with the job
// exclusively through the registry.
func (s *RecognitionService) run(ctx context.Context, j *job) {
	var (
		failed  bool
		sources []*pageSource
	)

	defer func() {
		if r := recover(); r != nil {
			slog.Error("Recognition runner panicked",
				"correlation_id", j.correlationID,
				"session_id", j.req.SessionID,
				"panic", r,
				"stack", string(debug.Stack()),
			)
			j.status.Fail("internal error during recognition")
			failed = true
		}

		// Close the page sources in reverse open order so the first page's
		// stream is released last, after everything derived from it.
		for i := len(sources) - 1; i >= 0; i-- {
			if err := sources[i].stream.Close(); err != nil {
				slog.Warn("Failed to close page source",
					"correlation_id", j.correlationID,
					"file_id", sources[i].fileID,
					"error", err,
				)
			}
		}

		aborted := j.status.AbortRequested()
		if !failed && !aborted {
			j.status.Finish()
		}
		s.finalize(ctx, j)
	}()

	slog.Info("Recognition job started",
		"correlation_id", j.correlationID,
		"session_id", j.req.SessionID,
	)

	sources, err := s.openSources(j)
	if err != nil {
		j.status.Fail(s.sanitizeError(err))
		failed = true
		return
	}

	prepared, err := s.preparePages(ctx, j, sources)
	if err != nil {
		j.status.Fail(s.sanitizeError(err))
		failed = true
		return
	}

	if !j.status.StartRecognition(len(j.req.Pages)) {
		// Abort landed before the engine call; nothing to do.
		return
	}

	inputs := buildInputs(j.req, prepared)
	translator := newProgressTranslator(j.status)

	results, err := s.engine.Recognize(ctx, inputs, translator.Report)
	if err != nil {
		if errors.Is(err, ocr.ErrCanceled) {
			slog.Info("Recognition canceled",
				"correlation_id", j.correlationID,
				"session_id", j.req.SessionID,
			)
			return
		}
		j.status.Fail(s.sanitizeError(err))
		failed = true
		return
	}

	if !j.status.Advance(model.PhaseRecognitionFinished) {
		// Abort landed while the engine was returning; the result is
		// discarded and no artifact is published.
		return
	}

	if err := s.publish(j, prepared, results); err != nil {
		j.status.Fail(s.sanitizeError(err))
		failed = true
		return
	}
}

// openSources opens each distinct uploaded file once, in first-reference
// order, and reads its payload.
func (s *RecognitionService) openSources(j *job) ([]*pageSource, error) {
	var (
		sources []*pageSource
		byFile  = make(map[string]*pageSource)
	)
	for _, page := range j.req.Pages {
		if _, ok := byFile[page.FileID]; ok {
			continue
		}
		stream, err := s.store.Open(j.req.SessionID, page.FileID)
		if err != nil {
			for i := len(sources) - 1; i >= 0; i-- {
				sources[i].stream.Close()
			}
			return nil, err
		}
		data, err := io.ReadAll(stream)
		if err != nil {
			stream.Close()
			for i := len(sources) - 1; i >= 0; i-- {
				sources[i].stream.Close()
			}
			return nil, err
		}
		src := &pageSource{fileID: page.FileID, stream: stream, data: data}
		byFile[page.FileID] = src
		sources = append(sources, src)
	}
	return sources, nil
}

// preparePages binarizes and re-encodes every page in parallel. The output
// is always PNG, which both the engine adapter and the PDF writer expect.
func (s *RecognitionService) preparePages(ctx context.Context, j *job, sources []*pageSource) ([][]byte, error) {
	byFile := make(map[string]*pageSource, len(sources))
	for _, src := range sources {
		byFile[src.fileID] = src
	}

	prepared := make([][]byte, len(j.req.Pages))
	g, _ := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for i, page := range j.req.Pages {
		i, page := i, page
		g.Go(func() error {
			out, err := preprocess.PreparePage(byFile[page.FileID].data, j.req.Binarization)
			if err != nil {
				return err
			}
			prepared[i] = out
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return prepared, nil
}

// buildInputs assembles the engine's per-page batch. Only text-typed region
// hints are forwarded.
func buildInputs(req *model.RecognizeRequest, prepared [][]byte) []ocr.PageInput {
	inputs := make([]ocr.PageInput, len(req.Pages))
	for i, page := range req.Pages {
		var regions []ocr.Region
		for _, region := range page.TextRegions(req.RegionType) {
			regions = append(regions, ocr.Region{
				X:      region.X,
				Y:      region.Y,
				Width:  region.Width,
				Height: region.Height,
			})
		}
		inputs[i] = ocr.PageInput{
			Image:     prepared[i],
			Languages: req.Languages,
			Regions:   regions,
			Quality:   req.RecognitionMode == model.RecognitionQuality,
		}
	}
	return inputs
}

// publish serializes the recognition result into the session's result cache
// under a collision-free name and records the artifact on the job status.
func (s *RecognitionService) publish(j *job, prepared [][]byte, results []ocr.PageResult) error {
	if !j.status.Advance(model.PhaseResultSavingStarted) {
		return nil
	}

	cache := s.store.Results(j.req.SessionID)
	base := cache.AvailableBaseName(j.req.ResultFileName)

	var (
		path string
		text string
		err  error
	)
	switch j.req.ResultFormat {
	case model.FormatPDF:
		path, err = cache.Publish(cache.PdfName(base), func(w io.Writer) error {
			return result.WritePDF(w, prepared, results)
		})
	default:
		formatted := j.req.ResultFormat == model.FormatFormattedText
		path, err = cache.Publish(cache.TxtName(base), func(w io.Writer) error {
			return result.WriteText(w, results, formatted)
		})
		if err == nil {
			text = result.ConcatText(results, formatted)
		}
	}
	if err != nil {
		return err
	}

	j.status.SetResult(ResultPathPrefix+s.store.RelativePath(path), text)
	j.status.Advance(model.PhaseResultSavingFinished)

	slog.Info("Recognition result published",
		"correlation_id", j.correlationID,
		"session_id", j.req.SessionID,
		"result_path", s.store.RelativePath(path),
	)
	return nil
}

// finalize reports the terminal state to the configured notifier and records
// the job in history. Both are best effort and never affect the job itself.
func (s *RecognitionService) finalize(ctx context.Context, j *job) {
	snapshot := j.status.Snapshot()
	completedAt := time.Now().UTC()

	slog.Info("Recognition job finished",
		"correlation_id", j.correlationID,
		"session_id", j.req.SessionID,
		"phase", snapshot.Phase.String(),
		"duration_ms", completedAt.Sub(j.startedAt).Milliseconds(),
		"error_message", snapshot.ErrorMessage,
	)

	if s.notifier != nil {
		s.notifier.JobFinished(ctx, notify.JobEvent{
			SessionID:     j.req.SessionID,
			CorrelationID: j.correlationID,
			Phase:         snapshot.Phase.String(),
			PageCount:     snapshot.PageCount,
			ResultPath:    snapshot.ResultPath,
			ErrorMessage:  snapshot.ErrorMessage,
			StartedAt:     j.startedAt,
			CompletedAt:   completedAt,
		})
	}

	if s.historyRepo != nil {
		record := history.JobRecord{
			SessionID:     j.req.SessionID,
			CorrelationID: j.correlationID,
			Phase:         snapshot.Phase.String(),
			PageCount:     snapshot.PageCount,
			ResultPath:    snapshot.ResultPath,
			ErrorMessage:  snapshot.ErrorMessage,
			StartedAt:     j.startedAt,
			CompletedAt:   completedAt,
			DurationMs:    completedAt.Sub(j.startedAt).Milliseconds(),
		}
		if err := s.historyRepo.Record(ctx, record); err != nil {
			slog.Error("Failed to record job history",
				"correlation_id", j.correlationID,
				"error", err,
			)
		}
	}
}
