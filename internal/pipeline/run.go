package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"time"

	"github.com/google/uuid"
	"github.com/welldanyogia/webrana-gigbook-backend/internal/booking"
	"github.com/welldanyogia/webrana-gigbook-backend/internal/dedup"
	apperrors "github.com/welldanyogia/webrana-gigbook-backend/internal/errors"
	"github.com/welldanyogia/webrana-gigbook-backend/internal/extraction"
	"github.com/welldanyogia/webrana-gigbook-backend/internal/inbound"
	"github.com/welldanyogia/webrana-gigbook-backend/internal/metrics"
	"github.com/welldanyogia/webrana-gigbook-backend/internal/models"
	"github.com/welldanyogia/webrana-gigbook-backend/internal/quality"
	"github.com/welldanyogia/webrana-gigbook-backend/internal/review"
)

// run carries the state of one message through the stages.
type run struct {
	p       *Pipeline
	log     *slog.Logger
	payload inbound.Payload
	opts    []dedup.CheckOption
	res     Result

	msg     inbound.Message
	channel inbound.Channel
	form    inbound.FormData
	tenant  *models.Tenant
	key     dedup.Key

	// routed holds a review decision taken under the guard. It is written
	// once the guard is released.
	routed *routing
}

type routing struct {
	stage   string
	err     error
	result  *extraction.Result
	payload any
}

func (p *Pipeline) run(ctx context.Context, payload inbound.Payload, opts []dedup.CheckOption) Result {
	start := time.Now()
	r := &run{
		p:       p,
		payload: payload,
		opts:    opts,
		res:     Result{RunID: uuid.NewString()},
	}
	r.log = p.logger.With(slog.String("run_id", r.res.RunID))

	runCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()
	r.execute(runCtx)

	elapsed := time.Since(start)
	metrics.PipelineDuration.Observe(elapsed.Seconds())
	metrics.InboundMessages.WithLabelValues(channelLabel(r.res.Channel), string(r.res.Outcome)).Inc()

	level := slog.LevelInfo
	if r.res.Outcome == OutcomeFailed {
		level = slog.LevelError
	}
	r.log.Log(ctx, level, "inbound message processed",
		slog.String("outcome", string(r.res.Outcome)),
		slog.Uint64("booking_id", uint64(r.res.BookingID)),
		slog.Uint64("review_id", uint64(r.res.ReviewID)),
		slog.String("reason", r.res.Reason),
		slog.Duration("duration", elapsed),
	)

	p.notify(r.res)
	return r.res
}

func (r *run) execute(ctx context.Context) {
	defer func() {
		if v := recover(); v != nil {
			r.log.Error("pipeline panicked",
				slog.Any("panic", v),
				slog.String("stack", string(debug.Stack())),
			)
			if r.res.Outcome == "" {
				r.toReview(ctx, review.StagePipeline, apperrors.Newf(apperrors.ErrPipelinePanic, "pipeline panicked: %v", v), nil, nil)
			}
		}
	}()

	msg, err := r.p.deps.Normalizer.Normalize(r.payload)
	if err != nil {
		r.toReview(ctx, review.StageNormalize, err, nil, nil)
		return
	}
	r.msg = msg
	r.channel = r.p.deps.Classifier.Classify(msg)
	r.res.Channel = r.channel
	if r.channel == inbound.ChannelForm {
		r.form = inbound.ExtractForm(msg)
	}

	t, err := r.p.deps.Tenants.Resolve(ctx, msg.RecipientAddress)
	if err != nil {
		r.toReview(ctx, review.StageTenant, err, nil, nil)
		return
	}
	r.tenant = t
	r.res.TenantID = t.ID
	r.res.TenantSlug = t.Slug
	r.log = r.log.With(slog.String("tenant", t.Slug), slog.String("channel", string(r.channel)))

	r.key = dedup.KeyFor(t.ID, msg, r.channel, r.form)
	if r.duplicate(ctx) {
		return
	}

	err = r.p.deps.Guard.Do(ctx, r.create)
	switch {
	case err != nil:
		r.toReview(ctx, review.StagePipeline, timeoutError("waiting for the creation guard", err), nil, nil)
	case r.routed != nil:
		rt := r.routed
		r.toReview(ctx, rt.stage, rt.err, rt.result, rt.payload)
	}
}

// create is the guarded section. Failures are recorded with route and
// written by the caller; the only error the guard sees is a failure to
// acquire it.
func (r *run) create(ctx context.Context) error {
	if r.duplicate(ctx) {
		return nil
	}

	result, stage, err := r.extract(ctx)
	if result != nil {
		metrics.Extractions.WithLabelValues(result.Source).Inc()
	}
	if err != nil {
		r.route(stage, err, result, nil)
		return nil
	}

	if err := ctx.Err(); err != nil {
		r.route(review.StagePipeline, timeoutError("before materialization", err), result, nil)
		return nil
	}

	b, err := r.p.deps.Materializer.Materialize(ctx, booking.Input{
		TenantID:     r.tenant.ID,
		Message:      r.msg,
		Channel:      r.channel,
		Result:       result,
		Form:         r.form,
		DuplicateKey: r.key.Value,
	})
	if err != nil {
		var payload any
		var merr *booking.MaterializationError
		if errors.As(err, &merr) {
			payload = merr.Payload
		}
		r.route(review.StageMaterialize, err, result, payload)
		return nil
	}

	r.res.Outcome = OutcomeCreated
	r.res.BookingID = b.ID
	return nil
}

// extract runs the intelligent path, the gate and, when needed, the
// fallback. A non-nil error means review; stage names where it stopped.
func (r *run) extract(ctx context.Context) (*extraction.Result, string, error) {
	req := extraction.Request{
		Text:         r.msg.Body,
		ContactHint:  r.msg.SenderEmail(),
		LocationHint: r.form.Venue,
		TenantID:     r.tenant.ID,
		SubjectHint:  r.msg.Subject,
	}

	primary, err := r.p.deps.Extractor.Extract(ctx, req)
	if err != nil {
		r.log.Info("extraction unavailable, using fallback", slog.String("error", err.Error()))
		fb := r.fallback()
		d := quality.Decide(fb, r.channel)
		if d.Verdict != quality.Sufficient {
			return fb, review.StageExtraction, apperrors.Newf(apperrors.ErrExtractionUnavailable,
				"extraction unavailable (%v); fallback insufficient: %s", err, d.Reason)
		}
		return accept(fb, d), "", nil
	}

	applyForm(primary, r.form, r.p.now())
	d := quality.Decide(primary, r.channel)
	switch d.Verdict {
	case quality.Sufficient:
		return accept(primary, d), "", nil
	case quality.NeedsReview:
		return primary, review.StageQuality, apperrors.Newf(apperrors.ErrInsufficientConfidence, "%s", d.Reason)
	}

	merged := quality.Merge(primary, r.fallback())
	d = quality.Decide(merged, r.channel)
	if d.Verdict != quality.Sufficient {
		return merged, review.StageQuality, apperrors.Newf(apperrors.ErrInsufficientConfidence, "%s", d.Reason)
	}
	return accept(merged, d), "", nil
}

func (r *run) fallback() *extraction.Result {
	if r.p.deps.Fallback == nil {
		return &extraction.Result{Source: extraction.SourceFallback, Confidence: extraction.MinConfidence}
	}
	text := r.msg.Body
	if r.msg.Subject != "" {
		text = r.msg.Subject + "\n\n" + text
	}
	fb := r.p.deps.Fallback.Extract(text)
	applyForm(fb, r.form, r.p.now())
	return fb
}

func accept(res *extraction.Result, d quality.Decision) *extraction.Result {
	if d.PlaceholderDate {
		quality.ApplyPlaceholder(res)
	}
	return res
}

func (r *run) duplicate(ctx context.Context) bool {
	d := r.p.deps.Duplicates.Check(ctx, r.tenant.ID, r.key, r.opts...)
	if !d.IsDuplicate {
		return false
	}
	r.res.Outcome = OutcomeDuplicate
	r.res.DuplicateOf = d.MatchedID
	r.res.MatchedKind = d.MatchedKind
	r.res.Reason = fmt.Sprintf("duplicate of %s %d", d.MatchedKind, d.MatchedID)
	return true
}

func (r *run) route(stage string, err error, result *extraction.Result, payload any) {
	r.routed = &routing{stage: stage, err: err, result: result, payload: payload}
}

// toReview writes the review record on a context detached from the run so
// a timed-out run is still captured.
func (r *run) toReview(ctx context.Context, stage string, err error, result *extraction.Result, payload any) {
	writeCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), r.p.reviewTimeout)
	defer cancel()

	r.res.Reason = err.Error()
	rm, werr := r.p.deps.Reviews.Write(writeCtx, review.Input{
		Tenant:       r.tenant,
		Message:      r.msg,
		Raw:          r.payload,
		Channel:      r.channel,
		Stage:        stage,
		Err:          err,
		Result:       result,
		Form:         r.form,
		Payload:      payload,
		DuplicateKey: r.key.Value,
	})
	if werr != nil {
		metrics.ReviewWriteFailures.Inc()
		r.res.Outcome = OutcomeFailed
		return
	}
	r.res.Outcome = OutcomeReview
	r.res.ReviewID = rm.ID
	if r.res.TenantID == 0 {
		r.res.TenantID = rm.TenantID
	}
}

func timeoutError(where string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return apperrors.Newf(apperrors.ErrPipelineTimeout, "pipeline timed out %s", where)
	}
	return fmt.Errorf("%s: %w", where, err)
}

func channelLabel(c inbound.Channel) string {
	if c == "" {
		return "unknown"
	}
	return string(c)
}
