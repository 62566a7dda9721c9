package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"autopost/internal/catalog"
	"autopost/internal/cms"
	"autopost/internal/generator"
	"autopost/internal/history"
	"autopost/internal/logging"
	"autopost/internal/metrics"
	"autopost/internal/notifications"
	"autopost/internal/scratch"
	"autopost/internal/services"
	"autopost/internal/video"
)

// Selector picks an unused candidate.
type Selector interface {
	SelectUnique(ctx context.Context, used catalog.Membership, maxAttempts int) (catalog.Candidate, error)
}

// Dependencies are the collaborators a run uses. Renderer and Uploader may be
// nil, which skips the corresponding stage.
type Dependencies struct {
	Selector  Selector
	History   history.Store
	Generator generator.Generator
	CMS       cms.Client
	Renderer  video.Renderer
	Uploader  video.Uploader
	Scratch   *scratch.Manager
	Notifier  notifications.Service
	Metrics   *metrics.Recorder
	Logger    *slog.Logger
}

// Options tunes a run.
type Options struct {
	MaxAttempts   int
	PostStatus    string
	Categories    []int64
	VideoTags     []string
	VideoCategory string
	VideoPrivacy  string
	// RunLockPath, when set, is held for the whole run so concurrent
	// processes fail fast instead of interleaving history updates.
	RunLockPath string
}

// Result describes a finished run.
type Result struct {
	RunID        string
	Candidate    catalog.Candidate
	Title        string
	PostID       int64
	ImageMediaID int64
	AudioMediaID int64
	VideoID      string
	State        State
	Degraded     []*StageError
}

// Outcome summarizes the result for metrics and CLI output.
func (r Result) Outcome() string {
	switch {
	case r.State != StateDone:
		return "failed"
	case len(r.Degraded) > 0:
		return "degraded"
	default:
		return "published"
	}
}

// Orchestrator drives the publish pipeline.
type Orchestrator struct {
	deps   Dependencies
	opts   Options
	logger *slog.Logger
}

// New validates deps and returns an orchestrator.
func New(deps Dependencies, opts Options) (*Orchestrator, error) {
	var missing []string
	if deps.Selector == nil {
		missing = append(missing, "selector")
	}
	if deps.History == nil {
		missing = append(missing, "history")
	}
	if deps.Generator == nil {
		missing = append(missing, "generator")
	}
	if deps.CMS == nil {
		missing = append(missing, "cms")
	}
	if deps.Scratch == nil {
		missing = append(missing, "scratch")
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("pipeline dependencies missing: %s", strings.Join(missing, ", "))
	}
	if deps.Notifier == nil {
		deps.Notifier = notifications.NewNoop()
	}
	if opts.PostStatus == "" {
		opts.PostStatus = "publish"
	}
	return &Orchestrator{
		deps:   deps,
		opts:   opts,
		logger: logging.NewComponentLogger(deps.Logger, "pipeline"),
	}, nil
}

// run carries the state of one candidate through the stages.
type run struct {
	result    Result
	body      string
	plainText string
	image     []byte
	audio     []byte
	imagePath string
	audioPath string
	videoPath string
	imageURL  string
	audioURL  string
	content   string
}

// Select returns the candidate a run would use without generating anything.
func (o *Orchestrator) Select(ctx context.Context) (catalog.Candidate, error) {
	used, err := o.deps.History.Load(ctx)
	if err != nil {
		return catalog.Candidate{}, err
	}
	return o.deps.Selector.SelectUnique(ctx, used, o.opts.MaxAttempts)
}

// Run processes one candidate. On a fatal failure the returned error is a
// *StageError and Result.State is StateFailed.
func (o *Orchestrator) Run(ctx context.Context) (res Result, err error) {
	r := &run{result: Result{RunID: uuid.NewString()}}
	ctx = services.WithRunID(ctx, r.result.RunID)
	logger := logging.WithContext(ctx, o.logger)
	started := time.Now()

	if o.opts.RunLockPath != "" {
		lock, lockErr := history.AcquireRunLock(o.opts.RunLockPath)
		if lockErr != nil {
			r.result.State = StateFailed
			return r.result, fatal(StateSelecting, lockErr)
		}
		defer func() {
			if err := lock.Release(); err != nil {
				logger.Debug("run lock release failed", logging.Error(err))
			}
		}()
	}

	defer func() {
		o.deps.Metrics.RunFinished(res.Outcome())
		if err := o.deps.Metrics.Flush(); err != nil {
			logging.WarnWithContext(logger, "failed to write metrics textfile", "metrics_write_failed",
				logging.Error(err),
				logging.String(logging.FieldImpact, "metrics for this run are missing"))
		}
	}()

	err = o.execute(ctx, r)
	o.cleanup(ctx)

	if err != nil {
		r.result.State = StateFailed
		o.reportFatal(ctx, r, err)
		return r.result, err
	}

	// The post is live, so recording the candidate must survive a
	// cancellation that arrived during the video stages.
	ctx = context.WithoutCancel(ctx)
	if err := o.stage(ctx, StateDone, func(ctx context.Context) error {
		return o.deps.History.Append(ctx, r.result.Candidate.Key())
	}); err != nil {
		r.result.State = StateFailed
		se := fatal(StateDone, err)
		o.reportFatal(ctx, r, se)
		return r.result, se
	}
	r.result.State = StateDone
	o.deps.Metrics.Published(time.Now())

	logger.Info("run completed",
		logging.String(logging.FieldEventType, "run_complete"),
		logging.String(logging.FieldCandidate, r.result.Candidate.Key()),
		logging.String("title", r.result.Title),
		logging.Int64("post_id", r.result.PostID),
		logging.String("video_id", r.result.VideoID),
		logging.Int("degraded_stages", len(r.result.Degraded)),
		logging.Duration("elapsed", time.Since(started)))
	o.notify(ctx, notifications.EventPostPublished, notifications.Payload{
		"title":   r.result.Title,
		"postID":  strconv.FormatInt(r.result.PostID, 10),
		"videoID": r.result.VideoID,
	})
	return r.result, nil
}

func (o *Orchestrator) execute(ctx context.Context, r *run) error {
	if err := o.stage(ctx, StateSelecting, func(ctx context.Context) error {
		used, err := o.deps.History.Load(ctx)
		if err != nil {
			return err
		}
		r.result.Candidate, err = o.deps.Selector.SelectUnique(ctx, used, o.opts.MaxAttempts)
		return err
	}); err != nil {
		return fatal(StateSelecting, err)
	}
	ctx = services.WithCandidate(ctx, r.result.Candidate.Key())

	if err := o.stage(ctx, StateGenerating, func(ctx context.Context) error {
		return o.generate(ctx, r)
	}); err != nil {
		return fatal(StateGenerating, err)
	}

	if err := o.stage(ctx, StateUploadingImage, func(ctx context.Context) error {
		id, url, err := o.uploadMedia(ctx, r.image, r.imagePath, "image/png")
		r.result.ImageMediaID, r.imageURL = id, url
		if err == nil {
			logging.WithContext(ctx, o.logger).Debug("featured image hosted", logging.String("url", url))
		}
		return err
	}); err != nil {
		return fatal(StateUploadingImage, err)
	}

	if err := o.stage(ctx, StateUploadingAudio, func(ctx context.Context) error {
		id, url, err := o.uploadMedia(ctx, r.audio, r.audioPath, "audio/mpeg")
		r.result.AudioMediaID, r.audioURL = id, url
		return err
	}); err != nil {
		r.result.AudioMediaID, r.audioURL = 0, ""
		o.degrade(ctx, r, degrading(StateUploadingAudio, err))
	}

	_ = o.stage(ctx, StateComposing, func(ctx context.Context) error {
		r.content = cms.ComposeContent(cms.AudioEmbed(r.audioURL), r.body)
		return nil
	})

	if err := o.stage(ctx, StatePublishing, func(ctx context.Context) error {
		id, err := o.deps.CMS.CreatePost(ctx, cms.PostDraft{
			Title:         r.result.Title,
			Content:       r.content,
			Status:        o.opts.PostStatus,
			Categories:    o.opts.Categories,
			FeaturedMedia: r.result.ImageMediaID,
		})
		r.result.PostID = id
		return err
	}); err != nil {
		return fatal(StatePublishing, err)
	}

	if o.deps.Renderer == nil {
		return nil
	}
	if err := o.stage(ctx, StateRenderingVideo, func(ctx context.Context) error {
		path, err := o.deps.Renderer.Render(ctx, r.imagePath, r.audioPath)
		r.videoPath = path
		return err
	}); err != nil {
		o.degrade(ctx, r, degrading(StateRenderingVideo, err))
		return nil
	}

	if o.deps.Uploader == nil {
		return nil
	}
	if err := o.stage(ctx, StateUploadingVideo, func(ctx context.Context) error {
		id, err := o.deps.Uploader.Upload(ctx, r.videoPath, video.Metadata{
			Title:         r.result.Title,
			Description:   r.plainText,
			Tags:          o.videoTags(r.result.Candidate),
			CategoryID:    o.opts.VideoCategory,
			PrivacyStatus: o.opts.VideoPrivacy,
		})
		r.result.VideoID = id
		return err
	}); err != nil {
		o.degrade(ctx, r, degrading(StateUploadingVideo, err))
	}
	return nil
}

func (o *Orchestrator) generate(ctx context.Context, r *run) error {
	cand := r.result.Candidate
	title, body, err := o.deps.Generator.GenerateText(ctx, cand.Subject, cand.Attribute)
	if err != nil {
		return err
	}
	r.result.Title, r.body = title, body
	r.plainText = generator.PlainText(body)

	r.image, err = o.deps.Generator.GenerateImage(ctx, cand.Subject, cand.Attribute, title)
	if err != nil {
		return err
	}
	if r.imagePath, err = o.deps.Scratch.Write(scratch.KindImage, "png", r.image); err != nil {
		return services.Wrap(services.ErrConfiguration, string(StateGenerating), "store image", "", err)
	}

	r.audio, err = o.deps.Generator.GenerateAudio(ctx, r.plainText)
	if err != nil {
		return err
	}
	if r.audioPath, err = o.deps.Scratch.Write(scratch.KindAudio, "mp3", r.audio); err != nil {
		return services.Wrap(services.ErrConfiguration, string(StateGenerating), "store audio", "", err)
	}
	return nil
}

func (o *Orchestrator) uploadMedia(ctx context.Context, blob []byte, localPath, mimeType string) (int64, string, error) {
	id, err := o.deps.CMS.UploadMedia(ctx, blob, filepath.Base(localPath), mimeType)
	if err != nil {
		return 0, "", err
	}
	url, err := o.deps.CMS.MediaURL(ctx, id)
	if err != nil {
		return id, "", err
	}
	return id, url, nil
}

// cleanup removes every artifact of the run. It never fails.
func (o *Orchestrator) cleanup(ctx context.Context) {
	if len(o.deps.Scratch.Tracked()) == 0 {
		return
	}
	_ = o.stage(ctx, StateCleaningUp, func(ctx context.Context) error {
		result := o.deps.Scratch.Cleanup(ctx)
		logging.WithContext(ctx, o.logger).Debug("artifacts removed",
			logging.Int("removed", len(result.Removed)),
			logging.Int("failed", len(result.Errors)))
		return nil
	})
}

// stage wraps fn with stage context, logging, and timing.
func (o *Orchestrator) stage(ctx context.Context, state State, fn func(context.Context) error) error {
	ctx = services.WithStage(ctx, string(state))
	logger := logging.WithContext(ctx, o.logger)
	logger.Info("stage started", logging.String(logging.FieldEventType, "stage_start"))

	start := time.Now()
	err := fn(ctx)
	o.deps.Metrics.ObserveStage(string(state), time.Since(start))
	if err != nil {
		logger.Debug("stage returned error", logging.Error(err))
		return err
	}
	logger.Info("stage completed",
		logging.String(logging.FieldEventType, "stage_complete"),
		logging.Duration("elapsed", time.Since(start)))
	return nil
}

func (o *Orchestrator) degrade(ctx context.Context, r *run, se *StageError) {
	r.result.Degraded = append(r.result.Degraded, se)
	o.deps.Metrics.StageFailed(string(se.Stage), se.Severity.String())

	stageCtx := services.WithStage(ctx, string(se.Stage))
	logging.WarnWithContext(logging.WithContext(stageCtx, o.logger), "stage failed; continuing without it", "stage_degraded",
		logging.Error(se.Err),
		logging.String("severity", se.Severity.String()),
		logging.String(logging.FieldErrorHint, hintFor(se.Err)),
		logging.String(logging.FieldImpact, impactFor(se.Stage)))
	o.notify(ctx, notifications.EventStageDegraded, notifications.Payload{
		"stage": string(se.Stage),
		"title": r.result.Title,
		"error": services.Details(se.Err),
	})
}

func (o *Orchestrator) reportFatal(ctx context.Context, r *run, err error) {
	se, ok := AsStageError(err)
	if !ok {
		se = fatal(StateFailed, err)
	}
	o.deps.Metrics.StageFailed(string(se.Stage), se.Severity.String())

	stageCtx := services.WithStage(ctx, string(se.Stage))
	logging.ErrorWithContext(logging.WithContext(stageCtx, o.logger), "stage failed", "stage_failure",
		logging.Error(se.Err),
		logging.String("severity", se.Severity.String()),
		logging.String("reason", services.Classify(se.Err)),
		logging.String(logging.FieldErrorHint, hintFor(se.Err)))
	o.notify(ctx, notifications.EventRunFailed, notifications.Payload{
		"stage": string(se.Stage),
		"error": services.Details(se.Err),
	})
}

func (o *Orchestrator) notify(ctx context.Context, event notifications.Event, payload notifications.Payload) {
	if err := o.deps.Notifier.Publish(ctx, event, payload); err != nil {
		logging.WithContext(ctx, o.logger).Debug("notification failed",
			logging.String("event", string(event)),
			logging.Error(err))
	}
}

func (o *Orchestrator) videoTags(c catalog.Candidate) []string {
	tags := append([]string(nil), o.opts.VideoTags...)
	subject := strings.ReplaceAll(cases.Title(language.English).String(strings.TrimSpace(c.Subject)), " ", "")
	if subject != "" {
		tags = append(tags, subject)
	}
	return tags
}

func hintFor(err error) string {
	switch {
	case errors.Is(err, catalog.ErrExhaustedCandidates):
		return "extend the catalog or attribute list, or prune history"
	case errors.Is(err, catalog.ErrEmptyCatalog):
		return "populate catalog.path and catalog.attributes"
	case errors.Is(err, history.ErrHistoryLocked):
		return "another autopost run is active; wait for it to finish"
	case errors.Is(err, video.ErrAuthorizationMissing):
		return "place a valid OAuth token at youtube.token_path"
	case errors.Is(err, generator.ErrGeneration):
		return "check generation credentials and model availability"
	case errors.Is(err, services.ErrConfiguration):
		return "run autopost config validate"
	default:
		return "check the remote service status and credentials"
	}
}

func impactFor(stage State) string {
	switch stage {
	case StateUploadingAudio:
		return "post published without audio player"
	case StateRenderingVideo:
		return "no video rendered for this post"
	case StateUploadingVideo:
		return "video not uploaded"
	default:
		return "stage output missing"
	}
}
