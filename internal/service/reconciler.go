package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/fontcap/fontcap-server/internal/logger"
	"github.com/fontcap/fontcap-server/internal/model"
)

// ReconcilerConfig carries the engine's tunables. Zero values fall back to
// the defaults below.
type ReconcilerConfig struct {
	// Workers bounds concurrent download+install operations.
	Workers int
	// RetryAttempts bounds attempts per network call.
	RetryAttempts int
	// RetryBaseDelay is the first backoff step; it doubles per retry.
	RetryBaseDelay time.Duration
	// PageSize is used for association and catalog scans.
	PageSize int
	// ProbeAheadPages bounds how many extra catalog pages are scanned after
	// a page contributes no new candidates. Associations accumulate roughly
	// in catalog order, so a quiet page usually means the rest is associated
	// too; the probe tolerates insertion-order gaps without walking the
	// whole library.
	ProbeAheadPages int
	// DownloadURLTTL bounds presigned download URL lifetime.
	DownloadURLTTL time.Duration
}

const (
	defaultWorkers         = 5
	defaultRetryAttempts   = 3
	defaultRetryBaseDelay  = 500 * time.Millisecond
	defaultPageSize        = 200
	defaultProbeAheadPages = 3
	defaultDownloadURLTTL  = time.Hour
)

func (c ReconcilerConfig) withDefaults() ReconcilerConfig {
	if c.Workers <= 0 {
		c.Workers = defaultWorkers
	}
	if c.RetryAttempts <= 0 {
		c.RetryAttempts = defaultRetryAttempts
	}
	if c.RetryBaseDelay <= 0 {
		c.RetryBaseDelay = defaultRetryBaseDelay
	}
	if c.PageSize <= 0 {
		c.PageSize = defaultPageSize
	}
	if c.ProbeAheadPages < 0 {
		c.ProbeAheadPages = defaultProbeAheadPages
	}
	if c.DownloadURLTTL <= 0 {
		c.DownloadURLTTL = defaultDownloadURLTTL
	}
	return c
}

// ReconcileReport aggregates one reconciliation run. Downloaded + Skipped +
// Failed always equals the candidate count at call start.
type ReconcileReport struct {
	Downloaded int
	Skipped    int
	Failed     int
	Message    string
}

// Reconciler brings one device's installed-font set up to date with the
// user's catalog.
type Reconciler struct {
	fontStore   model.FontStore
	deviceStore model.DeviceStore
	assocStore  model.AssociationStore
	queueStore  model.SyncQueueStore
	storage     model.Storage
	installer   model.Installer
	logger      *logger.Logger
	cfg         ReconcilerConfig

	mu       sync.Mutex
	inFlight map[uuid.UUID]struct{}
}

func NewReconciler(
	fontStore model.FontStore,
	deviceStore model.DeviceStore,
	assocStore model.AssociationStore,
	queueStore model.SyncQueueStore,
	storage model.Storage,
	installer model.Installer,
	logger *logger.Logger,
	cfg ReconcilerConfig,
) *Reconciler {
	return &Reconciler{
		fontStore:   fontStore,
		deviceStore: deviceStore,
		assocStore:  assocStore,
		queueStore:  queueStore,
		storage:     storage,
		installer:   installer,
		logger:      logger,
		cfg:         cfg.withDefaults(),
		inFlight:    make(map[uuid.UUID]struct{}),
	}
}

// acquire takes the per-device reentrancy flag. A second concurrent
// reconciliation for the same device must be rejected, not queued.
func (r *Reconciler) acquire(deviceID uuid.UUID) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, busy := r.inFlight[deviceID]; busy {
		return false
	}
	r.inFlight[deviceID] = struct{}{}
	return true
}

func (r *Reconciler) release(deviceID uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.inFlight, deviceID)
}

// Reconcile computes the fonts the device is missing, skips those already on
// local disk and downloads the rest with bounded concurrency. No single
// font's failure fails the run; precondition errors (unknown device, foreign
// device, reconciliation already running) fail it before any state changes.
func (r *Reconciler) Reconcile(ctx context.Context, deviceID, userID uuid.UUID, progress model.ProgressSink) (ReconcileReport, error) {
	device, err := r.deviceStore.GetByID(ctx, deviceID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return ReconcileReport{}, model.ErrNotFound
		}
		return ReconcileReport{}, fmt.Errorf("failed to get device by id: %w", err)
	}
	if device.UserID != userID {
		return ReconcileReport{}, model.ErrNotFound
	}

	if !r.acquire(deviceID) {
		return ReconcileReport{}, model.ErrSyncInProgress
	}
	defer r.release(deviceID)

	candidates, err := r.collectCandidates(ctx, deviceID, userID)
	if err != nil {
		return ReconcileReport{}, fmt.Errorf("failed to compute candidates: %w", err)
	}
	if len(candidates) == 0 {
		return ReconcileReport{Message: "device is up to date"}, nil
	}

	total := len(candidates)
	var downloaded, skipped, failed, completed atomic.Int64
	report := func() ReconcileReport {
		return ReconcileReport{
			Downloaded: int(downloaded.Load()),
			Skipped:    int(skipped.Load()),
			Failed:     int(failed.Load()),
		}
	}
	step := func() {
		done := completed.Add(1)
		if progress != nil {
			progress(int(done), total)
		}
	}

	alreadyLocal, needDownload := r.partitionByLocalPresence(ctx, candidates)

	for _, font := range alreadyLocal {
		if err := r.finishInstall(ctx, deviceID, font); err != nil {
			r.logger.Warn("failed to record local font", "font_id", font.ID, "error", err)
			failed.Add(1)
		} else {
			skipped.Add(1)
		}
		step()
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.cfg.Workers)
	for _, font := range needDownload {
		font := font
		g.Go(func() error {
			switch r.installOne(gctx, deviceID, font) {
			case installDownloaded:
				downloaded.Add(1)
			case installAlreadyExisted:
				skipped.Add(1)
			case installFailed:
				failed.Add(1)
			}
			step()
			return nil
		})
	}
	// Workers never return errors; Wait is the join point all aggregate
	// mutations happen behind.
	_ = g.Wait()

	if err := r.deviceStore.SetLastSync(ctx, deviceID, time.Now()); err != nil {
		r.logger.Warn("failed to update last sync", "device_id", deviceID, "error", err)
	}

	out := report()
	out.Message = fmt.Sprintf("sync complete: %d downloaded, %d already present, %d failed", out.Downloaded, out.Skipped, out.Failed)
	return out, nil
}

// collectCandidates returns the user's syncable fonts not yet associated
// with the device, newest-first.
func (r *Reconciler) collectCandidates(ctx context.Context, deviceID, userID uuid.UUID) ([]model.Font, error) {
	associated := make(map[uuid.UUID]struct{})
	for offset := 0; ; offset += r.cfg.PageSize {
		ids, err := r.assocStore.ListFontIDs(ctx, deviceID, r.cfg.PageSize, offset)
		if err != nil {
			return nil, fmt.Errorf("failed to list device fonts: %w", err)
		}
		for _, id := range ids {
			associated[id] = struct{}{}
		}
		if len(ids) < r.cfg.PageSize {
			break
		}
	}

	var candidates []model.Font
	probeBudget := r.cfg.ProbeAheadPages
	for offset := 0; ; offset += r.cfg.PageSize {
		page, err := r.fontStore.ListSyncable(ctx, userID, r.cfg.PageSize, offset)
		if err != nil {
			return nil, fmt.Errorf("failed to list syncable fonts: %w", err)
		}

		newInPage := 0
		for _, font := range page {
			if _, ok := associated[font.ID]; ok {
				continue
			}
			candidates = append(candidates, font)
			newInPage++
		}

		if len(page) < r.cfg.PageSize {
			break
		}
		if newInPage == 0 {
			if probeBudget == 0 {
				break
			}
			probeBudget--
		} else {
			probeBudget = r.cfg.ProbeAheadPages
		}
	}

	return candidates, nil
}

// partitionByLocalPresence asks the installer which candidate file names
// already exist on disk. The pre-check is an optimization: if it fails,
// everything is treated as needing download and the installer's own
// already-exists handling keeps the run correct.
func (r *Reconciler) partitionByLocalPresence(ctx context.Context, candidates []model.Font) (alreadyLocal, needDownload []model.Font) {
	names := make([]string, 0, len(candidates))
	for _, font := range candidates {
		names = append(names, font.FileName())
	}

	present, err := r.installer.CheckInstalledBatch(ctx, names)
	if err != nil {
		r.logger.Warn("local presence pre-check failed", "error", err)
		return nil, candidates
	}

	for _, font := range candidates {
		if present[font.FileName()] {
			alreadyLocal = append(alreadyLocal, font)
		} else {
			needDownload = append(needDownload, font)
		}
	}
	return alreadyLocal, needDownload
}

type installOutcome int

const (
	installDownloaded installOutcome = iota
	installAlreadyExisted
	installFailed
)

// installOne fetches a download credential and installs one font, each with
// bounded retry. Failures leave the font unassociated so the next
// reconciliation retries it.
func (r *Reconciler) installOne(ctx context.Context, deviceID uuid.UUID, font model.Font) installOutcome {
	var url string
	err := withRetry(ctx, r.cfg.RetryAttempts, r.cfg.RetryBaseDelay, func(ctx context.Context) error {
		var err error
		url, err = r.storage.GetURL(ctx, font.StorageKey, r.cfg.DownloadURLTTL)
		return err
	})
	if err != nil {
		r.recordFailure(ctx, deviceID, font, fmt.Errorf("failed to presign download: %w", err))
		return installFailed
	}

	var result model.InstallResult
	err = withRetry(ctx, r.cfg.RetryAttempts, r.cfg.RetryBaseDelay, func(ctx context.Context) error {
		var err error
		result, err = r.installer.InstallFromURL(ctx, url, font.FileName())
		return err
	})
	if err != nil {
		r.recordFailure(ctx, deviceID, font, fmt.Errorf("failed to install: %w", err))
		return installFailed
	}

	if err := r.finishInstall(ctx, deviceID, font); err != nil {
		r.recordFailure(ctx, deviceID, font, err)
		return installFailed
	}

	if result.AlreadyExisted {
		return installAlreadyExisted
	}
	return installDownloaded
}

// finishInstall records a completed install: upserts the association and
// closes any pending queue entry. MarkCompleted without a pending entry is a
// no-op, so this is safe on every success path.
func (r *Reconciler) finishInstall(ctx context.Context, deviceID uuid.UUID, font model.Font) error {
	assoc := model.DeviceFont{
		DeviceID: deviceID,
		FontID:   font.ID,
		Status:   model.StatusInstalled,
	}
	if err := r.assocStore.Associate(ctx, assoc); err != nil {
		return fmt.Errorf("failed to associate font: %w", err)
	}

	if err := r.queueStore.MarkCompleted(ctx, deviceID, font.ID); err != nil {
		r.logger.Warn("failed to complete queue entry", "device_id", deviceID, "font_id", font.ID, "error", err)
	}
	return nil
}

func (r *Reconciler) recordFailure(ctx context.Context, deviceID uuid.UUID, font model.Font, cause error) {
	r.logger.Warn("font sync failed", "device_id", deviceID, "font_id", font.ID, "error", cause)
	if err := r.queueStore.MarkFailed(ctx, deviceID, font.ID, cause.Error()); err != nil {
		r.logger.Warn("failed to record queue error", "device_id", deviceID, "font_id", font.ID, "error", err)
	}
}

// SyncStatus summarizes sync state for a user, optionally scoped to one
// device.
type SyncStatus struct {
	TotalFonts  int64
	DeviceFonts int64
	PendingSync int64
	LastSync    *time.Time
}

// Status reports catalog size, per-device association count and the user's
// pending queue depth.
func (r *Reconciler) Status(ctx context.Context, userID, deviceID uuid.UUID) (SyncStatus, error) {
	var status SyncStatus

	total, err := r.fontStore.CountByUser(ctx, userID)
	if err != nil {
		return SyncStatus{}, fmt.Errorf("failed to count fonts: %w", err)
	}
	status.TotalFonts = total

	if deviceID != uuid.Nil {
		device, err := r.deviceStore.GetByID(ctx, deviceID)
		if err != nil {
			if errors.Is(err, model.ErrNotFound) {
				return SyncStatus{}, model.ErrNotFound
			}
			return SyncStatus{}, fmt.Errorf("failed to get device by id: %w", err)
		}
		if device.UserID != userID {
			return SyncStatus{}, model.ErrNotFound
		}
		status.LastSync = device.LastSync

		n, err := r.assocStore.CountForDevice(ctx, deviceID)
		if err != nil {
			return SyncStatus{}, fmt.Errorf("failed to count device fonts: %w", err)
		}
		status.DeviceFonts = n
	}

	pending, err := r.queueStore.CountPendingForUser(ctx, userID)
	if err != nil {
		return SyncStatus{}, fmt.Errorf("failed to count pending queue entries: %w", err)
	}
	status.PendingSync = pending

	return status, nil
}

// PendingQueue lists the pending install hints for a device, for
// observability; reconciliation itself recomputes candidates from the
// catalog.
func (r *Reconciler) PendingQueue(ctx context.Context, userID, deviceID uuid.UUID) ([]model.SyncQueueEntry, error) {
	device, err := r.deviceStore.GetByID(ctx, deviceID)
	if err != nil {
		if errors.Is(err, model.ErrNotFound) {
			return nil, model.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get device by id: %w", err)
	}
	if device.UserID != userID {
		return nil, model.ErrNotFound
	}

	entries, err := r.queueStore.ListPending(ctx, deviceID)
	if err != nil {
		return nil, fmt.Errorf("failed to list pending queue entries: %w", err)
	}
	return entries, nil
}
