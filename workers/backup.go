package workers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"path"
	"time"

	"github.com/gosimple/slug"

	"estate_admin/logging"
	"estate_admin/models"
	"estate_admin/services"
)

// Uploader interface for uploading to S3-compatible storage
type Uploader interface {
	Upload(ctx context.Context, key string, data io.Reader, contentType string) error
}

// Mirror keeps a remote copy of the listing catalog.
type Mirror interface {
	MirrorListings(ctx context.Context, props []models.Property) error
}

// BackupWorker snapshots the listing and account collections to object
// storage. Credentials are never part of a snapshot.
type BackupWorker struct {
	listings  *services.ListingService
	accounts  *services.AccountService
	uploader  Uploader
	mirror    Mirror
	prefix    string
	triggerCh chan struct{}
	logFunc   LogFunc
	now       func() time.Time
}

func NewBackupWorker(listings *services.ListingService, accounts *services.AccountService, uploader Uploader, prefix string) *BackupWorker {
	if uploader == nil {
		uploader = NewNoOpUploader()
	}
	return &BackupWorker{
		listings:  listings,
		accounts:  accounts,
		uploader:  uploader,
		prefix:    prefix,
		triggerCh: make(chan struct{}, 1),
		logFunc:   NoOpLogger,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (w *BackupWorker) SetLogger(fn LogFunc) {
	w.logFunc = fn
}

// SetMirror adds a remote listing table refreshed on every backup.
func (w *BackupWorker) SetMirror(m Mirror) {
	w.mirror = m
}

// BackupResult describes one completed snapshot
type BackupResult struct {
	Prefix   string
	Listings int
	Users    int
	Objects  int
	Mirrored bool
}

// Backup writes one snapshot and returns where it went.
func (w *BackupWorker) Backup(ctx context.Context) (*BackupResult, error) {
	props, err := w.listings.ListProperties(ctx)
	if err != nil {
		return nil, fmt.Errorf("read listings: %w", err)
	}
	users, err := w.accounts.ListUsers(ctx)
	if err != nil {
		return nil, fmt.Errorf("read accounts: %w", err)
	}

	result := &BackupResult{
		Prefix:   path.Join(w.prefix, w.now().Format("20060102T150405Z")),
		Listings: len(props),
		Users:    len(users),
	}

	if err := w.putJSON(ctx, path.Join(result.Prefix, "listings.json"), props); err != nil {
		return nil, err
	}
	result.Objects++

	if err := w.putJSON(ctx, path.Join(result.Prefix, "users.json"), users); err != nil {
		return nil, err
	}
	result.Objects++

	for i := range props {
		key := path.Join(result.Prefix, "listings", ListingObjectName(&props[i]))
		if err := w.putJSON(ctx, key, props[i]); err != nil {
			return nil, err
		}
		result.Objects++
	}

	if w.mirror != nil {
		if err := w.mirror.MirrorListings(ctx, props); err != nil {
			return nil, fmt.Errorf("mirror: %w", err)
		}
		result.Mirrored = true
	}

	return result, nil
}

// ListingObjectName builds "<slug>-<id8>.json" for a listing.
func ListingObjectName(p *models.Property) string {
	name := slug.Make(p.Title)
	if name == "" {
		name = "listing"
	}
	id := p.ID
	if len(id) > 8 {
		id = id[:8]
	}
	return fmt.Sprintf("%s-%s.json", name, id)
}

func (w *BackupWorker) putJSON(ctx context.Context, key string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", key, err)
	}
	if err := w.uploader.Upload(ctx, key, bytes.NewReader(data), "application/json"); err != nil {
		return fmt.Errorf("upload %s: %w", key, err)
	}
	return nil
}

// Trigger causes the worker to run immediately
func (w *BackupWorker) Trigger() {
	select {
	case w.triggerCh <- struct{}{}:
	default:
	}
}

// Run waits for triggers (manual or from the scheduler) until ctx is done.
func (w *BackupWorker) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			logging.Infof("Backup worker stopping")
			return
		case <-w.triggerCh:
			w.runOnce(ctx)
		}
	}
}

func (w *BackupWorker) runOnce(ctx context.Context) {
	start := time.Now()
	result, err := w.Backup(ctx)
	if err != nil {
		logging.Errorf("Backup failed: %v", err)
		w.logFunc(logging.LevelError, "backup", err.Error())
		return
	}

	msg := fmt.Sprintf("%d listings, %d accounts -> %s (%d objects, %s)",
		result.Listings, result.Users, result.Prefix, result.Objects, time.Since(start).Round(time.Millisecond))
	if result.Mirrored {
		msg += ", mirrored"
	}
	logging.Infof("Backup: %s", msg)
	w.logFunc(logging.LevelInfo, "backup", msg)
}

// NoOpUploader is a placeholder that skips actual S3 upload
type NoOpUploader struct{}

func (u *NoOpUploader) Upload(ctx context.Context, key string, data io.Reader, contentType string) error {
	// Just drain the reader
	io.Copy(io.Discard, data)
	return nil
}

// NewNoOpUploader creates an uploader that does nothing (for testing)
func NewNoOpUploader() *NoOpUploader {
	return &NoOpUploader{}
}
