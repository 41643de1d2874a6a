package downloader

import (
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tonylu00/bili-sync-sub002/internal/bilibili"
	"github.com/tonylu00/bili-sync-sub002/internal/config"
	"github.com/tonylu00/bili-sync-sub002/internal/danmaku"
	"github.com/tonylu00/bili-sync-sub002/internal/library"
	"github.com/tonylu00/bili-sync-sub002/internal/models"
	"github.com/tonylu00/bili-sync-sub002/internal/store"
	"github.com/tonylu00/bili-sync-sub002/internal/websocket"
)

// ErrDownloadPaused aborts a pipeline run for an item the user paused
// mid-flight. The item keeps its paused status.
var ErrDownloadPaused = errors.New("download paused by user")

// MediaSource is the slice of the platform client the pipeline needs.
type MediaSource interface {
	VideoInfo(ctx context.Context, bvid string) (*bilibili.VideoDetail, error)
	VideoStreams(ctx context.Context, bvid string, cid int64) (*bilibili.StreamInfo, error)
	DanmakuXML(ctx context.Context, cid int64) ([]byte, error)
	FetchBytes(ctx context.Context, rawURL string) ([]byte, error)
}

// Pool drains the download queue with a fixed number of workers. The
// dispatcher only refills the channel when it runs empty, so a global
// pause takes effect within one poll period.
type Pool struct {
	cfg     *config.Config
	st      *store.Store
	src     MediaSource
	backend Backend
	hub     *websocket.Hub

	workers    int
	paused     atomic.Bool
	pollPeriod time.Duration

	jobs chan *models.DownloadQueueItem
	wg   sync.WaitGroup
}

func NewPool(cfg *config.Config, st *store.Store, src MediaSource, backend Backend, hub *websocket.Hub) *Pool {
	workers := cfg.Downloader.Workers
	if workers < 1 {
		workers = 1
	}
	return &Pool{
		cfg:        cfg,
		st:         st,
		src:        src,
		backend:    backend,
		hub:        hub,
		workers:    workers,
		pollPeriod: 5 * time.Second,
		jobs:       make(chan *models.DownloadQueueItem, workers),
	}
}

// Start launches the workers and the dispatcher. Items stuck in
// in_progress from a previous run are re-queued first.
func (p *Pool) Start(ctx context.Context) {
	if err := p.st.ResetInProgressQueueItems(); err != nil {
		log.Printf("downloader: failed to re-queue interrupted items: %v", err)
	}

	for i := 1; i <= p.workers; i++ {
		p.wg.Add(1)
		go p.worker(ctx, i)
	}

	go func() {
		ticker := time.NewTicker(p.pollPeriod)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				close(p.jobs)
				return
			case <-ticker.C:
			}
			if p.paused.Load() || len(p.jobs) > 0 {
				continue
			}
			items, err := p.st.GetQueuedDownloadItems(p.workers)
			if err != nil {
				log.Printf("downloader: failed to fetch queued items: %v", err)
				continue
			}
			for _, item := range items {
				p.jobs <- item
			}
		}
	}()
}

// Wait blocks until all workers have drained after the context given to
// Start is cancelled.
func (p *Pool) Wait() { p.wg.Wait() }

func (p *Pool) worker(ctx context.Context, id int) {
	defer p.wg.Done()
	for item := range p.jobs {
		p.st.UpdateQueueItemStatus(item.ID, models.StatusInProgress, "Starting download")
		p.broadcast(item, models.StatusInProgress, "Starting download", 0, false)

		err := p.process(ctx, item)
		switch {
		case errors.Is(err, ErrDownloadPaused):
			// Status already set to paused by the control plane.
			log.Printf("downloader: worker %d paused item %d (%s)", id, item.ID, item.Bvid)
		case err != nil:
			msg := failureMessage(err)
			log.Printf("downloader: worker %d failed item %d (%s): %v", id, item.ID, item.Bvid, err)
			p.st.UpdateQueueItemStatus(item.ID, models.StatusFailed, msg)
			p.broadcast(item, models.StatusFailed, msg, 0, true)
		default:
			p.st.UpdateQueueItemProgress(item.ID, 100)
			p.st.UpdateQueueItemStatus(item.ID, models.StatusCompleted, "Download finished")
			p.broadcast(item, models.StatusCompleted, "Download finished", 100, true)
		}
	}
}

// failureMessage folds the remote failure classification into the
// operator-visible queue message.
func failureMessage(err error) string {
	cls := bilibili.Classify(err)
	switch {
	case cls.Retryable:
		return fmt.Sprintf("%s (retryable): %v", cls.Kind, err)
	case cls.RetryIn > 0:
		return fmt.Sprintf("%s, wait %s before retrying: %v", cls.Kind, cls.RetryIn, err)
	default:
		return fmt.Sprintf("%s: %v", cls.Kind, err)
	}
}

// process runs the full pipeline for one queue item: resolve metadata,
// render the subtitle track, fetch the streams, merge, and record the
// finished file.
func (p *Pool) process(ctx context.Context, item *models.DownloadQueueItem) error {
	video, err := p.st.GetVideoByID(item.VideoID)
	if err != nil {
		return fmt.Errorf("load video %d: %w", item.VideoID, err)
	}
	if video.Deleted {
		return errors.New("video was removed from its source")
	}
	if !video.Valid {
		return errors.New("video is no longer available on the platform")
	}

	if err := p.checkPaused(item.ID); err != nil {
		return err
	}

	// Listings from some sources carry no cid; resolve it with a detail
	// fetch before touching the play-url endpoint.
	if video.Cid == 0 {
		detail, err := p.src.VideoInfo(ctx, video.Bvid)
		if err != nil {
			return fmt.Errorf("resolve detail for %s: %w", video.Bvid, err)
		}
		if detail.State != 0 {
			p.st.SetVideoValid(video.ID, false)
			return fmt.Errorf("video %s is unavailable (state %d)", video.Bvid, detail.State)
		}
		if err := p.st.UpdateVideoDetail(video.ID, detail.Cid, detail.Owner.Mid, detail.Owner.Name); err != nil {
			return err
		}
		video.Cid = detail.Cid
		if video.Cover == "" {
			video.Cover = detail.Pic
		}
	}

	dir := video.Path
	if !filepath.IsAbs(dir) {
		dir = filepath.Join(p.cfg.Library.Path, dir)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create video directory: %w", err)
	}
	stem := filepath.Base(dir)

	// Cover thumbnail and subtitle track are both best-effort; a failure
	// in either never blocks the media download.
	p.fetchThumbnail(ctx, video)
	p.renderSubtitles(ctx, video, filepath.Join(dir, stem+".srt"))

	if err := p.checkPaused(item.ID); err != nil {
		return err
	}

	streams, err := p.src.VideoStreams(ctx, video.Bvid, video.Cid)
	if err != nil {
		cls := bilibili.Classify(err)
		if cls.Kind == bilibili.FailEmptyStream || cls.Kind == bilibili.FailStreamDenied {
			p.st.SetVideoValid(video.ID, false)
		}
		return fmt.Errorf("resolve streams for %s: %w", video.Bvid, err)
	}

	final := filepath.Join(dir, stem+".mp4")

	if streams.Combined() {
		err = p.backend.Fetch(ctx, streams.Video.URLs, final, p.progressFunc(item, 0, 95))
		if err != nil {
			return fmt.Errorf("fetch media for %s: %w", video.Bvid, err)
		}
	} else {
		videoPart := filepath.Join(dir, stem+".video.m4s")
		audioPart := filepath.Join(dir, stem+".audio.m4s")

		if err := p.backend.Fetch(ctx, streams.Video.URLs, videoPart, p.progressFunc(item, 0, 70)); err != nil {
			return fmt.Errorf("fetch video stream for %s: %w", video.Bvid, err)
		}
		if err := p.checkPaused(item.ID); err != nil {
			return err
		}
		if err := p.backend.Fetch(ctx, streams.Audio.URLs, audioPart, p.progressFunc(item, 70, 90)); err != nil {
			return fmt.Errorf("fetch audio stream for %s: %w", video.Bvid, err)
		}

		p.report(item, 90, "Merging streams")
		if err := p.backend.Merge(ctx, videoPart, audioPart, final); err != nil {
			return err
		}
		os.Remove(videoPart)
		os.Remove(audioPart)
	}

	if err := p.st.MarkVideoDownloaded(video.ID, final); err != nil {
		return fmt.Errorf("record finished download: %w", err)
	}
	return nil
}

// checkPaused re-reads the item so a pause issued through the API takes
// effect between pipeline stages.
func (p *Pool) checkPaused(itemID int64) error {
	current, err := p.st.GetDownloadQueueItem(itemID)
	if err != nil {
		return nil
	}
	if current.Status == models.StatusPaused {
		return ErrDownloadPaused
	}
	return nil
}

func (p *Pool) fetchThumbnail(ctx context.Context, video *models.Video) {
	if video.Thumbnail != "" || video.Cover == "" {
		return
	}
	data, err := p.src.FetchBytes(ctx, video.Cover)
	if err != nil {
		log.Printf("downloader: cover fetch for %s failed: %v", video.Bvid, err)
		return
	}
	thumb, err := library.GenerateThumbnail(data)
	if err != nil {
		log.Printf("downloader: thumbnail for %s failed: %v", video.Bvid, err)
		return
	}
	if err := p.st.UpdateVideoThumbnail(video.ID, thumb); err != nil {
		log.Printf("downloader: saving thumbnail for %s failed: %v", video.Bvid, err)
	}
}

func (p *Pool) renderSubtitles(ctx context.Context, video *models.Video, dest string) {
	xmlData, err := p.src.DanmakuXML(ctx, video.Cid)
	if err != nil {
		log.Printf("downloader: comment track for %s failed: %v", video.Bvid, err)
		return
	}
	comments, err := danmaku.ParseXML(xmlData)
	if err != nil {
		log.Printf("downloader: comment track for %s unparsable: %v", video.Bvid, err)
		return
	}
	if len(comments) == 0 {
		return
	}

	events := danmaku.Render(comments, danmaku.Config{
		Width:          p.cfg.Danmaku.Width,
		Height:         p.cfg.Danmaku.Height,
		FontSize:       p.cfg.Danmaku.FontSize,
		ScrollDuration: p.cfg.Danmaku.Duration,
		Density:        p.cfg.Danmaku.Density,
	})

	f, err := os.Create(dest)
	if err != nil {
		log.Printf("downloader: subtitle file for %s failed: %v", video.Bvid, err)
		return
	}
	err = danmaku.WriteSRT(f, events)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		log.Printf("downloader: writing subtitles for %s failed: %v", video.Bvid, err)
		os.Remove(dest)
	}
}

// progressFunc maps a backend's [0,100] into this stage's slice of the
// overall item progress.
func (p *Pool) progressFunc(item *models.DownloadQueueItem, from, to float64) ProgressFunc {
	var last float64 = -1
	return func(pct float64) {
		overall := from + (to-from)*pct/100
		if overall-last < 1 && pct < 100 {
			return
		}
		last = overall
		p.report(item, overall, fmt.Sprintf("Downloading %.0f%%", overall))
	}
}

func (p *Pool) report(item *models.DownloadQueueItem, progress float64, message string) {
	p.st.UpdateQueueItemProgress(item.ID, progress)
	p.broadcast(item, models.StatusInProgress, message, progress, false)
}

func (p *Pool) broadcast(item *models.DownloadQueueItem, status, message string, progress float64, done bool) {
	if p.hub == nil {
		return
	}
	p.hub.BroadcastJSON(models.ProgressUpdate{
		JobID:    "downloader",
		Message:  message,
		Progress: progress,
		VideoID:  item.VideoID,
		Status:   status,
		Done:     done,
	})
}

// Pause stops the dispatcher from feeding new items. In-flight items
// finish unless paused individually.
func (p *Pool) Pause() {
	p.paused.Store(true)
	log.Println("downloader: queue paused")
}

func (p *Pool) Resume() {
	p.paused.Store(false)
	log.Println("downloader: queue resumed")
}

func (p *Pool) IsPaused() bool { return p.paused.Load() }

// PauseItem pauses one queue item and tells connected clients.
func (p *Pool) PauseItem(itemID int64) error {
	if err := p.st.PauseQueueItem(itemID); err != nil {
		return err
	}
	if item, err := p.st.GetDownloadQueueItem(itemID); err == nil {
		p.broadcast(item, models.StatusPaused, "Download paused by user", item.Progress, false)
	}
	return nil
}

// ResumeItem re-queues one paused item and tells connected clients.
func (p *Pool) ResumeItem(itemID int64) error {
	if err := p.st.ResumeQueueItem(itemID); err != nil {
		return err
	}
	if item, err := p.st.GetDownloadQueueItem(itemID); err == nil {
		p.broadcast(item, models.StatusQueued, "Download resumed by user", item.Progress, false)
	}
	return nil
}
