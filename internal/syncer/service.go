// Package syncer runs the periodic sweep over all configured remote
// sources: it walks each source's paged listing, filters out items the
// library already has, persists the new ones, and queues them for
// download.
package syncer

import (
	"context"
	"errors"
	"fmt"
	"log"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	"github.com/tonylu00/bili-sync-sub002/internal/bilibili"
	"github.com/tonylu00/bili-sync-sub002/internal/config"
	"github.com/tonylu00/bili-sync-sub002/internal/models"
	"github.com/tonylu00/bili-sync-sub002/internal/source"
	"github.com/tonylu00/bili-sync-sub002/internal/store"
	"github.com/tonylu00/bili-sync-sub002/internal/util"
	"github.com/tonylu00/bili-sync-sub002/internal/websocket"
)

// insertBatchSize caps how many new items are written per transaction.
// Each flush also advances the in-memory checkpoint, so it bounds the
// re-processing window after a crash.
const insertBatchSize = 20

// ErrSweepRunning is returned when a sweep is triggered while another
// one is still in flight.
var ErrSweepRunning = errors.New("a sweep is already running")

// Notifier receives a finished scan summary. Delivery is the
// notifier's concern; the sweep is done once it hands the summary over.
type Notifier interface {
	ScanFinished(summary *ScanSummary)
}

// Service owns the sync engine's shared state: the checkpoint store,
// the pause flag and the published task status. One Service exists per
// process.
type Service struct {
	st     *store.Store
	client *bilibili.Client
	cfg    *config.Config
	hub    *websocket.Hub

	checkpoints *CheckpointStore
	status      *StatusPublisher
	pause       *PauseController
	notifier    Notifier
	interval    time.Duration

	mu          sync.Mutex
	sweeping    bool
	lastSummary *ScanSummary
}

func New(st *store.Store, client *bilibili.Client, cfg *config.Config, hub *websocket.Hub) *Service {
	return &Service{
		st:          st,
		client:      client,
		cfg:         cfg,
		hub:         hub,
		checkpoints: NewCheckpointStore(st),
		status:      NewStatusPublisher(),
		pause:       &PauseController{},
		interval:    time.Duration(cfg.ScanInterval) * time.Minute,
	}
}

// SetNotifier installs the summary receiver. A nil notifier is fine.
func (s *Service) SetNotifier(n Notifier) { s.notifier = n }

// Checkpoints exposes the checkpoint store, mainly for source removal
// and for the control plane.
func (s *Service) Checkpoints() *CheckpointStore { return s.checkpoints }

// Pause requests that the sweep suspend before starting its next
// source. The source currently being scanned finishes first.
func (s *Service) Pause() { s.pause.Pause() }

// Resume lets a paused sweep continue with its next unprocessed
// source.
func (s *Service) Resume() { s.pause.Resume() }

// Paused reports the pause flag.
func (s *Service) Paused() bool { return s.pause.Paused() }

// Status returns the current task status snapshot.
func (s *Service) Status() TaskStatus { return s.status.Current() }

// LastSummary returns the most recent sweep's summary, or nil before
// the first sweep finishes.
func (s *Service) LastSummary() *ScanSummary {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSummary
}

// Start loads durable checkpoints so the first sweep resumes where the
// last run stopped. Scheduling itself lives in the jobs package; this
// only has to happen before any scan runs.
func (s *Service) Start() error {
	if err := s.checkpoints.Load(); err != nil {
		log.Printf("Warning: could not load scan checkpoints: %v", err)
	}
	return nil
}

// Sweep runs one full pass over all enabled sources. Per-source scan
// errors are recorded in the summary and do not stop the remaining
// sources; a failed checkpoint save does fail the sweep, since
// pretending it succeeded would re-process items after a restart.
func (s *Service) Sweep(ctx context.Context) (*ScanSummary, error) {
	s.mu.Lock()
	if s.sweeping {
		s.mu.Unlock()
		return nil, ErrSweepRunning
	}
	s.sweeping = true
	s.mu.Unlock()
	defer func() {
		s.mu.Lock()
		s.sweeping = false
		s.mu.Unlock()
	}()

	startedAt := time.Now()
	prev := s.status.Current()
	s.status.Publish(TaskStatus{
		IsRunning:  true,
		LastRun:    startedAt,
		LastFinish: prev.LastFinish,
	})

	collector := NewCollector()
	adapters, listErr := s.adapters()
	if listErr == nil {
		log.Printf("Sweep started over %d enabled sources.", len(adapters))
		for _, ad := range adapters {
			if err := s.pause.Wait(ctx); err != nil {
				break
			}
			if err := s.scanSource(ctx, ad, collector); err != nil {
				log.Printf("Scan of %s failed: %v", ad.Label(), err)
				collector.Fail(ad.Kind(), ad.ID(), err)
			}
			if ctx.Err() != nil {
				break
			}
		}
	}

	saveErr := s.checkpoints.Save()

	summary := collector.Summary()
	finishedAt := time.Now()
	status := TaskStatus{
		LastRun:    startedAt,
		LastFinish: finishedAt,
	}
	if s.interval > 0 {
		status.NextRun = finishedAt.Add(s.interval)
	}
	s.status.Publish(status)

	s.mu.Lock()
	s.lastSummary = &summary
	s.mu.Unlock()

	log.Printf("Sweep finished: %d sources, %d new videos in %s.",
		summary.Sources, summary.NewVideos, summary.Duration.Round(time.Millisecond))

	if s.hub != nil {
		s.hub.BroadcastJSON(map[string]interface{}{"type": "scan_summary", "summary": summary})
	}
	if s.notifier != nil {
		s.notifier.ScanFinished(&summary)
	}

	if listErr != nil {
		return &summary, fmt.Errorf("listing sources: %w", listErr)
	}
	if saveErr != nil {
		return &summary, fmt.Errorf("saving checkpoints: %w", saveErr)
	}
	return &summary, ctx.Err()
}

// adapters builds the scan order: every enabled source, wrapped in its
// variant's adapter.
func (s *Service) adapters() ([]source.Adapter, error) {
	var out []source.Adapter

	favorites, err := s.st.ListFavorites()
	if err != nil {
		return nil, err
	}
	for _, f := range favorites {
		if f.Enabled {
			out = append(out, source.NewFavorite(f))
		}
	}

	watchLater, err := s.st.ListWatchLater()
	if err != nil {
		return nil, err
	}
	for _, w := range watchLater {
		if w.Enabled {
			out = append(out, source.NewWatchLater(w))
		}
	}

	collections, err := s.st.ListCollections()
	if err != nil {
		return nil, err
	}
	for _, c := range collections {
		if c.Enabled {
			out = append(out, source.NewCollection(c))
		}
	}

	submissions, err := s.st.ListSubmissions()
	if err != nil {
		return nil, err
	}
	for _, sub := range submissions {
		if sub.Enabled {
			out = append(out, source.NewSubmission(sub))
		}
	}

	bangumi, err := s.st.ListBangumi()
	if err != nil {
		return nil, err
	}
	for _, b := range bangumi {
		if b.Enabled {
			out = append(out, source.NewBangumi(b))
		}
	}

	return out, nil
}

// scanSource walks one source's listing and ingests everything newer
// than its watermark. Newest-first listings stop at the first stale
// item, unless the source reconciles deletions and therefore has to
// see the whole listing.
func (s *Service) scanSource(ctx context.Context, ad source.Adapter, col *Collector) error {
	col.StartSource(ad.Kind(), ad.ID(), ad.Label())

	pager := ad.Fetch(s.client)
	key := ad.CheckpointKey()
	if key != "" {
		if cp, ok := s.checkpoints.Get(key); ok {
			log.Printf("Resuming %s at page %d, item %d.", ad.Label(), cp.Page, cp.Index)
			pager.Resume(cp.Page, cp.Index)
		}
	}

	watermark := ad.Watermark()
	maxSeen := watermark
	scanDeleted := ad.ScanDeleted()
	earlyStop := ad.Ordered() && !scanDeleted
	var seen map[string]bool
	if scanDeleted {
		seen = make(map[string]bool)
	}

	var batch []models.Video
	flush := func() error {
		if len(batch) > 0 {
			inserted, err := s.st.InsertVideos(batch)
			if err != nil {
				return err
			}
			batch = batch[:0]
			if len(inserted) > 0 {
				col.Append(ad.Kind(), ad.ID(), inserted)
				ids := make([]int64, len(inserted))
				for i, v := range inserted {
					ids[i] = v.ID
				}
				if err := s.st.EnqueueVideos(ids); err != nil {
					return err
				}
			}
		}
		if key != "" {
			page, index := pager.Pos()
			s.checkpoints.Set(key, Checkpoint{Page: page, Index: index})
		}
		return nil
	}

	for {
		item, ok, err := pager.Next(ctx)
		if err != nil {
			// Persist what was already consumed so the checkpoint
			// matches the ingested state, then surface the error.
			if ferr := flush(); ferr != nil {
				return ferr
			}
			return err
		}
		if !ok {
			break
		}
		if scanDeleted {
			seen[item.Bvid] = true
		}

		itemTime := ad.ItemTime(item)
		if ad.ShouldTake(itemTime, watermark) {
			maxSeen = laterTime(maxSeen, itemTime)
			batch = append(batch, videoFromItem(ad, item))
			if len(batch) >= insertBatchSize {
				if err := flush(); err != nil {
					return err
				}
			}
		} else if earlyStop {
			break
		}
	}

	if err := flush(); err != nil {
		return err
	}

	if scanDeleted {
		n, err := s.st.MarkMissingDeleted(ad.Kind(), ad.ID(), seen)
		if err != nil {
			return err
		}
		if n > 0 {
			log.Printf("%s: marked %d vanished videos as deleted.", ad.Label(), n)
		}
	}

	if maxSeen != watermark {
		if err := s.st.UpdateWatermark(ad.Kind(), ad.ID(), maxSeen); err != nil {
			return err
		}
	}

	// The listing was walked to its end, so the next sweep starts
	// over at page one.
	if key != "" {
		s.checkpoints.Clear(key)
	}
	return nil
}

// RemoveSource deletes a source and purges its checkpoint. The
// checkpoint goes first: losing it for a still-existing source only
// costs a rescan, while an orphaned checkpoint would linger forever.
func (s *Service) RemoveSource(kind models.SourceKind, id int64) error {
	if kind == models.KindSubmission {
		sub, err := s.st.GetSubmissionByID(id)
		if err != nil && err != store.ErrNotFound {
			return err
		}
		if err == nil {
			if err := s.checkpoints.Remove(strconv.FormatInt(sub.UpperID, 10)); err != nil {
				return err
			}
		}
	}
	return s.st.DeleteSource(kind, id)
}

// videoFromItem converts a remote descriptor into the row to persist,
// stamped with the owning source's identity.
func videoFromItem(ad source.Adapter, item models.RemoteItem) models.Video {
	v := models.Video{
		Bvid:      item.Bvid,
		Cid:       item.Cid,
		Name:      item.Name,
		Intro:     item.Intro,
		Cover:     item.Cover,
		UpperID:   item.UpperID,
		UpperName: item.UpperName,
		Ctime:     item.Ctime,
		FavTime:   item.FavTime,
		Valid:     !item.Invalid,
	}
	if item.EpID != 0 {
		ep := item.EpID
		v.EpID = &ep
	}
	name := util.SanitizeFolderName(item.Name)
	if name == "" {
		name = item.Bvid
	} else {
		// Titles are not unique; the bvid suffix keeps two same-named
		// videos out of one directory.
		name = name + "-" + item.Bvid
	}
	v.Path = filepath.Join(ad.Path(), name)
	ad.Bind(&v)
	return v
}

// laterTime returns the later of two decimal unix-seconds strings;
// unparsable values count as zero.
func laterTime(a, b string) string {
	if parseUnix(b) > parseUnix(a) {
		return b
	}
	return a
}

func parseUnix(s string) int64 {
	v, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return v
}
