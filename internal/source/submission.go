package source

import (
	"context"
	"fmt"
	"strconv"

	"github.com/tonylu00/bili-sync-sub002/internal/bilibili"
	"github.com/tonylu00/bili-sync-sub002/internal/models"
)

// Submission adapts a creator's full upload feed. These listings run
// to hundreds of pages for prolific creators, so this is the one
// variant that checkpoints mid-scan progress, keyed by creator id.
type Submission struct {
	row models.Submission
}

func NewSubmission(row models.Submission) *Submission {
	return &Submission{row: row}
}

func (s *Submission) Kind() models.SourceKind { return models.KindSubmission }
func (s *Submission) ID() int64               { return s.row.ID }
func (s *Submission) Name() string            { return s.row.UpperName }

func (s *Submission) Label() string {
	return fmt.Sprintf("submission %d (%s)", s.row.UpperID, s.row.UpperName)
}

func (s *Submission) Path() string      { return s.row.Path }
func (s *Submission) Watermark() string { return s.row.LatestRowAt }

func (s *Submission) ShouldTake(remoteTime, watermark string) bool {
	return laterThan(remoteTime, watermark)
}

func (s *Submission) ItemTime(item models.RemoteItem) string { return item.Ctime }

func (s *Submission) Ordered() bool { return true }

func (s *Submission) ScanDeleted() bool { return s.row.ScanDeleted }

func (s *Submission) Bind(v *models.Video) {
	id := s.row.ID
	v.SubmissionID = &id
}

func (s *Submission) Fetch(client *bilibili.Client) *bilibili.Pager {
	return bilibili.NewPager(s.Label(), func(ctx context.Context, page int) (*bilibili.Page, error) {
		return client.SubmissionPage(ctx, s.row.UpperID, page)
	})
}

func (s *Submission) CheckpointKey() string {
	return strconv.FormatInt(s.row.UpperID, 10)
}
