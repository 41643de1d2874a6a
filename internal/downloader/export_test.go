// Test-only exports so the external test package can reach unexported
// identifiers without importing testutil from inside the package.

package downloader

import (
	"context"

	"github.com/tonylu00/bili-sync-sub002/internal/models"
)

var FailureMessage = failureMessage

func (p *Pool) Process(ctx context.Context, item *models.DownloadQueueItem) error {
	return p.process(ctx, item)
}
