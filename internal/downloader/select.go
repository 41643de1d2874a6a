package downloader

import (
	"context"
	"log"
	"time"

	"github.com/tonylu00/bili-sync-sub002/internal/bilibili"
	"github.com/tonylu00/bili-sync-sub002/internal/config"
)

const probeTimeout = 5 * time.Second

// Select picks the backend for this process's lifetime. Multithreaded
// downloading requires a reachable aria2 daemon; if the probe fails the
// process degrades to the single-connection backend once, at startup,
// rather than re-probing on every fetch.
func Select(cfg *config.Config, headers bilibili.HeaderProvider) Backend {
	if !cfg.Downloader.Multithread {
		return NewSimple(headers)
	}

	a := NewAria2(cfg, headers)
	ctx, cancel := context.WithTimeout(context.Background(), probeTimeout)
	defer cancel()
	if err := a.Probe(ctx); err != nil {
		log.Printf("aria2 unreachable at %s, using single-connection downloads: %v",
			cfg.Downloader.Aria2.RPCURL, err)
		return NewSimple(headers)
	}
	return a
}
