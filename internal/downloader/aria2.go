package downloader

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/tonylu00/bili-sync-sub002/internal/bilibili"
	"github.com/tonylu00/bili-sync-sub002/internal/config"
)

const mib = 1 << 20

// Aria2Backend hands fetches to an external aria2c daemon over its
// JSON-RPC endpoint and polls the transfer to completion. Splitting a
// file across connections only pays off past a size threshold, so small
// files are forced to a single connection.
type Aria2Backend struct {
	rpcURL     string
	secret     string
	split      int
	minSplit   int64 // bytes
	headers    []string
	hp         bilibili.HeaderProvider
	http       *http.Client
	pollPeriod time.Duration
}

func NewAria2(cfg *config.Config, headers bilibili.HeaderProvider) *Aria2Backend {
	return &Aria2Backend{
		rpcURL:     cfg.Downloader.Aria2.RPCURL,
		secret:     cfg.Downloader.Aria2.Secret,
		split:      cfg.Downloader.Aria2.Split,
		minSplit:   cfg.Downloader.MinSplitMB * mib,
		headers:    headerLines(headers),
		hp:         headers,
		http:       &http.Client{Timeout: 30 * time.Second},
		pollPeriod: 500 * time.Millisecond,
	}
}

func (b *Aria2Backend) Name() string { return "aria2" }

type rpcRequest struct {
	Version string        `json:"jsonrpc"`
	ID      string        `json:"id"`
	Method  string        `json:"method"`
	Params  []interface{} `json:"params"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func (e *rpcError) Error() string {
	return fmt.Sprintf("aria2 rpc error %d: %s", e.Code, e.Message)
}

type rpcResponse struct {
	Result json.RawMessage `json:"result"`
	Error  *rpcError       `json:"error"`
}

// call issues one JSON-RPC method. The secret token, when configured,
// is always the first positional parameter.
func (b *Aria2Backend) call(ctx context.Context, method string, params ...interface{}) (json.RawMessage, error) {
	if b.secret != "" {
		params = append([]interface{}{"token:" + b.secret}, params...)
	}
	if params == nil {
		params = []interface{}{}
	}
	payload, err := json.Marshal(rpcRequest{
		Version: "2.0",
		ID:      uuid.NewString(),
		Method:  method,
		Params:  params,
	})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, b.rpcURL, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := b.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", method, err)
	}
	defer resp.Body.Close()

	var decoded rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return nil, fmt.Errorf("%s: decode response: %w", method, err)
	}
	if decoded.Error != nil {
		return nil, fmt.Errorf("%s: %w", method, decoded.Error)
	}
	return decoded.Result, nil
}

// Probe checks that the daemon answers and the secret is accepted.
func (b *Aria2Backend) Probe(ctx context.Context) error {
	_, err := b.call(ctx, "aria2.getVersion")
	return err
}

// Merge remuxes locally; aria2 only moves bytes.
func (b *Aria2Backend) Merge(ctx context.Context, videoPath, audioPath, outPath string) error {
	return MergeStreams(ctx, videoPath, audioPath, outPath)
}

// Restart re-validates the daemon connection, for use after the daemon
// was restarted or reconfigured.
func (b *Aria2Backend) Restart(ctx context.Context) error {
	return b.Probe(ctx)
}

func (b *Aria2Backend) Shutdown(ctx context.Context) error {
	_, err := b.call(ctx, "aria2.purgeDownloadResult")
	return err
}

// Fetch submits the URL chain to aria2 and polls until the transfer
// finishes. aria2 handles candidate fallback itself when given several
// URIs for the same file.
func (b *Aria2Backend) Fetch(ctx context.Context, urls []string, dest string, progress ProgressFunc) error {
	if len(urls) == 0 {
		return fmt.Errorf("no candidate urls for %s", filepath.Base(dest))
	}

	split := b.split
	if size := b.contentLength(ctx, urls[0]); size > 0 && size < b.minSplit {
		split = 1
	}

	options := map[string]interface{}{
		"dir":                       filepath.Dir(dest),
		"out":                       filepath.Base(dest),
		"split":                     strconv.Itoa(split),
		"max-connection-per-server": strconv.Itoa(split),
		"allow-overwrite":           "true",
		"auto-file-renaming":        "false",
	}
	if len(b.headers) > 0 {
		options["header"] = b.headers
	}

	result, err := b.call(ctx, "aria2.addUri", urls, options)
	if err != nil {
		return err
	}
	var gid string
	if err := json.Unmarshal(result, &gid); err != nil {
		return fmt.Errorf("aria2.addUri: unexpected result %s", result)
	}

	return b.wait(ctx, gid, progress)
}

func (b *Aria2Backend) wait(ctx context.Context, gid string, progress ProgressFunc) error {
	ticker := time.NewTicker(b.pollPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			b.call(context.Background(), "aria2.remove", gid)
			return ctx.Err()
		case <-ticker.C:
		}

		result, err := b.call(ctx, "aria2.tellStatus", gid,
			[]string{"status", "completedLength", "totalLength", "errorMessage"})
		if err != nil {
			return err
		}
		var status struct {
			Status          string `json:"status"`
			CompletedLength string `json:"completedLength"`
			TotalLength     string `json:"totalLength"`
			ErrorMessage    string `json:"errorMessage"`
		}
		if err := json.Unmarshal(result, &status); err != nil {
			return fmt.Errorf("aria2.tellStatus: unexpected result %s", result)
		}

		switch status.Status {
		case "complete":
			if progress != nil {
				progress(100)
			}
			b.call(ctx, "aria2.removeDownloadResult", gid)
			return nil
		case "error":
			b.call(ctx, "aria2.removeDownloadResult", gid)
			return fmt.Errorf("aria2 transfer failed: %s", status.ErrorMessage)
		case "removed":
			return fmt.Errorf("aria2 transfer was removed externally")
		}

		if progress != nil {
			done, _ := strconv.ParseFloat(status.CompletedLength, 64)
			total, _ := strconv.ParseFloat(status.TotalLength, 64)
			if total > 0 {
				progress(done / total * 100)
			}
		}
	}
}

// contentLength asks the CDN for the file size. Zero means unknown;
// the caller then keeps the configured split.
func (b *Aria2Backend) contentLength(ctx context.Context, rawURL string) int64 {
	req, err := http.NewRequestWithContext(ctx, http.MethodHead, rawURL, nil)
	if err != nil {
		return 0
	}
	if b.hp != nil {
		b.hp.ApplyHeaders(req)
	}
	resp, err := b.http.Do(req)
	if err != nil {
		return 0
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return 0
	}
	return resp.ContentLength
}
