package downloader

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/tonylu00/bili-sync-sub002/internal/config"
)

// fakeAria2 answers just enough of the JSON-RPC surface for the
// backend: version probe, submission, status polling and cleanup.
type fakeAria2 struct {
	mu          sync.Mutex
	statusCalls int
	addUri      []interface{}
}

func (f *fakeAria2) handler(w http.ResponseWriter, r *http.Request) {
	var req rpcRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	write := func(result interface{}) {
		json.NewEncoder(w).Encode(map[string]interface{}{
			"jsonrpc": "2.0", "id": req.ID, "result": result,
		})
	}

	switch req.Method {
	case "aria2.getVersion":
		write(map[string]string{"version": "1.37.0"})
	case "aria2.addUri":
		f.addUri = req.Params
		write("gid0001")
	case "aria2.tellStatus":
		f.statusCalls++
		if f.statusCalls == 1 {
			write(map[string]string{"status": "active", "completedLength": "500", "totalLength": "1000"})
		} else {
			write(map[string]string{"status": "complete", "completedLength": "1000", "totalLength": "1000"})
		}
	case "aria2.removeDownloadResult", "aria2.purgeDownloadResult":
		write("OK")
	default:
		json.NewEncoder(w).Encode(map[string]interface{}{
			"jsonrpc": "2.0", "id": req.ID,
			"error": map[string]interface{}{"code": 1, "message": "unknown method " + req.Method},
		})
	}
}

func newAria2ForTest(t *testing.T, rpcURL string) *Aria2Backend {
	t.Helper()
	cfg := &config.Config{}
	cfg.Downloader.MinSplitMB = 16
	cfg.Downloader.Aria2.RPCURL = rpcURL
	cfg.Downloader.Aria2.Secret = "s3cret"
	cfg.Downloader.Aria2.Split = 8
	b := NewAria2(cfg, nil)
	b.pollPeriod = time.Millisecond
	return b
}

func TestAria2FetchSmallFileSingleConnection(t *testing.T) {
	fake := &fakeAria2{}
	rpc := httptest.NewServer(http.HandlerFunc(fake.handler))
	defer rpc.Close()

	cdn := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", "1000")
	}))
	defer cdn.Close()

	b := newAria2ForTest(t, rpc.URL)
	var reached float64
	err := b.Fetch(context.Background(),
		[]string{cdn.URL + "/file.m4s"},
		filepath.Join(t.TempDir(), "file.m4s"),
		func(pct float64) { reached = pct })
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	if reached != 100 {
		t.Errorf("final progress = %v, want 100", reached)
	}

	fake.mu.Lock()
	defer fake.mu.Unlock()
	if len(fake.addUri) != 3 {
		t.Fatalf("addUri params = %v, want token, uris and options", fake.addUri)
	}
	if fake.addUri[0] != "token:s3cret" {
		t.Errorf("first param = %v, want secret token", fake.addUri[0])
	}
	options, ok := fake.addUri[2].(map[string]interface{})
	if !ok {
		t.Fatalf("options param = %T", fake.addUri[2])
	}
	// 1000 bytes is below the split threshold.
	if options["split"] != "1" {
		t.Errorf("split = %v, want 1 for a small file", options["split"])
	}
	if options["out"] != "file.m4s" {
		t.Errorf("out = %v", options["out"])
	}
}

func TestAria2FetchLargeFileKeepsConfiguredSplit(t *testing.T) {
	fake := &fakeAria2{}
	rpc := httptest.NewServer(http.HandlerFunc(fake.handler))
	defer rpc.Close()

	cdn := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Length", strconv.FormatInt(64*mib, 10))
	}))
	defer cdn.Close()

	b := newAria2ForTest(t, rpc.URL)
	err := b.Fetch(context.Background(),
		[]string{cdn.URL + "/big.m4s"},
		filepath.Join(t.TempDir(), "big.m4s"), nil)
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}

	fake.mu.Lock()
	defer fake.mu.Unlock()
	options := fake.addUri[2].(map[string]interface{})
	if options["split"] != "8" {
		t.Errorf("split = %v, want the configured 8", options["split"])
	}
}

func TestAria2FetchReportsTransferError(t *testing.T) {
	rpc := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req rpcRequest
		json.NewDecoder(r.Body).Decode(&req)
		var result interface{}
		switch req.Method {
		case "aria2.addUri":
			result = "gid0002"
		case "aria2.tellStatus":
			result = map[string]string{"status": "error", "errorMessage": "403 from cdn"}
		default:
			result = "OK"
		}
		json.NewEncoder(w).Encode(map[string]interface{}{"jsonrpc": "2.0", "id": req.ID, "result": result})
	}))
	defer rpc.Close()

	b := newAria2ForTest(t, rpc.URL)
	err := b.Fetch(context.Background(), []string{"http://cdn.invalid/f"}, filepath.Join(t.TempDir(), "f"), nil)
	if err == nil {
		t.Fatal("expected the transfer error to surface")
	}
}

func TestAria2RestartReprobes(t *testing.T) {
	fake := &fakeAria2{}
	rpc := httptest.NewServer(http.HandlerFunc(fake.handler))
	defer rpc.Close()

	b := newAria2ForTest(t, rpc.URL)
	if err := b.Restart(context.Background()); err != nil {
		t.Fatalf("Restart against a healthy daemon: %v", err)
	}

	rpc.Close()
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := b.Restart(ctx); err == nil {
		t.Fatal("expected Restart to surface an unreachable daemon")
	}
}

func TestAria2ProbeFailure(t *testing.T) {
	b := newAria2ForTest(t, "http://127.0.0.1:1/jsonrpc")
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := b.Probe(ctx); err == nil {
		t.Fatal("expected probe against a closed port to fail")
	}
}
