package downloader

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
)

// MergeStreams remuxes separate video and audio files into one
// container with ffmpeg. Streams are copied, not re-encoded.
func MergeStreams(ctx context.Context, videoPath, audioPath, outPath string) error {
	cmd := exec.CommandContext(ctx, "ffmpeg",
		"-y", "-loglevel", "error",
		"-i", videoPath,
		"-i", audioPath,
		"-c", "copy",
		outPath,
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		os.Remove(outPath)
		msg := stderr.String()
		if len(msg) > 500 {
			msg = msg[len(msg)-500:]
		}
		return fmt.Errorf("ffmpeg merge failed: %w: %s", err, msg)
	}
	return nil
}
