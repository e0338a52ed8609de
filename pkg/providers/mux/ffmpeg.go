// Package mux implements the media I/O collaborator boundary (dub.Muxer):
// fetching the source media, extracting its audio track, muting its
// video track, and muxing the dubbed audio back in. Extraction, muting,
// muxing and probing shell out to ffmpeg/ffprobe; hosted sources are
// fetched with yt-dlp and direct media URLs with a plain HTTP GET.
package mux

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/exec"
	"path/filepath"
	"regexp"
	"strconv"
	"strings"

	"github.com/lokutor-ai/lokutor-dub/pkg/dub"
)

type FFmpegMuxer struct {
	ffmpegBinary  string
	ffprobeBinary string
}

func NewFFmpegMuxer() *FFmpegMuxer {
	return &FFmpegMuxer{ffmpegBinary: "ffmpeg", ffprobeBinary: "ffprobe"}
}

// Fetch implements dub.Muxer. A local path is returned unchanged after an
// existence check; a bare 11-char video ID is expanded to its YouTube
// watch URL; anything else that looks like a URL is downloaded verbatim
// (no container re-encode). yt-dlp, not a raw HTTP GET, handles any input
// that resolves to a hosting-site watch page rather than a direct media
// URL.
func (m *FFmpegMuxer) Fetch(ctx context.Context, input, downloadDirectory string) (string, error) {
	if videoIDPattern.MatchString(input) {
		input = "https://www.youtube.com/watch?v=" + input
	}

	if !isURL(input) {
		if _, err := os.Stat(input); err != nil {
			return "", fmt.Errorf("mux: source video not found: %w", err)
		}
		return input, nil
	}

	if !isDirectMediaURL(input) {
		return m.fetchViaYtDlp(ctx, input, downloadDirectory)
	}

	if err := os.MkdirAll(downloadDirectory, 0o755); err != nil {
		return "", fmt.Errorf("mux: mkdir %s: %w", downloadDirectory, err)
	}

	ext := filepath.Ext(input)
	if ext == "" {
		ext = ".mp4"
	}
	outPath := filepath.Join(downloadDirectory, "source"+ext)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, input, nil)
	if err != nil {
		return "", fmt.Errorf("mux: build fetch request: %w", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("mux: fetch %s: %w", input, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("mux: fetch %s: status %d", input, resp.StatusCode)
	}

	out, err := os.Create(outPath)
	if err != nil {
		return "", fmt.Errorf("mux: create %s: %w", outPath, err)
	}
	defer out.Close()
	if _, err := io.Copy(out, resp.Body); err != nil {
		return "", fmt.Errorf("mux: write %s: %w", outPath, err)
	}
	return outPath, nil
}

// ExtractAudio implements dub.Muxer, pulling the source audio track out
// as a standalone WAV for transcription and separation.
func (m *FFmpegMuxer) ExtractAudio(ctx context.Context, videoPath, outDir string) (string, error) {
	if err := requireBinary(m.ffmpegBinary); err != nil {
		return "", err
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", fmt.Errorf("mux: mkdir %s: %w", outDir, err)
	}
	outPath := filepath.Join(outDir, "audio.wav")

	cmd := exec.CommandContext(ctx, m.ffmpegBinary,
		"-y", "-i", videoPath,
		"-vn",
		"-acodec", "pcm_s16le", "-ar", "44100", "-ac", "1",
		outPath,
	)
	if out, err := cmd.CombinedOutput(); err != nil {
		return "", fmt.Errorf("ffmpeg extract audio: %w: %s", err, string(out))
	}
	return outPath, nil
}

// MuteVideo implements dub.Muxer, stripping the original audio track. It
// tries a stream copy first, which preserves quality; when the container
// or codec refuses (some fragmented/odd sources do), it falls back to a
// re-encode into mp4.
func (m *FFmpegMuxer) MuteVideo(ctx context.Context, videoPath, outDir string) (string, error) {
	if err := requireBinary(m.ffmpegBinary); err != nil {
		return "", err
	}
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return "", fmt.Errorf("mux: mkdir %s: %w", outDir, err)
	}

	outPath := filepath.Join(outDir, "muted"+filepath.Ext(videoPath))
	copyCmd := exec.CommandContext(ctx, m.ffmpegBinary,
		"-y", "-i", videoPath,
		"-c", "copy", "-an",
		outPath,
	)
	copyOut, copyErr := copyCmd.CombinedOutput()
	if copyErr == nil {
		return outPath, nil
	}

	outPath = filepath.Join(outDir, "muted.mp4")
	encodeCmd := exec.CommandContext(ctx, m.ffmpegBinary,
		"-y", "-i", videoPath,
		"-c:v", "libx264", "-crf", "18", "-preset", "medium", "-an",
		outPath,
	)
	if out, err := encodeCmd.CombinedOutput(); err != nil {
		return "", fmt.Errorf("ffmpeg mute video: stream copy failed (%s), re-encode failed: %w: %s",
			firstLine(copyOut), err, string(out))
	}
	return outPath, nil
}

// firstLine compresses ffmpeg's multi-line stderr into the one line worth
// quoting when both mute attempts fail.
func firstLine(out []byte) string {
	s := strings.TrimSpace(string(out))
	if i := strings.IndexByte(s, '\n'); i != -1 {
		s = s[:i]
	}
	return s
}

// Mux implements dub.Muxer, combining the muted video with the final
// dubbed audio track. hd selects a higher-quality re-encode of the video
// stream; otherwise the video stream is copied untouched.
func (m *FFmpegMuxer) Mux(ctx context.Context, mutedVideoPath, audioPath, outPath string, hd bool) error {
	if err := requireBinary(m.ffmpegBinary); err != nil {
		return err
	}
	args := []string{"-y", "-i", mutedVideoPath, "-i", audioPath}
	if hd {
		args = append(args, "-c:v", "libx264", "-crf", "18", "-preset", "slow")
	} else {
		args = append(args, "-c:v", "copy")
	}
	args = append(args, "-c:a", "aac", "-shortest", outPath)

	cmd := exec.CommandContext(ctx, m.ffmpegBinary, args...)
	if out, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("ffmpeg mux: %w: %s", err, string(out))
	}
	return nil
}

// Probe implements dub.Muxer, reading the media's duration via ffprobe.
func (m *FFmpegMuxer) Probe(ctx context.Context, mediaPath string) (float64, error) {
	if err := requireBinary(m.ffprobeBinary); err != nil {
		return 0, err
	}
	cmd := exec.CommandContext(ctx, m.ffprobeBinary,
		"-v", "error",
		"-show_entries", "format=duration",
		"-of", "default=noprint_wrappers=1:nokey=1",
		mediaPath,
	)
	out, err := cmd.Output()
	if err != nil {
		return 0, fmt.Errorf("ffprobe: %w", err)
	}
	duration, err := strconv.ParseFloat(strings.TrimSpace(string(out)), 64)
	if err != nil {
		return 0, fmt.Errorf("ffprobe: parse duration %q: %w", string(out), err)
	}
	return duration, nil
}

func requireBinary(name string) error {
	if _, err := exec.LookPath(name); err != nil {
		return fmt.Errorf("%w: %s", dub.ErrMissingExternalTool, name)
	}
	return nil
}

func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}

var videoIDPattern = regexp.MustCompile(`^[A-Za-z0-9_-]{11}$`)

// isDirectMediaURL treats anything with a recognized media file
// extension as directly fetchable; hosting-site watch pages (youtube.com,
// youtu.be, and similar) need yt-dlp to resolve to an actual stream.
func isDirectMediaURL(u string) bool {
	ext := strings.ToLower(filepath.Ext(u))
	switch strings.SplitN(ext, "?", 2)[0] {
	case ".mp4", ".mkv", ".mov", ".webm", ".avi", ".m4a", ".wav", ".mp3":
		return true
	default:
		return false
	}
}

// fetchViaYtDlp shells out to yt-dlp to resolve a hosting-site URL (or
// video ID, already expanded by the caller) into a downloaded media file.
func (m *FFmpegMuxer) fetchViaYtDlp(ctx context.Context, input, downloadDirectory string) (string, error) {
	if err := requireBinary("yt-dlp"); err != nil {
		return "", err
	}
	if err := os.MkdirAll(downloadDirectory, 0o755); err != nil {
		return "", fmt.Errorf("mux: mkdir %s: %w", downloadDirectory, err)
	}
	outTemplate := filepath.Join(downloadDirectory, "source.%(ext)s")

	cmd := exec.CommandContext(ctx, "yt-dlp",
		"-f", "bestvideo+bestaudio/best",
		"--merge-output-format", "mp4",
		"-o", outTemplate,
		input,
	)
	if out, err := cmd.CombinedOutput(); err != nil {
		return "", fmt.Errorf("yt-dlp: %w: %s", err, string(out))
	}

	outPath := filepath.Join(downloadDirectory, "source.mp4")
	if _, err := os.Stat(outPath); err != nil {
		return "", fmt.Errorf("mux: yt-dlp did not produce %s: %w", outPath, err)
	}
	return outPath, nil
}
