package video

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strconv"
	"strings"
	"time"

	"autopost/internal/config"
	"autopost/internal/logging"
	"autopost/internal/scratch"
	"autopost/internal/services"
)

// silentDuration bounds the video length when no narration exists.
const silentDuration = 30 * time.Second

// Renderer produces a video file from an image and an optional audio track.
type Renderer interface {
	Render(ctx context.Context, imagePath, audioPath string) (string, error)
}

// Allocator hands out artifact paths. scratch.Manager implements it.
type Allocator interface {
	Path(kind scratch.Kind, ext string) (string, error)
}

// FFmpegRenderer renders still-image videos with ffmpeg.
type FFmpegRenderer struct {
	binary  string
	width   int
	height  int
	timeout time.Duration
	alloc   Allocator
	logger  *slog.Logger
}

// NewFFmpegRenderer builds a renderer from the video config section.
func NewFFmpegRenderer(cfg config.Video, alloc Allocator, logger *slog.Logger) *FFmpegRenderer {
	binary := strings.TrimSpace(cfg.FFmpegBinary)
	if binary == "" {
		binary = "ffmpeg"
	}
	return &FFmpegRenderer{
		binary:  binary,
		width:   cfg.Width,
		height:  cfg.Height,
		timeout: time.Duration(cfg.RenderTimeout) * time.Second,
		alloc:   alloc,
		logger:  logging.NewComponentLogger(logger, "ffmpeg"),
	}
}

// Render writes an mp4 into scratch space and returns its path. audioPath may
// be empty.
func (r *FFmpegRenderer) Render(ctx context.Context, imagePath, audioPath string) (string, error) {
	if strings.TrimSpace(imagePath) == "" {
		return "", services.Wrap(services.ErrValidation, "rendering_video", "render", "image path is empty", nil)
	}
	if audioPath != "" {
		if _, err := os.Stat(audioPath); err != nil {
			logging.WarnWithContext(logging.WithContext(ctx, r.logger), "narration missing; rendering silent video", "video_silent_fallback",
				logging.String("audio_path", audioPath),
				logging.Error(err),
				logging.String(logging.FieldImpact, "video has no narration"))
			audioPath = ""
		}
	}
	output, err := r.alloc.Path(scratch.KindVideo, "mp4")
	if err != nil {
		return "", services.Wrap(services.ErrConfiguration, "rendering_video", "allocate output", "", err)
	}

	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	args := buildArgs(imagePath, audioPath, output, r.width, r.height)
	logging.WithContext(ctx, r.logger).Debug("running ffmpeg",
		logging.String("binary", r.binary),
		logging.String("args", strings.Join(args, " ")))

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, r.binary, args...)
	cmd.Stderr = &stderr
	start := time.Now()
	if err := cmd.Run(); err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return "", services.Wrap(services.ErrTimeout, "rendering_video", "ffmpeg", fmt.Sprintf("exceeded %s", r.timeout), err)
		}
		return "", services.Wrap(services.ErrExternalTool, "rendering_video", "ffmpeg", tail(stderr.String(), 5), err)
	}
	info, err := os.Stat(output)
	if err != nil || info.Size() == 0 {
		return "", services.Wrap(services.ErrExternalTool, "rendering_video", "ffmpeg", "no output produced", err)
	}
	logging.WithContext(ctx, r.logger).Info("video rendered",
		logging.String("path", output),
		logging.Int64("bytes", info.Size()),
		logging.Duration("elapsed", time.Since(start)))
	return output, nil
}

func buildArgs(imagePath, audioPath, output string, width, height int) []string {
	args := []string{"-y", "-loop", "1", "-i", imagePath}
	if audioPath != "" {
		args = append(args, "-i", audioPath)
	} else {
		args = append(args,
			"-f", "lavfi", "-i", "anullsrc=channel_layout=stereo:sample_rate=44100",
			"-t", strconv.Itoa(int(silentDuration/time.Second)))
	}
	if width > 0 && height > 0 {
		w, h := strconv.Itoa(width), strconv.Itoa(height)
		args = append(args, "-vf",
			"scale="+w+":"+h+":force_original_aspect_ratio=decrease,pad="+w+":"+h+":(ow-iw)/2:(oh-ih)/2")
	}
	args = append(args,
		"-c:v", "libx264", "-tune", "stillimage",
		"-c:a", "aac", "-b:a", "192k",
		"-pix_fmt", "yuv420p",
		"-shortest",
		output)
	return args
}

func tail(text string, lines int) string {
	parts := strings.Split(strings.TrimSpace(text), "\n")
	if len(parts) > lines {
		parts = parts[len(parts)-lines:]
	}
	return strings.Join(parts, "; ")
}
