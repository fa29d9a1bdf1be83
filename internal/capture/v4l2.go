package capture

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"
)

// V4L2Config selects a Video4Linux device and the ffmpeg binary used to
// grab frames from it.
type V4L2Config struct {
	Device string // preferred device path, e.g. /dev/video0
	FFmpeg string // defaults to "ffmpeg" on PATH
}

// V4L2ConfigFromEnv reads SMARTMATH_CAMERA and SMARTMATH_FFMPEG.
func V4L2ConfigFromEnv() V4L2Config {
	return V4L2Config{
		Device: os.Getenv("SMARTMATH_CAMERA"),
		FFmpeg: os.Getenv("SMARTMATH_FFMPEG"),
	}
}

// V4L2Opener returns an OpenFunc that tries the preferred device first and
// then any other /dev/video* node.
func V4L2Opener(cfg V4L2Config) OpenFunc {
	return func(ctx context.Context) (Device, error) {
		return openV4L2(ctx, cfg)
	}
}

var globDevices = func() []string {
	paths, _ := filepath.Glob("/dev/video*")
	sort.Strings(paths)
	return paths
}

func candidates(preferred string) []string {
	var out []string
	seen := map[string]bool{}
	add := func(p string) {
		if p != "" && !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}
	add(preferred)
	for _, p := range globDevices() {
		add(p)
	}
	return out
}

func openV4L2(_ context.Context, cfg V4L2Config) (Device, error) {
	var permErr error
	var path string
	for _, p := range candidates(cfg.Device) {
		f, err := os.OpenFile(p, os.O_RDWR, 0)
		if err != nil {
			if errors.Is(err, fs.ErrPermission) {
				permErr = err
			}
			slog.Debug("camera candidate unavailable", "device", p, "error", err)
			continue
		}
		f.Close()
		path = p
		break
	}
	if path == "" {
		if permErr != nil {
			return nil, &DeviceError{Kind: KindPermissionDenied, Err: permErr}
		}
		return nil, &DeviceError{Kind: KindNoDevice, Err: errors.New("no /dev/video* device")}
	}

	bin := cfg.FFmpeg
	if bin == "" {
		bin = "ffmpeg"
	}
	resolved, err := exec.LookPath(bin)
	if err != nil {
		return nil, &DeviceError{Kind: KindOther, Err: fmt.Errorf("frame grabber: %w", err)}
	}

	slog.Info("camera acquired", "device", path)
	return &v4l2Device{path: path, ffmpeg: resolved}, nil
}

type v4l2Device struct {
	path   string
	ffmpeg string
}

func (d *v4l2Device) Grab(ctx context.Context) (Image, error) {
	cmd := exec.CommandContext(ctx, d.ffmpeg,
		"-hide_banner", "-loglevel", "error",
		"-f", "video4linux2", "-i", d.path,
		"-frames:v", "1", "-f", "image2pipe", "-vcodec", "mjpeg", "-",
	)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		return Image{}, classifyGrabError(stderr.String(), err)
	}
	return Normalize(out)
}

// Close is a no-op: each grab runs its own short-lived ffmpeg process.
func (d *v4l2Device) Close() error { return nil }

func classifyGrabError(stderr string, err error) *DeviceError {
	msg := strings.TrimSpace(stderr)
	if msg != "" {
		err = fmt.Errorf("%w: %s", err, msg)
	}
	switch {
	case strings.Contains(msg, "Permission denied"):
		return &DeviceError{Kind: KindPermissionDenied, Err: err}
	case strings.Contains(msg, "No such file or directory"), strings.Contains(msg, "No such device"):
		return &DeviceError{Kind: KindNoDevice, Err: err}
	}
	return &DeviceError{Kind: KindOther, Err: err}
}
