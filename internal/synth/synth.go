package synth

import (
	"context"
	"fmt"
	"hash/fnv"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"github.com/jmylchreest/tapedeck/internal/ffmpeg"
)

// DefaultFrameRate is the frame rate of synthesized clips.
const DefaultFrameRate = 30

// DefaultAudioSampleRate is the sample rate of the silent audio track.
const DefaultAudioSampleRate = 48000

// Materializer turns synthesis plans into real video files, caching results
// under a cache directory keyed by source identity and plan fingerprint.
// Synthesized clips always carry a silent audio track so downstream filter
// graphs can treat every segment uniformly.
type Materializer struct {
	ffmpegPath string
	cacheDir   string
	frameRate  int
	sampleRate int
	logger     *slog.Logger
}

// NewMaterializer creates a materializer writing synthesized clips under
// cacheDir.
func NewMaterializer(ffmpegPath, cacheDir string, logger *slog.Logger) *Materializer {
	if logger == nil {
		logger = slog.Default()
	}
	return &Materializer{
		ffmpegPath: ffmpegPath,
		cacheDir:   cacheDir,
		frameRate:  DefaultFrameRate,
		sampleRate: DefaultAudioSampleRate,
		logger:     logger,
	}
}

// Materialize renders the plan for the photo at srcPath and returns the path
// of the synthesized video. Cached results are returned without re-encoding.
func (m *Materializer) Materialize(ctx context.Context, srcPath string, plan Plan) (string, error) {
	key, err := m.cacheKey(srcPath, plan)
	if err != nil {
		return "", err
	}
	outPath := filepath.Join(m.cacheDir, key+".mp4")

	if _, err := os.Stat(outPath); err == nil {
		m.logger.Debug("synthesis cache hit", "source", srcPath, "clip", outPath)
		return outPath, nil
	}

	if err := os.MkdirAll(m.cacheDir, 0o755); err != nil {
		return "", fmt.Errorf("creating synthesis cache dir: %w", err)
	}

	frame, w, h, err := m.prepareFrame(srcPath, plan)
	if err != nil {
		return "", err
	}
	defer os.Remove(frame)

	start := time.Now()
	if err := m.encode(ctx, frame, outPath, plan, w, h); err != nil {
		os.Remove(outPath)
		return "", fmt.Errorf("%w: %v", ErrSynthesisFailed, err)
	}

	m.logger.Info("synthesized photo clip",
		"source", srcPath,
		"clip", outPath,
		"duration", plan.Duration,
		"size", fmt.Sprintf("%dx%d", w, h),
		"took", time.Since(start))
	return outPath, nil
}

// cacheKey derives a stable cache key from the source file identity and the
// plan fingerprint. Touching the source invalidates the cached clip.
func (m *Materializer) cacheKey(srcPath string, plan Plan) (string, error) {
	info, err := os.Stat(srcPath)
	if err != nil {
		return "", fmt.Errorf("stat source photo: %w", err)
	}
	h := fnv.New64a()
	fmt.Fprintf(h, "%s|%d|%d|%s",
		srcPath, info.Size(), info.ModTime().UnixNano(), plan.Fingerprint())
	return fmt.Sprintf("%016x", h.Sum64()), nil
}

// prepareFrame decodes, rotates, and downscales the source photo into a
// temporary PNG working frame, returning its path and dimensions.
func (m *Materializer) prepareFrame(srcPath string, plan Plan) (string, int, int, error) {
	f, err := os.Open(srcPath)
	if err != nil {
		return "", 0, 0, fmt.Errorf("opening source photo: %w", err)
	}
	defer f.Close()

	img, format, err := image.Decode(f)
	if err != nil {
		return "", 0, 0, fmt.Errorf("%w: %s: %v", ErrUnsupportedImage, srcPath, err)
	}

	img = rotateQuarterTurns(img, plan.Rotation)

	b := img.Bounds()
	w, h := ClampFrame(b.Dx(), b.Dy(), plan.MaxLongSide, plan.MaxShortSide)
	if w != b.Dx() || h != b.Dy() {
		scaled := image.NewRGBA(image.Rect(0, 0, w, h))
		xdraw.CatmullRom.Scale(scaled, scaled.Bounds(), img, b, xdraw.Over, nil)
		img = scaled
	}

	tmp, err := os.CreateTemp(m.cacheDir, "frame-*.png")
	if err != nil {
		return "", 0, 0, fmt.Errorf("creating working frame: %w", err)
	}
	if err := png.Encode(tmp, img); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return "", 0, 0, fmt.Errorf("encoding working frame: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return "", 0, 0, err
	}

	m.logger.Debug("prepared working frame",
		"source", srcPath, "format", format, "size", fmt.Sprintf("%dx%d", w, h))
	return tmp.Name(), w, h, nil
}

// encode loops the working frame through zoompan and muxes silent audio.
func (m *Materializer) encode(ctx context.Context, framePath, outPath string, plan Plan, w, h int) error {
	graph := fmt.Sprintf("[0:v]%s[v]", ZoomPanFilter(plan, w, h, m.frameRate))

	cmd := ffmpeg.NewCommandBuilder(m.ffmpegPath).
		HideBanner().
		Overwrite().
		LoopImageInput(framePath, plan.Duration).
		SilentAudioInput(plan.Duration, m.sampleRate).
		FilterComplex(graph).
		Map("[v]").
		Map("1:a").
		VideoCodec("libx264").
		VideoPreset("veryfast").
		PixelFormat("yuv420p").
		FrameRate(m.frameRate).
		AudioCodec("aac").
		AudioSampleRate(m.sampleRate).
		MovFlags("+faststart").
		Duration(plan.Duration).
		Output(outPath).
		Build()

	m.logger.Debug("running synthesis encode", "command", cmd.String())
	return cmd.Run(ctx)
}

// ZoomPanFilter renders the plan's motion as an ffmpeg zoompan filter
// expression. Zoompan interpolates per output frame; `on` is the frame index
// and `d` pins each input frame to one output frame.
func ZoomPanFilter(plan Plan, w, h, fps int) string {
	frames := int(plan.Duration.Seconds()*float64(fps) + 0.5)
	if frames < 1 {
		frames = 1
	}
	pz := plan.PanZoom
	if pz.IsZero() {
		// Static frame still goes through zoompan to normalize timestamps.
		return fmt.Sprintf("zoompan=z=1:d=1:s=%dx%d:fps=%d", w, h, fps)
	}

	// t in [0,1] across the clip.
	progress := fmt.Sprintf("(on/%d)", frames)
	zoom := fmt.Sprintf("%.4f+(%.4f-%.4f)*%s", pz.StartScale, pz.EndScale, pz.StartScale, progress)
	panX := fmt.Sprintf("iw/2-(iw/zoom/2)+iw*(%.4f+(%.4f-%.4f)*%s)",
		pz.StartX, pz.EndX, pz.StartX, progress)
	panY := fmt.Sprintf("ih/2-(ih/zoom/2)+ih*(%.4f+(%.4f-%.4f)*%s)",
		pz.StartY, pz.EndY, pz.StartY, progress)

	return fmt.Sprintf("zoompan=z='%s':x='%s':y='%s':d=1:s=%dx%d:fps=%d",
		zoom, panX, panY, w, h, fps)
}

// rotateQuarterTurns rotates img clockwise by the given number of quarter
// turns.
func rotateQuarterTurns(img image.Image, turns int) image.Image {
	turns = ((turns % 4) + 4) % 4
	if turns == 0 {
		return img
	}

	b := img.Bounds()
	var dst *image.RGBA
	if turns == 2 {
		dst = image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	} else {
		dst = image.NewRGBA(image.Rect(0, 0, b.Dy(), b.Dx()))
	}

	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			sx, sy := x-b.Min.X, y-b.Min.Y
			var dx, dy int
			switch turns {
			case 1:
				dx, dy = b.Dy()-1-sy, sx
			case 2:
				dx, dy = b.Dx()-1-sx, b.Dy()-1-sy
			case 3:
				dx, dy = sy, b.Dx()-1-sx
			}
			dst.Set(dx, dy, img.At(x, y))
		}
	}
	return dst
}
