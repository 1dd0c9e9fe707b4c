package ffmpeg

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"
	"sync"
	"time"
)

// CommandBuilder builds ffmpeg commands with a fluent API. Argument order
// matters to ffmpeg: global flags, then per-input flags and inputs, then the
// filter graph, then output options and the output path.
type CommandBuilder struct {
	binary     string
	globalArgs []string
	inputArgs  []string
	filterArgs []string
	outputArgs []string
	output     string
	logLevel   string
	overwrite  bool
}

// NewCommandBuilder creates a new ffmpeg command builder.
func NewCommandBuilder(ffmpegPath string) *CommandBuilder {
	return &CommandBuilder{
		binary:   ffmpegPath,
		logLevel: "error",
	}
}

// LogLevel sets the ffmpeg log level.
func (b *CommandBuilder) LogLevel(level string) *CommandBuilder {
	b.logLevel = level
	return b
}

// HideBanner hides the ffmpeg banner.
func (b *CommandBuilder) HideBanner() *CommandBuilder {
	b.globalArgs = append(b.globalArgs, "-hide_banner")
	return b
}

// Overwrite enables output file overwriting.
func (b *CommandBuilder) Overwrite() *CommandBuilder {
	b.overwrite = true
	return b
}

// InputArgs appends raw arguments that apply to the next input.
func (b *CommandBuilder) InputArgs(args ...string) *CommandBuilder {
	b.inputArgs = append(b.inputArgs, args...)
	return b
}

// Input adds an input path or URL.
func (b *CommandBuilder) Input(input string) *CommandBuilder {
	b.inputArgs = append(b.inputArgs, "-i", input)
	return b
}

// LoopImageInput adds a still image input looped for the given duration.
func (b *CommandBuilder) LoopImageInput(path string, duration time.Duration) *CommandBuilder {
	b.inputArgs = append(b.inputArgs,
		"-loop", "1",
		"-t", FormatSeconds(duration),
		"-i", path,
	)
	return b
}

// SilentAudioInput adds a lavfi anullsrc input for the given duration.
func (b *CommandBuilder) SilentAudioInput(duration time.Duration, sampleRate int) *CommandBuilder {
	b.inputArgs = append(b.inputArgs,
		"-f", "lavfi",
		"-t", FormatSeconds(duration),
		"-i", fmt.Sprintf("anullsrc=channel_layout=stereo:sample_rate=%d", sampleRate),
	)
	return b
}

// FilterComplex sets the filter graph.
func (b *CommandBuilder) FilterComplex(graph string) *CommandBuilder {
	b.filterArgs = append(b.filterArgs, "-filter_complex", graph)
	return b
}

// Map selects a stream or filter label for the output.
func (b *CommandBuilder) Map(label string) *CommandBuilder {
	b.outputArgs = append(b.outputArgs, "-map", label)
	return b
}

// VideoCodec sets the video codec.
func (b *CommandBuilder) VideoCodec(codec string) *CommandBuilder {
	b.outputArgs = append(b.outputArgs, "-c:v", codec)
	return b
}

// VideoBitrate sets the video bitrate (e.g. "8000k").
func (b *CommandBuilder) VideoBitrate(bitrate string) *CommandBuilder {
	b.outputArgs = append(b.outputArgs, "-b:v", bitrate)
	return b
}

// VideoPreset sets the encoder preset.
func (b *CommandBuilder) VideoPreset(preset string) *CommandBuilder {
	b.outputArgs = append(b.outputArgs, "-preset", preset)
	return b
}

// PixelFormat sets the output pixel format.
func (b *CommandBuilder) PixelFormat(format string) *CommandBuilder {
	b.outputArgs = append(b.outputArgs, "-pix_fmt", format)
	return b
}

// FrameRate sets the output frame rate.
func (b *CommandBuilder) FrameRate(fps int) *CommandBuilder {
	b.outputArgs = append(b.outputArgs, "-r", strconv.Itoa(fps))
	return b
}

// AudioCodec sets the audio codec.
func (b *CommandBuilder) AudioCodec(codec string) *CommandBuilder {
	b.outputArgs = append(b.outputArgs, "-c:a", codec)
	return b
}

// AudioBitrate sets the audio bitrate (e.g. "192k").
func (b *CommandBuilder) AudioBitrate(bitrate string) *CommandBuilder {
	b.outputArgs = append(b.outputArgs, "-b:a", bitrate)
	return b
}

// AudioSampleRate sets the audio sample rate.
func (b *CommandBuilder) AudioSampleRate(rate int) *CommandBuilder {
	b.outputArgs = append(b.outputArgs, "-ar", strconv.Itoa(rate))
	return b
}

// MovFlags sets mov/mp4 muxer flags (e.g. "+faststart").
func (b *CommandBuilder) MovFlags(flags string) *CommandBuilder {
	b.outputArgs = append(b.outputArgs, "-movflags", flags)
	return b
}

// Duration limits the output duration.
func (b *CommandBuilder) Duration(d time.Duration) *CommandBuilder {
	b.outputArgs = append(b.outputArgs, "-t", FormatSeconds(d))
	return b
}

// Shortest stops encoding when the shortest input ends.
func (b *CommandBuilder) Shortest() *CommandBuilder {
	b.outputArgs = append(b.outputArgs, "-shortest")
	return b
}

// OutputArgs appends raw output arguments.
func (b *CommandBuilder) OutputArgs(args ...string) *CommandBuilder {
	b.outputArgs = append(b.outputArgs, args...)
	return b
}

// Output sets the output destination.
func (b *CommandBuilder) Output(output string) *CommandBuilder {
	b.output = output
	return b
}

// Build assembles the final command.
func (b *CommandBuilder) Build() *Command {
	args := []string{"-loglevel", b.logLevel}
	args = append(args, b.globalArgs...)
	if b.overwrite {
		args = append(args, "-y")
	}
	args = append(args, b.inputArgs...)
	args = append(args, b.filterArgs...)
	args = append(args, b.outputArgs...)
	if b.output != "" {
		args = append(args, b.output)
	}

	return &Command{
		Binary: b.binary,
		Args:   args,
	}
}

// Command represents an ffmpeg invocation.
type Command struct {
	Binary string
	Args   []string

	mu      sync.RWMutex
	cmd     *exec.Cmd
	monitor *ProcessMonitor

	stderrMu    sync.Mutex
	stderrLines []string
}

// stderrTailLines bounds how much stderr is retained for error reporting.
const stderrTailLines = 40

// String returns the command line for logging.
func (c *Command) String() string {
	return c.Binary + " " + strings.Join(c.Args, " ")
}

// Run executes the command and waits for completion. On failure the returned
// error includes the tail of ffmpeg's stderr output.
func (c *Command) Run(ctx context.Context) error {
	return c.RunWithProgress(ctx, nil)
}

// RunWithProgress executes the command, reporting encode progress through fn
// when non-nil. Progress is requested from ffmpeg via `-progress pipe:1`.
func (c *Command) RunWithProgress(ctx context.Context, fn func(Progress)) error {
	args := c.Args
	if fn != nil {
		args = append([]string{"-progress", "pipe:1", "-nostats"}, args...)
	}

	cmd := exec.CommandContext(ctx, c.Binary, args...)

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return fmt.Errorf("opening stderr pipe: %w", err)
	}

	var stdout io.ReadCloser
	if fn != nil {
		stdout, err = cmd.StdoutPipe()
		if err != nil {
			return fmt.Errorf("opening stdout pipe: %w", err)
		}
	}

	if err := cmd.Start(); err != nil {
		return fmt.Errorf("starting ffmpeg: %w", err)
	}

	c.mu.Lock()
	c.cmd = cmd
	c.monitor = NewProcessMonitor(cmd.Process.Pid)
	c.monitor.Start()
	c.mu.Unlock()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		c.collectStderr(stderr)
	}()

	if fn != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			c.parseProgress(stdout, fn)
		}()
	}

	waitErr := cmd.Wait()
	wg.Wait()

	c.mu.Lock()
	c.monitor.Stop()
	c.cmd = nil
	c.mu.Unlock()

	if waitErr != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("ffmpeg failed: %w\n%s", waitErr, c.StderrTail())
	}
	return nil
}

// ProcessStats returns resource usage for the running process, or nil when
// the command is not running.
func (c *Command) ProcessStats() *ProcessStats {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.monitor == nil {
		return nil
	}
	stats := c.monitor.Stats()
	return &stats
}

// StderrTail returns the retained tail of stderr output.
func (c *Command) StderrTail() string {
	c.stderrMu.Lock()
	defer c.stderrMu.Unlock()
	return strings.Join(c.stderrLines, "\n")
}

// collectStderr retains the last stderrTailLines lines for error reporting.
func (c *Command) collectStderr(r io.Reader) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 256*1024)
	for scanner.Scan() {
		c.stderrMu.Lock()
		c.stderrLines = append(c.stderrLines, scanner.Text())
		if len(c.stderrLines) > stderrTailLines {
			c.stderrLines = c.stderrLines[len(c.stderrLines)-stderrTailLines:]
		}
		c.stderrMu.Unlock()
	}
}

// Progress represents ffmpeg encode progress from `-progress` output.
type Progress struct {
	Frame    int64         `json:"frame"`
	FPS      float64       `json:"fps"`
	Bitrate  string        `json:"bitrate"`
	OutTime  time.Duration `json:"out_time"`
	Speed    float64       `json:"speed"`
	Finished bool          `json:"finished"`
}

// parseProgress consumes key=value progress blocks from ffmpeg, invoking fn
// at the end of each block.
func (c *Command) parseProgress(r io.Reader, fn func(Progress)) {
	scanner := bufio.NewScanner(r)
	var cur Progress
	for scanner.Scan() {
		key, value, ok := strings.Cut(strings.TrimSpace(scanner.Text()), "=")
		if !ok {
			continue
		}
		switch key {
		case "frame":
			cur.Frame, _ = strconv.ParseInt(value, 10, 64)
		case "fps":
			cur.FPS, _ = strconv.ParseFloat(value, 64)
		case "bitrate":
			cur.Bitrate = value
		case "out_time_us":
			us, _ := strconv.ParseInt(value, 10, 64)
			cur.OutTime = time.Duration(us) * time.Microsecond
		case "speed":
			cur.Speed, _ = strconv.ParseFloat(strings.TrimSuffix(value, "x"), 64)
		case "progress":
			cur.Finished = value == "end"
			fn(cur)
		}
	}
}

// FormatSeconds renders a duration as fractional seconds for ffmpeg args.
func FormatSeconds(d time.Duration) string {
	return strconv.FormatFloat(d.Seconds(), 'f', 3, 64)
}
