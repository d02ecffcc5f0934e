// Package extproc speaks to an external analyzer binary over stdio. Each
// call sends one JSON header line followed by the raw little-endian float32
// sample buffer, and reads a single JSON line back. All signal processing
// happens inside the binary; this client only moves data.
package extproc

import (
	"bufio"
	"bytes"
	"context"
	"encoding/binary"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os/exec"
	"strings"
	"time"

	"soundcheck/internal/analysis"
	"soundcheck/internal/engine"
	"soundcheck/internal/logging"
	"soundcheck/internal/services"
)

// Executor abstracts command execution for testability.
type Executor interface {
	Run(ctx context.Context, binary string, args []string, stdin io.Reader, stdout io.Writer) error
}

// Option configures the client.
type Option func(*Client)

// WithExecutor injects a custom executor (primarily for tests).
func WithExecutor(exec Executor) Option {
	return func(c *Client) {
		if exec != nil {
			c.exec = exec
		}
	}
}

// Client is an engine.Handle backed by the analyzer subprocess.
type Client struct {
	binary string
	caps   []engine.Capability
	exec   Executor
	logger *slog.Logger
}

// Loader returns an engine loader that probes the analyzer binary's
// capabilities on first acquisition.
func Loader(binary string, logger *slog.Logger, opts ...Option) engine.Loader {
	return func(ctx context.Context) (engine.Handle, error) {
		return Load(ctx, binary, logger, opts...)
	}
}

// Load constructs the client and runs the capability probe.
func Load(ctx context.Context, binary string, logger *slog.Logger, opts ...Option) (*Client, error) {
	binary = strings.TrimSpace(binary)
	if binary == "" {
		return nil, errors.New("engine binary required")
	}
	client := &Client{
		binary: binary,
		exec:   commandExecutor{},
		logger: logging.NewComponentLogger(logger, "extproc"),
	}
	for _, opt := range opts {
		opt(client)
	}

	caps, err := client.probe(ctx)
	if err != nil {
		return nil, fmt.Errorf("probe engine capabilities: %w", err)
	}
	client.caps = caps
	client.logger.Debug("engine capabilities probed",
		logging.Int("capability_count", len(caps)))
	return client, nil
}

// Name identifies the engine in logs and status output.
func (c *Client) Name() string { return "extproc:" + c.binary }

// Capabilities reports the probed capability set.
func (c *Client) Capabilities() []engine.Capability {
	out := make([]engine.Capability, len(c.caps))
	copy(out, c.caps)
	return out
}

// header is the JSON line preceding the sample payload on stdin.
type header struct {
	Op         string  `json:"op"`
	SampleRate int     `json:"sampleRate"`
	Channels   int     `json:"channels"`
	Frames     int     `json:"frames"`
	KnownTempo float64 `json:"knownTempo,omitempty"`
	Integrated float64 `json:"integrated,omitempty"`
}

func (c *Client) probe(ctx context.Context) ([]engine.Capability, error) {
	var stdout bytes.Buffer
	if err := c.exec.Run(ctx, c.binary, []string{"capabilities"}, nil, &stdout); err != nil {
		return nil, err
	}
	var names []string
	if err := json.Unmarshal(bytes.TrimSpace(stdout.Bytes()), &names); err != nil {
		return nil, fmt.Errorf("decode capability list: %w", err)
	}
	caps := make([]engine.Capability, 0, len(names))
	for _, name := range names {
		caps = append(caps, engine.Capability(name))
	}
	return caps, nil
}

func (c *Client) call(ctx context.Context, hdr header, req *analysis.Request, out any) error {
	hdr.SampleRate = req.SampleRate
	hdr.Channels = req.Channels()
	hdr.Frames = len(req.Samples) / req.Channels()

	payload, err := encodeRequest(hdr, req.Samples)
	if err != nil {
		return services.Wrap(services.ErrEngine, "extproc", hdr.Op, "encode request", err)
	}

	var stdout bytes.Buffer
	start := time.Now()
	if err := c.exec.Run(ctx, c.binary, []string{hdr.Op}, bytes.NewReader(payload), &stdout); err != nil {
		return services.Wrap(services.ErrEngine, "extproc", hdr.Op, "analyzer invocation", err)
	}
	c.logger.Debug("engine call finished",
		logging.String("op", hdr.Op),
		logging.Duration("call_duration", time.Since(start)))

	if err := json.Unmarshal(bytes.TrimSpace(stdout.Bytes()), out); err != nil {
		return services.Wrap(services.ErrEngine, "extproc", hdr.Op, "decode response", err)
	}
	return nil
}

func encodeRequest(hdr header, samples []float32) ([]byte, error) {
	var buf bytes.Buffer
	writer := bufio.NewWriter(&buf)
	if err := json.NewEncoder(writer).Encode(hdr); err != nil {
		return nil, err
	}
	if err := binary.Write(writer, binary.LittleEndian, samples); err != nil {
		return nil, err
	}
	if err := writer.Flush(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Loudness runs the required integrated-loudness measurement.
func (c *Client) Loudness(ctx context.Context, req *analysis.Request) (analysis.LoudnessMeasurement, error) {
	var resp struct {
		analysis.LoudnessResult
		ValidBlocks int `json:"validBlocks"`
		TotalBlocks int `json:"totalBlocks"`
	}
	if err := c.call(ctx, header{Op: string(engine.CapLoudness)}, req, &resp); err != nil {
		return analysis.LoudnessMeasurement{}, err
	}
	return analysis.LoudnessMeasurement{
		LoudnessResult: resp.LoudnessResult,
		ValidBlocks:    resp.ValidBlocks,
		TotalBlocks:    resp.TotalBlocks,
	}, nil
}

// Stereo runs the stereo-field measurement.
func (c *Client) Stereo(ctx context.Context, req *analysis.Request) (analysis.StereoResult, error) {
	var resp analysis.StereoResult
	err := c.call(ctx, header{Op: string(engine.CapStereo)}, req, &resp)
	return resp, err
}

// Technical runs the deep diagnostics, feeding in the integrated loudness
// from the required stage.
func (c *Client) Technical(ctx context.Context, req *analysis.Request, integrated float64) (analysis.TechnicalResult, error) {
	var resp analysis.TechnicalResult
	err := c.call(ctx, header{Op: string(engine.CapTechnical), Integrated: integrated}, req, &resp)
	return resp, err
}

// Tempo runs the fast baseline tempo method.
func (c *Client) Tempo(ctx context.Context, req *analysis.Request) (analysis.TempoResult, error) {
	var resp analysis.TempoResult
	err := c.call(ctx, header{Op: string(engine.CapTempo), KnownTempo: req.KnownTempo}, req, &resp)
	return resp, err
}

// OnsetTempo runs the heavier onset-based tempo method.
func (c *Client) OnsetTempo(ctx context.Context, req *analysis.Request) (analysis.TempoResult, error) {
	var resp analysis.TempoResult
	err := c.call(ctx, header{Op: string(engine.CapOnsetTempo), KnownTempo: req.KnownTempo}, req, &resp)
	return resp, err
}

type commandExecutor struct{}

func (commandExecutor) Run(ctx context.Context, binary string, args []string, stdin io.Reader, stdout io.Writer) error {
	cmd := exec.CommandContext(ctx, binary, args...) //nolint:gosec
	cmd.Stdin = stdin
	cmd.Stdout = stdout
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		detail := strings.TrimSpace(stderr.String())
		if detail != "" {
			return fmt.Errorf("%w: %s", err, truncate(detail, 512))
		}
		return err
	}
	return nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
