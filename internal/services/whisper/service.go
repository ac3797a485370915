// Package whisper wraps ffmpeg audio preparation and the whisper.cpp CLI
// behind the transcribe.Transcriber interface.
package whisper

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"scribe/internal/config"
	"scribe/internal/textutil"
	"scribe/internal/transcribe"
)

// Prepared input format. The fixed PCM layout also lets chunking derive the
// audio duration from the file size alone.
const (
	sampleRate     = 16000
	bytesPerSample = 2
	wavHeaderBytes = 44
)

// Service executes ffmpeg and the whisper CLI as subprocesses.
type Service struct {
	whisperBinary string
	ffmpegBinary  string
	model         string
	stagingDir    string
	run           func(ctx context.Context, name string, args ...string) error
}

// NewService creates a transcription service from configuration.
func NewService(cfg *config.Config) *Service {
	return &Service{
		whisperBinary: cfg.WhisperBinary,
		ffmpegBinary:  cfg.FFmpegBinary,
		model:         cfg.WhisperModel,
		stagingDir:    cfg.StagingDir,
	}
}

// WithCommandRunner sets a custom command runner (for testing).
func (s *Service) WithCommandRunner(runner func(ctx context.Context, name string, args ...string) error) {
	s.run = runner
}

func (s *Service) runCommand(ctx context.Context, name string, args ...string) error {
	if s.run != nil {
		return s.run(ctx, name, args...)
	}
	cmd := exec.CommandContext(ctx, name, args...) //nolint:gosec
	if output, err := cmd.CombinedOutput(); err != nil {
		return fmt.Errorf("%s: %w: %s", name, err, strings.TrimSpace(string(output)))
	}
	return nil
}

// PrepareInput extracts the primary audio stream into a mono 16 kHz PCM wav
// under the staging directory, the input layout the engine expects.
func (s *Service) PrepareInput(ctx context.Context, sourcePath string) (string, error) {
	if err := os.MkdirAll(s.stagingDir, 0o755); err != nil {
		return "", fmt.Errorf("prepare input: ensure staging dir: %w", err)
	}

	stem := textutil.SanitizeStem(textutil.StemFromPath(sourcePath))
	dest := filepath.Join(s.stagingDir, stem+".16k.wav")
	args := []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-i", sourcePath,
		"-vn",
		"-sn",
		"-dn",
		"-ac", "1",
		"-ar", fmt.Sprintf("%d", sampleRate),
		"-c:a", "pcm_s16le",
		dest,
	}
	if err := s.runCommand(ctx, s.ffmpegBinary, args...); err != nil {
		return "", fmt.Errorf("prepare input: ffmpeg extract: %w", err)
	}
	return dest, nil
}

// Transcribe runs recognition over a prepared wav. When chunking is
// configured the audio is processed in overlapping windows and the window
// transcripts concatenated, which bounds engine memory on long recordings.
func (s *Service) Transcribe(ctx context.Context, localPath string, params transcribe.Params) (string, error) {
	if params.ChunkSeconds <= 0 {
		return s.transcribeFile(ctx, localPath, params.Language)
	}

	duration, err := wavDurationSeconds(localPath)
	if err != nil {
		return "", fmt.Errorf("transcribe: %w", err)
	}
	if duration <= params.ChunkSeconds {
		return s.transcribeFile(ctx, localPath, params.Language)
	}

	step := params.ChunkSeconds - params.StrideSeconds
	if step <= 0 {
		step = params.ChunkSeconds
	}

	workDir, err := os.MkdirTemp(s.stagingDir, "chunks-")
	if err != nil {
		return "", fmt.Errorf("transcribe: create chunk dir: %w", err)
	}
	defer os.RemoveAll(workDir)

	var parts []string
	for start := 0; start < duration; start += step {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		chunkPath := filepath.Join(workDir, fmt.Sprintf("chunk_%06d.wav", start))
		if err := s.extractSegment(ctx, localPath, start, params.ChunkSeconds, chunkPath); err != nil {
			return "", fmt.Errorf("transcribe: %w", err)
		}
		text, err := s.transcribeFile(ctx, chunkPath, params.Language)
		if err != nil {
			return "", err
		}
		if trimmed := strings.TrimSpace(text); trimmed != "" {
			parts = append(parts, trimmed)
		}
	}
	return strings.Join(parts, "\n"), nil
}

func (s *Service) extractSegment(ctx context.Context, source string, startSec, durationSec int, dest string) error {
	args := []string{
		"-y",
		"-hide_banner",
		"-loglevel", "error",
		"-ss", fmt.Sprintf("%d", startSec),
		"-t", fmt.Sprintf("%d", durationSec),
		"-i", source,
		"-ac", "1",
		"-ar", fmt.Sprintf("%d", sampleRate),
		"-c:a", "pcm_s16le",
		dest,
	}
	if err := s.runCommand(ctx, s.ffmpegBinary, args...); err != nil {
		return fmt.Errorf("ffmpeg segment: %w", err)
	}
	return nil
}

func (s *Service) transcribeFile(ctx context.Context, wavPath, language string) (string, error) {
	outBase := strings.TrimSuffix(wavPath, filepath.Ext(wavPath))
	args := []string{
		"-m", s.model,
		"-f", wavPath,
		"--output-txt",
		"--output-file", outBase,
		"--no-prints",
	}
	if lang := strings.TrimSpace(language); lang != "" && lang != "auto" {
		args = append(args, "-l", lang)
	}
	if err := s.runCommand(ctx, s.whisperBinary, args...); err != nil {
		return "", fmt.Errorf("transcribe: engine: %w", err)
	}

	txtPath := outBase + ".txt"
	data, err := os.ReadFile(txtPath)
	if err != nil {
		return "", fmt.Errorf("transcribe: read engine output: %w", err)
	}
	_ = os.Remove(txtPath)
	return string(data), nil
}

// wavDurationSeconds derives the duration of a prepared wav from its size.
// Valid only for the mono 16 kHz s16le files PrepareInput emits.
func wavDurationSeconds(path string) (int, error) {
	info, err := os.Stat(path)
	if err != nil {
		return 0, fmt.Errorf("stat wav: %w", err)
	}
	payload := info.Size() - wavHeaderBytes
	if payload <= 0 {
		return 0, nil
	}
	return int(payload / (sampleRate * bytesPerSample)), nil
}
