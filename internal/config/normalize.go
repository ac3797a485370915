package config

import (
	"fmt"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeTranscription()
	c.normalizeFetch()
	c.normalizeExtensions()
	c.normalizeWorkflow()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if c.OutputDir, err = expandPath(c.OutputDir); err != nil {
		return fmt.Errorf("paths.output_dir: %w", err)
	}
	if c.StagingDir, err = expandPath(c.StagingDir); err != nil {
		return fmt.Errorf("paths.staging_dir: %w", err)
	}
	if c.DownloadDir, err = expandPath(c.DownloadDir); err != nil {
		return fmt.Errorf("paths.download_dir: %w", err)
	}
	if c.LogDir, err = expandPath(c.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	return nil
}

func (c *Config) normalizeTranscription() {
	c.Language = strings.ToLower(strings.TrimSpace(c.Language))
	if c.Language == "" {
		c.Language = defaultLanguage
	}
	if c.ChunkSeconds <= 0 {
		c.ChunkSeconds = defaultChunkSeconds
	}
	if c.StrideSeconds < 0 {
		c.StrideSeconds = defaultStrideSeconds
	}
	c.OutputExtension = strings.ToLower(strings.TrimSpace(c.OutputExtension))
	if c.OutputExtension == "" {
		c.OutputExtension = defaultOutputExtension
	}
	if !strings.HasPrefix(c.OutputExtension, ".") {
		c.OutputExtension = "." + c.OutputExtension
	}
	c.WhisperBinary = strings.TrimSpace(c.WhisperBinary)
	if c.WhisperBinary == "" {
		c.WhisperBinary = defaultWhisperBinary
	}
	c.WhisperModel = strings.TrimSpace(c.WhisperModel)
	if c.WhisperModel == "" {
		c.WhisperModel = defaultWhisperModel
	}
	c.FFmpegBinary = strings.TrimSpace(c.FFmpegBinary)
	if c.FFmpegBinary == "" {
		c.FFmpegBinary = defaultFFmpegBinary
	}
}

func (c *Config) normalizeFetch() {
	c.YtdlpBinary = strings.TrimSpace(c.YtdlpBinary)
	if c.YtdlpBinary == "" {
		c.YtdlpBinary = defaultYtdlpBinary
	}
	c.Fetch.Format = strings.TrimSpace(c.Fetch.Format)
	if c.Fetch.Format == "" {
		c.Fetch.Format = defaultFetchFormat
	}
	if c.Fetch.TimeoutSeconds <= 0 {
		c.Fetch.TimeoutSeconds = defaultFetchTimeout
	}
}

func (c *Config) normalizeExtensions() {
	if len(c.Media.Extensions) == 0 {
		c.Media.Extensions = defaultExtensions()
		return
	}
	exts := make([]string, 0, len(c.Media.Extensions))
	seen := make(map[string]struct{}, len(c.Media.Extensions))
	for _, ext := range c.Media.Extensions {
		normalized := strings.ToLower(strings.TrimSpace(ext))
		if normalized == "" {
			continue
		}
		if !strings.HasPrefix(normalized, ".") {
			normalized = "." + normalized
		}
		if _, exists := seen[normalized]; exists {
			continue
		}
		seen[normalized] = struct{}{}
		exts = append(exts, normalized)
	}
	if len(exts) == 0 {
		exts = defaultExtensions()
	}
	c.Media.Extensions = exts
}

func (c *Config) normalizeWorkflow() {
	if c.RendezvousTimeoutSeconds <= 0 {
		c.RendezvousTimeoutSeconds = defaultRendezvousTimeout
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
