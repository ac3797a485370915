package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateTranscription(); err != nil {
		return err
	}
	if err := c.validateFetch(); err != nil {
		return err
	}
	if err := c.validateWorkflow(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if strings.TrimSpace(c.OutputDir) == "" {
		return errors.New("paths.output_dir must be set")
	}
	if strings.TrimSpace(c.StagingDir) == "" {
		return errors.New("paths.staging_dir must be set")
	}
	if strings.TrimSpace(c.LogDir) == "" {
		return errors.New("paths.log_dir must be set")
	}
	if c.OutputDir == c.StagingDir {
		return errors.New("paths.output_dir and paths.staging_dir must differ")
	}
	return nil
}

func (c *Config) validateTranscription() error {
	if c.ChunkSeconds <= 0 {
		return errors.New("transcription.chunk_seconds must be positive")
	}
	if c.StrideSeconds < 0 {
		return errors.New("transcription.stride_seconds must be >= 0")
	}
	if c.StrideSeconds >= c.ChunkSeconds {
		return errors.New("transcription.stride_seconds must be smaller than transcription.chunk_seconds")
	}
	if !strings.HasPrefix(c.OutputExtension, ".") {
		return fmt.Errorf("transcription.output_extension must start with a dot, got %q", c.OutputExtension)
	}
	return nil
}

func (c *Config) validateFetch() error {
	if strings.TrimSpace(c.YtdlpBinary) == "" {
		return errors.New("fetch.ytdlp_binary must be set")
	}
	if c.Fetch.TimeoutSeconds <= 0 {
		return errors.New("fetch.timeout_seconds must be positive")
	}
	return nil
}

func (c *Config) validateWorkflow() error {
	if c.RendezvousTimeoutSeconds <= 0 {
		return errors.New("workflow.rendezvous_timeout_seconds must be positive")
	}
	return nil
}
