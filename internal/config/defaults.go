package config

const (
	defaultOutputDir         = "~/transcripts"
	defaultStagingDir        = "~/.local/share/scribe/staging"
	defaultDownloadDir       = "~/downloads"
	defaultLogDir            = "~/.local/share/scribe/logs"
	defaultLanguage          = "en"
	defaultChunkSeconds      = 30
	defaultStrideSeconds     = 5
	defaultOutputExtension   = ".txt"
	defaultWhisperBinary     = "whisper-cli"
	defaultWhisperModel      = "base"
	defaultFFmpegBinary      = "ffmpeg"
	defaultYtdlpBinary       = "yt-dlp"
	defaultFetchFormat       = "bestaudio/best"
	defaultFetchTimeout      = 1800
	defaultRendezvousTimeout = 15
	defaultLogFormat         = "console"
	defaultLogLevel          = "info"
)

func defaultExtensions() []string {
	return []string{
		".mp3", ".wav", ".m4a", ".flac", ".ogg", ".opus", ".aac", ".wma",
		".mp4", ".mkv", ".webm", ".avi", ".mov", ".m4v",
	}
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			OutputDir:   defaultOutputDir,
			StagingDir:  defaultStagingDir,
			DownloadDir: defaultDownloadDir,
			LogDir:      defaultLogDir,
		},
		Transcription: Transcription{
			Language:        defaultLanguage,
			ChunkSeconds:    defaultChunkSeconds,
			StrideSeconds:   defaultStrideSeconds,
			OutputExtension: defaultOutputExtension,
			KeepDownloads:   false,
			WhisperBinary:   defaultWhisperBinary,
			WhisperModel:    defaultWhisperModel,
			FFmpegBinary:    defaultFFmpegBinary,
		},
		Fetch: Fetch{
			YtdlpBinary:    defaultYtdlpBinary,
			Format:         defaultFetchFormat,
			TimeoutSeconds: defaultFetchTimeout,
		},
		Media: Media{
			Extensions: defaultExtensions(),
		},
		Workflow: Workflow{
			RendezvousTimeoutSeconds: defaultRendezvousTimeout,
		},
		History: History{
			Enabled: true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
