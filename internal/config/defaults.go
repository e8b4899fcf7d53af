package config

const (
	defaultConfigPath            = "~/.config/reelscript/config.toml"
	defaultDataDir               = "~/.local/share/reelscript"
	defaultMediaDir              = "~/.local/share/reelscript/media"
	defaultLogDir                = "~/.local/share/reelscript/logs"
	defaultDatabasePath          = "~/.local/share/reelscript/reels.db"
	defaultFetchBaseURL          = "https://www.instagram.com"
	defaultRequestsPerSecond     = 0.5
	defaultBurst                 = 1
	defaultRequestTimeoutSeconds = 30
	defaultCommentLimit          = 50
	defaultRecencyDays           = 90
	defaultCommentWeight         = 2.0
	defaultLikeWeight            = 1.0
	defaultViewWeight            = 1.0
	defaultClusters              = 3
	defaultMinComments           = 5
	defaultClusterSeed           = 42
	defaultMaxIterations         = 50
	defaultLabeler               = LabelerLexical
	defaultSpeechProvider        = ProviderWhisperX
	defaultGCPModel              = "latest_long"
	defaultGeminiModel           = "gemini-2.5-flash"
	defaultCooldownBackend       = CooldownMemory
	defaultCooldownSeconds       = 900
	defaultTelemetryExporter     = ExporterNone
	defaultTelemetryService      = "reelscript"
	defaultTelemetrySampleRatio  = 1.0
	defaultLanguage              = "ja"
	defaultWhisperModel          = "large-v3"
	defaultVADMethod             = "silero"
	defaultFFmpegBinary          = "ffmpeg"
	defaultFFprobeBinary         = "ffprobe"
	defaultYTDLPBinary           = "yt-dlp"
	defaultUVXBinary             = "uvx"
	defaultLLMBaseURL            = "https://openrouter.ai/api/v1/chat/completions"
	defaultLLMModel              = "google/gemini-3-flash-preview"
	defaultLLMReferer            = "https://github.com/reelscript/reelscript"
	defaultLLMTitle              = "reelscript audience labeler"
	defaultLLMTimeoutSeconds     = 60
	defaultConcurrency           = 4
	defaultItemTimeoutSeconds    = 180
	defaultVariantCount          = 2
	defaultScrapeTop             = 10
	defaultScrapeMinEngagement   = 2.0
	defaultAPIBind               = "127.0.0.1:7488"
	defaultScheduleCron          = "0 0 */6 * * *"
	defaultLogFormat             = "console"
	defaultLogLevel              = "info"
	defaultLogRetentionDays      = 30
	defaultMediaRetentionDays    = 14
)

// Audience labeler names.
const (
	LabelerLexical = "lexical"
	LabelerLLM     = "llm"
	LabelerGemini  = "gemini"
)

// Scraped platforms.
const (
	PlatformInstagram = "instagram"
	PlatformTikTok    = "tiktok"
	PlatformYouTube   = "youtube"
)

// platformBaseURLs is the default fetch.base_url per platform.
var platformBaseURLs = map[string]string{
	PlatformInstagram: defaultFetchBaseURL,
	PlatformTikTok:    "https://www.tiktok.com",
	PlatformYouTube:   "https://www.youtube.com",
}

// Speech-to-text providers.
const (
	ProviderWhisperX = "whisperx"
	ProviderGCP      = "gcp"
)

// Cooldown backends.
const (
	CooldownMemory = "memory"
	CooldownRedis  = "redis"
)

// Trace exporters.
const (
	ExporterNone   = "none"
	ExporterStdout = "stdout"
	ExporterOTLP   = "otlp"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:      defaultDataDir,
			MediaDir:     defaultMediaDir,
			LogDir:       defaultLogDir,
			DatabasePath: defaultDatabasePath,
		},
		Fetch: Fetch{
			Platform:              PlatformInstagram,
			BaseURL:               defaultFetchBaseURL,
			RequestsPerSecond:     defaultRequestsPerSecond,
			Burst:                 defaultBurst,
			RequestTimeoutSeconds: defaultRequestTimeoutSeconds,
			CommentLimit:          defaultCommentLimit,
			RecencyDays:           defaultRecencyDays,
		},
		Engagement: Engagement{
			CommentWeight: defaultCommentWeight,
			LikeWeight:    defaultLikeWeight,
			ViewWeight:    defaultViewWeight,
		},
		Audience: Audience{
			Clusters:      defaultClusters,
			MinComments:   defaultMinComments,
			Seed:          defaultClusterSeed,
			MaxIterations: defaultMaxIterations,
			Labeler:       defaultLabeler,
		},
		Transcription: Transcription{
			Provider:      defaultSpeechProvider,
			GCPModel:      defaultGCPModel,
			Language:      defaultLanguage,
			Model:         defaultWhisperModel,
			VADMethod:     defaultVADMethod,
			FFmpegBinary:  defaultFFmpegBinary,
			FFprobeBinary: defaultFFprobeBinary,
			YTDLPBinary:   defaultYTDLPBinary,
			UVXBinary:     defaultUVXBinary,

			MediaRetentionDays: defaultMediaRetentionDays,
		},
		LLM: LLM{
			BaseURL:        defaultLLMBaseURL,
			Model:          defaultLLMModel,
			Referer:        defaultLLMReferer,
			Title:          defaultLLMTitle,
			TimeoutSeconds: defaultLLMTimeoutSeconds,
		},
		Gemini: Gemini{
			Model: defaultGeminiModel,
		},
		Cooldown: Cooldown{
			Backend: defaultCooldownBackend,
			Seconds: defaultCooldownSeconds,
		},
		Telemetry: Telemetry{
			Exporter:    defaultTelemetryExporter,
			ServiceName: defaultTelemetryService,
			SampleRatio: defaultTelemetrySampleRatio,
		},
		Pipeline: Pipeline{
			Concurrency:        defaultConcurrency,
			ItemTimeoutSeconds: defaultItemTimeoutSeconds,
		},
		Compose: Compose{
			VariantCount:        defaultVariantCount,
			FallbackOnEmptyPool: true,
			ScrapeTop:           defaultScrapeTop,
			ScrapeMinEngagement: defaultScrapeMinEngagement,
		},
		API: API{
			Bind: defaultAPIBind,
		},
		Schedule: Schedule{
			Cron:          defaultScheduleCron,
			Top:           defaultScrapeTop,
			MinEngagement: defaultScrapeMinEngagement,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
