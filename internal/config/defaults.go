package config

const (
	defaultConfigPath          = "~/.config/autopost/config.toml"
	defaultStateDir            = "~/.local/share/autopost"
	defaultScratchDir          = "~/.local/share/autopost/scratch"
	defaultLogDir              = "~/.local/share/autopost/logs"
	defaultCatalogFile         = "animals.json"
	defaultHistoryFile         = "history.json"
	defaultHistoryDBFile       = "history.db"
	defaultHistoryBackend      = "json"
	defaultMaxAttempts         = 100
	defaultTextModel           = "gpt-4o-mini"
	defaultImageModel          = "dall-e-3"
	defaultImageSize           = "1024x1024"
	defaultGenerationLanguage  = "English"
	defaultBodyFormat          = "html"
	defaultTemperature         = 0.7
	defaultMaxTokens           = 4000
	defaultSpeechProvider      = "openai"
	defaultOpenAISpeechModel   = "tts-1"
	defaultOpenAISpeechVoice   = "alloy"
	defaultElevenLabsModel     = "eleven_flash_v2_5"
	defaultElevenLabsBaseURL   = "https://api.elevenlabs.io"
	defaultElevenLabsFormat    = "mp3_44100_128"
	defaultPostStatus          = "publish"
	defaultFFmpegBinary        = "ffmpeg"
	defaultVideoWidth          = 1920
	defaultVideoHeight         = 1080
	defaultRenderTimeout       = 600
	defaultYouTubeTokenFile    = "youtube_token.json"
	defaultYouTubeCategoryID   = "22"
	defaultYouTubePrivacy      = "public"
	defaultRetryAttempts       = 3
	defaultRetryStrategy       = "constant"
	defaultRetryDelayMillis    = 2000
	defaultRetryMaxDelayMillis = 30000
	defaultHTTPTimeoutSeconds  = 60
	defaultScratchMaxAgeHours  = 24
	defaultNotifyTimeout       = 10
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
)

// DefaultAttributes is the built-in mood enumeration paired with catalog subjects.
var DefaultAttributes = []string{
	"curious",
	"brave",
	"grumpy",
	"sleepy",
	"mischievous",
	"shy",
	"cheerful",
	"melancholic",
	"clumsy",
	"wise",
}

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StateDir:   defaultStateDir,
			ScratchDir: defaultScratchDir,
			LogDir:     defaultLogDir,
		},
		Catalog: Catalog{
			Attributes:  append([]string(nil), DefaultAttributes...),
			MaxAttempts: defaultMaxAttempts,
		},
		History: History{
			Backend: defaultHistoryBackend,
		},
		Generation: Generation{
			TextModel:   defaultTextModel,
			ImageModel:  defaultImageModel,
			ImageSize:   defaultImageSize,
			Language:    defaultGenerationLanguage,
			BodyFormat:  defaultBodyFormat,
			Temperature: defaultTemperature,
			MaxTokens:   defaultMaxTokens,
		},
		Speech: Speech{
			Provider: defaultSpeechProvider,
		},
		WordPress: WordPress{
			Status: defaultPostStatus,
		},
		Video: Video{
			Enabled:       true,
			Upload:        true,
			FFmpegBinary:  defaultFFmpegBinary,
			Width:         defaultVideoWidth,
			Height:        defaultVideoHeight,
			RenderTimeout: defaultRenderTimeout,
		},
		YouTube: YouTube{
			CategoryID:    defaultYouTubeCategoryID,
			PrivacyStatus: defaultYouTubePrivacy,
			Tags:          []string{"AI", "FairyTale", "Animal"},
		},
		Retry: Retry{
			Attempts:       defaultRetryAttempts,
			Strategy:       defaultRetryStrategy,
			DelayMillis:    defaultRetryDelayMillis,
			MaxDelayMillis: defaultRetryMaxDelayMillis,
		},
		HTTP: HTTP{
			TimeoutSeconds: defaultHTTPTimeoutSeconds,
		},
		Scratch: Scratch{
			MaxAgeHours: defaultScratchMaxAgeHours,
		},
		Notifications: Notifications{
			RequestTimeout: defaultNotifyTimeout,
			Published:      true,
			Degraded:       true,
			Errors:         true,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
