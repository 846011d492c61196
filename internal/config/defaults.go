package config

const (
	defaultStagingDir = "~/.local/share/eduassist/staging"
	defaultLibraryDir = "~/eduassist-library"
	defaultLogDir     = "~/.local/share/eduassist/logs"
	defaultInboxDir   = "~/.local/share/eduassist/inbox"
	defaultAPIBind    = "127.0.0.1:7519"

	defaultGeminiModel    = "gemini-2.5-flash"
	defaultGeminiTimeout  = 120
	defaultGroqBaseURL    = "https://api.groq.com/openai/v1/chat/completions"
	defaultGroqModel      = "llama-3.3-70b-versatile"
	defaultGroqTimeout    = 60
	defaultUnsplashURL    = "https://api.unsplash.com"
	defaultUnsplashImages = 4

	defaultGenerationSlides  = 8
	defaultGenerationMaxSl   = 20
	defaultGenerationMarks   = 30
	defaultGenerationMaxSets = 5
	defaultSetConcurrency    = 2

	defaultTimetableDayStart = "08:30"
	defaultTimetableDayEnd   = "15:30"

	defaultWorkflowHeartbeatInterval = 15
	defaultWorkflowHeartbeatTimeout  = 120

	defaultLogFormat        = "console"
	defaultLogLevel         = "info"
	defaultLogRetentionDays = 60
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			StagingDir: defaultStagingDir,
			LibraryDir: defaultLibraryDir,
			LogDir:     defaultLogDir,
			InboxDir:   defaultInboxDir,
			APIBind:    defaultAPIBind,
		},
		Gemini: Gemini{
			Model:          defaultGeminiModel,
			TimeoutSeconds: defaultGeminiTimeout,
		},
		Groq: Groq{
			BaseURL:        defaultGroqBaseURL,
			Model:          defaultGroqModel,
			TimeoutSeconds: defaultGroqTimeout,
		},
		Unsplash: Unsplash{
			BaseURL:        defaultUnsplashURL,
			TimeoutSeconds: 15,
			MaxImages:      defaultUnsplashImages,
		},
		Generation: Generation{
			DefaultSlides:  defaultGenerationSlides,
			MaxSlides:      defaultGenerationMaxSl,
			DefaultMarks:   defaultGenerationMarks,
			MaxSets:        defaultGenerationMaxSets,
			SetConcurrency: defaultSetConcurrency,
		},
		Timetable: Timetable{
			DayStart: defaultTimetableDayStart,
			DayEnd:   defaultTimetableDayEnd,
		},
		Workflow: Workflow{
			QueuePollInterval:  5,
			ErrorRetryInterval: 10,
			HeartbeatInterval:  defaultWorkflowHeartbeatInterval,
			HeartbeatTimeout:   defaultWorkflowHeartbeatTimeout,
		},
		Notifications: Notifications{
			RequestTimeout: 10,
			Generation:     true,
			Queue:          true,
			Errors:         true,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
