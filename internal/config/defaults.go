package config

const (
	defaultDataDir         = "~/.local/share/soundcheck"
	defaultLogDir          = "~/.local/share/soundcheck/logs"
	defaultSocketPath      = "~/.local/share/soundcheck/soundcheck.sock"
	defaultDatabasePath    = "~/.local/share/soundcheck/queue.db"
	defaultWorkerSocketDir = "~/.local/share/soundcheck/workers"

	defaultEngineLoadTimeout = 30

	defaultWorkerCount     = 2
	defaultHybridThreshold = 0.75

	defaultLoudnessFloor          = 30
	defaultLoudnessCeiling        = 300
	defaultLoudnessPerAudioSecond = 5.0
	defaultStereoSeconds          = 10
	defaultTechnicalFloor         = 15
	defaultTechnicalCeiling       = 180
	defaultTechnicalPerAudioSecond = 3.0
	defaultTempoSeconds           = 20

	defaultQueuePollInterval  = 2
	defaultErrorRetryInterval = 10

	defaultLogFormat        = "console"
	defaultLogLevel         = "info"
	defaultLogRetentionDays = 30
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:         defaultDataDir,
			LogDir:          defaultLogDir,
			SocketPath:      defaultSocketPath,
			DatabasePath:    defaultDatabasePath,
			WorkerSocketDir: defaultWorkerSocketDir,
		},
		Engine: Engine{
			LoadTimeout: defaultEngineLoadTimeout,
		},
		Workers: Workers{
			Count:           defaultWorkerCount,
			HybridThreshold: defaultHybridThreshold,
		},
		Timeouts: Timeouts{
			LoudnessFloor:           defaultLoudnessFloor,
			LoudnessCeiling:         defaultLoudnessCeiling,
			LoudnessPerAudioSecond:  defaultLoudnessPerAudioSecond,
			StereoSeconds:           defaultStereoSeconds,
			TechnicalFloor:          defaultTechnicalFloor,
			TechnicalCeiling:        defaultTechnicalCeiling,
			TechnicalPerAudioSecond: defaultTechnicalPerAudioSecond,
			TempoSeconds:            defaultTempoSeconds,
		},
		Daemon: Daemon{
			QueuePollInterval:  defaultQueuePollInterval,
			ErrorRetryInterval: defaultErrorRetryInterval,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			RetentionDays: defaultLogRetentionDays,
		},
	}
}
