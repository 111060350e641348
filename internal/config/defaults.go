package config

const (
	defaultConfigPath          = "~/.config/vtoa/config.toml"
	defaultLogDir              = "~/.local/share/vtoa/logs"
	defaultLockDir             = "~/.local/state/vtoa/locks"
	defaultAudioCodec          = "aac"
	defaultAudioBitrate        = "160k"
	defaultAudioExtension      = ".m4a"
	defaultOutputSuffix        = "_audio"
	defaultSilenceThresholdDB  = -55.0
	defaultSilenceDuration     = 1.2
	defaultLoudnessIntegrated  = -16.0
	defaultLoudnessRange       = 11.0
	defaultLoudnessTruePeak    = -1.5
	defaultVADCommand          = "silero-vad-segments"
	defaultVADSampleRate       = 16000
	defaultVADBufferSeconds    = 1.0
	defaultBatchWorkers        = 1
	defaultStageTimeoutSeconds = 0
	defaultLogFormat           = "console"
	defaultLogLevel            = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			LogDir:  defaultLogDir,
			LockDir: defaultLockDir,
		},
		FFmpeg: FFmpeg{
			StageTimeoutSeconds: defaultStageTimeoutSeconds,
		},
		Audio: Audio{
			Codec:     defaultAudioCodec,
			Bitrate:   defaultAudioBitrate,
			Extension: defaultAudioExtension,
			Suffix:    defaultOutputSuffix,
		},
		Silence: Silence{
			ThresholdDB:     defaultSilenceThresholdDB,
			DurationSeconds: defaultSilenceDuration,
		},
		Loudness: Loudness{
			Integrated: defaultLoudnessIntegrated,
			Range:      defaultLoudnessRange,
			TruePeak:   defaultLoudnessTruePeak,
		},
		VAD: VAD{
			Command:       defaultVADCommand,
			SampleRate:    defaultVADSampleRate,
			BufferSeconds: defaultVADBufferSeconds,
		},
		Batch: Batch{
			Workers: defaultBatchWorkers,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
