package config

const (
	defaultSourceDir       = "~/music/lossless"
	defaultOutputDir       = "~/music/encoded"
	defaultWorkDir         = "~/.local/share/remaster/work"
	defaultLogDir          = "~/.local/share/remaster/logs"
	defaultJournalPath     = "~/.local/share/remaster/journal.db"
	defaultSourceExtension = ".flac"
	defaultTargetExtension = ".m4a"
	defaultEncoderArgs     = "-vn -c:a aac -b:a 256k"
	defaultWorkers         = 1
	defaultEncoderCommand  = "ffmpeg"
	defaultSplitterCommand = "shnsplit"
	defaultTagExportTool   = "metaflac"
	defaultTagWriteTool    = "AtomicParsley"
	defaultWatchDebounceMS = 2000
	defaultLogFormat       = "console"
	defaultLogLevel        = "info"
)

// EncoderArgsEnvVar overrides encoding.encoder_args when set. The value is
// whitespace-tokenized the same way as the config field.
const EncoderArgsEnvVar = "REMASTER_ENCODER_ARGS"

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			SourceDir:   defaultSourceDir,
			OutputDir:   defaultOutputDir,
			WorkDir:     defaultWorkDir,
			LogDir:      defaultLogDir,
			JournalPath: defaultJournalPath,
		},
		Encoding: Encoding{
			SourceExtension: defaultSourceExtension,
			TargetExtension: defaultTargetExtension,
			EncoderArgs:     defaultEncoderArgs,
			Workers:         defaultWorkers,
		},
		Tools: Tools{
			Encoder:   defaultEncoderCommand,
			Splitter:  defaultSplitterCommand,
			TagExport: defaultTagExportTool,
			TagWrite:  defaultTagWriteTool,
		},
		Watch: Watch{
			DebounceMS: defaultWatchDebounceMS,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
