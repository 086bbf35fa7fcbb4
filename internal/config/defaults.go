package config

const (
	defaultDataDir        = "~/.local/share/recheck/data"
	defaultLogDir         = "~/.local/share/recheck/logs"
	defaultExportDir      = "~/.local/share/recheck/export"
	defaultFetchTimeout   = 45
	defaultLoginTimeout   = 20
	defaultBatchLimit     = 10
	defaultWorkers        = 1
	defaultFuzzyThreshold = 80
	defaultPdftoppm       = "pdftoppm"
	defaultTesseract      = "tesseract"
	defaultDPI            = 300
	defaultMetricsBind    = "127.0.0.1:9184"
	defaultLogFormat      = "console"
	defaultLogLevel       = "info"
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Paths: Paths{
			DataDir:   defaultDataDir,
			LogDir:    defaultLogDir,
			ExportDir: defaultExportDir,
		},
		Portal: Portal{
			FetchTimeout: defaultFetchTimeout,
			LoginTimeout: defaultLoginTimeout,
		},
		Pipeline: Pipeline{
			BatchLimit: defaultBatchLimit,
			Workers:    defaultWorkers,
		},
		Matching: Matching{
			FuzzyThreshold: defaultFuzzyThreshold,
		},
		Tools: Tools{
			Pdftoppm:  defaultPdftoppm,
			Tesseract: defaultTesseract,
			DPI:       defaultDPI,
		},
		Metrics: Metrics{
			Enabled: false,
			Bind:    defaultMetricsBind,
		},
		Logging: Logging{
			Format: defaultLogFormat,
			Level:  defaultLogLevel,
		},
	}
}
