package config

// Config holds app configuration
type Config struct {
	// InputFile and OutputDir come from the positional command line
	// arguments, not from flags or the config file.
	InputFile string `mapstructure:"-"`
	OutputDir string `mapstructure:"-"`

	// ListOnly prints archives and their file tables without writing
	// anything
	ListOnly bool `mapstructure:"list"`

	// ArchiveIndex restricts extraction to one archive (0-based).
	// Negative means all discovered archives.
	ArchiveIndex int `mapstructure:"archive"`

	// Match restricts listing and extraction to paths matching this
	// doublestar glob (e.g. "**/*.DLL")
	Match string `mapstructure:"match"`

	// Workers caps concurrent file decodes; 0 or less means one per CPU
	Workers int `mapstructure:"workers"`

	LogLevel     string `mapstructure:"log_level"`
	LogOutputDir string `mapstructure:"log_output_dir"`
}
