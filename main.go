package main

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"

	"github.com/bmatcuk/doublestar/v4"
	"github.com/samber/lo"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/dcontiveros/sc2kne-patcher/internal/config"
	"github.com/dcontiveros/sc2kne-patcher/internal/extract"
	"github.com/dcontiveros/sc2kne-patcher/internal/is3"
	"github.com/dcontiveros/sc2kne-patcher/internal/logging"
)

var (
	cfgFile string
	cfg     *config.Config
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "is3extract <input> [output_dir]",
	Short: "Extract files from InstallShield 3.x self-extracting installers",
	Long: `Extract files from InstallShield 3.x self-extracting installers.

Scans the input for embedded IS3 archives, parses their file tables and
decompresses every file (PKWARE implode) into the output directory. An
installer carrying several archives extracts each one into its own
archive_<n> subdirectory unless --archive picks a single one.`,
	Args: cobra.RangeArgs(1, 2),
	RunE: run,
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "path to config file")

	rootCmd.Flags().BoolP("list", "l", false, "list archives and files without extracting")
	rootCmd.Flags().Int("archive", -1, "extract only archive N, 0-based (default: all)")
	rootCmd.Flags().StringP("match", "m", "", "only list/extract files whose path matches this glob (e.g. '**/*.DLL')")
	rootCmd.Flags().Int("workers", 0, "concurrent file decodes (0 = one per CPU)")

	rootCmd.Flags().String("log-level", "info", "log level (debug, info, warn, error)")
	rootCmd.Flags().String("log-output-dir", "", "directory to write log files (if set, logs are written to both stderr and file)")

	viper.BindPFlag("list", rootCmd.Flags().Lookup("list"))
	viper.BindPFlag("archive", rootCmd.Flags().Lookup("archive"))
	viper.BindPFlag("match", rootCmd.Flags().Lookup("match"))
	viper.BindPFlag("workers", rootCmd.Flags().Lookup("workers"))
	viper.BindPFlag("log_level", rootCmd.Flags().Lookup("log-level"))
	viper.BindPFlag("log_output_dir", rootCmd.Flags().Lookup("log-output-dir"))
}

// initConfig reads in config file and environment variables if set
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(filepath.Join(home, ".config", "is3extract"))
		}
		viper.AddConfigPath("/etc/is3extract")
		viper.SetConfigName("config")
		viper.SetConfigType("toml")
	}

	viper.SetEnvPrefix("IS3EXTRACT")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintf(os.Stderr, "Using config file: %s\n", viper.ConfigFileUsed())
	}
}

// run scans the input file and either lists or extracts whatever
// archives it carries.
func run(cmd *cobra.Command, args []string) error {
	cfg = &config.Config{}
	if err := viper.Unmarshal(cfg); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	cfg.InputFile = args[0]
	if len(args) > 1 {
		cfg.OutputDir = args[1]
	}

	if err := logging.Setup(cfg.LogLevel, cfg.LogOutputDir); err != nil {
		return fmt.Errorf("could not set up logging: %w", err)
	}

	if !cfg.ListOnly && cfg.OutputDir == "" {
		return fmt.Errorf("output directory required unless --list is given")
	}
	if cfg.Match != "" && !doublestar.ValidatePattern(cfg.Match) {
		return fmt.Errorf("invalid --match pattern %q", cfg.Match)
	}

	data, err := os.ReadFile(cfg.InputFile)
	if err != nil {
		return fmt.Errorf("failed to read input file: %w", err)
	}

	slog.Info("scanning input", "input", cfg.InputFile, "bytes", len(data))

	archives := slices.Collect(is3.Scan(data))
	if len(archives) == 0 {
		return fmt.Errorf("no InstallShield 3.x archives found in %s", cfg.InputFile)
	}

	printer := message.NewPrinter(language.English)
	printer.Printf("Input: %s (%d bytes)\n", cfg.InputFile, len(data))
	printer.Printf("Found %d archive(s):\n", len(archives))

	for i, hdr := range archives {
		printer.Printf("  [%d] Offset 0x%x: %d files, %d bytes\n",
			i, hdr.Offset, hdr.FileCount, hdr.ArchiveLen)

		if cfg.ListOnly {
			listArchive(printer, data, hdr)
		}
	}
	if cfg.ListOnly {
		return nil
	}

	printer.Printf("\nOutput: %s/\n\n", cfg.OutputDir)

	ext := &extract.Extractor{
		Workers: cfg.Workers,
		Match:   cfg.Match,
	}

	var totalExtracted, totalFailed int
	for i, hdr := range archives {
		if cfg.ArchiveIndex >= 0 && i != cfg.ArchiveIndex {
			continue
		}

		outputDir := cfg.OutputDir
		if len(archives) > 1 {
			if cfg.ArchiveIndex < 0 {
				outputDir = filepath.Join(cfg.OutputDir, fmt.Sprintf("archive_%d", i))
				printer.Printf("Archive [%d] -> %s/\n", i, outputDir)
			} else {
				printer.Printf("Archive [%d]:\n", i)
			}
		}

		extracted, failed, err := ext.Extract(data, hdr, outputDir)
		if err != nil {
			return err
		}
		totalExtracted += extracted
		totalFailed += failed
	}

	if totalFailed > 0 {
		printer.Printf("Done! Extracted %d files (%d failed)\n", totalExtracted, totalFailed)
	} else {
		printer.Printf("Done! Extracted %d files\n", totalExtracted)
	}

	return nil
}

// listArchive prints one archive's directories and match-filtered files
// under its header line.
func listArchive(printer *message.Printer, data []byte, hdr is3.Header) {
	files, dirs := is3.ParseFileTable(data, hdr)
	files = extract.MatchFilter(files, cfg.Match)

	for _, d := range dirs {
		if d.Name != "" {
			printer.Printf("       Directory: %s/\n", d.Name)
		}
	}
	for _, f := range files {
		if mt := f.ModTime(); !mt.IsZero() {
			printer.Printf("       - %s (%d compressed, %s)\n",
				f.Path, f.CompressedSize, mt.Format("2006-01-02 15:04"))
		} else {
			printer.Printf("       - %s (%d compressed)\n", f.Path, f.CompressedSize)
		}
	}

	total := lo.SumBy(files, func(f is3.FileRecord) uint64 { return uint64(f.CompressedSize) })
	printer.Printf("       %d files, %d bytes compressed\n", len(files), total)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
