package config

import (
	"flag"
	"fmt"
	"os"
)

// Flags holds parsed command-line flags.
type Flags struct {
	// Commands
	Help    bool
	Version bool

	// Core
	DataDir  string
	Config   string
	Contract string
	Storage  string

	// Logging
	LogLevel string
	LogFile  string
	LogJSON  bool

	// Remaining args
	Args []string

	// Explicitly-set bool flags (for true/false overrides).
	SetLogJSON bool
}

// ParseFlags parses command-line flags.
func ParseFlags() *Flags {
	f := &Flags{}
	fs := flag.NewFlagSet("mtsimd", flag.ContinueOnError)

	// Commands
	fs.BoolVar(&f.Help, "help", false, "Show help message")
	fs.BoolVar(&f.Help, "h", false, "Show help message (shorthand)")
	fs.BoolVar(&f.Version, "version", false, "Show version information")
	fs.BoolVar(&f.Version, "v", false, "Show version (shorthand)")

	// Core
	fs.StringVar(&f.DataDir, "datadir", "", "Data directory path")
	fs.StringVar(&f.Config, "config", "", "Config file path")
	fs.StringVar(&f.Config, "c", "", "Config file path (shorthand)")
	fs.StringVar(&f.Contract, "contract", "", "Account the token contract runs under")
	fs.StringVar(&f.Storage, "storage", "", "Storage backend (memory or badger)")

	// Logging
	fs.StringVar(&f.LogLevel, "log-level", "", "Log level (debug, info, warn, error)")
	fs.StringVar(&f.LogFile, "log-file", "", "Log file path")
	fs.BoolVar(&f.LogJSON, "log-json", false, "Output logs as JSON")

	fs.Usage = func() {
		printUsage()
	}

	if err := fs.Parse(os.Args[1:]); err != nil {
		if err == flag.ErrHelp {
			os.Exit(0)
		}
		os.Exit(1)
	}

	if f.Help {
		printUsage()
		os.Exit(0)
	}

	f.SetLogJSON = isFlagSet(fs, "log-json")
	f.Args = fs.Args()
	return f
}

// ApplyFlags applies command-line flags to a Config struct.
func ApplyFlags(cfg *Config, f *Flags) {
	if f.DataDir != "" {
		cfg.DataDir = f.DataDir
	}
	if f.Contract != "" {
		cfg.ContractID = f.Contract
	}
	if f.Storage != "" {
		cfg.Storage = StorageBackend(f.Storage)
	}

	if f.LogLevel != "" {
		cfg.Log.Level = f.LogLevel
	}
	if f.LogFile != "" {
		cfg.Log.File = f.LogFile
	}
	if f.SetLogJSON {
		cfg.Log.JSON = f.LogJSON
	}
}

// Load builds the effective configuration: defaults, then the config
// file, then command-line flags.
func Load(f *Flags) (*Config, error) {
	cfg := Default()

	path := f.Config
	if path == "" {
		if f.DataDir != "" {
			cfg.DataDir = f.DataDir
		}
		path = cfg.ConfigFile()
	}
	values, err := LoadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load config file: %w", err)
	}
	if err := ApplyFileConfig(cfg, values); err != nil {
		return nil, err
	}

	ApplyFlags(cfg, f)

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func isFlagSet(fs *flag.FlagSet, name string) bool {
	set := false
	fs.Visit(func(fl *flag.Flag) {
		if fl.Name == name {
			set = true
		}
	})
	return set
}

func printUsage() {
	fmt.Fprintf(os.Stderr, `mtsimd - multi-token contract simulator

Usage:
  mtsimd [options]

Options:
  -h, -help            Show this help message
  -v, -version         Show version information
  -c, -config <path>   Config file path
  -datadir <path>      Data directory path
  -contract <account>  Account the token contract runs under
  -storage <backend>   Storage backend: memory or badger

Logging:
  -log-level <level>   Log level (debug, info, warn, error)
  -log-file <path>     Log file path
  -log-json            Output logs as JSON
`)
}
