package config

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"slices"

	"github.com/goccy/go-yaml"

	"github.com/jacoelho/jsonslice/internal/exit"
	"github.com/jacoelho/jsonslice/internal/source"
)

// Version is reported by -v.
const Version = "0.1.0"

var (
	ErrNoArguments    = errors.New("no arguments provided")
	ErrNoDocument     = errors.New("no document file specified")
	ErrNoCommand      = errors.New("no command specified")
	ErrUnknownCommand = errors.New("unknown command")
	ErrMissingExpr    = errors.New("select requires a JSONPath expression")
	ErrTooManyArgs    = errors.New("too many arguments")
	ErrNegativeLimit  = errors.New("limits cannot be negative")
)

// Commands lists the supported commands in the order Usage shows them.
var Commands = []string{"validate", "exists", "type", "len", "get", "exact", "raw", "select", "index"}

// Config represents the complete configuration for the jsonslice tool.
type Config struct {
	File    string
	Command string
	Path    string
	Expr    string

	MaxSize  int64   // bytes, 0 disables the cap
	ReadRate float64 // bytes per second, 0 = unlimited
	Debug    bool

	ConfigFile string
}

// fileConfig mirrors the YAML config file. Pointers tell unset keys apart
// from zero values.
type fileConfig struct {
	MaxSize  *int64   `yaml:"max_size"`
	ReadRate *float64 `yaml:"read_rate"`
	Debug    *bool    `yaml:"debug"`
}

// Validate validates the configuration and returns an error if invalid.
func (c *Config) Validate() error {
	if c.File == "" {
		return ErrNoDocument
	}
	if c.Command == "" {
		return ErrNoCommand
	}
	if !slices.Contains(Commands, c.Command) {
		return fmt.Errorf("%w: %s", ErrUnknownCommand, c.Command)
	}
	if c.Command == "select" && c.Expr == "" {
		return ErrMissingExpr
	}
	if c.MaxSize < 0 || c.ReadRate < 0 {
		return ErrNegativeLimit
	}

	info, err := os.Stat(c.File)
	if err != nil {
		return fmt.Errorf("document %s not found: %w", c.File, err)
	}
	if info.IsDir() {
		return fmt.Errorf("document %s is a directory", c.File)
	}
	return nil
}

// Parse parses command-line arguments and returns a validated Config.
// If parsing fails or help is requested, returns nil config and exit result.
func Parse(args []string) (*Config, *exit.Result) {
	if len(args) == 0 {
		return nil, exit.Usagef("Error: %v\n\n%s", ErrNoArguments, Usage())
	}

	fs := flag.NewFlagSet(args[0], flag.ContinueOnError)

	// Suppress the default usage output since we handle it ourselves
	fs.Usage = func() {}
	// Suppress error output since we handle it ourselves
	fs.SetOutput(io.Discard)

	var (
		maxSize    = fs.Int64("max-size", source.DefaultMaxSize, "Largest document accepted, in bytes (0 disables the cap)")
		readRate   = fs.Float64("read-rate", 0, "Read throughput limit in bytes per second (0 for unlimited)")
		configFile = fs.String("config", "", "Path to a YAML file providing defaults")
		debug      = fs.Bool("debug", false, "Enable debug logging on stderr")
		version    bool
	)
	fs.BoolVar(&version, "v", false, "Show version information")
	fs.BoolVar(&version, "version", false, "Show version information")

	if err := fs.Parse(args[1:]); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return nil, exit.Success(Usage())
		}
		return nil, exit.Usagef("Error: failed to parse arguments: %v\n\n%s", err, Usage())
	}

	if version {
		return nil, exit.Success(fmt.Sprintf("jsonslice %s\n", Version))
	}

	cfg := &Config{
		MaxSize:    source.DefaultMaxSize,
		ConfigFile: *configFile,
	}

	// Defaults come from the file, explicit flags win
	if cfg.ConfigFile != "" {
		fc, err := loadFile(cfg.ConfigFile)
		if err != nil {
			return nil, exit.Usagef("Error: failed to load config file: %v\n\n%s", err, Usage())
		}
		fc.apply(cfg)
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "max-size":
			cfg.MaxSize = *maxSize
		case "read-rate":
			cfg.ReadRate = *readRate
		case "debug":
			cfg.Debug = *debug
		}
	})

	if err := cfg.positional(fs.Args()); err != nil {
		return nil, exit.Usagef("Error: %v\n\n%s", err, Usage())
	}

	if err := cfg.Validate(); err != nil {
		return nil, exit.Usagef("Error: %v\n\n%s", err, Usage())
	}

	return cfg, nil
}

// positional reads <file> <command> [path] [expr]. select takes the
// expression last, so a single argument after it is the expression.
func (c *Config) positional(rest []string) error {
	if len(rest) == 0 {
		return ErrNoDocument
	}
	c.File = rest[0]
	if len(rest) == 1 {
		return ErrNoCommand
	}
	c.Command = rest[1]
	operands := rest[2:]

	switch c.Command {
	case "validate", "index":
		if len(operands) > 0 {
			return fmt.Errorf("%w: %s takes no path", ErrTooManyArgs, c.Command)
		}
	case "select":
		switch len(operands) {
		case 0:
		case 1:
			c.Expr = operands[0]
		case 2:
			c.Path, c.Expr = operands[0], operands[1]
		default:
			return fmt.Errorf("%w for select", ErrTooManyArgs)
		}
	default:
		if len(operands) > 1 {
			return fmt.Errorf("%w for %s", ErrTooManyArgs, c.Command)
		}
		if len(operands) == 1 {
			c.Path = operands[0]
		}
	}
	return nil
}

// loadFile decodes a YAML config file. Unknown keys are rejected.
func loadFile(filename string) (*fileConfig, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read file %s: %w", filename, err)
	}
	defer f.Close()

	var fc fileConfig
	if err := yaml.NewDecoder(f, yaml.Strict()).Decode(&fc); err != nil {
		if errors.Is(err, io.EOF) {
			return &fc, nil
		}
		return nil, fmt.Errorf("decode %s: %w", filename, err)
	}
	return &fc, nil
}

func (fc *fileConfig) apply(c *Config) {
	if fc.MaxSize != nil {
		c.MaxSize = *fc.MaxSize
	}
	if fc.ReadRate != nil {
		c.ReadRate = *fc.ReadRate
	}
	if fc.Debug != nil {
		c.Debug = *fc.Debug
	}
}

// Usage returns a usage string for the CLI tool.
func Usage() string {
	return `jsonslice - retrieve sub-trees of large JSON documents

Usage: jsonslice [options] <file> <command> [path] [expr]

Commands:
  validate                Parse the whole document and report the first error
  exists PATH             Print whether PATH resolves (exit 1 when it does not)
  type PATH               Print the kind at PATH: Object, Array, String, Integer or Null
  len PATH                Print the element count of the array at PATH
  get PATH                Print the container at PATH (shallow fetch)
  exact PATH              Print the complete sub-tree at PATH
  raw PATH                Print the source bytes of PATH
  select [PATH] EXPR      Evaluate a JSONPath expression against PATH
  index                   Print every indexed path with its kind and span

Paths are colon-separated (data:0:name); an empty path is the whole document.

Options:
  --max-size BYTES        Largest document accepted (default: 104857600, 0 disables)
  --read-rate N           Read throughput limit in bytes per second (0 for unlimited)
  --config FILE           YAML file with max_size, read_rate and debug defaults
  --debug                 Enable debug logging on stderr
  -h, --help              Show this help message
  -v, --version           Show version information

Examples:
  jsonslice payload.json type data                 # Array
  jsonslice payload.json len data                  # 2
  jsonslice payload.json exact data:1              # {"id":2,"name":"b"}
  jsonslice payload.json select data '$[*].name'   # one result per line
  jsonslice --max-size 0 huge.json validate        # no size cap
`
}
