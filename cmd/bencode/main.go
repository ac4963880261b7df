// Command bencode works with bencoded documents such as torrent metainfo files.
//
// Usage:
//
//	bencode <command> [flags] <file|->
//
// Commands read a single document from a file, or from stdin if the file is "-".
// The codec and logging are configured from a YAML file (--config), BENCODE_*
// environment variables and flags, in increasing order of precedence.
package main

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/go-gum/bencode"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
)

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout, os.Stderr); err != nil {
		var coder interface{ ExitCode() int }
		if errors.As(err, &coder) {
			os.Exit(coder.ExitCode())
		}

		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout, stderr io.Writer) error {
	a := &app{stdin: stdin, stdout: stdout, stderr: stderr}
	return a.root().execute(args, stderr)
}

type app struct {
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer

	// global flags, shared by all commands
	configPath string
	logLevel   string
	logFormat  string
	logFile    string
}

func (a *app) root() *command {
	return &command{
		Name:    "bencode",
		Summary: "Work with bencoded documents.",
		Subcommands: []*command{
			a.dumpCommand(),
			a.checkCommand(),
			a.canonCommand(),
			a.spanCommand(),
			a.hashCommand(),
			a.encodeCommand(),
		},
	}
}

// flagSet returns a flag set holding the global flags.
func (a *app) flagSet(name string) *pflag.FlagSet {
	flagSet := pflag.NewFlagSet("bencode "+name, pflag.ContinueOnError)
	flagSet.StringVar(&a.configPath, "config", "", "path to a YAML configuration file")
	flagSet.StringVar(&a.logLevel, "log-level", "", "log level: debug, info, warn or error")
	flagSet.StringVar(&a.logFormat, "log-format", "", "log format: console or json")
	flagSet.StringVar(&a.logFile, "log-file", "", "write log output to this file instead of stderr")
	return flagSet
}

// session is the environment of a single command invocation.
type session struct {
	config Config
	codec  *bencode.Codec
	logger *zap.Logger

	// flushes the logger
	close func()
}

// start loads the configuration and builds the logger and codec. Options are
// applied to the codec after the configured ones.
func (a *app) start(opts ...bencode.Option) (*session, error) {
	overrides := map[string]any{}
	if a.logLevel != "" {
		overrides["log.level"] = a.logLevel
	}

	if a.logFormat != "" {
		overrides["log.format"] = a.logFormat
	}

	if a.logFile != "" {
		overrides["log.file"] = a.logFile
	}

	config, err := loadConfig(a.configPath, overrides)
	if err != nil {
		return nil, err
	}

	logger, cleanup, err := setupLogger(config.Log, a.stderr)
	if err != nil {
		return nil, err
	}

	codec, err := bencode.NewFromConfig(config.Codec, append([]bencode.Option{bencode.WithLogger(logger)}, opts...)...)
	if err != nil {
		cleanup()
		return nil, err
	}

	return &session{config: config, codec: codec, logger: logger, close: cleanup}, nil
}

// decode decodes data and logs all warnings.
func (s *session) decode(data []byte) (bencode.Value, []string, error) {
	value, warnings, err := s.codec.DecodeWithWarnings(data)
	if err != nil {
		return nil, nil, fmt.Errorf("decode: %w", err)
	}

	for _, warning := range warnings {
		s.logger.Warn("decode warning", zap.String("warning", warning))
	}

	return value, warnings, nil
}

// readInput reads the single input document named by args.
func (a *app) readInput(args []string) ([]byte, error) {
	if len(args) != 1 {
		return nil, fmt.Errorf("expected exactly one input file, got %d arguments", len(args))
	}

	if args[0] == "-" {
		data, err := io.ReadAll(a.stdin)
		if err != nil {
			return nil, fmt.Errorf("read stdin: %w", err)
		}

		return data, nil
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return nil, fmt.Errorf("read input: %w", err)
	}

	return data, nil
}
