package main

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/fxamacker/cbor/v2"
	"github.com/go-gum/bencode"
	"github.com/go-gum/bencode/digest"
	"github.com/spf13/pflag"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

func (a *app) dumpCommand() *command {
	var format string
	var spans bool

	return &command{
		Name:    "dump",
		Summary: "Decode a document and print its value tree",
		Usage:   "bencode dump [flags] <file|->",
		Flags: func() *pflag.FlagSet {
			flagSet := a.flagSet("dump")
			flagSet.StringVar(&format, "format", "text", "output format: text, json, yaml or cbor")
			flagSet.BoolVar(&spans, "spans", false, "include the byte span of every value")
			return flagSet
		},
		Run: func(args []string) error {
			data, err := a.readInput(args)
			if err != nil {
				return err
			}

			var opts []bencode.Option
			if spans {
				opts = append(opts, bencode.WithDecoration())
			}

			s, err := a.start(opts...)
			if err != nil {
				return err
			}
			defer s.close()

			value, _, err := s.decode(data)
			if err != nil {
				return err
			}

			return a.writeValue(value, format, spans)
		},
	}
}

func (a *app) writeValue(value bencode.Value, format string, spans bool) error {
	if !spans {
		value = bencode.Undecorate(value)
	}

	switch strings.ToLower(format) {
	case "text":
		_, err := fmt.Fprintln(a.stdout, value)
		return err

	case "json":
		plain, err := converter{spans: spans, bytesOf: textBytes}.convert(value)
		if err != nil {
			return err
		}

		encoder := json.NewEncoder(a.stdout)
		encoder.SetIndent("", "  ")
		return encoder.Encode(plain)

	case "yaml":
		plain, err := converter{spans: spans, bytesOf: textBytes}.convert(value)
		if err != nil {
			return err
		}

		encoder := yaml.NewEncoder(a.stdout)
		encoder.SetIndent(2)
		if err := encoder.Encode(plain); err != nil {
			return fmt.Errorf("encode yaml: %w", err)
		}

		return encoder.Close()

	case "cbor":
		plain, err := converter{spans: spans, bytesOf: rawBytes}.convert(value)
		if err != nil {
			return err
		}

		encMode, err := cbor.CoreDetEncOptions().EncMode()
		if err != nil {
			return fmt.Errorf("cbor encoder: %w", err)
		}

		encoded, err := encMode.Marshal(plain)
		if err != nil {
			return fmt.Errorf("encode cbor: %w", err)
		}

		_, err = a.stdout.Write(encoded)
		return err

	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

func (a *app) checkCommand() *command {
	return &command{
		Name:    "check",
		Summary: "Validate a document, exit with status 2 if it produces warnings",
		Usage:   "bencode check [flags] <file|->",
		Flags: func() *pflag.FlagSet {
			return a.flagSet("check")
		},
		Run: func(args []string) error {
			data, err := a.readInput(args)
			if err != nil {
				return err
			}

			s, err := a.start()
			if err != nil {
				return err
			}
			defer s.close()

			_, warnings, err := s.decode(data)
			if err != nil {
				return err
			}

			if len(warnings) > 0 {
				for _, warning := range warnings {
					fmt.Fprintln(a.stdout, warning)
				}

				return &exitError{Code: 2}
			}

			fmt.Fprintln(a.stdout, "ok")
			return nil
		},
	}
}

func (a *app) canonCommand() *command {
	return &command{
		Name:    "canon",
		Summary: "Write the canonical encoding of a document",
		Usage:   "bencode canon [flags] <file|->",
		Flags: func() *pflag.FlagSet {
			return a.flagSet("canon")
		},
		Run: func(args []string) error {
			data, err := a.readInput(args)
			if err != nil {
				return err
			}

			s, err := a.start()
			if err != nil {
				return err
			}
			defer s.close()

			value, _, err := s.decode(data)
			if err != nil {
				return err
			}

			encoded, err := s.codec.Encode(bencode.Undecorate(value))
			if err != nil {
				return fmt.Errorf("encode: %w", err)
			}

			_, err = a.stdout.Write(encoded)
			return err
		},
	}
}

func (a *app) spanCommand() *command {
	var key string

	return &command{
		Name:    "span",
		Summary: "Print the byte span of a nested value",
		Usage:   "bencode span [flags] <file|->",
		Flags: func() *pflag.FlagSet {
			flagSet := a.flagSet("span")
			flagSet.StringVar(&key, "key", "", "dot separated path of dictionary keys, the whole document if empty")
			return flagSet
		},
		Run: func(args []string) error {
			data, err := a.readInput(args)
			if err != nil {
				return err
			}

			s, err := a.start(bencode.WithDecoration())
			if err != nil {
				return err
			}
			defer s.close()

			root, _, err := s.decode(data)
			if err != nil {
				return err
			}

			span, err := bencode.FindSpan(root, splitPath(key)...)
			if err != nil {
				return err
			}

			_, err = fmt.Fprintf(a.stdout, "%d %d\n", span.Start, span.End)
			return err
		},
	}
}

func (a *app) hashCommand() *command {
	var key string
	var algo string

	return &command{
		Name:    "hash",
		Summary: "Print the digest of the original bytes of a nested value",
		Usage:   "bencode hash [flags] <file|->",
		Flags: func() *pflag.FlagSet {
			flagSet := a.flagSet("hash")
			flagSet.StringVar(&key, "key", "info", "dot separated path of dictionary keys, the whole document if empty")
			flagSet.StringVar(&algo, "algo", string(digest.SHA1), "digest algorithm: sha1, sha256 or blake3")
			return flagSet
		},
		Run: func(args []string) error {
			data, err := a.readInput(args)
			if err != nil {
				return err
			}

			algorithm, err := digest.ParseAlgorithm(algo)
			if err != nil {
				return err
			}

			s, err := a.start(bencode.WithDecoration())
			if err != nil {
				return err
			}
			defer s.close()

			root, _, err := s.decode(data)
			if err != nil {
				return err
			}

			sum, err := digest.SumDecoded(algorithm, root, data, splitPath(key)...)
			if err != nil {
				return err
			}

			s.logger.Debug("computed digest",
				zap.String("key", key),
				zap.Stringer("digest", sum),
			)

			_, err = fmt.Fprintln(a.stdout, sum)
			return err
		},
	}
}

func (a *app) encodeCommand() *command {
	var from string

	return &command{
		Name:    "encode",
		Summary: "Encode a JSON (with comments) or YAML document",
		Usage:   "bencode encode [flags] <file|->",
		Flags: func() *pflag.FlagSet {
			flagSet := a.flagSet("encode")
			flagSet.StringVar(&from, "from", "json", "input format: json or yaml")
			return flagSet
		},
		Run: func(args []string) error {
			data, err := a.readInput(args)
			if err != nil {
				return err
			}

			var plain any
			switch strings.ToLower(from) {
			case "json":
				plain, err = parseJSON(data)
			case "yaml":
				plain, err = parseYAML(data)
			default:
				err = fmt.Errorf("unknown input format %q", from)
			}

			if err != nil {
				return err
			}

			value, err := valueOf(plain)
			if err != nil {
				return err
			}

			s, err := a.start()
			if err != nil {
				return err
			}
			defer s.close()

			encoded, err := s.codec.Encode(value)
			if err != nil {
				return fmt.Errorf("encode: %w", err)
			}

			_, err = a.stdout.Write(encoded)
			return err
		},
	}
}

func splitPath(key string) []string {
	if key == "" {
		return nil
	}

	return strings.Split(key, ".")
}
