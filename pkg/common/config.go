package common

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const DefaultEntryPoint = "Sys.init"
const DefaultMainFunction = "Main.main"

// Symbol table output formats.
const FormatText = "TEXT"
const FormatYAML = "YAML"
const FormatTree = "TREE"
const FormatTable = "TABLE"

// Options is the resolved translation configuration. The YAML keys are the
// ones accepted by a --config file.
type Options struct {
	DirectMode    bool   `yaml:"direct-mode,omitempty"`
	EmitBootstrap bool   `yaml:"emit-bootstrap"`
	EntryPoint    string `yaml:"entry-point,omitempty"`
	MainFunction  string `yaml:"main-function,omitempty"`
	StackBase     int    `yaml:"stack-base,omitempty"`
	SymbolFormat  string `yaml:"symbol-format,omitempty"`
	Verbose       bool   `yaml:"verbose,omitempty"`
}

// DefaultOptions returns the options used when nothing is configured.
func DefaultOptions() *Options {
	return &Options{
		EmitBootstrap: true,
		EntryPoint:    DefaultEntryPoint,
		MainFunction:  DefaultMainFunction,
		StackBase:     StackBase,
		SymbolFormat:  FormatText,
	}
}

// LoadOptionsFile reads a YAML configuration file over the defaults.
func LoadOptionsFile(filename string) (*Options, error) {
	data, err := os.ReadFile(filename) // #nosec G304 - CLI tool reads user-specified config files
	if err != nil {
		return nil, NewConfigurationError("failed to read config file '%s': %v", filename, err)
	}
	return LoadOptionsFromString(string(data))
}

// LoadOptionsFromString parses YAML configuration text over the defaults.
func LoadOptionsFromString(text string) (*Options, error) {
	options := DefaultOptions()
	if err := yaml.Unmarshal([]byte(text), options); err != nil {
		return nil, NewConfigurationError("invalid config: %v", err)
	}
	options.SymbolFormat = strings.ToUpper(options.SymbolFormat)
	if err := options.Validate(); err != nil {
		return nil, err
	}
	return options, nil
}

// Validate checks the option values that the translator depends on.
func (o *Options) Validate() error {
	if o.StackBase < 0 || o.StackBase > MaxConstant {
		return NewConfigurationError("stack-base %d out of range [0..%d]", o.StackBase, MaxConstant)
	}
	if !o.DirectMode {
		if _, _, ok := SplitQualifiedName(o.EntryPoint); !ok {
			return NewConfigurationError("entry-point must be a qualified name such as %s, got '%s'", DefaultEntryPoint, o.EntryPoint)
		}
		if o.MainFunction == "" {
			return NewConfigurationError("main-function must not be empty")
		}
	}
	switch strings.ToUpper(o.SymbolFormat) {
	case "", FormatText, FormatYAML, FormatTree, FormatTable:
	default:
		return NewConfigurationError("unknown symbol-format '%s'", o.SymbolFormat)
	}
	return nil
}

// EntryFile is the source file identifier expected to define the entry point,
// e.g. "Sys" for "Sys.init".
func (o *Options) EntryFile() string {
	class, _, _ := SplitQualifiedName(o.EntryPoint)
	return class
}

// SplitQualifiedName splits "Class.function" at its first dot.
func SplitQualifiedName(name string) (string, string, bool) {
	for i := 0; i < len(name); i++ {
		if name[i] == '.' {
			if i == 0 || i == len(name)-1 {
				return "", "", false
			}
			return name[:i], name[i+1:], true
		}
	}
	return "", "", false
}

func (o *Options) String() string {
	return fmt.Sprintf("direct=%t bootstrap=%t entry=%s main=%s", o.DirectMode, o.EmitBootstrap, o.EntryPoint, o.MainFunction)
}
