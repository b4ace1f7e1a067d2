package util

import (
	"errors"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

const (
	DefaultPrompt      = "Wisp> "
	DefaultHistoryFile = ".wisp_history"
	DefaultMaxDepth    = 10000
	DefaultEnvCapacity = 512
	// DefaultCallEnvCapacity sizes the scope created for each closure call.
	DefaultCallEnvCapacity = 64
)

type Configuration struct {
	Version   string
	BuildDate string
	Commit    string
	WispHome  string
	DebugAST  bool

	// GcMode overrides the collector mode chosen by the front end when set
	// (off, automatic, repl, interpret).
	GcMode             string
	EnvCapacity        int
	CallEnvCapacity    int
	MaxDepth           int
	SoftErrors         bool
	SharedClosureScope bool

	HistoryFile string
	Prompt      string
}

// fileConfig mirrors the keys accepted in a wisp.toml file.
type fileConfig struct {
	GcMode             *string `toml:"gc_mode"`
	EnvCapacity        *int    `toml:"env_capacity"`
	CallEnvCapacity    *int    `toml:"call_env_capacity"`
	MaxDepth           *int    `toml:"max_depth"`
	SoftErrors         *bool   `toml:"soft_errors"`
	SharedClosureScope *bool   `toml:"shared_closure_scope"`
	HistoryFile        *string `toml:"history_file"`
	Prompt             *string `toml:"prompt"`
}

func DefaultConfiguration() Configuration {
	return Configuration{
		EnvCapacity:     DefaultEnvCapacity,
		CallEnvCapacity: DefaultCallEnvCapacity,
		MaxDepth:        DefaultMaxDepth,
		HistoryFile:     DefaultHistoryFile,
		Prompt:          DefaultPrompt,
	}
}

// LoadConfigFile overlays the keys present in the TOML file at path onto cfg.
// A missing file is not an error when optional is set.
func LoadConfigFile(path string, cfg *Configuration, optional bool) error {
	var fc fileConfig
	md, err := toml.DecodeFile(path, &fc)
	if err != nil {
		if optional && errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load config %s: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return fmt.Errorf("unknown config key %q in %s", undecoded[0].String(), path)
	}

	if fc.GcMode != nil {
		cfg.GcMode = *fc.GcMode
	}
	if fc.EnvCapacity != nil {
		if *fc.EnvCapacity <= 0 {
			return fmt.Errorf("env_capacity must be positive, got %d", *fc.EnvCapacity)
		}
		cfg.EnvCapacity = *fc.EnvCapacity
	}
	if fc.CallEnvCapacity != nil {
		if *fc.CallEnvCapacity <= 0 {
			return fmt.Errorf("call_env_capacity must be positive, got %d", *fc.CallEnvCapacity)
		}
		cfg.CallEnvCapacity = *fc.CallEnvCapacity
	}
	if fc.MaxDepth != nil {
		cfg.MaxDepth = *fc.MaxDepth
	}
	if fc.SoftErrors != nil {
		cfg.SoftErrors = *fc.SoftErrors
	}
	if fc.SharedClosureScope != nil {
		cfg.SharedClosureScope = *fc.SharedClosureScope
	}
	if fc.HistoryFile != nil {
		cfg.HistoryFile = *fc.HistoryFile
	}
	if fc.Prompt != nil {
		cfg.Prompt = *fc.Prompt
	}
	return nil
}
