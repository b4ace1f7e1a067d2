package main

import (
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"wisp/internal/ast"
	"wisp/internal/builtins"
	"wisp/internal/evaluator"
	"wisp/internal/gc"
	"wisp/internal/lexer"
	"wisp/internal/object"
	"wisp/internal/parser"
	"wisp/internal/repl"
	"wisp/internal/util"
)

const (
	DefaultConfigFile = "wisp.toml"
)

var (
	// Version is the current version of the wisp binary, set at build time.
	Version   = "dev"
	BuildDate = "unknown"
	Commit    = "unknown"
	help      bool
	version   bool
	// logging
	logLevel string
	logFile  string
	// config vars
	configFile string
	gcMode     string
	debugAST   bool
	softErrors bool
)

func init() {
	flag.BoolVar(&help, "help", false, "Display help information and exit")
	flag.BoolVar(&help, "h", false, "Display help information and exit")
	flag.BoolVar(&version, "version", false, "Display version information and exit")
	flag.BoolVar(&version, "v", false, "Display version information and exit")
	// evaluator config
	flag.StringVar(&configFile, "config", "", "Path to a TOML configuration file (default $WISP_HOME/wisp.toml)")
	flag.StringVar(&gcMode, "gc", "", "Collector mode: off, automatic, repl, interpret")
	flag.BoolVar(&softErrors, "soft-errors", false, "Report non-callable call heads as error values instead of aborting")
	// parser config
	flag.BoolVar(&debugAST, "debug-ast", false, "Render the AST as a JSON file")
	// log config
	flag.StringVar(&logLevel, "log-level", "NONE", "Log level: trace, debug, info, warn, error, none")
	flag.StringVar(&logFile, "log-file", "", "Log file path (if not set, logs to stderr)")
}

func main() {
	os.Exit(run())
}

func run() int {
	flag.Parse()

	// Creates a new Logger that uses a JSONHandler to write to standard error
	loggerOptions := &slog.HandlerOptions{
		AddSource: false,
		Level:     logLevelFromString(logLevel),
	}
	logWriter := configureLogWriter()
	defaultLogger := slog.New(slog.NewJSONHandler(logWriter, loggerOptions))
	slog.SetDefault(defaultLogger)

	if version {
		printVersion()
		return 0
	}

	if help {
		printHelp()
		return 0
	}

	config, err := loadConfiguration()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	fileName := flag.Arg(0)
	mode, err := collectorMode(config, fileName)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	env := object.NewEnvironmentWithCapacity(nil, config.EnvCapacity)
	registry := builtins.NewRegistry()
	defer func() {
		if err := registry.CloseAll(); err != nil {
			slog.Warn("failed to close database handles", slog.Any("error", err))
		}
	}()
	if err := builtins.Register(env, builtins.Options{Out: os.Stdout, DB: registry}); err != nil {
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	ev := evaluator.New(evaluator.Config{
		SoftErrors:         config.SoftErrors,
		SharedClosureScope: config.SharedClosureScope,
		MaxDepth:           config.MaxDepth,
		CallEnvCapacity:    config.CallEnvCapacity,
	})
	collector := gc.New(mode)

	slog.Info("wisp starting",
		slog.String("version", Version),
		slog.String("gc", mode.String()),
		slog.String("file", fileName))

	if fileName == "" {
		session := repl.NewSession(ev, env, collector, os.Stdout)
		if err := session.Start(os.Stdin, repl.Options{
			Prompt:      config.Prompt,
			HistoryFile: historyPath(config),
		}); err != nil {
			fmt.Fprintln(os.Stderr, err)
			return 1
		}
		return 0
	}

	return runFile(fileName, config, ev, env, collector)
}

// runFile evaluates a whole source file. Parse errors and fatal evaluation
// errors end the run with status 1.
func runFile(path string, config util.Configuration, ev *evaluator.Evaluator, env *object.Environment, c *gc.Collector) int {
	source, err := os.ReadFile(path)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to read %s: %v\n", path, err)
		return 1
	}

	p := parser.New(lexer.New(string(source)))
	program := p.ParseProgram()
	if len(p.Errors()) > 0 {
		fmt.Fprintf(os.Stderr, "parse errors in %s:\n", path)
		for _, msg := range p.Errors() {
			fmt.Fprintf(os.Stderr, "\t%s\n", msg)
		}
		fmt.Fprintln(os.Stderr, p.ErrorContext())
		return 1
	}

	if config.DebugAST {
		writeDebugAST(path, program)
	}

	if _, err := ev.Eval(program, env, c); err != nil {
		var fatal *evaluator.FatalError
		if errors.As(err, &fatal) {
			slog.Error("evaluation aborted", slog.String("file", path), slog.Any("error", err))
		}
		fmt.Fprintln(os.Stderr, err)
		return 1
	}

	st := c.Stats()
	slog.Debug("run complete",
		slog.Int("live", st.Live),
		slog.Int("reclaimed", st.Reclaimed),
		slog.Int("sweeps", st.Sweeps))
	return 0
}

func writeDebugAST(path string, program *ast.Program) {
	json, err := parser.RenderASTAsJSON(program)
	if err != nil {
		slog.Error("Failed to render AST as JSON",
			slog.Any("error", err))
		return
	}
	jsonPath := path + ".ast.json"
	if err := os.WriteFile(jsonPath, []byte(json), 0644); err != nil {
		slog.Error("Failed to write AST as JSON",
			slog.String("path", jsonPath),
			slog.Any("error", err))
	}
}

// loadConfiguration merges defaults, the TOML file and command line flags,
// in that order of precedence from lowest to highest.
func loadConfiguration() (util.Configuration, error) {
	config := util.DefaultConfiguration()
	config.Version = Version
	config.BuildDate = BuildDate
	config.Commit = Commit
	config.WispHome = os.Getenv("WISP_HOME")

	path := configFile
	optional := path == ""
	if optional {
		path = filepath.Join(config.WispHome, DefaultConfigFile)
	}
	if err := util.LoadConfigFile(path, &config, optional); err != nil {
		return config, err
	}

	if gcMode != "" {
		config.GcMode = gcMode
	}
	if softErrors {
		config.SoftErrors = true
	}
	config.DebugAST = debugAST
	return config, nil
}

// collectorMode honours an explicit mode and otherwise picks interpret for
// files and repl for interactive sessions.
func collectorMode(config util.Configuration, fileName string) (gc.Mode, error) {
	if config.GcMode != "" {
		return gc.ParseMode(config.GcMode)
	}
	if fileName != "" {
		return gc.Interpret, nil
	}
	return gc.Repl, nil
}

func historyPath(config util.Configuration) string {
	path := config.HistoryFile
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	if config.WispHome != "" {
		return filepath.Join(config.WispHome, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}

func configureLogWriter() *os.File {
	var logWriter *os.File
	var err error
	if logFile != "" {
		// Create parent directories if they don't exist
		if err := os.MkdirAll(filepath.Dir(logFile), 0o755); err != nil {
			fmt.Fprintf(os.Stderr, "failed to create log directory for '%s': %v; falling back to stderr\n", logFile, err)
			return os.Stderr
		}
		logWriter, err = os.OpenFile(logFile, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to open log file '%s': %v; falling back to stderr\n", logFile, err)
			logWriter = os.Stderr
		}
	} else {
		logWriter = os.Stderr
	}
	return logWriter
}

func printVersion() {
	fmt.Printf("wisp version 'v%s' %s %s\n", Version, BuildDate, Commit)
}

func printHelp() {
	fmt.Printf(`Usage: wisp [options] [filename]

Options:
  -config <path>     Load settings from a TOML file. Default is $WISP_HOME/wisp.toml if present.
  -gc <mode>         Collector mode: off, automatic, repl, interpret.
  -soft-errors       Turn non-callable call heads into error values.
  -debug-ast         Render the AST as a JSON file next to the source.
  -help              Display this help information and exit.
  -version           Display version information and exit.
  -log-level <level> Set the log level: trace, debug, info, warn, error, none. Default is 'none'.
  -log-file <path>   Specify a log file to write logs. Default is stderr.

Details:
Without a filename wisp starts an interactive session (type :quit to leave,
:gc to inspect the collector). With a filename the file is evaluated and the
collector sweeps after every top-level form.

Examples:
  wisp                          Start an interactive session
  wisp -log-level=debug         Start with debug logging enabled
  wisp fact.wisp                Evaluate the provided file

Version Information:
  Version:    %s
  Build Date: %s
  Commit:     %s
`, Version, BuildDate, Commit)
}

func logLevelFromString(level string) slog.Level {
	switch strings.ToLower(level) {
	case "trace":
		return slog.LevelDebug - 4
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	case "none":
		return slog.LevelError + 4
	default:
		return slog.LevelError
	}
}
