package repl

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"wisp/internal/evaluator"
	"wisp/internal/gc"
	"wisp/internal/object"
	"wisp/internal/parser"

	"github.com/peterh/liner"
	"golang.org/x/term"
)

const (
	PROMPT              = "Wisp> "
	CONTINUATION_PROMPT = "  ... "
)

type Options struct {
	Prompt      string
	HistoryFile string
}

// Session evaluates interactive input against one persistent environment
// and collector.
type Session struct {
	ev  *evaluator.Evaluator
	env *object.Environment
	gc  *gc.Collector
	out io.Writer
}

func NewSession(ev *evaluator.Evaluator, env *object.Environment, c *gc.Collector, out io.Writer) *Session {
	return &Session{ev: ev, env: env, gc: c, out: out}
}

// lineReader is satisfied by *liner.State and by the plain reader used when
// input is not a terminal.
type lineReader interface {
	Prompt(prompt string) (string, error)
}

// maxLineSize bounds a single line read from non-terminal input.
const maxLineSize = 16 * 1024 * 1024

// plainReader reads piped input line by line. It never prints prompts.
type plainReader struct {
	scanner *bufio.Scanner
}

func newPlainReader(in io.Reader) *plainReader {
	scanner := bufio.NewScanner(in)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)
	return &plainReader{scanner: scanner}
}

func (p *plainReader) Prompt(string) (string, error) {
	if !p.scanner.Scan() {
		if err := p.scanner.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return p.scanner.Text(), nil
}

func isTerminal(in io.Reader) bool {
	f, ok := in.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Start runs the read-eval-print loop until input ends or :quit is entered.
// Line editing and history are used when in is a terminal.
func (s *Session) Start(in io.Reader, opts Options) error {
	prompt := opts.Prompt
	if prompt == "" {
		prompt = PROMPT
	}

	var reader lineReader
	if isTerminal(in) {
		ln := liner.NewLiner()
		defer ln.Close()
		ln.SetCtrlCAborts(true)

		if opts.HistoryFile != "" {
			if f, err := os.Open(opts.HistoryFile); err == nil {
				_, _ = ln.ReadHistory(f)
				_ = f.Close()
			}
			defer func() {
				if f, err := os.Create(opts.HistoryFile); err == nil {
					_, _ = ln.WriteHistory(f)
					_ = f.Close()
				}
			}()
		}
		reader = &historyReader{State: ln}
	} else {
		reader = newPlainReader(in)
	}

	for {
		code, err := readForm(reader, prompt, CONTINUATION_PROMPT)
		if errors.Is(err, io.EOF) {
			fmt.Fprintln(s.out)
			return nil
		}
		if err != nil {
			return fmt.Errorf("reading input: %w", err)
		}

		trimmed := strings.TrimSpace(code)
		if trimmed == "" {
			continue
		}
		if strings.HasPrefix(trimmed, ":") {
			if s.command(trimmed) {
				return nil
			}
			continue
		}

		if hr, ok := reader.(*historyReader); ok {
			hr.AppendHistory(strings.ReplaceAll(code, "\n", " "))
		}

		result, err := s.Eval(code)
		if err != nil {
			fmt.Fprintln(s.out, err.Error())
			continue
		}
		io.WriteString(s.out, result.Inspect())
		io.WriteString(s.out, "\n")
	}
}

type historyReader struct {
	*liner.State
}

// command handles a colon command and reports whether the loop should stop.
func (s *Session) command(cmd string) bool {
	switch strings.ToLower(cmd) {
	case ":quit", ":q":
		return true
	case ":gc":
		st := s.gc.Stats()
		fmt.Fprintf(s.out, "%s %s tracked=%d live=%d reclaimed=%d sweeps=%d\n",
			s.gc.Mode(), s.gc.Inspect(), st.Tracked, st.Live, st.Reclaimed, st.Sweeps)
	default:
		fmt.Fprintln(s.out, "unknown command. Type :quit to exit or :gc to inspect the collector.")
	}
	return false
}

// Eval parses and evaluates one complete chunk of input, sweeping first when
// the collector mode asks for it.
func (s *Session) Eval(code string) (object.Object, error) {
	if s.gc.Mode().SweepsBeforeLine() {
		s.gc.Collect(s.env)
	}

	p := parser.New(lexerFor(code))
	program := p.ParseProgram()
	if len(p.Errors()) != 0 {
		return nil, parseError(p)
	}

	slog.Debug("repl eval", slog.String("code", code))
	result, err := s.ev.Eval(program, s.env, s.gc)
	if err != nil {
		var fatal *evaluator.FatalError
		if errors.As(err, &fatal) {
			slog.Warn("evaluation aborted", slog.Any("error", err))
		}
		return nil, err
	}
	return result, nil
}

// readForm keeps reading lines while the buffered input ends inside
// an open form. It returns io.EOF once input is exhausted. An aborted prompt
// discards the buffer and yields empty input.
func readForm(r lineReader, prompt, cont string) (string, error) {
	var b strings.Builder

	for {
		var line string
		var err error
		if b.Len() == 0 {
			line, err = r.Prompt(prompt)
		} else {
			line, err = r.Prompt(cont)
		}
		if errors.Is(err, io.EOF) {
			if b.Len() > 0 {
				return b.String(), nil
			}
			return "", io.EOF
		}
		if errors.Is(err, liner.ErrPromptAborted) {
			return "", nil
		}
		if err != nil {
			return "", err
		}

		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)

		src := b.String()
		p := parser.New(lexerFor(src))
		p.ParseProgram()
		if p.Incomplete() {
			continue
		}
		return src, nil
	}
}
