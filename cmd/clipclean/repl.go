package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/chzyer/readline"
	"github.com/fatih/color"
	"github.com/pstuifzand/go-clipclean"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
	"gitlab.com/tozd/go/errors"
)

const replPrompt = "clipclean> "

// errExit ends the REPL loop
var errExit = errors.Base("exit")

// newReplCmd starts an interactive session against a running server
func newReplCmd(opts *rootOpts) *cobra.Command {
	var socket string

	cmd := &cobra.Command{
		Use:   "repl",
		Short: "Interactive session against a running clipclean server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			if socket == "" {
				socket = opts.config.Server.Socket
			}

			session, err := NewREPLSession(ctx, socket)
			if err != nil {
				return err
			}
			return session.Run(ctx)
		},
	}

	cmd.Flags().StringVar(&socket, "socket", "", "socket path (defaults to server.socket from the config)")

	return cmd
}

// REPLCommand represents a parsed command
type REPLCommand struct {
	Verb   string
	Object string
	Args   []string
}

// REPLFormatter handles output formatting
type REPLFormatter struct {
	useColor bool
	out      io.Writer
}

// NewREPLFormatter creates a new formatter
func NewREPLFormatter(useColor bool, out io.Writer) *REPLFormatter {
	return &REPLFormatter{useColor: useColor, out: out}
}

// PrintSuccess prints a success message
func (f *REPLFormatter) PrintSuccess(message string) {
	if f.useColor {
		color.New(color.FgGreen).Fprintf(f.out, "✓ %s\n", message)
	} else {
		fmt.Fprintf(f.out, "✓ %s\n", message)
	}
}

// PrintError prints an error message
func (f *REPLFormatter) PrintError(message string) {
	if f.useColor {
		color.New(color.FgRed).Fprintf(f.out, "✗ Error: %s\n", message)
	} else {
		fmt.Fprintf(f.out, "✗ Error: %s\n", message)
	}
}

// PrintInfo prints an info message
func (f *REPLFormatter) PrintInfo(message string) {
	if f.useColor {
		color.New(color.FgCyan).Fprintf(f.out, "ℹ %s\n", message)
	} else {
		fmt.Fprintf(f.out, "ℹ %s\n", message)
	}
}

// PrintText prints processed text between rulers so whitespace stays visible
func (f *REPLFormatter) PrintText(text string) {
	ruler := strings.Repeat("─", 40)
	if f.useColor {
		ruler = color.New(color.FgHiBlack).Sprint(ruler)
	}
	fmt.Fprintln(f.out, ruler)
	fmt.Fprintln(f.out, text)
	fmt.Fprintln(f.out, ruler)
}

// PrintTable prints rows under a header row
func (f *REPLFormatter) PrintTable(headers []string, rows [][]string) {
	if len(headers) == 0 {
		return
	}
	data := pterm.TableData{headers}
	data = append(data, rows...)
	if err := pterm.DefaultTable.WithHasHeader().WithData(data).WithWriter(f.out).Render(); err != nil {
		f.PrintError(err.Error())
	}
}

// PrintJSON prints formatted JSON
func (f *REPLFormatter) PrintJSON(data interface{}) {
	jsonBytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		f.PrintError("Failed to format JSON: " + err.Error())
		return
	}
	fmt.Fprintln(f.out, string(jsonBytes))
}

// ParseCommand parses a verb-first command string
func ParseCommand(input string) (*REPLCommand, error) {
	input = strings.TrimSpace(input)
	if input == "" {
		return nil, errors.New("empty command")
	}

	// Split by whitespace, but handle quoted strings
	parts := splitArgs(input)
	if len(parts) == 0 {
		return nil, errors.New("empty command")
	}

	cmd := &REPLCommand{
		Verb: strings.ToLower(parts[0]),
	}

	if len(parts) > 1 {
		cmd.Object = parts[1]
		cmd.Args = parts[2:]
	}

	return cmd, nil
}

// splitArgs splits a command string into arguments, respecting quotes
func splitArgs(input string) []string {
	var args []string
	var current strings.Builder
	inQuotes := false
	quoteChar := rune(0)
	escaped := false
	quoted := false

	for _, ch := range input {
		if escaped {
			current.WriteRune(ch)
			escaped = false
			continue
		}

		if ch == '\\' {
			escaped = true
			continue
		}

		if (ch == '"' || ch == '\'') && !inQuotes {
			inQuotes = true
			quoted = true
			quoteChar = ch
			continue
		}

		if ch == quoteChar && inQuotes {
			inQuotes = false
			quoteChar = 0
			continue
		}

		if ch == ' ' && !inQuotes {
			if current.Len() > 0 || quoted {
				args = append(args, current.String())
				current.Reset()
				quoted = false
			}
			continue
		}

		current.WriteRune(ch)
	}

	if current.Len() > 0 || quoted {
		args = append(args, current.String())
	}

	return args
}

// REPLSession manages the REPL interactive session. It keeps an input text
// that commands without text arguments work on, and the last output.
type REPLSession struct {
	processor clipclean.TextProcessor
	closer    io.Closer
	formatter *REPLFormatter
	rl        *readline.Instance
	input     string
	output    string
	history   []string
}

// NewREPLSession connects to the server at socketPath
func NewREPLSession(ctx context.Context, socketPath string) (*REPLSession, error) {
	client, err := clipclean.NewSocketClient(ctx, socketPath)
	if err != nil {
		return nil, err
	}

	session := newREPLSession(client, NewREPLFormatter(true, os.Stdout))
	session.closer = client
	return session, nil
}

func newREPLSession(processor clipclean.TextProcessor, formatter *REPLFormatter) *REPLSession {
	return &REPLSession{
		processor: processor,
		formatter: formatter,
		history:   make([]string, 0),
	}
}

// Run starts the interactive REPL loop
func (rs *REPLSession) Run(ctx context.Context) error {
	rl, err := readline.New(replPrompt)
	if err != nil {
		return err
	}
	defer rl.Close()
	rs.rl = rl

	color.Cyan("clipclean REPL\n")
	color.Cyan("Type 'help' for available commands\n\n")

	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		} else if errors.Is(err, io.EOF) {
			fmt.Println()
			break
		} else if err != nil {
			rs.formatter.PrintError(err.Error())
			continue
		}

		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		rs.history = append(rs.history, line)

		cmd, err := ParseCommand(line)
		if err != nil {
			rs.formatter.PrintError(err.Error())
			continue
		}

		if err := rs.Execute(ctx, cmd); err != nil {
			if errors.Is(err, errExit) {
				break
			}
			rs.formatter.PrintError(err.Error())
		}
	}

	rs.formatter.PrintInfo("Goodbye!")
	if rs.closer != nil {
		return rs.closer.Close()
	}
	return nil
}

// Execute runs one REPL command. Failures reported by the server are printed,
// not returned; only errExit and local failures end up as errors.
func (rs *REPLSession) Execute(ctx context.Context, cmd *REPLCommand) error {
	switch cmd.Verb {
	// Text processing
	case "process":
		return rs.handleProcess(ctx, cmd)
	case "run":
		return rs.handleRun(ctx, cmd)
	case "set":
		return rs.handleSet(cmd)
	case "get":
		return rs.handleGet(ctx, cmd)
	case "keep":
		rs.input = rs.output
		rs.formatter.PrintSuccess("Output is now the input")
		return nil
	case "links":
		return rs.handleLinks(ctx, cmd)

	// Catalog and presets
	case "list":
		return rs.handleList(ctx, cmd)
	case "show":
		return rs.handleShow(ctx, cmd)
	case "clone":
		return rs.handleClone(ctx, cmd)
	case "delete":
		return rs.handleDelete(ctx, cmd)

	// Utility commands
	case "help":
		return rs.handleHelp(cmd)
	case "quit", "exit":
		return errExit
	case "clear":
		fmt.Fprint(rs.formatter.out, "\033[2J\033[H")
		return nil

	default:
		rs.formatter.PrintError(fmt.Sprintf("Unknown command: %s", cmd.Verb))
		rs.formatter.PrintInfo("Type 'help' for available commands")
		return nil
	}
}

// textArg returns the text given after the command object, or the session input
func (rs *REPLSession) textArg(cmd *REPLCommand) string {
	if len(cmd.Args) > 0 {
		return strings.Join(cmd.Args, " ")
	}
	return rs.input
}

func (rs *REPLSession) handleProcess(ctx context.Context, cmd *REPLCommand) error {
	if cmd.Object == "" {
		rs.formatter.PrintError("process requires a mode")
		return nil
	}

	mode, known := clipclean.ParseMode(cmd.Object)
	if !known {
		rs.formatter.PrintInfo(fmt.Sprintf("Unknown mode %q, text is passed through unchanged", cmd.Object))
	}

	output, err := rs.processor.Process(ctx, rs.textArg(cmd), mode, nil)
	if err != nil {
		rs.formatter.PrintError(err.Error())
		return nil
	}
	rs.output = output
	rs.formatter.PrintText(output)
	return nil
}

func (rs *REPLSession) handleRun(ctx context.Context, cmd *REPLCommand) error {
	if cmd.Object == "" {
		rs.formatter.PrintError("run requires a preset name or id")
		return nil
	}

	output, err := rs.processor.ExecutePreset(ctx, cmd.Object, rs.textArg(cmd))
	if err != nil {
		rs.formatter.PrintError(err.Error())
		return nil
	}
	rs.output = output
	rs.formatter.PrintText(output)
	return nil
}

func (rs *REPLSession) handleSet(cmd *REPLCommand) error {
	if strings.ToLower(cmd.Object) != "input" {
		rs.formatter.PrintError("set requires 'input' argument")
		return nil
	}

	if len(cmd.Args) > 0 {
		rs.input = processEscapeSequences(strings.Join(cmd.Args, " "))
	} else {
		rs.formatter.PrintInfo("Enter text (end with blank line):")
		rs.input = rs.readMultiline()
	}
	rs.formatter.PrintSuccess("Input text set")
	return nil
}

// readMultiline reads lines until a blank line or EOF
func (rs *REPLSession) readMultiline() string {
	if rs.rl == nil {
		return ""
	}

	var lines []string
	rs.rl.SetPrompt("")
	defer rs.rl.SetPrompt(replPrompt)
	for {
		line, err := rs.rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			continue
		} else if err != nil {
			break
		}

		if strings.TrimSpace(line) == "" {
			break
		}
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n")
}

func (rs *REPLSession) handleGet(ctx context.Context, cmd *REPLCommand) error {
	switch strings.ToLower(cmd.Object) {
	case "input":
		rs.formatter.PrintText(rs.input)
	case "output":
		rs.formatter.PrintText(rs.output)
	case "count":
		count, err := rs.processor.CountCharacters(ctx, rs.textArg(cmd))
		if err != nil {
			rs.formatter.PrintError(err.Error())
			return nil
		}
		rs.formatter.PrintInfo(fmt.Sprintf("%d characters", count))
	default:
		rs.formatter.PrintError("get requires 'input', 'output' or 'count'")
	}
	return nil
}

func (rs *REPLSession) handleLinks(ctx context.Context, cmd *REPLCommand) error {
	html := rs.input
	if cmd.Object != "" {
		html = strings.Join(append([]string{cmd.Object}, cmd.Args...), " ")
	}

	links, err := rs.processor.ExtractLinks(ctx, html)
	if err != nil {
		rs.formatter.PrintError(err.Error())
		return nil
	}
	if len(links) == 0 {
		rs.formatter.PrintInfo("No links")
		return nil
	}

	rows := make([][]string, len(links))
	for i, link := range links {
		rows[i] = []string{link.Text, link.Href}
	}
	rs.formatter.PrintTable([]string{"Text", "Href"}, rows)
	return nil
}

func (rs *REPLSession) handleList(ctx context.Context, cmd *REPLCommand) error {
	switch strings.ToLower(cmd.Object) {
	case "modes":
		modes, err := rs.processor.ListModes(ctx)
		if err != nil {
			rs.formatter.PrintError(err.Error())
			return nil
		}
		rows := make([][]string, len(modes))
		for i, m := range modes {
			rows[i] = []string{string(m.Mode), m.Name}
		}
		rs.formatter.PrintTable([]string{"Mode", "Name"}, rows)

	case "presets":
		presets, err := rs.processor.ListPresets(ctx)
		if err != nil {
			rs.formatter.PrintError(err.Error())
			return nil
		}
		rows := make([][]string, len(presets))
		for i, p := range presets {
			builtin := ""
			if p.IsBuiltIn {
				builtin = "yes"
			}
			rows[i] = []string{p.ID.String(), p.Name, builtin, fmt.Sprintf("%d", len(p.EnabledSteps()))}
		}
		rs.formatter.PrintTable([]string{"ID", "Name", "Built-in", "Steps"}, rows)

	default:
		rs.formatter.PrintError("list requires 'modes' or 'presets'")
	}
	return nil
}

func (rs *REPLSession) handleShow(ctx context.Context, cmd *REPLCommand) error {
	if strings.ToLower(cmd.Object) != "preset" || len(cmd.Args) == 0 {
		rs.formatter.PrintError("show requires 'preset <name or id>'")
		return nil
	}

	preset, err := rs.processor.GetPreset(ctx, strings.Join(cmd.Args, " "))
	if err != nil {
		rs.formatter.PrintError(err.Error())
		return nil
	}
	rs.formatter.PrintJSON(preset)
	return nil
}

func (rs *REPLSession) handleClone(ctx context.Context, cmd *REPLCommand) error {
	if strings.ToLower(cmd.Object) != "preset" || len(cmd.Args) == 0 {
		rs.formatter.PrintError("clone requires 'preset <name or id>'")
		return nil
	}

	clone, err := rs.processor.ClonePreset(ctx, strings.Join(cmd.Args, " "))
	if err != nil {
		rs.formatter.PrintError(err.Error())
		return nil
	}
	rs.formatter.PrintSuccess(fmt.Sprintf("Created %q (%s)", clone.Name, clone.ID))
	return nil
}

func (rs *REPLSession) handleDelete(ctx context.Context, cmd *REPLCommand) error {
	if strings.ToLower(cmd.Object) != "preset" || len(cmd.Args) == 0 {
		rs.formatter.PrintError("delete requires 'preset <name or id>'")
		return nil
	}

	ref := strings.Join(cmd.Args, " ")
	if err := rs.processor.DeletePreset(ctx, ref); err != nil {
		rs.formatter.PrintError(err.Error())
		return nil
	}
	rs.formatter.PrintSuccess("Deleted " + ref)
	return nil
}

func (rs *REPLSession) handleHelp(cmd *REPLCommand) error {
	if cmd.Object != "" {
		showSpecificHelp(rs.formatter.out, strings.ToLower(cmd.Object))
	} else {
		fmt.Fprint(rs.formatter.out, mainHelp)
	}
	return nil
}

const mainHelp = `
clipclean REPL - Available Commands
===================================

TEXT PROCESSING:
  set input <text>            Set the input text
  set input                   Enter multiline input mode
  process <mode> [text]       Apply a mode to the text or the input
  run <preset> [text]         Run a preset on the text or the input
  keep                        Use the last output as the input
  get input|output            Show the input or the last output
  get count [text]            Count characters (UTF-16 code units)
  links [html]                List the links of HTML text or the input

CATALOG AND PRESETS:
  list modes                  List the processing modes
  list presets                List built-in and user presets
  show preset <ref>           Show a preset as JSON
  clone preset <ref>          Store an editable copy of a preset
  delete preset <ref>         Delete a user preset

UTILITIES:
  help [command]              Show this help or help for a command
  clear                       Clear the screen
  quit, exit                  Exit the REPL

EXAMPLES:
  > set input   Hello,   World!
  > process NormalizeWhitespace
  > keep
  > process ToUpper
  > run "Clean text"
`

var specificHelp = map[string]string{
	"process": `
process <mode> [text]
  Applies one mode with the server's default options. Without text the
  session input is used. Mode names ignore case.

  Examples:
    process Trim "  padded  "
    process RemoveDiacritics
`,
	"run": `
run <preset> [text]
  Runs a preset by name or id. Quote names containing spaces.

  Example:
    run "Single line"
`,
	"set": `
set input <text>
  Sets the input text used by commands given without text.

  Examples:
    set input hello world
    set input "two\\nlines"
    set input
      (then enter multiline text)
`,
	"get": `
get input       Show the session input
get output      Show the last output
get count       Count the characters of the input
`,
	"list": `
list modes      List the processing modes
list presets    List all presets
`,
}

func showSpecificHelp(out io.Writer, command string) {
	if help, ok := specificHelp[command]; ok {
		fmt.Fprintln(out, help)
	} else {
		fmt.Fprintf(out, "No help available for '%s'\n", command)
		fmt.Fprintln(out, "Type 'help' for a list of all commands")
	}
}
