package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/spf13/cobra"
	"github.com/tidwall/gjson"
	"github.com/tidwall/sjson"
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/zrkn/eventd/event/luaevent"
	"github.com/zrkn/eventd/internal/decl"
)

// ErrEmitFailed is returned by run when at least one emit failed.
var ErrEmitFailed = errors.New("emits failed")

type runOptions struct {
	file  string
	trace bool
}

func newRunCmd(g *globals) *cobra.Command {
	opts := &runOptions{}
	cmd := &cobra.Command{
		Use:   "run script.lua",
		Short: "Run a Lua script against declared events",
		Long: "Run declares every event of the file, loads the script and emits " +
			"one event per JSON line read from standard input:\n\n" +
			`  {"event": "Saved", "args": {"path": "notes.txt"}}` + "\n\n" +
			"Arguments are checked against the declared parameters. Handler " +
			"failures are reported and the run continues.",
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runScript(cmd, g, opts, args[0])
		},
	}
	cmd.Flags().StringVarP(&opts.file, "file", "f", "", "declaration file (.toml, .yaml)")
	cmd.Flags().BoolVar(&opts.trace, "trace", false, "write one JSON record per emit to standard output")
	_ = cmd.MarkFlagRequired("file")
	return cmd
}

func runScript(cmd *cobra.Command, g *globals, opts *runOptions, script string) error {
	log := g.logger()

	f, err := decl.Load(opts.file)
	if err != nil {
		return err
	}

	bus := luaevent.NewBus(log)
	decls := make(map[string]decl.Declaration, len(f.Events))
	for _, d := range f.Events {
		bus.Declare(d.Options())
		decls[d.Name] = d
	}

	L := lua.NewState()
	defer L.Close()
	mod := luaevent.NewModule(bus, log)
	if err := mod.Register(L); err != nil {
		return err
	}
	defer mod.Close()

	if err := L.DoFile(script); err != nil {
		return fmt.Errorf("load script: %w", err)
	}
	log.Debug("script loaded", zap.String("script", script), zap.Int("subscriptions", mod.Len()))

	r := &runner{bus: bus, decls: decls, log: log}
	if opts.trace {
		r.trace = cmd.OutOrStdout()
	}
	if err := r.consume(cmd.InOrStdin()); err != nil {
		return err
	}
	if r.failed > 0 {
		return fmt.Errorf("%w: %d of %d", ErrEmitFailed, r.failed, r.emitted)
	}
	return nil
}

type runner struct {
	bus   *luaevent.Bus
	decls map[string]decl.Declaration
	log   *zap.Logger
	trace io.Writer

	emitted int
	failed  int
}

// consume emits one event per non-empty input line. Malformed input stops
// the run; handler failures do not.
func (r *runner) consume(in io.Reader) error {
	sc := bufio.NewScanner(in)
	sc.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	line := 0
	for sc.Scan() {
		line++
		text := sc.Text()
		if strings.TrimSpace(text) == "" {
			continue
		}
		if err := r.emitLine(line, text); err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
	}
	return sc.Err()
}

func (r *runner) emitLine(line int, text string) error {
	if !gjson.Valid(text) {
		return errors.New("invalid JSON")
	}
	rec := gjson.Parse(text)
	name := rec.Get("event")
	if name.Type != gjson.String {
		return errors.New(`missing "event" name`)
	}
	d, ok := r.decls[name.String()]
	if !ok {
		return fmt.Errorf("%w: %s", luaevent.ErrUnknownEvent, name.String())
	}

	payload, err := payloadOf(d, rec.Get("args"))
	if err != nil {
		return fmt.Errorf("%s: %w", d.Name, err)
	}

	ev, _ := r.bus.Event(d.Name)
	before := ev.Stats().Deliveries
	emitErr := r.bus.Emit(d.Name, payload)
	handlers := ev.Stats().Deliveries - before

	r.emitted++
	if emitErr != nil {
		r.failed++
		r.log.Error("emit failed", zap.Int("line", line), zap.String("event", d.Name), zap.Error(emitErr))
	}
	if r.trace == nil {
		return nil
	}
	return r.writeTrace(line, d.Name, handlers, emitErr)
}

func (r *runner) writeTrace(line int, name string, handlers uint64, emitErr error) error {
	out, err := sjson.Set("", "line", line)
	if err == nil {
		out, err = sjson.Set(out, "event", name)
	}
	if err == nil {
		out, err = sjson.Set(out, "handlers", handlers)
	}
	if err == nil && emitErr != nil {
		out, err = sjson.Set(out, "error", emitErr.Error())
	}
	if err != nil {
		return fmt.Errorf("trace: %w", err)
	}
	_, err = io.WriteString(r.trace, out+"\n")
	return err
}

// payloadOf checks args against the declared parameters.
func payloadOf(d decl.Declaration, args gjson.Result) (luaevent.Payload, error) {
	if args.Exists() && !args.IsObject() {
		return nil, errors.New(`"args" must be an object`)
	}

	declared := make(map[string]bool, len(d.Params))
	payload := make(luaevent.Payload, len(d.Params))
	for _, p := range d.Params {
		declared[p.Name] = true
		v := args.Get(p.Name)
		if !v.Exists() {
			return nil, fmt.Errorf("missing argument %s", p.Name)
		}
		if err := checkKind(p, v); err != nil {
			return nil, err
		}
		payload[p.Name] = v.Value()
	}

	var extra error
	args.ForEach(func(k, _ gjson.Result) bool {
		if !declared[k.String()] {
			extra = fmt.Errorf("unexpected argument %s", k.String())
			return false
		}
		return true
	})
	if extra != nil {
		return nil, extra
	}
	return payload, nil
}

func checkKind(p decl.Param, v gjson.Result) error {
	ok := true
	switch p.Kind() {
	case decl.KindBool:
		ok = v.IsBool()
	case decl.KindString:
		ok = v.Type == gjson.String
	case decl.KindNumber:
		ok = v.Type == gjson.Number
		if ok && isInteger(p.Type) && v.Num != math.Trunc(v.Num) {
			ok = false
		}
	}
	if !ok {
		return fmt.Errorf("argument %s: %s is not a %s", p.Name, v.Raw, p.Type)
	}
	return nil
}

func isInteger(typ string) bool {
	switch typ {
	case "float32", "float64":
		return false
	default:
		return true
	}
}
