package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"namd/internal/host"
	"namd/pkg/types"
)

const consolePrompt = "\033[32mnamd>\033[0m "

// consoleTarget is the subset of the manager the console drives.
type consoleTarget interface {
	ListModels() []types.Model
	Rescan() error
	Status() types.StatusResponse
	Model() types.ModelResponse
	SetModel(req types.SetModelRequest) (types.ModelResponse, error)
	RequestPath() error
	SetGain(req types.GainRequest)
	SaveState(file string) (string, error)
	RestoreState(file string) (string, error)
}

var errQuit = errors.New("quit")

func newConsoleCmd(opts *options) *cobra.Command {
	var headless bool
	cmd := &cobra.Command{
		Use:   "console",
		Short: "Run the engine with an interactive prompt",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConsole(cmd.Context(), opts, headless)
		},
	}
	cmd.Flags().BoolVar(&headless, "headless", envBool("NAMD_HEADLESS", false), "Do not open an audio device")
	return cmd
}

func runConsole(ctx context.Context, opts *options, headless bool) error {
	st, err := opts.buildStack()
	if err != nil {
		return err
	}
	defer st.eng.Close()

	var dst host.Sink = host.Discard{}
	if !headless {
		if dev, err := host.NewDeviceSink(opts.cfg.SampleRate, opts.cfg.BlockSize); err == nil {
			defer dev.Close()
			dst = dev
		} else {
			opts.log.Warn().Err(err).Msg("audio device unavailable; discarding output")
		}
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	if err := st.eng.Start(ctx, host.Silence{}, dst); err != nil {
		return err
	}
	st.restoreOrDefault(opts)

	l, err := readline.NewEx(&readline.Config{
		Prompt:            consolePrompt,
		HistoryFile:       filepath.Join(opts.cfg.StateDir, ".namd-history"),
		AutoComplete:      consoleCompleter(st.mgr),
		InterruptPrompt:   "^C",
		EOFPrompt:         "quit",
		HistorySearchFold: true,
	})
	if err != nil {
		return err
	}
	defer l.Close()
	l.CaptureExitSignal()

	// Notifications are printed above the prompt as they arrive.
	notes, unsubscribe := st.mgr.Subscribe(0)
	defer unsubscribe()
	go func() {
		for n := range notes {
			fmt.Fprintln(l.Stdout(), formatNote(n))
		}
	}()

	for {
		line, err := l.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			if line == "" {
				return nil
			}
			continue
		}
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			return err
		}
		if err := execConsole(st.mgr, l.Stdout(), line); err != nil {
			if errors.Is(err, errQuit) {
				return nil
			}
			fmt.Fprintln(l.Stderr(), "error:", err)
		}
	}
}

func consoleCompleter(t consoleTarget) *readline.PrefixCompleter {
	ids := func(string) []string {
		var out []string
		for _, m := range t.ListModels() {
			out = append(out, m.ID)
		}
		return out
	}
	return readline.NewPrefixCompleter(
		readline.PcItem("models"),
		readline.PcItem("rescan"),
		readline.PcItem("set", readline.PcItemDynamic(ids)),
		readline.PcItem("get"),
		readline.PcItem("status"),
		readline.PcItem("gain"),
		readline.PcItem("save"),
		readline.PcItem("restore"),
		readline.PcItem("help"),
		readline.PcItem("quit"),
	)
}

const consoleHelp = `commands:
  models                 list catalog models
  rescan                 rescan the models directory
  set <id|path>          request a model swap
  get                    ask the plugin to announce its model
  status                 show engine status
  gain <in_db> [out_db]  set input and output gain
  save [file]            save a preset
  restore [file]         restore a preset
  quit`

// execConsole runs one console line against t. It returns errQuit on quit.
func execConsole(t consoleTarget, w io.Writer, line string) error {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return nil
	}
	arg := strings.TrimSpace(strings.TrimPrefix(strings.TrimSpace(line), fields[0]))
	switch fields[0] {
	case "quit", "exit":
		return errQuit
	case "help", "?":
		fmt.Fprintln(w, consoleHelp)
	case "models":
		for _, m := range t.ListModels() {
			fmt.Fprintf(w, "%-32s %8s  %s\n", m.ID, m.Size, m.Name)
		}
	case "rescan":
		if err := t.Rescan(); err != nil {
			return err
		}
		fmt.Fprintf(w, "%d models\n", len(t.ListModels()))
	case "set":
		if arg == "" {
			return errors.New("usage: set <id|path>")
		}
		req := types.SetModelRequest{Path: arg}
		for _, m := range t.ListModels() {
			if m.ID == arg {
				req = types.SetModelRequest{ID: arg}
				break
			}
		}
		resp, err := t.SetModel(req)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "requested %s (%s)\n", resp.Path, resp.SwapState)
	case "get":
		if err := t.RequestPath(); err != nil {
			return err
		}
		m := t.Model()
		fmt.Fprintf(w, "model: %s (%s)\n", orNone(m.Path), m.SwapState)
	case "status":
		s := t.Status()
		fmt.Fprintf(w, "state=%s swap=%s model=%s rate=%.0f block=%d in=%.1fdB out=%.1fdB blocks=%d overruns=%d\n",
			s.State, s.SwapState, orNone(s.ModelPath), s.SampleRate, s.BlockSize, s.InputDB, s.OutputDB, s.Blocks, s.Overruns)
		if s.LastError != "" {
			fmt.Fprintln(w, "last error:", s.LastError)
		}
		if s.LastLoadError != "" {
			fmt.Fprintln(w, "last load error:", s.LastLoadError)
		}
	case "gain":
		if len(fields) < 2 || len(fields) > 3 {
			return errors.New("usage: gain <in_db> [out_db]")
		}
		var req types.GainRequest
		in, err := strconv.ParseFloat(fields[1], 32)
		if err != nil {
			return fmt.Errorf("input gain: %w", err)
		}
		inDB := float32(in)
		req.InputDB = &inDB
		if len(fields) == 3 {
			out, err := strconv.ParseFloat(fields[2], 32)
			if err != nil {
				return fmt.Errorf("output gain: %w", err)
			}
			outDB := float32(out)
			req.OutputDB = &outDB
		}
		t.SetGain(req)
	case "save":
		file, err := t.SaveState(arg)
		if err != nil {
			return err
		}
		fmt.Fprintln(w, "saved", file)
	case "restore":
		file, err := t.RestoreState(arg)
		if err != nil {
			return err
		}
		fmt.Fprintln(w, "restored", file)
	default:
		return fmt.Errorf("unknown command %q (try help)", fields[0])
	}
	return nil
}

func formatNote(n types.Notification) string {
	if n.Kind == types.NotifyModel {
		return fmt.Sprintf("[block %d] model %s", n.Block, orNone(n.Path))
	}
	return fmt.Sprintf("[block %d] %s", n.Block, n.Kind)
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}
