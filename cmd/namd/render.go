package main

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"namd/internal/host"
	"namd/pkg/types"
)

type renderOptions struct {
	model   string
	preset  string
	in      string
	out     string
	tone    float64
	seconds float64
}

func newRenderCmd(opts *options) *cobra.Command {
	ro := &renderOptions{}
	cmd := &cobra.Command{
		Use:   "render",
		Short: "Process raw mono float32 audio offline through a model",
		Example: "  namd render --model plexi.nam --in di.f32 --out amp.f32\n" +
			"  namd render --preset live.yaml --tone 110 --seconds 2 --out - > tone.f32",
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := runRender(cmd, opts, ro)
			if err != nil {
				return err
			}
			opts.log.Info().Int("samples", n).Msg("render complete")
			return nil
		},
	}
	f := cmd.Flags()
	f.StringVar(&ro.model, "model", "", "Catalog ID or path of the model")
	f.StringVar(&ro.preset, "preset", "", "Preset file to restore instead of --model")
	f.StringVar(&ro.in, "in", "", "Input file of little-endian float32 samples (- for stdin)")
	f.StringVar(&ro.out, "out", "-", "Output file (- for stdout)")
	f.Float64Var(&ro.tone, "tone", 220, "Sine frequency used when --in is empty")
	f.Float64Var(&ro.seconds, "seconds", 1, "Length of the generated tone")
	return cmd
}

func runRender(cmd *cobra.Command, opts *options, ro *renderOptions) (int, error) {
	st, err := opts.buildStack()
	if err != nil {
		return 0, err
	}
	defer st.eng.Close()

	switch {
	case ro.preset != "":
		if _, err := st.mgr.RestoreState(ro.preset); err != nil {
			return 0, err
		}
	case ro.model != "":
		req := types.SetModelRequest{ID: ro.model}
		if _, err := st.mgr.Resolve(req); err != nil {
			req = types.SetModelRequest{Path: ro.model}
		}
		if _, err := st.mgr.SetModel(req); err != nil {
			return 0, err
		}
	}

	var src host.Source
	switch ro.in {
	case "":
		rate := float64(opts.cfg.SampleRate)
		src = &limitSource{
			src:  host.NewSine(ro.tone, 0.25, rate),
			left: int(ro.seconds * rate),
		}
	case "-":
		src = host.NewRawReader(bufio.NewReader(cmd.InOrStdin()), opts.cfg.MaxBlock)
	default:
		f, err := os.Open(ro.in)
		if err != nil {
			return 0, err
		}
		defer f.Close()
		src = host.NewRawReader(bufio.NewReader(f), opts.cfg.MaxBlock)
	}

	var w io.Writer = cmd.OutOrStdout()
	if ro.out != "-" {
		f, err := os.Create(ro.out)
		if err != nil {
			return 0, err
		}
		defer f.Close()
		w = f
	}
	bw := bufio.NewWriter(w)
	n, err := st.eng.Render(cmd.Context(), src, host.NewRawWriter(bw, opts.cfg.MaxBlock))
	if err != nil {
		return n, err
	}
	if err := bw.Flush(); err != nil {
		return n, err
	}
	if (ro.model != "" || ro.preset != "") && st.eng.CurrentPath() == "" {
		return n, loadFailure(ro, st.eng.Status())
	}
	return n, nil
}

// loadFailure explains why the requested model is not active after a render.
func loadFailure(ro *renderOptions, s types.StatusResponse) error {
	what := "model " + ro.model
	if ro.preset != "" {
		what = "model from preset " + ro.preset
	}
	reason := s.LastLoadError
	if reason == "" {
		reason = s.LastError
	}
	if reason == "" {
		return fmt.Errorf("%s did not load", what)
	}
	return fmt.Errorf("%s did not load: %s", what, reason)
}

// limitSource ends src after a fixed number of samples.
type limitSource struct {
	src  host.Source
	left int
}

func (l *limitSource) ReadBlock(buf []float32) (int, error) {
	if l.left <= 0 {
		return 0, io.EOF
	}
	if len(buf) > l.left {
		buf = buf[:l.left]
	}
	n, err := l.src.ReadBlock(buf)
	l.left -= n
	return n, err
}
