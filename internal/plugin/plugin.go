package plugin

import (
	"sync/atomic"

	"github.com/rs/zerolog"

	"namd/internal/atom"
	"namd/internal/dsp"
	"namd/internal/gain"
	"namd/internal/pathbuf"
	"namd/internal/urid"
)

// DefaultMaxBlockLength is used when the host does not announce a maximum block
// length.
const DefaultMaxBlockLength = dsp.DefaultMaxBlock

// Features are the host services handed to Instantiate.
type Features struct {
	// Map interns URIs. Required.
	Map urid.Mapper
	// Schedule submits work to the host's worker. Required.
	Schedule WorkScheduler
	// Log receives plugin diagnostics. Optional.
	Log *zerolog.Logger
	// MaxBlockLength is the longest block the host will pass to Run. Optional.
	MaxBlockLength int
}

// LoadFunc instantiates a model from a path in the worker context.
type LoadFunc func(path string) (dsp.Model, error)

// Options are plugin tunables that are not host services.
type Options struct {
	// Loader overrides the default file loader.
	Loader LoadFunc
	// MaxModelSize bounds model files read by the default loader.
	MaxModelSize int64
}

// Plugin is one instance of the amp-model plugin. All state lives here; nothing
// is shared between instances.
type Plugin struct {
	rate     float64
	maxBlock int
	log      zerolog.Logger
	uris     urid.URIs
	schedule WorkScheduler
	load     LoadFunc

	// Audio-context state.
	model         dsp.Model
	path          pathbuf.Buffer
	inGain        gain.Stage
	outGain       gain.Stage
	forge         atom.Forge
	notifyPath    bool
	notifyChanged bool
	activated     bool

	swap    swapCounters
	loadErr atomic.Pointer[string]
	// Scratch messages, reused so scheduling never allocates.
	loadMsg WorkMessage
	freeMsg WorkMessage
	retired [retireSlots]dsp.Model
	nRetire int
}

// Instantiate creates a plugin instance. It fails without a URID map or a work
// scheduler; no partially initialised instance is ever returned.
func Instantiate(rate float64, f Features, opts Options) (*Plugin, error) {
	log := zerolog.Nop()
	if f.Log != nil {
		log = f.Log.With().Str("component", "plugin").Logger()
	}
	if f.Map == nil {
		err := &MissingFeatureError{Feature: FeatureURIDMap}
		log.Error().Str("feature", FeatureURIDMap).Msg("missing required feature")
		return nil, err
	}
	if f.Schedule == nil {
		err := &MissingFeatureError{Feature: FeatureSchedule}
		log.Error().Str("feature", FeatureSchedule).Msg("missing required feature")
		return nil, err
	}
	maxBlock := f.MaxBlockLength
	if maxBlock <= 0 {
		maxBlock = DefaultMaxBlockLength
	}
	load := opts.Loader
	if load == nil {
		load = dsp.NewLoader(maxBlock, opts.MaxModelSize).Load
	}
	p := &Plugin{
		rate:     rate,
		maxBlock: maxBlock,
		log:      log,
		uris:     urid.Resolve(f.Map),
		schedule: f.Schedule,
		load:     load,
		inGain:   gain.New(),
		outGain:  gain.New(),
	}
	p.forge = atom.NewForge(p.uris)
	log.Debug().Float64("rate", rate).Int("max_block", maxBlock).Msg("instantiated")
	return p, nil
}

// Activate marks the instance as running. From now on restores go through the
// worker instead of loading synchronously.
func (p *Plugin) Activate() {
	p.activated = true
}

// Deactivate stops real-time processing.
func (p *Plugin) Deactivate() {
	p.activated = false
}

// Activated reports whether the instance is between Activate and Deactivate.
func (p *Plugin) Activated() bool { return p.activated }

// URIs returns the vocabulary the instance resolved at instantiation.
func (p *Plugin) URIs() urid.URIs { return p.uris }

// MaxBlockLength reports the negotiated maximum block length.
func (p *Plugin) MaxBlockLength() int { return p.maxBlock }

// CurrentPath returns the path of the active model, or "" without one. Like
// Save, it must not run concurrently with Run.
func (p *Plugin) CurrentPath() string { return p.path.String() }

// HasModel reports whether a model is active. Same threading rule as CurrentPath.
func (p *Plugin) HasModel() bool { return p.model != nil }

// Close releases the active model and any retired handles. The host calls it
// after the last Run, outside the audio context.
func (p *Plugin) Close() error {
	var first error
	if p.model != nil {
		first = p.model.Close()
		p.model = nil
	}
	for i := 0; i < p.nRetire; i++ {
		if err := p.retired[i].Close(); err != nil && first == nil {
			first = err
		}
		p.retired[i] = nil
	}
	p.nRetire = 0
	p.path.Reset()
	return first
}
