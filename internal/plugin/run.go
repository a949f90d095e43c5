package plugin

// Block is everything one audio cycle reads and writes.
type Block struct {
	// Control holds the host's input event sequence. May be nil.
	Control []byte
	// Notify is the buffer the plugin writes its output event sequence into. Its
	// length is the capacity available for this block.
	Notify []byte
	// In and Out are the mono audio buffers; the block length is the shorter of
	// the two.
	In  []float32
	Out []float32
	// InputDB and OutputDB are the gain controls, sampled once per block.
	InputDB  float32
	OutputDB float32
}

// Run processes one block: control events, input gain, inference (or
// pass-through without a model), output gain, then notifications. It never fails;
// anything that goes wrong degrades to keeping the previous state.
func (p *Plugin) Run(b *Block) {
	p.retryRetired()

	n := len(b.In)
	if len(b.Out) < n {
		n = len(b.Out)
	}

	p.forge.Reset(b.Notify)
	seq := p.forge.BeginSequence(0)
	open := p.forge.Err() == nil
	if !open {
		// Too small for even an empty sequence; make sure the host does not read
		// a stale one.
		clear(b.Notify[:min(len(b.Notify), 8)])
	}

	p.readControl(b.Control)

	out := b.Out[:n]
	p.inGain.Apply(b.In[:n], out, b.InputDB)
	if p.model != nil {
		p.model.Process(out, out)
		p.model.Finalize(n)
	}
	p.outGain.Apply(out, out, b.OutputDB)

	if open {
		p.writeNotifications()
		p.forge.Pop(seq)
	}
}
