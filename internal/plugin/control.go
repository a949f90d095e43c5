package plugin

import (
	"namd/internal/atom"
	"namd/internal/pathbuf"
)

// readControl decodes the control sequence for this block. Unknown or malformed
// events are skipped; a malformed sequence ends decoding for the block.
func (p *Plugin) readControl(buf []byte) {
	if len(buf) == 0 {
		return
	}
	it, err := atom.NewSequenceIter(buf, p.uris.AtomSequence)
	if err != nil {
		return
	}
	for it.Next() {
		obj, ok := atom.AsObject(it.Event().Body, p.uris.AtomObject)
		if !ok {
			continue
		}
		switch obj.OType {
		case p.uris.PatchGet:
			p.handleGet(obj)
		case p.uris.PatchSet:
			p.handleSet(obj)
		}
	}
}

// handleGet accepts a bare patch:Get or one asking for the model property.
func (p *Plugin) handleGet(obj atom.Object) {
	prop, ok := obj.Get(p.uris.PatchProperty)
	if !ok {
		p.notifyPath = true
		return
	}
	if id, ok := prop.URID(); ok && prop.Type == p.uris.AtomURID && id == p.uris.ModelPath {
		p.notifyPath = true
	}
}

// handleSet turns a well-formed model patch:Set into a load request.
func (p *Plugin) handleSet(obj atom.Object) {
	prop, ok := obj.Get(p.uris.PatchProperty)
	if !ok || prop.Type != p.uris.AtomURID {
		return
	}
	if id, ok := prop.URID(); !ok || id != p.uris.ModelPath {
		return
	}
	val, ok := obj.Get(p.uris.PatchValue)
	if !ok || val.Type != p.uris.AtomPath {
		return
	}
	path := val.CString()
	if len(path) == 0 || len(path) >= pathbuf.MaxPathLen {
		return
	}
	p.requestLoad(path)
}

// writeNotifications emits at most one path notification and one changed
// marker, both at frame 0. Flags whose event did not fit stay raised for the
// next block.
func (p *Plugin) writeNotifications() {
	if p.notifyPath {
		if err := atom.WriteSetPath(&p.forge, p.uris, 0, p.uris.ModelPath, p.path.Bytes()); err == nil {
			p.notifyPath = false
		}
	}
	if p.notifyChanged {
		if err := atom.WriteMarker(&p.forge, p.uris, 0, p.uris.StateChanged); err == nil {
			p.notifyChanged = false
		}
	}
}
