package atom

import "namd/internal/urid"

// WriteSetPath writes a complete patch:Set event setting property to an
// atom:Path value. On overflow the partial event is rewound.
func WriteSetPath(f *Forge, u urid.URIs, frames int64, property urid.URID, path []byte) error {
	mark := f.Mark()
	f.FrameTime(frames)
	obj := f.BeginObject(0, u.PatchSet)
	f.Key(u.PatchProperty)
	f.URID(property)
	f.Key(u.PatchValue)
	f.Path(path)
	f.Pop(obj)
	return rewindOnErr(f, mark)
}

// WriteGet writes a patch:Get event. A zero property writes a bare Get.
func WriteGet(f *Forge, u urid.URIs, frames int64, property urid.URID) error {
	mark := f.Mark()
	f.FrameTime(frames)
	obj := f.BeginObject(0, u.PatchGet)
	if property != 0 {
		f.Key(u.PatchProperty)
		f.URID(property)
	}
	f.Pop(obj)
	return rewindOnErr(f, mark)
}

// WriteMarker writes a property-less object of the given type.
func WriteMarker(f *Forge, u urid.URIs, frames int64, otype urid.URID) error {
	mark := f.Mark()
	f.FrameTime(frames)
	obj := f.BeginObject(0, otype)
	f.Pop(obj)
	return rewindOnErr(f, mark)
}

func rewindOnErr(f *Forge, mark int) error {
	if err := f.Err(); err != nil {
		f.Rewind(mark)
		return err
	}
	return nil
}
