package urid

// Vocabulary used by the plugin and its hosts.
const (
	AtomPrefix  = "http://lv2plug.in/ns/ext/atom#"
	PatchPrefix = "http://lv2plug.in/ns/ext/patch#"
	StatePrefix = "http://lv2plug.in/ns/ext/state#"

	AtomObject   = AtomPrefix + "Object"
	AtomSequence = AtomPrefix + "Sequence"
	AtomPath     = AtomPrefix + "Path"
	AtomString   = AtomPrefix + "String"
	AtomURID     = AtomPrefix + "URID"
	AtomFloat    = AtomPrefix + "Float"
	AtomInt      = AtomPrefix + "Int"
	AtomFrames   = AtomPrefix + "frameTime"

	PatchGet      = PatchPrefix + "Get"
	PatchSet      = PatchPrefix + "Set"
	PatchProperty = PatchPrefix + "property"
	PatchValue    = PatchPrefix + "value"

	StateChanged = StatePrefix + "StateChanged"

	PluginURI = "http://github.com/mikeoliphant/neural-amp-modeler-lv2"
	ModelURI  = PluginURI + "#model"
)

// URIs is the resolved vocabulary shared by codec, plugin and host.
type URIs struct {
	AtomObject    URID
	AtomSequence  URID
	AtomPath      URID
	AtomString    URID
	AtomURID      URID
	AtomFloat     URID
	AtomInt       URID
	AtomFrames    URID
	PatchGet      URID
	PatchSet      URID
	PatchProperty URID
	PatchValue    URID
	StateChanged  URID
	ModelPath     URID
}

// Resolve maps the whole vocabulary. It allocates and belongs in
// instantiation, never in an audio cycle.
func Resolve(m Mapper) URIs {
	return URIs{
		AtomObject:    m.Map(AtomObject),
		AtomSequence:  m.Map(AtomSequence),
		AtomPath:      m.Map(AtomPath),
		AtomString:    m.Map(AtomString),
		AtomURID:      m.Map(AtomURID),
		AtomFloat:     m.Map(AtomFloat),
		AtomInt:       m.Map(AtomInt),
		AtomFrames:    m.Map(AtomFrames),
		PatchGet:      m.Map(PatchGet),
		PatchSet:      m.Map(PatchSet),
		PatchProperty: m.Map(PatchProperty),
		PatchValue:    m.Map(PatchValue),
		StateChanged:  m.Map(StateChanged),
		ModelPath:     m.Map(ModelURI),
	}
}
