package types

// ModelsResponse wraps the list of models returned by GET /models.
type ModelsResponse struct {
	// List of available models, ordered by ID.
	Models []Model `json:"models"`
}

// ErrorResponse is a consistent JSON error payload.
type ErrorResponse struct {
	// Error message.
	// example: invalid JSON body
	Error string `json:"error" example:"invalid JSON body"`
	// HTTP status code.
	// example: 400
	Code int `json:"code" example:"400"`
}

// SetModelRequest is the body of PUT /model. Either ID (a catalog entry) or
// Path (any file) must be set.
type SetModelRequest struct {
	// Catalog identifier.
	// example: plexi-crunch.nam
	ID string `json:"id,omitempty" example:"plexi-crunch.nam"`
	// Absolute model path.
	// example: /home/user/nam/plexi-crunch.nam
	Path string `json:"path,omitempty" example:"/home/user/nam/plexi-crunch.nam"`
}

// ModelResponse is returned by GET /model and PUT /model.
type ModelResponse struct {
	// Path of the active model as last reported by the plugin; empty when none.
	// example: /home/user/nam/plexi-crunch.nam
	Path string `json:"path" example:"/home/user/nam/plexi-crunch.nam"`
	// Swap protocol phase (idle, load_requested, awaiting_switch, pending_free).
	// example: idle
	SwapState string `json:"swap_state" example:"idle"`
	// Catalog ID of the active model when it is in the catalog.
	// example: plexi-crunch.nam
	ID string `json:"id,omitempty" example:"plexi-crunch.nam"`
	// Catalog name of the active model.
	// example: Plexi Crunch
	Name string `json:"name,omitempty" example:"Plexi Crunch"`
}

// GainRequest is the body of PUT /gain. Nil fields are left unchanged.
type GainRequest struct {
	// Input gain in dB.
	// example: -3
	InputDB *float32 `json:"input_db,omitempty" example:"-3"`
	// Output gain in dB.
	// example: 0
	OutputDB *float32 `json:"output_db,omitempty" example:"0"`
}

// StateRequest is the body of POST /state/save and POST /state/restore.
type StateRequest struct {
	// Preset file; .yaml, .yml, .toml or .json. Empty uses the configured state file.
	// example: presets/live.yaml
	File string `json:"file,omitempty" example:"presets/live.yaml"`
}

// StatusResponse is returned by GET /status.
type StatusResponse struct {
	// Host instance identifier, unique per process.
	// example: 6f1c1f9e-5b7e-4a8e-9d55-2a7c3f0e9b1d
	InstanceID string `json:"instance_id" example:"6f1c1f9e-5b7e-4a8e-9d55-2a7c3f0e9b1d"`
	// Engine state (stopped, running).
	// example: running
	State string `json:"state" example:"running"`
	// Swap protocol phase.
	// example: idle
	SwapState string `json:"swap_state" example:"idle"`
	// Path of the active model; empty when none.
	// example: /home/user/nam/plexi-crunch.nam
	ModelPath string `json:"model_path" example:"/home/user/nam/plexi-crunch.nam"`
	// Audio sample rate in Hz.
	// example: 48000
	SampleRate float64 `json:"sample_rate" example:"48000"`
	// Samples per processed block.
	// example: 256
	BlockSize int `json:"block_size" example:"256"`
	// Largest block the plugin accepts.
	// example: 2048
	MaxBlock int `json:"max_block" example:"2048"`
	// Current input gain in dB.
	// example: 0
	InputDB float32 `json:"input_db" example:"0"`
	// Current output gain in dB.
	// example: 0
	OutputDB float32 `json:"output_db" example:"0"`
	// Blocks processed since start.
	// example: 187500
	Blocks uint64 `json:"blocks" example:"187500"`
	// Blocks that took longer than their real-time budget.
	// example: 0
	Overruns uint64 `json:"overruns" example:"0"`
	// Uptime of the engine in seconds.
	// example: 3600
	UptimeSeconds int64 `json:"uptime_seconds" example:"3600"`
	// Server time in unix seconds.
	// example: 1700000000
	ServerTimeUnix int64 `json:"server_time_unix" example:"1700000000"`
	// Whether the plugin instance is activated.
	// example: true
	Activated bool `json:"activated" example:"true"`
	// Messages in flight in the swap protocol.
	InFlight SwapCounters `json:"in_flight"`
	// Model architectures this build can load.
	// example: ["Linear"]
	Architectures []string `json:"architectures" example:"Linear"`
	// Last error observed by the host (if any).
	LastError string `json:"last_error,omitempty"`
	// Why the most recent model load failed; empty once a load succeeds.
	LastLoadError string `json:"last_load_error,omitempty"`
}

// SwapCounters are the raw counters behind swap_state.
type SwapCounters struct {
	// Loads queued or running in the worker.
	// example: 0
	Loads int `json:"loads" example:"0"`
	// Loaded models waiting for delivery to the audio thread.
	// example: 0
	Switches int `json:"switches" example:"0"`
	// Replaced models waiting for destruction.
	// example: 0
	Frees int `json:"frees" example:"0"`
}

// Notification is one event the plugin wrote to its notify port, streamed by
// GET /events and /ws.
type Notification struct {
	// Event kind: "model" carries the current path, "changed" marks a state change.
	// example: model
	Kind string `json:"kind" example:"model"`
	// Model path for "model" events.
	// example: /home/user/nam/plexi-crunch.nam
	Path string `json:"path,omitempty" example:"/home/user/nam/plexi-crunch.nam"`
	// Block counter when the event was observed.
	// example: 1024
	Block uint64 `json:"block" example:"1024"`
	// Wall time in unix milliseconds.
	// example: 1700000000000
	TimeUnixMs int64 `json:"time_unix_ms" example:"1700000000000"`
}

// Notification kinds.
const (
	NotifyModel   = "model"
	NotifyChanged = "changed"
)

// WSCommand is a client message on /ws.
type WSCommand struct {
	// Operation: "set", "get" or "status".
	// example: set
	Op string `json:"op" example:"set"`
	// Model path for "set".
	Path string `json:"path,omitempty"`
}
