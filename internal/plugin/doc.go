// Package plugin is the real-time core of the amp-model plugin: the audio
// cycle, the control-event protocol on the control/notify ports, the hot-swap
// protocol that moves models between the worker and the audio thread, and state
// save/restore. It is structured into small files by concern:
//
//   - plugin.go: Plugin type, Features/Options, Instantiate, activation.
//   - errors.go: error types and helpers (IsMissingHostFeature).
//   - work.go: work messages and the worker-side half of the hot-swap.
//   - swap.go: audio-side hot-swap state, load requests and handle retirement.
//   - control.go: decoding patch:Get/patch:Set and emitting notifications.
//   - run.go: Block and the per-block audio cycle.
//   - state.go: Save/Restore against host-provided storage and path mapping.
//   - metrics.go: Prometheus collectors.
//
// Threading contract: Run and WorkResponse are called from the audio context,
// never concurrently with each other. Work is called from the worker context.
// Save, Restore, Activate, Deactivate and Close are called by the host while no
// Run is in progress. Nothing on the audio side blocks, allocates, or performs
// I/O; models are created and destroyed only in Work.
package plugin
