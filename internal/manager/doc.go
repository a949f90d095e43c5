// Package manager coordinates the model catalog, the audio engine and preset
// files for the HTTP and console front ends. It is structured into small files
// by concern:
//
//   - manager.go: core Manager type and the model operations.
//   - config.go: ManagerConfig and package defaults; NewWithConfig applies defaults.
//   - errors.go: error types and helpers (IsTooBusy, IsModelNotFound, IsInvalid).
//   - events.go: lifecycle events and publishers.
//   - state.go: preset save and restore.
//
// The engine does the real-time work; nothing here runs on the audio thread.
package manager
