package types

// Model represents a neural amp model file found in the models directory.
type Model struct {
	// Stable identifier for the model: the file name relative to the models directory.
	// example: plexi-crunch.nam
	ID string `json:"id" example:"plexi-crunch.nam"`
	// Human-friendly name taken from the model metadata, or the file name.
	// example: Plexi Crunch
	Name string `json:"name" example:"Plexi Crunch"`
	// Absolute path to the model file on disk.
	// example: /home/user/nam/plexi-crunch.nam
	Path string `json:"path" example:"/home/user/nam/plexi-crunch.nam"`
	// File size in bytes.
	// example: 311296
	SizeBytes int64 `json:"size_bytes" example:"311296"`
	// File size in human units.
	// example: 304KiB
	Size string `json:"size" example:"304KiB"`
	// Compression applied to the file, if any (xz, lz4).
	// example: xz
	Compression string `json:"compression,omitempty" example:"xz"`
}
