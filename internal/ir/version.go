package ir

// Version constants for the wire contract and the engine.
const (
	// WireVersion is the semantic version of the batch wire contract
	// (kind codes and op payload shapes). Journals record it.
	WireVersion = "v1.0.0"

	// EngineVersion is the drawseq engine version.
	EngineVersion = "0.1.0"
)
