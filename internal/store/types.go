package store

import (
	"github.com/roach88/drawseq/internal/engine"
	"github.com/roach88/drawseq/internal/ir"
)

// Batch is one journaled dispatch.
type Batch struct {
	Session       string
	Target        engine.Target
	Seq           int64
	Count         int
	Hash          string
	Error         string
	EngineVersion string
	Instructions  []Instruction
}

// Failed reports whether the dispatcher returned an error for the batch.
func (b Batch) Failed() bool {
	return b.Error != ""
}

// Instruction is one journaled instruction of a batch.
type Instruction struct {
	Position int
	Kind     ir.Kind
	Name     string
	Args     ir.IRObject
}

// BatchFilter narrows ListBatches. Zero fields match everything; a Limit of
// zero means no limit.
type BatchFilter struct {
	Session    string
	Target     engine.Target
	FromSeq    int64 // only batches with seq >= FromSeq
	FailedOnly bool  // only batches the dispatcher rejected
	Limit      int
}

// Stats summarizes a journal.
type Stats struct {
	Sessions     int `json:"sessions"`
	Batches      int `json:"batches"`
	Instructions int `json:"instructions"`
	Failed       int `json:"failed"`
}
