package store

import (
	"encoding/json"
	"fmt"

	"github.com/roach88/drawseq/internal/ir"
)

// marshalArgs converts instruction arguments to canonical JSON TEXT.
// Uses RFC 8785 canonical JSON so identical batches store identical bytes.
func marshalArgs(args ir.IRObject) (string, error) {
	if args == nil {
		args = ir.IRObject{}
	}
	data, err := ir.MarshalCanonical(args)
	if err != nil {
		return "", fmt.Errorf("marshal args: %w", err)
	}
	return string(data), nil
}

// unmarshalArgs parses canonical JSON TEXT back to an IRObject.
// Integral numbers come back as IRInt and all others as IRFloat.
func unmarshalArgs(data string) (ir.IRObject, error) {
	if data == "" || data == "{}" {
		return ir.IRObject{}, nil
	}
	var obj ir.IRObject
	if err := json.Unmarshal([]byte(data), &obj); err != nil {
		return nil, fmt.Errorf("unmarshal args: %w", err)
	}
	return obj, nil
}

// entries rebuilds the description list a batch hash is computed from.
func entries(instrs []Instruction) ir.IRArray {
	out := make(ir.IRArray, len(instrs))
	for i, in := range instrs {
		out[i] = ir.Obj(ir.O("kind", ir.IRString(in.Name)), ir.O("args", in.Args))
	}
	return out
}
