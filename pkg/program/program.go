// Package program reads instruction listings written in YAML, a plain
// stand-in for the XML form produced by the IPPcode23 front end.
//
//	instructions:
//	  - order: 1
//	    opcode: DEFVAR
//	    args:
//	      - {type: var, value: GF@x}
package program

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	"ippvm/pkg/instruction"
)

// Listing is the top-level YAML document.
type Listing struct {
	// Language must be IPPcode23 when set.
	Language     string        `yaml:"language,omitempty"`
	Instructions []Instruction `yaml:"instructions"`
}

// Instruction is one entry of the listing.
type Instruction struct {
	Order  int    `yaml:"order"`
	Opcode string `yaml:"opcode"`
	Args   []Arg  `yaml:"args,omitempty"`
}

// Arg is one operand; Type is var, label, type, int, bool, string or nil.
type Arg struct {
	Type  string `yaml:"type"`
	Value string `yaml:"value"`
}

const Language = "IPPcode23"

var ErrLanguage = errors.New("unsupported language")

// Decode reads a listing from r into raw instructions.
func Decode(r io.Reader) ([]instruction.Raw, error) {
	var l Listing
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&l); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, nil
		}
		return nil, fmt.Errorf("decode listing: %w", err)
	}
	if l.Language != "" && l.Language != Language {
		return nil, fmt.Errorf("%w %q", ErrLanguage, l.Language)
	}

	raws := make([]instruction.Raw, 0, len(l.Instructions))
	for _, in := range l.Instructions {
		raw := instruction.Raw{Order: in.Order, Opcode: in.Opcode}
		for _, a := range in.Args {
			raw.Args = append(raw.Args, instruction.RawArg{Type: a.Type, Text: a.Value})
		}
		raws = append(raws, raw)
	}
	return raws, nil
}

// Build validates raw instructions, stopping at the first invalid one.
func Build(raws []instruction.Raw) ([]*instruction.Instruction, error) {
	out := make([]*instruction.Instruction, 0, len(raws))
	for _, raw := range raws {
		ins, err := instruction.New(raw)
		if err != nil {
			return nil, err
		}
		out = append(out, ins)
	}
	return out, nil
}

// Load decodes and validates a listing.
func Load(r io.Reader) ([]*instruction.Instruction, error) {
	raws, err := Decode(r)
	if err != nil {
		return nil, err
	}
	return Build(raws)
}

// LoadFile decodes and validates the listing stored at path.
func LoadFile(path string) ([]*instruction.Instruction, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("cannot open %s: %w", path, err)
	}
	defer f.Close()

	return Load(f)
}
