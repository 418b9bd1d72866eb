package compiler

import (
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/fxamacker/cbor/v2"
)

var (
	ErrBadMagic        = errors.New("not a bytecode image: bad magic")
	ErrVersionMismatch = errors.New("bytecode image from a different compiler build")
	ErrCorruptImage    = errors.New("corrupt bytecode image")
)

// ReadImage loads an image written by WriteImage, reconstructing the symbol
// tables, the bytecode and the line-number table. The build-version stamp is
// verified before anything else is decoded; on mismatch nothing is loaded.
//
// A loaded table serves index-based queries (reverse lookups, codegen table
// access). The live name bindings of the producing run are not part of the
// image and are not reconstructed.
func ReadImage(r io.Reader) (*SymbolTable, []int32, []LineInfo, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("read image: %w", err)
	}
	return ReadImageBytes(data)
}

// ReadImageBytes is ReadImage over an in-memory image.
func ReadImageBytes(data []byte) (*SymbolTable, []int32, []LineInfo, error) {
	if len(data) < len(ImageMagic)+4 {
		return nil, nil, nil, ErrCorruptImage
	}
	if !bytes.Equal(data[:len(ImageMagic)], ImageMagic[:]) {
		return nil, nil, nil, fmt.Errorf("%w: got %q", ErrBadMagic, data[:len(ImageMagic)])
	}
	off := len(ImageMagic)

	stampLen := int(binary.LittleEndian.Uint32(data[off:]))
	off += 4
	if off+stampLen > len(data) {
		return nil, nil, nil, ErrCorruptImage
	}
	stamp := string(data[off : off+stampLen])
	off += stampLen
	if stamp != BuildVersion {
		return nil, nil, nil, fmt.Errorf("%w: image %q, compiler %q", ErrVersionMismatch, stamp, BuildVersion)
	}

	var body imageBody
	if err := cbor.Unmarshal(data[off:], &body); err != nil {
		return nil, nil, nil, fmt.Errorf("%w: %v", ErrCorruptImage, err)
	}

	t := NewSymbolTable()
	t.UsesFrameState = body.UsesFrameState
	t.FileNames = body.FileNames

	for _, rec := range body.Idents {
		if rec.Idx != len(t.IdentTable) {
			return nil, nil, nil, fmt.Errorf("%w: identifier index out of order", ErrCorruptImage)
		}
		t.IdentTable = append(t.IdentTable, &Ident{
			NamedEntity:      NamedEntity{Name: rec.Name, Idx: rec.Idx},
			Line:             rec.Line,
			Prev:             -1,
			SingleAssignment: true,
			StaticConstant:   rec.StaticConstant,
			LogVarIdx:        -1,
			Type:             BuiltinType(TypeUndefined),
		})
	}
	for _, rec := range body.Functions {
		if rec.Idx != len(t.FunctionTable) {
			return nil, nil, nil, fmt.Errorf("%w: function index out of order", ErrCorruptImage)
		}
		t.FunctionTable = append(t.FunctionTable, &Function{
			NamedEntity:   NamedEntity{Name: rec.Name, Idx: rec.Idx},
			NArgs:         rec.NArgs,
			BytecodeStart: rec.BytecodeStart,
			RetVals:       rec.RetVals,
		})
	}
	for _, rec := range body.Structs {
		if rec.Idx != len(t.StructTable) {
			return nil, nil, nil, fmt.Errorf("%w: struct index out of order", ErrCorruptImage)
		}
		t.StructTable = append(t.StructTable, &Struct{
			NamedEntity:   NamedEntity{Name: rec.Name, Idx: rec.Idx},
			SuperclassIdx: rec.SuperclassIdx,
			ReadOnly:      rec.ReadOnly,
		})
	}
	// Second pass: superclass links resolve through indices already loaded.
	for _, st := range t.StructTable {
		if st.SuperclassIdx >= 0 {
			if st.SuperclassIdx >= len(t.StructTable) {
				return nil, nil, nil, fmt.Errorf("%w: superclass index out of range", ErrCorruptImage)
			}
			st.Superclass = t.StructTable[st.SuperclassIdx]
		}
	}
	for _, rec := range body.Fields {
		if rec.Idx != len(t.FieldTable) {
			return nil, nil, nil, fmt.Errorf("%w: field index out of order", ErrCorruptImage)
		}
		t.FieldTable = append(t.FieldTable, &SharedField{
			NamedEntity: NamedEntity{Name: rec.Name, Idx: rec.Idx},
			OffsetTable: -1,
		})
	}

	return t, body.Code, body.LineNumbers, nil
}

// ReadImageFile loads an image from a file.
func ReadImageFile(path string) (*SymbolTable, []int32, []LineInfo, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, nil, nil, err
	}
	return ReadImageBytes(data)
}
