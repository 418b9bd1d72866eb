package compiler

import (
	"encoding/binary"
	"fmt"
	"io"
	"os"

	"github.com/fxamacker/cbor/v2"
)

// ---------------------------------------------------------------------------
// Bytecode image format
// ---------------------------------------------------------------------------
//
// An image is the persisted output of one compilation unit: the symbol
// tables plus the generated bytecode and its line-number table. Layout:
//
//   magic "LOBC" (4 bytes)
//   build-version stamp: uint32 length + UTF-8 bytes
//   canonical-CBOR body (imageBody)
//
// The stamp is checked before the body is decoded; an image written by any
// other compiler build is rejected outright, never partially adopted.

// ImageMagic identifies a bytecode image file.
var ImageMagic = [4]byte{'L', 'O', 'B', 'C'}

// BuildVersion is the stamp written into every image and required verbatim
// on load. Overridden per release via -ldflags "-X".
var BuildVersion = "dev"

var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("compiler: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// Per-entity serialized records. Cross-links travel as table indices, so the
// in-memory index tables are already the wire format.

type identRecord struct {
	Name           string `cbor:"name"`
	Idx            int    `cbor:"idx"`
	Line           int    `cbor:"line"`
	StaticConstant bool   `cbor:"static"`
}

type functionRecord struct {
	Name          string `cbor:"name"`
	Idx           int    `cbor:"idx"`
	NArgs         int    `cbor:"nargs"`
	BytecodeStart int    `cbor:"bcstart"`
	RetVals       int    `cbor:"retvals"`
}

type structRecord struct {
	Name          string `cbor:"name"`
	Idx           int    `cbor:"idx"`
	SuperclassIdx int    `cbor:"super"`
	ReadOnly      bool   `cbor:"readonly"`
}

type fieldRecord struct {
	Name string `cbor:"name"`
	Idx  int    `cbor:"idx"`
}

type imageBody struct {
	UsesFrameState bool             `cbor:"framestate"`
	Idents         []identRecord    `cbor:"idents"`
	Functions      []functionRecord `cbor:"functions"`
	Structs        []structRecord   `cbor:"structs"`
	Fields         []fieldRecord    `cbor:"fields"`
	Code           []int32          `cbor:"code"`
	FileNames      []string         `cbor:"filenames"`
	LineNumbers    []LineInfo       `cbor:"linenumbers"`
}

// WriteImage serializes the table together with the generated bytecode and
// line-number table.
func (t *SymbolTable) WriteImage(w io.Writer, code []int32, lineNumbers []LineInfo) error {
	if _, err := w.Write(ImageMagic[:]); err != nil {
		return fmt.Errorf("write magic: %w", err)
	}
	stamp := []byte(BuildVersion)
	if err := binary.Write(w, binary.LittleEndian, uint32(len(stamp))); err != nil {
		return fmt.Errorf("write version stamp: %w", err)
	}
	if _, err := w.Write(stamp); err != nil {
		return fmt.Errorf("write version stamp: %w", err)
	}

	body := imageBody{
		UsesFrameState: t.UsesFrameState,
		Idents:         make([]identRecord, 0, len(t.IdentTable)),
		Functions:      make([]functionRecord, 0, len(t.FunctionTable)),
		Structs:        make([]structRecord, 0, len(t.StructTable)),
		Fields:         make([]fieldRecord, 0, len(t.FieldTable)),
		Code:           code,
		FileNames:      t.FileNames,
		LineNumbers:    lineNumbers,
	}
	for _, id := range t.IdentTable {
		body.Idents = append(body.Idents, identRecord{
			Name: id.Name, Idx: id.Idx, Line: id.Line, StaticConstant: id.StaticConstant,
		})
	}
	for _, f := range t.FunctionTable {
		body.Functions = append(body.Functions, functionRecord{
			Name: f.Name, Idx: f.Idx, NArgs: f.NArgs,
			BytecodeStart: f.BytecodeStart, RetVals: f.RetVals,
		})
	}
	for _, st := range t.StructTable {
		body.Structs = append(body.Structs, structRecord{
			Name: st.Name, Idx: st.Idx, SuperclassIdx: st.SuperclassIdx, ReadOnly: st.ReadOnly,
		})
	}
	for _, fld := range t.FieldTable {
		body.Fields = append(body.Fields, fieldRecord{Name: fld.Name, Idx: fld.Idx})
	}

	data, err := cborEncMode.Marshal(&body)
	if err != nil {
		return fmt.Errorf("encode image body: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write image body: %w", err)
	}
	return nil
}

// WriteImageFile writes the image to a file.
func (t *SymbolTable) WriteImageFile(path string, code []int32, lineNumbers []LineInfo) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := t.WriteImage(f, code, lineNumbers); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
