package internal

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// NewLineMarker replaces literal line breaks in normalized strings. The game
// data writer reverses it, so the value must not change.
const NewLineMarker = `\#`

// Block is the unit of translatable strings sharing one identifier.
// BeforeStrings and AfterStrings are read-only context for LLM backends.
type Block struct {
	ID            string   `json:"-"`
	Name          string   `json:"name"`
	BeforeStrings []string `json:"before_strings,omitempty"`
	AfterStrings  []string `json:"after_strings,omitempty"`
	Strings       []string `json:"strings"`
}

// File groups the blocks extracted from one game data file.
type File struct {
	ID     string
	Blocks []Block
}

// TextBundle maps file identifiers to blocks. Order is significant: the JSON
// form is an object, but keys are decoded and encoded in document order.
type TextBundle struct {
	Files []File
}

// GlossaryEntry is a fixed term mapping forwarded to glossary-aware backends.
type GlossaryEntry struct {
	Term        string `json:"term" yaml:"term"`
	Translation string `json:"translation" yaml:"translation"`
	Note        string `json:"note,omitempty" yaml:"note,omitempty"`
}

// TranslationRequest is the canonical payload sent to chat backends.
type TranslationRequest struct {
	SourceLanguage      string          `json:"source_language"`
	TranslationLanguage string          `json:"translation_language"`
	ProjectContext      string          `json:"project_context,omitempty"`
	LocalContext        string          `json:"local_context,omitempty"`
	Glossary            []GlossaryEntry `json:"glossary,omitempty"`
	Files               TextBundle      `json:"files"`
}

// TranslatedBlock holds strings index-aligned with the originating Block.
type TranslatedBlock struct {
	ID      string   `json:"-"`
	Strings []string `json:"strings"`
}

type TranslatedFile struct {
	ID     string
	Blocks []TranslatedBlock
}

// TranslationResponse has the same nesting as TextBundle.
type TranslationResponse struct {
	Files []TranslatedFile
}

// File returns the file with the given id.
func (b TextBundle) File(id string) (File, bool) {
	for _, f := range b.Files {
		if f.ID == id {
			return f, true
		}
	}
	return File{}, false
}

// StringCount returns the number of translatable strings in the bundle.
func (b TextBundle) StringCount() int {
	n := 0
	for _, f := range b.Files {
		for _, blk := range f.Blocks {
			n += len(blk.Strings)
		}
	}
	return n
}

// Concat appends the files of every bundle in order.
func Concat(bundles ...TextBundle) TextBundle {
	var out TextBundle
	for _, b := range bundles {
		out.Files = append(out.Files, b.Files...)
	}
	return out
}

// Lookup returns the translated block for file/block.
func (r TranslationResponse) Lookup(file, block string) (TranslatedBlock, bool) {
	for _, f := range r.Files {
		if f.ID != file {
			continue
		}
		for _, b := range f.Blocks {
			if b.ID == block {
				return b, true
			}
		}
	}
	return TranslatedBlock{}, false
}

// Merge appends the files of other. Blocks of a file already present are
// added to it; a block already present is replaced.
func (r *TranslationResponse) Merge(other TranslationResponse) {
	for _, of := range other.Files {
		idx := -1
		for i := range r.Files {
			if r.Files[i].ID == of.ID {
				idx = i
				break
			}
		}
		if idx < 0 {
			r.Files = append(r.Files, of)
			continue
		}
		for _, ob := range of.Blocks {
			replaced := false
			for j := range r.Files[idx].Blocks {
				if r.Files[idx].Blocks[j].ID == ob.ID {
					r.Files[idx].Blocks[j] = ob
					replaced = true
					break
				}
			}
			if !replaced {
				r.Files[idx].Blocks = append(r.Files[idx].Blocks, ob)
			}
		}
	}
}

// CheckAlignment verifies that resp holds, for every file/block of bundle,
// exactly as many strings as the request block. It returns a response
// rebuilt in request order, dropping anything the request did not ask for.
func CheckAlignment(bundle TextBundle, resp TranslationResponse) (TranslationResponse, error) {
	out := TranslationResponse{Files: make([]TranslatedFile, 0, len(bundle.Files))}
	for _, f := range bundle.Files {
		tf := TranslatedFile{ID: f.ID, Blocks: make([]TranslatedBlock, 0, len(f.Blocks))}
		for _, blk := range f.Blocks {
			got, ok := resp.Lookup(f.ID, blk.ID)
			if !ok {
				return TranslationResponse{}, fmt.Errorf("block %s/%s missing from response", f.ID, blk.ID)
			}
			if len(got.Strings) != len(blk.Strings) {
				return TranslationResponse{}, fmt.Errorf("block %s/%s: expected %d strings, got %d",
					f.ID, blk.ID, len(blk.Strings), len(got.Strings))
			}
			tf.Blocks = append(tf.Blocks, TranslatedBlock{ID: blk.ID, Strings: got.Strings})
		}
		out.Files = append(out.Files, tf)
	}
	return out, nil
}

// NormalizeNewlines rewrites every line break to NewLineMarker. Applying it
// twice is a no-op.
func NormalizeNewlines(s string) string {
	if !strings.ContainsAny(s, "\r\n") {
		return s
	}
	s = strings.ReplaceAll(s, "\r\n", NewLineMarker)
	s = strings.ReplaceAll(s, "\r", NewLineMarker)
	return strings.ReplaceAll(s, "\n", NewLineMarker)
}

// RestoreNewlines reverses NormalizeNewlines.
func RestoreNewlines(s string) string {
	return strings.ReplaceAll(s, NewLineMarker, "\n")
}

// Normalize applies NormalizeNewlines to every string of the response.
func (r *TranslationResponse) Normalize() {
	for i := range r.Files {
		for j := range r.Files[i].Blocks {
			strs := r.Files[i].Blocks[j].Strings
			for k := range strs {
				strs[k] = NormalizeNewlines(strs[k])
			}
		}
	}
}

// --- ordered JSON ---

func (b TextBundle) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range b.Files {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeKey(&buf, f.ID); err != nil {
			return nil, err
		}
		buf.WriteByte('{')
		for j, blk := range f.Blocks {
			if j > 0 {
				buf.WriteByte(',')
			}
			if err := writeKey(&buf, blk.ID); err != nil {
				return nil, err
			}
			data, err := json.Marshal(blk)
			if err != nil {
				return nil, err
			}
			buf.Write(data)
		}
		buf.WriteByte('}')
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (b *TextBundle) UnmarshalJSON(data []byte) error {
	b.Files = nil
	dec := json.NewDecoder(bytes.NewReader(data))
	return decodeObject(dec, func(fileID string) error {
		f := File{ID: fileID}
		err := decodeObject(dec, func(blockID string) error {
			var blk Block
			if err := dec.Decode(&blk); err != nil {
				return fmt.Errorf("block %s/%s: %w", fileID, blockID, err)
			}
			blk.ID = blockID
			f.Blocks = append(f.Blocks, blk)
			return nil
		})
		if err != nil {
			return err
		}
		b.Files = append(b.Files, f)
		return nil
	})
}

func (r TranslationResponse) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, f := range r.Files {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeKey(&buf, f.ID); err != nil {
			return nil, err
		}
		buf.WriteByte('{')
		for j, blk := range f.Blocks {
			if j > 0 {
				buf.WriteByte(',')
			}
			if err := writeKey(&buf, blk.ID); err != nil {
				return nil, err
			}
			strs := blk.Strings
			if strs == nil {
				strs = []string{}
			}
			data, err := json.Marshal(TranslatedBlock{Strings: strs})
			if err != nil {
				return nil, err
			}
			buf.Write(data)
		}
		buf.WriteByte('}')
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (r *TranslationResponse) UnmarshalJSON(data []byte) error {
	r.Files = nil
	dec := json.NewDecoder(bytes.NewReader(data))
	return decodeObject(dec, func(fileID string) error {
		f := TranslatedFile{ID: fileID}
		err := decodeObject(dec, func(blockID string) error {
			var blk TranslatedBlock
			if err := dec.Decode(&blk); err != nil {
				return fmt.Errorf("block %s/%s: %w", fileID, blockID, err)
			}
			blk.ID = blockID
			f.Blocks = append(f.Blocks, blk)
			return nil
		})
		if err != nil {
			return err
		}
		r.Files = append(r.Files, f)
		return nil
	})
}

func writeKey(buf *bytes.Buffer, key string) error {
	k, err := json.Marshal(key)
	if err != nil {
		return err
	}
	buf.Write(k)
	buf.WriteByte(':')
	return nil
}

// decodeObject reads one JSON object from dec, calling fn for each key with
// the decoder positioned at the value. fn must consume the value.
func decodeObject(dec *json.Decoder, fn func(key string) error) error {
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("expected JSON object, got %v", tok)
	}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("expected object key, got %v", tok)
		}
		if err := fn(key); err != nil {
			return err
		}
	}
	_, err = dec.Token()
	return err
}
