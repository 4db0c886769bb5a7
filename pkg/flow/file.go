package flow

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
)

// Marshal converts a flowchart to indented JSON bytes.
func Marshal(f *Flowchart) ([]byte, error) {
	var buf bytes.Buffer
	if err := writeTo(f, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Unmarshal decodes JSON bytes into a flowchart.
// Decoding does not validate the graph; call Validate separately.
func Unmarshal(data []byte) (*Flowchart, error) {
	return readFrom(bytes.NewReader(data))
}

// WriteFile writes a flowchart to a JSON file with 0644 permissions.
func WriteFile(f *Flowchart, path string) error {
	out, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer out.Close()
	return writeTo(f, out)
}

// ReadFile reads a JSON file and returns the decoded flowchart.
func ReadFile(path string) (*Flowchart, error) {
	in, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer in.Close()
	return readFrom(in)
}

// Write encodes a flowchart as JSON to an io.Writer.
func Write(f *Flowchart, w io.Writer) error {
	return writeTo(f, w)
}

// Read decodes a JSON flowchart from an io.Reader.
func Read(r io.Reader) (*Flowchart, error) {
	return readFrom(r)
}

func writeTo(f *Flowchart, w io.Writer) error {
	out := f.Clone()
	out.Normalize()
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(out); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

func readFrom(r io.Reader) (*Flowchart, error) {
	var f Flowchart
	if err := json.NewDecoder(r).Decode(&f); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	f.Normalize()
	return &f, nil
}
