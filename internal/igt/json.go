package igt

import (
	"encoding/json"
	"fmt"
)

// Encode serializes a corpus to indented JSON.
func Encode(xc *Corpus) ([]byte, error) {
	data, err := json.MarshalIndent(xc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode corpus: %w", err)
	}
	return data, nil
}

// Decode parses a JSON corpus document.
func Decode(data []byte) (*Corpus, error) {
	var xc Corpus
	if err := json.Unmarshal(data, &xc); err != nil {
		return nil, fmt.Errorf("decode corpus: %w", err)
	}
	return &xc, nil
}

// EncodeIgt serializes a single IGT record to indented JSON.
func EncodeIgt(ig *Igt) ([]byte, error) {
	data, err := json.MarshalIndent(ig, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode igt: %w", err)
	}
	return data, nil
}

// DecodeIgt parses a single JSON IGT record.
func DecodeIgt(data []byte) (*Igt, error) {
	var ig Igt
	if err := json.Unmarshal(data, &ig); err != nil {
		return nil, fmt.Errorf("decode igt: %w", err)
	}
	return &ig, nil
}
