// Copyright 2025
// SPDX-License-Identifier: Apache-2.0

package modeldir

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// FixTokenizer removes dir/tokenizer.json when its vocabulary contains
// token ids at or above the vocab_size declared in config.json. GGUF
// converters reject such tokenizers, but fall back to vocab.json when
// tokenizer.json is absent, so removing the file makes the directory
// convertible again.
//
// The check only runs when config.json, tokenizer.json and vocab.json are
// all present. It returns whether the file was removed and a short reason
// either way.
func FixTokenizer(dir string) (bool, string, error) {
	configPath := filepath.Join(dir, "config.json")
	tokPath := filepath.Join(dir, "tokenizer.json")
	vocabPath := filepath.Join(dir, "vocab.json")

	for _, p := range []string{configPath, tokPath, vocabPath} {
		if _, err := os.Stat(p); err != nil {
			return false, fmt.Sprintf("%s not present", filepath.Base(p)), nil
		}
	}

	vocabSize, ok, err := readVocabSize(configPath)
	if err != nil {
		return false, "", err
	}
	if !ok {
		return false, "config.json has no integer vocab_size", nil
	}

	var tok struct {
		Model struct {
			Vocab map[string]int64 `json:"vocab"`
		} `json:"model"`
	}
	if err := readJSON(tokPath, &tok); err != nil {
		return false, "", err
	}
	if len(tok.Model.Vocab) == 0 {
		return false, "tokenizer declares no vocabulary", nil
	}

	maxID := int64(-1)
	for _, id := range tok.Model.Vocab {
		if id > maxID {
			maxID = id
		}
	}
	if maxID < vocabSize {
		return false, fmt.Sprintf("vocabulary fits vocab_size %d", vocabSize), nil
	}

	if err := os.Remove(tokPath); err != nil {
		return false, "", err
	}
	return true, fmt.Sprintf("max token id %d exceeds vocab_size %d", maxID, vocabSize), nil
}

// FixAddedTokens removes dir/added_tokens.json when any of its ids fall
// at or above the vocab_size declared in config.json. Works like
// [FixTokenizer] but for the added-token table.
func FixAddedTokens(dir string) (bool, string, error) {
	addedPath := filepath.Join(dir, "added_tokens.json")
	configPath := filepath.Join(dir, "config.json")

	if _, err := os.Stat(addedPath); err != nil {
		return false, "added_tokens.json not present", nil
	}
	if _, err := os.Stat(configPath); err != nil {
		return false, "config.json not present", nil
	}

	vocabSize, ok, err := readVocabSize(configPath)
	if err != nil {
		return false, "", err
	}
	if !ok {
		return false, "config.json has no integer vocab_size", nil
	}

	var added map[string]int64
	if err := readJSON(addedPath, &added); err != nil {
		return false, "", err
	}
	if len(added) == 0 {
		return false, "no added tokens declared", nil
	}

	maxID := int64(-1)
	for _, id := range added {
		if id > maxID {
			maxID = id
		}
	}
	if maxID < vocabSize {
		return false, fmt.Sprintf("added token ids fit vocab_size %d", vocabSize), nil
	}

	if err := os.Remove(addedPath); err != nil {
		return false, "", err
	}
	return true, fmt.Sprintf("added token id %d exceeds vocab_size %d", maxID, vocabSize), nil
}

// readVocabSize reads the vocab_size field from a config.json. ok is
// false when the field is absent or not an integer.
func readVocabSize(path string) (int64, bool, error) {
	var cfg map[string]any
	if err := readJSON(path, &cfg); err != nil {
		return 0, false, err
	}
	v, ok := cfg["vocab_size"].(float64)
	if !ok || v != float64(int64(v)) {
		return 0, false, nil
	}
	return int64(v), true, nil
}

func readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	return nil
}
