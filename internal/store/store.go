// Package store reads the owned-courses whitelist and writes the found
// coupons as flat JSON files.
package store

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/nao1215/couponscout/internal/model"
)

// Indent is the indentation used for every file written by this package.
const Indent = "    "

// ErrMalformed is returned when a file exists but is not a JSON object.
var ErrMalformed = errors.New("malformed JSON object")

// LoadWhitelist reads the whitelist at path.
// A missing file yields an empty whitelist.
func LoadWhitelist(path string) (model.Whitelist, error) {
	data, err := os.ReadFile(path) //nolint:gosec // user-provided path is intentional
	if err != nil {
		if os.IsNotExist(err) {
			return model.Whitelist{}, nil
		}
		return nil, fmt.Errorf("read whitelist: %w", err)
	}

	var w model.Whitelist
	if err := json.Unmarshal(data, &w); err != nil {
		return nil, fmt.Errorf("%w in %s: %v", ErrMalformed, path, err)
	}
	if w == nil {
		w = model.Whitelist{}
	}
	return w, nil
}

// SaveWhitelist writes w to path.
func SaveWhitelist(path string, w model.Whitelist) error {
	return writeJSON(path, w)
}

// SaveCoupons writes the title → coupon link mapping to path.
// Keys are written in sorted order and URLs are not HTML-escaped.
func SaveCoupons(path string, c model.Coupons) error {
	if c == nil {
		c = model.Coupons{}
	}
	return writeJSON(path, c)
}

// LoadCoupons reads a file written by SaveCoupons.
func LoadCoupons(path string) (model.Coupons, error) {
	data, err := os.ReadFile(path) //nolint:gosec // user-provided path is intentional
	if err != nil {
		return nil, fmt.Errorf("read coupons: %w", err)
	}

	var c model.Coupons
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("%w in %s: %v", ErrMalformed, path, err)
	}
	return c, nil
}

// writeJSON writes v atomically through a temporary file in the same
// directory.
func writeJSON(path string, v any) error {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", Indent)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("marshal %s: %w", path, err)
	}
	data := buf.Bytes()

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(path)+".*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file: %w", err)
	}
	tmpPath := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("close temp file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}
