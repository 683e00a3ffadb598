// Copyright (c) 2026 Gatewarden Team
// Gatewarden - tunnel fleet control plane
// This source code is licensed under the MIT license found in the LICENSE file.

package core

import (
	"context"
	"encoding/json"
	"fmt"
	"io"

	"github.com/klauspost/compress/zstd"

	"github.com/relayfleet/gatewarden/internal/model"
)

// Backup exports the full control-plane state into BackupData.
func Backup(ctx context.Context, st Store) (*model.BackupData, error) {
	return st.ExportDataForBackup()
}

// WriteBackup writes a backup as zstd-compressed, indented JSON to w.
func WriteBackup(ctx context.Context, data *model.BackupData, w io.Writer) error {
	zw, err := zstd.NewWriter(w)
	if err != nil {
		return fmt.Errorf("create zstd writer: %w", err)
	}
	enc := json.NewEncoder(zw)
	enc.SetIndent("", "  ")
	if err := enc.Encode(data); err != nil {
		_ = zw.Close()
		return fmt.Errorf("encode backup: %w", err)
	}
	// Close flushes the compressed frame; a swallowed error here would hand
	// the operator a truncated archive that only fails at restore time.
	if err := zw.Close(); err != nil {
		return fmt.Errorf("flush backup: %w", err)
	}
	return nil
}

// Restore reads a zstd-compressed JSON backup and replaces the store's state
// with it. The import is destructive; callers confirm before invoking.
func Restore(ctx context.Context, r io.Reader, st Store) error {
	zr, err := zstd.NewReader(r)
	if err != nil {
		return fmt.Errorf("create zstd reader: %w", err)
	}
	defer zr.Close()
	var data model.BackupData
	if err := json.NewDecoder(zr).Decode(&data); err != nil {
		return fmt.Errorf("decode backup: %w", err)
	}
	return st.ImportDataFromBackup(&data)
}
