package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"registro/internal/ledger"
)

// FileGateway persists the snapshot as a JSON document on disk, written
// atomically (temp file + rename). With a passphrase configured the document
// is age-encrypted; load detects the age header, so switching encryption on
// over an existing plain file still reads it.
type FileGateway struct {
	path       string
	passphrase string
}

func NewFileGateway(path, passphrase string) (*FileGateway, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("create snapshot directory: %w", err)
	}
	return &FileGateway{path: path, passphrase: passphrase}, nil
}

func (g *FileGateway) Load(_ context.Context) (*ledger.Snapshot, error) {
	data, err := os.ReadFile(g.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read snapshot file: %w", err)
	}

	if isAgeEncrypted(data) {
		if g.passphrase == "" {
			return nil, fmt.Errorf("snapshot file is encrypted but no passphrase is configured")
		}
		if data, err = decryptSnapshot(data, g.passphrase); err != nil {
			return nil, fmt.Errorf("decrypt snapshot: %w", err)
		}
	}

	snap, err := ledger.DecodeSnapshot(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("decode snapshot file: %w", err)
	}
	return &snap, nil
}

func (g *FileGateway) Save(_ context.Context, snap ledger.Snapshot) error {
	var buf bytes.Buffer
	if err := ledger.EncodeSnapshot(&buf, snap); err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}

	data := buf.Bytes()
	if g.passphrase != "" {
		encrypted, err := encryptSnapshot(data, g.passphrase)
		if err != nil {
			return fmt.Errorf("encrypt snapshot: %w", err)
		}
		data = encrypted
	}

	return g.atomicWrite(data)
}

func (g *FileGateway) Close() error { return nil }

// atomicWrite never leaves a half-written snapshot behind.
func (g *FileGateway) atomicWrite(data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(g.path), filepath.Base(g.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp snapshot: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp snapshot: %w", err)
	}
	if err := os.Rename(tmpName, g.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace snapshot file: %w", err)
	}
	return nil
}
