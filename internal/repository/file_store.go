package repository

import (
	"context"
	"errors"
	"fmt"
	"io"

	"environment_controller/internal/codec"
	"environment_controller/internal/models"
)

// FlatFileStore keeps state in the legacy line format.
type FlatFileStore struct {
	storage Storage
	path    string
}

func NewFlatFileStore(storage Storage, path string) *FlatFileStore {
	return &FlatFileStore{storage: storage, path: path}
}

func (r *FlatFileStore) Load(ctx context.Context, s *models.State) (LoadResult, error) {
	return loadWith(ctx, r.storage, r.path, s, codec.DecodeFlat)
}

func (r *FlatFileStore) Save(ctx context.Context, s *models.State) (int, error) {
	return saveWith(ctx, r.storage, r.path, s, codec.EncodeFlat)
}

// RecordFileStore keeps state as a versioned CBOR record. When no record
// exists yet it imports the flat file at legacyPath once.
type RecordFileStore struct {
	storage    Storage
	path       string
	legacyPath string
}

func NewRecordFileStore(storage Storage, path, legacyPath string) *RecordFileStore {
	return &RecordFileStore{storage: storage, path: path, legacyPath: legacyPath}
}

func (r *RecordFileStore) Load(ctx context.Context, s *models.State) (LoadResult, error) {
	res, err := loadWith(ctx, r.storage, r.path, s, codec.DecodeRecord)
	if !errors.Is(err, ErrStateNotFound) || r.legacyPath == "" {
		return res, err
	}
	legacy, lerr := loadWith(ctx, r.storage, r.legacyPath, s, codec.DecodeFlat)
	if lerr != nil {
		// report the record miss, not the legacy one
		return res, err
	}
	legacy.Legacy = true
	return legacy, nil
}

func (r *RecordFileStore) Save(ctx context.Context, s *models.State) (int, error) {
	return saveWith(ctx, r.storage, r.path, s, codec.EncodeRecord)
}

type decodeFunc func(io.Reader, *models.State) (codec.DecodeReport, error)

type encodeFunc func(io.Writer, *models.State) error

func loadWith(ctx context.Context, storage Storage, path string, s *models.State, decode decodeFunc) (LoadResult, error) {
	res := LoadResult{Source: path}
	if err := ctx.Err(); err != nil {
		s.InitializeDefaults()
		return res, err
	}
	rc, err := storage.OpenForRead(path)
	if err != nil {
		s.InitializeDefaults()
		return res, err
	}
	defer rc.Close()

	rep, err := decode(rc, s)
	res.Report = rep
	if err != nil {
		s.InitializeDefaults()
		return res, fmt.Errorf("load %s: %w", path, err)
	}
	return res, nil
}

func saveWith(ctx context.Context, storage Storage, path string, s *models.State, encode encodeFunc) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	wc, err := storage.OpenForWrite(path)
	if err != nil {
		return 0, err
	}
	cw := &countingWriter{w: wc}
	if err := encode(cw, s); err != nil {
		if a, ok := wc.(aborter); ok {
			_ = a.Abort()
		} else {
			_ = wc.Close()
		}
		return cw.n, fmt.Errorf("save %s: %w", path, err)
	}
	// only open failures are ErrStorageUnavailable
	if err := wc.Close(); err != nil {
		return cw.n, fmt.Errorf("save %s: %w", path, err)
	}
	return cw.n, nil
}
