/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package disk

import (
	"bytes"
	"encoding/gob"
	"fmt"
	"io"

	"github.com/golang/snappy"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4/v4"
	"github.com/suparena/tablestore/storagemodels"
)

func init() {
	gob.Register(map[string]any{})
	gob.Register([]any{})
}

// RegisterType makes values of v's concrete type storable in disk tables.
// Basic types and slices of them need no registration.
func RegisterType(v any) {
	gob.Register(v)
}

// envelope lets nil values round-trip.
type envelope struct {
	V any
}

// compressor is a value compression algorithm
type compressor interface {
	Name() storagemodels.Compression
	Compress(data []byte) ([]byte, error)
	Decompress(data []byte) ([]byte, error)
}

// codec ids as stored in the file header
var codecIDs = map[storagemodels.Compression]byte{
	storagemodels.CompressionNone:   0,
	storagemodels.CompressionSnappy: 1,
	storagemodels.CompressionLZ4:    2,
	storagemodels.CompressionZstd:   3,
}

func compressionFromID(id byte) (storagemodels.Compression, bool) {
	for c, cid := range codecIDs {
		if cid == id {
			return c, true
		}
	}
	return "", false
}

func newCompressor(c storagemodels.Compression) (compressor, error) {
	switch c {
	case storagemodels.CompressionNone, "":
		return noneCompressor{}, nil
	case storagemodels.CompressionSnappy:
		return snappyCompressor{}, nil
	case storagemodels.CompressionLZ4:
		return lz4Compressor{}, nil
	case storagemodels.CompressionZstd:
		enc, err := zstd.NewWriter(nil)
		if err != nil {
			return nil, err
		}
		dec, err := zstd.NewReader(nil)
		if err != nil {
			enc.Close()
			return nil, err
		}
		return &zstdCompressor{encoder: enc, decoder: dec}, nil
	}
	return nil, fmt.Errorf("unknown compression %q", c)
}

type noneCompressor struct{}

func (noneCompressor) Name() storagemodels.Compression        { return storagemodels.CompressionNone }
func (noneCompressor) Compress(data []byte) ([]byte, error)   { return data, nil }
func (noneCompressor) Decompress(data []byte) ([]byte, error) { return data, nil }

type snappyCompressor struct{}

func (snappyCompressor) Name() storagemodels.Compression { return storagemodels.CompressionSnappy }

func (snappyCompressor) Compress(data []byte) ([]byte, error) {
	return snappy.Encode(nil, data), nil
}

func (snappyCompressor) Decompress(data []byte) ([]byte, error) {
	return snappy.Decode(nil, data)
}

type lz4Compressor struct{}

func (lz4Compressor) Name() storagemodels.Compression { return storagemodels.CompressionLZ4 }

func (lz4Compressor) Compress(data []byte) ([]byte, error) {
	var buf bytes.Buffer
	writer := lz4.NewWriter(&buf)

	if _, err := writer.Write(data); err != nil {
		return nil, err
	}
	if err := writer.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (lz4Compressor) Decompress(data []byte) ([]byte, error) {
	reader := lz4.NewReader(bytes.NewReader(data))
	return io.ReadAll(reader)
}

type zstdCompressor struct {
	encoder *zstd.Encoder
	decoder *zstd.Decoder
}

func (c *zstdCompressor) Name() storagemodels.Compression { return storagemodels.CompressionZstd }

func (c *zstdCompressor) Compress(data []byte) ([]byte, error) {
	return c.encoder.EncodeAll(data, nil), nil
}

func (c *zstdCompressor) Decompress(data []byte) ([]byte, error) {
	return c.decoder.DecodeAll(data, nil)
}

func (c *zstdCompressor) Close() {
	c.encoder.Close()
	c.decoder.Close()
}

// encodeValue gob-encodes v and compresses the result.
func encodeValue(c compressor, v any) ([]byte, error) {
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(envelope{V: v}); err != nil {
		return nil, fmt.Errorf("encode value of type %T: %w", v, err)
	}
	return c.Compress(buf.Bytes())
}

// decodeValue reverses encodeValue.
func decodeValue(c compressor, data []byte) (any, error) {
	raw, err := c.Decompress(data)
	if err != nil {
		return nil, fmt.Errorf("decompress value: %w", err)
	}
	var env envelope
	if err := gob.NewDecoder(bytes.NewReader(raw)).Decode(&env); err != nil {
		return nil, fmt.Errorf("decode value: %w", err)
	}
	return env.V, nil
}
