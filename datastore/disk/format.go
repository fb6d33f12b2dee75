/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package disk

import (
	"bufio"
	"encoding/binary"
	"fmt"
	"hash/crc32"
	"io"
	"os"
	"time"

	"github.com/suparena/tablestore/errors"
	"github.com/suparena/tablestore/storagemodels"
)

// Table file layout:
//
//	header (24 bytes):
//	  magic       [8]byte  "TBLSTORE"
//	  version     uint16
//	  entry type  uint8
//	  compression uint8
//	  reserved    [4]byte
//	  created at  int64    unix nanoseconds
//
//	records, appended:
//	  crc32   uint32  over payload
//	  length  uint32  payload length
//	  payload:
//	    op      uint8
//	    keyLen  uvarint
//	    key     []byte
//	    value   []byte  remainder; encoded value for opPut, empty for opDelete
const (
	headerSize     = 24
	recordOverhead = 8
	maxRecordSize  = 1 << 30
)

// FormatVersion is the table file version this package reads and writes.
const FormatVersion uint16 = 1

var magic = [8]byte{'T', 'B', 'L', 'S', 'T', 'O', 'R', 'E'}

const (
	opPut    byte = 1
	opDelete byte = 2
)

type header struct {
	entryType   storagemodels.EntryType
	compression storagemodels.Compression
	createdAt   time.Time
}

func (h header) encode() []byte {
	buf := make([]byte, headerSize)
	copy(buf[0:8], magic[:])
	binary.LittleEndian.PutUint16(buf[8:10], FormatVersion)
	buf[10] = byte(h.entryType)
	buf[11] = codecIDs[h.compression]
	binary.LittleEndian.PutUint64(buf[16:24], uint64(h.createdAt.UnixNano()))
	return buf
}

func decodeHeader(path string, buf []byte) (header, error) {
	if len(buf) < headerSize {
		return header{}, errors.NewInvalidFormatError(path, "file shorter than header")
	}
	if [8]byte(buf[0:8]) != magic {
		return header{}, errors.NewInvalidFormatError(path, "bad magic")
	}
	if v := binary.LittleEndian.Uint16(buf[8:10]); v != FormatVersion {
		return header{}, errors.NewInvalidFormatError(path, fmt.Sprintf("unsupported version %d", v))
	}
	et := storagemodels.EntryType(buf[10])
	if !et.Valid() {
		return header{}, errors.NewInvalidFormatError(path, fmt.Sprintf("unknown entry type %d", buf[10]))
	}
	comp, ok := compressionFromID(buf[11])
	if !ok {
		return header{}, errors.NewInvalidFormatError(path, fmt.Sprintf("unknown compression id %d", buf[11]))
	}
	return header{
		entryType:   et,
		compression: comp,
		createdAt:   time.Unix(0, int64(binary.LittleEndian.Uint64(buf[16:24]))),
	}, nil
}

func readHeader(path string, r io.Reader) (header, error) {
	buf := make([]byte, headerSize)
	if _, err := io.ReadFull(r, buf); err != nil {
		if err == io.EOF || err == io.ErrUnexpectedEOF {
			return header{}, errors.NewInvalidFormatError(path, "file shorter than header")
		}
		return header{}, err
	}
	return decodeHeader(path, buf)
}

// Validate reports whether path holds a well-formed table file. It checks
// the header and the checksum of every record; a torn final record is
// tolerated since Open repairs it.
func Validate(path string) error {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return errors.NewFileNotFoundError(path)
		}
		return err
	}
	defer f.Close()

	r := bufio.NewReader(f)
	if _, err := readHeader(path, r); err != nil {
		return err
	}
	_, err = scanRecords(path, r, headerSize, func(record) error { return nil })
	return err
}

type record struct {
	op     byte
	key    string
	value  []byte
	offset int64 // file offset of the value bytes
}

func encodeRecord(op byte, key string, value []byte) []byte {
	var lenBuf [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(lenBuf[:], uint64(len(key)))

	payloadLen := 1 + n + len(key) + len(value)
	buf := make([]byte, recordOverhead+payloadLen)
	payload := buf[recordOverhead:]
	payload[0] = op
	copy(payload[1:], lenBuf[:n])
	copy(payload[1+n:], key)
	copy(payload[1+n+len(key):], value)

	binary.LittleEndian.PutUint32(buf[0:4], crc32.ChecksumIEEE(payload))
	binary.LittleEndian.PutUint32(buf[4:8], uint32(payloadLen))
	return buf
}

// valueOffset returns where the value bytes of an encoded record start,
// relative to the record start.
func valueOffset(key string) int64 {
	var lenBuf [binary.MaxVarintLen64]byte
	n := binary.PutUvarint(lenBuf[:], uint64(len(key)))
	return int64(recordOverhead + 1 + n + len(key))
}

// scanRecords reads records from r, which must be positioned at offset
// start, and calls fn for each. It returns the offset just past the last
// complete record. A checksum mismatch or malformed payload is an
// InvalidFormatError; a truncated tail ends the scan.
func scanRecords(path string, r io.Reader, start int64, fn func(record) error) (int64, error) {
	offset := start
	var frame [recordOverhead]byte
	for {
		if _, err := io.ReadFull(r, frame[:]); err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				return offset, nil
			}
			return offset, err
		}
		checksum := binary.LittleEndian.Uint32(frame[0:4])
		length := binary.LittleEndian.Uint32(frame[4:8])
		if length == 0 || length > maxRecordSize {
			return offset, errors.NewInvalidFormatError(path, fmt.Sprintf("bad record length %d at offset %d", length, offset))
		}

		payload := make([]byte, length)
		if _, err := io.ReadFull(r, payload); err != nil {
			if err == io.EOF || err == io.ErrUnexpectedEOF {
				return offset, nil
			}
			return offset, err
		}
		if crc32.ChecksumIEEE(payload) != checksum {
			return offset, errors.NewInvalidFormatError(path, fmt.Sprintf("checksum mismatch at offset %d", offset))
		}

		rec, err := decodePayload(payload)
		if err != nil {
			return offset, errors.NewInvalidFormatError(path, fmt.Sprintf("%v at offset %d", err, offset))
		}
		rec.offset = offset + valueOffset(rec.key)
		if err := fn(rec); err != nil {
			return offset, err
		}
		offset += recordOverhead + int64(length)
	}
}

func decodePayload(payload []byte) (record, error) {
	op := payload[0]
	if op != opPut && op != opDelete {
		return record{}, fmt.Errorf("unknown op %d", op)
	}
	keyLen, n := binary.Uvarint(payload[1:])
	if n <= 0 || uint64(len(payload)-1-n) < keyLen {
		return record{}, fmt.Errorf("bad key length")
	}
	keyStart := 1 + n
	keyEnd := keyStart + int(keyLen)
	return record{
		op:    op,
		key:   string(payload[keyStart:keyEnd]),
		value: payload[keyEnd:],
	}, nil
}
