package persist

import (
	"bytes"
	"context"
	"encoding/binary"
	"hash/crc32"
	"os"
	"path/filepath"
	"time"

	"github.com/golang/glog"
	"github.com/golang/protobuf/proto"
	"github.com/pkg/errors"

	"github.com/robotalks/evdash/pkg/vehicle"
)

// Record is the stored odometer.
type Record struct {
	Total float64 `protobuf:"fixed64,1,opt,name=total,proto3" json:"total,omitempty"`
	Trip  float64 `protobuf:"fixed64,2,opt,name=trip,proto3" json:"trip,omitempty"`
	// SavedAt is the wall clock of the save in unix seconds.
	SavedAt  int64  `protobuf:"varint,3,opt,name=saved_at,json=savedAt,proto3" json:"saved_at,omitempty"`
	Sequence uint64 `protobuf:"varint,4,opt,name=sequence,proto3" json:"sequence,omitempty"`
}

// ProtoMessage implements proto.Message.
func (m *Record) ProtoMessage() {}

// Reset implements proto.Message.
func (m *Record) Reset() { *m = Record{} }

// String implements proto.Message.
func (m *Record) String() string { return proto.CompactTextString(m) }

var recordMagic = [4]byte{'E', 'V', 'O', 'D'}

// EncodeRecord frames a record as magic, length, payload and CRC32.
func EncodeRecord(rec *Record) ([]byte, error) {
	payload, err := proto.Marshal(rec)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	buf.Write(recordMagic[:])
	binary.Write(&buf, binary.LittleEndian, uint32(len(payload)))
	buf.Write(payload)
	binary.Write(&buf, binary.LittleEndian, crc32.ChecksumIEEE(payload))
	return buf.Bytes(), nil
}

// DecodeRecord verifies and decodes a framed record.
func DecodeRecord(data []byte) (*Record, error) {
	if len(data) < 12 || !bytes.Equal(data[:4], recordMagic[:]) {
		return nil, ErrCorrupt
	}
	size := binary.LittleEndian.Uint32(data[4:8])
	if uint64(len(data)) != uint64(size)+12 {
		return nil, ErrCorrupt
	}
	payload := data[8 : 8+size]
	if binary.LittleEndian.Uint32(data[8+size:]) != crc32.ChecksumIEEE(payload) {
		return nil, ErrCorrupt
	}
	var rec Record
	if err := proto.Unmarshal(payload, &rec); err != nil {
		return nil, errors.Wrap(ErrCorrupt, err.Error())
	}
	return &rec, nil
}

// FileStore keeps the odometer in a file. The previous record is kept
// as a backup and used when the primary fails verification.
type FileStore struct {
	Path string

	seq uint64
}

// OpenFile opens the file store, creating the directory if needed.
func OpenFile(path string) (*FileStore, error) {
	if path == "" {
		return nil, errors.New("empty odometer file path")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, errors.Wrap(err, "odometer directory")
	}
	return &FileStore{Path: path}, nil
}

func (s *FileStore) backupPath() string {
	return s.Path + ".bak"
}

func (s *FileStore) read(path string) (*Record, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return DecodeRecord(data)
}

// Load implements Store.
func (s *FileStore) Load(context.Context) (vehicle.Odometer, error) {
	rec, err := s.read(s.Path)
	if err == nil {
		s.seq = rec.Sequence
		return vehicle.Odometer{Total: rec.Total, Trip: rec.Trip}, nil
	}
	primaryMissing := os.IsNotExist(err)
	if !primaryMissing {
		glog.Warningf("odometer %s: %v, trying backup", s.Path, err)
	}
	bak, bakErr := s.read(s.backupPath())
	if bakErr == nil {
		s.seq = bak.Sequence
		return vehicle.Odometer{Total: bak.Total, Trip: bak.Trip}, nil
	}
	if primaryMissing && os.IsNotExist(bakErr) {
		return vehicle.Odometer{}, nil
	}
	if primaryMissing {
		err = bakErr
	}
	return vehicle.Odometer{}, errors.Wrapf(err, "load %s", s.Path)
}

// Save implements Store. The record is written to a temporary file,
// synced and renamed over the primary.
func (s *FileStore) Save(_ context.Context, o vehicle.Odometer) error {
	rec := &Record{
		Total:    o.Total,
		Trip:     o.Trip,
		SavedAt:  time.Now().Unix(),
		Sequence: s.seq + 1,
	}
	data, err := EncodeRecord(rec)
	if err != nil {
		return err
	}
	tmp := s.Path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0644)
	if err != nil {
		return errors.Wrap(err, "create temp record")
	}
	if _, err = f.Write(data); err == nil {
		err = f.Sync()
	}
	if e := f.Close(); err == nil {
		err = e
	}
	if err != nil {
		os.Remove(tmp)
		return errors.Wrap(err, "write temp record")
	}
	if _, err := os.Stat(s.Path); err == nil {
		if err := os.Rename(s.Path, s.backupPath()); err != nil {
			glog.Warningf("odometer backup: %v", err)
		}
	}
	if err := os.Rename(tmp, s.Path); err != nil {
		return errors.Wrap(err, "commit record")
	}
	s.seq = rec.Sequence
	return nil
}
