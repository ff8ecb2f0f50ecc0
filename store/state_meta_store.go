package store

import (
	"fmt"

	"github.com/mezonai/runtime/block"
	"github.com/mezonai/runtime/codec"
	"github.com/mezonai/runtime/db"
)

// StateMetaStore holds the well-known single-value cells:
// - KeyValue      => u32 written by System::Set
// - KeyCode       => raw code blob written by System::Upgrade
// - KeyHeader     => encoded header of the block being authored
// - KeyExtrinsics => Vec<Vec<u8>> of extrinsics applied so far
type StateMetaStore interface {
	Value() (uint32, bool, error)
	SetValue(v uint32) error
	Code() ([]byte, error)
	SetCode(code []byte) error

	Header() (*block.Header, error)
	SetHeader(h *block.Header) error
	ClearHeader() error

	Extrinsics() ([][]byte, error)
	AppendExtrinsic(raw []byte) error
	ClearExtrinsics() error
}

type GenericStateMetaStore struct {
	provider db.DatabaseProvider
}

func NewGenericStateMetaStore(provider db.DatabaseProvider) *GenericStateMetaStore {
	return &GenericStateMetaStore{provider: provider}
}

func (s *GenericStateMetaStore) Value() (uint32, bool, error) {
	data, err := s.provider.Get([]byte(KeyValue))
	if err != nil {
		return 0, false, fmt.Errorf("failed to get value cell: %w", err)
	}
	if data == nil {
		return 0, false, nil
	}
	d := codec.NewDecoder(data)
	v, err := d.ReadU32()
	if err != nil || d.Remaining() != 0 {
		return 0, false, fmt.Errorf("malformed value cell %x", data)
	}
	return v, true, nil
}

func (s *GenericStateMetaStore) SetValue(v uint32) error {
	e := codec.NewEncoder()
	e.WriteU32(v)
	if err := s.provider.Put([]byte(KeyValue), e.Bytes()); err != nil {
		return fmt.Errorf("failed to store value cell: %w", err)
	}
	return nil
}

// Code returns nil when no upgrade has happened
func (s *GenericStateMetaStore) Code() ([]byte, error) {
	data, err := s.provider.Get([]byte(KeyCode))
	if err != nil {
		return nil, fmt.Errorf("failed to get code: %w", err)
	}
	return data, nil
}

func (s *GenericStateMetaStore) SetCode(code []byte) error {
	if err := s.provider.Put([]byte(KeyCode), code); err != nil {
		return fmt.Errorf("failed to store code: %w", err)
	}
	return nil
}

// Header returns nil when no block is being authored
func (s *GenericStateMetaStore) Header() (*block.Header, error) {
	data, err := s.provider.Get([]byte(KeyHeader))
	if err != nil {
		return nil, fmt.Errorf("failed to get header: %w", err)
	}
	if data == nil {
		return nil, nil
	}
	h := &block.Header{}
	if err := codec.Decode(data, h); err != nil {
		return nil, fmt.Errorf("failed to decode stored header: %w", err)
	}
	return h, nil
}

func (s *GenericStateMetaStore) SetHeader(h *block.Header) error {
	data, err := codec.Encode(h)
	if err != nil {
		return fmt.Errorf("failed to encode header: %w", err)
	}
	if err := s.provider.Put([]byte(KeyHeader), data); err != nil {
		return fmt.Errorf("failed to store header: %w", err)
	}
	return nil
}

func (s *GenericStateMetaStore) ClearHeader() error {
	if err := s.provider.Delete([]byte(KeyHeader)); err != nil {
		return fmt.Errorf("failed to clear header: %w", err)
	}
	return nil
}

func (s *GenericStateMetaStore) Extrinsics() ([][]byte, error) {
	data, err := s.provider.Get([]byte(KeyExtrinsics))
	if err != nil {
		return nil, fmt.Errorf("failed to get extrinsics: %w", err)
	}
	if data == nil {
		return nil, nil
	}
	d := codec.NewDecoder(data)
	list, err := d.ReadBytesList()
	if err != nil || d.Remaining() != 0 {
		return nil, fmt.Errorf("malformed extrinsic list: %v", err)
	}
	return list, nil
}

func (s *GenericStateMetaStore) AppendExtrinsic(raw []byte) error {
	list, err := s.Extrinsics()
	if err != nil {
		return err
	}
	return s.putExtrinsics(append(list, raw))
}

// ClearExtrinsics writes an empty list, the key itself stays present
func (s *GenericStateMetaStore) ClearExtrinsics() error {
	return s.putExtrinsics(nil)
}

func (s *GenericStateMetaStore) putExtrinsics(list [][]byte) error {
	e := codec.NewEncoder()
	e.WriteBytesList(list)
	if err := s.provider.Put([]byte(KeyExtrinsics), e.Bytes()); err != nil {
		return fmt.Errorf("failed to store extrinsics: %w", err)
	}
	return nil
}
