package block

import (
	"fmt"

	"github.com/mezonai/runtime/codec"
	"github.com/mezonai/runtime/common"
	"github.com/mezonai/runtime/transaction"
)

type Header struct {
	ParentHash     common.Hash // hash of the parent header
	Number         uint32      // height, genesis is 0
	StateRoot      common.Hash // commitment over all storage after the block
	ExtrinsicsRoot common.Hash // ordered commitment over the included extrinsics
	Digest         [][]byte    // opaque, carried through untouched
}

func (h *Header) EncodeTo(e *codec.Encoder) {
	e.WriteFixed(h.ParentHash[:])
	e.WriteU32(h.Number)
	e.WriteFixed(h.StateRoot[:])
	e.WriteFixed(h.ExtrinsicsRoot[:])
	e.WriteBytesList(h.Digest)
}

func (h *Header) DecodeFrom(d *codec.Decoder) error {
	if err := readHash(d, &h.ParentHash); err != nil {
		return err
	}
	var err error
	if h.Number, err = d.ReadU32(); err != nil {
		return err
	}
	if err := readHash(d, &h.StateRoot); err != nil {
		return err
	}
	if err := readHash(d, &h.ExtrinsicsRoot); err != nil {
		return err
	}
	h.Digest, err = d.ReadBytesList()
	return err
}

func readHash(d *codec.Decoder, out *common.Hash) error {
	raw, err := d.ReadFixed(common.HashSize)
	if err != nil {
		return err
	}
	copy(out[:], raw)
	return nil
}

// Hash is the blake2b-256 of the encoded header
func (h *Header) Hash() (common.Hash, error) {
	raw, err := codec.Encode(h)
	if err != nil {
		return common.Hash{}, err
	}
	return common.Blake2b256(raw), nil
}

// Clone returns a deep copy so that callers can fill roots without aliasing the input
func (h *Header) Clone() *Header {
	out := *h
	if h.Digest != nil {
		out.Digest = make([][]byte, len(h.Digest))
		for i, item := range h.Digest {
			out.Digest[i] = append([]byte(nil), item...)
		}
	}
	return &out
}

// RawHeader is what a block author passes to InitializeBlock, roots left zero
func RawHeader(parent common.Hash, number uint32, digest [][]byte) *Header {
	return &Header{ParentHash: parent, Number: number, Digest: digest}
}

type Block struct {
	Header     *Header
	Extrinsics []*transaction.Extrinsic
}

// AssembleBlock pairs a finalized header with the extrinsics that were applied to produce it
func AssembleBlock(header *Header, extrinsics []*transaction.Extrinsic) *Block {
	return &Block{Header: header, Extrinsics: extrinsics}
}

func (b *Block) EncodeTo(e *codec.Encoder) {
	b.Header.EncodeTo(e)
	e.WriteCompact(uint64(len(b.Extrinsics)))
	for _, x := range b.Extrinsics {
		e.WriteNested(x)
	}
}

func (b *Block) DecodeFrom(d *codec.Decoder) error {
	b.Header = &Header{}
	if err := b.Header.DecodeFrom(d); err != nil {
		return err
	}
	items, err := d.ReadBytesList()
	if err != nil {
		return err
	}
	b.Extrinsics = make([]*transaction.Extrinsic, 0, len(items))
	for i, raw := range items {
		x, err := transaction.DecodeExtrinsic(raw)
		if err != nil {
			return fmt.Errorf("extrinsic %d: %w", i, err)
		}
		b.Extrinsics = append(b.Extrinsics, x)
	}
	return nil
}

func (b *Block) Bytes() ([]byte, error) {
	return codec.Encode(b)
}

// DecodeBlock strictly decodes an encoded block
func DecodeBlock(raw []byte) (*Block, error) {
	b := &Block{}
	if err := codec.Decode(raw, b); err != nil {
		return nil, fmt.Errorf("decode block: %w", err)
	}
	return b, nil
}

// EncodedExtrinsics returns each extrinsic's encoding in block order
func (b *Block) EncodedExtrinsics() ([][]byte, error) {
	out := make([][]byte, 0, len(b.Extrinsics))
	for _, x := range b.Extrinsics {
		raw, err := x.Bytes()
		if err != nil {
			return nil, err
		}
		out = append(out, raw)
	}
	return out, nil
}
