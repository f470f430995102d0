package lsm

import "encoding/binary"

// footerSize is the fixed byte size of the trailer: three little-endian
// uint64 fields, always the last bytes of an SST file.
const footerSize = 3 * offsetWidth

// footer locates the offsets and sparse-index regions of an SST file and
// carries the table's own id. The filename encodes the same id, but the
// footer's copy is authoritative.
type footer struct {
	IndexStart   uint64
	OffsetsStart uint64
	ID           uint64
}

func (f footer) encode() []byte {
	buf := make([]byte, footerSize)
	binary.LittleEndian.PutUint64(buf[0:], f.IndexStart)
	binary.LittleEndian.PutUint64(buf[offsetWidth:], f.OffsetsStart)
	binary.LittleEndian.PutUint64(buf[2*offsetWidth:], f.ID)
	return buf
}

func decodeFooter(raw []byte) (footer, error) {
	if len(raw) != footerSize {
		return footer{}, ErrInvalidFooter
	}
	return footer{
		IndexStart:   binary.LittleEndian.Uint64(raw[0:]),
		OffsetsStart: binary.LittleEndian.Uint64(raw[offsetWidth:]),
		ID:           binary.LittleEndian.Uint64(raw[2*offsetWidth:]),
	}, nil
}
