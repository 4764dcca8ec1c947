package tuple

import (
	"encoding/binary"
)

// Framing: el1 el2 ... elN len1 len2 ... lenN-1 N
//
// Lengths and the count are reverse uvarints, so the frame is read right to
// left. A frame with no elements is empty.

func splitElements(raw []byte) ([][]byte, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	orig := raw

	c, raw, err := decodeRuvarint(raw)
	if err != nil {
		return nil, dataErrf(orig, len(raw), err, "invalid element count")
	}
	if c == 0 {
		return nil, dataErrf(orig, len(raw), nil, "zero element count in non-empty frame")
	}
	if c > MaxFields {
		return nil, dataErrf(orig, len(raw), nil, "too many elements: %d", c)
	}

	lens := make([]uint32, c)
	for i := int(c) - 2; i >= 0; i-- {
		lens[i], raw, err = decodeRuvarint(raw)
		if err != nil {
			return nil, dataErrf(orig, len(raw), err, "invalid length of element %d", i)
		}
	}

	var explicitLen uint64
	for i := uint32(0); i < c-1; i++ {
		explicitLen += uint64(lens[i])
	}
	if explicitLen > uint64(len(raw)) {
		return nil, dataErrf(orig, len(raw), nil, "sum of explicit lens %d is greater than total data len %d", explicitLen, len(raw))
	}

	els := make([][]byte, c)
	var start uint32
	for i := uint32(0); i < c-1; i++ {
		end := start + lens[i]
		els[i] = raw[start:end:end]
		start = end
	}
	els[c-1] = raw[start:len(raw):len(raw)]
	return els, nil
}

type frameEncoder struct {
	lens []int
}

func (fe *frameEncoder) add(n int) {
	fe.lens = append(fe.lens, n)
}

func (fe *frameEncoder) finalize(buf []byte) []byte {
	n := len(fe.lens)
	if n == 0 {
		return buf
	}
	for _, v := range fe.lens[:n-1] {
		buf = appendRuvarint(buf, uint32(v))
	}
	return appendRuvarint(buf, uint32(n))
}

func frameOverhead(lens []int) int {
	n := len(lens)
	if n == 0 {
		return 0
	}
	total := uvarintLen(uint64(n))
	for _, v := range lens[:n-1] {
		total += uvarintLen(uint64(v))
	}
	return total
}

// Reverse Uvarint is just byte-reversed Uvarint, for right-to-left reading
func appendRuvarint(buf []byte, v uint32) []byte {
	var vb [binary.MaxVarintLen32]byte
	vn := binary.PutUvarint(vb[:], uint64(v))
	off, buf := grow(buf, vn)
	for i, b := range vb[:vn] {
		buf[off+vn-i-1] = b
	}
	return buf
}

func decodeRuvarint(buf []byte) (uint32, []byte, error) {
	var vb [binary.MaxVarintLen32]byte
	n := len(buf)
	if n == 0 {
		return 0, buf, errTruncated
	}
	c := min(n, binary.MaxVarintLen32)
	for i := 0; i < c; i++ {
		vb[i] = buf[n-i-1]
	}
	v, vn := binary.Uvarint(vb[:c])
	if vn <= 0 || v > 0xFFFF_FFFF {
		return 0, buf, errBadVarint
	}
	return uint32(v), buf[:n-vn], nil
}

func uvarintLen(v uint64) int {
	n := 1
	for v >= 0x80 {
		v >>= 7
		n++
	}
	return n
}
