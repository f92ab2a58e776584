package blob

import "errors"

var errOutOfRange = errors.New("block device access out of range")

// MemDevice emulates NOR flash in RAM: erase sets bytes to 0xFF and
// programming can only clear bits.
type MemDevice struct {
	data       []byte
	writeBlock int64
	eraseBlock int64
	erases     int
}

// NewMemDevice creates an erased device of blocks erase blocks
func NewMemDevice(blocks, eraseBlock, writeBlock int64) *MemDevice {
	d := &MemDevice{
		data:       make([]byte, blocks*eraseBlock),
		writeBlock: writeBlock,
		eraseBlock: eraseBlock,
	}
	for i := range d.data {
		d.data[i] = 0xFF
	}
	return d
}

func (d *MemDevice) ReadAt(p []byte, off int64) (int, error) {
	if off < 0 || off > int64(len(d.data)) {
		return 0, errOutOfRange
	}
	n := copy(p, d.data[off:])
	if n < len(p) {
		// reads past the end see erased flash
		for i := n; i < len(p); i++ {
			p[i] = 0xFF
		}
	}
	return len(p), nil
}

func (d *MemDevice) WriteAt(p []byte, off int64) (int, error) {
	if off < 0 || off+int64(len(p)) > int64(len(d.data)) {
		return 0, errOutOfRange
	}
	for i, b := range p {
		d.data[off+int64(i)] &= b
	}
	return len(p), nil
}

func (d *MemDevice) Size() int64           { return int64(len(d.data)) }
func (d *MemDevice) WriteBlockSize() int64 { return d.writeBlock }
func (d *MemDevice) EraseBlockSize() int64 { return d.eraseBlock }

func (d *MemDevice) EraseBlocks(start, length int64) error {
	from, to := start*d.eraseBlock, (start+length)*d.eraseBlock
	if from < 0 || to > int64(len(d.data)) {
		return errOutOfRange
	}
	for i := from; i < to; i++ {
		d.data[i] = 0xFF
	}
	d.erases++
	return nil
}

// Erases returns how many erase calls were made
func (d *MemDevice) Erases() int {
	return d.erases
}

// Corrupt flips the bits of one byte, for tests
func (d *MemDevice) Corrupt(off int64) {
	d.data[off] ^= 0xFF
}
