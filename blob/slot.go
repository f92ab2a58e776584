package blob

import (
	"encoding/binary"
	"fmt"
)

// BlockDevice is erasable flash. It matches the TinyGo machine.BlockDevice
// method set, so machine.Flash can be passed directly.
type BlockDevice interface {
	ReadAt(p []byte, off int64) (n int, err error)
	WriteAt(p []byte, off int64) (n int, err error)
	Size() int64
	WriteBlockSize() int64
	EraseBlockSize() int64
	EraseBlocks(start, len int64) error
}

// Slot record layout:
//
//	0  magic "GF"
//	2  name length
//	3  reserved (0)
//	4  data length, little endian
//	6  crc16 over name and data, little endian
//	8  name
//	.. data, padded to the write block size with 0xFF
const (
	slotHeaderSize = 8
	slotMagic0     = 'G'
	slotMagic1     = 'F'
	maxNameLen     = 32
)

// SlotStore keeps each blob in its own erase-aligned slot of a block device.
// Rewriting a blob erases and reprograms only that slot.
type SlotStore struct {
	dev       BlockDevice
	slotSize  int64
	slotCount int
}

// NewSlotStore splits dev into slots of slotBlocks erase blocks each
func NewSlotStore(dev BlockDevice, slotBlocks int64) (*SlotStore, error) {
	if slotBlocks <= 0 {
		slotBlocks = 1
	}
	slotSize := dev.EraseBlockSize() * slotBlocks
	if slotSize <= 0 {
		return nil, fmt.Errorf("invalid erase block size %d", dev.EraseBlockSize())
	}
	count := int(dev.Size() / slotSize)
	if count == 0 {
		return nil, ErrNoSpace
	}
	return &SlotStore{dev: dev, slotSize: slotSize, slotCount: count}, nil
}

// Slots returns the number of slots
func (s *SlotStore) Slots() int {
	return s.slotCount
}

type slotHeader struct {
	erased  bool
	valid   bool // magic present
	nameLen int
	dataLen int
	crc     uint16
	name    string
}

func (s *SlotStore) readHeader(slot int) (slotHeader, error) {
	var raw [slotHeaderSize + maxNameLen]byte
	if _, err := s.dev.ReadAt(raw[:], int64(slot)*s.slotSize); err != nil {
		return slotHeader{}, err
	}
	var h slotHeader
	if raw[0] == 0xFF && raw[1] == 0xFF {
		h.erased = true
		return h, nil
	}
	if raw[0] != slotMagic0 || raw[1] != slotMagic1 {
		return h, nil
	}
	h.nameLen = int(raw[2])
	h.dataLen = int(binary.LittleEndian.Uint16(raw[4:6]))
	h.crc = binary.LittleEndian.Uint16(raw[6:8])
	if h.nameLen == 0 || h.nameLen > maxNameLen {
		return h, nil
	}
	h.valid = true
	h.name = string(raw[slotHeaderSize : slotHeaderSize+h.nameLen])
	return h, nil
}

// find returns the slot holding name and the first reusable slot, or -1
func (s *SlotStore) find(name string) (found int, free int, hdr slotHeader, err error) {
	found, free = -1, -1
	for i := 0; i < s.slotCount; i++ {
		h, err := s.readHeader(i)
		if err != nil {
			return -1, -1, hdr, err
		}
		if h.valid && h.name == name {
			return i, free, h, nil
		}
		if !h.valid && free < 0 {
			free = i
		}
	}
	return found, free, hdr, nil
}

func (s *SlotStore) Read(name string) ([]byte, error) {
	slot, _, h, err := s.find(name)
	if err != nil {
		return nil, err
	}
	if slot < 0 {
		return nil, ErrNotExist
	}
	if int64(slotHeaderSize+h.nameLen+h.dataLen) > s.slotSize {
		return nil, ErrCorrupt
	}

	data := make([]byte, h.dataLen)
	off := int64(slot)*s.slotSize + slotHeaderSize + int64(h.nameLen)
	if _, err := s.dev.ReadAt(data, off); err != nil {
		return nil, err
	}
	if crc16Update(CRC16([]byte(name)), data) != h.crc {
		return nil, ErrCorrupt
	}
	return data, nil
}

func (s *SlotStore) Write(name string, data []byte) error {
	if len(name) == 0 || len(name) > maxNameLen {
		return fmt.Errorf("blob name %q: length must be 1..%d", name, maxNameLen)
	}
	if len(data) > 0xFFFF {
		return ErrNoSpace
	}

	frame := encodeSlot(name, data, s.dev.WriteBlockSize())
	if int64(len(frame)) > s.slotSize {
		return ErrNoSpace
	}

	slot, free, _, err := s.find(name)
	if err != nil {
		return err
	}
	if slot < 0 {
		slot = free
	}
	if slot < 0 {
		return ErrNoSpace
	}

	blocks := s.slotSize / s.dev.EraseBlockSize()
	if err := s.dev.EraseBlocks(int64(slot)*blocks, blocks); err != nil {
		return err
	}
	_, err = s.dev.WriteAt(frame, int64(slot)*s.slotSize)
	return err
}

func (s *SlotStore) Remove(name string) error {
	slot, _, _, err := s.find(name)
	if err != nil {
		return err
	}
	if slot < 0 {
		return ErrNotExist
	}
	blocks := s.slotSize / s.dev.EraseBlockSize()
	return s.dev.EraseBlocks(int64(slot)*blocks, blocks)
}

func encodeSlot(name string, data []byte, writeBlock int64) []byte {
	n := slotHeaderSize + len(name) + len(data)
	if writeBlock > 1 {
		if rem := int64(n) % writeBlock; rem != 0 {
			n += int(writeBlock - rem)
		}
	}

	frame := make([]byte, n)
	frame[0] = slotMagic0
	frame[1] = slotMagic1
	frame[2] = byte(len(name))
	frame[3] = 0
	binary.LittleEndian.PutUint16(frame[4:6], uint16(len(data)))
	binary.LittleEndian.PutUint16(frame[6:8], crc16Update(CRC16([]byte(name)), data))
	copy(frame[slotHeaderSize:], name)
	copy(frame[slotHeaderSize+len(name):], data)
	for i := slotHeaderSize + len(name) + len(data); i < n; i++ {
		frame[i] = 0xFF
	}
	return frame
}
