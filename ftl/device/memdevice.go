// Package device provides block devices that hold the payload written by the
// flash translation layer.
package device

import "errors"

// ErrOutOfCapacity is returned when an access reaches beyond the end of a
// device.
var ErrOutOfCapacity = errors.New("access beyond device capacity")

// A MemDevice keeps block payloads in memory.
//
// The device manages its bytes in units of one block. Units that were never
// written are not allocated and read back as zeros.
type MemDevice struct {
	unitSize uint64
	capacity uint64
	units    map[uint64][]byte
}

// NewMemDevice creates an empty device of numBlocks blocks of blockSize bytes.
func NewMemDevice(numBlocks, blockSize int) *MemDevice {
	d := new(MemDevice)

	d.unitSize = uint64(blockSize)
	d.capacity = uint64(numBlocks) * uint64(blockSize)
	d.units = make(map[uint64][]byte)

	return d
}

// Capacity returns the size of the device in bytes.
func (d *MemDevice) Capacity() uint64 {
	return d.capacity
}

// AllocatedUnits returns how many blocks have been touched by a write.
func (d *MemDevice) AllocatedUnits() int {
	return len(d.units)
}

func (d *MemDevice) checkRange(offset, length uint64) error {
	if offset+length > d.capacity || offset+length < offset {
		return ErrOutOfCapacity
	}

	return nil
}

func (d *MemDevice) splitAddress(addr uint64) (base, inUnit uint64) {
	inUnit = addr % d.unitSize
	base = addr - inUnit

	return
}

// ReadAt returns length bytes starting at offset.
func (d *MemDevice) ReadAt(offset, length uint64) ([]byte, error) {
	if err := d.checkRange(offset, length); err != nil {
		return nil, err
	}

	res := make([]byte, length)
	done := uint64(0)

	for done < length {
		base, inUnit := d.splitAddress(offset + done)
		n := min(d.unitSize-inUnit, length-done)

		if unit, ok := d.units[base]; ok {
			copy(res[done:done+n], unit[inUnit:inUnit+n])
		}

		done += n
	}

	return res, nil
}

// WriteAt stores payload starting at offset.
func (d *MemDevice) WriteAt(offset uint64, payload []byte) error {
	length := uint64(len(payload))
	if err := d.checkRange(offset, length); err != nil {
		return err
	}

	done := uint64(0)

	for done < length {
		base, inUnit := d.splitAddress(offset + done)
		n := min(d.unitSize-inUnit, length-done)

		unit, ok := d.units[base]
		if !ok {
			unit = make([]byte, d.unitSize)
			d.units[base] = unit
		}

		copy(unit[inUnit:inUnit+n], payload[done:done+n])
		done += n
	}

	return nil
}
