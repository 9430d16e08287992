package device

import (
	"fmt"
	"os"
)

// DefaultImageName is the file name of the simulated SSD image.
const DefaultImageName = "SSD.txt"

// A FileDevice stores block payloads in an image file on the host file
// system.
type FileDevice struct {
	file     *os.File
	capacity uint64
}

// Format creates (or truncates) the image at path and fills it with
// numBlocks zeroed blocks, the state of an empty flash medium.
func Format(path string, numBlocks, blockSize int) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create image %s: %w", path, err)
	}

	blank := make([]byte, blockSize)
	for i := 0; i < numBlocks; i++ {
		if _, err := f.Write(blank); err != nil {
			f.Close()
			return fmt.Errorf("format block %d of %s: %w", i, path, err)
		}
	}

	return f.Close()
}

// Open opens an existing image for reading and writing.
func Open(path string, numBlocks, blockSize int) (*FileDevice, error) {
	f, err := os.OpenFile(path, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("open image %s: %w", path, err)
	}

	d := &FileDevice{
		file:     f,
		capacity: uint64(numBlocks) * uint64(blockSize),
	}

	return d, nil
}

// Create formats the image at path and opens it.
func Create(path string, numBlocks, blockSize int) (*FileDevice, error) {
	if err := Format(path, numBlocks, blockSize); err != nil {
		return nil, err
	}

	return Open(path, numBlocks, blockSize)
}

// Capacity returns the size of the device in bytes.
func (d *FileDevice) Capacity() uint64 {
	return d.capacity
}

// Path returns the location of the image file.
func (d *FileDevice) Path() string {
	return d.file.Name()
}

// WriteAt stores payload starting at offset.
func (d *FileDevice) WriteAt(offset uint64, payload []byte) error {
	end := offset + uint64(len(payload))
	if end > d.capacity || end < offset {
		return ErrOutOfCapacity
	}

	_, err := d.file.WriteAt(payload, int64(offset))

	return err
}

// ReadAt returns length bytes starting at offset.
func (d *FileDevice) ReadAt(offset, length uint64) ([]byte, error) {
	end := offset + length
	if end > d.capacity || end < offset {
		return nil, ErrOutOfCapacity
	}

	buf := make([]byte, length)
	if _, err := d.file.ReadAt(buf, int64(offset)); err != nil {
		return nil, err
	}

	return buf, nil
}

// Sync flushes the image to stable storage.
func (d *FileDevice) Sync() error {
	return d.file.Sync()
}

// Close closes the image file.
func (d *FileDevice) Close() error {
	return d.file.Close()
}
