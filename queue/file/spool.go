package file

import (
	"encoding"
	"encoding/binary"
	"errors"
	"fmt"
	"hash/crc32"
	"math"
	"os"
	"reflect"
	"sync"
)

const (
	// The file starts with the head offset: the position of the first
	// record that has not been ejected yet.
	headOffsetSize int64 = 8
	dataOffset           = headOffsetSize

	// Each record is framed as crc32(data) + uint16 size + data.
	recordCRCSize  int64 = 4
	recordSizeSize int64 = 2
	recordHeadSize       = recordCRCSize + recordSizeSize
)

var (
	ErrCorruptSpool   = errors.New("corrupt spool file")
	ErrRecordTooLarge = errors.New("record too large for spool framing")
)

// Item is what a spool stores: anything that round-trips through its
// binary encoding.
type Item interface {
	encoding.BinaryMarshaler
	encoding.BinaryUnmarshaler
}

// Spool is a crash-safe on-disk record queue. Pushes append framed
// records, ejects advance a persistent head offset, so unpublished
// records survive a restart. The pattern item fixes the concrete type
// ejected records are decoded into.
type Spool struct {
	mx     sync.Mutex
	file   *os.File
	typeOf reflect.Type
	order  binary.ByteOrder

	head  int64
	tail  int64
	count int
}

func NewSpool(file *os.File, pattern Item) (*Spool, error) {
	s := &Spool{
		file:   file,
		typeOf: reflect.ValueOf(pattern).Elem().Type(),
		order:  binary.BigEndian,
	}
	if err := s.load(); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Spool) Close() error {
	s.mx.Lock()
	defer s.mx.Unlock()
	return s.file.Close()
}

func (s *Spool) Len() int {
	s.mx.Lock()
	defer s.mx.Unlock()
	return s.count
}

// load validates the whole file and positions head and tail. Any framing
// or checksum mismatch reports ErrCorruptSpool.
func (s *Spool) load() error {
	fi, err := s.file.Stat()
	if err != nil {
		return err
	}

	if fi.Size() == 0 {
		s.head = dataOffset
		s.tail = dataOffset
		return s.writeHead()
	}

	if fi.Size() < headOffsetSize {
		return ErrCorruptSpool
	}

	var hdr [headOffsetSize]byte
	if _, err := s.file.ReadAt(hdr[:], 0); err != nil {
		return err
	}
	s.head = int64(s.order.Uint64(hdr[:]))
	if s.head < dataOffset || s.head > fi.Size() {
		return ErrCorruptSpool
	}

	buf := make([]byte, 512)
	for off := s.head; off < fi.Size(); {
		size, sum, err := s.readFrame(off, fi.Size())
		if err != nil {
			return err
		}

		if len(buf) < size {
			buf = make([]byte, size)
		}
		if _, err := s.file.ReadAt(buf[:size], off+recordHeadSize); err != nil {
			return err
		}
		if crc32.ChecksumIEEE(buf[:size]) != sum {
			return ErrCorruptSpool
		}

		off += recordHeadSize + int64(size)
		s.count++
	}

	s.tail = fi.Size()
	return nil
}

func (s *Spool) readFrame(off, fileSize int64) (size int, sum uint32, err error) {
	if fileSize-off < recordHeadSize {
		return 0, 0, ErrCorruptSpool
	}

	var rh [recordHeadSize]byte
	if _, err := s.file.ReadAt(rh[:], off); err != nil {
		return 0, 0, err
	}

	sum = s.order.Uint32(rh[:recordCRCSize])
	size = int(s.order.Uint16(rh[recordCRCSize:]))
	if int64(size) > fileSize-off-recordHeadSize {
		return 0, 0, ErrCorruptSpool
	}

	return size, sum, nil
}

func (s *Spool) writeHead() error {
	var hdr [headOffsetSize]byte
	s.order.PutUint64(hdr[:], uint64(s.head))
	_, err := s.file.WriteAt(hdr[:], 0)
	return err
}

func (s *Spool) Push(record encoding.BinaryMarshaler) error {
	data, err := record.MarshalBinary()
	if err != nil {
		return err
	}

	if len(data) > math.MaxUint16 {
		return fmt.Errorf("%w: %d over %d", ErrRecordTooLarge, len(data), math.MaxUint16)
	}

	s.mx.Lock()
	defer s.mx.Unlock()

	var rh [recordHeadSize]byte
	s.order.PutUint32(rh[:recordCRCSize], crc32.ChecksumIEEE(data))
	s.order.PutUint16(rh[recordCRCSize:], uint16(len(data)))

	if _, err := s.file.WriteAt(rh[:], s.tail); err != nil {
		return err
	}
	if _, err := s.file.WriteAt(data, s.tail+recordHeadSize); err != nil {
		return err
	}

	s.tail += recordHeadSize + int64(len(data))
	s.count++
	return nil
}

func (s *Spool) Eject(limit int) (records []interface{}, err error) {
	s.mx.Lock()
	defer s.mx.Unlock()

	if limit < 0 || limit > s.count {
		limit = s.count
	}

	if limit == 0 {
		return nil, nil
	}

	records = make([]interface{}, 0, limit)
	buf := make([]byte, 512)
	for len(records) < limit {
		size, _, err := s.readFrame(s.head, s.tail)
		if err != nil {
			return records, err
		}

		if len(buf) < size {
			buf = make([]byte, size)
		}
		if _, err := s.file.ReadAt(buf[:size], s.head+recordHeadSize); err != nil {
			return records, err
		}

		record := reflect.New(s.typeOf).Interface()
		if err := record.(encoding.BinaryUnmarshaler).UnmarshalBinary(buf[:size]); err != nil {
			return records, err
		}

		s.head += recordHeadSize + int64(size)
		s.count--
		records = append(records, record)
	}

	if s.count == 0 {
		// Fully drained, reclaim the disk space.
		s.head = dataOffset
		s.tail = dataOffset
		if err := s.file.Truncate(dataOffset); err != nil {
			return records, err
		}
	}

	if err := s.writeHead(); err != nil {
		return records, err
	}

	return records, nil
}
