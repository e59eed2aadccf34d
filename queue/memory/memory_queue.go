package memory

import (
	"encoding"
	"sync"
)

func NewQueue() *Queue {
	return &Queue{}
}

// Queue is an unbounded in-memory record buffer. It never returns an
// error and loses its contents on restart.
type Queue struct {
	mx  sync.Mutex
	buf []interface{}
}

func (q *Queue) Push(record encoding.BinaryMarshaler) error {
	q.mx.Lock()
	defer q.mx.Unlock()
	q.buf = append(q.buf, record)
	return nil
}

func (q *Queue) Eject(limit int) (records []interface{}, err error) {
	q.mx.Lock()
	defer q.mx.Unlock()

	if limit < 0 || limit > len(q.buf) {
		limit = len(q.buf)
	}

	if limit == 0 {
		return nil, nil
	}

	records = make([]interface{}, limit)
	copy(records, q.buf[:limit])
	q.buf = append(q.buf[:0:0], q.buf[limit:]...)
	return records, nil
}

func (q *Queue) Len() int {
	q.mx.Lock()
	defer q.mx.Unlock()
	return len(q.buf)
}
