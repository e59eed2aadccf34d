package experimentutils

import "encoding"

// Record is a row bound for analytical storage. SQL returns the insert
// statement the record belongs to and ToExec its bound arguments.
// Records with the same statement are batched together.
type Record interface {
	encoding.BinaryMarshaler
	encoding.BinaryUnmarshaler

	SQL() string
	ToExec() []interface{}
}

// Queue buffers marshaled records until they are ejected for publishing.
// A negative eject limit drains the queue.
type Queue interface {
	Push(record encoding.BinaryMarshaler) error
	Eject(limit int) (records []interface{}, err error)
	Len() int
}

// Pool routes records to one queue per insert statement.
type Pool interface {
	Append(records []Record) error
	Push(record Record) error
	Eject(limit int) (records []Record, err error)
}
