package recorder

import (
	"sync"

	"github.com/ablab/experimentutils"
)

type NewQueueFunc = func(record experimentutils.Record) (experimentutils.Queue, error)

func NewPool(newQueue NewQueueFunc) experimentutils.Pool {
	return &Pool{
		newQueue:  newQueue,
		openQueue: map[string]experimentutils.Queue{},
	}
}

// Pool routes records to one queue per insert statement, opening queues
// lazily through newQueue.
type Pool struct {
	newQueue  NewQueueFunc
	mx        sync.Mutex
	openQueue map[string]experimentutils.Queue
}

func (p *Pool) getQueue(record experimentutils.Record) (experimentutils.Queue, error) {
	queue, open := p.openQueue[record.SQL()]
	if !open {
		var err error
		queue, err = p.newQueue(record)
		if err != nil {
			return nil, err
		}

		p.openQueue[record.SQL()] = queue
	}

	return queue, nil
}

func (p *Pool) Append(records []experimentutils.Record) error {
	p.mx.Lock()
	defer p.mx.Unlock()

	for _, record := range records {
		queue, err := p.getQueue(record)
		if err != nil {
			return err
		}

		if err := queue.Push(record); err != nil {
			return err
		}
	}

	return nil
}

func (p *Pool) Push(record experimentutils.Record) error {
	p.mx.Lock()
	defer p.mx.Unlock()

	queue, err := p.getQueue(record)
	if err != nil {
		return err
	}

	return queue.Push(record)
}

func (p *Pool) Eject(limit int) (records []experimentutils.Record, err error) {
	p.mx.Lock()
	defer p.mx.Unlock()

	maxLimit := 0
	for _, queue := range p.openQueue {
		maxLimit += queue.Len()
	}

	if limit < 0 || limit > maxLimit {
		limit = maxLimit
	}

	if limit == 0 {
		return nil, nil
	}

	records = make([]experimentutils.Record, 0, limit)
	for _, queue := range p.openQueue {
		ejected, err := queue.Eject(limit - len(records))
		if err != nil {
			return nil, err
		}

		for _, e := range ejected {
			if e != nil {
				records = append(records, e.(experimentutils.Record))
			}
		}

		if len(records) >= limit {
			break
		}
	}
	return records, nil
}
