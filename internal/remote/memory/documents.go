package memory

import (
	"context"
	"sync"

	"spendly/internal/remote"
)

// Documents is an in-process document store.
type Documents struct {
	mu       sync.Mutex
	data     map[string]map[string]remote.Document
	writes   int
	failures map[string]error
}

func NewDocuments() *Documents {
	return &Documents{
		data:     make(map[string]map[string]remote.Document),
		failures: make(map[string]error),
	}
}

// Fail makes every later call of op (OpReadDocument or OpWriteDocument)
// return err; nil clears it.
func (d *Documents) Fail(op string, err error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err == nil {
		delete(d.failures, op)
		return
	}
	d.failures[op] = err
}

// Writes returns how many writes were attempted.
func (d *Documents) Writes() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.writes
}

// Put stores doc directly, bypassing failure injection and the write count.
func (d *Documents) Put(collection, key string, doc remote.Document) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.collection(collection)[key] = clone(doc)
}

func (d *Documents) ReadDocument(_ context.Context, collection, key string) (remote.Document, bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := d.failures[OpReadDocument]; err != nil {
		return nil, false, err
	}
	doc, ok := d.data[collection][key]
	if !ok {
		return nil, false, nil
	}
	return clone(doc), true, nil
}

func (d *Documents) WriteDocument(_ context.Context, collection, key string, doc remote.Document, merge bool) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.writes++
	if err := d.failures[OpWriteDocument]; err != nil {
		return err
	}

	c := d.collection(collection)
	existing, ok := c[key]
	if !merge || !ok {
		c[key] = clone(doc)
		return nil
	}
	for k, v := range doc {
		existing[k] = v
	}
	return nil
}

func (d *Documents) collection(name string) map[string]remote.Document {
	c, ok := d.data[name]
	if !ok {
		c = make(map[string]remote.Document)
		d.data[name] = c
	}
	return c
}

func clone(doc remote.Document) remote.Document {
	out := make(remote.Document, len(doc))
	for k, v := range doc {
		out[k] = v
	}
	return out
}
