// Package id provides durable order-id allocation for the matching engine.
// The engine itself only sees the Allocator interface; durability and I/O
// live here, owned by the surrounding application.
package id

// Allocator supplies a strictly increasing sequence of positive integers,
// unique for the lifetime of the backing store. After a crash the next
// issued id is still greater than any id ever handed out: ids may gap
// across restarts but never repeat.
type Allocator interface {
	Next() (int64, error)
}
