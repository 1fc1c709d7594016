// Package pool keeps idle keep-alive connections keyed by origin.
package pool

import (
	"net"
	"strconv"

	"github.com/HKHOP/Project-PixelDust-sub000/pkg/browserurl"
	"github.com/enetx/g"
)

// Key identifies connections that can serve the same origin with the same
// transport requirements.
type Key struct {
	Scheme browserurl.Scheme
	Host   string
	Port   uint16
}

// KeyFor returns the pool key of u.
func KeyFor(u *browserurl.URL) Key { return Key{Scheme: u.Scheme(), Host: u.Host(), Port: u.Port()} }

func (k Key) String() string {
	return string(k.Scheme) + "://" + net.JoinHostPort(k.Host, strconv.Itoa(int(k.Port)))
}

// Stats reports pool occupancy.
type Stats struct {
	Keys            int // Keys with at least one idle connection
	IdleConnections int // Idle connections across all keys
}

// Pool stores idle connections. A connection checked in must sit at a clean
// HTTP message boundary; the next Checkout relies on it.
type Pool interface {
	Checkout(key Key) g.Option[net.Conn]
	Checkin(key Key, conn net.Conn)
	Clear()
	Stats() Stats
}

// DefaultMaxIdlePerKey is the idle cap used by NewMemory when given a non-positive cap.
const DefaultMaxIdlePerKey = 8

// Memory is an in-memory FIFO pool with a per-key idle cap.
// It is not safe for concurrent use; it belongs to a single client.
type Memory struct {
	maxIdlePerKey int
	idle          map[Key]*connList
}

// connList is a singly linked FIFO queue.
type connList struct {
	head *node
	tail *node
	qnty int
}

type node struct {
	conn net.Conn
	next *node
}

// NewMemory returns an empty pool keeping at most maxIdlePerKey connections per key.
func NewMemory(maxIdlePerKey int) *Memory {
	if maxIdlePerKey <= 0 {
		maxIdlePerKey = DefaultMaxIdlePerKey
	}

	return &Memory{maxIdlePerKey: maxIdlePerKey, idle: make(map[Key]*connList)}
}

// Checkout removes and returns the oldest idle connection for key.
func (p *Memory) Checkout(key Key) g.Option[net.Conn] {
	list, ok := p.idle[key]
	if !ok {
		return g.None[net.Conn]()
	}

	n := list.head
	list.head = n.next
	list.qnty--

	if list.qnty == 0 {
		delete(p.idle, key)
	}

	return g.Some(n.conn)
}

// Checkin queues conn for key. Once the key is at capacity the connection is
// closed and dropped without error.
func (p *Memory) Checkin(key Key, conn net.Conn) {
	list, ok := p.idle[key]
	if !ok {
		list = new(connList)
		p.idle[key] = list
	}

	if list.qnty >= p.maxIdlePerKey {
		_ = conn.Close()
		return
	}

	n := &node{conn: conn}
	if list.qnty == 0 {
		list.head = n
	} else {
		list.tail.next = n
	}

	list.tail = n
	list.qnty++
}

// Clear closes and forgets every idle connection.
func (p *Memory) Clear() {
	for key, list := range p.idle {
		for n := list.head; n != nil; n = n.next {
			_ = n.conn.Close()
		}
		delete(p.idle, key)
	}
}

// Stats implements Pool.
func (p *Memory) Stats() Stats {
	s := Stats{Keys: len(p.idle)}
	for _, list := range p.idle {
		s.IdleConnections += list.qnty
	}

	return s
}
