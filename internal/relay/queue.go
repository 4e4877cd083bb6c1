// Package relay bridges a driver's asynchronous receive callback and a
// polling consumer loop through an unbounded FIFO of owned packets.
package relay

import (
	"sync"

	"github.com/1ureka/rxrelay/internal/packet"
)

// node is one link of the queue's singly linked list.
type node struct {
	pkt  *packet.Packet
	next *node
}

// Queue is an unbounded FIFO of packets, safe for concurrent Enqueue and
// Dequeue. It owns every packet it holds; ownership passes to the caller of
// Dequeue.
//
// There is deliberately no size limit: backpressure happens when packets
// are allocated (see packet.Pool), not here.
type Queue struct {
	mu   sync.Mutex
	head *node
	tail *node
	n    int
}

// NewQueue creates an empty queue.
func NewQueue() *Queue {
	return &Queue{}
}

// Enqueue appends p to the tail. It never blocks beyond the critical section.
// A nil packet is ignored.
func (q *Queue) Enqueue(p *packet.Packet) {
	if p == nil {
		return
	}

	nd := &node{pkt: p}

	q.mu.Lock()
	if q.tail == nil {
		q.head = nd
	} else {
		q.tail.next = nd
	}
	q.tail = nd
	q.n++
	q.mu.Unlock()
}

// Dequeue removes and returns the head packet.
// Returns false immediately if the queue is empty.
func (q *Queue) Dequeue() (*packet.Packet, bool) {
	q.mu.Lock()
	nd := q.head
	if nd == nil {
		q.mu.Unlock()
		return nil, false
	}
	q.head = nd.next
	if q.head == nil {
		q.tail = nil
	}
	q.n--
	q.mu.Unlock()

	return nd.pkt, true
}

// Len returns the number of queued packets.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.n
}
