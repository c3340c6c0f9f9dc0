package mailer

import (
	"log"
	"sync"
)

type message struct {
	to      []string
	subject string
	body    string
}

// Queue decouples mail delivery from the request path: handlers enqueue
// and return immediately while a single worker drains the channel. A
// full queue drops messages rather than blocking a request.
type Queue struct {
	mailer Mailer
	ch     chan message
	wg     sync.WaitGroup
}

func NewQueue(m Mailer, buffer int) *Queue {
	q := &Queue{
		mailer: m,
		ch:     make(chan message, buffer),
	}
	q.wg.Add(1)
	go q.run()
	return q
}

// Enqueue schedules a message for delivery. It never blocks and never
// fails the caller.
func (q *Queue) Enqueue(to []string, subject, body string) {
	if len(to) == 0 {
		return
	}
	select {
	case q.ch <- message{to: to, subject: subject, body: body}:
	default:
		log.Printf("mail queue full, dropping %q to %v", subject, to)
	}
}

// Close stops the worker after draining queued messages.
func (q *Queue) Close() {
	close(q.ch)
	q.wg.Wait()
}

func (q *Queue) run() {
	defer q.wg.Done()
	for msg := range q.ch {
		if err := q.mailer.Send(msg.to, msg.subject, msg.body); err != nil {
			log.Printf("failed to send %q to %v: %v", msg.subject, msg.to, err)
		}
	}
}
