package mailer

import "sync"

// SentMail is one message captured by a Recorder.
type SentMail struct {
	To      []string
	Subject string
	Body    string
}

// Recorder is an in-memory Mailer and Notifier used in tests. It
// optionally fails delivery for specific recipients.
type Recorder struct {
	mu      sync.Mutex
	sent    []SentMail
	FailFor map[string]error
}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (r *Recorder) Send(to []string, subject, body string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, addr := range to {
		if err, ok := r.FailFor[addr]; ok {
			return err
		}
	}
	r.sent = append(r.sent, SentMail{To: to, Subject: subject, Body: body})
	return nil
}

func (r *Recorder) Enqueue(to []string, subject, body string) {
	_ = r.Send(to, subject, body)
}

// Sent returns a copy of everything delivered so far.
func (r *Recorder) Sent() []SentMail {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]SentMail, len(r.sent))
	copy(out, r.sent)
	return out
}
