package iso14230

// State is the phase of a polling cycle
type State int

const (
	// Fresh sends the query and reads the answer
	Fresh State = iota
	// Repeat only reads, the ECU keeps answering the last query
	Repeat
)

func (s State) String() string {
	switch s {
	case Fresh:
		return "fresh"
	case Repeat:
		return "repeat"
	default:
		return "unknown"
	}
}

// Poller is the part of the polling state a connection may touch.
// It can read the current and previous state but only write the new query flag.
type Poller interface {
	Current() State
	Last() State
	RequestNewQuery()
}

// PollState is owned by the polling session and passed to every Send
type PollState struct {
	current  State
	last     State
	newQuery bool
}

func (p *PollState) Current() State {
	return p.current
}

func (p *PollState) Last() State {
	return p.last
}

// Next moves the state machine to s, remembering the current state as the last one
func (p *PollState) Next(s State) {
	p.last = p.current
	p.current = s
}

// RequestNewQuery is raised by the connection when a repeat read returned a bad frame
func (p *PollState) RequestNewQuery() {
	p.newQuery = true
}

// NewQuery reports whether a new query was requested
func (p *PollState) NewQuery() bool {
	return p.newQuery
}

// TakeNewQuery returns the new query flag and clears it
func (p *PollState) TakeNewQuery() bool {
	q := p.newQuery
	p.newQuery = false
	return q
}

// needsLineClear is true when a repeat phase just ended and a new query is about to go out
func needsLineClear(p Poller) bool {
	return p.Current() == Fresh && p.Last() == Repeat
}
