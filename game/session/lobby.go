package session

import "time"

// Lobby is the FIFO queue of pending match requests. Pairing ignores the
// requested time control: the two oldest requests are always paired.
type Lobby struct {
	queue []*MatchRequest
}

// NewLobby creates an empty lobby.
func NewLobby() *Lobby {
	return &Lobby{}
}

// Enqueue adds req to the queue, or replaces the entry of the same username
// in place. Entries from the same connection under another username are
// dropped so a connection is never queued twice. It returns every pair that
// became available, oldest first.
func (l *Lobby) Enqueue(req *MatchRequest) [][2]*MatchRequest {
	if req.queuedAt.IsZero() {
		req.queuedAt = time.Now()
	}

	replaced := false
	l.filter(func(q *MatchRequest) bool {
		switch {
		case q.Username == req.Username:
			q.Conn = req.Conn
			q.Token = req.Token
			q.TimeControl = req.TimeControl
			replaced = true
			return true
		case q.Conn == req.Conn:
			return false
		}
		return true
	})

	if !replaced {
		l.queue = append(l.queue, req)
	}

	var pairs [][2]*MatchRequest
	for len(l.queue) >= 2 {
		pairs = append(pairs, [2]*MatchRequest{l.queue[0], l.queue[1]})
		l.queue[0], l.queue[1] = nil, nil
		l.queue = l.queue[2:]
	}
	return pairs
}

// Remove drops every request made from conn. It reports whether anything
// was removed.
func (l *Lobby) Remove(conn Conn) bool {
	before := len(l.queue)
	l.filter(func(q *MatchRequest) bool { return q.Conn != conn })
	return len(l.queue) != before
}

// filter keeps the requests for which keep returns true, preserving order.
func (l *Lobby) filter(keep func(*MatchRequest) bool) {
	kept := l.queue[:0]
	for _, q := range l.queue {
		if keep(q) {
			kept = append(kept, q)
		}
	}
	for i := len(kept); i < len(l.queue); i++ {
		l.queue[i] = nil
	}
	l.queue = kept
}

// Find returns the queued request of username.
func (l *Lobby) Find(username string) (*MatchRequest, bool) {
	for _, q := range l.queue {
		if q.Username == username {
			return q, true
		}
	}
	return nil, false
}

// TokenOwner returns the username of the queued request holding token.
func (l *Lobby) TokenOwner(token string) (string, bool) {
	for _, q := range l.queue {
		if q.Token == token {
			return q.Username, true
		}
	}
	return "", false
}

// Len returns the number of queued requests.
func (l *Lobby) Len() int {
	return len(l.queue)
}

// Entries returns read-only descriptions of the queue in arrival order.
func (l *Lobby) Entries() []QueuedInfo {
	out := make([]QueuedInfo, 0, len(l.queue))
	for _, q := range l.queue {
		out = append(out, QueuedInfo{
			Username:    q.Username,
			TimeControl: q.TimeControl,
			QueuedAt:    q.queuedAt,
		})
	}
	return out
}
