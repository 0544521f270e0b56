package ledger

// EndAttempts returns how many times the session's end reached the ledger.
func (g *Gateway) EndAttempts(session string) int {
	g.mu.Lock()
	defer g.mu.Unlock()
	if a, ok := g.ends[session]; ok {
		return a.attempts
	}
	return 0
}
