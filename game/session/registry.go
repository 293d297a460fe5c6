package session

// registry indexes live games four ways. insert and remove always update all
// four indices together; rebind and unbindConn only touch the connection
// index and only ever drop entries that still point at the given game.
type registry struct {
	byID    map[string]*Game
	byConn  map[Conn]string
	byUser  map[string]string
	byToken map[string]*Game
}

func newRegistry() *registry {
	return &registry{
		byID:    make(map[string]*Game),
		byConn:  make(map[Conn]string),
		byUser:  make(map[string]string),
		byToken: make(map[string]*Game),
	}
}

func (r *registry) insert(g *Game) {
	r.byID[g.ID] = g
	for _, p := range g.players() {
		r.byUser[p.username] = g.ID
		r.byToken[p.token] = g
		if p.conn != nil {
			r.byConn[p.conn] = g.ID
		}
	}
}

func (r *registry) remove(g *Game) {
	if r.byID[g.ID] != g {
		return
	}
	delete(r.byID, g.ID)
	for _, p := range g.players() {
		if r.byUser[p.username] == g.ID {
			delete(r.byUser, p.username)
		}
		if r.byToken[p.token] == g {
			delete(r.byToken, p.token)
		}
		if p.conn != nil {
			r.unbindConn(g, p.conn)
		}
	}
}

// rebind moves the connection index from prev to next for game g.
func (r *registry) rebind(g *Game, prev, next Conn) {
	if prev != nil && prev != next {
		r.unbindConn(g, prev)
	}
	r.byConn[next] = g.ID
}

func (r *registry) unbindConn(g *Game, c Conn) {
	if id, ok := r.byConn[c]; ok && id == g.ID {
		delete(r.byConn, c)
	}
}

func (r *registry) game(id string) (*Game, bool) {
	g, ok := r.byID[id]
	return g, ok
}

func (r *registry) gameByConn(c Conn) (*Game, bool) {
	id, ok := r.byConn[c]
	if !ok {
		return nil, false
	}
	return r.game(id)
}

func (r *registry) gameByUser(username string) (*Game, bool) {
	id, ok := r.byUser[username]
	if !ok {
		return nil, false
	}
	return r.game(id)
}

func (r *registry) gameByToken(token string) (*Game, bool) {
	g, ok := r.byToken[token]
	return g, ok
}

func (r *registry) len() int {
	return len(r.byID)
}
