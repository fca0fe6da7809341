// Package lobby keeps the in-memory room registry. A room groups a set of
// player identities around one running Match; finished rooms can deal a
// fresh match without changing code or identities.
package lobby

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/roundtable-games/avalon/internal/engine"
)

// PingInterval is the minimum spacing between "game created" announcement
// pings per room.
const PingInterval = time.Hour

// Player is one identity registered in a room.
type Player struct {
	ID        engine.PlayerID `json:"id"`
	Name      string          `json:"name"`
	Host      bool            `json:"host"`
	CreatedAt time.Time       `json:"created_at"`
}

// Room is one game room. Match verbs are already concurrency-safe; the
// room mutex only guards the identity list and ping throttle.
type Room struct {
	ID         string    `json:"id"`
	Code       string    `json:"code"`
	TrueRandom bool      `json:"true_random"`
	CreatedAt  time.Time `json:"created_at"`

	passwordHash []byte

	mu       sync.Mutex
	match    *engine.Match
	players  map[engine.PlayerID]*Player
	lastPing time.Time

	newMatch func(ownerID engine.PlayerID, ownerName string) *engine.Match
}

// Match returns the room's current match.
func (r *Room) Match() *engine.Match {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.match
}

// Player looks up a registered identity.
func (r *Room) Player(id engine.PlayerID) (*Player, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.players[id]
	return p, ok
}

// Players lists the registered identities in join order.
func (r *Room) Players() []*Player {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]*Player, 0, len(r.players))
	for _, p := range r.players {
		out = append(out, p)
	}
	for i := 1; i < len(out); i++ {
		for j := i; j > 0 && out[j].CreatedAt.Before(out[j-1].CreatedAt); j-- {
			out[j], out[j-1] = out[j-1], out[j]
		}
	}
	return out
}

// HasPassword reports whether joining requires a password.
func (r *Room) HasPassword() bool {
	return len(r.passwordHash) > 0
}

// CheckPassword validates the join password against the room's hash.
func (r *Room) CheckPassword(password string) error {
	if len(r.passwordHash) == 0 {
		return nil
	}
	if err := bcrypt.CompareHashAndPassword(r.passwordHash, []byte(password)); err != nil {
		return fmt.Errorf("invalid room password")
	}
	return nil
}

// AddPlayer registers a new identity in the room. Registration is room
// membership only; joining the match is the join command's business.
func (r *Room) AddPlayer(name string) (*Player, error) {
	if name == "" {
		return nil, fmt.Errorf("display name is required")
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.players {
		if p.Name == name {
			return nil, fmt.Errorf("display name %q is taken in this room", name)
		}
	}
	p := &Player{
		ID:        engine.PlayerID(uuid.NewString()),
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
	r.players[p.ID] = p
	return p, nil
}

// NewGame replaces a finished match with a fresh one owned by the given
// identity.
func (r *Room) NewGame(owner engine.PlayerID) (*engine.Match, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.players[owner]
	if !ok {
		return nil, fmt.Errorf("player is not registered in this room")
	}
	if r.match.Phase() != engine.PhaseFinished {
		return nil, fmt.Errorf("a game is already running in this room")
	}
	r.match = r.newMatch(p.ID, p.Name)
	return r.match, nil
}

// AllowPing reports whether an announcement ping may be sent, and burns
// the allowance when it may.
func (r *Room) AllowPing() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	if now.Sub(r.lastPing) < PingInterval {
		return false
	}
	r.lastPing = now
	return true
}

// Options configures the registry.
type Options struct {
	// VotekickThreshold is passed through to each match.
	VotekickThreshold int
	// NewShuffler builds the shuffler for a room. trueRandom rooms opt out
	// of the anti-repetition bias. A nil factory leaves matches on the
	// uniform default.
	NewShuffler func(trueRandom bool) engine.Shuffler
	// Rand seeds room codes and match randomness. Defaults to a
	// time-seeded source.
	Rand *rand.Rand
}

// Registry holds all live rooms, indexed by code.
type Registry struct {
	mu    sync.Mutex
	rooms map[string]*Room
	opts  Options
}

// NewRegistry creates an empty room registry.
func NewRegistry(opts Options) *Registry {
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Registry{rooms: make(map[string]*Room), opts: opts}
}

// CreateParams is the input for Create.
type CreateParams struct {
	HostName   string
	Password   string
	TrueRandom bool
}

// Create opens a new room with its host registered and a match in the
// lobby phase.
func (g *Registry) Create(p CreateParams) (*Room, *Player, error) {
	if p.HostName == "" {
		return nil, nil, fmt.Errorf("display name is required")
	}
	var passwordHash []byte
	if p.Password != "" {
		hash, err := bcrypt.GenerateFromPassword([]byte(p.Password), bcrypt.DefaultCost)
		if err != nil {
			return nil, nil, fmt.Errorf("hash password: %w", err)
		}
		passwordHash = hash
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	var code string
	for {
		code = g.generateCode()
		if _, taken := g.rooms[code]; !taken {
			break
		}
	}

	room := &Room{
		ID:           uuid.NewString(),
		Code:         code,
		TrueRandom:   p.TrueRandom,
		CreatedAt:    time.Now().UTC(),
		passwordHash: passwordHash,
		players:      make(map[engine.PlayerID]*Player),
	}
	host := &Player{
		ID:        engine.PlayerID(uuid.NewString()),
		Name:      p.HostName,
		Host:      true,
		CreatedAt: room.CreatedAt,
	}
	room.players[host.ID] = host

	opts := g.opts
	seed := opts.Rand.Int63()
	room.newMatch = func(ownerID engine.PlayerID, ownerName string) *engine.Match {
		rng := rand.New(rand.NewSource(seed))
		seed++
		var sh engine.Shuffler
		if opts.NewShuffler != nil {
			sh = opts.NewShuffler(room.TrueRandom)
		}
		return engine.NewMatch(ownerID, ownerName, engine.Options{
			VotekickThreshold: opts.VotekickThreshold,
			Shuffler:          sh,
			Rand:              rng,
		})
	}
	room.match = room.newMatch(host.ID, host.Name)

	g.rooms[code] = room
	return room, host, nil
}

// Get looks a room up by code.
func (g *Registry) Get(code string) (*Room, bool) {
	g.mu.Lock()
	defer g.mu.Unlock()
	room, ok := g.rooms[code]
	return room, ok
}

// Remove drops a room from the registry.
func (g *Registry) Remove(code string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	delete(g.rooms, code)
}

// Count returns the number of live rooms.
func (g *Registry) Count() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return len(g.rooms)
}

// generateCode builds a six-character room code, skipping characters that
// read ambiguously. Callers hold the registry lock.
func (g *Registry) generateCode() string {
	const charset = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
	code := make([]byte, 6)
	for i := range code {
		code[i] = charset[g.opts.Rand.Intn(len(charset))]
	}
	return string(code)
}
