package handler

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/roundtable-games/avalon/internal/auth"
	"github.com/roundtable-games/avalon/internal/engine"
	"github.com/roundtable-games/avalon/internal/lobby"
)

// Validation limits for room endpoints.
const (
	DisplayNameMinLen = 1
	DisplayNameMaxLen = 64
	PasswordMaxLen    = 128
)

// roomCodePattern matches 6-char alphanumeric codes (same charset as the
// registry's code generator: A-Z excluding I,O; 2-9).
var roomCodePattern = regexp.MustCompile(`^[A-Za-z0-9]{6}$`)

// RoomHandler handles room-related HTTP requests.
type RoomHandler struct {
	registry    *lobby.Registry
	tokenSecret []byte
	tokenExpiry time.Duration
}

// NewRoomHandler creates a new RoomHandler. If tokenSecret is non-empty,
// create/join responses include a WebSocket auth token.
func NewRoomHandler(registry *lobby.Registry, tokenSecret []byte, tokenExpiry time.Duration) *RoomHandler {
	if tokenExpiry <= 0 {
		tokenExpiry = auth.DefaultTokenExpiry
	}
	return &RoomHandler{registry: registry, tokenSecret: tokenSecret, tokenExpiry: tokenExpiry}
}

// RoomInfo is the public shape of a room in API responses.
type RoomInfo struct {
	ID          string    `json:"id"`
	Code        string    `json:"code"`
	TrueRandom  bool      `json:"true_random"`
	HasPassword bool      `json:"has_password"`
	CreatedAt   time.Time `json:"created_at"`
}

func roomInfo(room *lobby.Room) RoomInfo {
	return RoomInfo{
		ID:          room.ID,
		Code:        room.Code,
		TrueRandom:  room.TrueRandom,
		HasPassword: room.HasPassword(),
		CreatedAt:   room.CreatedAt,
	}
}

// CreateRoomRequest is the JSON body for POST /api/rooms.
type CreateRoomRequest struct {
	DisplayName string `json:"display_name"`
	Password    string `json:"password,omitempty"`
	TrueRandom  bool   `json:"true_random,omitempty"`
}

// CreateRoomResponse is the JSON body returned by create and join.
type CreateRoomResponse struct {
	Room      RoomInfo      `json:"room"`
	Player    *lobby.Player `json:"player"`
	Token     string        `json:"token,omitempty"`
	ExpiresAt *time.Time    `json:"expires_at,omitempty"`
}

// JoinRoomRequest is the JSON body for POST /api/rooms/{code}/join.
type JoinRoomRequest struct {
	DisplayName string `json:"display_name"`
	Password    string `json:"password,omitempty"`
}

// GetRoomResponse is the JSON body for GET /api/rooms/{code}.
type GetRoomResponse struct {
	Room    RoomInfo        `json:"room"`
	Players []*lobby.Player `json:"players"`
	Game    engine.Info     `json:"game"`
}

func validateDisplayName(displayName string) string {
	s := strings.TrimSpace(displayName)
	if len(s) < DisplayNameMinLen {
		return "display_name is required"
	}
	if len(s) > DisplayNameMaxLen {
		return fmt.Sprintf("display_name must be at most %d characters", DisplayNameMaxLen)
	}
	return ""
}

func validatePasswordLength(password string) string {
	if len(password) > PasswordMaxLen {
		return fmt.Sprintf("password must be at most %d characters", PasswordMaxLen)
	}
	return ""
}

func validateRoomCode(code string) bool {
	return len(code) == 6 && roomCodePattern.MatchString(code)
}

// CreateRoom handles POST /api/rooms
//
// @Summary      Create room
// @Description  Create a new room. The requester becomes the host and owner of a fresh lobby.
// @Tags         rooms
// @Accept       json
// @Produce      json
// @Param        body  body      CreateRoomRequest   true  "Request body"
// @Success      201   {object}  CreateRoomResponse
// @Failure      400   {string}  string  "Bad request (invalid display_name, password length, or body)"
// @Failure      500   {string}  string  "Server error"
// @Router       /api/rooms [post]
func (h *RoomHandler) CreateRoom(w http.ResponseWriter, r *http.Request) {
	var req CreateRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	if msg := validateDisplayName(req.DisplayName); msg != "" {
		http.Error(w, msg, http.StatusBadRequest)
		return
	}
	req.DisplayName = strings.TrimSpace(req.DisplayName)
	if msg := validatePasswordLength(req.Password); msg != "" {
		http.Error(w, msg, http.StatusBadRequest)
		return
	}

	room, host, err := h.registry.Create(lobby.CreateParams{
		HostName:   req.DisplayName,
		Password:   req.Password,
		TrueRandom: req.TrueRandom,
	})
	if err != nil {
		log.Printf("[%s] create room error: %v", requestID(r), err)
		http.Error(w, "failed to create room", http.StatusInternalServerError)
		return
	}

	resp := CreateRoomResponse{Room: roomInfo(room), Player: host}
	if len(h.tokenSecret) > 0 {
		token, expiresAt, err := auth.GenerateToken(room.Code, string(host.ID), host.Name, h.tokenSecret, h.tokenExpiry)
		if err != nil {
			log.Printf("[%s] generate token error: %v", requestID(r), err)
			http.Error(w, "failed to create room", http.StatusInternalServerError)
			return
		}
		resp.Token = token
		resp.ExpiresAt = &expiresAt
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Printf("[%s] encode response error: %v", requestID(r), err)
	}
}

// JoinRoom handles POST /api/rooms/{code}/join
//
// @Summary      Join room
// @Description  Register a player identity in an existing room. Returns room, player, and a WebSocket token. Joining the running match happens over the WebSocket.
// @Tags         rooms
// @Accept       json
// @Produce      json
// @Param        code  path      string           true   "Room code (6 alphanumeric)"
// @Param        body  body      JoinRoomRequest  true   "Request body"
// @Success      200   {object}  CreateRoomResponse
// @Failure      400   {string}  string  "Bad request"
// @Failure      401   {string}  string  "Invalid room password"
// @Failure      404   {string}  string  "Room not found"
// @Failure      409   {string}  string  "Display name already taken in this room"
// @Failure      500   {string}  string  "Server error"
// @Router       /api/rooms/{code}/join [post]
func (h *RoomHandler) JoinRoom(w http.ResponseWriter, r *http.Request) {
	code := strings.ToUpper(chi.URLParam(r, "code"))
	if !validateRoomCode(code) {
		http.Error(w, "invalid room code format", http.StatusBadRequest)
		return
	}

	var req JoinRoomRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if msg := validateDisplayName(req.DisplayName); msg != "" {
		http.Error(w, msg, http.StatusBadRequest)
		return
	}
	req.DisplayName = strings.TrimSpace(req.DisplayName)
	if msg := validatePasswordLength(req.Password); msg != "" {
		http.Error(w, msg, http.StatusBadRequest)
		return
	}

	room, ok := h.registry.Get(code)
	if !ok {
		http.Error(w, "room not found", http.StatusNotFound)
		return
	}
	if err := room.CheckPassword(req.Password); err != nil {
		http.Error(w, "invalid room password", http.StatusUnauthorized)
		return
	}

	player, err := room.AddPlayer(req.DisplayName)
	if err != nil {
		http.Error(w, err.Error(), http.StatusConflict)
		return
	}

	resp := CreateRoomResponse{Room: roomInfo(room), Player: player}
	if len(h.tokenSecret) > 0 {
		token, expiresAt, err := auth.GenerateToken(room.Code, string(player.ID), player.Name, h.tokenSecret, h.tokenExpiry)
		if err != nil {
			log.Printf("[%s] generate token error: %v", requestID(r), err)
			http.Error(w, "failed to join room", http.StatusInternalServerError)
			return
		}
		resp.Token = token
		resp.ExpiresAt = &expiresAt
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Printf("[%s] encode response error: %v", requestID(r), err)
	}
}

// GetRoom handles GET /api/rooms/{code}
//
// @Summary      Get room
// @Description  Get room details and the public match snapshot. No authentication required.
// @Tags         rooms
// @Produce      json
// @Param        code  path      string  true  "Room code (6 alphanumeric)"
// @Success      200   {object}  GetRoomResponse
// @Failure      400   {string}  string  "Invalid room code"
// @Failure      404   {string}  string  "Room not found"
// @Router       /api/rooms/{code} [get]
func (h *RoomHandler) GetRoom(w http.ResponseWriter, r *http.Request) {
	code := strings.ToUpper(chi.URLParam(r, "code"))
	if !validateRoomCode(code) {
		http.Error(w, "invalid room code format", http.StatusBadRequest)
		return
	}

	room, ok := h.registry.Get(code)
	if !ok {
		http.Error(w, "room not found", http.StatusNotFound)
		return
	}

	resp := GetRoomResponse{
		Room:    roomInfo(room),
		Players: room.Players(),
		Game:    room.Match().Info(),
	}
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Printf("[%s] encode response error: %v", requestID(r), err)
	}
}
