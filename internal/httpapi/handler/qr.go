package handler

import (
	"fmt"
	"log"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	qrcode "github.com/skip2/go-qrcode"

	"github.com/roundtable-games/avalon/internal/lobby"
)

// qrSize is the side length in pixels of generated QR images.
const qrSize = 256

// QRHandler serves room join links as QR code images.
type QRHandler struct {
	registry *lobby.Registry
	baseURL  string
}

// NewQRHandler creates a new QRHandler. baseURL is the public origin the
// join link points at, without a trailing slash.
func NewQRHandler(registry *lobby.Registry, baseURL string) *QRHandler {
	return &QRHandler{registry: registry, baseURL: strings.TrimRight(baseURL, "/")}
}

// RoomQR handles GET /api/rooms/{code}/qr
//
// @Summary      Room QR code
// @Description  PNG QR code encoding the public join link for the room.
// @Tags         rooms
// @Produce      png
// @Param        code  path  string  true  "Room code (6 alphanumeric)"
// @Success      200  {file}    file
// @Failure      400  {string}  string  "Invalid room code"
// @Failure      404  {string}  string  "Room not found"
// @Router       /api/rooms/{code}/qr [get]
func (h *QRHandler) RoomQR(w http.ResponseWriter, r *http.Request) {
	code := strings.ToUpper(chi.URLParam(r, "code"))
	if !validateRoomCode(code) {
		http.Error(w, "invalid room code format", http.StatusBadRequest)
		return
	}
	if _, ok := h.registry.Get(code); !ok {
		http.Error(w, "room not found", http.StatusNotFound)
		return
	}

	link := fmt.Sprintf("%s/join/%s", h.baseURL, code)
	png, err := qrcode.Encode(link, qrcode.Medium, qrSize)
	if err != nil {
		log.Printf("[%s] qr encode error: %v", requestID(r), err)
		http.Error(w, "failed to render qr code", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Cache-Control", "no-store")
	_, _ = w.Write(png)
}
