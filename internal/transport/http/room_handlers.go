package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/quizroom/quizroom-server/internal/core"
)

// RoomHandlers provides read-only HTTP views of the room registry,
// used by the lobby before a websocket session is established.
type RoomHandlers struct {
	registry *core.Registry
	log      *zerolog.Logger
}

// NewRoomHandlers creates a new room handlers instance.
func NewRoomHandlers(registry *core.Registry, logger *zerolog.Logger) *RoomHandlers {
	return &RoomHandlers{
		registry: registry,
		log:      logger,
	}
}

// RoomResponse represents a room in API responses.
type RoomResponse struct {
	ID              string `json:"id"`
	Name            string `json:"name"`
	Public          bool   `json:"public"`
	Participants    int    `json:"participants"`
	MaxParticipants int    `json:"max_participants"`
	CreatedAt       string `json:"created_at"`
}

// ErrorResponse is the JSON error body for REST endpoints.
type ErrorResponse struct {
	Error string `json:"error"`
}

// ListRooms handles listing public rooms.
// GET /api/rooms
func (h *RoomHandlers) ListRooms(c *gin.Context) {
	rooms := h.registry.ListPublicRooms()

	response := make([]RoomResponse, 0, len(rooms))
	for i := range rooms {
		response = append(response, roomResponse(&rooms[i]))
	}

	h.log.Debug().Int("room_count", len(response)).Msg("rooms listed")
	c.JSON(http.StatusOK, response)
}

// GetRoom handles fetching one public room by id.
// GET /api/rooms/:id
func (h *RoomHandlers) GetRoom(c *gin.Context) {
	room, ok := h.registry.GetRoom(c.Param("id"))
	if !ok || !room.Public {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "room not found"})
		return
	}
	c.JSON(http.StatusOK, roomResponse(&room))
}

func roomResponse(room *core.Room) RoomResponse {
	return RoomResponse{
		ID:              room.ID,
		Name:            room.Name,
		Public:          room.Public,
		Participants:    len(room.Participants),
		MaxParticipants: room.MaxParticipants,
		CreatedAt:       room.CreatedAt.Format("2006-01-02T15:04:05Z07:00"),
	}
}
