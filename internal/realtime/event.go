package realtime

import (
	"encoding/json"

	"classtrack/internal/model"
)

// Event names on the wire.
const (
	EventUpdate = "attendance:update"
	EventDelete = "attendance:delete"
)

// Room names. Every connection joins exactly its role room and its
// identity room.
const (
	RoomAdmin   = "role:admin"
	RoomTeacher = "role:teacher"
)

// IdentityRoom returns the per-user room name.
func IdentityRoom(userID string) string {
	return "identity:" + userID
}

// RoleRoom returns the room for a role.
func RoleRoom(role model.Role) string {
	return "role:" + string(role)
}

// Event is one fan-out unit: a named payload addressed to a set of rooms.
type Event struct {
	Name    string          `json:"event"`
	Rooms   []string        `json:"rooms"`
	Payload json.RawMessage `json:"data"`
}

// UpsertEvent builds the event for a created or updated record. It targets
// all admins, all teachers and the affected student.
func UpsertEvent(rec model.PopulatedRecord) Event {
	payload, _ := json.Marshal(rec)
	return Event{
		Name:    EventUpdate,
		Rooms:   []string{RoomAdmin, RoomTeacher, IdentityRoom(rec.Student.ID)},
		Payload: payload,
	}
}

// DeleteEvent builds the event for a removed record. Only the id crosses
// the wire.
func DeleteEvent(id, studentID string) Event {
	payload, _ := json.Marshal(map[string]string{"id": id})
	return Event{
		Name:    EventDelete,
		Rooms:   []string{RoomAdmin, RoomTeacher, IdentityRoom(studentID)},
		Payload: payload,
	}
}

// frame is the envelope written to websocket clients.
type frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
}

// Encode renders the client-facing frame for an event.
func (e Event) Encode() ([]byte, error) {
	return json.Marshal(frame{Event: e.Name, Data: e.Payload})
}
