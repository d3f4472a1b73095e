package domain

type RoomName string

// Room mirrors the subset of the media server's room record we care about.
type Room struct {
	SID             string
	Name            RoomName
	NumParticipants int
}
