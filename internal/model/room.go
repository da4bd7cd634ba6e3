package model

type RoomCode = string

const EmptyRoomCode RoomCode = ""

// Criterion names a scoring dimension of a room.
type Criterion = string

// Room is a point-in-time copy of a room's state.
type Room struct {
	Code     RoomCode
	Criteria []Criterion
	Teams    []Team
}
