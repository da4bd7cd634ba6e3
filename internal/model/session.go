package model

type ConnID = string

// Session binds a live connection to the room it joined.
type Session struct {
	ConnID   ConnID
	RoomCode RoomCode
	Name     *string
}

func (s Session) HasName() bool {
	return s.Name != nil
}

func (s Session) DisplayName() string {
	if s.Name == nil {
		return ""
	}
	return *s.Name
}
