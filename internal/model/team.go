package model

import "github.com/google/uuid"

type Team struct {
	ID    uuid.UUID
	Name  string
	Score int
}

func NewTeam(name string) *Team {
	return &Team{
		ID:   uuid.New(),
		Name: name,
	}
}

// AddScore sums delta into the team score and returns the new total.
func (t *Team) AddScore(delta int) int {
	t.Score += delta
	return t.Score
}
