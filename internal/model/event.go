package model

import (
	"fmt"

	"github.com/google/uuid"
)

const (
	EventUserJoined   = "USER_JOINED"
	EventUserLeft     = "USER_LEFT"
	EventStartScoring = "START_SCORING"
	EventScoreUpdated = "SCORE_UPDATED"
	EventMessage      = "MESSAGE"
	EventResult       = "RESULT"
	EventError        = "ERROR"
)

type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

type PresencePayload struct {
	Name    string `json:"name"`
	Message string `json:"message"`
}

type StartScoringPayload struct {
	Criteria []Criterion `json:"criteria"`
	TeamID   uuid.UUID   `json:"team_id"`
	TeamName string      `json:"team_name"`
}

type ScoreUpdatedPayload struct {
	ConnID ConnID    `json:"connection_id"`
	TeamID uuid.UUID `json:"team_id"`
	Score  int       `json:"score"`
}

type MessagePayload struct {
	ConnID ConnID `json:"connection_id"`
	Text   string `json:"text"`
}

func NewUserJoinedEvent(name string) Event {
	return Event{
		Type: EventUserJoined,
		Payload: PresencePayload{
			Name:    name,
			Message: fmt.Sprintf("%s has joined the room.", name),
		},
	}
}

func NewUserLeftEvent(name string) Event {
	return Event{
		Type: EventUserLeft,
		Payload: PresencePayload{
			Name:    name,
			Message: fmt.Sprintf("%s has left the room.", name),
		},
	}
}

func NewStartScoringEvent(criteria []Criterion, team Team) Event {
	if criteria == nil {
		criteria = []Criterion{}
	}
	return Event{
		Type: EventStartScoring,
		Payload: StartScoringPayload{
			Criteria: criteria,
			TeamID:   team.ID,
			TeamName: team.Name,
		},
	}
}

func NewScoreUpdatedEvent(connID ConnID, team Team) Event {
	return Event{
		Type: EventScoreUpdated,
		Payload: ScoreUpdatedPayload{
			ConnID: connID,
			TeamID: team.ID,
			Score:  team.Score,
		},
	}
}

func NewMessageEvent(connID ConnID, text string) Event {
	return Event{
		Type: EventMessage,
		Payload: MessagePayload{
			ConnID: connID,
			Text:   text,
		},
	}
}
