package models

import "time"

// Slot delivery kinds.
const (
	SlotKindInPerson = "in_person"
	SlotKindVirtual  = "virtual"
)

// Slot modes.
const (
	SlotModeIndividual = "individual"
	SlotModeGroup      = "group"
)

// Slot lifecycle statuses.
const (
	SlotStatusAvailable = "available"
	SlotStatusCancelled = "cancelled"
)

// Layout strings for the slot date and time fields.
const (
	SlotDateLayout = "2006-01-02"
	SlotTimeLayout = "15:04"
)

// Slot represents a provider-published bookable time window. Times are stored
// as zero-padded "HH:MM" strings so that overlap queries can compare them
// lexicographically, same as the date field.
type Slot struct {
	ID              string    `bson:"id" json:"id"`
	ProviderID      string    `bson:"providerId" json:"providerId"`
	Date            string    `bson:"date" json:"date"`
	StartTime       string    `bson:"startTime" json:"startTime"`
	EndTime         string    `bson:"endTime" json:"endTime"`
	Kind            string    `bson:"kind" json:"kind"`
	Mode            string    `bson:"mode" json:"mode"`
	MaxParticipants int       `bson:"maxParticipants" json:"maxParticipants"`
	Price           float64   `bson:"price" json:"price"`
	Status          string    `bson:"status" json:"status"`
	CreatedAt       time.Time `bson:"createdAt" json:"createdAt"`
	UpdatedAt       time.Time `bson:"updatedAt" json:"updatedAt"`
}

// StartAt resolves the slot's scheduled start from its date and start-time
// fields in the given location.
func (s Slot) StartAt(loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(SlotDateLayout+" "+SlotTimeLayout, s.Date+" "+s.StartTime, loc)
}

// EndAt resolves the slot's scheduled end from its date and end-time fields.
func (s Slot) EndAt(loc *time.Location) (time.Time, error) {
	return time.ParseInLocation(SlotDateLayout+" "+SlotTimeLayout, s.Date+" "+s.EndTime, loc)
}

// SlotView is a Slot annotated with derived occupancy for listing responses.
// BookedCount is always recomputed from the appointment ledger, never cached.
type SlotView struct {
	Slot        `bson:",inline"`
	BookedCount int  `json:"bookedCount"`
	IsFull      bool `json:"isFull"`
}

// CalendarEntry is the public projection of a provider's upcoming slot, as
// consumed by client-side calendar views.
type CalendarEntry struct {
	SlotID          string    `json:"slotId"`
	Title           string    `json:"title"`
	Start           time.Time `json:"start"`
	End             time.Time `json:"end"`
	Status          string    `json:"status"`
	Kind            string    `json:"kind"`
	Mode            string    `json:"mode"`
	Price           float64   `json:"price"`
	MaxParticipants int       `json:"maxParticipants"`
}
