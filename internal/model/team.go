package model

// DefaultAsset is the starting balance of each asset slot.
const DefaultAsset = 10.0

// Slot identifies one of the two asset balances a team invests every round.
type Slot int

const (
	SlotOne Slot = 1
	SlotTwo Slot = 2
)

// Slots lists both asset slots in display order.
var Slots = []Slot{SlotOne, SlotTwo}

// Valid reports whether s names an existing slot.
func (s Slot) Valid() bool { return s == SlotOne || s == SlotTwo }

// Roman returns the slot label used in player-facing messages.
func (s Slot) Roman() string {
	if s == SlotTwo {
		return "II"
	}
	return "I"
}

// Team is a registered participant. An empty choice means nothing is selected.
type Team struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	OwnerID     int64    `json:"owner_id"`
	Asset1      float64  `json:"asset_1"`
	Asset2      float64  `json:"asset_2"`
	Choice1     string   `json:"choice_1,omitempty"`
	Choice2     string   `json:"choice_2,omitempty"`
	QuizAnswers []string `json:"quiz_answers"`
}

// NewTeam creates a team with default balances, named after its id.
func NewTeam(id string, ownerID int64) *Team {
	return &Team{
		ID:          id,
		Name:        "Team #" + id,
		OwnerID:     ownerID,
		Asset1:      DefaultAsset,
		Asset2:      DefaultAsset,
		QuizAnswers: []string{},
	}
}

// TotalScore is the sum of both asset balances.
func (t *Team) TotalScore() float64 { return t.Asset1 + t.Asset2 }

func (t *Team) Asset(s Slot) float64 {
	if s == SlotTwo {
		return t.Asset2
	}
	return t.Asset1
}

func (t *Team) SetAsset(s Slot, v float64) {
	if s == SlotTwo {
		t.Asset2 = v
		return
	}
	t.Asset1 = v
}

func (t *Team) Choice(s Slot) string {
	if s == SlotTwo {
		return t.Choice2
	}
	return t.Choice1
}

func (t *Team) SetChoice(s Slot, positionID string) {
	if s == SlotTwo {
		t.Choice2 = positionID
		return
	}
	t.Choice1 = positionID
}

// ClearChoices empties both slots; called at the end of every round.
func (t *Team) ClearChoices() {
	t.Choice1 = ""
	t.Choice2 = ""
}

// Clone returns a deep copy safe to hand to readers outside the controller.
func (t *Team) Clone() *Team {
	c := *t
	c.QuizAnswers = append([]string(nil), t.QuizAnswers...)
	return &c
}
