package actor

// Faction groups NPCs. Its currency item is always traded at face value.
type Faction struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Currency string `json:"currency,omitempty"` // item type ID
}
