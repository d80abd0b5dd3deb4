package canteen

import (
	"time"

	"github.com/google/uuid"
)

// Person is the identity the engine reasons about. Account data is owned by
// an external collaborator; the engine only reads identity and mutates the
// strike counter and restriction state.
type Person struct {
	ID      uuid.UUID `json:"id" bson:"_id"`
	Name    string    `json:"name" bson:"name"`
	Active  bool      `json:"active" bson:"active"`
	Strikes int       `json:"strikes" bson:"strikes"`

	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`
}

func (p *Person) GetID() uuid.UUID {
	return p.ID
}

func (p *Person) ResourceType() string {
	return "person"
}

func (p *Person) SetID(id uuid.UUID) {
	p.ID = id
}
