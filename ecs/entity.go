package ecs

import "fmt"

// Entity is a generation-tagged handle. A destroyed entity's handle stays
// invalid even after its id is reused.
type Entity struct {
	ID  int `json:"id"`
	Gen int `json:"gen"`
}

func (e Entity) String() string {
	return fmt.Sprintf("%d:%d", e.ID, e.Gen)
}

func (e Entity) Valid() bool {
	return e.ID > 0
}
