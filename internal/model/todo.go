package model

import "github.com/oklog/ulid/v2"

// ID identifies a todo. ULID strings sort by creation time, so the
// stores can rely on id order as insertion order.
type ID string

func NewID() ID {
	return ID(ulid.Make().String())
}

// Todo is the domain model for a todo entry.
// Identity is the ID; Text and Completed are the mutable attributes.
type Todo struct {
	ID        ID     `json:"id"`
	Text      string `json:"text"`
	Completed bool   `json:"completed"`
}
