package model

// EntityKind distinguishes the three kinds of zone residents (§3).
type EntityKind string

const (
	EntityPlayer    EntityKind = "player"
	EntityNpc       EntityKind = "npc"
	EntityCompanion EntityKind = "companion"
)

// Entity is a resident of a Zone Manager's entity table (§3). Mutation is
// only safe from the owning zone's single-writer actor (§5); Entity
// itself carries no lock.
type Entity struct {
	ID           string
	Name         string
	Kind         EntityKind
	Position     Position
	SocketHandle string // empty = no attached socket (NPCs, un-inhabited companions)
	InCombat     bool
	IsMachine    bool
}

// HasSocket reports whether the entity currently has an attached gateway
// socket (present for players, and for companions currently inhabited).
func (e *Entity) HasSocket() bool {
	return e.SocketHandle != ""
}
