package hooks

import (
	"sync"
	"sync/atomic"

	"github.com/mesh-intelligence/wardrobe/internal/game"
)

// DrawObjects remembers which actor created each draw object, so path
// resolutions that only see the draw object recover its collection.
type DrawObjects struct {
	owners sync.Map // draw object -> actor address
	size   atomic.Int64
}

// Track records that actor created obj.
func (t *DrawObjects) Track(obj, actor game.Address) {
	if _, loaded := t.owners.Swap(obj, actor); !loaded {
		t.size.Add(1)
	}
}

// Actor returns the actor that created obj.
func (t *DrawObjects) Actor(obj game.Address) (game.Address, bool) {
	v, ok := t.owners.Load(obj)
	if !ok {
		return 0, false
	}
	return v.(game.Address), true
}

// Forget drops obj.
func (t *DrawObjects) Forget(obj game.Address) {
	if _, loaded := t.owners.LoadAndDelete(obj); loaded {
		t.size.Add(-1)
	}
}

// ForgetActor drops every draw object of actor and returns how many there
// were.
func (t *DrawObjects) ForgetActor(actor game.Address) int {
	n := 0
	t.owners.Range(func(k, v any) bool {
		if v.(game.Address) == actor {
			if _, loaded := t.owners.LoadAndDelete(k); loaded {
				t.size.Add(-1)
				n++
			}
		}
		return true
	})
	return n
}

// Len returns the number of tracked draw objects.
func (t *DrawObjects) Len() int { return int(t.size.Load()) }
