package cart

import "fmt"

// Action is the closed set of cart transitions. Only the types declared in
// this file implement it.
type Action interface {
	isAction()
	Kind() string
}

// AddItem increments the product's quantity, inserting it with qty 1 when absent.
type AddItem struct{ Product Product }

// RemoveOne decrements the product's quantity, removing it at qty 1.
type RemoveOne struct{ Product Product }

// RemoveAll removes the product regardless of quantity.
type RemoveAll struct{ Product Product }

// Load replaces the whole cart, typically with authoritative remote data.
type Load struct{ Items []LineItem }

// Clear empties the cart.
type Clear struct{}

func (AddItem) isAction()   {}
func (RemoveOne) isAction() {}
func (RemoveAll) isAction() {}
func (Load) isAction()      {}
func (Clear) isAction()     {}

func (AddItem) Kind() string   { return "ADD_ITEM" }
func (RemoveOne) Kind() string { return "REMOVE_ONE" }
func (RemoveAll) Kind() string { return "REMOVE_ALL" }
func (Load) Kind() string      { return "LOAD" }
func (Clear) Kind() string     { return "CLEAR" }

// Op is a per-item remote update.
type Op int

const (
	OpIncrement Op = iota + 1
	OpDecrement
	OpRemoveEntirely
)

func (o Op) String() string {
	switch o {
	case OpIncrement:
		return "increment"
	case OpDecrement:
		return "decrement"
	case OpRemoveEntirely:
		return "removeEntirely"
	default:
		return fmt.Sprintf("Op(%d)", int(o))
	}
}

// Intent is the remote side effect a mutation implies.
type Intent struct {
	Item LineItem
	Op   Op
}

// IntentOf maps a per-item mutation to its remote update.
// Load and Clear have no per-item intent.
func IntentOf(a Action) (Intent, bool) {
	switch act := a.(type) {
	case AddItem:
		return Intent{Item: LineItem{Product: act.Product, Qty: 1}, Op: OpIncrement}, true
	case RemoveOne:
		return Intent{Item: LineItem{Product: act.Product, Qty: 1}, Op: OpDecrement}, true
	case RemoveAll:
		return Intent{Item: LineItem{Product: act.Product}, Op: OpRemoveEntirely}, true
	default:
		return Intent{}, false
	}
}

// ApplyOp applies a single-item remote update to a cart. Stores without a
// native atomic field update run this inside their own critical section.
func ApplyOp(c Cart, item LineItem, op Op) Cart {
	var a Action
	switch op {
	case OpIncrement:
		a = AddItem{Product: item.Product}
	case OpDecrement:
		a = RemoveOne{Product: item.Product}
	case OpRemoveEntirely:
		a = RemoveAll{Product: item.Product}
	default:
		return c.Clone()
	}
	next, _, err := Reduce(c, a)
	if err != nil {
		return c.Clone()
	}
	return next
}
