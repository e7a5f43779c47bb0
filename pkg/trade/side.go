package trade

// Side identifies one of the two offer lists of a trade.
type Side int

const (
	// Theirs holds what the counterparty offers to the player.
	Theirs Side = iota
	// Yours holds what the player offers to the counterparty.
	Yours
)

// Sides lists both sides in display order.
var Sides = [2]Side{Theirs, Yours}

func (s Side) String() string {
	if s == Theirs {
		return "theirs"
	}
	return "yours"
}

// Other returns the opposite side.
func (s Side) Other() Side {
	if s == Theirs {
		return Yours
	}
	return Theirs
}

// balanceSign is the direction an offer on this side moves the balance.
// Taking their goods puts the player in debt; giving goods earns credit.
func (s Side) balanceSign() int {
	if s == Theirs {
		return -1
	}
	return 1
}

// capacitySign is the direction an offer on this side moves the
// counterparty's free capacity.
func (s Side) capacitySign() int64 {
	if s == Theirs {
		return 1
	}
	return -1
}
