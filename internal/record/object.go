package record

// Object is implemented by every projected variant.
type Object interface {
	Kind() Kind
	Key() Key
}

// SettleInfoSettled marks a market whose auction has closed.
// Open markets carry 0 (no bids) or 1 + (counter << 16) while bidding.
const SettleInfoSettled uint64 = 2

// IndexedObject is a generic object stored under its executor index.
type IndexedObject struct {
	Index uint64 `json:"index,string"`
	Data  Words  `json:"data"`
}

func (o IndexedObject) Kind() Kind { return KindIndexedObject }
func (o IndexedObject) Key() Key   { return IndexedObjectKey(o.Index) }

// Position is a player's holding of one object.
type Position struct {
	PID1        uint64 `json:"pid_1,string"`
	PID2        uint64 `json:"pid_2,string"`
	ObjectIndex uint64 `json:"object_index,string"`
	Data        Words  `json:"data"`
}

func (p Position) Kind() Kind { return KindPosition }
func (p Position) Key() Key   { return PositionKey(p.PID1, p.PID2, p.ObjectIndex) }

// Player returns the owning player's identifier.
func (p Position) Player() PlayerID { return PlayerID{p.PID1, p.PID2} }

// Nugget is a collectible. MarketID is non-zero while the nugget is listed.
type Nugget struct {
	ID         uint64 `json:"id,string"`
	Attributes uint64 `json:"attributes,string"`
	Cycle      uint64 `json:"cycle,string"`
	Feature    uint64 `json:"feature,string"`
	SysPrice   uint64 `json:"sysprice,string"`
	MarketID   uint64 `json:"marketid,string"`
}

func (n Nugget) Kind() Kind { return KindNugget }
func (n Nugget) Key() Key   { return NuggetKey(n.ID) }

// Bid is the current highest bid on a market.
type Bid struct {
	Price  uint64   `json:"bidprice,string"`
	Bidder PlayerID `json:"bidder"`
}

// Market is an auction listing of one nugget.
type Market struct {
	MarketID   uint64   `json:"marketid,string"`
	AskPrice   uint64   `json:"askprice,string"`
	SettleInfo uint64   `json:"settleinfo,string"`
	Bid        *Bid     `json:"bidder,omitempty"`
	Owner      PlayerID `json:"owner"`
	Object     Nugget   `json:"object"`
}

func (m Market) Kind() Kind { return KindMarket }
func (m Market) Key() Key   { return MarketKey(m.MarketID) }

// Settled reports whether the auction has closed.
func (m Market) Settled() bool { return m.SettleInfo == SettleInfoSettled }
