package types

// OrderResponse 订单（下单、查询、撤单、列表共用）
type OrderResponse struct {
	UUID            string     `json:"uuid"`
	Side            Side       `json:"side"`
	OrdType         OrdType    `json:"ord_type"`
	Price           Number     `json:"price"`
	State           OrderState `json:"state"`
	Market          string     `json:"market"`
	CreatedAt       string     `json:"created_at"`
	Volume          Number     `json:"volume"`
	RemainingVolume Number     `json:"remaining_volume"`
	ReservedFee     Number     `json:"reserved_fee"`
	RemainingFee    Number     `json:"remaining_fee"`
	PaidFee         Number     `json:"paid_fee"`
	Locked          Number     `json:"locked"`
	ExecutedVolume  Number     `json:"executed_volume"`
	TradesCount     int        `json:"trades_count"`
	Trades          []Trade    `json:"trades,omitempty"`
}

// Trade 订单下的成交明细（仅单笔查询返回）
type Trade struct {
	Market    string `json:"market"`
	UUID      string `json:"uuid"`
	Price     Number `json:"price"`
	Volume    Number `json:"volume"`
	Funds     Number `json:"funds"`
	Side      Side   `json:"side"`
	CreatedAt string `json:"created_at"`
}

// OrderListParams 订单列表查询参数
type OrderListParams struct {
	Market  string
	UUIDs   []string
	State   OrderState
	States  []OrderState
	Page    int
	Limit   int
	OrderBy string // asc | desc
}

// OrderChance 下单可用信息（手续费、市场限制、账户余额）
type OrderChance struct {
	BidFee      Number            `json:"bid_fee"`
	AskFee      Number            `json:"ask_fee"`
	MakerBidFee Number            `json:"maker_bid_fee"`
	MakerAskFee Number            `json:"maker_ask_fee"`
	Market      OrderChanceMarket `json:"market"`
	BidAccount  Account           `json:"bid_account"`
	AskAccount  Account           `json:"ask_account"`
}

// OrderChanceMarket 市场下单限制
type OrderChanceMarket struct {
	ID         string              `json:"id"`
	Name       string              `json:"name"`
	OrderTypes []string            `json:"order_types"`
	AskTypes   []string            `json:"ask_types"`
	BidTypes   []string            `json:"bid_types"`
	OrderSides []string            `json:"order_sides"`
	Bid        OrderChanceCurrency `json:"bid"`
	Ask        OrderChanceCurrency `json:"ask"`
	MaxTotal   Number              `json:"max_total"`
	State      string              `json:"state"`
}

// OrderChanceCurrency 单边限制
type OrderChanceCurrency struct {
	Currency  string `json:"currency"`
	PriceUnit Number `json:"price_unit"`
	MinTotal  Number `json:"min_total"`
}
