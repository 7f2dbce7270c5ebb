package types

// MarketCode 交易对信息（/v1/market/all）
type MarketCode struct {
	Market        string `json:"market"`
	KoreanName    string `json:"korean_name"`
	EnglishName   string `json:"english_name"`
	MarketWarning string `json:"market_warning,omitempty"`
}

// Ticker 当前行情（/v1/ticker）
type Ticker struct {
	Market             string `json:"market"`
	TradeDate          string `json:"trade_date"`
	TradeTime          string `json:"trade_time"`
	TradeTimestamp     int64  `json:"trade_timestamp"`
	OpeningPrice       Number `json:"opening_price"`
	HighPrice          Number `json:"high_price"`
	LowPrice           Number `json:"low_price"`
	TradePrice         Number `json:"trade_price"`
	PrevClosingPrice   Number `json:"prev_closing_price"`
	Change             string `json:"change"`
	ChangePrice        Number `json:"change_price"`
	ChangeRate         Number `json:"change_rate"`
	SignedChangePrice  Number `json:"signed_change_price"`
	SignedChangeRate   Number `json:"signed_change_rate"`
	TradeVolume        Number `json:"trade_volume"`
	AccTradePrice      Number `json:"acc_trade_price"`
	AccTradePrice24h   Number `json:"acc_trade_price_24h"`
	AccTradeVolume     Number `json:"acc_trade_volume"`
	AccTradeVolume24h  Number `json:"acc_trade_volume_24h"`
	Highest52WeekPrice Number `json:"highest_52_week_price"`
	Lowest52WeekPrice  Number `json:"lowest_52_week_price"`
	Timestamp          int64  `json:"timestamp"`
}

// Candle K 线（分/日/周/月共用，部分字段只在特定周期出现）
type Candle struct {
	Market               string `json:"market"`
	CandleDateTimeUTC    string `json:"candle_date_time_utc"`
	CandleDateTimeKST    string `json:"candle_date_time_kst"`
	OpeningPrice         Number `json:"opening_price"`
	HighPrice            Number `json:"high_price"`
	LowPrice             Number `json:"low_price"`
	TradePrice           Number `json:"trade_price"`
	Timestamp            int64  `json:"timestamp"`
	CandleAccTradePrice  Number `json:"candle_acc_trade_price"`
	CandleAccTradeVolume Number `json:"candle_acc_trade_volume"`
	Unit                 int    `json:"unit,omitempty"`
	PrevClosingPrice     Number `json:"prev_closing_price,omitempty"`
	ChangePrice          Number `json:"change_price,omitempty"`
	ChangeRate           Number `json:"change_rate,omitempty"`
	FirstDayOfPeriod     string `json:"first_day_of_period,omitempty"`
}

// Account 账户资产（/v1/accounts）
type Account struct {
	Currency            string `json:"currency"`
	Balance             Number `json:"balance"`
	Locked              Number `json:"locked"`
	AvgBuyPrice         Number `json:"avg_buy_price"`
	AvgBuyPriceModified bool   `json:"avg_buy_price_modified"`
	UnitCurrency        string `json:"unit_currency"`
}
