package types

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/shopspring/decimal"
)

// Side 订单方向（交易所原始编码）
type Side string

const (
	SideBid Side = "bid" // 买入
	SideAsk Side = "ask" // 卖出
)

// OrdType 下单类型（交易所原始编码）
type OrdType string

const (
	OrdTypeLimit  OrdType = "limit"  // 限价：volume + price
	OrdTypePrice  OrdType = "price"  // 市价买入：price 为总金额
	OrdTypeMarket OrdType = "market" // 市价卖出：只传 volume
)

// OrderState 交易所订单状态
type OrderState string

const (
	OrderStateWait   OrderState = "wait"   // 挂单中
	OrderStateWatch  OrderState = "watch"  // 预约单（触发前）
	OrderStateDone   OrderState = "done"   // 全部成交
	OrderStateCancel OrderState = "cancel" // 已取消
)

// Credentials API 密钥凭证
type Credentials struct {
	AccessKey string
	SecretKey string
}

// Valid 两个 key 都必须存在
func (c Credentials) Valid() bool {
	return strings.TrimSpace(c.AccessKey) != "" && strings.TrimSpace(c.SecretKey) != ""
}

// String 打印时隐藏密钥
func (c Credentials) String() string {
	if c.AccessKey == "" {
		return "Credentials{<empty>}"
	}
	return "Credentials{access_key=" + mask(c.AccessKey) + ", secret_key=***}"
}

// GoString 防止 %#v 泄露密钥
func (c Credentials) GoString() string {
	return c.String()
}

func mask(s string) string {
	if len(s) <= 4 {
		return "***"
	}
	return s[:4] + "***"
}

// Number 兼容 JSON 数字与字符串两种编码
// 交易所对价格/数量字段有时返回 "5000"，有时返回 5000
type Number string

// UnmarshalJSON 实现 json.Unmarshaler
func (n *Number) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*n = ""
		return nil
	}
	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*n = Number(strings.TrimSpace(s))
		return nil
	}
	*n = Number(data)
	return nil
}

// String 原始字符串
func (n Number) String() string {
	return string(n)
}

// Decimal 转换为 decimal，空值或非法值返回 0
func (n Number) Decimal() decimal.Decimal {
	if n == "" {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(string(n))
	if err != nil {
		return decimal.Zero
	}
	return d
}
