package types

import (
	"bytes"
	"encoding/json"
	"net/url"
	"sort"
	"strings"
)

// Param 单个请求参数
type Param struct {
	Key   string
	Value string
}

// Params 有序参数表
//
// 签名使用的规范串按 key 排序（同名 key 保持插入顺序），因此插入顺序不影响签名；
// GET/DELETE 直接把 Encode() 结果作为 raw query 发送，POST 以相同顺序序列化为 JSON，
// 保证发送内容与 query_hash 的输入完全一致。
type Params struct {
	items []Param
}

// NewParams 创建参数表
func NewParams() *Params {
	return &Params{}
}

// Add 追加参数（允许重复 key，例如 uuids[]）
func (p *Params) Add(key, value string) *Params {
	p.items = append(p.items, Param{Key: key, Value: value})
	return p
}

// Set 覆盖同名参数
func (p *Params) Set(key, value string) *Params {
	out := p.items[:0]
	for _, it := range p.items {
		if it.Key != key {
			out = append(out, it)
		}
	}
	p.items = append(out, Param{Key: key, Value: value})
	return p
}

// Get 返回第一个同名参数
func (p *Params) Get(key string) string {
	if p == nil {
		return ""
	}
	for _, it := range p.items {
		if it.Key == key {
			return it.Value
		}
	}
	return ""
}

// Len 参数个数
func (p *Params) Len() int {
	if p == nil {
		return 0
	}
	return len(p.items)
}

// Canonical 返回规范顺序的参数副本
func (p *Params) Canonical() []Param {
	if p == nil {
		return nil
	}
	out := make([]Param, len(p.items))
	copy(out, p.items)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Key < out[j].Key })
	return out
}

// Encode 规范查询串：key 原样输出（均为 ASCII 常量，含 []），value 按 form 编码
func (p *Params) Encode() string {
	items := p.Canonical()
	if len(items) == 0 {
		return ""
	}
	var b strings.Builder
	for i, it := range items {
		if i > 0 {
			b.WriteByte('&')
		}
		b.WriteString(it.Key)
		b.WriteByte('=')
		b.WriteString(url.QueryEscape(it.Value))
	}
	return b.String()
}

// MarshalJSON 以规范顺序输出 JSON 对象；以 [] 结尾的 key 输出为数组
func (p *Params) MarshalJSON() ([]byte, error) {
	items := p.Canonical()
	var buf bytes.Buffer
	buf.WriteByte('{')
	written := 0
	for i := 0; i < len(items); {
		key := items[i].Key
		j := i
		for j < len(items) && items[j].Key == key {
			j++
		}
		if written > 0 {
			buf.WriteByte(',')
		}
		name := strings.TrimSuffix(key, "[]")
		kb, _ := json.Marshal(name)
		buf.Write(kb)
		buf.WriteByte(':')
		if strings.HasSuffix(key, "[]") || j-i > 1 {
			vals := make([]string, 0, j-i)
			for _, it := range items[i:j] {
				vals = append(vals, it.Value)
			}
			vb, err := json.Marshal(vals)
			if err != nil {
				return nil, err
			}
			buf.Write(vb)
		} else {
			vb, err := json.Marshal(items[i].Value)
			if err != nil {
				return nil, err
			}
			buf.Write(vb)
		}
		written++
		i = j
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// Request 一次 API 调用的请求描述，构建后不再修改，由 Transport 消费
type Request struct {
	Method string
	Path   string
	Params *Params

	// Private 需要 JWT 认证
	Private bool
	// RetryUnsafe 非幂等请求（下单）：只在请求确定未到达交易所时重试
	RetryUnsafe bool
	// Limit 速率限制分组
	Limit string
}

// QueryString 规范查询串
func (r *Request) QueryString() string {
	if r == nil || r.Params == nil {
		return ""
	}
	return r.Params.Encode()
}

// AuthToken 单次请求的认证令牌，每次尝试重新生成
type AuthToken struct {
	Nonce     string
	Timestamp int64
	QueryHash string
	Token     string
}

// Header Authorization 头的值
func (t *AuthToken) Header() string {
	return "Bearer " + t.Token
}
