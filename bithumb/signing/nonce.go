package signing

import (
	"crypto/rand"
	"encoding/binary"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// NonceSource nonce 生成器，必须支持并发调用
type NonceSource interface {
	Next() string
}

// SequenceNonce UUIDv7 布局的 nonce：
//
//	48 bit 毫秒时间戳 | 4 bit 版本 | 12 bit 实例随机数 | 2 bit 变体 | 62 bit 原子计数
//
// 同一实例内计数器保证唯一（同一毫秒的并发调用也不会重复），实例随机数区分进程。
type SequenceNonce struct {
	seq  atomic.Uint64
	node uint16
	now  func() time.Time
}

// NewSequenceNonce 创建 nonce 序列
func NewSequenceNonce() *SequenceNonce {
	var b [2]byte
	_, _ = rand.Read(b[:])
	return &SequenceNonce{
		node: binary.BigEndian.Uint16(b[:]) & 0x0fff,
		now:  time.Now,
	}
}

// Next 生成下一个 nonce
func (s *SequenceNonce) Next() string {
	n := s.seq.Add(1)
	ms := uint64(s.now().UnixMilli())

	var u uuid.UUID
	u[0] = byte(ms >> 40)
	u[1] = byte(ms >> 32)
	u[2] = byte(ms >> 24)
	u[3] = byte(ms >> 16)
	u[4] = byte(ms >> 8)
	u[5] = byte(ms)
	u[6] = 0x70 | byte(s.node>>8)
	u[7] = byte(s.node)
	binary.BigEndian.PutUint64(u[8:], n)
	u[8] = (u[8] & 0x3f) | 0x80

	return u.String()
}

// Issued 已发出的 nonce 数量
func (s *SequenceNonce) Issued() uint64 {
	return s.seq.Load()
}

// RandomNonce 随机 UUIDv4，与官方示例一致；唯一性依赖随机数
type RandomNonce struct{}

// Next 生成随机 nonce
func (RandomNonce) Next() string {
	return uuid.NewString()
}
