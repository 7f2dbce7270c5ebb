package signing

import (
	"crypto/sha512"
	"encoding/hex"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/betbot/bithumbkit/bithumb/types"
)

// Signer 为私有请求生成认证令牌
// Transport 只依赖这一个能力，更换签名版本或交易所时只需替换实现
type Signer interface {
	Sign(req *types.Request) (*types.AuthToken, error)
}

// Claims JWT payload
type Claims struct {
	jwt.RegisteredClaims
	AccessKey    string `json:"access_key"`
	Nonce        string `json:"nonce"`
	Timestamp    int64  `json:"timestamp"`
	QueryHash    string `json:"query_hash,omitempty"`
	QueryHashAlg string `json:"query_hash_alg,omitempty"`
}

// JWTSigner API 2.0 签名：HS256(secret, {access_key, nonce, timestamp, query_hash})
type JWTSigner struct {
	creds  types.Credentials
	nonces NonceSource
	now    func() time.Time
}

// Option 签名器选项
type Option func(*JWTSigner)

// WithNonceSource 替换 nonce 生成器
func WithNonceSource(n NonceSource) Option {
	return func(s *JWTSigner) {
		if n != nil {
			s.nonces = n
		}
	}
}

// WithClock 替换时钟（测试用）
func WithClock(now func() time.Time) Option {
	return func(s *JWTSigner) {
		if now != nil {
			s.now = now
		}
	}
}

// NewJWTSigner 创建签名器，每个凭证实例独占一个 nonce 序列
func NewJWTSigner(creds types.Credentials, opts ...Option) (*JWTSigner, error) {
	if !creds.Valid() {
		return nil, types.NewError(types.KindConfiguration, "access key and secret key are required")
	}
	s := &JWTSigner{
		creds:  creds,
		nonces: NewSequenceNonce(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// AccessKey 返回 access key（不返回 secret）
func (s *JWTSigner) AccessKey() string {
	return s.creds.AccessKey
}

// Sign 消耗一个 nonce 生成新令牌
func (s *JWTSigner) Sign(req *types.Request) (*types.AuthToken, error) {
	if s == nil || !s.creds.Valid() {
		return nil, types.NewError(types.KindConfiguration, "signer has no credentials")
	}
	return s.SignAt(req, s.nonces.Next(), s.now().UnixMilli())
}

// SignAt 纯函数：相同的 (凭证, 请求, nonce, 时间戳) 产生相同的令牌
func (s *JWTSigner) SignAt(req *types.Request, nonce string, timestamp int64) (*types.AuthToken, error) {
	if !s.creds.Valid() {
		return nil, types.NewError(types.KindConfiguration, "signer has no credentials")
	}

	claims := Claims{
		AccessKey: s.creds.AccessKey,
		Nonce:     nonce,
		Timestamp: timestamp,
	}
	if query := req.QueryString(); query != "" {
		claims.QueryHash = QueryHash(query)
		claims.QueryHashAlg = QueryHashAlg
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.creds.SecretKey))
	if err != nil {
		return nil, types.WrapError(types.KindConfiguration, err, "sign jwt")
	}

	return &types.AuthToken{
		Nonce:     nonce,
		Timestamp: timestamp,
		QueryHash: claims.QueryHash,
		Token:     token,
	}, nil
}

// QueryHash hex(SHA512(规范查询串))
func QueryHash(query string) string {
	sum := sha512.Sum512([]byte(query))
	return hex.EncodeToString(sum[:])
}
