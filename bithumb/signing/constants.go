package signing

const (
	// AuthorizationHeader 私有接口认证头
	AuthorizationHeader = "Authorization"

	// QueryHashAlg query_hash 摘要算法名（写入 JWT payload）
	QueryHashAlg = "SHA512"
)
