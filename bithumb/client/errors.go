package client

import (
	"bytes"
	"encoding/json"
	"net"
	"strings"

	"github.com/pkg/errors"

	"github.com/betbot/bithumbkit/bithumb/types"
)

// 认证失败的错误名
var authErrorNames = map[string]bool{
	"invalid_query_payload": true,
	"jwt_verification":      true,
	"expired_jwt":           true,
	"invalid_timestamp":     true,
	"nonce_used":            true,
	"no_authorization_i_p":  true,
	"no_authorization_ip":   true,
	"out_of_scope":          true,
	"invalid_access_key":    true,
	"invalid_api_key":       true,
	"NotAllowIP":            true,
}

// 时钟偏差导致的认证失败，换新令牌重试一次
var clockSkewNames = map[string]bool{
	"expired_jwt":       true,
	"invalid_timestamp": true,
}

var notFoundNames = map[string]bool{
	"order_not_found":     true,
	"not_found_order":     true,
	"order_not_exist":     true,
	"not_exist_order":     true,
	"order_info_notfound": true,
}

// 旧版 status 码
var legacyStatus = map[string]types.ErrorKind{
	"5100": types.KindExchangeRejected,       // Bad Request
	"5200": types.KindAuthenticationRejected, // Not Member
	"5300": types.KindAuthenticationRejected, // Invalid Apikey
	"5302": types.KindAuthenticationRejected, // Method Not Allowed
	"5400": types.KindExchangeUnavailable,    // Database Fail
	"5500": types.KindExchangeRejected,       // Invalid Parameter
	"5600": types.KindExchangeRejected,       // CUSTOM NOTICE
	"5900": types.KindExchangeUnavailable,    // Unknown Error
}

const maxErrorBody = 256

// classifyResponse 把响应映射到错误分类，成功返回 nil
func classifyResponse(status int, body []byte) *types.Error {
	var eb types.ErrorBody
	isObject := len(bytes.TrimSpace(body)) > 0 && bytes.TrimSpace(body)[0] == '{'
	if isObject {
		_ = json.Unmarshal(body, &eb)
	}

	name, message := "", ""
	if eb.Error != nil {
		name = eb.Error.Name.String()
		message = eb.Error.Message
	}

	if status >= 200 && status < 300 {
		switch {
		case name != "":
			return classifyNamed(status, name, message)
		case eb.Status != "" && eb.Status != "0000":
			return classifyLegacy(status, eb.Status, eb.Message)
		}
		return nil
	}

	if message == "" {
		message = eb.Message
	}
	if message == "" && !isObject {
		message = truncate(strings.TrimSpace(string(body)), maxErrorBody)
	}

	switch {
	case status == 429:
		return &types.Error{Kind: types.KindRateLimited, StatusCode: status, Reason: name, Message: message}
	case status >= 500:
		return &types.Error{Kind: types.KindExchangeUnavailable, StatusCode: status, Reason: name, Message: message}
	case name == "" && eb.Status != "":
		return classifyLegacy(status, eb.Status, eb.Message)
	case name == "" && status == 401:
		return &types.Error{Kind: types.KindAuthenticationRejected, StatusCode: status, Message: message}
	case name == "" && status == 404:
		return &types.Error{Kind: types.KindOrderNotFound, StatusCode: status, Message: message}
	}
	return classifyNamed(status, name, message)
}

func classifyNamed(status int, name, message string) *types.Error {
	kind := types.KindExchangeRejected
	switch {
	case notFoundNames[name]:
		kind = types.KindOrderNotFound
	case authErrorNames[name] || status == 401:
		kind = types.KindAuthenticationRejected
	}
	return &types.Error{Kind: kind, StatusCode: status, Reason: name, Message: message}
}

func classifyLegacy(status int, code, message string) *types.Error {
	kind, ok := legacyStatus[code]
	if !ok {
		kind = types.KindExchangeRejected
	}
	return &types.Error{Kind: kind, StatusCode: status, Reason: code, Message: message}
}

// isClockSkew 令牌因时间戳被拒
func isClockSkew(e *types.Error) bool {
	return e.Kind == types.KindAuthenticationRejected && clockSkewNames[e.Reason]
}

// isDialError 连接未建立，请求一定没有到达交易所
func isDialError(err error) bool {
	var opErr *net.OpError
	if errors.As(err, &opErr) && opErr.Op == "dial" {
		return true
	}
	var dnsErr *net.DNSError
	return errors.As(err, &dnsErr)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
