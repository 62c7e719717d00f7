package api

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mattyr/Zilliqa-Mining-Proxy/internal/stats"
)

// JSON-RPC 2.0 error codes, plus the server-defined upstream code.
const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeInternalError  = -32603
	codeUnavailable    = -32000
)

type rpcRequest struct {
	JSONRPC string          `json:"jsonrpc"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
	ID      json.RawMessage `json:"id"`
}

type rpcError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// successResponse always carries a result field, a null result means
// the queried record does not exist.
type successResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	Result  interface{}     `json:"result"`
	ID      json.RawMessage `json:"id"`
}

type errorResponse struct {
	JSONRPC string          `json:"jsonrpc"`
	Error   *rpcError       `json:"error"`
	ID      json.RawMessage `json:"id"`
}

// blockSpec accepts a block-number parameter given as a JSON number, a
// specifier string ("1,5,9", "100-103") or null.
type blockSpec string

func (b *blockSpec) UnmarshalJSON(data []byte) error {
	s := strings.TrimSpace(string(data))
	if s == "null" {
		*b = ""
		return nil
	}
	if strings.HasPrefix(s, `"`) {
		var v string
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		*b = blockSpec(v)
		return nil
	}
	// Bare number; the specifier parser validates it.
	*b = blockSpec(s)
	return nil
}

type nodeParams struct {
	PubKey string `json:"pub_key"`
}

type minerParams struct {
	WalletAddress string `json:"wallet_address"`
}

type workerParams struct {
	WalletAddress string `json:"wallet_address"`
	WorkerName    string `json:"worker_name"`
}

type hashrateParams struct {
	BlockNum      blockSpec `json:"block_num"`
	WalletAddress string    `json:"wallet_address"`
	WorkerName    string    `json:"worker_name"`
}

type rewardParams struct {
	StartBlock    *uint64 `json:"start_block"`
	EndBlock      *uint64 `json:"end_block"`
	WalletAddress *string `json:"wallet_address"`
	WorkerName    *string `json:"worker_name"`
}

// decodeParams unmarshals named or positional parameters into dst.
// Positional arrays are zipped against keys in declaration order.
func decodeParams(raw json.RawMessage, keys []string, dst interface{}) error {
	trimmed := strings.TrimSpace(string(raw))
	if trimmed == "" || trimmed == "null" {
		return nil
	}

	if strings.HasPrefix(trimmed, "[") {
		var list []json.RawMessage
		if err := json.Unmarshal(raw, &list); err != nil {
			return fmt.Errorf("%w: malformed params: %v", stats.ErrInvalidArgument, err)
		}
		if len(list) > len(keys) {
			return fmt.Errorf("%w: too many positional params, method takes %d", stats.ErrInvalidArgument, len(keys))
		}
		named := make(map[string]json.RawMessage, len(list))
		for i, v := range list {
			named[keys[i]] = v
		}
		obj, err := json.Marshal(named)
		if err != nil {
			return fmt.Errorf("%w: %v", stats.ErrInvalidArgument, err)
		}
		raw = obj
		trimmed = string(obj)
	}

	if !strings.HasPrefix(trimmed, "{") {
		return fmt.Errorf("%w: params must be an object or array", stats.ErrInvalidArgument)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return fmt.Errorf("%w: %v", stats.ErrInvalidArgument, err)
	}
	return nil
}

func requireParam(name, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%w: %s is required", stats.ErrInvalidArgument, name)
	}
	return nil
}
