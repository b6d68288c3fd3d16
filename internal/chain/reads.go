package chain

import (
	"bytes"
	"context"
	"fmt"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"go.uber.org/zap"

	"poolScope/internal/model"
)

func call(ctx context.Context, caller Caller, to common.Address, parsed abi.ABI, method string, block *big.Int, args ...interface{}) ([]interface{}, error) {
	if caller == nil {
		return nil, fmt.Errorf("chain client is nil")
	}
	data, err := parsed.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}
	msg := ethereum.CallMsg{To: &to, Data: data}
	resp, err := caller.CallContract(ctx, msg, block)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", method, err)
	}
	values, err := parsed.Unpack(method, resp)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", method, err)
	}
	if len(values) != 1 {
		return nil, fmt.Errorf("%s return size %d", method, len(values))
	}
	return values, nil
}

// OraclePrice reads latestPrice() from a pool oracle. The result is in
// model.PriceDecimals.
func OraclePrice(ctx context.Context, caller Caller, oracle common.Address) (*big.Int, error) {
	parsed, err := oracleABI.get()
	if err != nil {
		return nil, fmt.Errorf("parse oracle abi: %w", err)
	}
	values, err := call(ctx, caller, oracle, parsed, "latestPrice", nil)
	if err != nil {
		return nil, err
	}
	return asBigInt(values[0])
}

// BalanceOf reads an ERC20 balance. A nil block reads the latest state.
func BalanceOf(ctx context.Context, caller Caller, token, owner common.Address, block *big.Int) (*big.Int, error) {
	parsed, err := erc20ABIString.get()
	if err != nil {
		return nil, fmt.Errorf("parse erc20 abi: %w", err)
	}
	values, err := call(ctx, caller, token, parsed, "balanceOf", block, owner)
	if err != nil {
		return nil, err
	}
	return asBigInt(values[0])
}

// FetchTokenMeta loads token metadata via ERC20 calls. Symbol and name fall
// back to the bytes32 encoding some older tokens use.
func FetchTokenMeta(ctx context.Context, caller Caller, token common.Address, logger *zap.Logger) (model.Token, error) {
	meta := model.Token{Address: token.Hex()}
	if logger == nil {
		logger = zap.NewNop()
	}

	stringABI, err := erc20ABIString.get()
	if err != nil {
		return meta, fmt.Errorf("parse erc20 string abi: %w", err)
	}
	bytes32ABI, err := erc20ABIBytes32.get()
	if err != nil {
		return meta, fmt.Errorf("parse erc20 bytes32 abi: %w", err)
	}

	values, err := call(ctx, caller, token, stringABI, "decimals", nil)
	if err != nil {
		return meta, err
	}
	decimals, err := asUint8(values[0])
	if err != nil {
		return meta, err
	}
	meta.Decimals = decimals

	meta.Symbol = readText(ctx, caller, token, "symbol", stringABI, bytes32ABI, logger)
	meta.Name = readText(ctx, caller, token, "name", stringABI, bytes32ABI, logger)
	return meta, nil
}

func readText(ctx context.Context, caller Caller, token common.Address, method string, stringABI, bytes32ABI abi.ABI, logger *zap.Logger) string {
	if values, err := call(ctx, caller, token, stringABI, method, nil); err == nil {
		if text, ok := values[0].(string); ok {
			return text
		}
	}
	values, err := call(ctx, caller, token, bytes32ABI, method, nil)
	if err != nil {
		logger.Debug(method+" call failed", zap.String("token", token.Hex()), zap.Error(err))
		return ""
	}
	text, _ := bytes32ToString(values[0])
	return text
}

// TokenMetaCache caches token metadata by address.
type TokenMetaCache struct {
	caller Caller
	logger *zap.Logger

	mu   sync.RWMutex
	data map[common.Address]model.Token
}

func NewTokenMetaCache(caller Caller, logger *zap.Logger) *TokenMetaCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TokenMetaCache{caller: caller, logger: logger, data: make(map[common.Address]model.Token)}
}

// Get returns cached metadata, fetching it on first use.
func (c *TokenMetaCache) Get(ctx context.Context, token common.Address) (model.Token, error) {
	c.mu.RLock()
	meta, ok := c.data[token]
	c.mu.RUnlock()
	if ok {
		return meta, nil
	}

	meta, err := FetchTokenMeta(ctx, c.caller, token, c.logger)
	if err != nil {
		return meta, err
	}
	c.mu.Lock()
	c.data[token] = meta
	c.mu.Unlock()
	return meta, nil
}

func bytes32ToString(value interface{}) (string, bool) {
	switch v := value.(type) {
	case [32]byte:
		return string(bytes.TrimRight(v[:], "\x00")), true
	case []byte:
		return string(bytes.TrimRight(v, "\x00")), true
	default:
		return "", false
	}
}

func asBigInt(value interface{}) (*big.Int, error) {
	switch v := value.(type) {
	case *big.Int:
		return new(big.Int).Set(v), nil
	case uint8:
		return new(big.Int).SetUint64(uint64(v)), nil
	case uint64:
		return new(big.Int).SetUint64(v), nil
	default:
		return nil, fmt.Errorf("unsupported int type %T", value)
	}
}

func asUint8(value interface{}) (uint8, error) {
	switch v := value.(type) {
	case uint8:
		return v, nil
	case *big.Int:
		if !v.IsUint64() || v.Uint64() > 255 {
			return 0, fmt.Errorf("uint8 overflow: %s", v)
		}
		return uint8(v.Uint64()), nil
	default:
		return 0, fmt.Errorf("unsupported uint8 type %T", value)
	}
}
