package chain

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"time"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
)

// ErrReverted is returned for a mined transaction whose execution failed.
var ErrReverted = errors.New("transaction reverted")

// ErrChainMismatch is returned when an RPC endpoint serves another chain than
// the one a pool is indexed on.
var ErrChainMismatch = errors.New("chain id mismatch")

// ChainReader reports the chain an endpoint serves and its head block.
type ChainReader interface {
	ChainID(ctx context.Context) (*big.Int, error)
	LatestBlockNumber(ctx context.Context) (uint64, error)
}

// Caller performs read-only contract calls.
type Caller interface {
	CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
}

// ReceiptReader looks up transaction receipts.
type ReceiptReader interface {
	TransactionReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error)
}

// Client wraps go-ethereum RPC for the reads poolscope needs.
type Client struct {
	rpcClient *rpc.Client
	ethClient *ethclient.Client
}

// NewClient creates a new chain client from the RPC URL.
func NewClient(ctx context.Context, rpcURL string) (*Client, error) {
	rpcClient, err := rpc.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("dial rpc: %w", err)
	}

	return &Client{
		rpcClient: rpcClient,
		ethClient: ethclient.NewClient(rpcClient),
	}, nil
}

// Close closes the underlying RPC client.
func (c *Client) Close() {
	if c.rpcClient != nil {
		c.rpcClient.Close()
	}
}

// ChainID returns the chain ID.
func (c *Client) ChainID(ctx context.Context) (*big.Int, error) {
	return c.ethClient.ChainID(ctx)
}

// LatestBlockNumber returns the latest block number.
func (c *Client) LatestBlockNumber(ctx context.Context) (uint64, error) {
	return c.ethClient.BlockNumber(ctx)
}

// TransactionReceipt returns the receipt of a mined transaction.
func (c *Client) TransactionReceipt(ctx context.Context, hash common.Hash) (*types.Receipt, error) {
	return c.ethClient.TransactionReceipt(ctx, hash)
}

// CallContract performs an eth_call for a contract method.
func (c *Client) CallContract(ctx context.Context, msg ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	return c.ethClient.CallContract(ctx, msg, blockNumber)
}

// CheckChainID fails with ErrChainMismatch unless the endpoint serves want.
func CheckChainID(ctx context.Context, reader ChainReader, want uint64) error {
	got, err := reader.ChainID(ctx)
	if err != nil {
		return fmt.Errorf("read chain id: %w", err)
	}
	if !got.IsUint64() || got.Uint64() != want {
		return fmt.Errorf("%w: rpc serves %s, pool is on %d", ErrChainMismatch, got, want)
	}
	return nil
}

// IndexLag returns the head block and how many blocks indexed trails it.
// An index ahead of the endpoint has no lag.
func IndexLag(ctx context.Context, reader ChainReader, indexed uint64) (head, lag uint64, err error) {
	head, err = reader.LatestBlockNumber(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("read head block: %w", err)
	}
	if head > indexed {
		lag = head - indexed
	}
	return head, lag, nil
}

// ReceiptBlock returns the block a transaction was mined in.
func ReceiptBlock(ctx context.Context, reader ReceiptReader, hash common.Hash) (uint64, error) {
	receipt, err := reader.TransactionReceipt(ctx, hash)
	if err != nil {
		return 0, err
	}
	if receipt.Status != types.ReceiptStatusSuccessful {
		return 0, fmt.Errorf("%w: %s", ErrReverted, hash.Hex())
	}
	if receipt.BlockNumber == nil {
		return 0, fmt.Errorf("receipt of %s has no block number", hash.Hex())
	}
	return receipt.BlockNumber.Uint64(), nil
}

// WaitReceiptBlock polls until the transaction is mined and returns its block.
func WaitReceiptBlock(ctx context.Context, reader ReceiptReader, hash common.Hash, interval time.Duration) (uint64, error) {
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		block, err := ReceiptBlock(ctx, reader, hash)
		if err == nil {
			return block, nil
		}
		if !errors.Is(err, ethereum.NotFound) {
			return 0, err
		}

		select {
		case <-ctx.Done():
			return 0, ctx.Err()
		case <-ticker.C:
		}
	}
}
