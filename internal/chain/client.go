package chain

import (
	"context"
	"fmt"
	"math/big"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/ethereum/go-ethereum/rpc"
)

const cacheLimit = 100_000

// Client reads token logs and the block and transaction metadata needed to
// render them.
type Client struct {
	rpcClient *rpc.Client
	eth       *ethclient.Client

	timestamps *boundedCache[uint64, uint64]
	senders    *boundedCache[common.Hash, common.Address]
}

// NewClient dials rpcURL.
func NewClient(ctx context.Context, rpcURL string) (*Client, error) {
	rpcClient, err := rpc.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("dial rpc: %w", err)
	}

	return &Client{
		rpcClient:  rpcClient,
		eth:        ethclient.NewClient(rpcClient),
		timestamps: newBoundedCache[uint64, uint64](cacheLimit),
		senders:    newBoundedCache[common.Hash, common.Address](cacheLimit),
	}, nil
}

func (c *Client) Close() {
	if c.rpcClient != nil {
		c.rpcClient.Close()
	}
}

func (c *Client) ChainID(ctx context.Context) (*big.Int, error) {
	return c.eth.ChainID(ctx)
}

// LatestBlockNumber returns the chain head.
func (c *Client) LatestBlockNumber(ctx context.Context) (uint64, error) {
	return c.eth.BlockNumber(ctx)
}

// BlockTimestamp returns the unix time of block number.
func (c *Client) BlockTimestamp(ctx context.Context, number uint64) (uint64, error) {
	if ts, ok := c.timestamps.get(number); ok {
		return ts, nil
	}

	header, err := c.eth.HeaderByNumber(ctx, new(big.Int).SetUint64(number))
	if err != nil {
		return 0, fmt.Errorf("header %d: %w", number, err)
	}
	c.timestamps.put(number, header.Time)
	return header.Time, nil
}

// TransactionSender returns the from address of a mined transaction. The
// block hash and index let the node answer from the block when it has
// already recovered the sender.
func (c *Client) TransactionSender(ctx context.Context, txHash, blockHash common.Hash, txIndex uint) (common.Address, error) {
	if sender, ok := c.senders.get(txHash); ok {
		return sender, nil
	}

	tx, _, err := c.eth.TransactionByHash(ctx, txHash)
	if err != nil {
		return common.Address{}, fmt.Errorf("transaction %s: %w", txHash.Hex(), err)
	}
	sender, err := c.eth.TransactionSender(ctx, tx, blockHash, txIndex)
	if err != nil {
		return common.Address{}, fmt.Errorf("transaction sender %s: %w", txHash.Hex(), err)
	}
	c.senders.put(txHash, sender)
	return sender, nil
}

// FilterLogs returns the logs emitted by addresses in [fromBlock, toBlock]
// whose first topic is one of topic0.
func (c *Client) FilterLogs(
	ctx context.Context,
	fromBlock uint64,
	toBlock uint64,
	addresses []common.Address,
	topic0 []common.Hash,
) ([]types.Log, error) {
	query := ethereum.FilterQuery{
		FromBlock: new(big.Int).SetUint64(fromBlock),
		ToBlock:   new(big.Int).SetUint64(toBlock),
		Addresses: addresses,
	}
	if len(topic0) > 0 {
		query.Topics = [][]common.Hash{topic0}
	}
	return c.eth.FilterLogs(ctx, query)
}
