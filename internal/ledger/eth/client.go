// Package eth implements the ledger client against an Ethereum-compatible
// node and a single ERC-20 asset contract.
package eth

import (
	"context"
	"crypto/ecdsa"
	"fmt"
	"math/big"
	"strings"
	"sync"

	goethereum "github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/accounts/abi/bind"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/ethereum/go-ethereum/ethclient"

	"github.com/ayo6706/token-payout/internal/ledger"
)

// transferGasLimit is a generous fixed ceiling for a token transfer; unused
// gas is refunded, so overshooting only affects the per-transaction cap.
const transferGasLimit = 4_300_000

// Client talks to one asset contract from one funding account. Nonces are
// assigned from a local counter seeded with the account's pending nonce at
// construction, in Submit call order, so the network serializes same-account
// submissions even while many transfers are pending at once.
type Client struct {
	rpc      *ethclient.Client
	contract common.Address
	account  common.Address
	key      *ecdsa.PrivateKey
	signer   types.Signer
	abi      abi.ABI
	gasPrice *big.Int

	mu    sync.Mutex
	nonce uint64
}

var _ ledger.Client = (*Client)(nil)

// Dial connects to the node, loads the signing key and seeds the local nonce
// counter. gasPrice is fixed for the whole run once GasPrice is first called.
func Dial(ctx context.Context, nodeURL, contractHex, privateKeyHex string) (*Client, error) {
	rpc, err := ethclient.DialContext(ctx, nodeURL)
	if err != nil {
		return nil, fmt.Errorf("dial node: %w", err)
	}

	key, err := crypto.HexToECDSA(strings.TrimPrefix(privateKeyHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("parse private key: %w", err)
	}
	account := crypto.PubkeyToAddress(key.PublicKey)

	chainID, err := rpc.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("query chain id: %w", err)
	}

	parsed, err := abi.JSON(strings.NewReader(erc20ABI))
	if err != nil {
		return nil, fmt.Errorf("parse token abi: %w", err)
	}

	nonce, err := rpc.PendingNonceAt(ctx, account)
	if err != nil {
		return nil, fmt.Errorf("query pending nonce: %w", err)
	}

	return &Client{
		rpc:      rpc,
		contract: common.HexToAddress(contractHex),
		account:  account,
		key:      key,
		signer:   types.LatestSignerForChainID(chainID),
		abi:      parsed,
		nonce:    nonce,
	}, nil
}

// Account returns the funding account address.
func (c *Client) Account() string {
	return c.account.Hex()
}

// GasPrice returns the node's suggested gas price in wei. The first result
// is cached; the run prices every transfer at the startup snapshot.
func (c *Client) GasPrice(ctx context.Context) (*big.Int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.gasPrice != nil {
		return new(big.Int).Set(c.gasPrice), nil
	}
	price, err := c.rpc.SuggestGasPrice(ctx)
	if err != nil {
		return nil, fmt.Errorf("suggest gas price: %w", err)
	}
	c.gasPrice = price
	return new(big.Int).Set(price), nil
}

// AssetDecimals queries the contract's decimals.
func (c *Client) AssetDecimals(ctx context.Context) (uint8, error) {
	vals, err := c.call(ctx, "decimals")
	if err != nil {
		return 0, err
	}
	out, ok := vals[0].(uint8)
	if !ok {
		return 0, fmt.Errorf("decimals returned unexpected type %T", vals[0])
	}
	return out, nil
}

// Balance queries the funding account's token balance in base units.
func (c *Client) Balance(ctx context.Context) (*big.Int, error) {
	vals, err := c.call(ctx, "balanceOf", c.account)
	if err != nil {
		return nil, err
	}
	out, ok := vals[0].(*big.Int)
	if !ok {
		return nil, fmt.Errorf("balanceOf returned unexpected type %T", vals[0])
	}
	return out, nil
}

// Submit signs and broadcasts one transfer and waits for its receipt in a
// background goroutine. The nonce is claimed before returning, so Submit
// call order fixes on-chain ordering. Exactly one continuation fires; there
// is no cancellation and no deadline on the receipt wait.
func (c *Client) Submit(recipient string, baseAmount *big.Int, onReceipt func(ledger.Receipt), onError func(error)) {
	c.mu.Lock()
	nonce := c.nonce
	c.nonce++
	gasPrice := c.gasPrice
	c.mu.Unlock()

	go func() {
		if gasPrice == nil {
			onError(fmt.Errorf("gas price not initialized"))
			return
		}
		data, err := c.abi.Pack("transfer", common.HexToAddress(recipient), baseAmount)
		if err != nil {
			onError(fmt.Errorf("encode transfer: %w", err))
			return
		}

		tx := types.NewTx(&types.LegacyTx{
			Nonce:    nonce,
			GasPrice: gasPrice,
			Gas:      transferGasLimit,
			To:       &c.contract,
			Data:     data,
		})
		signed, err := types.SignTx(tx, c.signer, c.key)
		if err != nil {
			onError(fmt.Errorf("sign transfer: %w", err))
			return
		}

		ctx := context.Background()
		if err := c.rpc.SendTransaction(ctx, signed); err != nil {
			onError(fmt.Errorf("send transfer: %w", err))
			return
		}

		receipt, err := bind.WaitMined(ctx, c.rpc, signed)
		if err != nil {
			onError(fmt.Errorf("await receipt: %w", err))
			return
		}

		onReceipt(ledger.Receipt{
			Hash:     receipt.TxHash.Hex(),
			GasUsed:  receipt.GasUsed,
			Reverted: receipt.Status == types.ReceiptStatusFailed,
		})
	}()
}

func (c *Client) call(ctx context.Context, method string, args ...any) ([]any, error) {
	data, err := c.abi.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", method, err)
	}
	raw, err := c.rpc.CallContract(ctx, goethereum.CallMsg{To: &c.contract, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("call %s: %w", method, err)
	}
	vals, err := c.abi.Unpack(method, raw)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", method, err)
	}
	if len(vals) == 0 {
		return nil, fmt.Errorf("%s returned no values", method)
	}
	return vals, nil
}
