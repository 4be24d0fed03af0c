package client

import (
	"bytes"
	"encoding/base64"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/gagliardetto/solana-go/rpc"
	"github.com/tidwall/gjson"
)

type fakeAccount struct {
	owner  solana.PublicKey
	data   []byte
	amount uint64 // token balance served for jsonParsed reads
}

// fakeRPC serves the JSON-RPC methods the client uses from an in-memory account map.
type fakeRPC struct {
	t *testing.T

	mu          sync.Mutex
	accounts    map[solana.PublicKey]fakeAccount
	calls       map[string]int
	simulateErr any
	slot        uint64
	blockTime   int64
}

func newFakeRPC(t *testing.T) (*fakeRPC, *rpc.Client) {
	f := &fakeRPC{
		t:         t,
		accounts:  make(map[solana.PublicKey]fakeAccount),
		calls:     make(map[string]int),
		slot:      42,
		blockTime: 1_700_000_000,
	}
	srv := httptest.NewServer(f)
	t.Cleanup(srv.Close)
	return f, rpc.New(srv.URL)
}

func (f *fakeRPC) put(address solana.PublicKey, account fakeAccount) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.accounts[address] = account
}

func (f *fakeRPC) callCount(method string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[method]
}

func rpcContext() map[string]any {
	return map[string]any{"slot": 1}
}

func (a fakeAccount) json(encoding string) map[string]any {
	out := map[string]any{
		"executable": false,
		"lamports":   2_039_280,
		"owner":      a.owner.String(),
		"rentEpoch":  0,
		"space":      len(a.data),
	}
	if encoding == string(solana.EncodingJSONParsed) {
		out["data"] = map[string]any{
			"program": "spl-token",
			"space":   165,
			"parsed": map[string]any{
				"type": "account",
				"info": map[string]any{
					"tokenAmount": map[string]any{
						"amount":   strconv.FormatUint(a.amount, 10),
						"decimals": 9,
					},
				},
			},
		}
		return out
	}
	out["data"] = []string{base64.StdEncoding.EncodeToString(a.data), "base64"}
	return out
}

func (f *fakeRPC) matches(account fakeAccount, filters []rpc.RPCFilter) bool {
	for _, filter := range filters {
		if filter.Memcmp == nil {
			continue
		}
		want := []byte(filter.Memcmp.Bytes)
		end := int(filter.Memcmp.Offset) + len(want)
		if end > len(account.data) || !bytes.Equal(account.data[filter.Memcmp.Offset:end], want) {
			return false
		}
	}
	return true
}

func (f *fakeRPC) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		f.t.Errorf("read request: %v", err)
		return
	}
	req := gjson.ParseBytes(body)
	method := req.Get("method").String()
	params := req.Get("params")

	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[method]++

	var result any
	switch method {
	case "getAccountInfo":
		key := solana.MustPublicKeyFromBase58(params.Get("0").String())
		account, ok := f.accounts[key]
		value := any(nil)
		if ok {
			value = account.json(params.Get("1.encoding").String())
		}
		result = map[string]any{"context": rpcContext(), "value": value}
	case "getMultipleAccounts":
		var values []any
		for _, k := range params.Get("0").Array() {
			account, ok := f.accounts[solana.MustPublicKeyFromBase58(k.String())]
			if !ok {
				values = append(values, nil)
				continue
			}
			values = append(values, account.json(params.Get("1.encoding").String()))
		}
		result = map[string]any{"context": rpcContext(), "value": values}
	case "getProgramAccounts":
		var filters []rpc.RPCFilter
		if err := json.Unmarshal([]byte(params.Get("1.filters").Raw), &filters); err != nil {
			f.t.Errorf("decode filters: %v", err)
		}
		program := solana.MustPublicKeyFromBase58(params.Get("0").String())
		list := []any{}
		for key, account := range f.accounts {
			if !account.owner.Equals(program) || !f.matches(account, filters) {
				continue
			}
			list = append(list, map[string]any{"pubkey": key.String(), "account": account.json("base64")})
		}
		result = list
	case "getLatestBlockhash":
		result = map[string]any{
			"context": rpcContext(),
			"value":   map[string]any{"blockhash": solana.Hash{1, 2, 3}.String(), "lastValidBlockHeight": 100},
		}
	case "simulateTransaction":
		result = map[string]any{
			"context": rpcContext(),
			"value":   map[string]any{"err": f.simulateErr, "logs": []string{}},
		}
	case "getSlot":
		result = f.slot
	case "getBlockTime":
		result = f.blockTime
	default:
		f.t.Errorf("unexpected rpc method %q", method)
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(map[string]any{
		"jsonrpc": "2.0",
		"id":      req.Get("id").Value(),
		"result":  result,
	}); err != nil {
		f.t.Errorf("encode response: %v", err)
	}
}
