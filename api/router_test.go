package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/gagliardetto/solana-go"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tidwall/gjson"
	"go.uber.org/zap/zaptest"

	presalegen "github.com/krazyTry/presale-go/gen/presale_factory"
	"github.com/krazyTry/presale-go/presale"
	"github.com/krazyTry/presale-go/presale/math"
	solanago "github.com/krazyTry/presale-go/solana"
	"github.com/krazyTry/presale-go/store"
)

const (
	saleStart int64 = 1_700_000_000
	saleEnd   int64 = saleStart + 86_400
)

func init() {
	gin.SetMode(gin.TestMode)
}

type fakeEventLog struct {
	account string
	after   uint64
	limit   int
	err     error
}

func (l *fakeEventLog) Events(_ context.Context, account string, after uint64, limit int) ([]store.EventRecord, error) {
	l.account, l.after, l.limit = account, after, limit
	if l.err != nil {
		return nil, l.err
	}
	return []store.EventRecord{
		{ID: after + 1, Name: "PresaleCreated", Account: account, Payload: json.RawMessage(`{}`)},
	}, nil
}

type apiFixture struct {
	ctx     context.Context
	program *presale.Program
	now     atomic.Int64
	owner   solana.PublicKey
	factory solana.PublicKey
	presale solana.PublicKey
	buyer   solana.PublicKey
	events  *fakeEventLog
	router  *gin.Engine
}

func newAPIFixture(t *testing.T) *apiFixture {
	f := &apiFixture{
		ctx:    context.Background(),
		owner:  solana.NewWallet().PublicKey(),
		buyer:  solana.NewWallet().PublicKey(),
		events: &fakeEventLog{},
	}
	f.now.Store(saleStart - 60)
	f.program = presale.NewProgram(
		presale.WithClock(presale.ClockFunc(f.now.Load)),
		presale.WithLogger(zaptest.NewLogger(t)),
	)
	factory, _, err := f.program.InitializeFactory(f.ctx, f.owner, 500)
	require.NoError(t, err)
	f.factory = factory

	cfg := presale.PresaleConfig{
		Owner:       f.owner,
		Token:       solana.NewWallet().PublicKey(),
		PresaleRate: 150,
		SoftCap:     2_000,
		HardCap:     8_000,
		MinBuy:      100,
		MaxBuy:      4_000,
		StartSale:   saleStart,
		EndSale:     saleEnd,
		IsNative:    true,
	}
	required, err := math.RequiredSaleTokens(cfg.HardCap, cfg.PresaleRate, false, 0, 0)
	require.NoError(t, err)
	_, err = f.program.MintTo(f.ctx, f.owner, cfg.Token, required)
	require.NoError(t, err)
	f.presale, _, err = f.program.CreatePresale(f.ctx, f.factory, f.owner, cfg)
	require.NoError(t, err)

	f.now.Store(saleStart + 10)
	_, err = f.program.MintTo(f.ctx, f.buyer, solana.WrappedSol, 2_000)
	require.NoError(t, err)
	_, err = f.program.BuyTokens(f.ctx, f.presale, f.buyer, 2_000)
	require.NoError(t, err)

	f.router = NewServer(ProgramReader{Program: f.program},
		WithEventLog(f.events),
		WithLogger(zaptest.NewLogger(t)),
	).Router()
	return f
}

func (f *apiFixture) get(t *testing.T, path string) (int, gjson.Result) {
	t.Helper()
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	f.router.ServeHTTP(w, req)
	return w.Code, gjson.ParseBytes(w.Body.Bytes())
}

func TestGetFactory(t *testing.T) {
	f := newAPIFixture(t)

	code, body := f.get(t, "/factories/"+f.factory.String())
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, f.owner.String(), body.Get("owner").String())
	assert.Equal(t, uint64(1), body.Get("presale_count").Uint())
	assert.Equal(t, "5", body.Get("platform_fee_percent").String())

	code, _ = f.get(t, "/factories/"+solana.NewWallet().PublicKey().String())
	assert.Equal(t, http.StatusNotFound, code)

	code, _ = f.get(t, "/factories/not-a-key")
	assert.Equal(t, http.StatusBadRequest, code)
}

func TestGetPresale(t *testing.T) {
	f := newAPIFixture(t)

	code, body := f.get(t, "/presales/"+f.presale.String())
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "active", body.Get("state").String())
	assert.Equal(t, "live", body.Get("status").String())
	assert.Equal(t, uint64(2_000), body.Get("funds_raised").Uint())
	assert.Equal(t, "0.000002", body.Get("funds_raised_ui").String())
	assert.Equal(t, "1.5", body.Get("rate").String())
	assert.Equal(t, "25", body.Get("progress_percent").String())
	assert.Equal(t, int64(1), body.Get("participants").Int())
	assert.False(t, body.Get("vesting").Exists())

	f.now.Store(saleEnd)
	_, body = f.get(t, "/presales/"+f.presale.String())
	assert.Equal(t, "ended", body.Get("status").String())
}

func TestListPresales(t *testing.T) {
	f := newAPIFixture(t)

	code, body := f.get(t, "/factories/"+f.factory.String()+"/presales")
	require.Equal(t, http.StatusOK, code)
	require.Len(t, body.Array(), 1)
	assert.Equal(t, f.presale.String(), body.Get("0.address").String())

	code, body = f.get(t, "/presales?owner="+solana.NewWallet().PublicKey().String())
	require.Equal(t, http.StatusOK, code)
	assert.Empty(t, body.Array())

	code, body = f.get(t, "/presales?owner="+f.owner.String())
	require.Equal(t, http.StatusOK, code)
	assert.Len(t, body.Array(), 1)
}

func TestGetPurchase(t *testing.T) {
	f := newAPIFixture(t)
	path := "/presales/" + f.presale.String() + "/purchases/" + f.buyer.String()

	code, body := f.get(t, path)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, uint64(2_000), body.Get("contributed").Uint())
	assert.Equal(t, uint64(3_000), body.Get("tokens_owed").Uint())
	assert.Zero(t, body.Get("claimable").Uint())

	f.now.Store(saleEnd)
	_, err := f.program.FinalizePresale(f.ctx, f.presale, f.owner)
	require.NoError(t, err)
	_, body = f.get(t, path)
	assert.Equal(t, uint64(3_000), body.Get("claimable").Uint())

	code, _ = f.get(t, "/presales/"+f.presale.String()+"/purchases/"+solana.NewWallet().PublicKey().String())
	assert.Equal(t, http.StatusNotFound, code)
}

func TestGetWhitelist(t *testing.T) {
	f := newAPIFixture(t)
	code, body := f.get(t, "/presales/"+f.presale.String()+"/whitelist/"+f.buyer.String())
	require.Equal(t, http.StatusOK, code)
	assert.False(t, body.Get("whitelisted").Bool())
}

func TestListEvents(t *testing.T) {
	f := newAPIFixture(t)
	base := "/presales/" + f.presale.String() + "/events"

	code, body := f.get(t, base+"?after=7&limit=5000")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, f.presale.String(), f.events.account)
	assert.Equal(t, uint64(7), f.events.after)
	assert.Equal(t, maxEventLimit, f.events.limit)
	assert.Equal(t, "PresaleCreated", body.Get("0.name").String())
	assert.Equal(t, uint64(8), body.Get("0.id").Uint())

	code, _ = f.get(t, base+"?limit=0")
	assert.Equal(t, http.StatusBadRequest, code)

	f.events.err = errors.New("database down")
	code, _ = f.get(t, base)
	assert.Equal(t, http.StatusInternalServerError, code)
}

func TestEventsWithoutIndex(t *testing.T) {
	router := NewServer(ProgramReader{Program: presale.NewProgram()}).Router()
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/presales/"+solana.NewWallet().PublicKey().String()+"/events", nil))
	assert.Equal(t, http.StatusNotImplemented, w.Code)
}

func TestPresaleViewVesting(t *testing.T) {
	v := newPresaleView(solana.NewWallet().PublicKey(), &presalegen.Presale{
		PresaleRate:          100,
		HardCap:              3,
		FundsRaised:          1,
		IsVesting:            true,
		FirstReleasePercent:  20,
		VestingPeriod:        86_400,
		TokensReleasePercent: 10,
		IsAutoListing:        true,
		ListingRate:          80,
		PaymentToken:         solana.NewWallet().PublicKey(),
	}, 0)
	assert.Equal(t, "33.33", v.Progress)
	assert.Equal(t, "0.8", v.ListingRate)
	assert.Empty(t, v.FundsRaisedUI)
	assert.NotEmpty(t, v.PaymentToken)
	require.NotNil(t, v.Vesting)
	assert.Equal(t, uint64(20), v.Vesting.FirstReleasePercent)
}

// mintReader serves mints of a fixed decimals on top of the program.
type mintReader struct {
	ProgramReader
	decimals uint8
	err      error
	asked    []solana.PublicKey
}

func (r *mintReader) Mints(_ context.Context, mints ...solana.PublicKey) ([]*solanago.Token, error) {
	r.asked = mints
	if r.err != nil {
		return nil, r.err
	}
	out := make([]*solanago.Token, len(mints))
	for i := range mints {
		out[i] = &solanago.Token{}
		out[i].Decimals = r.decimals
	}
	return out, nil
}

func TestPresaleMintAmounts(t *testing.T) {
	f := newAPIFixture(t)
	reader := &mintReader{ProgramReader: ProgramReader{Program: f.program}, decimals: 3}
	f.router = NewServer(reader).Router()

	code, body := f.get(t, "/presales/"+f.presale.String())
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "3", body.Get("tokens_sold_ui").String())
	assert.Equal(t, "0.000002", body.Get("funds_raised_ui").String())
	// native presales only need the sale mint
	assert.Len(t, reader.asked, 1)

	code, body = f.get(t, "/factories/"+f.factory.String()+"/presales")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "3", body.Get("0.tokens_sold_ui").String())

	reader.err = errors.New("rpc down")
	code, body = f.get(t, "/presales/"+f.presale.String())
	require.Equal(t, http.StatusOK, code)
	assert.False(t, body.Get("tokens_sold_ui").Exists())
	assert.Equal(t, uint64(3_000), body.Get("tokens_sold").Uint())
}

func TestPresaleViewPaymentMint(t *testing.T) {
	p := &presalegen.Presale{FundsRaised: 2_500_000, TokensSold: 5_000}
	v := newPresaleView(solana.NewWallet().PublicKey(), p, saleStart)
	payment := &solanago.Token{}
	payment.Decimals = 6
	v.withMints(p, nil, payment)
	assert.Equal(t, "2.5", v.FundsRaisedUI)
	assert.Empty(t, v.TokensSoldUI)
}
