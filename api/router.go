package api

import (
	"context"
	"errors"
	"net/http"
	"strconv"

	"github.com/gagliardetto/solana-go"
	"github.com/gin-gonic/gin"
	"github.com/samber/lo"
	"go.uber.org/zap"

	presalegen "github.com/krazyTry/presale-go/gen/presale_factory"
	"github.com/krazyTry/presale-go/presale"
	solanago "github.com/krazyTry/presale-go/solana"
)

const (
	defaultEventLimit = 100
	maxEventLimit     = 1_000
)

// Server is the read-only HTTP API over presale state.
type Server struct {
	reader Reader
	events EventLog
	logger *zap.Logger
}

type Option func(*Server)

// WithEventLog enables the events endpoint.
func WithEventLog(events EventLog) Option {
	return func(s *Server) {
		s.events = events
	}
}

func WithLogger(logger *zap.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

func NewServer(reader Reader, opts ...Option) *Server {
	s := &Server{reader: reader, logger: zap.NewNop()}
	for _, fn := range opts {
		fn(s)
	}
	return s
}

// Router builds the gin engine serving s.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	factories := r.Group("/factories")
	{
		factories.GET("/:address", s.getFactory)
		factories.GET("/:address/presales", s.listPresales)
	}

	presales := r.Group("/presales")
	{
		presales.GET("", s.listPresales)
		presales.GET("/:address", s.getPresale)
		presales.GET("/:address/purchases/:buyer", s.getPurchase)
		presales.GET("/:address/whitelist/:buyer", s.getWhitelist)
		presales.GET("/:address/events", s.listEvents)
	}
	return r
}

func (s *Server) fail(c *gin.Context, err error) {
	if errors.Is(err, presalegen.ErrAccountNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
		return
	}
	s.logger.Error("api request failed", zap.String("path", c.Request.URL.Path), zap.Error(err))
	c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
}

func pathKey(c *gin.Context, name string) (solana.PublicKey, bool) {
	key, err := solana.PublicKeyFromBase58(c.Param(name))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + name + ": " + err.Error()})
		return solana.PublicKey{}, false
	}
	return key, true
}

func (s *Server) getFactory(c *gin.Context) {
	address, ok := pathKey(c, "address")
	if !ok {
		return
	}
	factory, err := s.reader.Factory(c.Request.Context(), address)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, newFactoryView(address, factory))
}

// listPresales serves /presales (all, or ?owner=) and /factories/:address/presales.
func (s *Server) listPresales(c *gin.Context) {
	ctx := c.Request.Context()
	var factory, owner solana.PublicKey
	if c.Param("address") != "" {
		var ok bool
		if factory, ok = pathKey(c, "address"); !ok {
			return
		}
	}
	if raw := c.Query("owner"); raw != "" {
		var err error
		if owner, err = solana.PublicKeyFromBase58(raw); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid owner: " + err.Error()})
			return
		}
	}

	list, err := s.reader.Presales(ctx, factory)
	if err != nil {
		s.fail(c, err)
		return
	}
	now, err := s.reader.Now(ctx)
	if err != nil {
		s.fail(c, err)
		return
	}
	if !owner.IsZero() {
		list = lo.Filter(list, func(p presale.PresaleAccount, _ int) bool {
			return p.Presale.Owner.Equals(owner)
		})
	}
	views := lo.Map(list, func(p presale.PresaleAccount, _ int) PresaleView {
		return newPresaleView(p.Address, p.Presale, now)
	})
	for i := range views {
		s.addMints(ctx, &views[i], list[i].Presale)
	}
	c.JSON(http.StatusOK, views)
}

func (s *Server) getPresale(c *gin.Context) {
	ctx := c.Request.Context()
	address, ok := pathKey(c, "address")
	if !ok {
		return
	}
	p, err := s.reader.Presale(ctx, address)
	if err != nil {
		s.fail(c, err)
		return
	}
	now, err := s.reader.Now(ctx)
	if err != nil {
		s.fail(c, err)
		return
	}
	v := newPresaleView(address, p, now)
	s.addMints(ctx, &v, p)
	c.JSON(http.StatusOK, v)
}

// addMints sets the UI amounts of v when the reader can load mints. Lookup failures are logged
// and leave the raw amounts only.
func (s *Server) addMints(ctx context.Context, v *PresaleView, p *presalegen.Presale) {
	mints, ok := s.reader.(MintReader)
	if !ok {
		return
	}
	keys := []solana.PublicKey{p.Token}
	if !p.IsNative {
		keys = append(keys, p.PaymentToken)
	}
	tokens, err := mints.Mints(ctx, keys...)
	if err != nil {
		s.logger.Warn("load mints", zap.String("presale", v.Address), zap.Error(err))
		return
	}
	var sale, payment *solanago.Token
	if len(tokens) > 0 {
		sale = tokens[0]
	}
	if len(tokens) > 1 {
		payment = tokens[1]
	}
	v.withMints(p, sale, payment)
}

func (s *Server) getPurchase(c *gin.Context) {
	ctx := c.Request.Context()
	address, ok := pathKey(c, "address")
	if !ok {
		return
	}
	buyer, ok := pathKey(c, "buyer")
	if !ok {
		return
	}
	p, err := s.reader.Presale(ctx, address)
	if err != nil {
		s.fail(c, err)
		return
	}
	purchase, err := s.reader.Purchase(ctx, address, buyer)
	if err != nil {
		s.fail(c, err)
		return
	}
	now, err := s.reader.Now(ctx)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, newPurchaseView(p, purchase, now))
}

func (s *Server) getWhitelist(c *gin.Context) {
	address, ok := pathKey(c, "address")
	if !ok {
		return
	}
	buyer, ok := pathKey(c, "buyer")
	if !ok {
		return
	}
	listed, err := s.reader.IsWhitelisted(c.Request.Context(), address, buyer)
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"presale": address.String(), "buyer": buyer.String(), "whitelisted": listed})
}

func (s *Server) listEvents(c *gin.Context) {
	if s.events == nil {
		c.JSON(http.StatusNotImplemented, gin.H{"error": "event index not configured"})
		return
	}
	address, ok := pathKey(c, "address")
	if !ok {
		return
	}
	after, err := strconv.ParseUint(c.DefaultQuery("after", "0"), 10, 64)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid after: " + err.Error()})
		return
	}
	limit, err := strconv.Atoi(c.DefaultQuery("limit", strconv.Itoa(defaultEventLimit)))
	if err != nil || limit <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit"})
		return
	}
	list, err := s.events.Events(c.Request.Context(), address.String(), after, min(limit, maxEventLimit))
	if err != nil {
		s.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, list)
}
