package service

import (
	"context"
	"testing"

	"github.com/mrops-br/estoque-api/internal/domain"
	"github.com/stretchr/testify/suite"
)

// LedgerWorkflowSuite drives a product from creation through sales to statistics.
type LedgerWorkflowSuite struct {
	suite.Suite
	f   *fixture
	ctx context.Context
}

func (s *LedgerWorkflowSuite) SetupTest() {
	s.f = newFixture(s.T())
	s.ctx = context.Background()
}

func (s *LedgerWorkflowSuite) TestWidgetLifecycle() {
	req := createRequest("Widget", 9.99, 6)
	req.Code = ptr(1)
	widget, err := s.f.products.CreateProduct(s.ctx, req)
	s.Require().NoError(err)

	list, err := s.f.products.ListProducts(s.ctx, domain.ProductFilter{})
	s.Require().NoError(err)
	s.Require().Len(list, 1)
	s.Equal(0, list[0].Sold)

	for range 3 {
		_, err := s.f.ledger.Sell(s.ctx, widget.ID)
		s.Require().NoError(err)
	}

	got, err := s.f.products.GetProductByID(s.ctx, widget.ID)
	s.Require().NoError(err)
	s.Equal(3, got.Stock)
	s.Equal(3, got.Sold)

	stats, err := s.f.ledger.Statistics(s.ctx)
	s.Require().NoError(err)
	s.Require().Len(stats, 1)
	s.Equal("Widget", stats[0].Name)
	s.Equal(3, stats[0].UnitsSold)
	s.Equal("29.97", stats[0].Revenue.String())
}

func (s *LedgerWorkflowSuite) TestSellingOutNeverGoesNegative() {
	p, err := s.f.products.CreateProduct(s.ctx, createRequest("Short", 2, 2))
	s.Require().NoError(err)

	var rejected int
	for range 5 {
		if _, err := s.f.ledger.Sell(s.ctx, p.ID); err != nil {
			s.Require().ErrorIs(err, domain.ErrOutOfStock)
			rejected++
		}
	}
	s.Equal(3, rejected)

	got, err := s.f.products.GetProductByID(s.ctx, p.ID)
	s.Require().NoError(err)
	s.Equal(0, got.Stock)
	s.Equal(2, got.Sold)
}

func (s *LedgerWorkflowSuite) TestDeletedProductLeavesStatistics() {
	p, err := s.f.products.CreateProduct(s.ctx, createRequest("Gone", 1, 3))
	s.Require().NoError(err)
	_, err = s.f.ledger.Sell(s.ctx, p.ID)
	s.Require().NoError(err)

	s.Require().NoError(s.f.products.DeleteProduct(s.ctx, p.ID))

	stats, err := s.f.ledger.Statistics(s.ctx)
	s.Require().NoError(err)
	s.Empty(stats)
}

func TestLedgerWorkflowSuite(t *testing.T) {
	suite.Run(t, new(LedgerWorkflowSuite))
}
