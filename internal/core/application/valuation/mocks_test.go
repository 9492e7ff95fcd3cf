package valuation_test

import (
	"context"

	"github.com/stretchr/testify/mock"
	"github.com/tdex-network/barter-daemon/internal/core/domain"
)

type mockPriceSource struct {
	mock.Mock
	kind domain.SourceKind
}

func newMockPriceSource(kind domain.SourceKind) *mockPriceSource {
	return &mockPriceSource{kind: kind}
}

func (m *mockPriceSource) Kind() domain.SourceKind {
	return m.kind
}

func (m *mockPriceSource) PriceItem(
	ctx context.Context, item string,
) (*domain.PricedItem, bool) {
	args := m.Called(ctx, item)

	var res *domain.PricedItem
	if a := args.Get(0); a != nil {
		res = a.(*domain.PricedItem)
	}
	return res, args.Bool(1)
}
