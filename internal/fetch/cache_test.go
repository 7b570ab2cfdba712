package fetch

import (
	"context"
	"errors"
	"testing"

	"github.com/valueinvest/valueinvest/internal/contracts"
	"github.com/valueinvest/valueinvest/pkg/config"
	"github.com/valueinvest/valueinvest/pkg/redis"
)

func disabledCache(t *testing.T) *redis.Cache {
	t.Helper()
	client, err := redis.New(&config.Config{})
	if err != nil {
		t.Fatal(err)
	}
	return redis.NewCache(client, "valueinvest")
}

func TestCachingProvider_PassThroughWhenDisabled(t *testing.T) {
	stock := contracts.NewStock("600036.SH")
	stock.Name = "招商银行"
	stock.CurrentPrice = 35
	next := &stubProvider{name: "eastmoney", stock: stock}

	p := NewCachingProvider(next, disabledCache(t), newTestLogger())
	if p.Source() != "eastmoney" {
		t.Errorf("source = %q", p.Source())
	}

	for i := 0; i < 2; i++ {
		got, err := p.Stock(context.Background(), "600036.SH")
		if err != nil {
			t.Fatal(err)
		}
		if got.Name != stock.Name || got.CurrentPrice != stock.CurrentPrice {
			t.Errorf("round %d: stock = %+v", i, got)
		}
	}

	// Disabled cache means every call reaches the source.
	if next.calls != 2 {
		t.Errorf("source calls = %d, want 2", next.calls)
	}
}

func TestCachingProvider_PropagatesErrors(t *testing.T) {
	boom := errors.New("boom")
	next := &stubProvider{name: "eastmoney", stockErr: boom, historyErr: ErrUnsupported}

	p := NewCachingProvider(next, disabledCache(t), newTestLogger())
	if _, err := p.Stock(context.Background(), "600036.SH"); !errors.Is(err, boom) {
		t.Errorf("err = %v, want boom", err)
	}

	if _, err := p.History(context.Background(), "600036.SH", 252); !errors.Is(err, ErrUnsupported) {
		t.Errorf("history err = %v, want ErrUnsupported", err)
	}
}
