package matchingengine

import (
	"fmt"
	"regexp"

	"github.com/lattice-exchange/matchingengine/internal/model"
	tserrors "github.com/lattice-exchange/matchingengine/pkg/errors"
)

var symbolPattern = regexp.MustCompile(`^[A-Z]+-[A-Z]+$`)

// validateOrder rejects an order synchronously before any book mutation
// (§4.4 "Admission", §7 "Validation"). Required fields per type:
// limit/ioc/fok need Price; stop_loss/take_profit need StopPrice;
// stop_limit needs both (§6).
func validateOrder(o *model.Order) error {
	if !symbolPattern.MatchString(o.Symbol) {
		return tserrors.New(tserrors.ErrInvalidSymbolFormat, fmt.Sprintf("symbol %q does not match BASE-QUOTE", o.Symbol))
	}

	if o.Side != model.OrderSideBuy && o.Side != model.OrderSideSell {
		return tserrors.New(tserrors.ErrInvalidOrder, "side must be buy or sell")
	}

	if !o.Quantity.IsPositive() {
		return tserrors.New(tserrors.ErrInvalidQuantity, "quantity must be positive")
	}

	switch o.OrderType {
	case model.OrderTypeLimit, model.OrderTypeIOC, model.OrderTypeFOK:
		if !o.HasPrice || !o.Price.IsPositive() {
			return tserrors.New(tserrors.ErrInvalidPrice, "price is required and must be positive")
		}
	case model.OrderTypeStopLoss, model.OrderTypeTakeProfit:
		if !o.HasStopPrice || !o.StopPrice.IsPositive() {
			return tserrors.New(tserrors.ErrInvalidPrice, "stop_price is required and must be positive")
		}
	case model.OrderTypeStopLimit:
		if !o.HasStopPrice || !o.StopPrice.IsPositive() {
			return tserrors.New(tserrors.ErrInvalidPrice, "stop_price is required and must be positive")
		}
		if !o.HasPrice || !o.Price.IsPositive() {
			return tserrors.New(tserrors.ErrInvalidPrice, "price is required and must be positive")
		}
	case model.OrderTypeMarket:
		// no price fields required
	default:
		return tserrors.New(tserrors.ErrInvalidOrder, fmt.Sprintf("unknown order type %q", o.OrderType))
	}

	return nil
}
