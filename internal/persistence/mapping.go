package persistence

import "github.com/coplib/orderengine/internal/model"

// The PG schema's enum types store these as lowercase strings; the
// mappings below are the Go-side mirror of the original's enum-to-string
// conversions (previously done at the call site in PGWriteBehind.cpp).

func sideString(s model.Side) string {
	switch s {
	case model.SideBuy:
		return "buy"
	case model.SideSell:
		return "sell"
	case model.SideSellShort:
		return "sell_short"
	default:
		return ""
	}
}

func orderTypeString(t model.OrderType) string {
	switch t {
	case model.OrderTypeMarket:
		return "market"
	case model.OrderTypeLimit:
		return "limit"
	case model.OrderTypeStop:
		return "stop"
	case model.OrderTypeStopLimit:
		return "stop_limit"
	default:
		return ""
	}
}

func orderStatusString(s model.OrderStatus) string {
	switch s {
	case model.OrderStatusReceivedNew:
		return "received_new"
	case model.OrderStatusNew:
		return "new"
	case model.OrderStatusPartialFill:
		return "partial_fill"
	case model.OrderStatusFilled:
		return "filled"
	case model.OrderStatusCanceled:
		return "canceled"
	case model.OrderStatusRejected:
		return "rejected"
	case model.OrderStatusExpired:
		return "expired"
	case model.OrderStatusReplaced:
		return "replaced"
	default:
		return ""
	}
}

func tifString(t model.TimeInForce) string {
	switch t {
	case model.TIFDay:
		return "day"
	case model.TIFGTC:
		return "gtc"
	case model.TIFIOC:
		return "ioc"
	case model.TIFFOK:
		return "fok"
	default:
		return ""
	}
}

func capacityString(c model.Capacity) string {
	switch c {
	case model.CapacityAgency:
		return "agency"
	case model.CapacityPrincipal:
		return "principal"
	case model.CapacityRiskless:
		return "riskless"
	default:
		return ""
	}
}

func currencyString(c model.Currency) string {
	switch c {
	case model.CurrencyUSD:
		return "usd"
	case model.CurrencyEUR:
		return "eur"
	case model.CurrencyGBP:
		return "gbp"
	case model.CurrencyJPY:
		return "jpy"
	default:
		return ""
	}
}

func settlTypeString(s model.SettlType) string {
	switch s {
	case model.SettlTypeRegular:
		return "regular"
	case model.SettlTypeCash:
		return "cash"
	case model.SettlTypeNextDay:
		return "next_day"
	default:
		return ""
	}
}

func accountTypeString(t model.AccountType) string {
	switch t {
	case model.AccountTypeCustomer:
		return "customer"
	case model.AccountTypeHouse:
		return "house"
	case model.AccountTypeProprietary:
		return "proprietary"
	default:
		return ""
	}
}
