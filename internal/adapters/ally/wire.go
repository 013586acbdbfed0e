package ally

import (
	"bytes"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/shopspring/decimal"

	"github.com/prxgr4mmer/ally-watchlists/internal/domain"
)

const successMessage = "Success"

// envelope fields shared by every response
type status struct {
	Error string `json:"error"`
}

// check turns a non-success error field into a RemoteError. The HTTP status
// was already 2xx, so the error carries 200.
func (s status) check(op string) error {
	if s.Error == "" || strings.EqualFold(s.Error, successMessage) {
		return nil
	}
	return domain.NewRemoteError(op, 200, s.Error)
}

type statusEnvelope struct {
	Response status `json:"response"`
}

type listsEnvelope struct {
	Response struct {
		status
		Watchlists struct {
			Watchlist oneOrMany[watchlistRef] `json:"watchlist"`
		} `json:"watchlists"`
	} `json:"response"`
}

type watchlistRef struct {
	ID string `json:"id"`
}

type listEnvelope struct {
	Response struct {
		status
		Watchlists struct {
			Watchlist oneOrMany[watchlistBody] `json:"watchlist"`
		} `json:"watchlists"`
	} `json:"response"`
}

type watchlistBody struct {
	ID    string                   `json:"id"`
	Items oneOrMany[watchlistItem] `json:"watchlistitem"`
}

type watchlistItem struct {
	CostBasis  amount `json:"costbasis"`
	Qty        amount `json:"qty"`
	Instrument struct {
		Sym string `json:"sym"`
	} `json:"instrument"`
}

// oneOrMany decodes a field the broker sends as an object when it holds a
// single element and as an array otherwise.
type oneOrMany[T any] []T

func (m *oneOrMany[T]) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)

	switch {
	case len(data) == 0, bytes.Equal(data, []byte("null")), bytes.Equal(data, []byte(`""`)):
		*m = nil
		return nil

	case data[0] == '[':
		var items []T
		if err := sonic.Unmarshal(data, &items); err != nil {
			return err
		}
		*m = items
		return nil

	default:
		var item T
		if err := sonic.Unmarshal(data, &item); err != nil {
			return err
		}
		*m = oneOrMany[T]{item}
		return nil
	}
}

// amount is a decimal the broker sends quoted, unquoted or as an empty string
type amount struct {
	decimal.Decimal
}

func (a *amount) UnmarshalJSON(data []byte) error {
	text := strings.Trim(string(bytes.TrimSpace(data)), `"`)
	if text == "" || text == "null" {
		a.Decimal = decimal.Zero
		return nil
	}

	d, err := decimal.NewFromString(text)
	if err != nil {
		return err
	}
	a.Decimal = d
	return nil
}

func decode(body []byte, v any) error {
	return sonic.Unmarshal(body, v)
}
