package model

// Decimal counts for fields that are not denominated in a pool token.
const (
	PriceDecimals = 18
	RatioDecimals = 18
)

// Token captures ERC20 metadata as reported by the subgraph.
type Token struct {
	Address  string `json:"address"`
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Decimals uint8  `json:"decimals"`
}

// TokenRecord is the raw subgraph token shape.
type TokenRecord struct {
	ID       string `json:"id"`
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Decimals Scalar `json:"decimals"`
}

// Decode validates the record into a Token.
func (r TokenRecord) Decode(entity string) (Token, error) {
	d := decoder{entity: entity, id: r.ID}
	decimals := d.uint8Field("decimals", string(r.Decimals))
	if err := d.err(); err != nil {
		return Token{}, err
	}
	return Token{
		Address:  r.ID,
		Symbol:   r.Symbol,
		Name:     r.Name,
		Decimals: decimals,
	}, nil
}
