package dto

import (
	"encoding/json"
	"testing"

	"github.com/mrops-br/estoque-api/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func decodeCreate(t *testing.T, body string) *CreateProductRequest {
	t.Helper()
	var req CreateProductRequest
	require.NoError(t, json.Unmarshal([]byte(body), &req))
	return &req
}

func TestValidateCreateProductRequest(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		wantErr string
	}{
		{name: "complete", body: `{"nome":"Widget","cod_produto":1,"preco":9.99,"qtd_inicial":6}`},
		{name: "zero values present", body: `{"nome":"Free","cod_produto":0,"preco":0,"qtd_inicial":0}`},
		{name: "missing price", body: `{"nome":"Widget","cod_produto":1,"qtd_inicial":6}`, wantErr: "preco is required"},
		{name: "null stock", body: `{"nome":"Widget","cod_produto":1,"preco":1,"qtd_inicial":null}`, wantErr: "qtd_inicial is required"},
		{name: "missing name and code", body: `{"preco":1,"qtd_inicial":1}`, wantErr: "nome is required; cod_produto is required"},
		{name: "negative stock", body: `{"nome":"W","cod_produto":1,"preco":1,"qtd_inicial":-1}`, wantErr: "qtd_inicial must be at least 0"},
		{name: "code at int4 max", body: `{"nome":"W","cod_produto":2147483647,"preco":1,"qtd_inicial":2147483647}`},
		{name: "code past int4", body: `{"nome":"x","cod_produto":3000000000,"preco":1,"qtd_inicial":1}`, wantErr: "cod_produto must be at most 2147483647"},
		{name: "code below int4", body: `{"nome":"x","cod_produto":-3000000000,"preco":1,"qtd_inicial":1}`, wantErr: "cod_produto must be at least -2147483648"},
		{name: "stock past int4", body: `{"nome":"x","cod_produto":1,"preco":1,"qtd_inicial":2147483648}`, wantErr: "qtd_inicial must be at most 2147483647"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := Validate(decodeCreate(t, tt.body))
			if tt.wantErr == "" {
				require.NoError(t, err)
				return
			}
			require.ErrorIs(t, err, domain.ErrInvalidInput)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateUpdateProductRequest(t *testing.T) {
	var req UpdateProductRequest
	require.NoError(t, json.Unmarshal([]byte(`{"qtd_inicial":0}`), &req))
	require.NoError(t, Validate(&req))

	require.NoError(t, json.Unmarshal([]byte(`{"qtd_inicial":-3}`), &req))
	require.ErrorIs(t, Validate(&req), domain.ErrInvalidInput)

	require.NoError(t, json.Unmarshal([]byte(`{"cod_produto":3000000000}`), &req))
	err := Validate(&req)
	require.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Contains(t, err.Error(), "cod_produto must be at most 2147483647")

	require.NoError(t, Validate(&UpdateProductRequest{}))
}

func TestCreateProductRequestKeepsPricePrecision(t *testing.T) {
	req := decodeCreate(t, `{"nome":"W","cod_produto":1,"preco":12345678901234567890.123456789,"qtd_inicial":1}`)
	require.NoError(t, Validate(req))
	require.NotNil(t, req.Price)
	assert.Equal(t, "12345678901234567890.123456789", req.Price.String())

	req = decodeCreate(t, `{"nome":"W","cod_produto":1,"preco":"19.90","qtd_inicial":1}`)
	assert.True(t, req.Price.Equal(decimal.RequireFromString("19.9")))
}

func TestValidateRegisterRequest(t *testing.T) {
	require.NoError(t, Validate(&RegisterRequest{Email: "ana@example.com", Password: "secret1"}))

	err := Validate(&RegisterRequest{Email: "not-an-email", Password: "123"})
	require.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Contains(t, err.Error(), "email must be a valid email address")
	assert.Contains(t, err.Error(), "password must be at least 6 characters")
}

func TestUpdateProductRequestChanges(t *testing.T) {
	var req UpdateProductRequest
	require.NoError(t, json.Unmarshal([]byte(`{"nome":"New","preco":2.5}`), &req))

	changes := req.Changes()
	require.NotNil(t, changes.Name)
	assert.Equal(t, "New", *changes.Name)
	require.NotNil(t, changes.Price)
	assert.True(t, changes.Price.Equal(decimal.RequireFromString("2.5")))
	assert.Nil(t, changes.StockQuantity)
	assert.Nil(t, changes.Category)
}

func TestProductResponseWireShape(t *testing.T) {
	p := &domain.Product{
		ID: "abc", Name: "Widget", Code: 7,
		Price: decimal.RequireFromString("9.99"), StockQuantity: 3, SoldQuantity: 3,
	}

	raw, err := json.Marshal(ToProductResponse(p))
	require.NoError(t, err)

	var wire map[string]any
	require.NoError(t, json.Unmarshal(raw, &wire))
	for _, key := range []string{"id", "nome", "descricao", "categoria", "cod_produto", "preco", "qtd_inicial", "qtd_vendida"} {
		assert.Contains(t, wire, key)
	}
	assert.Equal(t, 9.99, wire["preco"])
}

func TestStatisticResponseIsExact(t *testing.T) {
	stats := []domain.SalesStatistic{{ProductID: "p-1", Name: "Widget", UnitsSold: 3, Revenue: decimal.RequireFromString("29.97")}}

	raw, err := json.Marshal(ToStatisticResponseList(stats))
	require.NoError(t, err)
	assert.JSONEq(t, `[{"id":"p-1","nome":"Widget","qtd_vendida":3,"valor_total":29.97}]`, string(raw))
}
