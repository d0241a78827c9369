package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRawObservationAcceptsJSONScalars(t *testing.T) {
	var raws []RawObservation
	err := json.Unmarshal([]byte(`[
		{"city": "Curitiba", "state": "PR", "fuel_type": "diesel", "price": "6,19", "collected_at": "2026-03-06"},
		{"city": "Curitiba", "state": null, "fuel_type": "diesel", "price": 6.29, "collected_at": "2026-03-06", "station_id": 4321},
		{"city": "Curitiba", "fuel_type": "diesel", "price": {"value": 6}}
	]`), &raws)
	require.NoError(t, err)
	require.Len(t, raws, 3)

	assert.Equal(t, "6,19", raws[0].Price)
	assert.Equal(t, "PR", raws[0].State)

	assert.Equal(t, "6.29", raws[1].Price)
	assert.Equal(t, "4321", raws[1].StationId)
	assert.Equal(t, "", raws[1].State)

	// left for the normalizer to reject
	assert.Equal(t, `{"value": 6}`, raws[2].Price)
}

func TestRawObservationRejectsNonObjects(t *testing.T) {
	var raws []RawObservation
	assert.Error(t, json.Unmarshal([]byte(`["not an object"]`), &raws))
}

func TestRawObservationCSVDecoder(t *testing.T) {
	decode := RawObservationCSVDecoder()
	headers := []string{"\ufeffRegiao - Sigla", "Estado - Sigla", "Municipio", "Produto", "Data da Coleta", "Valor de Venda", "Unidade de Medida", "CNPJ da Revenda"}

	raw, err := decode([]string{"SE", "SP", "SAO PAULO", "GASOLINA", "02/03/2026", "5,89", "R$ / litro", "00.000.000/0001-91"}, headers)
	require.NoError(t, err)
	assert.Equal(t, RawObservation{
		City:        "SAO PAULO",
		State:       "SP",
		Region:      "SE",
		FuelType:    "GASOLINA",
		Price:       "5,89",
		Unit:        "R$ / litro",
		CollectedAt: "02/03/2026",
		StationId:   "00.000.000/0001-91",
	}, raw)

	_, err = RawObservationCSVDecoder()([]string{"x"}, []string{"Municipio"})
	assert.ErrorContains(t, err, "no fuel_type column")
}
