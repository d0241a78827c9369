package internal

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rm-hull/fuel-metrics-api/internal/models"
)

const surveyPage = `<html><body>
<h1>Levantamento de precos</h1>
<a href="/files/semana-1.csv">Semana 1</a>
<a href="/files/semana-1.csv">Semana 1 (again)</a>
<a href="relatorio.xlsx">Relatorio</a>
<a href="/files/semana-2.CSV">Semana 2</a>
</body></html>`

const week1 = "Regiao - Sigla;Estado - Sigla;Municipio;Revenda;CNPJ da Revenda;Produto;Data da Coleta;Valor de Venda;Unidade de Medida\n" +
	"SE;SP;SAO PAULO;POSTO A;11.111.111/0001-11;GASOLINA;02/03/2026;5,89;R$ / litro\n" +
	"SE;SP;SAO PAULO;POSTO A;11.111.111/0001-11;ETANOL;02/03/2026;3,99;R$ / litro\n" +
	"\n" +
	"S;PR;CURITIBA;POSTO B;22.222.222/0001-22;DIESEL S10;02/03/2026;6,19;R$ / litro\n"

// Latin-1 encoded, as ANP publishes them
var week2 = []byte("Regi\xe3o - Sigla;Estado - Sigla;Munic\xedpio;Produto;Data da Coleta;Valor de Venda\n" +
	"NE;BA;SALVADOR;GNV;09/03/2026;4,79\n")

func collect(into *[]models.RawObservation) BatchCallback[models.RawObservation] {
	return func(batch []models.RawObservation) (int, error) {
		*into = append(*into, batch...)
		return len(batch), nil
	}
}

func newTestServer(t *testing.T) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/survey", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(surveyPage))
	})
	mux.HandleFunc("/files/semana-1.csv", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/csv")
		_, _ = w.Write([]byte(week1))
	})
	mux.HandleFunc("/files/semana-2.CSV", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/octet-stream")
		_, _ = w.Write(week2)
	})
	mux.HandleFunc("/api/observations", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"observations":[{"city":"Recife","state":"PE","fuel_type":"gasolina","price":"6.09","collected_at":"2026-03-09"}]}`))
	})
	mux.HandleFunc("/api/array", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`  [{"city":"Natal","fuel_type":"diesel","price":"6.30","collected_at":"2026-03-09"}]`))
	})
	mux.HandleFunc("/missing", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	mux.HandleFunc("/bad.csv", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("foo;bar\n1;2\n"))
	})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func TestFetchObservationsFollowsCSVLinks(t *testing.T) {
	server := newTestServer(t)
	client := NewObservationsClient(server.URL + "/survey").(*sourceClient)
	client.batchSize = 2

	assert.Nil(t, client.LastUpdated())

	var raws []models.RawObservation
	count, err := client.FetchObservations(context.Background(), collect(&raws))
	require.NoError(t, err)
	assert.Equal(t, 4, count)
	require.Len(t, raws, 4)

	assert.Equal(t, models.RawObservation{
		City:        "SAO PAULO",
		State:       "SP",
		Region:      "SE",
		FuelType:    "GASOLINA",
		Price:       "5,89",
		Unit:        "R$ / litro",
		CollectedAt: "02/03/2026",
		StationId:   "11.111.111/0001-11",
	}, raws[0])
	assert.Equal(t, "CURITIBA", raws[2].City)

	assert.Equal(t, "SALVADOR", raws[3].City)
	assert.Equal(t, "NE", raws[3].Region)
	assert.Equal(t, "4,79", raws[3].Price)

	assert.NotNil(t, client.LastUpdated())
}

func TestFetchObservationsJSON(t *testing.T) {
	server := newTestServer(t)

	for _, path := range []string{"/api/observations", "/api/array"} {
		t.Run(path, func(t *testing.T) {
			var raws []models.RawObservation
			count, err := NewObservationsClient(server.URL+path).FetchObservations(context.Background(), collect(&raws))
			require.NoError(t, err)
			assert.Equal(t, 1, count)
			require.Len(t, raws, 1)
			assert.NotEmpty(t, raws[0].City)
			assert.NotEmpty(t, raws[0].Price)
		})
	}
}

func TestFetchObservationsErrors(t *testing.T) {
	server := newTestServer(t)
	var raws []models.RawObservation

	_, err := NewObservationsClient(server.URL+"/missing").FetchObservations(context.Background(), collect(&raws))
	var stErr *HTTPStatusError
	require.ErrorAs(t, err, &stErr)
	assert.Equal(t, http.StatusNotFound, stErr.StatusCode)

	_, err = NewObservationsClient(server.URL+"/bad.csv").FetchObservations(context.Background(), collect(&raws))
	assert.ErrorContains(t, err, "no city column")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = NewObservationsClient(server.URL+"/survey").FetchObservations(ctx, collect(&raws))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, raws)
}
