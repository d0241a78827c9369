package models

import (
	"bytes"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	jsoniter "github.com/json-iterator/go"
	"github.com/shopspring/decimal"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// RawObservation is a price record as received from a source: every field is
// optional free text and nothing has been validated yet.
type RawObservation struct {
	City        string `json:"city"`
	State       string `json:"state,omitempty"`
	Region      string `json:"region,omitempty"`
	FuelType    string `json:"fuel_type"`
	Price       string `json:"price"`
	Unit        string `json:"unit,omitempty"`
	CollectedAt string `json:"collected_at"`
	StationId   string `json:"station_id,omitempty"`
}

// flexText holds the text of any JSON scalar, so that `"price": 6.29` or a
// numeric station id decode to "6.29" instead of failing the whole batch.
type flexText string

func (f *flexText) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	switch {
	case len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")):
		*f = ""
	case trimmed[0] == '"':
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		*f = flexText(s)
	default:
		*f = flexText(trimmed)
	}
	return nil
}

func (raw *RawObservation) UnmarshalJSON(data []byte) error {
	var in struct {
		City        flexText `json:"city"`
		State       flexText `json:"state"`
		Region      flexText `json:"region"`
		FuelType    flexText `json:"fuel_type"`
		Price       flexText `json:"price"`
		Unit        flexText `json:"unit"`
		CollectedAt flexText `json:"collected_at"`
		StationId   flexText `json:"station_id"`
	}
	if err := json.Unmarshal(data, &in); err != nil {
		return err
	}
	*raw = RawObservation{
		City:        string(in.City),
		State:       string(in.State),
		Region:      string(in.Region),
		FuelType:    string(in.FuelType),
		Price:       string(in.Price),
		Unit:        string(in.Unit),
		CollectedAt: string(in.CollectedAt),
		StationId:   string(in.StationId),
	}
	return nil
}

type PriceObservation struct {
	City        string          `json:"city"`
	State       string          `json:"state,omitempty"`
	Region      string          `json:"region"`
	FuelType    FuelType        `json:"fuel_type"`
	Price       decimal.Decimal `json:"price"`
	CollectedAt time.Time       `json:"collected_at"`
	StationId   string          `json:"station_id,omitempty"`
}

type ReasonCode string

const (
	ReasonMissingField     ReasonCode = "missing-field"
	ReasonInvalidPrice     ReasonCode = "invalid-price"
	ReasonFutureTimestamp  ReasonCode = "future-timestamp"
	ReasonUnknownFuelType  ReasonCode = "unknown-fuel-type"
	ReasonInvalidTimestamp ReasonCode = "invalid-timestamp"
	ReasonDuplicate        ReasonCode = "duplicate"
)

type Rejection struct {
	Index  int            `json:"index"`
	Raw    RawObservation `json:"raw"`
	Reason ReasonCode     `json:"reason"`
	Detail string         `json:"detail,omitempty"`
}

func (obs *PriceObservation) ToTuple() []any {
	return []any{
		obs.City,
		obs.State,
		obs.Region,
		string(obs.FuelType),
		obs.Price.String(),
		obs.CollectedAt.UTC(),
		obs.StationId,
	}
}

// rawColumns maps folded header names found in ANP exports and in our own
// JSON field names to RawObservation fields.
var rawColumns = map[string]string{
	"MUNICIPIO":           "city",
	"CIDADE":              "city",
	"CITY":                "city",
	"ESTADO - SIGLA":      "state",
	"ESTADO":              "state",
	"UF":                  "state",
	"STATE":               "state",
	"REGIAO - SIGLA":      "region",
	"REGIAO":              "region",
	"REGION":              "region",
	"PRODUTO":             "fuel_type",
	"COMBUSTIVEL":         "fuel_type",
	"FUEL TYPE":           "fuel_type",
	"VALOR DE VENDA":      "price",
	"PRECO MEDIO REVENDA": "price",
	"PRECO":               "price",
	"PRICE":               "price",
	"UNIDADE DE MEDIDA":   "unit",
	"UNIDADE":             "unit",
	"UNIT":                "unit",
	"DATA DA COLETA":      "collected_at",
	"DATA FINAL":          "collected_at",
	"DATA":                "collected_at",
	"COLLECTED AT":        "collected_at",
	"CNPJ DA REVENDA":     "station_id",
	"CNPJ":                "station_id",
	"STATION ID":          "station_id",
}

// RawObservationCSVDecoder returns a record decoder for ParseCSV that resolves
// the column layout from the first header row it sees. Unknown columns are
// ignored; a file without a city, fuel or price column is an error.
func RawObservationCSVDecoder() func(record, headers []string) (RawObservation, error) {
	var index map[string]int
	return func(record, headers []string) (RawObservation, error) {
		if index == nil {
			index = make(map[string]int)
			for i, h := range headers {
				key := Fold(strings.ReplaceAll(strings.TrimPrefix(h, "\ufeff"), "_", " "))
				if field, ok := rawColumns[key]; ok {
					if _, dup := index[field]; !dup {
						index[field] = i
					}
				}
			}
			for _, required := range []string{"city", "fuel_type", "price"} {
				if _, ok := index[required]; !ok {
					index = nil
					return RawObservation{}, errors.Newf("no %s column in headers %v", required, headers)
				}
			}
		}

		get := func(field string) string {
			if i, ok := index[field]; ok && i < len(record) {
				return strings.TrimSpace(record[i])
			}
			return ""
		}
		return RawObservation{
			City:        get("city"),
			State:       get("state"),
			Region:      get("region"),
			FuelType:    get("fuel_type"),
			Price:       get("price"),
			Unit:        get("unit"),
			CollectedAt: get("collected_at"),
			StationId:   get("station_id"),
		}, nil
	}
}
