package models

import "github.com/cockroachdb/errors"

type State struct {
	Sigla  string `json:"sigla"`
	Name   string `json:"name"`
	Region string `json:"region"`
}

func StateFromCSV(record, headers []string) (*State, error) {
	if len(record) != 3 {
		return nil, errors.Newf("expected 3 columns, got %d", len(record))
	}
	return &State{
		Sigla:  record[0],
		Name:   record[1],
		Region: record[2],
	}, nil
}
