package internal

import (
	"database/sql"
	_ "embed"
	"log"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/tavsec/gin-healthcheck/checks"

	"github.com/rm-hull/fuel-metrics-api/internal/models"
)

//go:embed sql/insert_observation.sql
var insertObservationSQL string

//go:embed sql/region_series.sql
var regionSeriesSQL string

//go:embed sql/city_series.sql
var citySeriesSQL string

//go:embed sql/purge_observations.sql
var purgeObservationsSQL string

//go:embed sql/last_collected.sql
var lastCollectedSQL string

//go:embed sql/scope_series.sql
var scopeSeriesSQL string

//go:embed sql/search_cities.sql
var searchCitiesSQL string

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

type ObservationsRepository interface {
	InsertObservations(batch []models.PriceObservation) (int, error)
	RegionSeries(region string, fuelType models.FuelType, since, until time.Time) (models.Series, error)
	CitySeries(cities []string, fuelType models.FuelType, since, until time.Time) (map[string]models.Series, error)
	ScopeSeries(scope models.Scope, fuelType models.FuelType, since, until time.Time) (map[string]models.Series, error)
	SearchCities(query string, limit int) ([]models.CityMatch, error)
	PurgeBefore(cutoff time.Time) (int64, error)
	LastCollected() (*time.Time, error)
	Check() checks.Check
	Close() error
}

type sqliteRepository struct {
	db *sql.DB
}

func NewObservationsRepository(db *sql.DB) ObservationsRepository {
	return &sqliteRepository{
		db: db,
	}
}

// InsertObservations upserts a batch in one transaction and reports how many
// rows were new or changed.
func (repo *sqliteRepository) InsertObservations(batch []models.PriceObservation) (int, error) {
	if len(batch) == 0 {
		return 0, nil
	}

	tx, err := repo.db.Begin()
	if err != nil {
		return 0, errors.Wrap(err, "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			if rbErr := tx.Rollback(); rbErr != nil {
				log.Printf("error rolling back transaction: %v", rbErr)
			}
		}
	}()

	stmt, err := tx.Prepare(insertObservationSQL)
	if err != nil {
		return 0, errors.Wrap(err, "failed to prepare statement")
	}
	defer func() {
		if err := stmt.Close(); err != nil {
			log.Printf("failed to close statement: %v", err)
		}
	}()

	count := 0
	for _, obs := range batch {
		var res sql.Result
		res, err = stmt.Exec(obs.ToTuple()...)
		if err != nil {
			return 0, errors.Wrapf(err, "failed to insert observation for %s", obs.City)
		}
		var n int64
		if n, err = res.RowsAffected(); err != nil {
			return 0, errors.Wrap(err, "failed to read affected rows")
		}
		count += int(n)
	}

	if err = tx.Commit(); err != nil {
		return 0, errors.Wrap(err, "failed to commit transaction")
	}

	return count, nil
}

func (repo *sqliteRepository) RegionSeries(region string, fuelType models.FuelType, since, until time.Time) (models.Series, error) {
	series := models.Series{Key: models.SeriesKey{Name: region, FuelType: fuelType}}

	err := repo.query(regionSeriesSQL, func(obs models.PriceObservation) {
		series.Observations = append(series.Observations, obs)
	}, region, string(fuelType), since.UTC(), until.UTC())
	if err != nil {
		return models.Series{}, errors.Wrapf(err, "failed to load series for region %s", region)
	}

	return series, nil
}

// CitySeries returns one series per requested city; cities without any
// observation in range map to an empty series.
func (repo *sqliteRepository) CitySeries(cities []string, fuelType models.FuelType, since, until time.Time) (map[string]models.Series, error) {
	results := make(map[string]models.Series, len(cities))
	for _, city := range cities {
		results[city] = models.Series{Key: models.SeriesKey{Name: city, FuelType: fuelType}}
	}
	if len(cities) == 0 {
		return results, nil
	}

	cityList, err := json.Marshal(cities)
	if err != nil {
		return nil, errors.Wrap(err, "failed to encode city list")
	}

	err = repo.query(citySeriesSQL, func(obs models.PriceObservation) {
		series := results[obs.City]
		series.Observations = append(series.Observations, obs)
		results[obs.City] = series
	}, string(cityList), string(fuelType), since.UTC(), until.UTC())
	if err != nil {
		return nil, errors.Wrap(err, "failed to load city series")
	}

	return results, nil
}

// ScopeSeries returns one series per city observed within the scope.
func (repo *sqliteRepository) ScopeSeries(scope models.Scope, fuelType models.FuelType, since, until time.Time) (map[string]models.Series, error) {
	results := make(map[string]models.Series)

	err := repo.query(scopeSeriesSQL, func(obs models.PriceObservation) {
		series, ok := results[obs.City]
		if !ok {
			series.Key = models.SeriesKey{Name: obs.City, FuelType: fuelType}
		}
		series.Observations = append(series.Observations, obs)
		results[obs.City] = series
	}, string(fuelType), scope.State, scope.State, scope.Region, scope.Region, since.UTC(), until.UTC())
	if err != nil {
		return nil, errors.Wrapf(err, "failed to load series for scope state=%q region=%q", scope.State, scope.Region)
	}

	return results, nil
}

// SearchCities matches city names containing query, listing those that start
// with it first.
func (repo *sqliteRepository) SearchCities(query string, limit int) ([]models.CityMatch, error) {
	escaped := likeEscaper.Replace(query)
	rows, err := repo.db.Query(searchCitiesSQL, "%"+escaped+"%", escaped+"%", limit)
	if err != nil {
		return nil, errors.Wrap(err, "failed to execute query")
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Printf("failed to close rows: %v", err)
		}
	}()

	matches := make([]models.CityMatch, 0, limit)
	for rows.Next() {
		var match models.CityMatch
		if err := rows.Scan(&match.City, &match.State, &match.Region, &match.Observations); err != nil {
			return nil, errors.Wrap(err, "failed to scan row")
		}
		matches = append(matches, match)
	}

	if err := rows.Err(); err != nil {
		return nil, errors.Wrap(err, "error iterating over rows")
	}
	return matches, nil
}

func (repo *sqliteRepository) query(query string, collect func(models.PriceObservation), args ...any) error {
	rows, err := repo.db.Query(query, args...)
	if err != nil {
		return errors.Wrap(err, "failed to execute query")
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Printf("failed to close rows: %v", err)
		}
	}()

	for rows.Next() {
		var obs models.PriceObservation
		var fuelType string
		if err := rows.Scan(
			&obs.City, &obs.State, &obs.Region, &fuelType,
			&obs.Price, &obs.CollectedAt, &obs.StationId,
		); err != nil {
			return errors.Wrap(err, "failed to scan row")
		}
		obs.FuelType = models.FuelType(fuelType)
		obs.CollectedAt = obs.CollectedAt.UTC()
		collect(obs)
	}

	if err := rows.Err(); err != nil {
		return errors.Wrap(err, "error iterating over rows")
	}
	return nil
}

func (repo *sqliteRepository) PurgeBefore(cutoff time.Time) (int64, error) {
	res, err := repo.db.Exec(purgeObservationsSQL, cutoff.UTC())
	if err != nil {
		return 0, errors.Wrap(err, "failed to purge observations")
	}
	return res.RowsAffected()
}

// LastCollected is nil until the first observation is stored.
func (repo *sqliteRepository) LastCollected() (*time.Time, error) {
	var last time.Time
	err := repo.db.QueryRow(lastCollectedSQL).Scan(&last)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, errors.Wrap(err, "failed to read last collected timestamp")
	}
	last = last.UTC()
	return &last, nil
}

func (repo *sqliteRepository) Check() checks.Check {
	return &databaseCheck{db: repo.db}
}

func (repo *sqliteRepository) Close() error {
	return repo.db.Close()
}

type databaseCheck struct {
	db *sql.DB
}

func (c *databaseCheck) Pass() bool {
	if err := c.db.Ping(); err != nil {
		log.Printf("healthcheck: database ping failed: %v", err)
		return false
	}
	return true
}

func (c *databaseCheck) Name() string {
	return "sqlite"
}
