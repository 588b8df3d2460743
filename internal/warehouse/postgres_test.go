package warehouse

import (
	"errors"
	"testing"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/require"

	"github.com/sayouzone/sayou-healthcare/internal/healthdata"
)

func TestPostgresLoadMedicines(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`TRUNCATE "medicine_data"`).
		WillReturnResult(pgxmock.NewResult("TRUNCATE", 0))
	mock.ExpectCopyFrom(pgx.Identifier{"medicine_data"}, medicineColumns).
		WillReturnResult(2)
	mock.ExpectCommit()
	mock.ExpectRollback()

	w := NewPostgresWithPool(mock)
	records := []healthdata.MedicineRecord{
		{Code: "A1", Name: "가", Price: 1250, ValidFrom: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)},
		{Code: "A2", Name: "나", Price: 980},
	}
	require.NoError(t, w.LoadMedicines(t.Context(), "medicine_data", records))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresLoadHospitalsEmptySkipsCopy(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectBegin()
	mock.ExpectExec(`TRUNCATE "hospital_data"`).
		WillReturnResult(pgxmock.NewResult("TRUNCATE", 0))
	mock.ExpectCommit()
	mock.ExpectRollback()

	w := NewPostgresWithPool(mock)
	require.NoError(t, w.LoadHospitals(t.Context(), "hospital_data", nil))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresLoadRollsBackOnCopyFailure(t *testing.T) {
	t.Parallel()

	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	copyErr := errors.New("copy failed")
	mock.ExpectBegin()
	mock.ExpectExec(`TRUNCATE "pharmacy_data"`).
		WillReturnResult(pgxmock.NewResult("TRUNCATE", 0))
	mock.ExpectCopyFrom(pgx.Identifier{"pharmacy_data"}, facilityColumns).
		WillReturnError(copyErr)
	mock.ExpectRollback()

	w := NewPostgresWithPool(mock)
	err = w.LoadPharmacies(t.Context(), "pharmacy_data", []healthdata.PharmacyRecord{{Code: "P1"}})
	require.ErrorIs(t, err, copyErr)
	require.NoError(t, mock.ExpectationsWereMet())
}
