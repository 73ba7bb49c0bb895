package repositories

import (
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"gruzclick/internal/models"
)

func TestRecordLoginFailureReturnsCounter(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()
	repo := NewUserRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SET login_attempts = login_attempts + 1")).
		WithArgs("user@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"login_attempts"}).AddRow(3))

	attempts, err := repo.RecordLoginFailure("user@example.com")
	if err != nil {
		t.Fatalf("RecordLoginFailure: %v", err)
	}
	if attempts != 3 {
		t.Errorf("attempts = %d, want 3", attempts)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestRecordLoginFailureUnknownEmail(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()
	repo := NewUserRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SET login_attempts = login_attempts + 1")).
		WithArgs("ghost@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"login_attempts"}))

	attempts, err := repo.RecordLoginFailure("ghost@example.com")
	if err != nil {
		t.Fatalf("RecordLoginFailure: %v", err)
	}
	if attempts != 0 {
		t.Errorf("attempts = %d, want 0 for unknown email", attempts)
	}
}

func TestMarkVerifiedColumnPerChannel(t *testing.T) {
	cases := []struct {
		channel string
		column  string
	}{
		{models.ChannelEmail, "email_verified"},
		{models.ChannelSMS, "phone_verified"},
		{models.ChannelTelegram, "telegram_verified"},
	}
	for _, tc := range cases {
		t.Run(tc.channel, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			if err != nil {
				t.Fatalf("sqlmock: %v", err)
			}
			defer db.Close()
			repo := NewUserRepository(db)

			mock.ExpectExec(regexp.QuoteMeta("SET "+tc.column+" = TRUE")).
				WithArgs("u1").
				WillReturnResult(sqlmock.NewResult(0, 1))

			if err := repo.MarkVerified("u1", tc.channel); err != nil {
				t.Fatalf("MarkVerified: %v", err)
			}
			if err := mock.ExpectationsWereMet(); err != nil {
				t.Error(err)
			}
		})
	}
}

func TestMarkVerifiedRejectsUnknownChannel(t *testing.T) {
	db, _, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()
	repo := NewUserRepository(db)

	if err := repo.MarkVerified("u1", "carrier-pigeon"); err == nil {
		t.Error("unknown channel must be rejected before touching the DB")
	}
}

func TestSetLockout(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()
	repo := NewUserRepository(db)

	until := time.Now().Add(15 * time.Minute)
	mock.ExpectExec(regexp.QuoteMeta("SET locked_until = $2")).
		WithArgs("user@example.com", until).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.SetLockout("user@example.com", until); err != nil {
		t.Fatalf("SetLockout: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}

func TestClearLoginFailures(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock: %v", err)
	}
	defer db.Close()
	repo := NewUserRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("SET login_attempts = 0, locked_until = NULL")).
		WithArgs("user@example.com", "203.0.113.7").
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.ClearLoginFailures("user@example.com", "203.0.113.7"); err != nil {
		t.Fatalf("ClearLoginFailures: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Error(err)
	}
}
