package tier

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/eduflow/transcache"
)

func TestPostgres_Get_Hit(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	p := NewPostgres(db)

	rows := sqlmock.NewRows([]string{"translation"}).AddRow("mèo")
	mock.ExpectQuery(regexp.QuoteMeta(`SELECT translation FROM translation_cache WHERE cache_key = $1`)).
		WithArgs("key1").
		WillReturnRows(rows)

	val, ok, err := p.Get(context.Background(), "key1")
	if err != nil {
		t.Fatalf("Get failed: %v", err)
	}
	if !ok || val != "mèo" {
		t.Errorf("expected ('mèo', true), got (%q, %v)", val, ok)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPostgres_Get_Miss(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	p := NewPostgres(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT translation FROM translation_cache WHERE cache_key = $1`)).
		WithArgs("missing").
		WillReturnRows(sqlmock.NewRows([]string{"translation"}))

	val, ok, err := p.Get(context.Background(), "missing")
	if err != nil {
		t.Fatalf("no rows must not be an error, got %v", err)
	}
	if ok || val != "" {
		t.Errorf("expected miss, got (%q, %v)", val, ok)
	}
}

func TestPostgres_Set(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	p := NewPostgres(db)

	ts := time.Now().UnixMilli()
	entry := transcache.Entry{
		Word:        "猫",
		Translation: "mèo",
		SourceLang:  "zh",
		TargetLang:  "vi",
		Timestamp:   ts,
		Provider:    transcache.ProviderPrimary,
	}

	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO translation_cache`)).
		WithArgs("key1", "猫", "zh", "vi", "mèo", "primary-provider", time.UnixMilli(ts).UTC()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := p.Set(context.Background(), "key1", entry); err != nil {
		t.Errorf("Set failed: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPostgres_Set_DuplicateIsNoOp(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatal(err)
	}
	defer db.Close()

	p := NewPostgres(db)

	ts := time.Now().UnixMilli()
	entry := transcache.Entry{
		Word:        "猫",
		Translation: "mèo",
		SourceLang:  "zh",
		TargetLang:  "vi",
		Timestamp:   ts,
		Provider:    transcache.ProviderPrimary,
	}

	// ON CONFLICT DO NOTHING: zero rows affected, no error.
	for i := 0; i < 2; i++ {
		affected := int64(1 - i)
		mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO translation_cache`)).
			WithArgs("key1", "猫", "zh", "vi", "mèo", "primary-provider", time.UnixMilli(ts).UTC()).
			WillReturnResult(sqlmock.NewResult(0, affected))
	}

	for i := 0; i < 2; i++ {
		if err := p.Set(context.Background(), "key1", entry); err != nil {
			t.Errorf("duplicate insert %d should be a silent no-op, got %v", i, err)
		}
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}
