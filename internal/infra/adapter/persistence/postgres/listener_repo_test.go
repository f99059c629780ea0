package postgres_test

import (
	"context"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"

	"pushhub/internal/infra/adapter/persistence/postgres"
)

func TestListenerRepo_List(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT callback_url FROM listeners")).
		WillReturnRows(sqlmock.NewRows([]string{"callback_url"}).
			AddRow("http://listener1.example.com/cb").
			AddRow("http://listener2.example.com/cb"))

	repo := postgres.NewListenerRepo(db)
	listeners, err := repo.List(context.Background())
	if err != nil {
		t.Fatalf("List err=%v", err)
	}
	if len(listeners) != 2 {
		t.Fatalf("len(listeners) = %d, want 2", len(listeners))
	}
}

func TestListenerRepo_NotifiedTopicURLsFor(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	mock.ExpectQuery(regexp.QuoteMeta("SELECT topic_url FROM listener_topics")).
		WithArgs("http://listener1.example.com/cb").
		WillReturnRows(sqlmock.NewRows([]string{"topic_url"}).
			AddRow("http://example.com/feed1"))

	repo := postgres.NewListenerRepo(db)
	urls, err := repo.NotifiedTopicURLsFor(context.Background(), "http://listener1.example.com/cb")
	if err != nil {
		t.Fatalf("NotifiedTopicURLsFor err=%v", err)
	}
	if len(urls) != 1 || urls[0] != "http://example.com/feed1" {
		t.Fatalf("urls = %v", urls)
	}
}

func TestListenerRepo_MarkNotified(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO listener_topics")).
		WithArgs("http://listener1.example.com/cb", "http://example.com/feed1").
		WillReturnResult(sqlmock.NewResult(1, 1))

	repo := postgres.NewListenerRepo(db)
	err := repo.MarkNotified(context.Background(), "http://listener1.example.com/cb", "http://example.com/feed1")
	if err != nil {
		t.Fatalf("MarkNotified err=%v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatal(err)
	}
}
