package locator

import (
	"errors"
	"testing"
	"time"

	"github.com/sayouzone/sayou-healthcare/internal/healthdata"
)

func date(s string) time.Time {
	t, err := time.Parse("2006-01", s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestResolvePicksMaxPublishDate(t *testing.T) {
	t.Parallel()

	listing := []healthdata.SourceDescriptor{
		{Filename: "list_2024-01.xlsx", PublishedAt: date("2024-01"), Handle: "100"},
		{Filename: "list_2024-03.xlsx", PublishedAt: date("2024-03"), Handle: "101"},
	}

	got, err := Resolve(listing)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got.Handle != "101" {
		t.Fatalf("expected the 2024-03 entry, got %+v", got)
	}
}

func TestResolveTieBreaksByListingOrder(t *testing.T) {
	t.Parallel()

	listing := []healthdata.SourceDescriptor{
		{Filename: "older.xlsx", PublishedAt: date("2024-01"), Handle: "1"},
		{Filename: "first_of_max.xlsx", PublishedAt: date("2024-03"), Handle: "2"},
		{Filename: "second_of_max.xlsx", PublishedAt: date("2024-03"), Handle: "3"},
	}

	got, err := Resolve(listing)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if got.Handle != "2" {
		t.Fatalf("expected first-listed of the maximal-date entries, got %+v", got)
	}
}

func TestResolveEmptyListing(t *testing.T) {
	t.Parallel()

	_, err := Resolve(nil)
	if !errors.Is(err, healthdata.ErrNoCandidate) {
		t.Fatalf("expected ErrNoCandidate, got %v", err)
	}
}

func TestResolveMalformedEntry(t *testing.T) {
	t.Parallel()

	listing := []healthdata.SourceDescriptor{
		{Filename: "ok.xlsx", PublishedAt: date("2024-02"), Handle: "1"},
		{Filename: "undated.xlsx", Handle: "2"},
	}

	_, err := Resolve(listing)
	var malformed *healthdata.MalformedListingError
	if !errors.As(err, &malformed) {
		t.Fatalf("expected MalformedListingError, got %v", err)
	}
	if malformed.Entry != "undated.xlsx" {
		t.Fatalf("expected the undated entry to be named, got %q", malformed.Entry)
	}
}
