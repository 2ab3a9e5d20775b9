package coverage_test

import (
	"errors"
	"testing"

	"inkflow/internal/coverage"
	"inkflow/internal/services"
)

func TestParseFileNameGrammar(t *testing.T) {
	cases := []struct {
		name   string
		want   coverage.FileName
		noJDF  bool
		reject bool
	}{
		{name: "12345-2.xml", want: coverage.FileName{Job: 12345, Item: 2}},
		{name: "/srv/ink/12345-2.XML", want: coverage.FileName{Job: 12345, Item: 2}},
		{name: "12345-2 rev2.xml", want: coverage.FileName{Job: 12345, Item: 2, Suffix: "rev2"}},
		{name: "12345-2_nojdf.xml", want: coverage.FileName{Job: 12345, Item: 2, Marker: "nojdf"}, noJDF: true},
		{name: "12345-2 rev2_nojdf.xml", want: coverage.FileName{Job: 12345, Item: 2, Suffix: "rev2", Marker: "nojdf"}, noJDF: true},
		{name: "12345-2_NOJDF (2).xml", want: coverage.FileName{Job: 12345, Item: 2, Marker: "NOJDF (2)"}, noJDF: true},
		{name: "12345-2 (2).xml", want: coverage.FileName{Job: 12345, Item: 2, Suffix: "(2)"}},
		{name: "12345-2_other.xml", want: coverage.FileName{Job: 12345, Item: 2, Marker: "other"}},
		{name: "12345.xml", reject: true},
		{name: "12345-.xml", reject: true},
		{name: "-2.xml", reject: true},
		{name: "abc-2.xml", reject: true},
		{name: "12345-2b.xml", reject: true},
		{name: "12345-2 .xml", reject: true},
		{name: "12345-2.pdf", reject: true},
		{name: "12345-2", reject: true},
		{name: "12345-0.xml", reject: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := coverage.ParseFileName(tc.name, "")
			if tc.reject {
				if !errors.Is(err, services.ErrMalformedDocument) {
					t.Fatalf("expected malformed document error, got %v (%+v)", err, got)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseFileName returned error: %v", err)
			}
			if got != tc.want {
				t.Fatalf("got %+v want %+v", got, tc.want)
			}
			if got.HasMarker("nojdf") != tc.noJDF {
				t.Fatalf("HasMarker(nojdf) = %v, want %v", got.HasMarker("nojdf"), tc.noJDF)
			}
		})
	}
}

func TestParseFileNameCustomExtension(t *testing.T) {
	if _, err := coverage.ParseFileName("12345-2.cov", ".cov"); err != nil {
		t.Fatalf("expected custom extension accepted: %v", err)
	}
	if _, err := coverage.ParseFileName("12345-2.xml", ".cov"); err == nil {
		t.Fatal("expected default extension rejected when another is configured")
	}
}

func TestFileNameString(t *testing.T) {
	name := coverage.FileName{Job: 9, Item: 3}
	if name.String() != "9-3" {
		t.Fatalf("unexpected string %q", name.String())
	}
}
