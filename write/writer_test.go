package write

import (
	"bytes"
	"testing"
)

type fixedValues []*Value

func (f fixedValues) AppendWriteData(v []*Value) []*Value {
	return append(v, f...)
}

type counter struct{ n int }

func (c *counter) AppendWriteData(v []*Value) []*Value {
	return append(v, &Value{Heading: "N", Value: c.n})
}

func TestDisplay(t *testing.T) {
	var tabbed, csv bytes.Buffer
	c := &counter{n: 1}
	d := NewDisplay()
	d.AddDataAdder(c, fixedValues{{Heading: "X", Value: 0.5}, {Heading: "Name", Value: "sin"}})

	err := d.Init(&WriteSettings{DisplayWriters: []Writer{{&tabbed, Tabbed}, {&csv, Logger}}})
	if err != nil {
		t.Fatal(err)
	}
	if !d.Enabled() {
		t.Errorf("display with writers is not enabled")
	}
	for i := 0; i < 2; i++ {
		if err := d.Iterate(); err != nil {
			t.Fatal(err)
		}
		c.n++
	}

	if want := "1\t0.5\tsin\n2\t0.5\tsin\n"; tabbed.String() != want {
		t.Errorf("expected %q, found %q", want, tabbed.String())
	}
	if want := "N,X,Name\n1,0.5,sin\n2,0.5,sin\n"; csv.String() != want {
		t.Errorf("expected %q, found %q", want, csv.String())
	}
}

func TestDisplayDisabled(t *testing.T) {
	d := NewDisplay()
	d.AddDataAdder(&counter{})
	for _, s := range []*WriteSettings{nil, {}} {
		if err := d.Init(s); err != nil {
			t.Fatal(err)
		}
		if d.Enabled() {
			t.Errorf("display enabled without writers")
		}
		if err := d.Iterate(); err != nil {
			t.Errorf("iterate without writers: %v", err)
		}
	}

	var buf bytes.Buffer
	err := d.Init(&WriteSettings{DisplayWriters: []Writer{{&buf, Type(7)}}})
	if err == nil {
		t.Errorf("expected an error for an unknown writer type")
	}
}

func TestParseType(t *testing.T) {
	for _, typ := range []Type{Logger, Tabbed} {
		parsed, err := ParseType(typ.String())
		if err != nil || parsed != typ {
			t.Errorf("round trip of %v gave %v, %v", typ, parsed, err)
		}
	}
	if _, err := ParseType("xml"); err == nil {
		t.Errorf("expected an error for an unknown type")
	}
	if Type(9).String() != "Type(9)" {
		t.Errorf("unexpected name %v", Type(9).String())
	}
}

func TestValueToString(t *testing.T) {
	for _, test := range []struct {
		v    interface{}
		want string
	}{
		{3, "3"},
		{0.1, "0.1"},
		{1e-11, "1e-11"},
		{-0.00033, "-0.00033"},
		{"a", "a"},
		{true, "true"},
	} {
		if got := valueToString(test.v); got != test.want {
			t.Errorf("%v: expected %q, found %q", test.v, test.want, got)
		}
	}
}
