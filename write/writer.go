package write

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

type WriteSettings struct {
	DisplayWriters []Writer // Where should the trace be written. This can be set to nil to avoid all output
}

// DefaultWriteSettings writes a tab separated trace to standard output
func DefaultWriteSettings() *WriteSettings {
	return &WriteSettings{
		DisplayWriters: []Writer{{os.Stdout, Tabbed}},
	}
}

type Type int

const (
	// Logger is a writer intended to save details of the run for future
	// postprocessing. The data is saved as a csv with a heading row, and a
	// row is written every iteration
	Logger Type = iota

	// Tabbed writes one line per iteration with the values separated by tabs
	// and no headings, e.g. "3\t0.25\t1e-05"
	Tabbed
)

func (t Type) String() string {
	switch t {
	case Logger:
		return "csv"
	case Tabbed:
		return "tabbed"
	}
	return "Type(" + strconv.Itoa(int(t)) + ")"
}

// ParseType converts the name of a writer type as returned by String
func ParseType(s string) (Type, error) {
	switch strings.ToLower(s) {
	case "csv", "logger":
		return Logger, nil
	case "tabbed", "tab", "text":
		return Tabbed, nil
	}
	return 0, fmt.Errorf("write: unknown writer type %q", s)
}

type Writer struct {
	io.Writer
	T Type
}

type Value struct {
	Value   interface{}
	Heading string
}

type DataAdder interface {
	AppendWriteData([]*Value) []*Value
}

// Display writes the values of its DataAdders to every writer each time
// Iterate is called. Assumption is that headings don't change during a run
type Display struct {
	displayValues []*Value

	headings []string
	values   []string

	writers []Writer

	dataAdders []DataAdder
}

func NewDisplay() *Display {
	return &Display{}
}

// accumulateValues gets all of the values from the data adder and stores
// them in display
func (d *Display) accumulateValues() {
	d.displayValues = d.displayValues[:0]
	for _, add := range d.dataAdders {
		d.displayValues = add.AppendWriteData(d.displayValues)
	}
}

// AddDataAdder adds a DataAdder to the list of values to be printed/logged.
// This should only be called during initialization
func (d *Display) AddDataAdder(dataAdders ...DataAdder) {
	d.dataAdders = append(d.dataAdders, dataAdders...)
}

// Init sets the writers and writes the csv headings to any Logger writers.
// A nil WriteSettings disables all output.
func (d *Display) Init(w *WriteSettings) error {
	d.writers = nil
	if w != nil {
		d.writers = w.DisplayWriters
	}
	if len(d.writers) == 0 {
		return nil
	}
	d.accumulateValues()

	d.headings = d.headings[:0]
	for _, dat := range d.displayValues {
		d.headings = append(d.headings, dat.Heading)
	}

	for _, w := range d.writers {
		switch w.T {
		default:
			return fmt.Errorf("display: unknown writer type %v", w.T)
		case Logger:
			if err := writeJoined(w, d.headings, ","); err != nil {
				return err
			}
		case Tabbed:
		}
	}
	return nil
}

// Enabled returns true if there is at least one writer
func (d *Display) Enabled() bool {
	return len(d.writers) != 0
}

// Iterate writes the current values to all of the writers
func (d *Display) Iterate() error {
	if len(d.writers) == 0 {
		return nil
	}
	d.accumulateValues()
	d.values = d.values[:0]
	for _, v := range d.displayValues {
		d.values = append(d.values, valueToString(v.Value))
	}

	for _, w := range d.writers {
		var err error
		switch w.T {
		default:
			return fmt.Errorf("display: unknown writer type %v", w.T)
		case Logger:
			err = writeJoined(w, d.values, ",")
		case Tabbed:
			err = writeJoined(w, d.values, "\t")
		}
		if err != nil {
			return err
		}
	}
	return nil
}

func writeJoined(w io.Writer, strs []string, sep string) error {
	_, err := io.WriteString(w, strings.Join(strs, sep)+"\n")
	return err
}

func valueToString(v interface{}) string {
	switch t := v.(type) {
	case int:
		return strconv.Itoa(t)
	case float64:
		return strconv.FormatFloat(t, 'g', -1, 64)
	case string:
		return t
	default:
		return fmt.Sprintf("%v", v)
	}
}
