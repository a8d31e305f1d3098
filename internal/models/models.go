package models

// Figure is a Plotly figure document. The page hands it to Plotly.react as is.
type Figure struct {
	Data   []Trace `json:"data"`
	Layout Layout  `json:"layout"`
}

// Trace is one line of the chart.
type Trace struct {
	Type string     `json:"type"`
	Mode string     `json:"mode"`
	Name string     `json:"name"`
	X    []float64  `json:"x"`
	Y    []*float64 `json:"y"`
}

type Layout struct {
	Title  *Title  `json:"title,omitempty"`
	XAxis  *Axis   `json:"xaxis,omitempty"`
	YAxis  *Axis   `json:"yaxis,omitempty"`
	Legend *Legend `json:"legend,omitempty"`
}

type Legend struct {
	Title Title `json:"title"`
}

type Title struct {
	Text string `json:"text"`
}

type Axis struct {
	Title Title `json:"title"`
}

// EmptyFigure is the neutral chart shown when there is nothing to plot.
func EmptyFigure() Figure {
	return Figure{Data: []Trace{}}
}

// IsEmpty reports whether the figure has no traces.
func (f Figure) IsEmpty() bool { return len(f.Data) == 0 }

// DataURLUpload is the JSON body of an upload sent as a data URL.
type DataURLUpload struct {
	Contents string `json:"contents"`
	Filename string `json:"filename"`
}

type Health struct {
	Status string `json:"status"`
}
