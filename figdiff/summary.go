package figdiff

// Summary is the JSON view of a run result.
type Summary struct {
	RunID    string        `json:"run_id"`
	Dir      string        `json:"dir"`
	FileName string        `json:"file_name"`
	Pass     int           `json:"pass"`
	Fail     int           `json:"fail"`
	Nodes    []NodeSummary `json:"nodes"`
}

// NodeSummary is one row of a Summary.
type NodeSummary struct {
	NodeID          string  `json:"node_id"`
	Name            string  `json:"name"`
	Equal           bool    `json:"equal"`
	DiffRatio       float64 `json:"diff_ratio"`
	BaselineChanged bool    `json:"baseline_changed,omitempty"`
}

// Summary returns the JSON view of r.
func (r *Result) Summary() Summary {
	pass, fail := r.Counts()
	s := Summary{
		RunID:    r.RunID,
		Dir:      r.Dir,
		FileName: r.Report.FileName,
		Pass:     pass,
		Fail:     fail,
		Nodes:    []NodeSummary{},
	}
	for _, row := range r.Report.Rows {
		s.Nodes = append(s.Nodes, NodeSummary{
			NodeID:          row.NodeID,
			Name:            row.Name,
			Equal:           row.Equal,
			DiffRatio:       row.DiffRatio,
			BaselineChanged: row.BaselineChanged,
		})
	}
	return s
}
