package batch

import "github.com/dshills/flowdag/dagcore"

// NodeStatusCounts tallies how many lines left a node in each terminal
// status.
type NodeStatusCounts struct {
	Completed int `json:"completed"`
	Bypassed  int `json:"bypassed"`
	Failed    int `json:"failed"`
}

// LineStatusCounts tallies line outcomes across the batch.
type LineStatusCounts struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
	Failed    int `json:"failed"`
	Canceled  int `json:"canceled"`
}

// StatusSummary is the structured object returned alongside a batch run, not
// a human-readable string.
type StatusSummary struct {
	Nodes map[string]*NodeStatusCounts `json:"nodes"`
	Lines LineStatusCounts             `json:"lines"`
}

func newStatusSummary() *StatusSummary {
	return &StatusSummary{Nodes: make(map[string]*NodeStatusCounts)}
}

func (s *StatusSummary) recordLine(runInfo dagcore.RunInfo, nodeInfos map[string]*dagcore.NodeRunInfo) {
	s.Lines.Total++
	switch runInfo.Status {
	case dagcore.StatusCompleted:
		s.Lines.Completed++
	case dagcore.StatusFailed:
		s.Lines.Failed++
	case dagcore.StatusCanceled:
		s.Lines.Canceled++
	}

	for name, info := range nodeInfos {
		counts, ok := s.Nodes[name]
		if !ok {
			counts = &NodeStatusCounts{}
			s.Nodes[name] = counts
		}
		switch info.Status {
		case dagcore.StatusCompleted:
			counts.Completed++
		case dagcore.StatusBypassed:
			counts.Bypassed++
		case dagcore.StatusFailed:
			counts.Failed++
		}
	}
}
