package network

// Insights summarizes the notable features of a snapshot.
type Insights struct {
	CentralTag        string  `json:"central_tag,omitempty"`
	CentralInfluence  float64 `json:"central_influence,omitempty"`
	StrongestSource   string  `json:"strongest_source,omitempty"`
	StrongestTarget   string  `json:"strongest_target,omitempty"`
	StrongestValue    float64 `json:"strongest_value,omitempty"`
	SelectedCount     int     `json:"selected_count"`
	SelectedAvgRating float64 `json:"selected_avg_rating,omitempty"`
}

// Analyze computes insights. The first node with the highest influence is the
// central tag; the first edge with the highest value is the strongest link.
func Analyze(s *Snapshot) Insights {
	var in Insights
	if s == nil {
		return in
	}

	for _, n := range s.Nodes {
		if n.Influence > in.CentralInfluence {
			in.CentralTag = n.ID
			in.CentralInfluence = n.Influence
		}
	}

	for _, e := range s.Edges {
		if e.Value > in.StrongestValue {
			in.StrongestSource = e.Source
			in.StrongestTarget = e.Target
			in.StrongestValue = e.Value
		}
	}

	var ratingSum float64
	for _, n := range s.Nodes {
		if n.Selected {
			in.SelectedCount++
			ratingSum += n.AvgRating
		}
	}
	if in.SelectedCount > 0 {
		in.SelectedAvgRating = ratingSum / float64(in.SelectedCount)
	}
	return in
}
