package rules

// ConflictRecord is one ambiguous reference found by detection. Records are
// read-only once produced.
type ConflictRecord struct {
	Category   Category `json:"category"`
	FilePath   string   `json:"filePath,omitempty"`
	Line       int      `json:"line,omitempty"`
	Column     int      `json:"column,omitempty"`
	Identifier string   `json:"identifier"`
	Syntax     Syntax   `json:"syntax"`
	Snippet    string   `json:"snippet"`
}

// Files returns the distinct file paths of records, in first-seen order.
func Files(records []ConflictRecord) []string {
	seen := make(map[string]bool)
	var out []string
	for _, r := range records {
		if r.FilePath == "" || seen[r.FilePath] {
			continue
		}
		seen[r.FilePath] = true
		out = append(out, r.FilePath)
	}
	return out
}
