package workflows

type ExportBatchInput struct {
	LCID     string
	InputDir string
}

type ExportBatchProgress struct {
	LCID        string
	Total       int
	Done        int
	Failed      int
	PerDocument map[string]string
}

type ExportBatchResult struct {
	LCID         string
	Total        int
	Succeeded    int
	Failed       int
	ArtifactPath string
}

type ClassificationRunInput struct {
	LCID  string
	RunID string
	Model string
}

type ClassificationProgress struct {
	RunID       string
	LCID        string
	Total       int
	Cursor      int
	Matches     int
	PerDocument map[string]bool
}

type ClassificationRunResult struct {
	RunID        string
	TotalDocs    int
	MatchesFound int
	Status       string
}
