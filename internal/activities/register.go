package activities

import "go.temporal.io/sdk/worker"

func Register(w worker.Worker, a *Activities) {
	w.RegisterActivity(a.ListExportPDFsActivity)
	w.RegisterActivity(a.ExtractExportDocActivity)
	w.RegisterActivity(a.PersistExportDocActivity)
	w.RegisterActivity(a.WriteBatchArtifactActivity)
	w.RegisterActivity(a.LoadRequirementsActivity)
	w.RegisterActivity(a.LoadExportDocsActivity)
	w.RegisterActivity(a.CreateRunActivity)
	w.RegisterActivity(a.ClassifyDocumentActivity)
	w.RegisterActivity(a.RecordDecisionActivity)
	w.RegisterActivity(a.FinalizeRunActivity)
}
