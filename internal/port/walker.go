package port

// Walker discovers corpus files under a directory for bulk ingestion.
type Walker interface {
	Walk(root string) ([]string, error)
}
