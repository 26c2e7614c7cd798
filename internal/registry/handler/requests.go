package handler

import (
	"net/http"

	"arefa/internal/export/filter"
)

// Query parameters accepted by the export endpoints.
const (
	queryName        = "name"
	queryAssociation = "association"
	queryDate        = "date"
	queryActivity    = "activity"
	queryStatut      = "statut"
)

// criteriaFromQuery reads the filter criteria. Values are passed through
// untouched; the filter trims and the service rejects malformed ones.
func criteriaFromQuery(r *http.Request) filter.Criteria {
	q := r.URL.Query()
	return filter.Criteria{
		Name:        q.Get(queryName),
		Association: q.Get(queryAssociation),
		Date:        q.Get(queryDate),
		Activity:    q.Get(queryActivity),
		Category:    q.Get(queryStatut),
	}
}
