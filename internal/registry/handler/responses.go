package handler

import (
	"arefa/internal/export/batch"
	"arefa/internal/registry/service"
)

// Archive summary headers set on export downloads.
const (
	HeaderDocuments = "X-Arefa-Documents"
	HeaderSkipped   = "X-Arefa-Skipped"
)

type DeleteResponse struct {
	ID      int64 `json:"id"`
	Deleted bool  `json:"deleted"`
}

type PlanResponse struct {
	Total     int           `json:"total"`
	BatchSize int           `json:"batchSize"`
	Batches   []batch.Range `json:"batches"`
}

func toPlanResponse(p *service.Plan) *PlanResponse {
	batches := p.Batches
	if batches == nil {
		batches = []batch.Range{}
	}
	return &PlanResponse{Total: p.Total, BatchSize: p.BatchSize, Batches: batches}
}
