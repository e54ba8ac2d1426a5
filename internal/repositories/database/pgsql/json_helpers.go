package pgsql

import (
	"encoding/json"
	"fmt"

	"github.com/contaclara/recon_backend/internal/core/domain"
	"github.com/contaclara/recon_backend/internal/models"
)

// Concept lists and candidate lists live in JSONB columns; these helpers do
// the byte-level round trip. A nil slice maps to SQL NULL, not to '[]'.

func toModelConcepts(ds []domain.Concept) []models.Concept {
	if ds == nil {
		return nil
	}
	ms := make([]models.Concept, len(ds))
	for i, d := range ds {
		ms[i] = models.Concept{
			Description: d.Description,
			Quantity:    d.Quantity,
			UnitPrice:   d.UnitPrice,
		}
	}
	return ms
}

func toDomainConcepts(ms []models.Concept) []domain.Concept {
	if ms == nil {
		return nil
	}
	ds := make([]domain.Concept, len(ms))
	for i, m := range ms {
		ds[i] = domain.Concept{
			Description: m.Description,
			Quantity:    m.Quantity,
			UnitPrice:   m.UnitPrice,
		}
	}
	return ds
}

func conceptsToJSON(ms []models.Concept) ([]byte, error) {
	if ms == nil {
		return nil, nil
	}
	raw, err := json.Marshal(ms)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal concepts: %w", err)
	}
	return raw, nil
}

func conceptsFromJSON(raw []byte) ([]models.Concept, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var ms []models.Concept
	if err := json.Unmarshal(raw, &ms); err != nil {
		return nil, fmt.Errorf("failed to unmarshal concepts: %w", err)
	}
	return ms, nil
}

func candidatesToJSON(ms []models.AssignmentCandidate) ([]byte, error) {
	raw, err := json.Marshal(ms)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal candidates: %w", err)
	}
	return raw, nil
}

func candidatesFromJSON(raw []byte) ([]models.AssignmentCandidate, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var ms []models.AssignmentCandidate
	if err := json.Unmarshal(raw, &ms); err != nil {
		return nil, fmt.Errorf("failed to unmarshal candidates: %w", err)
	}
	return ms, nil
}

func chargesToJSON(ids []string) ([]byte, error) {
	if ids == nil {
		ids = []string{}
	}
	raw, err := json.Marshal(ids)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal candidate charges: %w", err)
	}
	return raw, nil
}

func chargesFromJSON(raw []byte) ([]string, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	var ids []string
	if err := json.Unmarshal(raw, &ids); err != nil {
		return nil, fmt.Errorf("failed to unmarshal candidate charges: %w", err)
	}
	return ids, nil
}
