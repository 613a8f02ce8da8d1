package dto

import "github.com/fekuna/omnipos-stock-service/internal/model"

type CyclicFilters struct {
	Status   model.CyclicStatus
	Location string
}

// UpdateCyclicInput changes only the fields that are set.
type UpdateCyclicInput struct {
	Location      *string
	FrequencyDays *int
	Status        *model.CyclicStatus
}
