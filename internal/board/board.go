// Package board holds the pure projection logic feeding kanban-style views:
// stage grouping, derived lists, and the drag-reassignment gesture protocol.
// It never mutates requests and assumes team scoping was applied upstream.
package board

import (
	"time"

	"github.com/gearguard/gearguard-api/internal/authz"
	"github.com/gearguard/gearguard-api/internal/models"
)

// GroupByStage partitions requests into lifecycle-stage buckets. Every
// canonical stage is present in the result, empty buckets included, so
// columns render even when no card lands in them.
func GroupByStage(requests []models.RequestDetail) map[models.Stage][]models.RequestDetail {
	grouped := make(map[models.Stage][]models.RequestDetail, len(models.Stages()))
	for _, stage := range models.Stages() {
		grouped[stage] = []models.RequestDetail{}
	}
	for _, req := range requests {
		grouped[req.Stage] = append(grouped[req.Stage], req)
	}
	return grouped
}

// Column is one rendered kanban column, labelled with the board-surface
// stage vocabulary (REPAIRED/SCRAP for the terminal pair).
type Column struct {
	Stage    models.Stage           `json:"stage"`
	Label    string                 `json:"label"`
	Requests []models.RequestDetail `json:"requests"`
}

// Columns renders the grouped requests in workflow order for the board.
func Columns(requests []models.RequestDetail) []Column {
	grouped := GroupByStage(requests)
	columns := make([]Column, 0, len(models.Stages()))
	for _, stage := range models.Stages() {
		columns = append(columns, Column{
			Stage:    stage,
			Label:    stage.BoardLabel(),
			Requests: grouped[stage],
		})
	}
	return columns
}

// Snapshot is the full board payload: the ordered columns plus the derived
// overdue and unassigned views rendered alongside them.
type Snapshot struct {
	Columns    []Column               `json:"columns"`
	Overdue    []models.RequestDetail `json:"overdue"`
	Unassigned []models.RequestDetail `json:"unassigned"`
}

// BuildSnapshot assembles the board payload. The cutoff is the instant a
// scheduled date must precede to count as overdue.
func BuildSnapshot(requests []models.RequestDetail, cutoff time.Time) Snapshot {
	return Snapshot{
		Columns:    Columns(requests),
		Overdue:    ComputeOverdue(requests, cutoff),
		Unassigned: ComputeUnassigned(requests),
	}
}

// ComputeOverdue returns requests whose scheduled date has passed and whose
// stage is not terminal. The caller supplies now so each dashboard render
// reflects the current clock rather than a cached cutoff.
func ComputeOverdue(requests []models.RequestDetail, now time.Time) []models.RequestDetail {
	overdue := make([]models.RequestDetail, 0)
	for _, req := range requests {
		if req.Stage.Terminal() {
			continue
		}
		if req.ScheduledDate != nil && req.ScheduledDate.Before(now) {
			overdue = append(overdue, req)
		}
	}
	return overdue
}

// ComputeUnassigned returns requests without an assignee, regardless of stage.
func ComputeUnassigned(requests []models.RequestDetail) []models.RequestDetail {
	unassigned := make([]models.RequestDetail, 0)
	for _, req := range requests {
		if req.AssignedToID == nil || *req.AssignedToID == "" {
			unassigned = append(unassigned, req)
		}
	}
	return unassigned
}

// FilterForTechnician keeps the requests a technician should see: those
// assigned to them plus unassigned ones they would be eligible to take.
// Reusing the assignment-eligibility gate keeps read and write visibility
// symmetric.
func FilterForTechnician(requests []models.RequestDetail, actor authz.Actor, departmentName *string) []models.RequestDetail {
	visible := make([]models.RequestDetail, 0)
	for _, req := range requests {
		if req.AssignedToID != nil && *req.AssignedToID == actor.ID {
			visible = append(visible, req)
			continue
		}
		if req.AssignedToID == nil || *req.AssignedToID == "" {
			if authz.AssigneeEligible(actor.TeamID, departmentName, req.TeamID, req.Equipment.Category) == authz.Eligible {
				visible = append(visible, req)
			}
		}
	}
	return visible
}
