package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"slices"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"artemis/internal/store"
	"artemis/internal/task"
)

func (s *Server) handleListTasks(w http.ResponseWriter, r *http.Request) {
	tasks, err := s.store.List(r.Context())
	if err != nil {
		s.logger.Error("listing tasks", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "failed to list tasks")
		return
	}
	if tasks == nil {
		tasks = []task.Task{}
	}
	s.writeJSON(w, http.StatusOK, tasks)
}

func (s *Server) handleCreateTask(w http.ResponseWriter, r *http.Request) {
	var t task.Task
	if err := json.NewDecoder(r.Body).Decode(&t); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	tax := s.cfgFn().Board.Taxonomy()
	t.ID = uuid.NewString()
	t.Status = tax.NormalizeStatus(t.Status)
	t.Priority = tax.NormalizePriority(t.Priority)
	now := time.Now().UTC()
	t.CreatedAt = now
	t.UpdatedAt = now

	if err := t.Validate(); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	order, err := s.store.NextOrderInStatus(r.Context(), t.Status)
	if err != nil {
		s.logger.Error("computing lane order", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "failed to create task")
		return
	}
	t.Order = order

	created, err := s.store.Insert(r.Context(), t)
	if err != nil {
		s.logger.Error("inserting task", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "failed to create task")
		return
	}
	s.writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleGetTask(w http.ResponseWriter, r *http.Request) {
	t, err := s.store.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.writeError(w, http.StatusNotFound, "task not found")
			return
		}
		s.logger.Error("fetching task", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "failed to fetch task")
		return
	}
	s.writeJSON(w, http.StatusOK, t)
}

func (s *Server) handlePatchTask(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")

	var p task.Patch
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if p.IsZero() {
		s.writeError(w, http.StatusBadRequest, "patch contains no changes")
		return
	}

	tax := s.cfgFn().Board.Taxonomy()
	if p.Status != nil {
		norm := tax.NormalizeStatus(*p.Status)
		p.Status = &norm
	}
	if p.Priority != nil {
		norm := tax.NormalizePriority(*p.Priority)
		p.Priority = &norm
	}

	current, err := s.store.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.writeError(w, http.StatusNotFound, "task not found")
			return
		}
		s.logger.Error("fetching task", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "failed to update task")
		return
	}

	preview := p.Apply(current)
	if err := preview.Validate(); err != nil {
		s.writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	if p.DependsOn != nil {
		if err := s.checkDependencyCycles(r, id, *p.DependsOn); err != nil {
			s.writeError(w, http.StatusConflict, err.Error())
			return
		}
	}

	updated, err := s.store.Update(r.Context(), id, &p)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.writeError(w, http.StatusNotFound, "task not found")
			return
		}
		s.logger.Error("updating task", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "failed to update task")
		return
	}
	s.writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleDeleteTask(w http.ResponseWriter, r *http.Request) {
	err := s.store.Delete(r.Context(), r.PathValue("id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.writeError(w, http.StatusNotFound, "task not found")
			return
		}
		s.logger.Error("deleting task", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "failed to delete task")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleAddDependency(w http.ResponseWriter, r *http.Request) {
	id, depID := r.PathValue("id"), r.PathValue("depID")
	if id == depID {
		s.writeError(w, http.StatusConflict, "a task cannot depend on itself")
		return
	}

	t, err := s.store.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.writeError(w, http.StatusNotFound, "task not found")
			return
		}
		s.logger.Error("fetching task", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "failed to add dependency")
		return
	}
	if _, err := s.store.Get(r.Context(), depID); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.writeError(w, http.StatusNotFound, "dependency task not found")
			return
		}
		s.logger.Error("fetching dependency", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "failed to add dependency")
		return
	}

	if slices.Contains(t.DependsOn, depID) {
		s.writeJSON(w, http.StatusOK, t)
		return
	}

	deps := append(slices.Clone(t.DependsOn), depID)
	if err := s.checkDependencyCycles(r, id, deps); err != nil {
		s.writeError(w, http.StatusConflict, err.Error())
		return
	}

	updated, err := s.store.Update(r.Context(), id, &task.Patch{DependsOn: &deps})
	if err != nil {
		s.logger.Error("updating dependencies", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "failed to add dependency")
		return
	}
	s.writeJSON(w, http.StatusOK, updated)
}

func (s *Server) handleRemoveDependency(w http.ResponseWriter, r *http.Request) {
	id, depID := r.PathValue("id"), r.PathValue("depID")

	t, err := s.store.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.writeError(w, http.StatusNotFound, "task not found")
			return
		}
		s.logger.Error("fetching task", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "failed to remove dependency")
		return
	}

	if !slices.Contains(t.DependsOn, depID) {
		s.writeJSON(w, http.StatusOK, t)
		return
	}

	deps := slices.DeleteFunc(slices.Clone(t.DependsOn), func(d string) bool {
		return d == depID
	})
	updated, err := s.store.Update(r.Context(), id, &task.Patch{DependsOn: &deps})
	if err != nil {
		s.logger.Error("updating dependencies", zap.Error(err))
		s.writeError(w, http.StatusInternalServerError, "failed to remove dependency")
		return
	}
	s.writeJSON(w, http.StatusOK, updated)
}

// checkDependencyCycles verifies that giving task id the full dependency
// list deps leaves the board's graph acyclic.
func (s *Server) checkDependencyCycles(r *http.Request, id string, deps []string) error {
	all, err := s.store.List(r.Context())
	if err != nil {
		return err
	}
	for _, dep := range deps {
		if task.WouldCreateCycle(all, id, dep) {
			return errors.New("dependency would create a cycle")
		}
	}
	return nil
}

type configResponse struct {
	Statuses     []string `json:"statuses"`
	Priorities   []string `json:"priorities"`
	EffortSizes  []string `json:"effortSizes"`
	ProductAreas []string `json:"productAreas"`
	TeamMembers  []string `json:"teamMembers"`
}

func (s *Server) handleConfig(w http.ResponseWriter, r *http.Request) {
	tax := s.cfgFn().Board.Taxonomy()
	s.writeJSON(w, http.StatusOK, configResponse{
		Statuses:     tax.Statuses,
		Priorities:   tax.Priorities,
		EffortSizes:  tax.EffortSizes,
		ProductAreas: tax.ProductAreas,
		TeamMembers:  tax.TeamMembers,
	})
}
