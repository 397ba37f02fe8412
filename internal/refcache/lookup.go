package refcache

import "github.com/lvminh/farmdiary/internal/models"

// Derived lookups operate purely on in-memory state and never trigger a
// fetch. Linear scans are fine at reference-data scale.

func (c *Cache) SeasonByID(id string) (models.Season, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, s := range c.seasons.items {
		if s.ID == id {
			return s, true
		}
	}
	return models.Season{}, false
}

func (c *Cache) StageByID(id string) (models.Stage, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, s := range c.stages.items {
		if s.ID == id {
			return s, true
		}
	}
	return models.Stage{}, false
}

func (c *Cache) TaskByID(id string) (models.Task, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, t := range c.tasks.items {
		if t.ID == id {
			return t, true
		}
	}
	return models.Task{}, false
}

// TasksForStage returns the tasks belonging to one production stage.
func (c *Cache) TasksForStage(stageID string) []models.Task {
	c.mu.RLock()
	defer c.mu.RUnlock()
	var out []models.Task
	for _, t := range c.tasks.items {
		if t.StageID == stageID {
			out = append(out, t)
		}
	}
	return out
}
