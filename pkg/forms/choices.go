package forms

import (
	"fmt"

	"github.com/aretw0/nestflow/pkg/domain"
)

// AddChoice appends an empty choice to a router or multiple-choice node and returns its id.
func (e *Editor) AddChoice(id string) (string, bool) {
	choiceID := e.newChoiceID()
	ok := e.store.EditConfig(id, func(c domain.Config) bool {
		switch cfg := c.(type) {
		case *domain.RouterConfig:
			cfg.Choices = append(cfg.Choices, domain.Choice{ID: choiceID})
		case *domain.MultipleChoiceConfig:
			cfg.Choices = append(cfg.Choices, domain.Option{ID: choiceID})
		default:
			return false
		}
		return true
	})
	if !ok {
		return "", false
	}
	return choiceID, true
}

// RemoveChoice deletes a choice. Removing a router choice also removes its branch.
func (e *Editor) RemoveChoice(id, choiceID string) bool {
	return e.store.EditConfig(id, func(c domain.Config) bool {
		switch cfg := c.(type) {
		case *domain.RouterConfig:
			for i := range cfg.Choices {
				if cfg.Choices[i].ID == choiceID {
					cfg.Choices = append(cfg.Choices[:i], cfg.Choices[i+1:]...)
					return true
				}
			}
		case *domain.MultipleChoiceConfig:
			for i := range cfg.Choices {
				if cfg.Choices[i].ID == choiceID {
					cfg.Choices = append(cfg.Choices[:i], cfg.Choices[i+1:]...)
					return true
				}
			}
		}
		return false
	})
}

// SetChoiceText relabels a choice.
func (e *Editor) SetChoiceText(id, choiceID, text string) bool {
	return e.store.EditConfig(id, func(c domain.Config) bool {
		switch cfg := c.(type) {
		case *domain.RouterConfig:
			if ch, ok := cfg.Choice(choiceID); ok {
				ch.Text = text
				return true
			}
		case *domain.MultipleChoiceConfig:
			for i := range cfg.Choices {
				if cfg.Choices[i].ID == choiceID {
					cfg.Choices[i].Text = text
					return true
				}
			}
		}
		return false
	})
}

// ConnectChoice wires one router choice. An empty target makes the branch terminal.
func (e *Editor) ConnectChoice(id, choiceID, targetID string) (bool, error) {
	if id == targetID {
		return false, fmt.Errorf("connect %s choice %s: %w", id, choiceID, domain.ErrSelfConnection)
	}
	return e.store.UpdateRouterConnection(id, choiceID, targetID), nil
}

// SetOverlay toggles whether a router renders on top of the previous node.
func (e *Editor) SetOverlay(id string, overlay bool) bool {
	return e.store.EditConfig(id, func(c domain.Config) bool {
		rc, ok := c.(*domain.RouterConfig)
		if ok {
			rc.Overlay = overlay
		}
		return ok
	})
}

// SetAllowMultiple toggles multi-select on a multiple-choice node.
func (e *Editor) SetAllowMultiple(id string, allow bool) bool {
	return e.store.EditConfig(id, func(c domain.Config) bool {
		mc, ok := c.(*domain.MultipleChoiceConfig)
		if ok {
			mc.AllowMultiple = allow
		}
		return ok
	})
}
