package onboarding

import (
	"context"
	"fmt"
	"sync"

	"github.com/futig/docgen-gateway/internal/entity"
	"go.uber.org/zap"
)

// FlagDone is the flag value of a finished or skipped tour
const FlagDone = "done"

// FlagStore persists onboarding flags on the user's profile
type FlagStore interface {
	Flags(ctx context.Context, userID string) (map[string]string, error)
	SetFlag(ctx context.Context, userID, key, value string) error
}

// Progress is the position of a user in a page tour
type Progress struct {
	Page      Page  `json:"page"`
	Index     int   `json:"index"`
	Total     int   `json:"total"`
	Step      *Step `json:"step,omitempty"`
	Completed bool  `json:"completed"`
}

type tourState struct {
	page  Page
	index int
	done  bool
}

// Controller walks users through the page tours. A finished or skipped tour is recorded
// as a profile flag, so the page starts as complete on the next visit.
type Controller struct {
	flags  FlagStore
	logger *zap.Logger

	mu     sync.Mutex
	active map[string]*tourState
}

func NewController(flags FlagStore, logger *zap.Logger) *Controller {
	return &Controller{
		flags:  flags,
		logger: logger,
		active: make(map[string]*tourState),
	}
}

// Start opens the tour of page for userID
func (c *Controller) Start(ctx context.Context, userID string, page Page) (Progress, error) {
	if err := page.Validate(); err != nil {
		return Progress{}, err
	}

	flags, err := c.flags.Flags(ctx, userID)
	if err != nil {
		return Progress{}, fmt.Errorf("load onboarding flags: %w", err)
	}

	st := &tourState{page: page, done: flags[page.FlagKey()] == FlagDone}

	c.mu.Lock()
	c.active[userID] = st
	progress := st.progress()
	c.mu.Unlock()

	return progress, nil
}

// Next moves to the following step; moving past the last one finishes the tour
func (c *Controller) Next(ctx context.Context, userID string) (Progress, error) {
	c.mu.Lock()
	st, ok := c.active[userID]
	if !ok {
		c.mu.Unlock()
		return Progress{}, fmt.Errorf("%w: user %s", entity.ErrTourNotStarted, userID)
	}
	if st.done {
		progress := st.progress()
		c.mu.Unlock()
		return progress, nil
	}

	st.index++
	finished := st.index >= len(Steps(st.page))
	if finished {
		st.done = true
	}
	progress := st.progress()
	c.mu.Unlock()

	if finished {
		if err := c.markDone(ctx, userID, st.page); err != nil {
			return Progress{}, err
		}
	}

	return progress, nil
}

// Skip finishes the current tour immediately
func (c *Controller) Skip(ctx context.Context, userID string) (Progress, error) {
	c.mu.Lock()
	st, ok := c.active[userID]
	if !ok {
		c.mu.Unlock()
		return Progress{}, fmt.Errorf("%w: user %s", entity.ErrTourNotStarted, userID)
	}
	wasDone := st.done
	st.done = true
	progress := st.progress()
	c.mu.Unlock()

	if !wasDone {
		if err := c.markDone(ctx, userID, st.page); err != nil {
			return Progress{}, err
		}
	}

	return progress, nil
}

// Current returns the user's tour position; ok is false when no tour was started
func (c *Controller) Current(userID string) (Progress, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	st, ok := c.active[userID]
	if !ok {
		return Progress{}, false
	}
	return st.progress(), true
}

// Forget drops the in-memory tour of userID
func (c *Controller) Forget(userID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	delete(c.active, userID)
}

func (c *Controller) markDone(ctx context.Context, userID string, page Page) error {
	if err := c.flags.SetFlag(ctx, userID, page.FlagKey(), FlagDone); err != nil {
		return fmt.Errorf("save onboarding flag: %w", err)
	}
	c.logger.Info("onboarding tour completed", zap.String("user_id", userID), zap.String("page", string(page)))
	return nil
}

func (s *tourState) progress() Progress {
	steps := Steps(s.page)
	p := Progress{
		Page:      s.page,
		Index:     s.index,
		Total:     len(steps),
		Completed: s.done,
	}
	if !s.done && s.index < len(steps) {
		step := steps[s.index]
		p.Step = &step
	}
	return p
}
