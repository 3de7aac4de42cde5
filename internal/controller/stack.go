package controller

import (
	"fmt"

	"github.com/vk/sotgo/internal/feature"
	"github.com/vk/sotgo/internal/task"
)

// UnknownTaskError is returned when a stack operation names a task that is
// not stacked.
type UnknownTaskError struct {
	Name string
}

func (e *UnknownTaskError) Error() string {
	return fmt.Sprintf("task %s is not in the stack", e.Name)
}

func (c *Controller) index(name string) int {
	for i, tk := range c.stack {
		if tk.Name() == name {
			return i
		}
	}
	return -1
}

func (c *Controller) names() []string {
	out := make([]string, len(c.stack))
	for i, tk := range c.stack {
		out[i] = tk.Name()
	}
	return out
}

// Push appends a task at the lowest priority.
func (c *Controller) Push(tk *task.Task) error {
	if c.Busy() {
		return ErrStackBusy
	}
	if c.index(tk.Name()) >= 0 {
		return fmt.Errorf("task %s is already in the stack", tk.Name())
	}
	c.stack = append(c.stack, tk)
	c.dirty = true
	return nil
}

// Remove drops a task from the stack. Commands already dispatched are not
// affected.
func (c *Controller) Remove(name string) error {
	if c.Busy() {
		return ErrStackBusy
	}
	i := c.index(name)
	if i < 0 {
		return &UnknownTaskError{Name: name}
	}
	c.stack = append(c.stack[:i], c.stack[i+1:]...)
	c.dirty = true
	return nil
}

// Up raises the priority of a task by one step.
func (c *Controller) Up(name string) error {
	return c.swap(name, -1)
}

// Down lowers the priority of a task by one step.
func (c *Controller) Down(name string) error {
	return c.swap(name, 1)
}

func (c *Controller) swap(name string, step int) error {
	if c.Busy() {
		return ErrStackBusy
	}
	i := c.index(name)
	if i < 0 {
		return &UnknownTaskError{Name: name}
	}
	j := i + step
	if j < 0 || j >= len(c.stack) {
		return nil
	}
	c.stack[i], c.stack[j] = c.stack[j], c.stack[i]
	return nil
}

// Clear empties the stack.
func (c *Controller) Clear() error {
	if c.Busy() {
		return ErrStackBusy
	}
	c.stack = nil
	c.dirty = true
	return nil
}

// Has reports whether a task is stacked.
func (c *Controller) Has(name string) bool { return c.index(name) >= 0 }

// Tasks returns the stacked task names, highest priority first.
func (c *Controller) Tasks() []string { return c.names() }

// Task returns a stacked task.
func (c *Controller) Task(name string) (*task.Task, error) {
	i := c.index(name)
	if i < 0 {
		return nil, &UnknownTaskError{Name: name}
	}
	return c.stack[i], nil
}

// AddFeature adds a feature to a stacked task.
func (c *Controller) AddFeature(taskName string, f feature.Feature) error {
	if c.Busy() {
		return ErrStackBusy
	}
	tk, err := c.Task(taskName)
	if err != nil {
		return err
	}
	if err := tk.Add(f); err != nil {
		return err
	}
	c.dirty = true
	return nil
}

// RemoveFeature removes a feature from a stacked task.
func (c *Controller) RemoveFeature(taskName, featureName string) error {
	if c.Busy() {
		return ErrStackBusy
	}
	tk, err := c.Task(taskName)
	if err != nil {
		return err
	}
	if err := tk.Remove(featureName); err != nil {
		return err
	}
	c.dirty = true
	return nil
}
