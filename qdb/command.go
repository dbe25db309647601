package qdb

import (
	"fmt"

	"github.com/pg-sharding/spqr-insel/pkg/spqrlog"
)

// Command is a reversible mutation of MemQDB state.
type Command interface {
	Do() error
	Undo() error
}

type updateCommand[K comparable, V any] struct {
	m        map[K]V
	key      K
	value    V
	previous V
	present  bool
}

func NewUpdateCommand[K comparable, V any](m map[K]V, key K, value V) Command {
	return &updateCommand[K, V]{m: m, key: key, value: value}
}

func (c *updateCommand[K, V]) Do() error {
	c.previous, c.present = c.m[c.key]
	c.m[c.key] = c.value
	return nil
}

func (c *updateCommand[K, V]) Undo() error {
	if c.present {
		c.m[c.key] = c.previous
	} else {
		delete(c.m, c.key)
	}
	return nil
}

type deleteCommand[K comparable, V any] struct {
	m        map[K]V
	key      K
	previous V
	present  bool
}

func NewDeleteCommand[K comparable, V any](m map[K]V, key K) Command {
	return &deleteCommand[K, V]{m: m, key: key}
}

func (c *deleteCommand[K, V]) Do() error {
	c.previous, c.present = c.m[c.key]
	delete(c.m, c.key)
	return nil
}

func (c *deleteCommand[K, V]) Undo() error {
	if c.present {
		c.m[c.key] = c.previous
	}
	return nil
}

// ExecuteCommands applies commands in order and persists the result with saver.
// When any step fails, the already applied commands are reverted.
func ExecuteCommands(saver func() error, commands ...Command) error {
	completed := 0
	var err error
	for _, c := range commands {
		if err = c.Do(); err != nil {
			break
		}
		completed++
	}
	if err == nil {
		err = saver()
	}
	if err == nil {
		return nil
	}

	spqrlog.Zero.Info().Int("commands", completed).Msg("memqdb: undo commands")
	for i := completed - 1; i >= 0; i-- {
		if undoErr := commands[i].Undo(); undoErr != nil {
			return fmt.Errorf("failed to undo command %s while: %s", undoErr.Error(), err.Error())
		}
	}
	return err
}
