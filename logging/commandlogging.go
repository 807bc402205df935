package logging

import (
	"context"

	"github.com/sirupsen/logrus"
	"github.com/terraskye/turnengine"
)

// WithCommandLogging wraps a Command with logging functionality. It
// logs the command description before execution and undo, and logs
// errors when either fails.
func WithCommandLogging(logger *logrus.Entry, next turnengine.Command) turnengine.Command {
	return &loggedCommand{Command: next, logger: logger}
}

type loggedCommand struct {
	turnengine.Command
	logger *logrus.Entry
}

func (c *loggedCommand) Execute(ctx context.Context) turnengine.Result {
	c.logger.Infof("Execute: %s (commandID: %s)", c.Describe(), c.CommandID())

	result := c.Command.Execute(ctx)
	if !result.Success {
		c.logger.Errorf("Execute failed: %s (commandID: %s): %s", c.Describe(), c.CommandID(), result.Message)
	}
	return result
}

func (c *loggedCommand) Undo(ctx context.Context) turnengine.Result {
	c.logger.Infof("Undo: %s (commandID: %s)", c.Describe(), c.CommandID())

	result := c.Command.Undo(ctx)
	if !result.Success {
		c.logger.Errorf("Undo failed: %s (commandID: %s): %s", c.Describe(), c.CommandID(), result.Message)
	}
	return result
}
